package metrics

import (
	"sync"
	"testing"
	"time"
)

func outcomeAt(status int, latency time.Duration, bytes int64) Outcome {
	start := time.Unix(0, 0)
	return Outcome{
		Start:         start,
		End:           start.Add(latency),
		StatusCode:    status,
		Success:       status >= 200 && status < 400,
		ResponseBytes: bytes,
	}
}

func TestCollectorCounts(t *testing.T) {
	c := NewCollector()
	c.Record(outcomeAt(200, 10*time.Millisecond, 100))
	c.Record(outcomeAt(200, 30*time.Millisecond, 100))
	c.Record(outcomeAt(500, 20*time.Millisecond, 50))
	c.Record(Outcome{Start: time.Unix(0, 0), End: time.Unix(1, 0), ErrorKind: ErrorKindTimeout})

	s := c.Finalize("w1")

	if s.Total != 4 || s.Succeeded != 2 || s.Failed != 2 {
		t.Fatalf("totals = %d/%d/%d, want 4/2/2", s.Total, s.Succeeded, s.Failed)
	}
	if s.Total != s.Succeeded+s.Failed {
		t.Fatal("total must equal succeeded + failed")
	}
	// The timeout carries no status, so only 3 latency samples remain.
	if len(s.Latencies) != 3 {
		t.Fatalf("latencies = %d, want 3", len(s.Latencies))
	}
	for i := 1; i < len(s.Latencies); i++ {
		if s.Latencies[i-1] > s.Latencies[i] {
			t.Fatalf("latencies not sorted: %v", s.Latencies)
		}
	}
	if s.StatusCounts["200"] != 2 || s.StatusCounts["500"] != 1 || s.StatusCounts["ERR"] != 1 {
		t.Fatalf("status counts = %v", s.StatusCounts)
	}
	var statusSum int64
	for _, v := range s.StatusCounts {
		statusSum += v
	}
	if statusSum != s.Total {
		t.Fatalf("status counts sum to %d, want %d", statusSum, s.Total)
	}
	if s.ErrorKindCounts["Timeout"] != 1 {
		t.Fatalf("error kinds = %v", s.ErrorKindCounts)
	}
	if s.TotalBytes != 250 {
		t.Fatalf("total bytes = %d, want 250", s.TotalBytes)
	}
	if s.WorkerID != "w1" {
		t.Fatalf("worker id = %q", s.WorkerID)
	}
}

func TestCollectorFinalizeOnce(t *testing.T) {
	c := NewCollector()
	c.Record(outcomeAt(200, 5*time.Millisecond, 10))

	first := c.Finalize("w1")
	// Late records after finalization must not alter the summary.
	c.Record(outcomeAt(200, 5*time.Millisecond, 10))
	second := c.Finalize("w1")

	if first.Total != 1 || second.Total != 1 {
		t.Fatalf("finalize not sealed: first=%d second=%d", first.Total, second.Total)
	}
}

func TestCollectorConcurrentRecord(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				c.Record(outcomeAt(200, time.Millisecond, 1))
			}
		}()
	}
	wg.Wait()

	s := c.Finalize("w1")
	if s.Total != 1000 || s.Succeeded != 1000 {
		t.Fatalf("total = %d, want 1000", s.Total)
	}
}

func TestOutcomeLatencyNeverNegative(t *testing.T) {
	o := Outcome{Start: time.Unix(10, 0), End: time.Unix(9, 0)}
	if o.Latency() != 0 {
		t.Fatalf("latency = %s, want 0", o.Latency())
	}
}

func TestOutcomeStatusLabel(t *testing.T) {
	if got := (Outcome{StatusCode: 204}).StatusLabel(); got != "204" {
		t.Fatalf("label = %q, want 204", got)
	}
	if got := (Outcome{ErrorKind: ErrorKindConnection}).StatusLabel(); got != "ERR" {
		t.Fatalf("label = %q, want ERR", got)
	}
}
