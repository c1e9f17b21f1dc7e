package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunPacedWindow(t *testing.T) {
	if testing.Short() {
		t.Skip("paced run takes two seconds")
	}

	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		time.Sleep(10 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	summary, err := Run(context.Background(), Spec{
		RunID:       "test-run",
		WorkerID:    "w0",
		TargetURL:   srv.URL,
		Method:      "GET",
		Rate:        100,
		Duration:    2 * time.Second,
		Concurrency: 50,
		Timeout:     5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Open-loop pacing holds the dispatch count near rate*duration even
	// though every response takes 10ms.
	if summary.Total < 195 || summary.Total > 205 {
		t.Fatalf("total = %d, want ~200", summary.Total)
	}
	if summary.Succeeded != summary.Total {
		t.Fatalf("succeeded = %d, total = %d", summary.Succeeded, summary.Total)
	}
	if got := summary.StatusCounts["200"]; got != summary.Total {
		t.Fatalf("status 200 count = %d, want %d", got, summary.Total)
	}
	if len(summary.Latencies) != int(summary.Total) {
		t.Fatalf("latencies = %d, want %d", len(summary.Latencies), summary.Total)
	}
	for _, l := range summary.Latencies {
		if l < 10*time.Millisecond {
			t.Fatalf("latency %v below handler delay", l)
		}
	}
}

func TestRunWarmupExcludedFromSummary(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	summary, err := Run(context.Background(), Spec{
		WorkerID:    "w0",
		TargetURL:   srv.URL,
		Method:      "GET",
		Rate:        10,
		Duration:    300 * time.Millisecond,
		Concurrency: 4,
		Timeout:     2 * time.Second,
		Warmup:      5,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	total := atomic.LoadInt64(&hits)
	if total != summary.Total+5 {
		t.Fatalf("server saw %d requests, summary counted %d, want warmup gap of 5", total, summary.Total)
	}
}

func TestRunRejectsBadTarget(t *testing.T) {
	_, err := Run(context.Background(), Spec{
		WorkerID:    "w0",
		TargetURL:   "not a url",
		Method:      "GET",
		Rate:        1,
		Duration:    time.Second,
		Concurrency: 1,
	})
	if err == nil {
		t.Fatal("expected error for invalid target")
	}
}

func TestMainRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	spec := Spec{
		RunID:       "run-1",
		WorkerID:    "w3",
		TargetURL:   srv.URL,
		Method:      "GET",
		Rate:        20,
		Duration:    250 * time.Millisecond,
		Concurrency: 8,
		Timeout:     2 * time.Second,
	}
	in, err := json.Marshal(spec)
	if err != nil {
		t.Fatalf("marshal spec: %v", err)
	}

	var out bytes.Buffer
	if err := Main(context.Background(), bytes.NewReader(in), &out); err != nil {
		t.Fatalf("Main: %v", err)
	}

	var summary struct {
		WorkerID string `json:"worker_id"`
		Total    int64  `json:"total"`
	}
	if err := json.NewDecoder(&out).Decode(&summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.WorkerID != "w3" {
		t.Fatalf("worker_id = %q, want w3", summary.WorkerID)
	}
	if summary.Total == 0 {
		t.Fatal("summary reported zero requests")
	}
}

func TestMainRejectsMalformedSpec(t *testing.T) {
	var out bytes.Buffer
	err := Main(context.Background(), strings.NewReader("{not json"), &out)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if out.Len() != 0 {
		t.Fatalf("stdout should stay empty on failure, got %q", out.String())
	}
}
