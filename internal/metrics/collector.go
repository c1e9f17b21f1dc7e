package metrics

import (
	"sort"
	"sync"
	"time"
)

// Collector accumulates per-request outcomes inside a single worker process
// in a thread-safe manner. Outcomes arrive in completion order, which is not
// dispatch order; ordering only matters at finalization time.
type Collector struct {
	mu           sync.Mutex
	total        int64
	succeeded    int64
	failed       int64
	totalBytes   int64
	latencies    []time.Duration
	statusCounts map[string]int64
	errorKinds   map[string]int64
	finalized    bool
	summary      Summary
}

// Summary is the compact per-worker result handed to the orchestrator over
// the process boundary. Once produced it is never mutated.
type Summary struct {
	WorkerID        string           `json:"worker_id,omitempty"`
	Total           int64            `json:"total"`
	Succeeded       int64            `json:"succeeded"`
	Failed          int64            `json:"failed"`
	Latencies       []time.Duration  `json:"latencies"`
	StatusCounts    map[string]int64 `json:"status_counts"`
	ErrorKindCounts map[string]int64 `json:"error_kind_counts,omitempty"`
	TotalBytes      int64            `json:"total_bytes"`
}

func NewCollector() *Collector {
	return &Collector{
		statusCounts: make(map[string]int64),
		errorKinds:   make(map[string]int64),
	}
}

// Record adds one outcome. Attempts recorded after Finalize are dropped; the
// scheduler joins all in-flight work before the worker finalizes, so this
// only guards against misuse.
func (c *Collector) Record(o Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finalized {
		return
	}

	c.total++
	if o.Success {
		c.succeeded++
	} else {
		c.failed++
	}
	c.totalBytes += o.ResponseBytes
	c.statusCounts[o.StatusLabel()]++
	if o.ErrorKind != "" {
		c.errorKinds[string(o.ErrorKind)]++
	}

	// Latency is only meaningful for attempts that received a status; pure
	// transport failures are counted but excluded from the latency sample.
	if o.HasStatus() {
		c.latencies = append(c.latencies, o.Latency())
	}
}

// Finalize sorts the latency sample and seals the collector. The first call
// builds the summary; later calls return the same value.
func (c *Collector) Finalize(workerID string) Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finalized {
		return c.summary
	}
	c.finalized = true

	sort.Slice(c.latencies, func(i, j int) bool { return c.latencies[i] < c.latencies[j] })

	c.summary = Summary{
		WorkerID:     workerID,
		Total:        c.total,
		Succeeded:    c.succeeded,
		Failed:       c.failed,
		Latencies:    c.latencies,
		StatusCounts: c.statusCounts,
		TotalBytes:   c.totalBytes,
	}
	if len(c.errorKinds) > 0 {
		c.summary.ErrorKindCounts = c.errorKinds
	}
	return c.summary
}
