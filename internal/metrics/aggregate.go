package metrics

import (
	"math"
	"sort"
	"time"
)

// Report is the merged, read-only view over all worker summaries plus the
// statistics derived from them. It is built once by the orchestrator after
// every worker has reported.
type Report struct {
	RunID     string `json:"run_id,omitempty"`
	Workers   int    `json:"workers"`
	Total     int64  `json:"total"`
	Succeeded int64  `json:"succeeded"`
	Failed    int64  `json:"failed"`

	Duration     time.Duration `json:"-"`
	Throughput   float64       `json:"requests_per_sec"`
	TotalBytes   int64         `json:"total_bytes"`
	TransferRate float64       `json:"bytes_per_sec"`
	SuccessRate  float64       `json:"success_rate"`

	// Latencies is the globally sorted merge of every worker's sample.
	Latencies []time.Duration `json:"-"`

	MinLatency    time.Duration `json:"-"`
	MaxLatency    time.Duration `json:"-"`
	MeanLatency   time.Duration `json:"-"`
	MedianLatency time.Duration `json:"-"`
	StdevLatency  time.Duration `json:"-"`
	P50Latency    time.Duration `json:"-"`
	P90Latency    time.Duration `json:"-"`
	P95Latency    time.Duration `json:"-"`
	P99Latency    time.Duration `json:"-"`

	// JSON-friendly millisecond fields.
	DurationMs      float64 `json:"duration_ms"`
	MinLatencyMs    float64 `json:"min_latency_ms"`
	MaxLatencyMs    float64 `json:"max_latency_ms"`
	MeanLatencyMs   float64 `json:"mean_latency_ms"`
	MedianLatencyMs float64 `json:"median_latency_ms"`
	StdevLatencyMs  float64 `json:"stdev_latency_ms"`
	P50LatencyMs    float64 `json:"p50_latency_ms"`
	P90LatencyMs    float64 `json:"p90_latency_ms"`
	P95LatencyMs    float64 `json:"p95_latency_ms"`
	P99LatencyMs    float64 `json:"p99_latency_ms"`

	StatusCounts    map[string]int64 `json:"status_counts,omitempty"`
	ErrorKindCounts map[string]int64 `json:"error_kind_counts,omitempty"`
}

// Merge combines worker summaries into a single report. It is a pure
// function of its inputs: merging the same summaries twice yields identical
// reports.
func Merge(summaries []Summary, wall time.Duration) Report {
	r := Report{
		Workers:         len(summaries),
		Duration:        wall,
		StatusCounts:    make(map[string]int64),
		ErrorKindCounts: make(map[string]int64),
	}

	sampleLen := 0
	for _, s := range summaries {
		sampleLen += len(s.Latencies)
	}
	merged := make([]time.Duration, 0, sampleLen)

	for _, s := range summaries {
		r.Total += s.Total
		r.Succeeded += s.Succeeded
		r.Failed += s.Failed
		r.TotalBytes += s.TotalBytes
		merged = append(merged, s.Latencies...)
		for k, v := range s.StatusCounts {
			r.StatusCounts[k] += v
		}
		for k, v := range s.ErrorKindCounts {
			r.ErrorKindCounts[k] += v
		}
	}

	// Per-worker order is not enough for percentiles; the merged sample must
	// be globally sorted.
	sort.Slice(merged, func(i, j int) bool { return merged[i] < merged[j] })
	r.Latencies = merged

	if wall > 0 {
		r.Throughput = float64(r.Total) / wall.Seconds()
		r.TransferRate = float64(r.TotalBytes) / wall.Seconds()
	}
	if r.Total > 0 {
		r.SuccessRate = float64(r.Succeeded) / float64(r.Total)
	}

	if len(merged) > 0 {
		r.MinLatency = merged[0]
		r.MaxLatency = merged[len(merged)-1]
		r.MeanLatency = meanDuration(merged)
		r.MedianLatency = Percentile(merged, 50)
		r.StdevLatency = stdevDuration(merged)
		r.P50Latency = Percentile(merged, 50)
		r.P90Latency = Percentile(merged, 90)
		r.P95Latency = Percentile(merged, 95)
		r.P99Latency = Percentile(merged, 99)
	}

	r.DurationMs = float64(wall) / float64(time.Millisecond)
	r.MinLatencyMs = toMs(r.MinLatency)
	r.MaxLatencyMs = toMs(r.MaxLatency)
	r.MeanLatencyMs = toMs(r.MeanLatency)
	r.MedianLatencyMs = toMs(r.MedianLatency)
	r.StdevLatencyMs = toMs(r.StdevLatency)
	r.P50LatencyMs = toMs(r.P50Latency)
	r.P90LatencyMs = toMs(r.P90Latency)
	r.P95LatencyMs = toMs(r.P95Latency)
	r.P99LatencyMs = toMs(r.P99Latency)

	return r
}

// Percentile computes the p-th percentile of an ascending sample using
// linear interpolation between the surrounding order statistics. Returns 0
// for an empty sample. p must be in [0, 100].
func Percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	k := float64(n-1) * p / 100.0
	f := int(math.Floor(k))
	c := f + 1
	if c > n-1 {
		c = n - 1
	}
	if f == c {
		return sorted[f]
	}
	d0 := float64(sorted[f]) * (float64(c) - k)
	d1 := float64(sorted[c]) * (k - float64(f))
	return time.Duration(d0 + d1)
}

func meanDuration(sample []time.Duration) time.Duration {
	if len(sample) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range sample {
		sum += d
	}
	return sum / time.Duration(len(sample))
}

// stdevDuration computes the sample standard deviation (n-1 denominator).
// Returns 0 when fewer than 2 samples exist.
func stdevDuration(sample []time.Duration) time.Duration {
	n := len(sample)
	if n < 2 {
		return 0
	}
	mean := float64(meanDuration(sample))
	var sq float64
	for _, d := range sample {
		diff := float64(d) - mean
		sq += diff * diff
	}
	return time.Duration(math.Sqrt(sq / float64(n-1)))
}

func toMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
