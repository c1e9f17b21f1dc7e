// Package metrics holds the result model of a load test run: per-request
// outcomes, the per-worker summary handed across the process boundary, and
// the merged aggregate report.
//
// # Collection
//
// Inside a worker, a single [Collector] receives outcomes from every in-flight
// request goroutine:
//
//	collector := metrics.NewCollector()
//	collector.Record(outcome)
//	summary := collector.Finalize(workerID) // sorts and seals, exactly once
//
// # Aggregation
//
// The orchestrator merges one [Summary] per worker into a [Report]:
//
//	report := metrics.Merge(summaries, wallDuration)
//
// Merging re-sorts the concatenated latency samples; per-worker sorted order
// alone is not sufficient for percentile computation. Percentiles use linear
// interpolation between order statistics, and the latency standard deviation
// uses the sample (n-1) formula.
//
// # Thread safety
//
// Collector is safe for concurrent Record calls. Summary and Report are
// immutable after construction and safe to share.
package metrics
