// Package runner provides the open-loop request scheduler that drives a
// single worker process.
//
// The scheduler fires attempts at a fixed cadence derived from the target
// rate, regardless of how fast responses return:
//
//	s, err := runner.New(runner.Options{
//		Rate:        2500,
//		Duration:    30 * time.Second,
//		Concurrency: 256,
//		Issuer:      myIssuer,
//		Sink:        collector.Record,
//	})
//	result := s.Run(ctx)
//
// # Pacing model
//
// Ticks are spaced 1/rate apart (clamped to one second for sub-1 rates). Each
// due tick launches the attempt as its own goroutine; the goroutine acquires
// a slot from the counting admission gate before issuing, so the gate bounds
// resource usage without ever delaying the pacing loop. If the target cannot
// keep up, attempts queue against the gate and observed throughput drops
// below the nominal rate — that shortfall is reported, not hidden.
//
// Requests are admitted in strict tick order; completions are unordered.
// After the deadline no new ticks fire, and Run joins every launched attempt
// before returning, so admitted work is never truncated.
//
// # Middleware
//
// [WithLogging] wraps an [Issuer] to surface failed attempts without
// affecting pacing or classification.
package runner
