package runner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/torosent/pulsehammer/internal/metrics"
)

// Issuer abstracts executing a single request attempt.
type Issuer interface {
	Issue(ctx context.Context) metrics.Outcome
}

// Result captures what the scheduler dispatched.
type Result struct {
	Dispatched int64
	Elapsed    time.Duration
}

// Scheduler fires requests open-loop: at a fixed cadence derived from the
// target rate, independent of how long individual requests take. A counting
// admission gate bounds how many attempts are in flight at once, but the
// pacing loop itself never blocks on the gate.
type Scheduler struct {
	opt      Options
	interval time.Duration
}

func New(opt Options) (*Scheduler, error) {
	if opt.Issuer == nil {
		return nil, errors.New("issuer is required")
	}
	if opt.Concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be >= 1, got %d", opt.Concurrency)
	}
	if opt.Duration <= 0 {
		return nil, fmt.Errorf("duration must be > 0, got %s", opt.Duration)
	}

	// Rates below one request per second clamp to a one-second interval, so
	// the interval computation never divides by zero or explodes. Fractional
	// rates above one are honored exactly.
	interval := time.Duration(float64(time.Second) / math.Max(1.0, opt.Rate))

	return &Scheduler{opt: opt, interval: interval}, nil
}

// Interval exposes the computed tick spacing.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Run paces attempts until the deadline, then joins every launched attempt
// before returning. Requests admitted before the deadline always run to
// completion; nothing is cancelled on deadline expiry.
func (s *Scheduler) Run(ctx context.Context) Result {
	start := time.Now()
	deadline := start.Add(s.opt.Duration)
	next := start

	gate := make(chan struct{}, s.opt.Concurrency)
	var wg sync.WaitGroup
	var dispatched int64

	for ctx.Err() == nil {
		now := time.Now()
		if !now.Before(deadline) {
			break
		}

		if !now.Before(next) {
			dispatched++
			wg.Add(1)
			go func() {
				defer wg.Done()
				select {
				case gate <- struct{}{}:
				case <-ctx.Done():
					return
				}
				defer func() { <-gate }()

				out := s.opt.Issuer.Issue(ctx)
				if s.opt.Sink != nil {
					s.opt.Sink(out)
				}
			}()
			next = next.Add(s.interval)
			continue
		}

		// Short sleep keeps millisecond-scale pacing without busy-spinning.
		sleep := next.Sub(now)
		if sleep > time.Millisecond {
			sleep = time.Millisecond
		}
		time.Sleep(sleep)
	}

	wg.Wait()

	return Result{
		Dispatched: dispatched,
		Elapsed:    time.Since(start),
	}
}
