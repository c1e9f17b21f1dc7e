// Package orchestrator plans a run, spawns worker processes, and merges
// their summaries into one aggregate report.
package orchestrator

import (
	"context"
	"fmt"
	"runtime"

	"github.com/oklog/ulid/v2"

	"github.com/torosent/pulsehammer/internal/config"
	"github.com/torosent/pulsehammer/internal/metrics"
	"github.com/torosent/pulsehammer/internal/worker"
)

// Plan is the resolved worker layout for one run, computed before anything
// is launched so it can be shown to the user up front.
type Plan struct {
	RunID         string
	Workers       int
	Reason        string // which sizing rule decided the count
	PerWorkerRate float64
}

// Orchestrator launches worker processes and collects their summaries.
type Orchestrator struct {
	launcher Launcher
	cpuCount int
}

func New(launcher Launcher) *Orchestrator {
	return &Orchestrator{launcher: launcher, cpuCount: runtime.NumCPU()}
}

// Plan sizes the worker pool and splits the aggregate rate evenly across it.
// The per-worker rate stays fractional so the aggregate target is preserved
// exactly even when it does not divide evenly.
func (o *Orchestrator) Plan(cfg config.Config) Plan {
	workers, reason := ChooseWorkers(cfg.AutoWorkers, cfg.Workers, cfg.Rate, PerWorkerTargetRPS, o.cpuCount)
	return Plan{
		RunID:         ulid.Make().String(),
		Workers:       workers,
		Reason:        reason,
		PerWorkerRate: float64(cfg.Rate) / float64(workers),
	}
}

// Run executes the plan: every worker is launched before any summary is
// awaited, so the processes run concurrently for the full window. Any worker
// that dies without producing a summary fails the whole run.
func (o *Orchestrator) Run(ctx context.Context, cfg config.Config, plan Plan) (metrics.Report, error) {
	handles := make([]Handle, 0, plan.Workers)
	for i := 0; i < plan.Workers; i++ {
		spec := worker.Spec{
			RunID:       plan.RunID,
			WorkerID:    fmt.Sprintf("w%d", i),
			TargetURL:   cfg.TargetURL,
			Method:      cfg.Method,
			Headers:     cfg.Headers,
			Body:        cfg.EffectiveBody(),
			BodyFile:    cfg.BodyFile,
			Rate:        plan.PerWorkerRate,
			Duration:    cfg.Duration,
			Concurrency: cfg.Concurrency,
			Timeout:     cfg.Timeout,
			Warmup:      cfg.Warmup,
			Insecure:    cfg.Insecure,
			HTTP2:       cfg.HTTP2,
			LogErrors:   cfg.LogErrors,
			Tracing:     cfg.Tracing,
		}
		h, err := o.launcher.Launch(ctx, spec)
		if err != nil {
			return metrics.Report{}, fmt.Errorf("launch worker %s: %w", spec.WorkerID, err)
		}
		handles = append(handles, h)
	}

	type result struct {
		summary metrics.Summary
		err     error
	}
	results := make(chan result, len(handles))
	for _, h := range handles {
		go func(h Handle) {
			s, err := h.Summary()
			results <- result{summary: s, err: err}
		}(h)
	}

	summaries := make([]metrics.Summary, 0, len(handles))
	var firstErr error
	for range handles {
		r := <-results
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		summaries = append(summaries, r.summary)
	}
	if firstErr != nil {
		return metrics.Report{}, firstErr
	}

	report := metrics.Merge(summaries, cfg.Duration)
	report.RunID = plan.RunID
	return report, nil
}
