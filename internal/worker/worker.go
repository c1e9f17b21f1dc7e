// Package worker implements one load-generating process: a single open-loop
// scheduler plus issuer, run in isolation from its siblings.
//
// A worker is always a separate OS process, never just a goroutine, so each
// gets its own connection pool and true parallel CPU time. The orchestrator
// re-execs the pulsehammer binary in worker mode, writes a JSON [Spec] to the
// child's stdin and reads exactly one JSON summary back from its stdout.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/torosent/pulsehammer/internal/config"
	"github.com/torosent/pulsehammer/internal/httpclient"
	"github.com/torosent/pulsehammer/internal/metrics"
	"github.com/torosent/pulsehammer/internal/runner"
	"github.com/torosent/pulsehammer/internal/tracing"
)

// Spec is everything a worker process needs, resolved once by the
// orchestrator and moved (not shared) across the process boundary.
type Spec struct {
	RunID    string `json:"run_id"`
	WorkerID string `json:"worker_id"`

	TargetURL string            `json:"target"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers,omitempty"`
	Body      string            `json:"body,omitempty"`
	BodyFile  string            `json:"body_file,omitempty"`

	Rate        float64       `json:"rate"` // per-worker target, fractional allowed
	Duration    time.Duration `json:"duration"`
	Concurrency int           `json:"concurrency"`
	Timeout     time.Duration `json:"timeout"`
	Warmup      int           `json:"warmup"`
	Insecure    bool          `json:"insecure"`
	HTTP2       bool          `json:"http2"`
	LogErrors   bool          `json:"log_errors,omitempty"`

	Tracing config.TracingConfig `json:"tracing"`
}

// Run executes the worker lifecycle: warmup, paced measurement window, and
// finalization of exactly one summary.
func Run(ctx context.Context, spec Spec) (metrics.Summary, error) {
	client := httpclient.NewClient(spec.Timeout, spec.Insecure, spec.HTTP2)
	builder, err := httpclient.NewRequestBuilder(httpclient.RequestOptions{
		TargetURL: spec.TargetURL,
		Method:    spec.Method,
		Headers:   spec.Headers,
		Body:      spec.Body,
		BodyFile:  spec.BodyFile,
	})
	if err != nil {
		return metrics.Summary{}, err
	}
	base := httpclient.NewIssuer(client, builder)

	var issuer runner.Issuer = base

	tp, err := tracing.Init(ctx, spec.Tracing)
	if err != nil {
		return metrics.Summary{}, err
	}
	if tp.Enabled() {
		issuer = runner.WithTracing(issuer, tp.Tracer(), spec.Method, spec.TargetURL)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(shutdownCtx)
		}()
	}

	if spec.LogErrors {
		issuer = runner.WithLogging(issuer, &stderrFailureLogger{workerID: spec.WorkerID})
	}

	// Warmup attempts prime connections and caches; their outcomes are
	// discarded before the measurement window opens.
	for i := 0; i < spec.Warmup; i++ {
		_ = base.Issue(ctx)
	}

	collector := metrics.NewCollector()
	sched, err := runner.New(runner.Options{
		Rate:        spec.Rate,
		Duration:    spec.Duration,
		Concurrency: spec.Concurrency,
		Issuer:      issuer,
		Sink:        collector.Record,
	})
	if err != nil {
		return metrics.Summary{}, err
	}

	sched.Run(ctx)

	return collector.Finalize(spec.WorkerID), nil
}

// Main is the worker-mode process entry point: decode one spec from stdin,
// run it, emit one summary on stdout. Any error here means the worker dies
// without a summary, which the orchestrator surfaces as a worker failure.
func Main(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	var spec Spec
	if err := json.NewDecoder(stdin).Decode(&spec); err != nil {
		return fmt.Errorf("decode worker spec: %w", err)
	}

	summary, err := Run(ctx, spec)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(stdout).Encode(summary); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

type stderrFailureLogger struct {
	mu       sync.Mutex
	workerID string
}

func (l *stderrFailureLogger) LogFailure(out metrics.Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if out.ErrorKind != "" {
		fmt.Fprintf(os.Stderr, "[pulsehammer:%s] request failed: %s\n", l.workerID, out.ErrorKind)
		return
	}
	fmt.Fprintf(os.Stderr, "[pulsehammer:%s] request failed: HTTP %d\n", l.workerID, out.StatusCode)
}
