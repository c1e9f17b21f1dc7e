package runner

import (
	"time"

	"github.com/torosent/pulsehammer/internal/metrics"
)

// Options configure a Scheduler.
type Options struct {
	Rate        float64               // target requests per second for this worker (fractional allowed)
	Duration    time.Duration         // measurement window (required, > 0)
	Concurrency int                   // max in-flight attempts (required, >= 1)
	Issuer      Issuer                // request executor (required)
	Sink        func(metrics.Outcome) // invoked once per completed attempt; must be safe for concurrent use
}
