package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// ProgressReporter displays a live progress line while workers run. Workers
// report nothing until they finish, so progress tracks elapsed wall time
// against the configured window rather than live request counts.
type ProgressReporter struct {
	total    time.Duration
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
	start    time.Time
}

// NewProgressReporter creates a progress reporter that updates at the given
// interval for a run of the given total duration.
func NewProgressReporter(total time.Duration, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		total:    total,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
		start:    time.Now(),
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates and clears the line.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
		fmt.Fprint(p.writer, "\r\033[K")
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			elapsed := time.Since(p.start).Round(time.Second)
			remaining := p.total - elapsed
			if remaining < 0 {
				remaining = 0
			}
			pct := 0.0
			if p.total > 0 {
				pct = float64(elapsed) / float64(p.total) * 100
				if pct > 100 {
					pct = 100
				}
			}
			fmt.Fprintf(p.writer, "\rRunning: %s elapsed | %s remaining | %.0f%%", elapsed, remaining.Round(time.Second), pct)
		case <-p.done:
			return
		}
	}
}
