package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/torosent/pulsehammer/internal/metrics"
	"github.com/torosent/pulsehammer/internal/worker"
)

// WorkerModeFlag is the sentinel first argument that switches the pulsehammer
// binary into worker mode when the orchestrator re-execs itself.
const WorkerModeFlag = "--worker-mode"

// WorkerFailure reports a worker process that died or exited without
// producing a summary.
type WorkerFailure struct {
	WorkerID string
	Err      error // exit or decode error; nil on a clean EOF
}

func (e *WorkerFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("worker %s exited without a summary: %v", e.WorkerID, e.Err)
	}
	return fmt.Sprintf("worker %s exited without a summary", e.WorkerID)
}

func (e *WorkerFailure) Unwrap() error {
	return e.Err
}

// Handle tracks one launched worker process.
type Handle interface {
	// Summary blocks until the worker emits its summary or exits without one.
	Summary() (metrics.Summary, error)
}

// Launcher starts worker processes. The exec-based implementation is the real
// one; tests substitute an in-process fake.
type Launcher interface {
	Launch(ctx context.Context, spec worker.Spec) (Handle, error)
}

// NewExecLauncher returns a Launcher that re-execs the current binary in
// worker mode, feeding the spec over stdin and reading the summary from
// stdout. Worker stderr is inherited so failure logs reach the terminal.
func NewExecLauncher() (Launcher, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate own binary: %w", err)
	}
	return &execLauncher{binary: exe}, nil
}

type execLauncher struct {
	binary string
}

func (l *execLauncher) Launch(ctx context.Context, spec worker.Spec) (Handle, error) {
	payload, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("encode worker spec: %w", err)
	}

	cmd := exec.CommandContext(ctx, l.binary, WorkerModeFlag)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stderr = os.Stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("worker %s stdout pipe: %w", spec.WorkerID, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start worker %s: %w", spec.WorkerID, err)
	}

	return &execHandle{workerID: spec.WorkerID, cmd: cmd, stdout: stdout}, nil
}

type execHandle struct {
	workerID string
	cmd      *exec.Cmd
	stdout   io.ReadCloser
}

func (h *execHandle) Summary() (metrics.Summary, error) {
	var summary metrics.Summary
	decodeErr := json.NewDecoder(h.stdout).Decode(&summary)
	waitErr := h.cmd.Wait()

	if decodeErr != nil {
		// EOF before a summary means the worker died mid-run. Report the
		// exit error when there is one, it names the real cause.
		if waitErr != nil {
			return metrics.Summary{}, &WorkerFailure{WorkerID: h.workerID, Err: waitErr}
		}
		if errors.Is(decodeErr, io.EOF) {
			return metrics.Summary{}, &WorkerFailure{WorkerID: h.workerID}
		}
		return metrics.Summary{}, &WorkerFailure{WorkerID: h.workerID, Err: decodeErr}
	}
	if waitErr != nil {
		return metrics.Summary{}, &WorkerFailure{WorkerID: h.workerID, Err: waitErr}
	}
	return summary, nil
}
