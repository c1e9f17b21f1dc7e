package main

import (
	"errors"
	"testing"

	"github.com/torosent/pulsehammer/internal/config"
	"github.com/torosent/pulsehammer/internal/orchestrator"
)

func TestPlanAcceptsLoadedConfig(t *testing.T) {
	loader := config.NewLoader()
	cfg, err := loader.Load([]string{"--rps", "100", "-w", "2", "http://localhost:1/"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	launcher, err := orchestrator.NewExecLauncher()
	if err != nil {
		t.Fatalf("NewExecLauncher: %v", err)
	}
	plan := orchestrator.New(launcher).Plan(*cfg)
	if plan.Workers != 2 {
		t.Fatalf("workers = %d, want 2", plan.Workers)
	}
	if plan.PerWorkerRate != 50 {
		t.Fatalf("per-worker rate = %v, want 50", plan.PerWorkerRate)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	err := run([]string{"--rps", "0", "http://localhost:1/"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr config.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error is %T, want ValidationError: %v", err, err)
	}
}

func TestRunRejectsBadThreshold(t *testing.T) {
	err := run([]string{"--rps", "10", "--threshold", "nonsense", "http://localhost:1/"})
	if err == nil {
		t.Fatal("expected threshold parse error")
	}
	var verr config.ValidationError
	if errors.As(err, &verr) {
		t.Fatalf("threshold errors are not configuration validation errors: %v", err)
	}
}

func TestRunHelpIsNotAnError(t *testing.T) {
	if err := run([]string{"--help"}); err != nil {
		t.Fatalf("help request returned error: %v", err)
	}
}
