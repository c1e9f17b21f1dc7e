package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/torosent/pulsehammer/internal/config"
	"github.com/torosent/pulsehammer/internal/orchestrator"
	"github.com/torosent/pulsehammer/internal/output"
	"github.com/torosent/pulsehammer/internal/threshold"
	"github.com/torosent/pulsehammer/internal/worker"
)

const progressInterval = time.Second

func main() {
	// Worker mode: this process is a child re-exec'd by the orchestrator.
	if len(os.Args) > 1 && os.Args[1] == orchestrator.WorkerModeFlag {
		runWorker()
		return
	}

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var verr config.ValidationError
		if errors.As(err, &verr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func runWorker() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := worker.Main(ctx, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "worker error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Parse thresholds up front so a typo fails before any load is sent.
	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	launcher, err := orchestrator.NewExecLauncher()
	if err != nil {
		return err
	}
	orch := orchestrator.New(launcher)
	plan := orch.Plan(*cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !cfg.JSONOutput {
		fmt.Printf("[pulsehammer] run %s: %s %s\n", plan.RunID, cfg.Method, cfg.TargetURL)
		fmt.Printf("[pulsehammer] %d worker(s) (%s sizing), %.2f req/s each, %s window\n",
			plan.Workers, plan.Reason, plan.PerWorkerRate, cfg.Duration)
	}

	var progress *output.ProgressReporter
	if cfg.Progress && !cfg.JSONOutput {
		progress = output.NewProgressReporter(cfg.Duration, progressInterval, os.Stdout)
		progress.Start()
	}

	report, runErr := orch.Run(ctx, *cfg, plan)
	if progress != nil {
		progress.Stop()
	}
	if runErr != nil {
		return runErr
	}

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, report); err != nil {
			return err
		}
	} else {
		output.PrintReport(os.Stdout, report)
	}

	if cfg.CSVOutput != "" {
		if err := output.SaveCSV(cfg.CSVOutput, report); err != nil {
			return err
		}
		if !cfg.JSONOutput {
			fmt.Printf("\n[pulsehammer] CSV report written to %s\n", cfg.CSVOutput)
		}
	}

	var results []threshold.Result
	if len(thresholds) > 0 {
		results = threshold.NewEvaluator(thresholds).Evaluate(report)
	}

	if cfg.HTMLOutput != "" {
		metadata := output.ReportMetadata{TargetURL: cfg.TargetURL, Method: cfg.Method}
		if err := output.SaveHTML(cfg.HTMLOutput, report, results, metadata); err != nil {
			return err
		}
		if !cfg.JSONOutput {
			fmt.Printf("[pulsehammer] HTML report written to %s\n", cfg.HTMLOutput)
		}
	}

	if len(results) > 0 {
		if !cfg.JSONOutput {
			fmt.Println("\nThresholds:")
			for _, r := range results {
				fmt.Printf("  %s\n", r.Message)
			}
		}
		if !threshold.AllPassed(results) {
			failed := 0
			for _, r := range results {
				if !r.Pass {
					failed++
				}
			}
			return fmt.Errorf("%d of %d thresholds failed", failed, len(results))
		}
	}

	return nil
}
