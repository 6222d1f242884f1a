package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rallyops/schedule-engine/internal/dto"
	"github.com/rallyops/schedule-engine/internal/models"
	"github.com/rallyops/schedule-engine/internal/service"
	"github.com/rallyops/schedule-engine/pkg/config"
	"github.com/rallyops/schedule-engine/pkg/export"
	"github.com/rallyops/schedule-engine/pkg/jobs"
	"github.com/rallyops/schedule-engine/pkg/logger"
)

type problemFile struct {
	Problem  *models.ProblemDescription `json:"problem"`
	Previous *models.ScheduleSolution   `json:"previous,omitempty"`
	Locks    []string                   `json:"locks,omitempty"`
	Config   dto.SolveConfig            `json:"config"`
}

func main() {
	var (
		problemPath = flag.String("problem", "", "path to problem description JSON (required)")
		mode        = flag.String("mode", "optimize", "solve mode: fast, optimize or reoptimize")
		runs        = flag.Int("runs", 1, "optimize runs to race, best result wins")
		csvPath     = flag.String("csv", "", "write the schedule as CSV to this path")
		pdfPath     = flag.String("pdf", "", "write the schedule sheet as PDF to this path")
		jsonOut     = flag.Bool("json", false, "print the full result as JSON instead of the breakdown table")
	)
	flag.Parse()

	if *problemPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	raw, err := os.ReadFile(*problemPath)
	if err != nil {
		log.Fatalf("failed to read problem file: %v", err)
	}
	var input problemFile
	if err := json.Unmarshal(raw, &input); err != nil {
		log.Fatalf("failed to parse problem file: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	solver := service.NewSolveService(nil, logr, metrics, service.SolveServiceConfig{
		Defaults:  cfg.Solver,
		ResultTTL: cfg.Results.TTL,
	})

	runner := jobs.NewRunner(jobs.RunnerConfig{
		Workers:    cfg.Runner.Workers,
		BufferSize: cfg.Runner.BufferSize,
		Logger:     logr,
	})
	runner.Start(ctx)
	defer runner.Stop()

	var result *dto.SolveResult
	var diff []dto.SlotChange

	handle, err := runner.Submit(func(taskCtx context.Context, report func(jobs.ProgressEvent)) error {
		onProgress := func(ev dto.ProgressEvent) {
			report(jobs.ProgressEvent{
				Iteration:   ev.Iteration,
				Temperature: ev.Temperature,
				BestCost:    ev.BestCost,
			})
		}

		switch *mode {
		case "reoptimize":
			if input.Previous == nil {
				return fmt.Errorf("reoptimize mode requires a previous solution in the problem file")
			}
			reopt, err := solver.Reoptimize(taskCtx, dto.ReoptimizeRequest{
				Problem:  input.Problem,
				Previous: input.Previous,
				Locks:    input.Locks,
				Config:   input.Config,
			}, onProgress)
			if err != nil {
				return err
			}
			result = &reopt.SolveResult
			diff = reopt.Diff
			return nil
		case "fast", "optimize":
			solved, err := solver.GenerateBest(taskCtx, dto.GenerateRequest{
				Problem: input.Problem,
				Mode:    dto.SolveMode(*mode),
				Config:  input.Config,
			}, *runs, onProgress)
			if err != nil {
				return err
			}
			result = solved
			return nil
		default:
			return fmt.Errorf("unknown mode %q", *mode)
		}
	})
	if err != nil {
		log.Fatalf("failed to submit solve: %v", err)
	}

	go func() {
		for ev := range handle.Progress() {
			logr.Sugar().Debugw("progress",
				"iteration", ev.Iteration,
				"temperature", ev.Temperature,
				"best_cost", ev.BestCost,
			)
		}
	}()

	// Interrupts cancel the task context; the solve still returns its best
	// schedule so far, so wait for the task itself rather than the signal.
	if err := handle.Wait(context.Background()); err != nil {
		log.Fatalf("solve failed: %v", err)
	}

	for _, change := range diff {
		fmt.Printf("moved %s: %s %s -> %s %s\n",
			change.GameID,
			change.OldSlot.Court, change.OldSlot.Start.Format("15:04"),
			change.NewSlot.Court, change.NewSlot.Start.Format("15:04"),
		)
	}

	if *jsonOut {
		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatalf("failed to encode result: %v", err)
		}
		fmt.Println(string(encoded))
	} else {
		printBreakdown(result)
	}

	if *csvPath != "" {
		data, err := export.ScheduleDataset(result.Games, result.Solution).CSV()
		if err != nil {
			log.Fatalf("failed to render csv: %v", err)
		}
		if err := os.WriteFile(*csvPath, data, 0o644); err != nil {
			log.Fatalf("failed to write csv: %v", err)
		}
	}

	if *pdfPath != "" {
		data, err := export.ScheduleSheet("Schedule",
			export.ScheduleDataset(result.Games, result.Solution),
			export.BreakdownDataset(result.Breakdown),
		)
		if err != nil {
			log.Fatalf("failed to render pdf: %v", err)
		}
		if err := os.WriteFile(*pdfPath, data, 0o644); err != nil {
			log.Fatalf("failed to write pdf: %v", err)
		}
	}
}

func printBreakdown(result *dto.SolveResult) {
	fmt.Printf("solve %s (%s): %s, %d games, cost %.4f\n",
		result.SolveID, result.Mode, result.Status, len(result.Games), result.Report.WeightedTotal)
	if result.Stats.Iterations > 0 {
		fmt.Printf("iterations %d, accepted %d, stop: %s\n",
			result.Stats.Iterations, result.Stats.Accepted, result.Stats.StopReason)
	}
	fmt.Printf("%-24s %8s %8s %12s\n", "objective", "raw", "weight", "contribution")
	for _, c := range result.Breakdown.Contributions {
		fmt.Printf("%-24s %8.4f %8.2f %12.4f\n", c.Objective, c.RawCost, c.Weight, c.Contribution)
	}
	fmt.Printf("primary trade-off: %s\n", result.Breakdown.PrimaryTradeoff)
}
