package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rallyops/schedule-engine/internal/dto"
	"github.com/rallyops/schedule-engine/internal/engine"
	"github.com/rallyops/schedule-engine/internal/models"
	"github.com/rallyops/schedule-engine/pkg/config"
	appErrors "github.com/rallyops/schedule-engine/pkg/errors"
)

// SolveService runs schedule generation and re-optimization and keeps recent
// results for re-fetching.
type SolveService struct {
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	defaults  config.SolverConfig
	store     *resultStore
}

// SolveServiceConfig governs solver defaults and result retention.
type SolveServiceConfig struct {
	Defaults  config.SolverConfig
	ResultTTL time.Duration
}

// NewSolveService wires solver dependencies. metrics may be nil.
func NewSolveService(validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, cfg SolveServiceConfig) *SolveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 30 * time.Minute
	}
	return &SolveService{
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		defaults:  cfg.Defaults,
		store:     newResultStore(cfg.ResultTTL),
	}
}

// Generate produces a schedule for the problem. Fast mode returns the
// deterministic baseline; optimize mode anneals from it. onProgress may be
// nil.
func (s *SolveService) Generate(ctx context.Context, req dto.GenerateRequest, onProgress func(dto.ProgressEvent)) (*dto.SolveResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate payload")
	}

	weights, err := s.resolveWeights(req.Problem)
	if err != nil {
		return nil, err
	}

	solveID := uuid.NewString()
	start := time.Now()
	s.metrics.SolveStarted()

	baseline, err := engine.GenerateBaseline(req.Problem)
	if err != nil {
		s.metrics.SolveFinished(string(req.Mode), "failed", 0, 0, 0, time.Since(start))
		return nil, err
	}

	// Shallow copy so the caller's problem keeps its original Games list.
	problem := *req.Problem
	problem.Games = baseline.Games

	result := &dto.SolveResult{
		SolveID: solveID,
		Mode:    req.Mode,
		Status:  dto.StatusCompleted,
		Games:   baseline.Games,
	}

	switch req.Mode {
	case dto.ModeFast:
		result.Solution = baseline.Solution
		result.Report = engine.Evaluate(&problem, baseline.Solution, weights)
	default:
		cfg := s.annealConfig(req.Config)
		annealer := engine.NewAnnealer(&problem, weights, cfg, nil, s.progressFunc(solveID, onProgress))
		best, report, stats := annealer.Run(ctx, baseline.Solution)
		result.Solution = best
		result.Report = report
		result.Stats = dto.FromEngineStats(stats)
		if stats.Cancelled {
			result.Status = dto.StatusCancelled
		}
	}

	result.Breakdown = engine.Explain(result.Report, weights)

	s.metrics.SolveFinished(string(req.Mode), result.Status, result.Stats.Iterations, result.Stats.Accepted, result.Report.WeightedTotal, time.Since(start))
	s.store.Save(*result)
	s.logger.Sugar().Infow("solve finished",
		"solve_id", solveID,
		"mode", req.Mode,
		"status", result.Status,
		"games", len(result.Games),
		"cost", result.Report.WeightedTotal,
		"iterations", result.Stats.Iterations,
	)
	return result, nil
}

// GenerateBest runs n independently seeded optimize solves and keeps the
// cheapest. A caller-supplied seed makes every run reproducible via derived
// seeds; without one each run draws its own randomness.
func (s *SolveService) GenerateBest(ctx context.Context, req dto.GenerateRequest, n int, onProgress func(dto.ProgressEvent)) (*dto.SolveResult, error) {
	if n <= 1 {
		return s.Generate(ctx, req, onProgress)
	}
	req.Mode = dto.ModeOptimize

	var best *dto.SolveResult
	for i := 0; i < n; i++ {
		attempt := req
		if req.Config.RandomSeed != nil {
			derived := *req.Config.RandomSeed + int64(i)
			attempt.Config.RandomSeed = &derived
		}
		result, err := s.Generate(ctx, attempt, onProgress)
		if err != nil {
			return nil, err
		}
		if best == nil || result.Report.WeightedTotal < best.Report.WeightedTotal {
			best = result
		}
		if result.Status == dto.StatusCancelled {
			break
		}
	}
	return best, nil
}

// Reoptimize improves an existing schedule while keeping locked games fixed.
func (s *SolveService) Reoptimize(ctx context.Context, req dto.ReoptimizeRequest, onProgress func(dto.ProgressEvent)) (*dto.ReoptimizeResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reoptimize payload")
	}

	weights, err := s.resolveWeights(req.Problem)
	if err != nil {
		return nil, err
	}

	solveID := uuid.NewString()
	start := time.Now()
	s.metrics.SolveStarted()

	cfg := s.annealConfig(req.Config)
	outcome, err := engine.Reoptimize(ctx, req.Problem, req.Previous, req.Locks, weights, cfg, s.progressFunc(solveID, onProgress))
	if err != nil {
		s.metrics.SolveFinished(string(dto.ModeOptimize), "failed", 0, 0, 0, time.Since(start))
		return nil, err
	}

	result := &dto.ReoptimizeResult{
		SolveResult: dto.SolveResult{
			SolveID:   solveID,
			Mode:      dto.ModeOptimize,
			Status:    dto.StatusCompleted,
			Games:     req.Problem.Games,
			Solution:  outcome.Solution,
			Report:    outcome.Report,
			Breakdown: engine.Explain(outcome.Report, weights),
			Stats:     dto.FromEngineStats(outcome.Stats),
		},
		Diff: make([]dto.SlotChange, 0, len(outcome.Diff)),
	}
	if outcome.Stats.Cancelled {
		result.Status = dto.StatusCancelled
	}
	for _, change := range outcome.Diff {
		result.Diff = append(result.Diff, dto.SlotChange{
			GameID:  change.GameID,
			OldSlot: change.OldSlot,
			NewSlot: change.NewSlot,
		})
	}

	s.metrics.SolveFinished(string(dto.ModeOptimize), result.Status, result.Stats.Iterations, result.Stats.Accepted, result.Report.WeightedTotal, time.Since(start))
	s.store.Save(result.SolveResult)
	s.logger.Sugar().Infow("reoptimize finished",
		"solve_id", solveID,
		"status", result.Status,
		"locks", len(req.Locks),
		"changed", len(result.Diff),
		"cost", result.Report.WeightedTotal,
	)
	return result, nil
}

// Validate checks a schedule against the problem's hard rules without
// solving anything.
func (s *SolveService) Validate(problem *models.ProblemDescription, solution *models.ScheduleSolution) []models.Conflict {
	return engine.Validate(problem, solution)
}

// Result re-fetches a recent solve by ID.
func (s *SolveService) Result(id string) (*dto.SolveResult, error) {
	result, ok := s.store.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "solve result not found or expired")
	}
	return &result, nil
}

func (s *SolveService) resolveWeights(problem *models.ProblemDescription) (models.WeightVector, error) {
	weights := models.DefaultWeights().Merge(problem.Weights)
	if err := weights.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidWeights.Code, appErrors.ErrInvalidWeights.Status, appErrors.ErrInvalidWeights.Message)
	}
	return weights, nil
}

func (s *SolveService) annealConfig(cfg dto.SolveConfig) engine.AnnealConfig {
	out := engine.AnnealConfig{
		InitialTemperature: cfg.InitialTemperature,
		CoolingStrategy:    engine.CoolingStrategy(cfg.CoolingStrategy),
		CoolingRate:        cfg.CoolingRate,
		MaxIterations:      cfg.MaxIterations,
		PlateauWindow:      s.defaults.PlateauWindow,
		NeighborRetries:    cfg.NeighborRetries,
		ProgressInterval:   cfg.ProgressInterval,
	}
	if out.InitialTemperature <= 0 {
		out.InitialTemperature = s.defaults.InitialTemperature
	}
	if out.CoolingStrategy == "" {
		out.CoolingStrategy = engine.CoolingStrategy(s.defaults.CoolingStrategy)
	}
	if out.CoolingRate <= 0 {
		out.CoolingRate = s.defaults.CoolingRate
	}
	if out.MaxIterations <= 0 {
		out.MaxIterations = s.defaults.MaxIterations
	}
	// An explicit plateau window of 0 disables early stopping, so only a nil
	// value falls back to the default.
	if cfg.PlateauWindow != nil {
		out.PlateauWindow = *cfg.PlateauWindow
	}
	if out.NeighborRetries <= 0 {
		out.NeighborRetries = s.defaults.NeighborRetries
	}
	if out.ProgressInterval <= 0 {
		out.ProgressInterval = s.defaults.ProgressInterval
	}
	if cfg.RandomSeed != nil {
		out.Seed = *cfg.RandomSeed
		out.SeedSet = true
	}
	return out
}

func (s *SolveService) progressFunc(solveID string, onProgress func(dto.ProgressEvent)) engine.ProgressFunc {
	if onProgress == nil {
		return nil
	}
	return func(p engine.Progress) {
		onProgress(dto.ProgressEvent{
			SolveID:         solveID,
			Iteration:       p.Iteration,
			Temperature:     p.Temperature,
			BestCost:        p.BestCost,
			AcceptanceRatio: p.AcceptanceRatio,
		})
	}
}

type resultStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]storedResult
}

type storedResult struct {
	result  dto.SolveResult
	savedAt time.Time
}

func newResultStore(ttl time.Duration) *resultStore {
	return &resultStore{
		ttl:   ttl,
		items: make(map[string]storedResult),
	}
}

func (s *resultStore) Save(result dto.SolveResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[result.SolveID] = storedResult{result: result, savedAt: time.Now()}
}

func (s *resultStore) Get(id string) (dto.SolveResult, bool) {
	s.mu.RLock()
	stored, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return dto.SolveResult{}, false
	}
	if time.Since(stored.savedAt) > s.ttl {
		s.Delete(id)
		return dto.SolveResult{}, false
	}
	return stored.result, true
}

func (s *resultStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
