package engine

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/rallyops/schedule-engine/internal/models"
)

// CoolingStrategy selects how temperature decays per iteration.
type CoolingStrategy string

const (
	CoolingLinear      CoolingStrategy = "linear"
	CoolingExponential CoolingStrategy = "exponential"
	CoolingAdaptive    CoolingStrategy = "adaptive"
)

// Stop reasons recorded in Stats.
const (
	StopMaxIterations = "max_iterations"
	StopPlateau       = "plateau"
	StopCancelled     = "cancelled"
)

// temperatureFloor keeps the Metropolis denominator from underflowing; the
// search keeps running at the floor instead of erroring out.
const temperatureFloor = 1e-9

// acceptanceWindow is the trailing decision count the adaptive schedule
// inspects.
const acceptanceWindow = 100

// AnnealConfig tunes one annealing run.
type AnnealConfig struct {
	InitialTemperature float64
	CoolingStrategy    CoolingStrategy
	CoolingRate        float64 // multiplier for exponential/adaptive, absolute step for linear
	MaxIterations      int
	PlateauWindow      int // iterations without best improvement before early stop; 0 disables
	NeighborRetries    int
	ProgressInterval   int
	Seed               int64
	SeedSet            bool // false means non-reproducible randomness
}

// normalized fills unset fields with workable defaults.
func (c AnnealConfig) normalized() AnnealConfig {
	if c.InitialTemperature <= 0 {
		c.InitialTemperature = 1.0
	}
	if c.CoolingStrategy == "" {
		c.CoolingStrategy = CoolingExponential
	}
	if c.CoolingRate <= 0 {
		switch c.CoolingStrategy {
		case CoolingLinear:
			c.CoolingRate = c.InitialTemperature / 10000
		default:
			c.CoolingRate = 0.995
		}
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = 10000
	}
	if c.NeighborRetries <= 0 {
		c.NeighborRetries = 8
	}
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = 100
	}
	return c
}

// Progress is a periodic report emitted while the search runs.
type Progress struct {
	Iteration       int
	Temperature     float64
	BestCost        float64
	AcceptanceRatio float64
}

// ProgressFunc receives progress reports. It is called synchronously from the
// search loop and must not block.
type ProgressFunc func(Progress)

// Stats summarises one annealing run.
type Stats struct {
	Iterations       int           `json:"iterations"`
	Accepted         int           `json:"accepted"`
	Rejected         int           `json:"rejected"`
	Infeasible       int           `json:"infeasible"`
	Duration         time.Duration `json:"duration"`
	FinalTemperature float64       `json:"final_temperature"`
	StopReason       string        `json:"stop_reason"`
	Cancelled        bool          `json:"cancelled"`
}

// Annealer runs the simulated-annealing search. The loop is inherently
// sequential and owns all of its state; independent solves can run in
// parallel because nothing here is shared.
type Annealer struct {
	problem  *models.ProblemDescription
	weights  models.WeightVector
	cfg      AnnealConfig
	locks    map[string]bool
	progress ProgressFunc
}

// NewAnnealer builds a search over the given problem. The problem's Games
// list must be populated (the deterministic generator fills it when the
// caller supplies none). locks may be nil.
func NewAnnealer(problem *models.ProblemDescription, weights models.WeightVector, cfg AnnealConfig, locks map[string]bool, progress ProgressFunc) *Annealer {
	return &Annealer{
		problem:  problem,
		weights:  weights,
		cfg:      cfg.normalized(),
		locks:    locks,
		progress: progress,
	}
}

// Run searches from the seed solution and returns the best solution found,
// its cost report and run statistics. Cancellation via ctx is not an error:
// the best solution so far comes back with Stats.Cancelled set.
func (a *Annealer) Run(ctx context.Context, seed *models.ScheduleSolution) (*models.ScheduleSolution, models.CostReport, Stats) {
	start := time.Now()
	cfg := a.cfg

	var rng *rand.Rand
	if cfg.SeedSet {
		rng = rand.New(rand.NewSource(cfg.Seed))
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	neighbors := NewNeighborGenerator(a.problem, a.locks, rng)

	current := seed.Clone()
	currentReport := Evaluate(a.problem, current, a.weights)
	best := current
	bestReport := currentReport

	temperature := cfg.InitialTemperature
	sinceImprovement := 0
	stats := Stats{StopReason: StopMaxIterations}

	// Ring buffer of recent accept/reject decisions for the adaptive schedule
	// and progress reporting.
	decisions := make([]bool, 0, acceptanceWindow)
	decisionIdx := 0
	recordDecision := func(accepted bool) {
		if len(decisions) < acceptanceWindow {
			decisions = append(decisions, accepted)
		} else {
			decisions[decisionIdx] = accepted
			decisionIdx = (decisionIdx + 1) % acceptanceWindow
		}
	}
	acceptanceRatio := func() float64 {
		if len(decisions) == 0 {
			return 0
		}
		accepted := 0
		for _, d := range decisions {
			if d {
				accepted++
			}
		}
		return float64(accepted) / float64(len(decisions))
	}

	for iteration := 1; iteration <= cfg.MaxIterations; iteration++ {
		select {
		case <-ctx.Done():
			stats.Cancelled = true
			stats.StopReason = StopCancelled
			stats.Iterations = iteration - 1
			stats.Duration = time.Since(start)
			stats.FinalTemperature = temperature
			return best, bestReport, stats
		default:
		}

		candidate, report, ok := a.feasibleNeighbor(neighbors, current, &stats)
		if ok {
			delta := report.WeightedTotal - currentReport.WeightedTotal
			accepted := false
			switch {
			case delta < 0:
				accepted = true
			case delta > 0:
				accepted = rng.Float64() < math.Exp(-delta/temperature)
			default:
				// Equal-cost moves are rejected: strict improvement or a
				// Metropolis roll on a positive delta only.
			}
			recordDecision(accepted)
			if accepted {
				stats.Accepted++
				current = candidate
				currentReport = report
				if currentReport.WeightedTotal < bestReport.WeightedTotal {
					best = current
					bestReport = currentReport
					sinceImprovement = 0
				} else {
					sinceImprovement++
				}
			} else {
				stats.Rejected++
				sinceImprovement++
			}
		} else {
			sinceImprovement++
		}

		temperature = a.cool(temperature, acceptanceRatio())

		if a.progress != nil && iteration%cfg.ProgressInterval == 0 {
			a.progress(Progress{
				Iteration:       iteration,
				Temperature:     temperature,
				BestCost:        bestReport.WeightedTotal,
				AcceptanceRatio: acceptanceRatio(),
			})
		}

		stats.Iterations = iteration
		if cfg.PlateauWindow > 0 && sinceImprovement >= cfg.PlateauWindow {
			stats.StopReason = StopPlateau
			break
		}
	}

	stats.Duration = time.Since(start)
	stats.FinalTemperature = temperature
	return best, bestReport, stats
}

// feasibleNeighbor draws candidates until one passes the conflict validator,
// up to the retry bound. Exhausting retries turns the iteration into a no-op
// rather than an error.
func (a *Annealer) feasibleNeighbor(neighbors *NeighborGenerator, current *models.ScheduleSolution, stats *Stats) (*models.ScheduleSolution, models.CostReport, bool) {
	for attempt := 0; attempt < a.cfg.NeighborRetries; attempt++ {
		candidate, ok := neighbors.Neighbor(current)
		if !ok {
			return nil, models.CostReport{}, false
		}
		if len(Validate(a.problem, candidate)) > 0 {
			stats.Infeasible++
			continue
		}
		return candidate, Evaluate(a.problem, candidate, a.weights), true
	}
	return nil, models.CostReport{}, false
}

// cool advances the temperature one step. The adaptive schedule speeds up
// cooling whenever the trailing acceptance ratio leaves the productive band:
// near-total acceptance means the search is still a random walk, near-zero
// acceptance means it is already frozen.
func (a *Annealer) cool(temperature, ratio float64) float64 {
	switch a.cfg.CoolingStrategy {
	case CoolingLinear:
		temperature -= a.cfg.CoolingRate
	case CoolingAdaptive:
		rate := a.cfg.CoolingRate
		if ratio > 0.8 || ratio < 0.2 {
			rate *= rate
		}
		temperature *= rate
	default:
		temperature *= a.cfg.CoolingRate
	}
	if temperature < temperatureFloor {
		temperature = temperatureFloor
	}
	return temperature
}
