package dto

import (
	"time"

	"github.com/rallyops/schedule-engine/internal/engine"
	"github.com/rallyops/schedule-engine/internal/models"
)

// SolveMode selects between the deterministic baseline and the annealing
// search.
type SolveMode string

const (
	ModeFast     SolveMode = "fast"
	ModeOptimize SolveMode = "optimize"
)

// Solve status values reported on results.
const (
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// SolveConfig carries the caller-facing annealing options. Zero values fall
// back to configured defaults. PlateauWindow is a pointer because an explicit
// 0 disables early stopping, which is distinct from leaving it unset; an
// omitted RandomSeed means non-reproducible randomness.
type SolveConfig struct {
	InitialTemperature float64 `json:"initialTemperature" validate:"omitempty,gt=0"`
	CoolingStrategy    string  `json:"coolingStrategy" validate:"omitempty,oneof=linear exponential adaptive"`
	CoolingRate        float64 `json:"coolingRate" validate:"omitempty,gt=0"`
	MaxIterations      int     `json:"maxIterations" validate:"omitempty,gt=0"`
	PlateauWindow      *int    `json:"plateauWindow,omitempty" validate:"omitempty,min=0"`
	NeighborRetries    int     `json:"neighborRetries" validate:"omitempty,gt=0"`
	ProgressInterval   int     `json:"progressInterval" validate:"omitempty,gt=0"`
	RandomSeed         *int64  `json:"randomSeed,omitempty"`
}

// GenerateRequest asks for a schedule from scratch.
type GenerateRequest struct {
	Problem *models.ProblemDescription `json:"problem" validate:"required"`
	Mode    SolveMode                  `json:"mode" validate:"required,oneof=fast optimize"`
	Config  SolveConfig                `json:"config"`
}

// ReoptimizeRequest asks for an improvement pass over an existing schedule
// with some games pinned in place.
type ReoptimizeRequest struct {
	Problem  *models.ProblemDescription `json:"problem" validate:"required"`
	Previous *models.ScheduleSolution   `json:"previous" validate:"required"`
	Locks    []string                   `json:"locks"`
	Config   SolveConfig                `json:"config"`
}

// SolveStats mirrors the engine run statistics with JSON tags for callers.
type SolveStats struct {
	Iterations       int           `json:"iterations"`
	Accepted         int           `json:"accepted"`
	Rejected         int           `json:"rejected"`
	Infeasible       int           `json:"infeasible"`
	Duration         time.Duration `json:"duration"`
	FinalTemperature float64       `json:"finalTemperature"`
	StopReason       string        `json:"stopReason"`
}

// SolveResult is the full outcome of a generate call.
type SolveResult struct {
	SolveID   string                   `json:"solveId"`
	Mode      SolveMode                `json:"mode"`
	Status    string                   `json:"status"`
	Games     []models.Game            `json:"games"`
	Solution  *models.ScheduleSolution `json:"solution"`
	Report    models.CostReport        `json:"report"`
	Breakdown models.CostBreakdown     `json:"breakdown"`
	Stats     SolveStats               `json:"stats"`
}

// SlotChange is one diff entry from a re-optimization.
type SlotChange struct {
	GameID  string      `json:"gameId"`
	OldSlot models.Slot `json:"oldSlot"`
	NewSlot models.Slot `json:"newSlot"`
}

// ReoptimizeResult extends SolveResult with the slot-change diff. Locked
// games never appear in the diff.
type ReoptimizeResult struct {
	SolveResult
	Diff []SlotChange `json:"diff"`
}

// ProgressEvent streams search progress to the caller without blocking the
// loop.
type ProgressEvent struct {
	SolveID         string  `json:"solveId"`
	Iteration       int     `json:"iteration"`
	Temperature     float64 `json:"temperature"`
	BestCost        float64 `json:"bestCost"`
	AcceptanceRatio float64 `json:"acceptanceRatio"`
}

// FromEngineStats converts engine statistics into the caller-facing shape.
func FromEngineStats(stats engine.Stats) SolveStats {
	return SolveStats{
		Iterations:       stats.Iterations,
		Accepted:         stats.Accepted,
		Rejected:         stats.Rejected,
		Infeasible:       stats.Infeasible,
		Duration:         stats.Duration,
		FinalTemperature: stats.FinalTemperature,
		StopReason:       stats.StopReason,
	}
}
