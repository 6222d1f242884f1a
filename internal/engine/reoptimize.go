package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/rallyops/schedule-engine/internal/models"
	appErrors "github.com/rallyops/schedule-engine/pkg/errors"
)

// SlotChange records one game whose assignment moved during re-optimization.
type SlotChange struct {
	GameID  string      `json:"game_id"`
	OldSlot models.Slot `json:"old_slot"`
	NewSlot models.Slot `json:"new_slot"`
}

// ReoptimizeOutcome bundles the re-optimization result with its diff against
// the previous schedule.
type ReoptimizeOutcome struct {
	Solution *models.ScheduleSolution
	Report   models.CostReport
	Stats    Stats
	Diff     []SlotChange
}

// Reoptimize seeds the annealer with an existing schedule, freezes the locked
// games, and diffs the result against the previous assignments. Locked games
// keep their slot values verbatim from previous, so they are absent from the
// diff by construction.
func Reoptimize(ctx context.Context, problem *models.ProblemDescription, previous *models.ScheduleSolution, locks []string, weights models.WeightVector, cfg AnnealConfig, progress ProgressFunc) (*ReoptimizeOutcome, error) {
	lockSet := make(map[string]bool, len(locks))
	for _, gameID := range locks {
		if _, ok := previous.Slot(gameID); !ok {
			return nil, appErrors.Clone(appErrors.ErrLockConflict,
				fmt.Sprintf("lock references game %s, which has no assignment in the previous schedule", gameID))
		}
		lockSet[gameID] = true
	}
	for _, game := range problem.Games {
		if game.Locked {
			if _, ok := previous.Slot(game.ID); !ok {
				return nil, appErrors.Clone(appErrors.ErrLockConflict,
					fmt.Sprintf("game %s is marked locked but has no assignment in the previous schedule", game.ID))
			}
			lockSet[game.ID] = true
		}
	}

	annealer := NewAnnealer(problem, weights, cfg, lockSet, progress)
	result, report, stats := annealer.Run(ctx, previous)

	diff := diffSolutions(previous, result, lockSet)
	return &ReoptimizeOutcome{Solution: result, Report: report, Stats: stats, Diff: diff}, nil
}

// diffSolutions lists every unlocked game whose slot changed, sorted by game
// ID for stable output.
func diffSolutions(previous, next *models.ScheduleSolution, locks map[string]bool) []SlotChange {
	changes := make([]SlotChange, 0)
	for _, gameID := range next.GameIDs() {
		if locks[gameID] {
			continue
		}
		newSlot, _ := next.Slot(gameID)
		oldSlot, hadOld := previous.Slot(gameID)
		if hadOld && oldSlot.Equal(newSlot) {
			continue
		}
		changes = append(changes, SlotChange{GameID: gameID, OldSlot: oldSlot, NewSlot: newSlot})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].GameID < changes[j].GameID })
	return changes
}
