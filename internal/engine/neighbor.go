package engine

import (
	"math/rand"
	"sort"

	"github.com/rallyops/schedule-engine/internal/models"
)

// NeighborGenerator produces single-mutation variants of a schedule. It never
// touches a locked game and never emits a duplicate slot assignment; the
// post-condition is checked before a candidate is returned.
type NeighborGenerator struct {
	slots    []models.Slot
	unlocked []string
	rng      *rand.Rand
}

// NewNeighborGenerator prepares the mutation candidate pools. All randomness
// flows from the supplied source so a seeded run is exactly reproducible.
func NewNeighborGenerator(problem *models.ProblemDescription, locks map[string]bool, rng *rand.Rand) *NeighborGenerator {
	slots := make([]models.Slot, len(problem.Slots))
	copy(slots, problem.Slots)
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Start.Equal(slots[j].Start) {
			return slots[i].Court < slots[j].Court
		}
		return slots[i].Start.Before(slots[j].Start)
	})

	var unlocked []string
	for _, game := range sortedGames(problem.Games) {
		if game.Locked || locks[game.ID] {
			continue
		}
		unlocked = append(unlocked, game.ID)
	}

	return &NeighborGenerator{slots: slots, unlocked: unlocked, rng: rng}
}

// Neighbor returns one mutated copy of the current solution, or false when no
// mutation is possible (all games locked, or no spare capacity to move into).
// The two mutation kinds are chosen uniformly; slot and game selection is
// uniform over the eligible candidates.
func (n *NeighborGenerator) Neighbor(current *models.ScheduleSolution) (*models.ScheduleSolution, bool) {
	if len(n.unlocked) == 0 {
		return nil, false
	}

	var candidate *models.ScheduleSolution
	if n.rng.Intn(2) == 0 {
		candidate = n.swap(current)
		if candidate == nil {
			candidate = n.relocate(current)
		}
	} else {
		candidate = n.relocate(current)
		if candidate == nil {
			candidate = n.swap(current)
		}
	}
	if candidate == nil {
		return nil, false
	}
	if hasDuplicateSlot(candidate) {
		return nil, false
	}
	return candidate, true
}

// swap exchanges the slots of two distinct unlocked games.
func (n *NeighborGenerator) swap(current *models.ScheduleSolution) *models.ScheduleSolution {
	if len(n.unlocked) < 2 {
		return nil
	}
	i := n.rng.Intn(len(n.unlocked))
	j := n.rng.Intn(len(n.unlocked) - 1)
	if j >= i {
		j++
	}
	return current.WithSwap(n.unlocked[i], n.unlocked[j])
}

// relocate moves one unlocked game into a slot no game currently occupies.
func (n *NeighborGenerator) relocate(current *models.ScheduleSolution) *models.ScheduleSolution {
	occupied := make(map[string]bool, current.Len())
	for _, slot := range current.Assignments() {
		occupied[slotIdentity(slot)] = true
	}
	var free []models.Slot
	for _, slot := range n.slots {
		if !occupied[slotIdentity(slot)] {
			free = append(free, slot)
		}
	}
	if len(free) == 0 {
		return nil
	}
	gameID := n.unlocked[n.rng.Intn(len(n.unlocked))]
	return current.WithAssignment(gameID, free[n.rng.Intn(len(free))])
}

func hasDuplicateSlot(solution *models.ScheduleSolution) bool {
	seen := make(map[string]bool, solution.Len())
	for _, gameID := range solution.GameIDs() {
		slot, _ := solution.Slot(gameID)
		key := slotIdentity(slot)
		if seen[key] {
			return true
		}
		seen[key] = true
	}
	return false
}
