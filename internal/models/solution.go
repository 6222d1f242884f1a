package models

import (
	"encoding/json"
	"sort"
	"time"
)

// ScheduleSolution is a total mapping from every game to exactly one slot.
// Values are immutable once returned: mutation helpers produce a fresh copy,
// so a "before" and "after" can always be compared safely for diffing.
type ScheduleSolution struct {
	assignments map[string]Slot
}

// NewScheduleSolution copies the supplied assignment map into a solution.
func NewScheduleSolution(assignments map[string]Slot) *ScheduleSolution {
	copied := make(map[string]Slot, len(assignments))
	for gameID, slot := range assignments {
		copied[gameID] = slot
	}
	return &ScheduleSolution{assignments: copied}
}

// Slot returns the assignment for a game.
func (s *ScheduleSolution) Slot(gameID string) (Slot, bool) {
	slot, ok := s.assignments[gameID]
	return slot, ok
}

// Len returns the number of assigned games.
func (s *ScheduleSolution) Len() int {
	return len(s.assignments)
}

// GameIDs returns every assigned game ID in sorted order. Iterating in this
// order keeps downstream randomness reproducible.
func (s *ScheduleSolution) GameIDs() []string {
	ids := make([]string, 0, len(s.assignments))
	for gameID := range s.assignments {
		ids = append(ids, gameID)
	}
	sort.Strings(ids)
	return ids
}

// Assignments returns a defensive copy of the assignment map.
func (s *ScheduleSolution) Assignments() map[string]Slot {
	copied := make(map[string]Slot, len(s.assignments))
	for gameID, slot := range s.assignments {
		copied[gameID] = slot
	}
	return copied
}

// Clone returns an independent copy.
func (s *ScheduleSolution) Clone() *ScheduleSolution {
	return NewScheduleSolution(s.assignments)
}

// WithAssignment returns a copy with one game moved to the given slot.
func (s *ScheduleSolution) WithAssignment(gameID string, slot Slot) *ScheduleSolution {
	next := s.Clone()
	next.assignments[gameID] = slot
	return next
}

// WithSwap returns a copy with the slots of two games exchanged.
func (s *ScheduleSolution) WithSwap(gameA, gameB string) *ScheduleSolution {
	next := s.Clone()
	next.assignments[gameA], next.assignments[gameB] = s.assignments[gameB], s.assignments[gameA]
	return next
}

// MarshalJSON encodes the assignment map.
func (s *ScheduleSolution) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Assignments map[string]Slot `json:"assignments"`
	}{Assignments: s.assignments})
}

// UnmarshalJSON decodes the assignment map.
func (s *ScheduleSolution) UnmarshalJSON(data []byte) error {
	var payload struct {
		Assignments map[string]Slot `json:"assignments"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	if payload.Assignments == nil {
		payload.Assignments = map[string]Slot{}
	}
	s.assignments = payload.Assignments
	return nil
}

// ParticipantAggregate collects the per-participant facts the cost objectives
// and hard rules consume. Recomputed on demand, never cached across mutations.
type ParticipantAggregate struct {
	GamesPlayed int
	SitOuts     int
	RestGaps    []time.Duration
	Teammates   map[string]int
	Opponents   map[string]int
}

// Aggregates derives per-participant statistics for the given problem.
func (s *ScheduleSolution) Aggregates(problem *ProblemDescription) map[string]*ParticipantAggregate {
	teams := problem.TeamIndex()
	aggregates := make(map[string]*ParticipantAggregate, len(problem.Participants))
	for _, participant := range problem.Participants {
		aggregates[participant.ID] = &ParticipantAggregate{
			Teammates: map[string]int{},
			Opponents: map[string]int{},
		}
	}

	// Games each participant plays, with slots, ordered by start time.
	type playedGame struct {
		slot Slot
	}
	played := make(map[string][]playedGame, len(problem.Participants))
	roundsPlayed := make(map[string]map[int]bool, len(problem.Participants))

	for _, game := range problem.Games {
		slot, ok := s.assignments[game.ID]
		if !ok {
			continue
		}
		home := teams[game.HomeTeamID].ParticipantIDs
		away := teams[game.AwayTeamID].ParticipantIDs

		for _, side := range [][]string{home, away} {
			for i, id := range side {
				agg, ok := aggregates[id]
				if !ok {
					continue
				}
				agg.GamesPlayed++
				played[id] = append(played[id], playedGame{slot: slot})
				if roundsPlayed[id] == nil {
					roundsPlayed[id] = map[int]bool{}
				}
				roundsPlayed[id][game.Round] = true
				for j, mate := range side {
					if i != j {
						agg.Teammates[mate]++
					}
				}
			}
		}
		for _, id := range home {
			if agg, ok := aggregates[id]; ok {
				for _, opp := range away {
					agg.Opponents[opp]++
				}
			}
		}
		for _, id := range away {
			if agg, ok := aggregates[id]; ok {
				for _, opp := range home {
					agg.Opponents[opp]++
				}
			}
		}
	}

	rounds := problem.Rounds()
	for id, agg := range aggregates {
		games := played[id]
		sort.Slice(games, func(i, j int) bool { return games[i].slot.Start.Before(games[j].slot.Start) })
		for i := 1; i < len(games); i++ {
			gap := games[i].slot.Start.Sub(games[i-1].slot.End)
			agg.RestGaps = append(agg.RestGaps, gap)
		}
		if rounds > 0 {
			agg.SitOuts = rounds - len(roundsPlayed[id])
		}
	}
	return aggregates
}
