package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rallyops/schedule-engine/internal/models"
)

var fixtureDay = time.Date(2026, 6, 6, 9, 0, 0, 0, time.UTC)

// fixtureSlots builds hourly 45-minute slots on the given courts, starting at
// fixtureDay.
func fixtureSlots(courts []string, blocks int) []models.Slot {
	var slots []models.Slot
	for b := 0; b < blocks; b++ {
		start := fixtureDay.Add(time.Duration(b) * time.Hour)
		for _, court := range courts {
			slots = append(slots, models.Slot{
				Court: court,
				Start: start,
				End:   start.Add(45 * time.Minute),
			})
		}
	}
	return slots
}

// fixtureSinglesProblem builds a round-robin problem with one participant per
// team, enough slots for every game plus spare capacity.
func fixtureSinglesProblem(teamCount int) *models.ProblemDescription {
	problem := &models.ProblemDescription{
		Format: models.FormatRoundRobin,
		Constraints: models.ConstraintSet{
			MinRestMinutes: 10,
		},
	}
	for i := 1; i <= teamCount; i++ {
		pid := fmt.Sprintf("p%d", i)
		problem.Participants = append(problem.Participants, models.Participant{
			ID:    pid,
			Skill: float64(2 + i%4),
			Seed:  i,
		})
		problem.Teams = append(problem.Teams, models.Team{
			ID:             fmt.Sprintf("t%d", i),
			Seed:           i,
			ParticipantIDs: []string{pid},
		})
	}

	rounds := teamCount - 1
	if teamCount%2 == 1 {
		rounds = teamCount
	}
	courts := make([]string, 0, teamCount/2)
	for c := 1; c <= teamCount/2; c++ {
		courts = append(courts, fmt.Sprintf("c%d", c))
	}
	// One spare block beyond the round count keeps relocation moves possible.
	problem.Slots = fixtureSlots(courts, rounds+1)
	return problem
}

// fixtureDoublesProblem builds four two-person mixed teams for roster and
// repetition checks.
func fixtureDoublesProblem() *models.ProblemDescription {
	problem := &models.ProblemDescription{
		Format: models.FormatRoundRobin,
		Constraints: models.ConstraintSet{
			MinRestMinutes: 10,
			MinRosterSize:  2,
			MaxRosterSize:  2,
		},
	}
	genders := []models.Gender{models.GenderFemale, models.GenderMale}
	for i := 1; i <= 4; i++ {
		var roster []string
		for j := 0; j < 2; j++ {
			pid := fmt.Sprintf("p%d", (i-1)*2+j+1)
			roster = append(roster, pid)
			problem.Participants = append(problem.Participants, models.Participant{
				ID:     pid,
				Skill:  float64(3 + (i+j)%3),
				Gender: genders[j],
			})
		}
		problem.Teams = append(problem.Teams, models.Team{
			ID:             fmt.Sprintf("t%d", i),
			Seed:           i,
			ParticipantIDs: roster,
		})
	}
	problem.Slots = fixtureSlots([]string{"c1", "c2"}, 4)
	return problem
}

func mustBaseline(t *testing.T, problem *models.ProblemDescription) *Baseline {
	t.Helper()
	baseline, err := GenerateBaseline(problem)
	require.NoError(t, err)
	return baseline
}
