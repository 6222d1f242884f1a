package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rallyops/schedule-engine/internal/models"
)

func conflictKinds(conflicts []models.Conflict) []models.ConflictKind {
	kinds := make([]models.ConflictKind, 0, len(conflicts))
	for _, c := range conflicts {
		kinds = append(kinds, c.Kind)
	}
	return kinds
}

func TestValidateFeasibleBaselineHasNoConflicts(t *testing.T) {
	problem := fixtureSinglesProblem(4)
	baseline := mustBaseline(t, problem)
	problem.Games = baseline.Games

	assert.Empty(t, Validate(problem, baseline.Solution))
}

func TestValidateMissingAssignment(t *testing.T) {
	problem := fixtureSinglesProblem(4)
	baseline := mustBaseline(t, problem)
	problem.Games = baseline.Games

	assignments := baseline.Solution.Assignments()
	missing := baseline.Solution.GameIDs()[0]
	delete(assignments, missing)
	partial := models.NewScheduleSolution(assignments)

	conflicts := Validate(problem, partial)
	require.NotEmpty(t, conflicts)
	assert.Equal(t, models.ConflictSlotOutOfBounds, conflicts[0].Kind)
	assert.Equal(t, []string{missing}, conflicts[0].GameIDs)
}

func TestValidateSlotOutsideAvailability(t *testing.T) {
	problem := fixtureSinglesProblem(4)
	baseline := mustBaseline(t, problem)
	problem.Games = baseline.Games

	rogue := models.Slot{
		Court: "c9",
		Start: fixtureDay.Add(12 * time.Hour),
		End:   fixtureDay.Add(12*time.Hour + 45*time.Minute),
	}
	tampered := baseline.Solution.WithAssignment(problem.Games[0].ID, rogue)

	conflicts := Validate(problem, tampered)
	assert.Contains(t, conflictKinds(conflicts), models.ConflictSlotOutOfBounds)
}

func TestValidateCourtDoubleBooking(t *testing.T) {
	problem := fixtureSinglesProblem(4)
	baseline := mustBaseline(t, problem)
	problem.Games = baseline.Games

	// Force two round-one games onto the same court at the same time.
	first, _ := baseline.Solution.Slot("rr-r1-m1")
	tampered := baseline.Solution.WithAssignment("rr-r1-m2", first)

	conflicts := Validate(problem, tampered)
	assert.Contains(t, conflictKinds(conflicts), models.ConflictDoubleBookedCourt)
}

func TestValidateParticipantDoubleBooking(t *testing.T) {
	problem := fixtureSinglesProblem(4)
	baseline := mustBaseline(t, problem)
	problem.Games = baseline.Games

	// Move a round-two game so it overlaps a round-one game sharing a team.
	var r1, r2 models.Game
	for _, game := range problem.Games {
		switch {
		case game.Round == 1 && r1.ID == "":
			r1 = game
		case game.Round == 2 && r2.ID == "" && sharesTeam(game, r1):
			r2 = game
		}
	}
	require.NotEmpty(t, r2.ID)

	r1Slot, _ := baseline.Solution.Slot(r1.ID)
	overlapping := models.Slot{Court: "c2", Start: r1Slot.Start, End: r1Slot.End}
	if r1Slot.Court == "c2" {
		overlapping.Court = "c1"
	}
	tampered := baseline.Solution.WithAssignment(r2.ID, overlapping)

	conflicts := Validate(problem, tampered)
	assert.Contains(t, conflictKinds(conflicts), models.ConflictDoubleBookedParticipant)
}

func sharesTeam(a, b models.Game) bool {
	return a.HomeTeamID == b.HomeTeamID || a.HomeTeamID == b.AwayTeamID ||
		a.AwayTeamID == b.HomeTeamID || a.AwayTeamID == b.AwayTeamID
}

func TestValidateInsufficientRest(t *testing.T) {
	problem := fixtureSinglesProblem(4)
	problem.Constraints.MinRestMinutes = 60
	baseline := mustBaseline(t, fixtureSinglesProblem(4))
	problem.Games = baseline.Games

	// The relaxed baseline leaves only 15-minute gaps, far below an hour.
	conflicts := Validate(problem, baseline.Solution)
	assert.Contains(t, conflictKinds(conflicts), models.ConflictInsufficientRest)
}

func TestValidateMaxGamesPerDay(t *testing.T) {
	problem := fixtureSinglesProblem(4)
	problem.Constraints.MaxGamesPerDay = 2
	baseline := mustBaseline(t, fixtureSinglesProblem(4))
	problem.Games = baseline.Games

	// Every participant plays three games on the fixture day.
	conflicts := Validate(problem, baseline.Solution)
	require.NotEmpty(t, conflicts)
	for _, c := range conflicts {
		assert.Equal(t, models.ConflictInsufficientRest, c.Kind)
		assert.Len(t, c.GameIDs, 3)
	}
}

func TestValidateRosterSize(t *testing.T) {
	problem := fixtureDoublesProblem()
	baseline := mustBaseline(t, problem)
	problem.Games = baseline.Games
	problem.Teams[0].ParticipantIDs = problem.Teams[0].ParticipantIDs[:1]

	conflicts := Validate(problem, baseline.Solution)
	assert.Contains(t, conflictKinds(conflicts), models.ConflictRosterSizeViolation)
}

func TestValidateGenderComposition(t *testing.T) {
	problem := fixtureDoublesProblem()
	baseline := mustBaseline(t, problem)
	problem.Games = baseline.Games
	problem.Constraints.GenderComposition = map[models.Gender]int{
		models.GenderFemale: 2,
	}

	// Fixture teams are one woman and one man each.
	conflicts := Validate(problem, baseline.Solution)
	require.NotEmpty(t, conflicts)
	assert.Contains(t, conflictKinds(conflicts), models.ConflictGenderComposition)
}

func TestValidateDeterministicOrdering(t *testing.T) {
	problem := fixtureSinglesProblem(4)
	problem.Constraints.MinRestMinutes = 60
	baseline := mustBaseline(t, fixtureSinglesProblem(4))
	problem.Games = baseline.Games

	first := Validate(problem, baseline.Solution)
	second := Validate(problem, baseline.Solution)
	assert.Equal(t, first, second)
}
