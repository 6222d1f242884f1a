package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rallyops/schedule-engine/internal/models"
	appErrors "github.com/rallyops/schedule-engine/pkg/errors"
)

func TestRoundRobinPairingsEveryPairOnce(t *testing.T) {
	problem := fixtureSinglesProblem(4)

	games, err := BuildPairings(problem)
	require.NoError(t, err)
	assert.Len(t, games, 6)

	pairs := map[string]int{}
	perRound := map[int]map[string]int{}
	for _, game := range games {
		a, b := game.HomeTeamID, game.AwayTeamID
		if b < a {
			a, b = b, a
		}
		pairs[a+"|"+b]++
		if perRound[game.Round] == nil {
			perRound[game.Round] = map[string]int{}
		}
		perRound[game.Round][game.HomeTeamID]++
		perRound[game.Round][game.AwayTeamID]++
	}
	assert.Len(t, pairs, 6)
	for pair, count := range pairs {
		assert.Equalf(t, 1, count, "pair %s should meet exactly once", pair)
	}
	assert.Len(t, perRound, 3)
	for round, teams := range perRound {
		for team, appearances := range teams {
			assert.Equalf(t, 1, appearances, "team %s plays more than once in round %d", team, round)
		}
	}
}

func TestRoundRobinEightTeams(t *testing.T) {
	problem := fixtureSinglesProblem(8)

	baseline := mustBaseline(t, problem)
	assert.Len(t, baseline.Games, 28)
	assert.Equal(t, 28, baseline.Solution.Len())

	rounds := map[int]bool{}
	for _, game := range baseline.Games {
		rounds[game.Round] = true
	}
	assert.Len(t, rounds, 7)
	assert.Empty(t, Validate(problem, baseline.Solution))
}

func TestRoundRobinOddTeamCountUsesBye(t *testing.T) {
	problem := fixtureSinglesProblem(5)

	games, err := BuildPairings(problem)
	require.NoError(t, err)
	assert.Len(t, games, 10)

	perRound := map[int]int{}
	for _, game := range games {
		assert.NotEmpty(t, game.HomeTeamID)
		assert.NotEmpty(t, game.AwayTeamID)
		perRound[game.Round]++
	}
	assert.Len(t, perRound, 5)
	for round, count := range perRound {
		assert.Equalf(t, 2, count, "round %d should have two games with one team sitting out", round)
	}
}

func TestPoolPlayPairingsStayInsidePools(t *testing.T) {
	problem := fixtureSinglesProblem(6)
	problem.Format = models.FormatPoolPlay
	for i := range problem.Teams {
		if i < 3 {
			problem.Teams[i].Pool = "A"
		} else {
			problem.Teams[i].Pool = "B"
		}
	}
	poolOf := map[string]string{}
	for _, team := range problem.Teams {
		poolOf[team.ID] = team.Pool
	}

	games, err := BuildPairings(problem)
	require.NoError(t, err)
	assert.Len(t, games, 6)

	for _, game := range games {
		assert.Equal(t, poolOf[game.HomeTeamID], poolOf[game.AwayTeamID])
		assert.Equal(t, poolOf[game.HomeTeamID], game.Pool)
		assert.True(t, strings.HasPrefix(game.ID, "pool-"+game.Pool))
	}
}

func TestPoolPlayRequiresPoolMembership(t *testing.T) {
	problem := &models.ProblemDescription{Format: models.FormatPoolPlay}

	_, err := BuildPairings(problem)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestBracketPairingsSeedOrderAndDependencies(t *testing.T) {
	problem := fixtureSinglesProblem(4)
	problem.Format = models.FormatBracket

	games, err := BuildPairings(problem)
	require.NoError(t, err)
	require.Len(t, games, 3)

	assert.Equal(t, "t1", games[0].HomeTeamID)
	assert.Equal(t, "t4", games[0].AwayTeamID)
	assert.Equal(t, "t2", games[1].HomeTeamID)
	assert.Equal(t, "t3", games[1].AwayTeamID)

	final := games[2]
	assert.Equal(t, 2, final.Round)
	assert.Equal(t, "winner:"+games[0].ID, final.HomeTeamID)
	assert.Equal(t, "winner:"+games[1].ID, final.AwayTeamID)
	assert.ElementsMatch(t, []string{games[0].ID, games[1].ID}, final.DependsOn)
}

func TestBracketByesAdvanceTopSeeds(t *testing.T) {
	problem := fixtureSinglesProblem(6)
	problem.Format = models.FormatBracket

	games, err := BuildPairings(problem)
	require.NoError(t, err)
	// Seeds 1 and 2 skip round one in a six-team field.
	require.Len(t, games, 5)

	var roundOne []models.Game
	for _, game := range games {
		if game.Round == 1 {
			roundOne = append(roundOne, game)
		}
	}
	require.Len(t, roundOne, 2)
	for _, game := range roundOne {
		assert.NotEqual(t, "t1", game.HomeTeamID)
		assert.NotEqual(t, "t2", game.HomeTeamID)
	}
}

func TestGenerateBaselineIsDeterministic(t *testing.T) {
	first := mustBaseline(t, fixtureSinglesProblem(6))
	second := mustBaseline(t, fixtureSinglesProblem(6))

	require.Equal(t, first.Games, second.Games)
	assert.Equal(t, first.Solution.Assignments(), second.Solution.Assignments())
}

func TestGenerateBaselineFeasible(t *testing.T) {
	problem := fixtureDoublesProblem()

	baseline := mustBaseline(t, problem)
	assert.Empty(t, Validate(problem, baseline.Solution))
}

func TestGenerateBaselineRespectsFeederOrdering(t *testing.T) {
	problem := fixtureSinglesProblem(4)
	problem.Format = models.FormatBracket

	baseline := mustBaseline(t, problem)
	byID := map[string]models.Game{}
	for _, game := range baseline.Games {
		byID[game.ID] = game
	}
	for _, game := range baseline.Games {
		slot, ok := baseline.Solution.Slot(game.ID)
		require.True(t, ok)
		for _, feeder := range game.DependsOn {
			feederSlot, ok := baseline.Solution.Slot(feeder)
			require.True(t, ok)
			assert.Truef(t, slot.Start.After(feederSlot.End), "game %s starts before feeder %s finishes", game.ID, feeder)
		}
	}
}

func TestGenerateBaselineInfeasibleWhenSlotsScarce(t *testing.T) {
	problem := fixtureSinglesProblem(4)
	problem.Slots = problem.Slots[:3] // six games cannot fit

	_, err := GenerateBaseline(problem)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInfeasibleProblem))
}

func TestGenerateBaselineRejectsRosterBounds(t *testing.T) {
	problem := fixtureDoublesProblem()
	problem.Teams[0].ParticipantIDs = problem.Teams[0].ParticipantIDs[:1]

	_, err := GenerateBaseline(problem)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInfeasibleProblem))
}

func TestGenerateBaselineKeepsSuppliedGames(t *testing.T) {
	problem := fixtureSinglesProblem(4)
	games, err := BuildPairings(problem)
	require.NoError(t, err)
	problem.Games = games[:4]

	baseline := mustBaseline(t, problem)
	assert.Len(t, baseline.Games, 4)
	assert.Equal(t, 4, baseline.Solution.Len())
}

func TestAssignSlotsHonoursMinimumRest(t *testing.T) {
	problem := fixtureSinglesProblem(4)
	problem.Constraints.MinRestMinutes = 30
	// Hourly blocks leave 15-minute gaps, so rounds must spread out; give the
	// greedy pass enough runway.
	problem.Slots = fixtureSlots([]string{"c1", "c2"}, 6)

	baseline := mustBaseline(t, problem)
	problem.Games = baseline.Games
	assert.Empty(t, Validate(problem, baseline.Solution))

	// Every participant's consecutive games leave at least the configured gap.
	for _, agg := range baseline.Solution.Aggregates(problem) {
		for _, gap := range agg.RestGaps {
			assert.GreaterOrEqual(t, gap, 30*time.Minute)
		}
	}
}
