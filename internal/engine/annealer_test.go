package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rallyops/schedule-engine/internal/models"
)

func TestAnnealerNeverReturnsWorseThanSeed(t *testing.T) {
	problem := fixtureSinglesProblem(6)
	baseline := mustBaseline(t, problem)
	problem.Games = baseline.Games

	weights := models.DefaultWeights()
	seedReport := Evaluate(problem, baseline.Solution, weights)

	annealer := NewAnnealer(problem, weights, AnnealConfig{
		MaxIterations: 2000,
		Seed:          7,
		SeedSet:       true,
	}, nil, nil)
	best, report, stats := annealer.Run(context.Background(), baseline.Solution)

	require.NotNil(t, best)
	assert.LessOrEqual(t, report.WeightedTotal, seedReport.WeightedTotal)
	assert.LessOrEqual(t, stats.Accepted+stats.Rejected, stats.Iterations)
	assert.Empty(t, Validate(problem, best))
}

func TestAnnealerReducesOpponentRepetitionOnDoublePoolPlay(t *testing.T) {
	pools := []string{"A", "B", "C", "D"}
	problem := fixtureSinglesProblem(12)
	problem.Format = models.FormatPoolPlay
	for i := range problem.Teams {
		problem.Teams[i].Pool = pools[i%len(pools)]
	}

	// Double round robin: replay every pool pairing with home and away
	// swapped in a second block of rounds.
	firstLeg, err := BuildPairings(problem)
	require.NoError(t, err)
	rounds := 0
	for _, game := range firstLeg {
		if game.Round > rounds {
			rounds = game.Round
		}
	}
	games := append([]models.Game{}, firstLeg...)
	for _, game := range firstLeg {
		games = append(games, models.Game{
			ID:         game.ID + "-leg2",
			Round:      game.Round + rounds,
			Pool:       game.Pool,
			HomeTeamID: game.AwayTeamID,
			AwayTeamID: game.HomeTeamID,
		})
	}
	problem.Games = games

	baseline := mustBaseline(t, problem)

	weights := models.WeightVector{models.ObjectiveOpponentRepetition: 1.0}
	for _, objective := range models.Objectives() {
		if objective != models.ObjectiveOpponentRepetition {
			weights[objective] = 0
		}
	}
	seedReport := Evaluate(problem, baseline.Solution, weights)

	annealer := NewAnnealer(problem, weights, AnnealConfig{
		MaxIterations: 500,
		Seed:          17,
		SeedSet:       true,
	}, nil, nil)
	_, report, _ := annealer.Run(context.Background(), baseline.Solution)

	assert.LessOrEqual(t,
		report.Objectives[models.ObjectiveOpponentRepetition],
		seedReport.Objectives[models.ObjectiveOpponentRepetition])
	assert.InDelta(t, report.Objectives[models.ObjectiveOpponentRepetition], report.WeightedTotal, 1e-12)
}

func TestAnnealerReproducibleWithFixedSeed(t *testing.T) {
	run := func() (*models.ScheduleSolution, models.CostReport, Stats) {
		problem := fixtureSinglesProblem(6)
		baseline := mustBaseline(t, problem)
		problem.Games = baseline.Games
		annealer := NewAnnealer(problem, models.DefaultWeights(), AnnealConfig{
			MaxIterations: 1500,
			Seed:          99,
			SeedSet:       true,
		}, nil, nil)
		return annealer.Run(context.Background(), baseline.Solution)
	}

	bestA, reportA, statsA := run()
	bestB, reportB, statsB := run()

	assert.Equal(t, bestA.Assignments(), bestB.Assignments())
	assert.Equal(t, reportA, reportB)
	assert.Equal(t, statsA.Iterations, statsB.Iterations)
	assert.Equal(t, statsA.Accepted, statsB.Accepted)
	assert.Equal(t, statsA.StopReason, statsB.StopReason)
}

func TestAnnealerStopsOnCancelledContext(t *testing.T) {
	problem := fixtureSinglesProblem(6)
	baseline := mustBaseline(t, problem)
	problem.Games = baseline.Games

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	annealer := NewAnnealer(problem, models.DefaultWeights(), AnnealConfig{
		MaxIterations: 100000,
		Seed:          1,
		SeedSet:       true,
	}, nil, nil)
	best, _, stats := annealer.Run(ctx, baseline.Solution)

	require.NotNil(t, best)
	assert.True(t, stats.Cancelled)
	assert.Equal(t, StopCancelled, stats.StopReason)
	assert.Zero(t, stats.Iterations)
	// A cancelled run still hands back the seed as a usable schedule.
	assert.Equal(t, baseline.Solution.Assignments(), best.Assignments())
}

func TestAnnealerPlateauStopsEarly(t *testing.T) {
	problem := fixtureSinglesProblem(4)
	baseline := mustBaseline(t, problem)
	problem.Games = baseline.Games

	annealer := NewAnnealer(problem, models.DefaultWeights(), AnnealConfig{
		MaxIterations: 100000,
		PlateauWindow: 200,
		Seed:          3,
		SeedSet:       true,
	}, nil, nil)
	_, _, stats := annealer.Run(context.Background(), baseline.Solution)

	assert.Equal(t, StopPlateau, stats.StopReason)
	assert.Less(t, stats.Iterations, 100000)
}

func TestAnnealerEmitsProgress(t *testing.T) {
	problem := fixtureSinglesProblem(4)
	baseline := mustBaseline(t, problem)
	problem.Games = baseline.Games

	var events []Progress
	annealer := NewAnnealer(problem, models.DefaultWeights(), AnnealConfig{
		MaxIterations:    500,
		ProgressInterval: 100,
		Seed:             5,
		SeedSet:          true,
	}, nil, func(p Progress) {
		events = append(events, p)
	})
	_, report, _ := annealer.Run(context.Background(), baseline.Solution)

	require.Len(t, events, 5)
	for i, event := range events {
		assert.Equal(t, (i+1)*100, event.Iteration)
		assert.GreaterOrEqual(t, event.BestCost, report.WeightedTotal)
	}
	// Best cost over time never increases.
	for i := 1; i < len(events); i++ {
		assert.LessOrEqual(t, events[i].BestCost, events[i-1].BestCost)
	}
}

func TestAnnealerCoolingStrategies(t *testing.T) {
	problem := fixtureSinglesProblem(4)
	baseline := mustBaseline(t, problem)
	problem.Games = baseline.Games

	for _, strategy := range []CoolingStrategy{CoolingLinear, CoolingExponential, CoolingAdaptive} {
		annealer := NewAnnealer(problem, models.DefaultWeights(), AnnealConfig{
			CoolingStrategy: strategy,
			MaxIterations:   500,
			Seed:            11,
			SeedSet:         true,
		}, nil, nil)
		best, _, stats := annealer.Run(context.Background(), baseline.Solution)
		require.NotNilf(t, best, "strategy %s", strategy)
		assert.Lessf(t, stats.FinalTemperature, 1.0, "strategy %s should cool below the initial temperature", strategy)
		assert.GreaterOrEqualf(t, stats.FinalTemperature, temperatureFloor, "strategy %s breached the floor", strategy)
	}
}

func TestAnnealerRespectsLocks(t *testing.T) {
	problem := fixtureSinglesProblem(6)
	baseline := mustBaseline(t, problem)
	problem.Games = baseline.Games

	locked := baseline.Solution.GameIDs()[2]
	lockedSlot, _ := baseline.Solution.Slot(locked)

	annealer := NewAnnealer(problem, models.DefaultWeights(), AnnealConfig{
		MaxIterations: 1000,
		Seed:          13,
		SeedSet:       true,
	}, map[string]bool{locked: true}, nil)
	best, _, _ := annealer.Run(context.Background(), baseline.Solution)

	slot, ok := best.Slot(locked)
	require.True(t, ok)
	assert.True(t, lockedSlot.Equal(slot))
}
