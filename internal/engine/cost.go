package engine

import (
	"math"
	"sort"

	"github.com/rallyops/schedule-engine/internal/models"
)

// Evaluate computes the weighted multi-objective cost of a solution. Each
// objective is normalized to [0, 1] independently and the weighted sum is left
// unclamped: callers interpret relative cost, not an absolute percentage.
// Identical inputs always yield an identical report.
func Evaluate(problem *models.ProblemDescription, solution *models.ScheduleSolution, weights models.WeightVector) models.CostReport {
	aggregates := solution.Aggregates(problem)

	objectives := map[models.Objective]float64{
		models.ObjectiveSkillBalance:       skillBalanceCost(problem),
		models.ObjectiveSeedBalance:        seedBalanceCost(problem),
		models.ObjectiveTeammateRepetition: teammateRepetitionCost(aggregates),
		models.ObjectiveOpponentRepetition: opponentRepetitionCost(problem, solution),
		models.ObjectiveSitOutEquity:       sitOutEquityCost(problem, aggregates),
		models.ObjectiveRestVariance:       restVarianceCost(problem, aggregates),
		models.ObjectiveCourtUtilization:   courtUtilizationCost(problem, solution),
		models.ObjectiveGenderBalance:      genderBalanceCost(problem),
	}

	total := 0.0
	for _, objective := range models.Objectives() {
		total += weights[objective] * objectives[objective]
	}

	return models.CostReport{Objectives: objectives, WeightedTotal: total}
}

// skillBalanceCost is the variance of per-team mean skill, normalized against
// the maximum possible variance for the observed skill range.
func skillBalanceCost(problem *models.ProblemDescription) float64 {
	if len(problem.Teams) < 2 {
		return 0
	}
	participants := problem.ParticipantIndex()

	minSkill, maxSkill := math.Inf(1), math.Inf(-1)
	for _, participant := range problem.Participants {
		minSkill = math.Min(minSkill, participant.Skill)
		maxSkill = math.Max(maxSkill, participant.Skill)
	}
	skillRange := maxSkill - minSkill
	if skillRange <= 0 || len(problem.Participants) == 0 {
		return 0
	}

	means := make([]float64, 0, len(problem.Teams))
	for _, team := range problem.Teams {
		if len(team.ParticipantIDs) == 0 {
			continue
		}
		sum := 0.0
		for _, id := range team.ParticipantIDs {
			sum += participants[id].Skill
		}
		means = append(means, sum/float64(len(team.ParticipantIDs)))
	}
	if len(means) < 2 {
		return 0
	}

	// Worst case: half the teams at each end of the skill range.
	maxVariance := (skillRange / 2) * (skillRange / 2)
	return clamp01(variance(means) / maxVariance)
}

// seedBalanceCost measures how far matchups stray from even seeding: the mean
// seed differential across games, normalized by the seed spread.
func seedBalanceCost(problem *models.ProblemDescription) float64 {
	teams := problem.TeamIndex()

	minSeed, maxSeed := math.MaxInt32, math.MinInt32
	for _, team := range problem.Teams {
		if team.Seed == 0 {
			continue
		}
		if team.Seed < minSeed {
			minSeed = team.Seed
		}
		if team.Seed > maxSeed {
			maxSeed = team.Seed
		}
	}
	spread := float64(maxSeed - minSeed)
	if spread <= 0 {
		return 0
	}

	sum, counted := 0.0, 0
	for _, game := range problem.Games {
		home, okHome := teams[game.HomeTeamID]
		away, okAway := teams[game.AwayTeamID]
		if !okHome || !okAway || home.Seed == 0 || away.Seed == 0 {
			continue
		}
		sum += math.Abs(float64(home.Seed-away.Seed)) / spread
		counted++
	}
	if counted == 0 {
		return 0
	}
	return clamp01(sum / float64(counted))
}

// teammateRepetitionCost counts repeated teammate pairings across games,
// normalized by the total pairing occurrences: 1.0 only when every occurrence
// repeats a single pair, exactly 0 with no repeats.
func teammateRepetitionCost(aggregates map[string]*models.ParticipantAggregate) float64 {
	total, repeats := 0, 0
	ids := sortedParticipantIDs(aggregates)
	for _, id := range ids {
		mates := aggregates[id].Teammates
		for _, mate := range sortedKeys(mates) {
			if mate <= id {
				continue // count each unordered pair once
			}
			count := mates[mate]
			total += count
			if count > 1 {
				repeats += count - 1
			}
		}
	}
	if total == 0 {
		return 0
	}
	return clamp01(float64(repeats) / float64(total))
}

// opponentRepetitionCost counts repeated matchups at the team-pair level.
func opponentRepetitionCost(problem *models.ProblemDescription, solution *models.ScheduleSolution) float64 {
	matchups := map[string]int{}
	total := 0
	for _, game := range sortedGames(problem.Games) {
		if _, ok := solution.Slot(game.ID); !ok {
			continue
		}
		a, b := game.HomeTeamID, game.AwayTeamID
		if b < a {
			a, b = b, a
		}
		matchups[a+"|"+b]++
		total++
	}
	if total == 0 {
		return 0
	}
	repeats := 0
	for _, key := range sortedKeys(matchups) {
		if count := matchups[key]; count > 1 {
			repeats += count - 1
		}
	}
	return clamp01(float64(repeats) / float64(total))
}

// sitOutEquityCost is the variance of per-participant sit-out counts,
// normalized by the maximum variance attainable over the round count.
func sitOutEquityCost(problem *models.ProblemDescription, aggregates map[string]*models.ParticipantAggregate) float64 {
	rounds := problem.Rounds()
	if rounds == 0 || len(aggregates) == 0 {
		return 0
	}
	counts := make([]float64, 0, len(aggregates))
	for _, id := range sortedParticipantIDs(aggregates) {
		counts = append(counts, float64(aggregates[id].SitOuts))
	}
	maxVariance := float64(rounds) / 2 * float64(rounds) / 2
	return clamp01(variance(counts) / maxVariance)
}

// restVarianceCost squashes the variance of inter-game gaps with v/(v+s); the
// scale s ties to the configured minimum rest, keeping the value bounded,
// monotonic and exactly 0 when all gaps are equal.
func restVarianceCost(problem *models.ProblemDescription, aggregates map[string]*models.ParticipantAggregate) float64 {
	var gaps []float64
	for _, id := range sortedParticipantIDs(aggregates) {
		for _, gap := range aggregates[id].RestGaps {
			gaps = append(gaps, gap.Minutes())
		}
	}
	if len(gaps) < 2 {
		return 0
	}
	scaleMinutes := float64(problem.Constraints.MinRestMinutes)
	if scaleMinutes < 60 {
		scaleMinutes = 60
	}
	v := variance(gaps)
	return v / (v + scaleMinutes*scaleMinutes)
}

// courtUtilizationCost is the fraction of available slot capacity left idle.
func courtUtilizationCost(problem *models.ProblemDescription, solution *models.ScheduleSolution) float64 {
	if len(problem.Slots) == 0 {
		return 0
	}
	used := solution.Len()
	if used > len(problem.Slots) {
		used = len(problem.Slots)
	}
	return float64(len(problem.Slots)-used) / float64(len(problem.Slots))
}

// genderBalanceCost averages each team's deviation from the configured target
// composition, normalized by roster size.
func genderBalanceCost(problem *models.ProblemDescription) float64 {
	target := problem.Constraints.GenderComposition
	if len(target) == 0 || len(problem.Teams) == 0 {
		return 0
	}
	participants := problem.ParticipantIndex()

	sum, counted := 0.0, 0
	for _, team := range problem.Teams {
		if len(team.ParticipantIDs) == 0 {
			continue
		}
		actual := map[models.Gender]int{}
		for _, id := range team.ParticipantIDs {
			actual[participants[id].Gender]++
		}
		deviation := 0
		for _, gender := range sortedGenders(target) {
			deviation += abs(actual[gender] - target[gender])
		}
		sum += clamp01(float64(deviation) / float64(len(team.ParticipantIDs)))
		counted++
	}
	if counted == 0 {
		return 0
	}
	return sum / float64(counted)
}

func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sortedParticipantIDs(aggregates map[string]*models.ParticipantAggregate) []string {
	ids := make([]string, 0, len(aggregates))
	for id := range aggregates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
