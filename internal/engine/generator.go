package engine

import (
	"fmt"
	"sort"

	"github.com/rallyops/schedule-engine/internal/models"
	appErrors "github.com/rallyops/schedule-engine/pkg/errors"
)

// Baseline couples a game list with its deterministic slot assignments. When
// the problem supplies no games, the generator builds the pairings for the
// requested format first.
type Baseline struct {
	Games    []models.Game
	Solution *models.ScheduleSolution
}

// GenerateBaseline produces a fast, constraint-satisfying schedule with no
// optimization pass. It doubles as the feasibility pre-check: a greedy
// assignment that cannot place every game reports ErrInfeasibleProblem before
// any search begins. Runtime is proportional to game count.
func GenerateBaseline(problem *models.ProblemDescription) (*Baseline, error) {
	if err := checkRosterStructure(problem); err != nil {
		return nil, err
	}

	games := problem.Games
	if len(games) == 0 {
		var err error
		games, err = BuildPairings(problem)
		if err != nil {
			return nil, err
		}
	}

	if len(games) > len(problem.Slots) {
		return nil, appErrors.Clone(appErrors.ErrInfeasibleProblem,
			fmt.Sprintf("%d games cannot fit into %d slots", len(games), len(problem.Slots)))
	}

	solution, err := assignSlots(problem, games)
	if err != nil {
		return nil, err
	}
	return &Baseline{Games: games, Solution: solution}, nil
}

// BuildPairings constructs the game list for the problem's format.
func BuildPairings(problem *models.ProblemDescription) ([]models.Game, error) {
	switch problem.Format {
	case models.FormatRoundRobin:
		return roundRobinGames(orderedTeams(problem.Teams), "rr", ""), nil
	case models.FormatPoolPlay:
		return poolPlayGames(problem)
	case models.FormatBracket:
		return bracketGames(orderedTeams(problem.Teams))
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("unknown tournament format %q", problem.Format))
	}
}

// roundRobinGames applies the canonical circle rotation: team 0 is fixed and
// the rest rotate one position per round, yielding n-1 rounds where every
// team plays exactly once per round (a bye fills in for odd counts).
func roundRobinGames(teams []models.Team, idPrefix, pool string) []models.Game {
	ring := make([]string, 0, len(teams)+1)
	for _, team := range teams {
		ring = append(ring, team.ID)
	}
	if len(ring)%2 == 1 {
		ring = append(ring, "") // bye
	}
	n := len(ring)
	if n < 2 {
		return nil
	}

	var games []models.Game
	for round := 1; round < n; round++ {
		match := 0
		for i := 0; i < n/2; i++ {
			home, away := ring[i], ring[n-1-i]
			if home == "" || away == "" {
				continue
			}
			match++
			games = append(games, models.Game{
				ID:         fmt.Sprintf("%s-r%d-m%d", idPrefix, round, match),
				Round:      round,
				Pool:       pool,
				HomeTeamID: home,
				AwayTeamID: away,
			})
		}
		// Rotate everything but the first position.
		last := ring[n-1]
		copy(ring[2:], ring[1:n-1])
		ring[1] = last
	}
	return games
}

// poolPlayGames runs the same rotation independently inside each pool, with
// shared round numbering so cross-pool rounds line up on the venue clock.
func poolPlayGames(problem *models.ProblemDescription) ([]models.Game, error) {
	pools := map[string][]models.Team{}
	for _, team := range problem.Teams {
		pools[team.Pool] = append(pools[team.Pool], team)
	}
	if len(pools) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "pool play requires teams with pool membership")
	}

	names := make([]string, 0, len(pools))
	for name := range pools {
		names = append(names, name)
	}
	sort.Strings(names)

	var games []models.Game
	for _, name := range names {
		prefix := "pool-" + name
		if name == "" {
			prefix = "pool"
		}
		games = append(games, roundRobinGames(orderedTeams(pools[name]), prefix, name)...)
	}
	return games, nil
}

// bracketGames builds a single-elimination bracket in seed order. Later
// rounds reference their feeder games through DependsOn and synthetic
// winner placeholders; top seeds absorb the byes when the field is not a
// power of two.
func bracketGames(teams []models.Team) ([]models.Game, error) {
	n := len(teams)
	if n < 2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "bracket requires at least two teams")
	}

	size := 1
	for size < n {
		size *= 2
	}

	entries := make([]string, size)
	for i, team := range teams {
		entries[i] = team.ID
	}

	// Canonical bracket positions keep the top seeds apart until the final;
	// unfilled entries become byes absorbed by the higher seed.
	var games []models.Game
	prev := make([]string, 0, size) // feeder refs for the next round: team ID or winner:<game>
	for _, position := range bracketOrder(size) {
		prev = append(prev, entries[position-1])
	}

	round := 0
	for len(prev) > 1 {
		round++
		next := make([]string, 0, len(prev)/2)
		for i := 0; i < len(prev); i += 2 {
			home, away := prev[i], prev[i+1]
			gameID := fmt.Sprintf("br-r%d-m%d", round, i/2+1)

			// A bye: the concrete side advances without a game.
			if home == "" {
				next = append(next, away)
				continue
			}
			if away == "" {
				next = append(next, home)
				continue
			}

			game := models.Game{
				ID:         gameID,
				Round:      round,
				HomeTeamID: home,
				AwayTeamID: away,
			}
			for _, side := range []string{home, away} {
				if feeder, ok := winnerSource(side); ok {
					game.DependsOn = append(game.DependsOn, feeder)
				}
			}
			games = append(games, game)
			next = append(next, "winner:"+gameID)
		}
		prev = next
	}
	return games, nil
}

// bracketOrder expands the 1-based seed positions so that pairing adjacent
// entries gives the standard bracket: 1v(size), then the half containing seed
// 2 mirrored, recursively.
func bracketOrder(size int) []int {
	order := []int{1}
	for len(order) < size {
		next := make([]int, 0, len(order)*2)
		sum := len(order)*2 + 1
		for _, position := range order {
			next = append(next, position, sum-position)
		}
		order = next
	}
	return order
}

func winnerSource(ref string) (string, bool) {
	const prefix = "winner:"
	if len(ref) > len(prefix) && ref[:len(prefix)] == prefix {
		return ref[len(prefix):], true
	}
	return "", false
}

// assignSlots greedily places games round by round into the earliest feasible
// slot, preferring the least-used court among equal start times so court usage
// stays balanced. No iterative search happens here.
func assignSlots(problem *models.ProblemDescription, games []models.Game) (*models.ScheduleSolution, error) {
	slots := make([]models.Slot, len(problem.Slots))
	copy(slots, problem.Slots)
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Start.Equal(slots[j].Start) {
			return slots[i].Court < slots[j].Court
		}
		return slots[i].Start.Before(slots[j].Start)
	})

	minRest := problem.Constraints.MinRest()
	maxPerDay := problem.Constraints.MaxGamesPerDay

	assignments := make(map[string]models.Slot, len(games))
	usedSlots := make(map[string]bool, len(games))
	courtUse := map[string]int{}
	participantSlots := map[string][]models.Slot{}
	dayLoad := map[string]int{}

	feasibleFor := func(game models.Game, slot models.Slot, participants []string) bool {
		for _, id := range participants {
			for _, taken := range participantSlots[id] {
				if slot.Overlaps(taken) {
					return false
				}
				if gap := slot.Start.Sub(taken.End); gap >= 0 && gap < minRest {
					return false
				}
				if gap := taken.Start.Sub(slot.End); gap >= 0 && gap < minRest {
					return false
				}
			}
			if maxPerDay > 0 && dayLoad[id+"|"+slot.Start.Format("2006-01-02")] >= maxPerDay {
				return false
			}
		}
		for _, feeder := range game.DependsOn {
			feederSlot, ok := assignments[feeder]
			if !ok {
				return false
			}
			earliest := feederSlot.End.Add(minRest)
			if slot.Start.Before(earliest) {
				return false
			}
		}
		return true
	}

	for _, game := range sortedGames(games) {
		participants := problem.GameParticipants(game)

		var chosen models.Slot
		found := false
		for _, slot := range slots {
			if usedSlots[slotIdentity(slot)] || !feasibleFor(game, slot, participants) {
				continue
			}
			if !found || betterSlot(slot, chosen, courtUse) {
				chosen = slot
				found = true
			}
			if found && slot.Start.After(chosen.Start) {
				break // slots are start-ordered, nothing later can beat chosen
			}
		}
		if !found {
			return nil, appErrors.Clone(appErrors.ErrInfeasibleProblem,
				fmt.Sprintf("no feasible slot for game %s (round %d)", game.ID, game.Round))
		}

		assignments[game.ID] = chosen
		usedSlots[slotIdentity(chosen)] = true
		courtUse[chosen.Court]++
		day := chosen.Start.Format("2006-01-02")
		for _, id := range participants {
			participantSlots[id] = append(participantSlots[id], chosen)
			dayLoad[id+"|"+day]++
		}
	}

	return models.NewScheduleSolution(assignments), nil
}

// betterSlot prefers the earlier start, then the less-used court.
func betterSlot(candidate, current models.Slot, courtUse map[string]int) bool {
	if !candidate.Start.Equal(current.Start) {
		return candidate.Start.Before(current.Start)
	}
	if courtUse[candidate.Court] != courtUse[current.Court] {
		return courtUse[candidate.Court] < courtUse[current.Court]
	}
	return candidate.Court < current.Court
}

// checkRosterStructure rejects problems whose team rosters can never satisfy
// the hard constraints, regardless of slot assignment.
func checkRosterStructure(problem *models.ProblemDescription) error {
	constraints := problem.Constraints
	participants := problem.ParticipantIndex()
	for _, team := range problem.Teams {
		size := len(team.ParticipantIDs)
		if constraints.MinRosterSize > 0 && size < constraints.MinRosterSize {
			return appErrors.Clone(appErrors.ErrInfeasibleProblem,
				fmt.Sprintf("team %s roster size %d is below the minimum %d", team.ID, size, constraints.MinRosterSize))
		}
		if constraints.MaxRosterSize > 0 && size > constraints.MaxRosterSize {
			return appErrors.Clone(appErrors.ErrInfeasibleProblem,
				fmt.Sprintf("team %s roster size %d exceeds the maximum %d", team.ID, size, constraints.MaxRosterSize))
		}
		if len(constraints.GenderComposition) > 0 {
			actual := map[models.Gender]int{}
			for _, id := range team.ParticipantIDs {
				actual[participants[id].Gender]++
			}
			for _, gender := range sortedGenders(constraints.GenderComposition) {
				if actual[gender] != constraints.GenderComposition[gender] {
					return appErrors.Clone(appErrors.ErrInfeasibleProblem,
						fmt.Sprintf("team %s gender composition does not match the required target", team.ID))
				}
			}
		}
	}
	return nil
}

// orderedTeams sorts by seed (seeded teams first, ascending), then ID, so
// pairing construction is reproducible for identical inputs.
func orderedTeams(teams []models.Team) []models.Team {
	ordered := make([]models.Team, len(teams))
	copy(ordered, teams)
	sort.Slice(ordered, func(i, j int) bool {
		si, sj := ordered[i].Seed, ordered[j].Seed
		if si == 0 {
			si = int(^uint(0) >> 1)
		}
		if sj == 0 {
			sj = int(^uint(0) >> 1)
		}
		if si != sj {
			return si < sj
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}
