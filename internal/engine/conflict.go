package engine

import (
	"fmt"
	"sort"

	"github.com/rallyops/schedule-engine/internal/models"
)

// Validate checks a candidate schedule against the problem's hard constraints
// and returns an ordered conflict list. An empty list means the solution is
// feasible. The function is deterministic and side-effect free: it backs both
// the user-facing "check my manual edit" flow and neighbor rejection inside
// the annealer.
func Validate(problem *models.ProblemDescription, solution *models.ScheduleSolution) []models.Conflict {
	var conflicts []models.Conflict

	games := sortedGames(problem.Games)
	teams := problem.TeamIndex()

	validSlots := make(map[string]bool, len(problem.Slots))
	for _, slot := range problem.Slots {
		validSlots[slotIdentity(slot)] = true
	}

	// Slot bounds: every game needs exactly one slot drawn from the pool.
	for _, game := range games {
		slot, ok := solution.Slot(game.ID)
		if !ok {
			conflicts = append(conflicts, models.Conflict{
				Kind:    models.ConflictSlotOutOfBounds,
				GameIDs: []string{game.ID},
				Message: fmt.Sprintf("game %s has no slot assigned", game.ID),
			})
			continue
		}
		if !validSlots[slotIdentity(slot)] {
			conflicts = append(conflicts, models.Conflict{
				Kind:    models.ConflictSlotOutOfBounds,
				GameIDs: []string{game.ID},
				Message: fmt.Sprintf("game %s is assigned slot %s outside venue availability", game.ID, slot.Key()),
			})
		}
	}

	// Court double-booking: one conflict per overlapping pair on the same court.
	for i := 0; i < len(games); i++ {
		slotA, okA := solution.Slot(games[i].ID)
		if !okA {
			continue
		}
		for j := i + 1; j < len(games); j++ {
			slotB, okB := solution.Slot(games[j].ID)
			if !okB {
				continue
			}
			if slotA.Court == slotB.Court && slotA.Overlaps(slotB) {
				conflicts = append(conflicts, models.Conflict{
					Kind:    models.ConflictDoubleBookedCourt,
					GameIDs: []string{games[i].ID, games[j].ID},
					Message: fmt.Sprintf("games %s and %s overlap on court %s", games[i].ID, games[j].ID, slotA.Court),
				})
			}
		}
	}

	// Participant double-booking across overlapping time windows.
	rosters := make(map[string]map[string]bool, len(games))
	for _, game := range games {
		set := make(map[string]bool)
		for _, id := range problem.GameParticipants(game) {
			set[id] = true
		}
		rosters[game.ID] = set
	}
	for i := 0; i < len(games); i++ {
		slotA, okA := solution.Slot(games[i].ID)
		if !okA {
			continue
		}
		for j := i + 1; j < len(games); j++ {
			slotB, okB := solution.Slot(games[j].ID)
			if !okB || !slotA.Overlaps(slotB) {
				continue
			}
			if shared := sharedParticipant(rosters[games[i].ID], rosters[games[j].ID]); shared != "" {
				conflicts = append(conflicts, models.Conflict{
					Kind:    models.ConflictDoubleBookedParticipant,
					GameIDs: []string{games[i].ID, games[j].ID},
					Message: fmt.Sprintf("participant %s plays in overlapping games %s and %s", shared, games[i].ID, games[j].ID),
				})
			}
		}
	}

	conflicts = append(conflicts, restConflicts(problem, solution, games)...)
	conflicts = append(conflicts, dailyLoadConflicts(problem, solution, games)...)
	conflicts = append(conflicts, rosterConflicts(problem, teams, games)...)

	return conflicts
}

// restConflicts flags consecutive games of one participant separated by less
// than the configured minimum rest.
func restConflicts(problem *models.ProblemDescription, solution *models.ScheduleSolution, games []models.Game) []models.Conflict {
	minRest := problem.Constraints.MinRest()
	if minRest <= 0 {
		return nil
	}

	type timedGame struct {
		game models.Game
		slot models.Slot
	}
	byParticipant := map[string][]timedGame{}
	for _, game := range games {
		slot, ok := solution.Slot(game.ID)
		if !ok {
			continue
		}
		for _, id := range problem.GameParticipants(game) {
			byParticipant[id] = append(byParticipant[id], timedGame{game: game, slot: slot})
		}
	}

	ids := make([]string, 0, len(byParticipant))
	for id := range byParticipant {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var conflicts []models.Conflict
	seen := map[string]bool{}
	for _, id := range ids {
		played := byParticipant[id]
		sort.Slice(played, func(i, j int) bool {
			if played[i].slot.Start.Equal(played[j].slot.Start) {
				return played[i].game.ID < played[j].game.ID
			}
			return played[i].slot.Start.Before(played[j].slot.Start)
		})
		for i := 1; i < len(played); i++ {
			gap := played[i].slot.Start.Sub(played[i-1].slot.End)
			if gap >= minRest || gap < 0 {
				// Negative gaps are overlaps, reported as double bookings.
				continue
			}
			pairKey := played[i-1].game.ID + "|" + played[i].game.ID
			if seen[pairKey] {
				continue
			}
			seen[pairKey] = true
			conflicts = append(conflicts, models.Conflict{
				Kind:    models.ConflictInsufficientRest,
				GameIDs: []string{played[i-1].game.ID, played[i].game.ID},
				Message: fmt.Sprintf("participant %s rests %s between games %s and %s, minimum is %s", id, gap, played[i-1].game.ID, played[i].game.ID, minRest),
			})
		}
	}
	return conflicts
}

// dailyLoadConflicts enforces the max-games-per-day cap per participant.
func dailyLoadConflicts(problem *models.ProblemDescription, solution *models.ScheduleSolution, games []models.Game) []models.Conflict {
	maxPerDay := problem.Constraints.MaxGamesPerDay
	if maxPerDay <= 0 {
		return nil
	}

	type dayKey struct {
		participant string
		day         string
	}
	counts := map[dayKey][]string{}
	for _, game := range games {
		slot, ok := solution.Slot(game.ID)
		if !ok {
			continue
		}
		day := slot.Start.Format("2006-01-02")
		for _, id := range problem.GameParticipants(game) {
			key := dayKey{participant: id, day: day}
			counts[key] = append(counts[key], game.ID)
		}
	}

	keys := make([]dayKey, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].participant == keys[j].participant {
			return keys[i].day < keys[j].day
		}
		return keys[i].participant < keys[j].participant
	})

	var conflicts []models.Conflict
	for _, key := range keys {
		gameIDs := counts[key]
		if len(gameIDs) <= maxPerDay {
			continue
		}
		sort.Strings(gameIDs)
		conflicts = append(conflicts, models.Conflict{
			Kind:    models.ConflictInsufficientRest,
			GameIDs: gameIDs,
			Message: fmt.Sprintf("participant %s plays %d games on %s, maximum is %d", key.participant, len(gameIDs), key.day, maxPerDay),
		})
	}
	return conflicts
}

// rosterConflicts checks team size bounds and gender composition. These are
// structural: they depend only on the problem, not on slot assignments, but
// they still render a solution infeasible.
func rosterConflicts(problem *models.ProblemDescription, teams map[string]models.Team, games []models.Game) []models.Conflict {
	gamesByTeam := map[string][]string{}
	for _, game := range games {
		gamesByTeam[game.HomeTeamID] = append(gamesByTeam[game.HomeTeamID], game.ID)
		gamesByTeam[game.AwayTeamID] = append(gamesByTeam[game.AwayTeamID], game.ID)
	}

	participants := problem.ParticipantIndex()
	constraints := problem.Constraints

	teamIDs := make([]string, 0, len(teams))
	for id := range teams {
		teamIDs = append(teamIDs, id)
	}
	sort.Strings(teamIDs)

	var conflicts []models.Conflict
	for _, teamID := range teamIDs {
		team := teams[teamID]
		gameIDs := gamesByTeam[teamID]
		if len(gameIDs) == 0 {
			continue
		}
		sort.Strings(gameIDs)

		size := len(team.ParticipantIDs)
		if (constraints.MinRosterSize > 0 && size < constraints.MinRosterSize) ||
			(constraints.MaxRosterSize > 0 && size > constraints.MaxRosterSize) {
			conflicts = append(conflicts, models.Conflict{
				Kind:    models.ConflictRosterSizeViolation,
				GameIDs: gameIDs,
				Message: fmt.Sprintf("team %s roster size %d violates bounds [%d, %d]", teamID, size, constraints.MinRosterSize, constraints.MaxRosterSize),
			})
		}

		if len(constraints.GenderComposition) == 0 {
			continue
		}
		actual := map[models.Gender]int{}
		for _, id := range team.ParticipantIDs {
			actual[participants[id].Gender]++
		}
		for _, gender := range sortedGenders(constraints.GenderComposition) {
			required := constraints.GenderComposition[gender]
			if actual[gender] != required {
				conflicts = append(conflicts, models.Conflict{
					Kind:    models.ConflictGenderComposition,
					GameIDs: gameIDs,
					Message: fmt.Sprintf("team %s has %d participants of gender %s, required %d", teamID, actual[gender], gender, required),
				})
			}
		}
	}
	return conflicts
}

func sortedGames(games []models.Game) []models.Game {
	ordered := make([]models.Game, len(games))
	copy(ordered, games)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Round == ordered[j].Round {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].Round < ordered[j].Round
	})
	return ordered
}

func sortedGenders(composition map[models.Gender]int) []models.Gender {
	genders := make([]models.Gender, 0, len(composition))
	for gender := range composition {
		genders = append(genders, gender)
	}
	sort.Slice(genders, func(i, j int) bool { return genders[i] < genders[j] })
	return genders
}

func sharedParticipant(a, b map[string]bool) string {
	ids := make([]string, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if b[id] {
			return id
		}
	}
	return ""
}

func slotIdentity(slot models.Slot) string {
	return fmt.Sprintf("%s|%d|%d", slot.Court, slot.Start.Unix(), slot.End.Unix())
}
