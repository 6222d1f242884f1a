package models

import "time"

// ConstraintSet holds the hard rules. Violating any of them makes a solution
// infeasible rather than merely costly. Zero values disable a rule.
type ConstraintSet struct {
	MinRestMinutes    int            `json:"min_rest_minutes,omitempty"`
	MaxGamesPerDay    int            `json:"max_games_per_day,omitempty"`
	MinRosterSize     int            `json:"min_roster_size,omitempty"`
	MaxRosterSize     int            `json:"max_roster_size,omitempty"`
	GenderComposition map[Gender]int `json:"gender_composition,omitempty"`
}

// MinRest returns the minimum rest window as a duration.
func (c ConstraintSet) MinRest() time.Duration {
	return time.Duration(c.MinRestMinutes) * time.Minute
}
