package models

// TournamentFormat selects the deterministic generation strategy.
type TournamentFormat string

const (
	FormatRoundRobin TournamentFormat = "round_robin"
	FormatPoolPlay   TournamentFormat = "pool_play"
	FormatBracket    TournamentFormat = "bracket"
)

// Game is one scheduled pairing of teams belonging to a round. A valid
// solution assigns every game exactly one slot. Locked games keep their
// assignment through re-optimization.
type Game struct {
	ID         string   `json:"id"`
	Round      int      `json:"round"`
	Pool       string   `json:"pool,omitempty"`
	HomeTeamID string   `json:"home_team_id"`
	AwayTeamID string   `json:"away_team_id"`
	Locked     bool     `json:"locked,omitempty"`
	DependsOn  []string `json:"depends_on,omitempty"`
}
