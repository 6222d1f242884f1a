package models

// Gender classifies participants for composition constraints and balance scoring.
type Gender string

const (
	GenderFemale Gender = "F"
	GenderMale   Gender = "M"
	GenderOther  Gender = "X"
)

// Participant is a registered player. Attributes are immutable for the
// duration of a solve.
type Participant struct {
	ID     string  `json:"id"`
	Name   string  `json:"name,omitempty"`
	Skill  float64 `json:"skill"`
	Gender Gender  `json:"gender,omitempty"`
	Pool   string  `json:"pool,omitempty"`
	Seed   int     `json:"seed,omitempty"`
}

// Team groups participants competing as one side of a game. Singles formats
// use one-participant teams.
type Team struct {
	ID             string   `json:"id"`
	Name           string   `json:"name,omitempty"`
	Pool           string   `json:"pool,omitempty"`
	Seed           int      `json:"seed,omitempty"`
	ParticipantIDs []string `json:"participant_ids"`
}
