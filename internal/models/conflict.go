package models

// ConflictKind is the machine-readable classification of a hard-rule breach.
type ConflictKind string

const (
	ConflictDoubleBookedParticipant ConflictKind = "double_booked_participant"
	ConflictDoubleBookedCourt       ConflictKind = "double_booked_court"
	// ConflictInsufficientRest covers both recovery-time breaches between
	// consecutive games and max-games-per-day cap violations; the kind set is
	// closed, and both rules guard the same resource (a participant's rest).
	// The message distinguishes the two, and a cap violation lists every game
	// of the offending day.
	ConflictInsufficientRest    ConflictKind = "insufficient_rest"
	ConflictSlotOutOfBounds     ConflictKind = "slot_out_of_bounds"
	ConflictRosterSizeViolation ConflictKind = "roster_size_violation"
	ConflictGenderComposition   ConflictKind = "gender_composition_violation"
)

// Conflict names the offending game(s) and the rule they break. An empty
// conflict list means the solution is feasible.
type Conflict struct {
	Kind    ConflictKind `json:"kind"`
	GameIDs []string     `json:"game_ids"`
	Message string       `json:"message"`
}
