package models

import (
	"fmt"
	"time"
)

// Slot is one (court, time-window) unit of schedulable capacity. Slots are
// drawn from venue availability minus blackouts and never change mid-solve.
type Slot struct {
	Court string    `json:"court"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsZero reports whether the slot is unset.
func (s Slot) IsZero() bool {
	return s.Court == "" && s.Start.IsZero() && s.End.IsZero()
}

// Equal compares slots by court and time window.
func (s Slot) Equal(other Slot) bool {
	return s.Court == other.Court && s.Start.Equal(other.Start) && s.End.Equal(other.End)
}

// Overlaps reports whether the two time windows intersect, regardless of court.
func (s Slot) Overlaps(other Slot) bool {
	return s.Start.Before(other.End) && other.Start.Before(s.End)
}

// Key returns a stable identity usable as a map key across serialisation.
func (s Slot) Key() string {
	return fmt.Sprintf("%s@%d", s.Court, s.Start.Unix())
}

// Duration returns the slot length.
func (s Slot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}
