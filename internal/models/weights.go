package models

import "fmt"

// Objective identifies one of the fixed soft scoring dimensions. The set is
// closed: the weight vector and cost report are both keyed by it.
type Objective string

const (
	ObjectiveSkillBalance       Objective = "skill_balance"
	ObjectiveSeedBalance        Objective = "seed_balance"
	ObjectiveTeammateRepetition Objective = "teammate_repetition"
	ObjectiveOpponentRepetition Objective = "opponent_repetition"
	ObjectiveSitOutEquity       Objective = "sitout_equity"
	ObjectiveRestVariance       Objective = "rest_variance"
	ObjectiveCourtUtilization   Objective = "court_utilization"
	ObjectiveGenderBalance      Objective = "gender_balance"
)

// Objectives returns every objective in report order.
func Objectives() []Objective {
	return []Objective{
		ObjectiveSkillBalance,
		ObjectiveSeedBalance,
		ObjectiveTeammateRepetition,
		ObjectiveOpponentRepetition,
		ObjectiveSitOutEquity,
		ObjectiveRestVariance,
		ObjectiveCourtUtilization,
		ObjectiveGenderBalance,
	}
}

// WeightVector maps each objective to a weight in [0, 1].
type WeightVector map[Objective]float64

// DefaultWeights returns the stock weighting applied when a caller omits
// overrides.
func DefaultWeights() WeightVector {
	return WeightVector{
		ObjectiveSkillBalance:       0.8,
		ObjectiveSeedBalance:        0.6,
		ObjectiveTeammateRepetition: 0.7,
		ObjectiveOpponentRepetition: 0.7,
		ObjectiveSitOutEquity:       0.5,
		ObjectiveRestVariance:       0.4,
		ObjectiveCourtUtilization:   0.3,
		ObjectiveGenderBalance:      0.5,
	}
}

// Merge overlays the supplied subset on top of the defaults and returns the
// completed vector. The receiver is not modified.
func (w WeightVector) Merge(overrides WeightVector) WeightVector {
	merged := make(WeightVector, len(w))
	for objective, weight := range w {
		merged[objective] = weight
	}
	for objective, weight := range overrides {
		merged[objective] = weight
	}
	return merged
}

// Validate rejects unknown objectives and weights outside [0, 1].
func (w WeightVector) Validate() error {
	known := make(map[Objective]bool, 8)
	for _, objective := range Objectives() {
		known[objective] = true
	}
	for objective, weight := range w {
		if !known[objective] {
			return fmt.Errorf("unknown objective %q", objective)
		}
		if weight < 0 || weight > 1 {
			return fmt.Errorf("weight for %s is %.4f, must be within [0, 1]", objective, weight)
		}
	}
	return nil
}
