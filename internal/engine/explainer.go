package engine

import (
	"sort"

	"github.com/rallyops/schedule-engine/internal/models"
)

// Explain converts a cost report into a per-objective breakdown sorted
// descending by weighted contribution. The largest contributor is surfaced as
// the primary trade-off for display. Pure transformation, no hidden state.
func Explain(report models.CostReport, weights models.WeightVector) models.CostBreakdown {
	contributions := make([]models.ObjectiveContribution, 0, len(models.Objectives()))
	for _, objective := range models.Objectives() {
		raw := report.Objectives[objective]
		weight := weights[objective]
		contributions = append(contributions, models.ObjectiveContribution{
			Objective:    objective,
			RawCost:      raw,
			Weight:       weight,
			Contribution: raw * weight,
		})
	}
	sort.SliceStable(contributions, func(i, j int) bool {
		if contributions[i].Contribution == contributions[j].Contribution {
			return contributions[i].Objective < contributions[j].Objective
		}
		return contributions[i].Contribution > contributions[j].Contribution
	})

	breakdown := models.CostBreakdown{
		Contributions: contributions,
		WeightedTotal: report.WeightedTotal,
	}
	if len(contributions) > 0 {
		breakdown.PrimaryTradeoff = contributions[0].Objective
	}
	return breakdown
}
