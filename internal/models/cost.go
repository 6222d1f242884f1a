package models

// CostReport carries each objective's normalized cost in [0, 1] plus the
// weighted total. It is always reproducible from a solution and weight vector;
// the total is never clamped or re-normalized, callers compare relative cost.
type CostReport struct {
	Objectives    map[Objective]float64 `json:"objectives"`
	WeightedTotal float64               `json:"weighted_total"`
}

// ObjectiveContribution is one row of the explainer breakdown.
type ObjectiveContribution struct {
	Objective    Objective `json:"objective"`
	RawCost      float64   `json:"raw_cost"`
	Weight       float64   `json:"weight"`
	Contribution float64   `json:"contribution"`
}

// CostBreakdown is the explainer output: contributions sorted descending by
// weighted contribution, with the single largest named as the primary
// trade-off for display.
type CostBreakdown struct {
	Contributions   []ObjectiveContribution `json:"contributions"`
	PrimaryTradeoff Objective               `json:"primary_tradeoff"`
	WeightedTotal   float64                 `json:"weighted_total"`
}
