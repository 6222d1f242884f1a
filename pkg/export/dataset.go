package export

import (
	"fmt"
	"sort"
	"time"

	"github.com/rallyops/schedule-engine/internal/models"
)

// Dataset is tabular export content. Headers fix the column order; rows are
// keyed by header name so builders can leave cells blank.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// records flattens the dataset into ordered rows, headers first.
func (d Dataset) records() [][]string {
	out := make([][]string, 0, len(d.Rows)+1)
	out = append(out, d.Headers)
	for _, row := range d.Rows {
		record := make([]string, len(d.Headers))
		for i, header := range d.Headers {
			record[i] = row[header]
		}
		out = append(out, record)
	}
	return out
}

// ScheduleDataset flattens an assigned schedule into export rows, ordered by
// slot start then court.
func ScheduleDataset(games []models.Game, solution *models.ScheduleSolution) Dataset {
	headers := []string{"Game", "Round", "Pool", "Home", "Away", "Court", "Start", "End"}

	byID := make(map[string]models.Game, len(games))
	for _, g := range games {
		byID[g.ID] = g
	}

	ids := solution.GameIDs()
	sort.Slice(ids, func(i, j int) bool {
		si, _ := solution.Slot(ids[i])
		sj, _ := solution.Slot(ids[j])
		if !si.Start.Equal(sj.Start) {
			return si.Start.Before(sj.Start)
		}
		if si.Court != sj.Court {
			return si.Court < sj.Court
		}
		return ids[i] < ids[j]
	})

	rows := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		slot, _ := solution.Slot(id)
		game := byID[id]
		rows = append(rows, map[string]string{
			"Game":  id,
			"Round": fmt.Sprintf("%d", game.Round),
			"Pool":  game.Pool,
			"Home":  game.HomeTeamID,
			"Away":  game.AwayTeamID,
			"Court": slot.Court,
			"Start": slot.Start.Format(time.RFC3339),
			"End":   slot.End.Format(time.RFC3339),
		})
	}

	return Dataset{Headers: headers, Rows: rows}
}

// BreakdownDataset renders a cost breakdown as one row per objective, in
// descending contribution order.
func BreakdownDataset(breakdown models.CostBreakdown) Dataset {
	headers := []string{"Objective", "Raw", "Weight", "Contribution"}

	rows := make([]map[string]string, 0, len(breakdown.Contributions))
	for _, c := range breakdown.Contributions {
		rows = append(rows, map[string]string{
			"Objective":    string(c.Objective),
			"Raw":          fmt.Sprintf("%.4f", c.RawCost),
			"Weight":       fmt.Sprintf("%.2f", c.Weight),
			"Contribution": fmt.Sprintf("%.4f", c.Contribution),
		})
	}

	return Dataset{Headers: headers, Rows: rows}
}
