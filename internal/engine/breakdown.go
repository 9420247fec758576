package engine

import (
	"sort"
	"time"

	"finguard/internal/core"
)

// CategoryAmount is an amount aggregated by category name.
type CategoryAmount struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// ComputeCategoryBreakdown groups the month's expense transactions by
// category. The result is sorted by amount descending (name ascending on
// ties) so the proportional chart is stable. An empty result is the
// explicit "no data" signal; callers render a placeholder, not a chart.
func ComputeCategoryBreakdown(txns []core.Transaction, now time.Time) []CategoryAmount {
	key := MonthKeyOf(now)
	sums := make(map[string]float64)
	for _, t := range txns {
		if t.Type != core.Expense || t.Date.MonthKey() != key {
			continue
		}
		sums[t.Category] += t.Amount
	}

	out := make([]CategoryAmount, 0, len(sums))
	for cat, amt := range sums {
		out = append(out, CategoryAmount{Category: cat, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category < out[j].Category
	})
	return out
}
