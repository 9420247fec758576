package engine

import (
	"fmt"
	"time"

	"finguard/internal/core"
)

// StoreSnapshot is the read-only view of the store's collections that the
// insight rules evaluate against. The store hands out deep copies, so the
// engine can never mutate canonical state.
// It doubles as the backup wire format, so fields carry JSON tags.
type StoreSnapshot struct {
	Transactions []core.Transaction   `json:"transactions"`
	Budgets      []core.Budget        `json:"budgets"`
	Goals        []core.Goal          `json:"goals"`
	Plan         *core.AllocationPlan `json:"plan,omitempty"`
	Tax          *core.TaxSnapshot    `json:"tax,omitempty"`
	Currency     string               `json:"currency,omitempty"`
}

// ComputeInsights evaluates a fixed ordered rule list against the
// current-month aggregates. Rules with no qualifying data are skipped
// silently. With no activity at all, a single placeholder replaces every
// other rule.
func ComputeInsights(s StoreSnapshot, now time.Time) []string {
	totals := ComputeMonthTotals(s.Transactions, now)
	if totals.Income == 0 && totals.Expense == 0 {
		return []string{"Add a few transactions to unlock insights."}
	}

	var tips []string

	if totals.Income > 0 {
		rate := 100 - totals.Expense/totals.Income*100
		tips = append(tips, fmt.Sprintf("Your savings rate this month is approximately %.1f%%.", rate))
	}

	breakdown := ComputeCategoryBreakdown(s.Transactions, now)
	if len(breakdown) > 0 {
		top := breakdown[0]
		tips = append(tips, fmt.Sprintf(
			"Your highest spending category is %q at %s%.0f. Try setting a cap here next month.",
			top.Category, s.Currency, top.Amount))
	}

	if s.Plan != nil && s.Plan.Invest >= 20 {
		tips = append(tips, "Your budget dedicates at least 20% to investments. This supports long-term goals.")
	}

	if nearest, ok := NearestGoal(s.Goals, now); ok {
		tips = append(tips, fmt.Sprintf(
			"Goal %q is nearest. You need around %s%d per month to hit the deadline.",
			nearest.Goal.Name, s.Currency, nearest.Monthly))
	}

	return tips
}
