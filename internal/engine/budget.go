package engine

import (
	"finguard/internal/core"
)

// Tier names a threshold bucket used for visual styling.
type Tier string

const (
	TierOK       Tier = "ok"
	TierWarning  Tier = "warning"
	TierDanger   Tier = "danger"
	TierExceeded Tier = "exceeded"
)

// PlanUtilization reports how much of the allocation plan's monthly total
// has been consumed by expense transactions in the plan's month.
type PlanUtilization struct {
	Month   string  `json:"month"`
	Spent   float64 `json:"spent"`
	Percent int64   `json:"percent"` // clamped to [0, 100]
	Tier    Tier    `json:"tier"`
}

// ComputePlanUtilization sums expenses bucketed to the plan's month.
// Percent is clamped to 100 for display, but the tier is decided on the
// raw ratio so an exceeded budget is actually reported as exceeded.
func ComputePlanUtilization(plan *core.AllocationPlan, txns []core.Transaction) PlanUtilization {
	if plan == nil {
		return PlanUtilization{Tier: TierOK}
	}
	u := PlanUtilization{Month: plan.Month, Tier: TierOK}
	for _, t := range txns {
		if t.Type == core.Expense && t.Date.MonthKey() == plan.Month {
			u.Spent += t.Amount
		}
	}
	if plan.Total <= 0 {
		return u
	}
	raw := u.Spent / plan.Total * 100
	clamped := raw
	if clamped > 100 {
		clamped = 100
	}
	u.Percent = core.RoundHalfUp(clamped)
	switch {
	case raw > 100:
		u.Tier = TierExceeded
	case raw > 80:
		u.Tier = TierWarning
	}
	return u
}

// BudgetCard is the derived view of one per-category Budget record.
type BudgetCard struct {
	Budget    core.Budget `json:"budget"`
	Remaining float64     `json:"remaining"` // may be negative
	Left      float64     `json:"left"`      // Remaining floored at 0
	Percent   int64       `json:"percent"`   // clamped to [0, 100]
	Tier      Tier        `json:"tier"`
}

// BudgetSummary aggregates the cards for one month.
type BudgetSummary struct {
	Month      string       `json:"month"`
	Cards      []BudgetCard `json:"cards"`
	TotalLimit float64      `json:"totalLimit"`
	TotalSpent float64      `json:"totalSpent"`
	Remaining  float64      `json:"remaining"` // may be negative
}

// ComputeBudgetCards derives per-category cards and the month summary for
// every Budget record in the selected month.
func ComputeBudgetCards(budgets []core.Budget, month string) BudgetSummary {
	s := BudgetSummary{Month: month}
	for _, b := range budgets {
		if b.Month != month {
			continue
		}
		s.TotalLimit += b.Limit
		s.TotalSpent += b.Spent

		card := BudgetCard{
			Budget:    b,
			Remaining: b.Limit - b.Spent,
			Tier:      TierOK,
		}
		if card.Remaining > 0 {
			card.Left = card.Remaining
		}
		var percent float64
		if b.Limit > 0 {
			percent = b.Spent / b.Limit * 100
			if percent > 100 {
				percent = 100
			}
		}
		card.Percent = core.RoundHalfUp(percent)
		switch {
		case percent > 90:
			card.Tier = TierDanger
		case percent > 75:
			card.Tier = TierWarning
		}
		s.Cards = append(s.Cards, card)
	}
	s.Remaining = s.TotalLimit - s.TotalSpent
	return s
}
