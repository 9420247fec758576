// Package engine recomputes every derived dashboard figure from the
// current record collections. All functions are pure: they take the full
// collections plus "now" and return plain data, mutating nothing. There
// is no caching; callers recompute on every read.
package engine

import (
	"fmt"
	"time"

	"finguard/internal/core"
)

// MonthTotals is the income/expense partition for a single month bucket.
type MonthTotals struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// Net returns the signed difference between income and expense.
func (m MonthTotals) Net() float64 {
	return m.Income - m.Expense
}

// MonthKeyOf buckets an instant into its YYYY-MM key.
func MonthKeyOf(t time.Time) string {
	return core.Date{Time: t}.MonthKey()
}

// ComputeMonthTotals sums transaction amounts per type for the bucket
// matching now.
func ComputeMonthTotals(txns []core.Transaction, now time.Time) MonthTotals {
	totals := MonthTotals{Month: MonthKeyOf(now)}
	for _, t := range txns {
		if t.Date.MonthKey() != totals.Month {
			continue
		}
		switch t.Type {
		case core.Income:
			totals.Income += t.Amount
		default:
			totals.Expense += t.Amount
		}
	}
	return totals
}

// CashflowNote renders the dashboard cash-flow message. A month with no
// activity at all gets a neutral starter message instead of a zero delta.
func CashflowNote(totals MonthTotals, currency string) string {
	if totals.Income == 0 && totals.Expense == 0 {
		return "You're just getting started."
	}
	diff := totals.Net()
	if diff >= 0 {
		return fmt.Sprintf("You are saving %s%.0f this month.", currency, diff)
	}
	return fmt.Sprintf("You are overspending %s%.0f this month.", currency, -diff)
}

// NetWorth is the cumulative all-time income minus expense, independent
// of month bucketing and of transaction order.
func NetWorth(txns []core.Transaction) float64 {
	var income, expense float64
	for _, t := range txns {
		if t.Type == core.Income {
			income += t.Amount
		} else {
			expense += t.Amount
		}
	}
	return income - expense
}
