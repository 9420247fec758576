package engine

import (
	"testing"

	"finguard/internal/core"
)

func TestComputeCategoryBreakdown(t *testing.T) {
	txns := []core.Transaction{
		txn(1, core.Expense, "Groceries", 1200, core.NewDate(2025, 2, 3)),
		txn(2, core.Expense, "Dining", 800, core.NewDate(2025, 2, 5)),
		txn(3, core.Expense, "Groceries", 300, core.NewDate(2025, 2, 20)),
		txn(4, core.Income, "Salary", 50000, core.NewDate(2025, 2, 1)),  // income excluded
		txn(5, core.Expense, "Travel", 9000, core.NewDate(2025, 1, 10)), // other month excluded
	}
	got := ComputeCategoryBreakdown(txns, now)
	if len(got) != 2 {
		t.Fatalf("expected 2 categories, got %d: %+v", len(got), got)
	}
	if got[0].Category != "Groceries" || got[0].Amount != 1500 {
		t.Fatalf("top category = %+v", got[0])
	}
	if got[1].Category != "Dining" || got[1].Amount != 800 {
		t.Fatalf("second category = %+v", got[1])
	}
}

func TestCategoryBreakdownNoData(t *testing.T) {
	txns := []core.Transaction{
		txn(1, core.Income, "Salary", 50000, core.NewDate(2025, 2, 1)),
	}
	if got := ComputeCategoryBreakdown(txns, now); len(got) != 0 {
		t.Fatalf("expected empty breakdown, got %+v", got)
	}
}

func TestCategoryBreakdownTieBreak(t *testing.T) {
	txns := []core.Transaction{
		txn(1, core.Expense, "Zoo", 100, core.NewDate(2025, 2, 1)),
		txn(2, core.Expense, "Art", 100, core.NewDate(2025, 2, 2)),
	}
	got := ComputeCategoryBreakdown(txns, now)
	if got[0].Category != "Art" || got[1].Category != "Zoo" {
		t.Fatalf("tie break order = %+v", got)
	}
}
