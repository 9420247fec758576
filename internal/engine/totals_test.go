package engine

import (
	"math/rand"
	"testing"
	"time"

	"finguard/internal/core"
)

var now = time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)

func txn(id int64, typ core.TxnType, cat string, amount float64, d core.Date) core.Transaction {
	return core.Transaction{ID: id, Type: typ, Category: cat, Amount: amount, Date: d}
}

func TestComputeMonthTotals(t *testing.T) {
	txns := []core.Transaction{
		txn(1, core.Income, "Salary", 50000, core.NewDate(2025, 2, 1)),
		txn(2, core.Expense, "Groceries", 3200, core.NewDate(2025, 2, 3)),
		txn(3, core.Expense, "Dining", 800, core.NewDate(2025, 2, 20)),
		txn(4, core.Expense, "Groceries", 999, core.NewDate(2025, 1, 30)), // previous month
		txn(5, core.Income, "Bonus", 10000, core.NewDate(2024, 2, 15)),    // previous year, same month number
	}
	got := ComputeMonthTotals(txns, now)
	if got.Month != "2025-02" {
		t.Fatalf("month key %q", got.Month)
	}
	if got.Income != 50000 || got.Expense != 4000 {
		t.Fatalf("totals = %+v", got)
	}
	if got.Net() != 46000 {
		t.Fatalf("net = %v", got.Net())
	}
}

func TestCashflowNote(t *testing.T) {
	if got := CashflowNote(MonthTotals{}, "₹"); got != "You're just getting started." {
		t.Fatalf("neutral note = %q", got)
	}
	if got := CashflowNote(MonthTotals{Income: 100, Expense: 40}, "₹"); got != "You are saving ₹60 this month." {
		t.Fatalf("saving note = %q", got)
	}
	if got := CashflowNote(MonthTotals{Income: 40, Expense: 100}, "₹"); got != "You are overspending ₹60 this month." {
		t.Fatalf("overspend note = %q", got)
	}
}

func TestNetWorthOrderIndependent(t *testing.T) {
	txns := []core.Transaction{
		txn(1, core.Income, "Salary", 1000, core.NewDate(2024, 1, 1)),
		txn(2, core.Expense, "Rent", 400, core.NewDate(2024, 6, 1)),
		txn(3, core.Income, "Gift", 50, core.NewDate(2025, 2, 1)),
		txn(4, core.Expense, "Dining", 75.5, core.NewDate(2025, 2, 2)),
	}
	want := 1000.0 - 400 + 50 - 75.5

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := append([]core.Transaction(nil), txns...)
		r.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		if got := NetWorth(shuffled); got != want {
			t.Fatalf("iteration %d: net worth %v, want %v", i, got, want)
		}
	}
}

func TestNetWorthEmpty(t *testing.T) {
	if got := NetWorth(nil); got != 0 {
		t.Fatalf("empty net worth = %v", got)
	}
}
