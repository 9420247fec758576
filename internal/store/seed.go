package store

import (
	"context"

	"finguard/internal/core"
	"finguard/internal/engine"
)

// SeedDemo populates the store with starter budgets and goals when the
// matching collections are empty. It is opt-in and never touches
// collections that already have records.
func (s *Store) SeedDemo(ctx context.Context, month string) error {
	s.mu.Lock()
	seedBudgets := len(s.budgets) == 0
	seedGoals := len(s.goals) == 0
	s.mu.Unlock()

	if seedBudgets {
		demo := []struct {
			category     string
			limit, spent float64
		}{
			{"Housing", 1900, 1800},
			{"Food", 600, 541.2},
			{"Transportation", 350, 298.45},
			{"Entertainment", 300, 320.5},
			{"Utilities", 250, 185.3},
			{"Healthcare", 200, 125},
		}
		for _, d := range demo {
			spent := d.spent
			if _, err := s.UpsertBudget(ctx, d.category, month, d.limit, &spent); err != nil {
				return err
			}
		}
	}

	if seedGoals {
		demo := []core.Goal{
			{Name: "New Laptop", Target: 120000, Saved: 45000, Months: 6, Color: "#6366f1", Icon: "fa-laptop"},
			{Name: "Emergency Fund", Target: 300000, Saved: 180000, Months: 12, Color: "#10b981", Icon: "fa-shield-halved"},
			{Name: "Vacation", Target: 80000, Saved: 20000, Months: 8, Color: "#f59e0b", Icon: "fa-plane"},
		}
		for _, g := range demo {
			if _, err := s.UpsertGoal(ctx, g); err != nil {
				return err
			}
		}
	}

	return nil
}

// ImportJSON replaces the full store state with a previously exported
// snapshot. Each collection is validated before anything is committed;
// a bad import leaves the store untouched.
func (s *Store) ImportJSON(ctx context.Context, data []byte) error {
	snap, err := engine.SnapshotFromJSON(data)
	if err != nil {
		return err
	}
	for _, t := range snap.Transactions {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	for _, b := range snap.Budgets {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	for _, g := range snap.Goals {
		if err := g.Validate(); err != nil {
			return err
		}
	}
	if snap.Plan != nil {
		if err := snap.Plan.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = snap.Transactions
	s.budgets = snap.Budgets
	s.goals = snap.Goals
	s.plan = snap.Plan
	s.tax = snap.Tax
	if snap.Currency != "" {
		s.currency = snap.Currency
	}

	s.lastID = 0
	for _, t := range s.transactions {
		if t.ID > s.lastID {
			s.lastID = t.ID
		}
	}
	for _, b := range s.budgets {
		if b.ID > s.lastID {
			s.lastID = b.ID
		}
	}
	for _, g := range s.goals {
		if g.ID > s.lastID {
			s.lastID = g.ID
		}
	}

	if err := s.persist(ctx, keyTransactions, s.transactions); err != nil {
		return err
	}
	if err := s.persist(ctx, keyBudgets, s.budgets); err != nil {
		return err
	}
	if err := s.persist(ctx, keyGoals, s.goals); err != nil {
		return err
	}
	if err := s.persist(ctx, keyPlan, s.plan); err != nil {
		return err
	}
	if err := s.persist(ctx, keyTax, s.tax); err != nil {
		return err
	}
	if err := s.persist(ctx, keyCurrency, s.currency); err != nil {
		return err
	}

	s.notify(ctx, CollectionSettings, OpImport, 0)
	return nil
}

// OpImport marks a full-state replacement on the change feed.
const OpImport = "import"
