// Package store owns the canonical record collections and their durable
// form. Every mutation validates at the boundary, writes through to the
// KV layer immediately, and announces the change on the optional
// notification feed. Reads hand out copies so aggregate computation can
// never mutate canonical state.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"finguard/internal/core"
	"finguard/internal/engine"
	"finguard/internal/storage"
)

// Durable keys. Each collection serializes independently; there is no
// shared schema version.
const (
	keyTransactions = "finguard_transactions"
	keyBudgets      = "finguard_budgets"
	keyGoals        = "finguard_goals"
	keyPlan         = "finguard_plan"
	keyTax          = "finguard_tax"
	keyCurrency     = "finguard_currency"
	keyProfile      = "finguard_profile"

	CollectionTransactions = "transactions"
	CollectionBudgets      = "budgets"
	CollectionGoals        = "goals"
	CollectionPlan         = "plan"
	CollectionTax          = "tax"
	CollectionSettings     = "settings"

	defaultCurrency = "₹"
)

// Notifier publishes record-change events. *amqp.Client satisfies it;
// a nil notifier disables the feed.
type Notifier interface {
	PublishRecordChange(ctx context.Context, collection, op string, id int64) error
}

// Store holds the in-memory collections for the active profile and keeps
// them in sync with the durable layer. Access is serialized by a mutex;
// the durable layer itself is last-write-wins.
type Store struct {
	mu       sync.Mutex
	kv       storage.KV
	notifier Notifier

	transactions []core.Transaction
	budgets      []core.Budget
	goals        []core.Goal
	plan         *core.AllocationPlan
	tax          *core.TaxSnapshot
	currency     string
	profile      map[string]any

	lastID int64
}

func New(kv storage.KV, notifier Notifier) *Store {
	return &Store{
		kv:       kv,
		notifier: notifier,
		currency: defaultCurrency,
	}
}

// SetDefaultCurrency overrides the built-in currency symbol without
// persisting it. Call before Load; a stored symbol still wins.
func (s *Store) SetDefaultCurrency(symbol string) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return
	}
	s.mu.Lock()
	s.currency = symbol
	s.mu.Unlock()
}

// Load reads every collection key from the durable layer. A missing key
// leaves the collection empty; a malformed value is logged and skipped so
// one corrupt key never takes the rest of the state down with it.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loadKey(ctx, s.kv, keyTransactions, &s.transactions)
	loadKey(ctx, s.kv, keyBudgets, &s.budgets)
	loadKey(ctx, s.kv, keyGoals, &s.goals)
	loadKey(ctx, s.kv, keyPlan, &s.plan)
	loadKey(ctx, s.kv, keyTax, &s.tax)
	loadKey(ctx, s.kv, keyProfile, &s.profile)

	var currency string
	loadKey(ctx, s.kv, keyCurrency, &currency)
	if currency != "" {
		s.currency = currency
	}

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

	slog.InfoContext(ctx, "Store loaded",
		"transactions", len(s.transactions),
		"budgets", len(s.budgets),
		"goals", len(s.goals),
		"has_plan", s.plan != nil,
		"has_tax", s.tax != nil)
}

func loadKey[T any](ctx context.Context, kv storage.KV, key string, dst *T) {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		if err != storage.ErrNotFound {
			slog.WarnContext(ctx, "Failed to read durable key", "key", key, "error", err)
		}
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// Fail soft: corrupt snapshots never crash the caller.
		slog.WarnContext(ctx, "Skipping malformed durable value", "key", key, "error", err)
	}
}

// nextID returns a time-derived identifier, bumped to stay strictly
// monotonic when two mutations land in the same millisecond.
func (s *Store) nextID() int64 {
	id := time.Now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *Store) persist(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

// notify publishes a change event. Publish failure is logged and never
// fails the mutation; the record is already durable.
func (s *Store) notify(ctx context.Context, collection, op string, id int64) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishRecordChange(ctx, collection, op, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish record change",
			"collection", collection, "op", op, "id", id, "error", err)
	}
}

// AddTransaction validates and appends a transaction. The input's ID is
// ignored; a fresh time-derived identifier is assigned.
func (s *Store) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.Category = strings.TrimSpace(t.Category)
	t.Note = strings.TrimSpace(t.Note)

	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = s.nextID()
	s.transactions = append(s.transactions, t)
	if err := s.persist(ctx, keyTransactions, s.transactions); err != nil {
		s.transactions = s.transactions[:len(s.transactions)-1]
		return core.Transaction{}, err
	}
	s.notify(ctx, CollectionTransactions, "create", t.ID)
	return t, nil
}

// DeleteTransaction removes exactly one transaction by id. Missing ids
// are a silent no-op.
func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.transactions {
		if t.ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			if err := s.persist(ctx, keyTransactions, s.transactions); err != nil {
				return err
			}
			s.notify(ctx, CollectionTransactions, "delete", id)
			return nil
		}
	}
	return nil
}

// UpsertBudget enforces the one-budget-per-(category, month) invariant.
// Limit is overwritten unconditionally; spent only when the caller
// actually supplied a value — a nil pointer means the field was left
// empty, never that it was zero.
func (s *Store) UpsertBudget(ctx context.Context, category, month string, limit float64, spent *float64) (core.Budget, error) {
	b := core.Budget{Category: strings.TrimSpace(category), Limit: limit, Month: month}
	if spent != nil {
		b.Spent = *spent
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.budgets {
		if s.budgets[i].Category == b.Category && s.budgets[i].Month == b.Month {
			s.budgets[i].Limit = limit
			if spent != nil {
				s.budgets[i].Spent = *spent
			}
			if err := s.persist(ctx, keyBudgets, s.budgets); err != nil {
				return core.Budget{}, err
			}
			s.notify(ctx, CollectionBudgets, "update", s.budgets[i].ID)
			return s.budgets[i], nil
		}
	}

	b.ID = s.nextID()
	s.budgets = append(s.budgets, b)
	if err := s.persist(ctx, keyBudgets, s.budgets); err != nil {
		s.budgets = s.budgets[:len(s.budgets)-1]
		return core.Budget{}, err
	}
	s.notify(ctx, CollectionBudgets, "create", b.ID)
	return b, nil
}

// DeleteBudget removes a budget by id; silent no-op when missing.
func (s *Store) DeleteBudget(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, b := range s.budgets {
		if b.ID == id {
			s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
			if err := s.persist(ctx, keyBudgets, s.budgets); err != nil {
				return err
			}
			s.notify(ctx, CollectionBudgets, "delete", id)
			return nil
		}
	}
	return nil
}

// UpsertGoal creates the goal when its ID is zero, otherwise overwrites
// every field of the matching record. Goals are keyed by surrogate id;
// names may collide or be edited freely.
func (s *Store) UpsertGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.Name = strings.TrimSpace(g.Name)
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if g.ID != 0 {
		for i := range s.goals {
			if s.goals[i].ID == g.ID {
				s.goals[i] = g
				if err := s.persist(ctx, keyGoals, s.goals); err != nil {
					return core.Goal{}, err
				}
				s.notify(ctx, CollectionGoals, "update", g.ID)
				return g, nil
			}
		}
	}

	g.ID = s.nextID()
	s.goals = append(s.goals, g)
	if err := s.persist(ctx, keyGoals, s.goals); err != nil {
		s.goals = s.goals[:len(s.goals)-1]
		return core.Goal{}, err
	}
	s.notify(ctx, CollectionGoals, "create", g.ID)
	return g, nil
}

// DeleteGoal removes a goal by id; silent no-op when missing.
func (s *Store) DeleteGoal(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, g := range s.goals {
		if g.ID == id {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			if err := s.persist(ctx, keyGoals, s.goals); err != nil {
				return err
			}
			s.notify(ctx, CollectionGoals, "delete", id)
			return nil
		}
	}
	return nil
}

// SetPlan replaces the allocation plan. Unbalanced splits are rejected
// before any state changes.
func (s *Store) SetPlan(ctx context.Context, p core.AllocationPlan) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.plan
	s.plan = &p
	if err := s.persist(ctx, keyPlan, s.plan); err != nil {
		s.plan = prev
		return err
	}
	s.notify(ctx, CollectionPlan, "update", 0)
	return nil
}

// SetTax fully replaces the tax snapshot; it is never partially updated.
func (s *Store) SetTax(ctx context.Context, snap core.TaxSnapshot) error {
	if err := snap.Regime.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.tax
	s.tax = &snap
	if err := s.persist(ctx, keyTax, s.tax); err != nil {
		s.tax = prev
		return err
	}
	s.notify(ctx, CollectionTax, "update", 0)
	return nil
}

// SetCurrency updates the display currency symbol.
func (s *Store) SetCurrency(ctx context.Context, symbol string) error {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return core.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.currency
	s.currency = symbol
	if err := s.persist(ctx, keyCurrency, s.currency); err != nil {
		s.currency = prev
		return err
	}
	s.notify(ctx, CollectionSettings, "update", 0)
	return nil
}

// SetProfile caches the remote profile document locally.
func (s *Store) SetProfile(ctx context.Context, doc map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profile = doc
	return s.persist(ctx, keyProfile, s.profile)
}

// Profile returns the cached profile document, or nil.
func (s *Store) Profile() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil
	}
	out := make(map[string]any, len(s.profile))
	for k, v := range s.profile {
		out[k] = v
	}
	return out
}

// Snapshot returns a deep copy of every collection for aggregate
// computation. Two snapshots of an unchanged store are identical.
func (s *Store) Snapshot() engine.StoreSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := engine.StoreSnapshot{
		Transactions: append([]core.Transaction(nil), s.transactions...),
		Budgets:      append([]core.Budget(nil), s.budgets...),
		Goals:        append([]core.Goal(nil), s.goals...),
		Currency:     s.currency,
	}
	if s.plan != nil {
		plan := *s.plan
		snap.Plan = &plan
	}
	if s.tax != nil {
		tax := *s.tax
		snap.Tax = &tax
	}
	return snap
}

// Currency returns the active currency symbol.
func (s *Store) Currency() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currency
}
