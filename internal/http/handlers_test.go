package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"finguard/internal/core"
	"finguard/internal/engine"
	applog "finguard/internal/log"
	"finguard/internal/profile"
	"finguard/internal/storage"
	"finguard/internal/store"
)

func newTestServer(t *testing.T, profiles *profile.Client) *Server {
	t.Helper()
	st := store.New(storage.NewMemoryKV(), nil)
	logger := applog.New(applog.DefaultConfig()).WithComponent("http-test")
	return NewServer(":0", st, profiles, t.TempDir(), logger)
}

func doForm(t *testing.T, s *Server, method, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func doGet(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rec.Body.String())
	}
	return v
}

func TestCreateAndListTransactions(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doForm(t, s, http.MethodPost, "/transactions", url.Values{
		"type":     {"expense"},
		"category": {"Food"},
		"amount":   {"541.20"},
		"date":     {"2025-02-10"},
		"note":     {"groceries"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	created := decode[core.Transaction](t, rec)
	if created.ID == 0 || created.Amount != 541.20 || created.Type != core.Expense {
		t.Fatalf("created = %+v", created)
	}

	rec = doGet(t, s, "/transactions?month=2025-02")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	listed := decode[[]core.Transaction](t, rec)
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("listed = %+v", listed)
	}

	// Filters that match nothing return an empty list, not an error.
	rec = doGet(t, s, "/transactions?month=2030-01")
	if got := decode[[]core.Transaction](t, rec); len(got) != 0 {
		t.Fatalf("expected empty list, got %+v", got)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name string
		form url.Values
	}{
		{"zero amount", url.Values{"type": {"expense"}, "category": {"Food"}, "amount": {"0"}, "date": {"2025-02-10"}}},
		{"negative amount", url.Values{"type": {"expense"}, "category": {"Food"}, "amount": {"-5"}, "date": {"2025-02-10"}}},
		{"bad type", url.Values{"type": {"transfer"}, "category": {"Food"}, "amount": {"5"}, "date": {"2025-02-10"}}},
		{"empty category", url.Values{"type": {"expense"}, "category": {""}, "amount": {"5"}, "date": {"2025-02-10"}}},
		{"bad date", url.Values{"type": {"expense"}, "category": {"Food"}, "amount": {"5"}, "date": {"02/10/2025"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doForm(t, s, http.MethodPost, "/transactions", tt.form)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422 (body: %s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestDeleteTransactionIsNoOpWhenMissing(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodDelete, "/transactions/12345", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/transactions/not-a-number", nil)
	rec = httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestBudgetUpsertAndSummary(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doForm(t, s, http.MethodPost, "/budgets", url.Values{
		"category": {"Food"},
		"month":    {"2025-02"},
		"limit":    {"600"},
		"spent":    {"541.2"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	b := decode[core.Budget](t, rec)
	if b.ID == 0 || b.Limit != 600 {
		t.Fatalf("budget = %+v", b)
	}

	// Update with blank spent keeps the stored value.
	rec = doForm(t, s, http.MethodPost, "/budgets", url.Values{
		"category": {"Food"},
		"month":    {"2025-02"},
		"limit":    {"700"},
	})
	updated := decode[core.Budget](t, rec)
	if updated.ID != b.ID || updated.Limit != 700 || updated.Spent != 541.2 {
		t.Fatalf("updated = %+v", updated)
	}

	rec = doGet(t, s, "/budgets?month=2025-02")
	summary := decode[engine.BudgetSummary](t, rec)
	if len(summary.Cards) != 1 || summary.TotalLimit != 700 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.Cards[0].Tier != engine.TierWarning {
		t.Fatalf("tier = %s (541.2/700 is above 75%%)", summary.Cards[0].Tier)
	}

	rec = doGet(t, s, "/budgets?month=13-2025")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad month status = %d", rec.Code)
	}
}

func TestPlanEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doForm(t, s, http.MethodPost, "/plan", url.Values{
		"month": {"2025-02"}, "total": {"50000"},
		"essential": {"50"}, "wants": {"30"}, "invest": {"19"},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unbalanced plan status = %d", rec.Code)
	}

	rec = doForm(t, s, http.MethodPost, "/plan", url.Values{
		"month": {"2025-02"}, "total": {"50000"},
		"essential": {"50"}, "wants": {"30"}, "invest": {"20"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doGet(t, s, "/plan")
	resp := decode[struct {
		Plan        *core.AllocationPlan   `json:"plan"`
		Utilization engine.PlanUtilization `json:"utilization"`
	}](t, rec)
	if resp.Plan == nil || resp.Plan.Invest != 20 {
		t.Fatalf("plan = %+v", resp.Plan)
	}
	if resp.Utilization.Month != "2025-02" || resp.Utilization.Tier != engine.TierOK {
		t.Fatalf("utilization = %+v", resp.Utilization)
	}
}

func TestTaxEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doGet(t, s, "/tax")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("empty tax status = %d", rec.Code)
	}

	rec = doForm(t, s, http.MethodPost, "/tax", url.Values{
		"income": {"875000"},
		"regime": {"new"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decode[struct {
		Snapshot   core.TaxSnapshot        `json:"snapshot"`
		Comparison engine.RegimeComparison `json:"comparison"`
	}](t, rec)
	// 875000 - 75000 standard deduction = 800000 taxable, slab tax 20000.
	if resp.Snapshot.Taxable != 800000 || resp.Snapshot.Estimate != 20000 {
		t.Fatalf("snapshot = %+v", resp.Snapshot)
	}
	if resp.Comparison.OldTaxable != 825000 {
		t.Fatalf("comparison = %+v", resp.Comparison)
	}

	rec = doGet(t, s, "/tax")
	stored := decode[core.TaxSnapshot](t, rec)
	if stored.Estimate != 20000 {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestGoalEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doForm(t, s, http.MethodPost, "/goals", url.Values{
		"name":   {"New Laptop"},
		"target": {"60000"},
		"saved":  {"0"},
		"months": {"6"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	sched := decode[engine.GoalSchedule](t, rec)
	if sched.Monthly != 10000 || sched.Progress != 0 {
		t.Fatalf("schedule = %+v", sched)
	}

	rec = doGet(t, s, "/goals")
	all := decode[[]engine.GoalSchedule](t, rec)
	if len(all) != 1 || all[0].Goal.Name != "New Laptop" {
		t.Fatalf("goals = %+v", all)
	}
}

func TestDashboardAndInsights(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doGet(t, s, "/insights")
	tips := decode[struct {
		Insights []string `json:"insights"`
	}](t, rec)
	if len(tips.Insights) != 1 || !strings.Contains(tips.Insights[0], "Add a few transactions") {
		t.Fatalf("placeholder insights = %+v", tips.Insights)
	}

	rec = doGet(t, s, "/dashboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", rec.Code)
	}
	dash := decode[map[string]any](t, rec)
	for _, key := range []string{"totals", "netWorth", "cashflowNote", "planUtilization", "currency"} {
		if _, ok := dash[key]; !ok {
			t.Fatalf("dashboard missing %q: %v", key, dash)
		}
	}
}

func TestExportAndImportRoundTrip(t *testing.T) {
	s := newTestServer(t, nil)

	doForm(t, s, http.MethodPost, "/transactions", url.Values{
		"type": {"income"}, "category": {"Salary"}, "amount": {"90000"}, "date": {"2025-02-01"},
	})

	rec := doGet(t, s, "/export/csv")
	if rec.Code != http.StatusOK {
		t.Fatalf("csv status = %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "Date,Type,Category,Amount,Note") {
		t.Fatalf("csv body = %q", rec.Body.String())
	}

	rec = doGet(t, s, "/export/json")
	dump, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}

	s2 := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/import/json", strings.NewReader(string(dump)))
	rec2 := httptest.NewRecorder()
	s2.Server.Handler.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusNoContent {
		t.Fatalf("import status = %d, body = %s", rec2.Code, rec2.Body.String())
	}

	rec2res := doGet(t, s2, "/transactions")
	restored := decode[[]core.Transaction](t, rec2res)
	if len(restored) != 1 || restored[0].Category != "Salary" {
		t.Fatalf("restored = %+v", restored)
	}
}

func TestProfileEndpoints(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if r.URL.Path == "/profiles/alice.json" {
				io.WriteString(w, `{"name":"Alice"}`)
				return
			}
			http.NotFound(w, r)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer remote.Close()

	s := newTestServer(t, profile.NewClient(remote.URL))

	rec := doGet(t, s, "/profile/alice")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	doc := decode[map[string]any](t, rec)
	if doc["name"] != "Alice" {
		t.Fatalf("doc = %v", doc)
	}

	rec = doGet(t, s, "/profile/ghost")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing profile status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPut, "/profile/alice", strings.NewReader(`{"theme":"dark"}`))
	rec2 := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusNoContent {
		t.Fatalf("put status = %d", rec2.Code)
	}
}

func TestProfileEndpointsWithoutService(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doGet(t, s, "/profile/alice")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	if rec := doGet(t, s, "/healthz"); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}
	if rec := doGet(t, s, "/readyz"); rec.Code != http.StatusOK || rec.Body.String() != "ready" {
		t.Fatalf("readyz = %d %q", rec.Code, rec.Body.String())
	}
}
