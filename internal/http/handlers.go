package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finguard/internal/core"
	"finguard/internal/engine"
	"finguard/internal/export"
	"finguard/internal/profile"
)

const maxImportBytes = 4 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
}

// --- transactions ---

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	amount, err := core.ParseAmount(r.Form.Get("amount"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	date := core.Date{Time: time.Now()}
	if v := strings.TrimSpace(r.Form.Get("date")); v != "" {
		date, err = core.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid date")
			return
		}
	}

	t := core.Transaction{
		Type:     core.TxnType(strings.TrimSpace(r.Form.Get("type"))),
		Category: sanitizeInput(r.Form.Get("category")),
		Amount:   amount,
		Date:     date,
		Note:     sanitizeInput(r.Form.Get("note")),
	}

	created, err := s.store.AddTransaction(r.Context(), t)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()

	month := strings.TrimSpace(r.URL.Query().Get("month"))
	typ := strings.TrimSpace(r.URL.Query().Get("type"))
	search := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))

	out := make([]core.Transaction, 0, len(snap.Transactions))
	for _, t := range snap.Transactions {
		if month != "" && t.Date.MonthKey() != month {
			continue
		}
		if typ != "" && string(t.Type) != typ {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Category), search) &&
			!strings.Contains(strings.ToLower(t.Note), search) {
			continue
		}
		out = append(out, t)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.store.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- dashboard ---

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	now := time.Now()

	totals := engine.ComputeMonthTotals(snap.Transactions, now)
	resp := struct {
		Totals       engine.MonthTotals     `json:"totals"`
		NetWorth     float64                `json:"netWorth"`
		CashflowNote string                 `json:"cashflowNote"`
		Breakdown    []engine.CategoryAmount `json:"breakdown"`
		Plan         engine.PlanUtilization `json:"planUtilization"`
		Tax          *core.TaxSnapshot      `json:"tax,omitempty"`
		Currency     string                 `json:"currency"`
	}{
		Totals:       totals,
		NetWorth:     engine.NetWorth(snap.Transactions),
		CashflowNote: engine.CashflowNote(totals, snap.Currency),
		Breakdown:    engine.ComputeCategoryBreakdown(snap.Transactions, now),
		Plan:         engine.ComputePlanUtilization(snap.Plan, snap.Transactions),
		Tax:          snap.Tax,
		Currency:     snap.Currency,
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- budgets ---

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	limit, err := core.ParseAmount(r.Form.Get("limit"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid limit")
		return
	}

	// An empty spent field preserves the stored value on update; zero is
	// an explicit reset.
	var spent *float64
	if v, present, perr := core.ParseOptionalAmount(r.Form.Get("spent")); perr != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid spent amount")
		return
	} else if present {
		spent = &v
	}

	month := strings.TrimSpace(r.Form.Get("month"))
	if month == "" {
		month = engine.MonthKeyOf(time.Now())
	}

	b, err := s.store.UpsertBudget(r.Context(), sanitizeInput(r.Form.Get("category")), month, limit, spent)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if month == "" {
		month = engine.MonthKeyOf(time.Now())
	}
	if !core.ValidMonthKey(month) {
		writeError(w, http.StatusUnprocessableEntity, "invalid month key")
		return
	}
	snap := s.store.Snapshot()
	writeJSON(w, http.StatusOK, engine.ComputeBudgetCards(snap.Budgets, month))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.store.DeleteBudget(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- allocation plan ---

func (s *Server) handleSetPlan(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	total, err := core.ParseAmount(r.Form.Get("total"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid total")
		return
	}

	month := strings.TrimSpace(r.Form.Get("month"))
	if month == "" {
		month = engine.MonthKeyOf(time.Now())
	}

	p := core.AllocationPlan{
		Month:     month,
		Total:     total,
		Essential: formInt(r, "essential"),
		Wants:     formInt(r, "wants"),
		Invest:    formInt(r, "invest"),
	}
	if err := s.store.SetPlan(r.Context(), p); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	snap := s.store.Snapshot()
	writeJSON(w, http.StatusOK, struct {
		Plan        *core.AllocationPlan   `json:"plan"`
		Utilization engine.PlanUtilization `json:"utilization"`
	}{snap.Plan, engine.ComputePlanUtilization(snap.Plan, snap.Transactions)})
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	writeJSON(w, http.StatusOK, struct {
		Plan        *core.AllocationPlan   `json:"plan"`
		Utilization engine.PlanUtilization `json:"utilization"`
	}{snap.Plan, engine.ComputePlanUtilization(snap.Plan, snap.Transactions)})
}

func formInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.Form.Get(key)))
	if err != nil {
		return 0
	}
	return v
}

// --- tax ---

func (s *Server) handleEstimateTax(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	income, err := core.ParseAmount(r.Form.Get("income"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid income")
		return
	}

	ded80c, _, err := core.ParseOptionalAmount(r.Form.Get("ded80c"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid 80C deduction")
		return
	}
	ded80d, _, err := core.ParseOptionalAmount(r.Form.Get("ded80d"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid 80D deduction")
		return
	}

	regime := core.TaxRegime(strings.TrimSpace(r.Form.Get("regime")))
	if regime == "" {
		regime = core.RegimeNew
	}
	if err := regime.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid tax regime")
		return
	}

	in := engine.TaxInput{Income: income, Ded80C: ded80c, Ded80D: ded80d, Regime: regime}
	snapTax := engine.NewTaxSnapshot(in)
	if err := s.store.SetTax(r.Context(), snapTax); err != nil {
		writeError(w, http.StatusInternalServerError, "persist failed")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Snapshot   core.TaxSnapshot        `json:"snapshot"`
		Comparison engine.RegimeComparison `json:"comparison"`
	}{snapTax, engine.CompareRegimes(in)})
}

func (s *Server) handleGetTax(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	if snap.Tax == nil {
		writeError(w, http.StatusNotFound, "no tax estimate submitted yet")
		return
	}
	writeJSON(w, http.StatusOK, snap.Tax)
}

// --- goals ---

func (s *Server) handleUpsertGoal(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	target, err := core.ParseAmount(r.Form.Get("target"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid target")
		return
	}
	saved, _, err := core.ParseOptionalAmount(r.Form.Get("saved"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid saved amount")
		return
	}

	g := core.Goal{
		Name:   sanitizeInput(r.Form.Get("name")),
		Target: target,
		Saved:  saved,
		Months: formInt(r, "months"),
		Color:  sanitizeInput(r.Form.Get("color")),
		Icon:   sanitizeInput(r.Form.Get("icon")),
	}
	if v := strings.TrimSpace(r.Form.Get("id")); v != "" {
		id, perr := parseID(v)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}
		g.ID = id
	}
	if v := strings.TrimSpace(r.Form.Get("date")); v != "" {
		d, perr := core.ParseDate(v)
		if perr != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid date")
			return
		}
		g.TargetDate = d
	}

	saved2, err := s.store.UpsertGoal(r.Context(), g)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, engine.ComputeGoalSchedule(saved2, time.Now()))
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	writeJSON(w, http.StatusOK, engine.ComputeGoalSchedules(snap.Goals, time.Now()))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.store.DeleteGoal(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- analytics and insights ---

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	now := time.Now()
	writeJSON(w, http.StatusOK, struct {
		Totals    engine.MonthTotals      `json:"totals"`
		Breakdown []engine.CategoryAmount `json:"breakdown"`
		Currency  string                  `json:"currency"`
	}{
		Totals:    engine.ComputeMonthTotals(snap.Transactions, now),
		Breakdown: engine.ComputeCategoryBreakdown(snap.Transactions, now),
		Currency:  snap.Currency,
	})
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	writeJSON(w, http.StatusOK, struct {
		Insights []string `json:"insights"`
	}{engine.ComputeInsights(snap, time.Now())})
}

// --- import/export ---

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()

	// ?save=1 writes a timestamped file server-side instead of streaming.
	if r.URL.Query().Get("save") != "" {
		path, err := export.ToJSON(snap, "finguard_backup", s.exportDir)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "export failed")
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Path string `json:"path"`
		}{path})
		return
	}

	dump, err := snap.ToJSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="finguard_backup.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(dump)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()

	if r.URL.Query().Get("save") != "" {
		path, err := export.TransactionsToCSV(snap.Transactions, "transactions", s.exportDir)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "export failed")
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Path string `json:"path"`
		}{path})
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	w.WriteHeader(http.StatusOK)

	writer := csv.NewWriter(w)
	_ = writer.Write(export.Header())
	for _, t := range snap.Transactions {
		_ = writer.Write(export.TransactionRecord(t))
	}
	writer.Flush()
}

func (s *Server) handleImportJSON(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if err := s.store.ImportJSON(r.Context(), body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- profiles ---

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	if s.profiles == nil {
		writeError(w, http.StatusServiceUnavailable, "profile service not configured")
		return
	}
	doc, err := s.profiles.Get(r.Context(), r.PathValue("name"))
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		writeError(w, http.StatusBadGateway, "profile service error")
		return
	}
	// Cache the last fetched document so the dashboard works offline.
	if err := s.store.SetProfile(r.Context(), doc); err != nil {
		s.logger.WarnContext(r.Context(), "Failed to cache profile", "error", err)
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	s.writeProfile(w, r, func(doc map[string]any) error {
		return s.profiles.Put(r.Context(), r.PathValue("name"), doc)
	})
}

func (s *Server) handlePatchProfile(w http.ResponseWriter, r *http.Request) {
	s.writeProfile(w, r, func(doc map[string]any) error {
		return s.profiles.Patch(r.Context(), r.PathValue("name"), doc)
	})
}

func (s *Server) writeProfile(w http.ResponseWriter, r *http.Request, write func(map[string]any) error) {
	if s.profiles == nil {
		writeError(w, http.StatusServiceUnavailable, "profile service not configured")
		return
	}
	var doc map[string]any
	if err := json.NewDecoder(io.LimitReader(r.Body, maxImportBytes)).Decode(&doc); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid profile document")
		return
	}
	if err := write(doc); err != nil {
		writeError(w, http.StatusBadGateway, "profile service error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
