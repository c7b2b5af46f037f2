package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/brianschroeder/finance-tracker-sub001/internal/core"
	"github.com/brianschroeder/finance-tracker-sub001/internal/services"
)

const defaultCategoryColor = "#6b7280"

type missedPaydayResponse struct {
	MissedPayday bool      `json:"missedPayday"`
	NextPayDate  core.Date `json:"nextPayDate"`
}

type categoryResponse struct {
	ID               int64       `json:"id"`
	Name             string      `json:"name"`
	MonthlyAllocated json.Number `json:"monthlyAllocated"`
	Color            string      `json:"color"`
	IsActive         bool        `json:"isActive"`
	Kind             string      `json:"kind"`
}

type transactionResponse struct {
	ID                int64       `json:"id"`
	CategoryID        int64       `json:"categoryId"`
	Date              core.Date   `json:"date"`
	Description       string      `json:"description"`
	Amount            json.Number `json:"amount"`
	TipAmount         json.Number `json:"tipAmount"`
	CashBack          json.Number `json:"cashBack"`
	Pending           bool        `json:"pending"`
	CashbackPosted    bool        `json:"cashbackPosted"`
	CreditCardPending bool        `json:"creditCardPending"`
}

type categorySummaryResponse struct {
	ID                      int64       `json:"id"`
	Name                    string      `json:"name"`
	Color                   string      `json:"color"`
	FullMonthAmount         json.Number `json:"fullMonthAmount"`
	AllocatedAmount         json.Number `json:"allocatedAmount"`
	Spent                   json.Number `json:"spent"`
	AdjustedSpent           json.Number `json:"adjustedSpent"`
	Remaining               json.Number `json:"remaining"`
	CashBack                json.Number `json:"cashBack"`
	PendingTipAmount        json.Number `json:"pendingTipAmount"`
	PendingCashbackAmount   json.Number `json:"pendingCashbackAmount"`
	CreditCardPendingAmount json.Number `json:"creditCardPendingAmount"`
}

type trackingSummaryResponse struct {
	Spent                   json.Number `json:"spent"`
	AdjustedSpent           json.Number `json:"adjustedSpent"`
	CashBack                json.Number `json:"cashBack"`
	PendingTipAmount        json.Number `json:"pendingTipAmount"`
	PendingCashbackAmount   json.Number `json:"pendingCashbackAmount"`
	CreditCardPendingAmount json.Number `json:"creditCardPendingAmount"`
}

type summaryTotalsResponse struct {
	TotalAllocated         json.Number `json:"totalAllocated"`
	TotalSpent             json.Number `json:"totalSpent"`
	TotalAdjustedSpent     json.Number `json:"totalAdjustedSpent"`
	TotalRemaining         json.Number `json:"totalRemaining"`
	TotalCashBack          json.Number `json:"totalCashBack"`
	TotalPendingTips       json.Number `json:"totalPendingTips"`
	TotalPendingCashback   json.Number `json:"totalPendingCashback"`
	TotalCreditCardPending json.Number `json:"totalCreditCardPending"`
}

type summaryResponse struct {
	PeriodType   string                    `json:"periodType"`
	StartDate    core.Date                 `json:"startDate"`
	EndDate      core.Date                 `json:"endDate"`
	DaysInPeriod int                       `json:"daysInPeriod"`
	Categories   []categorySummaryResponse `json:"categories"`
	Tracking     trackingSummaryResponse   `json:"tracking"`
	Totals       summaryTotalsResponse     `json:"totals"`
}

// todayParam reads the optional ?today=YYYY-MM-DD override, falling back to
// the wall clock. The override keeps responses reproducible in tests and
// lets clients in other timezones pin their local date.
func todayParam(r *http.Request) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get("today"))
	if v == "" {
		return core.Today(), nil
	}
	return core.ParseDate(v)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func (s *Server) handleGetPaySettings(w http.ResponseWriter, r *http.Request) {
	today, err := todayParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid today parameter, expected YYYY-MM-DD")
		return
	}
	settings, err := s.budget.Settings(r.Context(), today)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load pay settings", "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdatePaySettings(w http.ResponseWriter, r *http.Request) {
	var settings core.PaySettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.budget.UpdateSettings(r.Context(), settings); err != nil {
		slog.ErrorContext(r.Context(), "Failed to update pay settings", "error", err)
		writeDomainError(w, err)
		return
	}
	s.summaryCache.Purge()
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleMissedPayday(w http.ResponseWriter, r *http.Request) {
	today, err := todayParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid today parameter, expected YYYY-MM-DD")
		return
	}
	missed, next, err := s.budget.MissedPayday(r.Context(), today)
	if err != nil {
		slog.ErrorContext(r.Context(), "Missed payday check failed", "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, missedPaydayResponse{MissedPayday: missed, NextPayDate: next})
}

func (s *Server) handleAdvanceAnchor(w http.ResponseWriter, r *http.Request) {
	today, err := todayParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid today parameter, expected YYYY-MM-DD")
		return
	}
	settings, err := s.budget.AdvanceAnchor(r.Context(), today)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to advance pay anchor", "error", err)
		writeDomainError(w, err)
		return
	}
	s.summaryCache.Purge()
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"
	categories, err := s.categories.ListCategories(r.Context(), activeOnly)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list categories", "error", err)
		writeDomainError(w, err)
		return
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.BudgetCategory
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if c.Kind == "" {
		c.Kind = core.KindBudget
	}
	if c.Color == "" {
		c.Color = defaultCategoryColor
	}
	c.IsActive = true
	if err := c.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}
	id, err := s.categories.CreateCategory(r.Context(), c)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create category", "error", err, "name", c.Name)
		writeDomainError(w, err)
		return
	}
	c.ID = id
	s.summaryCache.Purge()
	writeJSON(w, http.StatusCreated, toCategoryResponse(c))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	var c core.BudgetCategory
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	c.ID = id
	if c.Kind == "" {
		c.Kind = core.KindBudget
	}
	if err := c.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.categories.UpdateCategory(r.Context(), c); err != nil {
		slog.ErrorContext(r.Context(), "Failed to update category", "error", err, "id", id)
		writeDomainError(w, err)
		return
	}
	s.summaryCache.Purge()
	writeJSON(w, http.StatusOK, toCategoryResponse(c))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	if err := s.categories.DeleteCategory(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete category", "error", err, "id", id)
		writeDomainError(w, err)
		return
	}
	s.summaryCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	start, err := core.ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing start parameter, expected YYYY-MM-DD")
		return
	}
	end, err := core.ParseDate(r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing end parameter, expected YYYY-MM-DD")
		return
	}
	items, err := s.transactions.List(r.Context(), start, end)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list transactions", "error", err)
		writeDomainError(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(items))
	for _, t := range items {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var t core.Transaction
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	id, err := s.transactions.Create(r.Context(), t)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create transaction", "error", err)
		writeDomainError(w, err)
		return
	}
	t.ID = id
	s.summaryCache.Purge()
	writeJSON(w, http.StatusCreated, toTransactionResponse(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	if err := s.transactions.Delete(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete transaction", "error", err, "id", id)
		writeDomainError(w, err)
		return
	}
	s.summaryCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudgetSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	periodType := core.PeriodType(q.Get("periodType"))
	if periodType == "" {
		periodType = core.PeriodMonth
	}

	today, err := todayParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid today parameter, expected YYYY-MM-DD")
		return
	}

	var custom *core.Period
	if periodType == core.PeriodCustom {
		start, err := core.ParseDate(q.Get("start"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "custom period requires start=YYYY-MM-DD")
			return
		}
		end, err := core.ParseDate(q.Get("end"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "custom period requires end=YYYY-MM-DD")
			return
		}
		custom = &core.Period{Start: start, End: end}
	}

	cacheKey := string(periodType) + "|" + q.Get("start") + "|" + q.Get("end") + "|" + today.String()
	if cached, ok := s.summaryCache.Get(cacheKey); ok {
		slog.DebugContext(r.Context(), "Summary cache hit", "period_type", string(periodType))
		writeJSON(w, http.StatusOK, cached)
		return
	}

	summary, err := s.budget.Summary(r.Context(), periodType, custom, today)
	if err != nil {
		slog.ErrorContext(r.Context(), "Budget summary failed", "error", err, "period_type", string(periodType))
		writeDomainError(w, err)
		return
	}

	resp := toSummaryResponse(summary)
	s.summaryCache.Set(cacheKey, resp)
	writeJSON(w, http.StatusOK, resp)
}

func toCategoryResponse(c core.BudgetCategory) categoryResponse {
	return categoryResponse{
		ID:               c.ID,
		Name:             c.Name,
		MonthlyAllocated: money(c.MonthlyAllocated),
		Color:            c.Color,
		IsActive:         c.IsActive,
		Kind:             string(c.Kind),
	}
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:                t.ID,
		CategoryID:        t.CategoryID,
		Date:              t.Date,
		Description:       t.Description,
		Amount:            money(t.Amount),
		TipAmount:         money(t.TipAmount),
		CashBack:          money(t.CashBack),
		Pending:           t.Pending,
		CashbackPosted:    t.CashbackPosted,
		CreditCardPending: t.CreditCardPending,
	}
}

func toSummaryResponse(s services.BudgetSummary) summaryResponse {
	categories := make([]categorySummaryResponse, 0, len(s.Categories))
	for _, r := range s.Categories {
		categories = append(categories, categorySummaryResponse{
			ID:                      r.Category.ID,
			Name:                    r.Category.Name,
			Color:                   r.Category.Color,
			FullMonthAmount:         money(r.FullMonth),
			AllocatedAmount:         money(r.Allocated),
			Spent:                   money(r.Figures.Spent),
			AdjustedSpent:           money(r.Figures.AdjustedSpent),
			Remaining:               money(r.Figures.Remaining),
			CashBack:                money(r.Spend.CashBack),
			PendingTipAmount:        money(r.Spend.PendingTip),
			PendingCashbackAmount:   money(r.Spend.PendingCashback),
			CreditCardPendingAmount: money(r.Spend.CreditCardPending),
		})
	}
	return summaryResponse{
		PeriodType:   string(s.PeriodType),
		StartDate:    s.Period.Start,
		EndDate:      s.Period.End,
		DaysInPeriod: s.DaysInPeriod,
		Categories:   categories,
		Tracking: trackingSummaryResponse{
			Spent:                   money(s.Tracking.Spent()),
			AdjustedSpent:           money(s.Tracking.AdjustedSpent()),
			CashBack:                money(s.Tracking.CashBack),
			PendingTipAmount:        money(s.Tracking.PendingTip),
			PendingCashbackAmount:   money(s.Tracking.PendingCashback),
			CreditCardPendingAmount: money(s.Tracking.CreditCardPending),
		},
		Totals: summaryTotalsResponse{
			TotalAllocated:         money(s.Totals.TotalAllocated),
			TotalSpent:             money(s.Totals.TotalSpent),
			TotalAdjustedSpent:     money(s.Totals.TotalAdjustedSpent),
			TotalRemaining:         money(s.Totals.TotalRemaining),
			TotalCashBack:          money(s.Totals.TotalCashBack),
			TotalPendingTips:       money(s.Totals.TotalPendingTips),
			TotalPendingCashback:   money(s.Totals.TotalPendingCashback),
			TotalCreditCardPending: money(s.Totals.TotalCreditCardPending),
		},
	}
}
