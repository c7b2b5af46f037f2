package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/brianschroeder/finance-tracker-sub001/internal/core"
	"github.com/brianschroeder/finance-tracker-sub001/internal/services"
	"github.com/brianschroeder/finance-tracker-sub001/internal/storage"
)

// memStore is an in-memory stand-in for the SQLite repository, implementing
// the store interfaces the services and server consume.
type memStore struct {
	settings     *core.PaySettings
	categories   []core.BudgetCategory
	transactions []core.Transaction
	nextCatID    int64
	nextTxID     int64
}

func (m *memStore) GetPaySettings(ctx context.Context) (core.PaySettings, error) {
	if m.settings == nil {
		return core.PaySettings{}, storage.ErrNotFound
	}
	return *m.settings, nil
}

func (m *memStore) SavePaySettings(ctx context.Context, s core.PaySettings) error {
	m.settings = &s
	return nil
}

func (m *memStore) CreateCategory(ctx context.Context, c core.BudgetCategory) (int64, error) {
	m.nextCatID++
	c.ID = m.nextCatID
	m.categories = append(m.categories, c)
	return c.ID, nil
}

func (m *memStore) UpdateCategory(ctx context.Context, c core.BudgetCategory) error {
	for i := range m.categories {
		if m.categories[i].ID == c.ID {
			m.categories[i] = c
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memStore) ListCategories(ctx context.Context, activeOnly bool) ([]core.BudgetCategory, error) {
	var out []core.BudgetCategory
	for _, c := range m.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) DeleteCategory(ctx context.Context, id int64) error {
	for i, c := range m.categories {
		if c.ID == id {
			m.categories = append(m.categories[:i], m.categories[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memStore) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	m.nextTxID++
	t.ID = m.nextTxID
	m.transactions = append(m.transactions, t)
	return t.ID, nil
}

func (m *memStore) ListTransactions(ctx context.Context, start, end core.Date) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range m.transactions {
		if !t.Date.Before(start) && !t.Date.After(end) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) DeleteTransaction(ctx context.Context, id int64) error {
	for i, t := range m.transactions {
		if t.ID == id {
			m.transactions = append(m.transactions[:i], m.transactions[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func newTestServer(t *testing.T, store *memStore) *Server {
	t.Helper()
	srv := NewServer(":0",
		services.NewBudgetService(store),
		services.NewTransactionService(store, nil),
		store)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, &memStore{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != 200 {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestPaySettingsEndpoints(t *testing.T) {
	srv := newTestServer(t, &memStore{})

	// Unconfigured: defaults to today's date as anchor, biweekly.
	rr := do(t, srv, http.MethodGet, "/api/pay-settings?today=2024-02-01", "")
	if rr.Code != 200 {
		t.Fatalf("GET status=%d body=%s", rr.Code, rr.Body.String())
	}
	got := decode[core.PaySettings](t, rr)
	if !got.LastPayDate.Equal(core.NewDate(2024, 2, 1)) || got.Frequency != core.Biweekly {
		t.Fatalf("default settings = %+v", got)
	}

	rr = do(t, srv, http.MethodPut, "/api/pay-settings", `{"lastPayDate":"2024-01-05","frequency":"biweekly"}`)
	if rr.Code != 200 {
		t.Fatalf("PUT status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodPut, "/api/pay-settings", `{"lastPayDate":"2024-01-05","frequency":"quarterly"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid frequency status=%d, want 400", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, "/api/pay-settings/missed-payday?today=2024-02-01", "")
	if rr.Code != 200 {
		t.Fatalf("missed-payday status=%d", rr.Code)
	}
	missed := decode[missedPaydayResponse](t, rr)
	if !missed.MissedPayday {
		t.Fatalf("expected missed payday, got %+v", missed)
	}
	if !missed.NextPayDate.Equal(core.NewDate(2024, 1, 19)) {
		t.Fatalf("nextPayDate = %v, want 2024-01-19", missed.NextPayDate)
	}

	rr = do(t, srv, http.MethodPost, "/api/pay-settings/advance?today=2024-02-01", "")
	if rr.Code != 200 {
		t.Fatalf("advance status=%d", rr.Code)
	}
	advanced := decode[core.PaySettings](t, rr)
	if !advanced.LastPayDate.Equal(core.NewDate(2024, 1, 19)) {
		t.Fatalf("advanced anchor = %v, want 2024-01-19", advanced.LastPayDate)
	}
}

func TestCategoryEndpoints(t *testing.T) {
	srv := newTestServer(t, &memStore{})

	rr := do(t, srv, http.MethodPost, "/api/categories", `{"name":"Groceries","monthlyAllocated":"400"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decode[categoryResponse](t, rr)
	if created.ID == 0 || created.Kind != "budget" || !created.IsActive {
		t.Fatalf("created = %+v", created)
	}
	if created.Color != defaultCategoryColor {
		t.Fatalf("color = %q, want default", created.Color)
	}

	rr = do(t, srv, http.MethodPost, "/api/categories", `{"name":""}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty name status=%d, want 422", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/api/categories", `not json`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad body status=%d, want 400", rr.Code)
	}

	rr = do(t, srv, http.MethodPut, "/api/categories/1", `{"name":"Food","monthlyAllocated":"450","isActive":true}`)
	if rr.Code != 200 {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, "/api/categories", "")
	list := decode[[]categoryResponse](t, rr)
	if len(list) != 1 || list[0].Name != "Food" {
		t.Fatalf("list = %+v", list)
	}

	rr = do(t, srv, http.MethodDelete, "/api/categories/1", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	rr = do(t, srv, http.MethodDelete, "/api/categories/1", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("delete missing status=%d, want 404", rr.Code)
	}
}

func TestTransactionEndpoints(t *testing.T) {
	srv := newTestServer(t, &memStore{})

	rr := do(t, srv, http.MethodPost, "/api/transactions",
		`{"categoryId":1,"date":"2024-02-01","description":"coffee","amount":"4.50","pending":true,"tipAmount":"1.00"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decode[transactionResponse](t, rr)
	if created.ID == 0 || created.Amount != "4.5" {
		t.Fatalf("created = %+v", created)
	}

	rr = do(t, srv, http.MethodPost, "/api/transactions", `{"date":"2024-02-01","amount":"5"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing description status=%d, want 422", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, "/api/transactions?start=2024-02-01&end=2024-02-29", "")
	if rr.Code != 200 {
		t.Fatalf("list status=%d", rr.Code)
	}
	list := decode[[]transactionResponse](t, rr)
	if len(list) != 1 {
		t.Fatalf("list len = %d, want 1", len(list))
	}

	rr = do(t, srv, http.MethodGet, "/api/transactions?start=2024-02-29", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing end status=%d, want 400", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, "/api/transactions?start=2024-02-29&end=2024-02-01", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("backwards range status=%d, want 400", rr.Code)
	}

	rr = do(t, srv, http.MethodDelete, "/api/transactions/1", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
}

func TestBudgetSummaryEndpoint(t *testing.T) {
	store := &memStore{
		settings: &core.PaySettings{
			LastPayDate: core.NewDate(2024, 1, 5),
			Frequency:   core.Biweekly,
		},
		categories: []core.BudgetCategory{
			{ID: 1, Name: "Groceries", MonthlyAllocated: decimal.NewFromInt(1000), Color: "#fff", IsActive: true, Kind: core.KindBudget},
		},
		nextCatID: 1,
	}
	store.transactions = []core.Transaction{
		{ID: 1, CategoryID: 1, Date: core.NewDate(2024, 1, 20), Description: "market", Amount: decimal.NewFromInt(100), CashBack: decimal.NewFromInt(10), CashbackPosted: true},
	}
	store.nextTxID = 1
	srv := newTestServer(t, store)

	rr := do(t, srv, http.MethodGet, "/api/budget-summary?periodType=biweekly&today=2024-02-01", "")
	if rr.Code != 200 {
		t.Fatalf("summary status=%d body=%s", rr.Code, rr.Body.String())
	}
	sum := decode[summaryResponse](t, rr)
	if sum.StartDate.String() != "2024-01-19" || sum.EndDate.String() != "2024-02-01" {
		t.Fatalf("period = %s..%s", sum.StartDate, sum.EndDate)
	}
	if sum.DaysInPeriod != 14 {
		t.Fatalf("daysInPeriod = %d", sum.DaysInPeriod)
	}
	if len(sum.Categories) != 1 {
		t.Fatalf("categories = %+v", sum.Categories)
	}
	c := sum.Categories[0]
	if c.AllocatedAmount != "500" {
		t.Fatalf("allocated = %s, want 500", c.AllocatedAmount)
	}
	if c.Spent != "90" || c.Remaining != "410" {
		t.Fatalf("spent=%s remaining=%s", c.Spent, c.Remaining)
	}

	rr = do(t, srv, http.MethodGet, "/api/budget-summary?periodType=quarterly&today=2024-02-01", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid periodType status=%d, want 400", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, "/api/budget-summary?periodType=custom&today=2024-02-01", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("custom without range status=%d, want 400", rr.Code)
	}
}

func TestSummaryCachePurgedOnWrite(t *testing.T) {
	store := &memStore{
		settings: &core.PaySettings{
			LastPayDate: core.NewDate(2024, 1, 5),
			Frequency:   core.Biweekly,
		},
		categories: []core.BudgetCategory{
			{ID: 1, Name: "Groceries", MonthlyAllocated: decimal.NewFromInt(1000), IsActive: true, Kind: core.KindBudget},
		},
		nextCatID: 1,
	}
	srv := newTestServer(t, store)
	target := "/api/budget-summary?periodType=biweekly&today=2024-02-01"

	first := decode[summaryResponse](t, do(t, srv, http.MethodGet, target, ""))
	if first.Categories[0].Spent != "0" {
		t.Fatalf("initial spent = %s", first.Categories[0].Spent)
	}

	rr := do(t, srv, http.MethodPost, "/api/transactions",
		`{"categoryId":1,"date":"2024-01-25","description":"market","amount":"40"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d", rr.Code)
	}

	second := decode[summaryResponse](t, do(t, srv, http.MethodGet, target, ""))
	if second.Categories[0].Spent != "40" {
		t.Fatalf("spent after write = %s, want 40 (stale cache?)", second.Categories[0].Spent)
	}
}
