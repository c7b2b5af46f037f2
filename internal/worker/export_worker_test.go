package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brianschroeder/finance-tracker-sub001/internal/amqp"
	"github.com/brianschroeder/finance-tracker-sub001/internal/core"
	"github.com/brianschroeder/finance-tracker-sub001/internal/sheets/memory"
	"github.com/brianschroeder/finance-tracker-sub001/internal/storage"
)

type fakeStore struct {
	transactions map[int64]core.Transaction
	categories   []core.BudgetCategory
	states       map[int64]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		transactions: make(map[int64]core.Transaction),
		states:       make(map[int64]string),
	}
}

func (f *fakeStore) add(t core.Transaction) {
	f.transactions[t.ID] = t
	f.states[t.ID] = "pending"
}

func (f *fakeStore) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	t, ok := f.transactions[id]
	if !ok {
		return core.Transaction{}, storage.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) ListCategories(ctx context.Context, activeOnly bool) ([]core.BudgetCategory, error) {
	return f.categories, nil
}

func (f *fakeStore) PendingExportTransactions(ctx context.Context, limit int) ([]storage.PendingExport, error) {
	var out []storage.PendingExport
	for id, state := range f.states {
		if state == "pending" {
			out = append(out, storage.PendingExport{ID: id, CreatedAt: time.Now()})
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) MarkExported(ctx context.Context, id int64) error {
	f.states[id] = "exported"
	return nil
}

func (f *fakeStore) MarkExportError(ctx context.Context, id int64) error {
	f.states[id] = "error"
	return nil
}

func tx(id, categoryID int64, desc string) core.Transaction {
	return core.Transaction{
		ID:          id,
		CategoryID:  categoryID,
		Date:        core.NewDate(2024, 2, 1),
		Description: desc,
		Amount:      decimal.NewFromInt(25),
	}
}

func TestHandleExportMessage(t *testing.T) {
	store := newFakeStore()
	store.categories = []core.BudgetCategory{{ID: 1, Name: "Groceries", Kind: core.KindBudget, IsActive: true}}
	store.add(tx(1, 1, "market"))
	target := memory.New()
	w := NewExportWorker(store, target, 10)

	msg := amqp.NewTransactionExportMessage(1)
	if err := w.HandleExportMessage(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := target.Rows()
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Category != "Groceries" {
		t.Fatalf("category = %q, want Groceries", rows[0].Category)
	}
	if store.states[1] != "exported" {
		t.Fatalf("state = %q, want exported", store.states[1])
	}
}

func TestHandleExportMessageMissingTransaction(t *testing.T) {
	w := NewExportWorker(newFakeStore(), memory.New(), 10)

	// A transaction deleted before the message arrives must be acked, not
	// requeued forever.
	msg := amqp.NewTransactionExportMessage(99)
	if err := w.HandleExportMessage(context.Background(), msg); err != nil {
		t.Fatalf("expected nil for missing transaction, got %v", err)
	}
}

func TestExportFailureMarksError(t *testing.T) {
	store := newFakeStore()
	store.add(tx(1, 0, "cash"))
	target := memory.New()
	target.Fail(errors.New("quota exceeded"))
	w := NewExportWorker(store, target, 10)

	msg := amqp.NewTransactionExportMessage(1)
	if err := w.HandleExportMessage(context.Background(), msg); err == nil {
		t.Fatalf("expected error from failing target")
	}
	if store.states[1] != "error" {
		t.Fatalf("state = %q, want error", store.states[1])
	}
}

func TestProcessPendingExports(t *testing.T) {
	store := newFakeStore()
	store.add(tx(1, 0, "one"))
	store.add(tx(2, 0, "two"))
	store.states[3] = "exported"
	target := memory.New()
	w := NewExportWorker(store, target, 10)

	if err := w.ProcessPendingExports(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(target.Rows()) != 2 {
		t.Fatalf("rows = %d, want 2", len(target.Rows()))
	}
	for _, id := range []int64{1, 2} {
		if store.states[id] != "exported" {
			t.Fatalf("state[%d] = %q, want exported", id, store.states[id])
		}
	}

	// Uncategorized rows carry the fallback name.
	if target.Rows()[0].Category != "Uncategorized" {
		t.Fatalf("category = %q", target.Rows()[0].Category)
	}
}
