// Package worker drives the async export of transactions to the configured
// spreadsheet target.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brianschroeder/finance-tracker-sub001/internal/amqp"
	"github.com/brianschroeder/finance-tracker-sub001/internal/core"
	"github.com/brianschroeder/finance-tracker-sub001/internal/sheets"
	"github.com/brianschroeder/finance-tracker-sub001/internal/storage"
)

// Store is the repository slice the export worker needs.
type Store interface {
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]core.BudgetCategory, error)
	PendingExportTransactions(ctx context.Context, limit int) ([]storage.PendingExport, error)
	MarkExported(ctx context.Context, id int64) error
	MarkExportError(ctx context.Context, id int64) error
}

// ExportWorker consumes export messages and appends the referenced
// transactions to the export target, with a pull-based reconciler as backup
// for lost messages.
type ExportWorker struct {
	store     Store
	target    sheets.TransactionAppender
	batchSize int
}

func NewExportWorker(store Store, target sheets.TransactionAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		store:     store,
		target:    target,
		batchSize: batchSize,
	}
}

// HandleExportMessage processes a single export message from AMQP. A
// transaction deleted before the message arrived is acked and skipped.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.TransactionExportMessage) error {
	slog.InfoContext(ctx, "Processing export message", "id", msg.ID, "enqueued_at", msg.Timestamp)

	t, err := w.store.GetTransaction(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			slog.WarnContext(ctx, "Transaction gone before export, skipping", "id", msg.ID)
			return nil
		}
		return fmt.Errorf("get transaction %d: %w", msg.ID, err)
	}

	return w.export(ctx, t)
}

// ProcessPendingExports pushes out transactions still marked pending. This
// is the backup path for lost AMQP messages; it runs on an interval.
func (w *ExportWorker) ProcessPendingExports(ctx context.Context) error {
	return w.drainPending(ctx, w.batchSize)
}

// StartupCheck drains a larger pending backlog once at worker start, to
// recover from downtime.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	return w.drainPending(ctx, w.batchSize*5)
}

func (w *ExportWorker) drainPending(ctx context.Context, limit int) error {
	pending, err := w.store.PendingExportTransactions(ctx, limit)
	if err != nil {
		return fmt.Errorf("list pending exports: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	exported, failed := 0, 0
	for _, p := range pending {
		t, err := w.store.GetTransaction(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load pending transaction", "id", p.ID, "error", err)
			w.markError(ctx, p.ID)
			failed++
			continue
		}
		if err := w.export(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending transaction", "id", p.ID, "error", err)
			failed++
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Pending export pass completed",
		"total", len(pending), "exported", exported, "errors", failed)
	return nil
}

func (w *ExportWorker) export(ctx context.Context, t core.Transaction) error {
	categoryName, err := w.categoryName(ctx, t.CategoryID)
	if err != nil {
		slog.WarnContext(ctx, "Could not resolve category name", "id", t.ID, "category_id", t.CategoryID, "error", err)
	}

	ref, err := w.target.AppendTransaction(ctx, t, categoryName)
	if err != nil {
		w.markError(ctx, t.ID)
		return fmt.Errorf("append transaction %d: %w", t.ID, err)
	}

	if err := w.store.MarkExported(ctx, t.ID); err != nil {
		// The append went through; log but do not fail the message.
		slog.ErrorContext(ctx, "Failed to mark transaction exported", "id", t.ID, "error", err)
	}

	slog.InfoContext(ctx, "Transaction exported",
		"id", t.ID, "ref", ref, "description", t.Description, "amount", t.Amount.String())
	return nil
}

func (w *ExportWorker) categoryName(ctx context.Context, categoryID int64) (string, error) {
	if categoryID == 0 {
		return "Uncategorized", nil
	}
	categories, err := w.store.ListCategories(ctx, false)
	if err != nil {
		return "", err
	}
	for _, c := range categories {
		if c.ID == categoryID {
			return c.Name, nil
		}
	}
	return fmt.Sprintf("category:%d", categoryID), nil
}

func (w *ExportWorker) markError(ctx context.Context, id int64) {
	if err := w.store.MarkExportError(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark export error", "id", id, "error", err)
	}
}
