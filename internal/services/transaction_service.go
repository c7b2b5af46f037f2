package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brianschroeder/finance-tracker-sub001/internal/core"
)

// TransactionStore is the slice of the repository the transaction service
// writes through.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (int64, error)
	DeleteTransaction(ctx context.Context, id int64) error
	ListTransactions(ctx context.Context, start, end core.Date) ([]core.Transaction, error)
}

// ExportPublisher enqueues transactions for the async export worker.
type ExportPublisher interface {
	PublishTransactionExport(ctx context.Context, id int64) error
}

// TransactionService persists transactions and queues them for export.
type TransactionService struct {
	store     TransactionStore
	publisher ExportPublisher
}

func NewTransactionService(store TransactionStore, publisher ExportPublisher) *TransactionService {
	return &TransactionService{store: store, publisher: publisher}
}

// Create validates and saves a transaction, then publishes an export
// message. The local save is authoritative; a publish failure is logged and
// left for the worker's reconciler rather than failing the request.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, fmt.Errorf("validate transaction: %w", err)
	}

	id, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	if s.publisher == nil {
		slog.DebugContext(ctx, "Export publisher not configured, skipping export message", "id", id)
		return id, nil
	}
	if err := s.publisher.PublishTransactionExport(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			"id", id, "error", err)
	}

	return id, nil
}

// Delete removes a transaction by ID.
func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// List returns transactions within the inclusive date range.
func (s *TransactionService) List(ctx context.Context, start, end core.Date) ([]core.Transaction, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w (%s > %s)", core.ErrInvalidRange, start, end)
	}
	items, err := s.store.ListTransactions(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return items, nil
}
