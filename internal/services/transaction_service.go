// Package services orchestrates writes across the canonical store and the
// async mirror pipeline.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"finboard/internal/core"
	"finboard/internal/ledger"
)

// RecordedPublisher announces a persisted transaction to the mirror worker.
// Satisfied by *amqp.Client.
type RecordedPublisher interface {
	PublishTransactionRecorded(ctx context.Context, transactionID string) error
	Close() error
}

// TransactionService appends to the canonical store and then notifies the
// mirror pipeline. It implements ledger.Store, so callers that only need
// persistence see no difference.
type TransactionService struct {
	store     ledger.Store
	publisher RecordedPublisher
}

func NewTransactionService(store ledger.Store, publisher RecordedPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
	}
}

// Append persists tx, then publishes a recorded notification. Publish
// failures are logged and swallowed: the canonical store already holds the
// record and the worker's reconcile pass will catch up.
func (s *TransactionService) Append(ctx context.Context, tx core.Transaction) error {
	if err := s.store.Append(ctx, tx); err != nil {
		return fmt.Errorf("save transaction: %w", err)
	}

	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishTransactionRecorded(ctx, tx.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish recorded message",
			"transaction_id", tx.ID, "error", err)
	}
	return nil
}

func (s *TransactionService) LoadAll(ctx context.Context) ([]core.Transaction, error) {
	return s.store.LoadAll(ctx)
}

// Close releases the publisher connection. The underlying store is owned by
// whoever built it.
func (s *TransactionService) Close() error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Close(); err != nil {
		return fmt.Errorf("close publisher: %w", err)
	}
	return nil
}
