// Package ledger defines the persistence ports for recorded transactions.
// Implementations live in subpackages and in internal/storage.
package ledger

import (
	"context"

	"finboard/internal/core"
)

// TransactionLoader reads the full transaction history.
type TransactionLoader interface {
	LoadAll(ctx context.Context) ([]core.Transaction, error)
}

// TransactionAppender persists one validated transaction. Implementations
// never modify or remove existing records.
type TransactionAppender interface {
	Append(ctx context.Context, tx core.Transaction) error
}

// Store combines loading and appending.
type Store interface {
	TransactionLoader
	TransactionAppender
}
