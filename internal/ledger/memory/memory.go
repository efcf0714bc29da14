// Package memory provides an in-memory ledger store for tests and
// development runs.
package memory

import (
	"context"
	"sync"

	"finboard/internal/core"
)

// Store keeps transactions in a slice, in append order.
type Store struct {
	mu  sync.RWMutex
	txs []core.Transaction
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) LoadAll(ctx context.Context) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, len(s.txs))
	copy(out, s.txs)
	return out, nil
}

func (s *Store) Append(ctx context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, tx)
	return nil
}
