// Package file implements the canonical ledger store: a single flat JSON
// file holding the full transaction history.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"finboard/internal/core"
	applog "finboard/internal/log"
)

// Store persists transactions in one JSON document. A process-local mutex
// serializes writers; cross-process locking is out of scope since a single
// process owns the file.
type Store struct {
	mu     sync.Mutex
	path   string
	logger *applog.Logger
}

// NewStore creates a file store at path. The file itself is created lazily
// on the first append.
func NewStore(path string, logger *applog.Logger) *Store {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentLedger)
	}
	return &Store{path: path, logger: logger}
}

// Path returns the location of the underlying JSON file.
func (s *Store) Path() string { return s.path }

// LoadAll reads the whole history in file order. A missing or unreadable
// file yields an empty history, never an error: the store starts fresh and
// the condition is only logged.
func (s *Store) LoadAll(ctx context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.readRecords(ctx)

	txs := make([]core.Transaction, 0, len(records))
	for i, rec := range records {
		tx, err := decodeTransaction(rec)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping undecodable record",
				applog.FieldDataFile, s.path,
				"record", i,
				applog.FieldError, err.Error())
			continue
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// Append adds one transaction to the end of the history. The rewritten file
// is staged in a temp file and renamed into place, so readers never observe
// a partial document.
func (s *Store) Append(ctx context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	records := s.readRecords(ctx)
	records = append(records, encodeTransaction(tx))

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding transactions: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".finance_data-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing data file: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction appended",
		applog.FieldTransactionID, tx.ID,
		applog.FieldDataFile, s.path,
		"total_records", len(records))
	return nil
}

// readRecords applies the lenient read policy. Callers hold the mutex.
func (s *Store) readRecords(ctx context.Context) []transactionRecord {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WarnContext(ctx, "Data file unreadable, starting fresh",
				applog.FieldDataFile, s.path,
				applog.FieldError, err.Error())
		}
		return nil
	}

	var records []transactionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.WarnContext(ctx, "Data file corrupt, starting fresh",
			applog.FieldDataFile, s.path,
			applog.FieldError, err.Error())
		return nil
	}
	return records
}
