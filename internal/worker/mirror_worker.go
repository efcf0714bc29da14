// Package worker keeps the SQLite and Google Sheets mirrors in sync with the
// canonical transaction store.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"finboard/internal/amqp"
	"finboard/internal/core"
	"finboard/internal/ledger"
)

// MirrorStore is the worker-side view of the SQLite mirror. Satisfied by
// *storage.SQLiteStore.
type MirrorStore interface {
	ledger.TransactionAppender
	Has(ctx context.Context, id string) (bool, error)
}

// SheetsAppender appends a transaction to the spreadsheet ledger. Satisfied
// by *sheets.Client.
type SheetsAppender interface {
	AppendTransaction(ctx context.Context, tx core.Transaction) error
}

// MirrorWorker copies recorded transactions from the canonical store into
// the mirrors. All operations are idempotent by transaction id, so lost or
// redelivered messages only cost extra work.
type MirrorWorker struct {
	source    ledger.TransactionLoader
	mirror    MirrorStore
	sheets    SheetsAppender
	batchSize int
}

func NewMirrorWorker(source ledger.TransactionLoader, mirror MirrorStore, sheets SheetsAppender, batchSize int) *MirrorWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &MirrorWorker{
		source:    source,
		mirror:    mirror,
		sheets:    sheets,
		batchSize: batchSize,
	}
}

// HandleRecorded processes one recorded notification: fetch the transaction
// from the canonical store and mirror it. A transaction missing from the
// store is logged and dropped, not retried; the periodic reconcile pass
// picks it up if it appears later.
func (w *MirrorWorker) HandleRecorded(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
	slog.InfoContext(ctx, "Processing recorded message",
		"transaction_id", msg.TransactionID)

	txs, err := w.source.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load canonical store: %w", err)
	}

	for _, tx := range txs {
		if tx.ID == msg.TransactionID {
			return w.mirrorTransaction(ctx, tx)
		}
	}

	slog.WarnContext(ctx, "Recorded transaction not found in canonical store",
		"transaction_id", msg.TransactionID)
	return nil
}

// Reconcile scans the canonical store and mirrors anything missing, up to
// batchSize transactions per pass. It backstops lost messages and worker
// downtime.
func (w *MirrorWorker) Reconcile(ctx context.Context) error {
	txs, err := w.source.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load canonical store: %w", err)
	}

	mirrored := 0
	for _, tx := range txs {
		if mirrored >= w.batchSize {
			slog.InfoContext(ctx, "Reconcile batch limit reached",
				"batch_size", w.batchSize)
			break
		}
		ok, err := w.mirror.Has(ctx, tx.ID)
		if err != nil {
			return fmt.Errorf("check mirror for %s: %w", tx.ID, err)
		}
		if ok {
			continue
		}
		if err := w.mirrorTransaction(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror transaction",
				"transaction_id", tx.ID, "error", err)
			continue
		}
		mirrored++
	}

	if mirrored > 0 {
		slog.InfoContext(ctx, "Reconcile pass completed", "mirrored", mirrored)
	}
	return nil
}

// mirrorTransaction upserts into SQLite and appends to the spreadsheet. The
// sheet append only runs when the transaction is new to the mirror, since
// spreadsheet rows have no unique key to dedupe on. Sheet failures are
// logged, not retried: a retry would re-upsert fine but could double-append.
func (w *MirrorWorker) mirrorTransaction(ctx context.Context, tx core.Transaction) error {
	alreadyMirrored, err := w.mirror.Has(ctx, tx.ID)
	if err != nil {
		return fmt.Errorf("check mirror for %s: %w", tx.ID, err)
	}

	if err := w.mirror.Append(ctx, tx); err != nil {
		return fmt.Errorf("mirror transaction %s: %w", tx.ID, err)
	}

	if w.sheets == nil || alreadyMirrored {
		return nil
	}
	if err := w.sheets.AppendTransaction(ctx, tx); err != nil {
		slog.ErrorContext(ctx, "Failed to append transaction to spreadsheet",
			"transaction_id", tx.ID, "error", err)
		return nil
	}

	slog.InfoContext(ctx, "Transaction mirrored",
		"transaction_id", tx.ID,
		"investments", len(tx.Allocations.Investments))
	return nil
}
