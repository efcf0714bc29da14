// Package storage implements the SQLite transaction store. It serves both as
// an alternative ledger backend and as the mirror target the worker keeps in
// sync with the canonical store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"finboard/internal/core"
)

// SQLiteStore persists transactions relationally: one row per transaction
// plus ordered investment rows. Amounts are stored as exact decimal text.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and runs
// pending migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Append stores tx, replacing any existing row with the same id. Replacement
// keeps mirroring idempotent under at-least-once message delivery.
func (s *SQLiteStore) Append(ctx context.Context, tx core.Transaction) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	_, err = dbTx.ExecContext(ctx, `
		INSERT OR REPLACE INTO transactions
			(transaction_id, recorded_at, income_type, income_amount, life_expenses, self_supply)
		VALUES (?, ?, ?, ?, ?, ?)`,
		tx.ID,
		tx.RecordedAt.UTC().Format(time.RFC3339Nano),
		string(tx.Source.Type),
		tx.Source.Amount.String(),
		tx.Allocations.LifeExpenses.String(),
		tx.Allocations.SelfSupply.String(),
	)
	if err != nil {
		return fmt.Errorf("upsert transaction %s: %w", tx.ID, err)
	}

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM investments WHERE transaction_id = ?`, tx.ID); err != nil {
		return fmt.Errorf("clear investments for %s: %w", tx.ID, err)
	}

	for i, inv := range tx.Allocations.Investments {
		fields := map[string]string{}
		if inv.Details != nil {
			fields = inv.Details.Fields()
		}
		_, err := dbTx.ExecContext(ctx, `
			INSERT INTO investments
				(transaction_id, position, type, amount, fund_name, platform, asset_type, description, destination_account)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			tx.ID, i, string(inv.Type), inv.Amount.String(),
			fields["fund_name"], fields["platform"],
			fields["asset_type"], fields["description"],
			fields["destination_account"],
		)
		if err != nil {
			return fmt.Errorf("insert investment %d of %s: %w", i+1, tx.ID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction %s: %w", tx.ID, err)
	}
	return nil
}

// LoadAll returns the full history ordered by recording time.
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, recorded_at, income_type, income_amount, life_expenses, self_supply
		FROM transactions
		ORDER BY recorded_at, transaction_id`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var (
			id, recordedAt, incomeType        string
			incomeAmount, lifeExp, selfSupply string
		)
		if err := rows.Scan(&id, &recordedAt, &incomeType, &incomeAmount, &lifeExp, &selfSupply); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parse recorded_at for %s: %w", id, err)
		}

		tx := core.Transaction{
			ID:         id,
			RecordedAt: ts,
			Source: core.IncomeSource{
				Type:   core.IncomeType(incomeType),
				Amount: decimal.RequireFromString(incomeAmount),
			},
			Allocations: core.Allocations{
				LifeExpenses: decimal.RequireFromString(lifeExp),
				SelfSupply:   decimal.RequireFromString(selfSupply),
			},
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	for i := range txs {
		investments, err := s.loadInvestments(ctx, txs[i].ID)
		if err != nil {
			return nil, err
		}
		txs[i].Allocations.Investments = investments
	}
	return txs, nil
}

// Has reports whether a transaction with the given id is already stored.
func (s *SQLiteStore) Has(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM transactions WHERE transaction_id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check transaction %s: %w", id, err)
	}
	return true, nil
}

func (s *SQLiteStore) loadInvestments(ctx context.Context, txID string) ([]core.Investment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT type, amount, fund_name, platform, asset_type, description, destination_account
		FROM investments
		WHERE transaction_id = ?
		ORDER BY position`, txID)
	if err != nil {
		return nil, fmt.Errorf("query investments for %s: %w", txID, err)
	}
	defer rows.Close()

	var out []core.Investment
	for rows.Next() {
		var (
			invType, amount                                      string
			fundName, platform, assetType, description, destAcct string
		)
		if err := rows.Scan(&invType, &amount, &fundName, &platform, &assetType, &description, &destAcct); err != nil {
			return nil, fmt.Errorf("scan investment for %s: %w", txID, err)
		}

		inv := core.Investment{
			Type:   core.InvestmentType(invType),
			Amount: decimal.RequireFromString(amount),
		}
		switch inv.Type {
		case core.InvestmentSIP:
			inv.Details = core.SIPDetails{FundName: fundName, Platform: platform}
		case core.InvestmentHedge:
			inv.Details = core.HedgeDetails{AssetType: core.HedgeAsset(assetType), Description: description}
		case core.InvestmentSaving, core.InvestmentEmergencyFund:
			inv.Details = core.AccountDetails{DestinationAccount: destAcct}
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate investments for %s: %w", txID, err)
	}
	return out, nil
}
