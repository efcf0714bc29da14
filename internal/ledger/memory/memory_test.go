package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

func TestAppendAndLoad(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	tx, err := core.NewTransaction(
		core.IncomeSource{Type: core.IncomeSalary, Amount: decimal.RequireFromString("100")},
		core.Allocations{LifeExpenses: decimal.RequireFromString("100")},
		core.WithID("tx-1"),
	)
	if err != nil {
		t.Fatalf("building fixture: %v", err)
	}

	if err := store.Append(ctx, tx); err != nil {
		t.Fatalf("append: %v", err)
	}

	txs, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(txs) != 1 || txs[0].ID != "tx-1" {
		t.Fatalf("expected stored transaction, got %+v", txs)
	}

	// LoadAll hands out a copy, not the internal slice.
	txs[0].ID = "mutated"
	again, _ := store.LoadAll(ctx)
	if again[0].ID != "tx-1" {
		t.Fatal("internal state leaked through LoadAll")
	}
}
