package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
	"finboard/internal/ledger/memory"
)

type fakePublisher struct {
	published []string
	err       error
	closed    bool
}

func (p *fakePublisher) PublishTransactionRecorded(ctx context.Context, id string) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, id)
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

func serviceTx(t *testing.T, id string) core.Transaction {
	t.Helper()
	tx, err := core.NewTransaction(
		core.IncomeSource{Type: core.IncomeSalary, Amount: decimal.RequireFromString("100")},
		core.Allocations{LifeExpenses: decimal.RequireFromString("100")},
		core.WithID(id),
	)
	if err != nil {
		t.Fatalf("building fixture: %v", err)
	}
	return tx
}

func TestAppendPublishes(t *testing.T) {
	store := memory.NewStore()
	pub := &fakePublisher{}
	svc := NewTransactionService(store, pub)
	ctx := context.Background()

	if err := svc.Append(ctx, serviceTx(t, "tx-1")); err != nil {
		t.Fatalf("append: %v", err)
	}

	txs, _ := svc.LoadAll(ctx)
	if len(txs) != 1 {
		t.Fatalf("expected 1 stored transaction, got %d", len(txs))
	}
	if len(pub.published) != 1 || pub.published[0] != "tx-1" {
		t.Fatalf("expected published notification for tx-1, got %v", pub.published)
	}
}

func TestAppendPublishFailureIsNonFatal(t *testing.T) {
	store := memory.NewStore()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewTransactionService(store, pub)
	ctx := context.Background()

	if err := svc.Append(ctx, serviceTx(t, "tx-2")); err != nil {
		t.Fatalf("expected publish failure to be swallowed, got %v", err)
	}

	txs, _ := store.LoadAll(ctx)
	if len(txs) != 1 {
		t.Fatalf("expected transaction persisted despite broker failure, got %d", len(txs))
	}
}

func TestAppendWithoutPublisher(t *testing.T) {
	svc := NewTransactionService(memory.NewStore(), nil)

	if err := svc.Append(context.Background(), serviceTx(t, "tx-3")); err != nil {
		t.Fatalf("append without publisher: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("close without publisher: %v", err)
	}
}

func TestCloseReleasesPublisher(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewTransactionService(memory.NewStore(), pub)

	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !pub.closed {
		t.Fatal("expected publisher closed")
	}
}
