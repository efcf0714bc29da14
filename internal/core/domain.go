// Package core holds the finance domain model and the dashboard
// aggregation pipeline. Transactions are validated at construction and
// immutable afterwards; everything downstream only reads them.
package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type IncomeType string

const (
	IncomeSalary   IncomeType = "salary"
	IncomeBonus    IncomeType = "bonus"
	IncomeTeaching IncomeType = "teaching"
	IncomeOthers   IncomeType = "others"
)

// IncomeTypes lists the accepted income types in entry-form order.
var IncomeTypes = []IncomeType{IncomeSalary, IncomeTeaching, IncomeBonus, IncomeOthers}

func (t IncomeType) Valid() bool {
	switch t {
	case IncomeSalary, IncomeBonus, IncomeTeaching, IncomeOthers:
		return true
	default:
		return false
	}
}

type InvestmentType string

const (
	InvestmentSIP           InvestmentType = "SIP"
	InvestmentHedge         InvestmentType = "Hedge"
	InvestmentSaving        InvestmentType = "Saving"
	InvestmentEmergencyFund InvestmentType = "Emergency Fund"
)

// InvestmentTypes lists the accepted investment types in entry-form order.
var InvestmentTypes = []InvestmentType{InvestmentSIP, InvestmentHedge, InvestmentSaving, InvestmentEmergencyFund}

func (t InvestmentType) Valid() bool {
	switch t {
	case InvestmentSIP, InvestmentHedge, InvestmentSaving, InvestmentEmergencyFund:
		return true
	default:
		return false
	}
}

// HedgeAsset is the asset class of a Hedge investment.
type HedgeAsset string

const (
	HedgeGold  HedgeAsset = "Gold"
	HedgeUSD   HedgeAsset = "USD"
	HedgeOther HedgeAsset = "Other"
)

func (a HedgeAsset) Valid() bool {
	switch a {
	case HedgeGold, HedgeUSD, HedgeOther:
		return true
	default:
		return false
	}
}

var (
	ErrInvalidIncomeType     = errors.New("invalid income type")
	ErrInvalidIncomeAmount   = errors.New("income amount must be positive")
	ErrNegativeAmount        = errors.New("amount cannot be negative")
	ErrInvalidInvestmentType = errors.New("invalid investment type")
	ErrInvalidHedgeAsset     = errors.New("invalid hedge asset type")
	ErrDetailMismatch        = errors.New("details do not match investment type")
)

// allocationTolerance absorbs rounding in user-entered amounts. The check is
// an absolute epsilon regardless of magnitude.
var allocationTolerance = decimal.RequireFromString("0.01")

// AllocationMismatchError reports a violated allocation invariant: the sum of
// all allocations must equal the income amount within the tolerance. Both
// totals are carried for display.
type AllocationMismatchError struct {
	Allocated decimal.Decimal
	Income    decimal.Decimal
}

func (e *AllocationMismatchError) Error() string {
	return fmt.Sprintf("sum of allocations (%s) must equal income amount (%s)", e.Allocated, e.Income)
}

// IncomeSource describes where a transaction's income came from.
// Immutable once attached to a Transaction.
type IncomeSource struct {
	Type   IncomeType
	Amount decimal.Decimal
}

func (s IncomeSource) Validate() error {
	if !s.Type.Valid() {
		return ErrInvalidIncomeType
	}
	if s.Amount.Sign() <= 0 {
		return ErrInvalidIncomeAmount
	}
	return nil
}

// InvestmentDetails is the sealed union of type-specific investment payloads.
// Fields returns the payload values keyed by their stored field names.
type InvestmentDetails interface {
	Fields() map[string]string
	validFor(t InvestmentType) bool
}

// SIPDetails belongs to SIP investments.
type SIPDetails struct {
	FundName string
	Platform string
}

func (d SIPDetails) Fields() map[string]string {
	return map[string]string{"fund_name": d.FundName, "platform": d.Platform}
}

func (d SIPDetails) validFor(t InvestmentType) bool { return t == InvestmentSIP }

// HedgeDetails belongs to Hedge investments.
type HedgeDetails struct {
	AssetType   HedgeAsset
	Description string
}

func (d HedgeDetails) Fields() map[string]string {
	return map[string]string{"asset_type": string(d.AssetType), "description": d.Description}
}

func (d HedgeDetails) validFor(t InvestmentType) bool { return t == InvestmentHedge }

// AccountDetails belongs to Saving and Emergency Fund investments.
type AccountDetails struct {
	DestinationAccount string
}

func (d AccountDetails) Fields() map[string]string {
	return map[string]string{"destination_account": d.DestinationAccount}
}

func (d AccountDetails) validFor(t InvestmentType) bool {
	return t == InvestmentSaving || t == InvestmentEmergencyFund
}

// Investment is one earmarked portion of an allocation.
type Investment struct {
	Type    InvestmentType
	Amount  decimal.Decimal
	Details InvestmentDetails
}

func (i Investment) Validate() error {
	if !i.Type.Valid() {
		return ErrInvalidInvestmentType
	}
	if i.Amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if i.Details == nil || !i.Details.validFor(i.Type) {
		return ErrDetailMismatch
	}
	if h, ok := i.Details.(HedgeDetails); ok && !h.AssetType.Valid() {
		return ErrInvalidHedgeAsset
	}
	return nil
}

// Allocations is how a transaction's income is split. Investments keep their
// entry order; the order carries no meaning beyond display.
type Allocations struct {
	LifeExpenses decimal.Decimal
	SelfSupply   decimal.Decimal
	Investments  []Investment
}

func (a Allocations) Validate() error {
	if a.LifeExpenses.Sign() < 0 || a.SelfSupply.Sign() < 0 {
		return ErrNegativeAmount
	}
	for i, inv := range a.Investments {
		if err := inv.Validate(); err != nil {
			return fmt.Errorf("investment %d: %w", i+1, err)
		}
	}
	return nil
}

// Total sums life expenses, self supply and all investment amounts.
func (a Allocations) Total() decimal.Decimal {
	total := a.LifeExpenses.Add(a.SelfSupply)
	for _, inv := range a.Investments {
		total = total.Add(inv.Amount)
	}
	return total
}

// Transaction is one recorded income event plus its allocation breakdown.
// It is constructed once via NewTransaction, never mutated, and never
// updated or deleted after being persisted.
type Transaction struct {
	ID          string
	RecordedAt  time.Time
	Source      IncomeSource
	Allocations Allocations
}

// Option overrides generated Transaction fields, mainly for deterministic tests.
type Option func(*Transaction)

// WithID injects a fixed transaction id instead of a generated one.
func WithID(id string) Option {
	return func(t *Transaction) { t.ID = id }
}

// WithRecordedAt injects a fixed creation timestamp.
func WithRecordedAt(ts time.Time) Option {
	return func(t *Transaction) { t.RecordedAt = ts }
}

// NewTransaction validates in two phases: every leaf field first, then the
// cross-field invariant against the already-validated children. No partially
// constructed transaction is ever returned.
func NewTransaction(source IncomeSource, allocations Allocations, opts ...Option) (Transaction, error) {
	if err := source.Validate(); err != nil {
		return Transaction{}, err
	}
	if err := allocations.Validate(); err != nil {
		return Transaction{}, err
	}

	total := allocations.Total()
	if total.Sub(source.Amount).Abs().Cmp(allocationTolerance) >= 0 {
		return Transaction{}, &AllocationMismatchError{Allocated: total, Income: source.Amount}
	}

	tx := Transaction{
		ID:          uuid.NewString(),
		RecordedAt:  time.Now(),
		Source:      source,
		Allocations: allocations,
	}
	for _, opt := range opts {
		opt(&tx)
	}
	return tx, nil
}

// Validate re-checks an already-built transaction, e.g. one reconstructed
// from a store. NewTransaction guarantees these properties for fresh ones.
func (t Transaction) Validate() error {
	if t.ID == "" {
		return errors.New("missing transaction id")
	}
	if t.RecordedAt.IsZero() {
		return errors.New("missing transaction timestamp")
	}
	if err := t.Source.Validate(); err != nil {
		return err
	}
	if err := t.Allocations.Validate(); err != nil {
		return err
	}
	total := t.Allocations.Total()
	if total.Sub(t.Source.Amount).Abs().Cmp(allocationTolerance) >= 0 {
		return &AllocationMismatchError{Allocated: total, Income: t.Source.Amount}
	}
	return nil
}

// IsValidationError reports whether err is one of the construction-time
// validation failures, as opposed to an infrastructure error.
func IsValidationError(err error) bool {
	var mismatch *AllocationMismatchError
	if errors.As(err, &mismatch) {
		return true
	}
	for _, sentinel := range []error{
		ErrInvalidIncomeType, ErrInvalidIncomeAmount, ErrNegativeAmount,
		ErrInvalidInvestmentType, ErrInvalidHedgeAsset, ErrDetailMismatch,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
