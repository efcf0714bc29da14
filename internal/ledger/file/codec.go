package file

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

// On-disk record shapes. Amounts are plain JSON numbers and timestamps are
// ISO-8601 strings, so the file stays readable and editable by hand.

type transactionRecord struct {
	TransactionID string            `json:"transaction_id"`
	Timestamp     string            `json:"timestamp"`
	IncomeSource  incomeRecord      `json:"income_source"`
	Allocations   allocationsRecord `json:"allocations"`
}

type incomeRecord struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
}

type allocationsRecord struct {
	LifeExpenses float64            `json:"life_expenses"`
	SelfSupply   float64            `json:"self_supply"`
	Investments  []investmentRecord `json:"investments"`
}

type investmentRecord struct {
	Type    string            `json:"type"`
	Amount  float64           `json:"amount"`
	Details map[string]string `json:"details"`
}

// timestampLayouts covers records written with and without a zone offset.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

func encodeTransaction(tx core.Transaction) transactionRecord {
	rec := transactionRecord{
		TransactionID: tx.ID,
		Timestamp:     tx.RecordedAt.Format(time.RFC3339Nano),
		IncomeSource: incomeRecord{
			Type:   string(tx.Source.Type),
			Amount: tx.Source.Amount.InexactFloat64(),
		},
		Allocations: allocationsRecord{
			LifeExpenses: tx.Allocations.LifeExpenses.InexactFloat64(),
			SelfSupply:   tx.Allocations.SelfSupply.InexactFloat64(),
			Investments:  make([]investmentRecord, 0, len(tx.Allocations.Investments)),
		},
	}
	for _, inv := range tx.Allocations.Investments {
		rec.Allocations.Investments = append(rec.Allocations.Investments, investmentRecord{
			Type:    string(inv.Type),
			Amount:  inv.Amount.InexactFloat64(),
			Details: inv.Details.Fields(),
		})
	}
	return rec
}

func decodeTransaction(rec transactionRecord) (core.Transaction, error) {
	ts, err := parseTimestamp(rec.Timestamp)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("timestamp %q: %w", rec.Timestamp, err)
	}

	allocations := core.Allocations{
		LifeExpenses: decimal.NewFromFloat(rec.Allocations.LifeExpenses),
		SelfSupply:   decimal.NewFromFloat(rec.Allocations.SelfSupply),
	}
	for i, inv := range rec.Allocations.Investments {
		details, err := decodeDetails(core.InvestmentType(inv.Type), inv.Details)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("investment %d: %w", i+1, err)
		}
		allocations.Investments = append(allocations.Investments, core.Investment{
			Type:    core.InvestmentType(inv.Type),
			Amount:  decimal.NewFromFloat(inv.Amount),
			Details: details,
		})
	}

	tx := core.Transaction{
		ID:         rec.TransactionID,
		RecordedAt: ts,
		Source: core.IncomeSource{
			Type:   core.IncomeType(rec.IncomeSource.Type),
			Amount: decimal.NewFromFloat(rec.IncomeSource.Amount),
		},
		Allocations: allocations,
	}
	if tx.ID == "" {
		return core.Transaction{}, fmt.Errorf("missing transaction_id")
	}
	return tx, nil
}

func decodeDetails(t core.InvestmentType, fields map[string]string) (core.InvestmentDetails, error) {
	switch t {
	case core.InvestmentSIP:
		return core.SIPDetails{
			FundName: fields["fund_name"],
			Platform: fields["platform"],
		}, nil
	case core.InvestmentHedge:
		return core.HedgeDetails{
			AssetType:   core.HedgeAsset(fields["asset_type"]),
			Description: fields["description"],
		}, nil
	case core.InvestmentSaving, core.InvestmentEmergencyFund:
		return core.AccountDetails{
			DestinationAccount: fields["destination_account"],
		}, nil
	default:
		return nil, fmt.Errorf("unknown investment type %q", t)
	}
}

func parseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
