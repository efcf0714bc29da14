package http

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

// TransactionDraft is the externally-owned entry document. Amounts arrive as
// JSON numbers or numeric strings; detail fields are flat per row.
type TransactionDraft struct {
	Income       IncomeDraft       `json:"income"`
	LifeExpenses json.Number       `json:"life_expenses"`
	SelfSupply   json.Number       `json:"self_supply"`
	Investments  []InvestmentDraft `json:"investments"`
}

type IncomeDraft struct {
	Type   string      `json:"type"`
	Amount json.Number `json:"amount"`
}

type InvestmentDraft struct {
	Type               string      `json:"type"`
	Amount             json.Number `json:"amount"`
	FundName           string      `json:"fund_name"`
	Platform           string      `json:"platform"`
	AssetType          string      `json:"asset_type"`
	Description        string      `json:"description"`
	DestinationAccount string      `json:"destination_account"`
}

// ToTransaction validates and converts the draft. Investment rows with a
// zero or negative amount are dropped, matching the entry form where unused
// rows default to zero.
func (d TransactionDraft) ToTransaction() (core.Transaction, error) {
	incomeAmount, err := parseAmount(d.Income.Amount, "income amount")
	if err != nil {
		return core.Transaction{}, err
	}
	lifeExpenses, err := parseAmount(d.LifeExpenses, "life_expenses")
	if err != nil {
		return core.Transaction{}, err
	}
	selfSupply, err := parseAmount(d.SelfSupply, "self_supply")
	if err != nil {
		return core.Transaction{}, err
	}

	source := core.IncomeSource{
		Type:   core.IncomeType(strings.TrimSpace(d.Income.Type)),
		Amount: incomeAmount,
	}
	allocations := core.Allocations{
		LifeExpenses: lifeExpenses,
		SelfSupply:   selfSupply,
	}

	for i, row := range d.Investments {
		amount, err := parseAmount(row.Amount, fmt.Sprintf("investment %d amount", i+1))
		if err != nil {
			return core.Transaction{}, err
		}
		if amount.Sign() <= 0 {
			continue
		}

		invType := core.InvestmentType(strings.TrimSpace(row.Type))
		inv := core.Investment{Type: invType, Amount: amount}
		switch invType {
		case core.InvestmentSIP:
			inv.Details = core.SIPDetails{
				FundName: sanitizeInput(row.FundName),
				Platform: sanitizeInput(row.Platform),
			}
		case core.InvestmentHedge:
			inv.Details = core.HedgeDetails{
				AssetType:   core.HedgeAsset(strings.TrimSpace(row.AssetType)),
				Description: sanitizeInput(row.Description),
			}
		case core.InvestmentSaving, core.InvestmentEmergencyFund:
			inv.Details = core.AccountDetails{
				DestinationAccount: sanitizeInput(row.DestinationAccount),
			}
		}
		allocations.Investments = append(allocations.Investments, inv)
	}

	return core.NewTransaction(source, allocations)
}

func parseAmount(n json.Number, field string) (decimal.Decimal, error) {
	s := strings.TrimSpace(n.String())
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q", field, s)
	}
	return d, nil
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
