package core

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DetailPrefix is prepended to detail field names when investments are
// flattened into standalone records.
const DetailPrefix = "detail_"

// UnspecifiedKey is the breakdown bucket for flattened investments whose
// grouping field is empty or missing.
const UnspecifiedKey = "(unspecified)"

// Filter scopes a dashboard report. Zero values mean "no constraint":
// Year 0 and Month 0 select all time, an empty InvestmentType selects all
// investment types. Year and month apply independently.
type Filter struct {
	Year           int
	Month          time.Month
	InvestmentType InvestmentType
}

// FlatInvestment is one investment projected out of its transaction, with
// every detail field promoted to Details under a DetailPrefix-ed key.
type FlatInvestment struct {
	TransactionID string
	Type          InvestmentType
	Amount        decimal.Decimal
	Details       map[string]string
}

// Summary carries the period-wide metrics. They are computed over the
// period-filtered transactions only; the investment-type filter never
// narrows them.
type Summary struct {
	TotalIncome       decimal.Decimal
	TotalLifeExpenses decimal.Decimal
	TotalSelfSupply   decimal.Decimal
	TotalInvested     decimal.Decimal
	// InvestmentRate is TotalInvested/TotalIncome as a percentage. Only
	// meaningful when RateDefined is true (TotalIncome > 0).
	InvestmentRate decimal.Decimal
	RateDefined    bool
}

// BreakdownEntry is one grouped total of the investment breakdown.
type BreakdownEntry struct {
	Key   string
	Total decimal.Decimal
}

// Report is the full dashboard payload for one filter selection. HasData is
// false when no transaction falls inside the period; the zero Report then
// stands for "no data" rather than zero-filled metrics.
type Report struct {
	HasData      bool
	Transactions []Transaction
	Investments  []FlatInvestment
	Summary      Summary
	Breakdown    []BreakdownEntry
}

// FilterByPeriod returns the subsequence of txs whose creation time matches
// the year/month constraints of f.
func FilterByPeriod(txs []Transaction, f Filter) []Transaction {
	var out []Transaction
	for _, tx := range txs {
		if f.Year != 0 && tx.RecordedAt.Year() != f.Year {
			continue
		}
		if f.Month != 0 && tx.RecordedAt.Month() != f.Month {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// Flatten projects every investment of every transaction into a flat record,
// preserving transaction and entry order.
func Flatten(txs []Transaction) []FlatInvestment {
	var out []FlatInvestment
	for _, tx := range txs {
		for _, inv := range tx.Allocations.Investments {
			flat := FlatInvestment{
				TransactionID: tx.ID,
				Type:          inv.Type,
				Amount:        inv.Amount,
				Details:       map[string]string{},
			}
			if inv.Details != nil {
				for k, v := range inv.Details.Fields() {
					flat.Details[DetailPrefix+k] = v
				}
			}
			out = append(out, flat)
		}
	}
	return out
}

// FilterByType keeps the flattened investments matching t, or all of them
// when t is empty.
func FilterByType(invs []FlatInvestment, t InvestmentType) []FlatInvestment {
	if t == "" {
		return invs
	}
	var out []FlatInvestment
	for _, inv := range invs {
		if inv.Type == t {
			out = append(out, inv)
		}
	}
	return out
}

// BuildReport runs the whole pipeline: period filter, flatten, type filter,
// summary metrics and grouped breakdown. It never mutates its input and is
// deterministic for a given input and filter.
func BuildReport(txs []Transaction, f Filter) Report {
	period := FilterByPeriod(txs, f)
	if len(period) == 0 {
		return Report{}
	}

	flattened := Flatten(period)
	visible := FilterByType(flattened, f.InvestmentType)

	return Report{
		HasData:      true,
		Transactions: period,
		Investments:  visible,
		Summary:      summarize(period, flattened),
		Breakdown:    breakdown(visible, f.InvestmentType),
	}
}

func summarize(period []Transaction, flattened []FlatInvestment) Summary {
	var s Summary
	for _, tx := range period {
		s.TotalIncome = s.TotalIncome.Add(tx.Source.Amount)
		s.TotalLifeExpenses = s.TotalLifeExpenses.Add(tx.Allocations.LifeExpenses)
		s.TotalSelfSupply = s.TotalSelfSupply.Add(tx.Allocations.SelfSupply)
	}
	for _, inv := range flattened {
		s.TotalInvested = s.TotalInvested.Add(inv.Amount)
	}
	if s.TotalIncome.Sign() > 0 {
		s.InvestmentRate = s.TotalInvested.Div(s.TotalIncome).Mul(decimal.NewFromInt(100))
		s.RateDefined = true
	}
	return s
}

// breakdown groups the visible investments and sums amounts per group. The
// grouping key follows the active type filter: investment type when all
// types are shown, otherwise the type-specific detail field.
func breakdown(visible []FlatInvestment, t InvestmentType) []BreakdownEntry {
	if len(visible) == 0 {
		return nil
	}

	keyOf := func(inv FlatInvestment) string {
		switch t {
		case "":
			return string(inv.Type)
		case InvestmentSIP:
			return detailOrUnspecified(inv, DetailPrefix+"fund_name")
		case InvestmentHedge:
			return detailOrUnspecified(inv, DetailPrefix+"asset_type")
		default: // Saving, Emergency Fund
			return detailOrUnspecified(inv, DetailPrefix+"destination_account")
		}
	}

	totals := make(map[string]decimal.Decimal)
	for _, inv := range visible {
		key := keyOf(inv)
		totals[key] = totals[key].Add(inv.Amount)
	}

	keys := make([]string, 0, len(totals))
	for key := range totals {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]BreakdownEntry, 0, len(keys))
	for _, key := range keys {
		out = append(out, BreakdownEntry{Key: key, Total: totals[key]})
	}
	return out
}

func detailOrUnspecified(inv FlatInvestment, key string) string {
	if v := strings.TrimSpace(inv.Details[key]); v != "" {
		return v
	}
	return UnspecifiedKey
}
