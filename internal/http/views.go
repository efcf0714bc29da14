package http

import (
	"time"

	"finboard/internal/core"
)

// View structs render decimal amounts as strings so clients never see
// float rounding.

type transactionView struct {
	TransactionID string           `json:"transaction_id"`
	Timestamp     string           `json:"timestamp"`
	Income        incomeView       `json:"income"`
	LifeExpenses  string           `json:"life_expenses"`
	SelfSupply    string           `json:"self_supply"`
	Investments   []investmentView `json:"investments"`
}

type incomeView struct {
	Type   string `json:"type"`
	Amount string `json:"amount"`
}

type investmentView struct {
	Type    string            `json:"type"`
	Amount  string            `json:"amount"`
	Details map[string]string `json:"details"`
}

type flatInvestmentView struct {
	TransactionID string            `json:"transaction_id"`
	Type          string            `json:"type"`
	Amount        string            `json:"amount"`
	Details       map[string]string `json:"details"`
}

type summaryView struct {
	TotalIncome       string `json:"total_income"`
	TotalLifeExpenses string `json:"total_life_expenses"`
	TotalSelfSupply   string `json:"total_self_supply"`
	TotalInvested     string `json:"total_invested"`
	// Omitted when no income fell inside the period.
	InvestmentRate string `json:"investment_rate,omitempty"`
}

type breakdownView struct {
	Key   string `json:"key"`
	Total string `json:"total"`
}

type allocationView struct {
	LifeExpenses string `json:"life_expenses"`
	SelfSupply   string `json:"self_supply"`
	Invested     string `json:"invested"`
}

type dashboardView struct {
	HasData      bool                 `json:"has_data"`
	Summary      *summaryView         `json:"summary,omitempty"`
	Allocation   *allocationView      `json:"allocation,omitempty"`
	Breakdown    []breakdownView      `json:"breakdown"`
	Investments  []flatInvestmentView `json:"investments"`
	Transactions []transactionView    `json:"transactions"`
}

func toTransactionView(tx core.Transaction) transactionView {
	view := transactionView{
		TransactionID: tx.ID,
		Timestamp:     tx.RecordedAt.Format(time.RFC3339Nano),
		Income: incomeView{
			Type:   string(tx.Source.Type),
			Amount: tx.Source.Amount.String(),
		},
		LifeExpenses: tx.Allocations.LifeExpenses.String(),
		SelfSupply:   tx.Allocations.SelfSupply.String(),
		Investments:  make([]investmentView, 0, len(tx.Allocations.Investments)),
	}
	for _, inv := range tx.Allocations.Investments {
		fields := map[string]string{}
		if inv.Details != nil {
			fields = inv.Details.Fields()
		}
		view.Investments = append(view.Investments, investmentView{
			Type:    string(inv.Type),
			Amount:  inv.Amount.String(),
			Details: fields,
		})
	}
	return view
}

func toDashboardView(report core.Report) dashboardView {
	view := dashboardView{
		HasData:      report.HasData,
		Breakdown:    make([]breakdownView, 0, len(report.Breakdown)),
		Investments:  make([]flatInvestmentView, 0, len(report.Investments)),
		Transactions: make([]transactionView, 0, len(report.Transactions)),
	}
	if !report.HasData {
		return view
	}

	s := report.Summary
	summary := &summaryView{
		TotalIncome:       s.TotalIncome.String(),
		TotalLifeExpenses: s.TotalLifeExpenses.String(),
		TotalSelfSupply:   s.TotalSelfSupply.String(),
		TotalInvested:     s.TotalInvested.String(),
	}
	if s.RateDefined {
		summary.InvestmentRate = s.InvestmentRate.Round(2).String()
	}
	view.Summary = summary
	view.Allocation = &allocationView{
		LifeExpenses: s.TotalLifeExpenses.String(),
		SelfSupply:   s.TotalSelfSupply.String(),
		Invested:     s.TotalInvested.String(),
	}

	for _, entry := range report.Breakdown {
		view.Breakdown = append(view.Breakdown, breakdownView{
			Key:   entry.Key,
			Total: entry.Total.String(),
		})
	}
	for _, inv := range report.Investments {
		view.Investments = append(view.Investments, flatInvestmentView{
			TransactionID: inv.TransactionID,
			Type:          string(inv.Type),
			Amount:        inv.Amount.String(),
			Details:       inv.Details,
		})
	}
	for _, tx := range report.Transactions {
		view.Transactions = append(view.Transactions, toTransactionView(tx))
	}
	return view
}
