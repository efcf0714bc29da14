package core

import (
	"reflect"
	"testing"
	"time"
)

func mustTx(t *testing.T, id string, ts time.Time, source IncomeSource, allocations Allocations) Transaction {
	t.Helper()
	tx, err := NewTransaction(source, allocations, WithID(id), WithRecordedAt(ts))
	if err != nil {
		t.Fatalf("building fixture %s: %v", id, err)
	}
	return tx
}

func fixtureTransactions(t *testing.T) []Transaction {
	t.Helper()
	return []Transaction{
		mustTx(t, "tx-jan", time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC),
			IncomeSource{Type: IncomeSalary, Amount: dec("3000000")},
			Allocations{
				LifeExpenses: dec("1000000"),
				SelfSupply:   dec("500000"),
				Investments: []Investment{
					{Type: InvestmentSIP, Amount: dec("1000000"), Details: SIPDetails{FundName: "Global Index", Platform: "BrokerX"}},
					{Type: InvestmentSaving, Amount: dec("500000"), Details: AccountDetails{DestinationAccount: "Bank A"}},
				},
			}),
		mustTx(t, "tx-feb", time.Date(2025, time.February, 5, 12, 0, 0, 0, time.UTC),
			IncomeSource{Type: IncomeBonus, Amount: dec("1000000")},
			Allocations{
				LifeExpenses: dec("200000"),
				Investments: []Investment{
					{Type: InvestmentSIP, Amount: dec("300000"), Details: SIPDetails{FundName: "Global Index", Platform: "BrokerY"}},
					{Type: InvestmentHedge, Amount: dec("500000"), Details: HedgeDetails{AssetType: HedgeGold, Description: "coins"}},
				},
			}),
		mustTx(t, "tx-old", time.Date(2024, time.February, 20, 12, 0, 0, 0, time.UTC),
			IncomeSource{Type: IncomeTeaching, Amount: dec("400000")},
			Allocations{
				LifeExpenses: dec("400000"),
			}),
	}
}

func TestBuildReportAllTime(t *testing.T) {
	report := BuildReport(fixtureTransactions(t), Filter{})

	if !report.HasData {
		t.Fatal("expected report with data")
	}
	if len(report.Transactions) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(report.Transactions))
	}
	if len(report.Investments) != 4 {
		t.Fatalf("expected 4 flattened investments, got %d", len(report.Investments))
	}

	s := report.Summary
	if !s.TotalIncome.Equal(dec("4400000")) {
		t.Fatalf("expected total income 4400000, got %s", s.TotalIncome)
	}
	if !s.TotalLifeExpenses.Equal(dec("1600000")) {
		t.Fatalf("expected life expenses 1600000, got %s", s.TotalLifeExpenses)
	}
	if !s.TotalSelfSupply.Equal(dec("500000")) {
		t.Fatalf("expected self supply 500000, got %s", s.TotalSelfSupply)
	}
	if !s.TotalInvested.Equal(dec("2300000")) {
		t.Fatalf("expected invested 2300000, got %s", s.TotalInvested)
	}
	if !s.RateDefined {
		t.Fatal("expected defined investment rate")
	}
}

func TestBuildReportSummaryExample(t *testing.T) {
	txs := []Transaction{
		mustTx(t, "tx-1", time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC),
			IncomeSource{Type: IncomeSalary, Amount: dec("3000000")},
			Allocations{
				LifeExpenses: dec("1000000"),
				SelfSupply:   dec("500000"),
				Investments: []Investment{
					{Type: InvestmentSIP, Amount: dec("1000000"), Details: SIPDetails{FundName: "Global Index"}},
					{Type: InvestmentSaving, Amount: dec("500000"), Details: AccountDetails{DestinationAccount: "Bank A"}},
				},
			}),
	}

	report := BuildReport(txs, Filter{})
	if !report.Summary.InvestmentRate.Equal(dec("50")) {
		t.Fatalf("expected 50%% investment rate, got %s", report.Summary.InvestmentRate)
	}
}

func TestBuildReportPeriodFilter(t *testing.T) {
	txs := fixtureTransactions(t)

	cases := []struct {
		name    string
		filter  Filter
		wantIDs []string
	}{
		{"year only", Filter{Year: 2025}, []string{"tx-jan", "tx-feb"}},
		{"year and month", Filter{Year: 2025, Month: time.February}, []string{"tx-feb"}},
		{"month across years", Filter{Month: time.February}, []string{"tx-feb", "tx-old"}},
		{"no match", Filter{Year: 2023}, nil},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			report := BuildReport(txs, c.filter)
			var ids []string
			for _, tx := range report.Transactions {
				ids = append(ids, tx.ID)
			}
			if !reflect.DeepEqual(ids, c.wantIDs) {
				t.Fatalf("expected transactions %v, got %v", c.wantIDs, ids)
			}
			if len(c.wantIDs) == 0 && report.HasData {
				t.Fatal("expected empty report to carry no data")
			}
		})
	}
}

func TestBuildReportEmptyPeriod(t *testing.T) {
	report := BuildReport(fixtureTransactions(t), Filter{Year: 1999})
	if report.HasData {
		t.Fatal("expected no data")
	}
	if report.Summary.RateDefined {
		t.Fatal("expected undefined rate for empty period")
	}
	if len(report.Breakdown) != 0 {
		t.Fatalf("expected empty breakdown, got %v", report.Breakdown)
	}
}

func TestBuildReportNoInvestments(t *testing.T) {
	txs := []Transaction{
		mustTx(t, "tx-plain", time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC),
			IncomeSource{Type: IncomeSalary, Amount: dec("100")},
			Allocations{LifeExpenses: dec("100")}),
	}

	report := BuildReport(txs, Filter{})
	if !report.HasData {
		t.Fatal("expected data")
	}
	if !report.Summary.TotalInvested.IsZero() {
		t.Fatalf("expected zero invested, got %s", report.Summary.TotalInvested)
	}
	if !report.Summary.RateDefined {
		t.Fatal("rate is defined whenever income is positive")
	}
	if !report.Summary.InvestmentRate.IsZero() {
		t.Fatalf("expected 0%% rate, got %s", report.Summary.InvestmentRate)
	}
	if len(report.Breakdown) != 0 {
		t.Fatalf("expected empty breakdown, got %v", report.Breakdown)
	}
}

func TestFlattenDetailKeys(t *testing.T) {
	txs := fixtureTransactions(t)
	flat := Flatten(txs[:1])

	if len(flat) != 2 {
		t.Fatalf("expected 2 investments, got %d", len(flat))
	}
	if flat[0].TransactionID != "tx-jan" {
		t.Fatalf("expected parent id tx-jan, got %s", flat[0].TransactionID)
	}
	if got := flat[0].Details["detail_fund_name"]; got != "Global Index" {
		t.Fatalf("expected prefixed fund name, got %q", got)
	}
	if got := flat[0].Details["detail_platform"]; got != "BrokerX" {
		t.Fatalf("expected prefixed platform, got %q", got)
	}
	if got := flat[1].Details["detail_destination_account"]; got != "Bank A" {
		t.Fatalf("expected prefixed destination account, got %q", got)
	}
}

func TestBuildReportBreakdownByType(t *testing.T) {
	report := BuildReport(fixtureTransactions(t), Filter{})

	want := []BreakdownEntry{
		{Key: "Hedge", Total: dec("500000")},
		{Key: "SIP", Total: dec("1300000")},
		{Key: "Saving", Total: dec("500000")},
	}
	assertBreakdown(t, report.Breakdown, want)
}

func TestBuildReportBreakdownSIP(t *testing.T) {
	report := BuildReport(fixtureTransactions(t), Filter{InvestmentType: InvestmentSIP})

	// Same fund across transactions merges into one group.
	want := []BreakdownEntry{
		{Key: "Global Index", Total: dec("1300000")},
	}
	assertBreakdown(t, report.Breakdown, want)

	if len(report.Investments) != 2 {
		t.Fatalf("expected 2 visible investments, got %d", len(report.Investments))
	}
	// Type filter never narrows the summary.
	if !report.Summary.TotalInvested.Equal(dec("2300000")) {
		t.Fatalf("expected period-wide invested 2300000, got %s", report.Summary.TotalInvested)
	}
}

func TestBuildReportBreakdownUnspecified(t *testing.T) {
	txs := []Transaction{
		mustTx(t, "tx-blank", time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC),
			IncomeSource{Type: IncomeSalary, Amount: dec("200")},
			Allocations{Investments: []Investment{
				{Type: InvestmentSaving, Amount: dec("150"), Details: AccountDetails{}},
				{Type: InvestmentSaving, Amount: dec("50"), Details: AccountDetails{DestinationAccount: "  "}},
			}}),
	}

	report := BuildReport(txs, Filter{InvestmentType: InvestmentSaving})
	want := []BreakdownEntry{
		{Key: UnspecifiedKey, Total: dec("200")},
	}
	assertBreakdown(t, report.Breakdown, want)
}

func TestBuildReportDeterministic(t *testing.T) {
	txs := fixtureTransactions(t)
	filter := Filter{Year: 2025, InvestmentType: InvestmentSIP}

	first := BuildReport(txs, filter)
	second := BuildReport(txs, filter)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical reports for identical inputs")
	}
}

func TestBuildReportDoesNotMutateInput(t *testing.T) {
	txs := fixtureTransactions(t)
	before := make([]Transaction, len(txs))
	copy(before, txs)

	BuildReport(txs, Filter{InvestmentType: InvestmentHedge})
	if !reflect.DeepEqual(before, txs) {
		t.Fatal("input transactions were mutated")
	}
}

func assertBreakdown(t *testing.T, got, want []BreakdownEntry) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d breakdown entries, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i].Key != want[i].Key {
			t.Fatalf("entry %d expected key %q, got %q", i, want[i].Key, got[i].Key)
		}
		if !got[i].Total.Equal(want[i].Total) {
			t.Fatalf("entry %d expected total %s, got %s", i, want[i].Total, got[i].Total)
		}
	}
}
