package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
	"finboard/internal/ledger/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	s := NewServer(":0", store)
	t.Cleanup(func() { s.cacheManager.Stop() })
	return s, store
}

func doRequest(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func seedTransaction(t *testing.T, store *memory.Store, id string, ts time.Time) {
	t.Helper()
	tx, err := core.NewTransaction(
		core.IncomeSource{Type: core.IncomeSalary, Amount: decimal.RequireFromString("3000000")},
		core.Allocations{
			LifeExpenses: decimal.RequireFromString("1000000"),
			SelfSupply:   decimal.RequireFromString("500000"),
			Investments: []core.Investment{
				{Type: core.InvestmentSIP, Amount: decimal.RequireFromString("1000000"), Details: core.SIPDetails{FundName: "Global Index"}},
				{Type: core.InvestmentSaving, Amount: decimal.RequireFromString("500000"), Details: core.AccountDetails{DestinationAccount: "Bank A"}},
			},
		},
		core.WithID(id),
		core.WithRecordedAt(ts),
	)
	if err != nil {
		t.Fatalf("building fixture: %v", err)
	}
	if err := store.Append(context.Background(), tx); err != nil {
		t.Fatalf("seeding store: %v", err)
	}
}

const validDraft = `{
  "income": {"type": "salary", "amount": 3000000},
  "life_expenses": 1000000,
  "self_supply": 500000,
  "investments": [
    {"type": "SIP", "amount": 1000000, "fund_name": "Global Index", "platform": "BrokerX"},
    {"type": "Saving", "amount": 500000, "destination_account": "Bank A"},
    {"type": "Hedge", "amount": 0, "asset_type": "Gold"}
  ]
}`

func TestCreateTransaction(t *testing.T) {
	s, store := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/transactions", validDraft)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var view transactionView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if view.TransactionID == "" {
		t.Fatal("expected generated transaction id")
	}
	if view.Income.Amount != "3000000" {
		t.Fatalf("expected income amount 3000000, got %s", view.Income.Amount)
	}
	// Zero-amount rows are dropped.
	if len(view.Investments) != 2 {
		t.Fatalf("expected 2 investments, got %d", len(view.Investments))
	}

	txs, _ := store.LoadAll(context.Background())
	if len(txs) != 1 {
		t.Fatalf("expected 1 stored transaction, got %d", len(txs))
	}
}

func TestCreateTransactionMismatch(t *testing.T) {
	s, _ := newTestServer(t)

	body := `{
	  "income": {"type": "salary", "amount": 1000000},
	  "life_expenses": 600000,
	  "self_supply": 500000,
	  "investments": []
	}`
	rec := doRequest(s, http.MethodPost, "/transactions", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Details["computed_total"] != "1100000" {
		t.Fatalf("expected computed total 1100000, got %q", resp.Details["computed_total"])
	}
	if resp.Details["expected_total"] != "1000000" {
		t.Fatalf("expected expected total 1000000, got %q", resp.Details["expected_total"])
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	s, _ := newTestServer(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{not json`, http.StatusBadRequest},
		{"unknown income type", `{"income": {"type": "freelance", "amount": 10}, "life_expenses": 10}`, http.StatusUnprocessableEntity},
		{"zero income", `{"income": {"type": "salary", "amount": 0}, "life_expenses": 0}`, http.StatusUnprocessableEntity},
		{"unknown investment type", `{"income": {"type": "salary", "amount": 10}, "investments": [{"type": "Crypto", "amount": 10}]}`, http.StatusUnprocessableEntity},
		{"bad amount string", `{"income": {"type": "salary", "amount": "abc"}}`, http.StatusBadRequest},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPost, "/transactions", c.body)
			if rec.Code != c.want {
				t.Fatalf("expected %d, got %d: %s", c.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestListTransactions(t *testing.T) {
	s, store := newTestServer(t)
	seedTransaction(t, store, "tx-1", time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC))
	seedTransaction(t, store, "tx-2", time.Date(2025, time.February, 5, 12, 0, 0, 0, time.UTC))

	rec := doRequest(s, http.MethodGet, "/transactions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var views []transactionView
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(views))
	}
}

func TestDashboardAllTime(t *testing.T) {
	s, store := newTestServer(t)
	seedTransaction(t, store, "tx-1", time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC))

	rec := doRequest(s, http.MethodGet, "/dashboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var view dashboardView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !view.HasData {
		t.Fatal("expected data")
	}
	if view.Summary.TotalIncome != "3000000" {
		t.Fatalf("expected total income 3000000, got %s", view.Summary.TotalIncome)
	}
	if view.Summary.InvestmentRate != "50" {
		t.Fatalf("expected 50 percent rate, got %q", view.Summary.InvestmentRate)
	}
	if len(view.Breakdown) != 2 {
		t.Fatalf("expected SIP and Saving breakdown entries, got %v", view.Breakdown)
	}
}

func TestDashboardEmptyPeriod(t *testing.T) {
	s, store := newTestServer(t)
	seedTransaction(t, store, "tx-1", time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC))

	rec := doRequest(s, http.MethodGet, "/dashboard?year=1999", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var view dashboardView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if view.HasData {
		t.Fatal("expected no data for empty period")
	}
	if view.Summary != nil {
		t.Fatal("expected summary omitted for empty period")
	}
}

func TestDashboardFilterValidation(t *testing.T) {
	s, _ := newTestServer(t)

	cases := []struct {
		target string
		want   int
	}{
		{"/dashboard?year=all&month=All&type=All", http.StatusOK},
		{"/dashboard?month=13", http.StatusBadRequest},
		{"/dashboard?month=0", http.StatusBadRequest},
		{"/dashboard?year=abc", http.StatusBadRequest},
		{"/dashboard?type=Crypto", http.StatusBadRequest},
		{"/dashboard?type=SIP", http.StatusOK},
		{"/dashboard?type=Emergency+Fund", http.StatusOK},
	}

	for i, c := range cases {
		rec := doRequest(s, http.MethodGet, c.target, "")
		if rec.Code != c.want {
			t.Fatalf("case %d expected %d for %s, got %d: %s", i, c.want, c.target, rec.Code, rec.Body.String())
		}
	}
}

func TestDashboardCacheInvalidatedOnCreate(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/dashboard", "")
	var before dashboardView
	if err := json.Unmarshal(rec.Body.Bytes(), &before); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if before.HasData {
		t.Fatal("expected empty dashboard before create")
	}

	rec = doRequest(s, http.MethodPost, "/transactions", validDraft)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/dashboard", "")
	var after dashboardView
	if err := json.Unmarshal(rec.Body.Bytes(), &after); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !after.HasData {
		t.Fatal("expected fresh dashboard after create, cache not invalidated")
	}
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	if rec := doRequest(s, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rec.Code)
	}
	if rec := doRequest(s, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Fatalf("readyz: expected 200, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)

	if rec := doRequest(s, http.MethodDelete, "/transactions", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if rec := doRequest(s, http.MethodPost, "/dashboard", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
