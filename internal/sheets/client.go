// Package sheets appends recorded transactions to a Google Sheets ledger.
// The sheet is a human-readable mirror; the JSON file remains canonical.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finboard/internal/core"
)

type Client struct {
	svc              *gsheet.Service
	spreadsheetID    string
	transactionSheet string
	investmentSheet  string
}

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus service account credentials via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional sheet names: GOOGLE_TRANSACTIONS_SHEET_NAME (default
// "Transactions"), GOOGLE_INVESTMENTS_SHEET_NAME (default "Investments").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	transactionSheet := strings.TrimSpace(os.Getenv("GOOGLE_TRANSACTIONS_SHEET_NAME"))
	if transactionSheet == "" {
		transactionSheet = "Transactions"
	}
	investmentSheet := strings.TrimSpace(os.Getenv("GOOGLE_INVESTMENTS_SHEET_NAME"))
	if investmentSheet == "" {
		investmentSheet = "Investments"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:              svc,
		spreadsheetID:    spreadsheetID,
		transactionSheet: transactionSheet,
		investmentSheet:  investmentSheet,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials from the environment.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// AppendTransaction appends one summary row to the transactions sheet and
// one row per investment to the investments sheet. Callers are expected to
// dedupe; the sheet itself has no unique key.
func (c *Client) AppendTransaction(ctx context.Context, tx core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row := []any{
		tx.ID,
		tx.RecordedAt.Format(time.RFC3339),
		string(tx.Source.Type),
		tx.Source.Amount.String(),
		tx.Allocations.LifeExpenses.String(),
		tx.Allocations.SelfSupply.String(),
		len(tx.Allocations.Investments),
	}
	if err := c.appendRows(ctx, c.transactionSheet, [][]any{row}); err != nil {
		return fmt.Errorf("append transaction row: %w", err)
	}

	if len(tx.Allocations.Investments) == 0 {
		return nil
	}
	invRows := make([][]any, 0, len(tx.Allocations.Investments))
	for _, inv := range tx.Allocations.Investments {
		fields := map[string]string{}
		if inv.Details != nil {
			fields = inv.Details.Fields()
		}
		invRows = append(invRows, []any{
			tx.ID,
			string(inv.Type),
			inv.Amount.String(),
			fields["fund_name"],
			fields["platform"],
			fields["asset_type"],
			fields["description"],
			fields["destination_account"],
		})
	}
	if err := c.appendRows(ctx, c.investmentSheet, invRows); err != nil {
		return fmt.Errorf("append investment rows: %w", err)
	}
	return nil
}

func (c *Client) appendRows(ctx context.Context, sheetName string, rows [][]any) error {
	rng := fmt.Sprintf("%s!A:A", sheetName)
	vr := &gsheet.ValueRange{Values: rows}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", sheetName, err)
	}
	return nil
}
