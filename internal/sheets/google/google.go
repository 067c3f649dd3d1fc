package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"orbit/internal/core"
	ports "orbit/internal/sheets"
)

// Client mirrors closed months into a Google spreadsheet, one row per
// month. The spreadsheet is a convenience export; the SQLite archive
// stays the source of truth.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var _ ports.SnapshotWriter = (*Client)(nil)

// New creates a Sheets client using Service Account credentials from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, sheetName string) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Months"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

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

// AppendMonth writes the closed month as one spreadsheet row. Pot
// snapshots are flattened into a summary column each so the row count
// stays one per month regardless of how many pots exist.
func (c *Client) AppendMonth(ctx context.Context, month core.HistoricMonth, spending []core.SpendingPotSnapshot, savings []core.SavingsPotSnapshot) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if month.EndDate == nil {
		return "", errors.New("month is still open")
	}

	// Find the next empty row from the sheet dimensions.
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get sheet dimensions for %s: %w", c.sheetName, err)
	}
	nextRow := len(resp.Values) + 1

	row := []any{
		month.StartDate.Format("2006-01-02"),
		month.EndDate.Format("2006-01-02"),
		month.Income.Pounds(),
		month.AmountSpent.Pounds(),
		month.AmountSaved.Pounds(),
		month.AmountLeftOver.Pounds(),
		month.SubscriptionCost.Pounds(),
		summarizeSpending(spending),
		summarizeSavings(savings),
	}

	dataRange := fmt.Sprintf("%s!A%d:I%d", c.sheetName, nextRow, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", dataRange, err)
	}

	return dataRange, nil
}

func summarizeSpending(snapshots []core.SpendingPotSnapshot) string {
	parts := make([]string, 0, len(snapshots))
	for _, s := range snapshots {
		parts = append(parts, fmt.Sprintf("%s: spent %s, left %s",
			s.Name, core.FormatPounds(s.AmountSpent.Pence), core.FormatPounds(s.AmountLeft.Pence)))
	}
	return strings.Join(parts, "; ")
}

func summarizeSavings(snapshots []core.SavingsPotSnapshot) string {
	parts := make([]string, 0, len(snapshots))
	for _, s := range snapshots {
		parts = append(parts, fmt.Sprintf("%s: %s",
			s.Name, core.FormatPounds(s.Balance.Pence)))
	}
	return strings.Join(parts, "; ")
}
