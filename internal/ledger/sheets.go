package ledger

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Sheets appends entries as rows of a Google Sheets spreadsheet
type Sheets struct {
	service       *sheets.Service
	spreadsheetID string
	sheetRange    string
	timeout       time.Duration
}

// NewSheets creates a Sheets sink. sheetRange is the A1 range rows are
// appended after, usually just the sheet name.
func NewSheets(spreadsheetID, sheetRange string, opts ...option.ClientOption) (*Sheets, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	if sheetRange == "" {
		sheetRange = "Sheet1"
	}

	svc, err := sheets.NewService(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets client: %w", err)
	}

	return &Sheets{
		service:       svc,
		spreadsheetID: spreadsheetID,
		sheetRange:    sheetRange,
		timeout:       15 * time.Second,
	}, nil
}

// Append writes the entry as a new row. Values are entered as if typed by a
// user so the sheet parses numbers and the timestamp.
func (s *Sheets) Append(entry Entry) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	values := &sheets.ValueRange{Values: [][]interface{}{Row(entry)}}
	_, err := s.service.Spreadsheets.Values.
		Append(s.spreadsheetID, s.sheetRange, values).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("appending row to sheet: %w", err)
	}
	return nil
}
