// Package ledger writes finished fuel records to durable external storage.
package ledger

import (
	"time"

	"github.com/zombor/fuel-logger/internal/extraction"
)

// LoggedAtLayout is how the write timestamp appears in a ledger row
const LoggedAtLayout = "2006-01-02 15:04:05"

// Entry is a resolved record plus the time it was written
type Entry struct {
	Record   extraction.Record
	LoggedAt time.Time
}

// Sink accepts finished entries for durable storage
type Sink interface {
	Append(entry Entry) error
}

// Header returns the column titles matching Row
func Header() []interface{} {
	fields := extraction.Fields()
	row := make([]interface{}, 0, len(fields)+1)
	for _, f := range fields {
		row = append(row, string(f))
	}
	return append(row, "Logged_At")
}

// Row lays an entry out as one spreadsheet row in field display order,
// followed by the write timestamp. Absent values are empty cells.
func Row(entry Entry) []interface{} {
	fields := extraction.Fields()
	row := make([]interface{}, 0, len(fields)+1)
	for _, f := range fields {
		v := entry.Record.Get(f)
		if n, ok := v.AsFloat(); ok {
			row = append(row, n)
			continue
		}
		if n, ok := v.AsInt(); ok {
			row = append(row, n)
			continue
		}
		row = append(row, v.String())
	}
	return append(row, entry.LoggedAt.Format(LoggedAtLayout))
}

// Discard drops every entry. Used when no ledger is configured.
type Discard struct{}

// Append implements Sink
func (Discard) Append(Entry) error {
	return nil
}
