// Package fuel turns uploaded fuel receipts into logged fuel records.
package fuel

import (
	"time"

	"github.com/zombor/fuel-logger/internal/extraction"
	"github.com/zombor/fuel-logger/internal/scanning"
)

// Receipt is one uploaded fuel receipt and what was read from it
type Receipt struct {
	ID          string             `json:"id"`
	Engine      scanning.Engine    `json:"engine"`
	Filename    string             `json:"filename"`
	ContentType string             `json:"content_type"`
	RawText     string             `json:"raw_text"`
	Fields      extraction.Record  `json:"fields"`
	Derived     []extraction.Field `json:"derived,omitempty"`
	Missing     []extraction.Field `json:"missing,omitempty"`
	Logged      bool               `json:"logged"`    // ledger append succeeded
	LoggedAt    time.Time          `json:"logged_at"` // set by the ledger write, not by extraction
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}
