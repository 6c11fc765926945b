package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Email archives the raw supplier email and the structured data extracted from it.
// Rows are written once and never modified. Stored in emails table.
type Email struct {
	ID            uuid.UUID       `json:"id"`
	QuoteID       *uuid.UUID      `json:"quote_id,omitempty"`
	Content       string          `json:"content"`
	ExtractedData json.RawMessage `json:"extracted_data,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
