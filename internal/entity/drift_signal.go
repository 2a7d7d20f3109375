package entity

import (
	"encoding/json"
	"time"
)

// DriftType classifies a detected drift.
type DriftType string

const DriftTypeContentChange DriftType = "content_change"

// DriftSignal mirrors the `drift_signals` PostgreSQL table schema.
type DriftSignal struct {
	ID             string
	OrganizationID string
	PageURL        string
	ContentHash    string
	PreviousHash   *string
	DriftDetected  bool
	DriftType      *DriftType
	Processed      bool
	ProcessedAt    *time.Time
	Signals        json.RawMessage // full payload posted by the loader, Stored as JSONB
	CreatedAt      time.Time
}

// DriftedPage is the latest unprocessed drift observation for one page.
type DriftedPage struct {
	PageURL       string
	CurrentHash   string
	PreviousHash  *string
	FirstDetected time.Time // created_at of the most recent retained row
	Signals       json.RawMessage
}
