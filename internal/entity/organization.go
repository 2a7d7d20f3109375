package entity

import (
	"encoding/json"
	"time"
)

// Organization mirrors the `organizations` PostgreSQL table schema.
type Organization struct {
	ID        string
	Name      string
	Domain    string
	BaseURL   string
	APIKey    string
	Settings  json.RawMessage // Stored as JSONB in PostgreSQL
	CreatedAt time.Time
	UpdatedAt time.Time
}
