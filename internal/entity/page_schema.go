package entity

import (
	"encoding/json"
	"strconv"
	"time"
)

// SourceMode records where a page schema came from.
type SourceMode string

const (
	SourceModeGeneration SourceMode = "generation"
	SourceModeProjection SourceMode = "projection"
	SourceModeExternal   SourceMode = "external"
)

// Valid reports whether m is one of the known source modes.
func (m SourceMode) Valid() bool {
	switch m {
	case SourceModeGeneration, SourceModeProjection, SourceModeExternal:
		return true
	}
	return false
}

// PageSchema mirrors the `page_schemas` PostgreSQL table schema.
type PageSchema struct {
	ID             string
	OrganizationID string
	PageURL        string          // normalized, no trailing slash
	SchemaJSON     json.RawMessage // opaque JSON-LD document, returned verbatim
	ContentHash    *string
	CacheVersion   int
	SourceMode     SourceMode
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ETag is the quoted cache_version, used by readers and edge caches.
func (s *PageSchema) ETag() string {
	return `"` + strconv.Itoa(s.CacheVersion) + `"`
}
