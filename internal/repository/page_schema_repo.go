package repository

import (
	"context"

	"github.com/user/schema-cache/internal/entity"
)

// PageSchemaRepository defines the interface for the per-page JSON-LD store.
type PageSchemaRepository interface {
	// FindByURL looks up the schema stored under exactly pageURL. No normalization is applied.
	// Returns ErrSchemaNotFound if absent.
	FindByURL(ctx context.Context, organizationID, pageURL string) (*entity.PageSchema, error)
	// Upsert inserts the schema with cache_version 1, or replaces schema_json, content_hash
	// and source_mode of the existing row and increments its cache_version by one.
	// The resulting cache_version is returned.
	Upsert(ctx context.Context, schema *entity.PageSchema) (int, error)
}
