package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/schema-cache/internal/entity"
	"github.com/user/schema-cache/internal/repository"
)

// PageSchemaRepoImpl provides a concrete implementation for the PageSchemaRepository interface using PostgreSQL.
type PageSchemaRepoImpl struct {
	db *pgxpool.Pool
}

// NewPageSchemaRepo creates a new instance of PageSchemaRepoImpl.
func NewPageSchemaRepo(db *pgxpool.Pool) *PageSchemaRepoImpl {
	return &PageSchemaRepoImpl{db: db}
}

// FindByURL retrieves the schema stored for exactly (organizationID, pageURL).
func (r *PageSchemaRepoImpl) FindByURL(ctx context.Context, organizationID, pageURL string) (*entity.PageSchema, error) {
	query := `
		SELECT id, organization_id, page_url, schema_json, content_hash, cache_version, source_mode, created_at, updated_at
		FROM page_schemas
		WHERE organization_id = $1 AND page_url = $2;
	`
	var s entity.PageSchema
	var schemaJSON []byte
	var sourceMode string
	err := r.db.QueryRow(ctx, query, organizationID, pageURL).Scan(
		&s.ID,
		&s.OrganizationID,
		&s.PageURL,
		&schemaJSON,
		&s.ContentHash,
		&s.CacheVersion,
		&sourceMode,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrSchemaNotFound
	}
	if err != nil {
		return nil, err
	}
	s.SchemaJSON = schemaJSON
	s.SourceMode = entity.SourceMode(sourceMode)
	return &s, nil
}

// Upsert writes the schema and bumps cache_version in a single statement, so
// concurrent writers to the same page never lose an increment.
func (r *PageSchemaRepoImpl) Upsert(ctx context.Context, schema *entity.PageSchema) (int, error) {
	query := `
		INSERT INTO page_schemas (id, organization_id, page_url, schema_json, content_hash, source_mode, cache_version)
		VALUES ($1, $2, $3, $4, $5, $6, 1)
		ON CONFLICT (organization_id, page_url) DO UPDATE SET
			schema_json = EXCLUDED.schema_json,
			content_hash = EXCLUDED.content_hash,
			source_mode = EXCLUDED.source_mode,
			cache_version = page_schemas.cache_version + 1,
			updated_at = NOW()
		RETURNING cache_version;
	`
	var version int
	err := r.db.QueryRow(ctx, query,
		uuid.Must(uuid.NewV7()).String(),
		schema.OrganizationID,
		schema.PageURL,
		[]byte(schema.SchemaJSON),
		schema.ContentHash,
		string(schema.SourceMode),
	).Scan(&version)
	return version, err
}
