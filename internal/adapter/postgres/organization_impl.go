package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/schema-cache/internal/entity"
	"github.com/user/schema-cache/internal/repository"
)

// OrganizationRepoImpl provides a concrete implementation for the OrganizationRepository interface using PostgreSQL.
type OrganizationRepoImpl struct {
	db *pgxpool.Pool
}

// NewOrganizationRepo creates a new instance of OrganizationRepoImpl.
func NewOrganizationRepo(db *pgxpool.Pool) *OrganizationRepoImpl {
	return &OrganizationRepoImpl{db: db}
}

const organizationColumns = `id, name, domain, base_url, api_key, settings, created_at, updated_at`

// FindByID retrieves an organization, including its API key.
func (r *OrganizationRepoImpl) FindByID(ctx context.Context, id string) (*entity.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1;`
	org, err := scanOrganization(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrOrganizationNotFound
	}
	return org, err
}

// SaveByDomain inserts the organization or updates the one registered for its domain.
// id and api_key of an existing organization are never replaced.
func (r *OrganizationRepoImpl) SaveByDomain(ctx context.Context, org *entity.Organization) (*entity.Organization, error) {
	query := `
		INSERT INTO organizations (id, name, domain, base_url, api_key, settings)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (domain) DO UPDATE SET
			name = EXCLUDED.name,
			base_url = EXCLUDED.base_url,
			settings = EXCLUDED.settings,
			updated_at = NOW()
		RETURNING ` + organizationColumns + `;
	`
	return scanOrganization(r.db.QueryRow(ctx, query,
		org.ID,
		org.Name,
		org.Domain,
		org.BaseURL,
		org.APIKey,
		[]byte(org.Settings),
	))
}

func scanOrganization(row pgx.Row) (*entity.Organization, error) {
	var org entity.Organization
	var settings []byte
	if err := row.Scan(
		&org.ID,
		&org.Name,
		&org.Domain,
		&org.BaseURL,
		&org.APIKey,
		&settings,
		&org.CreatedAt,
		&org.UpdatedAt,
	); err != nil {
		return nil, err
	}
	org.Settings = settings
	return &org, nil
}
