package repository

import (
	"context"

	"github.com/user/schema-cache/internal/entity"
)

// OrganizationRepository defines the interface for tenant lookup and onboarding.
type OrganizationRepository interface {
	// FindByID returns ErrOrganizationNotFound when no organization has the given id.
	FindByID(ctx context.Context, id string) (*entity.Organization, error)
	// SaveByDomain inserts the organization, or updates name, base_url and settings of the
	// one already registered for the same domain. The stored row is returned.
	SaveByDomain(ctx context.Context, org *entity.Organization) (*entity.Organization, error)
}
