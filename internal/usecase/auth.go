package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/user/schema-cache/internal/repository"
)

// authorize checks apiKey against the organization's shared secret.
func authorize(ctx context.Context, orgs repository.OrganizationRepository, organizationID, apiKey string) error {
	if apiKey == "" {
		return ErrMissingAPIKey
	}
	org, err := orgs.FindByID(ctx, organizationID)
	if err != nil {
		if errors.Is(err, repository.ErrOrganizationNotFound) {
			return ErrInvalidAPIKey
		}
		return fmt.Errorf("failed to load organization %s: %w", organizationID, err)
	}
	if subtle.ConstantTimeCompare([]byte(org.APIKey), []byte(apiKey)) != 1 {
		return ErrInvalidAPIKey
	}
	return nil
}
