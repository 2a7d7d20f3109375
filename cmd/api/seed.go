package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/user/schema-cache/internal/entity"
	"github.com/user/schema-cache/internal/usecase"
	"github.com/user/schema-cache/pkg/config"
)

// seedOrganization registers SEED_ORG_DOMAIN so a memory-backed process has a tenant
// to write to. It returns nil when no seed domain is configured.
func seedOrganization(ctx context.Context, onboarding usecase.Onboarding, cfg *config.Config) (*entity.Organization, error) {
	if cfg.SeedOrgDomain == "" {
		return nil, nil
	}
	org, err := onboarding.Register(ctx, usecase.RegisterOrganizationInput{
		Name:   cfg.SeedOrgName,
		Domain: cfg.SeedOrgDomain,
		APIKey: cfg.SeedOrgAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed organization: %w", err)
	}
	slog.Info("Seeded organization",
		"organization_id", org.ID,
		"domain", org.Domain,
		"api_key", org.APIKey,
	)
	return org, nil
}
