package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/user/schema-cache/internal/entity"
	"github.com/user/schema-cache/internal/repository"
)

// RegisterOrganizationInput describes a tenant at onboarding time.
type RegisterOrganizationInput struct {
	Name     string
	Domain   string
	BaseURL  string // defaults to https://<domain>
	Settings json.RawMessage
	APIKey   string // empty generates a random key; ignored when the domain is already registered
}

// Onboarding defines the interface for registering tenants.
type Onboarding interface {
	// Register creates the organization with a fresh id and API key, or refreshes the
	// name, base URL and settings of the one already registered for the domain.
	Register(ctx context.Context, in RegisterOrganizationInput) (*entity.Organization, error)
}

type onboardingUseCase struct {
	orgRepo repository.OrganizationRepository
}

// NewOnboarding creates a new Onboarding use case.
func NewOnboarding(orgRepo repository.OrganizationRepository) Onboarding {
	return &onboardingUseCase{orgRepo: orgRepo}
}

func (uc *onboardingUseCase) Register(ctx context.Context, in RegisterOrganizationInput) (*entity.Organization, error) {
	domain := strings.ToLower(strings.TrimSpace(in.Domain))
	if domain == "" {
		return nil, fmt.Errorf("%w: domain is required", ErrInvalidInput)
	}
	baseURL := in.BaseURL
	if baseURL == "" {
		baseURL = "https://" + domain
	}
	settings := in.Settings
	if len(settings) == 0 {
		settings = json.RawMessage(`{}`)
	}
	if !json.Valid(settings) {
		return nil, fmt.Errorf("%w: settings is not valid JSON", ErrInvalidInput)
	}

	apiKey := in.APIKey
	if apiKey == "" {
		var err error
		if apiKey, err = newAPIKey(); err != nil {
			return nil, err
		}
	}

	org, err := uc.orgRepo.SaveByDomain(ctx, &entity.Organization{
		ID:       uuid.Must(uuid.NewV7()).String(),
		Name:     in.Name,
		Domain:   domain,
		BaseURL:  baseURL,
		APIKey:   apiKey,
		Settings: settings,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save organization %s: %w", domain, err)
	}

	slog.Info("Organization registered", "organization_id", org.ID, "domain", org.Domain)
	return org, nil
}

func newAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate API key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
