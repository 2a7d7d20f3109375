package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/schema-cache/internal/adapter/memory"
)

func TestRegister_NewOrganization(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	onboarding := NewOnboarding(store.Organizations())

	org, err := onboarding.Register(ctx, RegisterOrganizationInput{Name: "Example", Domain: " Example.com "})
	require.NoError(t, err)

	assert.NotEmpty(t, org.ID)
	assert.Equal(t, "example.com", org.Domain)
	assert.Equal(t, "https://example.com", org.BaseURL)
	assert.Len(t, org.APIKey, 64)
	assert.JSONEq(t, `{}`, string(org.Settings))

	stored, err := store.Organizations().FindByID(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, org.APIKey, stored.APIKey)
}

func TestRegister_SameDomainKeepsKey(t *testing.T) {
	ctx := context.Background()
	onboarding := NewOnboarding(memory.NewStore().Organizations())

	first, err := onboarding.Register(ctx, RegisterOrganizationInput{Name: "A", Domain: "a.com"})
	require.NoError(t, err)
	second, err := onboarding.Register(ctx, RegisterOrganizationInput{
		Name: "A renamed", Domain: "a.com", BaseURL: "https://www.a.com", Settings: json.RawMessage(`{"phase":"live"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.APIKey, second.APIKey)
	assert.Equal(t, "A renamed", second.Name)
	assert.Equal(t, "https://www.a.com", second.BaseURL)
	assert.JSONEq(t, `{"phase":"live"}`, string(second.Settings))
}

func TestRegister_Validation(t *testing.T) {
	onboarding := NewOnboarding(memory.NewStore().Organizations())

	_, err := onboarding.Register(context.Background(), RegisterOrganizationInput{Name: "no domain"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = onboarding.Register(context.Background(), RegisterOrganizationInput{Domain: "a.com", Settings: json.RawMessage(`{`)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegister_FixedAPIKey(t *testing.T) {
	ctx := context.Background()
	onboarding := NewOnboarding(memory.NewStore().Organizations())

	org, err := onboarding.Register(ctx, RegisterOrganizationInput{Domain: "dev.local", APIKey: "dev-key"})
	require.NoError(t, err)
	assert.Equal(t, "dev-key", org.APIKey)

	// An existing organization keeps its key.
	again, err := onboarding.Register(ctx, RegisterOrganizationInput{Domain: "dev.local", APIKey: "other"})
	require.NoError(t, err)
	assert.Equal(t, "dev-key", again.APIKey)
}
