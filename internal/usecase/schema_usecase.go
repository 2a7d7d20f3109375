package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/schema-cache/internal/entity"
	"github.com/user/schema-cache/internal/repository"
	"github.com/user/schema-cache/pkg/metrics"
	"github.com/user/schema-cache/pkg/utils"
)

// UpdateSchemaInput is a create-or-update request for one page.
type UpdateSchemaInput struct {
	OrganizationID string
	PageURL        string
	SchemaJSON     json.RawMessage
	ContentHash    string // empty clears the stored hash
	SourceMode     entity.SourceMode
}

// SchemaManager defines the interface for writing and reading page schemas.
type SchemaManager interface {
	// Update authenticates apiKey, upserts the schema and clears the page's drift backlog.
	// It returns the new cache_version.
	Update(ctx context.Context, apiKey string, in UpdateSchemaInput) (int, error)
	// Get resolves the schema of a page, tolerating a trailing slash stored on either side.
	// Returns repository.ErrSchemaNotFound when the page has no schema.
	Get(ctx context.Context, organizationID, pageURL string) (*entity.PageSchema, error)
}

type schemaUseCase struct {
	orgRepo    repository.OrganizationRepository
	schemaRepo repository.PageSchemaRepository
	driftRepo  repository.DriftSignalRepository
	now        func() time.Time
}

// NewSchemaManager creates a new SchemaManager use case.
func NewSchemaManager(
	orgRepo repository.OrganizationRepository,
	schemaRepo repository.PageSchemaRepository,
	driftRepo repository.DriftSignalRepository,
) SchemaManager {
	return &schemaUseCase{
		orgRepo:    orgRepo,
		schemaRepo: schemaRepo,
		driftRepo:  driftRepo,
		now:        time.Now,
	}
}

func (uc *schemaUseCase) Update(ctx context.Context, apiKey string, in UpdateSchemaInput) (int, error) {
	if apiKey == "" {
		return 0, ErrMissingAPIKey
	}
	if err := validateUpdate(&in); err != nil {
		return 0, err
	}
	if err := authorize(ctx, uc.orgRepo, in.OrganizationID, apiKey); err != nil {
		return 0, err
	}

	pageURL := utils.NormalizePageURL(in.PageURL)
	schema := &entity.PageSchema{
		OrganizationID: in.OrganizationID,
		PageURL:        pageURL,
		SchemaJSON:     in.SchemaJSON,
		SourceMode:     in.SourceMode,
	}
	if in.ContentHash != "" {
		hash := in.ContentHash
		schema.ContentHash = &hash
	}

	version, err := uc.schemaRepo.Upsert(ctx, schema)
	if err != nil {
		return 0, fmt.Errorf("failed to save schema for %s: %w", pageURL, err)
	}
	operation := "update"
	if version == 1 {
		operation = "insert"
	}
	metrics.SchemaUpdatesTotal.WithLabelValues(operation).Inc()

	cleared, err := uc.driftRepo.MarkProcessed(ctx, in.OrganizationID, pageURL, uc.now())
	if err != nil {
		return 0, fmt.Errorf("failed to clear drift backlog for %s: %w", pageURL, err)
	}

	slog.Info("Schema saved",
		"organization_id", in.OrganizationID,
		"page_url", pageURL,
		"cache_version", version,
		"drift_cleared", cleared,
	)
	return version, nil
}

func validateUpdate(in *UpdateSchemaInput) error {
	raw := bytes.TrimSpace(in.SchemaJSON)
	if in.OrganizationID == "" || in.PageURL == "" || len(raw) == 0 {
		return fmt.Errorf("%w: missing required fields", ErrInvalidInput)
	}
	if !json.Valid(raw) {
		return fmt.Errorf("%w: schema_json is not valid JSON", ErrInvalidInput)
	}
	if isEmptyJSON(raw) {
		return fmt.Errorf("%w: missing required fields", ErrInvalidInput)
	}
	in.SchemaJSON = raw
	if in.SourceMode == "" {
		in.SourceMode = entity.SourceModeExternal
	}
	if !in.SourceMode.Valid() {
		return fmt.Errorf("%w: unknown source_mode %q", ErrInvalidInput, in.SourceMode)
	}
	return nil
}

// isEmptyJSON reports whether raw is null, false, an empty string or numeric zero.
func isEmptyJSON(raw json.RawMessage) bool {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return true
	}
	switch v := value.(type) {
	case nil:
		return true
	case bool:
		return !v
	case string:
		return v == ""
	case json.Number:
		f, err := v.Float64()
		return err == nil && f == 0
	}
	return false
}

func (uc *schemaUseCase) Get(ctx context.Context, organizationID, pageURL string) (*entity.PageSchema, error) {
	normalized := utils.NormalizePageURL(pageURL)

	schema, err := uc.schemaRepo.FindByURL(ctx, organizationID, normalized)
	if errors.Is(err, repository.ErrSchemaNotFound) {
		// Rows written before normalization was enforced may still carry the slash.
		schema, err = uc.schemaRepo.FindByURL(ctx, organizationID, normalized+"/")
	}
	if err != nil {
		if errors.Is(err, repository.ErrSchemaNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load schema for %s: %w", normalized, err)
	}
	return schema, nil
}
