package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/user/schema-cache/internal/entity"
	"github.com/user/schema-cache/internal/repository"
	"github.com/user/schema-cache/pkg/metrics"
	"github.com/user/schema-cache/pkg/utils"
)

// CollectSignalInput is one fingerprint posted by the loader script.
type CollectSignalInput struct {
	OrganizationID string
	URL            string
	Signals        json.RawMessage // must be an object carrying content_hash
}

// DriftManager defines the interface for recording page signals and reading pending drift.
type DriftManager interface {
	// Collect records the signal and reports whether it differs from the stored schema's hash.
	Collect(ctx context.Context, in CollectSignalInput) (bool, error)
	// ListDrift authenticates apiKey and returns the latest unprocessed drift per page.
	// limit <= 0 returns every page.
	ListDrift(ctx context.Context, apiKey, organizationID string, limit int) ([]entity.DriftedPage, error)
}

type driftUseCase struct {
	orgRepo    repository.OrganizationRepository
	schemaRepo repository.PageSchemaRepository
	driftRepo  repository.DriftSignalRepository
}

// NewDriftManager creates a new DriftManager use case.
func NewDriftManager(
	orgRepo repository.OrganizationRepository,
	schemaRepo repository.PageSchemaRepository,
	driftRepo repository.DriftSignalRepository,
) DriftManager {
	return &driftUseCase{
		orgRepo:    orgRepo,
		schemaRepo: schemaRepo,
		driftRepo:  driftRepo,
	}
}

func (uc *driftUseCase) Collect(ctx context.Context, in CollectSignalInput) (bool, error) {
	if in.OrganizationID == "" || in.URL == "" {
		return false, fmt.Errorf("%w: missing required fields", ErrInvalidInput)
	}
	contentHash, err := contentHashOf(in.Signals)
	if err != nil {
		return false, err
	}

	pageURL := utils.NormalizePageURL(in.URL)

	// The baseline is the hash recorded with the schema, never a previous signal.
	var previousHash *string
	schema, err := uc.schemaRepo.FindByURL(ctx, in.OrganizationID, pageURL)
	switch {
	case err == nil:
		previousHash = schema.ContentHash
	case errors.Is(err, repository.ErrSchemaNotFound):
	default:
		return false, fmt.Errorf("failed to load baseline hash for %s: %w", pageURL, err)
	}

	driftDetected := previousHash != nil && *previousHash != contentHash
	signal := &entity.DriftSignal{
		OrganizationID: in.OrganizationID,
		PageURL:        pageURL,
		ContentHash:    contentHash,
		PreviousHash:   previousHash,
		DriftDetected:  driftDetected,
		Signals:        in.Signals,
	}
	if driftDetected {
		driftType := entity.DriftTypeContentChange
		signal.DriftType = &driftType
	}

	if err := uc.driftRepo.Save(ctx, signal); err != nil {
		if errors.Is(err, repository.ErrOrganizationNotFound) {
			return false, fmt.Errorf("%w: unknown organization", ErrInvalidInput)
		}
		return false, fmt.Errorf("failed to save drift signal for %s: %w", pageURL, err)
	}
	metrics.DriftSignalsTotal.WithLabelValues(strconv.FormatBool(driftDetected)).Inc()

	if driftDetected {
		slog.Info("Drift detected",
			"organization_id", in.OrganizationID,
			"page_url", pageURL,
			"previous_hash", *previousHash,
			"content_hash", contentHash,
		)
	}
	return driftDetected, nil
}

func contentHashOf(signals json.RawMessage) (string, error) {
	var payload struct {
		ContentHash json.RawMessage `json:"content_hash"`
	}
	if len(signals) == 0 || json.Unmarshal(signals, &payload) != nil {
		return "", fmt.Errorf("%w: missing required fields", ErrInvalidInput)
	}
	dec := json.NewDecoder(bytes.NewReader(payload.ContentHash))
	dec.UseNumber()
	var value any
	if len(payload.ContentHash) == 0 || dec.Decode(&value) != nil {
		return "", fmt.Errorf("%w: missing required fields", ErrInvalidInput)
	}
	switch v := value.(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case json.Number:
		// Numeric hashes are kept in their literal text form.
		if f, err := v.Float64(); err == nil && f != 0 {
			return v.String(), nil
		}
	}
	return "", fmt.Errorf("%w: missing required fields", ErrInvalidInput)
}

func (uc *driftUseCase) ListDrift(ctx context.Context, apiKey, organizationID string, limit int) ([]entity.DriftedPage, error) {
	if organizationID == "" {
		return nil, fmt.Errorf("%w: missing organization_id", ErrInvalidInput)
	}
	if err := authorize(ctx, uc.orgRepo, organizationID, apiKey); err != nil {
		return nil, err
	}

	signals, err := uc.driftRepo.FindUnprocessedDrift(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load drift signals: %w", err)
	}
	return latestPerPage(signals, limit), nil
}

// latestPerPage keeps the first signal seen for each page. signals must be ordered
// most recent first, so the retained row is the newest one and FirstDetected carries
// its created_at.
func latestPerPage(signals []*entity.DriftSignal, limit int) []entity.DriftedPage {
	seen := make(map[string]struct{}, len(signals))
	pages := make([]entity.DriftedPage, 0)
	for _, s := range signals {
		if _, ok := seen[s.PageURL]; ok {
			continue
		}
		seen[s.PageURL] = struct{}{}
		pages = append(pages, entity.DriftedPage{
			PageURL:       s.PageURL,
			CurrentHash:   s.ContentHash,
			PreviousHash:  s.PreviousHash,
			FirstDetected: s.CreatedAt,
			Signals:       s.Signals,
		})
		if limit > 0 && len(pages) == limit {
			break
		}
	}
	return pages
}
