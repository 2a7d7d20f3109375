// Package memory holds in-process implementations of the repository interfaces.
// They back STORE_DRIVER=memory for local runs and serve as fakes in tests.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/schema-cache/internal/entity"
	"github.com/user/schema-cache/internal/repository"
)

// Store keeps organizations, page schemas and drift signals in memory.
type Store struct {
	mu            sync.Mutex
	now           func() time.Time
	organizations map[string]*entity.Organization
	schemas       map[schemaKey]*entity.PageSchema
	signals       []*entity.DriftSignal
}

type schemaKey struct {
	organizationID string
	pageURL        string
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		now:           time.Now,
		organizations: make(map[string]*entity.Organization),
		schemas:       make(map[schemaKey]*entity.PageSchema),
	}
}

// WithClock replaces the time source, letting tests control created_at ordering.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Organizations, PageSchemas and DriftSignals expose the store through the repository interfaces.
func (s *Store) Organizations() repository.OrganizationRepository { return (*orgRepo)(s) }
func (s *Store) PageSchemas() repository.PageSchemaRepository     { return (*schemaRepo)(s) }
func (s *Store) DriftSignals() repository.DriftSignalRepository   { return (*signalRepo)(s) }

// Signals returns a snapshot of every stored signal in insertion order.
func (s *Store) Signals() []entity.DriftSignal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.DriftSignal, len(s.signals))
	for i, sig := range s.signals {
		out[i] = *sig
	}
	return out
}

type orgRepo Store

func (r *orgRepo) FindByID(_ context.Context, id string) (*entity.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	org, ok := r.organizations[id]
	if !ok {
		return nil, repository.ErrOrganizationNotFound
	}
	cp := *org
	return &cp, nil
}

func (r *orgRepo) SaveByDomain(_ context.Context, org *entity.Organization) (*entity.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for _, existing := range r.organizations {
		if existing.Domain == org.Domain {
			existing.Name = org.Name
			existing.BaseURL = org.BaseURL
			existing.Settings = cloneJSON(org.Settings)
			existing.UpdatedAt = now
			cp := *existing
			return &cp, nil
		}
	}
	stored := *org
	if stored.ID == "" {
		stored.ID = uuid.Must(uuid.NewV7()).String()
	}
	stored.Settings = cloneJSON(org.Settings)
	stored.CreatedAt, stored.UpdatedAt = now, now
	r.organizations[stored.ID] = &stored
	cp := stored
	return &cp, nil
}

type schemaRepo Store

func (r *schemaRepo) FindByURL(_ context.Context, organizationID, pageURL string) (*entity.PageSchema, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schemas[schemaKey{organizationID, pageURL}]
	if !ok {
		return nil, repository.ErrSchemaNotFound
	}
	cp := *s
	cp.SchemaJSON = cloneJSON(s.SchemaJSON)
	return &cp, nil
}

func (r *schemaRepo) Upsert(_ context.Context, schema *entity.PageSchema) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	key := schemaKey{schema.OrganizationID, schema.PageURL}
	if existing, ok := r.schemas[key]; ok {
		existing.SchemaJSON = cloneJSON(schema.SchemaJSON)
		existing.ContentHash = schema.ContentHash
		existing.SourceMode = schema.SourceMode
		existing.CacheVersion++
		existing.UpdatedAt = now
		return existing.CacheVersion, nil
	}
	stored := *schema
	stored.ID = uuid.Must(uuid.NewV7()).String()
	stored.SchemaJSON = cloneJSON(schema.SchemaJSON)
	stored.CacheVersion = 1
	stored.CreatedAt, stored.UpdatedAt = now, now
	r.schemas[key] = &stored
	return 1, nil
}

type signalRepo Store

func (r *signalRepo) Save(_ context.Context, signal *entity.DriftSignal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.organizations[signal.OrganizationID]; !ok {
		return repository.ErrOrganizationNotFound
	}
	stored := *signal
	if stored.ID == "" {
		stored.ID = uuid.Must(uuid.NewV7()).String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.now()
	}
	stored.Signals = cloneJSON(signal.Signals)
	r.signals = append(r.signals, &stored)
	signal.ID, signal.CreatedAt = stored.ID, stored.CreatedAt
	return nil
}

func (r *signalRepo) MarkProcessed(_ context.Context, organizationID, pageURL string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, sig := range r.signals {
		if sig.OrganizationID == organizationID && sig.PageURL == pageURL && !sig.Processed {
			sig.Processed = true
			processedAt := at
			sig.ProcessedAt = &processedAt
			n++
		}
	}
	return n, nil
}

func (r *signalRepo) FindUnprocessedDrift(_ context.Context, organizationID string) ([]*entity.DriftSignal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Walk newest first so equal timestamps keep insertion recency.
	var out []*entity.DriftSignal
	for i := len(r.signals) - 1; i >= 0; i-- {
		sig := r.signals[i]
		if sig.OrganizationID == organizationID && sig.DriftDetected && !sig.Processed {
			cp := *sig
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func cloneJSON(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}
