package repository

import (
	"context"
	"time"

	"github.com/user/schema-cache/internal/entity"
)

// DriftSignalRepository defines the interface for the append-only drift log.
type DriftSignalRepository interface {
	// Save appends a signal.
	Save(ctx context.Context, signal *entity.DriftSignal) error
	// MarkProcessed flags every unprocessed signal of the page as processed and
	// returns how many rows changed.
	MarkProcessed(ctx context.Context, organizationID, pageURL string, at time.Time) (int64, error)
	// FindUnprocessedDrift returns unprocessed, drift-detected signals of the organization,
	// most recent first.
	FindUnprocessedDrift(ctx context.Context, organizationID string) ([]*entity.DriftSignal, error)
}
