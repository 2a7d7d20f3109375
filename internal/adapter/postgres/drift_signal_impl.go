package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/schema-cache/internal/entity"
	"github.com/user/schema-cache/internal/repository"
)

// foreignKeyViolation is the PostgreSQL SQLSTATE raised when organization_id is unknown.
const foreignKeyViolation = "23503"

// DriftSignalRepoImpl provides a concrete implementation for the DriftSignalRepository interface using PostgreSQL.
type DriftSignalRepoImpl struct {
	db *pgxpool.Pool
}

// NewDriftSignalRepo creates a new instance of DriftSignalRepoImpl.
func NewDriftSignalRepo(db *pgxpool.Pool) *DriftSignalRepoImpl {
	return &DriftSignalRepoImpl{db: db}
}

// Save appends a drift signal. created_at is set by the database when zero.
// An unknown organization_id surfaces as repository.ErrOrganizationNotFound.
func (r *DriftSignalRepoImpl) Save(ctx context.Context, signal *entity.DriftSignal) error {
	if signal.ID == "" {
		signal.ID = uuid.Must(uuid.NewV7()).String()
	}
	var driftType *string
	if signal.DriftType != nil {
		t := string(*signal.DriftType)
		driftType = &t
	}
	var createdAt *time.Time
	if !signal.CreatedAt.IsZero() {
		createdAt = &signal.CreatedAt
	}

	query := `
		INSERT INTO drift_signals (id, organization_id, page_url, content_hash, previous_hash, drift_detected, drift_type, signals, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()))
		RETURNING created_at;
	`
	err := r.db.QueryRow(ctx, query,
		signal.ID,
		signal.OrganizationID,
		signal.PageURL,
		signal.ContentHash,
		signal.PreviousHash,
		signal.DriftDetected,
		driftType,
		[]byte(signal.Signals),
		createdAt,
	).Scan(&signal.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return repository.ErrOrganizationNotFound
	}
	return err
}

// MarkProcessed clears the unprocessed backlog of one page.
func (r *DriftSignalRepoImpl) MarkProcessed(ctx context.Context, organizationID, pageURL string, at time.Time) (int64, error) {
	query := `
		UPDATE drift_signals
		SET processed = TRUE, processed_at = $3
		WHERE organization_id = $1 AND page_url = $2 AND processed = FALSE;
	`
	tag, err := r.db.Exec(ctx, query, organizationID, pageURL, at)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// FindUnprocessedDrift retrieves pending drift, most recent first.
func (r *DriftSignalRepoImpl) FindUnprocessedDrift(ctx context.Context, organizationID string) ([]*entity.DriftSignal, error) {
	query := `
		SELECT id, organization_id, page_url, content_hash, previous_hash, drift_detected, drift_type, processed, processed_at, signals, created_at
		FROM drift_signals
		WHERE organization_id = $1 AND drift_detected = TRUE AND processed = FALSE
		ORDER BY created_at DESC, id DESC;
	`
	rows, err := r.db.Query(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []*entity.DriftSignal
	for rows.Next() {
		var s entity.DriftSignal
		var driftType *string
		var payload []byte
		if err := rows.Scan(
			&s.ID,
			&s.OrganizationID,
			&s.PageURL,
			&s.ContentHash,
			&s.PreviousHash,
			&s.DriftDetected,
			&driftType,
			&s.Processed,
			&s.ProcessedAt,
			&payload,
			&s.CreatedAt,
		); err != nil {
			return nil, err
		}
		if driftType != nil {
			dt := entity.DriftType(*driftType)
			s.DriftType = &dt
		}
		s.Signals = payload
		signals = append(signals, &s)
	}

	return signals, rows.Err()
}
