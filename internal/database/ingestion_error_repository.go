package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/evently/evently/internal/models"
	"github.com/google/uuid"
)

// PostgresErrorRepository implements ingestion.ErrorRepository on PostgreSQL.
type PostgresErrorRepository struct {
	db *sql.DB
}

// NewPostgresErrorRepository creates a new PostgreSQL error repository.
func NewPostgresErrorRepository(db *sql.DB) *PostgresErrorRepository {
	return &PostgresErrorRepository{db: db}
}

// Store saves an ingestion error.
func (r *PostgresErrorRepository) Store(ctx context.Context, ingErr models.IngestionError) error {
	if ingErr.ID == "" {
		ingErr.ID = uuid.New().String()
	}
	if ingErr.CreatedAt.IsZero() {
		ingErr.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO ingestion_errors (
			id, run_id, source, error_type, eventbrite_id, error_msg,
			created_at, resolved, resolved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		ingErr.ID, nullIfEmpty(ingErr.RunID), ingErr.Source, ingErr.ErrorType,
		nullIfEmpty(ingErr.EventbriteID), ingErr.ErrorMsg,
		ingErr.CreatedAt, ingErr.Resolved, ingErr.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ingestion error: %w", err)
	}
	return nil
}

// List retrieves ingestion errors, most recent first.
func (r *PostgresErrorRepository) List(ctx context.Context, limit int, unresolvedOnly bool) ([]models.IngestionError, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, run_id, source, error_type, eventbrite_id, error_msg,
		       created_at, resolved, resolved_at
		FROM ingestion_errors
	`
	if unresolvedOnly {
		query += " WHERE resolved = FALSE"
	}
	query += " ORDER BY created_at DESC LIMIT $1"

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingestion errors: %w", err)
	}
	defer rows.Close()

	errs := make([]models.IngestionError, 0, limit)
	for rows.Next() {
		var (
			ingErr       models.IngestionError
			runID        sql.NullString
			eventbriteID sql.NullString
			resolvedAt   sql.NullTime
		)

		err := rows.Scan(
			&ingErr.ID, &runID, &ingErr.Source, &ingErr.ErrorType,
			&eventbriteID, &ingErr.ErrorMsg,
			&ingErr.CreatedAt, &ingErr.Resolved, &resolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ingestion error: %w", err)
		}

		if runID.Valid {
			ingErr.RunID = runID.String
		}
		if eventbriteID.Valid {
			ingErr.EventbriteID = eventbriteID.String
		}
		if resolvedAt.Valid {
			ingErr.ResolvedAt = &resolvedAt.Time
		}
		errs = append(errs, ingErr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading ingestion errors: %w", err)
	}
	return errs, nil
}

// MarkResolved marks an error as resolved.
func (r *PostgresErrorRepository) MarkResolved(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE ingestion_errors SET resolved = TRUE, resolved_at = NOW() WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to resolve ingestion error: %w", err)
	}
	return nil
}

// CountUnresolved returns the count of unresolved errors.
func (r *PostgresErrorRepository) CountUnresolved(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ingestion_errors WHERE resolved = FALSE").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ingestion errors: %w", err)
	}
	return count, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
