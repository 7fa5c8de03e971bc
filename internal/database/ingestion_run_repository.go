package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/evently/evently/internal/models"
)

// PostgresRunRepository implements ingestion.RunRepository on PostgreSQL.
type PostgresRunRepository struct {
	db *sql.DB
}

// NewPostgresRunRepository creates a new PostgreSQL run repository.
func NewPostgresRunRepository(db *sql.DB) *PostgresRunRepository {
	return &PostgresRunRepository{db: db}
}

// Create stores a finished ingestion run.
func (r *PostgresRunRepository) Create(ctx context.Context, run models.IngestionRun) error {
	query := `
		INSERT INTO ingestion_runs (
			id, triggered_by, window_start, window_end, status,
			fetched, accepted, rejected, upserted, error,
			started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	var runErr *string
	if run.Error != "" {
		runErr = &run.Error
	}

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.Trigger, run.WindowStart, run.WindowEnd, run.Status,
		run.Fetched, run.Accepted, run.Rejected, run.Upserted, runErr,
		run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ingestion run: %w", err)
	}
	return nil
}

// List returns the most recent runs first.
func (r *PostgresRunRepository) List(ctx context.Context, limit int) ([]models.IngestionRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, triggered_by, window_start, window_end, status,
		       fetched, accepted, rejected, upserted, error,
		       started_at, finished_at
		FROM ingestion_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingestion runs: %w", err)
	}
	defer rows.Close()

	runs := make([]models.IngestionRun, 0, limit)
	for rows.Next() {
		var run models.IngestionRun
		var runErr sql.NullString

		err := rows.Scan(
			&run.ID, &run.Trigger, &run.WindowStart, &run.WindowEnd, &run.Status,
			&run.Fetched, &run.Accepted, &run.Rejected, &run.Upserted, &runErr,
			&run.StartedAt, &run.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ingestion run: %w", err)
		}

		if runErr.Valid {
			run.Error = runErr.String
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading ingestion runs: %w", err)
	}
	return runs, nil
}
