package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/evently/evently/internal/models"
	"github.com/lib/pq"
)

// upsertChunkSize caps rows per INSERT so the statement stays well under
// Postgres's placeholder limit (22 parameters per row).
const upsertChunkSize = 500

// eventColumns are the canonical event columns in insert order, excluding
// the serial id and the timestamps handled by defaults.
var eventColumns = []string{
	"eventbrite_id", "name", "description", "url", "start_time", "end_time",
	"is_free", "currency", "min_price", "max_price",
	"venue_id", "venue_name", "venue_address", "latitude", "longitude",
	"organizer_id", "organizer_name", "image_url",
	"category_id", "category_name", "status", "raw_data",
}

// PostgresEventRepository implements ingestion.EventRepository on PostgreSQL.
type PostgresEventRepository struct {
	db *sql.DB
}

// NewPostgresEventRepository creates a new PostgreSQL event repository.
func NewPostgresEventRepository(db *sql.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

// UpsertBatch bulk-inserts events with ON CONFLICT (eventbrite_id) DO
// UPDATE, fully overwriting matched rows. The whole batch runs in one
// transaction: a failure anywhere rolls back every row. Returns the number
// of rows affected; an empty batch is a no-op reporting zero.
func (r *PostgresEventRepository) UpsertBatch(ctx context.Context, events []models.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	total := 0
	for start := 0; start < len(events); start += upsertChunkSize {
		end := start + upsertChunkSize
		if end > len(events) {
			end = len(events)
		}

		affected, err := r.upsertChunk(ctx, tx, events[start:end])
		if err != nil {
			return 0, err
		}
		total += affected
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit upsert: %w", err)
	}
	return total, nil
}

func (r *PostgresEventRepository) upsertChunk(ctx context.Context, tx *sql.Tx, events []models.Event) (int, error) {
	cols := len(eventColumns)
	placeholders := make([]string, 0, len(events))
	args := make([]interface{}, 0, len(events)*cols)

	for i, ev := range events {
		slots := make([]string, cols)
		for j := range slots {
			slots[j] = fmt.Sprintf("$%d", i*cols+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(slots, ", ")+")")

		rawData := ev.RawData
		if len(rawData) == 0 {
			rawData = json.RawMessage("{}")
		}

		args = append(args,
			ev.EventbriteID, ev.Name, ev.Description, ev.URL, ev.StartTime, ev.EndTime,
			ev.IsFree, ev.Currency, ev.MinPrice, ev.MaxPrice,
			ev.VenueID, ev.VenueName, ev.VenueAddress, ev.Latitude, ev.Longitude,
			ev.OrganizerID, ev.OrganizerName, ev.ImageURL,
			ev.CategoryID, ev.CategoryName, ev.Status, []byte(rawData),
		)
	}

	updates := make([]string, 0, cols)
	for _, col := range eventColumns[1:] { // skip the conflict key itself
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	updates = append(updates, "updated_at = NOW()")

	query := fmt.Sprintf(`
		INSERT INTO events (%s)
		VALUES %s
		ON CONFLICT (eventbrite_id) DO UPDATE SET %s
	`, strings.Join(eventColumns, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ", "))

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return 0, fmt.Errorf("upsert failed: %s (%s): %w", pqErr.Message, pqErr.Code, err)
		}
		return 0, fmt.Errorf("upsert failed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return int(affected), nil
}

// GetByEventbriteID retrieves an event by its external identifier. Returns
// nil without error when no row matches.
func (r *PostgresEventRepository) GetByEventbriteID(ctx context.Context, eventbriteID string) (*models.Event, error) {
	query := selectEvents + " WHERE eventbrite_id = $1"

	row := r.db.QueryRowContext(ctx, query, eventbriteID)
	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query event: %w", err)
	}
	return event, nil
}

// Query retrieves a page of stored events ordered by start time.
func (r *PostgresEventRepository) Query(ctx context.Context, query models.EventQuery) (*models.EventPage, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	where, args := buildEventFilters(query)

	total, err := r.count(ctx, where, args)
	if err != nil {
		return nil, err
	}

	sqlQuery := selectEvents + where +
		fmt.Sprintf(" ORDER BY start_time ASC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, query.Limit, query.GetOffset())

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := make([]models.Event, 0, query.Limit)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading events: %w", err)
	}

	end := query.GetOffset() + len(events)
	return &models.EventPage{
		Events:  events,
		Page:    query.Page,
		Limit:   query.Limit,
		Total:   total,
		HasMore: end < total,
	}, nil
}

// Count returns the number of stored events matching the filters.
func (r *PostgresEventRepository) Count(ctx context.Context, query models.EventQuery) (int, error) {
	where, args := buildEventFilters(query)
	return r.count(ctx, where, args)
}

func (r *PostgresEventRepository) count(ctx context.Context, where string, args []interface{}) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events"+where, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return total, nil
}

// buildEventFilters translates an EventQuery into a WHERE clause.
func buildEventFilters(query models.EventQuery) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}

	if query.From != nil {
		args = append(args, *query.From)
		conditions = append(conditions, fmt.Sprintf("start_time >= $%d", len(args)))
	}
	if query.To != nil {
		args = append(args, *query.To)
		conditions = append(conditions, fmt.Sprintf("start_time < $%d", len(args)))
	}
	if query.IsFree != nil {
		args = append(args, *query.IsFree)
		conditions = append(conditions, fmt.Sprintf("is_free = $%d", len(args)))
	}
	if query.CategoryID != "" {
		args = append(args, query.CategoryID)
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if query.Search != "" {
		args = append(args, "%"+query.Search+"%")
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

const selectEvents = `
	SELECT id, eventbrite_id, name, description, url, start_time, end_time,
	       is_free, currency, min_price, max_price,
	       venue_id, venue_name, venue_address, latitude, longitude,
	       organizer_id, organizer_name, image_url,
	       category_id, category_name, status, raw_data, created_at, updated_at
	FROM events`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var (
		event        models.Event
		description  sql.NullString
		url          sql.NullString
		isFree       sql.NullBool
		currency     sql.NullString
		minPrice     sql.NullFloat64
		maxPrice     sql.NullFloat64
		venueID      sql.NullString
		venueName    sql.NullString
		venueAddress sql.NullString
		latitude     sql.NullFloat64
		longitude    sql.NullFloat64
		organizerID  sql.NullString
		organizerName sql.NullString
		imageURL     sql.NullString
		categoryID   sql.NullString
		categoryName sql.NullString
		status       sql.NullString
		rawData      []byte
	)

	err := row.Scan(
		&event.ID, &event.EventbriteID, &event.Name, &description, &url,
		&event.StartTime, &event.EndTime,
		&isFree, &currency, &minPrice, &maxPrice,
		&venueID, &venueName, &venueAddress, &latitude, &longitude,
		&organizerID, &organizerName, &imageURL,
		&categoryID, &categoryName, &status, &rawData,
		&event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	event.Description = nullStr(description)
	event.URL = nullStr(url)
	event.Currency = nullStr(currency)
	event.VenueID = nullStr(venueID)
	event.VenueName = nullStr(venueName)
	event.VenueAddress = nullStr(venueAddress)
	event.OrganizerID = nullStr(organizerID)
	event.OrganizerName = nullStr(organizerName)
	event.ImageURL = nullStr(imageURL)
	event.CategoryID = nullStr(categoryID)
	event.CategoryName = nullStr(categoryName)
	event.Status = nullStr(status)
	event.IsFree = nullBool(isFree)
	event.MinPrice = nullFloat(minPrice)
	event.MaxPrice = nullFloat(maxPrice)
	event.Latitude = nullFloat(latitude)
	event.Longitude = nullFloat(longitude)
	event.RawData = json.RawMessage(rawData)

	return &event, nil
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullBool(v sql.NullBool) *bool {
	if !v.Valid {
		return nil
	}
	return &v.Bool
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
