package ingestion

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/evently/evently/internal/models"
)

// EventRepository defines the persistence surface the ingestor reconciles
// against. UpsertBatch is the only write path the pipeline uses.
type EventRepository interface {
	// UpsertBatch performs a single bulk insert-or-update keyed on
	// eventbrite_id, fully overwriting matched rows. It is atomic: either
	// every record in the batch is written or none are. An empty batch is
	// a no-op reporting zero writes. Returns the number of rows affected.
	UpsertBatch(ctx context.Context, events []models.Event) (int, error)

	// GetByEventbriteID retrieves an event by its external identifier.
	// Returns nil without error when no row matches.
	GetByEventbriteID(ctx context.Context, eventbriteID string) (*models.Event, error)

	// Query retrieves a page of stored events matching the filters.
	Query(ctx context.Context, query models.EventQuery) (*models.EventPage, error)

	// Count returns the number of stored events matching the filters.
	Count(ctx context.Context, query models.EventQuery) (int, error)
}

// RunRepository records ingestion run summaries.
type RunRepository interface {
	Create(ctx context.Context, run models.IngestionRun) error
	List(ctx context.Context, limit int) ([]models.IngestionRun, error)
}

// ErrorRepository records run-level failures and per-record rejections.
type ErrorRepository interface {
	Store(ctx context.Context, ingErr models.IngestionError) error
	List(ctx context.Context, limit int, unresolvedOnly bool) ([]models.IngestionError, error)
	MarkResolved(ctx context.Context, id string) error
	CountUnresolved(ctx context.Context) (int, error)
}

// MemoryEventRepository is an in-memory EventRepository for tests and local
// development. It mirrors the SQL upsert's conflict-key semantics.
type MemoryEventRepository struct {
	mu     sync.RWMutex
	events map[string]models.Event // keyed by eventbrite_id
}

// NewMemoryEventRepository creates an empty in-memory event repository.
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{events: make(map[string]models.Event)}
}

// UpsertBatch inserts or fully overwrites each event by eventbrite_id.
func (r *MemoryEventRepository) UpsertBatch(ctx context.Context, events []models.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, ev := range events {
		if existing, ok := r.events[ev.EventbriteID]; ok {
			ev.ID = existing.ID
			ev.CreatedAt = existing.CreatedAt
		} else {
			ev.ID = int64(len(r.events) + 1)
			ev.CreatedAt = now
		}
		ev.UpdatedAt = now
		r.events[ev.EventbriteID] = ev
	}
	return len(events), nil
}

// GetByEventbriteID retrieves an event by external identifier.
func (r *MemoryEventRepository) GetByEventbriteID(ctx context.Context, eventbriteID string) (*models.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ev, ok := r.events[eventbriteID]
	if !ok {
		return nil, nil
	}
	return &ev, nil
}

// Query filters and paginates the stored events, ordered by start time.
func (r *MemoryEventRepository) Query(ctx context.Context, query models.EventQuery) (*models.EventPage, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	matching := r.matching(query)
	sort.Slice(matching, func(i, j int) bool {
		return matching[i].StartTime.Before(matching[j].StartTime)
	})

	total := len(matching)
	offset := query.GetOffset()
	if offset > total {
		offset = total
	}
	end := offset + query.Limit
	if end > total {
		end = total
	}

	return &models.EventPage{
		Events:  matching[offset:end],
		Page:    query.Page,
		Limit:   query.Limit,
		Total:   total,
		HasMore: end < total,
	}, nil
}

// Count returns the number of stored events matching the filters.
func (r *MemoryEventRepository) Count(ctx context.Context, query models.EventQuery) (int, error) {
	return len(r.matching(query)), nil
}

// Size returns the number of stored events.
func (r *MemoryEventRepository) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events)
}

func (r *MemoryEventRepository) matching(query models.EventQuery) []models.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matching := make([]models.Event, 0, len(r.events))
	for _, ev := range r.events {
		if matchesQuery(ev, query) {
			matching = append(matching, ev)
		}
	}
	return matching
}

// matchesQuery checks an event against query filters.
func matchesQuery(ev models.Event, query models.EventQuery) bool {
	if query.From != nil && ev.StartTime.Before(*query.From) {
		return false
	}
	if query.To != nil && !ev.StartTime.Before(*query.To) {
		return false
	}
	if query.IsFree != nil {
		if ev.IsFree == nil || *ev.IsFree != *query.IsFree {
			return false
		}
	}
	if query.CategoryID != "" {
		if ev.CategoryID == nil || *ev.CategoryID != query.CategoryID {
			return false
		}
	}
	if query.Search != "" && !containsFold(ev.Name, query.Search) {
		return false
	}
	return true
}

// MemoryRunRepository is an in-memory RunRepository for tests.
type MemoryRunRepository struct {
	mu   sync.RWMutex
	runs []models.IngestionRun
}

// NewMemoryRunRepository creates an empty in-memory run repository.
func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{}
}

// Create appends a run record.
func (r *MemoryRunRepository) Create(ctx context.Context, run models.IngestionRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

// List returns the most recent runs first.
func (r *MemoryRunRepository) List(ctx context.Context, limit int) ([]models.IngestionRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.IngestionRun, 0, limit)
	for i := len(r.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.runs[i])
	}
	return out, nil
}

// MemoryErrorRepository is an in-memory ErrorRepository for tests.
type MemoryErrorRepository struct {
	mu   sync.RWMutex
	errs []models.IngestionError
}

// NewMemoryErrorRepository creates an empty in-memory error repository.
func NewMemoryErrorRepository() *MemoryErrorRepository {
	return &MemoryErrorRepository{}
}

// Store appends an error record.
func (r *MemoryErrorRepository) Store(ctx context.Context, ingErr models.IngestionError) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ingErr.CreatedAt.IsZero() {
		ingErr.CreatedAt = time.Now()
	}
	r.errs = append(r.errs, ingErr)
	return nil
}

// List returns the most recent errors first.
func (r *MemoryErrorRepository) List(ctx context.Context, limit int, unresolvedOnly bool) ([]models.IngestionError, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.IngestionError, 0, limit)
	for i := len(r.errs) - 1; i >= 0 && len(out) < limit; i-- {
		if unresolvedOnly && r.errs[i].Resolved {
			continue
		}
		out = append(out, r.errs[i])
	}
	return out, nil
}

// MarkResolved marks an error as resolved.
func (r *MemoryErrorRepository) MarkResolved(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.errs {
		if r.errs[i].ID == id {
			now := time.Now()
			r.errs[i].Resolved = true
			r.errs[i].ResolvedAt = &now
		}
	}
	return nil
}

// CountUnresolved returns the number of unresolved errors.
func (r *MemoryErrorRepository) CountUnresolved(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, e := range r.errs {
		if !e.Resolved {
			count++
		}
	}
	return count, nil
}

// containsFold reports whether substr occurs in s, case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
