package ingestion

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/evently/evently/internal/models"
)

func storedEvent(id string, start time.Time) models.Event {
	return models.Event{
		EventbriteID: id,
		Name:         "Event " + id,
		StartTime:    start,
		EndTime:      start.Add(2 * time.Hour),
	}
}

func TestMemoryUpsertBatch(t *testing.T) {
	repo := NewMemoryEventRepository()
	ctx := context.Background()
	base := time.Date(2024, 8, 1, 18, 0, 0, 0, time.UTC)

	t.Run("empty batch is a no-op", func(t *testing.T) {
		n, err := repo.UpsertBatch(ctx, nil)
		if err != nil {
			t.Fatal(err)
		}
		if n != 0 {
			t.Fatalf("expected 0 rows, got %d", n)
		}
	})

	t.Run("insert", func(t *testing.T) {
		n, err := repo.UpsertBatch(ctx, []models.Event{
			storedEvent("a", base),
			storedEvent("b", base.Add(time.Hour)),
		})
		if err != nil {
			t.Fatal(err)
		}
		if n != 2 || repo.Size() != 2 {
			t.Fatalf("expected 2 rows inserted, got n=%d size=%d", n, repo.Size())
		}
	})

	t.Run("conflict overwrites and keeps identity", func(t *testing.T) {
		before, err := repo.GetByEventbriteID(ctx, "a")
		if err != nil {
			t.Fatal(err)
		}

		updated := storedEvent("a", base)
		updated.Name = "Renamed"
		if _, err := repo.UpsertBatch(ctx, []models.Event{updated}); err != nil {
			t.Fatal(err)
		}

		after, err := repo.GetByEventbriteID(ctx, "a")
		if err != nil {
			t.Fatal(err)
		}
		if after.Name != "Renamed" {
			t.Errorf("Name = %q, want Renamed", after.Name)
		}
		if after.ID != before.ID {
			t.Errorf("row ID changed on upsert: %d -> %d", before.ID, after.ID)
		}
		if !after.CreatedAt.Equal(before.CreatedAt) {
			t.Error("CreatedAt changed on upsert")
		}
		if repo.Size() != 2 {
			t.Errorf("expected 2 rows, got %d", repo.Size())
		}
	})
}

func TestMemoryGetByEventbriteIDMissing(t *testing.T) {
	repo := NewMemoryEventRepository()

	ev, err := repo.GetByEventbriteID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("missing row must not be an error: %v", err)
	}
	if ev != nil {
		t.Fatalf("expected nil, got %+v", ev)
	}
}

func TestMemoryQuery(t *testing.T) {
	repo := NewMemoryEventRepository()
	ctx := context.Background()
	base := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)

	free := true
	paid := false
	batch := []models.Event{}
	for i := 0; i < 5; i++ {
		ev := storedEvent(fmt.Sprintf("ev-%d", i), base.Add(time.Duration(i)*24*time.Hour))
		if i%2 == 0 {
			ev.IsFree = &free
		} else {
			ev.IsFree = &paid
		}
		batch = append(batch, ev)
	}
	catID := "103"
	batch[2].CategoryID = &catID
	batch[4].Name = "Jazz Night"
	if _, err := repo.UpsertBatch(ctx, batch); err != nil {
		t.Fatal(err)
	}

	t.Run("ordered by start time", func(t *testing.T) {
		page, err := repo.Query(ctx, models.EventQuery{})
		if err != nil {
			t.Fatal(err)
		}
		if page.Total != 5 || len(page.Events) != 5 {
			t.Fatalf("expected all 5 events, got total=%d len=%d", page.Total, len(page.Events))
		}
		for i := 1; i < len(page.Events); i++ {
			if page.Events[i].StartTime.Before(page.Events[i-1].StartTime) {
				t.Fatal("events not ordered by start time")
			}
		}
	})

	t.Run("time window", func(t *testing.T) {
		from := base.Add(24 * time.Hour)
		to := base.Add(3 * 24 * time.Hour)
		page, err := repo.Query(ctx, models.EventQuery{From: &from, To: &to})
		if err != nil {
			t.Fatal(err)
		}
		if page.Total != 2 {
			t.Fatalf("expected 2 events in window, got %d", page.Total)
		}
	})

	t.Run("is_free filter", func(t *testing.T) {
		page, err := repo.Query(ctx, models.EventQuery{IsFree: &free})
		if err != nil {
			t.Fatal(err)
		}
		if page.Total != 3 {
			t.Fatalf("expected 3 free events, got %d", page.Total)
		}
	})

	t.Run("category filter", func(t *testing.T) {
		page, err := repo.Query(ctx, models.EventQuery{CategoryID: "103"})
		if err != nil {
			t.Fatal(err)
		}
		if page.Total != 1 {
			t.Fatalf("expected 1 event in category, got %d", page.Total)
		}
	})

	t.Run("name search is case-insensitive", func(t *testing.T) {
		page, err := repo.Query(ctx, models.EventQuery{Search: "jazz"})
		if err != nil {
			t.Fatal(err)
		}
		if page.Total != 1 || page.Events[0].Name != "Jazz Night" {
			t.Fatalf("unexpected search result: %+v", page)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		page, err := repo.Query(ctx, models.EventQuery{Page: 2, Limit: 2})
		if err != nil {
			t.Fatal(err)
		}
		if len(page.Events) != 2 || page.Total != 5 || !page.HasMore {
			t.Fatalf("unexpected page: len=%d total=%d hasMore=%t", len(page.Events), page.Total, page.HasMore)
		}
		page, err = repo.Query(ctx, models.EventQuery{Page: 3, Limit: 2})
		if err != nil {
			t.Fatal(err)
		}
		if len(page.Events) != 1 || page.HasMore {
			t.Fatalf("unexpected last page: len=%d hasMore=%t", len(page.Events), page.HasMore)
		}
	})

	t.Run("limit cap", func(t *testing.T) {
		if _, err := repo.Query(ctx, models.EventQuery{Limit: models.MaxQueryLimit + 1}); err == nil {
			t.Fatal("expected error for limit above cap")
		}
	})
}

func TestMemoryErrorRepository(t *testing.T) {
	repo := NewMemoryErrorRepository()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := repo.Store(ctx, models.IngestionError{
			ID:        fmt.Sprintf("err-%d", i),
			Source:    "eventbrite",
			ErrorType: string(models.ErrorTypeValidationFailed),
			ErrorMsg:  "missing name",
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	if err := repo.MarkResolved(ctx, "err-1"); err != nil {
		t.Fatal(err)
	}

	count, err := repo.CountUnresolved(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected 2 unresolved errors, got %d", count)
	}

	unresolved, err := repo.List(ctx, 10, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(unresolved) != 2 {
		t.Fatalf("expected 2 unresolved listed, got %d", len(unresolved))
	}
	for _, e := range unresolved {
		if e.ID == "err-1" {
			t.Error("resolved error leaked into unresolved listing")
		}
	}

	all, err := repo.List(ctx, 10, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 errors listed, got %d", len(all))
	}
	// Most recent first.
	if all[0].ID != "err-2" {
		t.Errorf("expected newest first, got %q", all[0].ID)
	}
}
