package models

import (
	"testing"
	"time"
)

func TestEventQueryValidate(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		q := EventQuery{}
		if err := q.Validate(); err != nil {
			t.Fatal(err)
		}
		if q.Page != 1 || q.Limit != DefaultQueryLimit {
			t.Fatalf("defaults not applied: page=%d limit=%d", q.Page, q.Limit)
		}
	})

	t.Run("caps limit", func(t *testing.T) {
		q := EventQuery{Limit: MaxQueryLimit + 1}
		if err := q.Validate(); err == nil {
			t.Fatal("expected error above the limit cap")
		}
	})

	t.Run("rejects inverted window", func(t *testing.T) {
		from := time.Date(2024, 8, 8, 0, 0, 0, 0, time.UTC)
		to := from.Add(-time.Hour)
		q := EventQuery{From: &from, To: &to}
		if err := q.Validate(); err == nil {
			t.Fatal("expected error for to before from")
		}
	})
}

func TestEventQueryGetOffset(t *testing.T) {
	tests := []struct {
		page, limit, want int
	}{
		{page: 1, limit: 50, want: 0},
		{page: 2, limit: 50, want: 50},
		{page: 3, limit: 20, want: 40},
		{page: 0, limit: 50, want: 0},
	}
	for _, tt := range tests {
		q := EventQuery{Page: tt.page, Limit: tt.limit}
		if got := q.GetOffset(); got != tt.want {
			t.Errorf("page=%d limit=%d: offset=%d, want %d", tt.page, tt.limit, got, tt.want)
		}
	}
}

func TestRollingWindow(t *testing.T) {
	now := time.Date(2024, 8, 1, 12, 30, 0, 0, time.FixedZone("PST", -8*3600))
	w := RollingWindow(now, 7)

	if w.Start.Location() != time.UTC {
		t.Error("window start not in UTC")
	}
	if !w.Start.Equal(now) {
		t.Errorf("window start = %v, want invocation time", w.Start)
	}
	if w.End.Sub(w.Start) != 7*24*time.Hour {
		t.Errorf("window span = %v, want 168h", w.End.Sub(w.Start))
	}
}

func TestIngestionRunDuration(t *testing.T) {
	start := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	run := IngestionRun{StartedAt: start, FinishedAt: start.Add(90 * time.Second)}
	if run.Duration() != 90*time.Second {
		t.Errorf("Duration = %v, want 90s", run.Duration())
	}
}
