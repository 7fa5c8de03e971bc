package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/evently/evently/internal/eventbrite"
	"github.com/evently/evently/internal/ingestion"
)

type flakyFetcher struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyFetcher) FetchAll(ctx context.Context, opts eventbrite.FetchOptions) ([]eventbrite.RawEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("transient upstream failure")
	}
	return []eventbrite.RawEvent{{
		ID:    "ev-1",
		Name:  &eventbrite.TextField{Text: "Event"},
		Start: &eventbrite.DateTime{UTC: "2024-08-01T19:00:00Z"},
		End:   &eventbrite.DateTime{UTC: "2024-08-01T22:00:00Z"},
	}}, nil
}

func (f *flakyFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testScheduler(fetcher ingestion.Fetcher, events *ingestion.MemoryEventRepository) *ScrapeScheduler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ing := ingestion.NewIngestor(fetcher, events, nil, nil, nil, logger)
	s := NewScrapeScheduler(ing, time.Hour, 7, logger)
	s.retry = ingestion.RetryPolicy{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		BackoffFactor:  2.0,
	}
	return s
}

func TestRunOnceRetriesFailedRuns(t *testing.T) {
	fetcher := &flakyFetcher{failures: 2}
	events := ingestion.NewMemoryEventRepository()
	s := testScheduler(fetcher, events)

	s.runOnce(context.Background())

	if got := fetcher.callCount(); got != 3 {
		t.Fatalf("expected 3 attempts (2 failures + success), got %d", got)
	}
	if events.Size() != 1 {
		t.Fatalf("expected the retried run to land the event, got %d", events.Size())
	}
}

func TestRunOnceGivesUpAfterPolicy(t *testing.T) {
	fetcher := &flakyFetcher{failures: 100}
	events := ingestion.NewMemoryEventRepository()
	s := testScheduler(fetcher, events)

	s.runOnce(context.Background())

	if got := fetcher.callCount(); got != 4 {
		t.Fatalf("expected initial attempt plus 3 retries, got %d", got)
	}
	if events.Size() != 0 {
		t.Fatalf("failed runs must not write, got %d events", events.Size())
	}
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	fetcher := &flakyFetcher{}
	events := ingestion.NewMemoryEventRepository()
	s := testScheduler(fetcher, events)

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for fetcher.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("scheduler did not run immediately on start")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	s.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
