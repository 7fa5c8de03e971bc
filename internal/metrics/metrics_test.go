package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/evently/evently/internal/ingestion"
	"github.com/evently/evently/internal/models"
)

func scrapeMetrics(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestCollectorRecordsHTTPMetrics(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	handler := collector.InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/events/scrape", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	body := scrapeMetrics(t, collector)
	want := `evently_http_requests_total{method="POST",path="/api/events/scrape",status="201"} 1`
	if !strings.Contains(body, want) {
		t.Errorf("metrics output missing %q", want)
	}
	if !strings.Contains(body, "evently_http_request_duration_seconds") {
		t.Error("metrics output missing request duration histogram")
	}
}

func TestCollectorObservesRuns(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatal(err)
	}

	collector.ObserveRun(models.TriggerScheduled, models.RunStatusSucceeded, ingestion.Summary{
		Fetched:  80,
		Accepted: 78,
		Rejected: 2,
		Upserted: 78,
	}, 3*time.Second)
	collector.ObserveRun(models.TriggerPrivileged, models.RunStatusFetchFailed, ingestion.Summary{}, time.Second)

	body := scrapeMetrics(t, collector)
	for _, want := range []string{
		`evently_ingestion_runs_total{status="succeeded",trigger="scheduled"} 1`,
		`evently_ingestion_runs_total{status="fetch_failed",trigger="privileged"} 1`,
		`evently_ingestion_events_fetched_total 80`,
		`evently_ingestion_events_accepted_total 78`,
		`evently_ingestion_events_rejected_total 2`,
		`evently_ingestion_events_upserted_total 78`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
