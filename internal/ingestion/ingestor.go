package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/evently/evently/internal/eventbrite"
	"github.com/evently/evently/internal/models"
	"github.com/google/uuid"
)

// Fetcher yields the full raw record sequence for a query window. Satisfied
// by *eventbrite.Client; faked in tests.
type Fetcher interface {
	FetchAll(ctx context.Context, opts eventbrite.FetchOptions) ([]eventbrite.RawEvent, error)
}

// Observer receives finished-run outcomes, typically for metrics.
type Observer interface {
	ObserveRun(trigger models.Trigger, status models.RunStatus, summary Summary, duration time.Duration)
}

// RunParams describes one ingestion run.
type RunParams struct {
	Window          models.Window
	LocationAddress string
	LocationWithin  string
	Trigger         models.Trigger
}

// Summary reports what a run fetched, accepted, rejected and wrote. Counts
// already computed are reported even when the run ultimately fails.
type Summary struct {
	Fetched    int         `json:"fetched"`
	Accepted   int         `json:"accepted"`
	Rejected   int         `json:"rejected"`
	Rejections []Rejection `json:"rejections,omitempty"`
	Upserted   int         `json:"upserted"`
}

// Ingestor drives a run to completion: exhaust the source's pages, normalize
// each record, then reconcile the accepted batch against the store in a
// single upsert. Writes are deferred until the whole fetch succeeds, so a
// late page failure never leaves partial state behind.
type Ingestor struct {
	fetcher  Fetcher
	events   EventRepository
	runs     RunRepository
	errs     ErrorRepository
	observer Observer
	logger   *slog.Logger
}

// NewIngestor creates an ingestor. The run and error repositories and the
// observer may be nil; bookkeeping is then skipped.
func NewIngestor(fetcher Fetcher, events EventRepository, runs RunRepository, errs ErrorRepository, observer Observer, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		fetcher:  fetcher,
		events:   events,
		runs:     runs,
		errs:     errs,
		observer: observer,
		logger:   logger,
	}
}

// Run executes one ingestion run. A fetch failure aborts with zero writes;
// per-record rejections are counted and skipped; a store failure aborts the
// batch atomically with fetched/rejected counts preserved in the summary.
func (ing *Ingestor) Run(ctx context.Context, params RunParams) (Summary, error) {
	started := time.Now()
	runID := uuid.New().String()

	ing.logger.Info("starting ingestion run",
		"run_id", runID,
		"trigger", params.Trigger,
		"window_start", params.Window.Start,
		"window_end", params.Window.End,
	)

	var summary Summary

	raws, err := ing.fetcher.FetchAll(ctx, eventbrite.FetchOptions{
		StartDate:       params.Window.Start,
		EndDate:         params.Window.End,
		LocationAddress: params.LocationAddress,
		LocationWithin:  params.LocationWithin,
	})
	if err != nil {
		ing.logger.Error("fetch failed, aborting run with zero writes",
			"run_id", runID,
			"error", err,
		)
		ing.recordError(ctx, runID, models.ErrorTypeFetchFailed, "", err.Error())
		ing.finishRun(ctx, runID, params, models.RunStatusFetchFailed, summary, started, err)
		return summary, fmt.Errorf("fetch events: %w", err)
	}

	summary.Fetched = len(raws)

	batch := make([]models.Event, 0, len(raws))
	for _, raw := range raws {
		event, rejection := Normalize(raw)
		if rejection != nil {
			summary.Rejected++
			summary.Rejections = append(summary.Rejections, *rejection)
			ing.logger.Warn("rejected event",
				"run_id", runID,
				"eventbrite_id", rejection.EventbriteID,
				"reason", rejection.Reason,
			)
			ing.recordError(ctx, runID, models.ErrorTypeValidationFailed, rejection.EventbriteID, rejection.String())
			continue
		}
		batch = append(batch, *event)
	}
	summary.Accepted = len(batch)

	upserted, err := ing.events.UpsertBatch(ctx, batch)
	if err != nil {
		ing.logger.Error("upsert failed, batch aborted",
			"run_id", runID,
			"accepted", summary.Accepted,
			"error", err,
		)
		ing.recordError(ctx, runID, models.ErrorTypeUpsertFailed, "", err.Error())
		ing.finishRun(ctx, runID, params, models.RunStatusStoreFailed, summary, started, err)
		return summary, fmt.Errorf("upsert events: %w", err)
	}
	summary.Upserted = upserted

	ing.logger.Info("ingestion run complete",
		"run_id", runID,
		"fetched", summary.Fetched,
		"accepted", summary.Accepted,
		"rejected", summary.Rejected,
		"upserted", summary.Upserted,
		"duration", time.Since(started),
	)
	ing.finishRun(ctx, runID, params, models.RunStatusSucceeded, summary, started, nil)

	return summary, nil
}

// finishRun persists the run record and notifies the observer. Both are
// best-effort; a bookkeeping failure never changes the run outcome.
func (ing *Ingestor) finishRun(ctx context.Context, runID string, params RunParams, status models.RunStatus, summary Summary, started time.Time, runErr error) {
	finished := time.Now()

	if ing.observer != nil {
		ing.observer.ObserveRun(params.Trigger, status, summary, finished.Sub(started))
	}

	if ing.runs == nil {
		return
	}

	run := models.IngestionRun{
		ID:          runID,
		Trigger:     params.Trigger,
		WindowStart: params.Window.Start,
		WindowEnd:   params.Window.End,
		Status:      status,
		Fetched:     summary.Fetched,
		Accepted:    summary.Accepted,
		Rejected:    summary.Rejected,
		Upserted:    summary.Upserted,
		StartedAt:   started,
		FinishedAt:  finished,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	if err := ing.runs.Create(ctx, run); err != nil {
		ing.logger.Warn("failed to record ingestion run", "run_id", runID, "error", err)
	}
}

// recordError stores an ingestion error, best-effort.
func (ing *Ingestor) recordError(ctx context.Context, runID string, errType models.IngestionErrorType, eventbriteID, msg string) {
	if ing.errs == nil {
		return
	}

	ingErr := models.IngestionError{
		ID:           uuid.New().String(),
		RunID:        runID,
		Source:       "eventbrite",
		ErrorType:    string(errType),
		EventbriteID: eventbriteID,
		ErrorMsg:     msg,
		CreatedAt:    time.Now(),
	}
	if err := ing.errs.Store(ctx, ingErr); err != nil {
		ing.logger.Warn("failed to record ingestion error", "run_id", runID, "error", err)
	}
}
