package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/evently/evently/internal/ingestion"
	"github.com/evently/evently/internal/models"
)

// ScrapeScheduler runs the ingestion pipeline on a fixed interval. Each
// tick computes a fresh rolling window (now through now + windowDays) so
// the covered range always moves with the clock.
type ScrapeScheduler struct {
	ingestor   *ingestion.Ingestor
	logger     *slog.Logger
	interval   time.Duration
	windowDays int
	retry      ingestion.RetryPolicy
	stopChan   chan struct{}
}

// NewScrapeScheduler creates a scheduler for periodic ingestion runs.
func NewScrapeScheduler(ingestor *ingestion.Ingestor, interval time.Duration, windowDays int, logger *slog.Logger) *ScrapeScheduler {
	return &ScrapeScheduler{
		ingestor:   ingestor,
		logger:     logger,
		interval:   interval,
		windowDays: windowDays,
		retry:      ingestion.DefaultRetryPolicy(),
		stopChan:   make(chan struct{}),
	}
}

// Start begins the scheduler loop. Runs once immediately, then on every
// tick until Stop is called or the context ends.
func (s *ScrapeScheduler) Start(ctx context.Context) {
	s.logger.Info("starting scrape scheduler",
		"interval", s.interval,
		"window_days", s.windowDays,
	)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.stopChan:
			s.logger.Info("scrape scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("scrape scheduler stopping due to context cancellation")
			return
		}
	}
}

// Stop stops the scheduler.
func (s *ScrapeScheduler) Stop() {
	close(s.stopChan)
}

// runOnce executes a single scheduled ingestion. The fetch client never
// retries on its own; as the caller, the scheduler re-invokes failed runs
// with backoff.
func (s *ScrapeScheduler) runOnce(ctx context.Context) {
	params := ingestion.RunParams{
		Window:  models.RollingWindow(time.Now(), s.windowDays),
		Trigger: models.TriggerScheduled,
	}

	err := ingestion.Retry(ctx, s.retry, func() error {
		summary, err := s.ingestor.Run(ctx, params)
		if err != nil {
			return ingestion.NewRetryableError(err)
		}
		s.logger.Info("scheduled ingestion complete",
			"fetched", summary.Fetched,
			"accepted", summary.Accepted,
			"rejected", summary.Rejected,
			"upserted", summary.Upserted,
		)
		return nil
	})
	if err != nil {
		s.logger.Error("scheduled ingestion failed after retries", "error", err)
	}
}
