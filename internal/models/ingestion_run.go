package models

import (
	"time"
)

// Trigger identifies which surface started an ingestion run.
type Trigger string

const (
	TriggerScheduled  Trigger = "scheduled"  // internal ticker loop
	TriggerManual     Trigger = "manual"     // unauthenticated on-demand endpoint
	TriggerPrivileged Trigger = "privileged" // shared-secret cron endpoint
)

// RunStatus is the terminal outcome of an ingestion run.
type RunStatus string

const (
	RunStatusSucceeded   RunStatus = "succeeded"
	RunStatusFetchFailed RunStatus = "fetch_failed"
	RunStatusStoreFailed RunStatus = "store_failed"
)

// IngestionRun records a single end-to-end ingestion attempt: the window it
// covered, what it counted, and how it ended.
type IngestionRun struct {
	ID          string    `json:"id"`
	Trigger     Trigger   `json:"trigger"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Status      RunStatus `json:"status"`
	Fetched     int       `json:"fetched"`
	Accepted    int       `json:"accepted"`
	Rejected    int       `json:"rejected"`
	Upserted    int       `json:"upserted"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Duration returns the wall-clock duration of the run.
func (r IngestionRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
