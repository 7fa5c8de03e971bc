package models

import (
	"time"
)

// IngestionError records a failure observed during an ingestion run: either
// a per-record rejection (non-fatal) or a run-level fetch/store failure.
type IngestionError struct {
	ID           string     `json:"id"`
	RunID        string     `json:"run_id,omitempty"`
	Source       string     `json:"source"`     // e.g. "eventbrite"
	ErrorType    string     `json:"error_type"` // see IngestionErrorType constants
	EventbriteID string     `json:"eventbrite_id,omitempty"`
	ErrorMsg     string     `json:"error_msg"`
	CreatedAt    time.Time  `json:"created_at"`
	Resolved     bool       `json:"resolved"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

// IngestionErrorType categorizes ingestion failures.
type IngestionErrorType string

const (
	ErrorTypeValidationFailed IngestionErrorType = "validation_failed"
	ErrorTypeFetchFailed      IngestionErrorType = "fetch_failed"
	ErrorTypeUpsertFailed     IngestionErrorType = "upsert_failed"
)
