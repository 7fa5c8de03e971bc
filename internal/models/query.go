package models

import (
	"fmt"
	"time"
)

// EventQuery describes filters and pagination for reading stored events.
type EventQuery struct {
	From       *time.Time `json:"from,omitempty"`  // events starting at or after
	To         *time.Time `json:"to,omitempty"`    // events starting before
	IsFree     *bool      `json:"is_free,omitempty"`
	CategoryID string     `json:"category_id,omitempty"`
	Search     string     `json:"search,omitempty"` // substring match on name
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
}

const (
	DefaultQueryLimit = 50
	MaxQueryLimit     = 500
)

// Validate checks query parameters and applies pagination defaults.
func (q *EventQuery) Validate() error {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultQueryLimit
	}
	if q.Limit > MaxQueryLimit {
		return fmt.Errorf("limit must not exceed %d", MaxQueryLimit)
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return fmt.Errorf("'to' must not precede 'from'")
	}
	return nil
}

// GetOffset returns the row offset implied by page/limit.
func (q *EventQuery) GetOffset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// EventPage is a single page of query results.
type EventPage struct {
	Events  []Event `json:"events"`
	Page    int     `json:"page"`
	Limit   int     `json:"limit"`
	Total   int     `json:"total"`
	HasMore bool    `json:"has_more"`
}
