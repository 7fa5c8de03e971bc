package models

import (
	"encoding/json"
	"time"
)

// Event is the canonical, storage-ready representation of an Eventbrite
// event. EventbriteID is the sole stable identity: re-ingesting the same
// identifier fully overwrites every other field (last write wins).
type Event struct {
	ID           int64           `json:"id,omitempty"`
	EventbriteID string          `json:"eventbrite_id"`
	Name         string          `json:"name"`
	Description  *string         `json:"description,omitempty"`
	URL          *string         `json:"url,omitempty"`
	StartTime    time.Time       `json:"start_time"`
	EndTime      time.Time       `json:"end_time"`
	IsFree       *bool           `json:"is_free,omitempty"` // tri-state: true/false/unknown
	Currency     *string         `json:"currency,omitempty"`
	MinPrice     *float64        `json:"min_price,omitempty"`
	MaxPrice     *float64        `json:"max_price,omitempty"`
	VenueID      *string         `json:"venue_id,omitempty"`
	VenueName    *string         `json:"venue_name,omitempty"`
	VenueAddress *string         `json:"venue_address,omitempty"`
	Latitude     *float64        `json:"latitude,omitempty"`
	Longitude    *float64        `json:"longitude,omitempty"`
	OrganizerID  *string         `json:"organizer_id,omitempty"`
	OrganizerName *string        `json:"organizer_name,omitempty"`
	ImageURL     *string         `json:"image_url,omitempty"`
	CategoryID   *string         `json:"category_id,omitempty"`
	CategoryName *string         `json:"category_name,omitempty"`
	Status       *string         `json:"status,omitempty"`
	RawData      json.RawMessage `json:"raw_data,omitempty"`
	CreatedAt    time.Time       `json:"created_at,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at,omitempty"`
}

// Window is the start/end time range an ingestion run covers.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RollingWindow computes the scheduled trigger's window: now through
// now + days, evaluated at invocation time.
func RollingWindow(now time.Time, days int) Window {
	return Window{
		Start: now.UTC(),
		End:   now.UTC().Add(time.Duration(days) * 24 * time.Hour),
	}
}
