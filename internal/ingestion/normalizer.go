package ingestion

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/evently/evently/internal/eventbrite"
	"github.com/evently/evently/internal/models"
)

// RejectReason categorizes why a raw record could not be normalized.
type RejectReason string

const (
	RejectMissingID    RejectReason = "missing_id"
	RejectMissingName  RejectReason = "missing_name"
	RejectMissingStart RejectReason = "missing_start"
	RejectMissingEnd   RejectReason = "missing_end"
	RejectInvalidStart RejectReason = "invalid_start"
	RejectInvalidEnd   RejectReason = "invalid_end"
)

// Rejection describes one raw record that failed validation. Rejections are
// counted in the run summary but never abort the batch.
type Rejection struct {
	EventbriteID string       `json:"eventbrite_id,omitempty"`
	Reason       RejectReason `json:"reason"`
	Detail       string       `json:"detail,omitempty"`
}

func (r Rejection) String() string {
	if r.Detail != "" {
		return fmt.Sprintf("%s (%s): %s", r.EventbriteID, r.Reason, r.Detail)
	}
	return fmt.Sprintf("%s (%s)", r.EventbriteID, r.Reason)
}

// Normalize maps a raw Eventbrite record into the canonical event schema.
// It is a pure function: a record either produces a storage-ready event or
// a rejection, never both.
func Normalize(raw eventbrite.RawEvent) (*models.Event, *Rejection) {
	if raw.ID == "" {
		return nil, &Rejection{Reason: RejectMissingID}
	}
	if raw.Name == nil || raw.Name.Text == "" {
		return nil, &Rejection{EventbriteID: raw.ID, Reason: RejectMissingName}
	}
	if raw.Start == nil || raw.Start.UTC == "" {
		return nil, &Rejection{EventbriteID: raw.ID, Reason: RejectMissingStart}
	}
	if raw.End == nil || raw.End.UTC == "" {
		return nil, &Rejection{EventbriteID: raw.ID, Reason: RejectMissingEnd}
	}

	startTime, err := time.Parse(time.RFC3339, raw.Start.UTC)
	if err != nil {
		return nil, &Rejection{EventbriteID: raw.ID, Reason: RejectInvalidStart, Detail: raw.Start.UTC}
	}
	endTime, err := time.Parse(time.RFC3339, raw.End.UTC)
	if err != nil {
		return nil, &Rejection{EventbriteID: raw.ID, Reason: RejectInvalidEnd, Detail: raw.End.UTC}
	}

	event := &models.Event{
		EventbriteID: raw.ID,
		Name:         raw.Name.Text,
		StartTime:    startTime.UTC(),
		EndTime:      endTime.UTC(),
		URL:          strPtr(raw.URL),
		IsFree:       raw.IsFree.Ptr(),
		Status:       strPtr(raw.Status),
		RawData:      rawData(raw),
	}

	// Long-form description wins over the summary.
	if raw.Description != nil && raw.Description.Text != "" {
		event.Description = strPtr(raw.Description.Text)
	} else {
		event.Description = strPtr(raw.Summary)
	}

	if raw.Logo != nil && raw.Logo.Original != nil {
		event.ImageURL = strPtr(raw.Logo.Original.URL)
	}

	if raw.Venue != nil {
		event.VenueName = strPtr(raw.Venue.Name)
		if raw.Venue.Address != nil {
			event.VenueAddress = strPtr(raw.Venue.Address.LocalizedAddressDisplay)
		}
		event.Latitude = parseCoordinate(coordinateText(raw.Venue.Latitude, raw.Venue.Address, addrLat))
		event.Longitude = parseCoordinate(coordinateText(raw.Venue.Longitude, raw.Venue.Address, addrLng))
	}
	event.VenueID = firstPtr(raw.VenueID, venueID(raw.Venue))

	if raw.Organizer != nil {
		event.OrganizerName = strPtr(raw.Organizer.Name)
	}
	event.OrganizerID = firstPtr(raw.OrganizerID, organizerID(raw.Organizer))

	if raw.Category != nil {
		// Localized name is preferred over the default when both exist.
		if raw.Category.NameLocalized != "" {
			event.CategoryName = strPtr(raw.Category.NameLocalized)
		} else {
			event.CategoryName = strPtr(raw.Category.Name)
		}
	}
	event.CategoryID = firstPtr(raw.CategoryID, categoryID(raw.Category))

	// Price fields come only from the ticket-pricing expansion. An absent
	// expansion leaves them null; nothing is inferred from is_free.
	if raw.Tickets != nil {
		event.Currency = strPtr(raw.Tickets.Currency)
		if raw.Tickets.MinTicketPrice != nil {
			v := raw.Tickets.MinTicketPrice.Value
			event.MinPrice = &v
		}
		if raw.Tickets.MaxTicketPrice != nil {
			v := raw.Tickets.MaxTicketPrice.Value
			event.MaxPrice = &v
		}
	}

	return event, nil
}

// rawData returns the verbatim record, defaulting to an empty object so the
// stored raw_data column is never null.
func rawData(raw eventbrite.RawEvent) json.RawMessage {
	if len(raw.Raw) == 0 {
		return json.RawMessage("{}")
	}
	return raw.Raw
}

// parseCoordinate converts a textual coordinate to a float. Non-numeric or
// non-finite input yields nil; NaN is never persisted.
func parseCoordinate(text string) *float64 {
	if text == "" {
		return nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

type addrCoord int

const (
	addrLat addrCoord = iota
	addrLng
)

// coordinateText picks the venue's direct coordinate, falling back to the
// address copy when the direct field is empty.
func coordinateText(direct string, addr *eventbrite.Address, which addrCoord) string {
	if direct != "" {
		return direct
	}
	if addr == nil {
		return ""
	}
	if which == addrLat {
		return addr.Latitude
	}
	return addr.Longitude
}

func venueID(v *eventbrite.Venue) string {
	if v == nil {
		return ""
	}
	return v.ID
}

func organizerID(o *eventbrite.Organizer) string {
	if o == nil {
		return ""
	}
	return o.ID
}

func categoryID(c *eventbrite.Category) string {
	if c == nil {
		return ""
	}
	return c.ID
}

// strPtr returns nil for the empty string.
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// firstPtr returns a pointer to the first non-empty string.
func firstPtr(values ...string) *string {
	for _, v := range values {
		if v != "" {
			return &v
		}
	}
	return nil
}
