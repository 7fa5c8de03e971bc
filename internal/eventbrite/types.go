package eventbrite

import (
	"encoding/json"
)

// RawEvent is a loosely-typed Eventbrite event as returned by the v3 API
// with venue, organizer, category and ticket_availability expansions.
// Only the identifier is guaranteed; everything else is optional.
type RawEvent struct {
	ID          string        `json:"id"`
	Name        *TextField    `json:"name"`
	Description *TextField    `json:"description"`
	Summary     string        `json:"summary"`
	URL         string        `json:"url"`
	Start       *DateTime     `json:"start"`
	End         *DateTime     `json:"end"`
	Created     string        `json:"created"`
	Changed     string        `json:"changed"`
	Status      string        `json:"status"`
	Currency    string        `json:"currency"`
	OnlineEvent BoolOrNull    `json:"online_event"`
	IsFree      BoolOrNull    `json:"is_free"`
	Logo        *Logo         `json:"logo"`
	VenueID     string        `json:"venue_id"`
	OrganizerID string        `json:"organizer_id"`
	CategoryID  string        `json:"category_id"`
	Venue       *Venue        `json:"venue"`
	Organizer   *Organizer    `json:"organizer"`
	Category    *Category     `json:"category"`
	Tickets     *TicketAvailability `json:"ticket_availability"`

	// Raw holds the verbatim record bytes from the page, preserved for
	// storage in raw_data. Not part of the wire format.
	Raw json.RawMessage `json:"-"`
}

// TextField is Eventbrite's {text, html} wrapper for rich-text fields.
type TextField struct {
	Text string `json:"text"`
	HTML string `json:"html"`
}

// DateTime carries a UTC timestamp plus the event's local rendering.
type DateTime struct {
	UTC      string `json:"utc"`
	Timezone string `json:"timezone"`
	Local    string `json:"local"`
}

// Logo holds image URLs; Original, when present, points at the
// full-resolution asset.
type Logo struct {
	URL      string `json:"url"`
	Original *struct {
		URL string `json:"url"`
	} `json:"original"`
}

// Venue is the expanded venue sub-object. Coordinates arrive as strings.
type Venue struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Latitude  string   `json:"latitude"`
	Longitude string   `json:"longitude"`
	Address   *Address `json:"address"`
}

// Address is a venue address; localized displays are preferred over the
// individual components.
type Address struct {
	Address1                string `json:"address_1"`
	Address2                string `json:"address_2"`
	City                    string `json:"city"`
	Region                  string `json:"region"`
	PostalCode              string `json:"postal_code"`
	Country                 string `json:"country"`
	Latitude                string `json:"latitude"`
	Longitude               string `json:"longitude"`
	LocalizedAddressDisplay string `json:"localized_address_display"`
}

// Organizer is the expanded organizer sub-object.
type Organizer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Category is the expanded category sub-object.
type Category struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	NameLocalized string `json:"name_localized"`
	Slug          string `json:"slug"`
}

// TicketAvailability is the ticket-pricing expansion. Price fields in the
// canonical event are populated only from here, never inferred.
type TicketAvailability struct {
	Currency       string `json:"currency"`
	MinTicketPrice *Money `json:"minimum_ticket_price"`
	MaxTicketPrice *Money `json:"maximum_ticket_price"`
}

// Money is Eventbrite's price object; Value is the amount in major units.
type Money struct {
	Currency string  `json:"currency"`
	Value    float64 `json:"value"`
}

// BoolOrNull decodes only genuine JSON booleans. Strings, numbers, and null
// all leave Valid false: a truthy value is never coerced into a flag.
type BoolOrNull struct {
	Valid bool
	Bool  bool
}

// UnmarshalJSON implements lenient boolean decoding without coercion.
func (b *BoolOrNull) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true":
		b.Valid, b.Bool = true, true
	case "false":
		b.Valid, b.Bool = true, false
	default:
		b.Valid, b.Bool = false, false
	}
	return nil
}

// MarshalJSON renders unknown as null.
func (b BoolOrNull) MarshalJSON() ([]byte, error) {
	if !b.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(b.Bool)
}

// Ptr returns the tri-state value as a nullable bool.
func (b BoolOrNull) Ptr() *bool {
	if !b.Valid {
		return nil
	}
	v := b.Bool
	return &v
}

// pagination is the envelope Eventbrite wraps every list response in.
// Search pages advance by page number; organization pages return an opaque
// continuation token.
type pagination struct {
	ObjectCount  int    `json:"object_count"`
	PageNumber   int    `json:"page_number"`
	PageSize     int    `json:"page_size"`
	PageCount    int    `json:"page_count"`
	HasMoreItems bool   `json:"has_more_items"`
	Continuation string `json:"continuation"`
}

// eventsPage is one page of the events listing. Records are kept as raw
// JSON so the verbatim bytes survive into raw_data.
type eventsPage struct {
	Pagination pagination        `json:"pagination"`
	Events     []json.RawMessage `json:"events"`
}
