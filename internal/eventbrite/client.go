package eventbrite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://www.eventbriteapi.com/v3"

// Expansions requested on every page so venue, organizer, category and
// pricing arrive inline instead of requiring follow-up calls.
const Expansions = "venue,organizer,category,ticket_availability"

// PaginationStyle selects how the client walks the listing.
type PaginationStyle string

const (
	// PaginationSearch pages /events/search/ by incrementing page number.
	PaginationSearch PaginationStyle = "search"
	// PaginationOrganization pages /organizations/{id}/events/ by
	// following the continuation token.
	PaginationOrganization PaginationStyle = "organization"
)

var (
	// ErrMissingToken indicates the bearer credential was not configured.
	// Checked before any network call is attempted.
	ErrMissingToken = errors.New("eventbrite: API token is not configured")

	// ErrMissingOrganization indicates organization-scoped pagination was
	// selected without an organization ID.
	ErrMissingOrganization = errors.New("eventbrite: organization ID is not configured")
)

// APIError is a non-success response from the Eventbrite API. The status
// and body are preserved for diagnostics; the fetch that produced it is
// aborted with no partial result.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("eventbrite: API error: %d - %s", e.StatusCode, e.Body)
}

// Config holds client construction parameters. The token comes from server
// configuration, never from user input.
type Config struct {
	BaseURL        string
	Token          string
	OrganizationID string
	Style          PaginationStyle
	Timeout        time.Duration
}

// Client issues authenticated, paginated requests against the Eventbrite
// events API. A fresh FetchAll always re-pages from the start.
type Client struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// NewClient creates an Eventbrite API client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Style == "" {
		cfg.Style = PaginationSearch
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// FetchOptions is the query window plus optional location filter for a
// full listing fetch.
type FetchOptions struct {
	StartDate       time.Time
	EndDate         time.Time
	LocationAddress string
	LocationWithin  string
}

// FetchAll walks every page of the configured listing and returns the
// concatenated records in page order. Any non-success response or transport
// error aborts the whole fetch; there is no partial result and no retry.
func (c *Client) FetchAll(ctx context.Context, opts FetchOptions) ([]RawEvent, error) {
	if c.cfg.Token == "" {
		return nil, ErrMissingToken
	}
	if c.cfg.Style == PaginationOrganization && c.cfg.OrganizationID == "" {
		return nil, ErrMissingOrganization
	}

	var (
		events       []RawEvent
		pageNumber   = 1
		continuation string
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		reqURL := c.pageURL(opts, pageNumber, continuation)

		page, err := c.fetchPage(ctx, reqURL)
		if err != nil {
			return nil, err
		}

		for _, raw := range page.Events {
			var ev RawEvent
			if err := json.Unmarshal(raw, &ev); err != nil {
				return nil, fmt.Errorf("eventbrite: decode event on page %d: %w", pageNumber, err)
			}
			ev.Raw = raw
			events = append(events, ev)
		}

		c.logger.Debug("fetched page",
			"page", page.Pagination.PageNumber,
			"records", len(page.Events),
			"has_more", page.Pagination.HasMoreItems,
			"total", len(events),
		)

		// An empty page ends the sequence even if the API claims more
		// items; this guards against continuation protocol drift.
		if len(page.Events) == 0 || !page.Pagination.HasMoreItems {
			break
		}

		switch c.cfg.Style {
		case PaginationOrganization:
			if page.Pagination.Continuation == "" {
				return events, nil
			}
			continuation = page.Pagination.Continuation
		default:
			pageNumber++
		}
	}

	return events, nil
}

// Search issues a single passthrough query against /events/search/ with the
// caller's parameters, injecting default expansions when absent. The raw
// response body is returned for the proxy endpoint to forward.
func (c *Client) Search(ctx context.Context, params url.Values) (json.RawMessage, error) {
	if c.cfg.Token == "" {
		return nil, ErrMissingToken
	}

	q := url.Values{}
	for key, values := range params {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	if q.Get("expand") == "" {
		q.Set("expand", Expansions)
	}

	reqURL := fmt.Sprintf("%s/events/search/?%s", c.cfg.BaseURL, q.Encode())

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// pageURL builds the listing URL for one page under the configured style.
func (c *Client) pageURL(opts FetchOptions, pageNumber int, continuation string) string {
	q := url.Values{}
	q.Set("expand", Expansions)

	if c.cfg.Style == PaginationOrganization {
		q.Set("status", "live,started")
		if continuation != "" {
			q.Set("continuation", continuation)
		}
		return fmt.Sprintf("%s/organizations/%s/events/?%s", c.cfg.BaseURL, c.cfg.OrganizationID, q.Encode())
	}

	q.Set("start_date.range_start", opts.StartDate.UTC().Format(time.RFC3339))
	q.Set("start_date.range_end", opts.EndDate.UTC().Format(time.RFC3339))
	if opts.LocationAddress != "" {
		q.Set("location.address", opts.LocationAddress)
	}
	if opts.LocationWithin != "" {
		q.Set("location.within", opts.LocationWithin)
	}
	q.Set("page", fmt.Sprintf("%d", pageNumber))
	return fmt.Sprintf("%s/events/search/?%s", c.cfg.BaseURL, q.Encode())
}

// fetchPage retrieves and decodes one listing page.
func (c *Client) fetchPage(ctx context.Context, reqURL string) (*eventsPage, error) {
	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var page eventsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("eventbrite: decode page: %w", err)
	}
	return &page, nil
}

// get performs an authenticated GET, surfacing non-2xx responses as
// *APIError with the body preserved.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("eventbrite: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("eventbrite: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}
