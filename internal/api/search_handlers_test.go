package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/evently/evently/internal/eventbrite"
)

type fakeSearcher struct {
	body   json.RawMessage
	err    error
	params url.Values
}

func (f *fakeSearcher) Search(ctx context.Context, params url.Values) (json.RawMessage, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return f.body, nil
}

func TestSearchProxiesBody(t *testing.T) {
	upstream := `{"events":[{"id":"ev-1"}],"pagination":{"page_count":1}}`
	searcher := &fakeSearcher{body: json.RawMessage(upstream)}
	h := NewSearchHandler(searcher, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/events/search?q=music&page=2", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != upstream {
		t.Errorf("body not forwarded verbatim: %s", rec.Body.String())
	}
	if searcher.params.Get("q") != "music" || searcher.params.Get("page") != "2" {
		t.Errorf("query not forwarded: %v", searcher.params)
	}
}

func TestSearchErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "missing token", err: eventbrite.ErrMissingToken, wantStatus: http.StatusInternalServerError},
		{name: "upstream status forwarded", err: &eventbrite.APIError{StatusCode: 429, Body: "slow down"}, wantStatus: 429},
		{name: "transport failure", err: context.DeadlineExceeded, wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSearchHandler(&fakeSearcher{err: tt.err}, discardLogger())

			req := httptest.NewRequest(http.MethodGet, "/api/events/search", nil)
			rec := httptest.NewRecorder()
			h.Search(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
