package octopus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hejijunhao/octo2sent/internal/connector"
	"github.com/hejijunhao/octo2sent/internal/connector/httpclient"
	"github.com/hejijunhao/octo2sent/internal/model"
)

var fixedNow = time.Date(2026, 3, 4, 0, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func items(prefix string, n int) []model.Event {
	out := make([]model.Event, n)
	for i := range out {
		out[i] = model.Event{ID: fmt.Sprintf("%s-%d", prefix, i), Category: "DeploymentSucceeded"}
	}
	return out
}

func testConfig(endpoint string) connector.ConnectorConfig {
	return connector.ConnectorConfig{
		Provider: Provider,
		APIKey:   "API-TEST",
		Endpoint: endpoint,
		Extra:    map[string]string{"space_id": "Spaces-1"},
	}
}

func TestFromDate(t *testing.T) {
	tests := []struct {
		now      time.Time
		lookback time.Duration
		want     string
	}{
		{time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC), time.Hour, "03/04/2026"},
		// Crossing midnight moves the date back a day.
		{time.Date(2026, 3, 4, 0, 30, 0, 0, time.UTC), time.Hour, "03/03/2026"},
		{time.Date(2026, 1, 1, 5, 0, 0, 0, time.UTC), 24 * time.Hour, "12/31/2025"},
		// Non-UTC input is converted first.
		{time.Date(2026, 3, 4, 1, 0, 0, 0, time.FixedZone("CET", 3600)), 30 * time.Minute, "03/03/2026"},
	}
	for _, tt := range tests {
		if got := FromDate(tt.now, tt.lookback); got != tt.want {
			t.Errorf("FromDate(%v, %v) = %q, want %q", tt.now, tt.lookback, got, tt.want)
		}
	}
}

func TestQuery_SinglePartialPage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/api/Spaces-1/events" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Octopus-ApiKey"); got != "API-TEST" {
			t.Errorf("unexpected api key header: %q", got)
		}
		q := r.URL.Query()
		if q.Get("take") != "1000" || q.Get("skip") != "0" {
			t.Errorf("unexpected paging params: %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(model.EventPage{Items: items("e", 3)})
	}))
	defer srv.Close()

	c := New(WithClock(clock))
	events, err := c.Query(context.Background(), testConfig(srv.URL), connector.QueryParams{Lookback: time.Hour})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 API call, got %d", calls.Load())
	}
}

func TestQuery_Pagination(t *testing.T) {
	const pageSize = 2
	var calls atomic.Int32
	var mu sync.Mutex
	var skips []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := calls.Add(1)
		mu.Lock()
		skips = append(skips, r.URL.Query().Get("skip"))
		mu.Unlock()
		if r.URL.Query().Get("take") != strconv.Itoa(pageSize) {
			t.Errorf("unexpected take: %q", r.URL.Query().Get("take"))
		}
		var page model.EventPage
		switch call {
		case 1:
			page.Items = items("p1", pageSize)
		case 2:
			page.Items = items("p2", pageSize)
		default:
			page.Items = items("p3", 1)
		}
		json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	c := New(WithClock(clock), WithPageSize(pageSize))
	events, err := c.Query(context.Background(), testConfig(srv.URL), connector.QueryParams{Lookback: time.Hour})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 API calls, got %d", calls.Load())
	}
	want := []string{"p1-0", "p1-1", "p2-0", "p2-1", "p3-0"}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for i, id := range want {
		if events[i].ID != id {
			t.Errorf("events[%d].ID = %q, want %q", i, events[i].ID, id)
		}
	}
	mu.Lock()
	defer mu.Unlock()
	if fmt.Sprint(skips) != "[0 2 4]" {
		t.Fatalf("unexpected skip sequence: %v", skips)
	}
}

func TestQuery_ExactMultipleEndsOnEmptyPage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var page model.EventPage
		if calls.Add(1) == 1 {
			page.Items = items("full", 2)
		}
		json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	c := New(WithClock(clock), WithPageSize(2))
	events, err := c.Query(context.Background(), testConfig(srv.URL), connector.QueryParams{Lookback: time.Hour})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 || calls.Load() != 2 {
		t.Fatalf("expected 2 events over 2 calls, got %d events over %d calls", len(events), calls.Load())
	}
}

func TestQuery_FromDateDefaultLookback(t *testing.T) {
	var gotFrom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFrom = r.URL.Query().Get("from")
		json.NewEncoder(w).Encode(model.EventPage{})
	}))
	defer srv.Close()

	c := New(WithClock(clock))
	if _, err := c.Query(context.Background(), testConfig(srv.URL), connector.QueryParams{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := fixedNow.Add(-time.Hour).Format("01/02/2006")
	if gotFrom != want {
		t.Fatalf("expected from %q, got %q", want, gotFrom)
	}
}

func TestQuery_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Items":[]}`))
	}))
	defer srv.Close()

	events, err := New(WithClock(clock)).Query(context.Background(), testConfig(srv.URL+"/"), connector.QueryParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if events == nil || len(events) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", events)
	}
}

func TestQuery_APIErrorAbortsWithoutPartialResult(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			json.NewEncoder(w).Encode(model.EventPage{Items: items("ok", 2)})
			return
		}
		w.WriteHeader(500)
		w.Write([]byte(`{"ErrorMessage":"boom"}`))
	}))
	defer srv.Close()

	events, err := New(WithClock(clock), WithPageSize(2)).Query(context.Background(), testConfig(srv.URL), connector.QueryParams{})
	if err == nil {
		t.Fatal("expected error for 500")
	}
	if events != nil {
		t.Fatalf("expected no partial result, got %d events", len(events))
	}
	var apiErr *httpclient.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 500 {
		t.Fatalf("expected wrapped 500 *APIError, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls (no retry), got %d", calls.Load())
	}
}

func TestQuery_MissingSpaceID(t *testing.T) {
	cfg := connector.ConnectorConfig{APIKey: "k", Endpoint: "http://localhost", Extra: map[string]string{}}
	if _, err := New().Query(context.Background(), cfg, connector.QueryParams{}); err == nil {
		t.Fatal("expected error for missing space_id")
	}
}

func TestQuery_MissingEndpoint(t *testing.T) {
	cfg := connector.ConnectorConfig{APIKey: "k", Extra: map[string]string{"space_id": "Spaces-1"}}
	if _, err := New().Query(context.Background(), cfg, connector.QueryParams{}); err == nil {
		t.Fatal("expected error for missing endpoint")
	}
}

func TestRegistered(t *testing.T) {
	ctor, err := connector.Get(Provider)
	if err != nil {
		t.Fatalf("octopus connector not registered: %v", err)
	}
	if _, ok := ctor().(*Connector); !ok {
		t.Fatalf("expected *Connector, got %T", ctor())
	}
}
