package geocode

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/breadcrumbsapp/breadcrumbs/internal/geo"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestReverseKeepsClickedPoint(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("path = %q", r.URL.Path)
		}
		io.WriteString(w, `{"place_id":123,"name":"Phelps Gate","display_name":"Phelps Gate, College St, New Haven","lat":"41.30819","lon":"-72.93012"}`)
	})

	clicked := geo.Coordinate{Latitude: 41.3082, Longitude: -72.9301}
	p, err := c.Reverse(context.Background(), clicked)
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if p.Address != "Phelps Gate, College St, New Haven" {
		t.Errorf("address = %q", p.Address)
	}
	if p.Coordinate != clicked {
		t.Errorf("coordinate = %+v, want the clicked point %+v", p.Coordinate, clicked)
	}
}

func TestReverseNoResult(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"error":"Unable to geocode"}`)
	})

	_, err := c.Reverse(context.Background(), geo.Coordinate{Latitude: 0, Longitude: 0})
	if !errors.Is(err, ErrNoResult) {
		t.Fatalf("err = %v, want ErrNoResult", err)
	}
}

func TestSearch(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "pizza" {
			t.Errorf("q = %q", got)
		}
		if r.URL.Query().Get("viewbox") == "" {
			t.Error("viewbox missing for near search")
		}
		io.WriteString(w, `[
			{"place_id":1,"name":"Frank Pepe","display_name":"Frank Pepe, Wooster St","lat":"41.3033","lon":"-72.9168"},
			{"place_id":2,"name":"","display_name":"Sally's Apizza, Wooster St","lat":"41.3029","lon":"-72.9163"}
		]`)
	})

	near := geo.Coordinate{Latitude: 41.31, Longitude: -72.92}
	places, err := c.Search(context.Background(), "pizza", &near)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(places) != 2 {
		t.Fatalf("got %d places, want 2", len(places))
	}
	if places[0].Name != "Frank Pepe" {
		t.Errorf("name = %q", places[0].Name)
	}
	// Falls back to display_name when the result has no short name.
	if places[1].Name != "Sally's Apizza, Wooster St" {
		t.Errorf("name fallback = %q", places[1].Name)
	}
}

func TestSearchEmpty(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})

	_, err := c.Search(context.Background(), "nowhere at all", nil)
	if !errors.Is(err, ErrNoResult) {
		t.Fatalf("err = %v, want ErrNoResult", err)
	}
}
