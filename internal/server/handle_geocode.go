package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/breadcrumbsapp/breadcrumbs/internal/geo"
	"github.com/breadcrumbsapp/breadcrumbs/internal/geocode"
)

// handleReverseGeocode names the spot the user clicked on the map.
func handleReverseGeocode(g *geocode.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
		lon, errLon := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
		if errLat != nil || errLon != nil {
			writeError(w, http.StatusBadRequest, "lat and lon query parameters required")
			return
		}
		coord := geo.Coordinate{Latitude: lat, Longitude: lon}
		if !coord.Valid() {
			writeError(w, http.StatusBadRequest, "coordinate out of bounds")
			return
		}

		place, err := g.Reverse(r.Context(), coord)
		if errors.Is(err, geocode.ErrNoResult) {
			writeError(w, http.StatusNotFound, "nothing known at that spot")
			return
		}
		if err != nil {
			writeError(w, http.StatusBadGateway, "geocoder unavailable")
			return
		}
		writeJSON(w, http.StatusOK, place)
	}
}

// handleSearchPlaces finds candidate spots by name, biased around the
// caller's position when one is known.
func handleSearchPlaces(g *geocode.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "" {
			writeError(w, http.StatusBadRequest, "q query parameter required")
			return
		}

		var near *geo.Coordinate
		if pos, ok := sessionFrom(r).Tracker.Current(); ok {
			near = &pos
		}

		places, err := g.Search(r.Context(), query, near)
		if errors.Is(err, geocode.ErrNoResult) {
			writeJSON(w, http.StatusOK, []geocode.Place{})
			return
		}
		if err != nil {
			writeError(w, http.StatusBadGateway, "geocoder unavailable")
			return
		}
		writeJSON(w, http.StatusOK, places)
	}
}
