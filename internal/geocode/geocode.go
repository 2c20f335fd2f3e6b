// Package geocode is a client for a Nominatim-compatible geocoding service.
// It resolves map clicks to addresses (reverse) and free-text queries to
// candidate places (forward).
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/breadcrumbsapp/breadcrumbs/internal/geo"
)

// ErrNoResult means the service answered but found nothing for the input.
// Callers keep their previous selection and show a dismissible error.
var ErrNoResult = errors.New("geocode: no result")

const searchLimit = 10

// Place is one geocoding result.
type Place struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Address    string         `json:"address"`
	Coordinate geo.Coordinate `json:"coordinate"`
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func New(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

type nominatimResult struct {
	PlaceID     int64  `json:"place_id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Reverse resolves a clicked coordinate to the nearest address.
func (c *Client) Reverse(ctx context.Context, coord geo.Coordinate) (Place, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(coord.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(coord.Longitude, 'f', -1, 64))

	var res nominatimResult
	if err := c.get(ctx, "/reverse", q, &res); err != nil {
		return Place{}, err
	}
	if res.DisplayName == "" {
		return Place{}, ErrNoResult
	}

	p := res.place()
	// Reverse results keep the clicked point, not the address centroid,
	// so the note lands where the user clicked.
	p.Coordinate = coord
	return p, nil
}

// Search looks up places matching a free-text query. When near is set the
// service is asked to prefer results around it.
func (c *Client) Search(ctx context.Context, query string, near *geo.Coordinate) ([]Place, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(searchLimit))
	if near != nil {
		viewbox := fmt.Sprintf("%f,%f,%f,%f",
			near.Longitude-0.05, near.Latitude+0.05,
			near.Longitude+0.05, near.Latitude-0.05)
		q.Set("viewbox", viewbox)
	}

	var results []nominatimResult
	if err := c.get(ctx, "/search", q, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoResult
	}

	places := make([]Place, 0, len(results))
	for _, r := range results {
		places = append(places, r.place())
	}
	return places, nil
}

func (r nominatimResult) place() Place {
	lat, _ := strconv.ParseFloat(r.Lat, 64)
	lon, _ := strconv.ParseFloat(r.Lon, 64)

	name := r.Name
	if name == "" {
		name = r.DisplayName
	}
	return Place{
		ID:         strconv.FormatInt(r.PlaceID, 10),
		Name:       name,
		Address:    r.DisplayName,
		Coordinate: geo.Coordinate{Latitude: lat, Longitude: lon},
	}
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("building geocode request: %w", err)
	}
	req.Header.Set("User-Agent", "breadcrumbs/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling geocoder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("geocoder error", "path", path, "status", resp.StatusCode)
		return fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding geocode response: %w", err)
	}
	return nil
}
