// Package geo resolves free-text addresses to coordinates via the public
// Nominatim API. Geocoding is advisory: shipment updates succeed even when
// the lookup fails or returns nothing.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Coordinates is a resolved location
type Coordinates struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	DisplayName string  `json:"display_name"`
}

type Geocoder interface {
	// Geocode resolves an address. A nil result with a nil error means the
	// address produced no match.
	Geocode(ctx context.Context, address string) (*Coordinates, error)
}

type nominatimGeocoder struct {
	baseURL string
	client  *http.Client
}

// NewNominatim builds a geocoder against the public Nominatim endpoint.
// baseURL overrides the endpoint for tests; pass empty for the default.
func NewNominatim(baseURL string) Geocoder {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &nominatimGeocoder{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (g *nominatimGeocoder) Geocode(ctx context.Context, address string) (*Coordinates, error) {
	if address == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/search?format=json&limit=1&q=%s", g.baseURL, url.QueryEscape(address))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("geocode: build request: %w", err)
	}
	// Nominatim's usage policy requires an identifying User-Agent
	req.Header.Set("User-Agent", "chainsense-backend/1.0 (support@chainsense.io)")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode %q: unexpected status %d", address, resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("geocode %q: decode response: %w", address, err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: bad latitude %q", address, results[0].Lat)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: bad longitude %q", address, results[0].Lon)
	}

	return &Coordinates{Lat: lat, Lng: lng, DisplayName: results[0].DisplayName}, nil
}
