package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocodeResolvesAddress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Berlin Depot", r.URL.Query().Get("q"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"52.5200","lon":"13.4050","display_name":"Berlin, Germany"}]`))
	}))
	defer server.Close()

	coords, err := NewNominatim(server.URL).Geocode(context.Background(), "Berlin Depot")
	require.NoError(t, err)
	require.NotNil(t, coords)
	assert.InDelta(t, 52.52, coords.Lat, 0.001)
	assert.InDelta(t, 13.405, coords.Lng, 0.001)
	assert.Equal(t, "Berlin, Germany", coords.DisplayName)
}

func TestGeocodeNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	coords, err := NewNominatim(server.URL).Geocode(context.Background(), "nowhere at all")
	require.NoError(t, err)
	assert.Nil(t, coords)
}

func TestGeocodeEmptyAddress(t *testing.T) {
	coords, err := NewNominatim("").Geocode(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, coords)
}

func TestGeocodeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewNominatim(server.URL).Geocode(context.Background(), "Berlin Depot")
	require.Error(t, err)
}
