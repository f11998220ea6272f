package overpass

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/route-optimization-engine/internal/config"
	"github.com/route-optimization-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(baseURL string) *config.OverpassConfig {
	return &config.OverpassConfig{
		BaseURL:       baseURL,
		NearbyTimeout: 30 * time.Second,
		BulkTimeout:   180 * time.Second,
		RadiusM:       600,
		Limit:         10,
		WayTags:       []string{"parking", "parking:lane", "parking:left"},
	}
}

func TestClient_GetParkingNearby(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	t.Run("nodes and ways sorted by distance", func(t *testing.T) {
		var gotQuery string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			gotQuery = string(body)
			w.Write([]byte(`{
				"elements": [
					{"type": "node", "id": 1, "lat": 48.7900, "lon": 9.1900, "tags": {"name": "Parkhaus Mitte"}},
					{"type": "way", "id": 2, "center": {"lat": 48.7840, "lon": 9.1820}, "tags": {}},
					{"type": "node", "id": 3, "lat": 48.8000, "lon": 9.2100}
				]
			}`))
		}))
		defer server.Close()

		client := NewOverpassClient(testConfig(server.URL), logger)

		candidates, err := client.GetParkingNearby(context.Background(), 48.7833, 9.1817, 600, 10)
		require.NoError(t, err)
		require.Len(t, candidates, 3)

		// ближайший первым: центр way в 80 метрах от точки запроса
		assert.Equal(t, 48.7840, candidates[0].Location.Lat)
		assert.Equal(t, "OSM Parking", candidates[0].Name)
		assert.Equal(t, "Parkhaus Mitte", candidates[1].Name)
		for _, cand := range candidates {
			assert.Equal(t, domain.ParkingSourceLivePOI, cand.Source)
			assert.Greater(t, cand.DistanceKm, 0.0)
		}
		assert.Contains(t, gotQuery, "amenity")
		assert.Contains(t, gotQuery, "around%3A600")
	})

	t.Run("respects limit", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{
				"elements": [
					{"type": "node", "id": 1, "lat": 48.79, "lon": 9.19},
					{"type": "node", "id": 2, "lat": 48.78, "lon": 9.18},
					{"type": "node", "id": 3, "lat": 48.77, "lon": 9.17}
				]
			}`))
		}))
		defer server.Close()

		client := NewOverpassClient(testConfig(server.URL), logger)

		candidates, err := client.GetParkingNearby(context.Background(), 48.7833, 9.1817, 600, 2)
		require.NoError(t, err)
		assert.Len(t, candidates, 2)
	})

	t.Run("http error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := NewOverpassClient(testConfig(server.URL), logger)

		candidates, err := client.GetParkingNearby(context.Background(), 48.7833, 9.1817, 600, 10)
		assert.Error(t, err)
		assert.Nil(t, candidates)
		assert.Contains(t, err.Error(), "overpass API error")
	})

	t.Run("malformed response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer server.Close()

		client := NewOverpassClient(testConfig(server.URL), logger)

		candidates, err := client.GetParkingNearby(context.Background(), 48.7833, 9.1817, 600, 10)
		assert.Error(t, err)
		assert.Nil(t, candidates)
	})
}

func TestClient_GetParkingSegments(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	t.Run("ways with geometry", func(t *testing.T) {
		var gotQuery string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			gotQuery = string(body)
			w.Write([]byte(`{
				"elements": [
					{
						"type": "way", "id": 101,
						"tags": {"parking:lane": "parallel", "name": "Hauptstrasse"},
						"geometry": [
							{"lat": 48.7833, "lon": 9.1817},
							{"lat": 48.7840, "lon": 9.1825},
							{"lat": 48.7850, "lon": 9.1840}
						]
					},
					{"type": "way", "id": 102, "geometry": [{"lat": 48.79, "lon": 9.19}]},
					{"type": "node", "id": 103, "lat": 48.80, "lon": 9.20}
				]
			}`))
		}))
		defer server.Close()

		client := NewOverpassClient(testConfig(server.URL), logger)

		bbox := domain.BoundingBox{MinLat: 47.5, MinLon: 7.5, MaxLat: 49.8, MaxLon: 10.5}
		segments, err := client.GetParkingSegments(context.Background(), bbox)
		require.NoError(t, err)
		// way без геометрии и node отбрасываются
		require.Len(t, segments, 1)
		assert.Equal(t, int64(101), segments[0].WayID)
		assert.Equal(t, "Hauptstrasse", segments[0].Name)
		assert.Equal(t, "parking:lane", segments[0].Tag)
		assert.Len(t, segments[0].Geometry, 3)

		assert.Contains(t, gotQuery, "out+geom")
	})

	t.Run("http error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusGatewayTimeout)
		}))
		defer server.Close()

		client := NewOverpassClient(testConfig(server.URL), logger)

		segments, err := client.GetParkingSegments(context.Background(), domain.BoundingBox{})
		assert.Error(t, err)
		assert.Nil(t, segments)
	})
}
