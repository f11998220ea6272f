package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/route-optimization-engine/internal/config"
	"github.com/route-optimization-engine/internal/domain"
	"github.com/route-optimization-engine/internal/domain/repository"
	"github.com/route-optimization-engine/internal/pkg/geo"
	"go.uber.org/zap"
)

type client struct {
	httpClient    *http.Client
	baseURL       string
	nearbyTimeout time.Duration
	bulkTimeout   time.Duration
	wayTags       []string
	logger        *zap.Logger
}

// NewOverpassClient создает новый клиент для Overpass API
func NewOverpassClient(cfg *config.OverpassConfig, logger *zap.Logger) repository.ParkingPOIRepository {
	return &client{
		httpClient:    &http.Client{},
		baseURL:       cfg.BaseURL,
		nearbyTimeout: cfg.NearbyTimeout,
		bulkTimeout:   cfg.BulkTimeout,
		wayTags:       cfg.WayTags,
		logger:        logger,
	}
}

type overpassElement struct {
	Type   string  `json:"type"`
	ID     int64   `json:"id"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center,omitempty"`
	Tags     map[string]string `json:"tags"`
	Geometry []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"geometry"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

// GetParkingNearby возвращает парковки в радиусе от точки
func (c *client) GetParkingNearby(ctx context.Context, lat, lon float64, radiusM, limit int) ([]*domain.ParkingCandidate, error) {
	query := fmt.Sprintf(`
	[out:json][timeout:25];
	(
		node["amenity"="parking"](around:%d,%f,%f);
		way["amenity"="parking"](around:%d,%f,%f);
		relation["amenity"="parking"](around:%d,%f,%f);
	);
	out center %d;
	`, radiusM, lat, lon, radiusM, lat, lon, radiusM, lat, lon, limit)

	c.logger.Debug("Calling Overpass parking nearby",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.Int("radius_m", radiusM))

	payload, err := c.post(ctx, query, c.nearbyTimeout)
	if err != nil {
		return nil, err
	}

	candidates := make([]*domain.ParkingCandidate, 0, len(payload.Elements))
	for _, element := range payload.Elements {
		elementLat, elementLon, ok := elementLocation(element)
		if !ok {
			continue
		}

		name := element.Tags["name"]
		if name == "" {
			name = "OSM Parking"
		}

		candidates = append(candidates, &domain.ParkingCandidate{
			Location:   domain.GeoPoint{Lat: elementLat, Lon: elementLon},
			Source:     domain.ParkingSourceLivePOI,
			Name:       name,
			DistanceKm: geo.HaversineDistance(lat, lon, elementLat, elementLon),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].DistanceKm < candidates[j].DistanceKm
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	c.logger.Debug("Overpass parking nearby finished", zap.Int("found", len(candidates)))
	return candidates, nil
}

// GetParkingSegments возвращает улицы с парковочными тегами в регионе
func (c *client) GetParkingSegments(ctx context.Context, bbox domain.BoundingBox) ([]*domain.ParkingSegment, error) {
	filters := make([]string, 0, len(c.wayTags))
	for _, tag := range c.wayTags {
		filters = append(filters, fmt.Sprintf(`	way["%s"](%f,%f,%f,%f);`,
			tag, bbox.MinLat, bbox.MinLon, bbox.MaxLat, bbox.MaxLon))
	}

	query := fmt.Sprintf("[out:json][timeout:180];\n(\n%s\n);\nout geom;",
		strings.Join(filters, "\n"))

	c.logger.Info("Calling Overpass bulk parking segments",
		zap.Int("tags_count", len(c.wayTags)))

	payload, err := c.post(ctx, query, c.bulkTimeout)
	if err != nil {
		return nil, err
	}

	segments := make([]*domain.ParkingSegment, 0, len(payload.Elements))
	for _, element := range payload.Elements {
		if element.Type != "way" || len(element.Geometry) < 2 {
			continue
		}

		geometry := make([]domain.GeoPoint, 0, len(element.Geometry))
		for _, node := range element.Geometry {
			geometry = append(geometry, domain.GeoPoint{Lat: node.Lat, Lon: node.Lon})
		}

		segments = append(segments, &domain.ParkingSegment{
			WayID:    element.ID,
			Name:     element.Tags["name"],
			Tag:      c.matchWayTag(element.Tags),
			Geometry: geometry,
		})
	}

	c.logger.Info("Overpass bulk parking segments finished", zap.Int("ways", len(segments)))
	return segments, nil
}

func (c *client) post(ctx context.Context, query string, timeout time.Duration) (*overpassResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		c.logger.Error("Failed to create request", zap.Error(err))
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Failed to execute request", zap.Error(err))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warn("Overpass API returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("overpass API error: status %d", resp.StatusCode)
	}

	var payload overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Warn("Failed to decode response", zap.Error(err))
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &payload, nil
}

// matchWayTag возвращает первый парковочный тег из настроенного списка,
// присутствующий на элементе
func (c *client) matchWayTag(tags map[string]string) string {
	for _, tag := range c.wayTags {
		if _, ok := tags[tag]; ok {
			return tag
		}
	}
	return ""
}

func elementLocation(element overpassElement) (float64, float64, bool) {
	if element.Type == "node" {
		return element.Lat, element.Lon, true
	}
	if element.Center != nil {
		return element.Center.Lat, element.Center.Lon, true
	}
	return 0, 0, false
}
