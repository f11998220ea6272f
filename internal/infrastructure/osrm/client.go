package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/route-optimization-engine/internal/config"
	"github.com/route-optimization-engine/internal/domain"
	"github.com/route-optimization-engine/internal/domain/repository"
	"go.uber.org/zap"
)

// Фиксированная пара точек для пробы доступности, короткий отрезок в центре
// зоны обслуживания
var (
	probeFrom = domain.GeoPoint{Lat: 48.78, Lon: 9.21}
	probeTo   = domain.GeoPoint{Lat: 48.77, Lon: 9.18}
)

type client struct {
	httpClient   *http.Client
	baseURL      string
	profile      string
	probeTimeout time.Duration
	routeTimeout time.Duration
	tableTimeout time.Duration
	logger       *zap.Logger
}

// NewOSRMClient создает новый клиент для OSRM API
func NewOSRMClient(cfg *config.OSRMConfig, logger *zap.Logger) repository.RoutingRepository {
	return &client{
		httpClient:   &http.Client{},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		profile:      cfg.Profile,
		probeTimeout: cfg.ProbeTimeout,
		routeTimeout: cfg.RouteTimeout,
		tableTimeout: cfg.TableTimeout,
		logger:       logger,
	}
}

type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Legs []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

type tableResponse struct {
	Code      string      `json:"code"`
	Distances [][]float64 `json:"distances"`
	Durations [][]float64 `json:"durations"`
}

type nearestResponse struct {
	Code      string `json:"code"`
	Waypoints []struct {
		Location []float64 `json:"location"`
	} `json:"waypoints"`
}

// GetRoute возвращает маршрут между двумя точками
func (c *client) GetRoute(ctx context.Context, from, to domain.GeoPoint) (*domain.RoadRoute, error) {
	ctx, cancel := context.WithTimeout(ctx, c.routeTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/route/v1/%s/%s?overview=false",
		c.baseURL, c.profile, formatCoordinates([]domain.GeoPoint{from, to}))

	var routeResp routeResponse
	if err := c.getJSON(ctx, url, &routeResp); err != nil {
		return nil, err
	}

	if routeResp.Code != "Ok" || len(routeResp.Routes) == 0 {
		c.logger.Warn("OSRM route returned no result", zap.String("code", routeResp.Code))
		return nil, fmt.Errorf("osrm route returned code: %s", routeResp.Code)
	}

	return &domain.RoadRoute{
		DistanceM: routeResp.Routes[0].Distance,
		DurationS: routeResp.Routes[0].Duration,
	}, nil
}

// GetRouteGeometry возвращает маршрут через все точки с геометрией пути
func (c *client) GetRouteGeometry(ctx context.Context, points []domain.GeoPoint) (*domain.RoadRoute, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("route geometry requires at least 2 points")
	}

	ctx, cancel := context.WithTimeout(ctx, c.tableTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/route/v1/%s/%s?overview=full&geometries=geojson&steps=false",
		c.baseURL, c.profile, formatCoordinates(points))

	var routeResp routeResponse
	if err := c.getJSON(ctx, url, &routeResp); err != nil {
		return nil, err
	}

	if routeResp.Code != "Ok" || len(routeResp.Routes) == 0 {
		c.logger.Warn("OSRM route geometry returned no result", zap.String("code", routeResp.Code))
		return nil, fmt.Errorf("osrm route returned code: %s", routeResp.Code)
	}

	route := routeResp.Routes[0]
	geometry := make([]domain.GeoPoint, 0, len(route.Geometry.Coordinates))
	for _, coord := range route.Geometry.Coordinates {
		if len(coord) < 2 {
			continue
		}
		// GeoJSON хранит координаты в порядке lon, lat
		geometry = append(geometry, domain.GeoPoint{Lat: coord[1], Lon: coord[0]})
	}

	legs := make([]domain.RouteLeg, 0, len(route.Legs))
	for _, leg := range route.Legs {
		legs = append(legs, domain.RouteLeg{DistanceM: leg.Distance, DurationS: leg.Duration})
	}

	return &domain.RoadRoute{
		DistanceM: route.Distance,
		DurationS: route.Duration,
		Geometry:  geometry,
		Legs:      legs,
	}, nil
}

// GetTable возвращает матрицу расстояний и длительностей
func (c *client) GetTable(ctx context.Context, points []domain.GeoPoint) (*domain.DistanceMatrix, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("points cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, c.tableTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/table/v1/%s/%s?annotations=duration,distance",
		c.baseURL, c.profile, formatCoordinates(points))

	c.logger.Debug("Calling OSRM Table API",
		zap.String("url", url),
		zap.Int("points_count", len(points)))

	var tableResp tableResponse
	if err := c.getJSON(ctx, url, &tableResp); err != nil {
		return nil, err
	}

	if tableResp.Code != "Ok" {
		c.logger.Warn("OSRM table returned non-OK code", zap.String("code", tableResp.Code))
		return nil, fmt.Errorf("osrm table returned code: %s", tableResp.Code)
	}

	if len(tableResp.Distances) != len(points) || len(tableResp.Durations) != len(points) {
		return nil, fmt.Errorf("osrm table returned %d distance rows for %d points",
			len(tableResp.Distances), len(points))
	}
	for i := range tableResp.Distances {
		if len(tableResp.Distances[i]) != len(points) || len(tableResp.Durations[i]) != len(points) {
			return nil, fmt.Errorf("osrm table row %d has wrong length", i)
		}
	}

	return &domain.DistanceMatrix{
		Provenance: domain.ProvenanceRoadNetwork,
		Distances:  tableResp.Distances,
		Durations:  tableResp.Durations,
	}, nil
}

// Nearest возвращает ближайшую точку на проезжей дороге
func (c *client) Nearest(ctx context.Context, point domain.GeoPoint) (*domain.GeoPoint, error) {
	ctx, cancel := context.WithTimeout(ctx, c.routeTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/nearest/v1/%s/%f,%f?number=1",
		c.baseURL, c.profile, point.Lon, point.Lat)

	var nearestResp nearestResponse
	if err := c.getJSON(ctx, url, &nearestResp); err != nil {
		return nil, err
	}

	if nearestResp.Code != "Ok" || len(nearestResp.Waypoints) == 0 {
		return nil, fmt.Errorf("osrm nearest returned code: %s", nearestResp.Code)
	}

	loc := nearestResp.Waypoints[0].Location
	if len(loc) < 2 {
		return nil, fmt.Errorf("osrm nearest returned malformed location")
	}

	return &domain.GeoPoint{Lat: loc[1], Lon: loc[0]}, nil
}

// Probe выполняет дешевый пробный запрос доступности сервиса
func (c *client) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/route/v1/%s/%s?overview=false",
		c.baseURL, c.profile, formatCoordinates([]domain.GeoPoint{probeFrom, probeTo}))

	var routeResp routeResponse
	if err := c.getJSON(ctx, url, &routeResp); err != nil {
		return err
	}

	if routeResp.Code != "Ok" {
		return fmt.Errorf("osrm probe returned code: %s", routeResp.Code)
	}
	return nil
}

func (c *client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Error("Failed to create request", zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Failed to execute request", zap.Error(err))
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warn("OSRM API returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return fmt.Errorf("osrm API error: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Warn("Failed to decode response", zap.Error(err))
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// formatCoordinates собирает список координат в формате OSRM: lon,lat через
// точку с запятой
func formatCoordinates(points []domain.GeoPoint) string {
	coordinates := make([]string, 0, len(points))
	for _, p := range points {
		coordinates = append(coordinates, fmt.Sprintf("%f,%f", p.Lon, p.Lat))
	}
	return strings.Join(coordinates, ";")
}
