package googlemaps

import (
	"context"
	"fmt"
	"time"

	"github.com/route-optimization-engine/internal/config"
	"github.com/route-optimization-engine/internal/domain"
	"github.com/route-optimization-engine/internal/domain/repository"
	"go.uber.org/zap"
	"googlemaps.github.io/maps"
)

// Фиксированная пара точек для пробы доступности
var (
	probeFrom = domain.GeoPoint{Lat: 48.78, Lon: 9.21}
	probeTo   = domain.GeoPoint{Lat: 48.77, Lon: 9.18}
)

type client struct {
	mapsClient     *maps.Client
	requestTimeout time.Duration
	logger         *zap.Logger
}

// NewGoogleClient создает альтернативный клиент дорожной маршрутизации
// поверх Google Maps API
func NewGoogleClient(cfg *config.GoogleConfig, logger *zap.Logger) (repository.RoutingRepository, error) {
	mapsClient, err := maps.NewClient(maps.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}

	return &client{
		mapsClient:     mapsClient,
		requestTimeout: cfg.RequestTimeout,
		logger:         logger,
	}, nil
}

// GetRoute возвращает маршрут между двумя точками
func (c *client) GetRoute(ctx context.Context, from, to domain.GeoPoint) (*domain.RoadRoute, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	routes, _, err := c.mapsClient.Directions(ctx, &maps.DirectionsRequest{
		Origin:      formatLatLng(from),
		Destination: formatLatLng(to),
		Mode:        maps.TravelModeDriving,
	})
	if err != nil {
		c.logger.Warn("Google directions request failed", zap.Error(err))
		return nil, fmt.Errorf("failed to execute directions request: %w", err)
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("google directions returned no routes")
	}

	route := &domain.RoadRoute{}
	for _, leg := range routes[0].Legs {
		route.DistanceM += float64(leg.Distance.Meters)
		route.DurationS += leg.Duration.Seconds()
	}
	return route, nil
}

// GetRouteGeometry возвращает маршрут через все точки с геометрией пути
func (c *client) GetRouteGeometry(ctx context.Context, points []domain.GeoPoint) (*domain.RoadRoute, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("route geometry requires at least 2 points")
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	waypoints := make([]string, 0, len(points)-2)
	for _, p := range points[1 : len(points)-1] {
		waypoints = append(waypoints, formatLatLng(p))
	}

	routes, _, err := c.mapsClient.Directions(ctx, &maps.DirectionsRequest{
		Origin:      formatLatLng(points[0]),
		Destination: formatLatLng(points[len(points)-1]),
		Waypoints:   waypoints,
		Mode:        maps.TravelModeDriving,
	})
	if err != nil {
		c.logger.Warn("Google directions request failed", zap.Error(err))
		return nil, fmt.Errorf("failed to execute directions request: %w", err)
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("google directions returned no routes")
	}

	result := &domain.RoadRoute{}
	for _, leg := range routes[0].Legs {
		result.DistanceM += float64(leg.Distance.Meters)
		result.DurationS += leg.Duration.Seconds()
		result.Legs = append(result.Legs, domain.RouteLeg{
			DistanceM: float64(leg.Distance.Meters),
			DurationS: leg.Duration.Seconds(),
		})
	}

	decoded, err := routes[0].OverviewPolyline.Decode()
	if err != nil {
		c.logger.Warn("Failed to decode overview polyline", zap.Error(err))
	} else {
		result.Geometry = make([]domain.GeoPoint, 0, len(decoded))
		for _, ll := range decoded {
			result.Geometry = append(result.Geometry, domain.GeoPoint{Lat: ll.Lat, Lon: ll.Lng})
		}
	}

	return result, nil
}

// GetTable возвращает матрицу расстояний и длительностей
func (c *client) GetTable(ctx context.Context, points []domain.GeoPoint) (*domain.DistanceMatrix, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("points cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	coords := make([]string, 0, len(points))
	for _, p := range points {
		coords = append(coords, formatLatLng(p))
	}

	resp, err := c.mapsClient.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      coords,
		Destinations: coords,
		Mode:         maps.TravelModeDriving,
		Units:        maps.UnitsMetric,
	})
	if err != nil {
		c.logger.Warn("Google distance matrix request failed", zap.Error(err))
		return nil, fmt.Errorf("failed to execute distance matrix request: %w", err)
	}
	if len(resp.Rows) != len(points) {
		return nil, fmt.Errorf("google matrix returned %d rows for %d points", len(resp.Rows), len(points))
	}

	distances := make([][]float64, len(points))
	durations := make([][]float64, len(points))
	for i, row := range resp.Rows {
		if len(row.Elements) != len(points) {
			return nil, fmt.Errorf("google matrix row %d has wrong length", i)
		}
		distances[i] = make([]float64, len(points))
		durations[i] = make([]float64, len(points))
		for j, element := range row.Elements {
			if element.Status != "OK" {
				return nil, fmt.Errorf("google matrix element %d,%d status: %s", i, j, element.Status)
			}
			distances[i][j] = float64(element.Distance.Meters)
			durations[i][j] = element.Duration.Seconds()
		}
	}

	return &domain.DistanceMatrix{
		Provenance: domain.ProvenanceRoadNetwork,
		Distances:  distances,
		Durations:  durations,
	}, nil
}

// Nearest возвращает ближайшую точку на проезжей дороге
func (c *client) Nearest(ctx context.Context, point domain.GeoPoint) (*domain.GeoPoint, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	resp, err := c.mapsClient.NearestRoads(ctx, &maps.NearestRoadsRequest{
		Points: []maps.LatLng{{Lat: point.Lat, Lng: point.Lon}},
	})
	if err != nil {
		c.logger.Warn("Google nearest roads request failed", zap.Error(err))
		return nil, fmt.Errorf("failed to execute nearest roads request: %w", err)
	}
	if len(resp.SnappedPoints) == 0 {
		return nil, fmt.Errorf("google nearest roads returned no points")
	}

	loc := resp.SnappedPoints[0].Location
	return &domain.GeoPoint{Lat: loc.Lat, Lon: loc.Lng}, nil
}

// Probe выполняет дешевый пробный запрос доступности сервиса
func (c *client) Probe(ctx context.Context) error {
	route, err := c.GetRoute(ctx, probeFrom, probeTo)
	if err != nil {
		return err
	}
	if route.DistanceM <= 0 {
		return fmt.Errorf("google probe returned empty route")
	}
	return nil
}

func formatLatLng(p domain.GeoPoint) string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lon)
}
