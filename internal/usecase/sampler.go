package usecase

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/route-optimization-engine/internal/config"
	"github.com/route-optimization-engine/internal/domain"
	"github.com/route-optimization-engine/internal/pkg/geo"
)

// SegmentSampler нарезает уличную геометрию с парковочными тегами на
// дискретные статические кандидаты. Работает офлайн при импорте, не на
// горячем пути планирования
type SegmentSampler struct {
	spacingM float64
	decimals int
	logger   *zap.Logger
}

// NewSegmentSampler создает новый SegmentSampler
func NewSegmentSampler(cfg *config.ImportConfig, logger *zap.Logger) *SegmentSampler {
	spacing := cfg.SpacingM
	if spacing <= 0 {
		spacing = 10.0
	}

	decimals := cfg.DedupeDecimals
	if decimals <= 0 {
		decimals = 5
	}

	return &SegmentSampler{
		spacingM: spacing,
		decimals: decimals,
		logger:   logger,
	}
}

// Sample проходит геометрию каждой улицы и ставит точку через каждый шаг,
// включая оба конца. Точки, совпадающие после округления координат,
// схлопываются глобально по всем сегментам
func (s *SegmentSampler) Sample(segments []*domain.ParkingSegment) []*domain.ParkingLocation {
	seen := make(map[string]struct{})
	var locations []*domain.ParkingLocation

	for _, segment := range segments {
		if len(segment.Geometry) < 2 {
			continue
		}

		for _, point := range s.walk(segment.Geometry) {
			lat := geo.RoundCoord(point.Lat, s.decimals)
			lon := geo.RoundCoord(point.Lon, s.decimals)

			key := fmt.Sprintf("%.*f:%.*f", s.decimals, lat, s.decimals, lon)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}

			name := segment.Name
			if name == "" {
				name = "OSM Street Parking"
			}

			wayID := segment.WayID
			tag := segment.Tag
			locations = append(locations, &domain.ParkingLocation{
				Name:     &name,
				Lat:      lat,
				Lon:      lon,
				OSMWayID: &wayID,
				Tag:      &tag,
			})
		}
	}

	s.logger.Info("Street geometry sampled",
		zap.Int("segments", len(segments)),
		zap.Int("locations", len(locations)))

	return locations
}

// walk ставит точки вдоль ломаной через каждые spacingM метров
func (s *SegmentSampler) walk(geometry []domain.GeoPoint) []domain.GeoPoint {
	legs := make([]float64, len(geometry)-1)
	totalM := 0.0
	for i := 0; i+1 < len(geometry); i++ {
		legs[i] = geo.HaversineDistance(
			geometry[i].Lat, geometry[i].Lon,
			geometry[i+1].Lat, geometry[i+1].Lon,
		) * 1000
		totalM += legs[i]
	}

	if totalM == 0 {
		return geometry[:1]
	}

	steps := int(totalM / s.spacingM)
	if steps < 1 {
		steps = 1
	}

	points := make([]domain.GeoPoint, 0, steps+1)
	for i := 0; i <= steps; i++ {
		target := float64(i) / float64(steps) * totalM
		points = append(points, interpolateAt(geometry, legs, target))
	}

	return points
}

// interpolateAt возвращает точку ломаной на заданной дистанции от ее начала
func interpolateAt(geometry []domain.GeoPoint, legs []float64, target float64) domain.GeoPoint {
	cum := 0.0
	for i, leg := range legs {
		if leg == 0 {
			continue
		}

		if target <= cum+leg {
			frac := (target - cum) / leg
			a, b := geometry[i], geometry[i+1]
			return domain.GeoPoint{
				Lat: a.Lat + frac*(b.Lat-a.Lat),
				Lon: a.Lon + frac*(b.Lon-a.Lon),
			}
		}

		cum += leg
	}

	return geometry[len(geometry)-1]
}
