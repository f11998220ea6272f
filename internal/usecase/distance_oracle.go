package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/route-optimization-engine/internal/config"
	"github.com/route-optimization-engine/internal/domain"
	"github.com/route-optimization-engine/internal/domain/repository"
	"github.com/route-optimization-engine/internal/pkg/errors"
	"github.com/route-optimization-engine/internal/pkg/geo"
)

// DistanceOracle вычисляет попарные расстояния и длительности перемещения.
// Сначала пробует живой запрос к дорожной сети, при отказе переходит на
// оценку по дуге большого круга. Ни одна ошибка наружу не выходит, у каждого
// отказа есть детерминированный запасной путь
type DistanceOracle struct {
	routing       repository.RoutingRepository
	cache         repository.CacheRepository
	speedKmh      float64
	trafficBuffer float64
	probeTTL      time.Duration
	logger        *zap.Logger
}

// NewDistanceOracle создает новый DistanceOracle
func NewDistanceOracle(
	routing repository.RoutingRepository,
	cache repository.CacheRepository,
	cfg *config.Config,
	logger *zap.Logger,
) *DistanceOracle {
	speed := cfg.Planner.SpeedKmh
	if speed <= 0 {
		speed = 50.0
	}

	buffer := cfg.Planner.TrafficBuffer
	if buffer <= 0 {
		buffer = 1.3
	}

	probeTTL := cfg.OSRM.ProbeTTL
	if probeTTL <= 0 {
		probeTTL = 30 * time.Second
	}

	return &DistanceOracle{
		routing:       routing,
		cache:         cache,
		speedKmh:      speed,
		trafficBuffer: buffer,
		probeTTL:      probeTTL,
		logger:        logger,
	}
}

// Matrix строит матрицу расстояний для набора точек. Провенанс единый для
// всей матрицы: либо вся таблица получена от дорожного сервиса, либо вся
// посчитана по дуге большого круга
func (o *DistanceOracle) Matrix(ctx context.Context, points []domain.GeoPoint, force bool) *domain.DistanceMatrix {
	if len(points) >= 2 && o.roadAvailable(ctx, force) {
		matrix, err := o.routing.GetTable(ctx, points)
		if err == nil {
			return matrix
		}

		o.logger.Warn("Road network table failed, using great-circle estimate",
			zap.Int("points", len(points)),
			zap.Error(err))
	}

	return o.estimateMatrix(points)
}

// Pair возвращает стоимость перемещения между двумя точками. Для различных
// точек результат всегда конечен и положителен
func (o *DistanceOracle) Pair(ctx context.Context, a, b domain.GeoPoint, force bool) domain.TravelEstimate {
	if o.roadAvailable(ctx, force) {
		route, err := o.routing.GetRoute(ctx, a, b)
		if err == nil {
			return domain.TravelEstimate{
				DistanceM:  route.DistanceM,
				DurationS:  route.DurationS,
				Provenance: domain.ProvenanceRoadNetwork,
			}
		}

		o.logger.Warn("Road network route failed, using great-circle estimate", zap.Error(err))
	}

	return o.Estimate(a, b)
}

// Estimate возвращает оценку по дуге большого круга без сетевых запросов.
// Длительность считается из средней городской скорости с поправкой на трафик
func (o *DistanceOracle) Estimate(a, b domain.GeoPoint) domain.TravelEstimate {
	distanceM := geo.HaversineDistance(a.Lat, a.Lon, b.Lat, b.Lon) * 1000
	durationS := distanceM / (o.speedKmh / 3.6) * o.trafficBuffer

	return domain.TravelEstimate{
		DistanceM:  distanceM,
		DurationS:  durationS,
		Provenance: domain.ProvenanceEstimate,
	}
}

// SnapToRoad возвращает ближайшую точку на проезжей дороге. При ошибке
// вызывающий использует исходную точку как есть
func (o *DistanceOracle) SnapToRoad(ctx context.Context, p domain.GeoPoint) (domain.GeoPoint, error) {
	snapped, err := o.routing.Nearest(ctx, p)
	if err != nil {
		return domain.GeoPoint{}, err
	}

	return *snapped, nil
}

// RoadRoute запрашивает полный маршрут через все точки по порядку, с
// геометрией пути и поотрезочными показателями
func (o *DistanceOracle) RoadRoute(ctx context.Context, points []domain.GeoPoint, force bool) (*domain.RoadRoute, error) {
	if !o.roadAvailable(ctx, force) {
		return nil, errors.ErrRoutingUnavailable
	}

	return o.routing.GetRouteGeometry(ctx, points)
}

// roadAvailable проверяет доступность дорожного сервиса по кешированной
// пробе. Проба совещательная: force разрешает запрос даже при отрицательном
// закешированном результате
func (o *DistanceOracle) roadAvailable(ctx context.Context, force bool) bool {
	if force {
		return true
	}

	if cached, err := o.cache.GetProbeStatus(ctx); err == nil && cached != nil {
		return *cached
	}

	available := o.routing.Probe(ctx) == nil
	if err := o.cache.SetProbeStatus(ctx, available, o.probeTTL); err != nil {
		o.logger.Debug("Failed to cache probe status", zap.Error(err))
	}

	if !available {
		o.logger.Warn("Road network service unavailable, estimates will be used")
	}

	return available
}

func (o *DistanceOracle) estimateMatrix(points []domain.GeoPoint) *domain.DistanceMatrix {
	n := len(points)
	distances := make([][]float64, n)
	durations := make([][]float64, n)
	for i := range points {
		distances[i] = make([]float64, n)
		durations[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			est := o.Estimate(points[i], points[j])
			distances[i][j] = est.DistanceM
			distances[j][i] = est.DistanceM
			durations[i][j] = est.DurationS
			durations[j][i] = est.DurationS
		}
	}

	return &domain.DistanceMatrix{
		Provenance: domain.ProvenanceEstimate,
		Distances:  distances,
		Durations:  durations,
	}
}
