package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/route-optimization-engine/internal/domain"
)

// RouteAssembler сшивает депо, парковки и точки доставки в готовый маршрут с
// итоговыми показателями и расчетным временем прибытия
type RouteAssembler struct {
	oracle *DistanceOracle
	logger *zap.Logger
}

// NewRouteAssembler создает новый RouteAssembler
func NewRouteAssembler(oracle *DistanceOracle, logger *zap.Logger) *RouteAssembler {
	return &RouteAssembler{
		oracle: oracle,
		logger: logger,
	}
}

// Assemble строит план маршрута: депо, затем для каждой остановки парковка
// (когда найдена) и точка доставки, в конце снова депо. Показатели берутся
// одним дорожным запросом через всю цепочку, он же дает геометрию пути. При
// отказе все отрезки считаются оценкой, дорожные и оценочные значения в
// одном плане не смешиваются
func (a *RouteAssembler) Assemble(
	ctx context.Context,
	depot domain.Depot,
	orderedStops []domain.Stop,
	parkingByStop map[int]*domain.ParkingCandidate,
	startTime *time.Time,
	force bool,
) *domain.RoutePlan {
	waypoints := buildWaypoints(depot, orderedStops, parkingByStop)

	points := make([]domain.GeoPoint, len(waypoints))
	for i, wp := range waypoints {
		points[i] = wp.Location
	}

	plan := &domain.RoutePlan{Waypoints: waypoints}
	var legs []domain.RouteLeg

	route, err := a.oracle.RoadRoute(ctx, points, force)
	if err == nil && len(route.Legs) == len(points)-1 {
		plan.TotalDistanceKm = route.DistanceM / 1000
		plan.TotalTimeMinutes = route.DurationS / 60
		plan.Geometry = route.Geometry
		plan.Provenance = domain.ProvenanceRoadNetwork
		legs = route.Legs
	} else {
		if err != nil {
			a.logger.Warn("Road route unavailable, using segment estimates", zap.Error(err))
		} else {
			a.logger.Warn("Road route legs mismatch, using segment estimates",
				zap.Int("legs", len(route.Legs)),
				zap.Int("segments", len(points)-1))
		}

		var totalM, totalS float64
		legs = make([]domain.RouteLeg, 0, len(points)-1)
		for i := 0; i+1 < len(points); i++ {
			est := a.oracle.Estimate(points[i], points[i+1])
			legs = append(legs, domain.RouteLeg{DistanceM: est.DistanceM, DurationS: est.DurationS})
			totalM += est.DistanceM
			totalS += est.DurationS
		}

		plan.TotalDistanceKm = totalM / 1000
		plan.TotalTimeMinutes = totalS / 60
		plan.Provenance = domain.ProvenanceEstimate
	}

	if startTime != nil {
		stampArrivals(plan.Waypoints, legs, *startTime)
	}

	a.logger.Info("Route assembled",
		zap.Int("deliveries", len(orderedStops)),
		zap.Float64("distance_km", plan.TotalDistanceKm),
		zap.Float64("time_minutes", plan.TotalTimeMinutes),
		zap.String("provenance", plan.Provenance))

	return plan
}

// ScoreImprovement сравнивает исходный и оптимизированный порядок объезда.
// Обе длины считаются по одной матрице
func (a *RouteAssembler) ScoreImprovement(
	ctx context.Context,
	depot domain.GeoPoint,
	stops []domain.Stop,
	originalOrder, optimizedOrder []int,
	force bool,
) domain.ImprovementMetrics {
	points := make([]domain.GeoPoint, 0, len(stops)+1)
	points = append(points, depot)
	for _, stop := range stops {
		points = append(points, stop.Location)
	}

	matrix := a.oracle.Matrix(ctx, points, force)

	originalKm := tourCost(matrix, originalOrder) / 1000
	optimizedKm := tourCost(matrix, optimizedOrder) / 1000

	metrics := domain.ImprovementMetrics{
		OriginalKm:  originalKm,
		OptimizedKm: optimizedKm,
		SavedKm:     originalKm - optimizedKm,
	}
	if originalKm > 0 {
		metrics.ImprovementPercent = metrics.SavedKm / originalKm * 100
	}

	return metrics
}

// buildWaypoints раскладывает точки в порядке объезда. Ключи parkingByStop
// это позиции в orderedStops
func buildWaypoints(
	depot domain.Depot,
	orderedStops []domain.Stop,
	parkingByStop map[int]*domain.ParkingCandidate,
) []domain.Waypoint {
	waypoints := make([]domain.Waypoint, 0, 2*len(orderedStops)+2)

	waypoints = append(waypoints, domain.Waypoint{
		Kind:     domain.WaypointDepot,
		Location: depot.Location,
		Name:     depot.Name,
		Address:  depot.Address,
	})

	for i, stop := range orderedStops {
		if parking := parkingByStop[i]; parking != nil {
			name := parking.Name
			if name == "" {
				name = "Parking"
			}

			waypoints = append(waypoints, domain.Waypoint{
				Kind:     domain.WaypointParking,
				Location: parking.Location,
				Name:     name,
			})
		}

		waypoints = append(waypoints, domain.Waypoint{
			Kind:     domain.WaypointDelivery,
			Location: stop.Location,
			Name:     stop.Name,
			Address:  stop.Address,
			StopID:   stop.ID,
		})
	}

	waypoints = append(waypoints, domain.Waypoint{
		Kind:     domain.WaypointDepot,
		Location: depot.Location,
		Name:     depot.Name,
		Address:  depot.Address,
	})

	return waypoints
}

// stampArrivals проставляет расчетное время прибытия накопительно по
// длительностям отрезков, первая точка получает время старта
func stampArrivals(waypoints []domain.Waypoint, legs []domain.RouteLeg, startTime time.Time) {
	arrival := startTime
	waypoints[0].EstimatedArrival = &arrival

	current := startTime
	for i, leg := range legs {
		if i+1 >= len(waypoints) {
			break
		}

		current = current.Add(time.Duration(leg.DurationS * float64(time.Second)))
		t := current
		waypoints[i+1].EstimatedArrival = &t
	}
}
