package usecase

import (
	"context"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/route-optimization-engine/internal/config"
	"github.com/route-optimization-engine/internal/domain"
	"github.com/route-optimization-engine/internal/domain/repository"
	"github.com/route-optimization-engine/internal/pkg/errors"
	"github.com/route-optimization-engine/internal/pkg/geo"
	"github.com/route-optimization-engine/internal/pkg/logger"
	"github.com/route-optimization-engine/internal/pkg/validator"
	"github.com/route-optimization-engine/internal/usecase/dto"
	"github.com/route-optimization-engine/internal/worker"
)

// Planner оркестрирует полный проход планирования: кластеризация, раздача
// кластеров водителям, подбор парковок, упорядочивание остановок и сборка
// маршрутов. Наружу выходят только ошибки невыполнимого входа, отказ внешних
// сервисов гасится запасными ярусами
type Planner struct {
	oracle         *DistanceOracle
	clusterer      *GeoClusterer
	assigner       *DriverAssigner
	sequencer      *RouteSequencer
	resolver       *ParkingResolver
	assembler      *RouteAssembler
	store          repository.ParkingStoreRepository
	pool           *worker.Pool
	searchRadiusKm float64
	logger         *zap.Logger
}

// NewPlanner создает новый Planner. store может быть nil: без базы
// статических кандидатов подбор парковки начинается с живых POI
func NewPlanner(
	oracle *DistanceOracle,
	clusterer *GeoClusterer,
	assigner *DriverAssigner,
	sequencer *RouteSequencer,
	resolver *ParkingResolver,
	assembler *RouteAssembler,
	store repository.ParkingStoreRepository,
	pool *worker.Pool,
	cfg *config.Config,
	log *zap.Logger,
) *Planner {
	searchRadiusKm := cfg.Parking.StaticSearchRadiusKm
	if searchRadiusKm <= 0 {
		searchRadiusKm = 10.0
	}

	return &Planner{
		oracle:         oracle,
		clusterer:      clusterer,
		assigner:       assigner,
		sequencer:      sequencer,
		resolver:       resolver,
		assembler:      assembler,
		store:          store,
		pool:           pool,
		searchRadiusKm: searchRadiusKm,
		logger:         log,
	}
}

// PlanRoutes планирует маршруты для пула заказов и водителей. Маршруты
// разных водителей собираются одновременно через ограниченный пул
func (p *Planner) PlanRoutes(ctx context.Context, req dto.PlanRequest) (*dto.PlanResponse, error) {
	if err := validateDepot(req.Depot); err != nil {
		return nil, err
	}

	stops := geolocatedStops(req.Stops)
	if len(stops) == 0 {
		return nil, errors.ErrNoGeolocatedStops
	}

	if len(req.Drivers) == 0 {
		return nil, errors.ErrNoAvailableDrivers
	}

	if err := validator.Validate(req.Options); err != nil {
		return nil, errors.ErrInvalidPlanOptions.WithDetails(validator.FieldErrors(err))
	}

	planID := uuid.New().String()
	log := logger.WithPlan(p.logger, planID)

	log.Info("Planning started",
		zap.Int("stops", len(stops)),
		zap.Int("drivers", len(req.Drivers)))

	points := make([]domain.GeoPoint, len(stops))
	for i, s := range stops {
		points[i] = s.Location
	}

	clusters := p.clusterer.Cluster(ctx, points, ClusterOptions{
		MaxClusterSize: req.Options.MaxClusterSize,
		MinClusterSize: req.Options.MinClusterSize,
		Method:         req.Options.Method,
		K:              req.Options.K,
		RadiusKm:       req.Options.RadiusKm,
	})

	assignments := p.assigner.Assign(clusters, stops, req.Drivers, req.Options.Strategy)

	indexByID := make(map[int64]int, len(stops))
	for i, s := range stops {
		indexByID[s.ID] = i
	}

	routes := make([]dto.RouteResult, len(assignments))
	tasks := make([]worker.Task, len(assignments))
	for ai := range assignments {
		ai := ai
		tasks[ai] = func(ctx context.Context) error {
			assignment := assignments[ai]

			clusterStops := make([]domain.Stop, 0, len(assignment.Orders))
			for _, id := range assignment.Orders {
				clusterStops = append(clusterStops, stops[indexByID[id]])
			}

			var parking map[int]*domain.ParkingCandidate
			if req.Options.ParkingAware {
				parking = p.resolveParking(ctx, clusterStops)
			}

			order := p.sequencer.Sequence(ctx, req.Depot.Location, clusterStops, parking, req.Options.ForceRoadNetwork)

			orderedStops := make([]domain.Stop, len(order))
			orderedParking := make(map[int]*domain.ParkingCandidate, len(parking))
			for pos, idx := range order {
				orderedStops[pos] = clusterStops[idx]
				if c := parking[idx]; c != nil {
					orderedParking[pos] = c
				}
			}

			plan := p.assembler.Assemble(ctx, req.Depot, orderedStops, orderedParking, req.StartTime, req.Options.ForceRoadNetwork)

			routes[ai] = dto.RouteResult{Assignment: assignment, Plan: plan}
			return nil
		}
	}

	if err := p.pool.Run(ctx, tasks); err != nil {
		return nil, err
	}

	stats := computeStatistics(routes)

	log.Info("Planning finished",
		zap.Int("routes", stats.TotalRoutes),
		zap.Int("orders", stats.TotalOrders),
		zap.Float64("total_km", stats.TotalDistanceKm))

	return &dto.PlanResponse{
		PlanID:     planID,
		Routes:     routes,
		Statistics: stats,
	}, nil
}

// OptimizeSequence переупорядочивает существующий маршрут и считает выигрыш.
// Когда новый порядок не короче исходного, возвращается исходный порядок с
// нулевым выигрышем
func (p *Planner) OptimizeSequence(ctx context.Context, req dto.OptimizeRequest) (*dto.OptimizeResponse, error) {
	if err := validateDepot(req.Depot); err != nil {
		return nil, err
	}

	stops := geolocatedStops(req.Stops)
	if len(stops) == 0 {
		return nil, errors.ErrNoGeolocatedStops
	}

	if err := validator.Validate(req.Options); err != nil {
		return nil, errors.ErrInvalidPlanOptions.WithDetails(validator.FieldErrors(err))
	}

	var parking map[int]*domain.ParkingCandidate
	if req.Options.ParkingAware {
		parking = p.resolveParking(ctx, stops)
	}

	originalOrder := identityOrder(len(stops))
	optimized := p.sequencer.Sequence(ctx, req.Depot.Location, stops, parking, req.Options.ForceRoadNetwork)

	metrics := p.assembler.ScoreImprovement(ctx, req.Depot.Location, stops, originalOrder, optimized, req.Options.ForceRoadNetwork)
	if metrics.SavedKm < 0 {
		optimized = originalOrder
		metrics = domain.ImprovementMetrics{
			OriginalKm:  metrics.OriginalKm,
			OptimizedKm: metrics.OriginalKm,
		}
	}

	orderedStops := make([]domain.Stop, len(optimized))
	orderedParking := make(map[int]*domain.ParkingCandidate)
	orderIDs := make([]int64, len(optimized))
	for pos, idx := range optimized {
		orderedStops[pos] = stops[idx]
		orderIDs[pos] = stops[idx].ID
		if c := parking[idx]; c != nil {
			orderedParking[pos] = c
		}
	}

	plan := p.assembler.Assemble(ctx, req.Depot, orderedStops, orderedParking, req.StartTime, req.Options.ForceRoadNetwork)

	p.logger.Info("Sequence optimized",
		zap.Int("stops", len(stops)),
		zap.Float64("saved_km", metrics.SavedKm),
		zap.Float64("improvement_percent", metrics.ImprovementPercent))

	return &dto.OptimizeResponse{
		OptimizedOrder: orderIDs,
		Plan:           plan,
		Improvement:    metrics,
	}, nil
}

// resolveParking тянет статических кандидатов вокруг каждой остановки и
// отдает их резолверу. Радиус выборки шире радиуса первого яруса, чтобы у
// последнего шанса были данные за его пределами
func (p *Planner) resolveParking(ctx context.Context, clusterStops []domain.Stop) map[int]*domain.ParkingCandidate {
	staticByStop := make([][]*domain.ParkingLocation, len(clusterStops))
	if p.store != nil {
		for i, stop := range clusterStops {
			locations, err := p.store.GetNearby(ctx, stop.Location.Lat, stop.Location.Lon, p.searchRadiusKm, nil)
			if err != nil {
				p.logger.Warn("Static parking lookup failed", zap.Error(err))
				continue
			}

			staticByStop[i] = locations
		}
	}

	return p.resolver.ResolveAll(ctx, clusterStops, staticByStop, ResolveOptions{})
}

func validateDepot(depot domain.Depot) error {
	if isZeroPoint(depot.Location) || !geo.ValidateCoordinates(depot.Location.Lat, depot.Location.Lon) {
		return errors.ErrDepotNotGeocoded
	}
	return nil
}

// geolocatedStops отбрасывает остановки без валидных координат, точка (0,0)
// считается непроставленной геолокацией
func geolocatedStops(stops []domain.Stop) []domain.Stop {
	result := make([]domain.Stop, 0, len(stops))
	for _, s := range stops {
		if isZeroPoint(s.Location) || !geo.ValidateCoordinates(s.Location.Lat, s.Location.Lon) {
			continue
		}

		result = append(result, s)
	}

	return result
}

func isZeroPoint(p domain.GeoPoint) bool {
	return p.Lat == 0 && p.Lon == 0
}

func computeStatistics(routes []dto.RouteResult) domain.PlanStatistics {
	stats := domain.PlanStatistics{TotalRoutes: len(routes)}
	if len(routes) == 0 {
		return stats
	}

	driversUsed := make(map[int64]struct{})
	for _, r := range routes {
		stats.TotalOrders += len(r.Assignment.Orders)
		driversUsed[r.Assignment.DriverID] = struct{}{}

		if r.Plan != nil {
			stats.TotalDistanceKm += r.Plan.TotalDistanceKm
			stats.TotalTimeMinutes += r.Plan.TotalTimeMinutes
		}
	}

	stats.DriversUsed = len(driversUsed)
	stats.AvgOrdersPerRoute = round2(float64(stats.TotalOrders) / float64(len(routes)))
	stats.AvgDistanceKm = round2(stats.TotalDistanceKm / float64(len(routes)))
	stats.TotalDistanceKm = round2(stats.TotalDistanceKm)
	stats.TotalTimeMinutes = round2(stats.TotalTimeMinutes)

	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
