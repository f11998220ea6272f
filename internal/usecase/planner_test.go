package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/route-optimization-engine/internal/config"
	"github.com/route-optimization-engine/internal/domain"
	"github.com/route-optimization-engine/internal/domain/repository"
	apperrors "github.com/route-optimization-engine/internal/pkg/errors"
	"github.com/route-optimization-engine/internal/repository/cache"
	"github.com/route-optimization-engine/internal/usecase"
	"github.com/route-optimization-engine/internal/usecase/dto"
	"github.com/route-optimization-engine/internal/worker"
)

// MockParkingStoreRepository is a mock of ParkingStoreRepository
type MockParkingStoreRepository struct {
	mock.Mock
}

func (m *MockParkingStoreRepository) GetNearby(ctx context.Context, lat, lon, radiusKm float64, tags []string) ([]*domain.ParkingLocation, error) {
	args := m.Called(ctx, lat, lon, radiusKm, tags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ParkingLocation), args.Error(1)
}

func (m *MockParkingStoreRepository) BulkInsert(ctx context.Context, locations []*domain.ParkingLocation) (int, error) {
	args := m.Called(ctx, locations)
	return args.Int(0), args.Error(1)
}

func (m *MockParkingStoreRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func newTestPlanner(routing *MockRoutingRepository, poi *MockParkingPOIRepository, store repository.ParkingStoreRepository) *usecase.Planner {
	logger := zap.NewNop()
	cfg := &config.Config{}

	oracle := usecase.NewDistanceOracle(routing, cache.NewMemoryCache(), cfg, logger)
	pool := worker.NewPool(4, logger)

	return usecase.NewPlanner(
		oracle,
		usecase.NewGeoClusterer(oracle, &cfg.Cluster, logger),
		usecase.NewDriverAssigner(logger),
		usecase.NewRouteSequencer(oracle, &cfg.Solver, logger),
		usecase.NewParkingResolver(poi, oracle, cache.NewMemoryCache(), pool, cfg, logger),
		usecase.NewRouteAssembler(oracle, logger),
		store,
		pool,
		cfg,
		logger,
	)
}

func offlineRouting() *MockRoutingRepository {
	routing := &MockRoutingRepository{}
	routing.On("Probe", mock.Anything).Return(errors.New("connection refused"))
	return routing
}

func TestPlanner_PlanRoutes(t *testing.T) {
	ctx := context.Background()

	depot := domain.Depot{Name: "Lager Ost", Location: domain.GeoPoint{Lat: 48.70, Lon: 9.18}}
	drivers := []domain.Driver{
		{ID: 1, Name: "Maria Schneider", Available: true},
		{ID: 2, Name: "Ivan Petrov", Available: true},
	}

	twoGroups := func() []domain.Stop {
		stops := make([]domain.Stop, 0, 8)
		for i, p := range gridPoints(48.78, 9.18, 4) {
			stops = append(stops, domain.Stop{ID: int64(101 + i), Location: p})
		}
		for i, p := range gridPoints(48.95, 9.45, 4) {
			stops = append(stops, domain.Stop{ID: int64(201 + i), Location: p})
		}
		return stops
	}

	t.Run("plans two routes over estimates", func(t *testing.T) {
		planner := newTestPlanner(offlineRouting(), &MockParkingPOIRepository{}, nil)

		resp, err := planner.PlanRoutes(ctx, dto.PlanRequest{
			Depot:   depot,
			Stops:   twoGroups(),
			Drivers: drivers,
			Options: dto.PlanOptions{RadiusKm: 2},
		})

		assert.NoError(t, err)
		assert.NotEmpty(t, resp.PlanID)
		assert.Len(t, resp.Routes, 2)

		seen := make(map[int64]int)
		for _, r := range resp.Routes {
			for _, id := range r.Assignment.Orders {
				seen[id]++
			}

			assert.NotNil(t, r.Plan)
			assert.Equal(t, domain.ProvenanceEstimate, r.Plan.Provenance)

			wp := r.Plan.Waypoints
			assert.Equal(t, domain.WaypointDepot, wp[0].Kind)
			assert.Equal(t, domain.WaypointDepot, wp[len(wp)-1].Kind)
			assert.Equal(t, len(r.Assignment.Orders), len(wp)-2)
			assert.Greater(t, r.Plan.TotalDistanceKm, 0.0)
		}
		assert.Len(t, seen, 8)
		for id, count := range seen {
			assert.Equal(t, 1, count, "order %d", id)
		}

		assert.Equal(t, 2, resp.Statistics.TotalRoutes)
		assert.Equal(t, 8, resp.Statistics.TotalOrders)
		assert.Equal(t, 2, resp.Statistics.DriversUsed)
		assert.InDelta(t, 4.0, resp.Statistics.AvgOrdersPerRoute, 1e-9)
		assert.Greater(t, resp.Statistics.TotalDistanceKm, 0.0)
	})

	t.Run("depot without coordinates is rejected", func(t *testing.T) {
		planner := newTestPlanner(offlineRouting(), &MockParkingPOIRepository{}, nil)

		resp, err := planner.PlanRoutes(ctx, dto.PlanRequest{
			Depot:   domain.Depot{},
			Stops:   twoGroups(),
			Drivers: drivers,
		})

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, apperrors.ErrDepotNotGeocoded)
		assert.True(t, apperrors.IsInfeasible(err))
	})

	t.Run("no geolocated stops", func(t *testing.T) {
		planner := newTestPlanner(offlineRouting(), &MockParkingPOIRepository{}, nil)

		resp, err := planner.PlanRoutes(ctx, dto.PlanRequest{
			Depot: depot,
			Stops: []domain.Stop{
				{ID: 1},
				{ID: 2, Location: domain.GeoPoint{Lat: 99.0, Lon: 200.0}},
			},
			Drivers: drivers,
		})

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, apperrors.ErrNoGeolocatedStops)
	})

	t.Run("no drivers", func(t *testing.T) {
		planner := newTestPlanner(offlineRouting(), &MockParkingPOIRepository{}, nil)

		resp, err := planner.PlanRoutes(ctx, dto.PlanRequest{
			Depot: depot,
			Stops: twoGroups(),
		})

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, apperrors.ErrNoAvailableDrivers)
	})

	t.Run("invalid options carry field details", func(t *testing.T) {
		planner := newTestPlanner(offlineRouting(), &MockParkingPOIRepository{}, nil)

		resp, err := planner.PlanRoutes(ctx, dto.PlanRequest{
			Depot:   depot,
			Stops:   twoGroups(),
			Drivers: drivers,
			Options: dto.PlanOptions{RadiusKm: 500},
		})

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, apperrors.ErrInvalidPlanOptions)

		var appErr *apperrors.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Contains(t, appErr.Details, "RadiusKm")
	})

	t.Run("stops without coordinates are dropped", func(t *testing.T) {
		planner := newTestPlanner(offlineRouting(), &MockParkingPOIRepository{}, nil)

		stops := make([]domain.Stop, 0, 4)
		for i, p := range gridPoints(48.78, 9.18, 3) {
			stops = append(stops, domain.Stop{ID: int64(101 + i), Location: p})
		}
		stops = append(stops, domain.Stop{ID: 999})

		resp, err := planner.PlanRoutes(ctx, dto.PlanRequest{
			Depot:   depot,
			Stops:   stops,
			Drivers: drivers,
			Options: dto.PlanOptions{RadiusKm: 2},
		})

		assert.NoError(t, err)
		assert.Equal(t, 3, resp.Statistics.TotalOrders)
		for _, r := range resp.Routes {
			assert.NotContains(t, r.Assignment.Orders, int64(999))
		}
	})

	t.Run("parking aware plans include parking waypoints", func(t *testing.T) {
		store := &MockParkingStoreRepository{}
		static := []*domain.ParkingLocation{
			{ID: 1, Name: ptrString("Parkhaus Mitte"), Lat: 48.7815, Lon: 9.1812},
		}
		store.On("GetNearby", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(static, nil)

		planner := newTestPlanner(offlineRouting(), &MockParkingPOIRepository{}, store)

		stops := make([]domain.Stop, 0, 3)
		for i, p := range gridPoints(48.78, 9.18, 3) {
			stops = append(stops, domain.Stop{ID: int64(101 + i), Location: p})
		}

		resp, err := planner.PlanRoutes(ctx, dto.PlanRequest{
			Depot:   depot,
			Stops:   stops,
			Drivers: drivers,
			Options: dto.PlanOptions{RadiusKm: 2, ParkingAware: true},
		})

		assert.NoError(t, err)
		store.AssertNumberOfCalls(t, "GetNearby", 3)

		parkingCount := 0
		for _, r := range resp.Routes {
			for _, wp := range r.Plan.Waypoints {
				if wp.Kind == domain.WaypointParking {
					parkingCount++
					assert.Equal(t, "Parkhaus Mitte", wp.Name)
				}
			}
		}
		assert.Equal(t, 3, parkingCount)
	})

	t.Run("parking aware degrades to plain deliveries", func(t *testing.T) {
		routing := offlineRouting()
		routing.On("Nearest", mock.Anything, mock.Anything).Return(nil, errors.New("no road"))

		poi := &MockParkingPOIRepository{}
		poi.On("GetParkingNearby", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("overpass timeout"))

		planner := newTestPlanner(routing, poi, nil)

		stops := make([]domain.Stop, 0, 3)
		for i, p := range gridPoints(48.78, 9.18, 3) {
			stops = append(stops, domain.Stop{ID: int64(101 + i), Location: p})
		}

		resp, err := planner.PlanRoutes(ctx, dto.PlanRequest{
			Depot:   depot,
			Stops:   stops,
			Drivers: drivers,
			Options: dto.PlanOptions{RadiusKm: 2, ParkingAware: true},
		})

		assert.NoError(t, err)
		for _, r := range resp.Routes {
			for _, wp := range r.Plan.Waypoints {
				assert.NotEqual(t, domain.WaypointParking, wp.Kind)
			}
		}
	})
}

func TestPlanner_OptimizeSequence(t *testing.T) {
	ctx := context.Background()

	depot := domain.Depot{Name: "Lager Ost", Location: domain.GeoPoint{Lat: 48.70, Lon: 9.18}}

	t.Run("reorders scrambled stops", func(t *testing.T) {
		planner := newTestPlanner(offlineRouting(), &MockParkingPOIRepository{}, nil)

		stops := []domain.Stop{
			{ID: 31, Location: domain.GeoPoint{Lat: 48.73, Lon: 9.18}},
			{ID: 32, Location: domain.GeoPoint{Lat: 48.71, Lon: 9.18}},
			{ID: 33, Location: domain.GeoPoint{Lat: 48.72, Lon: 9.18}},
		}

		resp, err := planner.OptimizeSequence(ctx, dto.OptimizeRequest{
			Depot: depot,
			Stops: stops,
		})

		assert.NoError(t, err)
		assert.Equal(t, []int64{32, 33, 31}, resp.OptimizedOrder)
		assert.Greater(t, resp.Improvement.SavedKm, 0.0)
		assert.Greater(t, resp.Improvement.ImprovementPercent, 0.0)

		assert.NotNil(t, resp.Plan)
		assert.Equal(t, int64(32), resp.Plan.Waypoints[1].StopID)
	})

	t.Run("already optimal order keeps zero gain", func(t *testing.T) {
		planner := newTestPlanner(offlineRouting(), &MockParkingPOIRepository{}, nil)

		stops := []domain.Stop{
			{ID: 31, Location: domain.GeoPoint{Lat: 48.71, Lon: 9.18}},
			{ID: 32, Location: domain.GeoPoint{Lat: 48.72, Lon: 9.18}},
			{ID: 33, Location: domain.GeoPoint{Lat: 48.73, Lon: 9.18}},
		}

		resp, err := planner.OptimizeSequence(ctx, dto.OptimizeRequest{
			Depot: depot,
			Stops: stops,
		})

		assert.NoError(t, err)
		assert.Equal(t, []int64{31, 32, 33}, resp.OptimizedOrder)
		assert.InDelta(t, 0.0, resp.Improvement.SavedKm, 1e-9)
	})

	t.Run("depot and stops are required", func(t *testing.T) {
		planner := newTestPlanner(offlineRouting(), &MockParkingPOIRepository{}, nil)

		_, err := planner.OptimizeSequence(ctx, dto.OptimizeRequest{
			Stops: []domain.Stop{{ID: 1, Location: domain.GeoPoint{Lat: 48.71, Lon: 9.18}}},
		})
		assert.ErrorIs(t, err, apperrors.ErrDepotNotGeocoded)

		_, err = planner.OptimizeSequence(ctx, dto.OptimizeRequest{
			Depot: depot,
		})
		assert.ErrorIs(t, err, apperrors.ErrNoGeolocatedStops)
	})
}
