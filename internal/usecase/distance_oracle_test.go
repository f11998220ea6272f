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
	apperrors "github.com/route-optimization-engine/internal/pkg/errors"
	"github.com/route-optimization-engine/internal/repository/cache"
	"github.com/route-optimization-engine/internal/usecase"
)

// MockRoutingRepository is a mock of RoutingRepository
type MockRoutingRepository struct {
	mock.Mock
}

func (m *MockRoutingRepository) GetRoute(ctx context.Context, from, to domain.GeoPoint) (*domain.RoadRoute, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RoadRoute), args.Error(1)
}

func (m *MockRoutingRepository) GetRouteGeometry(ctx context.Context, points []domain.GeoPoint) (*domain.RoadRoute, error) {
	args := m.Called(ctx, points)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RoadRoute), args.Error(1)
}

func (m *MockRoutingRepository) GetTable(ctx context.Context, points []domain.GeoPoint) (*domain.DistanceMatrix, error) {
	args := m.Called(ctx, points)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DistanceMatrix), args.Error(1)
}

func (m *MockRoutingRepository) Nearest(ctx context.Context, point domain.GeoPoint) (*domain.GeoPoint, error) {
	args := m.Called(ctx, point)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GeoPoint), args.Error(1)
}

func (m *MockRoutingRepository) Probe(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// offlineOracle returns an oracle whose road probe always fails, so every
// measurement is a great-circle estimate.
func offlineOracle() *usecase.DistanceOracle {
	routing := &MockRoutingRepository{}
	routing.On("Probe", mock.Anything).Return(errors.New("connection refused"))
	return usecase.NewDistanceOracle(routing, cache.NewMemoryCache(), &config.Config{}, zap.NewNop())
}

func TestDistanceOracle_Matrix(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	points := []domain.GeoPoint{
		{Lat: 48.7758, Lon: 9.1829},
		{Lat: 48.7847, Lon: 9.1686},
		{Lat: 48.7930, Lon: 9.1920},
	}

	table := &domain.DistanceMatrix{
		Provenance: domain.ProvenanceRoadNetwork,
		Distances: [][]float64{
			{0, 1500, 2400},
			{1600, 0, 2100},
			{2500, 2000, 0},
		},
		Durations: [][]float64{
			{0, 180, 290},
			{190, 0, 250},
			{300, 240, 0},
		},
	}

	t.Run("road network table when service is up", func(t *testing.T) {
		mockRouting := &MockRoutingRepository{}
		oracle := usecase.NewDistanceOracle(mockRouting, cache.NewMemoryCache(), &config.Config{}, logger)

		mockRouting.On("Probe", ctx).Return(nil)
		mockRouting.On("GetTable", ctx, points).Return(table, nil)

		m := oracle.Matrix(ctx, points, false)

		assert.Equal(t, domain.ProvenanceRoadNetwork, m.Provenance)
		assert.Equal(t, 1500.0, m.Distance(0, 1))
		assert.Equal(t, 190.0, m.Duration(1, 0))
		mockRouting.AssertExpectations(t)
	})

	t.Run("estimate when probe fails", func(t *testing.T) {
		mockRouting := &MockRoutingRepository{}
		oracle := usecase.NewDistanceOracle(mockRouting, cache.NewMemoryCache(), &config.Config{}, logger)

		mockRouting.On("Probe", ctx).Return(errors.New("connection refused"))

		m := oracle.Matrix(ctx, points, false)

		assert.Equal(t, domain.ProvenanceEstimate, m.Provenance)
		assert.Equal(t, len(points), m.Size())
		for i := 0; i < m.Size(); i++ {
			assert.Zero(t, m.Distance(i, i))
			for j := 0; j < m.Size(); j++ {
				if i == j {
					continue
				}
				assert.Greater(t, m.Distance(i, j), 0.0)
				assert.Equal(t, m.Distance(i, j), m.Distance(j, i))
				assert.Greater(t, m.Duration(i, j), 0.0)
			}
		}
		mockRouting.AssertNotCalled(t, "GetTable", mock.Anything, mock.Anything)
	})

	t.Run("estimate when table request fails", func(t *testing.T) {
		mockRouting := &MockRoutingRepository{}
		oracle := usecase.NewDistanceOracle(mockRouting, cache.NewMemoryCache(), &config.Config{}, logger)

		mockRouting.On("Probe", ctx).Return(nil)
		mockRouting.On("GetTable", ctx, points).Return(nil, errors.New("osrm 500"))

		m := oracle.Matrix(ctx, points, false)

		assert.Equal(t, domain.ProvenanceEstimate, m.Provenance)
	})

	t.Run("probe result is cached between calls", func(t *testing.T) {
		mockRouting := &MockRoutingRepository{}
		oracle := usecase.NewDistanceOracle(mockRouting, cache.NewMemoryCache(), &config.Config{}, logger)

		mockRouting.On("Probe", ctx).Return(errors.New("connection refused")).Once()

		oracle.Matrix(ctx, points, false)
		oracle.Matrix(ctx, points, false)

		mockRouting.AssertNumberOfCalls(t, "Probe", 1)
	})

	t.Run("force bypasses cached negative probe", func(t *testing.T) {
		mockRouting := &MockRoutingRepository{}
		oracle := usecase.NewDistanceOracle(mockRouting, cache.NewMemoryCache(), &config.Config{}, logger)

		mockRouting.On("Probe", ctx).Return(errors.New("connection refused")).Once()
		mockRouting.On("GetTable", ctx, points).Return(table, nil)

		m := oracle.Matrix(ctx, points, false)
		assert.Equal(t, domain.ProvenanceEstimate, m.Provenance)

		m = oracle.Matrix(ctx, points, true)
		assert.Equal(t, domain.ProvenanceRoadNetwork, m.Provenance)
		mockRouting.AssertNumberOfCalls(t, "Probe", 1)
	})

	t.Run("single point needs no routing at all", func(t *testing.T) {
		mockRouting := &MockRoutingRepository{}
		oracle := usecase.NewDistanceOracle(mockRouting, cache.NewMemoryCache(), &config.Config{}, logger)

		m := oracle.Matrix(ctx, points[:1], false)

		assert.Equal(t, 1, m.Size())
		assert.Zero(t, m.Distance(0, 0))
		mockRouting.AssertNotCalled(t, "Probe", mock.Anything)
	})
}

func TestDistanceOracle_Estimate(t *testing.T) {
	oracle := offlineOracle()

	a := domain.GeoPoint{Lat: 48.7758, Lon: 9.1829}
	b := domain.GeoPoint{Lat: 48.7848, Lon: 9.1829} // ~1 km north

	est := oracle.Estimate(a, b)

	assert.Equal(t, domain.ProvenanceEstimate, est.Provenance)
	assert.InDelta(t, 1000, est.DistanceM, 15)
	// default 50 km/h with 1.3 traffic buffer
	assert.InDelta(t, est.DistanceM/(50.0/3.6)*1.3, est.DurationS, 1e-9)

	same := oracle.Estimate(a, a)
	assert.Zero(t, same.DistanceM)
	assert.Zero(t, same.DurationS)
}

func TestDistanceOracle_Pair(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	a := domain.GeoPoint{Lat: 48.7758, Lon: 9.1829}
	b := domain.GeoPoint{Lat: 48.7847, Lon: 9.1686}

	t.Run("road route", func(t *testing.T) {
		mockRouting := &MockRoutingRepository{}
		oracle := usecase.NewDistanceOracle(mockRouting, cache.NewMemoryCache(), &config.Config{}, logger)

		mockRouting.On("Probe", ctx).Return(nil)
		mockRouting.On("GetRoute", ctx, a, b).
			Return(&domain.RoadRoute{DistanceM: 1400, DurationS: 210}, nil)

		est := oracle.Pair(ctx, a, b, false)

		assert.Equal(t, domain.ProvenanceRoadNetwork, est.Provenance)
		assert.Equal(t, 1400.0, est.DistanceM)
		assert.Equal(t, 210.0, est.DurationS)
	})

	t.Run("estimate fallback on route error", func(t *testing.T) {
		mockRouting := &MockRoutingRepository{}
		oracle := usecase.NewDistanceOracle(mockRouting, cache.NewMemoryCache(), &config.Config{}, logger)

		mockRouting.On("Probe", ctx).Return(nil)
		mockRouting.On("GetRoute", ctx, a, b).Return(nil, errors.New("osrm 500"))

		est := oracle.Pair(ctx, a, b, false)

		assert.Equal(t, domain.ProvenanceEstimate, est.Provenance)
		assert.Greater(t, est.DistanceM, 0.0)
	})
}

func TestDistanceOracle_RoadRoute(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	points := []domain.GeoPoint{
		{Lat: 48.7758, Lon: 9.1829},
		{Lat: 48.7847, Lon: 9.1686},
	}

	t.Run("unavailable without force", func(t *testing.T) {
		mockRouting := &MockRoutingRepository{}
		oracle := usecase.NewDistanceOracle(mockRouting, cache.NewMemoryCache(), &config.Config{}, logger)

		mockRouting.On("Probe", ctx).Return(errors.New("connection refused"))

		route, err := oracle.RoadRoute(ctx, points, false)

		assert.Nil(t, route)
		assert.ErrorIs(t, err, apperrors.ErrRoutingUnavailable)
		mockRouting.AssertNotCalled(t, "GetRouteGeometry", mock.Anything, mock.Anything)
	})

	t.Run("force retries despite cached negative probe", func(t *testing.T) {
		mockRouting := &MockRoutingRepository{}
		oracle := usecase.NewDistanceOracle(mockRouting, cache.NewMemoryCache(), &config.Config{}, logger)

		mockRouting.On("Probe", ctx).Return(errors.New("connection refused")).Once()
		mockRouting.On("GetRouteGeometry", ctx, points).
			Return(&domain.RoadRoute{DistanceM: 2100, DurationS: 320}, nil)

		_, err := oracle.RoadRoute(ctx, points, false)
		assert.ErrorIs(t, err, apperrors.ErrRoutingUnavailable)

		route, err := oracle.RoadRoute(ctx, points, true)
		assert.NoError(t, err)
		assert.Equal(t, 2100.0, route.DistanceM)
	})
}

func TestDistanceOracle_SnapToRoad(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	point := domain.GeoPoint{Lat: 48.7758, Lon: 9.1829}

	t.Run("snapped point", func(t *testing.T) {
		mockRouting := &MockRoutingRepository{}
		oracle := usecase.NewDistanceOracle(mockRouting, cache.NewMemoryCache(), &config.Config{}, logger)

		snapped := &domain.GeoPoint{Lat: 48.7760, Lon: 9.1831}
		mockRouting.On("Nearest", ctx, point).Return(snapped, nil)

		got, err := oracle.SnapToRoad(ctx, point)

		assert.NoError(t, err)
		assert.Equal(t, *snapped, got)
	})

	t.Run("error passes through", func(t *testing.T) {
		mockRouting := &MockRoutingRepository{}
		oracle := usecase.NewDistanceOracle(mockRouting, cache.NewMemoryCache(), &config.Config{}, logger)

		mockRouting.On("Nearest", ctx, point).Return(nil, errors.New("no road nearby"))

		_, err := oracle.SnapToRoad(ctx, point)

		assert.Error(t, err)
	})
}
