package usecase

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/route-optimization-engine/internal/config"
	"github.com/route-optimization-engine/internal/domain"
)

// RouteSequencer упорядочивает остановки одного кластера для минимизации
// суммарного пробега. Стратегии пробуются в объявленном порядке, следующая
// запускается только когда предыдущая недоступна или не уложилась
type RouteSequencer struct {
	oracle        *DistanceOracle
	budget        time.Duration
	maxPasses     int
	penaltyFactor float64
	logger        *zap.Logger
}

// NewRouteSequencer создает новый RouteSequencer. Нулевой бюджет отключает
// метаэвристический ярус
func NewRouteSequencer(oracle *DistanceOracle, cfg *config.SolverConfig, logger *zap.Logger) *RouteSequencer {
	maxPasses := cfg.TwoOptMaxPasses
	if maxPasses <= 0 {
		maxPasses = 100
	}

	penaltyFactor := cfg.PenaltyFactor
	if penaltyFactor <= 0 {
		penaltyFactor = 0.3
	}

	return &RouteSequencer{
		oracle:        oracle,
		budget:        cfg.Budget,
		maxPasses:     maxPasses,
		penaltyFactor: penaltyFactor,
		logger:        logger,
	}
}

// Sequence возвращает порядок объезда как индексы входного среза остановок.
// Стоимость ребра считается до парковочной точки остановки, когда парковка
// назначена: машина паркуется и возобновляет путь от того же места
func (s *RouteSequencer) Sequence(
	ctx context.Context,
	depot domain.GeoPoint,
	stops []domain.Stop,
	parkingByStop map[int]*domain.ParkingCandidate,
	force bool,
) []int {
	n := len(stops)
	if n == 0 {
		return []int{}
	}
	if n == 1 {
		return []int{0}
	}

	points := make([]domain.GeoPoint, 0, n+1)
	points = append(points, depot)
	for i, stop := range stops {
		points = append(points, effectiveLocation(stop, parkingByStop[i]))
	}

	matrix := s.oracle.Matrix(ctx, points, force)

	strategies := []struct {
		name    string
		attempt func() ([]int, bool)
	}{
		{"guided-local-search", func() ([]int, bool) { return s.solveGuided(ctx, matrix) }},
		{"two-opt", func() ([]int, bool) { return s.twoOptOrder(matrix), true }},
		{"nearest-neighbor", func() ([]int, bool) { return nearestNeighborOrder(matrix), true }},
	}

	for _, strategy := range strategies {
		order, ok := strategy.attempt()
		if !ok {
			continue
		}

		s.logger.Debug("Stops sequenced",
			zap.String("strategy", strategy.name),
			zap.Int("stops", n),
			zap.Float64("tour_km", tourCost(matrix, order)/1000))

		return order
	}

	// Недостижимо: построение ближайшего соседа не отказывает
	return identityOrder(n)
}

// twoOptOrder улучшает тур ближайшего соседа разворотами отрезков. Разворот
// принимается только при строгом уменьшении длины, повторный запуск на
// локальном оптимуме тур не меняет
func (s *RouteSequencer) twoOptOrder(m *domain.DistanceMatrix) []int {
	order := nearestNeighborOrder(m)
	twoOptImprove(order, m.Distance, s.maxPasses)
	return order
}

// nearestNeighborOrder строит тур жадно: из текущей точки в ближайшую
// непосещенную, при равных расстояниях в остановку с меньшим исходным
// индексом
func nearestNeighborOrder(m *domain.DistanceMatrix) []int {
	n := m.Size() - 1
	order := make([]int, 0, n)
	visited := make([]bool, n)

	current := 0
	for len(order) < n {
		best := -1
		bestDist := math.MaxFloat64
		for j := 0; j < n; j++ {
			if visited[j] {
				continue
			}

			if d := m.Distance(current, j+1); d < bestDist {
				bestDist = d
				best = j
			}
		}

		visited[best] = true
		order = append(order, best)
		current = best + 1
	}

	return order
}

// twoOptImprove гоняет проходы 2-opt по туру на месте. Дельта разворота
// учитывает несимметричные матрицы: внутренние ребра отрезка меняют
// направление. Возвращает true когда тур изменился
func twoOptImprove(order []int, cost func(a, b int) float64, maxPasses int) bool {
	n := len(order)
	changed := false

	for pass := 0; pass < maxPasses; pass++ {
		improved := false

		for i := 0; i < n-1; i++ {
			for j := i + 1; j < n; j++ {
				prev := 0
				if i > 0 {
					prev = order[i-1] + 1
				}
				next := 0
				if j < n-1 {
					next = order[j+1] + 1
				}

				delta := cost(prev, order[j]+1) + cost(order[i]+1, next) -
					cost(prev, order[i]+1) - cost(order[j]+1, next)
				for k := i; k < j; k++ {
					delta += cost(order[k+1]+1, order[k]+1) - cost(order[k]+1, order[k+1]+1)
				}

				if delta < -1e-9 {
					reverseSegment(order, i, j)
					improved = true
					changed = true
				}
			}
		}

		if !improved {
			break
		}
	}

	return changed
}

func reverseSegment(order []int, i, j int) {
	for i < j {
		order[i], order[j] = order[j], order[i]
		i++
		j--
	}
}

// tourCost считает длину тура в метрах, от депо через все остановки и
// обратно. Индексы матрицы сдвинуты на единицу, нулевой узел это депо
func tourCost(m *domain.DistanceMatrix, order []int) float64 {
	if len(order) == 0 {
		return 0
	}

	total := m.Distance(0, order[0]+1)
	for k := 0; k+1 < len(order); k++ {
		total += m.Distance(order[k]+1, order[k+1]+1)
	}
	total += m.Distance(order[len(order)-1]+1, 0)

	return total
}

func effectiveLocation(stop domain.Stop, parking *domain.ParkingCandidate) domain.GeoPoint {
	if parking != nil {
		return parking.Location
	}
	return stop.Location
}

func identityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}
