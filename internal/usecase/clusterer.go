package usecase

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/route-optimization-engine/internal/config"
	"github.com/route-optimization-engine/internal/domain"
	"github.com/route-optimization-engine/internal/pkg/geo"
)

const (
	centroidMaxIterations = 100
	centroidConvergenceM  = 10.0
)

// ClusterOptions - параметры кластеризации, нулевые значения заменяются
// настройками по умолчанию
type ClusterOptions struct {
	MaxClusterSize int
	MinClusterSize int
	Method         string
	K              int
	RadiusKm       float64
}

// GeoClusterer разбивает точки доставки на группы не больше заданного
// размера, по пространственной плотности или итерацией центроидов
type GeoClusterer struct {
	oracle        *DistanceOracle
	defaultMax    int
	defaultMin    int
	defaultRadius float64
	logger        *zap.Logger
}

// NewGeoClusterer создает новый GeoClusterer
func NewGeoClusterer(oracle *DistanceOracle, cfg *config.ClusterConfig, logger *zap.Logger) *GeoClusterer {
	defaultMax := cfg.MaxClusterSize
	if defaultMax <= 0 {
		defaultMax = 40
	}

	defaultMin := cfg.MinClusterSize
	if defaultMin <= 0 {
		defaultMin = 3
	}

	defaultRadius := cfg.RadiusKm
	if defaultRadius <= 0 {
		defaultRadius = 10.0
	}

	return &GeoClusterer{
		oracle:        oracle,
		defaultMax:    defaultMax,
		defaultMin:    defaultMin,
		defaultRadius: defaultRadius,
		logger:        logger,
	}
}

// Cluster разбивает точки на кластеры. Каждый входной индекс попадает ровно
// в один кластер, размер кластера от 1 до MaxClusterSize
func (c *GeoClusterer) Cluster(ctx context.Context, points []domain.GeoPoint, opts ClusterOptions) []domain.Cluster {
	opts = c.withDefaults(opts)

	n := len(points)
	if n == 0 {
		return nil
	}

	// Вырожденный вход: по кластеру на точку вместо ошибки
	if n < opts.MinClusterSize {
		c.logger.Debug("Too few points for clustering, using singletons", zap.Int("points", n))
		return c.finalize(singletonGroups(n), opts.MaxClusterSize)
	}

	var groups [][]int
	switch opts.Method {
	case domain.ClusterMethodCentroid:
		groups = c.centroidGroups(points, opts)
	default:
		groups = c.densityGroups(ctx, points, opts)
	}

	clusters := c.finalize(groups, opts.MaxClusterSize)

	c.logger.Info("Points clustered",
		zap.Int("points", n),
		zap.Int("clusters", len(clusters)),
		zap.String("method", opts.Method))

	return clusters
}

// densityGroups выращивает кластеры обходом в ширину от ядерных точек.
// Ядерная точка имеет не меньше MinClusterSize-1 соседей в радиусе, шумовые
// точки приклеиваются к кластеру с наименьшим средним расстоянием
func (c *GeoClusterer) densityGroups(ctx context.Context, points []domain.GeoPoint, opts ClusterOptions) [][]int {
	n := len(points)
	matrix := c.oracle.Matrix(ctx, points, false)
	radiusM := opts.RadiusKm * 1000

	neighborsOf := func(i int) []int {
		var neighbors []int
		for j := 0; j < n; j++ {
			if j != i && matrix.Distance(i, j) <= radiusM {
				neighbors = append(neighbors, j)
			}
		}
		return neighbors
	}

	visited := make([]bool, n)
	var groups [][]int

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}

		neighbors := neighborsOf(i)
		if len(neighbors) < opts.MinClusterSize-1 {
			continue
		}

		visited[i] = true
		group := []int{i}

		queue := append([]int(nil), neighbors...)
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]
			if visited[j] {
				continue
			}

			visited[j] = true
			group = append(group, j)

			jNeighbors := neighborsOf(j)
			if len(jNeighbors) >= opts.MinClusterSize-1 {
				queue = append(queue, jNeighbors...)
			}
		}

		groups = append(groups, group)
	}

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}

		if len(groups) == 0 {
			groups = append(groups, []int{i})
			continue
		}

		best := 0
		bestAvg := math.MaxFloat64
		for gi, group := range groups {
			var sum float64
			for _, member := range group {
				sum += matrix.Distance(i, member)
			}

			avg := sum / float64(len(group))
			if avg < bestAvg {
				bestAvg = avg
				best = gi
			}
		}

		groups[best] = append(groups[best], i)
	}

	return groups
}

// centroidGroups выполняет k-средних по расстоянию дуги большого круга.
// Стартовые центроиды берутся по равномерно разнесенным индексам входа,
// результат воспроизводим при одинаковом входе
func (c *GeoClusterer) centroidGroups(points []domain.GeoPoint, opts ClusterOptions) [][]int {
	n := len(points)

	k := opts.K
	if k <= 0 {
		k = (n + opts.MaxClusterSize - 1) / opts.MaxClusterSize
	}
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}

	centroids := make([]domain.GeoPoint, k)
	for i := 0; i < k; i++ {
		centroids[i] = points[i*n/k]
	}

	assignment := make([]int, n)
	for iter := 0; iter < centroidMaxIterations; iter++ {
		for i, p := range points {
			best := 0
			bestDist := math.MaxFloat64
			for ci, centroid := range centroids {
				d := geo.HaversineDistance(p.Lat, p.Lon, centroid.Lat, centroid.Lon)
				if d < bestDist {
					bestDist = d
					best = ci
				}
			}
			assignment[i] = best
		}

		counts := make([]int, k)
		sumLat := make([]float64, k)
		sumLon := make([]float64, k)
		for i, ci := range assignment {
			counts[ci]++
			sumLat[ci] += points[i].Lat
			sumLon[ci] += points[i].Lon
		}

		moved := 0.0
		for ci := 0; ci < k; ci++ {
			if counts[ci] == 0 {
				continue // пустой кластер сохраняет прежний центроид
			}

			next := domain.GeoPoint{
				Lat: sumLat[ci] / float64(counts[ci]),
				Lon: sumLon[ci] / float64(counts[ci]),
			}

			move := geo.HaversineDistance(centroids[ci].Lat, centroids[ci].Lon, next.Lat, next.Lon)
			if move > moved {
				moved = move
			}

			centroids[ci] = next
		}

		if moved*1000 < centroidConvergenceM {
			break
		}
	}

	groups := make([][]int, k)
	for i, ci := range assignment {
		groups[ci] = append(groups[ci], i)
	}

	result := make([][]int, 0, k)
	for _, group := range groups {
		if len(group) > 0 {
			result = append(result, group)
		}
	}

	return result
}

// finalize режет переполненные группы, сортирует участников и нумерует
// кластеры
func (c *GeoClusterer) finalize(groups [][]int, maxSize int) []domain.Cluster {
	var chunks [][]int
	for _, group := range groups {
		if len(group) == 0 {
			continue
		}

		sort.Ints(group)
		chunks = append(chunks, splitOversized(group, maxSize)...)
	}

	clusters := make([]domain.Cluster, 0, len(chunks))
	for i, chunk := range chunks {
		clusters = append(clusters, domain.Cluster{Index: i, Orders: chunk})
	}

	return clusters
}

// splitOversized делит группу на непрерывные куски примерно равного размера,
// каждый не больше maxSize
func splitOversized(group []int, maxSize int) [][]int {
	if len(group) <= maxSize {
		return [][]int{group}
	}

	chunks := (len(group) + maxSize - 1) / maxSize
	base := len(group) / chunks
	rem := len(group) % chunks

	result := make([][]int, 0, chunks)
	start := 0
	for i := 0; i < chunks; i++ {
		size := base
		if i < rem {
			size++
		}

		result = append(result, group[start:start+size])
		start += size
	}

	return result
}

func singletonGroups(n int) [][]int {
	groups := make([][]int, n)
	for i := 0; i < n; i++ {
		groups[i] = []int{i}
	}
	return groups
}

func (c *GeoClusterer) withDefaults(opts ClusterOptions) ClusterOptions {
	if opts.MaxClusterSize <= 0 {
		opts.MaxClusterSize = c.defaultMax
	}
	if opts.MinClusterSize <= 0 {
		opts.MinClusterSize = c.defaultMin
	}
	if opts.RadiusKm <= 0 {
		opts.RadiusKm = c.defaultRadius
	}
	if opts.Method == "" {
		opts.Method = domain.ClusterMethodDensity
	}
	return opts
}
