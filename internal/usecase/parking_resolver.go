package usecase

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/route-optimization-engine/internal/config"
	"github.com/route-optimization-engine/internal/domain"
	"github.com/route-optimization-engine/internal/domain/repository"
	"github.com/route-optimization-engine/internal/pkg/geo"
	"github.com/route-optimization-engine/internal/worker"
)

// ResolveOptions - параметры подбора парковки, нулевые значения заменяются
// настройками по умолчанию
type ResolveOptions struct {
	MaxStaticRadiusKm float64
	POIRadiusM        int
	POILimit          int
	POITTL            time.Duration
	SyntheticRadiusKm float64
	CirclePoints      int
}

// ParkingResolver подбирает точку, где можно оставить машину рядом с адресом
// доставки. Ярусы пробуются по порядку: статические кандидаты в радиусе,
// живой запрос парковочных POI, синтетические точки на окружности, лучший
// статический кандидат без учета радиуса
type ParkingResolver struct {
	poi      repository.ParkingPOIRepository
	oracle   *DistanceOracle
	cache    repository.CacheRepository
	pool     *worker.Pool
	defaults ResolveOptions
	logger   *zap.Logger
}

// NewParkingResolver создает новый ParkingResolver
func NewParkingResolver(
	poi repository.ParkingPOIRepository,
	oracle *DistanceOracle,
	cache repository.CacheRepository,
	pool *worker.Pool,
	cfg *config.Config,
	logger *zap.Logger,
) *ParkingResolver {
	defaults := ResolveOptions{
		MaxStaticRadiusKm: cfg.Parking.MaxStaticRadiusM / 1000,
		POIRadiusM:        cfg.Overpass.RadiusM,
		POILimit:          cfg.Overpass.Limit,
		POITTL:            cfg.Overpass.CacheTTL,
		SyntheticRadiusKm: cfg.Parking.SyntheticRadiusKm,
		CirclePoints:      cfg.Parking.CirclePoints,
	}
	if defaults.MaxStaticRadiusKm <= 0 {
		defaults.MaxStaticRadiusKm = 2.0
	}
	if defaults.POIRadiusM <= 0 {
		defaults.POIRadiusM = 600
	}
	if defaults.POILimit <= 0 {
		defaults.POILimit = 10
	}
	if defaults.POITTL <= 0 {
		defaults.POITTL = 5 * time.Minute
	}
	if defaults.SyntheticRadiusKm <= 0 {
		defaults.SyntheticRadiusKm = 0.5
	}
	if defaults.CirclePoints <= 0 {
		defaults.CirclePoints = 12
	}

	return &ParkingResolver{
		poi:      poi,
		oracle:   oracle,
		cache:    cache,
		pool:     pool,
		defaults: defaults,
		logger:   logger,
	}
}

// Resolve возвращает лучшего кандидата парковки или nil, когда парковки нет
// и доставка идет по своей координате. Отказ внешних сервисов не ошибка,
// каждый ярус просто уступает следующему
func (r *ParkingResolver) Resolve(
	ctx context.Context,
	deliveryPoint domain.GeoPoint,
	staticCandidates []*domain.ParkingLocation,
	opts ResolveOptions,
) *domain.ParkingCandidate {
	opts = r.withDefaults(opts)

	if candidate := r.nearestStatic(deliveryPoint, staticCandidates, opts.MaxStaticRadiusKm); candidate != nil {
		return candidate
	}

	if candidate := r.livePOI(ctx, deliveryPoint, opts); candidate != nil {
		return candidate
	}

	if candidate := r.synthetic(ctx, deliveryPoint, opts); candidate != nil {
		return candidate
	}

	return r.nearestStatic(deliveryPoint, staticCandidates, math.MaxFloat64)
}

// ResolveAll подбирает парковки для всех остановок, сетевые запросы идут
// через ограниченный пул. Ключи результата это индексы среза остановок,
// остановки без кандидата в карту не попадают
func (r *ParkingResolver) ResolveAll(
	ctx context.Context,
	stops []domain.Stop,
	staticByStop [][]*domain.ParkingLocation,
	opts ResolveOptions,
) map[int]*domain.ParkingCandidate {
	results := make([]*domain.ParkingCandidate, len(stops))

	tasks := make([]worker.Task, len(stops))
	for i := range stops {
		i := i
		tasks[i] = func(ctx context.Context) error {
			var static []*domain.ParkingLocation
			if i < len(staticByStop) {
				static = staticByStop[i]
			}

			results[i] = r.Resolve(ctx, stops[i].Location, static, opts)
			return nil
		}
	}

	if err := r.pool.Run(ctx, tasks); err != nil {
		r.logger.Warn("Parking resolution interrupted", zap.Error(err))
	}

	resolved := make(map[int]*domain.ParkingCandidate)
	bySource := make(map[string]int)
	for i, candidate := range results {
		if candidate == nil {
			continue
		}

		resolved[i] = candidate
		bySource[candidate.Source]++
	}

	r.logger.Info("Parking resolved",
		zap.Int("stops", len(stops)),
		zap.Int("resolved", len(resolved)),
		zap.Any("sources", bySource))

	return resolved
}

// nearestStatic возвращает ближайшего статического кандидата в радиусе
func (r *ParkingResolver) nearestStatic(
	point domain.GeoPoint,
	candidates []*domain.ParkingLocation,
	maxRadiusKm float64,
) *domain.ParkingCandidate {
	var best *domain.ParkingLocation
	bestDist := math.MaxFloat64

	for _, loc := range candidates {
		d := geo.HaversineDistance(point.Lat, point.Lon, loc.Lat, loc.Lon)
		if d > maxRadiusKm {
			continue
		}
		if d < bestDist {
			bestDist = d
			best = loc
		}
	}

	if best == nil {
		return nil
	}

	name := ""
	if best.Name != nil {
		name = *best.Name
	}

	return &domain.ParkingCandidate{
		Location:   domain.GeoPoint{Lat: best.Lat, Lon: best.Lon},
		Source:     domain.ParkingSourceCached,
		Name:       name,
		DistanceKm: bestDist,
	}
}

// livePOI запрашивает парковочные POI вокруг точки. Результат кешируется по
// округленной координате и радиусу, закешированный пустой ответ тоже ответ
func (r *ParkingResolver) livePOI(ctx context.Context, point domain.GeoPoint, opts ResolveOptions) *domain.ParkingCandidate {
	cached, err := r.cache.GetParkingPOIs(ctx, point.Lat, point.Lon, opts.POIRadiusM)
	if err == nil && cached != nil {
		return firstCandidate(cached)
	}

	candidates, err := r.poi.GetParkingNearby(ctx, point.Lat, point.Lon, opts.POIRadiusM, opts.POILimit)
	if err != nil {
		r.logger.Warn("Live parking query failed", zap.Error(err))
		return nil
	}

	if err := r.cache.SetParkingPOIs(ctx, point.Lat, point.Lon, opts.POIRadiusM, candidates, opts.POITTL); err != nil {
		r.logger.Debug("Failed to cache parking candidates", zap.Error(err))
	}

	return firstCandidate(candidates)
}

// synthetic размещает точки равномерно по окружности целевого радиуса и
// прижимает каждую к ближайшей дороге. Побеждает точка, чье фактическое
// расстояние до адреса ближе всего к целевому радиусу
func (r *ParkingResolver) synthetic(ctx context.Context, point domain.GeoPoint, opts ResolveOptions) *domain.ParkingCandidate {
	snapped := make([]*domain.GeoPoint, opts.CirclePoints)

	tasks := make([]worker.Task, opts.CirclePoints)
	for i := 0; i < opts.CirclePoints; i++ {
		i := i
		tasks[i] = func(ctx context.Context) error {
			angle := 2 * math.Pi * float64(i) / float64(opts.CirclePoints)
			lat, lon := geo.PointOnCircle(point.Lat, point.Lon, opts.SyntheticRadiusKm, angle)

			p, err := r.oracle.SnapToRoad(ctx, domain.GeoPoint{Lat: lat, Lon: lon})
			if err != nil {
				return nil
			}

			snapped[i] = &p
			return nil
		}
	}

	if err := r.pool.Run(ctx, tasks); err != nil {
		return nil
	}

	var best *domain.GeoPoint
	bestScore := math.MaxFloat64
	bestDist := 0.0
	for _, p := range snapped {
		if p == nil {
			continue
		}

		d := geo.HaversineDistance(point.Lat, point.Lon, p.Lat, p.Lon)
		score := math.Abs(d - opts.SyntheticRadiusKm)
		if score < bestScore {
			bestScore = score
			best = p
			bestDist = d
		}
	}

	if best == nil {
		return nil
	}

	return &domain.ParkingCandidate{
		Location:   *best,
		Source:     domain.ParkingSourceSynthetic,
		Name:       "Street Parking",
		DistanceKm: bestDist,
	}
}

func firstCandidate(candidates []*domain.ParkingCandidate) *domain.ParkingCandidate {
	if len(candidates) == 0 {
		return nil
	}
	return candidates[0]
}

func (r *ParkingResolver) withDefaults(opts ResolveOptions) ResolveOptions {
	if opts.MaxStaticRadiusKm <= 0 {
		opts.MaxStaticRadiusKm = r.defaults.MaxStaticRadiusKm
	}
	if opts.POIRadiusM <= 0 {
		opts.POIRadiusM = r.defaults.POIRadiusM
	}
	if opts.POILimit <= 0 {
		opts.POILimit = r.defaults.POILimit
	}
	if opts.POITTL <= 0 {
		opts.POITTL = r.defaults.POITTL
	}
	if opts.SyntheticRadiusKm <= 0 {
		opts.SyntheticRadiusKm = r.defaults.SyntheticRadiusKm
	}
	if opts.CirclePoints <= 0 {
		opts.CirclePoints = r.defaults.CirclePoints
	}
	return opts
}
