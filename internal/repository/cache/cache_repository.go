package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/route-optimization-engine/internal/domain"
	"github.com/route-optimization-engine/internal/domain/repository"
)

const probeStatusKey = "routing:probe:status"

// parkingPOIKey строит ключ кеша из округленных координат, близкие точки
// доставки попадают в одну запись
func parkingPOIKey(lat, lon float64, radiusM int) string {
	return fmt.Sprintf("parking:poi:%.4f:%.4f:%d", lat, lon, radiusM)
}

type cacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewCacheRepository(redis *Redis) repository.CacheRepository {
	return &cacheRepository{
		client: redis.Client(),
		logger: redis.logger,
	}
}

func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		r.logger.Error("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	r.logger.Debug("Cache hit", zap.String("key", key))
	return val, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := r.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		r.logger.Error("Failed to set cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set error: %w", err)
	}

	r.logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (r *cacheRepository) Delete(ctx context.Context, key string) error {
	err := r.client.Del(ctx, key).Err()
	if err != nil {
		r.logger.Error("Failed to delete from cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache delete error: %w", err)
	}

	r.logger.Debug("Cache deleted", zap.String("key", key))
	return nil
}

func (r *cacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	val, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		r.logger.Error("Failed to check cache existence", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("cache exists error: %w", err)
	}

	return val > 0, nil
}

// GetParkingPOIs получает закешированные парковки из кеша
func (r *cacheRepository) GetParkingPOIs(ctx context.Context, lat, lon float64, radiusM int) ([]*domain.ParkingCandidate, error) {
	data, err := r.Get(ctx, parkingPOIKey(lat, lon, radiusM))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil // Cache miss
	}

	var candidates []*domain.ParkingCandidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		r.logger.Error("Failed to unmarshal parking candidates from cache", zap.Error(err))
		return nil, fmt.Errorf("unmarshal parking candidates: %w", err)
	}

	return candidates, nil
}

// SetParkingPOIs сохраняет парковки в кеше
func (r *cacheRepository) SetParkingPOIs(ctx context.Context, lat, lon float64, radiusM int, candidates []*domain.ParkingCandidate, ttl time.Duration) error {
	data, err := json.Marshal(candidates)
	if err != nil {
		r.logger.Error("Failed to marshal parking candidates", zap.Error(err))
		return fmt.Errorf("marshal parking candidates: %w", err)
	}

	return r.Set(ctx, parkingPOIKey(lat, lon, radiusM), data, ttl)
}

// GetProbeStatus получает закешированный результат пробы маршрутизатора
func (r *cacheRepository) GetProbeStatus(ctx context.Context) (*bool, error) {
	data, err := r.Get(ctx, probeStatusKey)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil // Cache miss
	}

	available := string(data) == "1"
	return &available, nil
}

// SetProbeStatus сохраняет результат пробы маршрутизатора
func (r *cacheRepository) SetProbeStatus(ctx context.Context, available bool, ttl time.Duration) error {
	value := []byte("0")
	if available {
		value = []byte("1")
	}

	return r.Set(ctx, probeStatusKey, value, ttl)
}
