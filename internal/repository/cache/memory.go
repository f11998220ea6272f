package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/route-optimization-engine/internal/domain"
	"github.com/route-optimization-engine/internal/domain/repository"
)

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// memoryCache хранит записи в памяти процесса. Используется когда Redis не
// сконфигурирован, записи живут до истечения TTL или перезапуска
type memoryCache struct {
	mu    sync.RWMutex
	items map[string]memoryItem
}

// NewMemoryCache создает кеш в памяти процесса
func NewMemoryCache() repository.CacheRepository {
	return &memoryCache{
		items: make(map[string]memoryItem),
	}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, nil // Cache miss
	}
	if !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, nil
	}

	return item.value, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	item := memoryItem{value: value}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()

	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()

	return nil
}

func (c *memoryCache) Exists(ctx context.Context, key string) (bool, error) {
	data, err := c.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return data != nil, nil
}

func (c *memoryCache) GetParkingPOIs(ctx context.Context, lat, lon float64, radiusM int) ([]*domain.ParkingCandidate, error) {
	data, err := c.Get(ctx, parkingPOIKey(lat, lon, radiusM))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var candidates []*domain.ParkingCandidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		return nil, fmt.Errorf("unmarshal parking candidates: %w", err)
	}

	return candidates, nil
}

func (c *memoryCache) SetParkingPOIs(ctx context.Context, lat, lon float64, radiusM int, candidates []*domain.ParkingCandidate, ttl time.Duration) error {
	data, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("marshal parking candidates: %w", err)
	}

	return c.Set(ctx, parkingPOIKey(lat, lon, radiusM), data, ttl)
}

func (c *memoryCache) GetProbeStatus(ctx context.Context) (*bool, error) {
	data, err := c.Get(ctx, probeStatusKey)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	available := string(data) == "1"
	return &available, nil
}

func (c *memoryCache) SetProbeStatus(ctx context.Context, available bool, ttl time.Duration) error {
	value := []byte("0")
	if available {
		value = []byte("1")
	}

	return c.Set(ctx, probeStatusKey, value, ttl)
}
