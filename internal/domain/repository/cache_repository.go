package repository

import (
	"context"
	"time"

	"github.com/route-optimization-engine/internal/domain"
)

// CacheRepository определяет методы для работы с кешем. Кеш это оптимизация,
// а не источник истины: промах или потеря записи не влияет на корректность
// планирования
type CacheRepository interface {
	// Get получает значение из кеша по ключу, (nil, nil) при промахе
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение в кеше с TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет значение из кеша
	Delete(ctx context.Context, key string) error

	// Exists проверяет существование ключа
	Exists(ctx context.Context, key string) (bool, error)

	// GetParkingPOIs получает закешированный результат запроса парковок,
	// ключ строится из округленных координат и радиуса
	GetParkingPOIs(ctx context.Context, lat, lon float64, radiusM int) ([]*domain.ParkingCandidate, error)

	// SetParkingPOIs сохраняет результат запроса парковок
	SetParkingPOIs(ctx context.Context, lat, lon float64, radiusM int, candidates []*domain.ParkingCandidate, ttl time.Duration) error

	// GetProbeStatus возвращает закешированный результат пробы доступности
	// сервиса маршрутизации, nil если проба не кеширована
	GetProbeStatus(ctx context.Context) (*bool, error)

	// SetProbeStatus сохраняет результат пробы доступности
	SetProbeStatus(ctx context.Context, available bool, ttl time.Duration) error
}
