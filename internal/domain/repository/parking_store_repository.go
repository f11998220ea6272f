package repository

import (
	"context"

	"github.com/route-optimization-engine/internal/domain"
)

// ParkingStoreRepository определяет методы хранилища статических кандидатов
// парковки, наполняемого офлайн-импортом
type ParkingStoreRepository interface {
	// GetNearby возвращает кандидатов в радиусе от точки, отсортированных
	// по удаленности. Пустой список тегов отключает фильтрацию по тегам
	GetNearby(ctx context.Context, lat, lon, radiusKm float64, tags []string) ([]*domain.ParkingLocation, error)

	// BulkInsert сохраняет пакет кандидатов и возвращает число вставленных,
	// дубликаты по координатам пропускаются
	BulkInsert(ctx context.Context, locations []*domain.ParkingLocation) (int, error)

	// Count возвращает число кандидатов в хранилище
	Count(ctx context.Context) (int64, error)
}
