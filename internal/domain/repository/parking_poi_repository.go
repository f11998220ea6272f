package repository

import (
	"context"

	"github.com/route-optimization-engine/internal/domain"
)

// ParkingPOIRepository определяет методы для работы с картографическим
// сервисом парковочных данных
type ParkingPOIRepository interface {
	// GetParkingNearby возвращает парковки в радиусе от точки
	GetParkingNearby(ctx context.Context, lat, lon float64, radiusM, limit int) ([]*domain.ParkingCandidate, error)

	// GetParkingSegments возвращает улицы с парковочными тегами в регионе,
	// используется офлайн-импортом, не на горячем пути планирования
	GetParkingSegments(ctx context.Context, bbox domain.BoundingBox) ([]*domain.ParkingSegment, error)
}
