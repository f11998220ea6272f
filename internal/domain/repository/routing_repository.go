package repository

import (
	"context"

	"github.com/route-optimization-engine/internal/domain"
)

// RoutingRepository определяет методы для работы с сервисом дорожной
// маршрутизации. Все методы трактуются как best-effort: недоступность
// сервиса обрабатывается вызывающей стороной переходом на оценку
type RoutingRepository interface {
	// GetRoute возвращает маршрут между двумя точками
	GetRoute(ctx context.Context, from, to domain.GeoPoint) (*domain.RoadRoute, error)

	// GetRouteGeometry возвращает маршрут через все точки по порядку
	// с полной геометрией пути и поотрезочными показателями
	GetRouteGeometry(ctx context.Context, points []domain.GeoPoint) (*domain.RoadRoute, error)

	// GetTable возвращает матрицу расстояний и длительностей для набора точек
	GetTable(ctx context.Context, points []domain.GeoPoint) (*domain.DistanceMatrix, error)

	// Nearest возвращает ближайшую к точке позицию на проезжей дороге
	Nearest(ctx context.Context, point domain.GeoPoint) (*domain.GeoPoint, error)

	// Probe выполняет дешевый пробный запрос для проверки доступности сервиса
	Probe(ctx context.Context) error
}
