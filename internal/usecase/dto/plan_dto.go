package dto

import (
	"time"

	"github.com/route-optimization-engine/internal/domain"
)

// PlanOptions - параметры планирования маршрутов
type PlanOptions struct {
	MaxClusterSize   int     `json:"max_cluster_size" validate:"omitempty,min=1,max=200"`
	MinClusterSize   int     `json:"min_cluster_size" validate:"omitempty,min=1,max=200"`
	Method           string  `json:"method" validate:"omitempty,oneof=density centroid"`
	Strategy         string  `json:"strategy" validate:"omitempty,oneof=balanced sequential"`
	K                int     `json:"k" validate:"omitempty,min=1"`
	RadiusKm         float64 `json:"radius_km" validate:"omitempty,min=0.1,max=100"`
	ParkingAware     bool    `json:"parking_aware"`
	ForceRoadNetwork bool    `json:"force_road_network"`
}

// PlanRequest - запрос на планирование маршрутов доставки
type PlanRequest struct {
	Depot     domain.Depot    `json:"depot"`
	Stops     []domain.Stop   `json:"stops"`
	Drivers   []domain.Driver `json:"drivers"`
	Options   PlanOptions     `json:"options"`
	StartTime *time.Time      `json:"start_time,omitempty"`
}

// RouteResult - назначение и готовый план маршрута одного водителя
type RouteResult struct {
	Assignment domain.RouteAssignment `json:"assignment"`
	Plan       *domain.RoutePlan      `json:"plan"`
}

// PlanResponse - результат планирования
type PlanResponse struct {
	PlanID     string                `json:"plan_id"`
	Routes     []RouteResult         `json:"routes"`
	Statistics domain.PlanStatistics `json:"statistics"`
}

// OptimizeRequest - запрос на переоптимизацию существующего порядка остановок
type OptimizeRequest struct {
	Depot     domain.Depot  `json:"depot"`
	Stops     []domain.Stop `json:"stops"`
	Options   PlanOptions   `json:"options"`
	StartTime *time.Time    `json:"start_time,omitempty"`
}

// OptimizeResponse - результат переоптимизации
type OptimizeResponse struct {
	OptimizedOrder []int64                   `json:"optimized_order"`
	Plan           *domain.RoutePlan         `json:"plan"`
	Improvement    domain.ImprovementMetrics `json:"improvement"`
}
