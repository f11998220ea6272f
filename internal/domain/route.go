package domain

import "time"

// WaypointKind тип путевой точки маршрута
type WaypointKind string

const (
	WaypointDepot    WaypointKind = "depot"
	WaypointParking  WaypointKind = "parking"
	WaypointDelivery WaypointKind = "delivery"
)

// Waypoint представляет путевую точку собранного маршрута
type Waypoint struct {
	Kind             WaypointKind `json:"kind"`
	Location         GeoPoint     `json:"location"`
	Name             string       `json:"name,omitempty"`
	Address          string       `json:"address,omitempty"`
	StopID           int64        `json:"stop_id,omitempty"`
	EstimatedArrival *time.Time   `json:"estimated_arrival,omitempty"`
}

// RoutePlan представляет собранный маршрут: упорядоченную последовательность
// путевых точек от депо до депо с итоговыми показателями
type RoutePlan struct {
	Waypoints        []Waypoint `json:"waypoints"`
	TotalDistanceKm  float64    `json:"total_distance_km"`
	TotalTimeMinutes float64    `json:"total_time_minutes"`
	Geometry         []GeoPoint `json:"geometry,omitempty"`
	Provenance       string     `json:"provenance"`
}

// ImprovementMetrics представляет выигрыш оптимизированного порядка объезда
// относительно исходного
type ImprovementMetrics struct {
	OriginalKm         float64 `json:"original_km"`
	OptimizedKm        float64 `json:"optimized_km"`
	SavedKm            float64 `json:"saved_km"`
	ImprovementPercent float64 `json:"improvement_percent"`
}

// PlanStatistics представляет сводку по результату планирования
type PlanStatistics struct {
	TotalRoutes       int     `json:"total_routes"`
	TotalOrders       int     `json:"total_orders"`
	TotalDistanceKm   float64 `json:"total_distance_km"`
	TotalTimeMinutes  float64 `json:"total_time_minutes"`
	DriversUsed       int     `json:"drivers_used"`
	AvgOrdersPerRoute float64 `json:"avg_orders_per_route"`
	AvgDistanceKm     float64 `json:"avg_distance_km"`
}
