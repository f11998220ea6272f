package domain

// Стратегии распределения кластеров по водителям
const (
	AssignStrategyBalanced   = "balanced"
	AssignStrategySequential = "sequential"
)

// RouteColors фиксированная палитра цветов маршрутов, индексируется номером
// слота по кругу
var RouteColors = []string{
	"#9b59b6", "#e91e63", "#00bcd4", "#4caf50", "#ff9800",
	"#2196f3", "#f44336", "#009688", "#ffc107", "#795548",
	"#607d8b", "#9c27b0", "#ff5722", "#00acc1", "#8bc34a",
}

// RouteAssignment представляет назначение кластера водителю. Orders хранит
// идентификаторы заказов в порядке включения в кластер, порядок объезда
// определяется позже секвенсером
type RouteAssignment struct {
	DriverID   int64   `json:"driver_id"`
	DriverName string  `json:"driver_name"`
	Orders     []int64 `json:"orders"`
	RouteName  string  `json:"route_name"`
	Color      string  `json:"color"`
	Slot       int     `json:"slot"`
}
