package domain

// GeoPoint представляет географическую точку в градусах WGS-84
type GeoPoint struct {
	Lat float64 `json:"lat" db:"lat"`
	Lon float64 `json:"lon" db:"lon"`
}

// Stop представляет узел маршрута: депо, точку доставки или парковку
type Stop struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name,omitempty"`
	Address  string   `json:"address,omitempty"`
	Location GeoPoint `json:"location"`

	// Priority не влияет на порядок объезда, атрибут передается дальше как есть
	Priority string `json:"priority,omitempty"`
}

// Depot представляет склад, с которого начинаются и заканчиваются маршруты
type Depot struct {
	Name     string   `json:"name,omitempty"`
	Address  string   `json:"address,omitempty"`
	Location GeoPoint `json:"location"`
}

// Driver представляет водителя, доступного для назначения маршрута
type Driver struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
}
