package domain

import "time"

// Источник кандидата парковки в порядке предпочтения
const (
	ParkingSourceCached    = "cached"
	ParkingSourceLivePOI   = "live-poi"
	ParkingSourceSynthetic = "synthetic-road-snap"
)

// ParkingCandidate представляет точку, где можно оставить машину рядом с
// адресом доставки. Живет только в рамках одного запроса планирования
type ParkingCandidate struct {
	Location   GeoPoint `json:"location"`
	Source     string   `json:"source"`
	Name       string   `json:"name,omitempty"`
	DistanceKm float64  `json:"distance_km"`
}

// ParkingLocation представляет статического кандидата парковки в хранилище,
// наполняется офлайн-импортом из уличной геометрии
type ParkingLocation struct {
	ID        int64     `json:"id" db:"id"`
	Name      *string   `json:"name,omitempty" db:"name"`
	Lat       float64   `json:"lat" db:"lat"`
	Lon       float64   `json:"lon" db:"lon"`
	OSMWayID  *int64    `json:"osm_way_id,omitempty" db:"osm_way_id"`
	Tag       *string   `json:"tag,omitempty" db:"tag"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ParkingSegment представляет улицу с парковочным тегом и ее геометрией,
// сырье для офлайн-нарезки статических кандидатов
type ParkingSegment struct {
	WayID    int64      `json:"way_id"`
	Name     string     `json:"name,omitempty"`
	Tag      string     `json:"tag"`
	Geometry []GeoPoint `json:"geometry"`
}
