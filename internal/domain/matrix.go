package domain

// Провенанс матрицы расстояний: вся матрица строится из одного источника,
// смешивание дорожных и оценочных значений в одном проходе не допускается
const (
	ProvenanceRoadNetwork = "road-network"
	ProvenanceEstimate    = "great-circle-estimate"
)

// TravelEstimate представляет стоимость перемещения между двумя точками
type TravelEstimate struct {
	DistanceM  float64 `json:"distance_m"`
	DurationS  float64 `json:"duration_s"`
	Provenance string  `json:"provenance"`
}

// DistanceMatrix представляет таблицу попарных расстояний и длительностей,
// индексированную порядком точек, из которых она построена. Создается один
// раз на проход оптимизации и далее только читается
type DistanceMatrix struct {
	Provenance string      `json:"provenance"`
	Distances  [][]float64 `json:"distances"` // метры
	Durations  [][]float64 `json:"durations"` // секунды
}

// Size возвращает число точек матрицы
func (m *DistanceMatrix) Size() int {
	return len(m.Distances)
}

// Distance возвращает расстояние в метрах между точками i и j
func (m *DistanceMatrix) Distance(i, j int) float64 {
	return m.Distances[i][j]
}

// Duration возвращает длительность в секундах между точками i и j
func (m *DistanceMatrix) Duration(i, j int) float64 {
	return m.Durations[i][j]
}

// RoadRoute представляет маршрут по дорожной сети с геометрией пути
type RoadRoute struct {
	DistanceM float64    `json:"distance_m"`
	DurationS float64    `json:"duration_s"`
	Geometry  []GeoPoint `json:"geometry,omitempty"`
	Legs      []RouteLeg `json:"legs,omitempty"`
}

// RouteLeg представляет отрезок маршрута между соседними точками
type RouteLeg struct {
	DistanceM float64 `json:"distance_m"`
	DurationS float64 `json:"duration_s"`
}
