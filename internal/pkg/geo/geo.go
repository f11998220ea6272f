package geo

import "math"

const (
	earthRadiusKm  = 6371.0
	kmPerDegreeLat = 111.0
)

// HaversineDistance вычисляет расстояние между двумя точками в километрах
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	lat1Rad := lat1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// PointOnCircle возвращает точку на окружности радиусом radiusKm вокруг
// центра, angleRad отсчитывается от направления на север по часовой стрелке
func PointOnCircle(lat, lon, radiusKm, angleRad float64) (float64, float64) {
	latOffset := (radiusKm / kmPerDegreeLat) * math.Cos(angleRad)
	lonOffset := (radiusKm / (kmPerDegreeLat * math.Cos(lat*math.Pi/180.0))) * math.Sin(angleRad)
	return lat + latOffset, lon + lonOffset
}

// RoundCoord округляет координату до заданного числа знаков после запятой
func RoundCoord(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}

// ValidateCoordinates проверяет валидность координат
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ValidateRadius проверяет валидность радиуса (0.1 - 100 км)
func ValidateRadius(radiusKm float64) bool {
	return radiusKm >= 0.1 && radiusKm <= 100
}
