package utils

import "math"

const (
	earthRadiusMeters = 6371000.0
	microDegrees      = 1e6
)

// ToMicroDegrees переводит градусы в целые микроградусы с округлением
func ToMicroDegrees(deg float64) int {
	return int(math.Round(deg * microDegrees))
}

// FromMicroDegrees переводит микроградусы обратно в градусы
func FromMicroDegrees(micro int) float64 {
	return float64(micro) / microDegrees
}

// HaversineMeters вычисляет расстояние между двумя точками (микроградусы) в метрах
func HaversineMeters(lat1, lon1, lat2, lon2 int) float64 {
	la1 := FromMicroDegrees(lat1) * math.Pi / 180.0
	la2 := FromMicroDegrees(lat2) * math.Pi / 180.0
	dLat := la2 - la1
	dLon := (FromMicroDegrees(lon2) - FromMicroDegrees(lon1)) * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(la1)*math.Cos(la2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// ValidateCoordinates проверяет валидность координат
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
