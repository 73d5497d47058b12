package utils

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

const earthRadiusMiles = 3958.7613

// GeodesicDistanceMiles вычисляет расстояние по большому кругу в милях
func GeodesicDistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	return greatCircle(lat1, lon1, lat2, lon2).Radians() * earthRadiusMiles
}

func greatCircle(lat1, lon1, lat2, lon2 float64) s1.Angle {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2)
}

// InitialBearing возвращает начальный азимут от точки 1 к точке 2 в градусах [0, 360)
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)

	lonDiff := p2.Lng.Radians() - p1.Lng.Radians()
	y := math.Sin(lonDiff) * math.Cos(p2.Lat.Radians())
	x := math.Cos(p1.Lat.Radians())*math.Sin(p2.Lat.Radians()) -
		math.Sin(p1.Lat.Radians())*math.Cos(p2.Lat.Radians())*math.Cos(lonDiff)

	deg := s1.Angle(math.Atan2(y, x)).Degrees()
	deg = math.Mod(deg+360, 360)
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// ValidateCoordinates проверяет валидность координат
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ValidatePadding проверяет валидность отступа вокруг точки (0 - 10 градусов)
func ValidatePadding(padding float64) bool {
	return padding >= 0 && padding <= 10
}
