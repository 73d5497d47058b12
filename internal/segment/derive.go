package segment

import (
	"github.com/map-metadata/internal/domain"
	"github.com/map-metadata/internal/pkg/utils"
)

// DeriveKinematics досчитывает скорость (mph) и курс (градусы) для точек
// упорядоченной по времени поездки, где их нет. Точка берёт шаг от
// предыдущей, первая точка - шаг до следующей. Если у шага нулевая
// длительность или длина, значение остаётся пустым.
func DeriveKinematics(trip []domain.TrajectoryPoint) []domain.TrajectoryPoint {
	if len(trip) < 2 {
		return trip
	}
	out := make([]domain.TrajectoryPoint, len(trip))
	copy(out, trip)

	for i := range out {
		if out[i].HasSpeed && out[i].HasHeading {
			continue
		}
		from, to := i-1, i
		if i == 0 {
			from, to = 0, 1
		}
		a, b := trip[from], trip[to]
		miles := utils.GeodesicDistanceMiles(a.Lat, a.Lon, b.Lat, b.Lon)

		if !out[i].HasSpeed {
			hours := b.Timestamp.Sub(a.Timestamp).Hours()
			if hours > 0 {
				out[i].Speed = miles / hours
				out[i].HasSpeed = true
			}
		}
		if !out[i].HasHeading && miles > 0 {
			out[i].Heading = utils.InitialBearing(a.Lat, a.Lon, b.Lat, b.Lon)
			out[i].HasHeading = true
		}
	}
	return out
}
