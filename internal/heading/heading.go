// Package heading относит азимуты к румбам и типам поворота и определяет
// направленность ребра по румбам, наблюдаемым на нём.
package heading

import (
	"fmt"
	"math"

	"github.com/map-metadata/internal/domain"
)

// Диапазоны поворотов в градусах относительного курса, границы включены
const (
	rightFrom, rightTo = 67.0, 135.0
	leftFrom, leftTo   = 225.0, 292.0
	aheadFrom, aheadTo = 315.0, 45.0
	uTurnFrom, uTurnTo = 157.0, 202.0
)

// ClassifyCardinal относит азимут из [0, 360) к одному из восьми румбов по 45°.
// Север занимает [337.5, 360) и [0, 22.5).
func ClassifyCardinal(h float64) (domain.CardinalDirection, error) {
	if math.IsNaN(h) || h < 0 || h >= 360 {
		return 0, fmt.Errorf("%w: %v", domain.ErrHeadingRange, h)
	}
	switch {
	case h >= 337.5 || h < 22.5:
		return domain.North, nil
	case h < 67.5:
		return domain.NorthEast, nil
	case h < 112.5:
		return domain.East, nil
	case h < 157.5:
		return domain.SouthEast, nil
	case h < 202.5:
		return domain.South, nil
	case h < 247.5:
		return domain.SouthWest, nil
	case h < 292.5:
		return domain.West, nil
	default:
		return domain.NorthWest, nil
	}
}

// RelativeHeading возвращает (h2 - h1) mod 360 в диапазоне [0, 360)
func RelativeHeading(h1, h2 float64) float64 {
	r := math.Mod(h2-h1, 360)
	if r < 0 {
		r += 360
	}
	return r
}

// ClassifyTurn определяет тип поворота по относительному курсу. Диапазоны
// проверяются в порядке: направо, налево, прямо, разворот; побеждает первый.
func ClassifyTurn(relative float64) domain.TurnCategory {
	switch {
	case relative >= rightFrom && relative <= rightTo:
		return domain.TurnRight
	case relative >= leftFrom && relative <= leftTo:
		return domain.TurnLeft
	case (relative >= aheadFrom && relative < 360) || (relative >= 0 && relative <= aheadTo):
		return domain.TurnAhead
	case relative >= uTurnFrom && relative <= uTurnTo:
		return domain.TurnUTurn
	default:
		return domain.TurnNone
	}
}

// Turn классифицирует поворот от курса h1 к курсу h2
func Turn(h1, h2 float64) domain.TurnCategory {
	return ClassifyTurn(RelativeHeading(h1, h2))
}

// InferDirectionality применяет правило противоположности к румбам ребра:
// точно противоположная пара, а при её отсутствии приблизительно
// противоположная, делает ребро двусторонним. Прочие непустые наборы дают oneway.
func InferDirectionality(seen domain.CardinalSet) domain.Directionality {
	if seen.Empty() {
		return domain.Ambiguous
	}
	for _, d := range seen.Slice() {
		if seen.Has(d.Opposite()) {
			return domain.Twoway
		}
	}
	for _, d := range seen.Slice() {
		for _, o := range d.ApproxOpposites() {
			if seen.Has(o) {
				return domain.Twoway
			}
		}
	}
	return domain.Oneway
}

// StructuralDirectionality - InferDirectionality с учётом числа сегментов:
// по одному проезду направленность не определить.
func StructuralDirectionality(seen domain.CardinalSet, segments int) domain.Directionality {
	if segments < 2 {
		return domain.Ambiguous
	}
	return InferDirectionality(seen)
}

// DirectionalityFromVectors - правило по векторным меткам: проезды и по
// вектору ребра, и против него делают ребро двусторонним.
func DirectionalityFromVectors(t domain.DirectionTally) domain.Directionality {
	switch {
	case t.Forward > 0 && t.Backward > 0:
		return domain.Twoway
	case t.Forward > 0 || t.Backward > 0:
		return domain.Oneway
	default:
		return domain.Ambiguous
	}
}
