// Package spatial фильтрует строки метаданных по координатам их элемента.
package spatial

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/map-metadata/internal/domain"
	"github.com/map-metadata/internal/pkg/utils"
)

// Located - всё, у чего есть координаты элемента
type Located interface {
	Coordinates() (domain.Point, bool)
}

// BoundFor сводит регион к прямоугольнику по осям. Точка расширяется на
// padding во все стороны, нулевой padding означает DefaultPointPadding.
// Для многоугольника берутся min/max по углам.
func BoundFor(r domain.Region) (orb.Bound, error) {
	switch {
	case r.Point != nil && len(r.Corners) > 0:
		return orb.Bound{}, fmt.Errorf("%w: point and corners are mutually exclusive", domain.ErrInvalidRegion)

	case r.Point != nil:
		if !utils.ValidateCoordinates(r.Point.Lat, r.Point.Lon) {
			return orb.Bound{}, fmt.Errorf("%w: coordinates out of range", domain.ErrInvalidRegion)
		}
		pad := r.Padding
		if pad == 0 {
			pad = domain.DefaultPointPadding
		}
		if !utils.ValidatePadding(pad) {
			return orb.Bound{}, fmt.Errorf("%w: padding %v", domain.ErrInvalidRegion, r.Padding)
		}
		return orb.Point{r.Point.Lon, r.Point.Lat}.Bound().Pad(pad), nil

	case len(r.Corners) >= 2:
		mp := make(orb.MultiPoint, 0, len(r.Corners))
		for _, c := range r.Corners {
			if !utils.ValidateCoordinates(c.Lat, c.Lon) {
				return orb.Bound{}, fmt.Errorf("%w: corner out of range", domain.ErrInvalidRegion)
			}
			mp = append(mp, orb.Point{c.Lon, c.Lat})
		}
		return mp.Bound(), nil

	default:
		return orb.Bound{}, fmt.Errorf("%w: need a point or at least two corners", domain.ErrInvalidRegion)
	}
}

// Contains проверяет, лежит ли p в b, включая границы
func Contains(b orb.Bound, p domain.Point) bool {
	return b.Contains(orb.Point{p.Lon, p.Lat})
}

// Filter возвращает строки с координатами внутри b в исходном порядке.
// Строки без координат не подходят.
func Filter[T Located](rows []T, b orb.Bound) []T {
	out := make([]T, 0)
	for _, r := range rows {
		p, ok := r.Coordinates()
		if ok && Contains(b, p) {
			out = append(out, r)
		}
	}
	return out
}

// Query фильтрует одну из таблиц по региону. Функциональные строки
// находятся через структурную строку своего элемента.
func Query(tables *domain.MetadataTables, table domain.TableName, r domain.Region) (any, error) {
	b, err := BoundFor(r)
	if err != nil {
		return nil, err
	}

	switch table {
	case domain.TableEdgeStructural:
		return Filter(tables.EdgeStructural, b), nil

	case domain.TableNodeStructural:
		return Filter(tables.NodeStructural, b), nil

	case domain.TableEdgeFunctional:
		inside := make(map[domain.EdgeID]bool)
		for _, s := range Filter(tables.EdgeStructural, b) {
			inside[s.Edge] = true
		}
		out := make([]domain.EdgeFunctional, 0)
		for _, f := range tables.EdgeFunctional {
			if inside[f.Edge] {
				out = append(out, f)
			}
		}
		return out, nil

	case domain.TableNodeFunctional:
		inside := make(map[domain.NodeID]bool)
		for _, s := range Filter(tables.NodeStructural, b) {
			inside[s.Node] = true
		}
		out := make([]domain.NodeFunctional, 0)
		for _, f := range tables.NodeFunctional {
			if inside[f.Node] {
				out = append(out, f)
			}
		}
		return out, nil
	}

	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownTable, table)
}
