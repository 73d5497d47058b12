package segment

import (
	"context"
	"fmt"
	"runtime"

	"github.com/destel/rill"
	"go.uber.org/zap"

	"github.com/map-metadata/internal/domain"
	"github.com/map-metadata/internal/heading"
	"github.com/map-metadata/internal/pkg/utils"
	"github.com/map-metadata/internal/temporal"
)

const travelTimePlaces = 4

// ExtractorConfig - настройки извлечения метаданных сегмента
type ExtractorConfig struct {
	// DistanceNormalized делит время в пути на геодезическое расстояние
	// между первой и последней точкой (минуты на милю).
	DistanceNormalized bool
	// Workers ограничивает параллелизм ExtractEdges и ExtractNodes
	Workers int
}

// Extractor превращает сегменты в строки метаданных. Граф только читается.
type Extractor struct {
	graph  *domain.Graph
	cfg    ExtractorConfig
	logger *zap.Logger
}

func NewExtractor(graph *domain.Graph, cfg ExtractorConfig, logger *zap.Logger) *Extractor {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{graph: graph, cfg: cfg, logger: logger}
}

// ExtractEdges параллельно обрабатывает сегменты рёбер. Порядок на выходе
// совпадает с входным.
func (e *Extractor) ExtractEdges(ctx context.Context, segments []domain.Segment) ([]domain.EdgeSegment, error) {
	in := rill.FromSlice(segments, nil)
	out := rill.OrderedMap(in, e.cfg.Workers, func(s domain.Segment) (domain.EdgeSegment, error) {
		if err := ctx.Err(); err != nil {
			return domain.EdgeSegment{}, err
		}
		if s.Kind != domain.ElementEdge {
			return domain.EdgeSegment{}, fmt.Errorf("segment of trip %s is a %s segment", s.TripID, s.Kind)
		}
		return e.ExtractEdge(s), nil
	})
	return rill.ToSlice(out)
}

// ExtractNodes - то же, что ExtractEdges, для сегментов узлов
func (e *Extractor) ExtractNodes(ctx context.Context, segments []domain.Segment) ([]domain.NodeSegment, error) {
	in := rill.FromSlice(segments, nil)
	out := rill.OrderedMap(in, e.cfg.Workers, func(s domain.Segment) (domain.NodeSegment, error) {
		if err := ctx.Err(); err != nil {
			return domain.NodeSegment{}, err
		}
		if s.Kind != domain.ElementNode {
			return domain.NodeSegment{}, fmt.Errorf("segment of trip %s is a %s segment", s.TripID, s.Kind)
		}
		return e.ExtractNode(s), nil
	})
	return rill.ToSlice(out)
}

// ExtractEdge помечает сегмент '+', '-' или 'p' по знаку скалярного
// произведения вектора от первой точки к последней и вектора ребра.
func (e *Extractor) ExtractEdge(s domain.Segment) domain.EdgeSegment {
	row := domain.EdgeSegment{
		SegmentStats: e.stats(s, zap.Stringer("edge", s.Edge)),
		Edge:         s.Edge,
	}
	if len(s.Points) < 2 {
		return row
	}

	ref, ok := e.graph.EdgeVector(s.Edge)
	if !ok {
		return row
	}
	first, last := endpoints(s.Points)
	seg := [2]float64{last.Lon - first.Lon, last.Lat - first.Lat}
	switch dot := ref[0]*seg[0] + ref[1]*seg[1]; {
	case dot > 0:
		row.Direction = domain.DirectionForward
	case dot < 0:
		row.Direction = domain.DirectionBackward
	default:
		row.Direction = domain.DirectionParallel
	}
	return row
}

// ExtractNode помечает сегмент ребром и румбом его последней точки
func (e *Extractor) ExtractNode(s domain.Segment) domain.NodeSegment {
	row := domain.NodeSegment{
		SegmentStats: e.stats(s, zap.Stringer("node", s.Node)),
		Node:         s.Node,
	}
	if len(s.Points) < 2 {
		return row
	}

	_, last := endpoints(s.Points)
	if last.Edge != nil {
		exit := *last.Edge
		row.ExitEdge = &exit
	}
	if last.HasHeading {
		if dir, err := heading.ClassifyCardinal(last.Heading); err == nil {
			row.ExitDirection = &dir
		}
	}
	return row
}

func (e *Extractor) stats(s domain.Segment, element zap.Field) domain.SegmentStats {
	n := len(s.Points)
	st := domain.SegmentStats{TripID: s.TripID, PointCount: n}
	if n == 0 {
		st.Degraded = true
		e.logger.Warn("Empty segment", zap.String("trip_id", s.TripID), element)
		return st
	}

	var lat, lon float64
	for _, p := range s.Points {
		lat += p.Lat
		lon += p.Lon
		if p.HasHeading {
			if dir, err := heading.ClassifyCardinal(p.Heading); err == nil {
				st.Cardinals = st.Cardinals.Add(dir)
			}
		}
	}
	st.Centroid = domain.Point{Lat: lat / float64(n), Lon: lon / float64(n)}

	if err := setSpeeds(&st, s.Points); err != nil {
		st.Degraded = true
		e.logger.Warn("Failed to compute segment speeds",
			zap.String("trip_id", s.TripID),
			element,
			zap.Int("points", n),
			zap.Error(err))
	}

	if n == 1 {
		p := s.Points[0]
		st.DayType, st.TimeType = temporal.DayType(p.Timestamp), temporal.TimeType(p.Timestamp)
		st.TimeBin = temporal.BinOf(st.DayType, st.TimeType)
		return st
	}

	dayTypes := make([]int, n)
	timeTypes := make([]int, n)
	for i, p := range s.Points {
		dayTypes[i] = temporal.DayType(p.Timestamp)
		timeTypes[i] = temporal.TimeType(p.Timestamp)
	}
	st.DayType, _ = utils.Mode(dayTypes)
	st.TimeType, _ = utils.Mode(timeTypes)
	st.TimeBin = temporal.BinOf(st.DayType, st.TimeType)

	st.TravelTime = e.travelTime(s.Points)
	return st
}

func setSpeeds(st *domain.SegmentStats, points []domain.TrajectoryPoint) error {
	speeds := make([]float64, len(points))
	for i, p := range points {
		if !p.HasSpeed || !utils.Finite(p.Speed) {
			return fmt.Errorf("point %d of %d has no usable speed", i+1, len(points))
		}
		speeds[i] = p.Speed
	}
	mean, _ := utils.Mean(speeds)
	lo, hi, _ := utils.MinMax(speeds)

	avg, maxSpeed, minSpeed := utils.RoundInt(mean), utils.RoundInt(hi), utils.RoundInt(lo)
	st.AvgSpeed, st.MaxSpeed, st.MinSpeed = &avg, &maxSpeed, &minSpeed
	return nil
}

func (e *Extractor) travelTime(points []domain.TrajectoryPoint) *float64 {
	first, last := endpoints(points)
	minutes, err := temporal.Elapsed(first.Timestamp, last.Timestamp, temporal.Minutes)
	if err != nil {
		return nil
	}
	if e.cfg.DistanceNormalized {
		miles := utils.GeodesicDistanceMiles(first.Lat, first.Lon, last.Lat, last.Lon)
		if miles == 0 {
			return nil
		}
		minutes /= miles
	}
	tt := utils.Round(minutes, travelTimePlaces)
	return &tt
}

// endpoints возвращает первую точку с самой ранней отметкой времени и
// первую точку с самой поздней.
func endpoints(points []domain.TrajectoryPoint) (first, last domain.TrajectoryPoint) {
	first, last = points[0], points[0]
	for _, p := range points[1:] {
		if p.Timestamp.Before(first.Timestamp) {
			first = p
		}
		if p.Timestamp.After(last.Timestamp) {
			last = p
		}
	}
	return first, last
}
