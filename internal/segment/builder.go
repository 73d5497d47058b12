// Package segment нарезает привязанные к карте траектории на сегменты по
// элементам графа и считает сводную статистику каждого сегмента.
package segment

import (
	"sort"

	"go.uber.org/zap"

	"github.com/map-metadata/internal/domain"
)

// BuilderConfig - настройки группировки точек в сегменты
type BuilderConfig struct {
	// MergeRevisits объединяет все точки поездки на одном элементе в один
	// сегмент вместо отдельного сегмента на каждый непрерывный участок.
	MergeRevisits bool
	// EdgeCutoffMeters и NodeCutoffMeters отбрасывают привязки с расстоянием
	// до элемента больше порога. Ноль отключает проверку.
	EdgeCutoffMeters float64
	NodeCutoffMeters float64
}

// BuildResult - сегменты одного прогона и счётчики непривязанных точек
type BuildResult struct {
	Edges         []domain.Segment
	Nodes         []domain.Segment
	Trips         int
	UnmatchedEdge int
	UnmatchedNode int
}

type Builder struct {
	cfg    BuilderConfig
	logger *zap.Logger
}

func NewBuilder(cfg BuilderConfig, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{cfg: cfg, logger: logger}
}

// Build группирует точки по поездкам и устойчиво сортирует каждую по времени
// (равные отметки сохраняют входной порядок). Затем досчитывает недостающие
// скорость и курс и нарезает сегменты рёбер и узлов. Поездки выдаются в
// порядке первого появления.
func (b *Builder) Build(points []domain.TrajectoryPoint) BuildResult {
	var res BuildResult

	trips := groupByTrip(points)
	res.Trips = len(trips)

	for _, trip := range trips {
		sort.SliceStable(trip, func(i, j int) bool {
			return trip[i].Timestamp.Before(trip[j].Timestamp)
		})
		trip = DeriveKinematics(trip)

		edges, unmatched := b.cut(trip, domain.ElementEdge)
		res.Edges = append(res.Edges, edges...)
		res.UnmatchedEdge += unmatched

		nodes, unmatched := b.cut(trip, domain.ElementNode)
		res.Nodes = append(res.Nodes, nodes...)
		res.UnmatchedNode += unmatched
	}

	b.logger.Debug("Segments built",
		zap.Int("trips", res.Trips),
		zap.Int("edge_segments", len(res.Edges)),
		zap.Int("node_segments", len(res.Nodes)),
		zap.Int("unmatched_edge", res.UnmatchedEdge),
		zap.Int("unmatched_node", res.UnmatchedNode))

	return res
}

func groupByTrip(points []domain.TrajectoryPoint) [][]domain.TrajectoryPoint {
	index := make(map[string]int)
	var trips [][]domain.TrajectoryPoint
	for _, p := range points {
		i, ok := index[p.TripID]
		if !ok {
			i = len(trips)
			index[p.TripID] = i
			trips = append(trips, nil)
		}
		trips[i] = append(trips[i], p)
	}
	return trips
}

type elementKey struct {
	edge domain.EdgeID
	node domain.NodeID
}

// cut отбрасывает точки без привязки нужного вида и группирует остальные
// в сегменты
func (b *Builder) cut(trip []domain.TrajectoryPoint, kind domain.ElementKind) ([]domain.Segment, int) {
	var (
		segments  []domain.Segment
		unmatched int
		open      = make(map[elementKey]int)
		last      *elementKey
	)

	for _, p := range trip {
		key, ok := b.assignment(p, kind)
		if !ok {
			unmatched++
			continue
		}

		switch {
		case b.cfg.MergeRevisits:
			if i, seen := open[key]; seen {
				segments[i].Points = append(segments[i].Points, p)
				continue
			}
			open[key] = len(segments)
		case last != nil && *last == key:
			segments[len(segments)-1].Points = append(segments[len(segments)-1].Points, p)
			continue
		}

		segments = append(segments, domain.Segment{
			TripID: p.TripID,
			Kind:   kind,
			Edge:   key.edge,
			Node:   key.node,
			Points: []domain.TrajectoryPoint{p},
		})
		k := key
		last = &k
	}

	return segments, unmatched
}

func (b *Builder) assignment(p domain.TrajectoryPoint, kind domain.ElementKind) (elementKey, bool) {
	switch kind {
	case domain.ElementEdge:
		if p.Edge == nil || exceeds(p.EdgeDistance, b.cfg.EdgeCutoffMeters) {
			return elementKey{}, false
		}
		return elementKey{edge: *p.Edge}, true
	default:
		if p.Node == nil || exceeds(p.NodeDistance, b.cfg.NodeCutoffMeters) {
			return elementKey{}, false
		}
		return elementKey{node: *p.Node}, true
	}
}

func exceeds(distance *float64, cutoff float64) bool {
	return cutoff > 0 && distance != nil && *distance > cutoff
}
