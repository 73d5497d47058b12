package aggregate

import (
	"context"
	"runtime"
	"sort"

	"github.com/destel/rill"
	"go.uber.org/zap"

	"github.com/map-metadata/internal/domain"
	"github.com/map-metadata/internal/pkg/utils"
)

const travelTimePlaces = 4

// DefaultMinSegments - число сегментов, ниже которого элемент не
// разбивается по временным бинам
const DefaultMinSegments = 5

// Config - настройки агрегации
type Config struct {
	MinEdgeSegments int
	MinNodeSegments int
	Alpha           float64
	// IncludeEmptyBins выдаёт строку с нулевым счётчиком для каждого бина,
	// в котором у элемента нет сегментов, вместо пропуска.
	IncludeEmptyBins bool
	Workers          int
}

// EdgeAggregate - всё, что нужно сборщику таблиц об одном ребре
type EdgeAggregate struct {
	Edge       domain.EdgeID
	Segments   int
	Cardinals  domain.CardinalSet
	Directions domain.DirectionTally
	Centroid   domain.Point
	Functional []domain.EdgeFunctional
}

// NodeAggregate - всё, что нужно сборщику таблиц об одном узле
type NodeAggregate struct {
	Node       domain.NodeID
	Segments   int
	Cardinals  domain.CardinalSet
	Centroid   domain.Point
	Functional []domain.NodeFunctional
}

type Aggregator struct {
	cfg    Config
	logger *zap.Logger
}

func NewAggregator(cfg Config, logger *zap.Logger) *Aggregator {
	if cfg.MinEdgeSegments <= 0 {
		cfg.MinEdgeSegments = DefaultMinSegments
	}
	if cfg.MinNodeSegments <= 0 {
		cfg.MinNodeSegments = DefaultMinSegments
	}
	if cfg.Alpha <= 0 || cfg.Alpha >= 1 {
		cfg.Alpha = DefaultAlpha
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{cfg: cfg, logger: logger}
}

type edgeGroup struct {
	edge domain.EdgeID
	rows []domain.EdgeSegment
}

type nodeGroup struct {
	node domain.NodeID
	rows []domain.NodeSegment
}

// Edges агрегирует строки сегментов рёбер: по одному EdgeAggregate на ребро,
// в порядке id ребра. Порядок сегментов внутри ребра совпадает с входным.
func (a *Aggregator) Edges(ctx context.Context, rows []domain.EdgeSegment) ([]EdgeAggregate, error) {
	index := make(map[domain.EdgeID]int)
	var groups []edgeGroup
	for _, r := range rows {
		i, ok := index[r.Edge]
		if !ok {
			i = len(groups)
			index[r.Edge] = i
			groups = append(groups, edgeGroup{edge: r.Edge})
		}
		groups[i].rows = append(groups[i].rows, r)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].edge.Compare(groups[j].edge) < 0 })

	out := rill.OrderedMap(rill.FromSlice(groups, nil), a.cfg.Workers, func(g edgeGroup) (EdgeAggregate, error) {
		if err := ctx.Err(); err != nil {
			return EdgeAggregate{}, err
		}
		return a.edge(g), nil
	})
	aggs, err := rill.ToSlice(out)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("Edges aggregated", zap.Int("edges", len(aggs)), zap.Int("segments", len(rows)))
	return aggs, nil
}

// Nodes агрегирует строки сегментов узлов: по одному NodeAggregate на узел,
// в порядке id узла.
func (a *Aggregator) Nodes(ctx context.Context, rows []domain.NodeSegment) ([]NodeAggregate, error) {
	index := make(map[domain.NodeID]int)
	var groups []nodeGroup
	for _, r := range rows {
		i, ok := index[r.Node]
		if !ok {
			i = len(groups)
			index[r.Node] = i
			groups = append(groups, nodeGroup{node: r.Node})
		}
		groups[i].rows = append(groups[i].rows, r)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].node < groups[j].node })

	out := rill.OrderedMap(rill.FromSlice(groups, nil), a.cfg.Workers, func(g nodeGroup) (NodeAggregate, error) {
		if err := ctx.Err(); err != nil {
			return NodeAggregate{}, err
		}
		return a.node(g), nil
	})
	aggs, err := rill.ToSlice(out)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("Nodes aggregated", zap.Int("nodes", len(aggs)), zap.Int("segments", len(rows)))
	return aggs, nil
}

func (a *Aggregator) edge(g edgeGroup) EdgeAggregate {
	agg := EdgeAggregate{Edge: g.edge, Segments: len(g.rows)}

	stats := make([]domain.SegmentStats, len(g.rows))
	for i, r := range g.rows {
		stats[i] = r.SegmentStats
		agg.Cardinals = agg.Cardinals.Union(r.Cardinals)
		agg.Directions.Add(r.Direction)
	}
	agg.Centroid = centroid(stats)

	for _, b := range a.bins(stats, a.cfg.MinEdgeSegments) {
		var tally domain.DirectionTally
		for _, i := range b.members {
			tally.Add(g.rows[i].Direction)
		}
		agg.Functional = append(agg.Functional, domain.EdgeFunctional{
			Edge:            g.edge,
			FunctionalStats: a.functional(b.bin, pick(stats, b.members)),
			Directions:      tally,
		})
	}
	return agg
}

func (a *Aggregator) node(g nodeGroup) NodeAggregate {
	agg := NodeAggregate{Node: g.node, Segments: len(g.rows)}

	stats := make([]domain.SegmentStats, len(g.rows))
	for i, r := range g.rows {
		stats[i] = r.SegmentStats
		agg.Cardinals = agg.Cardinals.Union(r.Cardinals)
	}
	agg.Centroid = centroid(stats)

	for _, b := range a.bins(stats, a.cfg.MinNodeSegments) {
		var flow domain.FlowCounts
		for _, i := range b.members {
			if d := g.rows[i].ExitDirection; d != nil {
				flow.Add(*d)
			}
		}
		agg.Functional = append(agg.Functional, domain.NodeFunctional{
			Node:            g.node,
			FunctionalStats: a.functional(b.bin, pick(stats, b.members)),
			Flow:            flow,
		})
	}
	return agg
}

type binMembers struct {
	bin     domain.TimeBin
	members []int
}

// bins раскладывает индексы сегментов по временным бинам или сводит все
// в TimeBinAll, если их меньше minSegments
func (a *Aggregator) bins(stats []domain.SegmentStats, minSegments int) []binMembers {
	if len(stats) < minSegments {
		all := make([]int, len(stats))
		for i := range all {
			all[i] = i
		}
		return []binMembers{{bin: domain.TimeBinAll, members: all}}
	}

	var out []binMembers
	for _, bin := range domain.RealTimeBins {
		var members []int
		for i, s := range stats {
			if s.TimeBin == bin {
				members = append(members, i)
			}
		}
		if len(members) == 0 && !a.cfg.IncludeEmptyBins {
			continue
		}
		out = append(out, binMembers{bin: bin, members: members})
	}
	return out
}

func (a *Aggregator) functional(bin domain.TimeBin, stats []domain.SegmentStats) domain.FunctionalStats {
	fs := domain.FunctionalStats{TimeBin: bin, TrajectoryCount: len(stats)}

	var speeds, travel []float64
	var maxima, minima []int
	for _, s := range stats {
		if s.AvgSpeed != nil {
			speeds = append(speeds, float64(*s.AvgSpeed))
		}
		if s.MaxSpeed != nil {
			maxima = append(maxima, *s.MaxSpeed)
		}
		if s.MinSpeed != nil {
			minima = append(minima, *s.MinSpeed)
		}
		if s.TravelTime != nil {
			travel = append(travel, *s.TravelTime)
		}
	}

	speed := ConfidenceInterval(speeds, a.cfg.Alpha)
	if speed.Mean != nil {
		avg := utils.RoundInt(*speed.Mean)
		fs.AvgSpeed = &avg
	}
	fs.AvgSpeedCI = speed.Interval

	if _, hi, ok := utils.MinMax(maxima); ok {
		fs.MaxSpeed = &hi
	}
	if lo, _, ok := utils.MinMax(minima); ok {
		fs.MinSpeed = &lo
	}

	tt := ConfidenceInterval(travel, a.cfg.Alpha)
	if tt.Mean != nil {
		v := utils.Round(*tt.Mean, travelTimePlaces)
		fs.TravelTime = &v
	}
	fs.TravelTimeCI = tt.Interval

	fs.SpeedBox = Summarize(speeds)
	fs.TravelTimeBox = Summarize(travel)
	return fs
}

func pick(stats []domain.SegmentStats, idx []int) []domain.SegmentStats {
	out := make([]domain.SegmentStats, len(idx))
	for i, j := range idx {
		out[i] = stats[j]
	}
	return out
}

func centroid(stats []domain.SegmentStats) domain.Point {
	if len(stats) == 0 {
		return domain.Point{}
	}
	var c domain.Point
	for _, s := range stats {
		c.Lat += s.Centroid.Lat
		c.Lon += s.Centroid.Lon
	}
	n := float64(len(stats))
	return domain.Point{Lat: c.Lat / n, Lon: c.Lon / n}
}
