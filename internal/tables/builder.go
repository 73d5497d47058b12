// Package tables собирает четыре таблицы метаданных из результатов
// агрегации и графа дорог.
package tables

import (
	"sort"

	"go.uber.org/zap"

	"github.com/map-metadata/internal/aggregate"
	"github.com/map-metadata/internal/domain"
	"github.com/map-metadata/internal/heading"
)

// Result - собранные таблицы и диагностика соединения с графом
type Result struct {
	Tables         domain.MetadataTables
	EdgeJoinMisses int
	NodeJoinMisses int
}

type Builder struct {
	graph  *domain.Graph
	logger *zap.Logger
}

func NewBuilder(graph *domain.Graph, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{graph: graph, logger: logger}
}

// Build соединяет агрегаты рёбер и узлов с атрибутами графа. Элементы,
// которых нет в графе, остаются с пустыми тегами. Строки упорядочены по
// элементу, затем по временному бину.
func (b *Builder) Build(edges []aggregate.EdgeAggregate, nodes []aggregate.NodeAggregate) *Result {
	res := &Result{}

	edges = sortedEdges(edges)
	nodes = sortedNodes(nodes)

	for _, agg := range edges {
		row, ok := b.edgeStructural(agg)
		if !ok {
			res.EdgeJoinMisses++
		}
		res.Tables.EdgeStructural = append(res.Tables.EdgeStructural, row)
		res.Tables.EdgeFunctional = append(res.Tables.EdgeFunctional, sortedEdgeFunctional(agg.Functional)...)
	}

	for _, agg := range nodes {
		row := b.nodeStructural(agg, edges)
		if !row.InGraph {
			res.NodeJoinMisses++
		}
		res.Tables.NodeStructural = append(res.Tables.NodeStructural, row)
		res.Tables.NodeFunctional = append(res.Tables.NodeFunctional, sortedNodeFunctional(agg.Functional)...)
	}

	if res.EdgeJoinMisses > 0 || res.NodeJoinMisses > 0 {
		b.logger.Warn("Elements missing from road graph",
			zap.Int("edges", res.EdgeJoinMisses),
			zap.Int("nodes", res.NodeJoinMisses),
		)
	}

	return res
}

func (b *Builder) edgeStructural(agg aggregate.EdgeAggregate) (domain.EdgeStructural, bool) {
	row := domain.EdgeStructural{
		Edge:            agg.Edge,
		Oneway:          heading.StructuralDirectionality(agg.Cardinals, agg.Segments),
		VectorOneway:    heading.DirectionalityFromVectors(agg.Directions),
		Directions:      agg.Cardinals,
		TrajectoryCount: agg.Segments,
	}

	loc := agg.Centroid
	if mid, ok := b.graph.EdgeMidpoint(agg.Edge); ok {
		loc = mid
	}
	row.Location = &loc

	edge, ok := b.graph.Edge(agg.Edge)
	if !ok {
		return row, false
	}
	tags := edge.Tags
	row.Tags = &tags
	return row, true
}

// nodeStructural перечисляет наблюдавшиеся рёбра узла. Направления узла -
// объединение направлений этих рёбер или собственные, если ни одно из
// рёбер не наблюдалось.
func (b *Builder) nodeStructural(agg aggregate.NodeAggregate, edges []aggregate.EdgeAggregate) domain.NodeStructural {
	row := domain.NodeStructural{
		Node:            agg.Node,
		Edges:           []domain.EdgeID{},
		TrajectoryCount: agg.Segments,
	}

	for _, e := range edges {
		if e.Edge.Touches(agg.Node) {
			row.Edges = append(row.Edges, e.Edge)
			row.Directions = row.Directions.Union(e.Cardinals)
		}
	}
	row.EdgesCount = len(row.Edges)
	if row.EdgesCount == 0 {
		row.Directions = agg.Cardinals
	}

	loc := agg.Centroid
	if node, ok := b.graph.Node(agg.Node); ok {
		row.InGraph = true
		row.StreetCount = node.StreetCount
		loc = domain.Point{Lat: node.Lat, Lon: node.Lon}
	}
	row.Location = &loc

	return row
}

func sortedEdges(in []aggregate.EdgeAggregate) []aggregate.EdgeAggregate {
	out := make([]aggregate.EdgeAggregate, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Edge.Compare(out[j].Edge) < 0 })
	return out
}

func sortedNodes(in []aggregate.NodeAggregate) []aggregate.NodeAggregate {
	out := make([]aggregate.NodeAggregate, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Node < out[j].Node })
	return out
}

func sortedEdgeFunctional(in []domain.EdgeFunctional) []domain.EdgeFunctional {
	out := make([]domain.EdgeFunctional, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].TimeBin < out[j].TimeBin })
	return out
}

func sortedNodeFunctional(in []domain.NodeFunctional) []domain.NodeFunctional {
	out := make([]domain.NodeFunctional, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].TimeBin < out[j].TimeBin })
	return out
}
