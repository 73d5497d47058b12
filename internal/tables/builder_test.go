package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/map-metadata/internal/aggregate"
	"github.com/map-metadata/internal/domain"
)

func intPtr(v int) *int { return &v }

func testGraph() *domain.Graph {
	return domain.NewGraph(
		[]domain.RoadNode{
			{ID: 1, Lat: 42.5, Lon: -41.0, StreetCount: intPtr(3)},
			{ID: 2, Lat: 42.5, Lon: -40.9},
		},
		[]domain.RoadEdge{
			{ID: domain.EdgeID{U: 1, V: 2}, Tags: domain.EdgeTags{Oneway: "False", Lanes: "2", Name: "Main St", Highway: "residential", MaxSpeed: "30 mph", Length: "120.5"}},
		},
	)
}

func TestBuild_EdgeJoin(t *testing.T) {
	b := NewBuilder(testGraph(), zap.NewNop())

	known := aggregate.EdgeAggregate{
		Edge:       domain.EdgeID{U: 1, V: 2},
		Segments:   3,
		Cardinals:  domain.NewCardinalSet(domain.North, domain.South),
		Directions: domain.DirectionTally{Forward: 2, Backward: 1},
		Centroid:   domain.Point{Lat: 10, Lon: 10},
		Functional: []domain.EdgeFunctional{
			{Edge: domain.EdgeID{U: 1, V: 2}, FunctionalStats: domain.FunctionalStats{TimeBin: domain.TimeBinWeekdayDay, TrajectoryCount: 2}},
			{Edge: domain.EdgeID{U: 1, V: 2}, FunctionalStats: domain.FunctionalStats{TimeBin: domain.TimeBinWeekendNight, TrajectoryCount: 1}},
		},
	}
	unknown := aggregate.EdgeAggregate{
		Edge:      domain.EdgeID{U: 7, V: 8},
		Segments:  1,
		Cardinals: domain.NewCardinalSet(domain.North),
		Centroid:  domain.Point{Lat: 1, Lon: 2},
		Functional: []domain.EdgeFunctional{
			{Edge: domain.EdgeID{U: 7, V: 8}, FunctionalStats: domain.FunctionalStats{TimeBin: domain.TimeBinAll, TrajectoryCount: 1}},
		},
	}

	res := b.Build([]aggregate.EdgeAggregate{unknown, known}, nil)
	assert.Equal(t, 1, res.EdgeJoinMisses)

	es := res.Tables.EdgeStructural
	require.Len(t, es, 2)

	assert.Equal(t, domain.EdgeID{U: 1, V: 2}, es[0].Edge)
	require.NotNil(t, es[0].Tags)
	assert.Equal(t, "Main St", es[0].Tags.Name)
	assert.Equal(t, domain.Twoway, es[0].Oneway)
	assert.Equal(t, domain.Twoway, es[0].VectorOneway)
	assert.Equal(t, 3, es[0].TrajectoryCount)
	require.NotNil(t, es[0].Location)
	assert.InDelta(t, -40.95, es[0].Location.Lon, 1e-9)
	assert.InDelta(t, 42.5, es[0].Location.Lat, 1e-9)

	assert.Nil(t, es[1].Tags, "join miss keeps the row without tags")
	assert.Equal(t, domain.Ambiguous, es[1].Oneway, "a single segment is ambiguous")
	assert.Equal(t, domain.Point{Lat: 1, Lon: 2}, *es[1].Location)

	ef := res.Tables.EdgeFunctional
	require.Len(t, ef, 3)
	assert.Equal(t, domain.TimeBinWeekendNight, ef[0].TimeBin)
	assert.Equal(t, domain.TimeBinWeekdayDay, ef[1].TimeBin)
	assert.Equal(t, domain.EdgeID{U: 7, V: 8}, ef[2].Edge)
}

func TestBuild_NodeEdgesFromObservedEdges(t *testing.T) {
	b := NewBuilder(testGraph(), zap.NewNop())

	edges := []aggregate.EdgeAggregate{
		{Edge: domain.EdgeID{U: 3, V: 1}, Segments: 2, Cardinals: domain.NewCardinalSet(domain.West)},
		{Edge: domain.EdgeID{U: 1, V: 2}, Segments: 2, Cardinals: domain.NewCardinalSet(domain.East)},
		{Edge: domain.EdgeID{U: 2, V: 5}, Segments: 2, Cardinals: domain.NewCardinalSet(domain.North)},
	}
	nodes := []aggregate.NodeAggregate{
		{Node: 9, Segments: 1, Cardinals: domain.NewCardinalSet(domain.South), Centroid: domain.Point{Lat: 5, Lon: 6}},
		{Node: 1, Segments: 4, Cardinals: domain.NewCardinalSet(domain.North)},
	}

	res := b.Build(edges, nodes)
	ns := res.Tables.NodeStructural
	require.Len(t, ns, 2)

	assert.Equal(t, domain.NodeID(1), ns[0].Node)
	assert.Equal(t, []domain.EdgeID{{U: 1, V: 2}, {U: 3, V: 1}}, ns[0].Edges)
	assert.Equal(t, 2, ns[0].EdgesCount)
	assert.Equal(t, domain.NewCardinalSet(domain.East, domain.West), ns[0].Directions)
	assert.True(t, ns[0].InGraph)
	assert.Equal(t, 3, *ns[0].StreetCount)
	assert.Equal(t, domain.Point{Lat: 42.5, Lon: -41.0}, *ns[0].Location)
	assert.Equal(t, 4, ns[0].TrajectoryCount)

	assert.Equal(t, domain.NodeID(9), ns[1].Node)
	assert.Empty(t, ns[1].Edges)
	assert.Equal(t, 0, ns[1].EdgesCount)
	assert.Equal(t, domain.NewCardinalSet(domain.South), ns[1].Directions)
	assert.False(t, ns[1].InGraph)
	assert.Nil(t, ns[1].StreetCount)
	assert.Equal(t, domain.Point{Lat: 5, Lon: 6}, *ns[1].Location)
	assert.Equal(t, 1, res.NodeJoinMisses)
}

func TestBuild_Deterministic(t *testing.T) {
	b := NewBuilder(testGraph(), zap.NewNop())
	edges := []aggregate.EdgeAggregate{
		{Edge: domain.EdgeID{U: 2, V: 1}, Segments: 2},
		{Edge: domain.EdgeID{U: 1, V: 2}, Segments: 2},
	}

	first := b.Build(edges, nil)
	second := b.Build([]aggregate.EdgeAggregate{edges[1], edges[0]}, nil)
	assert.Equal(t, first.Tables, second.Tables)
}
