package segment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/map-metadata/internal/domain"
)

func testGraph() *domain.Graph {
	return domain.NewGraph(
		[]domain.RoadNode{
			{ID: 1, Lat: 42.5, Lon: -41.0},
			{ID: 2, Lat: 42.5, Lon: -40.9},
		},
		[]domain.RoadEdge{
			{ID: domain.EdgeID{U: 1, V: 2}},
		},
	)
}

func moving(trip string, sec int, lon, speed, hdg float64) domain.TrajectoryPoint {
	p := point(trip, sec, edgePtr(1, 2), nil)
	p.Lon = lon
	p.Speed = speed
	p.Heading = hdg
	return p
}

func edgeSegment(points ...domain.TrajectoryPoint) domain.Segment {
	return domain.Segment{TripID: points[0].TripID, Kind: domain.ElementEdge, Edge: domain.EdgeID{U: 1, V: 2}, Points: points}
}

func TestExtractEdge_Direction(t *testing.T) {
	ex := NewExtractor(testGraph(), ExtractorConfig{}, zap.NewNop())

	tests := []struct {
		name     string
		points   []domain.TrajectoryPoint
		expected domain.SegmentDirection
	}{
		{
			name:     "along the edge",
			points:   []domain.TrajectoryPoint{moving("a", 0, -41.0, 20, 90), moving("a", 60, -40.95, 30, 90)},
			expected: domain.DirectionForward,
		},
		{
			name:     "against the edge",
			points:   []domain.TrajectoryPoint{moving("a", 0, -40.95, 20, 270), moving("a", 60, -41.0, 30, 270)},
			expected: domain.DirectionBackward,
		},
		{
			name:     "no movement",
			points:   []domain.TrajectoryPoint{moving("a", 0, -41.0, 20, 0), moving("a", 60, -41.0, 30, 0)},
			expected: domain.DirectionParallel,
		},
		{
			name: "uses timestamp order not slice order",
			points: []domain.TrajectoryPoint{
				moving("a", 60, -40.95, 30, 90),
				moving("a", 0, -41.0, 20, 90),
			},
			expected: domain.DirectionForward,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := ex.ExtractEdge(edgeSegment(tt.points...))
			assert.Equal(t, tt.expected, row.Direction)
		})
	}
}

func TestExtractEdge_Statistics(t *testing.T) {
	ex := NewExtractor(testGraph(), ExtractorConfig{}, zap.NewNop())
	seg := edgeSegment(
		moving("a", 0, -41.0, 20.4, 80),
		moving("a", 30, -40.98, 30.6, 90),
		moving("a", 90, -40.96, 25.0, 100),
	)

	row := ex.ExtractEdge(seg)
	require.NotNil(t, row.AvgSpeed)
	assert.Equal(t, 25, *row.AvgSpeed)
	assert.Equal(t, 31, *row.MaxSpeed)
	assert.Equal(t, 20, *row.MinSpeed)
	require.NotNil(t, row.TravelTime)
	assert.InDelta(t, 1.5, *row.TravelTime, 1e-9)
	assert.Equal(t, domain.NewCardinalSet(domain.East), row.Cardinals)
	assert.Equal(t, domain.TimeBinWeekdayDay, row.TimeBin)
	assert.Equal(t, 3, row.PointCount)
	assert.False(t, row.Degraded)
}

func TestExtractEdge_SinglePoint(t *testing.T) {
	ex := NewExtractor(testGraph(), ExtractorConfig{}, zap.NewNop())
	row := ex.ExtractEdge(edgeSegment(moving("a", 0, -41.0, 27.5, 0)))

	require.NotNil(t, row.AvgSpeed)
	assert.Equal(t, 28, *row.AvgSpeed)
	assert.Equal(t, 28, *row.MaxSpeed)
	assert.Equal(t, 28, *row.MinSpeed)
	assert.Equal(t, domain.DirectionUndefined, row.Direction)
	assert.Nil(t, row.TravelTime)
	assert.Equal(t, 1, row.DayType)
	assert.Equal(t, 1, row.TimeType)
}

func TestExtractEdge_MissingSpeedDegrades(t *testing.T) {
	ex := NewExtractor(testGraph(), ExtractorConfig{}, zap.NewNop())
	p := moving("a", 60, -40.95, 0, 90)
	p.HasSpeed = false
	row := ex.ExtractEdge(edgeSegment(moving("a", 0, -41.0, 20, 90), p))

	assert.True(t, row.Degraded)
	assert.Nil(t, row.AvgSpeed)
	assert.Nil(t, row.MaxSpeed)
	assert.Nil(t, row.MinSpeed)
	assert.NotNil(t, row.TravelTime, "travel time does not depend on speed")
	assert.Equal(t, domain.DirectionForward, row.Direction)
}

func TestExtractEdge_UnknownEdgeVector(t *testing.T) {
	ex := NewExtractor(domain.NewGraph(nil, nil), ExtractorConfig{}, zap.NewNop())
	row := ex.ExtractEdge(edgeSegment(moving("a", 0, -41.0, 20, 90), moving("a", 60, -40.95, 30, 90)))
	assert.Equal(t, domain.DirectionUndefined, row.Direction)
	assert.NotNil(t, row.AvgSpeed)
}

func TestExtractEdge_DistanceNormalizedTravelTime(t *testing.T) {
	ex := NewExtractor(testGraph(), ExtractorConfig{DistanceNormalized: true}, zap.NewNop())

	a := moving("a", 0, -41.0, 20, 0)
	b := moving("a", 3600, -41.0, 20, 0)
	b.Lat = 43.5
	row := ex.ExtractEdge(edgeSegment(a, b))
	require.NotNil(t, row.TravelTime)
	assert.InDelta(t, 60.0/69.0934, *row.TravelTime, 1e-3)

	still := ex.ExtractEdge(edgeSegment(moving("a", 0, -41.0, 20, 0), moving("a", 60, -41.0, 20, 0)))
	assert.Nil(t, still.TravelTime, "zero distance has no per-mile travel time")
}

func TestExtractEdge_ModeTieBreak(t *testing.T) {
	ex := NewExtractor(testGraph(), ExtractorConfig{}, zap.NewNop())

	// 18:30 is day, 19:30 is night; one of each, the first wins
	day := moving("a", 0, -41.0, 20, 90)
	day.Timestamp = time.Date(2023, 3, 13, 18, 30, 0, 0, time.UTC)
	night := moving("a", 0, -40.99, 20, 90)
	night.Timestamp = time.Date(2023, 3, 13, 19, 30, 0, 0, time.UTC)

	row := ex.ExtractEdge(edgeSegment(day, night))
	assert.Equal(t, 1, row.TimeType)
	assert.Equal(t, domain.TimeBinWeekdayDay, row.TimeBin)
}

func TestExtractNode(t *testing.T) {
	ex := NewExtractor(testGraph(), ExtractorConfig{}, zap.NewNop())

	entry := point("a", 0, edgePtr(9, 1), nodePtr(1))
	entry.Heading = 90
	exit := point("a", 20, edgePtr(1, 2), nodePtr(1))
	exit.Heading = 180

	row := ex.ExtractNode(domain.Segment{TripID: "a", Kind: domain.ElementNode, Node: 1, Points: []domain.TrajectoryPoint{entry, exit}})
	require.NotNil(t, row.ExitEdge)
	assert.Equal(t, domain.EdgeID{U: 1, V: 2}, *row.ExitEdge)
	require.NotNil(t, row.ExitDirection)
	assert.Equal(t, domain.South, *row.ExitDirection)
	assert.Equal(t, domain.NewCardinalSet(domain.East, domain.South), row.Cardinals)

	single := ex.ExtractNode(domain.Segment{TripID: "a", Kind: domain.ElementNode, Node: 1, Points: []domain.TrajectoryPoint{exit}})
	assert.Nil(t, single.ExitEdge)
	assert.Nil(t, single.ExitDirection)
}

func TestExtractEdges_PreservesOrder(t *testing.T) {
	ex := NewExtractor(testGraph(), ExtractorConfig{Workers: 4}, zap.NewNop())

	var segments []domain.Segment
	for i := 0; i < 50; i++ {
		p := moving("trip", i, -41.0, float64(i), 0)
		p.TripID = string(rune('a' + i%26))
		segments = append(segments, edgeSegment(p))
	}

	rows, err := ex.ExtractEdges(context.Background(), segments)
	require.NoError(t, err)
	require.Len(t, rows, 50)
	for i, row := range rows {
		assert.Equal(t, i, *row.AvgSpeed)
	}
}

func TestExtractEdges_RejectsWrongKind(t *testing.T) {
	ex := NewExtractor(testGraph(), ExtractorConfig{}, zap.NewNop())
	_, err := ex.ExtractEdges(context.Background(), []domain.Segment{{TripID: "a", Kind: domain.ElementNode}})
	assert.Error(t, err)
}

func TestExtractNodes_CancelledContext(t *testing.T) {
	ex := NewExtractor(testGraph(), ExtractorConfig{}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ex.ExtractNodes(ctx, []domain.Segment{{TripID: "a", Kind: domain.ElementNode, Points: []domain.TrajectoryPoint{point("a", 0, nil, nodePtr(1))}}})
	assert.ErrorIs(t, err, context.Canceled)
}
