package aggregate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/map-metadata/internal/domain"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func edgeRow(edge domain.EdgeID, bin domain.TimeBin, speed int, dir domain.SegmentDirection) domain.EdgeSegment {
	return domain.EdgeSegment{
		SegmentStats: domain.SegmentStats{
			TripID:     "t",
			PointCount: 2,
			AvgSpeed:   intPtr(speed),
			MaxSpeed:   intPtr(speed + 5),
			MinSpeed:   intPtr(speed - 5),
			TimeBin:    bin,
			TravelTime: floatPtr(1.5),
			Cardinals:  domain.NewCardinalSet(domain.East),
			Centroid:   domain.Point{Lat: 42.5, Lon: -41.0},
		},
		Edge:      edge,
		Direction: dir,
	}
}

func TestAggregator_Edges_SmallSampleFallsBackToAllBin(t *testing.T) {
	agg := NewAggregator(Config{MinEdgeSegments: 5}, zap.NewNop())
	e := domain.EdgeID{U: 1, V: 2}

	rows := []domain.EdgeSegment{
		edgeRow(e, domain.TimeBinWeekdayDay, 20, domain.DirectionForward),
		edgeRow(e, domain.TimeBinWeekdayDay, 30, domain.DirectionForward),
		edgeRow(e, domain.TimeBinWeekendNight, 40, domain.DirectionBackward),
		edgeRow(e, domain.TimeBinWeekdayNight, 50, domain.DirectionParallel),
	}

	out, err := agg.Edges(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0].Functional, 1)

	fn := out[0].Functional[0]
	assert.Equal(t, domain.TimeBinAll, fn.TimeBin)
	assert.Equal(t, 4, fn.TrajectoryCount)
	assert.Equal(t, 35, *fn.AvgSpeed)
	assert.Equal(t, 55, *fn.MaxSpeed)
	assert.Equal(t, 15, *fn.MinSpeed)
	assert.Equal(t, domain.DirectionTally{Forward: 2, Backward: 1, Parallel: 1}, fn.Directions)
	assert.Equal(t, 4, out[0].Segments)
}

func TestAggregator_Edges_SplitsByTimeBin(t *testing.T) {
	agg := NewAggregator(Config{MinEdgeSegments: 5}, zap.NewNop())
	e := domain.EdgeID{U: 1, V: 2}

	var rows []domain.EdgeSegment
	for i := 0; i < 4; i++ {
		rows = append(rows, edgeRow(e, domain.TimeBinWeekdayDay, 20+i, domain.DirectionForward))
	}
	rows = append(rows,
		edgeRow(e, domain.TimeBinWeekendNight, 10, domain.DirectionBackward),
		edgeRow(e, domain.TimeBinWeekendNight, 12, domain.DirectionBackward),
	)

	out, err := agg.Edges(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, out, 1)

	fns := out[0].Functional
	require.Len(t, fns, 2, "empty bins are omitted and bin 3 is not emitted")
	assert.Equal(t, domain.TimeBinWeekendNight, fns[0].TimeBin)
	assert.Equal(t, 2, fns[0].TrajectoryCount)
	assert.Equal(t, domain.TimeBinWeekdayDay, fns[1].TimeBin)
	assert.Equal(t, 4, fns[1].TrajectoryCount)

	total := 0
	for _, fn := range fns {
		total += fn.TrajectoryCount
		assert.NotEqual(t, domain.TimeBinAll, fn.TimeBin)
	}
	assert.Equal(t, out[0].Segments, total)
	assert.Equal(t, domain.DirectionTally{Forward: 4, Backward: 2}, out[0].Directions)
}

func TestAggregator_Edges_IncludeEmptyBins(t *testing.T) {
	agg := NewAggregator(Config{MinEdgeSegments: 1, IncludeEmptyBins: true}, zap.NewNop())
	e := domain.EdgeID{U: 1, V: 2}

	out, err := agg.Edges(context.Background(), []domain.EdgeSegment{edgeRow(e, domain.TimeBinWeekdayDay, 20, domain.DirectionForward)})
	require.NoError(t, err)

	fns := out[0].Functional
	require.Len(t, fns, 4)
	for i, bin := range domain.RealTimeBins {
		assert.Equal(t, bin, fns[i].TimeBin)
	}
	assert.Equal(t, 0, fns[0].TrajectoryCount)
	assert.Nil(t, fns[0].AvgSpeed)
	assert.Equal(t, 1, fns[3].TrajectoryCount)
}

func TestAggregator_Edges_SortedByEdge(t *testing.T) {
	agg := NewAggregator(Config{Workers: 3}, zap.NewNop())
	rows := []domain.EdgeSegment{
		edgeRow(domain.EdgeID{U: 5, V: 1}, domain.TimeBinWeekdayDay, 20, domain.DirectionForward),
		edgeRow(domain.EdgeID{U: 1, V: 9}, domain.TimeBinWeekdayDay, 20, domain.DirectionForward),
		edgeRow(domain.EdgeID{U: 1, V: 2, Key: 1}, domain.TimeBinWeekdayDay, 20, domain.DirectionForward),
		edgeRow(domain.EdgeID{U: 1, V: 2}, domain.TimeBinWeekdayDay, 20, domain.DirectionForward),
	}

	out, err := agg.Edges(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.Equal(t, domain.EdgeID{U: 1, V: 2}, out[0].Edge)
	assert.Equal(t, domain.EdgeID{U: 1, V: 2, Key: 1}, out[1].Edge)
	assert.Equal(t, domain.EdgeID{U: 1, V: 9}, out[2].Edge)
	assert.Equal(t, domain.EdgeID{U: 5, V: 1}, out[3].Edge)
}

func TestAggregator_Edges_DegradedSegmentsCountButHaveNoSpeed(t *testing.T) {
	agg := NewAggregator(Config{}, zap.NewNop())
	e := domain.EdgeID{U: 1, V: 2}

	good := edgeRow(e, domain.TimeBinWeekdayDay, 20, domain.DirectionForward)
	bad := edgeRow(e, domain.TimeBinWeekdayDay, 0, domain.DirectionForward)
	bad.AvgSpeed, bad.MaxSpeed, bad.MinSpeed = nil, nil, nil
	bad.Degraded = true

	out, err := agg.Edges(context.Background(), []domain.EdgeSegment{good, bad})
	require.NoError(t, err)

	fn := out[0].Functional[0]
	assert.Equal(t, 2, fn.TrajectoryCount)
	assert.Equal(t, 20, *fn.AvgSpeed)
	assert.Nil(t, fn.AvgSpeedCI, "one speed sample has no interval")
	require.NotNil(t, fn.TravelTimeCI)
}

func TestAggregator_Nodes_Flow(t *testing.T) {
	agg := NewAggregator(Config{MinNodeSegments: 5}, zap.NewNop())
	south, east := domain.South, domain.East

	row := func(exit *domain.CardinalDirection) domain.NodeSegment {
		return domain.NodeSegment{
			SegmentStats: domain.SegmentStats{
				TripID:    "t",
				AvgSpeed:  intPtr(10),
				TimeBin:   domain.TimeBinWeekdayDay,
				Cardinals: domain.NewCardinalSet(domain.North),
				Centroid:  domain.Point{Lat: 1, Lon: 2},
			},
			Node:          7,
			ExitDirection: exit,
		}
	}

	out, err := agg.Nodes(context.Background(), []domain.NodeSegment{row(&south), row(&south), row(&east), row(nil)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.NodeID(7), out[0].Node)
	assert.Equal(t, domain.Point{Lat: 1, Lon: 2}, out[0].Centroid)

	fn := out[0].Functional[0]
	assert.Equal(t, domain.TimeBinAll, fn.TimeBin)
	assert.Equal(t, 2, fn.Flow[domain.South])
	assert.Equal(t, 1, fn.Flow[domain.East])
	assert.Equal(t, 3, fn.Flow.Total())
	assert.Nil(t, fn.TravelTime)
}

func TestAggregator_CancelledContext(t *testing.T) {
	agg := NewAggregator(Config{}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := agg.Edges(ctx, []domain.EdgeSegment{edgeRow(domain.EdgeID{U: 1, V: 2}, domain.TimeBinAll, 1, domain.DirectionForward)})
	assert.ErrorIs(t, err, context.Canceled)
}
