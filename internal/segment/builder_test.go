package segment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/map-metadata/internal/domain"
)

var baseTime = time.Date(2023, 3, 13, 12, 0, 0, 0, time.UTC)

func edgePtr(u, v int64) *domain.EdgeID {
	return &domain.EdgeID{U: domain.NodeID(u), V: domain.NodeID(v)}
}

func nodePtr(n int64) *domain.NodeID {
	id := domain.NodeID(n)
	return &id
}

func floatPtr(v float64) *float64 {
	return &v
}

func point(trip string, sec int, edge *domain.EdgeID, node *domain.NodeID) domain.TrajectoryPoint {
	return domain.TrajectoryPoint{
		TripID:     trip,
		Timestamp:  baseTime.Add(time.Duration(sec) * time.Second),
		Lat:        42.5,
		Lon:        -41.0,
		Speed:      30,
		Heading:    0,
		HasSpeed:   true,
		HasHeading: true,
		Edge:       edge,
		Node:       node,
	}
}

func TestBuilder_ContiguousRuns(t *testing.T) {
	e1, e2 := edgePtr(1, 2), edgePtr(2, 3)
	points := []domain.TrajectoryPoint{
		point("a", 0, e1, nil),
		point("a", 10, e1, nil),
		point("a", 20, e2, nodePtr(2)),
		point("a", 30, e1, nil),
		point("a", 40, nil, nil),
	}

	res := NewBuilder(BuilderConfig{}, zap.NewNop()).Build(points)

	require.Len(t, res.Edges, 3, "revisiting e1 opens a new segment")
	assert.Equal(t, *e1, res.Edges[0].Edge)
	assert.Len(t, res.Edges[0].Points, 2)
	assert.Equal(t, *e2, res.Edges[1].Edge)
	assert.Equal(t, *e1, res.Edges[2].Edge)

	require.Len(t, res.Nodes, 1)
	assert.Equal(t, domain.NodeID(2), res.Nodes[0].Node)

	assert.Equal(t, 1, res.UnmatchedEdge)
	assert.Equal(t, 4, res.UnmatchedNode)
	assert.Equal(t, 1, res.Trips)
}

func TestBuilder_UnmatchedDoesNotSplitRuns(t *testing.T) {
	e1 := edgePtr(1, 2)
	points := []domain.TrajectoryPoint{
		point("a", 0, e1, nil),
		point("a", 10, nil, nil),
		point("a", 20, e1, nil),
	}

	res := NewBuilder(BuilderConfig{}, nil).Build(points)
	require.Len(t, res.Edges, 1)
	assert.Len(t, res.Edges[0].Points, 2)
}

func TestBuilder_MergeRevisits(t *testing.T) {
	e1, e2 := edgePtr(1, 2), edgePtr(2, 3)
	points := []domain.TrajectoryPoint{
		point("a", 0, e1, nil),
		point("a", 10, e2, nil),
		point("a", 20, e1, nil),
	}

	res := NewBuilder(BuilderConfig{MergeRevisits: true}, nil).Build(points)
	require.Len(t, res.Edges, 2)
	assert.Equal(t, *e1, res.Edges[0].Edge)
	assert.Len(t, res.Edges[0].Points, 2)
}

func TestBuilder_SortsByTimestampPerTrip(t *testing.T) {
	e1, e2 := edgePtr(1, 2), edgePtr(2, 3)
	points := []domain.TrajectoryPoint{
		point("b", 30, e2, nil),
		point("a", 20, e2, nil),
		point("b", 0, e1, nil),
		point("a", 0, e1, nil),
		point("a", 10, e1, nil),
	}

	res := NewBuilder(BuilderConfig{}, nil).Build(points)
	require.Len(t, res.Edges, 4)

	// trips in order of first appearance: b then a
	assert.Equal(t, "b", res.Edges[0].TripID)
	assert.Equal(t, *e1, res.Edges[0].Edge)
	assert.Equal(t, "b", res.Edges[1].TripID)
	assert.Equal(t, *e2, res.Edges[1].Edge)
	assert.Equal(t, "a", res.Edges[2].TripID)
	assert.Len(t, res.Edges[2].Points, 2)
	assert.True(t, res.Edges[2].Points[0].Timestamp.Before(res.Edges[2].Points[1].Timestamp))
}

func TestBuilder_DistanceCutoffs(t *testing.T) {
	e1 := edgePtr(1, 2)
	near := point("a", 0, e1, nodePtr(1))
	near.EdgeDistance, near.NodeDistance = floatPtr(5), floatPtr(30)
	far := point("a", 10, e1, nodePtr(1))
	far.EdgeDistance, far.NodeDistance = floatPtr(15), floatPtr(50)

	cfg := BuilderConfig{EdgeCutoffMeters: 10, NodeCutoffMeters: 40}
	res := NewBuilder(cfg, nil).Build([]domain.TrajectoryPoint{near, far})

	require.Len(t, res.Edges, 1)
	assert.Len(t, res.Edges[0].Points, 1)
	assert.Equal(t, 1, res.UnmatchedEdge)
	assert.Equal(t, 1, res.UnmatchedNode)
}

func TestBuilder_DoesNotMutateInput(t *testing.T) {
	e1 := edgePtr(1, 2)
	points := []domain.TrajectoryPoint{
		point("a", 10, e1, nil),
		point("a", 0, e1, nil),
	}
	points[0].HasSpeed = false

	NewBuilder(BuilderConfig{}, nil).Build(points)

	assert.Equal(t, baseTime.Add(10*time.Second), points[0].Timestamp)
	assert.False(t, points[0].HasSpeed)
}
