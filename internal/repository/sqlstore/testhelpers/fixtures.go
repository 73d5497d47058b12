package testhelpers

import (
	"github.com/map-metadata/internal/domain"
)

// SampleTables returns a small set of metadata tables covering graph join
// misses, missing statistics and box plots.
func SampleTables() *domain.MetadataTables {
	i := func(v int) *int { return &v }
	f := func(v float64) *float64 { return &v }
	box := &domain.BoxPlot{Whislo: f(1), Q1: f(2), Med: f(3), Q3: f(4), Whishi: f(5), Fliers: []float64{40}}

	return &domain.MetadataTables{
		EdgeStructural: []domain.EdgeStructural{
			{
				Edge:            domain.EdgeID{U: 1, V: 2},
				Tags:            &domain.EdgeTags{Oneway: "False", Lanes: "2", Name: "Main St", Highway: "residential", MaxSpeed: "30 mph", Length: "120.5"},
				Oneway:          domain.Twoway,
				VectorOneway:    domain.Oneway,
				Directions:      domain.NewCardinalSet(domain.North, domain.South),
				TrajectoryCount: 6,
				Location:        &domain.Point{Lat: 42.5, Lon: -40.95},
			},
			{
				Edge:            domain.EdgeID{U: 7, V: 8, Key: 1},
				Oneway:          domain.Ambiguous,
				TrajectoryCount: 1,
			},
		},
		EdgeFunctional: []domain.EdgeFunctional{
			{
				Edge: domain.EdgeID{U: 1, V: 2},
				FunctionalStats: domain.FunctionalStats{
					TimeBin:         domain.TimeBinWeekdayDay,
					AvgSpeed:        i(25),
					AvgSpeedCI:      &domain.Interval{Lower: 20.12, Upper: 29.88},
					MaxSpeed:        i(31),
					MinSpeed:        i(20),
					TravelTime:      f(1.5),
					TravelTimeCI:    &domain.Interval{Lower: 1.2, Upper: 1.8},
					TrajectoryCount: 4,
					SpeedBox:        box,
				},
				Directions: domain.DirectionTally{Forward: 3, Backward: 1},
			},
			{
				Edge:            domain.EdgeID{U: 7, V: 8, Key: 1},
				FunctionalStats: domain.FunctionalStats{TimeBin: domain.TimeBinAll, TrajectoryCount: 1},
			},
		},
		NodeStructural: []domain.NodeStructural{
			{
				Node:            1,
				Edges:           []domain.EdgeID{{U: 1, V: 2}, {U: 3, V: 1}},
				EdgesCount:      2,
				Directions:      domain.NewCardinalSet(domain.East),
				TrajectoryCount: 3,
				InGraph:         true,
				StreetCount:     i(3),
				Location:        &domain.Point{Lat: 42.5, Lon: -41},
			},
			{Node: 9, Edges: []domain.EdgeID{}, TrajectoryCount: 1},
		},
		NodeFunctional: []domain.NodeFunctional{
			{
				Node:            1,
				FunctionalStats: domain.FunctionalStats{TimeBin: domain.TimeBinAll, AvgSpeed: i(10), TrajectoryCount: 3},
				Flow:            domain.FlowCounts{domain.South: 2, domain.East: 1},
			},
		},
	}
}
