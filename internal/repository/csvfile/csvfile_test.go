package csvfile

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/map-metadata/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	w, err := createWriter(path)
	require.NoError(t, err)
	_, err = io.WriteString(w, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return path
}

func TestCompressionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	content := "trip_id,timestamp\na,2023-03-13 08:00:00\n"

	for _, name := range []string{"plain.csv", "f.csv.gz", "f.csv.zst", "f.csv.lz4", "f.csv.xz"} {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, dir, name, content)

			r, err := openReader(path, false)
			require.NoError(t, err)
			defer r.Close()

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, content, string(got))
		})
	}

	raw, err := os.ReadFile(filepath.Join(dir, "f.csv.gz"))
	require.NoError(t, err)
	assert.NotEqual(t, content, string(raw), "gzip file is not plain text")
}

func TestCompressionFor(t *testing.T) {
	assert.Equal(t, CompressionGzip, CompressionFor("a/b.csv.GZ"))
	assert.Equal(t, CompressionZstd, CompressionFor("b.zst"))
	assert.Equal(t, CompressionLz4, CompressionFor("b.lz4"))
	assert.Equal(t, CompressionXz, CompressionFor("b.xz"))
	assert.Equal(t, CompressionNone, CompressionFor("b.csv"))

	c, err := ParseCompression("none")
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, c)
	_, err = ParseCompression("brotli")
	assert.Error(t, err)
}

func TestLoadTrajectories(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "traj.csv.gz", ""+
		"Trip_ID,Position Date Time,Lat,Long,Speed,Heading,Edge_ID,Node_ID,Distance\n"+
		"a,2023-03-13 08:00:00,42.5,-41.0,20.5,90,\"(1, 2, 0)\",1,3.5\n"+
		"a,2023-03-13 08:00:30,42.5,-40.99,,NaN,\"(1, 2, 0)\",NaN,\n"+
		"a,not a time,42.5,-40.98,20,90,\"(1, 2, 0)\",,\n"+
		"b,2023-03-13 09:00:00,42.5,-40.97,20,400,\"(1, 2, 0)\",,\n"+
		"b,2023-03-13 09:00:10,42.5,-40.96,20,10,bogus,,\n")

	repo := NewTrajectoryRepository(Options{}, zap.NewNop())
	batch, err := repo.LoadTrajectories(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 5, batch.Rows)
	assert.Equal(t, 3, batch.FormatErrors)
	require.Len(t, batch.Points, 2)

	first := batch.Points[0]
	assert.Equal(t, "a", first.TripID)
	assert.Equal(t, time.Date(2023, 3, 13, 8, 0, 0, 0, time.UTC), first.Timestamp)
	assert.True(t, first.HasSpeed)
	assert.Equal(t, 20.5, first.Speed)
	assert.True(t, first.HasHeading)
	require.NotNil(t, first.Edge)
	assert.Equal(t, domain.EdgeID{U: 1, V: 2}, *first.Edge)
	require.NotNil(t, first.Node)
	assert.Equal(t, domain.NodeID(1), *first.Node)
	require.NotNil(t, first.EdgeDistance)
	assert.Equal(t, 3.5, *first.EdgeDistance)

	second := batch.Points[1]
	assert.False(t, second.HasSpeed)
	assert.False(t, second.HasHeading)
	assert.Nil(t, second.Node)
	assert.Nil(t, second.EdgeDistance)
}

func TestLoadTrajectories_MissingColumnIsSchemaError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "traj.csv", "trip_id,lat,long\na,1,2\n")

	repo := NewTrajectoryRepository(Options{}, zap.NewNop())
	_, err := repo.LoadTrajectories(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrSchema)
}

func TestLoadGraph(t *testing.T) {
	dir := t.TempDir()
	edges := writeFile(t, dir, "edges.csv", ""+
		"u,v,key,oneway,lanes,name,highway,maxspeed,length\n"+
		"1,2,0,False,2,Main St,residential,30 mph,120.5\n"+
		"2,3,0,True,,,primary,,80\n")
	nodes := writeFile(t, dir, "nodes.csv.zst", ""+
		"osmid,y,x,street_count\n"+
		"1,42.5,-41.0,3\n"+
		"2,42.5,-40.9,\n")

	repo := NewGraphRepository(Options{}, zap.NewNop())
	g, err := repo.LoadGraph(context.Background(), edges, nodes)
	require.NoError(t, err)

	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, 2, g.NodeCount())

	e, ok := g.Edge(domain.EdgeID{U: 1, V: 2})
	require.True(t, ok)
	assert.Equal(t, "Main St", e.Tags.Name)
	vec, ok := g.EdgeVector(domain.EdgeID{U: 1, V: 2})
	require.True(t, ok)
	assert.InDelta(t, 0.1, vec[0], 1e-9)

	_, ok = g.EdgeVector(domain.EdgeID{U: 2, V: 3})
	assert.False(t, ok, "node 3 is unknown so no vector can be computed")

	n, ok := g.Node(1)
	require.True(t, ok)
	require.NotNil(t, n.StreetCount)
	assert.Equal(t, 3, *n.StreetCount)
}

func TestLoadGraph_EdgeVectorColumn(t *testing.T) {
	dir := t.TempDir()
	edges := writeFile(t, dir, "edges.csv", ""+
		"Edge,Vector,OSM_oneway,OSM_lanes,OSM_name,OSM_highway,OSM_maxspeed,OSM_length\n"+
		"\"(1, 2, 0)\",\"[0.5, 0.25]\",False,2,Main St,residential,30 mph,120.5\n"+
		"\"(2, 3, 0)\",[-1.5 2e-3],True,,,primary,,80\n"+
		"\"(3, 4, 0)\",,True,,,primary,,80\n")

	repo := NewGraphRepository(Options{}, zap.NewNop())
	g, err := repo.LoadGraph(context.Background(), edges, "")
	require.NoError(t, err)
	assert.Equal(t, 3, g.EdgeCount())

	vec, ok := g.EdgeVector(domain.EdgeID{U: 1, V: 2})
	require.True(t, ok)
	assert.Equal(t, [2]float64{0.5, 0.25}, vec)

	vec, ok = g.EdgeVector(domain.EdgeID{U: 2, V: 3})
	require.True(t, ok)
	assert.Equal(t, [2]float64{-1.5, 0.002}, vec)

	_, ok = g.EdgeVector(domain.EdgeID{U: 3, V: 4})
	assert.False(t, ok)

	e, ok := g.Edge(domain.EdgeID{U: 1, V: 2})
	require.True(t, ok)
	assert.Equal(t, domain.EdgeTags{
		Oneway:   "False",
		Lanes:    "2",
		Name:     "Main St",
		Highway:  "residential",
		MaxSpeed: "30 mph",
		Length:   "120.5",
	}, e.Tags)
}

func TestParseVector(t *testing.T) {
	tests := []struct {
		input    string
		expected [2]float64
		wantErr  bool
	}{
		{input: "[0.5, 0.25]", expected: [2]float64{0.5, 0.25}},
		{input: "[ 1 -2 ]", expected: [2]float64{1, -2}},
		{input: "0.5, 0.25", wantErr: true},
		{input: "[1, 2, 3]", wantErr: true},
		{input: "[a, b]", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseVector(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLoadGraph_EdgesWithoutIDs(t *testing.T) {
	dir := t.TempDir()
	edges := writeFile(t, dir, "edges.csv", "name,length\nMain,1\n")

	repo := NewGraphRepository(Options{}, zap.NewNop())
	_, err := repo.LoadGraph(context.Background(), edges, "")
	assert.ErrorIs(t, err, domain.ErrSchema)
}

func sampleTables() *domain.MetadataTables {
	i := func(v int) *int { return &v }
	f := func(v float64) *float64 { return &v }
	box := &domain.BoxPlot{Whislo: f(1), Q1: f(2), Med: f(3), Q3: f(4), Whishi: f(5), Fliers: []float64{40}}

	return &domain.MetadataTables{
		EdgeStructural: []domain.EdgeStructural{
			{
				Edge:            domain.EdgeID{U: 1, V: 2},
				Tags:            &domain.EdgeTags{Oneway: "False", Lanes: "2", Name: "Main, St", Highway: "residential", MaxSpeed: "30 mph", Length: "120.5"},
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

func TestTableStore_RoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionGzip, CompressionXz} {
		t.Run("codec="+string(c), func(t *testing.T) {
			dir := t.TempDir()
			store := NewTableStore(dir, c, zap.NewNop())
			ctx := context.Background()

			want := sampleTables()
			require.NoError(t, store.SaveTables(ctx, want))

			for _, table := range domain.AllTables {
				assert.FileExists(t, TablePath(dir, table, c))
			}

			got, err := store.LoadTables(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestTableStore_Sentinels(t *testing.T) {
	dir := t.TempDir()
	store := NewTableStore(dir, CompressionNone, zap.NewNop())
	require.NoError(t, store.SaveTables(context.Background(), sampleTables()))

	data, err := os.ReadFile(TablePath(dir, domain.TableEdgeStructural, CompressionNone))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"(7, 8, 1)\",unknown,unknown,unknown,unknown,unknown,unknown,NaN,1,NaN,,NaN,NaN")

	data, err = os.ReadFile(TablePath(dir, domain.TableEdgeFunctional, CompressionNone))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"(7, 8, 1)\",3,NaN,NaN,NaN,NaN,NaN,NaN,+=0;-=0;p=0,1,NaN,NaN")
}

func TestTableStore_LoadWithoutRun(t *testing.T) {
	store := NewTableStore(t.TempDir(), CompressionNone, zap.NewNop())

	_, err := store.LoadTables(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.LatestRun(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTableStore_Runs(t *testing.T) {
	store := NewTableStore(t.TempDir(), CompressionNone, zap.NewNop())
	ctx := context.Background()

	first := &domain.Diagnostics{RunID: uuid.New(), PointsRead: 10}
	second := &domain.Diagnostics{RunID: uuid.New(), PointsRead: 20, FormatErrors: 2}
	require.NoError(t, store.SaveRun(ctx, first))
	require.NoError(t, store.SaveRun(ctx, second))

	got, err := store.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.RunID, got.RunID)
	assert.Equal(t, 2, got.FormatErrors)
}
