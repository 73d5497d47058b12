package sqlstore

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/map-metadata/internal/domain"
)

type edgeStructuralRow struct {
	Position        int             `db:"position"`
	U               int64           `db:"edge_u"`
	V               int64           `db:"edge_v"`
	Key             int             `db:"edge_key"`
	InGraph         bool            `db:"in_graph"`
	OSMOneway       sql.NullString  `db:"osm_oneway"`
	OSMLanes        sql.NullString  `db:"osm_lanes"`
	OSMName         sql.NullString  `db:"osm_name"`
	OSMHighway      sql.NullString  `db:"osm_highway"`
	OSMMaxSpeed     sql.NullString  `db:"osm_maxspeed"`
	OSMLength       sql.NullString  `db:"osm_length"`
	Oneway          string          `db:"oneway"`
	VectorOneway    string          `db:"vector_oneway"`
	Directions      string          `db:"directions"`
	TrajectoryCount int             `db:"trajectory_count"`
	Lat             sql.NullFloat64 `db:"lat"`
	Lon             sql.NullFloat64 `db:"lon"`
}

// FunctionalColumns - общие колонки обеих функциональных таблиц
type FunctionalColumns struct {
	TimeBin           int             `db:"time_bin"`
	AvgSpeed          sql.NullInt64   `db:"avg_speed"`
	AvgSpeedCILower   sql.NullFloat64 `db:"avg_speed_ci_lower"`
	AvgSpeedCIUpper   sql.NullFloat64 `db:"avg_speed_ci_upper"`
	MaxSpeed          sql.NullInt64   `db:"max_speed"`
	MinSpeed          sql.NullInt64   `db:"min_speed"`
	TravelTime        sql.NullFloat64 `db:"travel_time"`
	TravelTimeCILower sql.NullFloat64 `db:"travel_time_ci_lower"`
	TravelTimeCIUpper sql.NullFloat64 `db:"travel_time_ci_upper"`
	TrajectoryCount   int             `db:"trajectory_count"`
	SpeedBox          sql.NullString  `db:"speed_boxplot"`
	TravelTimeBox     sql.NullString  `db:"travel_time_boxplot"`
}

type edgeFunctionalRow struct {
	Position int   `db:"position"`
	U        int64 `db:"edge_u"`
	V        int64 `db:"edge_v"`
	Key      int   `db:"edge_key"`
	FunctionalColumns
	Directions string `db:"directions"`
}

type nodeStructuralRow struct {
	Position        int             `db:"position"`
	Node            int64           `db:"node"`
	Edges           string          `db:"edges"`
	EdgesCount      int             `db:"edges_count"`
	Directions      string          `db:"directions"`
	TrajectoryCount int             `db:"trajectory_count"`
	InGraph         bool            `db:"in_graph"`
	StreetCount     sql.NullInt64   `db:"street_count"`
	Lat             sql.NullFloat64 `db:"lat"`
	Lon             sql.NullFloat64 `db:"lon"`
}

type nodeFunctionalRow struct {
	Position int   `db:"position"`
	Node     int64 `db:"node"`
	FunctionalColumns
	Flow string `db:"flow"`
}

type runRow struct {
	RunID       string `db:"run_id"`
	StartedAt   string `db:"started_at"`
	Diagnostics string `db:"diagnostics"`
}

func nullString(s string, valid bool) sql.NullString {
	return sql.NullString{String: s, Valid: valid}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func intervalColumns(i *domain.Interval) (sql.NullFloat64, sql.NullFloat64) {
	if i == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: i.Lower, Valid: true}, sql.NullFloat64{Float64: i.Upper, Valid: true}
}

func interval(lo, hi sql.NullFloat64) *domain.Interval {
	if !lo.Valid || !hi.Valid {
		return nil
	}
	return &domain.Interval{Lower: lo.Float64, Upper: hi.Float64}
}

func locationColumns(p *domain.Point) (sql.NullFloat64, sql.NullFloat64) {
	if p == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: p.Lat, Valid: true}, sql.NullFloat64{Float64: p.Lon, Valid: true}
}

func location(lat, lon sql.NullFloat64) *domain.Point {
	if !lat.Valid || !lon.Valid {
		return nil
	}
	return &domain.Point{Lat: lat.Float64, Lon: lon.Float64}
}

func boxColumn(b *domain.BoxPlot) (sql.NullString, error) {
	if b == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(b)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal boxplot: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func boxPlot(s sql.NullString) (*domain.BoxPlot, error) {
	if !s.Valid {
		return nil, nil
	}
	var b domain.BoxPlot
	if err := json.Unmarshal([]byte(s.String), &b); err != nil {
		return nil, fmt.Errorf("%w: boxplot: %v", domain.ErrFormat, err)
	}
	return &b, nil
}

func toFunctionalColumns(s domain.FunctionalStats) (FunctionalColumns, error) {
	c := FunctionalColumns{
		TimeBin:         int(s.TimeBin),
		AvgSpeed:        nullInt(s.AvgSpeed),
		MaxSpeed:        nullInt(s.MaxSpeed),
		MinSpeed:        nullInt(s.MinSpeed),
		TravelTime:      nullFloat(s.TravelTime),
		TrajectoryCount: s.TrajectoryCount,
	}
	c.AvgSpeedCILower, c.AvgSpeedCIUpper = intervalColumns(s.AvgSpeedCI)
	c.TravelTimeCILower, c.TravelTimeCIUpper = intervalColumns(s.TravelTimeCI)

	var err error
	if c.SpeedBox, err = boxColumn(s.SpeedBox); err != nil {
		return c, err
	}
	if c.TravelTimeBox, err = boxColumn(s.TravelTimeBox); err != nil {
		return c, err
	}
	return c, nil
}

func (c FunctionalColumns) stats() (domain.FunctionalStats, error) {
	s := domain.FunctionalStats{
		TimeBin:         domain.TimeBin(c.TimeBin),
		AvgSpeed:        intPtr(c.AvgSpeed),
		AvgSpeedCI:      interval(c.AvgSpeedCILower, c.AvgSpeedCIUpper),
		MaxSpeed:        intPtr(c.MaxSpeed),
		MinSpeed:        intPtr(c.MinSpeed),
		TravelTime:      floatPtr(c.TravelTime),
		TravelTimeCI:    interval(c.TravelTimeCILower, c.TravelTimeCIUpper),
		TrajectoryCount: c.TrajectoryCount,
	}
	if !s.TimeBin.Valid() {
		return s, fmt.Errorf("%w: time bin %d", domain.ErrFormat, c.TimeBin)
	}

	var err error
	if s.SpeedBox, err = boxPlot(c.SpeedBox); err != nil {
		return s, err
	}
	if s.TravelTimeBox, err = boxPlot(c.TravelTimeBox); err != nil {
		return s, err
	}
	return s, nil
}

func toEdgeStructuralRow(pos int, r domain.EdgeStructural) edgeStructuralRow {
	row := edgeStructuralRow{
		Position:        pos,
		U:               int64(r.Edge.U),
		V:               int64(r.Edge.V),
		Key:             r.Edge.Key,
		InGraph:         r.Tags != nil,
		Oneway:          r.Oneway.String(),
		VectorOneway:    r.VectorOneway.String(),
		Directions:      r.Directions.String(),
		TrajectoryCount: r.TrajectoryCount,
	}
	if t := r.Tags; t != nil {
		row.OSMOneway = nullString(t.Oneway, true)
		row.OSMLanes = nullString(t.Lanes, true)
		row.OSMName = nullString(t.Name, true)
		row.OSMHighway = nullString(t.Highway, true)
		row.OSMMaxSpeed = nullString(t.MaxSpeed, true)
		row.OSMLength = nullString(t.Length, true)
	}
	row.Lat, row.Lon = locationColumns(r.Location)
	return row
}

func (row edgeStructuralRow) toDomain() (domain.EdgeStructural, error) {
	r := domain.EdgeStructural{
		Edge:            domain.EdgeID{U: domain.NodeID(row.U), V: domain.NodeID(row.V), Key: row.Key},
		TrajectoryCount: row.TrajectoryCount,
		Location:        location(row.Lat, row.Lon),
	}
	if row.InGraph {
		r.Tags = &domain.EdgeTags{
			Oneway:   row.OSMOneway.String,
			Lanes:    row.OSMLanes.String,
			Name:     row.OSMName.String,
			Highway:  row.OSMHighway.String,
			MaxSpeed: row.OSMMaxSpeed.String,
			Length:   row.OSMLength.String,
		}
	}

	var err error
	if r.Oneway, err = domain.ParseDirectionality(row.Oneway); err != nil {
		return r, err
	}
	if r.VectorOneway, err = domain.ParseDirectionality(row.VectorOneway); err != nil {
		return r, err
	}
	if r.Directions, err = domain.ParseCardinalSet(row.Directions); err != nil {
		return r, err
	}
	return r, nil
}

func toEdgeFunctionalRow(pos int, r domain.EdgeFunctional) (edgeFunctionalRow, error) {
	cols, err := toFunctionalColumns(r.FunctionalStats)
	if err != nil {
		return edgeFunctionalRow{}, err
	}
	return edgeFunctionalRow{
		Position:          pos,
		U:                 int64(r.Edge.U),
		V:                 int64(r.Edge.V),
		Key:               r.Edge.Key,
		FunctionalColumns: cols,
		Directions:        r.Directions.String(),
	}, nil
}

func (row edgeFunctionalRow) toDomain() (domain.EdgeFunctional, error) {
	stats, err := row.stats()
	if err != nil {
		return domain.EdgeFunctional{}, err
	}
	tally, err := domain.ParseDirectionTally(row.Directions)
	if err != nil {
		return domain.EdgeFunctional{}, err
	}
	return domain.EdgeFunctional{
		Edge:            domain.EdgeID{U: domain.NodeID(row.U), V: domain.NodeID(row.V), Key: row.Key},
		FunctionalStats: stats,
		Directions:      tally,
	}, nil
}

func toNodeStructuralRow(pos int, r domain.NodeStructural) (nodeStructuralRow, error) {
	edges := r.Edges
	if edges == nil {
		edges = []domain.EdgeID{}
	}
	data, err := json.Marshal(edges)
	if err != nil {
		return nodeStructuralRow{}, fmt.Errorf("marshal node edges: %w", err)
	}

	row := nodeStructuralRow{
		Position:        pos,
		Node:            int64(r.Node),
		Edges:           string(data),
		EdgesCount:      r.EdgesCount,
		Directions:      r.Directions.String(),
		TrajectoryCount: r.TrajectoryCount,
		InGraph:         r.InGraph,
		StreetCount:     nullInt(r.StreetCount),
	}
	row.Lat, row.Lon = locationColumns(r.Location)
	return row, nil
}

func (row nodeStructuralRow) toDomain() (domain.NodeStructural, error) {
	r := domain.NodeStructural{
		Node:            domain.NodeID(row.Node),
		EdgesCount:      row.EdgesCount,
		TrajectoryCount: row.TrajectoryCount,
		InGraph:         row.InGraph,
		StreetCount:     intPtr(row.StreetCount),
		Location:        location(row.Lat, row.Lon),
	}
	if err := json.Unmarshal([]byte(row.Edges), &r.Edges); err != nil {
		return r, fmt.Errorf("%w: node edges: %v", domain.ErrFormat, err)
	}
	if r.Edges == nil {
		r.Edges = []domain.EdgeID{}
	}

	var err error
	if r.Directions, err = domain.ParseCardinalSet(row.Directions); err != nil {
		return r, err
	}
	return r, nil
}

func toNodeFunctionalRow(pos int, r domain.NodeFunctional) (nodeFunctionalRow, error) {
	cols, err := toFunctionalColumns(r.FunctionalStats)
	if err != nil {
		return nodeFunctionalRow{}, err
	}
	return nodeFunctionalRow{
		Position:          pos,
		Node:              int64(r.Node),
		FunctionalColumns: cols,
		Flow:              r.Flow.String(),
	}, nil
}

func (row nodeFunctionalRow) toDomain() (domain.NodeFunctional, error) {
	stats, err := row.stats()
	if err != nil {
		return domain.NodeFunctional{}, err
	}
	flow, err := domain.ParseFlowCounts(row.Flow)
	if err != nil {
		return domain.NodeFunctional{}, err
	}
	return domain.NodeFunctional{
		Node:            domain.NodeID(row.Node),
		FunctionalStats: stats,
		Flow:            flow,
	}, nil
}
