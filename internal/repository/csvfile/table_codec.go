package csvfile

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/map-metadata/internal/domain"
)

// Маркеры, которые пишутся вместо отсутствующих значений
const (
	missingValue = "NaN"
	unknownValue = "unknown"
)

var (
	edgeStructuralColumns = []string{
		"Edge", "OSM_oneway", "OSM_lanes", "OSM_name", "OSM_highway", "OSM_maxspeed", "OSM_length",
		"Oneway", "Trajectory_count", "Vector_oneway", "Directions", "Lat", "Long",
	}
	edgeFunctionalColumns = []string{
		"Edge", "Time_bin", "Avg_speed", "Avg_speed_CI", "Max_speed", "Min_speed", "Travel_time", "Travel_time_CI",
		"Flow_or_Directions", "Trajectory_count", "Speed_boxplot", "Travel_time_boxplot",
	}
	nodeStructuralColumns = []string{
		"Node", "Edges", "Edges_count", "Directions", "Trajectory_count", "OSM_street_count", "Lat", "Long",
	}
	nodeFunctionalColumns = []string{
		"Node", "Time_bin", "Avg_speed", "Avg_speed_CI", "Max_speed", "Min_speed", "Travel_time", "Travel_time_CI",
		"Flow", "Trajectory_count", "Speed_boxplot", "Travel_time_boxplot",
	}
)

// Columns возвращает заголовок таблицы в порядке вывода
func Columns(table domain.TableName) []string {
	switch table {
	case domain.TableEdgeStructural:
		return edgeStructuralColumns
	case domain.TableEdgeFunctional:
		return edgeFunctionalColumns
	case domain.TableNodeStructural:
		return nodeStructuralColumns
	case domain.TableNodeFunctional:
		return nodeFunctionalColumns
	}
	return nil
}

func formatInt(v *int) string {
	if v == nil {
		return missingValue
	}
	return strconv.Itoa(*v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return missingValue
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInterval(v *domain.Interval) string {
	if v == nil {
		return missingValue
	}
	return v.String()
}

func formatDirectionality(d domain.Directionality) string {
	if d == domain.Ambiguous {
		return missingValue
	}
	return d.String()
}

func formatBoxPlot(b *domain.BoxPlot) (string, error) {
	if b == nil {
		return missingValue, nil
	}
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("marshal box plot: %w", err)
	}
	return string(data), nil
}

func formatLocation(p *domain.Point) (lat, lon string) {
	if p == nil {
		return missingValue, missingValue
	}
	return strconv.FormatFloat(p.Lat, 'f', -1, 64), strconv.FormatFloat(p.Lon, 'f', -1, 64)
}

func formatEdgeList(edges []domain.EdgeID) string {
	parts := make([]string, len(edges))
	for i, e := range edges {
		parts[i] = e.String()
	}
	return strings.Join(parts, ";")
}

func tagOrUnknown(tags *domain.EdgeTags, get func(domain.EdgeTags) string) string {
	if tags == nil {
		return unknownValue
	}
	return get(*tags)
}

func encodeFunctional(fs domain.FunctionalStats) ([]string, []string, error) {
	speedBox, err := formatBoxPlot(fs.SpeedBox)
	if err != nil {
		return nil, nil, err
	}
	travelBox, err := formatBoxPlot(fs.TravelTimeBox)
	if err != nil {
		return nil, nil, err
	}
	head := []string{
		fs.TimeBin.String(),
		formatInt(fs.AvgSpeed),
		formatInterval(fs.AvgSpeedCI),
		formatInt(fs.MaxSpeed),
		formatInt(fs.MinSpeed),
		formatFloat(fs.TravelTime),
		formatInterval(fs.TravelTimeCI),
	}
	tail := []string{strconv.Itoa(fs.TrajectoryCount), speedBox, travelBox}
	return head, tail, nil
}

func encodeEdgeStructural(r domain.EdgeStructural) []string {
	lat, lon := formatLocation(r.Location)
	return []string{
		r.Edge.String(),
		tagOrUnknown(r.Tags, func(t domain.EdgeTags) string { return t.Oneway }),
		tagOrUnknown(r.Tags, func(t domain.EdgeTags) string { return t.Lanes }),
		tagOrUnknown(r.Tags, func(t domain.EdgeTags) string { return t.Name }),
		tagOrUnknown(r.Tags, func(t domain.EdgeTags) string { return t.Highway }),
		tagOrUnknown(r.Tags, func(t domain.EdgeTags) string { return t.MaxSpeed }),
		tagOrUnknown(r.Tags, func(t domain.EdgeTags) string { return t.Length }),
		formatDirectionality(r.Oneway),
		strconv.Itoa(r.TrajectoryCount),
		formatDirectionality(r.VectorOneway),
		r.Directions.String(),
		lat,
		lon,
	}
}

func encodeEdgeFunctional(r domain.EdgeFunctional) ([]string, error) {
	head, tail, err := encodeFunctional(r.FunctionalStats)
	if err != nil {
		return nil, err
	}
	rec := append([]string{r.Edge.String()}, head...)
	rec = append(rec, r.Directions.String())
	return append(rec, tail...), nil
}

func encodeNodeStructural(r domain.NodeStructural) []string {
	lat, lon := formatLocation(r.Location)
	street := unknownValue
	if r.InGraph {
		street = formatInt(r.StreetCount)
	}
	return []string{
		r.Node.String(),
		formatEdgeList(r.Edges),
		strconv.Itoa(r.EdgesCount),
		r.Directions.String(),
		strconv.Itoa(r.TrajectoryCount),
		street,
		lat,
		lon,
	}
}

func encodeNodeFunctional(r domain.NodeFunctional) ([]string, error) {
	head, tail, err := encodeFunctional(r.FunctionalStats)
	if err != nil {
		return nil, err
	}
	rec := append([]string{r.Node.String()}, head...)
	rec = append(rec, r.Flow.String())
	return append(rec, tail...), nil
}

// Декодирование зеркально кодированию выше. Значения ищутся по имени
// колонки, порядок колонок в файле не важен.

func parseOptionalInt(s string) (*int, error) {
	if isMissing(s) {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: integer %q", domain.ErrFormat, s)
	}
	return &v, nil
}

func parseOptionalFloatPtr(s string) (*float64, error) {
	v, ok, err := parseOptionalFloat(s, "value")
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}

func parseOptionalInterval(s string) (*domain.Interval, error) {
	if isMissing(s) {
		return nil, nil
	}
	v, err := domain.ParseInterval(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseBoxPlot(s string) (*domain.BoxPlot, error) {
	if isMissing(s) {
		return nil, nil
	}
	var b domain.BoxPlot
	if err := json.Unmarshal([]byte(s), &b); err != nil {
		return nil, fmt.Errorf("%w: box plot: %v", domain.ErrFormat, err)
	}
	return &b, nil
}

func parseLocation(h header, rec []string) (*domain.Point, error) {
	lat, okLat, err := parseOptionalFloat(h.get(rec, "lat"), "lat")
	if err != nil {
		return nil, err
	}
	lon, okLon, err := parseOptionalFloat(h.get(rec, "long"), "long")
	if err != nil {
		return nil, err
	}
	if !okLat || !okLon {
		return nil, nil
	}
	return &domain.Point{Lat: lat, Lon: lon}, nil
}

func parseCount(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: count %q", domain.ErrFormat, s)
	}
	return v, nil
}

func decodeFunctional(h header, rec []string) (domain.FunctionalStats, error) {
	var fs domain.FunctionalStats
	var err error

	if fs.TimeBin, err = domain.ParseTimeBin(h.get(rec, "time_bin")); err != nil {
		return fs, err
	}
	if fs.AvgSpeed, err = parseOptionalInt(h.get(rec, "avg_speed")); err != nil {
		return fs, err
	}
	if fs.AvgSpeedCI, err = parseOptionalInterval(h.get(rec, "avg_speed_ci")); err != nil {
		return fs, err
	}
	if fs.MaxSpeed, err = parseOptionalInt(h.get(rec, "max_speed")); err != nil {
		return fs, err
	}
	if fs.MinSpeed, err = parseOptionalInt(h.get(rec, "min_speed")); err != nil {
		return fs, err
	}
	if fs.TravelTime, err = parseOptionalFloatPtr(h.get(rec, "travel_time")); err != nil {
		return fs, err
	}
	if fs.TravelTimeCI, err = parseOptionalInterval(h.get(rec, "travel_time_ci")); err != nil {
		return fs, err
	}
	if fs.TrajectoryCount, err = parseCount(h.get(rec, "trajectory_count")); err != nil {
		return fs, err
	}
	if fs.SpeedBox, err = parseBoxPlot(h.get(rec, "speed_boxplot")); err != nil {
		return fs, err
	}
	if fs.TravelTimeBox, err = parseBoxPlot(h.get(rec, "travel_time_boxplot")); err != nil {
		return fs, err
	}
	return fs, nil
}

func decodeEdgeStructural(h header, rec []string) (domain.EdgeStructural, error) {
	var r domain.EdgeStructural
	var err error

	if r.Edge, err = domain.ParseEdgeID(h.get(rec, "edge")); err != nil {
		return r, err
	}
	if oneway := h.get(rec, "osm_oneway"); oneway != unknownValue {
		r.Tags = &domain.EdgeTags{
			Oneway:   oneway,
			Lanes:    h.get(rec, "osm_lanes"),
			Name:     h.get(rec, "osm_name"),
			Highway:  h.get(rec, "osm_highway"),
			MaxSpeed: h.get(rec, "osm_maxspeed"),
			Length:   h.get(rec, "osm_length"),
		}
	}
	if r.Oneway, err = domain.ParseDirectionality(h.get(rec, "oneway")); err != nil {
		return r, err
	}
	if r.TrajectoryCount, err = parseCount(h.get(rec, "trajectory_count")); err != nil {
		return r, err
	}
	if r.VectorOneway, err = domain.ParseDirectionality(h.get(rec, "vector_oneway")); err != nil {
		return r, err
	}
	if r.Directions, err = domain.ParseCardinalSet(h.get(rec, "directions")); err != nil {
		return r, err
	}
	if r.Location, err = parseLocation(h, rec); err != nil {
		return r, err
	}
	return r, nil
}

func decodeEdgeFunctional(h header, rec []string) (domain.EdgeFunctional, error) {
	var r domain.EdgeFunctional
	var err error

	if r.Edge, err = domain.ParseEdgeID(h.get(rec, "edge")); err != nil {
		return r, err
	}
	if r.FunctionalStats, err = decodeFunctional(h, rec); err != nil {
		return r, err
	}
	if r.Directions, err = domain.ParseDirectionTally(h.get(rec, "flow_or_directions")); err != nil {
		return r, err
	}
	return r, nil
}

func decodeNodeStructural(h header, rec []string) (domain.NodeStructural, error) {
	var r domain.NodeStructural
	var err error

	if r.Node, err = domain.ParseNodeID(h.get(rec, "node")); err != nil {
		return r, err
	}
	r.Edges = []domain.EdgeID{}
	if raw := h.get(rec, "edges"); raw != "" {
		for _, part := range strings.Split(raw, ";") {
			e, err := domain.ParseEdgeID(part)
			if err != nil {
				return r, err
			}
			r.Edges = append(r.Edges, e)
		}
	}
	if r.EdgesCount, err = parseCount(h.get(rec, "edges_count")); err != nil {
		return r, err
	}
	if r.Directions, err = domain.ParseCardinalSet(h.get(rec, "directions")); err != nil {
		return r, err
	}
	if r.TrajectoryCount, err = parseCount(h.get(rec, "trajectory_count")); err != nil {
		return r, err
	}
	if street := h.get(rec, "osm_street_count"); street != unknownValue {
		r.InGraph = true
		if r.StreetCount, err = parseOptionalInt(street); err != nil {
			return r, err
		}
	}
	if r.Location, err = parseLocation(h, rec); err != nil {
		return r, err
	}
	return r, nil
}

func decodeNodeFunctional(h header, rec []string) (domain.NodeFunctional, error) {
	var r domain.NodeFunctional
	var err error

	if r.Node, err = domain.ParseNodeID(h.get(rec, "node")); err != nil {
		return r, err
	}
	if r.FunctionalStats, err = decodeFunctional(h, rec); err != nil {
		return r, err
	}
	if r.Flow, err = domain.ParseFlowCounts(h.get(rec, "flow")); err != nil {
		return r, err
	}
	return r, nil
}
