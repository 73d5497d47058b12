package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// TableName - имя одной из четырёх сохраняемых таблиц метаданных
type TableName string

const (
	TableEdgeStructural TableName = "edge_structural"
	TableEdgeFunctional TableName = "edge_functional"
	TableNodeStructural TableName = "node_structural"
	TableNodeFunctional TableName = "node_functional"
)

// AllTables перечисляет таблицы в порядке вывода
var AllTables = []TableName{TableEdgeStructural, TableEdgeFunctional, TableNodeStructural, TableNodeFunctional}

func ParseTableName(s string) (TableName, error) {
	name := TableName(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range AllTables {
		if t == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTable, s)
}

// Interval - замкнутый доверительный интервал. nil *Interval означает
// "интервала нет".
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

func (i Interval) String() string {
	return "(" + formatFloat(i.Lower) + ", " + formatFloat(i.Upper) + ")"
}

func (i Interval) Contains(v float64) bool {
	return i.Lower <= v && v <= i.Upper
}

// ParseInterval разбирает "(lower, upper)"
func ParseInterval(s string) (Interval, error) {
	raw := strings.TrimSpace(s)
	if !strings.HasPrefix(raw, "(") || !strings.HasSuffix(raw, ")") {
		return Interval{}, fmt.Errorf("%w: interval %q", ErrFormat, s)
	}
	lo, hi, ok := strings.Cut(raw[1:len(raw)-1], ",")
	if !ok {
		return Interval{}, fmt.Errorf("%w: interval %q", ErrFormat, s)
	}
	l, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return Interval{}, fmt.Errorf("%w: interval %q", ErrFormat, s)
	}
	u, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return Interval{}, fmt.Errorf("%w: interval %q", ErrFormat, s)
	}
	return Interval{Lower: l, Upper: u}, nil
}

// BoxPlot - пятичисловая сводка выборки с выбросами. Группы меньше чем из
// четырёх значений хранят исходные Points.
type BoxPlot struct {
	Whislo *float64  `json:"whislo,omitempty"`
	Q1     *float64  `json:"q1,omitempty"`
	Med    *float64  `json:"med,omitempty"`
	Q3     *float64  `json:"q3,omitempty"`
	Whishi *float64  `json:"whishi,omitempty"`
	Fliers []float64 `json:"fliers,omitempty"`
	Points []float64 `json:"points,omitempty"`
}

// FunctionalStats - зависящая от времени статистика одной пары (элемент, бин)
type FunctionalStats struct {
	TimeBin         TimeBin   `json:"time_bin"`
	AvgSpeed        *int      `json:"avg_speed"`
	AvgSpeedCI      *Interval `json:"avg_speed_ci"`
	MaxSpeed        *int      `json:"max_speed"`
	MinSpeed        *int      `json:"min_speed"`
	TravelTime      *float64  `json:"travel_time"`
	TravelTimeCI    *Interval `json:"travel_time_ci"`
	TrajectoryCount int       `json:"trajectory_count"`
	SpeedBox        *BoxPlot  `json:"speed_boxplot,omitempty"`
	TravelTimeBox   *BoxPlot  `json:"travel_time_boxplot,omitempty"`
}

// EdgeStructural - не зависящая от времени сводка по ребру. Tags равен nil,
// если ребра нет в графе дорог.
type EdgeStructural struct {
	Edge            EdgeID         `json:"edge"`
	Tags            *EdgeTags      `json:"tags"`
	Oneway          Directionality `json:"oneway"`
	VectorOneway    Directionality `json:"vector_oneway"`
	Directions      CardinalSet    `json:"directions"`
	TrajectoryCount int            `json:"trajectory_count"`
	Location        *Point         `json:"location,omitempty"`
}

func (r EdgeStructural) Coordinates() (Point, bool) {
	if r.Location == nil {
		return Point{}, false
	}
	return *r.Location, true
}

type EdgeFunctional struct {
	Edge EdgeID `json:"edge"`
	FunctionalStats
	Directions DirectionTally `json:"flow_or_directions"`
}

// NodeStructural - не зависящая от времени сводка по узлу. StreetCount равен
// nil, если узла нет в графе или у него нет счётчика улиц.
type NodeStructural struct {
	Node            NodeID      `json:"node"`
	Edges           []EdgeID    `json:"edges"`
	EdgesCount      int         `json:"edges_count"`
	Directions      CardinalSet `json:"directions"`
	TrajectoryCount int         `json:"trajectory_count"`
	InGraph         bool        `json:"in_graph"`
	StreetCount     *int        `json:"street_count,omitempty"`
	Location        *Point      `json:"location,omitempty"`
}

func (r NodeStructural) Coordinates() (Point, bool) {
	if r.Location == nil {
		return Point{}, false
	}
	return *r.Location, true
}

type NodeFunctional struct {
	Node NodeID `json:"node"`
	FunctionalStats
	Flow FlowCounts `json:"flow"`
}

// MetadataTables - четыре выходные таблицы прогона агрегации
type MetadataTables struct {
	EdgeStructural []EdgeStructural `json:"edge_structural"`
	EdgeFunctional []EdgeFunctional `json:"edge_functional"`
	NodeStructural []NodeStructural `json:"node_structural"`
	NodeFunctional []NodeFunctional `json:"node_functional"`
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
