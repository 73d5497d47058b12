package domain

import (
	"fmt"
	"strconv"
	"time"
)

// TimestampLayout - формат отметок времени траекторий
const TimestampLayout = "2006-01-02 15:04:05"

// TrajectoryPoint - одна GPS-отметка, уже привязанная к графу дорог внешним
// map-matcher. После загрузки точки не изменяются.
type TrajectoryPoint struct {
	TripID     string    `json:"trip_id"`
	Timestamp  time.Time `json:"timestamp"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"long"`
	Speed      float64   `json:"speed"`
	Heading    float64   `json:"heading"`
	HasSpeed   bool      `json:"has_speed"`
	HasHeading bool      `json:"has_heading"`
	Edge       *EdgeID   `json:"edge_id,omitempty"`
	Node       *NodeID   `json:"node_id,omitempty"`

	// EdgeDistance и NodeDistance - расстояния привязки в метрах
	EdgeDistance *float64 `json:"edge_distance,omitempty"`
	NodeDistance *float64 `json:"node_distance,omitempty"`
}

// TimeBin относит наблюдение к будням/выходным и дню/ночи
type TimeBin int

const (
	TimeBinWeekendNight TimeBin = -1
	TimeBinWeekdayNight TimeBin = 0
	TimeBinWeekendDay   TimeBin = 1
	TimeBinWeekdayDay   TimeBin = 2
	// TimeBinAll объединяет все наблюдения элемента, у которого слишком мало
	// сегментов для разбиения по бинам.
	TimeBinAll TimeBin = 3
)

// RealTimeBins перечисляет бины, в которые может попасть одно наблюдение
var RealTimeBins = []TimeBin{TimeBinWeekendNight, TimeBinWeekdayNight, TimeBinWeekendDay, TimeBinWeekdayDay}

func (b TimeBin) Valid() bool {
	return b >= TimeBinWeekendNight && b <= TimeBinAll
}

func (b TimeBin) String() string {
	return strconv.Itoa(int(b))
}

func ParseTimeBin(s string) (TimeBin, error) {
	v, err := strconv.Atoi(s)
	if err != nil || !TimeBin(v).Valid() {
		return 0, fmt.Errorf("%w: time bin %q", ErrFormat, s)
	}
	return TimeBin(v), nil
}

// ElementKind отличает сегменты рёбер от сегментов узлов
type ElementKind string

const (
	ElementEdge ElementKind = "edge"
	ElementNode ElementKind = "node"
)

// Segment - упорядоченные по времени точки одной поездки на одном ребре
// или узле. Задано ровно одно из Edge и Node.
type Segment struct {
	TripID string
	Kind   ElementKind
	Edge   EdgeID
	Node   NodeID
	Points []TrajectoryPoint
}

// SegmentStats - извлечённая сводка одного сегмента. nil-указатели
// означают "нет данных".
type SegmentStats struct {
	TripID     string      `json:"trip_id"`
	PointCount int         `json:"point_count"`
	AvgSpeed   *int        `json:"avg_speed,omitempty"`
	MaxSpeed   *int        `json:"max_speed,omitempty"`
	MinSpeed   *int        `json:"min_speed,omitempty"`
	DayType    int         `json:"day_type"`
	TimeType   int         `json:"time_type"`
	TimeBin    TimeBin     `json:"time_bin"`
	TravelTime *float64    `json:"travel_time,omitempty"`
	Cardinals  CardinalSet `json:"cardinals"`
	Centroid   Point       `json:"centroid"`
	Degraded   bool        `json:"degraded"`
}

// EdgeSegment - извлечённая строка сегмента ребра
type EdgeSegment struct {
	SegmentStats
	Edge      EdgeID           `json:"edge"`
	Direction SegmentDirection `json:"direction"`
}

// NodeSegment - извлечённая строка сегмента узла. ExitEdge - ребро последней
// точки, ExitDirection - её румб.
type NodeSegment struct {
	SegmentStats
	Node          NodeID             `json:"node"`
	ExitEdge      *EdgeID            `json:"exit_edge,omitempty"`
	ExitDirection *CardinalDirection `json:"exit_direction,omitempty"`
}

// TrajectoryBatch - входные данные прогона. FormatErrors - число строк,
// пропущенных при чтении.
type TrajectoryBatch struct {
	Points       []TrajectoryPoint
	Rows         int
	FormatErrors int
}
