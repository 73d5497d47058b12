package domain

import (
	"time"

	"github.com/google/uuid"
)

type Point struct {
	Lat float64 `json:"lat" db:"lat"`
	Lon float64 `json:"lon" db:"lon"`
}

type BoundingBox struct {
	MinLat float64 `json:"min_lat" db:"min_lat"`
	MinLon float64 `json:"min_lon" db:"min_lon"`
	MaxLat float64 `json:"max_lat" db:"max_lat"`
	MaxLon float64 `json:"max_lon" db:"max_lon"`
}

// DefaultPointPadding - полуширина в градусах прямоугольника вокруг точки запроса
const DefaultPointPadding = 0.05

// Region - область пространственного запроса: точка, расширенная на Padding,
// или углы многоугольника
type Region struct {
	Point   *Point  `json:"point,omitempty"`
	Padding float64 `json:"padding,omitempty"`
	Corners []Point `json:"corners,omitempty"`
}

// PointRegion строит регион вокруг (lon, lat) с отступом по умолчанию
func PointRegion(lon, lat float64) Region {
	return Region{Point: &Point{Lat: lat, Lon: lon}, Padding: DefaultPointPadding}
}

// CornersRegion строит регион по углам многоугольника
func CornersRegion(corners ...Point) Region {
	return Region{Corners: corners}
}

// Diagnostics - итоги одного прогона агрегации: сколько строк прочитано и
// сколько отброшено или деградировало по пути к выходным таблицам
type Diagnostics struct {
	RunID            uuid.UUID     `json:"run_id"`
	StartedAt        time.Time     `json:"started_at"`
	Duration         time.Duration `json:"duration"`
	PointsRead       int           `json:"points_read"`
	FormatErrors     int           `json:"format_errors"`
	UnmatchedEdge    int           `json:"unmatched_edge"`
	UnmatchedNode    int           `json:"unmatched_node"`
	EdgeSegments     int           `json:"edge_segments"`
	NodeSegments     int           `json:"node_segments"`
	DegradedSegments int           `json:"degraded_segments"`
	EdgeJoinMisses   int           `json:"edge_join_misses"`
	NodeJoinMisses   int           `json:"node_join_misses"`
	EdgeRows         int           `json:"edge_rows"`
	NodeRows         int           `json:"node_rows"`
}

// Dropped возвращает число входных строк, не попавших ни в один сегмент
func (d *Diagnostics) Dropped() int {
	return d.FormatErrors
}

// Degraded возвращает число результатов, заполненных маркерами отсутствия данных
func (d *Diagnostics) Degraded() int {
	return d.DegradedSegments + d.EdgeJoinMisses + d.NodeJoinMisses
}
