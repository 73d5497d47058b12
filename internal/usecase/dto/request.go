package dto

import (
	"github.com/google/uuid"

	"github.com/map-metadata/internal/domain"
)

// RecomputeRequest - запрос на пересчёт метаданных. Пустые пути берутся из конфигурации.
type RecomputeRequest struct {
	RunID          uuid.UUID `json:"run_id,omitempty"`
	TrajectoryPath string    `json:"trajectory_path,omitempty"`
	EdgesPath      string    `json:"edges_path,omitempty"`
	NodesPath      string    `json:"nodes_path,omitempty"`
}

// Point - координаты точки
type Point struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lon float64 `json:"lon" validate:"min=-180,max=180"`
}

// RegionRequest - область пространственного запроса: точка с отступом или углы многоугольника
type RegionRequest struct {
	Point   *Point  `json:"point,omitempty" validate:"omitempty"`
	Padding float64 `json:"padding,omitempty" validate:"omitempty,gt=0,lte=10"`
	Corners []Point `json:"corners,omitempty" validate:"omitempty,min=2,max=1000,dive"`
}

// ToDomain переводит запрос в domain.Region
func (r RegionRequest) ToDomain() domain.Region {
	region := domain.Region{Padding: r.Padding}
	if r.Point != nil {
		region.Point = &domain.Point{Lat: r.Point.Lat, Lon: r.Point.Lon}
	}
	for _, c := range r.Corners {
		region.Corners = append(region.Corners, domain.Point{Lat: c.Lat, Lon: c.Lon})
	}
	return region
}

// QueryRequest - запрос строк одной таблицы в области
type QueryRequest struct {
	Table  string        `json:"table" validate:"required,metadata_table"`
	Region RegionRequest `json:"region"`
}

// TurnRequest - классификация поворота между двумя курсами на ребре
type TurnRequest struct {
	Edge string  `json:"edge" validate:"required"`
	From float64 `json:"from" validate:"gte=0,lt=360"`
	To   float64 `json:"to" validate:"gte=0,lt=360"`
}
