package dto

import (
	"github.com/google/uuid"

	"github.com/map-metadata/internal/domain"
)

// RecomputeResponse - итог прогона агрегации
type RecomputeResponse struct {
	Diagnostics *domain.Diagnostics `json:"diagnostics"`
	Dropped     int                 `json:"dropped"`
	Degraded    int                 `json:"degraded"`
	Tables      TableCounts         `json:"tables"`
}

// TableCounts - число строк в каждой таблице
type TableCounts struct {
	EdgeStructural int `json:"edge_structural"`
	EdgeFunctional int `json:"edge_functional"`
	NodeStructural int `json:"node_structural"`
	NodeFunctional int `json:"node_functional"`
}

func CountTables(t *domain.MetadataTables) TableCounts {
	return TableCounts{
		EdgeStructural: len(t.EdgeStructural),
		EdgeFunctional: len(t.EdgeFunctional),
		NodeStructural: len(t.NodeStructural),
		NodeFunctional: len(t.NodeFunctional),
	}
}

// QueryResponse - строки таблицы внутри области. Rows - срез строк нужного типа
// (или уже сериализованный JSON из кеша).
type QueryResponse struct {
	Table  domain.TableName `json:"table"`
	RunID  uuid.UUID        `json:"run_id"`
	Count  int              `json:"count"`
	Rows   any              `json:"rows"`
	Cached bool             `json:"-"`
}

// TurnResponse - результат классификации поворота
type TurnResponse struct {
	Edge         domain.EdgeID            `json:"edge"`
	From         float64                  `json:"from"`
	To           float64                  `json:"to"`
	Relative     float64                  `json:"relative"`
	Turn         domain.TurnCategory      `json:"turn"`
	FromCardinal domain.CardinalDirection `json:"from_cardinal"`
	ToCardinal   domain.CardinalDirection `json:"to_cardinal"`
	Oneway       *domain.Directionality   `json:"oneway,omitempty"`
}
