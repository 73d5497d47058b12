package domain

import "github.com/google/uuid"

// Stream names
const (
	StreamMetadataRecompute = "stream:metadata:recompute"
	StreamMetadataDone      = "stream:metadata:done"
)

// RecomputeEvent - входящее событие на пересчёт метаданных. Пустые пути
// означают значения из конфигурации.
type RecomputeEvent struct {
	RunID          uuid.UUID `json:"run_id"`
	TrajectoryPath string    `json:"trajectory_path,omitempty"`
	EdgesPath      string    `json:"edges_path,omitempty"`
	NodesPath      string    `json:"nodes_path,omitempty"`
}

// RecomputeDoneEvent - результат пересчёта
type RecomputeDoneEvent struct {
	RunID       uuid.UUID    `json:"run_id"`
	Diagnostics *Diagnostics `json:"diagnostics,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// Succeeded проверяет, завершился ли пересчёт без ошибки
func (e *RecomputeDoneEvent) Succeeded() bool {
	return e.Error == "" && e.Diagnostics != nil
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
