package repository

import (
	"context"

	"github.com/map-metadata/internal/domain"
)

// TrajectoryRepository загружает map-matched траектории
type TrajectoryRepository interface {
	// LoadTrajectories читает все точки источника; строки с ошибками формата
	// пропускаются и учитываются в TrajectoryBatch.FormatErrors
	LoadTrajectories(ctx context.Context, source string) (*domain.TrajectoryBatch, error)
}

// GraphRepository загружает граф дорожной сети
type GraphRepository interface {
	// LoadGraph читает рёбра и узлы; nodesSource может быть пустым
	LoadGraph(ctx context.Context, edgesSource, nodesSource string) (*domain.Graph, error)
}
