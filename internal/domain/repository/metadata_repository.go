package repository

import (
	"context"

	"github.com/map-metadata/internal/domain"
)

// MetadataRepository хранит таблицы метаданных последнего прогона и историю прогонов
type MetadataRepository interface {
	// SaveTables атомарно заменяет все четыре таблицы
	SaveTables(ctx context.Context, tables *domain.MetadataTables) error

	// LoadTables возвращает таблицы; domain.ErrNotFound если прогонов не было
	LoadTables(ctx context.Context) (*domain.MetadataTables, error)

	// SaveRun сохраняет диагностику прогона
	SaveRun(ctx context.Context, diag *domain.Diagnostics) error

	// LatestRun возвращает диагностику последнего прогона; domain.ErrNotFound если прогонов не было
	LatestRun(ctx context.Context) (*domain.Diagnostics, error)
}
