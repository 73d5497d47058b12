package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/map-metadata/internal/domain"
	"github.com/map-metadata/internal/domain/repository"
	"github.com/map-metadata/internal/heading"
	"github.com/map-metadata/internal/spatial"
	"github.com/map-metadata/internal/usecase/dto"
)

// QueryUseCase отвечает на пространственные запросы к таблицам последнего прогона
type QueryUseCase struct {
	metadataRepo   repository.MetadataRepository
	cacheRepo      repository.CacheRepository
	queryTTL       time.Duration
	runTTL         time.Duration
	defaultPadding float64
	logger         *zap.Logger

	mu       sync.RWMutex
	snapshot *domain.MetadataTables
	runID    uuid.UUID
}

// NewQueryUseCase создает новый экземпляр QueryUseCase. cacheRepo может быть nil.
func NewQueryUseCase(
	metadataRepo repository.MetadataRepository,
	cacheRepo repository.CacheRepository,
	queryTTL, runTTL time.Duration,
	defaultPadding float64,
	logger *zap.Logger,
) *QueryUseCase {
	if defaultPadding <= 0 {
		defaultPadding = domain.DefaultPointPadding
	}
	return &QueryUseCase{
		metadataRepo:   metadataRepo,
		cacheRepo:      cacheRepo,
		queryTTL:       queryTTL,
		runTTL:         runTTL,
		defaultPadding: defaultPadding,
		logger:         logger,
	}
}

// LatestRun возвращает диагностику последнего прогона, используя кеш когда возможно
func (uc *QueryUseCase) LatestRun(ctx context.Context) (*domain.Diagnostics, error) {
	if uc.cacheRepo != nil {
		cached, err := uc.cacheRepo.GetDiagnostics(ctx)
		if err == nil && cached != nil {
			uc.logger.Debug("Diagnostics fetched from cache")
			return cached, nil
		}
		if err != nil {
			uc.logger.Warn("Failed to get diagnostics from cache", zap.Error(err))
		}
	}

	diag, err := uc.metadataRepo.LatestRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}

	if uc.cacheRepo != nil {
		if err := uc.cacheRepo.SetDiagnostics(ctx, diag, uc.runTTL); err != nil {
			uc.logger.Warn("Failed to cache diagnostics", zap.Error(err))
		}
	}
	return diag, nil
}

// Tables возвращает таблицы последнего прогона. Снимок в памяти
// перечитывается, когда меняется run_id.
func (uc *QueryUseCase) Tables(ctx context.Context) (*domain.MetadataTables, uuid.UUID, error) {
	diag, err := uc.LatestRun(ctx)
	if err != nil {
		return nil, uuid.Nil, err
	}

	uc.mu.RLock()
	if uc.snapshot != nil && uc.runID == diag.RunID {
		tables := uc.snapshot
		uc.mu.RUnlock()
		return tables, diag.RunID, nil
	}
	uc.mu.RUnlock()

	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.snapshot != nil && uc.runID == diag.RunID {
		return uc.snapshot, diag.RunID, nil
	}

	tables, err := uc.metadataRepo.LoadTables(ctx)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("load tables: %w", err)
	}
	uc.snapshot = tables
	uc.runID = diag.RunID

	uc.logger.Info("Metadata snapshot loaded",
		zap.String("run_id", diag.RunID.String()),
		zap.Int("edges", len(tables.EdgeStructural)),
		zap.Int("nodes", len(tables.NodeStructural)))
	return tables, diag.RunID, nil
}

// cachedQuery - форма QueryResponse в кеше
type cachedQuery struct {
	RunID uuid.UUID       `json:"run_id"`
	Count int             `json:"count"`
	Rows  json.RawMessage `json:"rows"`
}

// Query возвращает строки таблицы, попадающие в область
func (uc *QueryUseCase) Query(ctx context.Context, req dto.QueryRequest) (*dto.QueryResponse, error) {
	table, err := domain.ParseTableName(req.Table)
	if err != nil {
		return nil, err
	}
	region := req.Region.ToDomain()
	if region.Point != nil && region.Padding == 0 {
		region.Padding = uc.defaultPadding
	}
	if _, err := spatial.BoundFor(region); err != nil {
		return nil, err
	}

	// 1. Проверяем кеш
	if uc.cacheRepo != nil {
		data, err := uc.cacheRepo.GetQuery(ctx, table, region)
		if err != nil {
			uc.logger.Warn("Failed to get query from cache", zap.Error(err))
		}
		if data != nil {
			var hit cachedQuery
			if err := json.Unmarshal(data, &hit); err == nil {
				return &dto.QueryResponse{Table: table, RunID: hit.RunID, Count: hit.Count, Rows: hit.Rows, Cached: true}, nil
			}
			uc.logger.Warn("Dropping malformed cached query", zap.String("table", string(table)))
		}
	}

	// 2. Фильтруем снимок
	tables, runID, err := uc.Tables(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := spatial.Query(tables, table, region)
	if err != nil {
		return nil, err
	}
	count := rowCount(rows)
	resp := &dto.QueryResponse{Table: table, RunID: runID, Count: count, Rows: rows}

	// 3. Кешируем
	if uc.cacheRepo != nil {
		raw, err := json.Marshal(rows)
		if err == nil {
			data, _ := json.Marshal(cachedQuery{RunID: runID, Count: count, Rows: raw})
			if err := uc.cacheRepo.SetQuery(ctx, table, region, data, uc.queryTTL); err != nil {
				uc.logger.Warn("Failed to cache query", zap.Error(err))
			}
		}
	}

	uc.logger.Debug("Spatial query",
		zap.String("table", string(table)),
		zap.Int("rows", count))
	return resp, nil
}

func rowCount(rows any) int {
	switch r := rows.(type) {
	case []domain.EdgeStructural:
		return len(r)
	case []domain.EdgeFunctional:
		return len(r)
	case []domain.NodeStructural:
		return len(r)
	case []domain.NodeFunctional:
		return len(r)
	}
	return 0
}

// ClassifyTurn классифицирует поворот между курсами from и to на ребре.
// Если ребро есть в последнем прогоне, добавляется его направленность.
func (uc *QueryUseCase) ClassifyTurn(ctx context.Context, req dto.TurnRequest) (*dto.TurnResponse, error) {
	edge, err := domain.ParseEdgeID(req.Edge)
	if err != nil {
		return nil, err
	}
	from, err := heading.ClassifyCardinal(req.From)
	if err != nil {
		return nil, err
	}
	to, err := heading.ClassifyCardinal(req.To)
	if err != nil {
		return nil, err
	}

	resp := &dto.TurnResponse{
		Edge:         edge,
		From:         req.From,
		To:           req.To,
		Relative:     heading.RelativeHeading(req.From, req.To),
		Turn:         heading.Turn(req.From, req.To),
		FromCardinal: from,
		ToCardinal:   to,
	}

	tables, _, err := uc.Tables(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return resp, nil
	case err != nil:
		return nil, err
	}
	for _, row := range tables.EdgeStructural {
		if row.Edge == edge {
			oneway := row.Oneway
			resp.Oneway = &oneway
			break
		}
	}
	return resp, nil
}
