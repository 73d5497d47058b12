package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/map-metadata/internal/aggregate"
	"github.com/map-metadata/internal/config"
	"github.com/map-metadata/internal/domain"
	"github.com/map-metadata/internal/domain/repository"
	"github.com/map-metadata/internal/segment"
	"github.com/map-metadata/internal/tables"
	"github.com/map-metadata/internal/usecase/dto"
)

// RecomputeResult - таблицы и диагностика одного прогона
type RecomputeResult struct {
	Tables      *domain.MetadataTables
	Diagnostics *domain.Diagnostics
}

// AggregationUseCase выполняет полный прогон: загрузка, сегменты,
// извлечение, агрегация, таблицы, сохранение
type AggregationUseCase struct {
	trajectoryRepo repository.TrajectoryRepository
	graphRepo      repository.GraphRepository
	metadataRepo   repository.MetadataRepository
	cacheRepo      repository.CacheRepository
	pipeline       config.PipelineConfig
	input          config.InputConfig
	runCacheTTL    time.Duration
	logger         *zap.Logger

	// прогоны в одно и то же хранилище сериализуются
	mu sync.Mutex
}

// NewAggregationUseCase создает новый экземпляр AggregationUseCase.
// cacheRepo может быть nil - тогда кеш не используется.
func NewAggregationUseCase(
	trajectoryRepo repository.TrajectoryRepository,
	graphRepo repository.GraphRepository,
	metadataRepo repository.MetadataRepository,
	cacheRepo repository.CacheRepository,
	cfg *config.Config,
	logger *zap.Logger,
) *AggregationUseCase {
	return &AggregationUseCase{
		trajectoryRepo: trajectoryRepo,
		graphRepo:      graphRepo,
		metadataRepo:   metadataRepo,
		cacheRepo:      cacheRepo,
		pipeline:       cfg.Pipeline,
		input:          cfg.Input,
		runCacheTTL:    cfg.Cache.RunCacheTTL,
		logger:         logger,
	}
}

// Recompute пересчитывает все четыре таблицы и сохраняет их вместе с
// диагностикой. Параллельный вызов ждёт завершения текущего прогона.
func (uc *AggregationUseCase) Recompute(ctx context.Context, req dto.RecomputeRequest) (*RecomputeResult, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	diag := &domain.Diagnostics{
		RunID:     req.RunID,
		StartedAt: time.Now().UTC(),
	}
	if diag.RunID == uuid.Nil {
		diag.RunID = uuid.New()
	}

	trajectoryPath := firstNonEmpty(req.TrajectoryPath, uc.input.TrajectoryPath)
	edgesPath := firstNonEmpty(req.EdgesPath, uc.input.EdgesPath)
	nodesPath := firstNonEmpty(req.NodesPath, uc.input.NodesPath)
	if trajectoryPath == "" || edgesPath == "" {
		return nil, fmt.Errorf("%w: trajectory and edges inputs are required", domain.ErrSchema)
	}

	log := uc.logger.With(zap.String("run_id", diag.RunID.String()))
	log.Info("Aggregation run started",
		zap.String("trajectories", trajectoryPath),
		zap.String("edges", edgesPath),
		zap.String("nodes", nodesPath))

	// 1. Загружаем входные данные
	batch, err := uc.trajectoryRepo.LoadTrajectories(ctx, trajectoryPath)
	if err != nil {
		return nil, fmt.Errorf("load trajectories: %w", err)
	}
	diag.PointsRead = batch.Rows
	diag.FormatErrors = batch.FormatErrors

	graph, err := uc.graphRepo.LoadGraph(ctx, edgesPath, nodesPath)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}

	// 2. Режем траектории на сегменты
	built := segment.NewBuilder(segment.BuilderConfig{
		MergeRevisits:    uc.pipeline.MergeRevisits,
		EdgeCutoffMeters: uc.pipeline.EdgeCutoffMeters,
		NodeCutoffMeters: uc.pipeline.NodeCutoffMeters,
	}, log).Build(batch.Points)
	diag.UnmatchedEdge = built.UnmatchedEdge
	diag.UnmatchedNode = built.UnmatchedNode

	// 3. Извлекаем метаданные сегментов
	extractor := segment.NewExtractor(graph, segment.ExtractorConfig{
		DistanceNormalized: uc.pipeline.DistanceNormalized,
		Workers:            uc.pipeline.Workers,
	}, log)
	edgeRows, err := extractor.ExtractEdges(ctx, built.Edges)
	if err != nil {
		return nil, fmt.Errorf("extract edge segments: %w", err)
	}
	nodeRows, err := extractor.ExtractNodes(ctx, built.Nodes)
	if err != nil {
		return nil, fmt.Errorf("extract node segments: %w", err)
	}
	diag.EdgeSegments = len(edgeRows)
	diag.NodeSegments = len(nodeRows)
	for _, r := range edgeRows {
		if r.Degraded {
			diag.DegradedSegments++
		}
	}
	for _, r := range nodeRows {
		if r.Degraded {
			diag.DegradedSegments++
		}
	}

	// 4. Агрегируем по элементам и временным корзинам
	aggregator := aggregate.NewAggregator(aggregate.Config{
		MinEdgeSegments:  uc.pipeline.MinEdgeSegments,
		MinNodeSegments:  uc.pipeline.MinNodeSegments,
		Alpha:            uc.pipeline.Alpha,
		IncludeEmptyBins: uc.pipeline.IncludeEmptyBins,
		Workers:          uc.pipeline.Workers,
	}, log)
	edgeAggs, err := aggregator.Edges(ctx, edgeRows)
	if err != nil {
		return nil, fmt.Errorf("aggregate edges: %w", err)
	}
	nodeAggs, err := aggregator.Nodes(ctx, nodeRows)
	if err != nil {
		return nil, fmt.Errorf("aggregate nodes: %w", err)
	}

	// 5. Собираем таблицы и сохраняем
	res := tables.NewBuilder(graph, log).Build(edgeAggs, nodeAggs)
	diag.EdgeJoinMisses = res.EdgeJoinMisses
	diag.NodeJoinMisses = res.NodeJoinMisses
	diag.EdgeRows = len(res.Tables.EdgeStructural)
	diag.NodeRows = len(res.Tables.NodeStructural)

	if err := uc.metadataRepo.SaveTables(ctx, &res.Tables); err != nil {
		return nil, fmt.Errorf("save tables: %w", err)
	}

	diag.Duration = time.Since(diag.StartedAt)
	if err := uc.metadataRepo.SaveRun(ctx, diag); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}

	// 6. Кеш: старые результаты запросов больше не верны
	if uc.cacheRepo != nil {
		if err := uc.cacheRepo.InvalidateQueries(ctx); err != nil {
			log.Warn("Failed to invalidate query cache", zap.Error(err))
		}
		if err := uc.cacheRepo.SetDiagnostics(ctx, diag, uc.runCacheTTL); err != nil {
			log.Warn("Failed to cache diagnostics", zap.Error(err))
		}
	}

	log.Info("Aggregation run finished",
		zap.Duration("duration", diag.Duration),
		zap.Int("points", diag.PointsRead),
		zap.Int("dropped", diag.Dropped()),
		zap.Int("degraded", diag.Degraded()),
		zap.Int("edge_rows", diag.EdgeRows),
		zap.Int("node_rows", diag.NodeRows))

	return &RecomputeResult{Tables: &res.Tables, Diagnostics: diag}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
