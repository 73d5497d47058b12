package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/map-metadata/internal/domain"
	"github.com/map-metadata/internal/domain/repository"
	"github.com/map-metadata/internal/pkg/errors"
	"github.com/map-metadata/internal/pkg/utils"
	"github.com/map-metadata/internal/usecase"
	"github.com/map-metadata/internal/usecase/dto"
)

// Recomputer - запуск прогона агрегации
type Recomputer interface {
	Recompute(ctx context.Context, req dto.RecomputeRequest) (*usecase.RecomputeResult, error)
}

// RunHandler запускает прогоны агрегации и отдаёт их диагностику
type RunHandler struct {
	aggregationUC Recomputer
	queryUC       MetadataQuerier
	publisher     repository.StreamPublisher
	logger        *zap.Logger
}

// NewRunHandler создает новый экземпляр RunHandler. publisher может быть nil -
// тогда асинхронный запуск недоступен.
func NewRunHandler(
	aggregationUC Recomputer,
	queryUC MetadataQuerier,
	publisher repository.StreamPublisher,
	logger *zap.Logger,
) *RunHandler {
	return &RunHandler{
		aggregationUC: aggregationUC,
		queryUC:       queryUC,
		publisher:     publisher,
		logger:        logger,
	}
}

// AsyncRunResponse - ответ на асинхронный запуск
type AsyncRunResponse struct {
	RunID  uuid.UUID `json:"run_id"`
	Stream string    `json:"stream"`
}

// Recompute godoc
// @Summary Пересчёт метаданных
// @Description Запускает полный прогон: чтение траекторий и графа, сегменты, агрегация, четыре таблицы. С async=true событие публикуется в Redis Stream и обрабатывается воркером.
// @Tags Runs
// @Accept json
// @Produce json
// @Param request body dto.RecomputeRequest false "Пути к входным файлам; пустые берутся из конфигурации"
// @Param async query bool false "Поставить прогон в очередь воркера"
// @Success 200 {object} utils.SuccessResponse{data=dto.RecomputeResponse}
// @Success 202 {object} utils.SuccessResponse{data=AsyncRunResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/runs [post]
func (h *RunHandler) Recompute(c *fiber.Ctx) error {
	var req dto.RecomputeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, errors.ErrInvalidRequest.WithMessage("Invalid request body"))
		}
	}

	if c.QueryBool("async", false) {
		return h.enqueue(c, req)
	}

	start := time.Now()
	result, err := h.aggregationUC.Recompute(c.Context(), req)
	if err != nil {
		h.logger.Error("Aggregation run failed", zap.Error(err))
		return utils.SendError(c, err)
	}

	diag := result.Diagnostics
	return utils.SendSuccess(c, dto.RecomputeResponse{
		Diagnostics: diag,
		Dropped:     diag.Dropped(),
		Degraded:    diag.Degraded(),
		Tables:      dto.CountTables(result.Tables),
	}, &utils.Meta{
		RunID:    diag.RunID.String(),
		TimeMSec: float64(time.Since(start).Microseconds()) / 1000,
	})
}

func (h *RunHandler) enqueue(c *fiber.Ctx, req dto.RecomputeRequest) error {
	if h.publisher == nil {
		return utils.SendError(c, errors.ErrStreamUnavailable)
	}
	if req.RunID == uuid.Nil {
		req.RunID = uuid.New()
	}

	event := domain.RecomputeEvent{
		RunID:          req.RunID,
		TrajectoryPath: req.TrajectoryPath,
		EdgesPath:      req.EdgesPath,
		NodesPath:      req.NodesPath,
	}
	if err := h.publisher.PublishToStream(c.Context(), domain.StreamMetadataRecompute, event); err != nil {
		h.logger.Error("Failed to enqueue aggregation run", zap.Error(err))
		return utils.SendError(c, err)
	}

	h.logger.Info("Aggregation run enqueued", zap.String("run_id", req.RunID.String()))
	c.Status(fiber.StatusAccepted)
	return utils.SendSuccess(c, AsyncRunResponse{
		RunID:  req.RunID,
		Stream: domain.StreamMetadataRecompute,
	}, nil)
}

// LatestRun godoc
// @Summary Диагностика последнего прогона
// @Description Возвращает счётчики последнего прогона: прочитанные точки, ошибки формата, отброшенные и деградировавшие сегменты
// @Tags Runs
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=domain.Diagnostics}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/runs/latest [get]
func (h *RunHandler) LatestRun(c *fiber.Ctx) error {
	diag, err := h.queryUC.LatestRun(c.Context())
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, diag, &utils.Meta{RunID: diag.RunID.String()})
}
