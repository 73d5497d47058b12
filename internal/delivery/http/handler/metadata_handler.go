package handler

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/map-metadata/internal/domain"
	"github.com/map-metadata/internal/pkg/errors"
	"github.com/map-metadata/internal/pkg/utils"
	"github.com/map-metadata/internal/pkg/validator"
	"github.com/map-metadata/internal/usecase/dto"
)

// MetadataQuerier - чтение таблиц последнего прогона
type MetadataQuerier interface {
	Query(ctx context.Context, req dto.QueryRequest) (*dto.QueryResponse, error)
	LatestRun(ctx context.Context) (*domain.Diagnostics, error)
	ClassifyTurn(ctx context.Context, req dto.TurnRequest) (*dto.TurnResponse, error)
}

// MetadataHandler обрабатывает пространственные запросы к таблицам метаданных
type MetadataHandler struct {
	queryUC MetadataQuerier
	logger  *zap.Logger
}

// NewMetadataHandler создает новый экземпляр MetadataHandler
func NewMetadataHandler(queryUC MetadataQuerier, logger *zap.Logger) *MetadataHandler {
	return &MetadataHandler{
		queryUC: queryUC,
		logger:  logger,
	}
}

// GetByPoint godoc
// @Summary Строки таблицы вокруг точки
// @Description Возвращает строки одной из четырёх таблиц, чьи координаты попадают в квадрат точка ± padding градусов
// @Tags Metadata
// @Produce json
// @Param table path string true "Таблица" Enums(edge_structural, edge_functional, node_structural, node_functional)
// @Param lat query number true "Широта"
// @Param lon query number true "Долгота"
// @Param padding query number false "Отступ в градусах" default(0.05)
// @Success 200 {object} utils.SuccessResponse{data=dto.QueryResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/metadata/{table} [get]
func (h *MetadataHandler) GetByPoint(c *fiber.Ctx) error {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat != nil || errLon != nil {
		return utils.SendError(c, errors.ErrInvalidRegion.WithMessage("lat and lon query parameters are required"))
	}

	req := dto.QueryRequest{
		Table: c.Params("table"),
		Region: dto.RegionRequest{
			Point: &dto.Point{Lat: lat, Lon: lon},
		},
	}
	if raw := c.Query("padding"); raw != "" {
		padding, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return utils.SendError(c, errors.ErrInvalidRegion.WithMessage("padding must be a number"))
		}
		req.Region.Padding = padding
	}

	return h.query(c, req)
}

// QueryRegion godoc
// @Summary Строки таблицы в области
// @Description Возвращает строки таблицы внутри области: точка с отступом или ограничивающий прямоугольник углов многоугольника
// @Tags Metadata
// @Accept json
// @Produce json
// @Param table path string true "Таблица" Enums(edge_structural, edge_functional, node_structural, node_functional)
// @Param request body dto.RegionRequest true "Область"
// @Success 200 {object} utils.SuccessResponse{data=dto.QueryResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/metadata/{table}/query [post]
func (h *MetadataHandler) QueryRegion(c *fiber.Ctx) error {
	var region dto.RegionRequest
	if err := c.BodyParser(&region); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithMessage("Invalid request body"))
	}

	return h.query(c, dto.QueryRequest{Table: c.Params("table"), Region: region})
}

func (h *MetadataHandler) query(c *fiber.Ctx, req dto.QueryRequest) error {
	if _, err := domain.ParseTableName(req.Table); err != nil {
		return utils.SendError(c, err)
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRegion.WithDetails(validator.FieldErrors(err)))
	}

	result, err := h.queryUC.Query(c.Context(), req)
	if err != nil {
		h.logger.Debug("Metadata query failed", zap.String("table", req.Table), zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total:  result.Count,
		Table:  string(result.Table),
		RunID:  result.RunID.String(),
		Cached: result.Cached,
	})
}

// ClassifyTurn godoc
// @Summary Классификация поворота на ребре
// @Description Классифицирует поворот между курсами from и to (right, left, ahead, u_turn, none) и возвращает направленность ребра из последнего прогона
// @Tags Metadata
// @Produce json
// @Param edge path string true "Ребро в форме u-v-key"
// @Param from query number true "Курс въезда, градусы [0, 360)"
// @Param to query number true "Курс выезда, градусы [0, 360)"
// @Success 200 {object} utils.SuccessResponse{data=dto.TurnResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/edges/{edge}/turns [get]
func (h *MetadataHandler) ClassifyTurn(c *fiber.Ctx) error {
	from, errFrom := strconv.ParseFloat(c.Query("from"), 64)
	to, errTo := strconv.ParseFloat(c.Query("to"), 64)
	if errFrom != nil || errTo != nil {
		return utils.SendError(c, errors.ErrInvalidHeading.WithMessage("from and to query parameters are required"))
	}

	req := dto.TurnRequest{Edge: c.Params("edge"), From: from, To: to}
	if _, err := domain.ParseEdgeID(req.Edge); err != nil {
		return utils.SendError(c, errors.ErrInvalidEdge.WithDetails(map[string]interface{}{"edge": req.Edge}))
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidHeading.WithDetails(validator.FieldErrors(err)))
	}

	result, err := h.queryUC.ClassifyTurn(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, nil)
}
