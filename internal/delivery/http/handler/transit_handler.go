package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/efa-transit/internal/pkg/errors"
	"github.com/efa-transit/internal/pkg/utils"
	"github.com/efa-transit/internal/pkg/validator"
	"github.com/efa-transit/internal/usecase"
	"github.com/efa-transit/internal/usecase/dto"
)

var errInvalidBody = errors.ErrInvalidRequest.WithMessage("Invalid request body")

// TransitHandler - обработчик запросов к серверу EFA
type TransitHandler struct {
	transitUC *usecase.TransitUseCase
	boardUC   *usecase.BoardUseCase
	provider  string
	logger    *zap.Logger
}

// NewTransitHandler - создание нового TransitHandler
func NewTransitHandler(transitUC *usecase.TransitUseCase, boardUC *usecase.BoardUseCase, provider string, logger *zap.Logger) *TransitHandler {
	return &TransitHandler{
		transitUC: transitUC,
		boardUC:   boardUC,
		provider:  provider,
		logger:    logger,
	}
}

// Suggest godoc
// @Summary Автодополнение локаций
// @Description Подсказки станций, адресов и POI по началу названия. Порядок задается сервером, результаты кешируются в Redis.
// @Tags Locations
// @Produce json
// @Param q query string true "Текст запроса"
// @Success 200 {object} utils.SuccessResponse{data=dto.SuggestResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/locations/suggest [get]
func (h *TransitHandler) Suggest(c *fiber.Ctx) error {
	req := dto.SuggestRequest{Query: strings.TrimSpace(c.Query("q"))}
	if err := validator.ValidateRequest(&req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.transitUC.Suggest(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total:    len(result.Locations),
		Status:   string(result.Status),
		Provider: h.provider,
		Cached:   result.Cached,
	})
}

// NearbyStations godoc
// @Summary Ближайшие остановки
// @Description Остановки рядом со станцией (по id) или координатой. Расстояние считается, если у обеих точек есть координаты.
// @Tags Stations
// @Accept json
// @Produce json
// @Param request body dto.NearbyStationsRequest true "Станция или координата"
// @Success 200 {object} utils.SuccessResponse{data=dto.NearbyStationsResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/stations/nearby [post]
func (h *TransitHandler) NearbyStations(c *fiber.Ctx) error {
	var req dto.NearbyStationsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errInvalidBody)
	}

	if err := validator.ValidateRequest(&req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.transitUC.NearbyStations(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total:    len(result.Stations),
		Status:   string(result.Status),
		Provider: h.provider,
	})
}

// Departures godoc
// @Summary Табло станции
// @Description Отправления со станции, сгруппированные по физическим остановкам. equivs=true включает соседние остановки.
// @Tags Stations
// @Produce json
// @Param id path int true "ID станции"
// @Param limit query int false "Максимум отправлений"
// @Param equivs query bool false "Включать эквивалентные остановки" default(false)
// @Success 200 {object} utils.SuccessResponse{data=dto.DeparturesResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/stations/{id}/departures [get]
func (h *TransitHandler) Departures(c *fiber.Ctx) error {
	var req dto.DeparturesRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithMessage("Invalid query parameters"))
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithMessage("Invalid station id"))
	}
	req.StationID = id

	if err := validator.ValidateRequest(&req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.transitUC.Departures(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total:    result.TotalDepartures(),
		Status:   string(result.Status),
		Provider: h.provider,
	})
}

// NearbyDepartures godoc
// @Summary Табло ближайших остановок
// @Description Находит ближайшие остановки и параллельно запрашивает их табло. Ошибка одного табло не прерывает остальные.
// @Tags Stations
// @Accept json
// @Produce json
// @Param request body dto.NearbyDeparturesRequest true "Станция или координата и параметры табло"
// @Success 200 {object} utils.SuccessResponse{data=dto.NearbyDeparturesResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/stations/nearby/departures [post]
func (h *TransitHandler) NearbyDepartures(c *fiber.Ctx) error {
	var req dto.NearbyDeparturesRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errInvalidBody)
	}

	if err := validator.ValidateRequest(&req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.boardUC.NearbyDepartures(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total:    len(result.Boards),
		Status:   string(result.Status),
		Provider: h.provider,
	})
}

// Connections godoc
// @Summary Поиск маршрута
// @Description Маршруты между двумя локациями с необязательной промежуточной. Возвращает токен context для запроса более ранних или поздних вариантов.
// @Tags Connections
// @Accept json
// @Produce json
// @Param request body dto.ConnectionsRequest true "Параметры поиска"
// @Success 200 {object} utils.SuccessResponse{data=dto.ConnectionsResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/connections [post]
func (h *TransitHandler) Connections(c *fiber.Ctx) error {
	var req dto.ConnectionsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errInvalidBody)
	}

	if err := validator.ValidateRequest(&req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.transitUC.Connections(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total:    len(result.Connections),
		Status:   string(result.Status),
		Provider: h.provider,
	})
}

// MoreConnections godoc
// @Summary Более ранние или поздние маршруты
// @Description Продолжение поиска по токену context. Токен одноразовый: повторное использование возвращает SESSION_EXPIRED.
// @Tags Connections
// @Accept json
// @Produce json
// @Param request body dto.MoreConnectionsRequest true "Токен и направление"
// @Success 200 {object} utils.SuccessResponse{data=dto.ConnectionsResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 410 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/connections/more [post]
func (h *TransitHandler) MoreConnections(c *fiber.Ctx) error {
	var req dto.MoreConnectionsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errInvalidBody)
	}

	if err := validator.ValidateRequest(&req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.transitUC.MoreConnections(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total:    len(result.Connections),
		Status:   string(result.Status),
		Provider: h.provider,
	})
}
