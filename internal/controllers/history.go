package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"theater-warehouse/internal/services"
	"theater-warehouse/pkg/utils"
)

type HistoryController struct {
	historyService services.HistoryServiceInterface
	audits         services.AuditRetrierInterface
	logger         *zap.Logger
}

func NewHistoryController(service services.HistoryServiceInterface, audits services.AuditRetrierInterface, logger *zap.Logger) *HistoryController {
	return &HistoryController{historyService: service, audits: audits, logger: logger}
}

func (c *HistoryController) GetHistory(ctx echo.Context) error {
	q := ctx.QueryParams()
	equipmentID, err := utils.ParseOptionalUint(q, "equipment_id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	userID, err := utils.ParseOptionalUint(q, "user_id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return c.respond(ctx, equipmentID, userID)
}

func (c *HistoryController) GetRecent(ctx echo.Context) error {
	// 0 - значение по умолчанию сервиса
	limit := utils.ParseLimit(ctx.QueryParams(), 0, 0)
	res, err := c.historyService.GetRecent(ctx.Request().Context(), limit)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Последние изменения получены", http.StatusOK)
}

func (c *HistoryController) GetEquipmentHistory(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return c.respond(ctx, &id, nil)
}

func (c *HistoryController) GetUserHistory(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return c.respond(ctx, nil, &id)
}

func (c *HistoryController) respond(ctx echo.Context, equipmentID, userID *uint64) error {
	res, err := c.historyService.GetHistory(ctx.Request().Context(), equipmentID, userID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "История изменений получена", http.StatusOK)
}

func (c *HistoryController) GetPendingAudits(ctx echo.Context) error {
	res, err := c.audits.PendingAudits(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Незаписанные изменения получены", http.StatusOK)
}

func (c *HistoryController) RetryAudit(ctx echo.Context) error {
	entry, err := c.audits.RetryPendingAudit(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, entry, "Запись истории добавлена", http.StatusOK)
}
