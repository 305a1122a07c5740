package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"theater-warehouse/internal/dto"
	"theater-warehouse/internal/entities"
	"theater-warehouse/internal/services"
	apperrors "theater-warehouse/pkg/errors"
	"theater-warehouse/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type EquipmentController struct {
	equipmentService services.EquipmentServiceInterface
	logger           *zap.Logger
}

func NewEquipmentController(service services.EquipmentServiceInterface, logger *zap.Logger) *EquipmentController {
	return &EquipmentController{equipmentService: service, logger: logger}
}

func (c *EquipmentController) GetEquipments(ctx echo.Context) error {
	filter, err := parseEquipmentFilter(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.equipmentService.GetEquipments(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Список оборудования получен", http.StatusOK)
}

func (c *EquipmentController) FindEquipment(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.equipmentService.FindEquipment(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Оборудование найдено", http.StatusOK)
}

func (c *EquipmentController) CreateEquipment(ctx echo.Context) error {
	var payload dto.CreateEquipmentDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат данных в теле запроса", err, nil), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.equipmentService.CreateEquipment(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Оборудование создано", http.StatusCreated)
}

func (c *EquipmentController) UpdateEquipment(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.UpdateEquipmentDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат данных в теле запроса", err, nil), c.logger)
	}

	res, err := c.equipmentService.UpdateEquipment(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Оборудование обновлено", http.StatusOK)
}

func (c *EquipmentController) DeleteEquipment(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.equipmentService.DeleteEquipment(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Оборудование удалено", http.StatusOK)
}

func (c *EquipmentController) MoveEquipment(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.MoveEquipmentDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат данных в теле запроса", err, nil), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.equipmentService.MoveEquipment(ctx.Request().Context(), id, payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Оборудование перемещено", http.StatusOK)
}

func (c *EquipmentController) GetMovements(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.equipmentService.GetMovements(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Журнал перемещений получен", http.StatusOK)
}

func (c *EquipmentController) ExportEquipment(ctx echo.Context) error {
	filter, err := parseEquipmentFilter(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	buf, err := c.equipmentService.ExportEquipment(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	fileName := fmt.Sprintf("equipment_%s.xlsx", time.Now().Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+fileName)
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (c *EquipmentController) ImportEquipment(ctx echo.Context) error {
	file, err := ctx.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "Файл не передан (поле file)", err, nil), c.logger)
	}
	src, err := file.Open()
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "Не удалось открыть файл", err, nil), c.logger)
	}
	defer src.Close()

	res, err := c.equipmentService.ImportEquipment(ctx.Request().Context(), src)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Импорт завершён", http.StatusOK)
}

func parseEquipmentFilter(ctx echo.Context) (entities.EquipmentFilter, error) {
	q := ctx.QueryParams()
	filter := entities.EquipmentFilter{Search: q.Get("search")}

	var err error
	if filter.CategoryID, err = utils.ParseOptionalUint(q, "category_id"); err != nil {
		return filter, err
	}
	if filter.SubcategoryID, err = utils.ParseOptionalUint(q, "subcategory_id"); err != nil {
		return filter, err
	}
	if s := utils.ParseOptionalString(q, "status"); s != nil {
		status := entities.Status(*s)
		filter.Status = &status
	}
	if s := utils.ParseOptionalString(q, "condition"); s != nil {
		condition := entities.Condition(*s)
		filter.Condition = &condition
	}
	filter.Performance = utils.ParseOptionalString(q, "performance")
	return filter, nil
}
