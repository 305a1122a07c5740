package controllers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "theater-warehouse/pkg/errors"
	"theater-warehouse/pkg/utils"
)

type HealthController struct {
	ping   func(ctx context.Context) error
	logger *zap.Logger
}

func NewHealthController(ping func(ctx context.Context) error, logger *zap.Logger) *HealthController {
	return &HealthController{ping: ping, logger: logger}
}

func (c *HealthController) Health(ctx echo.Context) error {
	if c.ping != nil {
		if err := c.ping(ctx.Request().Context()); err != nil {
			return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusServiceUnavailable, "Хранилище недоступно", err, nil), c.logger)
		}
	}
	return utils.SuccessResponse(ctx, map[string]string{"status": "ok"}, "Сервис работает", http.StatusOK)
}
