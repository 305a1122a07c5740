package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"theater-warehouse/pkg/metrics"
	"theater-warehouse/pkg/utils"
)

// RequestID берёт X-Request-ID клиента или выдаёт новый и прокидывает его в контекст.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			c.SetRequest(c.Request().WithContext(utils.ContextWithRequestID(c.Request().Context(), id)))
			return next(c)
		}
	}
}

// RequestLogger пишет одну строку на запрос и обновляет HTTP-метрики.
func RequestLogger(logger *zap.Logger, m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			elapsed := time.Since(start)
			status := c.Response().Status
			route := c.Path()
			m.ObserveHTTP(c.Request().Method, route, status, elapsed)

			fields := []zap.Field{
				zap.String("requestID", utils.GetRequestIDFromContext(c.Request().Context())),
				zap.String("method", c.Request().Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("elapsed", elapsed),
			}
			if status >= 500 {
				logger.Warn("запрос", fields...)
			} else {
				logger.Info("запрос", fields...)
			}
			return nil
		}
	}
}
