package utils

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "theater-warehouse/pkg/errors"
)

type HTTPResponse struct {
	Status  bool        `json:"status"`
	Body    interface{} `json:"body,omitempty"`
	Message string      `json:"message"`
}

type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func SuccessResponse(ctx echo.Context, body interface{}, message string, code int) error {
	return ctx.JSON(code, &HTTPResponse{
		Status:  true,
		Body:    body,
		Message: message,
	})
}

// ErrorResponse переводит ошибку любого слоя в JSON-ответ с человекочитаемым сообщением.
func ErrorResponse(ctx echo.Context, err error, logger *zap.Logger) error {
	code := apperrors.StatusCode(err)
	message := defaultMessage(code)
	var body interface{}

	var httpErr *apperrors.HttpError
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &httpErr):
		message = httpErr.Message
		body = httpErr.Details
	case errors.As(err, &validationErrs):
		code = http.StatusBadRequest
		message = "Ошибка валидации входных данных"
		fields := make([]FieldError, 0, len(validationErrs))
		for _, fe := range validationErrs {
			fields = append(fields, FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
		}
		body = fields
	case code < http.StatusInternalServerError:
		message = err.Error()
	}

	if logger != nil {
		fields := []zap.Field{
			zap.Int("status", code),
			zap.String("method", ctx.Request().Method),
			zap.String("path", ctx.Path()),
			zap.Error(err),
		}
		if code >= http.StatusInternalServerError {
			logger.Error("Ошибка обработки запроса", fields...)
		} else {
			logger.Debug("Запрос отклонён", fields...)
		}
	}

	return ctx.JSON(code, &HTTPResponse{
		Status:  false,
		Body:    body,
		Message: message,
	})
}

func defaultMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "Неверный запрос"
	case http.StatusUnauthorized:
		return "Требуется авторизация"
	case http.StatusForbidden:
		return "Доступ запрещён"
	case http.StatusNotFound:
		return "Запись не найдена"
	case http.StatusConflict:
		return "Конфликт данных"
	case http.StatusTooManyRequests:
		return "Слишком много запросов"
	default:
		return "Внутренняя ошибка сервера"
	}
}
