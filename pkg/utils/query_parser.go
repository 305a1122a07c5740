package utils

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "theater-warehouse/pkg/errors"
)

func ParseIDParam(c echo.Context, name string) (uint64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewHttpError(http.StatusBadRequest, fmt.Sprintf("Некорректный идентификатор: %q", raw), apperrors.ErrBadRequest, nil)
	}
	return id, nil
}

// ParseOptionalUint возвращает nil для отсутствующего или пустого параметра.
func ParseOptionalUint(values url.Values, key string) (*uint64, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, apperrors.NewHttpError(http.StatusBadRequest, fmt.Sprintf("Параметр %s должен быть числом", key), apperrors.ErrBadRequest, nil)
	}
	return &v, nil
}

func ParseOptionalString(values url.Values, key string) *string {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil
	}
	return &raw
}

// ParseLimit читает limit, подставляя fallback и ограничивая сверху значением max.
func ParseLimit(values url.Values, fallback, max int) int {
	limit := fallback
	if raw := values.Get("limit"); raw != "" {
		if l, err := strconv.Atoi(raw); err == nil && l > 0 {
			limit = l
		}
	}
	if max > 0 && limit > max {
		limit = max
	}
	return limit
}
