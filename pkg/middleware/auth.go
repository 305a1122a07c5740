package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"theater-warehouse/internal/authz"
	apperrors "theater-warehouse/pkg/errors"
	"theater-warehouse/pkg/utils"
)

// Authenticator превращает токен в действующего пользователя.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*authz.Actor, error)
}

type AuthMiddleware struct {
	authenticator Authenticator
	gatekeeper    *authz.Gatekeeper
	logger        *zap.Logger
}

func NewAuthMiddleware(authenticator Authenticator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator: authenticator,
		gatekeeper:    authz.NewGatekeeper(),
		logger:        logger,
	}
}

// Auth проверяет заголовок "Bearer <token>" и кладёт пользователя в контекст запроса.
func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return utils.ErrorResponse(c, apperrors.NewHttpError(http.StatusUnauthorized, "Требуется авторизация", apperrors.ErrEmptyAuthHeader, nil), m.logger)
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return utils.ErrorResponse(c, apperrors.NewHttpError(http.StatusUnauthorized, "Неверный формат заголовка Authorization", apperrors.ErrInvalidAuthHeader, nil), m.logger)
		}

		actor, err := m.authenticator.Authenticate(c.Request().Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			m.logger.Debug("AuthMiddleware: токен отклонён", zap.Error(err))
			return utils.ErrorResponse(c, apperrors.NewHttpError(http.StatusUnauthorized, "Недействительный токен", err, nil), m.logger)
		}

		ctx := utils.ContextWithActor(c.Request().Context(), actor)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// RequirePermission пропускает запрос, только если роль пользователя даёт capability.
func (m *AuthMiddleware) RequirePermission(capability authz.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, _ := utils.GetActorFromContext(c.Request().Context())
			if err := m.gatekeeper.Authorize(actor, capability); err != nil {
				return utils.ErrorResponse(c, err, m.logger)
			}
			return next(c)
		}
	}
}
