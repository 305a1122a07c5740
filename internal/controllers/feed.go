package controllers

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"theater-warehouse/internal/authz"
	apperrors "theater-warehouse/pkg/errors"
	"theater-warehouse/pkg/middleware"
	"theater-warehouse/pkg/utils"
	"theater-warehouse/pkg/websocket"
)

type FeedController struct {
	hub           *websocket.Hub
	authenticator middleware.Authenticator
	gatekeeper    *authz.Gatekeeper
	upgrader      gorillaws.Upgrader
	logger        *zap.Logger
}

func NewFeedController(hub *websocket.Hub, authenticator middleware.Authenticator, allowedOrigins []string, logger *zap.Logger) *FeedController {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}
	return &FeedController{
		hub:           hub,
		authenticator: authenticator,
		gatekeeper:    authz.NewGatekeeper(),
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
		logger: logger,
	}
}

// ServeFeed - живая лента истории. Браузер не умеет передать заголовок при апгрейде, поэтому токен в ?token=.
func (c *FeedController) ServeFeed(ctx echo.Context) error {
	token := ctx.QueryParam("token")
	if token == "" {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusUnauthorized, "Требуется авторизация", apperrors.ErrEmptyAuthHeader, nil), c.logger)
	}
	actor, err := c.authenticator.Authenticate(ctx.Request().Context(), token)
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusUnauthorized, "Недействительный токен", err, nil), c.logger)
	}
	if err := c.gatekeeper.Authorize(actor, authz.Read); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	conn, err := c.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		c.logger.Warn("лента: не удалось открыть websocket", zap.Error(err))
		return nil
	}

	client := websocket.NewClient(c.hub, conn, actor.UserID)
	if !c.hub.Register(client) {
		_ = conn.Close()
		return nil
	}
	go client.WritePump()
	go client.ReadPump()

	c.logger.Info("лента: клиент подключён", zap.Uint64("userID", actor.UserID))
	return nil
}
