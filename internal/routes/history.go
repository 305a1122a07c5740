package routes

import (
	"github.com/labstack/echo/v4"

	"theater-warehouse/internal/authz"
	"theater-warehouse/internal/controllers"
	"theater-warehouse/pkg/middleware"
)

func runHistoryRouter(secureGroup *echo.Group, ctrl *controllers.HistoryController, authMW *middleware.AuthMiddleware) {
	history := secureGroup.Group("/history", authMW.RequirePermission(authz.Read))

	history.GET("", ctrl.GetHistory)
	history.GET("/recent", ctrl.GetRecent)
	history.GET("/equipment/:id", ctrl.GetEquipmentHistory)
	history.GET("/user/:id", ctrl.GetUserHistory)
	history.GET("/pending", ctrl.GetPendingAudits, authMW.RequirePermission(authz.Write))
	history.POST("/retry/:id", ctrl.RetryAudit, authMW.RequirePermission(authz.Write))
}
