package routes

import (
	"github.com/labstack/echo/v4"

	"theater-warehouse/internal/authz"
	"theater-warehouse/internal/controllers"
	"theater-warehouse/pkg/middleware"
)

func runEquipmentRouter(secureGroup *echo.Group, ctrl *controllers.EquipmentController, authMW *middleware.AuthMiddleware) {
	equipment := secureGroup.Group("/equipment")

	equipment.GET("", ctrl.GetEquipments, authMW.RequirePermission(authz.Read))
	equipment.GET("/export", ctrl.ExportEquipment, authMW.RequirePermission(authz.Read))
	equipment.POST("/import", ctrl.ImportEquipment, authMW.RequirePermission(authz.Write))
	equipment.GET("/:id", ctrl.FindEquipment, authMW.RequirePermission(authz.Read))
	equipment.GET("/:id/movements", ctrl.GetMovements, authMW.RequirePermission(authz.Read))
	equipment.POST("", ctrl.CreateEquipment, authMW.RequirePermission(authz.Write))
	equipment.PUT("/:id", ctrl.UpdateEquipment, authMW.RequirePermission(authz.Write))
	equipment.POST("/:id/move", ctrl.MoveEquipment, authMW.RequirePermission(authz.Write))
	equipment.DELETE("/:id", ctrl.DeleteEquipment, authMW.RequirePermission(authz.Delete))
}
