package routes

import (
	"github.com/labstack/echo/v4"

	"theater-warehouse/internal/authz"
	"theater-warehouse/internal/controllers"
	"theater-warehouse/pkg/middleware"
)

func runCategoryRouter(secureGroup *echo.Group, ctrl *controllers.CategoryController, authMW *middleware.AuthMiddleware) {
	categories := secureGroup.Group("/categories")

	categories.GET("", ctrl.GetCategories, authMW.RequirePermission(authz.Read))
	categories.GET("/:id", ctrl.FindCategory, authMW.RequirePermission(authz.Read))
	categories.POST("", ctrl.CreateCategory, authMW.RequirePermission(authz.ManageCategories))
	categories.PUT("/:id", ctrl.UpdateCategory, authMW.RequirePermission(authz.ManageCategories))
	categories.DELETE("/:id", ctrl.DeleteCategory, authMW.RequirePermission(authz.ManageCategories))
}
