package routes

import (
	"github.com/labstack/echo/v4"

	"theater-warehouse/internal/controllers"
)

func runFeedRouter(api *echo.Group, ctrl *controllers.FeedController) {
	api.GET("/ws/history", ctrl.ServeFeed)
}
