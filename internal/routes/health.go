package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"theater-warehouse/internal/controllers"
)

func runHealthRouter(e *echo.Echo, ctrl *controllers.HealthController, gatherer prometheus.Gatherer) {
	e.GET("/health", ctrl.Health)
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}
