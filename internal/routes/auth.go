package routes

import (
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"theater-warehouse/internal/authz"
	"theater-warehouse/internal/controllers"
	"theater-warehouse/pkg/config"
	"theater-warehouse/pkg/middleware"
)

func runAuthRouter(api, secureGroup *echo.Group, ctrl *controllers.AuthController, authMW *middleware.AuthMiddleware, cfg *config.Config) {
	users := api.Group("/users")
	users.POST("/login", ctrl.Login, loginRateLimiter(cfg.Auth))
	users.POST("/register", ctrl.Register, loginRateLimiter(cfg.Auth))

	secureUsers := secureGroup.Group("/users")
	secureUsers.GET("/me", ctrl.Me)
	secureUsers.GET("", ctrl.GetUsers, authMW.RequirePermission(authz.ManageUsers))
	secureUsers.PUT("/:id/role", ctrl.UpdateUserRole, authMW.RequirePermission(authz.ManageUsers))
}

// loginRateLimiter ограничивает частоту запросов входа с одного IP. Нулевая частота отключает ограничение.
func loginRateLimiter(cfg config.AuthConfig) echo.MiddlewareFunc {
	if cfg.LoginRatePerSec <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.LoginRatePerSec),
		Burst:     max(1, int(cfg.LoginRatePerSec*2)),
		ExpiresIn: 3 * time.Minute,
	})
	return echomw.RateLimiter(store)
}
