package routes

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"theater-warehouse/internal/authz"
	"theater-warehouse/internal/controllers"
	"theater-warehouse/internal/listeners"
	"theater-warehouse/internal/repositories"
	"theater-warehouse/internal/services"
	"theater-warehouse/pkg/config"
	"theater-warehouse/pkg/eventbus"
	"theater-warehouse/pkg/metrics"
	"theater-warehouse/pkg/middleware"
	"theater-warehouse/pkg/service"
	"theater-warehouse/pkg/websocket"
)

type Loggers struct {
	Main      *zap.Logger
	Auth      *zap.Logger
	Category  *zap.Logger
	Equipment *zap.Logger
	History   *zap.Logger
}

// Repositories - выбранный бэкенд хранения (postgres или memory) и кэш.
type Repositories struct {
	Categories repositories.CategoryRepositoryInterface
	Equipment  repositories.EquipmentRepositoryInterface
	History    repositories.HistoryRepositoryInterface
	Movements  repositories.MovementRepositoryInterface
	Users      repositories.UserRepositoryInterface
	Cache      repositories.CacheRepositoryInterface
	Ping       func(ctx context.Context) error
}

type Observability struct {
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// Realtime - шина событий и хаб живой ленты. Без них лента не регистрируется.
type Realtime struct {
	Bus *eventbus.Bus
	Hub *websocket.Hub
}

func InitRouter(e *echo.Echo, repos Repositories, jwtSvc service.JWTService, obs Observability, rt Realtime, loggers *Loggers, cfg *config.Config) {
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	// --- 1. СЕРВИСЫ ---
	pipeline := services.NewMutationPipeline(authz.NewGatekeeper(), repos.History, obs.Metrics, loggers.Main)
	if rt.Bus != nil {
		pipeline.WithEventBus(rt.Bus)
	}
	authService := services.NewAuthService(repos.Users, repos.Cache, jwtSvc, pipeline, cfg.Auth, loggers.Auth)
	categoryService := services.NewCategoryService(repos.Categories, pipeline, repos.Cache, cfg.Redis.TTL, loggers.Category)
	equipmentService := services.NewEquipmentService(repos.Equipment, repos.Categories, repos.Movements, pipeline, repos.Cache, loggers.Equipment)
	historyService := services.NewHistoryService(repos.History, cfg.History.MaxRows, cfg.History.RecentDefault, loggers.History)

	// --- 2. КОНТРОЛЛЕРЫ ---
	authController := controllers.NewAuthController(authService, loggers.Auth)
	categoryController := controllers.NewCategoryController(categoryService, loggers.Category)
	equipmentController := controllers.NewEquipmentController(equipmentService, loggers.Equipment)
	historyController := controllers.NewHistoryController(historyService, pipeline, loggers.History)
	healthController := controllers.NewHealthController(repos.Ping, loggers.Main)

	// --- 3. РОУТЕРЫ ---
	authMW := middleware.NewAuthMiddleware(authService, loggers.Auth)
	api := e.Group("/api")
	secureGroup := api.Group("", authMW.Auth)

	runHealthRouter(e, healthController, obs.Gatherer)
	runAuthRouter(api, secureGroup, authController, authMW, cfg)
	runCategoryRouter(secureGroup, categoryController, authMW)
	runEquipmentRouter(secureGroup, equipmentController, authMW)
	runHistoryRouter(secureGroup, historyController, authMW)

	if rt.Bus != nil && rt.Hub != nil {
		listeners.NewFeedListener(rt.Hub, loggers.History).Register(rt.Bus)
		runFeedRouter(api, controllers.NewFeedController(rt.Hub, authService, cfg.Server.CORSOrigins, loggers.History))
	}

	loggers.Main.Info("InitRouter: Создание маршрутов завершено")
}
