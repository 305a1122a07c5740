package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"theater-warehouse/internal/routes"
	"theater-warehouse/pkg/config"
	"theater-warehouse/pkg/customvalidator"
	apperrors "theater-warehouse/pkg/errors"
	"theater-warehouse/pkg/eventbus"
	applogger "theater-warehouse/pkg/logger"
	"theater-warehouse/pkg/metrics"
	appmw "theater-warehouse/pkg/middleware"
	"theater-warehouse/pkg/service"
	"theater-warehouse/pkg/utils"
	"theater-warehouse/pkg/websocket"
	"theater-warehouse/seeders"
)

func main() {
	cfg := config.New()
	logger := applogger.NewLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("обнаружена паника",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				httpErr := apperrors.NewHttpError(http.StatusInternalServerError, "Внутренняя ошибка сервера", err, nil)
				_ = utils.ErrorResponse(c, httpErr, logger)
			}
			return err
		},
	}))
	e.Use(appmw.RequestID())
	e.Use(appmw.RequestLogger(logger.Named("http"), appMetrics))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderXRequestID},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderContentDisposition, echo.HeaderXRequestID},
	}))

	v := validator.New()
	if err := customvalidator.RegisterCustomValidations(v); err != nil {
		logger.Fatal("ошибка регистрации правил валидации", zap.Error(err))
	}
	e.Validator = utils.NewValidator(v)

	repos, closeStorage, err := openStorage(ctx, cfg, logger)
	defer closeStorage()
	if err != nil {
		logger.Fatal("не удалось открыть хранилище", zap.Error(err))
	}

	if err := seeders.SeedAll(ctx, seeders.Repositories{
		Categories: repos.Categories,
		Equipment:  repos.Equipment,
		Users:      repos.Users,
	}, cfg.Auth.BcryptCost, cfg.Seed.Demo, logger.Named("seed")); err != nil {
		logger.Fatal("ошибка начального наполнения", zap.Error(err))
	}

	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, logger.Named("jwt"))

	bus := eventbus.New(logger.Named("events"))
	hub := websocket.NewHub(logger.Named("feed"))
	go hub.Run(ctx)

	loggers := &routes.Loggers{
		Main:      logger,
		Auth:      logger.Named("auth"),
		Category:  logger.Named("categories"),
		Equipment: logger.Named("equipment"),
		History:   logger.Named("history"),
	}
	routes.InitRouter(e, repos, jwtSvc,
		routes.Observability{Metrics: appMetrics, Gatherer: registry},
		routes.Realtime{Bus: bus, Hub: hub},
		loggers, cfg)

	go func() {
		logger.Info("сервер запущен", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Driver))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("ошибка запуска сервера", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("остановка сервера")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("ошибка остановки сервера", zap.Error(err))
	}
	bus.Wait()
}
