package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"theater-warehouse/internal/repositories"
	"theater-warehouse/internal/repositories/memory"
	"theater-warehouse/internal/routes"
	"theater-warehouse/pkg/config"
	"theater-warehouse/pkg/database/postgresql"
)

// openStorage выбирает бэкенд по STORAGE_DRIVER. Возвращаемая функция закрывает соединения.
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (routes.Repositories, func(), error) {
	var repos routes.Repositories
	closers := []func(){}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		pool, err := postgresql.ConnectDB(ctx, cfg.Postgres, logger)
		if err != nil {
			return repos, closeAll, err
		}
		closers = append(closers, pool.Close)

		if cfg.Postgres.AutoMigrate {
			if err := postgresql.Migrate(ctx, pool); err != nil {
				return repos, closeAll, err
			}
			logger.Info("миграции применены")
		}

		repos.Categories = repositories.NewCategoryRepository(pool, logger.Named("categories"))
		repos.Equipment = repositories.NewEquipmentRepository(pool, logger.Named("equipment"))
		repos.History = repositories.NewHistoryRepository(pool, logger.Named("history"))
		repos.Movements = repositories.NewMovementRepository(pool, logger.Named("movements"))
		repos.Users = repositories.NewUserRepository(pool, logger.Named("users"))
		repos.Ping = pool.Ping
	case config.StorageMemory:
		store := memory.New()
		repos.Categories = store
		repos.Equipment = store
		repos.History = store
		repos.Movements = store
		repos.Users = store
		logger.Warn("используется хранилище в памяти: данные не переживут перезапуск")
	default:
		return repos, closeAll, fmt.Errorf("неизвестный STORAGE_DRIVER %q", cfg.Storage.Driver)
	}

	if cfg.Redis.Address != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if _, err := client.Ping(ctx).Result(); err != nil {
			_ = client.Close()
			return repos, closeAll, fmt.Errorf("не удалось подключиться к Redis %s: %w", cfg.Redis.Address, err)
		}
		closers = append(closers, func() { _ = client.Close() })
		repos.Cache = repositories.NewRedisCacheRepository(client)
		logger.Info("кэш: Redis", zap.String("address", cfg.Redis.Address))
	} else {
		repos.Cache = repositories.NewMemoryCacheRepository()
	}

	return repos, closeAll, nil
}
