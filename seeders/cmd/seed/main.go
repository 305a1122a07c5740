package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"theater-warehouse/internal/repositories"
	"theater-warehouse/pkg/config"
	"theater-warehouse/pkg/database/postgresql"
	applogger "theater-warehouse/pkg/logger"
	"theater-warehouse/seeders"
)

func main() {
	migrate := flag.Bool("migrate", false, "Применить миграции перед наполнением")
	runAdmin := flag.Bool("admin", false, "Создать администратора по умолчанию")
	runDemo := flag.Bool("demo", false, "Создать администратора, демо-категории и демо-оборудование")
	flag.Parse()

	if !*migrate && !*runAdmin && !*runDemo {
		log.Println("Не выбран ни один сидер. Доступные флаги:")
		flag.PrintDefaults()
		log.Println("Пример: go run ./seeders/cmd/seed -migrate -demo")
		return
	}

	cfg := config.New()
	logger := applogger.NewLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()
	ctx := context.Background()

	pool, err := postgresql.ConnectDB(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("нет подключения к БД", zap.Error(err))
	}
	defer pool.Close()

	if *migrate {
		if err := postgresql.Migrate(ctx, pool); err != nil {
			logger.Fatal("ошибка миграций", zap.Error(err))
		}
		logger.Info("миграции применены")
	}

	if *runAdmin || *runDemo {
		repos := seeders.Repositories{
			Categories: repositories.NewCategoryRepository(pool, logger),
			Equipment:  repositories.NewEquipmentRepository(pool, logger),
			Users:      repositories.NewUserRepository(pool, logger),
		}
		if err := seeders.SeedAll(ctx, repos, cfg.Auth.BcryptCost, *runDemo, logger); err != nil {
			logger.Fatal("ошибка наполнения", zap.Error(err))
		}
	}
	logger.Info("наполнение завершено")
}
