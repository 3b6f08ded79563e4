package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"quizhub/internal/config"
	"quizhub/internal/database"
	"quizhub/internal/domain"
	"quizhub/internal/logger"
	"quizhub/internal/repository"
	"quizhub/internal/service"
)

// Intended to run once a day from cron; granting is idempotent per
// calendar day, so re-runs are safe.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	db, err := database.NewSQLXOracleDB(cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	userRepository := repository.NewSQLXUserRepository(db)
	profileRepository := repository.NewProfileDatabaseAdapter(db)
	catalogRepository := repository.NewCatalogDatabaseAdapter(db)
	bookmarkRepository := repository.NewBookmarkDatabaseAdapter(db)

	profileService := service.NewProfileService(userRepository, profileRepository, catalogRepository, bookmarkRepository, domain.SystemClock{})

	granted, err := profileService.GrantDailyTokensToAll(context.Background())
	if err != nil {
		appLogger.Fatal("Daily token grant failed", zap.Error(err))
	}
	appLogger.Info("Daily token grant completed", zap.Int("granted", granted))
}
