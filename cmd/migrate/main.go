package main

import (
	"log"

	"go.uber.org/zap"

	"quizhub/internal/config"
	"quizhub/internal/database"
	"quizhub/internal/logger"
)

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

	db, err := database.NewMigrateOracleDB(cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(db, "database/migrations"); err != nil {
		appLogger.Fatal("Migration failed", zap.Error(err))
	}
	appLogger.Info("Migrations applied successfully")
}
