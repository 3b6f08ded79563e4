package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"quizhub/internal/config"
	"quizhub/internal/database"
	"quizhub/internal/importer"
	"quizhub/internal/logger"
	"quizhub/internal/repository"
)

func main() {
	inboxFlag := flag.String("inbox", "", "inbox directory to sweep (overrides config)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	inboxDir := cfg.Import.InboxDir
	if *inboxFlag != "" {
		inboxDir = *inboxFlag
	}

	db, err := database.NewSQLXOracleDB(cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	catalogRepository := repository.NewCatalogDatabaseAdapter(db)
	txManager := repository.NewTransactionManagerAdapter(db)

	imp := importer.NewImporter(catalogRepository, txManager, inboxDir)
	summary, err := imp.Run(context.Background())
	if err != nil {
		appLogger.Fatal("Import sweep failed", zap.Error(err))
	}

	appLogger.Info("Import sweep finished",
		zap.Int("filesProcessed", summary.FilesProcessed),
		zap.Int("filesFailed", summary.FilesFailed),
		zap.Int("questionsCreated", summary.QuestionsCreated),
		zap.Int("questionsUpdated", summary.QuestionsUpdated),
		zap.Int("choicesCreated", summary.ChoicesCreated),
	)

	if summary.FilesFailed > 0 {
		logger.Sync()
		os.Exit(1)
	}
}
