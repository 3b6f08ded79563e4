package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"quizhub/internal/logger"

	_ "github.com/sijms/go-ora/v2" // Ensure go-ora driver is registered
)

// NewMigrateOracleDB opens a plain database/sql connection for running
// migrations.
func NewMigrateOracleDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("oracle", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not ping database: %w", err)
	}
	return db, nil
}

// RunMigrations executes every *.up.sql file in migrationsDir in name
// order. Statements are split on lines containing only "/" since Oracle
// DDL blocks cannot be separated with semicolons alone.
func RunMigrations(db *sql.DB, migrationsDir string) error {
	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("could not read migrations directory: %w", err)
	}

	var upFiles []string
	for _, file := range files {
		if strings.HasSuffix(file.Name(), ".up.sql") {
			upFiles = append(upFiles, file.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		content, err := os.ReadFile(filepath.Join(migrationsDir, name))
		if err != nil {
			return fmt.Errorf("could not read migration file %s: %w", name, err)
		}

		for _, stmt := range splitStatements(string(content)) {
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("could not execute migration %s: %w", name, err)
			}
		}
		logger.Get().Info("Executed migration", zap.String("file", name))
	}

	logger.Get().Info("Migrations completed successfully")
	return nil
}

func splitStatements(content string) []string {
	var statements []string
	for _, block := range strings.Split(content, "\n/\n") {
		block = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(block), ";"))
		if block != "" {
			statements = append(statements, block)
		}
	}
	return statements
}
