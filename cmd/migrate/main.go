package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
)

func main() {
	rollback := flag.Int("rollback", 0, "Roll back the given number of migrations")
	showVersion := flag.Bool("version", false, "Print the current schema version and exit")
	dir := flag.String("dir", "", "Migrations directory (defaults to MIGRATIONS_DIR)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.DBDriver != "postgres" {
		log.Fatalf("migrations only apply to postgres, DB_DRIVER is %q", cfg.DBDriver)
	}

	migrationsDir := cfg.MigrationsDir
	if *dir != "" {
		migrationsDir = *dir
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = cfg.PostgresURL()
	}

	err = run(dsn, migrationsDir, *showVersion, *rollback, appLog)
	if err != nil {
		appLog.Error("Migration command failed", "error", err)
	}
	appLog.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(dsn, migrationsDir string, showVersion bool, rollback int, appLog *logger.Logger) error {
	switch {
	case showVersion:
		version, dirty, err := database.MigrationVersion(dsn, migrationsDir)
		if err != nil {
			return fmt.Errorf("failed to read migration version: %w", err)
		}
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
	case rollback > 0:
		if err := database.MigrateDown(dsn, migrationsDir, rollback, appLog); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
	default:
		if err := database.MigrateUp(dsn, migrationsDir, appLog); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
