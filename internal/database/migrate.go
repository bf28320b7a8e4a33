package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
)

// RunMigrations brings the schema up to date. Postgres uses the versioned
// SQL files in migrationsDir; sqlite falls back to gorm auto-migration.
func RunMigrations(db *gorm.DB, databaseURL, migrationsDir string, log *logger.Logger) error {
	if db.Dialector.Name() == "sqlite" {
		log.Info("Using GORM auto-migration for SQLite")
		return AutoMigrate(db)
	}
	return MigrateUp(databaseURL, migrationsDir, log)
}

// AutoMigrate creates or updates every table from the models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

// MigrateUp applies all pending migrations
func MigrateUp(databaseURL, migrationsDir string, log *logger.Logger) error {
	m, closeFn, err := newMigrator(databaseURL, migrationsDir)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("No migrations to apply, database is up to date")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	log.Info("Migrations applied", "version", version, "dirty", dirty)
	return nil
}

// MigrateDown rolls back the given number of migrations
func MigrateDown(databaseURL, migrationsDir string, steps int, log *logger.Logger) error {
	if steps < 1 {
		return fmt.Errorf("steps must be at least 1, got %d", steps)
	}
	m, closeFn, err := newMigrator(databaseURL, migrationsDir)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("No migrations to roll back")
			return nil
		}
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}

	log.Info("Rolled back migrations", "steps", steps)
	return nil
}

// MigrationVersion reports the current schema version
func MigrationVersion(databaseURL, migrationsDir string) (uint, bool, error) {
	m, closeFn, err := newMigrator(databaseURL, migrationsDir)
	if err != nil {
		return 0, false, err
	}
	defer closeFn()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func newMigrator(databaseURL, migrationsDir string) (*migrate.Migrate, func(), error) {
	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open migration connection: %w", err)
	}

	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsDir, "postgres", driver)
	if err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	closeFn := func() {
		_, _ = m.Close()
	}
	return m, closeFn, nil
}
