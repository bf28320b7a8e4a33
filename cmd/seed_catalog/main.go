package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/service"
)

func main() {
	dataDir := flag.String("data", "data", "Directory holding ingredients.json and tags.json")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	err = run(cfg, *dataDir, appLog)
	if err != nil {
		appLog.Error("Catalog seeding failed", "error", err)
	}
	appLog.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, dataDir string, appLog *logger.Logger) error {
	var ingredients []*models.Ingredient
	if err := readFixture(filepath.Join(dataDir, "ingredients.json"), &ingredients); err != nil {
		return fmt.Errorf("failed to read ingredients: %w", err)
	}
	var tags []*models.Tag
	if err := readFixture(filepath.Join(dataDir, "tags.json"), &tags); err != nil {
		return fmt.Errorf("failed to read tags: %w", err)
	}

	db, err := database.Open(cfg, appLog)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	if err := database.RunMigrations(db, cfg.PostgresURL(), cfg.MigrationsDir, appLog); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	var cache *redis.Client
	if cfg.RedisEnabled() {
		if cache, err = database.NewRedisClient(cfg, appLog); err != nil {
			appLog.Warn("Redis unavailable, cached tags will expire on their own", "error", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	catalog := service.NewCatalogService(
		repository.NewIngredientRepo(db, appLog),
		repository.NewTagRepo(db, appLog),
		cache,
		appLog,
	)

	result, err := catalog.Import(context.Background(), ingredients, tags)
	if err != nil {
		return fmt.Errorf("catalog import failed: %w", err)
	}
	fmt.Printf("Created %d ingredients and %d tags\n", result.Ingredients, result.Tags)
	return nil
}

func readFixture(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
