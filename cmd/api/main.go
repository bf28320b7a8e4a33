package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// run owns every deferred cleanup; exit only once they have happened
	err = run(cfg, appLog)
	if err != nil {
		appLog.Error("Server exited with error", "error", err)
	}
	appLog.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, appLog *logger.Logger) error {
	db, err := database.Open(cfg, appLog)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	if err := database.RunMigrations(db, cfg.PostgresURL(), cfg.MigrationsDir, appLog); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	var redisClient *redis.Client
	if cfg.RedisEnabled() {
		redisClient, err = database.NewRedisClient(cfg, appLog)
		if err != nil {
			// Rate limits fall back to in-process buckets and the tag cache is skipped
			appLog.Warn("Redis unavailable, continuing without it", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	s3Cfg, err := config.NewS3Config(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize S3: %w", err)
	}
	images := storage.NewS3ImageStore(s3Cfg, appLog)

	userRepo := repository.NewUserRepo(db, appLog)
	recipeRepo := repository.NewRecipeRepo(db, appLog)
	ingredientRepo := repository.NewIngredientRepo(db, appLog)
	tagRepo := repository.NewTagRepo(db, appLog)
	relationRepo := repository.NewRelationRepo(db, appLog)
	cartLines, err := repository.NewCartLineReader(db)
	if err != nil {
		return fmt.Errorf("failed to initialize cart line reader: %w", err)
	}

	deps := api.Dependencies{
		Auth:         service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL, appLog),
		Users:        service.NewUserService(userRepo, recipeRepo, relationRepo, appLog),
		Recipes:      service.NewRecipeService(db, recipeRepo, ingredientRepo, tagRepo, relationRepo, images, appLog),
		Relations:    service.NewRelationshipService(db, userRepo, recipeRepo, relationRepo, appLog),
		ShoppingList: service.NewShoppingListService(userRepo, relationRepo, cartLines, appLog),
		Catalog:      service.NewCatalogService(ingredientRepo, tagRepo, redisClient, appLog),

		RecipeCreationLimiter:     middleware.NewRecipeCreationRateLimiter(redisClient, cfg.RecipeCreationLimit, appLog),
		RecipeModificationLimiter: middleware.NewRecipeModificationRateLimiter(redisClient, cfg.RecipeModificationLimit, appLog),
		Health: func(ctx context.Context) error {
			return database.HealthCheck(ctx, db)
		},
		Log: appLog,
	}

	srv := server.New(cfg, deps, metrics.New(), appLog)

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-quit:
		appLog.Info("Received signal", "signal", sig.String())
	}

	appLog.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	appLog.Info("Server stopped")
	return nil
}
