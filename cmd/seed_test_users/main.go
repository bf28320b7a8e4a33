package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

const testPassword = "testpassword123"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	err = run(cfg, appLog)
	if err != nil {
		appLog.Error("Seeding test users failed", "error", err)
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

	auth := service.NewAuthService(repository.NewUserRepo(db, appLog), cfg.JWTSecret, cfg.JWTTTL, appLog)

	testUsers := []struct {
		req   types.RegisterRequest
		staff bool
	}{
		{req: types.RegisterRequest{Email: "john.doe@example.com", Username: "johndoe", FirstName: "John", LastName: "Doe"}},
		{req: types.RegisterRequest{Email: "jane.smith@example.com", Username: "janesmith", FirstName: "Jane", LastName: "Smith"}},
		{req: types.RegisterRequest{Email: "bob.wilson@example.com", Username: "bobwilson", FirstName: "Bob", LastName: "Wilson"}},
		{req: types.RegisterRequest{Email: "admin@example.com", Username: "admin", FirstName: "Admin", LastName: "User"}, staff: true},
	}

	ctx := context.Background()
	created := 0
	for _, u := range testUsers {
		u.req.Password = testPassword
		user, err := auth.Register(ctx, &u.req)
		if errors.Is(err, service.ErrAlreadyExists) {
			appLog.Info("User already exists, skipping", "email", u.req.Email)
			continue
		}
		if err != nil {
			appLog.Error("Failed to create user", "email", u.req.Email, "error", err)
			continue
		}

		if u.staff {
			if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_staff", true).Error; err != nil {
				appLog.Error("Failed to mark user as staff", "email", u.req.Email, "error", err)
				continue
			}
		}
		created++
		appLog.Info("Created user", "email", user.Email, "username", user.Username, "staff", u.staff)
	}

	log.Printf("Created %d test users. Password for all of them: %s", created, testPassword)
	return nil
}
