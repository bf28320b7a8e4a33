package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
)

// TestPassword is the password of every fixture user.
const TestPassword = "testpassword123"

// PNGDataURI is a valid 1x1 PNG image data URI.
const PNGDataURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

// CreateTestUser creates a user with the given username and TestPassword.
func CreateTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Email:        fmt.Sprintf("%s@example.com", username),
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: string(hashedPassword),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestStaffUser creates a staff user.
func CreateTestStaffUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := CreateTestUser(t, db, username)
	require.NoError(t, db.Model(user).Update("is_staff", true).Error)
	user.IsStaff = true
	return user
}

// CreateTestUserAndToken creates a user and returns it with a valid JWT.
func CreateTestUserAndToken(t *testing.T, db *gorm.DB, auth *service.AuthService, username string) (*models.User, string) {
	t.Helper()

	user := CreateTestUser(t, db, username)
	token, err := auth.Login(context.Background(), user.Email, TestPassword)
	require.NoError(t, err)
	return user, token
}

func CreateTestIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()

	ingredient := &models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, db.Create(ingredient).Error)
	return ingredient
}

func CreateTestTag(t *testing.T, db *gorm.DB, name, slug, color string) *models.Tag {
	t.Helper()

	tag := &models.Tag{Name: name, Slug: slug, Color: color}
	require.NoError(t, db.Create(tag).Error)
	return tag
}

// CreateTestRecipe stores a recipe with the given tags and ingredient lines.
func CreateTestRecipe(t *testing.T, db *gorm.DB, authorID uuid.UUID, name string, tagIDs []uint, lines ...repository.IngredientLine) *models.Recipe {
	t.Helper()

	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        name,
		ImageRef:    "https://images.test/recipes/images/" + uuid.NewString() + ".png",
		Text:        "Cook " + name,
		CookingTime: 10,
	}
	repo := repository.NewRecipeRepo(db, logger.NewNop())
	require.NoError(t, repo.Create(context.Background(), nil, recipe, lines, tagIDs))
	return recipe
}

// SetCreatedAt backdates a recipe so ordering tests are deterministic.
func SetCreatedAt(t *testing.T, db *gorm.DB, recipe *models.Recipe, createdAt time.Time) {
	t.Helper()

	require.NoError(t, db.Model(&models.Recipe{}).Where("id = ?", recipe.ID).Update("created_at", createdAt).Error)
	recipe.CreatedAt = createdAt
}

// FakeImageStore validates data URIs like the S3 store but keeps nothing.
type FakeImageStore struct {
	mu    sync.Mutex
	Saved []string
	Err   error
}

func (f *FakeImageStore) Save(ctx context.Context, dataURI string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	img, err := storage.DecodeDataURI(dataURI)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	url := fmt.Sprintf("https://images.test/recipes/images/%d.%s", len(f.Saved)+1, img.Ext)
	f.Saved = append(f.Saved, url)
	return url, nil
}

// TestServices wires every service over one test database.
type TestServices struct {
	DB           *gorm.DB
	Images       *FakeImageStore
	Auth         *service.AuthService
	Users        *service.UserService
	Recipes      *service.RecipeService
	Relations    *service.RelationshipService
	ShoppingList *service.ShoppingListService
	Catalog      *service.CatalogService
}

// NewTestServices builds the service layer over a fresh sqlite database.
func NewTestServices(t *testing.T) *TestServices {
	t.Helper()
	return NewTestServicesWithDB(t, SetupTestDatabase(t))
}

// NewTestServicesWithDB builds the service layer over db.
func NewTestServicesWithDB(t *testing.T, db *gorm.DB) *TestServices {
	t.Helper()

	log := logger.NewNop()

	userRepo := repository.NewUserRepo(db, log)
	recipeRepo := repository.NewRecipeRepo(db, log)
	ingredientRepo := repository.NewIngredientRepo(db, log)
	tagRepo := repository.NewTagRepo(db, log)
	relationRepo := repository.NewRelationRepo(db, log)
	cartLines, err := repository.NewCartLineReader(db)
	require.NoError(t, err)

	images := &FakeImageStore{}
	return &TestServices{
		DB:           db,
		Images:       images,
		Auth:         service.NewAuthService(userRepo, "test-secret", time.Hour, log),
		Users:        service.NewUserService(userRepo, recipeRepo, relationRepo, log),
		Recipes:      service.NewRecipeService(db, recipeRepo, ingredientRepo, tagRepo, relationRepo, images, log),
		Relations:    service.NewRelationshipService(db, userRepo, recipeRepo, relationRepo, log),
		ShoppingList: service.NewShoppingListService(userRepo, relationRepo, cartLines, log),
		Catalog:      service.NewCatalogService(ingredientRepo, tagRepo, nil, log),
	}
}
