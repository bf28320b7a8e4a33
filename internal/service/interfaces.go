package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	SetPassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	GenerateToken(user *models.User) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
}

// IUserService defines the interface for public user views and subscriptions
type IUserService interface {
	GetUser(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*types.UserResponse, error)
	Subscriptions(ctx context.Context, viewer uuid.UUID, recipesLimit int) ([]types.SubscriptionResponse, error)
	SubscriptionView(ctx context.Context, user *models.User, recipesLimit int) (*types.SubscriptionResponse, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	CreateRecipe(ctx context.Context, authorID uuid.UUID, draft *types.RecipeDraftRequest) (*types.RecipeResponse, error)
	UpdateRecipe(ctx context.Context, id uuid.UUID, actor Actor, draft *types.RecipeDraftRequest) (*types.RecipeResponse, error)
	DeleteRecipe(ctx context.Context, id uuid.UUID, actor Actor) error
	GetRecipe(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*types.RecipeResponse, error)
	ListRecipes(ctx context.Context, query RecipeQuery, viewer *uuid.UUID) ([]types.RecipeResponse, error)
}

// IRelationshipService defines the interface for favorites, cart and subscriptions
type IRelationshipService interface {
	Toggle(ctx context.Context, kind models.RelationKind, op ToggleOp, actorID, targetID uuid.UUID) (*RelationTarget, error)
	Add(ctx context.Context, kind models.RelationKind, actorID, targetID uuid.UUID) (*RelationTarget, error)
	Remove(ctx context.Context, kind models.RelationKind, actorID, targetID uuid.UUID) error
}

// IShoppingListService defines the interface for shopping list downloads
type IShoppingListService interface {
	BuildShoppingList(ctx context.Context, userID uuid.UUID) (*ShoppingList, error)
}

// ICatalogService defines the interface for ingredient and tag lookups
type ICatalogService interface {
	ListIngredients(ctx context.Context, search string) ([]types.IngredientResponse, error)
	GetIngredient(ctx context.Context, id uint) (*types.IngredientResponse, error)
	ListTags(ctx context.Context) ([]types.TagResponse, error)
	GetTag(ctx context.Context, id uint) (*types.TagResponse, error)
}

var (
	_ IAuthService         = (*AuthService)(nil)
	_ IUserService         = (*UserService)(nil)
	_ IRecipeService       = (*RecipeService)(nil)
	_ IRelationshipService = (*RelationshipService)(nil)
	_ IShoppingListService = (*ShoppingListService)(nil)
	_ ICatalogService      = (*CatalogService)(nil)
)
