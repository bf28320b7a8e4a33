package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// MockRecipeService is a mock implementation of the recipe service
type MockRecipeService struct {
	mock.Mock
}

func (m *MockRecipeService) CreateRecipe(ctx context.Context, authorID uuid.UUID, draft *types.RecipeDraftRequest) (*types.RecipeResponse, error) {
	args := m.Called(ctx, authorID, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeResponse), args.Error(1)
}

func (m *MockRecipeService) UpdateRecipe(ctx context.Context, id uuid.UUID, actor service.Actor, draft *types.RecipeDraftRequest) (*types.RecipeResponse, error) {
	args := m.Called(ctx, id, actor, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeResponse), args.Error(1)
}

func (m *MockRecipeService) DeleteRecipe(ctx context.Context, id uuid.UUID, actor service.Actor) error {
	args := m.Called(ctx, id, actor)
	return args.Error(0)
}

func (m *MockRecipeService) GetRecipe(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*types.RecipeResponse, error) {
	args := m.Called(ctx, id, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeResponse), args.Error(1)
}

func (m *MockRecipeService) ListRecipes(ctx context.Context, query service.RecipeQuery, viewer *uuid.UUID) ([]types.RecipeResponse, error) {
	args := m.Called(ctx, query, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.RecipeResponse), args.Error(1)
}

// MockRelationshipService is a mock implementation of the relationship service
type MockRelationshipService struct {
	mock.Mock
}

func (m *MockRelationshipService) Toggle(ctx context.Context, kind models.RelationKind, op service.ToggleOp, actorID, targetID uuid.UUID) (*service.RelationTarget, error) {
	args := m.Called(ctx, kind, op, actorID, targetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RelationTarget), args.Error(1)
}

func (m *MockRelationshipService) Add(ctx context.Context, kind models.RelationKind, actorID, targetID uuid.UUID) (*service.RelationTarget, error) {
	return m.Toggle(ctx, kind, service.ToggleAdd, actorID, targetID)
}

func (m *MockRelationshipService) Remove(ctx context.Context, kind models.RelationKind, actorID, targetID uuid.UUID) error {
	_, err := m.Toggle(ctx, kind, service.ToggleRemove, actorID, targetID)
	return err
}

// MockShoppingListService is a mock implementation of the shopping list service
type MockShoppingListService struct {
	mock.Mock
}

func (m *MockShoppingListService) BuildShoppingList(ctx context.Context, userID uuid.UUID) (*service.ShoppingList, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ShoppingList), args.Error(1)
}

var (
	_ service.IRecipeService       = (*MockRecipeService)(nil)
	_ service.IRelationshipService = (*MockRelationshipService)(nil)
	_ service.IShoppingListService = (*MockShoppingListService)(nil)
)
