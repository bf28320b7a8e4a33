package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// MockCatalogService is a mock implementation of the catalog service
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) ListIngredients(ctx context.Context, search string) ([]types.IngredientResponse, error) {
	args := m.Called(ctx, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.IngredientResponse), args.Error(1)
}

func (m *MockCatalogService) GetIngredient(ctx context.Context, id uint) (*types.IngredientResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.IngredientResponse), args.Error(1)
}

func (m *MockCatalogService) ListTags(ctx context.Context) ([]types.TagResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.TagResponse), args.Error(1)
}

func (m *MockCatalogService) GetTag(ctx context.Context, id uint) (*types.TagResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TagResponse), args.Error(1)
}

// MockUserService is a mock implementation of the user service
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUser(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*types.UserResponse, error) {
	args := m.Called(ctx, id, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserResponse), args.Error(1)
}

func (m *MockUserService) Subscriptions(ctx context.Context, viewer uuid.UUID, recipesLimit int) ([]types.SubscriptionResponse, error) {
	args := m.Called(ctx, viewer, recipesLimit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.SubscriptionResponse), args.Error(1)
}

func (m *MockUserService) SubscriptionView(ctx context.Context, user *models.User, recipesLimit int) (*types.SubscriptionResponse, error) {
	args := m.Called(ctx, user, recipesLimit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SubscriptionResponse), args.Error(1)
}

var (
	_ service.ICatalogService = (*MockCatalogService)(nil)
	_ service.IUserService    = (*MockUserService)(nil)
)
