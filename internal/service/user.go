package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/types"
)

// NoRecipesLimit asks for every recipe of a followed author.
const NoRecipesLimit = -1

type UserService struct {
	users     repository.UserRepo
	recipes   repository.RecipeRepo
	relations repository.RelationRepo
	log       *logger.Logger
}

func NewUserService(users repository.UserRepo, recipes repository.RecipeRepo, relations repository.RelationRepo, baseLog *logger.Logger) *UserService {
	return &UserService{
		users:     users,
		recipes:   recipes,
		relations: relations,
		log:       baseLog.With("service", "UserService"),
	}
}

// GetUser returns the public projection of a user. viewer is nil for
// anonymous requests.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*types.UserResponse, error) {
	user, err := s.users.GetByID(ctx, nil, id)
	if err != nil {
		return nil, translate("get user", err)
	}

	subscribed := false
	if viewer != nil && *viewer != id {
		subscribed, err = s.relations.Exists(ctx, nil, models.RelationSubscribe, *viewer, id)
		if err != nil {
			return nil, translate("check subscription", err)
		}
	}

	resp := types.NewUserResponse(user, subscribed)
	return &resp, nil
}

// Subscriptions lists the users the viewer follows with a preview of their
// recipes, newest first.
func (s *UserService) Subscriptions(ctx context.Context, viewer uuid.UUID, recipesLimit int) ([]types.SubscriptionResponse, error) {
	followingIDs, err := s.relations.Targets(ctx, models.RelationSubscribe, viewer)
	if err != nil {
		return nil, translate("list subscriptions", err)
	}
	if len(followingIDs) == 0 {
		return []types.SubscriptionResponse{}, nil
	}

	users, err := s.users.GetByIDs(ctx, nil, followingIDs)
	if err != nil {
		return nil, translate("get users", err)
	}
	byID := make(map[uuid.UUID]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	counts, err := s.recipes.CountByAuthors(ctx, followingIDs)
	if err != nil {
		return nil, translate("count recipes", err)
	}

	result := make([]types.SubscriptionResponse, 0, len(followingIDs))
	for _, id := range followingIDs {
		user, ok := byID[id]
		if !ok {
			continue
		}
		recipes, err := s.previewRecipes(ctx, id, recipesLimit)
		if err != nil {
			return nil, err
		}
		result = append(result, types.NewSubscriptionResponse(user, recipes, counts[id]))
	}
	return result, nil
}

// SubscriptionView projects a single followed user, as returned after subscribing.
func (s *UserService) SubscriptionView(ctx context.Context, user *models.User, recipesLimit int) (*types.SubscriptionResponse, error) {
	recipes, err := s.previewRecipes(ctx, user.ID, recipesLimit)
	if err != nil {
		return nil, err
	}
	counts, err := s.recipes.CountByAuthors(ctx, []uuid.UUID{user.ID})
	if err != nil {
		return nil, translate("count recipes", err)
	}
	resp := types.NewSubscriptionResponse(user, recipes, counts[user.ID])
	return &resp, nil
}

func (s *UserService) previewRecipes(ctx context.Context, authorID uuid.UUID, limit int) ([]*models.Recipe, error) {
	if limit == 0 {
		return []*models.Recipe{}, nil
	}
	recipes, err := s.recipes.ListByAuthor(ctx, authorID, limit)
	if err != nil {
		return nil, translate("list recipes", err)
	}
	return recipes, nil
}

// ParseRecipesLimit parses the recipes_limit query parameter. An empty value
// means no limit.
func ParseRecipesLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NoRecipesLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, invalid("recipes_limit", "must be a non-negative integer")
	}
	return limit, nil
}
