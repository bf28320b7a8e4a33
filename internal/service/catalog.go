package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	tagsCacheKey = "catalog:tags"
	tagsCacheTTL = 10 * time.Minute
)

var tagColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ImportResult counts the catalog rows created by Import. Existing rows are
// left untouched.
type ImportResult struct {
	Ingredients int64
	Tags        int64
}

type CatalogService struct {
	ingredients repository.IngredientRepo
	tags        repository.TagRepo
	cache       *redis.Client
	log         *logger.Logger
}

// NewCatalogService creates the catalog service. cache may be nil, in which
// case tags are always read from the database.
func NewCatalogService(ingredients repository.IngredientRepo, tags repository.TagRepo, cache *redis.Client, baseLog *logger.Logger) *CatalogService {
	return &CatalogService{
		ingredients: ingredients,
		tags:        tags,
		cache:       cache,
		log:         baseLog.With("service", "CatalogService"),
	}
}

func (s *CatalogService) ListIngredients(ctx context.Context, search string) ([]types.IngredientResponse, error) {
	items, err := s.ingredients.List(ctx, search)
	if err != nil {
		return nil, translate("list ingredients", err)
	}
	result := make([]types.IngredientResponse, len(items))
	for i, item := range items {
		result[i] = types.NewIngredientResponse(item)
	}
	return result, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*types.IngredientResponse, error) {
	item, err := s.ingredients.GetByID(ctx, id)
	if err != nil {
		return nil, translate("get ingredient", err)
	}
	resp := types.NewIngredientResponse(item)
	return &resp, nil
}

func (s *CatalogService) ListTags(ctx context.Context) ([]types.TagResponse, error) {
	if cached, ok := s.cachedTags(ctx); ok {
		return cached, nil
	}

	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, translate("list tags", err)
	}
	result := make([]types.TagResponse, len(tags))
	for i, tag := range tags {
		result[i] = types.NewTagResponse(tag)
	}

	s.storeTags(ctx, result)
	return result, nil
}

func (s *CatalogService) GetTag(ctx context.Context, id uint) (*types.TagResponse, error) {
	tag, err := s.tags.GetByID(ctx, id)
	if err != nil {
		return nil, translate("get tag", err)
	}
	resp := types.NewTagResponse(tag)
	return &resp, nil
}

// Import loads catalog fixtures. Ingredients are matched on name and unit,
// tags on slug; both are only ever inserted.
func (s *CatalogService) Import(ctx context.Context, ingredients []*models.Ingredient, tags []*models.Tag) (*ImportResult, error) {
	for i, item := range ingredients {
		item.Name = strings.TrimSpace(item.Name)
		item.MeasurementUnit = strings.TrimSpace(item.MeasurementUnit)
		if item.Name == "" || item.MeasurementUnit == "" {
			return nil, invalid(fmt.Sprintf("ingredients[%d]", i), "name and measurement_unit are required")
		}
	}
	for i, tag := range tags {
		if tag.Name == "" || tag.Slug == "" {
			return nil, invalid(fmt.Sprintf("tags[%d]", i), "name and slug are required")
		}
		if !tagColorPattern.MatchString(tag.Color) {
			return nil, invalid(fmt.Sprintf("tags[%d]", i), "color must be a #RRGGBB hex value")
		}
	}

	result := &ImportResult{}
	var err error
	if len(ingredients) > 0 {
		if result.Ingredients, err = s.ingredients.Upsert(ctx, ingredients); err != nil {
			return nil, translate("import ingredients", err)
		}
	}
	if len(tags) > 0 {
		if result.Tags, err = s.tags.Upsert(ctx, tags); err != nil {
			return nil, translate("import tags", err)
		}
		if err := s.InvalidateTags(ctx); err != nil {
			s.log.Warn("failed to invalidate tag cache", "error", err)
		}
	}

	s.log.Info("catalog imported", "ingredients", result.Ingredients, "tags", result.Tags)
	return result, nil
}

// InvalidateTags drops the cached tag list after the catalog is reseeded.
func (s *CatalogService) InvalidateTags(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, tagsCacheKey).Err()
}

func (s *CatalogService) cachedTags(ctx context.Context) ([]types.TagResponse, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, tagsCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("tag cache read failed", "error", err)
		}
		return nil, false
	}
	var tags []types.TagResponse
	if err := json.Unmarshal(data, &tags); err != nil {
		s.log.Warn("tag cache entry is corrupt", "error", err)
		return nil, false
	}
	return tags, true
}

func (s *CatalogService) storeTags(ctx context.Context, tags []types.TagResponse) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(tags)
	if err != nil {
		s.log.Warn("failed to encode tags for cache", "error", err)
		return
	}
	if err := s.cache.Set(ctx, tagsCacheKey, data, tagsCacheTTL).Err(); err != nil {
		s.log.Warn("tag cache write failed", "error", err)
	}
}
