package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	maxRecipeNameLength = 200
	// amounts and cooking times are stored as SMALLINT-sized values
	maxSmallValue = 32767
)

// ImageStore persists an uploaded recipe image and returns its reference.
type ImageStore interface {
	Save(ctx context.Context, dataURI string) (string, error)
}

// Actor is the authenticated user performing a write.
type Actor struct {
	ID      uuid.UUID
	IsStaff bool
}

func (a Actor) canModify(recipe *models.Recipe) bool {
	return a.IsStaff || recipe.AuthorID == a.ID
}

// RecipeQuery holds the list filters. The boolean filters only apply to
// authenticated viewers.
type RecipeQuery struct {
	TagSlugs         []string
	AuthorID         *uuid.UUID
	IsFavorited      bool
	IsInShoppingCart bool
}

type RecipeService struct {
	db          *gorm.DB
	recipes     repository.RecipeRepo
	ingredients repository.IngredientRepo
	tags        repository.TagRepo
	relations   repository.RelationRepo
	images      ImageStore
	log         *logger.Logger
}

func NewRecipeService(
	db *gorm.DB,
	recipes repository.RecipeRepo,
	ingredients repository.IngredientRepo,
	tags repository.TagRepo,
	relations repository.RelationRepo,
	images ImageStore,
	baseLog *logger.Logger,
) *RecipeService {
	return &RecipeService{
		db:          db,
		recipes:     recipes,
		ingredients: ingredients,
		tags:        tags,
		relations:   relations,
		images:      images,
		log:         baseLog.With("service", "RecipeService"),
	}
}

func (s *RecipeService) CreateRecipe(ctx context.Context, authorID uuid.UUID, draft *types.RecipeDraftRequest) (*types.RecipeResponse, error) {
	lines, tagIDs, err := s.validateDraft(ctx, draft, true)
	if err != nil {
		return nil, err
	}

	imageRef, err := s.saveImage(ctx, draft.Image)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        strings.TrimSpace(draft.Name),
		ImageRef:    imageRef,
		Text:        draft.Text,
		CookingTime: draft.CookingTime,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.recipes.Create(ctx, tx, recipe, lines, tagIDs)
	})
	if err != nil {
		return nil, translate("create recipe", err)
	}

	s.log.Info("recipe created", "recipe_id", recipe.ID, "author_id", authorID)
	return s.GetRecipe(ctx, recipe.ID, &authorID)
}

// UpdateRecipe replaces the recipe's fields, ingredient lines and tags with
// the draft. Only the author or staff may update. An empty draft image keeps
// the current one.
func (s *RecipeService) UpdateRecipe(ctx context.Context, id uuid.UUID, actor Actor, draft *types.RecipeDraftRequest) (*types.RecipeResponse, error) {
	existing, err := s.recipes.GetHeader(ctx, nil, id)
	if err != nil {
		return nil, translate("get recipe", err)
	}
	if !actor.canModify(existing) {
		return nil, ErrForbidden
	}

	lines, tagIDs, err := s.validateDraft(ctx, draft, false)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(draft.Image) != "" {
		imageRef, err := s.saveImage(ctx, draft.Image)
		if err != nil {
			return nil, err
		}
		existing.ImageRef = imageRef
	}
	existing.Name = strings.TrimSpace(draft.Name)
	existing.Text = draft.Text
	existing.CookingTime = draft.CookingTime

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.recipes.Update(ctx, tx, existing, lines, tagIDs)
	})
	if err != nil {
		return nil, translate("update recipe", err)
	}

	s.log.Info("recipe updated", "recipe_id", id, "actor_id", actor.ID)
	return s.GetRecipe(ctx, id, &actor.ID)
}

func (s *RecipeService) DeleteRecipe(ctx context.Context, id uuid.UUID, actor Actor) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.recipes.GetHeader(ctx, tx, id)
		if err != nil {
			return translate("get recipe", err)
		}
		if !actor.canModify(existing) {
			return ErrForbidden
		}
		if err := s.recipes.Delete(ctx, tx, id); err != nil {
			return translate("delete recipe", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("recipe deleted", "recipe_id", id, "actor_id", actor.ID)
	return nil
}

// GetRecipe returns a recipe projected for viewer (nil for anonymous).
func (s *RecipeService) GetRecipe(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*types.RecipeResponse, error) {
	recipe, err := s.recipes.GetByID(ctx, nil, id)
	if err != nil {
		return nil, translate("get recipe", err)
	}
	states, err := s.viewerStates(ctx, viewer, []*models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	resp := types.NewRecipeResponse(recipe, states[recipe.ID])
	return &resp, nil
}

// ListRecipes returns recipes matching query, newest first.
func (s *RecipeService) ListRecipes(ctx context.Context, query RecipeQuery, viewer *uuid.UUID) ([]types.RecipeResponse, error) {
	filter := repository.RecipeFilter{
		TagSlugs: query.TagSlugs,
		AuthorID: query.AuthorID,
	}
	if viewer != nil {
		if query.IsFavorited {
			filter.FavoritedBy = viewer
		}
		if query.IsInShoppingCart {
			filter.InCartOf = viewer
		}
	}

	recipes, err := s.recipes.List(ctx, filter)
	if err != nil {
		return nil, translate("list recipes", err)
	}
	states, err := s.viewerStates(ctx, viewer, recipes)
	if err != nil {
		return nil, err
	}

	result := make([]types.RecipeResponse, len(recipes))
	for i, recipe := range recipes {
		result[i] = types.NewRecipeResponse(recipe, states[recipe.ID])
	}
	return result, nil
}

func (s *RecipeService) viewerStates(ctx context.Context, viewer *uuid.UUID, recipes []*models.Recipe) (map[uuid.UUID]types.RecipeViewerState, error) {
	states := make(map[uuid.UUID]types.RecipeViewerState, len(recipes))
	if viewer == nil || len(recipes) == 0 {
		return states, nil
	}

	recipeIDs := make([]uuid.UUID, len(recipes))
	authorIDs := make([]uuid.UUID, 0, len(recipes))
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		authorIDs = append(authorIDs, r.AuthorID)
	}

	favorites, err := s.relations.Members(ctx, models.RelationFavorite, *viewer, recipeIDs)
	if err != nil {
		return nil, translate("load favorites", err)
	}
	cart, err := s.relations.Members(ctx, models.RelationShoppingCart, *viewer, recipeIDs)
	if err != nil {
		return nil, translate("load shopping cart", err)
	}
	following, err := s.relations.Members(ctx, models.RelationSubscribe, *viewer, authorIDs)
	if err != nil {
		return nil, translate("load subscriptions", err)
	}

	for _, r := range recipes {
		states[r.ID] = types.RecipeViewerState{
			IsFavorited:      favorites[r.ID],
			IsInShoppingCart: cart[r.ID],
			AuthorSubscribed: following[r.AuthorID],
		}
	}
	return states, nil
}

func (s *RecipeService) saveImage(ctx context.Context, dataURI string) (string, error) {
	ref, err := s.images.Save(ctx, dataURI)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidImage) {
			return "", invalid("image", err.Error())
		}
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return ref, nil
}

// validateDraft checks a draft and returns its ingredient lines and tag ids
// in input order.
func (s *RecipeService) validateDraft(ctx context.Context, draft *types.RecipeDraftRequest, requireImage bool) ([]repository.IngredientLine, []uint, error) {
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return nil, nil, invalid("name", "this field is required")
	}
	if utf8.RuneCountInString(name) > maxRecipeNameLength {
		return nil, nil, invalid("name", fmt.Sprintf("must be at most %d characters", maxRecipeNameLength))
	}
	if strings.TrimSpace(draft.Text) == "" {
		return nil, nil, invalid("text", "this field is required")
	}
	if draft.CookingTime < 1 {
		return nil, nil, invalid("cooking_time", "must be at least 1")
	}
	if draft.CookingTime > maxSmallValue {
		return nil, nil, invalid("cooking_time", fmt.Sprintf("must be at most %d", maxSmallValue))
	}
	if requireImage && strings.TrimSpace(draft.Image) == "" {
		return nil, nil, invalid("image", "this field is required")
	}

	if len(draft.Ingredients) == 0 {
		return nil, nil, invalid("ingredients", "at least one ingredient is required")
	}
	lines := make([]repository.IngredientLine, 0, len(draft.Ingredients))
	ingredientIDs := make([]uint, 0, len(draft.Ingredients))
	seenIngredients := make(map[uint]bool, len(draft.Ingredients))
	for _, item := range draft.Ingredients {
		if seenIngredients[item.ID] {
			return nil, nil, invalid("ingredients", "ingredients must be unique")
		}
		if item.Amount < 1 {
			return nil, nil, invalid("ingredients", fmt.Sprintf("amount of ingredient %d must be at least 1", item.ID))
		}
		if item.Amount > maxSmallValue {
			return nil, nil, invalid("ingredients", fmt.Sprintf("amount of ingredient %d must be at most %d", item.ID, maxSmallValue))
		}
		seenIngredients[item.ID] = true
		ingredientIDs = append(ingredientIDs, item.ID)
		lines = append(lines, repository.IngredientLine{IngredientID: item.ID, Amount: item.Amount})
	}

	if len(draft.Tags) == 0 {
		return nil, nil, invalid("tags", "at least one tag is required")
	}
	seenTags := make(map[uint]bool, len(draft.Tags))
	for _, id := range draft.Tags {
		if seenTags[id] {
			return nil, nil, invalid("tags", "tags must be unique")
		}
		seenTags[id] = true
	}

	existing, err := s.ingredients.ExistingIDs(ctx, nil, ingredientIDs)
	if err != nil {
		return nil, nil, translate("check ingredients", err)
	}
	for _, id := range ingredientIDs {
		if !existing[id] {
			return nil, nil, invalid("ingredients", fmt.Sprintf("ingredient %d does not exist", id))
		}
	}

	tags, err := s.tags.GetByIDs(ctx, nil, draft.Tags)
	if err != nil {
		return nil, nil, translate("check tags", err)
	}
	if len(tags) != len(draft.Tags) {
		found := make(map[uint]bool, len(tags))
		for _, t := range tags {
			found[t.ID] = true
		}
		for _, id := range draft.Tags {
			if !found[id] {
				return nil, nil, invalid("tags", fmt.Sprintf("tag %d does not exist", id))
			}
		}
	}

	return lines, draft.Tags, nil
}
