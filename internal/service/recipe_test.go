package service_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

type recipeFixture struct {
	svc       *testhelpers.TestServices
	author    *models.User
	other     *models.User
	flour     *models.Ingredient
	sugar     *models.Ingredient
	eggs      *models.Ingredient
	breakfast *models.Tag
	dinner    *models.Tag
	vegan     *models.Tag
}

func newRecipeFixture(t *testing.T) *recipeFixture {
	svc := testhelpers.NewTestServices(t)
	return &recipeFixture{
		svc:       svc,
		author:    testhelpers.CreateTestUser(t, svc.DB, "author"),
		other:     testhelpers.CreateTestUser(t, svc.DB, "other"),
		flour:     testhelpers.CreateTestIngredient(t, svc.DB, "flour", "g"),
		sugar:     testhelpers.CreateTestIngredient(t, svc.DB, "sugar", "g"),
		eggs:      testhelpers.CreateTestIngredient(t, svc.DB, "eggs", "pcs"),
		breakfast: testhelpers.CreateTestTag(t, svc.DB, "Breakfast", "breakfast", "#E26C2D"),
		dinner:    testhelpers.CreateTestTag(t, svc.DB, "Dinner", "dinner", "#8775D2"),
		vegan:     testhelpers.CreateTestTag(t, svc.DB, "Vegan", "vegan", "#49B64E"),
	}
}

func (f *recipeFixture) draft() *types.RecipeDraftRequest {
	return &types.RecipeDraftRequest{
		Ingredients: []types.IngredientLineRequest{
			{ID: f.sugar.ID, Amount: 50},
			{ID: f.flour.ID, Amount: 200},
		},
		Tags:        []uint{f.breakfast.ID},
		Image:       testhelpers.PNGDataURI,
		Name:        "Pancakes",
		Text:        "Mix everything and fry.",
		CookingTime: 20,
	}
}

func TestCreateRecipe(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Recipes.CreateRecipe(ctx, f.author.ID, f.draft())
	require.NoError(t, err)

	assert.Equal(t, "Pancakes", resp.Name)
	assert.Equal(t, 20, resp.CookingTime)
	assert.Equal(t, f.author.ID, resp.Author.ID)
	assert.Equal(t, "https://images.test/recipes/images/1.png", resp.Image)
	require.Len(t, resp.Ingredients, 2)
	assert.Equal(t, f.sugar.ID, resp.Ingredients[0].ID)
	assert.Equal(t, 50, resp.Ingredients[0].Amount)
	assert.Equal(t, f.flour.ID, resp.Ingredients[1].ID)
	assert.Equal(t, "g", resp.Ingredients[1].MeasurementUnit)
	require.Len(t, resp.Tags, 1)
	assert.Equal(t, "breakfast", resp.Tags[0].Slug)
	assert.False(t, resp.IsFavorited)
	assert.False(t, resp.IsInShoppingCart)
}

func TestCreateRecipeValidation(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(d *types.RecipeDraftRequest)
		field  string
	}{
		{"no ingredients", func(d *types.RecipeDraftRequest) { d.Ingredients = nil }, "ingredients"},
		{"duplicate ingredient", func(d *types.RecipeDraftRequest) {
			d.Ingredients = append(d.Ingredients, types.IngredientLineRequest{ID: f.flour.ID, Amount: 1})
		}, "ingredients"},
		{"zero amount", func(d *types.RecipeDraftRequest) { d.Ingredients[0].Amount = 0 }, "ingredients"},
		{"amount too large", func(d *types.RecipeDraftRequest) { d.Ingredients[0].Amount = 32768 }, "ingredients"},
		{"huge amount", func(d *types.RecipeDraftRequest) { d.Ingredients[0].Amount = math.MaxInt }, "ingredients"},
		{"unknown ingredient", func(d *types.RecipeDraftRequest) { d.Ingredients[0].ID = 9999 }, "ingredients"},
		{"no tags", func(d *types.RecipeDraftRequest) { d.Tags = nil }, "tags"},
		{"duplicate tag", func(d *types.RecipeDraftRequest) { d.Tags = []uint{f.vegan.ID, f.vegan.ID} }, "tags"},
		{"unknown tag", func(d *types.RecipeDraftRequest) { d.Tags = []uint{f.vegan.ID, 9999} }, "tags"},
		{"zero cooking time", func(d *types.RecipeDraftRequest) { d.CookingTime = 0 }, "cooking_time"},
		{"cooking time too large", func(d *types.RecipeDraftRequest) { d.CookingTime = 32768 }, "cooking_time"},
		{"empty name", func(d *types.RecipeDraftRequest) { d.Name = "   " }, "name"},
		{"long name", func(d *types.RecipeDraftRequest) { d.Name = strings.Repeat("a", 201) }, "name"},
		{"empty text", func(d *types.RecipeDraftRequest) { d.Text = "" }, "text"},
		{"missing image", func(d *types.RecipeDraftRequest) { d.Image = "" }, "image"},
		{"invalid image", func(d *types.RecipeDraftRequest) { d.Image = "data:text/plain;base64,aGVsbG8=" }, "image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := f.draft()
			tt.mutate(draft)

			_, err := f.svc.Recipes.CreateRecipe(ctx, f.author.ID, draft)
			var verr *service.ValidationError
			require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	var count int64
	require.NoError(t, f.svc.DB.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateRecipeAcceptsUpperBounds(t *testing.T) {
	f := newRecipeFixture(t)
	draft := f.draft()
	draft.Ingredients[0].Amount = 32767
	draft.CookingTime = 32767

	resp, err := f.svc.Recipes.CreateRecipe(context.Background(), f.author.ID, draft)
	require.NoError(t, err)
	assert.Equal(t, 32767, resp.CookingTime)
	assert.Equal(t, 32767, resp.Ingredients[0].Amount)
}

func TestUpdateRecipeRejectsOversizedAmount(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	created, err := f.svc.Recipes.CreateRecipe(ctx, f.author.ID, f.draft())
	require.NoError(t, err)

	draft := f.draft()
	draft.Image = ""
	draft.Ingredients[1].Amount = math.MaxInt
	_, err = f.svc.Recipes.UpdateRecipe(ctx, created.ID, service.Actor{ID: f.author.ID}, draft)
	var verr *service.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	assert.Equal(t, "ingredients", verr.Field)
}

func TestUpdateRecipeReplacesLinesAndTags(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	created, err := f.svc.Recipes.CreateRecipe(ctx, f.author.ID, f.draft())
	require.NoError(t, err)

	draft := &types.RecipeDraftRequest{
		Ingredients: []types.IngredientLineRequest{{ID: f.eggs.ID, Amount: 3}},
		Tags:        []uint{f.dinner.ID, f.vegan.ID},
		Name:        "Omelette",
		Text:        "Beat and cook.",
		CookingTime: 5,
	}
	updated, err := f.svc.Recipes.UpdateRecipe(ctx, created.ID, service.Actor{ID: f.author.ID}, draft)
	require.NoError(t, err)

	assert.Equal(t, "Omelette", updated.Name)
	assert.Equal(t, created.Image, updated.Image)
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, f.eggs.ID, updated.Ingredients[0].ID)
	assert.Equal(t, 3, updated.Ingredients[0].Amount)
	require.Len(t, updated.Tags, 2)
	assert.Equal(t, "dinner", updated.Tags[0].Slug)
	assert.Equal(t, "vegan", updated.Tags[1].Slug)

	var lines int64
	require.NoError(t, f.svc.DB.Model(&models.RecipeIngredient{}).Where("recipe_id = ?", created.ID).Count(&lines).Error)
	assert.Equal(t, int64(1), lines)
}

func TestUpdateRecipeWithNewImage(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	created, err := f.svc.Recipes.CreateRecipe(ctx, f.author.ID, f.draft())
	require.NoError(t, err)

	updated, err := f.svc.Recipes.UpdateRecipe(ctx, created.ID, service.Actor{ID: f.author.ID}, f.draft())
	require.NoError(t, err)
	assert.Equal(t, "https://images.test/recipes/images/2.png", updated.Image)
}

func TestUpdateAndDeleteRecipePermissions(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	staff := testhelpers.CreateTestStaffUser(t, f.svc.DB, "staff")

	created, err := f.svc.Recipes.CreateRecipe(ctx, f.author.ID, f.draft())
	require.NoError(t, err)

	_, err = f.svc.Recipes.UpdateRecipe(ctx, created.ID, service.Actor{ID: f.other.ID}, f.draft())
	assert.ErrorIs(t, err, service.ErrForbidden)

	err = f.svc.Recipes.DeleteRecipe(ctx, created.ID, service.Actor{ID: f.other.ID})
	assert.ErrorIs(t, err, service.ErrForbidden)

	draft := f.draft()
	draft.Name = "Staff pancakes"
	updated, err := f.svc.Recipes.UpdateRecipe(ctx, created.ID, service.Actor{ID: staff.ID, IsStaff: true}, draft)
	require.NoError(t, err)
	assert.Equal(t, "Staff pancakes", updated.Name)
	assert.Equal(t, f.author.ID, updated.Author.ID)

	require.NoError(t, f.svc.Recipes.DeleteRecipe(ctx, created.ID, service.Actor{ID: staff.ID, IsStaff: true}))
}

func TestUpdateMissingRecipe(t *testing.T) {
	f := newRecipeFixture(t)

	_, err := f.svc.Recipes.UpdateRecipe(context.Background(), uuid.New(), service.Actor{ID: f.author.ID}, f.draft())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteRecipeCascades(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	created, err := f.svc.Recipes.CreateRecipe(ctx, f.author.ID, f.draft())
	require.NoError(t, err)
	_, err = f.svc.Relations.Add(ctx, models.RelationFavorite, f.other.ID, created.ID)
	require.NoError(t, err)
	_, err = f.svc.Relations.Add(ctx, models.RelationShoppingCart, f.other.ID, created.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Recipes.DeleteRecipe(ctx, created.ID, service.Actor{ID: f.author.ID}))

	_, err = f.svc.Recipes.GetRecipe(ctx, created.ID, nil)
	assert.ErrorIs(t, err, service.ErrNotFound)

	for _, model := range []interface{}{&models.RecipeIngredient{}, &models.RecipeTag{}, &models.Favorite{}, &models.ShoppingCart{}} {
		var count int64
		require.NoError(t, f.svc.DB.Model(model).Where("recipe_id = ?", created.ID).Count(&count).Error)
		assert.Zero(t, count)
	}

	err = f.svc.Recipes.DeleteRecipe(ctx, created.ID, service.Actor{ID: f.author.ID})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestListRecipesFilters(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	db := f.svc.DB
	line := repository.IngredientLine{IngredientID: f.flour.ID, Amount: 100}

	porridge := testhelpers.CreateTestRecipe(t, db, f.author.ID, "Porridge", []uint{f.breakfast.ID}, line)
	salad := testhelpers.CreateTestRecipe(t, db, f.author.ID, "Salad", []uint{f.vegan.ID}, line)
	steak := testhelpers.CreateTestRecipe(t, db, f.other.ID, "Steak", []uint{f.dinner.ID}, line)

	now := time.Now()
	testhelpers.SetCreatedAt(t, db, porridge, now.Add(-3*time.Hour))
	testhelpers.SetCreatedAt(t, db, salad, now.Add(-2*time.Hour))
	testhelpers.SetCreatedAt(t, db, steak, now.Add(-1*time.Hour))

	names := func(list []types.RecipeResponse) []string {
		out := make([]string, len(list))
		for i, r := range list {
			out[i] = r.Name
		}
		return out
	}

	all, err := f.svc.Recipes.ListRecipes(ctx, service.RecipeQuery{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Steak", "Salad", "Porridge"}, names(all))

	tagged, err := f.svc.Recipes.ListRecipes(ctx, service.RecipeQuery{TagSlugs: []string{"breakfast", "vegan"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Salad", "Porridge"}, names(tagged))

	byAuthor, err := f.svc.Recipes.ListRecipes(ctx, service.RecipeQuery{AuthorID: &f.other.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Steak"}, names(byAuthor))

	_, err = f.svc.Relations.Add(ctx, models.RelationFavorite, f.other.ID, porridge.ID)
	require.NoError(t, err)
	_, err = f.svc.Relations.Add(ctx, models.RelationShoppingCart, f.other.ID, salad.ID)
	require.NoError(t, err)

	favorited, err := f.svc.Recipes.ListRecipes(ctx, service.RecipeQuery{IsFavorited: true}, &f.other.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Porridge"}, names(favorited))
	assert.True(t, favorited[0].IsFavorited)

	inCart, err := f.svc.Recipes.ListRecipes(ctx, service.RecipeQuery{IsInShoppingCart: true}, &f.other.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Salad"}, names(inCart))
	assert.True(t, inCart[0].IsInShoppingCart)

	anonymous, err := f.svc.Recipes.ListRecipes(ctx, service.RecipeQuery{IsFavorited: true}, nil)
	require.NoError(t, err)
	assert.Len(t, anonymous, 3)
	for _, r := range anonymous {
		assert.False(t, r.IsFavorited)
		assert.False(t, r.IsInShoppingCart)
	}
}

func TestGetRecipeViewerFlags(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	created, err := f.svc.Recipes.CreateRecipe(ctx, f.author.ID, f.draft())
	require.NoError(t, err)
	_, err = f.svc.Relations.Add(ctx, models.RelationFavorite, f.other.ID, created.ID)
	require.NoError(t, err)
	_, err = f.svc.Relations.Add(ctx, models.RelationSubscribe, f.other.ID, f.author.ID)
	require.NoError(t, err)

	viewed, err := f.svc.Recipes.GetRecipe(ctx, created.ID, &f.other.ID)
	require.NoError(t, err)
	assert.True(t, viewed.IsFavorited)
	assert.False(t, viewed.IsInShoppingCart)
	assert.True(t, viewed.Author.IsSubscribed)

	anonymous, err := f.svc.Recipes.GetRecipe(ctx, created.ID, nil)
	require.NoError(t, err)
	assert.False(t, anonymous.IsFavorited)
	assert.False(t, anonymous.Author.IsSubscribed)
}
