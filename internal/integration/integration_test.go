package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

// Runs the service layer against PostgreSQL with the versioned migrations.
func TestFoodgramOnPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}

	db := testhelpers.SetupPostgresDatabase(t, "../../migrations")
	svc := testhelpers.NewTestServicesWithDB(t, db)
	ctx := context.Background()

	author, err := svc.Auth.Register(ctx, &types.RegisterRequest{
		Email: "author@example.com", Username: "author", FirstName: "Ann", LastName: "Author", Password: "long-password",
	})
	require.NoError(t, err)
	shopper, err := svc.Auth.Register(ctx, &types.RegisterRequest{
		Email: "shopper@example.com", Username: "shopper", FirstName: "Sam", LastName: "Shopper", Password: "long-password",
	})
	require.NoError(t, err)

	_, err = svc.Auth.Register(ctx, &types.RegisterRequest{
		Email: "AUTHOR@example.com", Username: "someone", FirstName: "A", LastName: "B", Password: "long-password",
	})
	assert.ErrorIs(t, err, service.ErrAlreadyExists)

	imported, err := svc.Catalog.Import(ctx,
		[]*models.Ingredient{
			{Name: "flour", MeasurementUnit: "g"},
			{Name: "sugar", MeasurementUnit: "g"},
		},
		[]*models.Tag{
			{Name: "Breakfast", Slug: "breakfast", Color: "#E26C2D"},
			{Name: "Vegan", Slug: "vegan", Color: "#2E8B57"},
		},
	)
	require.NoError(t, err)
	require.Equal(t, int64(2), imported.Ingredients)

	ingredients, err := svc.Catalog.ListIngredients(ctx, "")
	require.NoError(t, err)
	tags, err := svc.Catalog.ListTags(ctx)
	require.NoError(t, err)
	flour, sugar := ingredients[0], ingredients[1]

	pancakes, err := svc.Recipes.CreateRecipe(ctx, author.ID, &types.RecipeDraftRequest{
		Name: "Pancakes", Text: "Mix and fry", CookingTime: 20, Image: testhelpers.PNGDataURI,
		Tags:        []uint{tags[0].ID},
		Ingredients: []types.IngredientLineRequest{{ID: flour.ID, Amount: 200}},
	})
	require.NoError(t, err)
	cake, err := svc.Recipes.CreateRecipe(ctx, author.ID, &types.RecipeDraftRequest{
		Name: "Cake", Text: "Bake", CookingTime: 60, Image: testhelpers.PNGDataURI,
		Tags:        []uint{tags[1].ID},
		Ingredients: []types.IngredientLineRequest{{ID: sugar.ID, Amount: 50}, {ID: flour.ID, Amount: 100}},
	})
	require.NoError(t, err)

	for _, id := range []types.RecipeResponse{*pancakes, *cake} {
		_, err := svc.Relations.Add(ctx, models.RelationShoppingCart, shopper.ID, id.ID)
		require.NoError(t, err)
	}
	_, err = svc.Relations.Add(ctx, models.RelationShoppingCart, shopper.ID, cake.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyExists)

	list, err := svc.ShoppingList.BuildShoppingList(ctx, shopper.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shopping list for: Sam Shopper (shopper)\n\nflour (g): 300\nsugar (g): 50\n", list.Body)

	filtered, err := svc.Recipes.ListRecipes(ctx, service.RecipeQuery{
		TagSlugs:         []string{"breakfast", "vegan"},
		IsInShoppingCart: true,
	}, &shopper.ID)
	require.NoError(t, err)
	assert.Len(t, filtered, 2)
	for _, r := range filtered {
		assert.True(t, r.IsInShoppingCart)
	}

	_, err = svc.Relations.Add(ctx, models.RelationSubscribe, shopper.ID, author.ID)
	require.NoError(t, err)
	subs, err := svc.Users.Subscriptions(ctx, shopper.ID, 1)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, int64(2), subs[0].RecipesCount)
	assert.Len(t, subs[0].Recipes, 1)

	require.NoError(t, svc.Recipes.DeleteRecipe(ctx, cake.ID, service.Actor{ID: author.ID}))
	list, err = svc.ShoppingList.BuildShoppingList(ctx, shopper.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shopping list for: Sam Shopper (shopper)\n\nflour (g): 200\n", list.Body)
}
