package service_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestListIngredientsSearch(t *testing.T) {
	svc := testhelpers.NewTestServices(t)
	ctx := context.Background()
	for _, name := range []string{"sugar", "Salt", "flour", "salmon", "100%_juice"} {
		testhelpers.CreateTestIngredient(t, svc.DB, name, "g")
	}

	all, err := svc.Catalog.ListIngredients(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	found, err := svc.Catalog.ListIngredients(ctx, "sa")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Salt", found[0].Name)
	assert.Equal(t, "salmon", found[1].Name)

	literal, err := svc.Catalog.ListIngredients(ctx, "100%_")
	require.NoError(t, err)
	require.Len(t, literal, 1)

	wildcard, err := svc.Catalog.ListIngredients(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, wildcard)
}

func TestGetIngredientAndTag(t *testing.T) {
	svc := testhelpers.NewTestServices(t)
	ctx := context.Background()
	flour := testhelpers.CreateTestIngredient(t, svc.DB, "flour", "g")
	tag := testhelpers.CreateTestTag(t, svc.DB, "Breakfast", "breakfast", "#E26C2D")

	ingredient, err := svc.Catalog.GetIngredient(ctx, flour.ID)
	require.NoError(t, err)
	assert.Equal(t, "g", ingredient.MeasurementUnit)

	gotTag, err := svc.Catalog.GetTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "#E26C2D", gotTag.Color)

	_, err = svc.Catalog.GetIngredient(ctx, 999)
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = svc.Catalog.GetTag(ctx, 999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestListTagsUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	db := testhelpers.SetupTestDatabase(t)
	log := testLogger()
	catalog := service.NewCatalogService(repository.NewIngredientRepo(db, log), repository.NewTagRepo(db, log), client, log)
	ctx := context.Background()

	testhelpers.CreateTestTag(t, db, "Breakfast", "breakfast", "#E26C2D")

	first, err := catalog.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, mr.Exists("catalog:tags"))
	assert.Greater(t, mr.TTL("catalog:tags").Minutes(), 9.0)

	testhelpers.CreateTestTag(t, db, "Dinner", "dinner", "#8775D2")

	cached, err := catalog.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	require.NoError(t, catalog.InvalidateTags(ctx))
	fresh, err := catalog.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
}

func TestListTagsWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	db := testhelpers.SetupTestDatabase(t)
	log := testLogger()
	catalog := service.NewCatalogService(repository.NewIngredientRepo(db, log), repository.NewTagRepo(db, log), client, log)
	testhelpers.CreateTestTag(t, db, "Breakfast", "breakfast", "#E26C2D")

	tags, err := catalog.ListTags(context.Background())
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestImportCatalog(t *testing.T) {
	svc := testhelpers.NewTestServices(t)
	ctx := context.Background()
	testhelpers.CreateTestIngredient(t, svc.DB, "flour", "g")

	result, err := svc.Catalog.Import(ctx,
		[]*models.Ingredient{
			{Name: "flour", MeasurementUnit: "g"},
			{Name: " flour ", MeasurementUnit: "kg"},
			{Name: "milk", MeasurementUnit: "ml"},
		},
		[]*models.Tag{
			{Name: "Breakfast", Slug: "breakfast", Color: "#E26C2D"},
		},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Ingredients)
	assert.Equal(t, int64(1), result.Tags)

	again, err := svc.Catalog.Import(ctx, nil, []*models.Tag{{Name: "Breakfast", Slug: "breakfast", Color: "#E26C2D"}})
	require.NoError(t, err)
	assert.Zero(t, again.Tags)

	all, err := svc.Catalog.ListIngredients(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = svc.Catalog.Import(ctx, nil, []*models.Tag{{Name: "Bad", Slug: "bad", Color: "red"}})
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "tags[0]", verr.Field)
}
