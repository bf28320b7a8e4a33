package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestGetUserSubscribedFlag(t *testing.T) {
	svc := testhelpers.NewTestServices(t)
	ctx := context.Background()
	follower := testhelpers.CreateTestUser(t, svc.DB, "follower")
	chef := testhelpers.CreateTestUser(t, svc.DB, "chef")

	_, err := svc.Relations.Add(ctx, models.RelationSubscribe, follower.ID, chef.ID)
	require.NoError(t, err)

	viewed, err := svc.Users.GetUser(ctx, chef.ID, &follower.ID)
	require.NoError(t, err)
	assert.True(t, viewed.IsSubscribed)
	assert.Equal(t, "chef", viewed.Username)

	anonymous, err := svc.Users.GetUser(ctx, chef.ID, nil)
	require.NoError(t, err)
	assert.False(t, anonymous.IsSubscribed)

	self, err := svc.Users.GetUser(ctx, follower.ID, &follower.ID)
	require.NoError(t, err)
	assert.False(t, self.IsSubscribed)

	_, err = svc.Users.GetUser(ctx, uuid.New(), nil)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestSubscriptions(t *testing.T) {
	svc := testhelpers.NewTestServices(t)
	ctx := context.Background()
	db := svc.DB
	follower := testhelpers.CreateTestUser(t, db, "follower")
	chef := testhelpers.CreateTestUser(t, db, "chef")
	baker := testhelpers.CreateTestUser(t, db, "baker")
	testhelpers.CreateTestUser(t, db, "stranger")

	now := time.Now()
	for i, name := range []string{"Stew", "Roast", "Curry"} {
		r := testhelpers.CreateTestRecipe(t, db, chef.ID, name, nil)
		testhelpers.SetCreatedAt(t, db, r, now.Add(time.Duration(i)*time.Minute))
	}

	_, err := svc.Relations.Add(ctx, models.RelationSubscribe, follower.ID, chef.ID)
	require.NoError(t, err)
	_, err = svc.Relations.Add(ctx, models.RelationSubscribe, follower.ID, baker.ID)
	require.NoError(t, err)

	subs, err := svc.Users.Subscriptions(ctx, follower.ID, 2)
	require.NoError(t, err)
	require.Len(t, subs, 2)

	assert.Equal(t, "chef", subs[0].Username)
	assert.True(t, subs[0].IsSubscribed)
	assert.Equal(t, int64(3), subs[0].RecipesCount)
	require.Len(t, subs[0].Recipes, 2)
	assert.Equal(t, "Curry", subs[0].Recipes[0].Name)
	assert.Equal(t, "Roast", subs[0].Recipes[1].Name)

	assert.Equal(t, "baker", subs[1].Username)
	assert.Zero(t, subs[1].RecipesCount)
	assert.Empty(t, subs[1].Recipes)

	unlimited, err := svc.Users.Subscriptions(ctx, follower.ID, service.NoRecipesLimit)
	require.NoError(t, err)
	assert.Len(t, unlimited[0].Recipes, 3)

	none, err := svc.Users.Subscriptions(ctx, follower.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, none[0].Recipes)
	assert.Equal(t, int64(3), none[0].RecipesCount)

	empty, err := svc.Users.Subscriptions(ctx, chef.ID, service.NoRecipesLimit)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestParseRecipesLimit(t *testing.T) {
	limit, err := service.ParseRecipesLimit("")
	require.NoError(t, err)
	assert.Equal(t, service.NoRecipesLimit, limit)

	limit, err = service.ParseRecipesLimit("3")
	require.NoError(t, err)
	assert.Equal(t, 3, limit)

	for _, raw := range []string{"abc", "-1", "1.5"} {
		_, err := service.ParseRecipesLimit(raw)
		var verr *service.ValidationError
		assert.True(t, errors.As(err, &verr), "raw %q", raw)
	}
}
