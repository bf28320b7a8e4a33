package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func registerRequest(username string) *types.RegisterRequest {
	return &types.RegisterRequest{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Password:  "s3cret-pass",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := testhelpers.NewTestServices(t)
	ctx := context.Background()

	user, err := svc.Auth.Register(ctx, registerRequest("ada"))
	require.NoError(t, err)
	assert.Equal(t, "ada", user.Username)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)

	token, err := svc.Auth.Login(ctx, "ADA@example.com", "s3cret-pass")
	require.NoError(t, err)

	claims, err := svc.Auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "ada", claims.Username)
	assert.False(t, claims.IsStaff)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc := testhelpers.NewTestServices(t)
	ctx := context.Background()

	_, err := svc.Auth.Register(ctx, registerRequest("ada"))
	require.NoError(t, err)

	_, err = svc.Auth.Register(ctx, registerRequest("ada"))
	assert.ErrorIs(t, err, service.ErrAlreadyExists)

	other := registerRequest("grace")
	other.Email = "ada@example.com"
	_, err = svc.Auth.Register(ctx, other)
	assert.ErrorIs(t, err, service.ErrAlreadyExists)
}

func TestRegisterValidation(t *testing.T) {
	svc := testhelpers.NewTestServices(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   *types.RegisterRequest
		field string
	}{
		{"bad username", &types.RegisterRequest{Email: "a@example.com", Username: "bad name", Password: "s3cret-pass"}, "username"},
		{"reserved username", &types.RegisterRequest{Email: "a@example.com", Username: "me", Password: "s3cret-pass"}, "username"},
		{"short password", &types.RegisterRequest{Email: "a@example.com", Username: "ada", Password: "short"}, "password"},
		{"numeric password", &types.RegisterRequest{Email: "a@example.com", Username: "ada", Password: "1234567890"}, "password"},
		{"password over 72 bytes", &types.RegisterRequest{Email: "a@example.com", Username: "ada", Password: strings.Repeat("a", 100)}, "password"},
		{"multibyte password over 72 bytes", &types.RegisterRequest{Email: "a@example.com", Username: "ada", Password: strings.Repeat("é", 40)}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Auth.Register(ctx, tt.req)
			var verr *service.ValidationError
			require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc := testhelpers.NewTestServices(t)
	ctx := context.Background()
	user := testhelpers.CreateTestUser(t, svc.DB, "ada")

	_, err := svc.Auth.Login(ctx, user.Email, "wrong-password")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = svc.Auth.Login(ctx, "nobody@example.com", testhelpers.TestPassword)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestSetPassword(t *testing.T) {
	svc := testhelpers.NewTestServices(t)
	ctx := context.Background()
	user := testhelpers.CreateTestUser(t, svc.DB, "ada")

	err := svc.Auth.SetPassword(ctx, user.ID, "not-the-password", "brand-new-pass")
	var verr *service.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "current_password", verr.Field)

	err = svc.Auth.SetPassword(ctx, user.ID, testhelpers.TestPassword, strings.Repeat("x", 73))
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	assert.Equal(t, "password", verr.Field)

	require.NoError(t, svc.Auth.SetPassword(ctx, user.ID, testhelpers.TestPassword, "brand-new-pass"))

	_, err = svc.Auth.Login(ctx, user.Email, testhelpers.TestPassword)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = svc.Auth.Login(ctx, user.Email, "brand-new-pass")
	assert.NoError(t, err)
}

func TestStaffClaim(t *testing.T) {
	svc := testhelpers.NewTestServices(t)
	staff := testhelpers.CreateTestStaffUser(t, svc.DB, "admin")

	token, err := svc.Auth.GenerateToken(staff)
	require.NoError(t, err)
	claims, err := svc.Auth.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, claims.IsStaff)
}

func TestValidateTokenRejects(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	users := repository.NewUserRepo(db, logger.NewNop())
	auth := service.NewAuthService(users, "test-secret", time.Hour, logger.NewNop())
	user := testhelpers.CreateTestUser(t, db, "ada")

	t.Run("wrong secret", func(t *testing.T) {
		other := service.NewAuthService(users, "other-secret", time.Hour, logger.NewNop())
		token, err := other.GenerateToken(user)
		require.NoError(t, err)
		_, err = auth.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		expired := service.NewAuthService(users, "test-secret", -time.Minute, logger.NewNop())
		token, err := expired.GenerateToken(user)
		require.NoError(t, err)
		_, err = auth.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := auth.ValidateToken("not-a-token")
		assert.Error(t, err)
	})
}
