package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// stubValidator loads a user matching the claims unless user or lookupErr
// say otherwise.
type stubValidator struct {
	claims    *types.TokenClaims
	err       error
	user      *models.User
	lookupErr error
}

func (s stubValidator) ValidateToken(string) (*types.TokenClaims, error) {
	return s.claims, s.err
}

func (s stubValidator) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	if s.user != nil {
		return s.user, nil
	}
	return &models.User{ID: id, Username: s.claims.Username, IsStaff: s.claims.IsStaff}, nil
}

func whoAmI(c *gin.Context) {
	id, ok := UserID(c)
	if !ok {
		c.String(http.StatusOK, "anonymous")
		return
	}
	if IsStaff(c) {
		c.String(http.StatusOK, "staff:"+id.String())
		return
	}
	c.String(http.StatusOK, id.String())
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userID := uuid.New()

	tests := []struct {
		name      string
		header    string
		validator stubValidator
		code      int
		body      string
	}{
		{"missing header", "", stubValidator{}, http.StatusUnauthorized, "missing authorization header"},
		{"wrong scheme", "Token abc", stubValidator{}, http.StatusUnauthorized, "invalid authorization header format"},
		{"empty token", "Bearer ", stubValidator{}, http.StatusUnauthorized, "invalid authorization header format"},
		{"invalid token", "Bearer abc", stubValidator{err: errors.New("bad")}, http.StatusUnauthorized, "invalid or expired token"},
		{"valid", "Bearer abc", stubValidator{claims: &types.TokenClaims{UserID: userID}}, http.StatusOK, userID.String()},
		{"staff", "Bearer abc", stubValidator{claims: &types.TokenClaims{UserID: userID, IsStaff: true}}, http.StatusOK, "staff:" + userID.String()},
		{"deleted user", "Bearer abc", stubValidator{
			claims:    &types.TokenClaims{UserID: userID},
			lookupErr: fmt.Errorf("get user: %w", service.ErrNotFound),
		}, http.StatusUnauthorized, "user not found"},
		{"lookup failure", "Bearer abc", stubValidator{
			claims:    &types.TokenClaims{UserID: userID},
			lookupErr: errors.New("connection refused"),
		}, http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/me", AuthMiddleware(tt.validator), whoAmI)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestAuthUsesCurrentStaffStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userID := uuid.New()
	revoked := stubValidator{
		claims: &types.TokenClaims{UserID: userID, Username: "ann", IsStaff: true},
		user:   &models.User{ID: userID, Username: "ann", IsStaff: false},
	}

	r := gin.New()
	r.GET("/me", AuthMiddleware(revoked), whoAmI)
	r.GET("/recipes", OptionalAuth(revoked), whoAmI)

	for _, path := range []string{"/me", "/recipes"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer abc")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, userID.String(), w.Body.String())
	}
}

func TestOptionalAuthRejectsDeletedUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/recipes", OptionalAuth(stubValidator{
		claims:    &types.TokenClaims{UserID: uuid.New()},
		lookupErr: service.ErrNotFound,
	}), whoAmI)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/recipes", nil)
	req.Header.Set("Authorization", "Bearer abc")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userID := uuid.New()

	r := gin.New()
	r.GET("/recipes", OptionalAuth(stubValidator{claims: &types.TokenClaims{UserID: userID}}), whoAmI)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/recipes", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/recipes", nil)
	req.Header.Set("Authorization", "Bearer abc")
	r.ServeHTTP(w, req)
	assert.Equal(t, userID.String(), w.Body.String())

	bad := gin.New()
	bad.GET("/recipes", OptionalAuth(stubValidator{err: errors.New("expired")}), whoAmI)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/recipes", nil)
	req.Header.Set("Authorization", "Bearer abc")
	bad.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	log := logger.NewNop()
	r.Use(RequestLogger(log), Recovery(log))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, w.Body.String())
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))
	r.GET("/tags", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/tags", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/tags", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
