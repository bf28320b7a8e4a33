package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// UserHandler serves accounts, tokens and subscriptions
type UserHandler struct {
	auth      service.IAuthService
	users     service.IUserService
	relations service.IRelationshipService
	log       *logger.Logger
}

func NewUserHandler(auth service.IAuthService, users service.IUserService, relations service.IRelationshipService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		auth:      auth,
		users:     users,
		relations: relations,
		log:       log.With("handler", "UserHandler"),
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	requireAuth := middleware.AuthMiddleware(h.auth)

	tokens := router.Group("/auth/token")
	{
		tokens.POST("/login", h.Login)
		tokens.POST("/logout", requireAuth, h.Logout)
	}

	users := router.Group("/users")
	{
		users.POST("", h.Register)
		users.GET("/me", requireAuth, h.Me)
		users.POST("/set_password", requireAuth, h.SetPassword)
		users.GET("/subscriptions", requireAuth, h.Subscriptions)
		users.GET("/:id", middleware.OptionalAuth(h.auth), h.GetUser)
		users.POST("/:id/subscribe", requireAuth, h.Subscribe)
		users.DELETE("/:id/subscribe", requireAuth, h.Unsubscribe)
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.log.Info("user registered", "user_id", user.ID, "username", user.Username)
	c.JSON(http.StatusCreated, types.NewUserResponse(user, false))
}

func (h *UserHandler) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, types.TokenResponse{AuthToken: token})
}

// Logout exists for client compatibility; tokens are stateless and simply
// expire.
func (h *UserHandler) Logout(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), userID, &userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.auth.SetPassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), id, viewer(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	limit, err := service.ParseRecipesLimit(c.Query("recipes_limit"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	subs, err := h.users.Subscriptions(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	target, ok := pathID(c)
	if !ok {
		return
	}
	limit, err := service.ParseRecipesLimit(c.Query("recipes_limit"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	resolved, err := h.relations.Toggle(c.Request.Context(), models.RelationSubscribe, service.ToggleAdd, userID, target)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	view, err := h.users.SubscriptionView(c.Request.Context(), resolved.User, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	target, ok := pathID(c)
	if !ok {
		return
	}

	if _, err := h.relations.Toggle(c.Request.Context(), models.RelationSubscribe, service.ToggleRemove, userID, target); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
