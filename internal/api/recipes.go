package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type RecipeHandler struct {
	auth                service.IAuthService
	recipes             service.IRecipeService
	relations           service.IRelationshipService
	shopping            service.IShoppingListService
	creationLimiter     *middleware.RateLimiter
	modificationLimiter *middleware.RateLimiter
	log                 *logger.Logger
}

// NewRecipeHandler creates the recipe handler. Either limiter may be nil to
// disable that limit.
func NewRecipeHandler(
	auth service.IAuthService,
	recipes service.IRecipeService,
	relations service.IRelationshipService,
	shopping service.IShoppingListService,
	creationLimiter, modificationLimiter *middleware.RateLimiter,
	log *logger.Logger,
) *RecipeHandler {
	return &RecipeHandler{
		auth:                auth,
		recipes:             recipes,
		relations:           relations,
		shopping:            shopping,
		creationLimiter:     creationLimiter,
		modificationLimiter: modificationLimiter,
		log:                 log.With("handler", "RecipeHandler"),
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	requireAuth := middleware.AuthMiddleware(h.auth)
	optionalAuth := middleware.OptionalAuth(h.auth)

	create := []gin.HandlerFunc{requireAuth}
	if h.creationLimiter != nil {
		create = append(create, h.creationLimiter.RateLimitMiddleware())
	}
	update := []gin.HandlerFunc{requireAuth}
	if h.modificationLimiter != nil {
		update = append(update, h.modificationLimiter.PerRecipeRateLimitMiddleware())
	}

	recipes := router.Group("/recipes")
	{
		recipes.GET("", optionalAuth, h.ListRecipes)
		recipes.POST("", append(create, h.CreateRecipe)...)
		recipes.GET("/shopping_cart/download", requireAuth, h.DownloadShoppingCart)
		recipes.GET("/:id", optionalAuth, h.GetRecipe)
		recipes.PATCH("/:id", append(update, h.UpdateRecipe)...)
		recipes.DELETE("/:id", requireAuth, h.DeleteRecipe)
		recipes.POST("/:id/favorite", requireAuth, h.relationAdd(models.RelationFavorite))
		recipes.DELETE("/:id/favorite", requireAuth, h.relationRemove(models.RelationFavorite))
		recipes.POST("/:id/shopping_cart", requireAuth, h.relationAdd(models.RelationShoppingCart))
		recipes.DELETE("/:id/shopping_cart", requireAuth, h.relationRemove(models.RelationShoppingCart))
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	query := service.RecipeQuery{TagSlugs: c.QueryArray("tags")}

	if raw := c.Query("author"); raw != "" {
		authorID, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, h.log, &service.ValidationError{Field: "author", Reason: "must be a user id"})
			return
		}
		query.AuthorID = &authorID
	}

	var err error
	if query.IsFavorited, err = queryBool(c, "is_favorited"); err != nil {
		respondError(c, h.log, err)
		return
	}
	if query.IsInShoppingCart, err = queryBool(c, "is_in_shopping_cart"); err != nil {
		respondError(c, h.log, err)
		return
	}

	recipes, err := h.recipes.ListRecipes(c.Request.Context(), query, viewer(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	recipe, err := h.recipes.GetRecipe(c.Request.Context(), id, viewer(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var draft types.RecipeDraftRequest
	if err := c.ShouldBindJSON(&draft); err != nil {
		bindError(c, err)
		return
	}

	recipe, err := h.recipes.CreateRecipe(c.Request.Context(), userID, &draft)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.log.Info("recipe created", "recipe_id", recipe.ID, "author_id", userID)
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var draft types.RecipeDraftRequest
	if err := c.ShouldBindJSON(&draft); err != nil {
		bindError(c, err)
		return
	}

	actor := service.Actor{ID: userID, IsStaff: middleware.IsStaff(c)}
	recipe, err := h.recipes.UpdateRecipe(c.Request.Context(), id, actor, &draft)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	actor := service.Actor{ID: userID, IsStaff: middleware.IsStaff(c)}
	if err := h.recipes.DeleteRecipe(c.Request.Context(), id, actor); err != nil {
		respondError(c, h.log, err)
		return
	}

	h.log.Info("recipe deleted", "recipe_id", id, "actor_id", userID)
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) relationAdd(kind models.RelationKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		target, err := h.relations.Toggle(c.Request.Context(), kind, service.ToggleAdd, userID, id)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusCreated, types.NewShortRecipeResponse(target.Recipe))
	}
}

func (h *RecipeHandler) relationRemove(kind models.RelationKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		if _, err := h.relations.Toggle(c.Request.Context(), kind, service.ToggleRemove, userID, id); err != nil {
			respondError(c, h.log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	list, err := h.shopping.BuildShoppingList(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", list.Filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(list.Body))
}
