package api

import (
	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Dependencies are the services behind the HTTP surface
type Dependencies struct {
	Auth         service.IAuthService
	Users        service.IUserService
	Recipes      service.IRecipeService
	Relations    service.IRelationshipService
	ShoppingList service.IShoppingListService
	Catalog      service.ICatalogService

	// Optional
	RecipeCreationLimiter     *middleware.RateLimiter
	RecipeModificationLimiter *middleware.RateLimiter
	Health                    HealthChecker

	Log *logger.Logger
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health", HealthCheck(deps.Health))

	v1 := router.Group("/api/v1")
	v1.GET("/health", HealthCheck(deps.Health))

	NewUserHandler(deps.Auth, deps.Users, deps.Relations, deps.Log).RegisterRoutes(v1)
	NewRecipeHandler(
		deps.Auth,
		deps.Recipes,
		deps.Relations,
		deps.ShoppingList,
		deps.RecipeCreationLimiter,
		deps.RecipeModificationLimiter,
		deps.Log,
	).RegisterRoutes(v1)
	NewCatalogHandler(deps.Catalog, deps.Log).RegisterRoutes(v1)
}
