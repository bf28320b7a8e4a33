package types

import (
	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/models"
)

type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}

type UserResponse struct {
	Email        string    `json:"email"`
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsSubscribed bool      `json:"is_subscribed"`
}

type TagResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type IngredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// RecipeIngredientResponse is an ingredient line; ID is the ingredient id.
type RecipeIngredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type RecipeResponse struct {
	ID               uuid.UUID                  `json:"id"`
	Tags             []TagResponse              `json:"tags"`
	Author           UserResponse               `json:"author"`
	Ingredients      []RecipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
}

type ShortRecipeResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	CookingTime int       `json:"cooking_time"`
}

type SubscriptionResponse struct {
	UserResponse
	Recipes      []ShortRecipeResponse `json:"recipes"`
	RecipesCount int64                 `json:"recipes_count"`
}

// RecipeViewerState carries the per-viewer flags of a recipe. All false for
// anonymous viewers.
type RecipeViewerState struct {
	IsFavorited      bool
	IsInShoppingCart bool
	AuthorSubscribed bool
}

func NewUserResponse(u *models.User, isSubscribed bool) UserResponse {
	return UserResponse{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: isSubscribed,
	}
}

func NewTagResponse(t *models.Tag) TagResponse {
	return TagResponse{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func NewIngredientResponse(i *models.Ingredient) IngredientResponse {
	return IngredientResponse{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

func NewRecipeResponse(r *models.Recipe, state RecipeViewerState) RecipeResponse {
	tags := make([]TagResponse, len(r.Tags))
	for i := range r.Tags {
		tags[i] = NewTagResponse(&r.Tags[i])
	}
	lines := make([]RecipeIngredientResponse, len(r.Ingredients))
	for i, line := range r.Ingredients {
		lines[i] = RecipeIngredientResponse{
			ID:              line.IngredientID,
			Name:            line.Ingredient.Name,
			MeasurementUnit: line.Ingredient.MeasurementUnit,
			Amount:          line.Amount,
		}
	}
	return RecipeResponse{
		ID:               r.ID,
		Tags:             tags,
		Author:           NewUserResponse(&r.Author, state.AuthorSubscribed),
		Ingredients:      lines,
		IsFavorited:      state.IsFavorited,
		IsInShoppingCart: state.IsInShoppingCart,
		Name:             r.Name,
		Image:            r.ImageRef,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}
}

func NewShortRecipeResponse(r *models.Recipe) ShortRecipeResponse {
	return ShortRecipeResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       r.ImageRef,
		CookingTime: r.CookingTime,
	}
}

// NewSubscriptionResponse projects a followed user. The viewer is by
// definition subscribed.
func NewSubscriptionResponse(u *models.User, recipes []*models.Recipe, recipesCount int64) SubscriptionResponse {
	short := make([]ShortRecipeResponse, len(recipes))
	for i, r := range recipes {
		short[i] = NewShortRecipeResponse(r)
	}
	return SubscriptionResponse{
		UserResponse: NewUserResponse(u, true),
		Recipes:      short,
		RecipesCount: recipesCount,
	}
}
