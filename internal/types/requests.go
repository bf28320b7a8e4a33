package types

// RegisterRequest represents the request body for creating an account
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,max=150"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required"`
}

// LoginRequest represents the request body for obtaining a token
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SetPasswordRequest represents the request body for changing the password
type SetPasswordRequest struct {
	NewPassword     string `json:"new_password" binding:"required"`
	CurrentPassword string `json:"current_password" binding:"required"`
}

// IngredientLineRequest is one ingredient entry of a recipe draft
type IngredientLineRequest struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// RecipeDraftRequest is the unvalidated body of a recipe create or update.
// Image is a base64 data URI; it may be left empty on update to keep the
// current image.
type RecipeDraftRequest struct {
	Ingredients []IngredientLineRequest `json:"ingredients"`
	Tags        []uint                  `json:"tags"`
	Image       string                  `json:"image"`
	Name        string                  `json:"name"`
	Text        string                  `json:"text"`
	CookingTime int                     `json:"cooking_time"`
}
