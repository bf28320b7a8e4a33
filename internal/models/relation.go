package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RelationKind names one of the user membership relations.
type RelationKind int

const (
	RelationFavorite RelationKind = iota
	RelationShoppingCart
	RelationSubscribe
)

func (k RelationKind) String() string {
	switch k {
	case RelationFavorite:
		return "favorite"
	case RelationShoppingCart:
		return "shopping_cart"
	case RelationSubscribe:
		return "subscribe"
	default:
		return fmt.Sprintf("relation(%d)", int(k))
	}
}

// TargetsRecipe reports whether the relation points at a recipe rather than a user.
func (k RelationKind) TargetsRecipe() bool {
	return k == RelationFavorite || k == RelationShoppingCart
}

type Favorite struct {
	ID        uint      `gorm:"primarykey"`
	UserID    uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_favorite_user_recipe"`
	RecipeID  uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_favorite_user_recipe;index"`
	CreatedAt time.Time
}

type ShoppingCart struct {
	ID        uint      `gorm:"primarykey"`
	UserID    uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_shopping_cart_user_recipe"`
	RecipeID  uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_shopping_cart_user_recipe;index"`
	CreatedAt time.Time
}

// Subscription records that Follower follows Following.
type Subscription struct {
	ID          uint      `gorm:"primarykey"`
	FollowerID  uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_subscription_pair"`
	FollowingID uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_subscription_pair;index"`
	CreatedAt   time.Time
}

// All returns every model in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Ingredient{},
		&Tag{},
		&Recipe{},
		&RecipeTag{},
		&RecipeIngredient{},
		&Favorite{},
		&ShoppingCart{},
		&Subscription{},
	}
}
