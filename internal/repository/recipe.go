package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
)

// RecipeFilter narrows ListRecipes. Nil pointers and empty slices mean "no filter".
type RecipeFilter struct {
	TagSlugs    []string
	AuthorID    *uuid.UUID
	FavoritedBy *uuid.UUID
	InCartOf    *uuid.UUID
}

// IngredientLine is one (ingredient, amount) pair of a recipe draft.
type IngredientLine struct {
	IngredientID uint
	Amount       int
}

type RecipeRepo interface {
	// Create inserts the recipe, its ingredient lines and tag links.
	Create(ctx context.Context, tx *gorm.DB, recipe *models.Recipe, lines []IngredientLine, tagIDs []uint) error
	// Update overwrites the recipe columns and replaces lines and tag links.
	Update(ctx context.Context, tx *gorm.DB, recipe *models.Recipe, lines []IngredientLine, tagIDs []uint) error
	// Delete removes the recipe together with its lines, tag links, favorites and cart rows.
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	// GetByID loads the recipe with author, tags and ingredient lines.
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Recipe, error)
	// GetHeader loads only the recipe row.
	GetHeader(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Recipe, error)
	List(ctx context.Context, filter RecipeFilter) ([]*models.Recipe, error)
	// ListByAuthor returns the author's recipes, newest first. limit <= 0 means all.
	ListByAuthor(ctx context.Context, authorID uuid.UUID, limit int) ([]*models.Recipe, error)
	CountByAuthors(ctx context.Context, authorIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

type recipeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecipeRepo(db *gorm.DB, baseLog *logger.Logger) RecipeRepo {
	return &recipeRepo{db: db, log: baseLog.With("repo", "RecipeRepo")}
}

func (r *recipeRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func withAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB {
			return db.Order("id")
		}).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("position")
		}).
		Preload("Ingredients.Ingredient")
}

func (r *recipeRepo) Create(ctx context.Context, tx *gorm.DB, recipe *models.Recipe, lines []IngredientLine, tagIDs []uint) error {
	conn := r.conn(tx).WithContext(ctx)
	if err := conn.Omit(clause.Associations).Create(recipe).Error; err != nil {
		return err
	}
	return writeLinks(conn, recipe.ID, lines, tagIDs)
}

func (r *recipeRepo) Update(ctx context.Context, tx *gorm.DB, recipe *models.Recipe, lines []IngredientLine, tagIDs []uint) error {
	conn := r.conn(tx).WithContext(ctx)
	recipe.UpdatedAt = time.Now()
	res := conn.Model(&models.Recipe{}).
		Where("id = ?", recipe.ID).
		Updates(map[string]interface{}{
			"name":         recipe.Name,
			"image_ref":    recipe.ImageRef,
			"text":         recipe.Text,
			"cooking_time": recipe.CookingTime,
			"updated_at":   recipe.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	if err := conn.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return err
	}
	if err := conn.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeTag{}).Error; err != nil {
		return err
	}
	return writeLinks(conn, recipe.ID, lines, tagIDs)
}

func writeLinks(conn *gorm.DB, recipeID uuid.UUID, lines []IngredientLine, tagIDs []uint) error {
	if len(lines) > 0 {
		rows := make([]models.RecipeIngredient, len(lines))
		for i, line := range lines {
			rows[i] = models.RecipeIngredient{
				RecipeID:     recipeID,
				IngredientID: line.IngredientID,
				Amount:       line.Amount,
				Position:     i,
			}
		}
		if err := conn.Omit(clause.Associations).Create(&rows).Error; err != nil {
			return err
		}
	}
	if len(tagIDs) > 0 {
		rows := make([]models.RecipeTag, len(tagIDs))
		for i, tagID := range tagIDs {
			rows[i] = models.RecipeTag{RecipeID: recipeID, TagID: tagID}
		}
		if err := conn.Create(&rows).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *recipeRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	conn := r.conn(tx).WithContext(ctx)
	for _, dependent := range []interface{}{
		&models.RecipeIngredient{},
		&models.RecipeTag{},
		&models.Favorite{},
		&models.ShoppingCart{},
	} {
		if err := conn.Where("recipe_id = ?", id).Delete(dependent).Error; err != nil {
			return err
		}
	}
	res := conn.Where("id = ?", id).Delete(&models.Recipe{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *recipeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := withAssociations(r.conn(tx).WithContext(ctx)).First(&recipe, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepo) GetHeader(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := r.conn(tx).WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepo) List(ctx context.Context, filter RecipeFilter) ([]*models.Recipe, error) {
	q := r.db.WithContext(ctx).Model(&models.Recipe{})

	if len(filter.TagSlugs) > 0 {
		tagged := r.db.Model(&models.RecipeTag{}).
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		q = q.Where("recipes.id IN (?)", tagged)
	}
	if filter.AuthorID != nil {
		q = q.Where("recipes.author_id = ?", *filter.AuthorID)
	}
	if filter.FavoritedBy != nil {
		favorites := r.db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", *filter.FavoritedBy)
		q = q.Where("recipes.id IN (?)", favorites)
	}
	if filter.InCartOf != nil {
		cart := r.db.Model(&models.ShoppingCart{}).Select("recipe_id").Where("user_id = ?", *filter.InCartOf)
		q = q.Where("recipes.id IN (?)", cart)
	}

	var results []*models.Recipe
	if err := withAssociations(q).
		Order("recipes.created_at DESC").
		Order("recipes.id").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *recipeRepo) ListByAuthor(ctx context.Context, authorID uuid.UUID, limit int) ([]*models.Recipe, error) {
	q := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var results []*models.Recipe
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *recipeRepo) CountByAuthors(ctx context.Context, authorIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		AuthorID uuid.UUID
		Total    int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.AuthorID] = row.Total
	}
	return counts, nil
}
