package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
)

type IngredientRepo interface {
	// List returns ingredients whose name starts with search (case-insensitive), ordered by name.
	List(ctx context.Context, search string) ([]*models.Ingredient, error)
	GetByID(ctx context.Context, id uint) (*models.Ingredient, error)
	// ExistingIDs returns the subset of ids present in the catalog.
	ExistingIDs(ctx context.Context, tx *gorm.DB, ids []uint) (map[uint]bool, error)
	// Upsert inserts ingredients, skipping (name, unit) pairs that already exist.
	Upsert(ctx context.Context, items []*models.Ingredient) (int64, error)
}

type TagRepo interface {
	List(ctx context.Context) ([]*models.Tag, error)
	GetByID(ctx context.Context, id uint) (*models.Tag, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Tag, error)
	// Upsert inserts tags, skipping slugs that already exist.
	Upsert(ctx context.Context, tags []*models.Tag) (int64, error)
}

type ingredientRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIngredientRepo(db *gorm.DB, baseLog *logger.Logger) IngredientRepo {
	return &ingredientRepo{db: db, log: baseLog.With("repo", "IngredientRepo")}
}

func (r *ingredientRepo) List(ctx context.Context, search string) ([]*models.Ingredient, error) {
	var results []*models.Ingredient
	q := r.db.WithContext(ctx).Model(&models.Ingredient{})
	if search = strings.TrimSpace(search); search != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '\\'", escapeLike(strings.ToLower(search))+"%")
	}
	if err := q.Order("name").Order("id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *ingredientRepo) GetByID(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := r.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}

func (r *ingredientRepo) ExistingIDs(ctx context.Context, tx *gorm.DB, ids []uint) (map[uint]bool, error) {
	found := make(map[uint]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	conn := tx
	if conn == nil {
		conn = r.db
	}
	var existing []uint
	if err := conn.WithContext(ctx).
		Model(&models.Ingredient{}).
		Where("id IN ?", ids).
		Pluck("id", &existing).Error; err != nil {
		return nil, err
	}
	for _, id := range existing {
		found[id] = true
	}
	return found, nil
}

func (r *ingredientRepo) Upsert(ctx context.Context, items []*models.Ingredient) (int64, error) {
	var created int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			var count int64
			if err := tx.Model(&models.Ingredient{}).
				Where("name = ? AND measurement_unit = ?", item.Name, item.MeasurementUnit).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			if err := tx.Create(item).Error; err != nil {
				return err
			}
			created++
		}
		return nil
	})
	return created, err
}

type tagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo {
	return &tagRepo{db: db, log: baseLog.With("repo", "TagRepo")}
}

func (r *tagRepo) List(ctx context.Context) ([]*models.Tag, error) {
	var results []*models.Tag
	if err := r.db.WithContext(ctx).Order("id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *tagRepo) GetByID(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Tag, error) {
	var results []*models.Tag
	if len(ids) == 0 {
		return results, nil
	}
	conn := tx
	if conn == nil {
		conn = r.db
	}
	if err := conn.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *tagRepo) Upsert(ctx context.Context, tags []*models.Tag) (int64, error) {
	if len(tags) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).
		Create(&tags)
	return res.RowsAffected, res.Error
}

// escapeLike escapes LIKE wildcards so user input is matched literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
