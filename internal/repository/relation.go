package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
)

// RelationRepo stores favorite, shopping cart and subscription rows. All
// three are (actor, target) pairs unique on the pair.
type RelationRepo interface {
	Add(ctx context.Context, tx *gorm.DB, kind models.RelationKind, actorID, targetID uuid.UUID) error
	// Remove deletes the pair and reports whether it existed.
	Remove(ctx context.Context, tx *gorm.DB, kind models.RelationKind, actorID, targetID uuid.UUID) (bool, error)
	Exists(ctx context.Context, tx *gorm.DB, kind models.RelationKind, actorID, targetID uuid.UUID) (bool, error)
	// Members returns which of targetIDs the actor is related to.
	Members(ctx context.Context, kind models.RelationKind, actorID uuid.UUID, targetIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	// Targets returns every target of the actor in the order the pairs were created.
	Targets(ctx context.Context, kind models.RelationKind, actorID uuid.UUID) ([]uuid.UUID, error)
	Count(ctx context.Context, kind models.RelationKind, actorID uuid.UUID) (int64, error)
}

type relationTable struct {
	model     interface{}
	actorCol  string
	targetCol string
}

func tableFor(kind models.RelationKind) (relationTable, error) {
	switch kind {
	case models.RelationFavorite:
		return relationTable{&models.Favorite{}, "user_id", "recipe_id"}, nil
	case models.RelationShoppingCart:
		return relationTable{&models.ShoppingCart{}, "user_id", "recipe_id"}, nil
	case models.RelationSubscribe:
		return relationTable{&models.Subscription{}, "follower_id", "following_id"}, nil
	default:
		return relationTable{}, fmt.Errorf("unknown relation kind %s", kind)
	}
}

type relationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRelationRepo(db *gorm.DB, baseLog *logger.Logger) RelationRepo {
	return &relationRepo{db: db, log: baseLog.With("repo", "RelationRepo")}
}

func (r *relationRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *relationRepo) Add(ctx context.Context, tx *gorm.DB, kind models.RelationKind, actorID, targetID uuid.UUID) error {
	var row interface{}
	switch kind {
	case models.RelationFavorite:
		row = &models.Favorite{UserID: actorID, RecipeID: targetID}
	case models.RelationShoppingCart:
		row = &models.ShoppingCart{UserID: actorID, RecipeID: targetID}
	case models.RelationSubscribe:
		row = &models.Subscription{FollowerID: actorID, FollowingID: targetID}
	default:
		return fmt.Errorf("unknown relation kind %s", kind)
	}
	return r.conn(tx).WithContext(ctx).Create(row).Error
}

func (r *relationRepo) Remove(ctx context.Context, tx *gorm.DB, kind models.RelationKind, actorID, targetID uuid.UUID) (bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	res := r.conn(tx).WithContext(ctx).
		Where(t.actorCol+" = ? AND "+t.targetCol+" = ?", actorID, targetID).
		Delete(t.model)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *relationRepo) Exists(ctx context.Context, tx *gorm.DB, kind models.RelationKind, actorID, targetID uuid.UUID) (bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	var count int64
	if err := r.conn(tx).WithContext(ctx).
		Model(t.model).
		Where(t.actorCol+" = ? AND "+t.targetCol+" = ?", actorID, targetID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *relationRepo) Members(ctx context.Context, kind models.RelationKind, actorID uuid.UUID, targetIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	members := make(map[uuid.UUID]bool, len(targetIDs))
	if len(targetIDs) == 0 {
		return members, nil
	}
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	var found []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(t.model).
		Where(t.actorCol+" = ? AND "+t.targetCol+" IN ?", actorID, targetIDs).
		Pluck(t.targetCol, &found).Error; err != nil {
		return nil, err
	}
	for _, id := range found {
		members[id] = true
	}
	return members, nil
}

func (r *relationRepo) Targets(ctx context.Context, kind models.RelationKind, actorID uuid.UUID) ([]uuid.UUID, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	var targets []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(t.model).
		Where(t.actorCol+" = ?", actorID).
		Order("created_at").
		Order("id").
		Pluck(t.targetCol, &targets).Error; err != nil {
		return nil, err
	}
	return targets, nil
}

func (r *relationRepo) Count(ctx context.Context, kind models.RelationKind, actorID uuid.UUID) (int64, error) {
	t, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(t.model).
		Where(t.actorCol+" = ?", actorID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
