package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
)

// ToggleOp selects whether Toggle adds or removes a pair.
type ToggleOp int

const (
	ToggleAdd ToggleOp = iota
	ToggleRemove
)

// RelationTarget is the resolved target of a relation: a recipe for
// favorites and cart entries, a user for subscriptions.
type RelationTarget struct {
	Recipe *models.Recipe
	User   *models.User
}

type RelationshipService struct {
	db        *gorm.DB
	users     repository.UserRepo
	recipes   repository.RecipeRepo
	relations repository.RelationRepo
	log       *logger.Logger
}

func NewRelationshipService(db *gorm.DB, users repository.UserRepo, recipes repository.RecipeRepo, relations repository.RelationRepo, baseLog *logger.Logger) *RelationshipService {
	return &RelationshipService{
		db:        db,
		users:     users,
		recipes:   recipes,
		relations: relations,
		log:       baseLog.With("service", "RelationshipService"),
	}
}

func (s *RelationshipService) Add(ctx context.Context, kind models.RelationKind, actorID, targetID uuid.UUID) (*RelationTarget, error) {
	return s.Toggle(ctx, kind, ToggleAdd, actorID, targetID)
}

func (s *RelationshipService) Remove(ctx context.Context, kind models.RelationKind, actorID, targetID uuid.UUID) error {
	_, err := s.Toggle(ctx, kind, ToggleRemove, actorID, targetID)
	return err
}

// Toggle adds or removes the (actor, target) pair of the given kind in one
// transaction. Adding fails with ErrSelfReference when the actor owns the
// target and with ErrAlreadyExists when the pair is present; removing fails
// with ErrRelationNotFound when it is absent.
func (s *RelationshipService) Toggle(ctx context.Context, kind models.RelationKind, op ToggleOp, actorID, targetID uuid.UUID) (*RelationTarget, error) {
	target := &RelationTarget{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ownerID, err := s.resolveTarget(ctx, tx, kind, targetID, target)
		if err != nil {
			return err
		}

		switch op {
		case ToggleAdd:
			if ownerID == actorID {
				return ErrSelfReference
			}
			exists, err := s.relations.Exists(ctx, tx, kind, actorID, targetID)
			if err != nil {
				return translate("check "+kind.String(), err)
			}
			if exists {
				return ErrAlreadyExists
			}
			if err := s.relations.Add(ctx, tx, kind, actorID, targetID); err != nil {
				return translate("add "+kind.String(), err)
			}
		case ToggleRemove:
			removed, err := s.relations.Remove(ctx, tx, kind, actorID, targetID)
			if err != nil {
				return translate("remove "+kind.String(), err)
			}
			if !removed {
				return ErrRelationNotFound
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("relation toggled", "kind", kind.String(), "op", op, "actor_id", actorID, "target_id", targetID)
	return target, nil
}

// resolveTarget loads the target into dst and returns the id of the user
// who owns it.
func (s *RelationshipService) resolveTarget(ctx context.Context, tx *gorm.DB, kind models.RelationKind, targetID uuid.UUID, dst *RelationTarget) (uuid.UUID, error) {
	if kind.TargetsRecipe() {
		recipe, err := s.recipes.GetHeader(ctx, tx, targetID)
		if err != nil {
			return uuid.Nil, translate("get recipe", err)
		}
		dst.Recipe = recipe
		return recipe.AuthorID, nil
	}

	user, err := s.users.GetByID(ctx, tx, targetID)
	if err != nil {
		return uuid.Nil, translate("get user", err)
	}
	dst.User = user
	return user.ID, nil
}
