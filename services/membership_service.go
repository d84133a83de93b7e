package services

import (
	"context"

	"foodgram/metrics"
	"foodgram/models"
	"foodgram/repositories"
)

// MembershipService toggles a recipe in one of the caller's collections
// (favorites or shopping cart).
type MembershipService interface {
	Add(ctx context.Context, caller models.Identity, kind models.MembershipKind, recipeID uint) (*models.RecipeMinified, error)
	Remove(ctx context.Context, caller models.Identity, kind models.MembershipKind, recipeID uint) error
	Contains(ctx context.Context, caller models.Identity, kind models.MembershipKind, recipeID uint) (bool, error)
}

type membershipService struct {
	store repositories.Store
}

func NewMembershipService(store repositories.Store) MembershipService {
	return &membershipService{store: store}
}

func (s *membershipService) Add(ctx context.Context, caller models.Identity, kind models.MembershipKind, recipeID uint) (_ *models.RecipeMinified, err error) {
	defer func() { metrics.MembershipChanges.WithLabelValues(string(kind), "add", metrics.Result(err)).Inc() }()

	if caller.IsAnonymous() {
		return nil, models.ErrUnauthorized
	}
	if !kind.Valid() {
		return nil, models.ErrNotFound
	}

	var recipe *models.Recipe
	err = s.store.WithTx(ctx, func(tx repositories.Store) error {
		var err error
		recipe, err = tx.Recipes().GetByID(ctx, recipeID)
		if err != nil {
			if repositories.IsNotFound(err) {
				return models.ErrNotFound
			}
			return err
		}

		exists, err := tx.Memberships().Exists(ctx, kind, caller.UserID, recipeID)
		if err != nil {
			return err
		}
		if exists {
			return kind.AlreadyExistsError()
		}

		if err := tx.Memberships().Add(ctx, kind, caller.UserID, recipeID); err != nil {
			if repositories.IsDuplicateKey(err) {
				return kind.AlreadyExistsError().Wrap(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	minified := models.NewRecipeMinified(recipe)
	return &minified, nil
}

func (s *membershipService) Remove(ctx context.Context, caller models.Identity, kind models.MembershipKind, recipeID uint) (err error) {
	defer func() { metrics.MembershipChanges.WithLabelValues(string(kind), "remove", metrics.Result(err)).Inc() }()

	if caller.IsAnonymous() {
		return models.ErrUnauthorized
	}
	if !kind.Valid() {
		return models.ErrNotFound
	}

	removed, err := s.store.Memberships().Remove(ctx, kind, caller.UserID, recipeID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *membershipService) Contains(ctx context.Context, caller models.Identity, kind models.MembershipKind, recipeID uint) (bool, error) {
	if caller.IsAnonymous() || !kind.Valid() {
		return false, nil
	}
	return s.store.Memberships().Exists(ctx, kind, caller.UserID, recipeID)
}
