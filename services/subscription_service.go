package services

import (
	"context"

	"foodgram/metrics"
	"foodgram/models"
	"foodgram/repositories"
)

type SubscriptionService interface {
	Follow(ctx context.Context, caller models.Identity, authorID uint, recipesLimit *int) (*models.SubscriptionView, error)
	Unfollow(ctx context.Context, caller models.Identity, authorID uint) error
	List(ctx context.Context, caller models.Identity, params models.SubscriptionListParams) (*models.Page[models.SubscriptionView], error)
}

type subscriptionService struct {
	store    repositories.Store
	pageSize int
}

func NewSubscriptionService(store repositories.Store, pageSize int) SubscriptionService {
	return &subscriptionService{store: store, pageSize: pageSize}
}

func (s *subscriptionService) Follow(ctx context.Context, caller models.Identity, authorID uint, recipesLimit *int) (_ *models.SubscriptionView, err error) {
	defer func() { metrics.SubscriptionChanges.WithLabelValues("follow", metrics.Result(err)).Inc() }()

	if caller.IsAnonymous() {
		return nil, models.ErrUnauthorized
	}
	if caller.UserID == authorID {
		return nil, models.ErrSelfFollowForbidden
	}
	if recipesLimit != nil && *recipesLimit < 0 {
		return nil, models.ErrInvalidRecipesLimit
	}

	var author *models.User
	err = s.store.WithTx(ctx, func(tx repositories.Store) error {
		var err error
		author, err = tx.Users().GetByID(ctx, authorID)
		if err != nil {
			if repositories.IsNotFound(err) {
				return models.ErrNotFound
			}
			return err
		}

		exists, err := tx.Subscriptions().Exists(ctx, caller.UserID, authorID)
		if err != nil {
			return err
		}
		if exists {
			return models.ErrAlreadyFollowing
		}

		sub := &models.Subscription{FollowerID: caller.UserID, AuthorID: authorID}
		if err := tx.Subscriptions().Create(ctx, sub); err != nil {
			if repositories.IsDuplicateKey(err) {
				return models.ErrAlreadyFollowing.Wrap(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	views, err := s.expand(ctx, []models.User{*author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *subscriptionService) Unfollow(ctx context.Context, caller models.Identity, authorID uint) (err error) {
	defer func() { metrics.SubscriptionChanges.WithLabelValues("unfollow", metrics.Result(err)).Inc() }()

	if caller.IsAnonymous() {
		return models.ErrUnauthorized
	}
	removed, err := s.store.Subscriptions().Delete(ctx, caller.UserID, authorID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *subscriptionService) List(ctx context.Context, caller models.Identity, params models.SubscriptionListParams) (*models.Page[models.SubscriptionView], error) {
	if caller.IsAnonymous() {
		return nil, models.ErrUnauthorized
	}
	if params.RecipesLimit != nil && *params.RecipesLimit < 0 {
		return nil, models.ErrInvalidRecipesLimit
	}
	page := normalizePage(params.PageParams, s.pageSize)

	subs, total, err := s.store.Subscriptions().ListByFollower(ctx, caller.UserID, page.Offset(), page.Limit)
	if err != nil {
		return nil, err
	}

	authors := make([]models.User, 0, len(subs))
	for _, sub := range subs {
		authors = append(authors, sub.Author)
	}
	views, err := s.expand(ctx, authors, params.RecipesLimit)
	if err != nil {
		return nil, err
	}
	return &models.Page[models.SubscriptionView]{Items: views, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

// expand builds the subscription view of followed authors. A nil limit
// returns every recipe.
func (s *subscriptionService) expand(ctx context.Context, authors []models.User, recipesLimit *int) ([]models.SubscriptionView, error) {
	ids := make([]uint, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}
	counts, err := s.store.Recipes().CountByAuthors(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.SubscriptionView, 0, len(authors))
	for i := range authors {
		view := models.SubscriptionView{
			UserProfile:  models.NewUserProfile(&authors[i], true),
			Recipes:      []models.RecipeMinified{},
			RecipesCount: counts[authors[i].ID],
		}
		if recipesLimit == nil || *recipesLimit > 0 {
			limit := 0
			if recipesLimit != nil {
				limit = *recipesLimit
			}
			recipes, err := s.store.Recipes().ListByAuthor(ctx, authors[i].ID, limit)
			if err != nil {
				return nil, err
			}
			for j := range recipes {
				view.Recipes = append(view.Recipes, models.NewRecipeMinified(&recipes[j]))
			}
		}
		views = append(views, view)
	}
	return views, nil
}
