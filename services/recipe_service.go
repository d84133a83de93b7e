package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foodgram/metrics"
	"foodgram/models"
	"foodgram/repositories"
	"foodgram/storage"

	"go.uber.org/zap"
)

type RecipeService interface {
	// Validate checks a create payload without touching any rows.
	Validate(ctx context.Context, payload *models.RecipePayload) error
	Create(ctx context.Context, caller models.Identity, payload *models.RecipePayload) (*models.RecipeRead, error)
	Update(ctx context.Context, caller models.Identity, recipeID uint, payload *models.RecipePayload) (*models.RecipeRead, error)
	Get(ctx context.Context, caller models.Identity, recipeID uint) (*models.RecipeRead, error)
	List(ctx context.Context, caller models.Identity, params models.RecipeListParams) (*models.Page[models.RecipeRead], error)
	Delete(ctx context.Context, caller models.Identity, recipeID uint) error
}

type recipeService struct {
	store    repositories.Store
	images   storage.ImageStore
	pageSize int
}

func NewRecipeService(store repositories.Store, images storage.ImageStore, pageSize int) RecipeService {
	return &recipeService{store: store, images: images, pageSize: pageSize}
}

func (s *recipeService) Validate(ctx context.Context, payload *models.RecipePayload) error {
	return s.validate(ctx, payload, true)
}

func (s *recipeService) validate(ctx context.Context, p *models.RecipePayload, creating bool) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return models.ErrMissingField.WithField("name", "")
	case strings.TrimSpace(p.Text) == "":
		return models.ErrMissingField.WithField("text", "")
	case p.CookingTime == nil:
		return models.ErrMissingField.WithField("cooking_time", "")
	case creating && p.Image == "":
		return models.ErrMissingField.WithField("image", "")
	case len(p.Ingredients) == 0:
		return models.ErrMissingField.WithField("ingredients", "At least one ingredient is required.")
	}
	for _, line := range p.Ingredients {
		if line.ID == nil || line.Amount == nil {
			return models.ErrMissingField.WithField("ingredients", "Each ingredient needs an id and an amount.")
		}
	}

	if *p.CookingTime < 1 {
		return models.ErrInvalidCookingTime
	}

	for _, line := range p.Ingredients {
		if *line.Amount < 1 {
			return models.ErrInvalidAmount
		}
	}

	seen := make(map[uint]struct{}, len(p.Ingredients))
	ingredientIDs := make([]uint, 0, len(p.Ingredients))
	for _, line := range p.Ingredients {
		if _, dup := seen[*line.ID]; dup {
			return models.ErrDuplicateIngredient
		}
		seen[*line.ID] = struct{}{}
		ingredientIDs = append(ingredientIDs, *line.ID)
	}

	found, err := s.store.Ingredients().CountByIDs(ctx, ingredientIDs)
	if err != nil {
		return fmt.Errorf("count ingredients: %w", err)
	}
	if found != int64(len(ingredientIDs)) {
		return models.ErrUnknownReference.WithField("ingredients", "Unknown ingredient.")
	}

	tagIDs := uniqueIDs(p.Tags)
	found, err = s.store.Tags().CountByIDs(ctx, tagIDs)
	if err != nil {
		return fmt.Errorf("count tags: %w", err)
	}
	if found != int64(len(tagIDs)) {
		return models.ErrUnknownReference.WithField("tags", "Unknown tag.")
	}
	return nil
}

func (s *recipeService) Create(ctx context.Context, caller models.Identity, payload *models.RecipePayload) (_ *models.RecipeRead, err error) {
	defer func() { metrics.RecipeWrites.WithLabelValues("create", metrics.Result(err)).Inc() }()

	if caller.IsAnonymous() {
		return nil, models.ErrUnauthorized
	}
	if err := s.validate(ctx, payload, true); err != nil {
		return nil, err
	}

	image, err := s.storeImage(ctx, payload.Image)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		Name:        strings.TrimSpace(payload.Name),
		AuthorID:    caller.UserID,
		Text:        payload.Text,
		CookingTime: *payload.CookingTime,
		Image:       image,
	}

	err = s.store.WithTx(ctx, func(tx repositories.Store) error {
		taken, err := tx.Recipes().NameTaken(ctx, recipe.Name, 0)
		if err != nil {
			return err
		}
		if taken {
			return models.ErrRecipeNameTaken
		}
		if err := tx.Recipes().Create(ctx, recipe); err != nil {
			if repositories.IsDuplicateKey(err) {
				return models.ErrRecipeNameTaken.Wrap(err)
			}
			return err
		}
		return buildComposition(ctx, tx, recipe.ID, payload)
	})
	if err != nil {
		s.logOrphanImage(image, err)
		return nil, err
	}

	return s.Get(ctx, caller, recipe.ID)
}

func (s *recipeService) Update(ctx context.Context, caller models.Identity, recipeID uint, payload *models.RecipePayload) (_ *models.RecipeRead, err error) {
	defer func() { metrics.RecipeWrites.WithLabelValues("update", metrics.Result(err)).Inc() }()

	if caller.IsAnonymous() {
		return nil, models.ErrUnauthorized
	}
	recipe, err := s.store.Recipes().GetByID(ctx, recipeID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	if recipe.AuthorID != caller.UserID {
		return nil, models.ErrForbidden
	}
	if err := s.validate(ctx, payload, false); err != nil {
		return nil, err
	}

	recipe.Name = strings.TrimSpace(payload.Name)
	recipe.Text = payload.Text
	recipe.CookingTime = *payload.CookingTime
	if payload.Image != "" {
		if recipe.Image, err = s.storeImage(ctx, payload.Image); err != nil {
			return nil, err
		}
	}

	err = s.store.WithTx(ctx, func(tx repositories.Store) error {
		taken, err := tx.Recipes().NameTaken(ctx, recipe.Name, recipe.ID)
		if err != nil {
			return err
		}
		if taken {
			return models.ErrRecipeNameTaken
		}
		if err := tx.Recipes().UpdateFields(ctx, recipe); err != nil {
			if repositories.IsDuplicateKey(err) {
				return models.ErrRecipeNameTaken.Wrap(err)
			}
			return err
		}
		if err := tx.Recipes().ClearComposition(ctx, recipe.ID); err != nil {
			return err
		}
		return buildComposition(ctx, tx, recipe.ID, payload)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, caller, recipe.ID)
}

// buildComposition links tags and ingredient lines to the recipe. It must run
// inside a transaction so a failed lookup discards every row written so far.
func buildComposition(ctx context.Context, tx repositories.Store, recipeID uint, p *models.RecipePayload) error {
	for _, tagID := range uniqueIDs(p.Tags) {
		if _, err := tx.Tags().GetByID(ctx, tagID); err != nil {
			if repositories.IsNotFound(err) {
				return models.ErrUnknownReference.WithField("tags", fmt.Sprintf("Unknown tag %d.", tagID))
			}
			return err
		}
		if err := tx.Recipes().AddTag(ctx, &models.RecipeTag{RecipeID: recipeID, TagID: tagID}); err != nil {
			return err
		}
	}

	for _, line := range p.Ingredients {
		if _, err := tx.Ingredients().GetByID(ctx, *line.ID); err != nil {
			if repositories.IsNotFound(err) {
				return models.ErrUnknownReference.WithField("ingredients", fmt.Sprintf("Unknown ingredient %d.", *line.ID))
			}
			return err
		}
		row := &models.RecipeIngredient{RecipeID: recipeID, IngredientID: *line.ID, Amount: *line.Amount}
		if err := tx.Recipes().AddIngredient(ctx, row); err != nil {
			if repositories.IsDuplicateKey(err) {
				return models.ErrDuplicateIngredient.Wrap(err)
			}
			return err
		}
	}
	return nil
}

func (s *recipeService) Get(ctx context.Context, caller models.Identity, recipeID uint) (*models.RecipeRead, error) {
	recipe, err := s.store.Recipes().GetDetailed(ctx, recipeID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	reads, err := projectRecipes(ctx, s.store, caller, []models.Recipe{*recipe})
	if err != nil {
		return nil, err
	}
	return &reads[0], nil
}

func (s *recipeService) List(ctx context.Context, caller models.Identity, params models.RecipeListParams) (*models.Page[models.RecipeRead], error) {
	page := normalizePage(models.PageParams{Page: params.Page, Limit: params.Limit}, s.pageSize)

	filter := models.RecipeFilter{
		TagSlugs: params.Tags,
		AuthorID: params.Author,
		Offset:   page.Offset(),
		Limit:    page.Limit,
	}
	// Membership filters only mean something for a known caller.
	if !caller.IsAnonymous() {
		if models.FlagSet(params.IsFavorited) {
			filter.FavoritedBy = caller.UserID
		}
		if models.FlagSet(params.IsInShoppingCart) {
			filter.InShoppingCartOf = caller.UserID
		}
	}

	recipes, total, err := s.store.Recipes().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	reads, err := projectRecipes(ctx, s.store, caller, recipes)
	if err != nil {
		return nil, err
	}
	return &models.Page[models.RecipeRead]{Items: reads, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

func (s *recipeService) Delete(ctx context.Context, caller models.Identity, recipeID uint) (err error) {
	defer func() { metrics.RecipeWrites.WithLabelValues("delete", metrics.Result(err)).Inc() }()

	if caller.IsAnonymous() {
		return models.ErrUnauthorized
	}
	return s.store.WithTx(ctx, func(tx repositories.Store) error {
		recipe, err := tx.Recipes().GetByID(ctx, recipeID)
		if err != nil {
			if repositories.IsNotFound(err) {
				return models.ErrNotFound
			}
			return err
		}
		if recipe.AuthorID != caller.UserID {
			return models.ErrForbidden
		}
		return tx.Recipes().Delete(ctx, recipeID)
	})
}

func (s *recipeService) storeImage(ctx context.Context, dataURL string) (string, error) {
	img, err := storage.DecodeDataURL(dataURL)
	if err != nil {
		return "", models.ErrInvalidImage.Wrap(err)
	}
	ref, err := s.images.Save(ctx, img)
	metrics.ImageUploads.WithLabelValues(s.images.Name(), metrics.Result(err)).Inc()
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return ref, nil
}

func (s *recipeService) logOrphanImage(ref string, cause error) {
	var appErr *models.AppError
	if errors.As(cause, &appErr) {
		zap.L().Debug("recipe rejected after image upload", zap.String("image", ref), zap.String("code", appErr.Code))
		return
	}
	zap.L().Warn("recipe create failed after image upload", zap.String("image", ref), zap.Error(cause))
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
