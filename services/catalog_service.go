package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"foodgram/models"
	"foodgram/repositories"

	"go.uber.org/zap"
)

// CatalogService serves the read-mostly tag and ingredient lists.
type CatalogService interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id uint) (*models.Tag, error)
	CreateTag(ctx context.Context, caller models.Identity, req models.CreateTagRequest) (*models.Tag, error)
	ListIngredients(ctx context.Context, namePrefix string) ([]models.Ingredient, error)
	GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error)

	ImportIngredients(ctx context.Context, r io.Reader) (int, error)
	ImportTags(ctx context.Context, r io.Reader) (int64, error)
	SeedFromFiles(ctx context.Context, ingredientsPath, tagsPath string) error
}

type catalogService struct {
	store repositories.Store
}

func NewCatalogService(store repositories.Store) CatalogService {
	return &catalogService{store: store}
}

func (s *catalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	return s.store.Tags().GetAll(ctx)
}

func (s *catalogService) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	tag, err := s.store.Tags().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return tag, nil
}

func (s *catalogService) CreateTag(ctx context.Context, caller models.Identity, req models.CreateTagRequest) (*models.Tag, error) {
	if caller.IsAnonymous() {
		return nil, models.ErrUnauthorized
	}
	if caller.Role != models.RoleAdmin {
		return nil, models.ErrForbidden
	}

	tag := &models.Tag{Name: req.Name, Color: req.Color, Slug: req.Slug}
	if err := s.store.Tags().Create(ctx, tag); err != nil {
		if repositories.IsDuplicateKey(err) {
			return nil, models.ErrTagSlugTaken.Wrap(err)
		}
		return nil, err
	}
	return tag, nil
}

func (s *catalogService) ListIngredients(ctx context.Context, namePrefix string) ([]models.Ingredient, error) {
	return s.store.Ingredients().List(ctx, namePrefix)
}

func (s *catalogService) GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error) {
	ingredient, err := s.store.Ingredients().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return ingredient, nil
}

// ImportIngredients loads a JSON array of {name, measurement_unit}. Ingredient
// names are not unique, so the import only runs against an empty table.
func (s *catalogService) ImportIngredients(ctx context.Context, r io.Reader) (int, error) {
	var ingredients []models.Ingredient
	if err := json.NewDecoder(r).Decode(&ingredients); err != nil {
		return 0, fmt.Errorf("decode ingredients: %w", err)
	}
	for i := range ingredients {
		ingredients[i].ID = 0
	}

	inserted := 0
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		count, err := tx.Ingredients().Count(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if err := tx.Ingredients().BulkCreate(ctx, ingredients); err != nil {
			return err
		}
		inserted = len(ingredients)
		return nil
	})
	return inserted, err
}

// ImportTags loads a JSON array of {name, color, slug}; slugs already present
// are left untouched.
func (s *catalogService) ImportTags(ctx context.Context, r io.Reader) (int64, error) {
	var tags []models.Tag
	if err := json.NewDecoder(r).Decode(&tags); err != nil {
		return 0, fmt.Errorf("decode tags: %w", err)
	}
	for i := range tags {
		tags[i].ID = 0
	}
	return s.store.Tags().UpsertBySlug(ctx, tags)
}

func (s *catalogService) SeedFromFiles(ctx context.Context, ingredientsPath, tagsPath string) error {
	if ingredientsPath != "" {
		n, err := importFile(ingredientsPath, func(r io.Reader) (int64, error) {
			n, err := s.ImportIngredients(ctx, r)
			return int64(n), err
		})
		if err != nil {
			return err
		}
		zap.L().Info("ingredients seeded", zap.String("file", ingredientsPath), zap.Int64("inserted", n))
	}
	if tagsPath != "" {
		n, err := importFile(tagsPath, func(r io.Reader) (int64, error) {
			return s.ImportTags(ctx, r)
		})
		if err != nil {
			return err
		}
		zap.L().Info("tags seeded", zap.String("file", tagsPath), zap.Int64("inserted", n))
	}
	return nil
}

func importFile(path string, load func(io.Reader) (int64, error)) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return load(f)
}
