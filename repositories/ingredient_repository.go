package repositories

import (
	"context"

	"foodgram/models"

	"gorm.io/gorm"
)

type IngredientRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Ingredient, error)
	List(ctx context.Context, namePrefix string) ([]models.Ingredient, error)
	CountByIDs(ctx context.Context, ids []uint) (int64, error)
	Count(ctx context.Context) (int64, error)
	BulkCreate(ctx context.Context, ingredients []models.Ingredient) error
}

type ingredientRepository struct {
	db *gorm.DB
}

func NewIngredientRepository(db *gorm.DB) IngredientRepository {
	return &ingredientRepository{db: db}
}

func (r *ingredientRepository) GetByID(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	err := r.db.WithContext(ctx).First(&ingredient, id).Error
	return &ingredient, err
}

// List matches namePrefix case-sensitively against the start of the name.
func (r *ingredientRepository) List(ctx context.Context, namePrefix string) ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	query := r.db.WithContext(ctx).Model(&models.Ingredient{})
	if namePrefix != "" {
		// substr is 1-based and counts characters on both Postgres and SQLite.
		query = query.Where("substr(name, 1, ?) = ?", len([]rune(namePrefix)), namePrefix)
	}
	err := query.Order("name asc").Order("id asc").Find(&ingredients).Error
	return ingredients, err
}

func (r *ingredientRepository) CountByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

func (r *ingredientRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Ingredient{}).Count(&count).Error
	return count, err
}

func (r *ingredientRepository) BulkCreate(ctx context.Context, ingredients []models.Ingredient) error {
	if len(ingredients) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(ingredients, 500).Error
}
