package repositories

import (
	"context"

	"foodgram/models"

	"gorm.io/gorm"
)

type RecipeRepository interface {
	Create(ctx context.Context, recipe *models.Recipe) error
	UpdateFields(ctx context.Context, recipe *models.Recipe) error
	GetByID(ctx context.Context, id uint) (*models.Recipe, error)
	GetDetailed(ctx context.Context, id uint) (*models.Recipe, error)
	List(ctx context.Context, filter models.RecipeFilter) ([]models.Recipe, int64, error)
	ListByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Recipe, error)
	CountByAuthors(ctx context.Context, authorIDs []uint) (map[uint]int64, error)
	NameTaken(ctx context.Context, name string, excludeID uint) (bool, error)
	Delete(ctx context.Context, id uint) error

	AddTag(ctx context.Context, link *models.RecipeTag) error
	AddIngredient(ctx context.Context, line *models.RecipeIngredient) error
	ClearComposition(ctx context.Context, recipeID uint) error
	CountIngredientLines(ctx context.Context, recipeID uint) (int64, error)

	// ShoppingList sums the ingredient lines of every recipe in the user's
	// cart, grouped by ingredient name and unit.
	ShoppingList(ctx context.Context, userID uint) ([]models.ShoppingListItem, error)
}

type recipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	return r.db.WithContext(ctx).Omit("Author", "Ingredients", "Tags").Create(recipe).Error
}

func (r *recipeRepository) UpdateFields(ctx context.Context, recipe *models.Recipe) error {
	return r.db.WithContext(ctx).Model(recipe).
		Select("name", "text", "cooking_time", "image", "updated_at").
		Updates(map[string]interface{}{
			"name":         recipe.Name,
			"text":         recipe.Text,
			"cooking_time": recipe.CookingTime,
			"image":        recipe.Image,
			"updated_at":   gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

func (r *recipeRepository) GetByID(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := r.db.WithContext(ctx).First(&recipe, id).Error
	return &recipe, err
}

func (r *recipeRepository) GetDetailed(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := r.preloadDetail(r.db.WithContext(ctx)).First(&recipe, id).Error
	return &recipe, err
}

func (r *recipeRepository) preloadDetail(query *gorm.DB) *gorm.DB {
	return query.Preload("Author").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("recipe_ingredients.id asc")
		}).
		Preload("Ingredients.Ingredient").
		Preload("Tags", func(db *gorm.DB) *gorm.DB {
			return db.Order("recipe_tags.id asc")
		}).
		Preload("Tags.Tag")
}

func (r *recipeRepository) List(ctx context.Context, filter models.RecipeFilter) ([]models.Recipe, int64, error) {
	var recipes []models.Recipe
	var total int64

	db := r.db.WithContext(ctx)
	query := db.Model(&models.Recipe{})

	if len(filter.TagSlugs) > 0 {
		query = query.Where("recipes.id IN (?)",
			db.Table("recipe_tags").
				Select("recipe_tags.recipe_id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("tags.slug IN ?", filter.TagSlugs))
	}

	if filter.AuthorID > 0 {
		query = query.Where("recipes.author_id = ?", filter.AuthorID)
	}

	if filter.FavoritedBy > 0 {
		query = query.Where("recipes.id IN (?)",
			db.Table(models.KindFavorite.Table()).Select("recipe_id").Where("user_id = ?", filter.FavoritedBy))
	}

	if filter.InShoppingCartOf > 0 {
		query = query.Where("recipes.id IN (?)",
			db.Table(models.KindShoppingCart.Table()).Select("recipe_id").Where("user_id = ?", filter.InShoppingCartOf))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.preloadDetail(query).
		Order("recipes.created_at desc").
		Order("recipes.id desc").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&recipes).Error

	return recipes, total, err
}

// ListByAuthor returns the author's newest recipes; limit <= 0 means all.
func (r *recipeRepository) ListByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Recipe, error) {
	var recipes []models.Recipe
	query := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at desc").
		Order("id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&recipes).Error
	return recipes, err
}

func (r *recipeRepository) CountByAuthors(ctx context.Context, authorIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		AuthorID uint
		Count    int64
	}
	err := r.db.WithContext(ctx).Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS count").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.AuthorID] = row.Count
	}
	return counts, nil
}

func (r *recipeRepository) NameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Recipe{}).Where("name = ?", name)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// Delete removes the recipe together with its composition and every
// membership row pointing at it. Callers run it inside a transaction.
func (r *recipeRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := r.ClearComposition(ctx, id); err != nil {
		return err
	}
	for _, kind := range []models.MembershipKind{models.KindFavorite, models.KindShoppingCart} {
		if err := db.Table(kind.Table()).Where("recipe_id = ?", id).Delete(&models.Membership{}).Error; err != nil {
			return err
		}
	}
	return db.Delete(&models.Recipe{}, id).Error
}

func (r *recipeRepository) AddTag(ctx context.Context, link *models.RecipeTag) error {
	return r.db.WithContext(ctx).Omit("Tag").Create(link).Error
}

func (r *recipeRepository) AddIngredient(ctx context.Context, line *models.RecipeIngredient) error {
	return r.db.WithContext(ctx).Omit("Ingredient").Create(line).Error
}

func (r *recipeRepository) ClearComposition(ctx context.Context, recipeID uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return err
	}
	return db.Where("recipe_id = ?", recipeID).Delete(&models.RecipeTag{}).Error
}

func (r *recipeRepository) CountIngredientLines(ctx context.Context, recipeID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RecipeIngredient{}).Where("recipe_id = ?", recipeID).Count(&count).Error
	return count, err
}

func (r *recipeRepository) ShoppingList(ctx context.Context, userID uint) ([]models.ShoppingListItem, error) {
	var items []models.ShoppingListItem

	query := `
		SELECT
			i.name AS name,
			i.measurement_unit AS measurement_unit,
			SUM(ri.amount) AS amount
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		JOIN cart_entries ce ON ce.recipe_id = ri.recipe_id
		WHERE ce.user_id = ?
		GROUP BY i.name, i.measurement_unit
	`

	err := r.db.WithContext(ctx).Raw(query, userID).Scan(&items).Error
	return items, err
}
