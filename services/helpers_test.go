package services

import (
	"context"
	"testing"

	"foodgram/models"
	"foodgram/repositories"
	"foodgram/storage"
	"foodgram/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type env struct {
	db      *gorm.DB
	store   repositories.Store
	recipes RecipeService
	members MembershipService
	cart    ShoppingCartService
	subs    SubscriptionService
	catalog CatalogService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	store := repositories.NewStore(db)
	return &env{
		db:      db,
		store:   store,
		recipes: NewRecipeService(store, storage.NewLocalStore(t.TempDir(), "/media/"), 10),
		members: NewMembershipService(store),
		cart:    NewShoppingCartService(store),
		subs:    NewSubscriptionService(store, 10),
		catalog: NewCatalogService(store),
	}
}

func as(u *models.User) models.Identity {
	return models.Identity{UserID: u.ID, Role: u.Role}
}

func payload(name string, tags []uint, lines ...models.IngredientAmount) *models.RecipePayload {
	return &models.RecipePayload{
		Name:        name,
		Text:        "Mix and serve.",
		CookingTime: testutil.IntPtr(10),
		Image:       testutil.PNG,
		Tags:        tags,
		Ingredients: lines,
	}
}

func (e *env) mustCreate(t *testing.T, author *models.User, p *models.RecipePayload) *models.RecipeRead {
	t.Helper()
	read, err := e.recipes.Create(context.Background(), as(author), p)
	require.NoError(t, err)
	return read
}

func (e *env) count(t *testing.T, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Table(table).Count(&n).Error)
	return n
}
