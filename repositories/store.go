package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Store hands out repositories bound to one database handle. Inside WithTx
// every repository obtained from the callback's Store shares the transaction.
type Store interface {
	Users() UserRepository
	Ingredients() IngredientRepository
	Tags() TagRepository
	Recipes() RecipeRepository
	Memberships() MembershipRepository
	Subscriptions() SubscriptionRepository
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &store{db: db}
}

func (s *store) Users() UserRepository                 { return NewUserRepository(s.db) }
func (s *store) Ingredients() IngredientRepository     { return NewIngredientRepository(s.db) }
func (s *store) Tags() TagRepository                   { return NewTagRepository(s.db) }
func (s *store) Recipes() RecipeRepository             { return NewRecipeRepository(s.db) }
func (s *store) Memberships() MembershipRepository     { return NewMembershipRepository(s.db) }
func (s *store) Subscriptions() SubscriptionRepository { return NewSubscriptionRepository(s.db) }

func (s *store) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&store{db: tx})
	})
}
