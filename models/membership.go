package models

import "time"

// MembershipKind names a per-user recipe collection. Each kind is backed by
// its own table with a unique (user_id, recipe_id) pair.
type MembershipKind string

const (
	KindFavorite     MembershipKind = "favorite"
	KindShoppingCart MembershipKind = "shopping_cart"
)

func (k MembershipKind) Table() string {
	switch k {
	case KindFavorite:
		return "favorites"
	case KindShoppingCart:
		return "cart_entries"
	}
	return ""
}

func (k MembershipKind) Valid() bool {
	return k.Table() != ""
}

// Membership is the row shape shared by every membership table.
type Membership struct {
	ID        uint      `gorm:"primarykey"`
	UserID    uint      `gorm:"not null"`
	RecipeID  uint      `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Favorite and CartEntry exist to declare the tables and their constraints
// for migration; reads and writes go through Membership.
type Favorite struct {
	ID        uint      `gorm:"primarykey"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type CartEntry struct {
	ID        uint      `gorm:"primarykey"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_recipe"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_cart_user_recipe;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type Subscription struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	FollowerID uint      `json:"follower_id" gorm:"not null;uniqueIndex:idx_subscription_pair"`
	AuthorID   uint      `json:"author_id" gorm:"not null;uniqueIndex:idx_subscription_pair;index"`
	Author     User      `json:"-" gorm:"foreignKey:AuthorID"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}
