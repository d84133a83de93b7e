package models

import "strings"

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,min=3,max=150"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SetPasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}

type CreateTagRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=200"`
	Color string `json:"color" binding:"required,hex_color"`
	Slug  string `json:"slug" binding:"required,max=200,slug"`
}

// IngredientAmount is one requested ingredient line. Pointers distinguish an
// absent key from a zero value.
type IngredientAmount struct {
	ID     *uint `json:"id"`
	Amount *int  `json:"amount"`
}

// RecipePayload is the create/update body. Image is a base64 data URL; on
// update an empty image keeps the stored one.
type RecipePayload struct {
	Name        string             `json:"name"`
	Text        string             `json:"text"`
	CookingTime *int               `json:"cooking_time"`
	Image       string             `json:"image"`
	Tags        []uint             `json:"tags"`
	Ingredients []IngredientAmount `json:"ingredients"`
}

type UserProfile struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

func NewUserProfile(u *User, subscribed bool) UserProfile {
	return UserProfile{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

type IngredientLineRead struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type RecipeRead struct {
	ID               uint                 `json:"id"`
	Tags             []Tag                `json:"tags"`
	Author           UserProfile          `json:"author"`
	Ingredients      []IngredientLineRead `json:"ingredients"`
	Name             string               `json:"name"`
	Image            string               `json:"image"`
	Text             string               `json:"text"`
	CookingTime      int                  `json:"cooking_time"`
	IsFavorited      bool                 `json:"is_favorited"`
	IsInShoppingCart bool                 `json:"is_in_shopping_cart"`
}

type RecipeMinified struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

func NewRecipeMinified(r *Recipe) RecipeMinified {
	return RecipeMinified{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

type SubscriptionView struct {
	UserProfile
	Recipes      []RecipeMinified `json:"recipes"`
	RecipesCount int64            `json:"recipes_count"`
}

// ShoppingListItem is one consolidated line of the cart report.
type ShoppingListItem struct {
	Name            string
	MeasurementUnit string
	Amount          int64
}

type RecipeListParams struct {
	Tags             []string `form:"tags"`
	Author           uint     `form:"author"`
	IsFavorited      string   `form:"is_favorited"`
	IsInShoppingCart string   `form:"is_in_shopping_cart"`
	Page             int      `form:"page,default=1"`
	Limit            int      `form:"limit"`
}

// RecipeFilter is the storage-level query built from RecipeListParams.
type RecipeFilter struct {
	TagSlugs         []string
	AuthorID         uint
	FavoritedBy      uint
	InShoppingCartOf uint
	Offset           int
	Limit            int
}

type PageParams struct {
	Page  int `form:"page,default=1"`
	Limit int `form:"limit"`
}

type SubscriptionListParams struct {
	PageParams
	RecipesLimit *int `form:"recipes_limit"`
}

type Page[T any] struct {
	Items []T
	Total int64
	Page  int
	Limit int
}

// Offset returns the row offset of a 1-based page.
func (p PageParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// FlagSet reads a boolean query flag the way the API documents it.
func FlagSet(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
