package models

import (
	"time"
)

type Recipe struct {
	ID          uint               `json:"id" gorm:"primarykey"`
	Name        string             `json:"name" gorm:"size:200;uniqueIndex;not null"`
	AuthorID    uint               `json:"author_id" gorm:"index;not null"`
	Author      User               `json:"-" gorm:"foreignKey:AuthorID"`
	Text        string             `json:"text" gorm:"type:text;not null"`
	CookingTime int                `json:"cooking_time" gorm:"not null"`
	Image       string             `json:"image"`
	Ingredients []RecipeIngredient `json:"-" gorm:"foreignKey:RecipeID"`
	Tags        []RecipeTag        `json:"-" gorm:"foreignKey:RecipeID"`
	CreatedAt   time.Time          `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// RecipeIngredient is one ingredient line of a recipe. A recipe lists an
// ingredient at most once.
type RecipeIngredient struct {
	ID           uint       `json:"-" gorm:"primarykey"`
	RecipeID     uint       `json:"-" gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID uint       `json:"id" gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	Ingredient   Ingredient `json:"-" gorm:"foreignKey:IngredientID"`
	Amount       int        `json:"amount" gorm:"not null"`
}

type RecipeTag struct {
	ID       uint `gorm:"primarykey"`
	RecipeID uint `gorm:"not null;uniqueIndex:idx_recipe_tag"`
	TagID    uint `gorm:"not null;uniqueIndex:idx_recipe_tag"`
	Tag      Tag  `gorm:"foreignKey:TagID"`
}
