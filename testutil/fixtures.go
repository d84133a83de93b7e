package testutil

import (
	"fmt"
	"testing"

	"foodgram/models"

	"gorm.io/gorm"
)

func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Email:     fmt.Sprintf("%s@example.com", username),
		Username:  username,
		FirstName: "First",
		LastName:  "Last",
		Password:  "x",
		Role:      models.RoleUser,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func CreateIngredient(t testing.TB, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ingredient := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(ingredient).Error; err != nil {
		t.Fatalf("create ingredient %s: %v", name, err)
	}
	return ingredient
}

func CreateTag(t testing.TB, db *gorm.DB, name, slug string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name, Color: "#E26C2D", Slug: slug}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("create tag %s: %v", slug, err)
	}
	return tag
}

// Line builds a requested ingredient line.
func Line(id uint, amount int) models.IngredientAmount {
	return models.IngredientAmount{ID: &id, Amount: &amount}
}

func IntPtr(v int) *int { return &v }

// PNG is a 1x1 transparent PNG encoded as a data URL.
const PNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="
