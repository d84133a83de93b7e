package services

import (
	"context"

	"foodgram/models"
	"foodgram/repositories"
)

// projectRecipes builds the read projection for a page of recipes. Caller
// flags are fetched in one query per collection and are never queried for
// anonymous callers.
func projectRecipes(ctx context.Context, store repositories.Store, caller models.Identity, recipes []models.Recipe) ([]models.RecipeRead, error) {
	out := make([]models.RecipeRead, 0, len(recipes))
	if len(recipes) == 0 {
		return out, nil
	}

	favorited := map[uint]bool{}
	inCart := map[uint]bool{}
	followed := map[uint]bool{}

	if !caller.IsAnonymous() {
		recipeIDs := make([]uint, 0, len(recipes))
		authorIDs := make([]uint, 0, len(recipes))
		for i := range recipes {
			recipeIDs = append(recipeIDs, recipes[i].ID)
			authorIDs = append(authorIDs, recipes[i].AuthorID)
		}

		var err error
		if favorited, err = store.Memberships().Members(ctx, models.KindFavorite, caller.UserID, recipeIDs); err != nil {
			return nil, err
		}
		if inCart, err = store.Memberships().Members(ctx, models.KindShoppingCart, caller.UserID, recipeIDs); err != nil {
			return nil, err
		}
		if followed, err = store.Subscriptions().FollowedAmong(ctx, caller.UserID, authorIDs); err != nil {
			return nil, err
		}
	}

	for i := range recipes {
		r := &recipes[i]
		read := models.RecipeRead{
			ID:               r.ID,
			Tags:             make([]models.Tag, 0, len(r.Tags)),
			Author:           models.NewUserProfile(&r.Author, followed[r.AuthorID]),
			Ingredients:      make([]models.IngredientLineRead, 0, len(r.Ingredients)),
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
		}
		for _, link := range r.Tags {
			read.Tags = append(read.Tags, link.Tag)
		}
		for _, line := range r.Ingredients {
			read.Ingredients = append(read.Ingredients, models.IngredientLineRead{
				ID:              line.IngredientID,
				Name:            line.Ingredient.Name,
				MeasurementUnit: line.Ingredient.MeasurementUnit,
				Amount:          line.Amount,
			})
		}
		out = append(out, read)
	}
	return out, nil
}

func normalizePage(p models.PageParams, defaultLimit int) models.PageParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	return p
}

const maxPageSize = 100
