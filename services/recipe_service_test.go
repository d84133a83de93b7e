package services

import (
	"context"
	"strings"
	"testing"

	"foodgram/models"
	"foodgram/repositories"
	"foodgram/testutil"

	"github.com/stretchr/testify/suite"
)

type RecipeServiceSuite struct {
	suite.Suite
	env    *env
	ctx    context.Context
	author *models.User
	other  *models.User
	potato *models.Ingredient
	salt   *models.Ingredient
	onion  *models.Ingredient
	dinner *models.Tag
	lunch  *models.Tag
}

func (s *RecipeServiceSuite) SetupTest() {
	s.env = newEnv(s.T())
	s.ctx = context.Background()
	db := s.env.db
	s.author = testutil.CreateUser(s.T(), db, "author")
	s.other = testutil.CreateUser(s.T(), db, "other")
	s.potato = testutil.CreateIngredient(s.T(), db, "potato", "g")
	s.salt = testutil.CreateIngredient(s.T(), db, "salt", "pinch")
	s.onion = testutil.CreateIngredient(s.T(), db, "onion", "pcs")
	s.dinner = testutil.CreateTag(s.T(), db, "Dinner", "dinner")
	s.lunch = testutil.CreateTag(s.T(), db, "Lunch", "lunch")
}

func (s *RecipeServiceSuite) TestCreateRoundTrip() {
	p := payload("Mash", []uint{s.dinner.ID, s.lunch.ID, s.dinner.ID},
		testutil.Line(s.potato.ID, 500), testutil.Line(s.salt.ID, 2))

	read := s.env.mustCreate(s.T(), s.author, p)

	s.Equal("Mash", read.Name)
	s.Equal(10, read.CookingTime)
	s.True(strings.HasPrefix(read.Image, "/media/recipes/"))
	s.Equal(s.author.ID, read.Author.ID)
	s.False(read.Author.IsSubscribed)
	s.False(read.IsFavorited)
	s.False(read.IsInShoppingCart)

	s.Require().Len(read.Tags, 2, "repeated tag ids collapse into one link")
	s.Equal("dinner", read.Tags[0].Slug)
	s.Equal("lunch", read.Tags[1].Slug)

	s.Require().Len(read.Ingredients, 2)
	s.Equal(models.IngredientLineRead{ID: s.potato.ID, Name: "potato", MeasurementUnit: "g", Amount: 500}, read.Ingredients[0])
	s.Equal(models.IngredientLineRead{ID: s.salt.ID, Name: "salt", MeasurementUnit: "pinch", Amount: 2}, read.Ingredients[1])

	got, err := s.env.recipes.Get(s.ctx, models.Anonymous(), read.ID)
	s.Require().NoError(err)
	s.Equal(read, got)
}

func (s *RecipeServiceSuite) TestCreateRequiresIdentity() {
	_, err := s.env.recipes.Create(s.ctx, models.Anonymous(), payload("Mash", nil, testutil.Line(s.potato.ID, 1)))
	s.ErrorIs(err, models.ErrUnauthorized)
	s.Zero(s.env.count(s.T(), "recipes"))
}

func (s *RecipeServiceSuite) TestValidation() {
	cases := []struct {
		name   string
		mutate func(p *models.RecipePayload)
		want   *models.AppError
	}{
		{"missing name", func(p *models.RecipePayload) { p.Name = "" }, models.ErrMissingField},
		{"missing text", func(p *models.RecipePayload) { p.Text = " " }, models.ErrMissingField},
		{"missing cooking time", func(p *models.RecipePayload) { p.CookingTime = nil }, models.ErrMissingField},
		{"missing image", func(p *models.RecipePayload) { p.Image = "" }, models.ErrMissingField},
		{"no ingredients", func(p *models.RecipePayload) { p.Ingredients = nil }, models.ErrMissingField},
		{"line without amount", func(p *models.RecipePayload) { p.Ingredients[0].Amount = nil }, models.ErrMissingField},
		{"zero cooking time", func(p *models.RecipePayload) { p.CookingTime = testutil.IntPtr(0) }, models.ErrInvalidCookingTime},
		{"negative cooking time", func(p *models.RecipePayload) { p.CookingTime = testutil.IntPtr(-1) }, models.ErrInvalidCookingTime},
		{"zero amount", func(p *models.RecipePayload) { p.Ingredients[1] = testutil.Line(s.salt.ID, 0) }, models.ErrInvalidAmount},
		{"duplicate ingredient", func(p *models.RecipePayload) {
			p.Ingredients = append(p.Ingredients, testutil.Line(s.potato.ID, 3))
		}, models.ErrDuplicateIngredient},
		{"unknown ingredient", func(p *models.RecipePayload) {
			p.Ingredients = append(p.Ingredients, testutil.Line(9999, 3))
		}, models.ErrUnknownReference},
		{"unknown tag", func(p *models.RecipePayload) { p.Tags = append(p.Tags, 9999) }, models.ErrUnknownReference},
		{"missing field wins over invalid amount", func(p *models.RecipePayload) {
			p.CookingTime = nil
			p.Ingredients[0] = testutil.Line(s.potato.ID, 0)
		}, models.ErrMissingField},
		{"cooking time wins over duplicate", func(p *models.RecipePayload) {
			p.CookingTime = testutil.IntPtr(0)
			p.Ingredients = append(p.Ingredients, testutil.Line(s.potato.ID, 3))
		}, models.ErrInvalidCookingTime},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			p := payload("Soup", []uint{s.dinner.ID}, testutil.Line(s.potato.ID, 100), testutil.Line(s.salt.ID, 1))
			tc.mutate(p)

			s.ErrorIs(s.env.recipes.Validate(s.ctx, p), tc.want)
			_, err := s.env.recipes.Create(s.ctx, as(s.author), p)
			s.ErrorIs(err, tc.want)

			s.Zero(s.env.count(s.T(), "recipes"))
			s.Zero(s.env.count(s.T(), "recipe_ingredients"))
			s.Zero(s.env.count(s.T(), "recipe_tags"))
		})
	}
}

func (s *RecipeServiceSuite) TestCookingTimeOfOneIsAccepted() {
	p := payload("Quick", nil, testutil.Line(s.salt.ID, 1))
	p.CookingTime = testutil.IntPtr(1)
	read := s.env.mustCreate(s.T(), s.author, p)
	s.Equal(1, read.CookingTime)
}

func (s *RecipeServiceSuite) TestRecipeNameTaken() {
	s.env.mustCreate(s.T(), s.author, payload("Mash", nil, testutil.Line(s.potato.ID, 1)))

	_, err := s.env.recipes.Create(s.ctx, as(s.other), payload("Mash", nil, testutil.Line(s.salt.ID, 1)))
	s.ErrorIs(err, models.ErrRecipeNameTaken)
	s.EqualValues(1, s.env.count(s.T(), "recipes"))
	s.EqualValues(1, s.env.count(s.T(), "recipe_ingredients"))
}

func (s *RecipeServiceSuite) TestInvalidImage() {
	p := payload("Mash", nil, testutil.Line(s.potato.ID, 1))
	p.Image = "http://example.com/cat.png"
	_, err := s.env.recipes.Create(s.ctx, as(s.author), p)
	s.ErrorIs(err, models.ErrInvalidImage)
}

func (s *RecipeServiceSuite) TestUpdateReplacesComposition() {
	created := s.env.mustCreate(s.T(), s.author,
		payload("Mash", []uint{s.dinner.ID}, testutil.Line(s.potato.ID, 500), testutil.Line(s.salt.ID, 2)))

	p := payload("Onion mash", []uint{s.lunch.ID}, testutil.Line(s.onion.ID, 2))
	p.Image = ""
	updated, err := s.env.recipes.Update(s.ctx, as(s.author), created.ID, p)
	s.Require().NoError(err)

	s.Equal("Onion mash", updated.Name)
	s.Equal(created.Image, updated.Image, "image is kept when omitted")
	s.Require().Len(updated.Tags, 1)
	s.Equal(s.lunch.ID, updated.Tags[0].ID)
	s.Require().Len(updated.Ingredients, 1)
	s.Equal(s.onion.ID, updated.Ingredients[0].ID)
	s.EqualValues(1, s.env.count(s.T(), "recipe_ingredients"))
	s.EqualValues(1, s.env.count(s.T(), "recipe_tags"))
}

func (s *RecipeServiceSuite) TestUpdateKeepsOwnName() {
	created := s.env.mustCreate(s.T(), s.author, payload("Mash", nil, testutil.Line(s.potato.ID, 500)))
	_, err := s.env.recipes.Update(s.ctx, as(s.author), created.ID, payload("Mash", nil, testutil.Line(s.potato.ID, 600)))
	s.NoError(err)
}

func (s *RecipeServiceSuite) TestUpdateFailureKeepsPreviousComposition() {
	created := s.env.mustCreate(s.T(), s.author,
		payload("Mash", []uint{s.dinner.ID}, testutil.Line(s.potato.ID, 500), testutil.Line(s.salt.ID, 2)))

	_, err := s.env.recipes.Update(s.ctx, as(s.author), created.ID,
		payload("Mash", nil, testutil.Line(s.potato.ID, 1), testutil.Line(s.potato.ID, 2)))
	s.ErrorIs(err, models.ErrDuplicateIngredient)

	got, err := s.env.recipes.Get(s.ctx, as(s.author), created.ID)
	s.Require().NoError(err)
	s.Equal(created.Ingredients, got.Ingredients)
	s.Equal(created.Tags, got.Tags)
}

func (s *RecipeServiceSuite) TestCompositionRollsBackInsideTransaction() {
	created := s.env.mustCreate(s.T(), s.author,
		payload("Mash", []uint{s.dinner.ID}, testutil.Line(s.potato.ID, 500), testutil.Line(s.salt.ID, 2)))

	// The ingredient disappears between validation and the rebuild.
	err := s.env.store.WithTx(s.ctx, func(tx repositories.Store) error {
		if err := tx.Recipes().ClearComposition(s.ctx, created.ID); err != nil {
			return err
		}
		return buildComposition(s.ctx, tx, created.ID,
			payload("Mash", []uint{s.lunch.ID}, testutil.Line(s.onion.ID, 1), testutil.Line(4242, 1)))
	})
	s.ErrorIs(err, models.ErrUnknownReference)

	lines, err := s.env.store.Recipes().CountIngredientLines(s.ctx, created.ID)
	s.Require().NoError(err)
	s.EqualValues(2, lines)
	got, err := s.env.recipes.Get(s.ctx, as(s.author), created.ID)
	s.Require().NoError(err)
	s.Equal(created.Ingredients, got.Ingredients)
	s.Require().Len(got.Tags, 1)
	s.Equal(s.dinner.ID, got.Tags[0].ID)
}

func (s *RecipeServiceSuite) TestUpdatePermissions() {
	created := s.env.mustCreate(s.T(), s.author, payload("Mash", nil, testutil.Line(s.potato.ID, 500)))

	_, err := s.env.recipes.Update(s.ctx, as(s.other), created.ID, payload("Stolen", nil, testutil.Line(s.potato.ID, 1)))
	s.ErrorIs(err, models.ErrForbidden)

	_, err = s.env.recipes.Update(s.ctx, models.Anonymous(), created.ID, payload("Stolen", nil, testutil.Line(s.potato.ID, 1)))
	s.ErrorIs(err, models.ErrUnauthorized)

	_, err = s.env.recipes.Update(s.ctx, as(s.author), created.ID+100, payload("Ghost", nil, testutil.Line(s.potato.ID, 1)))
	s.ErrorIs(err, models.ErrNotFound)
}

func (s *RecipeServiceSuite) TestGetFlagsFollowCaller() {
	created := s.env.mustCreate(s.T(), s.author, payload("Mash", nil, testutil.Line(s.potato.ID, 500)))
	_, err := s.env.members.Add(s.ctx, as(s.other), models.KindFavorite, created.ID)
	s.Require().NoError(err)
	_, err = s.env.subs.Follow(s.ctx, as(s.other), s.author.ID, nil)
	s.Require().NoError(err)

	mine, err := s.env.recipes.Get(s.ctx, as(s.other), created.ID)
	s.Require().NoError(err)
	s.True(mine.IsFavorited)
	s.False(mine.IsInShoppingCart)
	s.True(mine.Author.IsSubscribed)

	theirs, err := s.env.recipes.Get(s.ctx, as(s.author), created.ID)
	s.Require().NoError(err)
	s.False(theirs.IsFavorited)
	s.False(theirs.Author.IsSubscribed)

	anon, err := s.env.recipes.Get(s.ctx, models.Anonymous(), created.ID)
	s.Require().NoError(err)
	s.False(anon.IsFavorited)
	s.False(anon.Author.IsSubscribed)
}

func (s *RecipeServiceSuite) TestListFilters() {
	mash := s.env.mustCreate(s.T(), s.author, payload("Mash", []uint{s.dinner.ID}, testutil.Line(s.potato.ID, 500)))
	soup := s.env.mustCreate(s.T(), s.author, payload("Soup", []uint{s.lunch.ID}, testutil.Line(s.onion.ID, 2)))
	salad := s.env.mustCreate(s.T(), s.other, payload("Salad", []uint{s.lunch.ID, s.dinner.ID}, testutil.Line(s.salt.ID, 1)))

	_, err := s.env.members.Add(s.ctx, as(s.other), models.KindFavorite, mash.ID)
	s.Require().NoError(err)
	_, err = s.env.members.Add(s.ctx, as(s.other), models.KindShoppingCart, soup.ID)
	s.Require().NoError(err)

	ids := func(page *models.Page[models.RecipeRead]) []uint {
		out := []uint{}
		for _, r := range page.Items {
			out = append(out, r.ID)
		}
		return out
	}

	all, err := s.env.recipes.List(s.ctx, models.Anonymous(), models.RecipeListParams{})
	s.Require().NoError(err)
	s.EqualValues(3, all.Total)
	s.Equal([]uint{salad.ID, soup.ID, mash.ID}, ids(all), "newest first")

	fav, err := s.env.recipes.List(s.ctx, as(s.other), models.RecipeListParams{IsFavorited: "1"})
	s.Require().NoError(err)
	s.Equal([]uint{mash.ID}, ids(fav))
	s.True(fav.Items[0].IsFavorited)

	cart, err := s.env.recipes.List(s.ctx, as(s.other), models.RecipeListParams{IsInShoppingCart: "true"})
	s.Require().NoError(err)
	s.Equal([]uint{soup.ID}, ids(cart))

	anonFav, err := s.env.recipes.List(s.ctx, models.Anonymous(), models.RecipeListParams{IsFavorited: "1"})
	s.Require().NoError(err)
	s.EqualValues(3, anonFav.Total, "membership filters are ignored for anonymous callers")

	byTag, err := s.env.recipes.List(s.ctx, models.Anonymous(), models.RecipeListParams{Tags: []string{"lunch"}})
	s.Require().NoError(err)
	s.Equal([]uint{salad.ID, soup.ID}, ids(byTag))

	anyTag, err := s.env.recipes.List(s.ctx, models.Anonymous(), models.RecipeListParams{Tags: []string{"lunch", "dinner"}})
	s.Require().NoError(err)
	s.EqualValues(3, anyTag.Total, "a recipe with both tags is listed once")

	byAuthor, err := s.env.recipes.List(s.ctx, models.Anonymous(), models.RecipeListParams{Author: s.author.ID})
	s.Require().NoError(err)
	s.Equal([]uint{soup.ID, mash.ID}, ids(byAuthor))

	paged, err := s.env.recipes.List(s.ctx, models.Anonymous(), models.RecipeListParams{Page: 2, Limit: 2})
	s.Require().NoError(err)
	s.EqualValues(3, paged.Total)
	s.Equal([]uint{mash.ID}, ids(paged))
}

func (s *RecipeServiceSuite) TestDelete() {
	created := s.env.mustCreate(s.T(), s.author, payload("Mash", []uint{s.dinner.ID}, testutil.Line(s.potato.ID, 500)))
	_, err := s.env.members.Add(s.ctx, as(s.other), models.KindShoppingCart, created.ID)
	s.Require().NoError(err)

	s.ErrorIs(s.env.recipes.Delete(s.ctx, as(s.other), created.ID), models.ErrForbidden)
	s.ErrorIs(s.env.recipes.Delete(s.ctx, models.Anonymous(), created.ID), models.ErrUnauthorized)

	s.Require().NoError(s.env.recipes.Delete(s.ctx, as(s.author), created.ID))
	s.Zero(s.env.count(s.T(), "recipes"))
	s.Zero(s.env.count(s.T(), "recipe_ingredients"))
	s.Zero(s.env.count(s.T(), "recipe_tags"))
	s.Zero(s.env.count(s.T(), "cart_entries"))

	s.ErrorIs(s.env.recipes.Delete(s.ctx, as(s.author), created.ID), models.ErrNotFound)
}

func TestRecipeServiceSuite(t *testing.T) {
	suite.Run(t, new(RecipeServiceSuite))
}
