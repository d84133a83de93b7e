package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"foodgram/helper"
	"foodgram/models"
	"foodgram/repositories"
	"foodgram/services"
	"foodgram/storage"
	"foodgram/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type RouterTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine

	tag   *models.Tag
	flour *models.Ingredient
	milk  *models.Ingredient
}

type errorResponse struct {
	Code        int                 `json:"code"`
	CodeType    string              `json:"code_type"`
	CodeMessage string              `json:"code_message"`
	Errors      map[string][]string `json:"errors"`
}

type recipePage struct {
	Count    int64               `json:"count"`
	Next     *string             `json:"next"`
	Previous *string             `json:"previous"`
	Results  []models.RecipeRead `json:"results"`
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (suite *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.db = testutil.NewDB(suite.T())

	h, err := helper.NewHTTPHelper()
	suite.Require().NoError(err)

	store := repositories.NewStore(suite.db)
	root := suite.T().TempDir()
	suite.router = SetupRouter(Deps{
		Auth:          services.NewAuthService(store, "test-secret", time.Hour),
		Recipes:       services.NewRecipeService(store, storage.NewLocalStore(root, "/media"), 10),
		Memberships:   services.NewMembershipService(store),
		Cart:          services.NewShoppingCartService(store),
		Subscriptions: services.NewSubscriptionService(store, 10),
		Catalog:       services.NewCatalogService(store),
		Helper:        h,
		MediaRoot:     root,
	})

	suite.tag = testutil.CreateTag(suite.T(), suite.db, "Breakfast", "breakfast")
	suite.flour = testutil.CreateIngredient(suite.T(), suite.db, "flour", "g")
	suite.milk = testutil.CreateIngredient(suite.T(), suite.db, "milk", "ml")
}

func (suite *RouterTestSuite) request(method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	switch p := payload.(type) {
	case nil:
		body = &bytes.Buffer{}
	case string:
		body = bytes.NewBufferString(p)
	default:
		raw, err := json.Marshal(p)
		suite.Require().NoError(err)
		body = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *RouterTestSuite) decode(w *httptest.ResponseRecorder, out interface{}) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

// signUp registers a user through the API and returns its id and token.
func (suite *RouterTestSuite) signUp(username string) (uint, string) {
	w := suite.request(http.MethodPost, "/api/users/", "", models.RegisterRequest{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "First",
		LastName:  "Last",
		Password:  "password123",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var user models.UserProfile
	suite.decode(w, &user)

	return user.ID, suite.login(username)
}

func (suite *RouterTestSuite) login(username string) string {
	w := suite.request(http.MethodPost, "/api/auth/token/login/", "", models.LoginRequest{
		Email:    username + "@example.com",
		Password: "password123",
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var token models.TokenResponse
	suite.decode(w, &token)
	suite.Require().NotEmpty(token.AuthToken)
	return token.AuthToken
}

func (suite *RouterTestSuite) recipeBody(name string) models.RecipePayload {
	return models.RecipePayload{
		Name:        name,
		Text:        "Mix and bake.",
		CookingTime: testutil.IntPtr(20),
		Image:       testutil.PNG,
		Tags:        []uint{suite.tag.ID},
		Ingredients: []models.IngredientAmount{
			testutil.Line(suite.flour.ID, 200),
			testutil.Line(suite.milk.ID, 300),
		},
	}
}

func (suite *RouterTestSuite) createRecipe(token, name string) models.RecipeRead {
	w := suite.request(http.MethodPost, "/api/recipes/", token, suite.recipeBody(name))
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var recipe models.RecipeRead
	suite.decode(w, &recipe)
	return recipe
}

func (suite *RouterTestSuite) TestHealth() {
	w := suite.request(http.MethodGet, "/health", "", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"status":"healthy"}`, w.Body.String())
}

func (suite *RouterTestSuite) TestAuthFlow() {
	id, token := suite.signUp("alice")

	w := suite.request(http.MethodGet, "/api/users/me/", token, nil)
	suite.Equal(http.StatusOK, w.Code)
	var me models.UserProfile
	suite.decode(w, &me)
	suite.Equal(id, me.ID)
	suite.Equal("alice", me.Username)

	w = suite.request(http.MethodGet, "/api/users/me/", "", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.request(http.MethodGet, "/api/users/me/", "not-a-token", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.request(http.MethodPost, "/api/users/", "", models.RegisterRequest{
		Email: "alice@example.com", Username: "alice", FirstName: "A", LastName: "B", Password: "password123",
	})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, "/api/auth/token/login/", "", models.LoginRequest{
		Email: "alice@example.com", Password: "wrong-password",
	})
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *RouterTestSuite) TestRegisterValidation() {
	w := suite.request(http.MethodPost, "/api/users/", "", map[string]string{"email": "nope"})
	suite.Equal(http.StatusBadRequest, w.Code)

	var resp errorResponse
	suite.decode(w, &resp)
	suite.Equal("validationError", resp.CodeType)
	suite.Contains(resp.Errors, "email")
	suite.Contains(resp.Errors, "username")
	suite.Contains(resp.Errors, "password")
}

func (suite *RouterTestSuite) TestSetPassword() {
	_, token := suite.signUp("alice")

	w := suite.request(http.MethodPost, "/api/users/set_password/", token, models.SetPasswordRequest{
		CurrentPassword: "wrong", NewPassword: "another-secret",
	})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, "/api/users/set_password/", token, models.SetPasswordRequest{
		CurrentPassword: "password123", NewPassword: "another-secret",
	})
	suite.Equal(http.StatusNoContent, w.Code)

	w = suite.request(http.MethodPost, "/api/auth/token/login/", "", models.LoginRequest{
		Email: "alice@example.com", Password: "another-secret",
	})
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *RouterTestSuite) TestRecipeCRUD() {
	authorID, token := suite.signUp("alice")

	recipe := suite.createRecipe(token, "Pancakes")
	suite.Equal("Pancakes", recipe.Name)
	suite.Equal(authorID, recipe.Author.ID)
	suite.Len(recipe.Ingredients, 2)
	suite.Len(recipe.Tags, 1)
	suite.True(strings.HasPrefix(recipe.Image, "/media/recipes/"), recipe.Image)

	w := suite.request(http.MethodGet, fmt.Sprintf("/api/recipes/%d/", recipe.ID), "", nil)
	suite.Equal(http.StatusOK, w.Code)
	var fetched models.RecipeRead
	suite.decode(w, &fetched)
	suite.Equal(recipe.ID, fetched.ID)
	suite.False(fetched.IsFavorited)

	update := suite.recipeBody("Crepes")
	update.Image = ""
	update.Ingredients = []models.IngredientAmount{testutil.Line(suite.milk.ID, 500)}
	w = suite.request(http.MethodPatch, fmt.Sprintf("/api/recipes/%d/", recipe.ID), token, update)
	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	var updated models.RecipeRead
	suite.decode(w, &updated)
	suite.Equal("Crepes", updated.Name)
	suite.Equal(recipe.Image, updated.Image)
	suite.Require().Len(updated.Ingredients, 1)
	suite.Equal(500, updated.Ingredients[0].Amount)

	w = suite.request(http.MethodDelete, fmt.Sprintf("/api/recipes/%d/", recipe.ID), token, nil)
	suite.Equal(http.StatusNoContent, w.Code)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/recipes/%d/", recipe.ID), "", nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *RouterTestSuite) TestRecipePermissions() {
	_, author := suite.signUp("alice")
	_, other := suite.signUp("bob")
	recipe := suite.createRecipe(author, "Pancakes")
	path := fmt.Sprintf("/api/recipes/%d/", recipe.ID)

	w := suite.request(http.MethodPost, "/api/recipes/", "", suite.recipeBody("Waffles"))
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.request(http.MethodPut, path, other, suite.recipeBody("Stolen"))
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodDelete, path, other, nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodGet, "/api/recipes/999/", "", nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodGet, "/api/recipes/abc/", "", nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *RouterTestSuite) TestRecipeValidation() {
	_, token := suite.signUp("alice")

	body := suite.recipeBody("Pancakes")
	body.Ingredients = []models.IngredientAmount{testutil.Line(suite.flour.ID, 0)}
	w := suite.request(http.MethodPost, "/api/recipes/", token, body)
	suite.Equal(http.StatusBadRequest, w.Code)
	var resp errorResponse
	suite.decode(w, &resp)
	suite.Equal("validationError", resp.CodeType)
	suite.NotEmpty(resp.Errors)

	body = suite.recipeBody("Pancakes")
	body.Ingredients = append(body.Ingredients, testutil.Line(suite.flour.ID, 10))
	w = suite.request(http.MethodPost, "/api/recipes/", token, body)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, "/api/recipes/", token, `{"name":"x","text":"y","cooking_time":"soon"}`)
	suite.Equal(http.StatusBadRequest, w.Code)
	resp = errorResponse{}
	suite.decode(w, &resp)
	suite.Contains(resp.Errors, "cooking_time")

	var count int64
	suite.db.Model(&models.Recipe{}).Count(&count)
	suite.Zero(count)
}

func (suite *RouterTestSuite) TestFavoriteFlagPerCaller() {
	_, u := suite.signUp("alice")
	_, v := suite.signUp("bob")
	recipe := suite.createRecipe(u, "Pancakes")
	favorite := fmt.Sprintf("/api/recipes/%d/favorite/", recipe.ID)

	w := suite.request(http.MethodPost, favorite, v, nil)
	suite.Equal(http.StatusCreated, w.Code, w.Body.String())
	var minified models.RecipeMinified
	suite.decode(w, &minified)
	suite.Equal(recipe.ID, minified.ID)
	suite.Equal(20, minified.CookingTime)

	w = suite.request(http.MethodPost, favorite, v, nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	flags := func(token string) bool {
		w := suite.request(http.MethodGet, "/api/recipes/", token, nil)
		suite.Require().Equal(http.StatusOK, w.Code)
		var page recipePage
		suite.decode(w, &page)
		suite.Require().Len(page.Results, 1)
		return page.Results[0].IsFavorited
	}
	suite.True(flags(v))
	suite.False(flags(u))
	suite.False(flags(""))

	w = suite.request(http.MethodGet, "/api/recipes/?is_favorited=1", v, nil)
	var page recipePage
	suite.decode(w, &page)
	suite.EqualValues(1, page.Count)

	w = suite.request(http.MethodGet, "/api/recipes/?is_favorited=1", u, nil)
	page = recipePage{}
	suite.decode(w, &page)
	suite.EqualValues(0, page.Count)

	w = suite.request(http.MethodDelete, favorite, v, nil)
	suite.Equal(http.StatusNoContent, w.Code)
	w = suite.request(http.MethodDelete, favorite, v, nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodPost, "/api/recipes/999/favorite/", v, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *RouterTestSuite) TestDownloadShoppingCart() {
	_, token := suite.signUp("alice")
	first := suite.createRecipe(token, "Pancakes")
	second := suite.createRecipe(token, "Waffles")

	for _, id := range []uint{first.ID, second.ID} {
		w := suite.request(http.MethodPost, fmt.Sprintf("/api/recipes/%d/shopping_cart/", id), token, nil)
		suite.Require().Equal(http.StatusCreated, w.Code)
	}

	w := suite.request(http.MethodGet, "/api/recipes/download_shopping_cart/", token, nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(`attachment; filename="cart.txt"`, w.Header().Get("Content-Disposition"))
	suite.True(strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))

	expected := services.RenderReport([]models.ShoppingListItem{
		{Name: "flour", MeasurementUnit: "g", Amount: 400},
		{Name: "milk", MeasurementUnit: "ml", Amount: 600},
	})
	suite.Equal(expected, w.Body.String())

	w = suite.request(http.MethodGet, "/api/recipes/download_shopping_cart/", "", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *RouterTestSuite) TestRecipePagination() {
	_, token := suite.signUp("alice")
	for _, name := range []string{"One", "Two", "Three"} {
		suite.createRecipe(token, name)
	}

	w := suite.request(http.MethodGet, "/api/recipes/?limit=2&tags=breakfast", "", nil)
	suite.Equal(http.StatusOK, w.Code)
	var page recipePage
	suite.decode(w, &page)
	suite.EqualValues(3, page.Count)
	suite.Len(page.Results, 2)
	suite.Equal("Three", page.Results[0].Name)
	suite.Nil(page.Previous)
	suite.Require().NotNil(page.Next)
	suite.Contains(*page.Next, "page=2")
	suite.Contains(*page.Next, "tags=breakfast")

	w = suite.request(http.MethodGet, "/api/recipes/?limit=2&page=2", "", nil)
	page = recipePage{}
	suite.decode(w, &page)
	suite.Len(page.Results, 1)
	suite.Nil(page.Next)
	suite.NotNil(page.Previous)

	w = suite.request(http.MethodGet, "/api/recipes/?tags=dinner", "", nil)
	page = recipePage{}
	suite.decode(w, &page)
	suite.EqualValues(0, page.Count)
}

func (suite *RouterTestSuite) TestSubscriptions() {
	followerID, follower := suite.signUp("alice")
	authorID, author := suite.signUp("bob")
	suite.createRecipe(author, "Pancakes")
	suite.createRecipe(author, "Waffles")

	w := suite.request(http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe/?recipes_limit=1", authorID), follower, nil)
	suite.Equal(http.StatusCreated, w.Code, w.Body.String())
	var view models.SubscriptionView
	suite.decode(w, &view)
	suite.Equal(authorID, view.ID)
	suite.True(view.IsSubscribed)
	suite.Len(view.Recipes, 1)
	suite.EqualValues(2, view.RecipesCount)

	w = suite.request(http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe/", authorID), follower, nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe/", followerID), follower, nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/users/%d/", authorID), follower, nil)
	var profile models.UserProfile
	suite.decode(w, &profile)
	suite.True(profile.IsSubscribed)

	w = suite.request(http.MethodGet, "/api/users/subscriptions/", follower, nil)
	suite.Equal(http.StatusOK, w.Code)
	var page struct {
		Count   int64                     `json:"count"`
		Results []models.SubscriptionView `json:"results"`
	}
	suite.decode(w, &page)
	suite.EqualValues(1, page.Count)
	suite.Len(page.Results[0].Recipes, 2)

	w = suite.request(http.MethodDelete, fmt.Sprintf("/api/users/%d/subscribe/", authorID), follower, nil)
	suite.Equal(http.StatusNoContent, w.Code)
	w = suite.request(http.MethodDelete, fmt.Sprintf("/api/users/%d/subscribe/", authorID), follower, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *RouterTestSuite) TestCatalog() {
	w := suite.request(http.MethodGet, "/api/tags/", "", nil)
	suite.Equal(http.StatusOK, w.Code)
	var tags []models.Tag
	suite.decode(w, &tags)
	suite.Len(tags, 1)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/tags/%d/", suite.tag.ID), "", nil)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, "/api/ingredients/?name=fl", "", nil)
	var ingredients []models.Ingredient
	suite.decode(w, &ingredients)
	suite.Require().Len(ingredients, 1)
	suite.Equal("flour", ingredients[0].Name)

	w = suite.request(http.MethodGet, "/api/ingredients/999/", "", nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *RouterTestSuite) TestCreateTagRequiresAdmin() {
	body := models.CreateTagRequest{Name: "Dinner", Color: "#49B64E", Slug: "dinner"}

	_, token := suite.signUp("alice")
	w := suite.request(http.MethodPost, "/api/tags/", token, body)
	suite.Equal(http.StatusForbidden, w.Code)

	suite.Require().NoError(suite.db.Model(&models.User{}).
		Where("username = ?", "alice").
		Update("role", models.RoleAdmin).Error)
	token = suite.login("alice")

	w = suite.request(http.MethodPost, "/api/tags/", token, models.CreateTagRequest{Name: "Bad", Color: "red", Slug: "bad"})
	suite.Equal(http.StatusBadRequest, w.Code)
	var resp errorResponse
	suite.decode(w, &resp)
	suite.Contains(resp.Errors, "color")

	w = suite.request(http.MethodPost, "/api/tags/", token, body)
	suite.Equal(http.StatusCreated, w.Code, w.Body.String())

	w = suite.request(http.MethodPost, "/api/tags/", token, body)
	suite.Equal(http.StatusBadRequest, w.Code)
}
