package handlers

import (
	"net/http"

	"foodgram/helper"
	"foodgram/models"
	"foodgram/services"

	"github.com/gin-gonic/gin"
)

type RecipeHandler struct {
	recipeService     services.RecipeService
	membershipService services.MembershipService
	cartService       services.ShoppingCartService
	Helper            *helper.HTTPHelper
}

func NewRecipeHandler(
	recipeService services.RecipeService,
	membershipService services.MembershipService,
	cartService services.ShoppingCartService,
	h *helper.HTTPHelper,
) *RecipeHandler {
	return &RecipeHandler{
		recipeService:     recipeService,
		membershipService: membershipService,
		cartService:       cartService,
		Helper:            h,
	}
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req models.RecipePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Helper.SendBindError(c, err)
		return
	}

	recipe, err := h.recipeService.Create(c.Request.Context(), helper.Identity(c), &req)
	if err != nil {
		h.Helper.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) GetRecipes(c *gin.Context) {
	var params models.RecipeListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.Helper.SendBindError(c, err)
		return
	}

	page, err := h.recipeService.List(c.Request.Context(), helper.Identity(c), params)
	if err != nil {
		h.Helper.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.Helper.GeneratePaging(c, page.Page, page.Limit, page.Total, page.Items))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := helper.ParseID(c, "id")
	if !ok {
		h.Helper.SendAppError(c, models.ErrNotFound)
		return
	}

	recipe, err := h.recipeService.Get(c.Request.Context(), helper.Identity(c), id)
	if err != nil {
		h.Helper.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, recipe)
}

// UpdateRecipe serves both PUT and PATCH. The body always carries the full
// composition; only the image may be omitted.
func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := helper.ParseID(c, "id")
	if !ok {
		h.Helper.SendAppError(c, models.ErrNotFound)
		return
	}

	var req models.RecipePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Helper.SendBindError(c, err)
		return
	}

	recipe, err := h.recipeService.Update(c.Request.Context(), helper.Identity(c), id, &req)
	if err != nil {
		h.Helper.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := helper.ParseID(c, "id")
	if !ok {
		h.Helper.SendAppError(c, models.ErrNotFound)
		return
	}

	if err := h.recipeService.Delete(c.Request.Context(), helper.Identity(c), id); err != nil {
		h.Helper.SendAppError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AddToList returns the POST handler that puts the recipe into kind.
func (h *RecipeHandler) AddToList(kind models.MembershipKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := helper.ParseID(c, "id")
		if !ok {
			h.Helper.SendAppError(c, models.ErrNotFound)
			return
		}

		recipe, err := h.membershipService.Add(c.Request.Context(), helper.Identity(c), kind, id)
		if err != nil {
			h.Helper.SendAppError(c, err)
			return
		}

		c.JSON(http.StatusCreated, recipe)
	}
}

// RemoveFromList returns the DELETE handler that takes the recipe out of kind.
func (h *RecipeHandler) RemoveFromList(kind models.MembershipKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := helper.ParseID(c, "id")
		if !ok {
			h.Helper.SendAppError(c, models.ErrNotFound)
			return
		}

		if err := h.membershipService.Remove(c.Request.Context(), helper.Identity(c), kind, id); err != nil {
			h.Helper.SendAppError(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	report, err := h.cartService.BuildReport(c.Request.Context(), helper.Identity(c))
	if err != nil {
		h.Helper.SendAppError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+services.CartFileName+`"`)
	c.Data(http.StatusOK, services.CartContentType+"; charset=utf-8", []byte(report))
}
