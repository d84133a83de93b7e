package handlers

import (
	"net/http"

	"foodgram/helper"
	"foodgram/models"
	"foodgram/services"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves tags and ingredients. Both lists are unpaginated.
type CatalogHandler struct {
	catalogService services.CatalogService
	Helper         *helper.HTTPHelper
}

func NewCatalogHandler(catalogService services.CatalogService, h *helper.HTTPHelper) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, Helper: h}
}

func (h *CatalogHandler) CreateTag(c *gin.Context) {
	var req models.CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Helper.SendBindError(c, err)
		return
	}

	tag, err := h.catalogService.CreateTag(c.Request.Context(), helper.Identity(c), req)
	if err != nil {
		h.Helper.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tag)
}

func (h *CatalogHandler) GetTags(c *gin.Context) {
	tags, err := h.catalogService.ListTags(c.Request.Context())
	if err != nil {
		h.Helper.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, tags)
}

func (h *CatalogHandler) GetTag(c *gin.Context) {
	id, ok := helper.ParseID(c, "id")
	if !ok {
		h.Helper.SendAppError(c, models.ErrNotFound)
		return
	}

	tag, err := h.catalogService.GetTag(c.Request.Context(), id)
	if err != nil {
		h.Helper.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, tag)
}

func (h *CatalogHandler) GetIngredients(c *gin.Context) {
	ingredients, err := h.catalogService.ListIngredients(c.Request.Context(), c.Query("name"))
	if err != nil {
		h.Helper.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, ingredients)
}

func (h *CatalogHandler) GetIngredient(c *gin.Context) {
	id, ok := helper.ParseID(c, "id")
	if !ok {
		h.Helper.SendAppError(c, models.ErrNotFound)
		return
	}

	ingredient, err := h.catalogService.GetIngredient(c.Request.Context(), id)
	if err != nil {
		h.Helper.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, ingredient)
}
