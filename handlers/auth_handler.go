package handlers

import (
	"net/http"

	"foodgram/helper"
	"foodgram/models"
	"foodgram/services"

	"github.com/gin-gonic/gin"
)

// UserHandler serves accounts and subscriptions.
type UserHandler struct {
	authService         services.AuthService
	subscriptionService services.SubscriptionService
	Helper              *helper.HTTPHelper
}

func NewUserHandler(authService services.AuthService, subscriptionService services.SubscriptionService, h *helper.HTTPHelper) *UserHandler {
	return &UserHandler{authService: authService, subscriptionService: subscriptionService, Helper: h}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Helper.SendBindError(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		h.Helper.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Helper.SendBindError(c, err)
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.Helper.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, token)
}

// Logout exists for client compatibility; tokens are stateless and expire on
// their own.
func (h *UserHandler) Logout(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.authService.Me(c.Request.Context(), helper.Identity(c))
	if err != nil {
		h.Helper.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := helper.ParseID(c, "id")
	if !ok {
		h.Helper.SendAppError(c, models.ErrNotFound)
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), helper.Identity(c), id)
	if err != nil {
		h.Helper.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req models.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Helper.SendBindError(c, err)
		return
	}

	if err := h.authService.SetPassword(c.Request.Context(), helper.Identity(c), req); err != nil {
		h.Helper.SendAppError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	id, ok := helper.ParseID(c, "id")
	if !ok {
		h.Helper.SendAppError(c, models.ErrNotFound)
		return
	}

	var query struct {
		RecipesLimit *int `form:"recipes_limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		h.Helper.SendBindError(c, err)
		return
	}

	view, err := h.subscriptionService.Follow(c.Request.Context(), helper.Identity(c), id, query.RecipesLimit)
	if err != nil {
		h.Helper.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, ok := helper.ParseID(c, "id")
	if !ok {
		h.Helper.SendAppError(c, models.ErrNotFound)
		return
	}

	if err := h.subscriptionService.Unfollow(c.Request.Context(), helper.Identity(c), id); err != nil {
		h.Helper.SendAppError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *UserHandler) GetSubscriptions(c *gin.Context) {
	var params models.SubscriptionListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.Helper.SendBindError(c, err)
		return
	}

	page, err := h.subscriptionService.List(c.Request.Context(), helper.Identity(c), params)
	if err != nil {
		h.Helper.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.Helper.GeneratePaging(c, page.Page, page.Limit, page.Total, page.Items))
}
