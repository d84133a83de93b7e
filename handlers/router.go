package handlers

import (
	"net/http"

	"foodgram/cache"
	"foodgram/helper"
	"foodgram/middleware"
	"foodgram/models"
	"foodgram/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps carries everything the router needs. Limiter may be nil to disable
// throttling.
type Deps struct {
	Auth          services.AuthService
	Recipes       services.RecipeService
	Memberships   services.MembershipService
	Cart          services.ShoppingCartService
	Subscriptions services.SubscriptionService
	Catalog       services.CatalogService
	Limiter       cache.Limiter
	Helper        *helper.HTTPHelper

	// MediaRoot is served under /media when set.
	MediaRoot string
}

func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})
	router.Use(middleware.RequestID(), middleware.LoggerMiddleware(), middleware.Metrics())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if d.MediaRoot != "" {
		router.Static("/media", d.MediaRoot)
	}

	recipeHandler := NewRecipeHandler(d.Recipes, d.Memberships, d.Cart, d.Helper)
	catalogHandler := NewCatalogHandler(d.Catalog, d.Helper)
	userHandler := NewUserHandler(d.Auth, d.Subscriptions, d.Helper)

	authenticated := middleware.RequireAuth(d.Helper)

	api := router.Group("/api")
	api.Use(middleware.Authenticate(d.Auth, d.Helper))
	if d.Limiter != nil {
		api.Use(middleware.RateLimit(d.Limiter))
	}
	{
		auth := api.Group("/auth/token")
		{
			auth.POST("/login/", userHandler.Login)
			auth.POST("/logout/", authenticated, userHandler.Logout)
		}

		users := api.Group("/users")
		{
			users.POST("/", userHandler.Register)
			users.GET("/me/", authenticated, userHandler.GetProfile)
			users.POST("/set_password/", authenticated, userHandler.SetPassword)
			users.GET("/subscriptions/", authenticated, userHandler.GetSubscriptions)
			users.GET("/:id/", userHandler.GetUser)
			users.POST("/:id/subscribe/", authenticated, userHandler.Subscribe)
			users.DELETE("/:id/subscribe/", authenticated, userHandler.Unsubscribe)
		}

		recipes := api.Group("/recipes")
		{
			recipes.GET("/", recipeHandler.GetRecipes)
			recipes.POST("/", authenticated, recipeHandler.CreateRecipe)
			recipes.GET("/download_shopping_cart/", authenticated, recipeHandler.DownloadShoppingCart)
			recipes.GET("/:id/", recipeHandler.GetRecipe)
			recipes.PUT("/:id/", authenticated, recipeHandler.UpdateRecipe)
			recipes.PATCH("/:id/", authenticated, recipeHandler.UpdateRecipe)
			recipes.DELETE("/:id/", authenticated, recipeHandler.DeleteRecipe)
			recipes.POST("/:id/favorite/", authenticated, recipeHandler.AddToList(models.KindFavorite))
			recipes.DELETE("/:id/favorite/", authenticated, recipeHandler.RemoveFromList(models.KindFavorite))
			recipes.POST("/:id/shopping_cart/", authenticated, recipeHandler.AddToList(models.KindShoppingCart))
			recipes.DELETE("/:id/shopping_cart/", authenticated, recipeHandler.RemoveFromList(models.KindShoppingCart))
		}

		tags := api.Group("/tags")
		{
			tags.GET("/", catalogHandler.GetTags)
			tags.GET("/:id/", catalogHandler.GetTag)
			tags.POST("/", middleware.RequireRole(d.Helper, models.RoleAdmin), catalogHandler.CreateTag)
		}

		ingredients := api.Group("/ingredients")
		{
			ingredients.GET("/", catalogHandler.GetIngredients)
			ingredients.GET("/:id/", catalogHandler.GetIngredient)
		}
	}

	return router
}
