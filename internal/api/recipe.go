package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/forkcast/backend/internal/middleware"
	"github.com/forkcast/backend/internal/recommend"
	"github.com/forkcast/backend/internal/service"
	"github.com/forkcast/backend/internal/types"
)

// Recommender produces ranked recipe recommendations.
type Recommender interface {
	Recommend(ctx context.Context, userID uuid.UUID, req recommend.Request) (*recommend.Result, error)
}

// RecipeHandler serves recipe CRUD, rating, favoriting and recommendations.
type RecipeHandler struct {
	recipeService  *service.RecipeService
	recommender    Recommender
	authService    *service.AuthService
	storageService *service.StorageService
	aiLimiter      *middleware.RateLimiter
}

// NewRecipeHandler creates a new RecipeHandler instance. The storage service
// and rate limiter are optional; when nil the image upload endpoint is not
// registered and the recommendation endpoint is not rate limited.
func NewRecipeHandler(recipeService *service.RecipeService, recommender Recommender, authService *service.AuthService, storageService *service.StorageService, aiLimiter *middleware.RateLimiter) *RecipeHandler {
	return &RecipeHandler{
		recipeService:  recipeService,
		recommender:    recommender,
		authService:    authService,
		storageService: storageService,
		aiLimiter:      aiLimiter,
	}
}

// RegisterRoutes registers the recipe routes
func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	authRequired := middleware.AuthMiddleware(h.authService)

	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.GET("/:id", h.GetRecipe)
		recipes.POST("", authRequired, h.CreateRecipe)
		recipes.POST("/:id/rating", authRequired, h.RateRecipe)
		recipes.POST("/:id/favorite", authRequired, h.ToggleFavorite)

		if h.storageService != nil {
			recipes.POST("/:id/image", authRequired, h.UploadImage)
		}

		if h.aiLimiter != nil {
			recipes.POST("/recommend", authRequired, h.aiLimiter.RateLimitMiddleware(), h.Recommend)
		} else {
			recipes.POST("/recommend", authRequired, h.Recommend)
		}
	}
}

// ListRecipes returns a paginated recipe listing
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	var q types.ListRecipesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.recipeService.ListRecipes(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list recipes"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetRecipe returns a single recipe
func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	recipe, err := h.recipeService.GetRecipe(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRecipeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get recipe"})
		return
	}

	c.JSON(http.StatusOK, recipe)
}

// CreateRecipe stores a new recipe owned by the authenticated user
func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	userID := currentUserID(c)

	var req types.CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe, err := h.recipeService.CreateRecipe(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create recipe"})
		return
	}

	c.JSON(http.StatusCreated, recipe)
}

// Recommend returns ranked recipe recommendations for the authenticated user
func (h *RecipeHandler) Recommend(c *gin.Context) {
	userID := currentUserID(c)

	var req recommend.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.recommender.Recommend(c.Request.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, recommend.ErrNoIngredients):
			c.JSON(http.StatusBadRequest, gin.H{"error": "at least one ingredient is required"})
		case errors.Is(err, recommend.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to compute recommendations"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// RateRecipe records the user's rating and returns the new aggregates
func (h *RecipeHandler) RateRecipe(c *gin.Context) {
	userID := currentUserID(c)

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	var req types.RateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.recipeService.RateRecipe(c.Request.Context(), userID, recipeID, req.Rating, req.Comment)
	if err != nil {
		if errors.Is(err, service.ErrRecipeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rate recipe"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UploadImage stores a recipe photo in S3 and records its URL
func (h *RecipeHandler) UploadImage(c *gin.Context) {
	userID := currentUserID(c)

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	if fileHeader.Size > maxUploadFileSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image exceeds the 5MB size limit"})
		return
	}
	mimeType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only image uploads are supported"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read image"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read image"})
		return
	}

	imageURL, err := h.storageService.UploadRecipeImage(c.Request.Context(), data, mimeType)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to store image"})
		return
	}

	recipe, err := h.recipeService.SetImageURL(c.Request.Context(), userID, recipeID, imageURL)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecipeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		case errors.Is(err, service.ErrNotRecipeOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "only the recipe owner can change its image"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update recipe"})
		}
		return
	}

	c.JSON(http.StatusOK, recipe)
}

// ToggleFavorite flips the favorite state for the authenticated user
func (h *RecipeHandler) ToggleFavorite(c *gin.Context) {
	userID := currentUserID(c)

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	favorited, err := h.recipeService.ToggleFavorite(c.Request.Context(), userID, recipeID)
	if err != nil {
		if errors.Is(err, service.ErrRecipeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update favorite"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipe_id": recipeID.String(), "favorited": favorited})
}
