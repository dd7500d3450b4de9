package api

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/forkcast/backend/internal/ingredient"
	"github.com/forkcast/backend/internal/middleware"
	"github.com/forkcast/backend/internal/service"
	"github.com/forkcast/backend/internal/types"
)

const (
	maxUploadFiles    = 5
	maxUploadFileSize = 5 << 20 // 5 MB per file
)

// IngredientDetector identifies ingredients in a photo.
type IngredientDetector interface {
	DetectIngredients(ctx context.Context, imageData []byte, mimeType string) ([]string, error)
}

// IngredientHandler serves photo-based ingredient detection.
type IngredientHandler struct {
	detector    IngredientDetector
	authService *service.AuthService
	aiLimiter   *middleware.RateLimiter
}

// NewIngredientHandler creates a new IngredientHandler instance
func NewIngredientHandler(detector IngredientDetector, authService *service.AuthService, aiLimiter *middleware.RateLimiter) *IngredientHandler {
	return &IngredientHandler{
		detector:    detector,
		authService: authService,
		aiLimiter:   aiLimiter,
	}
}

// RegisterRoutes registers the ingredient routes
func (h *IngredientHandler) RegisterRoutes(router *gin.RouterGroup) {
	ingredients := router.Group("/ingredients", middleware.AuthMiddleware(h.authService))
	{
		if h.aiLimiter != nil {
			ingredients.POST("/from-images", h.aiLimiter.RateLimitMiddleware(), h.DetectFromImages)
		} else {
			ingredients.POST("/from-images", h.DetectFromImages)
		}
	}
}

// DetectFromImages accepts up to five photos and returns the deduplicated,
// normalized ingredient labels detected across all of them.
func (h *IngredientHandler) DetectFromImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one image is required"})
		return
	}
	if len(files) > maxUploadFiles {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many images, maximum is 5"})
		return
	}

	var detected []string
	for _, fileHeader := range files {
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
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read image"})
			return
		}

		labels, err := h.detector.DetectIngredients(c.Request.Context(), data, mimeType)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to detect ingredients"})
			return
		}
		detected = append(detected, labels...)
	}

	c.JSON(http.StatusOK, types.DetectIngredientsResponse{
		DetectedIngredients: ingredient.Normalize(detected),
	})
}
