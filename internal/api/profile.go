package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/forkcast/backend/internal/middleware"
	"github.com/forkcast/backend/internal/recommend"
	"github.com/forkcast/backend/internal/service"
	"github.com/forkcast/backend/internal/types"
)

// ProfileHandler serves the authenticated user's profile and preferences.
type ProfileHandler struct {
	profileService *service.ProfileService
	authService    *service.AuthService
}

// NewProfileHandler creates a new ProfileHandler instance
func NewProfileHandler(profileService *service.ProfileService, authService *service.AuthService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		authService:    authService,
	}
}

// RegisterRoutes registers the profile routes
func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	profile := router.Group("/profile", middleware.AuthMiddleware(h.authService))
	{
		profile.GET("", h.GetProfile)
		profile.GET("/preferences", h.GetPreferences)
		profile.PUT("/preferences", h.UpdatePreferences)
		profile.GET("/favorites", h.ListFavorites)
	}
}

// GetProfile returns the authenticated user's public fields
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID := currentUserID(c)

	user, err := h.profileService.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, recommend.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get profile"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetPreferences returns the stored preference lists
func (h *ProfileHandler) GetPreferences(c *gin.Context) {
	userID := currentUserID(c)

	prefs, err := h.profileService.GetPreferences(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, recommend.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get preferences"})
		return
	}

	c.JSON(http.StatusOK, prefs)
}

// UpdatePreferences replaces the stored preference lists
func (h *ProfileHandler) UpdatePreferences(c *gin.Context) {
	userID := currentUserID(c)

	var req types.UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.profileService.UpdatePreferences(c.Request.Context(), userID, req); err != nil {
		if errors.Is(err, recommend.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update preferences"})
		return
	}

	prefs, err := h.profileService.GetPreferences(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get preferences"})
		return
	}

	c.JSON(http.StatusOK, prefs)
}

// ListFavorites returns the user's favorited recipes
func (h *ProfileHandler) ListFavorites(c *gin.Context) {
	userID := currentUserID(c)

	recipes, err := h.profileService.ListFavorites(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list favorites"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": recipes})
}

// currentUserID reads the user ID the auth middleware stored in the context.
func currentUserID(c *gin.Context) uuid.UUID {
	return c.MustGet("user_id").(uuid.UUID)
}
