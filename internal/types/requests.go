package types

import "github.com/forkcast/backend/internal/models"

// RegisterRequest is the request body for user registration
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest is the request body for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries the issued token and the public user fields
type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	User        models.User `json:"user"`
}

// CreateRecipeRequest is the request body for creating a recipe
type CreateRecipeRequest struct {
	Title              string              `json:"title" binding:"required"`
	Description        string              `json:"description"`
	Ingredients        []models.Ingredient `json:"ingredients" binding:"required,dive"`
	Steps              []string            `json:"steps" binding:"required"`
	Cuisine            string              `json:"cuisine"`
	Difficulty         string              `json:"difficulty" binding:"required,oneof=easy medium hard"`
	CookingTimeMinutes int                 `json:"cooking_time_minutes" binding:"required,min=1"`
	Servings           int                 `json:"servings" binding:"required,min=1"`
	DietaryTags        []string            `json:"dietary_tags"`
	ImageURL           string              `json:"image_url"`
	Nutrition          *models.Nutrition   `json:"nutrition"`
}

// ListRecipesQuery holds the supported recipe listing filters
type ListRecipesQuery struct {
	Page       int    `form:"page,default=1" binding:"min=1"`
	Limit      int    `form:"limit,default=10" binding:"min=1,max=100"`
	Difficulty string `form:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	MaxTime    int    `form:"max_time" binding:"omitempty,min=1"`
	Cuisine    string `form:"cuisine"`
	Diet       string `form:"diet"`
	Search     string `form:"search"`
}

// ListRecipesResponse is a paginated recipe listing
type ListRecipesResponse struct {
	Items      []models.Recipe `json:"items"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	Total      int64           `json:"total"`
	TotalPages int64           `json:"total_pages"`
}

// RateRecipeRequest is the request body for rating a recipe
type RateRecipeRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// RateRecipeResponse returns the recomputed rating aggregates
type RateRecipeResponse struct {
	RecipeID      string  `json:"recipe_id"`
	AverageRating float64 `json:"average_rating"`
	RatingCount   int     `json:"rating_count"`
}

// UpdatePreferencesRequest replaces the user's stored preference lists
type UpdatePreferencesRequest struct {
	DietaryPreferences  []string `json:"dietary_preferences"`
	Allergies           []string `json:"allergies"`
	DislikedIngredients []string `json:"disliked_ingredients"`
}

// PreferencesResponse mirrors the stored preference lists
type PreferencesResponse struct {
	DietaryPreferences  []string `json:"dietary_preferences"`
	Allergies           []string `json:"allergies"`
	DislikedIngredients []string `json:"disliked_ingredients"`
}

// DetectIngredientsResponse is the result of image-based detection
type DetectIngredientsResponse struct {
	DetectedIngredients []string `json:"detected_ingredients"`
}
