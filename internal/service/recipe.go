package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/forkcast/backend/internal/ingredient"
	"github.com/forkcast/backend/internal/models"
	"github.com/forkcast/backend/internal/recommend"
	"github.com/forkcast/backend/internal/types"
)

var (
	// ErrRecipeNotFound is returned when a recipe lookup finds nothing.
	ErrRecipeNotFound = errors.New("recipe not found")
	// ErrNotRecipeOwner is returned when a user modifies a recipe they did not create.
	ErrNotRecipeOwner = errors.New("not the recipe owner")
)

// RecipeAI is the slice of the AI service the recipe service depends on.
type RecipeAI interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EstimateNutrition(ctx context.Context, ingredients []string, servings int) (*models.Nutrition, error)
}

// RecipeService handles recipe persistence, retrieval and rating.
type RecipeService struct {
	db *gorm.DB
	ai RecipeAI
}

// NewRecipeService creates a new RecipeService instance. The AI dependency is
// optional: when nil, new recipes get no embedding or nutrition estimate.
func NewRecipeService(db *gorm.DB, ai RecipeAI) *RecipeService {
	return &RecipeService{db: db, ai: ai}
}

// CreateRecipe stores a new recipe. The ingredient embedding is computed from
// the normalized ingredient names so stored vectors line up with the vectors
// the recommendation engine builds for request input.
func (s *RecipeService) CreateRecipe(ctx context.Context, userID uuid.UUID, req types.CreateRecipeRequest) (*models.Recipe, error) {
	recipe := models.Recipe{
		Title:              req.Title,
		Description:        req.Description,
		Ingredients:        models.IngredientList(req.Ingredients),
		Steps:              models.JSONBStringArray(req.Steps),
		Cuisine:            req.Cuisine,
		Difficulty:         req.Difficulty,
		CookingTimeMinutes: req.CookingTimeMinutes,
		Servings:           req.Servings,
		DietaryTags:        models.JSONBStringArray(req.DietaryTags),
		ImageURL:           req.ImageURL,
		CreatedBy:          userID,
	}

	names := ingredient.Normalize(recipe.Ingredients.Names())

	if req.Nutrition != nil {
		recipe.Nutrition = *req.Nutrition
	} else if s.ai != nil {
		nutrition, err := s.ai.EstimateNutrition(ctx, recipe.Ingredients.Names(), recipe.Servings)
		if err != nil {
			// An estimate is a nice-to-have; the recipe is still valid without it.
			log.Printf("Failed to estimate nutrition for %q: %v", recipe.Title, err)
		} else {
			recipe.Nutrition = *nutrition
		}
	}

	if s.ai != nil && len(names) > 0 {
		embedding, err := s.ai.Embed(ctx, strings.Join(names, ", "))
		if err != nil {
			return nil, fmt.Errorf("failed to embed recipe ingredients: %w", err)
		}
		vec := pgvector.NewVector(embedding)
		recipe.Embedding = &vec
	}

	if err := s.db.WithContext(ctx).Create(&recipe).Error; err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	return &recipe, nil
}

// GetRecipe returns the recipe with the given ID.
func (s *RecipeService) GetRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return &recipe, nil
}

// ListRecipes returns a paginated recipe listing with optional filters.
func (s *RecipeService) ListRecipes(ctx context.Context, q types.ListRecipesQuery) (*types.ListRecipesResponse, error) {
	query := s.db.WithContext(ctx).Model(&models.Recipe{})

	if q.Difficulty != "" {
		query = query.Where("difficulty = ?", q.Difficulty)
	}
	if q.MaxTime > 0 {
		query = query.Where("cooking_time_minutes <= ?", q.MaxTime)
	}
	if q.Cuisine != "" {
		query = query.Where("LOWER(cuisine) = LOWER(?)", q.Cuisine)
	}
	if q.Diet != "" {
		query = s.whereHasTag(query, q.Diet)
	}
	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}

	var recipes []models.Recipe
	if err := query.
		Order("created_at DESC").
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	totalPages := (total + int64(q.Limit) - 1) / int64(q.Limit)

	return &types.ListRecipesResponse{
		Items:      recipes,
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// FindCandidates retrieves recipes matching the engine's hard filter.
// Dietary tags use AND semantics: every requested tag must be present.
func (s *RecipeService) FindCandidates(ctx context.Context, filter recommend.CandidateFilter, limit int) ([]models.Recipe, error) {
	query := s.db.WithContext(ctx).Model(&models.Recipe{})

	for _, tag := range filter.DietaryTagsAll {
		query = s.whereHasTag(query, tag)
	}
	if filter.MaxCookingTimeMinutes > 0 {
		query = query.Where("cooking_time_minutes <= ?", filter.MaxCookingTimeMinutes)
	}
	if filter.Difficulty != "" {
		query = query.Where("difficulty = ?", filter.Difficulty)
	}

	var recipes []models.Recipe
	if err := query.Limit(limit).Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to find candidate recipes: %w", err)
	}

	return recipes, nil
}

// whereHasTag restricts the query to recipes carrying the given dietary tag.
// Postgres gets JSONB containment; other dialects (sqlite in tests) fall back
// to a substring match on the serialized array.
func (s *RecipeService) whereHasTag(query *gorm.DB, tag string) *gorm.DB {
	if s.db.Dialector.Name() == "postgres" {
		return query.Where("dietary_tags @> ?", fmt.Sprintf(`["%s"]`, tag))
	}
	return query.Where("dietary_tags LIKE ?", fmt.Sprintf(`%%"%s"%%`, tag))
}

// SetImageURL updates the recipe's image URL. Only the creator may do so.
func (s *RecipeService) SetImageURL(ctx context.Context, userID, recipeID uuid.UUID, imageURL string) (*models.Recipe, error) {
	recipe, err := s.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.CreatedBy != userID {
		return nil, ErrNotRecipeOwner
	}

	if err := s.db.WithContext(ctx).Model(recipe).Update("image_url", imageURL).Error; err != nil {
		return nil, fmt.Errorf("failed to update image URL: %w", err)
	}
	recipe.ImageURL = imageURL

	return recipe, nil
}

// RateRecipe records or updates the user's rating and recomputes the recipe's
// aggregates from the ratings table.
func (s *RecipeService) RateRecipe(ctx context.Context, userID, recipeID uuid.UUID, rating int, comment string) (*types.RateRecipeResponse, error) {
	if _, err := s.GetRecipe(ctx, recipeID); err != nil {
		return nil, err
	}

	var resp types.RateRecipeResponse

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := models.Rating{
			UserID:   userID,
			RecipeID: recipeID,
			Rating:   rating,
			Comment:  comment,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "recipe_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "updated_at"}),
		}).Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to save rating: %w", err)
		}

		var agg struct {
			Avg   float64
			Count int64
		}
		if err := tx.Model(&models.Rating{}).
			Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
			Where("recipe_id = ?", recipeID).
			Scan(&agg).Error; err != nil {
			return fmt.Errorf("failed to aggregate ratings: %w", err)
		}

		if err := tx.Model(&models.Recipe{}).
			Where("id = ?", recipeID).
			Updates(map[string]interface{}{
				"average_rating": agg.Avg,
				"rating_count":   agg.Count,
			}).Error; err != nil {
			return fmt.Errorf("failed to update rating aggregates: %w", err)
		}

		resp = types.RateRecipeResponse{
			RecipeID:      recipeID.String(),
			AverageRating: agg.Avg,
			RatingCount:   int(agg.Count),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// ToggleFavorite flips the favorite state for the user and recipe.
// Returns true when the recipe ends up favorited.
func (s *RecipeService) ToggleFavorite(ctx context.Context, userID, recipeID uuid.UUID) (bool, error) {
	if _, err := s.GetRecipe(ctx, recipeID); err != nil {
		return false, err
	}

	var existing models.RecipeFavorite
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		First(&existing).Error
	if err == nil {
		if err := s.db.WithContext(ctx).Delete(&existing).Error; err != nil {
			return false, fmt.Errorf("failed to remove favorite: %w", err)
		}
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}

	favorite := models.RecipeFavorite{UserID: userID, RecipeID: recipeID}
	if err := s.db.WithContext(ctx).Create(&favorite).Error; err != nil {
		return false, fmt.Errorf("failed to add favorite: %w", err)
	}
	return true, nil
}
