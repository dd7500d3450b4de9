package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/forkcast/backend/internal/models"
	"github.com/forkcast/backend/internal/recommend"
	"github.com/forkcast/backend/internal/types"
)

// ProfileService manages user profiles and their stored preference lists.
type ProfileService struct {
	db *gorm.DB
}

// NewProfileService creates a new ProfileService instance
func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// GetUser returns the user with the given ID.
func (s *ProfileService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, recommend.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserConstraints loads the stored dietary preferences, allergies and
// disliked ingredients consulted by the recommendation engine.
func (s *ProfileService) GetUserConstraints(ctx context.Context, userID uuid.UUID) (*recommend.UserConstraints, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	var prefs []models.DietaryPreference
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&prefs).Error; err != nil {
		return nil, fmt.Errorf("failed to get dietary preferences: %w", err)
	}

	var allergens []models.Allergen
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&allergens).Error; err != nil {
		return nil, fmt.Errorf("failed to get allergens: %w", err)
	}

	var disliked []models.DislikedIngredient
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&disliked).Error; err != nil {
		return nil, fmt.Errorf("failed to get disliked ingredients: %w", err)
	}

	constraints := &recommend.UserConstraints{}
	for _, p := range prefs {
		constraints.DietaryPreferences = append(constraints.DietaryPreferences, p.PreferenceType)
	}
	for _, a := range allergens {
		constraints.Allergies = append(constraints.Allergies, a.AllergenName)
	}
	for _, d := range disliked {
		constraints.DislikedIngredients = append(constraints.DislikedIngredients, d.IngredientName)
	}

	return constraints, nil
}

// UpdatePreferences replaces the user's preference lists wholesale.
func (s *ProfileService) UpdatePreferences(ctx context.Context, userID uuid.UUID, req types.UpdatePreferencesRequest) error {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.DietaryPreference{}).Error; err != nil {
			return fmt.Errorf("failed to clear dietary preferences: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Allergen{}).Error; err != nil {
			return fmt.Errorf("failed to clear allergens: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.DislikedIngredient{}).Error; err != nil {
			return fmt.Errorf("failed to clear disliked ingredients: %w", err)
		}

		for _, pref := range req.DietaryPreferences {
			if err := tx.Create(&models.DietaryPreference{UserID: userID, PreferenceType: pref}).Error; err != nil {
				return fmt.Errorf("failed to save dietary preference: %w", err)
			}
		}
		for _, allergen := range req.Allergies {
			if err := tx.Create(&models.Allergen{UserID: userID, AllergenName: allergen}).Error; err != nil {
				return fmt.Errorf("failed to save allergen: %w", err)
			}
		}
		for _, ingredient := range req.DislikedIngredients {
			if err := tx.Create(&models.DislikedIngredient{UserID: userID, IngredientName: ingredient}).Error; err != nil {
				return fmt.Errorf("failed to save disliked ingredient: %w", err)
			}
		}

		return nil
	})
}

// GetPreferences returns the user's preference lists.
func (s *ProfileService) GetPreferences(ctx context.Context, userID uuid.UUID) (*types.PreferencesResponse, error) {
	constraints, err := s.GetUserConstraints(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &types.PreferencesResponse{
		DietaryPreferences:  constraints.DietaryPreferences,
		Allergies:           constraints.Allergies,
		DislikedIngredients: constraints.DislikedIngredients,
	}
	if resp.DietaryPreferences == nil {
		resp.DietaryPreferences = []string{}
	}
	if resp.Allergies == nil {
		resp.Allergies = []string{}
	}
	if resp.DislikedIngredients == nil {
		resp.DislikedIngredients = []string{}
	}
	return resp, nil
}

// ListFavorites returns the recipes the user has favorited, newest first.
func (s *ProfileService) ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Recipe, error) {
	var favorites []models.RecipeFavorite
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&favorites).Error; err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}

	if len(favorites) == 0 {
		return []models.Recipe{}, nil
	}

	ids := make([]uuid.UUID, len(favorites))
	for i, f := range favorites {
		ids[i] = f.RecipeID
	}

	var recipes []models.Recipe
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to load favorite recipes: %w", err)
	}

	// Preserve favorite order
	byID := make(map[uuid.UUID]models.Recipe, len(recipes))
	for _, r := range recipes {
		byID[r.ID] = r
	}
	ordered := make([]models.Recipe, 0, len(recipes))
	for _, f := range favorites {
		if r, ok := byID[f.RecipeID]; ok {
			ordered = append(ordered, r)
		}
	}

	return ordered, nil
}
