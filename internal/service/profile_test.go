package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/forkcast/backend/internal/models"
	"github.com/forkcast/backend/internal/recommend"
	"github.com/forkcast/backend/internal/service"
	"github.com/forkcast/backend/internal/testhelpers"
	"github.com/forkcast/backend/internal/types"
)

func createTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		Name:         "Test User",
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: "hash",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestGetUserConstraintsUnknownUser(t *testing.T) {
	db := testhelpers.SetupSQLiteDatabase(t)
	svc := service.NewProfileService(db)

	_, err := svc.GetUserConstraints(context.Background(), uuid.New())
	assert.ErrorIs(t, err, recommend.ErrUserNotFound)
}

func TestUpdateAndGetPreferences(t *testing.T) {
	db := testhelpers.SetupSQLiteDatabase(t)
	svc := service.NewProfileService(db)
	ctx := context.Background()
	user := createTestUser(t, db)

	err := svc.UpdatePreferences(ctx, user.ID, types.UpdatePreferencesRequest{
		DietaryPreferences:  []string{"vegan", "gluten-free"},
		Allergies:           []string{"peanuts"},
		DislikedIngredients: []string{"cilantro"},
	})
	require.NoError(t, err)

	prefs, err := svc.GetPreferences(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"vegan", "gluten-free"}, prefs.DietaryPreferences)
	assert.Equal(t, []string{"peanuts"}, prefs.Allergies)
	assert.Equal(t, []string{"cilantro"}, prefs.DislikedIngredients)

	// A second update replaces the lists wholesale
	err = svc.UpdatePreferences(ctx, user.ID, types.UpdatePreferencesRequest{
		DietaryPreferences: []string{"vegetarian"},
	})
	require.NoError(t, err)

	prefs, err = svc.GetPreferences(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"vegetarian"}, prefs.DietaryPreferences)
	assert.Empty(t, prefs.Allergies)
	assert.Empty(t, prefs.DislikedIngredients)
}

func TestGetPreferencesEmptyListsNotNull(t *testing.T) {
	db := testhelpers.SetupSQLiteDatabase(t)
	svc := service.NewProfileService(db)
	user := createTestUser(t, db)

	prefs, err := svc.GetPreferences(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotNil(t, prefs.DietaryPreferences)
	assert.NotNil(t, prefs.Allergies)
	assert.NotNil(t, prefs.DislikedIngredients)
}

func TestGetUserConstraints(t *testing.T) {
	db := testhelpers.SetupSQLiteDatabase(t)
	svc := service.NewProfileService(db)
	ctx := context.Background()
	user := createTestUser(t, db)

	require.NoError(t, svc.UpdatePreferences(ctx, user.ID, types.UpdatePreferencesRequest{
		DietaryPreferences:  []string{"vegan"},
		Allergies:           []string{"shellfish"},
		DislikedIngredients: []string{"olives"},
	}))

	constraints, err := svc.GetUserConstraints(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"vegan"}, constraints.DietaryPreferences)
	assert.Equal(t, []string{"shellfish"}, constraints.Allergies)
	assert.Equal(t, []string{"olives"}, constraints.DislikedIngredients)
}

func TestListFavoritesOrder(t *testing.T) {
	db := testhelpers.SetupSQLiteDatabase(t)
	profileSvc := service.NewProfileService(db)
	recipeSvc := service.NewRecipeService(db, nil)
	ctx := context.Background()
	user := createTestUser(t, db)

	first, err := recipeSvc.CreateRecipe(ctx, user.ID, types.CreateRecipeRequest{
		Title:              "First",
		Ingredients:        []models.Ingredient{{Name: "rice"}},
		Steps:              []string{"cook"},
		Difficulty:         "easy",
		CookingTimeMinutes: 10,
		Servings:           2,
	})
	require.NoError(t, err)
	second, err := recipeSvc.CreateRecipe(ctx, user.ID, types.CreateRecipeRequest{
		Title:              "Second",
		Ingredients:        []models.Ingredient{{Name: "beans"}},
		Steps:              []string{"cook"},
		Difficulty:         "easy",
		CookingTimeMinutes: 10,
		Servings:           2,
	})
	require.NoError(t, err)

	_, err = recipeSvc.ToggleFavorite(ctx, user.ID, first.ID)
	require.NoError(t, err)
	_, err = recipeSvc.ToggleFavorite(ctx, user.ID, second.ID)
	require.NoError(t, err)

	favorites, err := profileSvc.ListFavorites(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, favorites, 2)

	titles := []string{favorites[0].Title, favorites[1].Title}
	assert.ElementsMatch(t, []string{"First", "Second"}, titles)
}
