package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkcast/backend/internal/models"
)

type fakeUsers struct {
	constraints *UserConstraints
}

func (f *fakeUsers) GetUserConstraints(ctx context.Context, userID uuid.UUID) (*UserConstraints, error) {
	if f.constraints == nil {
		return nil, ErrUserNotFound
	}
	return f.constraints, nil
}

type fakeCandidates struct {
	recipes   []models.Recipe
	gotFilter CandidateFilter
	gotLimit  int
}

func (f *fakeCandidates) FindCandidates(ctx context.Context, filter CandidateFilter, limit int) ([]models.Recipe, error) {
	f.gotFilter = filter
	f.gotLimit = limit
	return f.recipes, nil
}

type fakeEmbedder struct {
	vec    []float32
	err    error
	called bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.called = true
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func quantity(v float64) *float64 {
	return &v
}

func testRecipe(title string, ingredients ...string) models.Recipe {
	list := make(models.IngredientList, len(ingredients))
	for i, name := range ingredients {
		list[i] = models.Ingredient{Name: name, Quantity: quantity(1), Unit: "cup"}
	}
	return models.Recipe{
		ID:          uuid.New(),
		Title:       title,
		Ingredients: list,
		Servings:    4,
		Nutrition:   models.Nutrition{Calories: 400, Protein: 20, Carbs: 50, Fat: 10, PerServing: true},
	}
}

func newTestEngine(users *fakeUsers, candidates *fakeCandidates, embedder *fakeEmbedder) *Engine {
	return NewEngine(users, candidates, embedder)
}

func TestRecommendRequiresIngredients(t *testing.T) {
	engine := newTestEngine(&fakeUsers{constraints: &UserConstraints{}}, &fakeCandidates{}, &fakeEmbedder{})

	_, err := engine.Recommend(context.Background(), uuid.New(), Request{})
	assert.ErrorIs(t, err, ErrNoIngredients)
}

func TestRecommendUnknownUser(t *testing.T) {
	engine := newTestEngine(&fakeUsers{}, &fakeCandidates{}, &fakeEmbedder{})

	_, err := engine.Recommend(context.Background(), uuid.New(), Request{Ingredients: []string{"tomato"}})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRecommendOverlapScore(t *testing.T) {
	candidates := &fakeCandidates{recipes: []models.Recipe{
		testRecipe("Tomato Garlic Pasta", "tomato", "onion", "garlic"),
	}}
	engine := newTestEngine(&fakeUsers{constraints: &UserConstraints{}}, candidates, &fakeEmbedder{})

	result, err := engine.Recommend(context.Background(), uuid.New(), Request{
		Ingredients: []string{"tomato", "onion"},
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)

	item := result.Items[0]
	assert.InDelta(t, 2.0/3.0, item.Scores.Overlap, 1e-9)
	assert.Contains(t, item.Explanation, "matches about 67% of your ingredients")
	assert.Equal(t, "Found 1 recommended recipes.", result.Explanation)
}

func TestRecommendNoCandidatesSkipsEmbedding(t *testing.T) {
	embedder := &fakeEmbedder{}
	engine := newTestEngine(&fakeUsers{constraints: &UserConstraints{}}, &fakeCandidates{}, embedder)

	result, err := engine.Recommend(context.Background(), uuid.New(), Request{
		Ingredients: []string{"tomato"},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, "No recipes matched the filters.", result.Explanation)
	assert.False(t, embedder.called)
}

func TestRecommendEmbeddingFailurePropagates(t *testing.T) {
	candidates := &fakeCandidates{recipes: []models.Recipe{testRecipe("Soup", "tomato")}}
	embedder := &fakeEmbedder{err: errors.New("provider unavailable")}
	engine := newTestEngine(&fakeUsers{constraints: &UserConstraints{}}, candidates, embedder)

	_, err := engine.Recommend(context.Background(), uuid.New(), Request{
		Ingredients: []string{"tomato"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to embed input ingredients")
}

func TestRecommendExcludesAllergies(t *testing.T) {
	good := testRecipe("Tomato Soup", "tomato", "onion")
	bad := testRecipe("Peanut Stir Fry", "tomato", "peanuts")
	// A perfect rating must not rescue an excluded candidate.
	bad.AverageRating = 5
	bad.RatingCount = 100

	candidates := &fakeCandidates{recipes: []models.Recipe{bad, good}}
	engine := newTestEngine(&fakeUsers{constraints: &UserConstraints{
		Allergies: []string{"Peanut"},
	}}, candidates, &fakeEmbedder{})

	result, err := engine.Recommend(context.Background(), uuid.New(), Request{
		Ingredients: []string{"tomato"},
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "Tomato Soup", result.Items[0].Recipe.Title)
}

func TestRecommendExcludesDislikedIngredients(t *testing.T) {
	candidates := &fakeCandidates{recipes: []models.Recipe{
		testRecipe("Liver and Onions", "liver", "onion"),
	}}
	engine := newTestEngine(&fakeUsers{constraints: &UserConstraints{
		DislikedIngredients: []string{"liver"},
	}}, candidates, &fakeEmbedder{})

	result, err := engine.Recommend(context.Background(), uuid.New(), Request{
		Ingredients: []string{"onion"},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, "Recipes exist, but all were filtered out due to allergies/disliked ingredients.", result.Explanation)
}

func TestRecommendRanksByCombinedScore(t *testing.T) {
	strong := testRecipe("Tomato Onion Salad", "tomato", "onion")
	weak := testRecipe("Garlic Bread", "garlic", "bread", "butter")

	candidates := &fakeCandidates{recipes: []models.Recipe{weak, strong}}
	engine := newTestEngine(&fakeUsers{constraints: &UserConstraints{}}, candidates, &fakeEmbedder{})

	result, err := engine.Recommend(context.Background(), uuid.New(), Request{
		Ingredients: []string{"tomato", "onion"},
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "Tomato Onion Salad", result.Items[0].Recipe.Title)
	assert.Greater(t, result.Items[0].Scores.Combined, result.Items[1].Scores.Combined)
}

func TestRecommendPopularityRequiresRatings(t *testing.T) {
	unrated := testRecipe("Unrated Dish", "tomato")
	rated := testRecipe("Rated Dish", "tomato")
	rated.AverageRating = 4
	rated.RatingCount = 12

	candidates := &fakeCandidates{recipes: []models.Recipe{unrated, rated}}
	engine := newTestEngine(&fakeUsers{constraints: &UserConstraints{}}, candidates, &fakeEmbedder{})

	result, err := engine.Recommend(context.Background(), uuid.New(), Request{
		Ingredients: []string{"tomato"},
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "Rated Dish", result.Items[0].Recipe.Title)
	assert.InDelta(t, 0.8, result.Items[0].Scores.Popularity, 1e-9)
	assert.Zero(t, result.Items[1].Scores.Popularity)
}

func TestRecommendSemanticScoreFromEmbeddings(t *testing.T) {
	aligned := testRecipe("Aligned", "cabbage")
	vec := pgvector.NewVector([]float32{1, 0, 0})
	aligned.Embedding = &vec
	missing := testRecipe("Missing Embedding", "cabbage")

	candidates := &fakeCandidates{recipes: []models.Recipe{missing, aligned}}
	embedder := &fakeEmbedder{vec: []float32{1, 0, 0}}
	engine := newTestEngine(&fakeUsers{constraints: &UserConstraints{}}, candidates, embedder)

	result, err := engine.Recommend(context.Background(), uuid.New(), Request{
		Ingredients: []string{"tomato"},
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "Aligned", result.Items[0].Recipe.Title)
	assert.InDelta(t, 1.0, result.Items[0].Scores.Semantic, 1e-9)
	assert.Zero(t, result.Items[1].Scores.Semantic)
}

func TestRecommendMergesDietaryPreferences(t *testing.T) {
	candidates := &fakeCandidates{recipes: []models.Recipe{testRecipe("Bowl", "rice")}}
	engine := newTestEngine(&fakeUsers{constraints: &UserConstraints{
		DietaryPreferences: []string{"vegan", "gluten-free"},
	}}, candidates, &fakeEmbedder{})

	result, err := engine.Recommend(context.Background(), uuid.New(), Request{
		Ingredients:           []string{"rice"},
		DietaryPreferences:    []string{"vegan"},
		MaxCookingTimeMinutes: 30,
		Difficulty:            "easy",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"vegan", "gluten-free"}, candidates.gotFilter.DietaryTagsAll)
	assert.Equal(t, 30, candidates.gotFilter.MaxCookingTimeMinutes)
	assert.Equal(t, "easy", candidates.gotFilter.Difficulty)
	assert.Equal(t, 200, candidates.gotLimit)

	require.Len(t, result.Items, 1)
	assert.Contains(t, result.Items[0].Explanation, "Fits dietary preferences: vegan, gluten-free.")
	assert.Contains(t, result.Items[0].Explanation, "Within 30 min.")
}

func TestRecommendScalesServings(t *testing.T) {
	recipe := testRecipe("Curry", "tomato", "onion")
	recipe.Ingredients = append(recipe.Ingredients, models.Ingredient{Name: "salt"}) // no quantity, "to taste"
	candidates := &fakeCandidates{recipes: []models.Recipe{recipe}}
	engine := newTestEngine(&fakeUsers{constraints: &UserConstraints{}}, candidates, &fakeEmbedder{})

	result, err := engine.Recommend(context.Background(), uuid.New(), Request{
		Ingredients: []string{"tomato"},
		Servings:    8,
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)

	scaled := result.Items[0].Recipe
	assert.Equal(t, 8, scaled.Servings)
	assert.InDelta(t, 2.0, *scaled.Ingredients[0].Quantity, 1e-9)
	assert.Nil(t, scaled.Ingredients[2].Quantity)
	assert.InDelta(t, 800, scaled.Nutrition.Calories, 1e-9)
	assert.InDelta(t, 40, scaled.Nutrition.Protein, 1e-9)
	assert.InDelta(t, 100, scaled.Nutrition.Carbs, 1e-9)
	assert.InDelta(t, 20, scaled.Nutrition.Fat, 1e-9)

	// The stored candidate must be untouched.
	assert.Equal(t, 4, candidates.recipes[0].Servings)
	assert.InDelta(t, 1.0, *candidates.recipes[0].Ingredients[0].Quantity, 1e-9)
	assert.InDelta(t, 400, candidates.recipes[0].Nutrition.Calories, 1e-9)
}

func TestRecommendTruncatesToTopTen(t *testing.T) {
	var recipes []models.Recipe
	for i := 0; i < 25; i++ {
		recipes = append(recipes, testRecipe("Dish", "tomato"))
	}
	candidates := &fakeCandidates{recipes: recipes}
	engine := newTestEngine(&fakeUsers{constraints: &UserConstraints{}}, candidates, &fakeEmbedder{})

	result, err := engine.Recommend(context.Background(), uuid.New(), Request{
		Ingredients: []string{"tomato"},
	})
	require.NoError(t, err)
	assert.Len(t, result.Items, 10)
}
