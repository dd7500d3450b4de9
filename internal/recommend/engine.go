// Package recommend implements the recipe recommendation engine: candidate
// filtering, multi-signal scoring and ranking, and serving-size adjustment.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/forkcast/backend/internal/ingredient"
	"github.com/forkcast/backend/internal/models"
)

var (
	// ErrNoIngredients is returned when a recommendation is requested
	// without any input ingredients.
	ErrNoIngredients = errors.New("at least one ingredient is required")
	// ErrUserNotFound is returned when the requesting user has no profile.
	ErrUserNotFound = errors.New("user not found")
)

const (
	// candidateLimit bounds per-request scoring cost. A performance
	// safeguard, not a correctness requirement.
	candidateLimit = 200
	// maxResults is the size of the ranked result list.
	maxResults = 10
)

// UserConstraints are the stored preference lists consulted during a
// recommendation. Built per request and discarded with the response.
type UserConstraints struct {
	DietaryPreferences  []string
	Allergies           []string
	DislikedIngredients []string
}

// CandidateFilter describes the hard filter applied at candidate retrieval.
// DietaryTagsAll uses AND semantics: a candidate must carry every tag.
type CandidateFilter struct {
	DietaryTagsAll        []string
	MaxCookingTimeMinutes int    // 0 means no limit
	Difficulty            string // empty means any
}

// UserSource resolves a user's stored constraints.
type UserSource interface {
	GetUserConstraints(ctx context.Context, userID uuid.UUID) (*UserConstraints, error)
}

// CandidateSource retrieves recipes matching a hard filter.
type CandidateSource interface {
	FindCandidates(ctx context.Context, filter CandidateFilter, limit int) ([]models.Recipe, error)
}

// Embedder turns text into an embedding vector. Failures propagate to the
// caller of Recommend; there is no degraded overlap-only scoring mode.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Request carries the caller-supplied recommendation parameters.
type Request struct {
	Ingredients           []string `json:"ingredients"`
	DietaryPreferences    []string `json:"dietary_preferences,omitempty"`
	MaxCookingTimeMinutes int      `json:"max_cooking_time_minutes,omitempty"`
	Difficulty            string   `json:"difficulty,omitempty"`
	Servings              int      `json:"servings,omitempty"`
}

// ScoredRecipe is one ranked result: a request-scoped copy of the recipe
// (possibly serving-adjusted), its score breakdown and an explanation.
type ScoredRecipe struct {
	Recipe      models.Recipe  `json:"recipe"`
	Scores      ScoreBreakdown `json:"scores"`
	Explanation string         `json:"explanation"`
}

// Result is the ranked recommendation list plus a summary explanation.
type Result struct {
	Items       []ScoredRecipe `json:"items"`
	Explanation string         `json:"explanation"`
}

// Engine orchestrates candidate retrieval, exclusion, scoring and ranking.
// It holds no mutable state; concurrent Recommend calls are independent.
type Engine struct {
	users      UserSource
	candidates CandidateSource
	embedder   Embedder
}

// NewEngine creates a new Engine instance.
func NewEngine(users UserSource, candidates CandidateSource, embedder Embedder) *Engine {
	return &Engine{
		users:      users,
		candidates: candidates,
		embedder:   embedder,
	}
}

// Recommend produces the ranked recipe recommendations for a user.
func (e *Engine) Recommend(ctx context.Context, userID uuid.UUID, req Request) (*Result, error) {
	if len(req.Ingredients) == 0 {
		return nil, ErrNoIngredients
	}

	constraints, err := e.users.GetUserConstraints(ctx, userID)
	if err != nil {
		return nil, err
	}

	inputTokens := ingredient.Normalize(req.Ingredients)
	inputSet := toSet(inputTokens)

	dietPrefs := mergePreferences(req.DietaryPreferences, constraints.DietaryPreferences)

	// Allergy and dislike entries go through the same normalization as
	// ingredient labels so stored spellings match candidate tokens.
	allergySet := ingredient.NormalizeSet(constraints.Allergies)
	dislikedSet := ingredient.NormalizeSet(constraints.DislikedIngredients)

	filter := CandidateFilter{
		DietaryTagsAll:        dietPrefs,
		MaxCookingTimeMinutes: req.MaxCookingTimeMinutes,
		Difficulty:            req.Difficulty,
	}

	candidates, err := e.candidates.FindCandidates(ctx, filter, candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve candidate recipes: %w", err)
	}

	if len(candidates) == 0 {
		return &Result{Items: []ScoredRecipe{}, Explanation: "No recipes matched the filters."}, nil
	}

	inputEmbedding, err := e.embedder.Embed(ctx, strings.Join(inputTokens, ", "))
	if err != nil {
		return nil, fmt.Errorf("failed to embed input ingredients: %w", err)
	}

	scored := make([]ScoredRecipe, 0, len(candidates))
	for _, candidate := range candidates {
		candidateSet := ingredient.NormalizeSet(candidate.Ingredients.Names())

		if intersects(candidateSet, allergySet) || intersects(candidateSet, dislikedSet) {
			continue
		}

		overlap := jaccard(inputSet, candidateSet)

		// Candidates without a stored embedding score 0 on the semantic
		// signal rather than failing.
		var semantic float64
		if candidate.Embedding != nil {
			semantic = CosineSimilarity(inputEmbedding, candidate.Embedding.Slice())
		}

		var popularity float64
		if candidate.RatingCount > 0 {
			popularity = candidate.AverageRating / 5
		}

		scored = append(scored, ScoredRecipe{
			Recipe: candidate,
			Scores: ScoreBreakdown{
				Overlap:    overlap,
				Semantic:   semantic,
				Popularity: popularity,
				Combined:   CombineScores(overlap, semantic, popularity),
			},
			Explanation: explainMatch(overlap, dietPrefs, req.MaxCookingTimeMinutes),
		})
	}

	if len(scored) == 0 {
		return &Result{
			Items:       []ScoredRecipe{},
			Explanation: "Recipes exist, but all were filtered out due to allergies/disliked ingredients.",
		}, nil
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Scores.Combined > scored[j].Scores.Combined
	})
	if len(scored) > maxResults {
		scored = scored[:maxResults]
	}

	for i := range scored {
		scored[i].Recipe = scaleForServings(scored[i].Recipe, req.Servings)
	}

	return &Result{
		Items:       scored,
		Explanation: fmt.Sprintf("Found %d recommended recipes.", len(scored)),
	}, nil
}

// mergePreferences unions request and profile dietary preferences, request
// values first, duplicates dropped.
func mergePreferences(requested, stored []string) []string {
	seen := make(map[string]struct{}, len(requested)+len(stored))
	merged := make([]string, 0, len(requested)+len(stored))
	for _, pref := range append(append([]string{}, requested...), stored...) {
		if pref == "" {
			continue
		}
		if _, ok := seen[pref]; ok {
			continue
		}
		seen[pref] = struct{}{}
		merged = append(merged, pref)
	}
	return merged
}

// jaccard computes |a ∩ b| / |a ∪ b|, 0 when the union is empty.
func jaccard(a, b map[string]struct{}) float64 {
	intersection := 0
	for token := range a {
		if _, ok := b[token]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func intersects(a, b map[string]struct{}) bool {
	for token := range a {
		if _, ok := b[token]; ok {
			return true
		}
	}
	return false
}

func explainMatch(overlap float64, dietPrefs []string, maxCookingTime int) string {
	explanation := fmt.Sprintf("This recipe matches about %d%% of your ingredients.", int(math.Round(overlap*100)))
	if len(dietPrefs) > 0 {
		explanation += fmt.Sprintf(" Fits dietary preferences: %s.", strings.Join(dietPrefs, ", "))
	}
	if maxCookingTime > 0 {
		explanation += fmt.Sprintf(" Within %d min.", maxCookingTime)
	}
	return explanation
}

// scaleForServings returns a request-scoped copy of the recipe with numeric
// ingredient quantities and nutrition scaled to the requested serving count.
// Quantities without a numeric value ("to taste") are left alone. The stored
// recipe is never mutated; the copy is transient response data.
func scaleForServings(recipe models.Recipe, servings int) models.Recipe {
	if servings <= 0 || recipe.Servings <= 0 || servings == recipe.Servings {
		return recipe
	}

	factor := float64(servings) / float64(recipe.Servings)

	scaled := make(models.IngredientList, len(recipe.Ingredients))
	for i, ing := range recipe.Ingredients {
		scaled[i] = ing
		if ing.Quantity != nil {
			quantity := *ing.Quantity * factor
			scaled[i].Quantity = &quantity
		}
	}
	recipe.Ingredients = scaled

	recipe.Nutrition.Calories *= factor
	recipe.Nutrition.Protein *= factor
	recipe.Nutrition.Carbs *= factor
	recipe.Nutrition.Fat *= factor
	recipe.Servings = servings

	return recipe
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}
