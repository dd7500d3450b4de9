package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkcast/backend/config"
	"github.com/forkcast/backend/internal/service"
)

func newAIService(t *testing.T, baseURL string) *service.AIService {
	t.Helper()
	svc, err := service.NewAIService(&config.Config{
		AIAPIKey:         "test-key",
		AIBaseURL:        baseURL,
		AIEmbeddingModel: "test-embedding",
		AIVisionModel:    "test-vision",
		AIChatModel:      "test-chat",
	}, nil)
	require.NoError(t, err)
	return svc
}

func TestNewAIServiceRequiresKey(t *testing.T) {
	_, err := service.NewAIService(&config.Config{}, nil)
	assert.Error(t, err)
}

func TestEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model string `json:"model"`
			Input string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-embedding", req.Model)
		assert.Equal(t, "tomato, onion", req.Input)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": []float32{0.1, 0.2, 0.3}},
			},
		})
	}))
	defer server.Close()

	svc := newAIService(t, server.URL)
	vec, err := svc.Embed(context.Background(), "tomato, onion")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestEmbedUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc := newAIService(t, server.URL)
	_, err := svc.Embed(context.Background(), "tomato")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API request failed")
}

func TestEmbedEmptyData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}})
	}))
	defer server.Close()

	svc := newAIService(t, server.URL)
	_, err := svc.Embed(context.Background(), "tomato")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no embedding returned")
}

func TestDetectIngredients(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		body, err := json.Marshal(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": `{"ingredients":["tomato","basil"]}`}},
			},
		})
		require.NoError(t, err)
		_, _ = w.Write(body)
	}))
	defer server.Close()

	svc := newAIService(t, server.URL)
	labels, err := svc.DetectIngredients(context.Background(), []byte("image"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, []string{"tomato", "basil"}, labels)
}

func TestDetectIngredientsMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "not json at all"}},
			},
		})
	}))
	defer server.Close()

	svc := newAIService(t, server.URL)
	_, err := svc.DetectIngredients(context.Background(), []byte("image"), "image/jpeg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse detected ingredients")
}

func TestEstimateNutrition(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": `{"calories":420,"protein":18,"carbs":55,"fat":12}`}},
			},
		})
	}))
	defer server.Close()

	svc := newAIService(t, server.URL)
	nutrition, err := svc.EstimateNutrition(context.Background(), []string{"lentils", "rice"}, 4)
	require.NoError(t, err)
	assert.Equal(t, 420.0, nutrition.Calories)
	assert.Equal(t, 18.0, nutrition.Protein)
	assert.True(t, nutrition.PerServing)
}
