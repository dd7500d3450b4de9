package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/forkcast/backend/config"
	"github.com/forkcast/backend/internal/models"
)

const embeddingCacheTTL = 7 * 24 * time.Hour

// AIService handles interactions with an OpenAI-compatible API for
// embeddings, ingredient detection from photos and nutrition estimates.
type AIService struct {
	apiKey         string
	baseURL        string
	embeddingModel string
	visionModel    string
	chatModel      string
	httpClient     *http.Client
	redis          *redis.Client
}

// NewAIService creates a new AIService instance. The Redis client is optional:
// when nil, embedding results are not cached.
func NewAIService(cfg *config.Config, redisClient *redis.Client) (*AIService, error) {
	if cfg.AIAPIKey == "" {
		return nil, fmt.Errorf("AI_API_KEY must be set")
	}

	return &AIService{
		apiKey:         cfg.AIAPIKey,
		baseURL:        strings.TrimRight(cfg.AIBaseURL, "/"),
		embeddingModel: cfg.AIEmbeddingModel,
		visionModel:    cfg.AIVisionModel,
		chatModel:      cfg.AIChatModel,
		httpClient:     &http.Client{Timeout: 60 * time.Second},
		redis:          redisClient,
	}, nil
}

// ChatMessage represents a message in a chat completion request. Content is
// either a plain string or, for vision requests, a list of content parts.
type ChatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []ChatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
	Temperature    float64           `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for the given text. Results are cached
// in Redis keyed by a hash of the model and input.
func (s *AIService) Embed(ctx context.Context, text string) ([]float32, error) {
	cacheKey := fmt.Sprintf("embedding:%s:%x", s.embeddingModel, sha256.Sum256([]byte(text)))

	if s.redis != nil {
		if data, err := s.redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []float32
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	reqBody := embeddingRequest{
		Model: s.embeddingModel,
		Input: text,
	}

	body, err := s.post(ctx, "/embeddings", reqBody)
	if err != nil {
		return nil, err
	}

	var result embeddingResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned from API")
	}

	embedding := result.Data[0].Embedding

	if s.redis != nil {
		if data, err := json.Marshal(embedding); err == nil {
			if err := s.redis.Set(ctx, cacheKey, data, embeddingCacheTTL).Err(); err != nil {
				log.Printf("Failed to cache embedding: %v", err)
			}
		}
	}

	return embedding, nil
}

// DetectIngredients sends a photo to the vision model and returns the
// ingredient labels it recognizes.
func (s *AIService) DetectIngredients(ctx context.Context, imageData []byte, mimeType string) ([]string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageData))

	reqBody := chatRequest{
		Model: s.visionModel,
		Messages: []ChatMessage{
			{
				Role:    "system",
				Content: `You identify food ingredients in photos. Respond only with JSON like {"ingredients":["tomato","onion"]}. List each distinct ingredient once, in lowercase singular form. If no food is visible, return an empty list.`,
			},
			{
				Role: "user",
				Content: []map[string]interface{}{
					{"type": "text", "text": "What ingredients are in this photo?"},
					{"type": "image_url", "image_url": map[string]string{"url": dataURL}},
				},
			},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	content, err := s.chat(ctx, reqBody)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Ingredients []string `json:"ingredients"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse detected ingredients: %w", err)
	}

	return parsed.Ingredients, nil
}

// EstimateNutrition asks the chat model for an approximate per-serving
// macronutrient breakdown of the given ingredients.
func (s *AIService) EstimateNutrition(ctx context.Context, ingredients []string, servings int) (*models.Nutrition, error) {
	prompt := fmt.Sprintf(
		"Provide an approximate per-serving macronutrient breakdown as JSON with fields calories, protein, carbs and fat for a recipe serving %d made with:\n%s",
		servings, strings.Join(ingredients, "\n"),
	)

	reqBody := chatRequest{
		Model: s.chatModel,
		Messages: []ChatMessage{
			{
				Role:    "system",
				Content: `You are a nutrition expert. Respond only with JSON like {"calories":0,"protein":0,"carbs":0,"fat":0}`,
			},
			{
				Role:    "user",
				Content: prompt,
			},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	content, err := s.chat(ctx, reqBody)
	if err != nil {
		return nil, err
	}

	var nutrition models.Nutrition
	if err := json.Unmarshal([]byte(content), &nutrition); err != nil {
		return nil, fmt.Errorf("failed to parse nutrition estimate: %w", err)
	}
	nutrition.PerServing = true

	return &nutrition, nil
}

func (s *AIService) chat(ctx context.Context, reqBody chatRequest) (string, error) {
	body, err := s.post(ctx, "/chat/completions", reqBody)
	if err != nil {
		return "", err
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no response from API")
	}

	return result.Choices[0].Message.Content, nil
}

func (s *AIService) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("API request to %s failed with status %d: %s", path, resp.StatusCode, string(body))
		return nil, fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	return body, nil
}
