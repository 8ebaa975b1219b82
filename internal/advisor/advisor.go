package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"CryptoGraph/internal/model"
)

var (
	// ErrNotConfigured is returned when no API key is available for the provider.
	ErrNotConfigured = errors.New("advisor not configured")
	// ErrInvalidResponse is returned when the model answer is not a valid verdict.
	ErrInvalidResponse = errors.New("invalid advisor response")
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Advisor asks a language model for a buy / do not buy verdict on a coin.
type Advisor interface {
	Recommend(ctx context.Context, data model.RecommendationData) (*model.Recommendation, error)
	Configured() bool
	Name() string
}

// Config selects and configures the backend.
type Config struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
}

// New builds the advisor for cfg.Provider. A missing key yields an advisor
// whose Recommend returns ErrNotConfigured.
func New(ctx context.Context, cfg Config, proxyURL string) (Advisor, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Disabled{}, nil
	}
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		return NewOpenAIAdvisor(cfg, proxyURL), nil
	case ProviderGemini:
		return NewGeminiAdvisor(ctx, cfg, proxyURL)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// Disabled is the advisor used when no credentials are configured.
type Disabled struct{}

func (Disabled) Recommend(context.Context, model.RecommendationData) (*model.Recommendation, error) {
	return nil, ErrNotConfigured
}

func (Disabled) Configured() bool { return false }
func (Disabled) Name() string     { return "disabled" }

const SystemPrompt = `You are an AI assistant that analyzes cryptocurrency data and provides a clear, concise recommendation for the user.

Your task:
Given the following coin data, return:

1. "buy" or "do not buy"
2. A short explanation (2-4 sentences) based only on the data provided.

Do NOT add extra financial data, predictions, or external information.
Base your reasoning strictly on the numbers given.

Your response must be in the following JSON format:

{
  "recommendation": "buy" | "do not buy",
  "reason": "string"
}`

// UserPrompt renders the coin data block sent alongside SystemPrompt.
func UserPrompt(data model.RecommendationData) (string, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode coin data: %w", err)
	}
	return "Coin data:\n" + string(b), nil
}

// ParseRecommendation decodes a model answer, tolerating markdown code fences.
func ParseRecommendation(content string) (*model.Recommendation, error) {
	content = stripFences(strings.TrimSpace(content))
	if content == "" {
		return nil, fmt.Errorf("%w: empty content", ErrInvalidResponse)
	}

	var answer struct {
		Recommendation string `json:"recommendation"`
		Reason         string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(content), &answer); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	decision := model.Decision(strings.ToLower(strings.TrimSpace(answer.Recommendation)))
	if !decision.Valid() {
		return nil, fmt.Errorf("%w: unexpected recommendation %q", ErrInvalidResponse, answer.Recommendation)
	}
	return &model.Recommendation{Decision: decision, Reason: strings.TrimSpace(answer.Reason)}, nil
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// finish stamps the bookkeeping fields of a parsed recommendation.
func finish(rec *model.Recommendation, coinID, provider string) *model.Recommendation {
	rec.ID = uuid.NewString()
	rec.CoinID = coinID
	rec.Provider = provider
	rec.CreatedAt = time.Now().UTC()
	return rec
}
