package advisor

import (
	"context"
	"fmt"
	"time"

	"CryptoGraph/internal/model"
	"CryptoGraph/internal/restclient"
)

const (
	DefaultOpenAIURL   = "https://api.openai.com/v1"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// OpenAIAdvisor calls the chat completions endpoint.
type OpenAIAdvisor struct {
	client *restclient.Client
	apiKey string
	model  string
}

func NewOpenAIAdvisor(cfg Config, proxyURL string) *OpenAIAdvisor {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenAIURL
	}
	m := cfg.Model
	if m == "" {
		m = DefaultOpenAIModel
	}
	return &OpenAIAdvisor{
		client: restclient.New(baseURL, restclient.Options{
			Timeout:    60 * time.Second,
			RetryCount: 2,
			Proxy:      proxyURL,
		}),
		apiKey: cfg.APIKey,
		model:  m,
	}
}

func (a *OpenAIAdvisor) Name() string     { return ProviderOpenAI }
func (a *OpenAIAdvisor) Configured() bool { return a.apiKey != "" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (a *OpenAIAdvisor) Recommend(ctx context.Context, data model.RecommendationData) (*model.Recommendation, error) {
	if !a.Configured() {
		return nil, ErrNotConfigured
	}
	user, err := UserPrompt(data)
	if err != nil {
		return nil, err
	}

	req := chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: user},
		},
	}
	var resp chatResponse
	headers := map[string]string{"Authorization": "Bearer " + a.apiKey}
	if err := a.client.PostJSON(ctx, "/chat/completions", headers, req, &resp); err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrInvalidResponse)
	}

	rec, err := ParseRecommendation(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	return finish(rec, data.CoinID, a.Name()), nil
}
