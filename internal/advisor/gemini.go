package advisor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"google.golang.org/genai"

	"CryptoGraph/internal/model"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiAdvisor generates recommendations through the Gemini API.
type GeminiAdvisor struct {
	client *genai.Client
	model  string
}

func NewGeminiAdvisor(ctx context.Context, cfg Config, proxyURL string) (*GeminiAdvisor, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	m := cfg.Model
	if m == "" {
		m = DefaultGeminiModel
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		cc.HTTPClient = &http.Client{Transport: &http.Transport{Proxy: http.ProxyURL(u)}}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiAdvisor{client: client, model: m}, nil
}

func (a *GeminiAdvisor) Name() string     { return ProviderGemini }
func (a *GeminiAdvisor) Configured() bool { return a.client != nil }

func (a *GeminiAdvisor) Recommend(ctx context.Context, data model.RecommendationData) (*model.Recommendation, error) {
	user, err := UserPrompt(data)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{genai.NewContentFromText(user, genai.RoleUser)}
	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	rec, err := ParseRecommendation(resp.Text())
	if err != nil {
		return nil, err
	}
	return finish(rec, data.CoinID, a.Name()), nil
}
