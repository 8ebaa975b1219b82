package advisor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CryptoGraph/internal/model"
)

var btc = model.RecommendationData{
	CoinID:                "bitcoin",
	Name:                  "Bitcoin",
	CurrentPriceUSD:       50000,
	MarketCapUSD:          1e12,
	Volume24hUSD:          3e10,
	PriceChangePercent30d: 4.5,
}

func TestParseRecommendation(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    model.Decision
		wantErr bool
	}{
		{"plain", `{"recommendation":"buy","reason":"up"}`, model.DecisionBuy, false},
		{"json fence", "```json\n{\"recommendation\":\"do not buy\",\"reason\":\"down\"}\n```", model.DecisionDoNotBuy, false},
		{"bare fence", "```\n{\"recommendation\":\"BUY\",\"reason\":\"x\"}\n```", model.DecisionBuy, false},
		{"padded", "  \n{\"recommendation\":\" buy \",\"reason\":\" x \"}\n", model.DecisionBuy, false},
		{"bad verdict", `{"recommendation":"sell","reason":"x"}`, "", true},
		{"not json", `I think you should buy`, "", true},
		{"empty", "   ", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseRecommendation(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Decision)
		})
	}
}

func TestUserPrompt(t *testing.T) {
	p, err := UserPrompt(btc)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, "Coin data:\n{"))
	assert.Contains(t, p, `"name": "Bitcoin"`)
	assert.Contains(t, p, `"price_change_percentage_30d_in_currency": 4.5`)
	assert.NotContains(t, p, "bitcoin")
}

func TestNew_WithoutKeyIsDisabled(t *testing.T) {
	a, err := New(context.Background(), Config{Provider: ProviderOpenAI}, "")
	require.NoError(t, err)
	assert.False(t, a.Configured())
	_, err = a.Recommend(context.Background(), btc)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(context.Background(), Config{Provider: "claude", APIKey: "k"}, "")
	assert.Error(t, err)
}

func TestOpenAIAdvisor_Recommend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultOpenAIModel, req.Model)
		if !assert.Len(t, req.Messages, 2) {
			return
		}
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, SystemPrompt, req.Messages[0].Content)
		assert.Contains(t, req.Messages[1].Content, "Bitcoin")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"` +
			"```json\\n{\\\"recommendation\\\":\\\"buy\\\",\\\"reason\\\":\\\"momentum\\\"}\\n```" + `"}}]}`))
	}))
	defer srv.Close()

	a, err := New(context.Background(), Config{APIKey: "sk-test", BaseURL: srv.URL}, "")
	require.NoError(t, err)
	rec, err := a.Recommend(context.Background(), btc)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionBuy, rec.Decision)
	assert.Equal(t, "momentum", rec.Reason)
	assert.Equal(t, "bitcoin", rec.CoinID)
	assert.Equal(t, ProviderOpenAI, rec.Provider)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestOpenAIAdvisor_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	a := NewOpenAIAdvisor(Config{APIKey: "k", BaseURL: srv.URL}, "")
	_, err := a.Recommend(context.Background(), btc)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestGeminiAdvisor_Recommend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-test:generateContent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"recommendation\":\"do not buy\",\"reason\":\"weak volume\"}"}]}}]}`))
	}))
	defer srv.Close()

	a, err := New(context.Background(), Config{Provider: ProviderGemini, APIKey: "g", Model: "gemini-test", BaseURL: srv.URL}, "")
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, a.Name())

	rec, err := a.Recommend(context.Background(), btc)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionDoNotBuy, rec.Decision)
	assert.Equal(t, "weak volume", rec.Reason)
}
