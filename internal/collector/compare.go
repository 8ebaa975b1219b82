package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"CryptoGraph/internal/model"
	"CryptoGraph/internal/restclient"
)

const DefaultCompareURL = "https://min-api.cryptocompare.com"

// CompareFetcher implements PriceFetcher using the CryptoCompare pricemulti endpoint.
// Prices are requested by ticker symbol and mapped back to coin ids.
type CompareFetcher struct {
	client *restclient.Client
}

func NewCompareFetcher(baseURL, apiKey, proxyURL string) *CompareFetcher {
	if baseURL == "" {
		baseURL = DefaultCompareURL
	}
	headers := map[string]string{}
	if apiKey != "" {
		headers["Authorization"] = "Apikey " + apiKey
	}
	return &CompareFetcher{
		client: restclient.New(baseURL, restclient.Options{
			Timeout:    15 * time.Second,
			RetryCount: 2,
			Proxy:      proxyURL,
			Headers:    headers,
		}),
	}
}

func (f *CompareFetcher) Name() string { return "cryptocompare" }

func (f *CompareFetcher) FetchPrices(ctx context.Context, coins []model.CoinRef) (map[string]float64, error) {
	refs := cleanRefs(coins, true)
	out := make(map[string]float64, len(refs))
	if len(refs) == 0 {
		return out, nil
	}

	symbols := make([]string, 0, len(refs))
	seen := map[string]struct{}{}
	for _, r := range refs {
		sym := strings.ToUpper(r.Symbol)
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		symbols = append(symbols, sym)
	}

	var resp map[string]json.RawMessage
	params := map[string]string{"tsyms": "USD", "fsyms": strings.Join(symbols, ",")}
	if err := f.client.Get(ctx, "/data/pricemulti", params, &resp); err != nil {
		return nil, fmt.Errorf("cryptocompare pricemulti: %w", err)
	}

	if msg, failed := compareError(resp); failed {
		return nil, fmt.Errorf("cryptocompare pricemulti: %s", msg)
	}

	for _, r := range refs {
		raw, ok := resp[strings.ToUpper(r.Symbol)]
		if !ok {
			continue
		}
		var quote map[string]float64
		if err := json.Unmarshal(raw, &quote); err != nil {
			continue
		}
		if p, ok := quote["USD"]; ok {
			out[r.ID] = p
		}
	}
	return out, nil
}

// compareError detects the {"Response":"Error","Message":...} envelope CryptoCompare returns with status 200.
func compareError(resp map[string]json.RawMessage) (string, bool) {
	var status string
	if raw, ok := resp["Response"]; !ok || json.Unmarshal(raw, &status) != nil || status != "Error" {
		return "", false
	}
	var msg string
	_ = json.Unmarshal(resp["Message"], &msg)
	return msg, true
}
