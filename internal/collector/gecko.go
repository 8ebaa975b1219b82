package collector

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"CryptoGraph/internal/model"
	"CryptoGraph/internal/restclient"
)

const DefaultGeckoURL = "https://api.coingecko.com/api/v3"

// GeckoFetcher implements Fetcher using the CoinGecko public API.
type GeckoFetcher struct {
	client *restclient.Client
	now    func() time.Time
}

// NewGeckoFetcher creates a CoinGecko fetcher. apiKey and proxyURL are optional.
func NewGeckoFetcher(baseURL, apiKey, proxyURL string) *GeckoFetcher {
	if baseURL == "" {
		baseURL = DefaultGeckoURL
	}
	headers := map[string]string{}
	if apiKey != "" {
		headers["x-cg-demo-api-key"] = apiKey
	}
	return &GeckoFetcher{
		client: restclient.New(baseURL, restclient.Options{
			Timeout:    30 * time.Second,
			RetryCount: 2,
			Proxy:      proxyURL,
			Headers:    headers,
		}),
		now: time.Now,
	}
}

func (f *GeckoFetcher) Name() string { return "coingecko" }

type geckoCurrency struct {
	USD *float64 `json:"usd"`
	EUR *float64 `json:"eur"`
	ILS *float64 `json:"ils"`
}

func (c geckoCurrency) usd() float64 {
	if c.USD == nil {
		return 0
	}
	return *c.USD
}

type geckoDetails struct {
	ID          string `json:"id"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description struct {
		EN string `json:"en"`
	} `json:"description"`
	Image struct {
		Large string `json:"large"`
		Small string `json:"small"`
	} `json:"image"`
	MarketData *struct {
		CurrentPrice         geckoCurrency `json:"current_price"`
		MarketCap            geckoCurrency `json:"market_cap"`
		TotalVolume          geckoCurrency `json:"total_volume"`
		Change30dInCurrency  geckoCurrency `json:"price_change_percentage_30d_in_currency"`
		Change60dInCurrency  geckoCurrency `json:"price_change_percentage_60d_in_currency"`
		Change200dInCurrency geckoCurrency `json:"price_change_percentage_200d_in_currency"`
	} `json:"market_data"`
}

func (f *GeckoFetcher) FetchCoins(ctx context.Context) ([]model.Coin, error) {
	var coins []model.Coin
	if err := f.client.Get(ctx, "/coins/markets", map[string]string{"vs_currency": "usd"}, &coins); err != nil {
		return nil, fmt.Errorf("coingecko markets: %w", err)
	}
	return coins, nil
}

func (f *GeckoFetcher) FetchCoinDetails(ctx context.Context, id string) (*model.CoinDetails, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrEmptyID
	}
	var raw geckoDetails
	params := map[string]string{"market_data": "true"}
	if err := f.client.Get(ctx, "/coins/"+url.PathEscape(id), params, &raw); err != nil {
		return nil, fmt.Errorf("coingecko details %s: %w", id, err)
	}

	d := &model.CoinDetails{
		ID:          raw.ID,
		Symbol:      raw.Symbol,
		Name:        raw.Name,
		Description: raw.Description.EN,
		Image:       raw.Image.Large,
		FetchedAt:   f.now(),
	}
	if d.ID == "" {
		d.ID = id
	}
	if d.Image == "" {
		d.Image = raw.Image.Small
	}
	if md := raw.MarketData; md != nil {
		d.MarketData = &model.MarketData{
			CurrentPriceUSD:    md.CurrentPrice.usd(),
			MarketCapUSD:       md.MarketCap.usd(),
			TotalVolumeUSD:     md.TotalVolume.usd(),
			PriceChange30dUSD:  md.Change30dInCurrency.usd(),
			PriceChange60dUSD:  md.Change60dInCurrency.usd(),
			PriceChange200dUSD: md.Change200dInCurrency.usd(),
		}
	}
	return d, nil
}

func (f *GeckoFetcher) FetchCoinPrice(ctx context.Context, id string) (*model.CoinPrice, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrEmptyID
	}
	resp, err := f.simplePrice(ctx, []string{id}, "usd,eur,ils")
	if err != nil {
		return nil, err
	}
	p, ok := resp[id]
	if !ok || p.USD == nil {
		return nil, fmt.Errorf("coingecko price %s: %w", id, ErrNoPrice)
	}
	price := &model.CoinPrice{USD: *p.USD}
	if p.EUR != nil {
		price.EUR = *p.EUR
	}
	if p.ILS != nil {
		price.ILS = *p.ILS
	}
	return price, nil
}

// FetchPrices looks up USD prices for all coins in one request.
func (f *GeckoFetcher) FetchPrices(ctx context.Context, coins []model.CoinRef) (map[string]float64, error) {
	refs := cleanRefs(coins, false)
	out := make(map[string]float64, len(refs))
	if len(refs) == 0 {
		return out, nil
	}
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.ID
	}
	resp, err := f.simplePrice(ctx, ids, "usd")
	if err != nil {
		return nil, err
	}
	for id, p := range resp {
		if p.USD != nil {
			out[id] = *p.USD
		}
	}
	return out, nil
}

func (f *GeckoFetcher) simplePrice(ctx context.Context, ids []string, currencies string) (map[string]geckoCurrency, error) {
	resp := map[string]geckoCurrency{}
	params := map[string]string{"ids": strings.Join(ids, ","), "vs_currencies": currencies}
	if err := f.client.Get(ctx, "/simple/price", params, &resp); err != nil {
		return nil, fmt.Errorf("coingecko simple price: %w", err)
	}
	return resp, nil
}

// FetchOHLC returns historical candles; CoinGecko answers rows of [ms, open, high, low, close].
func (f *GeckoFetcher) FetchOHLC(ctx context.Context, id string, days int) ([]model.Sample, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrEmptyID
	}
	if days <= 0 {
		days = 1
	}
	var rows [][]float64
	params := map[string]string{"vs_currency": "usd", "days": strconv.Itoa(days)}
	if err := f.client.Get(ctx, "/coins/"+url.PathEscape(id)+"/ohlc", params, &rows); err != nil {
		return nil, fmt.Errorf("coingecko ohlc %s: %w", id, err)
	}

	samples := make([]model.Sample, 0, len(rows))
	for _, r := range rows {
		if len(r) < 5 {
			continue // malformed row
		}
		samples = append(samples, model.Sample{
			Timestamp: int64(r[0]) / 1000,
			Open:      r[1],
			High:      r[2],
			Low:       r[3],
			Close:     r[4],
		})
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Timestamp < samples[j].Timestamp })
	return samples, nil
}
