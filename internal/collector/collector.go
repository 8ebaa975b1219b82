package collector

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"CryptoGraph/internal/cache"
	"CryptoGraph/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	mu         sync.Mutex
	Coins      []model.Coin
	Details    map[string]*model.CoinDetails
	Prices     map[string]float64
	OHLC       map[string][]model.Sample
	Err        error
	PriceCalls int
}

func (m *MockFetcher) Name() string { return "mock" }

// SetPrice updates the USD price returned for id.
func (m *MockFetcher) SetPrice(id string, usd float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Prices == nil {
		m.Prices = map[string]float64{}
	}
	m.Prices[id] = usd
}

func (m *MockFetcher) FetchCoins(_ context.Context) ([]model.Coin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]model.Coin, len(m.Coins))
	copy(out, m.Coins)
	return out, nil
}

func (m *MockFetcher) FetchCoinDetails(_ context.Context, id string) (*model.CoinDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if d, ok := m.Details[id]; ok {
		cp := *d
		return &cp, nil
	}
	for _, c := range m.Coins {
		if c.ID == id {
			return &model.CoinDetails{ID: c.ID, Symbol: c.Symbol, Name: c.Name, Image: c.Image}, nil
		}
	}
	return nil, fmt.Errorf("mock: unknown coin %q", id)
}

func (m *MockFetcher) FetchCoinPrice(_ context.Context, id string) (*model.CoinPrice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.Prices[id]
	if !ok {
		return nil, ErrNoPrice
	}
	return &model.CoinPrice{USD: p, EUR: p * 0.9, ILS: p * 3.7}, nil
}

func (m *MockFetcher) FetchPrices(_ context.Context, coins []model.CoinRef) (map[string]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PriceCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	out := map[string]float64{}
	for _, c := range cleanRefs(coins, false) {
		if p, ok := m.Prices[c.ID]; ok {
			out[c.ID] = p
		}
	}
	return out, nil
}

func (m *MockFetcher) FetchOHLC(_ context.Context, id string, days int) ([]model.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.OHLC[id]; ok {
		return bars, nil
	}
	return generateMockBars(m.Prices[id], days*24), nil
}

func generateMockBars(basePrice float64, count int) []model.Sample {
	if basePrice <= 0 {
		basePrice = 100
	}
	bars := make([]model.Sample, count)
	start := time.Now().Add(-time.Duration(count) * time.Hour).Unix()
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Sample{
			Timestamp: start + int64(i)*3600,
			Open:      p * 0.999,
			High:      p * 1.005,
			Low:       p * 0.995,
			Close:     p,
		}
	}
	return bars
}

// Collector combines a market data source with a batch price source.
type Collector struct {
	market   Fetcher
	prices   PriceFetcher
	fallback bool
	details  *cache.TTL[string, *model.CoinDetails]
	log      logrus.FieldLogger
}

// NewCollector creates a Collector. When prices is nil the market fetcher serves batch prices too.
func NewCollector(market Fetcher, prices PriceFetcher, detailsTTL time.Duration, log logrus.FieldLogger) *Collector {
	fallback := prices != nil
	if prices == nil {
		prices = market
	}
	if detailsTTL <= 0 {
		detailsTTL = 5 * time.Minute
	}
	return &Collector{
		market:   market,
		prices:   prices,
		fallback: fallback,
		details:  cache.NewTTL[string, *model.CoinDetails](detailsTTL),
		log:      log,
	}
}

func (c *Collector) Coins(ctx context.Context) ([]model.Coin, error) {
	coins, err := c.market.FetchCoins(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch coins: %w", err)
	}
	return coins, nil
}

// Details returns coin details, served from cache while fresh.
func (c *Collector) Details(ctx context.Context, id string) (*model.CoinDetails, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrEmptyID
	}
	if d, ok := c.details.Get(id); ok {
		return d, nil
	}
	d, err := c.market.FetchCoinDetails(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch details: %w", err)
	}
	c.details.Set(id, d)
	return d, nil
}

func (c *Collector) Price(ctx context.Context, id string) (*model.CoinPrice, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrEmptyID
	}
	p, err := c.market.FetchCoinPrice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch price: %w", err)
	}
	return p, nil
}

func (c *Collector) OHLC(ctx context.Context, id string, days int) ([]model.Sample, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrEmptyID
	}
	bars, err := c.market.FetchOHLC(ctx, id, days)
	if err != nil {
		return nil, fmt.Errorf("fetch ohlc: %w", err)
	}
	return bars, nil
}

// BatchPrices fetches USD prices for coins, falling back to the market source
// when the dedicated price source fails or leaves coins out.
func (c *Collector) BatchPrices(ctx context.Context, coins []model.CoinRef) (map[string]float64, error) {
	prices, err := c.prices.FetchPrices(ctx, coins)
	if err == nil {
		if c.fallback {
			c.fillMissing(ctx, coins, prices)
		}
		return prices, nil
	}
	if !c.fallback {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}
	c.log.WithError(err).WithField("source", c.prices.Name()).Warn("batch price source failed, falling back")
	prices, err = c.market.FetchPrices(ctx, coins)
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}
	return prices, nil
}

// fillMissing asks the market source for coins the price source did not know,
// e.g. symbols CryptoCompare does not list. Failures keep the partial result.
func (c *Collector) fillMissing(ctx context.Context, coins []model.CoinRef, prices map[string]float64) {
	var missing []model.CoinRef
	for _, ref := range cleanRefs(coins, false) {
		if _, ok := prices[ref.ID]; !ok {
			missing = append(missing, ref)
		}
	}
	if len(missing) == 0 {
		return
	}
	extra, err := c.market.FetchPrices(ctx, missing)
	if err != nil {
		c.log.WithError(err).WithField("missing", len(missing)).Warn("market price lookup for missing coins failed")
		return
	}
	for id, p := range extra {
		prices[id] = p
	}
}

// RecommendationData assembles the market snapshot sent to the advisor.
func (c *Collector) RecommendationData(ctx context.Context, id string) (model.RecommendationData, error) {
	d, err := c.Details(ctx, id)
	if err != nil {
		return model.RecommendationData{}, err
	}
	if d.MarketData == nil {
		return model.RecommendationData{}, fmt.Errorf("coin %s: %w", id, ErrNoMarketData)
	}
	md := d.MarketData
	return model.RecommendationData{
		CoinID:                d.ID,
		Name:                  d.Name,
		CurrentPriceUSD:       md.CurrentPriceUSD,
		MarketCapUSD:          md.MarketCapUSD,
		Volume24hUSD:          md.TotalVolumeUSD,
		PriceChangePercent30d: md.PriceChange30dUSD,
		PriceChangePercent60d: md.PriceChange60dUSD,
		PriceChangePercent200: md.PriceChange200dUSD,
	}, nil
}
