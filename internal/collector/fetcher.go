package collector

import (
	"context"
	"errors"
	"strings"

	"CryptoGraph/internal/model"
)

var (
	// ErrEmptyID is returned when a lookup is asked for a blank coin id.
	ErrEmptyID = errors.New("empty coin id")
	// ErrNoPrice is returned when the source has no USD price for a coin.
	ErrNoPrice = errors.New("no price available")
	// ErrNoMarketData is returned when coin details carry no market_data block.
	ErrNoMarketData = errors.New("no market data available")
)

// PriceFetcher returns USD spot prices keyed by coin id for a batch of coins.
type PriceFetcher interface {
	FetchPrices(ctx context.Context, coins []model.CoinRef) (map[string]float64, error)
	Name() string
}

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	PriceFetcher
	FetchCoins(ctx context.Context) ([]model.Coin, error)
	FetchCoinDetails(ctx context.Context, id string) (*model.CoinDetails, error)
	FetchCoinPrice(ctx context.Context, id string) (*model.CoinPrice, error)
	FetchOHLC(ctx context.Context, id string, days int) ([]model.Sample, error)
}

// cleanRefs trims ids and symbols and drops entries missing either.
func cleanRefs(coins []model.CoinRef, needSymbol bool) []model.CoinRef {
	out := make([]model.CoinRef, 0, len(coins))
	seen := make(map[string]struct{}, len(coins))
	for _, c := range coins {
		ref := model.CoinRef{ID: strings.TrimSpace(c.ID), Symbol: strings.TrimSpace(c.Symbol)}
		if ref.ID == "" || (needSymbol && ref.Symbol == "") {
			continue
		}
		if _, dup := seen[ref.ID]; dup {
			continue
		}
		seen[ref.ID] = struct{}{}
		out = append(out, ref)
	}
	return out
}
