package model

import "time"

// Sample is one OHLC candle of a tracked coin. Timestamp is in Unix seconds.
type Sample struct {
	Timestamp int64   `json:"t"`
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
}

// Time returns the sample timestamp as a time.Time.
func (s Sample) Time() time.Time {
	return time.Unix(s.Timestamp, 0)
}

// Coin is one row of the market list.
type Coin struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	Image                    string  `json:"image,omitempty"`
	CurrentPrice             float64 `json:"current_price"`
	MarketCap                float64 `json:"market_cap"`
	MarketCapRank            int     `json:"market_cap_rank"`
	TotalVolume              float64 `json:"total_volume"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
}

// Ref returns the id/symbol pair used by batch price lookups.
func (c Coin) Ref() CoinRef {
	return CoinRef{ID: c.ID, Symbol: c.Symbol}
}

// CoinRef identifies a coin for price sources keyed either by id or by ticker symbol.
type CoinRef struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
}

// CoinPrice holds the spot price of one coin in the supported fiat currencies.
type CoinPrice struct {
	USD float64 `json:"usd"`
	EUR float64 `json:"eur"`
	ILS float64 `json:"ils"`
}

// MarketData is the subset of the market_data block of a coin details response.
type MarketData struct {
	CurrentPriceUSD    float64 `json:"current_price_usd"`
	MarketCapUSD       float64 `json:"market_cap_usd"`
	TotalVolumeUSD     float64 `json:"total_volume_usd"`
	PriceChange30dUSD  float64 `json:"price_change_percentage_30d"`
	PriceChange60dUSD  float64 `json:"price_change_percentage_60d"`
	PriceChange200dUSD float64 `json:"price_change_percentage_200d"`
}

// CoinDetails is the detail view of a single coin.
type CoinDetails struct {
	ID          string      `json:"id"`
	Symbol      string      `json:"symbol"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Image       string      `json:"image,omitempty"`
	MarketData  *MarketData `json:"market_data,omitempty"`
	FetchedAt   time.Time   `json:"fetched_at"`
}
