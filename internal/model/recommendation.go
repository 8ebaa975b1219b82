package model

import "time"

// Decision is the verdict returned by the advisor.
type Decision string

const (
	DecisionBuy      Decision = "buy"
	DecisionDoNotBuy Decision = "do not buy"
)

// Valid reports whether d is one of the two accepted verdicts.
func (d Decision) Valid() bool {
	return d == DecisionBuy || d == DecisionDoNotBuy
}

// RecommendationData is the market snapshot handed to the language model.
type RecommendationData struct {
	CoinID                string  `json:"-"`
	Name                  string  `json:"name"`
	CurrentPriceUSD       float64 `json:"current_price_usd"`
	MarketCapUSD          float64 `json:"market_cap_usd"`
	Volume24hUSD          float64 `json:"volume_24h_usd"`
	PriceChangePercent30d float64 `json:"price_change_percentage_30d_in_currency"`
	PriceChangePercent60d float64 `json:"price_change_percentage_60d_in_currency"`
	PriceChangePercent200 float64 `json:"price_change_percentage_200d_in_currency"`
}

// Recommendation is a parsed advisor answer.
type Recommendation struct {
	ID        string    `json:"id"`
	CoinID    string    `json:"coin_id"`
	Decision  Decision  `json:"recommendation"`
	Reason    string    `json:"reason"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}
