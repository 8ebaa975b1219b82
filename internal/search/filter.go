package search

import (
	"strings"
	"sync"

	"CryptoGraph/internal/model"
)

// Filter holds the current coin search query. Each Set replaces the previous value.
type Filter struct {
	mu    sync.RWMutex
	query string
}

func NewFilter() *Filter { return &Filter{} }

func (f *Filter) Set(q string) {
	f.mu.Lock()
	f.query = q
	f.mu.Unlock()
}

func (f *Filter) Clear() { f.Set("") }

func (f *Filter) Query() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.query
}

// Apply returns the coins matching the current query.
func (f *Filter) Apply(coins []model.Coin) []model.Coin {
	return Match(coins, f.Query())
}

// Match keeps coins whose id, symbol or name contains q, ignoring case and surrounding space.
// An empty query matches everything.
func Match(coins []model.Coin, q string) []model.Coin {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		out := make([]model.Coin, len(coins))
		copy(out, coins)
		return out
	}
	out := make([]model.Coin, 0, len(coins))
	for _, c := range coins {
		if strings.Contains(strings.ToLower(c.ID), q) ||
			strings.Contains(strings.ToLower(c.Symbol), q) ||
			strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out
}
