package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"CryptoGraph/internal/model"
)

func TestPrintSelection(t *testing.T) {
	var buf bytes.Buffer
	printSelection(&buf, nil)
	assert.Equal(t, "No coins selected.\n", buf.String())

	buf.Reset()
	printSelection(&buf, []string{"bitcoin", "ethereum"})
	assert.Equal(t, "Selected coins (2/5):\n  1. bitcoin\n  2. ethereum\n", buf.String())
}

func TestPrintCoins(t *testing.T) {
	var buf bytes.Buffer
	printCoins(&buf, nil, nil)
	assert.Equal(t, "No coins match.\n", buf.String())

	buf.Reset()
	coins := []model.Coin{
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", MarketCapRank: 1, CurrentPrice: 65000, PriceChangePercentage24h: 1.5},
		{ID: "ethereum", Symbol: "eth", Name: "Ethereum", MarketCapRank: 2, CurrentPrice: 3200.5, PriceChangePercentage24h: -0.25},
	}
	printCoins(&buf, coins, []string{"ethereum"})
	out := buf.String()
	assert.Contains(t, out, "SYMBOL")
	assert.Contains(t, out, "BTC")
	assert.Contains(t, out, "$65,000.00")
	assert.Contains(t, out, "+1.50%")
	assert.Contains(t, out, "ethereum*")
	assert.NotContains(t, out, "bitcoin*")
}

func TestCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "coins", "select", "price", "recommend"} {
		assert.True(t, names[want], want)
	}
	assert.Len(t, selectCmd.Commands(), 4)
}
