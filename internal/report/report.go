package report

import (
	"fmt"
	"html"
	"strings"
	"time"

	"CryptoGraph/internal/calculator"
	"CryptoGraph/internal/model"
)

// CoinReport summarises the recent movement of one tracked coin.
type CoinReport struct {
	CoinID        string   `json:"coin_id"`
	Symbol        string   `json:"symbol"`
	Current       float64  `json:"current"`
	Previous      float64  `json:"previous"`
	Change        float64  `json:"change"`
	ChangePercent float64  `json:"change_percent"`
	SMA           float64  `json:"sma"`
	High          float64  `json:"high"`
	Low           float64  `json:"low"`
	Samples       int      `json:"samples"`
	RSI           *float64 `json:"rsi,omitempty"`
	UpdatedAt     int64    `json:"updated_at"`
}

// Build derives a report from a series snapshot, oldest sample first.
// It returns false when the snapshot is empty.
func Build(coinID, symbol string, snap []model.Sample) (CoinReport, bool) {
	if len(snap) == 0 {
		return CoinReport{}, false
	}
	last := snap[len(snap)-1]
	prev := last.Close
	if len(snap) > 1 {
		prev = snap[len(snap)-2].Close
	}

	r := CoinReport{
		CoinID:        coinID,
		Symbol:        strings.ToUpper(symbol),
		Current:       last.Close,
		Previous:      prev,
		Change:        last.Close - prev,
		ChangePercent: calculator.PercentChange(prev, last.Close),
		Samples:       len(snap),
		UpdatedAt:     last.Timestamp,
	}
	if sma, err := calculator.WindowSMA(snap); err == nil {
		r.SMA = sma
	}
	if h, l, err := calculator.Range(snap); err == nil {
		r.High, r.Low = h, l
	}
	if rsi, err := calculator.RSI(snap, calculator.DefaultRSIPeriod); err == nil {
		r.RSI = &rsi
	}
	return r, true
}

// FormatSelectionReport renders the reports as a Telegram HTML message.
func FormatSelectionReport(reports []CoinReport, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>CryptoGraph report</b> | %s\n\n", at.Format("2006-01-02 15:04")))
	if len(reports) == 0 {
		b.WriteString("No coins selected.\n")
		return b.String()
	}
	for _, r := range reports {
		arrow := "▲"
		if r.Change < 0 {
			arrow = "▼"
		}
		name := r.Symbol
		if name == "" {
			name = r.CoinID
		}
		name = html.EscapeString(name)
		b.WriteString(fmt.Sprintf("<b>%s</b> %s %s %s (%s)\n",
			name, FormatCurrency(&r.Current), arrow,
			FormatPercentage(&r.ChangePercent, 2), FormatCurrency(&r.Change)))
		b.WriteString(fmt.Sprintf("  range %s - %s | avg %s | %d samples",
			FormatCurrency(&r.Low), FormatCurrency(&r.High), FormatCurrency(&r.SMA), r.Samples))
		if r.RSI != nil {
			b.WriteString(fmt.Sprintf(" | RSI %.1f", *r.RSI))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatRecommendation renders an advisor verdict together with the data it was based on.
func FormatRecommendation(data model.RecommendationData, rec *model.Recommendation) string {
	var b strings.Builder
	icon := "🔴"
	if rec.Decision == model.DecisionBuy {
		icon = "🟢"
	}
	b.WriteString(fmt.Sprintf("%s <b>%s</b>: %s\n\n", icon, html.EscapeString(data.Name), strings.ToUpper(string(rec.Decision))))
	b.WriteString(fmt.Sprintf("Price: %s\n", FormatCurrency(&data.CurrentPriceUSD)))
	b.WriteString(fmt.Sprintf("Market cap: %s\n", FormatCurrency(&data.MarketCapUSD)))
	b.WriteString(fmt.Sprintf("Volume 24h: %s\n", FormatCurrency(&data.Volume24hUSD)))
	b.WriteString(fmt.Sprintf("30d: %s | 60d: %s | 200d: %s\n\n",
		FormatPercentage(&data.PriceChangePercent30d, 2),
		FormatPercentage(&data.PriceChangePercent60d, 2),
		FormatPercentage(&data.PriceChangePercent200, 2)))
	b.WriteString(html.EscapeString(rec.Reason))
	return b.String()
}
