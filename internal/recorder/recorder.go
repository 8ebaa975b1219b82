package recorder

import "CryptoGraph/internal/model"

// Selection event kinds.
const (
	EventAdded   = "ADDED"
	EventRemoved = "REMOVED"
	EventCleared = "CLEARED"
)

// PriceSample is one accepted candle of a tracked coin.
type PriceSample struct {
	CoinID string
	Source string
	Sample model.Sample
}

// SelectionEvent records a change to the selected coin set.
type SelectionEvent struct {
	EventType string // ADDED, REMOVED or CLEARED
	CoinID    string
	Members   []string
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordSample(s *PriceSample) error
	RecordRecommendation(rec *model.Recommendation) error
	RecordSelection(evt *SelectionEvent) error
	RecentSamples(coinID string, limit int) ([]model.Sample, error)
	RecentRecommendations(coinID string, limit int) ([]model.Recommendation, error)
	Close() error
}
