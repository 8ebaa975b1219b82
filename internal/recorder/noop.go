package recorder

import "CryptoGraph/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSample(_ *PriceSample) error                  { return nil }
func (n *NoopRecorder) RecordRecommendation(_ *model.Recommendation) error { return nil }
func (n *NoopRecorder) RecordSelection(_ *SelectionEvent) error            { return nil }
func (n *NoopRecorder) RecentSamples(_ string, _ int) ([]model.Sample, error) {
	return []model.Sample{}, nil
}
func (n *NoopRecorder) RecentRecommendations(_ string, _ int) ([]model.Recommendation, error) {
	return []model.Recommendation{}, nil
}
func (n *NoopRecorder) Close() error { return nil }
