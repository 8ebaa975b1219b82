package series

import (
	"errors"
	"math"
	"sort"
	"sync"

	"CryptoGraph/internal/model"
)

const (
	// DefaultCapacity is the number of samples kept per coin.
	DefaultCapacity = 30
	// DefaultEpsilon widens the synthetic high/low around open/close so candles get a visible wick.
	// Only a spot price is available per tick, so high/low are an approximation, not market data.
	DefaultEpsilon = 0.002
)

var (
	// ErrInvalidSample is returned for non-finite or non-positive prices.
	ErrInvalidSample = errors.New("invalid sample price")
	// ErrNotTracked is returned when ingesting for a coin that is not tracked.
	ErrNotTracked = errors.New("coin is not tracked")
	// ErrStaleSample is returned when the timestamp does not advance past the last sample.
	ErrStaleSample = errors.New("sample timestamp is not after the last sample")
)

// Option configures a Buffer.
type Option func(*Buffer)

// WithCapacity sets the per-coin window size. Values < 1 are ignored.
func WithCapacity(n int) Option {
	return func(b *Buffer) {
		if n > 0 {
			b.capacity = n
		}
	}
}

// WithEpsilon sets the wick fraction. Negative or non-finite values are ignored.
func WithEpsilon(eps float64) Option {
	return func(b *Buffer) {
		if eps >= 0 && !math.IsInf(eps, 0) && !math.IsNaN(eps) {
			b.epsilon = eps
		}
	}
}

// Buffer holds a sliding window of OHLC samples per tracked coin.
// It owns no timer and makes no network calls; callers feed it with Ingest.
type Buffer struct {
	mu       sync.Mutex
	series   map[string][]model.Sample
	capacity int
	epsilon  float64
}

func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{
		series:   make(map[string][]model.Sample),
		capacity: DefaultCapacity,
		epsilon:  DefaultEpsilon,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// StartTracking begins accumulating samples for id. It reports false if id was already tracked.
func (b *Buffer) StartTracking(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.series[id]; ok {
		return false
	}
	b.series[id] = make([]model.Sample, 0, b.capacity)
	return true
}

// StopTracking discards every sample of id. It reports whether id was tracked.
func (b *Buffer) StopTracking(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.series[id]; !ok {
		return false
	}
	delete(b.series, id)
	return true
}

func (b *Buffer) IsTracked(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.series[id]
	return ok
}

// Tracked returns the tracked ids in lexical order.
func (b *Buffer) Tracked() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]string, 0, len(b.series))
	for id := range b.series {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Ingest appends a candle derived from price and the previous close. Untracked ids,
// invalid prices and non-advancing timestamps are rejected and leave the buffer unchanged.
func (b *Buffer) Ingest(id string, price float64, ts int64) (model.Sample, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return model.Sample{}, ErrInvalidSample
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	samples, ok := b.series[id]
	if !ok {
		return model.Sample{}, ErrNotTracked
	}

	var s model.Sample
	if n := len(samples); n == 0 {
		s = model.Sample{Timestamp: ts, Open: price, High: price, Low: price, Close: price}
	} else {
		prev := samples[n-1]
		if ts <= prev.Timestamp {
			return model.Sample{}, ErrStaleSample
		}
		open := prev.Close
		s = model.Sample{
			Timestamp: ts,
			Open:      open,
			Close:     price,
			High:      math.Max(open, price) * (1 + b.epsilon),
			Low:       math.Min(open, price) * (1 - b.epsilon),
		}
	}

	samples = append(samples, s)
	if over := len(samples) - b.capacity; over > 0 {
		// Copy down instead of reslicing so the backing array does not grow without bound.
		n := copy(samples, samples[over:])
		samples = samples[:n]
	}
	b.series[id] = samples
	return s, nil
}

// Snapshot returns a copy of the window for id, oldest first. Untracked ids yield an empty slice.
func (b *Buffer) Snapshot(id string) []model.Sample {
	b.mu.Lock()
	defer b.mu.Unlock()
	samples := b.series[id]
	out := make([]model.Sample, len(samples))
	copy(out, samples)
	return out
}

// Last returns the most recent sample of id.
func (b *Buffer) Last(id string) (model.Sample, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	samples := b.series[id]
	if len(samples) == 0 {
		return model.Sample{}, false
	}
	return samples[len(samples)-1], true
}

func (b *Buffer) Capacity() int { return b.capacity }
