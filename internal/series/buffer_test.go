package series

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CryptoGraph/internal/model"
)

func TestIngest_FirstSampleIsDegenerate(t *testing.T) {
	b := NewBuffer()
	b.StartTracking("btc")

	_, err := b.Ingest("btc", 100, 1000)
	require.NoError(t, err)

	assert.Equal(t, []model.Sample{{Timestamp: 1000, Open: 100, High: 100, Low: 100, Close: 100}}, b.Snapshot("btc"))
}

func TestIngest_DerivesCandleFromPreviousClose(t *testing.T) {
	b := NewBuffer()
	b.StartTracking("btc")

	_, err := b.Ingest("btc", 100, 1000)
	require.NoError(t, err)
	s, err := b.Ingest("btc", 110, 1060)
	require.NoError(t, err)

	snap := b.Snapshot("btc")
	require.Len(t, snap, 2)
	assert.Equal(t, s, snap[1])
	assert.Equal(t, int64(1060), s.Timestamp)
	assert.Equal(t, 100.0, s.Open)
	assert.Equal(t, 110.0, s.Close)
	assert.InDelta(t, 110.22, s.High, 1e-9)
	assert.InDelta(t, 99.8, s.Low, 1e-9)
}

func TestIngest_FallingPrice(t *testing.T) {
	b := NewBuffer()
	b.StartTracking("eth")
	_, _ = b.Ingest("eth", 200, 1)
	s, err := b.Ingest("eth", 150, 2)
	require.NoError(t, err)

	assert.Equal(t, 200.0, s.Open)
	assert.Equal(t, 150.0, s.Close)
	assert.InDelta(t, 200.4, s.High, 1e-9)
	assert.InDelta(t, 149.7, s.Low, 1e-9)
}

func TestIngest_SlidingWindow(t *testing.T) {
	b := NewBuffer()
	b.StartTracking("btc")

	for i := 1; i <= 45; i++ {
		_, err := b.Ingest("btc", float64(100+i), int64(i))
		require.NoError(t, err)
	}

	snap := b.Snapshot("btc")
	require.Len(t, snap, DefaultCapacity)
	assert.Equal(t, int64(16), snap[0].Timestamp)
	assert.Equal(t, int64(45), snap[len(snap)-1].Timestamp)
	for i := 1; i < len(snap); i++ {
		assert.Greater(t, snap[i].Timestamp, snap[i-1].Timestamp)
		assert.Equal(t, snap[i-1].Close, snap[i].Open)
	}
}

func TestIngest_CandleInvariants(t *testing.T) {
	b := NewBuffer()
	b.StartTracking("x")
	prices := []float64{10, 12, 9, 9, 15, 1, 0.5, 100}
	for i, p := range prices {
		_, err := b.Ingest("x", p, int64(i+1))
		require.NoError(t, err)
	}
	for _, s := range b.Snapshot("x") {
		assert.LessOrEqual(t, s.Low, math.Min(s.Open, s.Close))
		assert.GreaterOrEqual(t, s.High, math.Max(s.Open, s.Close))
	}
}

func TestIngest_UntrackedIsNoop(t *testing.T) {
	b := NewBuffer()
	_, err := b.Ingest("ghost", 100, 1)
	assert.ErrorIs(t, err, ErrNotTracked)
	assert.False(t, b.IsTracked("ghost"))
	assert.Empty(t, b.Snapshot("ghost"))
}

func TestIngest_InvalidPrices(t *testing.T) {
	b := NewBuffer()
	b.StartTracking("btc")
	_, _ = b.Ingest("btc", 100, 1)

	for _, p := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := b.Ingest("btc", p, 2)
		assert.ErrorIs(t, err, ErrInvalidSample)
	}
	assert.Len(t, b.Snapshot("btc"), 1)
}

func TestIngest_StaleTimestamp(t *testing.T) {
	b := NewBuffer()
	b.StartTracking("btc")
	_, _ = b.Ingest("btc", 100, 10)

	_, err := b.Ingest("btc", 101, 10)
	assert.ErrorIs(t, err, ErrStaleSample)
	_, err = b.Ingest("btc", 101, 5)
	assert.ErrorIs(t, err, ErrStaleSample)
	assert.Len(t, b.Snapshot("btc"), 1)
}

func TestStopTracking_DiscardsSamples(t *testing.T) {
	b := NewBuffer()
	b.StartTracking("btc")
	_, _ = b.Ingest("btc", 100, 1)

	assert.True(t, b.StopTracking("btc"))
	snap := b.Snapshot("btc")
	assert.NotNil(t, snap)
	assert.Empty(t, snap)

	_, err := b.Ingest("btc", 100, 2)
	assert.ErrorIs(t, err, ErrNotTracked, "late write must not resurrect a stopped series")
	assert.False(t, b.StopTracking("btc"))
}

func TestStartTracking_Idempotent(t *testing.T) {
	b := NewBuffer()
	assert.True(t, b.StartTracking("btc"))
	_, _ = b.Ingest("btc", 100, 1)
	assert.False(t, b.StartTracking("btc"))
	assert.Len(t, b.Snapshot("btc"), 1)
}

func TestOptions(t *testing.T) {
	b := NewBuffer(WithCapacity(3), WithEpsilon(0), WithCapacity(-1), WithEpsilon(math.NaN()))
	assert.Equal(t, 3, b.Capacity())
	b.StartTracking("a")
	for i := 1; i <= 5; i++ {
		_, _ = b.Ingest("a", float64(i), int64(i))
	}
	snap := b.Snapshot("a")
	require.Len(t, snap, 3)
	assert.Equal(t, 4.0, snap[1].Close)
	assert.Equal(t, 4.0, snap[1].High)
	assert.Equal(t, 3.0, snap[1].Low)
}

func TestTrackedAndLast(t *testing.T) {
	b := NewBuffer()
	b.StartTracking("b")
	b.StartTracking("a")
	assert.Equal(t, []string{"a", "b"}, b.Tracked())

	_, ok := b.Last("a")
	assert.False(t, ok)
	_, _ = b.Ingest("a", 5, 1)
	last, ok := b.Last("a")
	assert.True(t, ok)
	assert.Equal(t, 5.0, last.Close)
}
