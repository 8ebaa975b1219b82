package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CryptoGraph/internal/model"
)

func TestSMA(t *testing.T) {
	v, err := SMA([]float64{1, 2, 3, 4}, 2)
	require.NoError(t, err)
	assert.Equal(t, 3.5, v)

	_, err = SMA([]float64{1}, 2)
	assert.Error(t, err)
	_, err = SMA([]float64{1}, 0)
	assert.Error(t, err)
}

func TestWindowSMA(t *testing.T) {
	samples := []model.Sample{{Close: 10}, {Close: 20}, {Close: 30}}
	v, err := WindowSMA(samples)
	require.NoError(t, err)
	assert.Equal(t, 20.0, v)

	_, err = WindowSMA(nil)
	assert.Error(t, err)
}

func TestRange(t *testing.T) {
	samples := []model.Sample{
		{High: 10, Low: 8},
		{High: 12, Low: 9},
		{High: 11, Low: 7},
	}
	h, l, err := Range(samples)
	require.NoError(t, err)
	assert.Equal(t, 12.0, h)
	assert.Equal(t, 7.0, l)

	_, _, err = Range(nil)
	assert.Error(t, err)
}

func TestPercentChange(t *testing.T) {
	assert.InDelta(t, 10.0, PercentChange(100, 110), 1e-9)
	assert.InDelta(t, -50.0, PercentChange(200, 100), 1e-9)
	assert.Equal(t, 0.0, PercentChange(0, 100))
}

func closesToSamples(closes ...float64) []model.Sample {
	out := make([]model.Sample, len(closes))
	for i, c := range closes {
		out[i] = model.Sample{Timestamp: int64(i), Close: c}
	}
	return out
}

func TestRSI(t *testing.T) {
	rising := make([]float64, 15)
	for i := range rising {
		rising[i] = float64(100 + i)
	}
	v, err := RSI(closesToSamples(rising...), DefaultRSIPeriod)
	require.NoError(t, err)
	assert.Equal(t, 100.0, v)

	v, err = RSI(closesToSamples(10, 10, 10, 10), 3)
	require.NoError(t, err)
	assert.Equal(t, 50.0, v)

	// two gains of 2 and one loss of 1 over period 3: RS = (4/3)/(1/3) = 4
	v, err = RSI(closesToSamples(10, 12, 11, 13), 3)
	require.NoError(t, err)
	assert.InDelta(t, 80.0, v, 1e-9)

	_, err = RSI(closesToSamples(1, 2), DefaultRSIPeriod)
	assert.ErrorIs(t, err, ErrNotEnoughData)
	_, err = RSI(closesToSamples(1, 2), 0)
	assert.Error(t, err)
}
