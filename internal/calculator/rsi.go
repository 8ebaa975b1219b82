package calculator

import (
	"errors"

	"CryptoGraph/internal/model"
)

// DefaultRSIPeriod is the classic Wilder period.
const DefaultRSIPeriod = 14

// ErrNotEnoughData is returned when fewer than period+1 closes are available.
var ErrNotEnoughData = errors.New("not enough data")

// RSI computes the Wilder-smoothed RSI over the closes of samples.
// Requires at least period+1 samples.
func RSI(samples []model.Sample, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(samples) < period+1 {
		return 0, ErrNotEnoughData
	}

	closes := Closes(samples)

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50, nil // flat series
		}
		return 100, nil
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}
