package calculator

import (
	"errors"

	"CryptoGraph/internal/model"
)

// SMA computes the simple moving average of the last period values.
func SMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(values) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), nil
}

// WindowSMA averages every close in the window.
func WindowSMA(samples []model.Sample) (float64, error) {
	return SMA(Closes(samples), len(samples))
}

// Closes extracts the close prices of samples, oldest first.
func Closes(samples []model.Sample) []float64 {
	closes := make([]float64, len(samples))
	for i, s := range samples {
		closes[i] = s.Close
	}
	return closes
}
