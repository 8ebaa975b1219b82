package calculator

import (
	"errors"
	"math"

	"CryptoGraph/internal/model"
)

// Range returns the highest high and lowest low across samples.
func Range(samples []model.Sample) (high, low float64, err error) {
	if len(samples) == 0 {
		return 0, 0, errors.New("no samples provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, s := range samples {
		if s.High > high {
			high = s.High
		}
		if s.Low < low {
			low = s.Low
		}
	}
	return high, low, nil
}

// PercentChange returns the change from prev to cur in percent. A non-positive prev yields 0.
func PercentChange(prev, cur float64) float64 {
	if prev <= 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}
