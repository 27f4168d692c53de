package utils

import "math"

func Ptr[T any](v T) *T {
	return &v
}

func Val[T any](p *T) T {
	if p != nil {
		return *p
	}
	var zero T
	return zero
}

// Round2 rounds a monetary amount to 2 decimal places, half-up.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
