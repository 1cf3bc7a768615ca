package utils

import "math"

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
