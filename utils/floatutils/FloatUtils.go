// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"

	"gonum.org/v1/gonum/spatial/r1"
)

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the max
// If min exceeds the floating point, then the function returns the min
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// ClipInterval is a wrapper to use Clip with an r1.Interval instead of
// a separate max and min value
func ClipInterval(value float64, interval r1.Interval) float64 {
	return Clip(value, interval.Min, interval.Max)
}

// Range returns the interval spanned by a list of float64. NaN values
// are skipped. If no non-NaN value exists, the zero interval is
// returned.
func Range(floats ...float64) r1.Interval {
	var interval r1.Interval
	seen := false
	for _, val := range floats {
		if math.IsNaN(val) {
			continue
		}
		if !seen {
			interval = r1.Interval{Min: val, Max: val}
			seen = true
			continue
		}
		interval.Min = math.Min(interval.Min, val)
		interval.Max = math.Max(interval.Max, val)
	}
	return interval
}
