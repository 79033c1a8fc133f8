// Package aggregation groups resolved detections by canonical label,
// computes per-class statistics, and assesses the overall quality of a
// detection set.
package aggregation

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats are summary statistics over one series of values.
type Stats struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

func newStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	return Stats{
		Mean:   stat.Mean(values, nil),
		Std:    popStd(values),
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		Median: median(values),
	}
}

// popStd is the population standard deviation, which is well defined for a
// single sample (unlike the Bessel-corrected one).
func popStd(values []float64) float64 {
	return stat.PopStdDev(values, nil)
}

// median interpolates the midpoint for even-length series.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2.
}

// round3 keeps reported scores at a stable precision.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
