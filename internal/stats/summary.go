// Package stats computes the per-series summary statistics used for scale
// assignment and normalisation. NaN samples are gaps and are excluded from
// every statistic.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the finite samples of a series.
type Summary struct {
	Count int
	Min   float64
	Max   float64
	// Low and High are the percentiles requested from Summarize
	// (5th and 95th by default).
	Low  float64
	High float64
	Mean float64
	// Std is the population standard deviation.
	Std float64
}

// Span returns Max - Min.
func (s Summary) Span() float64 { return s.Max - s.Min }

// RobustSpan returns High - Low.
func (s Summary) RobustSpan() float64 { return s.High - s.Low }

// Finite returns the non-NaN, non-infinite samples of values in a new slice.
func Finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Summarize computes a Summary over the finite samples of values, with
// lowPct and highPct in [0, 100]. It returns false when values holds no
// finite samples.
func Summarize(values []float64, lowPct, highPct float64) (Summary, bool) {
	finite := Finite(values)
	if len(finite) == 0 {
		return Summary{}, false
	}

	mean, std := stat.PopMeanStdDev(finite, nil)

	sorted := finite
	sort.Float64s(sorted)

	return Summary{
		Count: len(sorted),
		Min:   floats.Min(sorted),
		Max:   floats.Max(sorted),
		Low:   Percentile(sorted, lowPct),
		High:  Percentile(sorted, highPct),
		Mean:  mean,
		Std:   std,
	}, true
}

// Percentile returns the p-th percentile (0..100) of an ascending slice
// using linear interpolation between closest ranks, with fractional rank
// p/100*(n-1). Percentile of an empty slice is NaN.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}

	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Magnitude returns the mean of absolute values over the finite samples,
// the quantity used to decide which scale a series belongs on. It returns
// false when values holds no finite samples.
func Magnitude(values []float64) (float64, bool) {
	finite := Finite(values)
	if len(finite) == 0 {
		return 0, false
	}
	for i, v := range finite {
		finite[i] = math.Abs(v)
	}
	return stat.Mean(finite, nil), true
}
