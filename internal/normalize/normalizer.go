package normalize

import (
	"math"

	"github.com/banshee-data/trendview/internal/stats"
)

// DefaultEpsilon is the span below which a series is treated as flat.
const DefaultEpsilon = 1e-9

// FlatLevel is where a flat series is drawn.
const FlatLevel = 50.0

// Window is a closed time interval [Lo, Hi].
type Window struct {
	Lo float64
	Hi float64
}

// Stats is the cached normalisation record for one signal.
type Stats struct {
	stats.Summary
	Scope Scope
	// Window holds the bounds the stats were computed over when Scope is
	// VisibleWindow; it is zero otherwise.
	Window Window
}

// Bounds returns the values that map to 0% and 100% under m.
func (s Stats) Bounds(m Method) (lo, hi float64) {
	if m == RobustMinMax {
		return s.Low, s.High
	}
	return s.Min, s.Max
}

// Flat reports whether the series is flat: either max-min or the
// percentile span is below eps, whichever method is in use.
func (s Stats) Flat(eps float64) bool {
	return s.Span() < eps || s.RobustSpan() < eps
}

// Normalizer maps raw values to percentages.
type Normalizer struct {
	// Epsilon is the flat-series threshold.
	Epsilon float64
}

// Normalize returns a new slice holding values mapped onto [0, 100] using
// the bounds selected by m. A flat series maps to FlatLevel. NaN samples
// stay NaN so gaps survive normalisation.
func (n Normalizer) Normalize(st Stats, m Method, values []float64) []float64 {
	out := make([]float64, len(values))
	lo, hi := st.Bounds(m)
	flat := st.Flat(n.Epsilon)
	for i, v := range values {
		out[i] = point(v, lo, hi, flat)
	}
	return out
}

// Point applies the same mapping as Normalize to a single value, for
// cursor readouts.
func (n Normalizer) Point(st Stats, m Method, v float64) float64 {
	lo, hi := st.Bounds(m)
	return point(v, lo, hi, st.Flat(n.Epsilon))
}

func point(v, lo, hi float64, flat bool) float64 {
	if math.IsNaN(v) {
		return v
	}
	if flat {
		return FlatLevel
	}
	// dividing first keeps lo and hi exactly at 0 and 100
	pct := (v - lo) / (hi - lo) * 100
	return math.Min(100, math.Max(0, pct))
}
