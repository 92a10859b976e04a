package normalize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trendview/internal/stats"
)

func statsFor(t *testing.T, values []float64) Stats {
	t.Helper()
	c := NewCache(5, 95)
	ts := make([]float64, len(values))
	for i := range ts {
		ts[i] = float64(i)
	}
	st, err := c.Compute("s", ts, values, EntireSeries, Window{})
	require.NoError(t, err)
	return st
}

func TestNormalize_RobustClipsOutlier(t *testing.T) {
	values := []float64{1, 2, 3, 4, 100}
	st := statsFor(t, values)
	n := Normalizer{Epsilon: DefaultEpsilon}

	out := n.Normalize(st, RobustMinMax, values)
	require.Len(t, out, len(values))

	assert.Equal(t, 100.0, out[4], "outlier clips at 100%")
	assert.Equal(t, 0.0, out[0], "value below p5 clips at 0%")
	// 2 sits just above p5 = 1.2
	assert.InDelta(t, (2-1.2)*100/(80.8-1.2), out[1], 1e-9)
	for i, v := range out {
		assert.True(t, v >= 0 && v <= 100, "out[%d] = %v", i, v)
	}
}

func TestNormalize_MinMaxEndpoints(t *testing.T) {
	values := []float64{10, 12.5, 20, 15}
	st := statsFor(t, values)
	n := Normalizer{Epsilon: DefaultEpsilon}

	out := n.Normalize(st, MinMax, values)
	assert.Equal(t, []float64{0, 25, 100, 50}, out)
}

func TestNormalize_BoundsForEitherMethod(t *testing.T) {
	values := []float64{-3, 8, 0.5, 1e3, -40, 7, 7, 7, 12, 19}
	st := statsFor(t, values)
	n := Normalizer{Epsilon: DefaultEpsilon}

	for _, m := range []Method{MinMax, RobustMinMax} {
		t.Run(string(m), func(t *testing.T) {
			lo, hi := st.Bounds(m)
			assert.Equal(t, 0.0, n.Point(st, m, lo))
			assert.Equal(t, 100.0, n.Point(st, m, hi))
			for _, v := range n.Normalize(st, m, values) {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 100.0)
			}
		})
	}
}

func TestNormalize_FlatSeries(t *testing.T) {
	values := []float64{7.25, 7.25, 7.25, 7.25, 7.25}
	st := statsFor(t, values)
	n := Normalizer{Epsilon: DefaultEpsilon}

	for _, m := range []Method{MinMax, RobustMinMax} {
		assert.True(t, st.Flat(n.Epsilon))
		out := n.Normalize(st, m, values)
		for _, v := range out {
			assert.Equal(t, FlatLevel, v)
		}
		assert.Equal(t, FlatLevel, n.Point(st, m, 1e6))
	}
}

func TestNormalize_FlatPercentileSpanAppliesToBothMethods(t *testing.T) {
	// 5th and 95th percentile coincide but the extremes differ
	values := make([]float64, 100)
	for i := range values {
		values[i] = 3
	}
	values[0] = -1000
	values[99] = 1000
	st := statsFor(t, values)
	n := Normalizer{Epsilon: DefaultEpsilon}

	require.Equal(t, 2000.0, st.Span())
	require.Equal(t, 0.0, st.RobustSpan())
	assert.True(t, st.Flat(n.Epsilon))

	for _, m := range []Method{MinMax, RobustMinMax} {
		t.Run(string(m), func(t *testing.T) {
			assert.Equal(t, FlatLevel, n.Point(st, m, 1000))
			assert.Equal(t, FlatLevel, n.Point(st, m, -1000))
			for _, v := range n.Normalize(st, m, values) {
				assert.Equal(t, FlatLevel, v)
			}
		})
	}
}

func TestStats_Flat(t *testing.T) {
	tests := []struct {
		name string
		st   Stats
		want bool
	}{
		{name: "spread", st: Stats{Summary: stats.Summary{Min: 0, Max: 10, Low: 1, High: 9}}, want: false},
		{name: "constant", st: Stats{Summary: stats.Summary{Min: 4, Max: 4, Low: 4, High: 4}}, want: true},
		{name: "percentile span only", st: Stats{Summary: stats.Summary{Min: 0, Max: 10, Low: 5, High: 5}}, want: true},
		{name: "just above epsilon", st: Stats{Summary: stats.Summary{Min: 0, Max: 2e-9, Low: 0, High: 2e-9}}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.st.Flat(DefaultEpsilon))
		})
	}
}

func TestNormalize_NaNGapsPreserved(t *testing.T) {
	values := []float64{0, math.NaN(), 10}
	st := statsFor(t, values)
	n := Normalizer{Epsilon: DefaultEpsilon}

	out := n.Normalize(st, MinMax, values)
	assert.Equal(t, 0.0, out[0])
	assert.True(t, math.IsNaN(out[1]))
	assert.Equal(t, 100.0, out[2])
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	values := []float64{1, 2, 3}
	st := statsFor(t, values)
	n := Normalizer{Epsilon: DefaultEpsilon}

	_ = n.Normalize(st, MinMax, values)
	assert.Equal(t, []float64{1, 2, 3}, values)
}

func TestPoint_MatchesNormalize(t *testing.T) {
	values := []float64{5, 1, 9, 3, 3, 8, 2}
	st := statsFor(t, values)
	n := Normalizer{Epsilon: DefaultEpsilon}

	for _, m := range []Method{MinMax, RobustMinMax} {
		out := n.Normalize(st, m, values)
		for i, v := range values {
			assert.Equal(t, out[i], n.Point(st, m, v))
		}
	}
}
