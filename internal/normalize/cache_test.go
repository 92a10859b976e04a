package normalize

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowIndices(t *testing.T) {
	ts := []float64{0, 10, 20, 30, 40}

	tests := []struct {
		name   string
		w      Window
		lo, hi int
	}{
		{"whole", Window{0, 40}, 0, 5},
		{"inclusive both ends", Window{10, 30}, 1, 4},
		{"between samples", Window{5, 25}, 1, 3},
		{"before data", Window{-10, -1}, 0, 0},
		{"after data", Window{41, 50}, 5, 5},
		{"single point", Window{20, 20}, 2, 3},
		{"inverted", Window{30, 10}, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := WindowIndices(ts, tt.w)
			assert.Equal(t, tt.lo, lo)
			assert.Equal(t, tt.hi, hi)
		})
	}
}

func TestCache_EntireSeries(t *testing.T) {
	c := NewCache(5, 95)
	ts := []float64{1, 2, 3, 4, 5}
	values := []float64{1, 2, 3, 4, 100}

	st, err := c.Compute("FT-101", ts, values, EntireSeries, Window{Lo: 2, Hi: 3})
	require.NoError(t, err)
	assert.Equal(t, EntireSeries, st.Scope)
	assert.Equal(t, Window{}, st.Window, "window is not recorded for entire-series stats")
	assert.Equal(t, 5, st.Count)
	assert.InDelta(t, 1.2, st.Low, 1e-12)
	assert.InDelta(t, 80.8, st.High, 1e-12)

	got, ok := c.Get("FT-101")
	require.True(t, ok)
	assert.Equal(t, st, got)
}

func TestCache_VisibleWindow(t *testing.T) {
	c := NewCache(5, 95)
	ts := []float64{0, 10, 20, 30, 40}
	values := []float64{100, 1, 2, 3, -100}

	st, err := c.Compute("TI-200", ts, values, VisibleWindow, Window{Lo: 10, Hi: 30})
	require.NoError(t, err)
	assert.Equal(t, VisibleWindow, st.Scope)
	assert.Equal(t, Window{Lo: 10, Hi: 30}, st.Window)
	assert.Equal(t, 3, st.Count)
	assert.Equal(t, 1.0, st.Min)
	assert.Equal(t, 3.0, st.Max)
}

func TestCache_EmptyWindowKeepsPrevious(t *testing.T) {
	c := NewCache(5, 95)
	ts := []float64{0, 10, 20}
	values := []float64{1, 2, 3}

	prev, err := c.Compute("PI-7", ts, values, VisibleWindow, Window{Lo: 0, Hi: 20})
	require.NoError(t, err)

	got, err := c.Compute("PI-7", ts, values, VisibleWindow, Window{Lo: 100, Hi: 200})
	assert.True(t, errors.Is(err, ErrEmptyWindow))
	assert.Equal(t, prev, got)

	cached, ok := c.Get("PI-7")
	require.True(t, ok)
	assert.Equal(t, prev, cached, "empty window must not overwrite cached stats")
}

func TestCache_EmptyWindowWithoutPrevious(t *testing.T) {
	c := NewCache(5, 95)
	_, err := c.Compute("new", []float64{0, 1}, []float64{math.NaN(), math.NaN()}, VisibleWindow, Window{Lo: 0, Hi: 1})
	assert.ErrorIs(t, err, ErrEmptyWindow)
	_, ok := c.Get("new")
	assert.False(t, ok)
}

func TestCache_Errors(t *testing.T) {
	c := NewCache(5, 95)

	_, err := c.Compute("x", []float64{0}, []float64{math.NaN()}, EntireSeries, Window{})
	assert.ErrorIs(t, err, ErrNoSamples)

	_, err = c.Compute("x", []float64{0, 1}, []float64{1}, EntireSeries, Window{})
	assert.Error(t, err)

	_, err = c.Compute("x", []float64{0}, []float64{1}, Scope("zoomed"), Window{})
	assert.ErrorIs(t, err, ErrInvalidScope)
	assert.Zero(t, c.Len())
}

func TestCache_OverwriteDeleteClear(t *testing.T) {
	c := NewCache(5, 95)
	ts := []float64{0, 1}

	_, err := c.Compute("a", ts, []float64{0, 1}, EntireSeries, Window{})
	require.NoError(t, err)
	st, err := c.Compute("a", ts, []float64{0, 9}, EntireSeries, Window{})
	require.NoError(t, err)
	assert.Equal(t, 9.0, st.Max)
	assert.Equal(t, 1, c.Len())

	_, err = c.Compute("b", ts, []float64{0, 1}, EntireSeries, Window{})
	require.NoError(t, err)
	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Zero(t, c.Len())
}

func TestParseMethodAndScope(t *testing.T) {
	m, err := ParseMethod("robust_minmax")
	require.NoError(t, err)
	assert.Equal(t, RobustMinMax, m)

	_, err = ParseMethod("zscore")
	assert.ErrorIs(t, err, ErrInvalidMethod)

	s, err := ParseScope("visible_window")
	require.NoError(t, err)
	assert.Equal(t, VisibleWindow, s)

	_, err = ParseScope("")
	assert.ErrorIs(t, err, ErrInvalidScope)

	assert.True(t, MinMax.Valid())
	assert.False(t, Method("MINMAX").Valid())
	assert.True(t, EntireSeries.Valid())
}
