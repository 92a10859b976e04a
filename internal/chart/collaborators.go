package chart

import "github.com/banshee-data/trendview/internal/axis"

// Dimension is a plot dimension.
type Dimension int

const (
	// X is the shared time dimension.
	X Dimension = iota
	// Y is the value dimension of the primary scale.
	Y
)

func (d Dimension) String() string {
	if d == X {
		return "x"
	}
	return "y"
}

// Surface draws series. The engine refers to drawn series only by signal
// id and never holds drawing objects.
type Surface interface {
	// Render draws (or redraws) the series for id against the given scale.
	Render(id string, g axis.GroupID, x, y []float64) error
	// Remove erases the series for id.
	Remove(id string) error
	// SetRange fixes the range of a dimension.
	SetRange(d Dimension, lo, hi float64) error
	// AutoRange fits a dimension to the drawn data.
	AutoRange(d Dimension) error
	// SetInteractive enables or disables zoom and pan on a dimension.
	SetInteractive(d Dimension, enabled bool) error
	// VisibleRange returns the currently visible range of a dimension.
	VisibleRange(d Dimension) (lo, hi float64)
	// OnViewportChanged registers fn for changes of the visible range of
	// d. The returned function unregisters it.
	OnViewportChanged(d Dimension, fn func(lo, hi float64)) (cancel func())
	// SetAxisLabel sets the title of a scale's axis.
	SetAxisLabel(g axis.GroupID, label string) error
	// SetAxisVisible shows or hides a scale's axis.
	SetAxisVisible(g axis.GroupID, visible bool) error
}

// DataProvider supplies sample data for signals. Timestamps must be
// ascending.
type DataProvider interface {
	Samples(id string) (ts, values []float64, err error)
	Unit(id string) string
}
