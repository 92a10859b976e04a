// Package surface provides chart.Surface implementations: an in-memory
// surface that records what the engine draws, and exporters that turn a
// recorded frame into a PNG (gonum/plot) or an HTML page (go-echarts).
package surface

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/banshee-data/trendview/internal/axis"
	"github.com/banshee-data/trendview/internal/chart"
)

// Trace is one drawn series.
type Trace struct {
	ID   string
	Axis axis.GroupID
	X    []float64
	Y    []float64
}

type subscription struct {
	id int
	fn func(lo, hi float64)
}

// Memory is a chart.Surface that keeps everything in memory. It is safe
// for concurrent use. Viewport callbacks run without the lock held.
type Memory struct {
	mu sync.Mutex

	traces      map[string]*Trace
	order       []string // first-render order
	renders     map[string]int
	ranges      map[chart.Dimension][2]float64 // fixed ranges; absent means auto
	interactive map[chart.Dimension]bool
	labels      map[axis.GroupID]string
	visible     map[axis.GroupID]bool
	subs        map[chart.Dimension][]subscription
	nextSub     int
}

// NewMemory returns an empty surface with both dimensions interactive and
// auto-ranged, and only the primary axis visible.
func NewMemory() *Memory {
	return &Memory{
		traces:      make(map[string]*Trace),
		renders:     make(map[string]int),
		ranges:      make(map[chart.Dimension][2]float64),
		interactive: map[chart.Dimension]bool{chart.X: true, chart.Y: true},
		labels:      make(map[axis.GroupID]string),
		visible:     map[axis.GroupID]bool{axis.Primary: true},
		subs:        make(map[chart.Dimension][]subscription),
	}
}

// Render stores copies of x and y for id.
func (m *Memory) Render(id string, g axis.GroupID, x, y []float64) error {
	if len(x) != len(y) {
		return fmt.Errorf("render %s: %d x values but %d y values", id, len(x), len(y))
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.traces[id]; !ok {
		m.order = append(m.order, id)
	}
	m.traces[id] = &Trace{ID: id, Axis: g, X: slices.Clone(x), Y: slices.Clone(y)}
	m.renders[id]++
	return nil
}

// Remove drops the trace for id.
func (m *Memory) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.traces[id]; !ok {
		return fmt.Errorf("remove %s: not drawn", id)
	}
	delete(m.traces, id)
	if i := slices.Index(m.order, id); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
	return nil
}

// SetRange fixes the range of d. It does not notify viewport subscribers;
// use SetVisibleRange to simulate a user pan.
func (m *Memory) SetRange(d chart.Dimension, lo, hi float64) error {
	if lo > hi {
		return fmt.Errorf("set %s range: lo %g > hi %g", d, lo, hi)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ranges[d] = [2]float64{lo, hi}
	return nil
}

// AutoRange makes d follow the extent of the drawn data.
func (m *Memory) AutoRange(d chart.Dimension) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ranges, d)
	return nil
}

// SetInteractive records whether zoom and pan are enabled on d.
func (m *Memory) SetInteractive(d chart.Dimension, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interactive[d] = enabled
	return nil
}

// VisibleRange returns the fixed range of d, or the data extent when d is
// auto-ranged. The Y extent covers primary-axis traces only.
func (m *Memory) VisibleRange(d chart.Dimension) (lo, hi float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visibleRange(d)
}

func (m *Memory) visibleRange(d chart.Dimension) (lo, hi float64) {
	if r, ok := m.ranges[d]; ok {
		return r[0], r[1]
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, t := range m.traces {
		vals := t.X
		if d == chart.Y {
			if t.Axis != axis.Primary {
				continue
			}
			vals = t.Y
		}
		for _, v := range vals {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if lo > hi {
		return 0, 1
	}
	return lo, hi
}

// OnViewportChanged registers fn for changes of d made through
// SetVisibleRange.
func (m *Memory) OnViewportChanged(d chart.Dimension, fn func(lo, hi float64)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSub++
	id := m.nextSub
	m.subs[d] = append(m.subs[d], subscription{id: id, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.subs[d] = slices.DeleteFunc(m.subs[d], func(s subscription) bool { return s.id == id })
	}
}

// SetVisibleRange simulates the user panning or zooming d: it fixes the
// range and notifies subscribers.
func (m *Memory) SetVisibleRange(d chart.Dimension, lo, hi float64) error {
	if err := m.SetRange(d, lo, hi); err != nil {
		return err
	}
	m.mu.Lock()
	subs := slices.Clone(m.subs[d])
	m.mu.Unlock()

	for _, s := range subs {
		s.fn(lo, hi)
	}
	return nil
}

// SetAxisLabel records the title of g.
func (m *Memory) SetAxisLabel(g axis.GroupID, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labels[g] = label
	return nil
}

// SetAxisVisible records whether g is shown.
func (m *Memory) SetAxisVisible(g axis.GroupID, visible bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible[g] = visible
	return nil
}

// Trace returns a copy of the trace for id.
func (m *Memory) Trace(id string) (Trace, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.traces[id]
	if !ok {
		return Trace{}, false
	}
	return Trace{ID: t.ID, Axis: t.Axis, X: slices.Clone(t.X), Y: slices.Clone(t.Y)}, true
}

// Traces returns copies of all traces in the order they were first drawn.
func (m *Memory) Traces() []Trace {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Trace, 0, len(m.order))
	for _, id := range m.order {
		t := m.traces[id]
		out = append(out, Trace{ID: t.ID, Axis: t.Axis, X: slices.Clone(t.X), Y: slices.Clone(t.Y)})
	}
	return out
}

// IDs returns the drawn trace ids, sorted.
func (m *Memory) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := slices.Clone(m.order)
	sort.Strings(ids)
	return ids
}

// RenderCount returns how many times id has been drawn.
func (m *Memory) RenderCount(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renders[id]
}

// FixedRange returns the fixed range of d; false when d is auto-ranged.
func (m *Memory) FixedRange(d chart.Dimension) (lo, hi float64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ranges[d]
	return r[0], r[1], ok
}

// Interactive reports whether zoom and pan are enabled on d.
func (m *Memory) Interactive(d chart.Dimension) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interactive[d]
}

// AxisLabel returns the title of g.
func (m *Memory) AxisLabel(g axis.GroupID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.labels[g]
}

// AxisVisible reports whether g is shown.
func (m *Memory) AxisVisible(g axis.GroupID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible[g]
}

// Subscribers returns the number of viewport callbacks registered for d.
func (m *Memory) Subscribers(d chart.Dimension) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs[d])
}

// Frame is a consistent copy of what the surface shows, used by the
// exporters.
type Frame struct {
	Traces    []Trace
	Labels    map[axis.GroupID]string
	Secondary bool
	// YRange is set when the primary scale has a fixed range.
	YRange *[2]float64
}

// Frame returns the current frame. Traces on a hidden secondary axis are
// left out.
func (m *Memory) Frame() Frame {
	m.mu.Lock()
	defer m.mu.Unlock()

	f := Frame{
		Labels:    map[axis.GroupID]string{axis.Primary: m.labels[axis.Primary], axis.Secondary: m.labels[axis.Secondary]},
		Secondary: m.visible[axis.Secondary],
	}
	for _, id := range m.order {
		t := m.traces[id]
		if t.Axis == axis.Secondary && !f.Secondary {
			continue
		}
		f.Traces = append(f.Traces, Trace{ID: t.ID, Axis: t.Axis, X: slices.Clone(t.X), Y: slices.Clone(t.Y)})
	}
	if r, ok := m.ranges[chart.Y]; ok {
		f.YRange = &r
	}
	return f
}
