// Package chart keeps plotted signals on at most two shared Y scales and
// switches them in and out of Compare Mode, where every signal is drawn as
// a 0-100% series on a single scale.
//
// The Engine owns the scale-group registry and the statistics cache. All
// of its methods serialise on one mutex, including the debounced viewport
// recomputation, so a Surface or DataProvider never sees concurrent calls
// from the engine.
package chart

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/banshee-data/trendview/internal/axis"
	"github.com/banshee-data/trendview/internal/config"
	"github.com/banshee-data/trendview/internal/monitoring"
	"github.com/banshee-data/trendview/internal/normalize"
	"github.com/banshee-data/trendview/internal/stats"
	"github.com/banshee-data/trendview/internal/timeutil"
	"github.com/banshee-data/trendview/internal/viewport"
)

// signal is the engine's record of one plotted signal. ts and values are
// the provider's arrays and are never written to.
type signal struct {
	id        string
	unit      string
	ts        []float64
	values    []float64
	magnitude float64
}

// EngineConfig configures an Engine. Every field is optional.
type EngineConfig struct {
	Settings *config.ViewerConfig
	Observer Observer
	Clock    timeutil.Clock
}

// Engine assigns signals to scales and runs Compare Mode.
type Engine struct {
	mu sync.Mutex

	surface         Surface
	provider        DataProvider
	observer        Observer
	clock           timeutil.Clock
	normalizedLabel string

	registry   *axis.Registry
	cache      *normalize.Cache
	normalizer normalize.Normalizer
	watcher    *viewport.Watcher

	signals map[string]*signal
	order   []string
	labels  map[axis.GroupID]string // custom axis titles
	yLocked bool
	method  normalize.Method
	scope   normalize.Scope
	state   compareState
}

// NewEngine returns an engine drawing on surface with samples from
// provider.
func NewEngine(surface Surface, provider DataProvider, cfg EngineConfig) *Engine {
	settings := cfg.Settings
	if settings == nil {
		settings = config.DefaultViewerConfig()
	}
	observer := cfg.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	delta, useDelta := settings.GetZeroReferenceDelta()
	e := &Engine{
		surface:         surface,
		provider:        provider,
		observer:        observer,
		clock:           clock,
		normalizedLabel: settings.GetNormalizedAxisLabel(),
		registry: axis.NewRegistry(axis.Options{
			Threshold:             settings.GetMagnitudeThreshold(),
			ZeroReferenceDelta:    delta,
			UseZeroReferenceDelta: useDelta,
		}),
		cache:      normalize.NewCache(settings.GetRobustLowPercentile(), settings.GetRobustHighPercentile()),
		normalizer: normalize.Normalizer{Epsilon: settings.GetFlatEpsilon()},
		signals:    make(map[string]*signal),
		labels:     make(map[axis.GroupID]string),
		method:     settings.GetDefaultMethod(),
		scope:      settings.GetDefaultScope(),
		state:      inactive{},
	}
	e.watcher = viewport.NewWatcher(clock, settings.GetDebounceInterval(), e.viewportSettled)
	return e
}

// AddSignal plots id. Outside Compare Mode the signal is classified onto
// the primary or secondary scale; axis.ErrMaxScalesReached means it fits
// neither and nothing was plotted. In Compare Mode it goes straight onto
// the shared scale, normalised, and is classified when the mode ends.
func (e *Engine) AddSignal(id string) (axis.GroupID, error) {
	var ev events
	e.mu.Lock()
	g, err := e.addSignal(id, &ev)
	e.mu.Unlock()
	e.dispatch(ev)
	return g, err
}

func (e *Engine) addSignal(id string, ev *events) (axis.GroupID, error) {
	if _, ok := e.signals[id]; ok {
		return axis.NoGroup, fmt.Errorf("%w: %s", ErrAlreadyPlotted, id)
	}
	sig, err := e.load(id)
	if err != nil {
		return axis.NoGroup, err
	}

	g := axis.Primary
	if act, ok := e.state.(*active); ok {
		if err := e.renderNormalized(sig, e.window()); err != nil {
			e.cache.Delete(id)
			return axis.NoGroup, fmt.Errorf("render %s: %w", id, err)
		}
		act.unclassified[id] = true
	} else {
		g, err = e.registry.Assign(id, sig.magnitude)
		if err != nil {
			if errors.Is(err, axis.ErrMaxScalesReached) {
				monitoring.Warnf("cannot plot %s: %v", id, err)
				ev.overflow = append(ev.overflow, id)
			}
			return axis.NoGroup, err
		}
		if err := e.surface.Render(id, g, sig.ts, sig.values); err != nil {
			e.registry.Remove(id)
			return axis.NoGroup, fmt.Errorf("render %s: %w", id, err)
		}
	}

	e.signals[id] = sig
	e.order = append(e.order, id)
	if !e.state.compareActive() {
		e.note("show secondary axis", e.surface.SetAxisVisible(axis.Secondary, e.secondaryVisible()))
		e.note("axis labels", e.refreshLabels())
	}
	if len(e.order) == 1 {
		ev.first = true
	}
	diagf("plotted %s on %s (magnitude %.6g)", id, g, sig.magnitude)
	return g, nil
}

// RemoveSignal erases id and drops it from its scale group. A secondary
// axis left without members is hidden.
func (e *Engine) RemoveSignal(id string) error {
	var ev events
	e.mu.Lock()
	err := e.removeSignal(id, &ev)
	e.mu.Unlock()
	e.dispatch(ev)
	return err
}

func (e *Engine) removeSignal(id string, ev *events) error {
	if _, ok := e.signals[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSignal, id)
	}
	if err := e.surface.Remove(id); err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	e.forget(id)

	if !e.state.compareActive() {
		e.note("hide secondary axis", e.surface.SetAxisVisible(axis.Secondary, e.secondaryVisible()))
		e.note("axis labels", e.refreshLabels())
	}
	if len(e.order) == 0 {
		ev.last = true
	}
	diagf("removed %s", id)
	return nil
}

// forget drops every record of id without touching the surface.
func (e *Engine) forget(id string) {
	e.registry.Remove(id)
	e.cache.Delete(id)
	if act, ok := e.state.(*active); ok {
		delete(act.snapshot.Groups, id)
		delete(act.snapshot.Series, id)
		delete(act.unclassified, id)
	}
	delete(e.signals, id)
	if i := slices.Index(e.order, id); i >= 0 {
		e.order = slices.Delete(e.order, i, i+1)
	}
}

// Clear removes every signal, leaves Compare Mode and drops custom axis
// labels. It is used when the active dataset is replaced.
func (e *Engine) Clear() error {
	var ev events
	e.mu.Lock()
	err := e.clear(&ev)
	e.mu.Unlock()
	e.dispatch(ev)
	return err
}

func (e *Engine) clear(ev *events) error {
	var errs []error
	if act, ok := e.state.(*active); ok {
		e.stopViewport(act)
		e.state = inactive{}
		ev.modes = append(ev.modes, false)
		errs = appendErr(errs, "restore y interaction", e.surface.SetInteractive(Y, !e.yLocked))
		errs = appendErr(errs, "fit y range", e.surface.AutoRange(Y))
	}
	for _, id := range e.order {
		errs = appendErr(errs, "remove "+id, e.surface.Remove(id))
	}
	had := len(e.order) > 0

	e.signals = make(map[string]*signal)
	e.order = nil
	e.labels = make(map[axis.GroupID]string)
	e.registry.Reset()
	e.cache.Clear()

	errs = appendErr(errs, "hide secondary axis", e.surface.SetAxisVisible(axis.Secondary, false))
	errs = appendErr(errs, "axis labels", e.refreshLabels())
	if had {
		ev.last = true
	}
	diagf("cleared all signals")
	return errors.Join(errs...)
}

// UpdateSignal reloads id from the provider after its data changed and
// redraws it. The signal keeps its scale group. In Compare Mode the stored
// original series is replaced too, so leaving the mode shows the new data.
func (e *Engine) UpdateSignal(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.signals[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSignal, id)
	}
	fresh, err := e.load(id)
	if err != nil {
		return err
	}

	if act, ok := e.state.(*active); ok {
		if err := e.renderNormalized(fresh, e.window()); err != nil {
			return fmt.Errorf("render %s: %w", id, err)
		}
		// signals added in Compare Mode have no snapshot entry; exit draws e.signals
		if _, ok := act.snapshot.Series[id]; ok {
			act.snapshot.Series[id] = Series{X: slices.Clone(fresh.ts), Y: slices.Clone(fresh.values)}
		}
		e.signals[id] = fresh
		return nil
	}

	g, _ := e.registry.GroupOf(id)
	if err := e.surface.Render(id, g, fresh.ts, fresh.values); err != nil {
		return fmt.Errorf("render %s: %w", id, err)
	}
	e.signals[id] = fresh
	e.note("axis labels", e.refreshLabels())
	return nil
}

// MoveSignal moves id between the primary and secondary scales on user
// request. It is rejected with ErrCompareModeActive while every signal
// shares one scale.
func (e *Engine) MoveSignal(id string, to axis.GroupID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.compareActive() {
		monitoring.Warnf("axis move of %s ignored in compare mode", id)
		return fmt.Errorf("%w: cannot move %s", ErrCompareModeActive, id)
	}
	sig, ok := e.signals[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSignal, id)
	}
	if to != axis.Primary && to != axis.Secondary {
		return fmt.Errorf("%w: %s", ErrUnsupportedMove, to)
	}
	from, _ := e.registry.GroupOf(id)
	if from == to {
		return nil
	}

	if err := e.registry.Move(id, to, sig.magnitude); err != nil {
		return err
	}
	if err := e.surface.Render(id, to, sig.ts, sig.values); err != nil {
		if merr := e.registry.Move(id, from, sig.magnitude); merr != nil {
			opsf("restoring %s to %s: %v", id, from, merr)
		}
		return fmt.Errorf("render %s: %w", id, err)
	}
	e.note("secondary axis", e.surface.SetAxisVisible(axis.Secondary, e.secondaryVisible()))
	e.note("axis labels", e.refreshLabels())
	diagf("moved %s from %s to %s", id, from, to)
	return nil
}

// Signals returns the plotted signal ids in the order they were added.
func (e *Engine) Signals() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.order)
}

// AxisOf returns the scale id is drawn against. In Compare Mode that is
// always the primary scale.
func (e *Engine) AxisOf(id string) (axis.GroupID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.signals[id]; !ok {
		return axis.NoGroup, fmt.Errorf("%w: %s", ErrUnknownSignal, id)
	}
	if e.state.compareActive() {
		return axis.Primary, nil
	}
	g, _ := e.registry.GroupOf(id)
	return g, nil
}

// SetAxisLabel sets a custom title for a scale. An empty label restores
// the title built from member units. In Compare Mode a primary label is
// kept for when the mode ends.
func (e *Engine) SetAxisLabel(g axis.GroupID, label string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if g != axis.Primary && g != axis.Secondary {
		return fmt.Errorf("%w: %s", axis.ErrInvalidGroup, g)
	}
	if label == "" {
		delete(e.labels, g)
	} else {
		e.labels[g] = label
	}
	if e.state.compareActive() && g == axis.Primary {
		return nil
	}
	return e.surface.SetAxisLabel(g, e.axisLabel(g))
}

// AxisLabel returns the normal-mode title of a scale.
func (e *Engine) AxisLabel(g axis.GroupID) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.axisLabel(g)
}

// SetYLock toggles zoom and pan on the value dimension. In Compare Mode
// the dimension stays locked and the setting applies when the mode ends.
func (e *Engine) SetYLock(locked bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.yLocked = locked
	if e.state.compareActive() {
		return nil
	}
	return e.surface.SetInteractive(Y, !locked)
}

// YLocked reports the Y-lock setting.
func (e *Engine) YLocked() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.yLocked
}

// Stats returns the cached normalisation statistics for id. The cache is
// only populated in Compare Mode.
func (e *Engine) Stats(id string) (normalize.Stats, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.Get(id)
}

// Reading is a cursor readout of one signal.
type Reading struct {
	Signal string
	Index  int
	Time   float64
	Raw    float64
	// Value is what is drawn: the normalised percentage in Compare Mode,
	// the raw value otherwise.
	Value      float64
	Unit       string
	Normalized bool
}

// Readout returns the sample of id nearest to time x.
func (e *Engine) Readout(id string, x float64) (Reading, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sig, ok := e.signals[id]
	if !ok {
		return Reading{}, fmt.Errorf("%w: %s", ErrUnknownSignal, id)
	}
	i := nearest(sig.ts, x)
	if i < 0 {
		return Reading{}, fmt.Errorf("%w: %s", ErrNoSamples, id)
	}

	r := Reading{
		Signal: id,
		Index:  i,
		Time:   sig.ts[i],
		Raw:    sig.values[i],
		Value:  sig.values[i],
		Unit:   sig.unit,
	}
	if e.state.compareActive() {
		if st, ok := e.cache.Get(id); ok {
			r.Value = e.normalizer.Point(st, e.method, r.Raw)
			r.Normalized = true
		}
	}
	return r, nil
}

// nearest returns the index of the timestamp closest to x, preferring the
// earlier sample on a tie; -1 for an empty slice.
func nearest(ts []float64, x float64) int {
	if len(ts) == 0 {
		return -1
	}
	i := sort.SearchFloat64s(ts, x)
	if i == len(ts) {
		return i - 1
	}
	if i > 0 && x-ts[i-1] <= ts[i]-x {
		return i - 1
	}
	return i
}

func (e *Engine) load(id string) (*signal, error) {
	ts, values, err := e.provider.Samples(id)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	if len(ts) != len(values) {
		return nil, fmt.Errorf("load %s: %d timestamps but %d values", id, len(ts), len(values))
	}
	mag, ok := stats.Magnitude(values)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSamples, id)
	}
	return &signal{
		id:        id,
		unit:      e.provider.Unit(id),
		ts:        ts,
		values:    values,
		magnitude: mag,
	}, nil
}

func (e *Engine) secondaryVisible() bool {
	return len(e.registry.Members(axis.Secondary)) > 0
}

func (e *Engine) axisLabel(g axis.GroupID) string {
	if l, ok := e.labels[g]; ok {
		return l
	}
	var units []string
	for _, id := range e.registry.Members(g) {
		if sig, ok := e.signals[id]; ok {
			units = append(units, sig.unit)
		}
	}
	return axis.Label(g, units)
}

// refreshLabels pushes the normal-mode titles to the surface.
func (e *Engine) refreshLabels() error {
	err := e.surface.SetAxisLabel(axis.Primary, e.axisLabel(axis.Primary))
	if e.registry.HasSecondary() {
		err = errors.Join(err, e.surface.SetAxisLabel(axis.Secondary, e.axisLabel(axis.Secondary)))
	}
	return err
}

// note logs a non-fatal surface failure.
func (e *Engine) note(op string, err error) {
	if err != nil {
		opsf("%s: %v", op, err)
	}
}

func appendErr(errs []error, op string, err error) []error {
	if err == nil {
		return errs
	}
	return append(errs, fmt.Errorf("%s: %w", op, err))
}
