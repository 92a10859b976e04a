package chart

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/trendview/internal/axis"
	"github.com/banshee-data/trendview/internal/monitoring"
	"github.com/banshee-data/trendview/internal/normalize"
)

// compareState is either inactive{} or *active. The snapshot lives inside
// *active, so it exists exactly while Compare Mode is on.
type compareState interface {
	compareActive() bool
}

type inactive struct{}

func (inactive) compareActive() bool { return false }

type active struct {
	snapshot    *Snapshot
	unsubscribe func()
	// signals plotted during Compare Mode; they get a scale group on exit
	unclassified map[string]bool
}

func (*active) compareActive() bool { return true }

// Series is a drawn (x, y) pair.
type Series struct {
	X []float64
	Y []float64
}

// Snapshot records what Compare Mode has to put back on exit. Series hold
// deep copies so nothing done while the mode is on can alter them.
type Snapshot struct {
	ID               uuid.UUID
	Taken            time.Time
	Groups           map[string]axis.GroupID
	SecondaryVisible bool
	PrimaryLabel     string
	YLocked          bool
	Series           map[string]Series
}

func (e *Engine) takeSnapshot() *Snapshot {
	snap := &Snapshot{
		ID:               uuid.New(),
		Taken:            e.clock.Now(),
		Groups:           make(map[string]axis.GroupID, len(e.order)),
		SecondaryVisible: e.secondaryVisible(),
		PrimaryLabel:     e.axisLabel(axis.Primary),
		YLocked:          e.yLocked,
		Series:           make(map[string]Series, len(e.order)),
	}
	for _, id := range e.order {
		sig := e.signals[id]
		g, _ := e.registry.GroupOf(id)
		snap.Groups[id] = g
		snap.Series[id] = Series{X: slices.Clone(sig.ts), Y: slices.Clone(sig.values)}
	}
	return snap
}

// EnableCompare draws every signal as a 0-100% series on the primary
// scale, locks that scale to [0, 100] and relabels it. If any step fails
// the previous appearance is restored as far as possible and a
// *TransitionError is returned; the engine stays inactive.
func (e *Engine) EnableCompare() error {
	var ev events
	e.mu.Lock()
	err := e.enableCompare(&ev)
	e.mu.Unlock()
	e.dispatch(ev)
	return err
}

func (e *Engine) enableCompare(ev *events) error {
	if e.state.compareActive() {
		return ErrCompareModeActive
	}

	act := &active{
		snapshot:     e.takeSnapshot(),
		unclassified: make(map[string]bool),
	}
	if err := e.enter(act); err != nil {
		opsf("enable compare mode failed, rolling back: %v", err)
		e.rollback(act)
		return &TransitionError{Op: "enable", Err: err}
	}

	e.state = act
	ev.modes = append(ev.modes, true)
	diagf("compare mode on: snapshot %s, %d signals, method %s, scope %s",
		act.snapshot.ID, len(e.order), e.method, e.scope)
	return nil
}

func (e *Engine) enter(act *active) error {
	if act.snapshot.SecondaryVisible {
		if err := e.surface.SetAxisVisible(axis.Secondary, false); err != nil {
			return fmt.Errorf("hide secondary axis: %w", err)
		}
	}

	win := e.window()
	for _, id := range e.order {
		if err := e.renderNormalized(e.signals[id], win); err != nil {
			return fmt.Errorf("normalize %s: %w", id, err)
		}
	}

	if err := e.surface.SetRange(Y, 0, 100); err != nil {
		return fmt.Errorf("lock y range: %w", err)
	}
	if err := e.surface.SetInteractive(Y, false); err != nil {
		return fmt.Errorf("disable y interaction: %w", err)
	}
	if err := e.surface.SetAxisLabel(axis.Primary, e.normalizedLabel); err != nil {
		return fmt.Errorf("relabel primary axis: %w", err)
	}
	if e.scope == normalize.VisibleWindow {
		act.unsubscribe = e.subscribe()
	}
	return nil
}

// rollback undoes a partial enter. Failures are logged, not returned.
func (e *Engine) rollback(act *active) {
	snap := act.snapshot
	e.stopViewport(act)
	for _, id := range e.order {
		s := snap.Series[id]
		e.note("rollback: restore "+id, e.surface.Render(id, snap.Groups[id], s.X, s.Y))
	}
	e.note("rollback: y interaction", e.surface.SetInteractive(Y, !snap.YLocked))
	e.note("rollback: y range", e.surface.AutoRange(Y))
	e.note("rollback: primary label", e.surface.SetAxisLabel(axis.Primary, snap.PrimaryLabel))
	e.note("rollback: secondary axis", e.surface.SetAxisVisible(axis.Secondary, snap.SecondaryVisible))
	e.cache.Clear()
}

// DisableCompare restores the original series and scale assignments. The
// engine always ends up inactive; restoration failures are collected into
// a *TransitionError. Signals added during Compare Mode are classified
// now, and any that fit neither scale are removed and reported through
// OnOverflow.
func (e *Engine) DisableCompare() error {
	var ev events
	e.mu.Lock()
	err := e.disableCompare(&ev)
	e.mu.Unlock()
	e.dispatch(ev)
	return err
}

func (e *Engine) disableCompare(ev *events) error {
	act, ok := e.state.(*active)
	if !ok {
		return ErrCompareModeInactive
	}
	snap := act.snapshot
	var errs []error

	e.stopViewport(act)
	errs = append(errs, e.classifyPending(act, ev)...)

	for _, id := range e.order {
		sig := e.signals[id]
		x, y := sig.ts, sig.values
		if s, ok := snap.Series[id]; ok {
			x, y = s.X, s.Y
		}
		g, _ := e.registry.GroupOf(id)
		errs = appendErr(errs, "restore "+id, e.surface.Render(id, g, x, y))
	}
	errs = appendErr(errs, "restore y interaction", e.surface.SetInteractive(Y, !e.yLocked))
	errs = appendErr(errs, "fit y range", e.surface.AutoRange(Y))
	errs = appendErr(errs, "axis labels", e.refreshLabels())
	errs = appendErr(errs, "secondary axis", e.surface.SetAxisVisible(axis.Secondary, e.secondaryVisible()))

	e.cache.Clear()
	e.state = inactive{}
	ev.modes = append(ev.modes, false)
	diagf("compare mode off: snapshot %s taken %s released after %s",
		snap.ID, snap.Taken.Format(time.RFC3339), e.clock.Since(snap.Taken))

	if len(errs) > 0 {
		err := errors.Join(errs...)
		opsf("disable compare mode: %v", err)
		return &TransitionError{Op: "disable", Err: err}
	}
	return nil
}

// classifyPending assigns scale groups to signals added in Compare Mode,
// in the order they were added.
func (e *Engine) classifyPending(act *active, ev *events) []error {
	var errs []error
	for _, id := range slices.Clone(e.order) {
		if !act.unclassified[id] {
			continue
		}
		delete(act.unclassified, id)
		g, err := e.registry.Assign(id, e.signals[id].magnitude)
		if err == nil {
			diagf("classified %s onto %s", id, g)
			continue
		}
		if !errors.Is(err, axis.ErrMaxScalesReached) {
			errs = append(errs, fmt.Errorf("classify %s: %w", id, err))
			continue
		}
		monitoring.Warnf("removing %s on compare mode exit: %v", id, err)
		errs = appendErr(errs, "remove "+id, e.surface.Remove(id))
		e.forget(id)
		ev.overflow = append(ev.overflow, id)
		if len(e.order) == 0 {
			ev.last = true
		}
	}
	return errs
}

// CompareActive reports whether Compare Mode is on.
func (e *Engine) CompareActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.compareActive()
}

// SnapshotID returns the id of the current Compare Mode snapshot.
func (e *Engine) SnapshotID() (uuid.UUID, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if act, ok := e.state.(*active); ok {
		return act.snapshot.ID, true
	}
	return uuid.Nil, false
}

// Method returns the normalisation method.
func (e *Engine) Method() normalize.Method {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.method
}

// Scope returns the normalisation scope.
func (e *Engine) Scope() normalize.Scope {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scope
}

// SetMethod changes the normalisation method. An unknown method is
// ignored with a warning and normalize.ErrInvalidMethod. In Compare Mode
// the cached statistics are reapplied with the new method.
func (e *Engine) SetMethod(m normalize.Method) error {
	if !m.Valid() {
		monitoring.Warnf("ignoring normalization method %q", m)
		return fmt.Errorf("%w: %q", normalize.ErrInvalidMethod, m)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if m == e.method {
		return nil
	}
	e.method = m
	diagf("method set to %s", m)
	if !e.state.compareActive() {
		return nil
	}
	return e.reapply()
}

// SetScope changes the normalisation scope. An unknown scope is ignored
// with a warning and normalize.ErrInvalidScope. In Compare Mode the
// statistics are recomputed and the viewport subscription follows the
// scope.
func (e *Engine) SetScope(s normalize.Scope) error {
	if !s.Valid() {
		monitoring.Warnf("ignoring normalization scope %q", s)
		return fmt.Errorf("%w: %q", normalize.ErrInvalidScope, s)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if s == e.scope {
		return nil
	}
	e.scope = s
	diagf("scope set to %s", s)

	act, ok := e.state.(*active)
	if !ok {
		return nil
	}
	switch {
	case s == normalize.VisibleWindow && act.unsubscribe == nil:
		act.unsubscribe = e.subscribe()
	case s == normalize.EntireSeries:
		e.stopViewport(act)
	}
	return e.recompute(e.window())
}

func (e *Engine) subscribe() func() {
	return e.surface.OnViewportChanged(X, e.watcher.Notify)
}

func (e *Engine) stopViewport(act *active) {
	if act.unsubscribe != nil {
		act.unsubscribe()
		act.unsubscribe = nil
	}
	e.watcher.Cancel()
}

// viewportSettled runs once a burst of viewport changes has gone quiet.
func (e *Engine) viewportSettled(lo, hi float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.compareActive() || e.scope != normalize.VisibleWindow {
		tracef("stale viewport recompute for [%g, %g] ignored", lo, hi)
		return
	}
	tracef("recomputing %d signals for window [%g, %g]", len(e.order), lo, hi)
	if err := e.recompute(normalize.Window{Lo: lo, Hi: hi}); err != nil {
		opsf("viewport recompute: %v", err)
	}
}

// window returns the bounds statistics are computed over for the current
// scope.
func (e *Engine) window() normalize.Window {
	if e.scope != normalize.VisibleWindow {
		return normalize.Window{}
	}
	lo, hi := e.surface.VisibleRange(X)
	return normalize.Window{Lo: lo, Hi: hi}
}

// recompute refreshes statistics for every signal and redraws it.
func (e *Engine) recompute(win normalize.Window) error {
	var errs []error
	for _, id := range e.order {
		errs = appendErr(errs, "normalize "+id, e.renderNormalized(e.signals[id], win))
	}
	return errors.Join(errs...)
}

// reapply redraws every signal from its cached statistics.
func (e *Engine) reapply() error {
	var errs []error
	win := e.window()
	for _, id := range e.order {
		sig := e.signals[id]
		st, ok := e.cache.Get(id)
		if !ok {
			errs = appendErr(errs, "normalize "+id, e.renderNormalized(sig, win))
			continue
		}
		norm := e.normalizer.Normalize(st, e.method, sig.values)
		errs = appendErr(errs, "render "+id, e.surface.Render(id, axis.Primary, sig.ts, norm))
	}
	return errors.Join(errs...)
}

// renderNormalized computes statistics for sig and draws it normalised on
// the primary scale.
func (e *Engine) renderNormalized(sig *signal, win normalize.Window) error {
	st, err := e.computeStats(sig, win)
	if err != nil {
		return err
	}
	return e.surface.Render(sig.id, axis.Primary, sig.ts, e.normalizer.Normalize(st, e.method, sig.values))
}

// computeStats caches statistics for sig. An empty visible window keeps
// the previous statistics; with none cached it falls back to the entire
// series.
func (e *Engine) computeStats(sig *signal, win normalize.Window) (normalize.Stats, error) {
	st, err := e.cache.Compute(sig.id, sig.ts, sig.values, e.scope, win)
	if !errors.Is(err, normalize.ErrEmptyWindow) {
		return st, err
	}
	if prev, ok := e.cache.Get(sig.id); ok {
		tracef("%s: window [%g, %g] empty, keeping previous stats", sig.id, win.Lo, win.Hi)
		return prev, nil
	}
	tracef("%s: window [%g, %g] empty, using entire series", sig.id, win.Lo, win.Hi)
	return e.cache.Compute(sig.id, sig.ts, sig.values, normalize.EntireSeries, normalize.Window{})
}
