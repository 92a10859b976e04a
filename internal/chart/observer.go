package chart

// Observer is told about changes a user interface reacts to: showing an
// empty-state placeholder, disabling axis controls in Compare Mode,
// reporting a signal that could not be placed. Callbacks run after the
// engine has released its lock, so they may call back into the engine.
type Observer interface {
	OnFirstSignal()
	OnLastSignalRemoved()
	OnModeChanged(compare bool)
	OnOverflow(id string)
}

// NopObserver ignores every notification. Embed it to implement only some
// of the callbacks.
type NopObserver struct{}

func (NopObserver) OnFirstSignal()       {}
func (NopObserver) OnLastSignalRemoved() {}
func (NopObserver) OnModeChanged(bool)   {}
func (NopObserver) OnOverflow(string)    {}

// events collects notifications while the engine lock is held.
type events struct {
	first    bool
	overflow []string
	modes    []bool
	last     bool
}

func (e *Engine) dispatch(ev events) {
	if ev.first {
		e.observer.OnFirstSignal()
	}
	for _, id := range ev.overflow {
		e.observer.OnOverflow(id)
	}
	for _, on := range ev.modes {
		e.observer.OnModeChanged(on)
	}
	if ev.last {
		e.observer.OnLastSignalRemoved()
	}
}
