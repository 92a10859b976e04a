package chart

import "errors"

var (
	// ErrUnknownSignal is returned for operations on a signal that is not
	// plotted.
	ErrUnknownSignal = errors.New("signal not plotted")
	// ErrAlreadyPlotted is returned when adding a signal twice.
	ErrAlreadyPlotted = errors.New("signal already plotted")
	// ErrNoSamples is returned when a signal has no finite samples.
	ErrNoSamples = errors.New("signal has no finite samples")
	// ErrCompareModeActive is returned by EnableCompare when already
	// active and by axis moves, which are rejected in Compare Mode.
	ErrCompareModeActive = errors.New("compare mode active")
	// ErrCompareModeInactive is returned by DisableCompare when Compare
	// Mode is off.
	ErrCompareModeInactive = errors.New("compare mode inactive")
	// ErrUnsupportedMove is returned for moves to anything but the
	// primary or secondary scale.
	ErrUnsupportedMove = errors.New("signals can only move between primary and secondary scales")
)

// TransitionError reports a failure while entering or leaving Compare
// Mode. A failed enable leaves the engine inactive. A failed disable has
// still left Compare Mode.
type TransitionError struct {
	Op  string // "enable" or "disable"
	Err error
}

func (e *TransitionError) Error() string {
	return "compare mode " + e.Op + ": " + e.Err.Error()
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}
