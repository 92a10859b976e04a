// Package normalize maps raw series onto a common 0-100 percentage scale
// and caches the statistics each mapping is based on.
package normalize

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMethod is returned for a method outside {minmax, robust_minmax}.
	ErrInvalidMethod = errors.New("invalid normalization method")
	// ErrInvalidScope is returned for a scope outside {entire_series, visible_window}.
	ErrInvalidScope = errors.New("invalid normalization scope")
)

// Method selects which bounds map to 0% and 100%.
type Method string

const (
	// MinMax maps the series minimum to 0% and maximum to 100%.
	MinMax Method = "minmax"
	// RobustMinMax maps the low/high percentiles (5th/95th by default)
	// to 0% and 100% and clips anything outside.
	RobustMinMax Method = "robust_minmax"
)

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	return m == MinMax || m == RobustMinMax
}

// ParseMethod converts a config or CLI string to a Method.
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
	}
	return m, nil
}

// Scope selects which samples the statistics are computed over.
type Scope string

const (
	// EntireSeries computes statistics over every sample.
	EntireSeries Scope = "entire_series"
	// VisibleWindow computes statistics over the samples whose timestamps
	// fall inside the visible time window.
	VisibleWindow Scope = "visible_window"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s == EntireSeries || s == VisibleWindow
}

// ParseScope converts a config or CLI string to a Scope.
func ParseScope(s string) (Scope, error) {
	sc := Scope(s)
	if !sc.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidScope, s)
	}
	return sc, nil
}
