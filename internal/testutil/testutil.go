// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// ErrUnknownSeries is returned by Provider for ids it does not hold.
var ErrUnknownSeries = errors.New("unknown series")

type series struct {
	ts     []float64
	values []float64
	unit   string
}

// Provider is an in-memory sample provider for engine tests.
type Provider struct {
	mu     sync.Mutex
	series map[string]series
}

// NewProvider returns an empty provider.
func NewProvider() *Provider {
	return &Provider{series: make(map[string]series)}
}

// Set stores (or replaces) a series.
func (p *Provider) Set(id string, ts, values []float64, unit string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.series[id] = series{ts: slices.Clone(ts), values: slices.Clone(values), unit: unit}
}

// Samples returns the stored arrays for id. Callers must not modify them.
func (p *Provider) Samples(id string) ([]float64, []float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.series[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownSeries, id)
	}
	return s.ts, s.values, nil
}

// Unit returns the unit stored for id.
func (p *Provider) Unit(id string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.series[id].unit
}

// Timestamps returns n timestamps starting at t0 spaced step apart.
func Timestamps(n int, t0, step float64) []float64 {
	ts := make([]float64, n)
	for i := range ts {
		ts[i] = t0 + float64(i)*step
	}
	return ts
}

// Wave returns n samples oscillating around mean with the given
// amplitude, following a fixed saw-tooth so fixtures stay deterministic.
func Wave(n int, mean, amplitude float64) []float64 {
	v := make([]float64, n)
	for i := range v {
		phase := float64(i%8)/4 - 1 // -1 .. 0.75
		v[i] = mean + amplitude*phase
	}
	return v
}

// Constant returns n copies of c.
func Constant(n int, c float64) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = c
	}
	return v
}
