package normalize

import (
	"errors"
	"fmt"
	"sort"

	"github.com/banshee-data/trendview/internal/stats"
)

var (
	// ErrEmptyWindow is returned when the visible window holds no finite
	// samples. The previously cached stats for the signal are kept.
	ErrEmptyWindow = errors.New("no samples in visible window")
	// ErrNoSamples is returned when a series has no finite samples at all.
	ErrNoSamples = errors.New("series has no finite samples")
)

// Cache holds the latest Stats per signal. It is not safe for concurrent
// use; the owning engine serialises access.
type Cache struct {
	lowPct  float64
	highPct float64
	entries map[string]Stats
}

// NewCache returns an empty cache whose robust bounds are the lowPct and
// highPct percentiles.
func NewCache(lowPct, highPct float64) *Cache {
	return &Cache{
		lowPct:  lowPct,
		highPct: highPct,
		entries: make(map[string]Stats),
	}
}

// Compute summarises values for id over scope and stores the result,
// replacing any previous entry. For VisibleWindow only samples with
// timestamps in [w.Lo, w.Hi] are used; ts must be ascending. When that
// slice is empty, Compute returns ErrEmptyWindow together with the
// previous entry (the zero Stats if there was none) and leaves the cache
// as is.
func (c *Cache) Compute(id string, ts, values []float64, scope Scope, w Window) (Stats, error) {
	if !scope.Valid() {
		return Stats{}, fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}
	if len(ts) != len(values) {
		return Stats{}, fmt.Errorf("signal %s: %d timestamps but %d values", id, len(ts), len(values))
	}

	sample := values
	if scope == VisibleWindow {
		lo, hi := WindowIndices(ts, w)
		sample = values[lo:hi]
	} else {
		w = Window{}
	}

	summary, ok := stats.Summarize(sample, c.lowPct, c.highPct)
	if !ok {
		if scope == VisibleWindow {
			return c.entries[id], ErrEmptyWindow
		}
		return Stats{}, ErrNoSamples
	}

	st := Stats{Summary: summary, Scope: scope, Window: w}
	c.entries[id] = st
	return st, nil
}

// Get returns the cached stats for id.
func (c *Cache) Get(id string) (Stats, bool) {
	st, ok := c.entries[id]
	return st, ok
}

// Delete drops the entry for id.
func (c *Cache) Delete(id string) {
	delete(c.entries, id)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.entries = make(map[string]Stats)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// WindowIndices returns the half-open index range [lo, hi) of the
// ascending timestamps inside the closed window w.
func WindowIndices(ts []float64, w Window) (lo, hi int) {
	lo = sort.SearchFloat64s(ts, w.Lo)
	hi = sort.Search(len(ts), func(i int) bool { return ts[i] > w.Hi })
	if hi < lo {
		hi = lo
	}
	return lo, hi
}
