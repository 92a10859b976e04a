package chart_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/banshee-data/trendview/internal/axis"
	"github.com/banshee-data/trendview/internal/chart"
	"github.com/banshee-data/trendview/internal/config"
	"github.com/banshee-data/trendview/internal/surface"
	"github.com/banshee-data/trendview/internal/testutil"
	"github.com/banshee-data/trendview/internal/timeutil"
)

const samples = 100

type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (o *recordingObserver) add(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, s)
}

func (o *recordingObserver) OnFirstSignal()        { o.add("first") }
func (o *recordingObserver) OnLastSignalRemoved()  { o.add("last") }
func (o *recordingObserver) OnModeChanged(on bool) { o.add(fmt.Sprintf("compare=%v", on)) }
func (o *recordingObserver) OnOverflow(id string)  { o.add("overflow:" + id) }
func (o *recordingObserver) Events() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.events...)
}

// flakySurface fails Render calls selected by failRender.
type flakySurface struct {
	*surface.Memory
	failRender func(id string, g axis.GroupID) error
}

func (f *flakySurface) Render(id string, g axis.GroupID, x, y []float64) error {
	if f.failRender != nil {
		if err := f.failRender(id, g); err != nil {
			return err
		}
	}
	return f.Memory.Render(id, g, x, y)
}

type fixture struct {
	engine   *chart.Engine
	mem      *surface.Memory
	flaky    *flakySurface
	provider *testutil.Provider
	observer *recordingObserver
	clock    *timeutil.MockClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		mem:      surface.NewMemory(),
		provider: testutil.NewProvider(),
		observer: &recordingObserver{},
		clock:    timeutil.NewMockClock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)),
	}
	f.flaky = &flakySurface{Memory: f.mem}

	// the fixture series: A~5, B~5000, C~6, D~500000
	ts := testutil.Timestamps(samples, 0, 1)
	f.provider.Set("A", ts, testutil.Wave(samples, 5, 1), "bar")
	f.provider.Set("B", ts, testutil.Wave(samples, 5000, 1000), "kPa")
	f.provider.Set("C", ts, testutil.Wave(samples, 6, 1), "degC")
	f.provider.Set("D", ts, testutil.Wave(samples, 500000, 1000), "Pa")
	f.provider.Set("E", ts, testutil.Wave(samples, 7, 2), "degC")

	f.engine = chart.NewEngine(f.flaky, f.provider, chart.EngineConfig{
		Settings: config.DefaultViewerConfig(),
		Observer: f.observer,
		Clock:    f.clock,
	})
	return f
}

func (f *fixture) add(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if _, err := f.engine.AddSignal(id); err != nil {
			t.Fatalf("AddSignal(%s): %v", id, err)
		}
	}
}
