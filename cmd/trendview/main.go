// Command trendview imports time-series samples, plots them on shared
// magnitude-matched scales and exports a chart snapshot, optionally in
// Compare Mode.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/trendview/internal/axis"
	"github.com/banshee-data/trendview/internal/chart"
	"github.com/banshee-data/trendview/internal/config"
	"github.com/banshee-data/trendview/internal/fsutil"
	"github.com/banshee-data/trendview/internal/normalize"
	"github.com/banshee-data/trendview/internal/provider"
	"github.com/banshee-data/trendview/internal/surface"
	"github.com/banshee-data/trendview/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to viewer config JSON (defaults built in)")
	dbPath      = flag.String("db", "trendview.db", "Path to the sample database")
	importPath  = flag.String("import", "", "CSV file to import before plotting")
	signalList  = flag.String("signals", "", "Comma-separated signals to plot (default: all stored)")
	compare     = flag.Bool("compare", false, "Export in Compare Mode")
	method      = flag.String("method", "", "Normalization method: minmax or robust_minmax")
	scope       = flag.String("scope", "", "Statistics scope: entire_series or visible_window")
	outPath     = flag.String("out", "trendview.png", "Snapshot output (.png or .html)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

type options struct {
	Config  string
	DB      string
	Import  string
	Signals []string
	Compare bool
	Method  string
	Scope   string
	Out     string
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	opts := options{
		Config:  *configPath,
		DB:      *dbPath,
		Import:  *importPath,
		Signals: splitList(*signalList),
		Compare: *compare,
		Method:  *method,
		Scope:   *scope,
		Out:     *outPath,
	}
	if err := run(opts, os.Stdout); err != nil {
		log.Fatalf("trendview: %v", err)
	}
}

func run(opts options, stdout io.Writer) error {
	cfg := config.DefaultViewerConfig()
	if opts.Config != "" {
		var err error
		if cfg, err = config.LoadViewerConfig(opts.Config); err != nil {
			return err
		}
	}

	store, err := provider.Open(opts.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	if opts.Import != "" {
		if err := importCSV(store, opts.Import); err != nil {
			return err
		}
	}

	names := opts.Signals
	if len(names) == 0 {
		if names, err = store.Signals(); err != nil {
			return err
		}
	}
	if len(names) == 0 {
		return errors.New("no signals to plot")
	}

	mem := surface.NewMemory()
	engine := chart.NewEngine(mem, store, chart.EngineConfig{
		Settings: cfg,
		Observer: &overflowPrinter{w: stdout},
	})

	if opts.Method != "" {
		if err := engine.SetMethod(normalize.Method(opts.Method)); err != nil {
			return err
		}
	}
	if opts.Scope != "" {
		if err := engine.SetScope(normalize.Scope(opts.Scope)); err != nil {
			return err
		}
	}

	for _, name := range names {
		g, err := engine.AddSignal(name)
		if errors.Is(err, axis.ErrMaxScalesReached) {
			continue
		}
		if err != nil {
			return fmt.Errorf("plot %s: %w", name, err)
		}
		fmt.Fprintf(stdout, "plotted %s on %s axis\n", name, g)
	}

	if opts.Compare {
		if err := engine.EnableCompare(); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "compare mode: %s over %s\n", engine.Method(), engine.Scope())
	}

	if err := surface.Export(fsutil.OSFileSystem{}, opts.Out, mem.Frame()); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", opts.Out)
	return nil
}

func importCSV(store *provider.Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	defer f.Close()

	series, err := provider.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	_, err = store.Import(filepath.Base(path), series)
	return err
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// overflowPrinter reports signals that did not fit any scale.
type overflowPrinter struct {
	chart.NopObserver
	w io.Writer
}

func (p *overflowPrinter) OnOverflow(id string) {
	fmt.Fprintf(p.w, "warning: %s does not fit the available scales and was not plotted\n", id)
}
