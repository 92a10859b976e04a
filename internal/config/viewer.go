package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/banshee-data/trendview/internal/fsutil"
	"github.com/banshee-data/trendview/internal/normalize"
)

// DefaultConfigPath is the path to the canonical viewer defaults file.
const DefaultConfigPath = "config/viewer.defaults.json"

const maxConfigFileSize = 1 * 1024 * 1024 // 1MB

// ViewerConfig holds the static settings of the axis-assignment and
// Compare Mode engine. Every field is optional; the Get* accessors supply
// the defaults for anything left out of the JSON.
type ViewerConfig struct {
	// Scale assignment
	MagnitudeThreshold *float64 `json:"magnitude_threshold,omitempty"` // decades
	ZeroReferenceDelta *float64 `json:"zero_reference_delta,omitempty"`

	// Normalisation
	FlatEpsilon          *float64 `json:"flat_epsilon,omitempty"`
	RobustLowPercentile  *float64 `json:"robust_low_percentile,omitempty"`
	RobustHighPercentile *float64 `json:"robust_high_percentile,omitempty"`
	DefaultMethod        *string  `json:"default_method,omitempty"`
	DefaultScope         *string  `json:"default_scope,omitempty"`
	NormalizedAxisLabel  *string  `json:"normalized_axis_label,omitempty"`

	// Viewport
	DebounceInterval *string `json:"debounce_interval,omitempty"` // duration string like "150ms"
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }

// DefaultViewerConfig returns a config with every field populated from the
// built-in defaults.
func DefaultViewerConfig() *ViewerConfig {
	return &ViewerConfig{
		MagnitudeThreshold:   ptrFloat64(1.5),
		FlatEpsilon:          ptrFloat64(normalize.DefaultEpsilon),
		RobustLowPercentile:  ptrFloat64(5),
		RobustHighPercentile: ptrFloat64(95),
		DefaultMethod:        ptrString(string(normalize.MinMax)),
		DefaultScope:         ptrString(string(normalize.EntireSeries)),
		NormalizedAxisLabel:  ptrString("Normalized (%)"),
		DebounceInterval:     ptrString("150ms"),
	}
}

// LoadViewerConfig loads a ViewerConfig from a JSON file on disk.
func LoadViewerConfig(path string) (*ViewerConfig, error) {
	return LoadViewerConfigFS(fsutil.OSFileSystem{}, path)
}

// LoadViewerConfigFS loads a ViewerConfig through fsys. The file must have
// a .json extension and be under 1MB. Fields omitted from the JSON keep
// their defaults, so partial configs are safe.
func LoadViewerConfigFS(fsys fsutil.FileSystem, path string) (*ViewerConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &ViewerConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configured values are usable.
func (c *ViewerConfig) Validate() error {
	if c.MagnitudeThreshold != nil && *c.MagnitudeThreshold <= 0 {
		return fmt.Errorf("magnitude_threshold must be positive, got %f", *c.MagnitudeThreshold)
	}
	if c.ZeroReferenceDelta != nil && *c.ZeroReferenceDelta < 0 {
		return fmt.Errorf("zero_reference_delta must be non-negative, got %f", *c.ZeroReferenceDelta)
	}
	if c.FlatEpsilon != nil && *c.FlatEpsilon <= 0 {
		return fmt.Errorf("flat_epsilon must be positive, got %g", *c.FlatEpsilon)
	}

	low, high := c.GetRobustLowPercentile(), c.GetRobustHighPercentile()
	if low < 0 || low > 100 {
		return fmt.Errorf("robust_low_percentile must be between 0 and 100, got %f", low)
	}
	if high < 0 || high > 100 {
		return fmt.Errorf("robust_high_percentile must be between 0 and 100, got %f", high)
	}
	if low >= high {
		return fmt.Errorf("robust_low_percentile (%f) must be below robust_high_percentile (%f)", low, high)
	}

	if c.DefaultMethod != nil {
		if _, err := normalize.ParseMethod(*c.DefaultMethod); err != nil {
			return fmt.Errorf("default_method: %w", err)
		}
	}
	if c.DefaultScope != nil {
		if _, err := normalize.ParseScope(*c.DefaultScope); err != nil {
			return fmt.Errorf("default_scope: %w", err)
		}
	}

	if c.DebounceInterval != nil && *c.DebounceInterval != "" {
		d, err := time.ParseDuration(*c.DebounceInterval)
		if err != nil {
			return fmt.Errorf("invalid debounce_interval '%s': %w", *c.DebounceInterval, err)
		}
		if d < 0 {
			return fmt.Errorf("debounce_interval must be non-negative, got %s", d)
		}
	}
	return nil
}

// GetMagnitudeThreshold returns the magnitude_threshold value or the default.
func (c *ViewerConfig) GetMagnitudeThreshold() float64 {
	if c.MagnitudeThreshold == nil {
		return 1.5
	}
	return *c.MagnitudeThreshold
}

// GetZeroReferenceDelta returns zero_reference_delta and whether it is set.
// When unset, groups with a zero reference magnitude never match.
func (c *ViewerConfig) GetZeroReferenceDelta() (float64, bool) {
	if c.ZeroReferenceDelta == nil {
		return 0, false
	}
	return *c.ZeroReferenceDelta, true
}

// GetFlatEpsilon returns the flat_epsilon value or the default.
func (c *ViewerConfig) GetFlatEpsilon() float64 {
	if c.FlatEpsilon == nil {
		return normalize.DefaultEpsilon
	}
	return *c.FlatEpsilon
}

// GetRobustLowPercentile returns the robust_low_percentile value or the default.
func (c *ViewerConfig) GetRobustLowPercentile() float64 {
	if c.RobustLowPercentile == nil {
		return 5
	}
	return *c.RobustLowPercentile
}

// GetRobustHighPercentile returns the robust_high_percentile value or the default.
func (c *ViewerConfig) GetRobustHighPercentile() float64 {
	if c.RobustHighPercentile == nil {
		return 95
	}
	return *c.RobustHighPercentile
}

// GetDefaultMethod returns the default_method value or min-max.
func (c *ViewerConfig) GetDefaultMethod() normalize.Method {
	if c.DefaultMethod == nil {
		return normalize.MinMax
	}
	m, err := normalize.ParseMethod(*c.DefaultMethod)
	if err != nil {
		return normalize.MinMax
	}
	return m
}

// GetDefaultScope returns the default_scope value or entire-series.
func (c *ViewerConfig) GetDefaultScope() normalize.Scope {
	if c.DefaultScope == nil {
		return normalize.EntireSeries
	}
	s, err := normalize.ParseScope(*c.DefaultScope)
	if err != nil {
		return normalize.EntireSeries
	}
	return s
}

// GetNormalizedAxisLabel returns the label shown on the shared scale in
// Compare Mode.
func (c *ViewerConfig) GetNormalizedAxisLabel() string {
	if c.NormalizedAxisLabel == nil || *c.NormalizedAxisLabel == "" {
		return "Normalized (%)"
	}
	return *c.NormalizedAxisLabel
}

// GetDebounceInterval parses and returns the DebounceInterval as a time.Duration.
func (c *ViewerConfig) GetDebounceInterval() time.Duration {
	if c.DebounceInterval == nil || *c.DebounceInterval == "" {
		return 150 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.DebounceInterval)
	if err != nil {
		return 150 * time.Millisecond // default on parse error
	}
	return d
}
