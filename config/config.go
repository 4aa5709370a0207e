// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Sweep kinds understood by the sweep runner.
const (
	SweepFill  = "fill"
	SweepBetaj = "betaj"
	SweepSize  = "size"
)

// Config holds all simulation configuration parameters.
type Config struct {
	Run       RunConfig       `yaml:"run"`
	SweepSeed uint64          `yaml:"sweep_seed"`
	Sweeps    []SweepConfig   `yaml:"sweeps"`
	Chart     ChartConfig     `yaml:"chart"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Tune      TuneConfig      `yaml:"tune"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// RunConfig describes a single run that stops once the lattice orders.
type RunConfig struct {
	Size           int     `yaml:"size"`
	Betaj          float64 `yaml:"betaj"`
	FillRate       float64 `yaml:"fill_rate"`
	Seed           uint64  `yaml:"seed"`
	OrderThreshold float64 `yaml:"order_threshold"` // Stop when any sublattice fraction exceeds this
	MaxSteps       int     `yaml:"max_steps"`       // 0 = stop on threshold only
}

// SweepConfig describes one batch of runs over a linearly spaced parameter.
// Fields not swept are held at the values given here.
type SweepConfig struct {
	Name     string  `yaml:"name"`
	Kind     string  `yaml:"kind"` // fill, betaj or size
	Runs     int     `yaml:"runs"`
	Min      float64 `yaml:"min"`
	Max      float64 `yaml:"max"` // excluded from the range
	Steps    int     `yaml:"steps"`
	Size     int     `yaml:"size"`
	Betaj    float64 `yaml:"betaj"`
	FillRate float64 `yaml:"fill_rate"`
}

// ChartConfig holds SVG chart settings.
type ChartConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	StartColor string `yaml:"start_color"` // hex, first series of a gradient
	EndColor   string `yaml:"end_color"`   // hex, last series of a gradient
	LineColor  string `yaml:"line_color"`  // hex, single series charts
}

// TelemetryConfig holds stats window and milestone settings.
type TelemetryConfig struct {
	Window         int     `yaml:"window"`          // Steps per stats window
	PlateauWindows int     `yaml:"plateau_windows"` // Windows the order parameter must hold still
	PlateauEpsilon float64 `yaml:"plateau_epsilon"` // Max stddev of window means for a plateau
	PerfWindow     int     `yaml:"perf_window"`     // Steps averaged by the perf collector
}

// TuneConfig holds parameter search settings for cmd/tune.
type TuneConfig struct {
	BetajMin    float64 `yaml:"betaj_min"`
	BetajMax    float64 `yaml:"betaj_max"`
	FillMin     float64 `yaml:"fill_min"`
	FillMax     float64 `yaml:"fill_max"`
	Size        int     `yaml:"size"`
	MaxSteps    int     `yaml:"max_steps"`
	Seeds       int     `yaml:"seeds"`
	Evaluations int     `yaml:"evaluations"`
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	SweepsBy map[string]SweepConfig // Sweeps keyed by name
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path (or defaults if empty).
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file.
		// A sweeps list in the file replaces the default list.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.SweepsBy = make(map[string]SweepConfig, len(c.Sweeps))
	for _, s := range c.Sweeps {
		c.Derived.SweepsBy[s.Name] = s
	}
}

// Sweep returns the named sweep.
func (c *Config) Sweep(name string) (SweepConfig, bool) {
	s, ok := c.Derived.SweepsBy[name]
	return s, ok
}

// ErrDegenerateLattice is returned for lattices the model cannot run.
var ErrDegenerateLattice = errors.New("degenerate lattice")

// Validate reports configurations that would make the engine loop forever
// or divide by an empty row range.
func (c *Config) Validate() error {
	if err := ValidateLattice(c.Run.Size, c.Run.FillRate); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if c.Run.OrderThreshold <= 0 || c.Run.OrderThreshold > 1 {
		return fmt.Errorf("run: order_threshold %v outside (0,1]", c.Run.OrderThreshold)
	}
	if c.Run.MaxSteps < 0 {
		return fmt.Errorf("run: negative max_steps %d", c.Run.MaxSteps)
	}

	seen := make(map[string]bool, len(c.Sweeps))
	for _, s := range c.Sweeps {
		if s.Name == "" {
			return errors.New("sweep without a name")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate sweep %q", s.Name)
		}
		seen[s.Name] = true
		if err := s.Validate(); err != nil {
			return fmt.Errorf("sweep %q: %w", s.Name, err)
		}
	}

	if err := c.Tune.Validate(); err != nil {
		return fmt.Errorf("tune: %w", err)
	}
	return nil
}

// Validate checks the search bounds and budgets.
func (t TuneConfig) Validate() error {
	if t.BetajMax <= t.BetajMin {
		return fmt.Errorf("betaj bounds [%v,%v] empty", t.BetajMin, t.BetajMax)
	}
	if t.FillMax <= t.FillMin {
		return fmt.Errorf("fill bounds [%v,%v] empty", t.FillMin, t.FillMax)
	}
	// Both fill bounds must give runnable lattices.
	if err := ValidateLattice(t.Size, t.FillMin); err != nil {
		return err
	}
	if err := ValidateLattice(t.Size, t.FillMax); err != nil {
		return err
	}
	if t.MaxSteps < 1 || t.Seeds < 1 || t.Evaluations < 1 {
		return fmt.Errorf("max_steps, seeds and evaluations must be positive")
	}
	return nil
}

// Validate checks that every lattice the sweep will build is runnable.
func (s SweepConfig) Validate() error {
	if s.Runs < 1 {
		return fmt.Errorf("runs must be at least 1, got %d", s.Runs)
	}
	if s.Steps < 1 {
		return fmt.Errorf("steps must be at least 1, got %d", s.Steps)
	}
	if s.Max < s.Min {
		return fmt.Errorf("max %v below min %v", s.Max, s.Min)
	}

	switch s.Kind {
	case SweepFill:
		// The range excludes Max, so checking both ends is conservative.
		if err := ValidateLattice(s.Size, s.Min); err != nil {
			return err
		}
		return ValidateLattice(s.Size, s.Max)
	case SweepBetaj:
		return ValidateLattice(s.Size, s.FillRate)
	case SweepSize:
		if err := ValidateLattice(int(s.Min), s.FillRate); err != nil {
			return err
		}
		return ValidateLattice(int(s.Max), s.FillRate)
	default:
		return fmt.Errorf("unknown sweep kind %q", s.Kind)
	}
}

// ValidateLattice checks size and fill rate against the limits of
// initialization: at least two rows, and a budget that fits the
// size×(size-1) cells the initial placement draws from.
func ValidateLattice(size int, fillRate float64) error {
	if size < 2 {
		return fmt.Errorf("%w: size %d, need at least 2", ErrDegenerateLattice, size)
	}
	if fillRate < 0 || fillRate >= 1 {
		return fmt.Errorf("%w: fill_rate %v outside [0,1)", ErrDegenerateLattice, fillRate)
	}
	target := int(float32(size*size) * float32(fillRate))
	if capacity := size * (size - 1); target > capacity {
		return fmt.Errorf("%w: %d particles do not fit the %d placeable cells of a %d lattice",
			ErrDegenerateLattice, target, capacity, size)
	}
	return nil
}

// WriteYAML saves the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
