// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Runtime    RuntimeConfig    `yaml:"runtime"`
	Output     OutputConfig     `yaml:"output"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimulationConfig holds the core Monte Carlo parameters.
type SimulationConfig struct {
	Iterations int     `yaml:"iterations"` // Time steps per particle
	Particles  int     `yaml:"particles"`  // Population size
	GridSize   int     `yaml:"grid_size"`  // Square grid dimension
	Radius     float64 `yaml:"radius"`     // Containment radius in grid units
	Seed       int64   `yaml:"seed"`       // RNG seed for the displacement tables
	Scale      int     `yaml:"scale"`      // Discrete draw range [0, scale)
	StartX     float64 `yaml:"start_x"`    // Shared initial X position
	StartY     float64 `yaml:"start_y"`    // Shared initial Y position

	// Starts optionally gives per-particle initial positions; when
	// set it must have exactly `particles` entries and overrides
	// start_x/start_y.
	Starts []StartConfig `yaml:"starts"`
}

// StartConfig is a per-particle initial position.
type StartConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// RuntimeConfig holds parallel execution parameters.
type RuntimeConfig struct {
	Workers            int `yaml:"workers"`             // Worker pool size (0 = GOMAXPROCS)
	ParallelThreshold  int `yaml:"parallel_threshold"`  // Min particles for the pool
	MaxParticles       int `yaml:"max_particles"`       // Dispatch cap (0 = default)
	CheckpointInterval int `yaml:"checkpoint_interval"` // Iterations per segment (0 = single)
}

// OutputConfig holds reporting and artifact parameters.
type OutputConfig struct {
	Dir       string `yaml:"dir"`        // Output directory ("" = no file output)
	PrintGrid bool   `yaml:"print_grid"` // Print the grid when small enough
	Heatmap   bool   `yaml:"heatmap"`    // Write heatmap.png
	Video     bool   `yaml:"video"`      // Write diffusion.avi from checkpoints
	Chart     bool   `yaml:"chart"`      // Write events.png from checkpoints
	VideoFPS  int    `yaml:"video_fps"`  // Frame rate for the checkpoint video
	CellSize  int    `yaml:"cell_size"`  // Pixels per grid cell in images
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow int `yaml:"perf_window"` // Rolling window for phase timings
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Radius32 float32 // Simulation.Radius as float32
	StartX32 float32 // Simulation.StartX as float32
	StartY32 float32 // Simulation.StartY as float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
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
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate rejects configurations that would fail at driver
// construction, so bad input surfaces before anything is allocated.
func (c *Config) Validate() error {
	s := c.Simulation
	if s.Iterations <= 0 {
		return fmt.Errorf("config: iterations must be positive, got %d", s.Iterations)
	}
	if s.Particles <= 0 {
		return fmt.Errorf("config: particles must be positive, got %d", s.Particles)
	}
	if s.GridSize <= 0 {
		return fmt.Errorf("config: grid_size must be positive, got %d", s.GridSize)
	}
	if s.Radius <= 0 {
		return fmt.Errorf("config: radius must be positive, got %v", s.Radius)
	}
	if s.Scale <= 0 {
		return fmt.Errorf("config: scale must be positive, got %d", s.Scale)
	}
	if len(s.Starts) > 0 && len(s.Starts) != s.Particles {
		return fmt.Errorf("config: %d start positions for %d particles",
			len(s.Starts), s.Particles)
	}
	if c.Output.Video && c.Runtime.CheckpointInterval <= 0 {
		return fmt.Errorf("config: video output requires a positive checkpoint_interval")
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Radius32 = float32(c.Simulation.Radius)
	c.Derived.StartX32 = float32(c.Simulation.StartX)
	c.Derived.StartY32 = float32(c.Simulation.StartY)

	if c.Output.VideoFPS <= 0 {
		c.Output.VideoFPS = 4
	}
	if c.Output.CellSize <= 0 {
		c.Output.CellSize = 16
	}
	if c.Telemetry.PerfWindow <= 0 {
		c.Telemetry.PerfWindow = 16
	}
}

// WriteYAML writes the configuration to a YAML file.
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
