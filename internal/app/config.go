package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/xsbenchgo/internal/config"
	"github.com/specialistvlad/xsbenchgo/internal/material"
	"github.com/specialistvlad/xsbenchgo/internal/simulation"
	"github.com/specialistvlad/xsbenchgo/internal/sysinfo"
)

// Defaults of a run with no flags and no run file.
const (
	DefaultSize       = "large"
	DefaultGridPoints = 11303
	DefaultLookups    = 15000000
	DefaultReplicas   = 1
	DefaultProgress   = time.Second
)

// Snapshot modes.
const (
	SnapshotNone = ""
	SnapshotDump = "dump"
	SnapshotLoad = "load"
)

// ErrInsufficientMemory is returned before any allocation when the problem
// would not fit in the available memory.
var ErrInsufficientMemory = sysinfo.ErrInsufficientMemory

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// preset is the problem shape selected by a size name.
type preset struct {
	Isotopes   int
	GridPoints int
}

var presets = map[string]preset{
	"small": {Isotopes: material.SmallIsotopes, GridPoints: DefaultGridPoints},
	"large": {Isotopes: material.LargeIsotopes, GridPoints: DefaultGridPoints},
	"XL":    {Isotopes: material.LargeIsotopes, GridPoints: 238847},
	"XXL":   {Isotopes: material.LargeIsotopes, GridPoints: 501578},
}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// Flags holds the simulation parameters set explicitly on the command
	// line. They override the run file, which overrides the size preset.
	Flags config.Simulation
	// RunFiles are HCL run files or directories of them.
	RunFiles []string

	Snapshot          string
	SnapshotKey       string
	SnapshotOverwrite bool
	BlobDriver        string
	BlobRoot          string

	HistoryDSN string
	// HistoryList, when positive, prints that many recent runs instead of
	// running the benchmark.
	HistoryList int
	// SnapshotList prints the stored snapshots instead of running the
	// benchmark.
	SnapshotList bool

	ReportURL       string
	ReportNamespace string
	ReportEvent     string
	// ReportAckEvent, when set, is awaited from the server after publishing.
	ReportAckEvent string
	ReportTimeout  time.Duration
	ReportInsecure bool

	LogFormat        string
	LogLevel         string
	HealthcheckPort  int
	ProgressInterval time.Duration
}

// NewConfig validates the settings that do not depend on the run file.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Snapshot {
	case SnapshotNone, SnapshotDump, SnapshotLoad:
	default:
		return nil, fmt.Errorf("%w: snapshot mode must be %q or %q, got %q", ErrInvalidConfig, SnapshotDump, SnapshotLoad, cfg.Snapshot)
	}
	if cfg.HealthcheckPort < 0 {
		return nil, fmt.Errorf("%w: healthcheck port must not be negative", ErrInvalidConfig)
	}
	if cfg.HistoryList < 0 {
		return nil, fmt.Errorf("%w: history list length must not be negative", ErrInvalidConfig)
	}
	if cfg.HistoryList > 0 && cfg.HistoryDSN == "" {
		return nil, fmt.Errorf("%w: listing run history needs a history DSN", ErrInvalidConfig)
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = DefaultProgress
	}
	// Flags are checked on their own so bad values fail before any file is read.
	if _, err := resolveProblem(config.Simulation{}, cfg.Flags); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Listing reports whether the invocation only prints stored state.
func (c *Config) Listing() bool {
	return c.HistoryList > 0 || c.SnapshotList
}

// Problem is the fully resolved simulation setup.
type Problem struct {
	Size       string
	Isotopes   int
	GridPoints int
	Lookups    int
	Threads    int
	Replicas   int
	Verify     bool
	Strategy   simulation.Strategy
}

// Mode is the simulation mode of the problem.
func (p Problem) Mode() simulation.Mode {
	if p.Verify {
		return simulation.Verification
	}
	return simulation.Performance
}

// Nuclides resolves the isotope count a run file's material expressions see.
// It has the signature of hcl.NuclidesFunc.
func (c *Config) Nuclides(file config.Simulation) int {
	p, err := resolveProblem(file, c.Flags)
	if err != nil || p.Isotopes < 1 {
		return material.LargeIsotopes
	}
	return p.Isotopes
}

// Problem merges the size preset, the run file settings and the flags.
func (c *Config) Problem(file config.Simulation) (Problem, error) {
	return resolveProblem(file, c.Flags)
}

func resolveProblem(file, flags config.Simulation) (Problem, error) {
	var sim config.Simulation
	sim.Merge(file)
	sim.Merge(flags)

	p := Problem{
		Size:     DefaultSize,
		Lookups:  DefaultLookups,
		Replicas: DefaultReplicas,
		Strategy: simulation.Indexed,
	}
	if sim.Size != nil {
		p.Size = *sim.Size
	}
	shape, ok := presets[p.Size]
	if !ok {
		return Problem{}, fmt.Errorf("%w: size must be small, large, XL or XXL, got %q", ErrInvalidConfig, p.Size)
	}
	p.Isotopes, p.GridPoints = shape.Isotopes, shape.GridPoints

	if sim.Isotopes != nil {
		p.Isotopes = *sim.Isotopes
	}
	if sim.GridPoints != nil {
		p.GridPoints = *sim.GridPoints
	}
	if sim.Lookups != nil {
		p.Lookups = *sim.Lookups
	}
	if sim.Replicas != nil {
		p.Replicas = *sim.Replicas
	}
	if sim.Verify != nil {
		p.Verify = *sim.Verify
	}
	if sim.Threads != nil {
		p.Threads = *sim.Threads
	} else {
		p.Threads = sysinfo.CPUs()
	}
	if sim.Strategy != nil {
		strategy, err := simulation.ParseStrategy(*sim.Strategy)
		if err != nil {
			return Problem{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		p.Strategy = strategy
	}

	switch {
	case p.Threads < 1:
		return Problem{}, fmt.Errorf("%w: thread count must be positive, got %d", ErrInvalidConfig, p.Threads)
	case p.Isotopes < 1:
		return Problem{}, fmt.Errorf("%w: isotope count must be positive, got %d", ErrInvalidConfig, p.Isotopes)
	case p.GridPoints < 2:
		return Problem{}, fmt.Errorf("%w: need at least 2 gridpoints per nuclide, got %d", ErrInvalidConfig, p.GridPoints)
	case p.Lookups < 1:
		return Problem{}, fmt.Errorf("%w: lookup count must be positive, got %d", ErrInvalidConfig, p.Lookups)
	case p.Replicas < 1:
		return Problem{}, fmt.Errorf("%w: replica count must be positive, got %d", ErrInvalidConfig, p.Replicas)
	}
	return p, nil
}
