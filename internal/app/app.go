package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/xsbenchgo/internal/config"
	"github.com/specialistvlad/xsbenchgo/internal/ctxlog"
	"github.com/specialistvlad/xsbenchgo/internal/material"
	"github.com/specialistvlad/xsbenchgo/internal/metrics"
	"github.com/specialistvlad/xsbenchgo/internal/report"
	"github.com/specialistvlad/xsbenchgo/internal/sysinfo"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	problem    Problem
	materials  []material.Spec
	printer    *report.Printer
	metrics    *metrics.Metrics
	probe      sysinfo.MemoryProbe
	getenv     func(string) string
	httpServer *http.Server
}

// Option customizes an App.
type Option func(*App)

// WithMemoryProbe replaces the host memory probe used by the precheck.
func WithMemoryProbe(probe sysinfo.MemoryProbe) Option {
	return func(a *App) {
		a.probe = probe
	}
}

// WithGetenv replaces the environment lookup used for blob settings.
func WithGetenv(getenv func(string) string) Option {
	return func(a *App) {
		a.getenv = getenv
	}
}

// NewApp is the constructor for the main application. It loads the run
// files, resolves the problem and validates it before anything is
// allocated.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, opts ...Option) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	var file config.Simulation
	var specs []material.Spec
	if len(cfg.RunFiles) > 0 {
		model, err := loader.Load(ctx, cfg.RunFiles...)
		if err != nil {
			return nil, fmt.Errorf("failed to load run files: %w", err)
		}
		file = model.Simulation
		for _, m := range model.Materials {
			specs = append(specs, material.Spec{Name: m.Name, Isotopes: m.Isotopes, Concentrations: m.Concentrations})
		}
		logger.Debug("Run files loaded.", "files", len(cfg.RunFiles), "materials", len(specs))
	}

	problem, err := cfg.Problem(file)
	if err != nil {
		return nil, err
	}
	if err := validateMaterials(problem, specs); err != nil {
		return nil, err
	}
	logger.Debug("Problem resolved.", "size", problem.Size, "isotopes", problem.Isotopes, "points", problem.GridPoints,
		"lookups", problem.Lookups, "threads", problem.Threads, "replicas", problem.Replicas, "mode", problem.Mode())

	a := &App{
		ctx:       ctx,
		outW:      outW,
		logger:    logger,
		config:    cfg,
		problem:   problem,
		materials: specs,
		printer:   report.NewPrinter(outW),
		metrics:   metrics.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// validateMaterials checks what can be checked without drawing
// concentrations: the material count and every isotope reference.
func validateMaterials(p Problem, specs []material.Spec) error {
	if len(specs) == 0 {
		if need := material.MinIsotopes(p.Isotopes); p.Isotopes < need {
			return fmt.Errorf("%w: the built-in materials need %d isotopes, got %d", ErrInvalidConfig, need, p.Isotopes)
		}
		return nil
	}
	if len(specs) != material.Count {
		return fmt.Errorf("%w: run files must declare exactly %d materials, got %d", ErrInvalidConfig, material.Count, len(specs))
	}
	for _, s := range specs {
		for _, id := range s.Isotopes {
			if id < 0 || id >= p.Isotopes {
				return fmt.Errorf("%w: material %q references isotope %d, problem has %d", ErrInvalidConfig, s.Name, id, p.Isotopes)
			}
		}
	}
	return nil
}

// Problem returns the resolved simulation setup.
func (a *App) Problem() Problem {
	return a.problem
}

// Metrics returns the application's collectors. This is primarily for testing.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}
