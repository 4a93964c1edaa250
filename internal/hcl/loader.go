package hcl

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/xsbenchgo/internal/config"
	"github.com/specialistvlad/xsbenchgo/internal/ctxlog"
	"github.com/specialistvlad/xsbenchgo/internal/fsutil"
	"github.com/specialistvlad/xsbenchgo/internal/material"
)

// NuclidesFunc resolves the problem isotope count that material expressions
// see as `nuclides`, given the merged simulation settings of all files.
type NuclidesFunc func(config.Simulation) int

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	nuclides NuclidesFunc
}

// Option configures a Loader.
type Option func(*Loader)

// WithNuclides overrides how the `nuclides` variable is resolved. Callers
// that apply command-line overrides on top of the run file use it so that
// material expressions agree with the final problem size.
func WithNuclides(fn NuclidesFunc) Option {
	return func(l *Loader) {
		l.nuclides = fn
	}
}

// NewLoader creates a new HCL run file loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{nuclides: DefaultNuclides}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DefaultNuclides uses the file's own isotope setting, falling back to the
// size preset.
func DefaultNuclides(sim config.Simulation) int {
	if sim.Isotopes != nil {
		return *sim.Isotopes
	}
	if sim.Size != nil && *sim.Size == "small" {
		return material.SmallIsotopes
	}
	return material.LargeIsotopes
}

// Load parses every run file found under paths. Scalar settings of later
// files override earlier ones; the last file that declares materials
// provides the whole material set.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	model := &config.Model{}
	var materials []*materialBlock

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, settingsContext(), &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		if root.Simulation != nil {
			model.Simulation.Merge(translateSimulation(root.Simulation))
		}
		if len(root.Materials) > 0 {
			materials = root.Materials
		}
	}

	if len(materials) > 0 {
		nuclides := l.nuclides(model.Simulation)
		logger.Debug("Evaluating material blocks.", "count", len(materials), "nuclides", nuclides)
		model.Materials, err = translateMaterials(materials, materialContext(nuclides))
		if err != nil {
			return nil, err
		}
	}

	logger.Debug("HCL loading complete.", "files", len(files), "materials", len(model.Materials))
	return model, nil
}

// findAllHCLFiles expands paths into a flat list of .hcl files. Files inside
// a directory are visited in lexical order. A missing path is an error since
// run files are always named explicitly.
func findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		files, err := fsutil.FindFiles(path, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, p := range files {
			if _, wasSeen := seen[p]; !wasSeen {
				allFiles = append(allFiles, p)
				seen[p] = struct{}{}
			}
		}
	}
	return allFiles, nil
}
