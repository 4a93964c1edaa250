// Package nuclide generates the per-isotope cross-section grids: for every
// isotope an energy-sorted sequence of samples, each carrying the five
// reaction channels. Grids are stored flattened, one row per isotope.
package nuclide

import (
	"context"
	"fmt"
	"sort"

	"github.com/specialistvlad/xsbenchgo/internal/ctxlog"
	"github.com/specialistvlad/xsbenchgo/internal/rng"
	"golang.org/x/sync/errgroup"
)

// DrawsPerSample is the number of random draws Generate consumes per sample:
// the energy followed by the five channels.
const DrawsPerSample = 6

// Sample is one point of an isotope's cross-section grid.
type Sample struct {
	Energy     float64
	Total      float64
	Elastic    float64
	Absorption float64
	Fission    float64
	NuFission  float64
}

// Grids holds every isotope's grid in row-major order: sample i of isotope n
// lives at Samples[n*Points+i].
type Grids struct {
	Isotopes int
	Points   int
	Samples  []Sample
}

// New allocates zeroed grids. At least two points per isotope are required so
// that every interpolation interval has an upper neighbor.
func New(isotopes, points int) (*Grids, error) {
	if isotopes < 1 {
		return nil, fmt.Errorf("isotope count must be positive, got %d", isotopes)
	}
	if points < 2 {
		return nil, fmt.Errorf("grid points per isotope must be at least 2, got %d", points)
	}
	return &Grids{
		Isotopes: isotopes,
		Points:   points,
		Samples:  make([]Sample, isotopes*points),
	}, nil
}

// Generate fills new grids from src. Draw order is isotope-major, then point,
// then energy followed by total, elastic, absorption, fission and nu-fission.
// The returned grids are not sorted.
func Generate(ctx context.Context, isotopes, points int, src rng.Source) (*Grids, error) {
	g, err := New(isotopes, points)
	if err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Generating nuclide energy grids.", "isotopes", isotopes, "points", points)

	for i := range g.Samples {
		s := &g.Samples[i]
		s.Energy = src.Float64()
		s.Total = src.Float64()
		s.Elastic = src.Float64()
		s.Absorption = src.Float64()
		s.Fission = src.Float64()
		s.NuFission = src.Float64()
	}
	return g, nil
}

// Isotope returns the row of isotope n. The slice aliases the grid storage.
func (g *Grids) Isotope(n int) []Sample {
	return g.Samples[n*g.Points : (n+1)*g.Points]
}

// Len is the total number of samples across all isotopes.
func (g *Grids) Len() int { return len(g.Samples) }

// Sort orders every isotope's row ascending by energy. Rows are independent
// and are sorted concurrently on up to workers goroutines.
func (g *Grids) Sort(ctx context.Context, workers int) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Sorting nuclide energy grids.", "isotopes", g.Isotopes, "workers", workers)

	if workers < 1 {
		workers = 1
	}
	var eg errgroup.Group
	eg.SetLimit(workers)
	for n := 0; n < g.Isotopes; n++ {
		row := g.Isotope(n)
		eg.Go(func() error {
			sort.Slice(row, func(a, b int) bool { return row[a].Energy < row[b].Energy })
			return nil
		})
	}
	return eg.Wait()
}

// Sorted reports whether every row is non-decreasing by energy.
func (g *Grids) Sorted() bool {
	for n := 0; n < g.Isotopes; n++ {
		row := g.Isotope(n)
		for i := 1; i < len(row); i++ {
			if row[i].Energy < row[i-1].Energy {
				return false
			}
		}
	}
	return true
}

// Equal reports whether two grids have identical shape and samples.
func (g *Grids) Equal(o *Grids) bool {
	if g.Isotopes != o.Isotopes || g.Points != o.Points || len(g.Samples) != len(o.Samples) {
		return false
	}
	for i := range g.Samples {
		if g.Samples[i] != o.Samples[i] {
			return false
		}
	}
	return true
}
