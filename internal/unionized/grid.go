package unionized

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/specialistvlad/xsbenchgo/internal/ctxlog"
	"github.com/specialistvlad/xsbenchgo/internal/nuclide"
	"golang.org/x/sync/errgroup"
)

// Point is one entry of the union grid. Offset is the start of this point's
// row in the index table.
type Point struct {
	Energy float64
	Offset int
}

// Grid is the unionized energy grid together with the nuclide grids it was
// built from. It is immutable once built and safe for concurrent readers.
type Grid struct {
	Nuclides *nuclide.Grids
	Points   []Point
	// Index is row-major: Index[g*isotopes+n] is isotope n's lower sample
	// position for union point g.
	Index []int32
}

// ErrUnsorted is returned when the nuclide grids violate the sortedness invariant.
var ErrUnsorted = errors.New("nuclide grids are not sorted by energy")

// Build merges every isotope's energies into the union grid and fills the
// index table by bisecting each isotope's row for every union energy. The
// table rows are partitioned across workers goroutines.
func Build(ctx context.Context, grids *nuclide.Grids, workers int) (*Grid, error) {
	logger := ctxlog.FromContext(ctx)
	if !grids.Sorted() {
		return nil, ErrUnsorted
	}
	if workers < 1 {
		workers = 1
	}

	start := time.Now()
	n := grids.Len()
	isotopes := grids.Isotopes

	logger.Debug("Generating unionized energy grid.", "points", n)
	energies := make([]float64, n)
	for i := range grids.Samples {
		energies[i] = grids.Samples[i].Energy
	}
	sort.Float64s(energies)

	points := make([]Point, n)
	for g, e := range energies {
		points[g] = Point{Energy: e, Offset: g * isotopes}
	}

	logger.Debug("Filling double-indexing table.", "cells", n*isotopes, "workers", workers)
	index := make([]int32, n*isotopes)

	chunk := (n + workers - 1) / workers
	var eg errgroup.Group
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		eg.Go(func() error {
			for g := lo; g < hi; g++ {
				e := points[g].Energy
				row := index[points[g].Offset : points[g].Offset+isotopes]
				for iso := 0; iso < isotopes; iso++ {
					row[iso] = int32(lowerSample(grids.Isotope(iso), e))
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("Unionized grid built.", "points", n, "duration", time.Since(start))
	return &Grid{Nuclides: grids, Points: points, Index: index}, nil
}

// Assemble reconstructs a Grid from previously built buffers, checking that
// every length agrees with the nuclide grid shape.
func Assemble(grids *nuclide.Grids, points []Point, index []int32) (*Grid, error) {
	n := grids.Len()
	if len(points) != n {
		return nil, fmt.Errorf("union grid has %d points, expected %d", len(points), n)
	}
	if len(index) != n*grids.Isotopes {
		return nil, fmt.Errorf("index table has %d cells, expected %d", len(index), n*grids.Isotopes)
	}
	return &Grid{Nuclides: grids, Points: points, Index: index}, nil
}

// Isotopes is the number of columns of the index table.
func (g *Grid) Isotopes() int { return g.Nuclides.Isotopes }

// Len is the number of union grid points.
func (g *Grid) Len() int { return len(g.Points) }

// Row returns the index table row for union point idx.
func (g *Grid) Row(idx int) []int32 {
	off := g.Points[idx].Offset
	return g.Index[off : off+g.Nuclides.Isotopes]
}

// Range returns the lowest and highest union energies.
func (g *Grid) Range() (lo, hi float64) {
	return g.Points[0].Energy, g.Points[len(g.Points)-1].Energy
}

// Search returns the largest idx with Points[idx].Energy <= energy, clamped
// into [0, Len()-2].
func (g *Grid) Search(energy float64) int {
	return Search(g.Points, energy)
}

// Search is a classic bisection over the half-open window [low, high). The
// result always leaves idx+1 addressable.
func Search(points []Point, energy float64) int {
	low, high := 0, len(points)-1
	for high-low > 1 {
		mid := low + (high-low)/2
		if points[mid].Energy > energy {
			high = mid
		} else {
			low = mid
		}
	}
	return low
}

// lowerSample bisects one isotope's row exactly like Search bisects the
// union grid, so the returned position lies in [0, len(row)-2].
func lowerSample(row []nuclide.Sample, energy float64) int {
	low, high := 0, len(row)-1
	for high-low > 1 {
		mid := low + (high-low)/2
		if row[mid].Energy > energy {
			high = mid
		} else {
			low = mid
		}
	}
	return low
}

// Validate checks the structural invariants of a built or reloaded grid:
// sortedness of both grids, row offsets, index bounds and per-isotope index
// monotonicity. It walks the whole table and is meant for setup-time
// assertions, not the lookup path.
func (g *Grid) Validate() error {
	if !g.Nuclides.Sorted() {
		return ErrUnsorted
	}
	isotopes := g.Nuclides.Isotopes
	maxIdx := int32(g.Nuclides.Points - 2)
	for i, p := range g.Points {
		if p.Offset != i*isotopes {
			return fmt.Errorf("union point %d has offset %d, expected %d", i, p.Offset, i*isotopes)
		}
		if i > 0 && p.Energy < g.Points[i-1].Energy {
			return fmt.Errorf("union grid decreases at point %d", i)
		}
		row := g.Row(i)
		for n, v := range row {
			if v < 0 || v > maxIdx {
				return fmt.Errorf("index[%d][%d] = %d outside [0, %d]", i, n, v, maxIdx)
			}
			if i > 0 && v < g.Row(i - 1)[n] {
				return fmt.Errorf("index column %d decreases at point %d", n, i)
			}
		}
	}
	return nil
}

// Sample sizes used by EstimateBytes: six float64 per nuclide sample, an
// energy and an offset per union point, and one int32 per index cell.
const (
	bytesPerSample = 48
	bytesPerPoint  = 16
	bytesPerCell   = 4
)

// EstimateBytes approximates the memory held by the nuclide grids, the union
// grid and the index table for the given problem shape.
func EstimateBytes(isotopes, points int) uint64 {
	n := uint64(isotopes) * uint64(points)
	return n*bytesPerSample + n*bytesPerPoint + n*uint64(isotopes)*bytesPerCell
}
