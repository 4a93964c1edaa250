// Package lookup computes microscopic and macroscopic cross sections against
// a built unionized grid.
package lookup

import (
	"github.com/specialistvlad/xsbenchgo/internal/material"
	"github.com/specialistvlad/xsbenchgo/internal/nuclide"
	"github.com/specialistvlad/xsbenchgo/internal/unionized"
)

// Channel indexes into a Vector.
const (
	Total = iota
	Elastic
	Absorption
	Fission
	NuFission
	Channels
)

// Vector holds one value per reaction channel.
type Vector [Channels]float64

// Scale returns v multiplied element-wise by c.
func (v Vector) Scale(c float64) Vector {
	for k := range v {
		v[k] *= c
	}
	return v
}

// Add returns the element-wise sum.
func (v Vector) Add(o Vector) Vector {
	for k := range v {
		v[k] += o[k]
	}
	return v
}

// Interpolate linearly interpolates between two bracketing samples. f = 0
// reproduces high exactly and f = 1 reproduces low.
func Interpolate(low, high *nuclide.Sample, energy float64) Vector {
	f := (high.Energy - energy) / (high.Energy - low.Energy)
	return Vector{
		high.Total - f*(high.Total-low.Total),
		high.Elastic - f*(high.Elastic-low.Elastic),
		high.Absorption - f*(high.Absorption-low.Absorption),
		high.Fission - f*(high.Fission-low.Fission),
		high.NuFission - f*(high.NuFission-low.NuFission),
	}
}

// Engine performs lookups against shared, read-only data. All methods are
// safe for concurrent use.
type Engine struct {
	grid      *unionized.Grid
	materials *material.Table
}

// New returns an engine over a built grid and a validated material table.
func New(grid *unionized.Grid, materials *material.Table) *Engine {
	return &Engine{grid: grid, materials: materials}
}

// Grid returns the union grid the engine reads.
func (e *Engine) Grid() *unionized.Grid { return e.grid }

// Materials returns the material table the engine reads.
func (e *Engine) Materials() *material.Table { return e.materials }

// Micro interpolates one isotope's channels at energy, given the union grid
// position idx already located for that energy.
func (e *Engine) Micro(energy float64, idx, isotope int) Vector {
	nuclides := e.grid.Nuclides
	j := int(e.grid.Row(idx)[isotope])
	if j == nuclides.Points-1 {
		j--
	}
	row := nuclides.Isotope(isotope)
	return Interpolate(&row[j], &row[j+1], energy)
}

// Macro returns the concentration-weighted sum of every constituent's micro
// cross sections for material mat at energy.
func (e *Engine) Macro(energy float64, mat int) Vector {
	var macro Vector
	idx := e.grid.Search(energy)
	m := &e.materials.Materials[mat]
	for i, iso := range m.Isotopes {
		micro := e.Micro(energy, idx, iso)
		conc := m.Concentrations[i]
		for k := range macro {
			macro[k] += micro[k] * conc
		}
	}
	return macro
}
