// Package material holds the read-only material table consumed by the lookup
// engine and the policy that maps a uniform roll to a material id.
package material

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/xsbenchgo/internal/rng"
)

// Count is the number of materials in every table.
const Count = 12

// SmallIsotopes is the isotope count of the small problem, which uses the
// reduced fuel composition.
const SmallIsotopes = 68

// LargeIsotopes is the isotope count of every other preset.
const LargeIsotopes = 355

// ErrInvalid wraps every table validation failure.
var ErrInvalid = errors.New("invalid material table")

// Material is one material's composition. Isotopes and Concentrations are
// parallel slices.
type Material struct {
	Name           string
	Isotopes       []int
	Concentrations []float64
}

// Len is the number of constituent isotopes.
func (m *Material) Len() int { return len(m.Isotopes) }

// Table is the full set of materials, indexed by material id.
type Table struct {
	Materials []Material
}

// Spec describes a material supplied from outside the program. A nil
// Concentrations slice means the concentrations are drawn at load time.
type Spec struct {
	Name           string
	Isotopes       []int
	Concentrations []float64
}

// Names are the built-in material names in id order.
var Names = [Count]string{
	"fuel",
	"cladding",
	"cold borated water",
	"hot borated water",
	"reactor pressure vessel",
	"lower radial reflector",
	"upper reflector / top plate",
	"bottom plate",
	"bottom nozzle",
	"top nozzle",
	"top of fuel assemblies",
	"bottom of fuel assemblies",
}

// Default builds the built-in table for the given isotope count. Fuel uses 34
// isotopes for the small problem and 321 otherwise; every other material has a
// fixed composition. Concentrations are drawn from src in flattened order,
// material 0 first.
func Default(isotopes int, src rng.Source) (*Table, error) {
	layout := Layout(isotopes)
	specs := make([]Spec, Count)
	for i := range specs {
		specs[i] = Spec{Name: Names[i], Isotopes: layout[i]}
	}
	return FromSpecs(specs, isotopes, src)
}

// FromSpecs builds a table from explicit specs. Missing concentrations are
// drawn from src in flattened order; supplied ones consume no draws.
func FromSpecs(specs []Spec, isotopes int, src rng.Source) (*Table, error) {
	if len(specs) != Count {
		return nil, fmt.Errorf("%w: need exactly %d materials, got %d", ErrInvalid, Count, len(specs))
	}
	t := &Table{Materials: make([]Material, len(specs))}
	for i, s := range specs {
		m := Material{Name: s.Name, Isotopes: append([]int(nil), s.Isotopes...)}
		if s.Concentrations != nil {
			m.Concentrations = append([]float64(nil), s.Concentrations...)
		} else {
			if src == nil {
				return nil, fmt.Errorf("%w: material %d has no concentrations and no source to draw them", ErrInvalid, i)
			}
			m.Concentrations = make([]float64, len(m.Isotopes))
			for j := range m.Concentrations {
				m.Concentrations[j] = src.Float64()
			}
		}
		t.Materials[i] = m
	}
	if err := t.Validate(isotopes); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the table against the isotope count of the problem.
func (t *Table) Validate(isotopes int) error {
	if len(t.Materials) != Count {
		return fmt.Errorf("%w: need exactly %d materials, got %d", ErrInvalid, Count, len(t.Materials))
	}
	for i, m := range t.Materials {
		if len(m.Isotopes) == 0 {
			return fmt.Errorf("%w: material %d (%s) has no isotopes", ErrInvalid, i, m.Name)
		}
		if len(m.Isotopes) != len(m.Concentrations) {
			return fmt.Errorf("%w: material %d (%s) has %d isotopes but %d concentrations", ErrInvalid, i, m.Name, len(m.Isotopes), len(m.Concentrations))
		}
		for j, id := range m.Isotopes {
			if id < 0 || id >= isotopes {
				return fmt.Errorf("%w: material %d (%s) references isotope %d, problem has %d", ErrInvalid, i, m.Name, id, isotopes)
			}
			if m.Concentrations[j] < 0 {
				return fmt.Errorf("%w: material %d (%s) has negative concentration at %d", ErrInvalid, i, m.Name, j)
			}
		}
	}
	return nil
}

// SetSize is the total number of (material, isotope) entries.
func (t *Table) SetSize() int {
	total := 0
	for i := range t.Materials {
		total += t.Materials[i].Len()
	}
	return total
}

// SetSizeFor is the set size of the built-in table for an isotope count.
func SetSizeFor(isotopes int) int {
	if isotopes == SmallIsotopes {
		return 197
	}
	return 484
}

// MinIsotopes is the smallest isotope count the built-in table can address.
func MinIsotopes(isotopes int) int {
	if isotopes == SmallIsotopes {
		return SmallIsotopes
	}
	return SmallIsotopes + largeFuelExtra
}
