package config

// Model is the unified, format-agnostic representation of a run file.
type Model struct {
	Simulation Simulation
	// Materials is either empty (built-in table) or one entry per material,
	// in material id order.
	Materials []*Material
}

// Simulation holds the scalar run parameters. A nil field was not set.
type Simulation struct {
	Size       *string
	Threads    *int
	Isotopes   *int
	GridPoints *int
	Lookups    *int
	Verify     *bool
	Strategy   *string
	Replicas   *int
}

// Material is the format-agnostic representation of a `material` block.
// A nil Concentrations slice means the concentrations are drawn at setup.
type Material struct {
	Name           string
	Isotopes       []int
	Concentrations []float64
}

// Merge overlays the fields set in o onto s.
func (s *Simulation) Merge(o Simulation) {
	if o.Size != nil {
		s.Size = o.Size
	}
	if o.Threads != nil {
		s.Threads = o.Threads
	}
	if o.Isotopes != nil {
		s.Isotopes = o.Isotopes
	}
	if o.GridPoints != nil {
		s.GridPoints = o.GridPoints
	}
	if o.Lookups != nil {
		s.Lookups = o.Lookups
	}
	if o.Verify != nil {
		s.Verify = o.Verify
	}
	if o.Strategy != nil {
		s.Strategy = o.Strategy
	}
	if o.Replicas != nil {
		s.Replicas = o.Replicas
	}
}
