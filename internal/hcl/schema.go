package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes all top-level blocks a run file may contain.
type fileRoot struct {
	Simulation *simulationBlock `hcl:"simulation,block"`
	Materials  []*materialBlock `hcl:"material,block"`
}

type simulationBlock struct {
	Size       *string `hcl:"size,optional"`
	Threads    *int    `hcl:"threads,optional"`
	Isotopes   *int    `hcl:"isotopes,optional"`
	GridPoints *int    `hcl:"gridpoints,optional"`
	Lookups    *int    `hcl:"lookups,optional"`
	Verify     *bool   `hcl:"verify,optional"`
	Strategy   *string `hcl:"strategy,optional"`
	Replicas   *int    `hcl:"replicas,optional"`
}

// materialBlock keeps its lists as raw expressions so they can be evaluated
// once the isotope count is known.
type materialBlock struct {
	Name           string         `hcl:"name,label"`
	Isotopes       hcl.Expression `hcl:"isotopes"`
	Concentrations hcl.Expression `hcl:"concentrations,optional"`
}
