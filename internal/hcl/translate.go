package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/xsbenchgo/internal/config"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

func translateSimulation(b *simulationBlock) config.Simulation {
	return config.Simulation{
		Size:       b.Size,
		Threads:    b.Threads,
		Isotopes:   b.Isotopes,
		GridPoints: b.GridPoints,
		Lookups:    b.Lookups,
		Verify:     b.Verify,
		Strategy:   b.Strategy,
		Replicas:   b.Replicas,
	}
}

func translateMaterials(blocks []*materialBlock, evalCtx *hcl.EvalContext) ([]*config.Material, error) {
	out := make([]*config.Material, 0, len(blocks))
	seen := make(map[string]struct{}, len(blocks))
	for _, b := range blocks {
		if _, dup := seen[b.Name]; dup {
			return nil, fmt.Errorf("%s: duplicate material %q", b.Isotopes.Range(), b.Name)
		}
		seen[b.Name] = struct{}{}

		m := &config.Material{Name: b.Name}
		if _, err := decodeList(b.Isotopes, evalCtx, &m.Isotopes); err != nil {
			return nil, fmt.Errorf("material %q isotopes: %w", b.Name, err)
		}
		if len(m.Isotopes) == 0 {
			return nil, fmt.Errorf("%s: material %q has no isotopes", b.Isotopes.Range(), b.Name)
		}
		set, err := decodeList(b.Concentrations, evalCtx, &m.Concentrations)
		if err != nil {
			return nil, fmt.Errorf("material %q concentrations: %w", b.Name, err)
		}
		if set && len(m.Concentrations) != len(m.Isotopes) {
			return nil, fmt.Errorf("%s: material %q has %d isotopes but %d concentrations",
				b.Concentrations.Range(), b.Name, len(m.Isotopes), len(m.Concentrations))
		}
		out = append(out, m)
	}
	return out, nil
}

// decodeList evaluates expr as a list of numbers into target, which must
// point to a slice. It reports false, leaving target untouched, when the
// expression is null, as it is for an omitted optional attribute.
func decodeList[T int | float64](expr hcl.Expression, evalCtx *hcl.EvalContext, target *[]T) (bool, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return false, diags
	}
	if val.IsNull() {
		return false, nil
	}
	list, err := convert.Convert(val, cty.List(cty.Number))
	if err != nil {
		return false, fmt.Errorf("%s: expected a list of numbers: %w", expr.Range(), err)
	}
	if !list.IsWhollyKnown() {
		return false, fmt.Errorf("%s: value is not known", expr.Range())
	}
	if err := gocty.FromCtyValue(list, target); err != nil {
		return false, fmt.Errorf("%s: %w", expr.Range(), err)
	}
	return true, nil
}
