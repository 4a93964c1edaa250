package hcl

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// functions available to every expression in a run file.
func functions() map[string]function.Function {
	return map[string]function.Function{
		"range":    stdlib.RangeFunc,
		"concat":   stdlib.ConcatFunc,
		"length":   stdlib.LengthFunc,
		"flatten":  stdlib.FlattenFunc,
		"distinct": stdlib.DistinctFunc,
		"min":      stdlib.MinFunc,
		"max":      stdlib.MaxFunc,
	}
}

// settingsContext evaluates the `simulation` block, which cannot refer to
// problem variables since it is what defines them.
func settingsContext() *hcl.EvalContext {
	return &hcl.EvalContext{Functions: functions()}
}

// materialContext evaluates `material` blocks with the resolved problem
// dimensions in scope.
func materialContext(nuclides int) *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: functions(),
		Variables: map[string]cty.Value{
			"nuclides": cty.NumberIntVal(int64(nuclides)),
		},
	}
}
