package loader

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/atmogrid/atmogrid/internal/model"
)

// fillValues evaluates a variable's values expression and copies the result
// into the variable's buffer in row-major order. The expression may be a
// single primitive for scalar variables or a flat list; elements are
// implicitly converted to the variable's element type.
func fillValues(variable *model.Variable, expr hcl.Expression) error {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return fmt.Errorf("failed to evaluate values: %w", diags)
	}

	elemType := cty.Number
	if variable.Type == model.String {
		elemType = cty.String
	}

	if val.Type().IsPrimitiveType() {
		val = cty.TupleVal([]cty.Value{val})
	}
	listVal, err := convert.Convert(val, cty.List(elemType))
	if err != nil {
		return fmt.Errorf("cannot convert values to list of %s: %w", elemType.FriendlyName(), err)
	}

	if n := listVal.LengthInt(); n != variable.NumElements() {
		return fmt.Errorf("got %d values for %d elements", n, variable.NumElements())
	}

	i := 0
	for it := listVal.ElementIterator(); it.Next(); i++ {
		_, elem := it.Element()
		if variable.Type == model.String {
			variable.Data.(model.Strings)[i] = elem.AsString()
			continue
		}
		f, _ := elem.AsBigFloat().Float64()
		model.SetFloat64At(variable.Data, i, f)
	}
	return nil
}
