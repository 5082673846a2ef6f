package resolver

import (
	"context"

	"github.com/atmogrid/atmogrid/internal/model"
	"github.com/atmogrid/atmogrid/internal/registry"
	"github.com/atmogrid/atmogrid/internal/units"
)

// resolvedSource tags a resolved input with its ownership: a borrowed
// reference into the product, or an owned temporary the engine must release
// after the parent rule's compute callback consumes it.
type resolvedSource struct {
	variable *model.Variable
	owned    bool
}

// release frees the underlying buffer for owned temporaries and is a no-op
// for borrowed product variables.
func (r resolvedSource) release() {
	if r.owned {
		r.variable.Release()
	}
}

// resolveSource produces one input of a conversion rule. A variable already
// in the product with the right shape is borrowed as-is, or copied first
// when unit or type coercion is needed; anything else is derived through the
// rule search (sharing this search's exclusion set) and owned.
func (s *search) resolveSource(ctx context.Context, spec registry.SourceSpec) (resolvedSource, error) {
	if v, ok := s.product.Variable(spec.Name); ok && v.HasSignature(spec.Sig) {
		out := v
		owned := false
		if spec.Unit != "" && spec.Unit != out.Unit {
			out = v.Copy()
			owned = true
			if err := units.ConvertVariable(out, spec.Unit); err != nil {
				out.Release()
				return resolvedSource{}, err
			}
		}
		if out.Type != spec.Type {
			if !owned {
				out = v.Copy()
				owned = true
			}
			if err := model.ConvertDataType(out, spec.Type); err != nil {
				out.Release()
				return resolvedSource{}, err
			}
		}
		return resolvedSource{variable: out, owned: owned}, nil
	}

	derived, err := s.findAndExecute(ctx, request{name: spec.Name, sig: spec.Sig})
	if err != nil {
		return resolvedSource{}, err
	}
	if spec.Unit != "" && spec.Unit != derived.Unit {
		if err := units.ConvertVariable(derived, spec.Unit); err != nil {
			derived.Release()
			return resolvedSource{}, err
		}
	}
	if derived.Type != spec.Type {
		if err := model.ConvertDataType(derived, spec.Type); err != nil {
			derived.Release()
			return resolvedSource{}, err
		}
	}
	return resolvedSource{variable: derived, owned: true}, nil
}
