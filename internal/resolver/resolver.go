package resolver

import (
	"context"
	"fmt"

	"github.com/atmogrid/atmogrid/internal/ctxlog"
	"github.com/atmogrid/atmogrid/internal/model"
	"github.com/atmogrid/atmogrid/internal/registry"
	"github.com/atmogrid/atmogrid/internal/units"
)

// Resolver answers derived-variable requests against a conversion registry.
// It holds no per-request state; a single Resolver may serve any number of
// sequential Derive calls.
type Resolver struct {
	reg *registry.Registry
}

// New creates a Resolver searching the given registry.
func New(reg *registry.Registry) *Resolver {
	return &Resolver{reg: reg}
}

// Registry returns the registry the resolver searches.
func (r *Resolver) Registry() *registry.Registry {
	return r.reg
}

// Derive returns an independently owned variable with the requested name and
// dimension signature, converted to the requested unit when one is given.
// If the product already contains a matching variable the registry is never
// consulted; otherwise the conversion rule search runs. The product is never
// mutated. The caller owns the result and must release it.
func (r *Resolver) Derive(ctx context.Context, p *model.Product, name, unit string, sig model.Signature) (*model.Variable, error) {
	if name == "" {
		return nil, fmt.Errorf("name of variable to be derived is empty: %w", ErrInvalidArgument)
	}
	if sig.HasIndependent() && sig.IndependentLength == 0 {
		return nil, fmt.Errorf("variable %q requested with zero-length independent dimension: %w", name, ErrInvalidArgument)
	}
	logger := ctxlog.FromContext(ctx).With("variable", name)

	// Direct product hit: copy and coerce, never touch the registry.
	if v, ok := p.Variable(name); ok && v.HasSignature(sig) {
		logger.Debug("Variable present in product, returning coerced copy.")
		out := v.Copy()
		if unit != "" && unit != out.Unit {
			if err := units.ConvertVariable(out, unit); err != nil {
				out.Release()
				return nil, err
			}
		}
		return out, nil
	}

	logger.Debug("Variable not in product, searching conversion rules.", "signature", sig.String())
	s := &search{
		product:  p,
		reg:      r.reg,
		inFlight: make(map[guardKey]struct{}),
	}
	out, err := s.findAndExecute(ctx, request{name: name, sig: sig})
	if err != nil {
		return nil, err
	}

	// The result is an owned temporary, so the final unit coercion happens
	// in place without another copy.
	if unit != "" && unit != out.Unit {
		if err := units.ConvertVariable(out, unit); err != nil {
			out.Release()
			return nil, err
		}
	}
	logger.Debug("Derived variable.", "unit", out.Unit)
	return out, nil
}

// AddDerived ensures the product contains a variable with the given name,
// shape, and unit. A same-named variable with a matching shape is converted
// to the unit in place (left untouched when no unit is requested); a
// same-named variable with an incompatible shape is replaced by the freshly
// derived one.
func (r *Resolver) AddDerived(ctx context.Context, p *model.Product, name, unit string, sig model.Signature) error {
	if existing, ok := p.Variable(name); ok && existing.HasSignature(sig) {
		if unit != "" && unit != existing.Unit {
			return units.ConvertVariable(existing, unit)
		}
		return nil
	}

	derived, err := r.Derive(ctx, p, name, unit, sig)
	if err != nil {
		return err
	}
	if stale := p.RemoveVariable(name); stale != nil {
		stale.Release()
	}
	if err := p.AddVariable(derived); err != nil {
		derived.Release()
		return err
	}
	return nil
}
