package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/atmogrid/atmogrid/internal/ctxlog"
	"github.com/atmogrid/atmogrid/internal/model"
	"github.com/atmogrid/atmogrid/internal/registry"
)

// request describes what a search step is looking for. Top-level requests
// leave the type unconstrained; source requirements constrain it.
type request struct {
	name string
	sig  model.Signature
}

// guardKey identifies an in-progress derivation on the current search path.
// Keyed by (name, dimension count) rather than name alone: two rules for the
// same name with different arity are genuinely different derivations and do
// not conflict with each other's recursion.
type guardKey struct {
	name  string
	arity int
}

// search is the state of one top-level resolution: the product, the registry
// being searched, and the shared exclusion set. It lives for exactly one
// Derive call.
type search struct {
	product  *model.Product
	reg      *registry.Registry
	inFlight map[guardKey]struct{}
}

// findAndExecute tries the registered candidates for a request in
// registration order and executes the first one whose sources all resolve.
// It fails with ErrVariableNotFound when no candidate succeeds; any error
// other than an unreachable source aborts the search.
func (s *search) findAndExecute(ctx context.Context, req request) (*model.Variable, error) {
	logger := ctxlog.FromContext(ctx)

	for _, cand := range s.reg.Lookup(req.name) {
		if cand.Enabled != nil && !cand.Enabled() {
			continue
		}
		key := guardKey{name: req.name, arity: cand.Sig.Arity()}
		if _, busy := s.inFlight[key]; busy {
			continue
		}
		if !cand.Sig.Satisfies(req.sig) {
			continue
		}

		s.inFlight[key] = struct{}{}
		out, err := s.executeCandidate(ctx, cand)
		delete(s.inFlight, key)

		if err != nil {
			if errors.Is(err, ErrVariableNotFound) {
				// This candidate's sources are unreachable; backtrack to the
				// next candidate.
				logger.Debug("Candidate not derivable, trying next.",
					"target", req.name, "signature", cand.Sig.String())
				continue
			}
			return nil, err
		}
		return out, nil
	}

	return nil, fmt.Errorf("could not derive variable %q%s: %w", req.name, req.sig, ErrVariableNotFound)
}

// executeCandidate resolves every source of a candidate in declared order
// and invokes its compute callback. Temporaries are released on every path,
// success and failure alike.
func (s *search) executeCandidate(ctx context.Context, cand *registry.Rule) (*model.Variable, error) {
	sources := make([]resolvedSource, 0, len(cand.Sources))
	releaseSources := func() {
		for _, src := range sources {
			src.release()
		}
	}

	for _, spec := range cand.Sources {
		src, err := s.resolveSource(ctx, spec)
		if err != nil {
			releaseSources()
			return nil, err
		}
		sources = append(sources, src)
	}

	out, err := s.materialize(cand)
	if err != nil {
		releaseSources()
		return nil, err
	}

	vars := make([]*model.Variable, len(sources))
	for i, src := range sources {
		vars[i] = src.variable
	}
	if err := cand.Compute(out, vars); err != nil {
		out.Release()
		releaseSources()
		return nil, fmt.Errorf("conversion for %q failed: %w", cand.Name, err)
	}

	releaseSources()
	return out, nil
}

// materialize allocates the candidate's output variable: independent
// dimension lengths come from the rule, all other lengths from the product's
// shared per-kind lengths.
func (s *search) materialize(cand *registry.Rule) (*model.Variable, error) {
	lengths := make([]int, cand.Sig.Arity())
	for i, d := range cand.Sig.Dims {
		if d == model.DimIndependent {
			lengths[i] = cand.Sig.IndependentLength
			continue
		}
		n, ok := s.product.DimensionLength(d)
		if !ok {
			return nil, fmt.Errorf("product %q does not define a length for dimension %s needed by %q: %w",
				s.product.Source, d, cand.Name, ErrInvalidArgument)
		}
		lengths[i] = n
	}

	v, err := model.NewVariable(cand.Name, cand.Type, cand.Sig.Dims, lengths)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidArgument)
	}
	v.Unit = cand.Unit
	return v, nil
}
