package resolver

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/atmogrid/atmogrid/internal/model"
	"github.com/atmogrid/atmogrid/internal/registry"
)

// printer renders derivation trees. It reuses the search's matching and
// cycle-guard logic but never invokes compute callbacks: reachability is
// verified, not executed.
type printer struct {
	w io.Writer
	s *search
}

// Explain writes the derivation tree the search would choose for the given
// target against the product, without executing any conversion. It returns
// ErrVariableNotFound when the target is not derivable.
func (r *Resolver) Explain(ctx context.Context, w io.Writer, p *model.Product, name string, sig model.Signature) error {
	s := &search{product: p, reg: r.reg, inFlight: make(map[guardKey]struct{})}
	pr := &printer{w: w, s: s}

	if v, ok := p.Variable(name); ok && v.HasSignature(sig) {
		fmt.Fprintf(w, "%s\n  variable is present in the product\n", v.String())
		return nil
	}
	req := request{name: name, sig: sig}
	cand := s.findReachable(req)
	if cand == nil {
		return fmt.Errorf("could not derive variable %q%s: %w", name, sig, ErrVariableNotFound)
	}
	fmt.Fprintf(w, "%s", ruleHeader(cand))
	pr.printTree(cand, 1)
	return nil
}

// ListConversions writes a textual report of the registry. With a product it
// reports, per registered target name, the first candidate that is fully
// resolvable given the product's content, skipping targets whose matching
// variable already exists. Without a product it dumps every enabled rule
// grouped by target name.
func (r *Resolver) ListConversions(ctx context.Context, w io.Writer, p *model.Product) error {
	if p == nil {
		for _, name := range r.reg.TargetNames() {
			first := true
			for _, cand := range r.reg.Lookup(name) {
				if cand.Enabled != nil && !cand.Enabled() {
					continue
				}
				if first {
					fmt.Fprintln(w, strings.Repeat("=", 60))
					first = false
				}
				printRule(w, cand)
			}
		}
		return nil
	}

	s := &search{product: p, reg: r.reg, inFlight: make(map[guardKey]struct{})}
	pr := &printer{w: w, s: s}
	for _, name := range r.reg.TargetNames() {
		for _, cand := range r.reg.Lookup(name) {
			if cand.Enabled != nil && !cand.Enabled() {
				continue
			}
			// A variable that already exists with a compatible shape needs no
			// derivation; skip the whole target.
			if v, ok := p.Variable(name); ok && v.HasSignature(cand.Sig) {
				break
			}
			key := guardKey{name: name, arity: cand.Sig.Arity()}
			s.inFlight[key] = struct{}{}
			ok := s.candidateReachable(cand)
			delete(s.inFlight, key)
			if !ok {
				continue
			}
			fmt.Fprintf(w, "%s", ruleHeader(cand))
			pr.printTree(cand, 1)
			fmt.Fprintln(w)
			break
		}
	}
	return nil
}

// findReachable returns the first candidate for a request whose sources are
// all reachable, applying the same ordering, matching, and cycle-guard rules
// as the executing search.
func (s *search) findReachable(req request) *registry.Rule {
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
		ok := s.candidateReachable(cand)
		delete(s.inFlight, key)
		if ok {
			return cand
		}
	}
	return nil
}

// candidateReachable reports whether every source of a candidate is either
// present in the product or derivable.
func (s *search) candidateReachable(cand *registry.Rule) bool {
	for i := range cand.Sources {
		if !s.sourceReachable(&cand.Sources[i]) {
			return false
		}
	}
	return true
}

// sourceReachable checks one source requirement without executing anything.
// Unit and type mismatches are ignored here; they are coercible at execution
// time.
func (s *search) sourceReachable(spec *registry.SourceSpec) bool {
	if v, ok := s.product.Variable(spec.Name); ok && v.HasSignature(spec.Sig) {
		return true
	}
	return s.findReachable(request{name: spec.Name, sig: spec.Sig}) != nil
}

// printTree renders the source tree of a chosen candidate, recursing into
// derivable sources and annotating unreachable ones.
func (pr *printer) printTree(cand *registry.Rule, indent int) {
	pad := strings.Repeat("  ", indent)
	if len(cand.Sources) == 0 {
		fmt.Fprintf(pr.w, "\n%sderived without input variables\n", pad)
	} else {
		fmt.Fprint(pr.w, " from\n")
		for i := range cand.Sources {
			spec := &cand.Sources[i]
			fmt.Fprintf(pr.w, "%s%s", pad, sourceHeader(spec))
			if v, ok := pr.s.product.Variable(spec.Name); ok && v.HasSignature(spec.Sig) {
				fmt.Fprintln(pr.w)
				continue
			}
			sub := pr.s.findReachable(request{name: spec.Name, sig: spec.Sig})
			if sub == nil {
				fmt.Fprintf(pr.w, "\n%sERROR: could not derive variable %q\n", pad, spec.Name)
				continue
			}
			pr.printTree(sub, indent+1)
		}
	}
	if cand.Description != "" {
		fmt.Fprintf(pr.w, "%snote: %s\n", pad, cand.Description)
	}
}

// printRule writes a rule's full declaration: header, declared sources, and
// note. Used by the registry-wide dump, which does not consult any product.
func printRule(w io.Writer, cand *registry.Rule) {
	fmt.Fprint(w, ruleHeader(cand))
	if len(cand.Sources) == 0 {
		fmt.Fprint(w, "\n  derived without input variables\n")
	} else {
		fmt.Fprint(w, " from\n")
		for i := range cand.Sources {
			fmt.Fprintf(w, "  %s\n", sourceHeader(&cand.Sources[i]))
		}
	}
	if cand.Description != "" {
		fmt.Fprintf(w, "  note: %s\n", cand.Description)
	}
	fmt.Fprintln(w)
}

func ruleHeader(cand *registry.Rule) string {
	s := cand.Name
	if cand.Sig.Arity() > 0 {
		s += " " + cand.Sig.String()
	}
	if cand.Unit != "" {
		s += " [" + cand.Unit + "]"
	}
	return s + " (" + cand.Type.String() + ")"
}

func sourceHeader(spec *registry.SourceSpec) string {
	s := spec.Name
	if spec.Sig.Arity() > 0 {
		s += " " + spec.Sig.String()
	}
	if spec.Unit != "" {
		s += " [" + spec.Unit + "]"
	}
	return s + " (" + spec.Type.String() + ")"
}
