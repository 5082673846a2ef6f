package varspec

import "github.com/atmogrid/atmogrid/internal/model"

// Target is the structured representation of a requested variable: its name,
// dimension signature, and optional unit.
type Target struct {
	Name string
	Sig  model.Signature
	Unit string
}

// String renders the target back into its canonical textual form.
func (t *Target) String() string {
	s := t.Name
	if t.Sig.Arity() > 0 {
		s += " " + t.Sig.String()
	}
	if t.Unit != "" {
		s += " [" + t.Unit + "]"
	}
	return s
}
