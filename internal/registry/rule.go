package registry

import "github.com/atmogrid/atmogrid/internal/model"

// MaxSourcesPerRule bounds the number of source requirements a single rule
// may declare.
const MaxSourcesPerRule = 8

// ComputeFunc fills the pre-allocated target buffer from fully resolved
// source variables, given in the rule's declared source order. The engine
// surfaces any returned error unchanged as a fatal domain error.
type ComputeFunc func(target *model.Variable, sources []*model.Variable) error

// EnabledFunc gates a rule at search time. It must be pure and
// side-effect-free; a false result makes the engine skip the rule as if it
// were not registered.
type EnabledFunc func() bool

// SourceSpec describes one input a rule needs. Sources are resolved
// recursively exactly like a top-level request, then coerced to the declared
// unit and data type.
type SourceSpec struct {
	Name string
	Type model.DataType
	Unit string
	Sig  model.Signature
}

// Rule is a registered recipe producing one named, shaped, unit-tagged
// variable from zero or more source variables. Rules are immutable once
// registered.
type Rule struct {
	Name        string
	Type        model.DataType
	Unit        string
	Sig         model.Signature
	Sources     []SourceSpec
	Enabled     EnabledFunc
	Description string
	Compute     ComputeFunc
}

// WithSource appends a source requirement and returns the rule for chaining
// during construction, before the rule is registered.
func (c *Rule) WithSource(name string, t model.DataType, unit string, sig model.Signature) *Rule {
	c.Sources = append(c.Sources, SourceSpec{Name: name, Type: t, Unit: unit, Sig: sig})
	return c
}
