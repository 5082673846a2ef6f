// Package schema declares the HCL structure of AtmoGrid job files: the
// products to build and the variables to derive from them.
package schema

import "github.com/hashicorp/hcl/v2"

// DimensionBlock establishes the shared length of a dimension kind within a
// product, e.g. `dimension "time" { length = 4 }`.
type DimensionBlock struct {
	Kind   string `hcl:"kind,label"`
	Length int    `hcl:"length"`
}

// VariableBlock declares one variable of a product. Values is kept as an
// unevaluated expression so the loader can coerce it to the declared element
// type.
type VariableBlock struct {
	Name        string         `hcl:"name,label"`
	Type        string         `hcl:"type"`
	Unit        string         `hcl:"unit,optional"`
	Dims        []string       `hcl:"dims,optional"`
	Values      hcl.Expression `hcl:"values"`
	Description string         `hcl:"description,optional"`
}

// ProductBlock is one `product "<source>" { ... }` block.
type ProductBlock struct {
	Source     string            `hcl:"source,label"`
	Dimensions []*DimensionBlock `hcl:"dimension,block"`
	Variables  []*VariableBlock  `hcl:"variable,block"`
}

// DeriveBlock requests one derived variable using the textual target syntax,
// e.g. `derive "altitude {time,vertical} [m]" {}`.
type DeriveBlock struct {
	Target string `hcl:"target,label"`
}

// JobConfig is the top-level structure of a job file.
type JobConfig struct {
	Options  string          `hcl:"options,optional"`
	Products []*ProductBlock `hcl:"product,block"`
	Derives  []*DeriveBlock  `hcl:"derive,block"`
}
