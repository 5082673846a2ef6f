package model

import "fmt"

// Product is a uniquely-named collection of variables sharing per-kind
// dimension lengths. All variables using a non-independent dimension kind
// must agree on that kind's length within the product.
type Product struct {
	Source string

	dims      map[DimensionType]int
	variables map[string]*Variable
	order     []string
}

// NewProduct creates an empty product for the given source identifier.
func NewProduct(source string) *Product {
	return &Product{
		Source:    source,
		dims:      make(map[DimensionType]int),
		variables: make(map[string]*Variable),
	}
}

// DimensionLength returns the shared length of a dimension kind, if any
// variable has established it.
func (p *Product) DimensionLength(d DimensionType) (int, bool) {
	n, ok := p.dims[d]
	return n, ok
}

// SetDimensionLength establishes the shared length of a dimension kind ahead
// of adding variables. Conflicting lengths are rejected.
func (p *Product) SetDimensionLength(d DimensionType, length int) error {
	if d == DimIndependent {
		return fmt.Errorf("product %q: independent dimensions have no shared length", p.Source)
	}
	if length <= 0 {
		return fmt.Errorf("product %q: invalid length %d for dimension %s", p.Source, length, d)
	}
	if existing, ok := p.dims[d]; ok && existing != length {
		return fmt.Errorf("product %q: dimension %s length %d conflicts with established length %d",
			p.Source, d, length, existing)
	}
	p.dims[d] = length
	return nil
}

// AddVariable transfers ownership of a variable to the product. The name
// must be unique and the variable's non-independent dimension lengths must
// agree with the product's established lengths.
func (p *Product) AddVariable(v *Variable) error {
	if _, exists := p.variables[v.Name]; exists {
		return fmt.Errorf("product %q already has a variable named %q", p.Source, v.Name)
	}
	for i, d := range v.Dims {
		if d == DimIndependent {
			continue
		}
		if err := p.SetDimensionLength(d, v.Lengths[i]); err != nil {
			return fmt.Errorf("variable %q: %w", v.Name, err)
		}
	}
	p.variables[v.Name] = v
	p.order = append(p.order, v.Name)
	return nil
}

// Variable looks up a variable by name. The returned variable remains owned
// by the product; callers must copy before mutating.
func (p *Product) Variable(name string) (*Variable, bool) {
	v, ok := p.variables[name]
	return v, ok
}

// RemoveVariable detaches a variable from the product and returns it,
// transferring ownership to the caller. It returns nil if no variable with
// that name exists.
func (p *Product) RemoveVariable(name string) *Variable {
	v, ok := p.variables[name]
	if !ok {
		return nil
	}
	delete(p.variables, name)
	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return v
}

// Variables returns the product's variables in insertion order.
func (p *Product) Variables() []*Variable {
	out := make([]*Variable, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.variables[name])
	}
	return out
}

// Len returns the number of variables in the product.
func (p *Product) Len() int {
	return len(p.variables)
}

// Close releases every variable owned by the product.
func (p *Product) Close() {
	for _, v := range p.variables {
		v.Release()
	}
	p.variables = make(map[string]*Variable)
	p.order = nil
}
