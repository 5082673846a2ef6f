package model

import (
	"fmt"
	"sync/atomic"
)

// liveBuffers counts variables whose buffer has been allocated but not yet
// released. The resolution engine's temporary bookkeeping is verified against
// this counter in tests.
var liveBuffers atomic.Int64

// LiveBuffers returns the number of variable buffers currently alive.
func LiveBuffers() int64 {
	return liveBuffers.Load()
}

// Variable is a named, typed, multi-dimensional array with an associated
// unit. Lengths holds the concrete extent of each dimension in Dims.
type Variable struct {
	Name    string
	Type    DataType
	Unit    string
	Dims    []DimensionType
	Lengths []int
	Data    Data

	released bool
}

// NewVariable allocates a variable with a zeroed buffer sized to the product
// of the dimension lengths. A scalar variable has no dimensions and a buffer
// of one element.
func NewVariable(name string, t DataType, dims []DimensionType, lengths []int) (*Variable, error) {
	if name == "" {
		return nil, fmt.Errorf("variable name is empty")
	}
	if len(dims) != len(lengths) {
		return nil, fmt.Errorf("variable %q: %d dimension types for %d lengths", name, len(dims), len(lengths))
	}
	n := 1
	for i, length := range lengths {
		if length <= 0 {
			return nil, fmt.Errorf("variable %q: dimension %s has invalid length %d", name, dims[i], length)
		}
		n *= length
	}
	v := &Variable{
		Name:    name,
		Type:    t,
		Dims:    append([]DimensionType(nil), dims...),
		Lengths: append([]int(nil), lengths...),
		Data:    NewData(t, n),
	}
	liveBuffers.Add(1)
	return v, nil
}

// NumElements returns the total number of elements in the buffer.
func (v *Variable) NumElements() int {
	return v.Data.Len()
}

// Signature returns the variable's dimension signature. The independent
// length is taken from the first independent-kind position, or -1 when the
// variable has none.
func (v *Variable) Signature() Signature {
	sig := Signature{Dims: v.Dims, IndependentLength: -1}
	for i, d := range v.Dims {
		if d == DimIndependent {
			sig.IndependentLength = v.Lengths[i]
			break
		}
	}
	return sig
}

// HasSignature reports whether the variable's shape answers a request for
// the given signature: same arity and per-position kind, and for independent
// positions an equal length whenever the request constrains one.
func (v *Variable) HasSignature(sig Signature) bool {
	if len(v.Dims) != len(sig.Dims) {
		return false
	}
	for i, d := range v.Dims {
		if d != sig.Dims[i] {
			return false
		}
		if d == DimIndependent && sig.IndependentLength >= 0 && v.Lengths[i] != sig.IndependentLength {
			return false
		}
	}
	return true
}

// Copy returns an independently owned deep copy of the variable.
func (v *Variable) Copy() *Variable {
	out := &Variable{
		Name:    v.Name,
		Type:    v.Type,
		Unit:    v.Unit,
		Dims:    append([]DimensionType(nil), v.Dims...),
		Lengths: append([]int(nil), v.Lengths...),
		Data:    v.Data.Clone(),
	}
	liveBuffers.Add(1)
	return out
}

// Release frees the variable's buffer. It is idempotent; releasing a
// variable twice is a no-op so every exit path of the resolution engine can
// release unconditionally.
func (v *Variable) Release() {
	if v == nil || v.released {
		return
	}
	v.released = true
	v.Data = nil
	liveBuffers.Add(-1)
}

// String renders the variable header in the diagnostic form
// "name {dims} [unit] (type)".
func (v *Variable) String() string {
	s := v.Name
	if len(v.Dims) > 0 {
		s += " " + v.Signature().String()
	}
	if v.Unit != "" {
		s += " [" + v.Unit + "]"
	}
	return s + " (" + v.Type.String() + ")"
}
