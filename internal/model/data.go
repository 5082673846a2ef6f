package model

import "fmt"

// Data is a typed buffer holding a variable's values in row-major order.
type Data interface {
	Type() DataType
	Len() int
	Clone() Data
}

type Int8s []int8

func (d Int8s) Type() DataType { return Int8 }
func (d Int8s) Len() int       { return len(d) }
func (d Int8s) Clone() Data    { return append(Int8s(nil), d...) }

type Int16s []int16

func (d Int16s) Type() DataType { return Int16 }
func (d Int16s) Len() int       { return len(d) }
func (d Int16s) Clone() Data    { return append(Int16s(nil), d...) }

type Int32s []int32

func (d Int32s) Type() DataType { return Int32 }
func (d Int32s) Len() int       { return len(d) }
func (d Int32s) Clone() Data    { return append(Int32s(nil), d...) }

type Float32s []float32

func (d Float32s) Type() DataType { return Float }
func (d Float32s) Len() int       { return len(d) }
func (d Float32s) Clone() Data    { return append(Float32s(nil), d...) }

type Float64s []float64

func (d Float64s) Type() DataType { return Double }
func (d Float64s) Len() int       { return len(d) }
func (d Float64s) Clone() Data    { return append(Float64s(nil), d...) }

type Strings []string

func (d Strings) Type() DataType { return String }
func (d Strings) Len() int       { return len(d) }
func (d Strings) Clone() Data    { return append(Strings(nil), d...) }

// NewData allocates a zeroed buffer of n elements for the given type.
func NewData(t DataType, n int) Data {
	switch t {
	case Int8:
		return make(Int8s, n)
	case Int16:
		return make(Int16s, n)
	case Int32:
		return make(Int32s, n)
	case Float:
		return make(Float32s, n)
	case Double:
		return make(Float64s, n)
	case String:
		return make(Strings, n)
	}
	panic(fmt.Sprintf("model: unknown data type %d", int(t)))
}

// Float64At reads element i of a numeric buffer as a float64. It panics on
// string buffers; callers must check IsNumeric first.
func Float64At(d Data, i int) float64 {
	switch b := d.(type) {
	case Int8s:
		return float64(b[i])
	case Int16s:
		return float64(b[i])
	case Int32s:
		return float64(b[i])
	case Float32s:
		return float64(b[i])
	case Float64s:
		return b[i]
	}
	panic(fmt.Sprintf("model: non-numeric buffer %s", d.Type()))
}

// SetFloat64At stores x into element i of a numeric buffer, truncating for
// integer types. It panics on string buffers.
func SetFloat64At(d Data, i int, x float64) {
	switch b := d.(type) {
	case Int8s:
		b[i] = int8(x)
	case Int16s:
		b[i] = int16(x)
	case Int32s:
		b[i] = int32(x)
	case Float32s:
		b[i] = float32(x)
	case Float64s:
		b[i] = x
	default:
		panic(fmt.Sprintf("model: non-numeric buffer %s", d.Type()))
	}
}
