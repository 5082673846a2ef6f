package model

import (
	"fmt"
	"strings"
)

// DimensionType enumerates the kinds of axes a variable can be laid out
// along. Independent dimensions carry their own fixed length instead of a
// product-wide shared one.
type DimensionType int

const (
	DimTime DimensionType = iota
	DimVertical
	DimLatitude
	DimLongitude
	DimSpectral
	DimIndependent
)

var dimensionTypeNames = map[DimensionType]string{
	DimTime:        "time",
	DimVertical:    "vertical",
	DimLatitude:    "latitude",
	DimLongitude:   "longitude",
	DimSpectral:    "spectral",
	DimIndependent: "independent",
}

// String returns the canonical lowercase name of the dimension type.
func (d DimensionType) String() string {
	if name, ok := dimensionTypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("dimension(%d)", int(d))
}

// ParseDimensionType converts a canonical dimension name into a DimensionType.
func ParseDimensionType(s string) (DimensionType, error) {
	for d, name := range dimensionTypeNames {
		if name == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown dimension type %q", s)
}

// Signature is the ordered list of dimension types describing a variable's
// shape. IndependentLength constrains the length of independent-kind
// positions; a value of -1 leaves them unconstrained.
type Signature struct {
	Dims              []DimensionType
	IndependentLength int
}

// Sig builds a signature without an independent-length constraint.
func Sig(dims ...DimensionType) Signature {
	return Signature{Dims: dims, IndependentLength: -1}
}

// SigN builds a signature whose independent positions are constrained to the
// given length.
func SigN(independentLength int, dims ...DimensionType) Signature {
	return Signature{Dims: dims, IndependentLength: independentLength}
}

// Arity returns the number of dimensions in the signature.
func (s Signature) Arity() int {
	return len(s.Dims)
}

// HasIndependent reports whether any position is of independent kind.
func (s Signature) HasIndependent() bool {
	for _, d := range s.Dims {
		if d == DimIndependent {
			return true
		}
	}
	return false
}

// Satisfies reports whether a variable or rule declared with signature s can
// answer a request for signature req: same arity, same kind per position,
// and when the request constrains the independent length, an equal declared
// length.
func (s Signature) Satisfies(req Signature) bool {
	if len(s.Dims) != len(req.Dims) {
		return false
	}
	for i, d := range s.Dims {
		if d != req.Dims[i] {
			return false
		}
		if d == DimIndependent && req.IndependentLength >= 0 &&
			s.IndependentLength != req.IndependentLength {
			return false
		}
	}
	return true
}

// String renders the signature in the textual form used throughout
// diagnostics, e.g. "{time,vertical}" or "{time,independent(2)}". A scalar
// signature renders as "{}".
func (s Signature) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, d := range s.Dims {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(d.String())
		if d == DimIndependent && s.IndependentLength >= 0 {
			fmt.Fprintf(&b, "(%d)", s.IndependentLength)
		}
	}
	b.WriteString("}")
	return b.String()
}
