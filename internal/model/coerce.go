package model

import (
	"errors"
	"fmt"
)

// ErrInvalidType is returned when a buffer cannot be converted to the
// requested storage type, e.g. between string and numeric types.
var ErrInvalidType = errors.New("invalid type")

// ConvertDataType converts a variable's buffer to the target storage type in
// place. The variable must be exclusively owned by the caller; the engine
// copies borrowed product variables before coercing them. String buffers
// cannot be converted to or from numeric types.
func ConvertDataType(v *Variable, t DataType) error {
	if v.Type == t {
		return nil
	}
	if !v.Type.IsNumeric() || !t.IsNumeric() {
		return fmt.Errorf("cannot convert variable %q from %s to %s: %w", v.Name, v.Type, t, ErrInvalidType)
	}
	out := NewData(t, v.Data.Len())
	for i := 0; i < v.Data.Len(); i++ {
		SetFloat64At(out, i, Float64At(v.Data, i))
	}
	v.Data = out
	v.Type = t
	return nil
}
