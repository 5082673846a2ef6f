// Package units implements the unit coercion collaborator consumed by the
// resolution engine. Units are modeled as a quantity tag plus a linear
// scale/offset against a reference unit of that quantity; conversion is only
// defined between units of the same quantity.
package units

import (
	"errors"
	"fmt"

	"github.com/atmogrid/atmogrid/internal/model"
)

// ErrUnitConversion is returned when a conversion between two units is not
// defined: an unknown unit, or units of different quantities.
var ErrUnitConversion = errors.New("unit conversion")

// def ties a unit symbol to its quantity and the linear map onto that
// quantity's reference unit: reference = value*scale + offset.
type def struct {
	quantity string
	scale    float64
	offset   float64
}

var table = map[string]def{
	// length, reference m
	"m":  {"length", 1, 0},
	"km": {"length", 1e3, 0},
	"cm": {"length", 1e-2, 0},
	"mm": {"length", 1e-3, 0},

	// pressure, reference Pa
	"Pa":  {"pressure", 1, 0},
	"hPa": {"pressure", 1e2, 0},
	"kPa": {"pressure", 1e3, 0},
	"bar": {"pressure", 1e5, 0},

	// temperature, reference K
	"K":    {"temperature", 1, 0},
	"degC": {"temperature", 1, 273.15},

	// time, reference s
	"s":   {"time", 1, 0},
	"min": {"time", 60, 0},
	"h":   {"time", 3600, 0},

	// angle, reference degree
	"degree":       {"angle", 1, 0},
	"degree_north": {"angle", 1, 0},
	"degree_east":  {"angle", 1, 0},
	"rad":          {"angle", 57.29577951308232, 0},

	// volume mixing ratio, reference ppv
	"ppv":  {"volume mixing ratio", 1, 0},
	"ppmv": {"volume mixing ratio", 1e-6, 0},
	"ppbv": {"volume mixing ratio", 1e-9, 0},

	// mass mixing ratio, reference kg/kg
	"kg/kg": {"mass mixing ratio", 1, 0},
	"g/kg":  {"mass mixing ratio", 1e-3, 0},
	"ug/g":  {"mass mixing ratio", 1e-6, 0},

	// column number density, reference molec/m^2
	"molec/m^2":  {"column number density", 1, 0},
	"molec/cm^2": {"column number density", 1e4, 0},

	// number density, reference molec/m^3
	"molec/m^3":  {"number density", 1, 0},
	"molec/cm^3": {"number density", 1e6, 0},
}

// Supported reports whether the unit symbol is known to the converter.
func Supported(unit string) bool {
	_, ok := table[unit]
	return ok
}

// Conversion returns the linear map converting values in the from unit to
// the to unit: converted = value*scale + offset.
func Conversion(from, to string) (scale, offset float64, err error) {
	if from == to {
		return 1, 0, nil
	}
	fd, ok := table[from]
	if !ok {
		return 0, 0, fmt.Errorf("unknown unit %q: %w", from, ErrUnitConversion)
	}
	td, ok := table[to]
	if !ok {
		return 0, 0, fmt.Errorf("unknown unit %q: %w", to, ErrUnitConversion)
	}
	if fd.quantity != td.quantity {
		return 0, 0, fmt.Errorf("cannot convert %s from %q to %q (%s): %w",
			fd.quantity, from, to, td.quantity, ErrUnitConversion)
	}
	scale = fd.scale / td.scale
	offset = (fd.offset - td.offset) / td.scale
	return scale, offset, nil
}

// ConvertVariable converts a variable's values to the target unit in place.
// The variable must be exclusively owned by the caller; the engine copies
// borrowed product variables before coercing them. String-typed variables
// cannot carry convertible units.
func ConvertVariable(v *model.Variable, target string) error {
	if v.Unit == target {
		return nil
	}
	if v.Unit == "" {
		return fmt.Errorf("variable %q has no unit to convert from: %w", v.Name, ErrUnitConversion)
	}
	if !v.Type.IsNumeric() {
		return fmt.Errorf("variable %q is not numeric: %w", v.Name, ErrUnitConversion)
	}
	scale, offset, err := Conversion(v.Unit, target)
	if err != nil {
		return fmt.Errorf("variable %q: %w", v.Name, err)
	}
	for i := 0; i < v.Data.Len(); i++ {
		model.SetFloat64At(v.Data, i, model.Float64At(v.Data, i)*scale+offset)
	}
	v.Unit = target
	return nil
}
