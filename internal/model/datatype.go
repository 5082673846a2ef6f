package model

import "fmt"

// DataType enumerates the storage types a variable's buffer can have.
type DataType int

const (
	Int8 DataType = iota
	Int16
	Int32
	Float
	Double
	String
)

var dataTypeNames = map[DataType]string{
	Int8:   "int8",
	Int16:  "int16",
	Int32:  "int32",
	Float:  "float",
	Double: "double",
	String: "string",
}

// String returns the canonical lowercase name of the data type.
func (t DataType) String() string {
	if name, ok := dataTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("datatype(%d)", int(t))
}

// IsNumeric reports whether values of this type participate in arithmetic
// coercion.
func (t DataType) IsNumeric() bool {
	return t != String
}

// ParseDataType converts a canonical type name into a DataType.
func ParseDataType(s string) (DataType, error) {
	for t, name := range dataTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown data type %q", s)
}
