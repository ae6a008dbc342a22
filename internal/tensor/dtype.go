// Package tensor provides the typed array storage, its summary renderer and the
// shared array handle used across tensordata.
package tensor

import (
	"fmt"
	"strings"

	"github.com/x448/float16"
)

// Element is a constraint for the Go types backing a storage buffer.
// Bool data is kept as uint8 and Float16 as float16.Float16.
type Element interface {
	~uint8 | ~int8 | ~int16 | ~int32 | ~int64 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
const (
	Bool DataType = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float16
	Float32
	Float64
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Bool, Int8, Uint8:
		return 1
	case Int16, Uint16, Float16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		panic(fmt.Sprintf("%v: %d", ErrUnsupportedType, int(dt)))
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Bool:
		return "bool"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Float16:
		return "float16"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// Valid reports whether dt is one of the supported data types.
func (dt DataType) Valid() bool {
	return dt >= Bool && dt <= Float64
}

// IsFloat reports whether values of dt are rendered in floating-point form.
func (dt DataType) IsFloat() bool {
	return dt == Float16 || dt == Float32 || dt == Float64
}

// IsSigned reports whether dt is a signed integer type.
func (dt DataType) IsSigned() bool {
	return dt == Int8 || dt == Int16 || dt == Int32 || dt == Int64
}

// IsNumber reports whether dt belongs to the numeric family (bool included).
func (dt DataType) IsNumber() bool {
	return dt.Valid()
}

// ParseDataType converts a name such as "float32" or "Int8" to a DataType.
func ParseDataType(name string) (DataType, error) {
	switch strings.ToLower(name) {
	case "bool":
		return Bool, nil
	case "int8":
		return Int8, nil
	case "int16":
		return Int16, nil
	case "int32", "int":
		return Int32, nil
	case "int64":
		return Int64, nil
	case "uint8":
		return Uint8, nil
	case "uint16":
		return Uint16, nil
	case "uint32":
		return Uint32, nil
	case "uint64":
		return Uint64, nil
	case "float16", "half":
		return Float16, nil
	case "float32", "float":
		return Float32, nil
	case "float64", "double":
		return Float64, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, name)
	}
}

// InferDataType returns the DataType stored by Go type T.
// uint8 maps to Uint8; use Bool explicitly for boolean masks.
func InferDataType[T Element]() DataType {
	var dummy T
	switch any(dummy).(type) {
	case uint8:
		return Uint8
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case float16.Float16:
		return Float16
	case float32:
		return Float32
	case float64:
		return Float64
	default:
		panic(fmt.Sprintf("%v: %T", ErrUnsupportedType, dummy))
	}
}

// DefaultDataType picks the data type used when a sequence or scalar is given
// without one: Int32 for integer input, Float32 for floating-point input.
func DefaultDataType[T Element]() DataType {
	if InferDataType[T]().IsFloat() {
		return Float32
	}
	return Int32
}

// isHalf reports whether T is the float16 storage type.
func isHalf[T Element]() bool {
	var dummy T
	_, ok := any(dummy).(float16.Float16)
	return ok
}
