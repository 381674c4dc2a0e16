// Package datatype defines the closed set of register data types and the
// user-facing scalar types that accessors are generic over.
package datatype

import "golang.org/x/exp/constraints"

// Type is the closed tag set a register (raw or cooked) can carry.
type Type uint8

const (
	Int8 Type = iota
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
	Boolean
	String
	Void
)

func (t Type) String() string {
	switch t {
	case Int8:
		return "int8"
	case Uint8:
		return "uint8"
	case Int16:
		return "int16"
	case Uint16:
		return "uint16"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	case Int64:
		return "int64"
	case Uint64:
		return "uint64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Boolean:
		return "boolean"
	case String:
		return "string"
	case Void:
		return "void"
	default:
		return "unknown"
	}
}

// IsNumeric reports whether values of this type participate in arithmetic
// conversions (i.e. everything except boolean, string and void).
func (t Type) IsNumeric() bool {
	switch t {
	case Boolean, String, Void:
		return false
	default:
		return true
	}
}

// IsIntegral reports whether the type is a fixed-width integer.
func (t Type) IsIntegral() bool {
	switch t {
	case Int8, Uint8, Int16, Uint16, Int32, Uint32, Int64, Uint64:
		return true
	default:
		return false
	}
}

// IsSigned reports whether the type is a signed integer or float.
func (t Type) IsSigned() bool {
	switch t {
	case Int8, Int16, Int32, Int64, Float32, Float64:
		return true
	default:
		return false
	}
}

// Signed constrains the built-in signed integer types.
type Signed interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// Unsigned constrains the built-in unsigned integer types.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Numeric is the closed set of arithmetic Go types accessors may be
// instantiated over.
type Numeric interface {
	constraints.Integer | constraints.Float
}

// UserType is the full closed set of Go types an NDRegisterAccessor[T] may
// be generic over: every Numeric type, plus bool and string.
type UserType interface {
	Numeric | ~bool | ~string
}

// FundamentalType classifies the cooked shape a register descriptor exposes.
type FundamentalType uint8

const (
	FundamentalNumeric FundamentalType = iota
	FundamentalString
	FundamentalBoolean
	FundamentalNoData
)

// Descriptor describes the cooked data a register exposes.
type Descriptor struct {
	Fundamental    FundamentalType
	RawType        Type // meaningful only when Fundamental == FundamentalNumeric
	HasRawType     bool
	IsIntegral     bool
	IsSigned       bool
	DecimalDigits  int
	FractionDigits int
}
