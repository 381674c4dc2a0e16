// Package accessor implements NDRegisterAccessor[T]: the generic, typed,
// two-dimensional buffer every concrete register handle is built from, plus
// the numeric-addressed backend's flat and multiplexed register wiring.
package accessor

import (
	"devaccess/datatype"
	"devaccess/x/satmath"
)

// SatCast converts a cooked float64 (as produced by codec.FixedPoint or
// codec.IEEE754) into the accessor's user type T, saturating to T's range
// when T is integral and leaving NaN/Inf semantics to the caller's codec
// for floating types. A bool T becomes f != 0. Called for every element of
// every read/write when T is numeric or bool; string accessors take their
// own string-specific paths.
func SatCast[T datatype.UserType](f float64) T {
	var zero T
	switch any(zero).(type) {
	case int8:
		return any(int8(satmath.SaturatingInt64(f, -128, 127))).(T)
	case int16:
		return any(int16(satmath.SaturatingInt64(f, -32768, 32767))).(T)
	case int32:
		return any(int32(satmath.SaturatingInt64(f, -2147483648, 2147483647))).(T)
	case int64:
		return any(satmath.SaturatingInt64(f, -1<<63, 1<<63-1)).(T)
	case uint8:
		return any(uint8(satmath.SaturatingUint64(f, 255))).(T)
	case uint16:
		return any(uint16(satmath.SaturatingUint64(f, 65535))).(T)
	case uint32:
		return any(uint32(satmath.SaturatingUint64(f, 4294967295))).(T)
	case uint64:
		return any(satmath.SaturatingUint64(f, 1<<64-1)).(T)
	case float32:
		return any(satmath.SaturatingFloat32(f)).(T)
	case float64:
		return any(f).(T)
	case bool:
		return any(f != 0).(T)
	default:
		return zero
	}
}

// ToFloat widens a cooked user value v of type T back to float64, the
// common currency every codec operates in. Strings have no numeric
// projection and return 0.
func ToFloat[T datatype.UserType](v T) float64 {
	switch x := any(v).(type) {
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case float64:
		return x
	case bool:
		if x {
			return 1
		}
		return 0
	default:
		return 0
	}
}
