package codec

import (
	"math"

	"devaccess/x/satmath"
)

// IEEE754 converts between a 32-bit IEEE-754 raw word and a cooked float64.
// Unlike FixedPoint it carries no parameters: the raw format is always
// binary32.
type IEEE754 struct{}

// ToCooked reinterprets raw as an IEEE-754 binary32 and widens to float64.
func (IEEE754) ToCooked(raw uint32) float64 {
	return float64(math.Float32frombits(raw))
}

// ToRaw narrows cooked to binary32, saturating infinities and preserving
// NaN.
func (IEEE754) ToRaw(cooked float64) uint32 {
	return math.Float32bits(satmath.SaturatingFloat32(cooked))
}

// ToCookedInt64 converts a raw IEEE-754 word directly to an int64 user
// value, saturating at [lo,hi] and mapping NaN to 0.
func (c IEEE754) ToCookedInt64(raw uint32, lo, hi int64) int64 {
	f := c.ToCooked(raw)
	return satmath.SaturatingInt64(f, lo, hi)
}

// FromInt64 converts an integral user value to a raw IEEE-754 word.
func (c IEEE754) FromInt64(v int64) uint32 {
	return c.ToRaw(float64(v))
}
