// Package satmath provides saturating, rounding numeric conversions shared
// by the fixed-point and IEEE-754 codecs.
package satmath

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Clamp limits v to [lo, hi]. If lo > hi the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RoundToEven rounds x to the nearest integer, ties to even, matching
// IEEE-754 "round half to even" semantics required by the fixed-point codec.
func RoundToEven(x float64) float64 { return math.RoundToEven(x) }

// SaturatingInt64 rounds x half-to-even and clamps it into [lo, hi] before
// converting to int64. NaN maps to 0.
func SaturatingInt64(x float64, lo, hi int64) int64 {
	if math.IsNaN(x) {
		return 0
	}
	if x <= float64(lo) {
		return lo
	}
	if x >= float64(hi) {
		return hi
	}
	return int64(RoundToEven(x))
}

// SaturatingUint64 is SaturatingInt64 restricted to the non-negative range.
func SaturatingUint64(x float64, hi uint64) uint64 {
	if math.IsNaN(x) || x <= 0 {
		return 0
	}
	if x >= float64(hi) {
		return hi
	}
	return uint64(RoundToEven(x))
}

// SaturatingFloat32 saturates x into float32 range; infinities saturate to
// +/-MaxFloat32, NaN is preserved as NaN (per the IEEE754 codec's
// cooked-float contract).
func SaturatingFloat32(x float64) float32 {
	if math.IsNaN(x) {
		return float32(math.NaN())
	}
	if x >= math.MaxFloat32 {
		return math.MaxFloat32
	}
	if x <= -math.MaxFloat32 {
		return -math.MaxFloat32
	}
	return float32(x)
}
