// Package codec implements the raw<->cooked conversions used by the
// numeric-addressed accessor layer: fixed-point two's-complement words and
// IEEE-754 single-precision floats.
package codec

import (
	"math"

	"devaccess/deverr"
	"devaccess/x/satmath"
)

// FixedPoint converts between a two's-complement raw word of n_bits width
// (with n_fractional_bits implied binary-point position) and a cooked
// float64.
type FixedPoint struct {
	nBits          int
	nFractional    int
	signed         bool
	mask           uint32
	scale          float64 // 2^(-nFractional)
	invScale       float64 // 2^(nFractional)
	minCooked      float64
	maxCooked      float64
}

// NewFixedPoint validates parameters and precomputes scale factors.
//
// n_bits must be in [1,32]. n_fractional_bits must keep the resulting
// cooked range representable in a float64, enforced as [-1024+nBits,
// 1023-nBits].
func NewFixedPoint(nBits, nFractional int, signed bool) (FixedPoint, error) {
	if nBits < 1 || nBits > 32 {
		return FixedPoint{}, deverr.NewLogicf("codec", "n_bits out of range [1,32]: %d", nBits)
	}
	if nFractional < nBits-1024 || nFractional > 1023-nBits {
		return FixedPoint{}, deverr.NewLogicf("codec", "n_fractional_bits out of range for n_bits=%d: %d", nBits, nFractional)
	}
	fp := FixedPoint{
		nBits:       nBits,
		nFractional: nFractional,
		signed:      signed,
	}
	if nBits == 32 {
		fp.mask = 0xFFFFFFFF
	} else {
		fp.mask = (uint32(1) << uint(nBits)) - 1
	}
	fp.scale = math.Ldexp(1, -nFractional)
	fp.invScale = math.Ldexp(1, nFractional)

	if signed {
		maxInt := int64(1)<<uint(nBits-1) - 1
		minInt := -(int64(1) << uint(nBits-1))
		fp.maxCooked = float64(maxInt) * fp.scale
		fp.minCooked = float64(minInt) * fp.scale
	} else {
		maxUint := uint64(1)<<uint(nBits) - 1
		fp.maxCooked = float64(maxUint) * fp.scale
		fp.minCooked = 0
	}
	return fp, nil
}

// NBits, NFractionalBits and Signed report the codec's parameters.
func (fp FixedPoint) NBits() int          { return fp.nBits }
func (fp FixedPoint) NFractionalBits() int { return fp.nFractional }
func (fp FixedPoint) Signed() bool        { return fp.signed }

// Min and Max report the cooked range, inclusive.
func (fp FixedPoint) Min() float64 { return fp.minCooked }
func (fp FixedPoint) Max() float64 { return fp.maxCooked }

// ToCooked converts a raw word to its cooked float64 value.
func (fp FixedPoint) ToCooked(raw uint32) float64 {
	v := raw & fp.mask
	var signedInt int64
	if fp.signed && fp.nBits > 0 {
		signBit := uint32(1) << uint(fp.nBits-1)
		if v&signBit != 0 {
			// Sign-extend to 64 bits.
			signedInt = int64(v) - int64(fp.mask) - 1
		} else {
			signedInt = int64(v)
		}
	} else {
		signedInt = int64(v)
	}
	return float64(signedInt) * fp.scale
}

// ToRaw converts a cooked float64 to its raw word, saturating to the
// codec's representable range and rounding half-to-even.
func (fp FixedPoint) ToRaw(cooked float64) uint32 {
	clamped := satmath.Clamp(cooked, fp.minCooked, fp.maxCooked)
	scaled := satmath.RoundToEven(clamped * fp.invScale)
	return uint32(int64(scaled)) & fp.mask
}
