package codec

import (
	"math"
	"testing"
)

func TestIEEE754RoundTrip(t *testing.T) {
	var c IEEE754
	for _, v := range []float64{0, 1, -1, 3.5, -3.5, 1e10, -1e10} {
		raw := c.ToRaw(v)
		got := c.ToCooked(raw)
		tol := 1e-6 * math.Max(1, math.Abs(v))
		if math.Abs(got-v) > tol {
			t.Errorf("round trip mismatch for %v: got %v", v, got)
		}
	}
}

func TestIEEE754NaNAndInf(t *testing.T) {
	var c IEEE754
	raw := c.ToRaw(math.NaN())
	if !math.IsNaN(float64(math.Float32frombits(raw))) {
		t.Errorf("expected NaN to be preserved in raw")
	}
	rawInf := c.ToRaw(math.Inf(1))
	cooked := c.ToCooked(rawInf)
	if !math.IsInf(float64(float32(cooked)), 1) && cooked < math.MaxFloat32 {
		t.Errorf("expected +Inf to saturate to MaxFloat32, got %v", cooked)
	}
	if got := c.ToCookedInt64(math.Float32bits(float32(math.NaN())), -100, 100); got != 0 {
		t.Errorf("NaN->integral should be 0, got %d", got)
	}
}
