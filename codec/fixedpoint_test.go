package codec

import "testing"

func TestFixedPointKnownValues(t *testing.T) {
	fp, err := NewFixedPoint(16, 3, true)
	if err != nil {
		t.Fatal(err)
	}
	if got := fp.ToCooked(0x0019); got != 3.125 {
		t.Errorf("ToCooked(0x19) = %v, want 3.125", got)
	}
	if got := fp.ToRaw(-1.0); got != 0xFFF8 {
		t.Errorf("ToRaw(-1.0) = %#x, want 0xFFF8", got)
	}
	if got := fp.ToCooked(0x8000); got != -4096.0 {
		t.Errorf("ToCooked(0x8000) = %v, want -4096.0", got)
	}
}

func TestFixedPointRoundTripSweep(t *testing.T) {
	fp, err := NewFixedPoint(12, 4, true)
	if err != nil {
		t.Fatal(err)
	}
	for raw := uint32(0); raw < 1<<12; raw++ {
		cooked := fp.ToCooked(raw)
		back := fp.ToRaw(cooked)
		if back != raw {
			t.Fatalf("round trip mismatch raw=%#x cooked=%v back=%#x", raw, cooked, back)
		}
	}
}

func TestFixedPointSaturates(t *testing.T) {
	fp, err := NewFixedPoint(8, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if got := fp.ToRaw(1000); got != uint32(127) {
		t.Errorf("expected saturation to max 127, got %d", got)
	}
	if got := fp.ToRaw(-1000); got != uint32(0x80) {
		t.Errorf("expected saturation to min -128 (0x80), got %#x", got)
	}
}

func TestFixedPointMonotonic(t *testing.T) {
	fp, err := NewFixedPoint(10, 2, true)
	if err != nil {
		t.Fatal(err)
	}
	prev := fp.Min()
	for x := fp.Min(); x <= fp.Max(); x += 0.37 {
		raw := fp.ToRaw(x)
		cooked := fp.ToCooked(raw)
		if cooked < prev-1.0/4 { // allow one resolution step of noise
			t.Fatalf("non-monotonic at x=%v: cooked=%v prev=%v", x, cooked, prev)
		}
		prev = cooked
	}
}

func TestUnsignedFixedPoint(t *testing.T) {
	fp, err := NewFixedPoint(8, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if fp.ToCooked(0xFF) != 255 {
		t.Errorf("unsigned top value should be 255")
	}
	if fp.ToRaw(-5) != 0 {
		t.Errorf("unsigned codec should clamp negative to 0")
	}
}

func TestInvalidParams(t *testing.T) {
	if _, err := NewFixedPoint(0, 0, true); err == nil {
		t.Error("expected error for n_bits=0")
	}
	if _, err := NewFixedPoint(33, 0, true); err == nil {
		t.Error("expected error for n_bits=33")
	}
}
