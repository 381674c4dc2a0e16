package regpath

import "testing"

func TestRoundTrip(t *testing.T) {
	cases := []string{"/a/b/c", "a/b", "/", "", "ADC/VOLTAGE"}
	for _, s := range cases {
		p := ParseDefault(s)
		got := ParseDefault(p.String())
		if !got.Equal(p) {
			t.Errorf("round trip failed for %q: got %q want %q", s, got, p)
		}
	}
}

func TestAltSeparator(t *testing.T) {
	p1 := Parse("ADC.VOLTAGE", '.')
	p2 := Parse("ADC/VOLTAGE", '.')
	if !p1.Equal(p2) {
		t.Fatalf("alt separator did not normalize: %q vs %q", p1, p2)
	}
}

func TestPushPop(t *testing.T) {
	p := New("a", "b")
	q := p.Push("c")
	if q.Pop().String() != p.String() {
		t.Fatalf("(p/c)-- != p: got %q want %q", q.Pop(), p)
	}
}

func TestEmptyEqualsSlash(t *testing.T) {
	if New().String() != "/" {
		t.Fatalf("empty path should print as /")
	}
	if !ParseDefault("/").Equal(New()) {
		t.Fatalf("parse(/) should equal empty path")
	}
}

func TestStartsEndsWith(t *testing.T) {
	p := New("ADC", "VOLTAGE", "DUMMY_WRITEABLE")
	if !p.StartsWith(New("ADC")) {
		t.Fatalf("expected StartsWith ADC")
	}
	if !p.EndsWith(New("DUMMY_WRITEABLE")) {
		t.Fatalf("expected EndsWith DUMMY_WRITEABLE")
	}
	if !p.HasSuffix("DUMMY_WRITEABLE") {
		t.Fatalf("expected HasSuffix DUMMY_WRITEABLE")
	}
}

func TestTrimSuffix(t *testing.T) {
	p := New("ADC", "VOLTAGE_RAW")
	if got := p.TrimSuffix("_RAW").String(); got != "/ADC/VOLTAGE" {
		t.Fatalf("partial trim: got %q", got)
	}
	// Trimming away a whole segment drops it.
	q := ParseDefault("/ADC/VOLTAGE/DUMMY_WRITEABLE")
	if got := q.TrimSuffix("DUMMY_WRITEABLE").String(); got != "/ADC/VOLTAGE" {
		t.Fatalf("whole-segment trim: got %q", got)
	}
}
