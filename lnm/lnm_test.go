package lnm

import (
	"testing"

	"devaccess/catalogue"
	"devaccess/datatype"
	"devaccess/port"
	"devaccess/port/dummy"
	"devaccess/regpath"
	"devaccess/transfer"
)

type testBackend struct {
	cat  *catalogue.Numeric
	port port.RawMemoryPort
}

func (b *testBackend) Catalogue() *catalogue.Numeric { return b.cat }
func (b *testBackend) Port() port.RawMemoryPort      { return b.port }
func (b *testBackend) IsOpen() bool                  { return true }

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()
	p := dummy.New(map[int]int{0: 16})
	cat := catalogue.NewNumeric()
	cat.SetBarSize(0, 64)
	if err := cat.Add(catalogue.NumericAddressedRegisterInfo{
		Path:             regpath.New("REG"),
		NElements:        1,
		AddressBytes:     0,
		NBytes:           4,
		Bar:              0,
		ElementPitchBits: 32,
		Access:           catalogue.ReadWrite,
		Channels:         []catalogue.ChannelInfo{{Width: 32, Signed: false, Type: catalogue.FixedPointChannel}},
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return &testBackend{cat: cat, port: p}
}

func TestLNMBitTarget(t *testing.T) {
	backend := newTestBackend(t)
	resolve := func(alias string) (Backend, error) { return backend, nil }

	m := New()
	m.Add(RegisterInfo{
		Path:               regpath.New("BIT5"),
		TargetType:         TargetBit,
		TargetRegisterPath: regpath.New("REG"),
		Bit:                5,
	})

	bitAcc, err := NewBitAccessor(m, regpath.New("BIT5"), resolve, transfer.AccessMode{}, func() bool { return true })
	if err != nil {
		t.Fatalf("NewBitAccessor: %v", err)
	}

	bitAcc.SetScalar(true)
	if _, err := bitAcc.Write(); err != nil {
		t.Fatalf("Write(true): %v", err)
	}

	raw := readRawWord(t, backend)
	if raw != 0b100000 {
		t.Fatalf("after writing bit 5 true: raw = %#x, want 0x20", raw)
	}

	bitAcc.SetScalar(false)
	if _, err := bitAcc.Write(); err != nil {
		t.Fatalf("Write(false): %v", err)
	}
	raw = readRawWord(t, backend)
	if raw != 0 {
		t.Fatalf("after writing bit 5 false: raw = %#x, want 0", raw)
	}
}

func readRawWord(t *testing.T, backend *testBackend) uint32 {
	t.Helper()
	buf := make([]int32, 1)
	if err := backend.port.Read(0, 0, buf); err != nil {
		t.Fatalf("raw read: %v", err)
	}
	return uint32(buf[0])
}

func TestLNMRegisterTargetForwards(t *testing.T) {
	backend := newTestBackend(t)
	resolve := func(alias string) (Backend, error) { return backend, nil }

	m := New()
	m.Add(RegisterInfo{
		Path:               regpath.New("ALIAS_REG"),
		TargetType:         TargetRegister,
		TargetRegisterPath: regpath.New("REG"),
		Length:             1,
	})

	acc, err := NewRegisterAccessor[uint32](m, regpath.New("ALIAS_REG"), resolve, transfer.AccessMode{}, func() bool { return true })
	if err != nil {
		t.Fatalf("NewRegisterAccessor: %v", err)
	}
	acc.SetScalar(7)
	if _, err := acc.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if raw := readRawWord(t, backend); raw != 7 {
		t.Fatalf("raw = %d, want 7", raw)
	}
}

func TestLNMConstantCannotBeWritten(t *testing.T) {
	m := New()
	m.Add(RegisterInfo{
		Path:       regpath.New("PI"),
		TargetType: TargetConstant,
		ValueType:  datatype.Float64,
	})

	acc, err := NewConstantAccessor[float64](m, regpath.New("PI"), 3.14159, func() bool { return true })
	if err != nil {
		t.Fatalf("NewConstantAccessor: %v", err)
	}
	if err := acc.Read(); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if acc.Scalar() != 3.14159 {
		t.Fatalf("Scalar() = %v, want 3.14159", acc.Scalar())
	}
	if _, err := acc.Write(); err == nil {
		t.Fatal("expected LogicError writing a CONSTANT")
	}
}

func TestLNMVariableReadWrite(t *testing.T) {
	m := New()
	m.Add(RegisterInfo{
		Path:       regpath.New("SETPOINT"),
		TargetType: TargetVariable,
		ValueType:  datatype.Float64,
	})

	w, err := NewVariableAccessor[float64](m, regpath.New("SETPOINT"), transfer.AccessMode{}, func() bool { return true })
	if err != nil {
		t.Fatalf("NewVariableAccessor (writer): %v", err)
	}
	w.SetScalar(42.5)
	if _, err := w.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}

	r, err := NewVariableAccessor[int32](m, regpath.New("SETPOINT"), transfer.AccessMode{}, func() bool { return true })
	if err != nil {
		t.Fatalf("NewVariableAccessor (reader): %v", err)
	}
	if err := r.Read(); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if r.Scalar() != 42 {
		t.Fatalf("Scalar() = %v, want 42 (42.5 rounded half to even via SatCast)", r.Scalar())
	}
}

func TestMathPluginRecomputesOnDependencyWrite(t *testing.T) {
	m := New()
	m.Add(RegisterInfo{Path: regpath.New("A"), TargetType: TargetVariable, ValueType: datatype.Float64})
	m.Add(RegisterInfo{Path: regpath.New("B"), TargetType: TargetVariable, ValueType: datatype.Float64})
	m.Add(RegisterInfo{Path: regpath.New("SUM"), TargetType: TargetVariable, ValueType: datatype.Float64})

	NewMathPlugin(m, []string{"/A", "/B"}, "/SUM", func(in []float64) float64 {
		return in[0] + in[1]
	})

	a, _ := NewVariableAccessor[float64](m, regpath.New("A"), transfer.AccessMode{}, func() bool { return true })
	b, _ := NewVariableAccessor[float64](m, regpath.New("B"), transfer.AccessMode{}, func() bool { return true })
	sum, _ := NewVariableAccessor[float64](m, regpath.New("SUM"), transfer.AccessMode{}, func() bool { return true })

	a.SetScalar(2)
	if _, err := a.Write(); err != nil {
		t.Fatalf("write A: %v", err)
	}
	b.SetScalar(3)
	if _, err := b.Write(); err != nil {
		t.Fatalf("write B: %v", err)
	}

	if err := sum.Read(); err != nil {
		t.Fatalf("read SUM: %v", err)
	}
	if sum.Scalar() != 5 {
		t.Fatalf("SUM = %v, want 5", sum.Scalar())
	}
}
