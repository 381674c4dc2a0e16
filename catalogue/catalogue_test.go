package catalogue

import (
	"testing"

	"devaccess/regpath"
)

func adcVoltage() NumericAddressedRegisterInfo {
	return NumericAddressedRegisterInfo{
		Path:             regpath.ParseDefault("ADC.VOLTAGE"),
		NElements:        1,
		AddressBytes:     0,
		NBytes:           4,
		Bar:              0,
		Access:           ReadOnly,
		ElementPitchBits: 32,
		Channels: []ChannelInfo{
			{Width: 16, NFractionalBits: 3, Signed: true, Type: FixedPointChannel},
		},
	}
}

func TestDummyWriteableResolution(t *testing.T) {
	c := NewNumeric()
	c.SetBarSize(0, 64)
	if err := c.Add(adcVoltage()); err != nil {
		t.Fatal(err)
	}
	writeablePath := regpath.ParseDefault("ADC.VOLTAGE/DUMMY_WRITEABLE")
	if !c.HasRegister(writeablePath) {
		t.Fatal("expected DUMMY_WRITEABLE to exist")
	}
	info, err := c.GetNumericAddressed(writeablePath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Access != ReadWrite {
		t.Fatalf("expected DUMMY_WRITEABLE access to be read_write, got %v", info.Access)
	}
}

func TestDummyInterruptResolution(t *testing.T) {
	c := NewNumeric()
	c.SetBarSize(0, 64)
	reg := adcVoltage()
	reg.Path = regpath.ParseDefault("STATUS")
	reg.Access = Interrupt
	reg.InterruptChain = []int{7}
	if err := c.Add(reg); err != nil {
		t.Fatal(err)
	}
	interruptPath := regpath.New("DUMMY_INTERRUPT_7")
	if !c.HasRegister(interruptPath) {
		t.Fatal("expected DUMMY_INTERRUPT_7 to exist once interrupt 7 is registered")
	}
	info, err := c.GetNumericAddressed(interruptPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Access != WriteOnly || len(info.Channels) != 1 || info.Channels[0].Type != VoidChannel {
		t.Fatalf("expected write_only void register, got %+v", info)
	}

	// An interrupt ID that was never registered must not resolve.
	if c.HasRegister(regpath.New("DUMMY_INTERRUPT_99")) {
		t.Fatal("expected DUMMY_INTERRUPT_99 to be absent")
	}
}

func TestUnknownRegisterFails(t *testing.T) {
	c := NewNumeric()
	if _, err := c.Get(regpath.ParseDefault("NOPE")); err == nil {
		t.Fatal("expected error for unknown register")
	}
}

func TestHiddenVsIterate(t *testing.T) {
	c := NewNumeric()
	c.SetBarSize(0, 64)
	_ = c.Add(adcVoltage())
	if len(c.Iterate()) != 1 {
		t.Fatalf("expected 1 visible register")
	}
	hidden := c.HiddenRegisters()
	if len(hidden) != 1 || hidden[0].Path.String() != "/ADC/VOLTAGE/DUMMY_WRITEABLE" {
		t.Fatalf("expected hidden DUMMY_WRITEABLE entry, got %+v", hidden)
	}
}

func TestClone(t *testing.T) {
	c := NewNumeric()
	c.SetBarSize(0, 64)
	_ = c.Add(adcVoltage())
	clone := c.Clone()
	if !clone.HasRegister(regpath.ParseDefault("ADC.VOLTAGE")) {
		t.Fatal("expected clone to carry registers")
	}
	// Mutating the original after clone must not affect the clone.
	extra := adcVoltage()
	extra.Path = regpath.ParseDefault("ADC.VOLTAGE2")
	_ = c.Add(extra)
	if clone.HasRegister(regpath.ParseDefault("ADC.VOLTAGE2")) {
		t.Fatal("clone should not observe post-clone mutations")
	}
}

func TestValidateBarBounds(t *testing.T) {
	reg := adcVoltage()
	reg.NElements = 1000
	if err := reg.Validate(64); err == nil {
		t.Fatal("expected validation failure for oversized register")
	}
}
