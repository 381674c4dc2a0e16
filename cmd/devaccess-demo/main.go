// devaccess-demo wires a dummy device end to end: it builds a small
// catalogue, opens the device through the registry, pokes a read-only
// register through its DUMMY_WRITEABLE twin, and drives a push accessor
// from a software-triggered interrupt.
package main

import (
	"context"
	"fmt"
	"os"

	"devaccess/bus"
	"devaccess/catalogue"
	"devaccess/device"
	"devaccess/regpath"
	"devaccess/transfer"
	"devaccess/x/devlog"
)

func buildCatalogue(string) (*catalogue.Numeric, error) {
	cat := catalogue.NewNumeric()
	cat.SetBarSize(0, 256)

	if err := cat.Add(catalogue.NumericAddressedRegisterInfo{
		Path:      regpath.ParseDefault("/ADC/VOLTAGE"),
		NElements: 1, AddressBytes: 0x00, NBytes: 4, Bar: 0,
		Channels:         []catalogue.ChannelInfo{{Width: 16, NFractionalBits: 3, Signed: true, Type: catalogue.FixedPointChannel}},
		Access:           catalogue.ReadOnly,
		ElementPitchBits: 32,
	}); err != nil {
		return nil, err
	}
	return cat, cat.Add(catalogue.NumericAddressedRegisterInfo{
		Path:      regpath.ParseDefault("/ADC/SAMPLES"),
		NElements: 4, AddressBytes: 0x10, NBytes: 16, Bar: 0,
		Channels:         []catalogue.ChannelInfo{{Width: 32, Signed: true, Type: catalogue.FixedPointChannel}},
		Access:           catalogue.Interrupt,
		ElementPitchBits: 32,
		InterruptChain:   []int{7},
	})
}

func run() error {
	b := bus.NewBus(4)
	registry := device.NewDefaultRegistry(device.FactoryConfig{
		LoadCatalogue: buildCatalogue,
		Logger:        devlog.Std(),
		Bus:           b,
	})

	dev, err := registry.Open(context.Background(), "dummy?map=demo")
	if err != nil {
		return err
	}
	defer dev.Close()

	// Write the raw word 25 through the DUMMY_WRITEABLE twin, then read
	// the cooked fixed-point value back (16 bits, 3 fractional, signed).
	poke, err := device.GetAccessor[int32](dev, regpath.ParseDefault("/ADC/VOLTAGE/DUMMY_WRITEABLE"), transfer.AccessMode{Raw: true})
	if err != nil {
		return err
	}
	poke.SetScalar(25)
	if _, err := poke.Write(); err != nil {
		return err
	}

	voltage, err := device.GetAccessor[float64](dev, regpath.ParseDefault("/ADC/VOLTAGE"), transfer.AccessMode{})
	if err != nil {
		return err
	}
	if err := voltage.Read(); err != nil {
		return err
	}
	fmt.Printf("ADC.VOLTAGE = %g\n", voltage.Scalar())

	// Push data: subscribe to the interrupt-fed samples register, then
	// raise interrupt 7 by writing its trigger register.
	samples, err := device.GetAccessor[int32](dev, regpath.ParseDefault("/ADC/SAMPLES"), transfer.AccessMode{WaitForNewData: true})
	if err != nil {
		return err
	}
	if err := samples.Read(); err != nil { // initial value
		return err
	}

	irq, err := device.GetAccessor[int32](dev, regpath.ParseDefault("/DUMMY_INTERRUPT_7"), transfer.AccessMode{})
	if err != nil {
		return err
	}
	if _, err := irq.Write(); err != nil {
		return err
	}
	if err := samples.Read(); err != nil {
		return err
	}
	fmt.Printf("ADC.SAMPLES = %v (version %d)\n", samples.Channel(0), samples.Version().Raw())
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "devaccess-demo:", err)
		os.Exit(1)
	}
}
