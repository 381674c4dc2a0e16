package device

import (
	"context"

	"devaccess/accessor"
	"devaccess/catalogue"
	"devaccess/datatype"
	"devaccess/deverr"
	"devaccess/lnm"
	"devaccess/port"
	"devaccess/regpath"
	"devaccess/transfer"
)

// Backend is the lifecycle contract every device backend implements,
// regardless of which accessor-construction path it supports.
type Backend interface {
	Open(ctx context.Context) error
	Close() error
	IsOpen() bool
}

// NumericBackend is a Backend whose registers are reached directly
// through a numeric-addressed catalogue and port (the flat/multiplexed
// register family: PCIe, UIO, Rebot, Dummy).
type NumericBackend interface {
	Backend
	Catalogue() *catalogue.Numeric
	Port() port.RawMemoryPort
}

// LNMBackend is a Backend whose registers are virtual, resolved through a
// LogicalNameMap to one or more target device aliases.
type LNMBackend interface {
	Backend
	Map() *lnm.Map
	Resolve(alias string) (lnm.Backend, error)
}

// Device is the user-facing handle returned by Registry.Open: close its
// backend and build typed accessors from it with GetAccessor.
type Device struct {
	backend Backend
}

// Close closes the underlying backend.
func (d *Device) Close() error { return d.backend.Close() }

// IsOpen reports whether the underlying backend is open.
func (d *Device) IsOpen() bool { return d.backend.IsOpen() }

// Backend exposes the underlying backend for callers that need
// backend-specific operations (recovery registry, interrupt wiring).
func (d *Device) Backend() Backend { return d.backend }

// GetAccessor builds a typed accessor for path in the given access mode,
// dispatching to the numeric-addressed or LNM construction path depending
// on which contract d's backend implements.
func GetAccessor[T datatype.UserType](d *Device, path regpath.Path, mode transfer.AccessMode) (*accessor.ND[T], error) {
	switch b := d.backend.(type) {
	case LNMBackend:
		return lnmAccessor[T](b, path, mode, d.IsOpen)
	case NumericBackend:
		info, err := b.Catalogue().GetNumericAddressed(path)
		if err != nil {
			return nil, err
		}
		nb, concrete := b.(*Numeric)
		isVoidTrigger := concrete && info.Access == catalogue.WriteOnly &&
			len(info.InterruptChain) > 0 && len(info.Channels) == 1 && info.Channels[0].Type == catalogue.VoidChannel
		switch {
		case isVoidTrigger:
			return newInterruptTriggerAccessor[T](nb, path, info, mode, d.IsOpen)
		case mode.WaitForNewData && concrete:
			return newInterruptAccessor[T](nb, path, info, mode, d.IsOpen)
		case mode.WaitForNewData:
			return nil, deverr.NewLogicf("device", "register %s: backend does not support wait_for_new_data", path)
		}
		inner, err := accessor.NewNumericAddressed[T](path, info, b.Port(), 0, 0, info.NElements, transfer.AccessMode{Raw: mode.Raw}, d.IsOpen)
		if err != nil {
			return nil, err
		}
		if concrete {
			return wrapNumericAccessor(nb, inner, info, path, mode, d.IsOpen), nil
		}
		return inner, nil
	default:
		return nil, deverr.NewLogicf("device", "backend does not support accessor construction")
	}
}

func lnmAccessor[T datatype.UserType](b LNMBackend, path regpath.Path, mode transfer.AccessMode, isOpen transfer.IsOpenFunc) (*accessor.ND[T], error) {
	info, err := b.Map().Get(path)
	if err != nil {
		return nil, err
	}
	switch info.TargetType {
	case lnm.TargetRegister:
		return lnm.NewRegisterAccessor[T](b.Map(), path, b.Resolve, mode, isOpen)
	case lnm.TargetChannel:
		return lnm.NewChannelAccessor[T](b.Map(), path, b.Resolve, mode, isOpen)
	case lnm.TargetBit:
		acc, err := lnm.NewBitAccessor(b.Map(), path, b.Resolve, mode, isOpen)
		if err != nil {
			return nil, err
		}
		out, ok := any(acc).(*accessor.ND[T])
		if !ok {
			return nil, deverr.NewLogicf("device", "%s is a BIT target: request GetAccessor[bool]", path)
		}
		return out, nil
	case lnm.TargetConstant:
		v, ok := info.Value.(T)
		if !ok {
			return nil, deverr.NewLogicf("device", "%s CONSTANT value is not of the requested type", path)
		}
		return lnm.NewConstantAccessor[T](b.Map(), path, v, isOpen)
	case lnm.TargetVariable:
		return lnm.NewVariableAccessor[T](b.Map(), path, mode, isOpen)
	default:
		return nil, deverr.NewLogicf("device", "%s: unknown logical name map target type", path)
	}
}
