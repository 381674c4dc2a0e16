// Package transfer implements TransferElement, the base state machine every
// accessor (NDRegisterAccessor, LNM accessors, decorators) drives through
// Idle -> PreTransfer -> Transfer -> PostTransfer -> Idle. A Base is a
// plain value driven by explicit method calls from its single owning user
// goroutine; it is not an actor loop.
package transfer

import (
	"devaccess/deverr"
	"devaccess/version"
)

// Validity is the fault marker attached to every transfer.
type Validity uint8

const (
	Ok Validity = iota
	Faulty
)

// Combine merges validities: if any contributing validity is Faulty, the
// combined result is Faulty.
func Combine(a, b Validity) Validity {
	if a == Faulty || b == Faulty {
		return Faulty
	}
	return Ok
}

// AccessMode carries the two independent accessor flags.
type AccessMode struct {
	Raw            bool
	WaitForNewData bool
}

// Phase names the transfer-element's state machine position. Exposed for
// diagnostics; callers never set it directly.
type Phase uint8

const (
	Idle Phase = iota
	PreTransfer
	TransferPhase
	PostTransfer
)

// IsOpenFunc reports whether the owning backend is currently open. Every
// transfer call raises deverr.ErrDeviceNotOpened when this returns false.
type IsOpenFunc func() bool

// Base is embedded by every concrete accessor and decorator. It is not
// safe for concurrent use: a single accessor must be driven by a single
// user goroutine; concurrent access is a caller bug, not something this
// type defends against.
type Base struct {
	phase    Phase
	version  version.Number
	validity Validity
	active   error
	mode     AccessMode
	isOpen   IsOpenFunc
}

// NewBase constructs a Base. mode and isOpen are fixed for the accessor's
// lifetime.
func NewBase(mode AccessMode, isOpen IsOpenFunc) Base {
	return Base{mode: mode, isOpen: isOpen, version: version.Zero}
}

// Version returns the last value committed by a successful read/write.
func (b *Base) Version() version.Number { return b.version }

// Validity returns the current data validity.
func (b *Base) Validity() Validity { return b.validity }

// ActiveException returns the exception captured by the last failed
// transfer, or nil.
func (b *Base) ActiveException() error { return b.active }

// AccessMode returns the accessor's fixed flags.
func (b *Base) AccessMode() AccessMode { return b.mode }

func (b *Base) checkOpen() error {
	if b.isOpen != nil && !b.isOpen() {
		return deverr.ErrDeviceNotOpened
	}
	return nil
}

// PreRead enters PreTransfer for a read operation, checking that the
// backend is open.
func (b *Base) PreRead() error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	b.phase = PreTransfer
	return nil
}

// DoReadResult is what a concrete read transfer function reports back to
// PostRead. Version carries the stamp of the distribution that produced a
// pushed value; poll transfers leave it zero and PostRead allocates a
// fresh stamp instead.
type DoReadResult struct {
	HasNewData bool
	Validity   Validity
	Version    version.Number
	Err        error
}

// PostRead completes a read: on success it commits the version (bumped
// strictly iff hasNewData), adopts the transfer's validity, and clears any
// prior active exception; on
// failure it records the exception (captured in active) and rethrows it,
// leaving version and validity unchanged.
func (b *Base) PostRead(res DoReadResult) error {
	b.phase = PostTransfer
	defer func() { b.phase = Idle }()

	if res.Err != nil {
		b.active = res.Err
		return res.Err
	}
	b.active = nil
	if res.HasNewData {
		if res.Version.IsZero() {
			b.version = version.New()
		} else {
			b.version = res.Version
		}
		b.validity = res.Validity
	}
	return nil
}

// PreWrite enters PreTransfer for a write operation, checking that the
// backend is open, and allocates the new VersionNumber that will be
// committed on success.
func (b *Base) PreWrite() (version.Number, error) {
	if err := b.checkOpen(); err != nil {
		return version.Zero, err
	}
	b.phase = PreTransfer
	return version.New(), nil
}

// DoWriteResult is what a concrete write transfer function reports back to
// PostWrite.
type DoWriteResult struct {
	DataLost bool
	Err      error
}

// PostWrite completes a write, committing newVersion on success.
func (b *Base) PostWrite(newVersion version.Number, res DoWriteResult) (dataLost bool, err error) {
	b.phase = PostTransfer
	defer func() { b.phase = Idle }()

	if res.Err != nil {
		b.active = res.Err
		return false, res.Err
	}
	b.active = nil
	b.version = newVersion
	return res.DataLost, nil
}

// CurrentPhase reports the accessor's current state-machine position.
func (b *Base) CurrentPhase() Phase { return b.phase }
