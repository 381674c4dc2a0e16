// Package port defines RawMemoryPort, the byte/word-addressed read/write
// contract every backend (PCIe, UIO, Rebot, Dummy, SharedDummy) implements,
// plus the optional interrupt-subscription capability used by
// package interrupt.
package port

import (
	"context"

	"devaccess/deverr"
)

// RawMemoryPort is the numeric-addressed backend's physical I/O contract.
// Implementations must serialize their own read/write path with a single
// per-backend mutex: callers may invoke Read/Write concurrently from
// multiple accessors.
type RawMemoryPort interface {
	// Read fills dst with n words read from bar at byte_offset.
	Read(bar int, byteOffset int, dst []int32) error
	// Write writes src to bar at byte_offset.
	Write(bar int, byteOffset int, src []int32) error
	// MinimumTransferAlignment reports the required alignment, in bytes,
	// for reads/writes to bar (typically 4).
	MinimumTransferAlignment(bar int) int
}

// InterruptSource is the optional capability a RawMemoryPort may offer: a
// hardware interrupt line the backend can poll/wait on and distribute.
type InterruptSource interface {
	// ActivateSubscription arms interruptID for delivery and
	// resolves the returned channel exactly once, after the initial poll
	// in InterruptDispatcher's subscribe sequence has completed.
	ActivateSubscription(ctx context.Context, interruptID int) (<-chan struct{}, error)
	// PendingEdges reports (and clears) outstanding edge count for
	// interruptID. Called by InterruptDispatcher's poll loop.
	PendingEdges(interruptID int) (int, error)
}

// InterruptTrigger is the optional capability of ports that can raise an
// interrupt from software. The dummy backends implement it; the catalogue's
// DUMMY_INTERRUPT_n write path depends on it.
type InterruptTrigger interface {
	TriggerInterrupt(interruptID int)
}

// CheckAlignment validates byteOffset/len(words)*4 against the port's
// reported alignment, returning a LogicError if violated.
func CheckAlignment(p RawMemoryPort, bar, byteOffset, nWords int) error {
	align := p.MinimumTransferAlignment(bar)
	if align <= 0 {
		align = 4
	}
	if byteOffset%align != 0 {
		return deverr.NewLogicf("port", "byte_offset %d not aligned to %d", byteOffset, align)
	}
	if (nWords*4)%align != 0 {
		return deverr.NewLogicf("port", "transfer size %d not aligned to %d", nWords*4, align)
	}
	return nil
}
