// Package dummy implements an in-process RawMemoryPort backed by plain
// Go slices, one per BAR. It is the substrate the catalogue, accessor and
// LNM test suites exercise, and the backend used by the DUMMY_WRITEABLE /
// DUMMY_INTERRUPT_n catalogue conventions.
package dummy

import (
	"context"
	"sync"

	"devaccess/deverr"
	"devaccess/port"
)

// Port is an in-memory RawMemoryPort. Each BAR is a fixed-size []int32
// word array; Read/Write operate on byte offsets that must be word
// (4-byte) aligned, matching real hardware.
type Port struct {
	mu   sync.Mutex
	bars map[int][]int32

	open  bool
	fault error

	// Interrupt support: interruptID -> pending edge count.
	irqMu   sync.Mutex
	pending map[int]int
}

// New builds a Port with bars sized (in words) as given, keyed by BAR
// index.
func New(barWordSizes map[int]int) *Port {
	p := &Port{
		bars:    map[int][]int32{},
		pending: map[int]int{},
		open:    true,
	}
	for bar, words := range barWordSizes {
		p.bars[bar] = make([]int32, words)
	}
	return p
}

// Close marks the port closed; subsequent Read/Write return a LogicError.
func (p *Port) Close() {
	p.mu.Lock()
	p.open = false
	p.mu.Unlock()
}

// Reopen marks the port open again (used by recovery tests).
func (p *Port) Reopen() {
	p.mu.Lock()
	p.open = true
	p.mu.Unlock()
}

// SetFault injects err as a transport failure: every subsequent Read and
// Write fails with it until SetFault(nil) clears it. Tests use this to
// drive the backend's quiesce/recover cycle without real hardware.
func (p *Port) SetFault(err error) {
	p.mu.Lock()
	p.fault = err
	p.mu.Unlock()
}

func (p *Port) wordSlice(bar, byteOffset, n int) ([]int32, error) {
	words, ok := p.bars[bar]
	if !ok {
		return nil, deverr.NewLogicf("dummy", "invalid bar %d", bar)
	}
	if byteOffset%4 != 0 {
		return nil, deverr.NewLogicf("dummy", "misaligned byte_offset %d", byteOffset)
	}
	start := byteOffset / 4
	if start < 0 || start+n > len(words) {
		return nil, deverr.NewLogicf("dummy", "out of range: bar=%d offset=%d n=%d size=%d", bar, byteOffset, n, len(words))
	}
	return words[start : start+n], nil
}

// Read implements port.RawMemoryPort.
func (p *Port) Read(bar, byteOffset int, dst []int32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return deverr.ErrDeviceNotOpened
	}
	if p.fault != nil {
		return p.fault
	}
	src, err := p.wordSlice(bar, byteOffset, len(dst))
	if err != nil {
		return err
	}
	copy(dst, src)
	return nil
}

// Write implements port.RawMemoryPort.
func (p *Port) Write(bar, byteOffset int, src []int32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return deverr.ErrDeviceNotOpened
	}
	if p.fault != nil {
		return p.fault
	}
	dst, err := p.wordSlice(bar, byteOffset, len(src))
	if err != nil {
		return err
	}
	copy(dst, src)
	return nil
}

// MinimumTransferAlignment implements port.RawMemoryPort.
func (p *Port) MinimumTransferAlignment(int) int { return 4 }

// TriggerInterrupt simulates a hardware edge on interruptID. Used by the
// DUMMY_INTERRUPT_n write path and by tests that exercise the interrupt
// dispatcher directly.
func (p *Port) TriggerInterrupt(interruptID int) {
	p.irqMu.Lock()
	p.pending[interruptID]++
	p.irqMu.Unlock()
}

// ActivateSubscription implements port.InterruptSource. The dummy port has
// no real poll latency, so the activation future resolves immediately;
// InterruptDispatcher still performs its clear-then-poll-once sequence
// before signaling the subscriber (see package interrupt).
func (p *Port) ActivateSubscription(ctx context.Context, interruptID int) (<-chan struct{}, error) {
	ch := make(chan struct{})
	close(ch)
	return ch, nil
}

// PendingEdges implements port.InterruptSource: it returns and clears the
// pending edge count for interruptID.
func (p *Port) PendingEdges(interruptID int) (int, error) {
	p.irqMu.Lock()
	defer p.irqMu.Unlock()
	n := p.pending[interruptID]
	p.pending[interruptID] = 0
	return n, nil
}

var _ port.RawMemoryPort = (*Port)(nil)
var _ port.InterruptSource = (*Port)(nil)
