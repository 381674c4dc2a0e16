package device

import (
	"context"
	"strconv"
	"sync"

	"devaccess/asyncdomain"
	"devaccess/catalogue"
	"devaccess/deverr"
	"devaccess/interrupt"
	"devaccess/port"
	"devaccess/recovery"
	"devaccess/x/devlog"
)

// Numeric is a concrete NumericBackend: a catalogue paired with whichever
// RawMemoryPort openFn produces, plus the recovery and async-domain
// bookkeeping every backend needs (replay-on-reopen, fault-all-domains-on-
// close). UIO, Rebot, Dummy and SharedDummy backends are all just
// different openFn implementations wired into this one type.
type Numeric struct {
	cat     *catalogue.Numeric
	openFn  func(ctx context.Context) (port.RawMemoryPort, error)
	closeFn func(port.RawMemoryPort) error

	recoveryReg *recovery.Registry
	asyncMgr    *asyncdomain.Manager
	monitor     *recovery.Monitor
	log         devlog.Logger

	mu        sync.Mutex
	p         port.RawMemoryPort
	isOpen    bool
	activeErr error

	irqMu       sync.Mutex
	dispatchers map[int]*interrupt.Dispatcher
	irqDomains  map[int]*asyncdomain.Domain[struct{}]
}

// NewNumeric builds a Numeric backend. openFn constructs (or reconnects)
// the underlying port; closeFn, if non-nil, is invoked with the current
// port on Close. monitor may be nil if nobody observes this backend's
// link state.
func NewNumeric(cat *catalogue.Numeric, openFn func(ctx context.Context) (port.RawMemoryPort, error), closeFn func(port.RawMemoryPort) error, monitor *recovery.Monitor) *Numeric {
	return &Numeric{
		cat:         cat,
		openFn:      openFn,
		closeFn:     closeFn,
		recoveryReg: recovery.NewRegistry(),
		asyncMgr:    asyncdomain.NewManager(),
		monitor:     monitor,
		log:         devlog.Nop(),
		dispatchers: map[int]*interrupt.Dispatcher{},
		irqDomains:  map[int]*asyncdomain.Domain[struct{}]{},
	}
}

// SetLogger routes the backend's open/close/recovery transitions to l.
func (n *Numeric) SetLogger(l devlog.Logger) {
	if l != nil {
		n.log = l
	}
}

// Open connects the port and replays the last write of every
// write-capable accessor that has completed a write since it was built.
func (n *Numeric) Open(ctx context.Context) error {
	n.mu.Lock()
	p, err := n.openFn(ctx)
	if err != nil {
		n.mu.Unlock()
		if n.monitor != nil {
			n.monitor.Set(recovery.LinkDown)
		}
		return err
	}
	n.p = p
	n.isOpen = true
	n.activeErr = nil
	n.mu.Unlock()

	if n.monitor != nil {
		n.monitor.Set(recovery.LinkUp)
	}
	n.log.Infof("backend open, replaying recovery writes")
	// Replay outside the backend lock: replayed writes re-enter IsOpen
	// and Port on their way to the hardware.
	return n.recoveryReg.ReplayAll()
}

// Close marks the backend closed and faults every registered async
// domain, unblocking any accessor waiting on WaitForNewData.
func (n *Numeric) Close() error {
	n.mu.Lock()
	p := n.p
	n.isOpen = false
	n.mu.Unlock()

	n.irqMu.Lock()
	dispatchers := n.dispatchers
	n.dispatchers = map[int]*interrupt.Dispatcher{}
	n.irqDomains = map[int]*asyncdomain.Domain[struct{}]{}
	n.irqMu.Unlock()
	for _, d := range dispatchers {
		d.Close()
	}

	n.log.Infof("backend closing")
	n.asyncMgr.FaultAll(deverr.ErrDeviceNotOpened)
	if n.monitor != nil {
		n.monitor.Set(recovery.LinkDown)
	}
	if n.closeFn != nil && p != nil {
		return n.closeFn(p)
	}
	return nil
}

// Fault quiesces the backend after a RuntimeError observed mid-transfer:
// the device stays open, but the error is pinned as the active exception
// and every subsequent transfer fails fast with it until a successful
// reopen clears it.
func (n *Numeric) Fault(err error) {
	n.mu.Lock()
	n.activeErr = err
	n.mu.Unlock()
	n.log.Warnf("backend faulted: %v", err)
	n.asyncMgr.FaultAll(err)
	if n.monitor != nil {
		n.monitor.Set(recovery.LinkDegraded)
	}
}

// InterruptDomain returns (creating and starting on first use) the
// dispatcher-fed domain for interruptID. The port must offer the
// InterruptSource capability; otherwise wait_for_new_data accessors cannot
// be built on this backend.
func (n *Numeric) InterruptDomain(ctx context.Context, interruptID int) (*asyncdomain.Domain[struct{}], error) {
	n.irqMu.Lock()
	defer n.irqMu.Unlock()
	if d, ok := n.irqDomains[interruptID]; ok {
		return d, nil
	}
	src, ok := n.Port().(port.InterruptSource)
	if !ok {
		return nil, deverr.NewLogicf("device", "backend port does not support interrupt subscriptions")
	}
	domain := asyncdomain.New[struct{}](0)
	disp := interrupt.New(src, interruptID, domain)
	if err := disp.Subscribe(ctx); err != nil {
		return nil, err
	}
	asyncdomain.Register(n.asyncMgr, "interrupt/"+strconv.Itoa(interruptID), domain)
	n.irqDomains[interruptID] = domain
	n.dispatchers[interruptID] = disp
	return domain, nil
}

// ActiveException returns the pinned RuntimeError of a faulted backend,
// or nil while the backend is healthy.
func (n *Numeric) ActiveException() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.activeErr
}

// IsOpen implements Backend.
func (n *Numeric) IsOpen() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.isOpen
}

// Catalogue implements NumericBackend.
func (n *Numeric) Catalogue() *catalogue.Numeric { return n.cat }

// Port implements NumericBackend.
func (n *Numeric) Port() port.RawMemoryPort {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.p
}

// RecoveryRegistry exposes the backend's RecoveryHelper registry so
// write-capable accessors built against this backend can register their
// replay hook.
func (n *Numeric) RecoveryRegistry() *recovery.Registry { return n.recoveryReg }

// AsyncManager exposes the backend's domain registry so interrupt
// dispatchers and other push-mode sources can register for FaultAll.
func (n *Numeric) AsyncManager() *asyncdomain.Manager { return n.asyncMgr }

var _ NumericBackend = (*Numeric)(nil)
