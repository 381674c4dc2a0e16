// Package asyncdomain implements AsyncDomain and the AsyncAccessorManager:
// the engine that distributes pushed data (interrupts, LNM VARIABLE writes,
// poll-distributors) to subscribed accessors with a consistent
// VersionNumber per distribution.
package asyncdomain

import (
	"sync"
	"sync/atomic"

	"devaccess/transfer"
	"devaccess/version"
	"devaccess/x/ringqueue"
)

// Envelope is one distributed unit of data: a payload, the VersionNumber
// stamping the distribution that produced it, and the data validity.
type Envelope[P any] struct {
	Payload  P
	Version  version.Number
	Validity transfer.Validity
	Err      error // non-nil on send_exception
}

const defaultQueueDepth = 3

// Subscription is the per-accessor handle returned by Domain.Subscribe.
// Ownership runs one way: the Domain owns the queue, the subscriber holds
// only this handle, so no reference cycle forms between accessors and the
// domains that feed them.
type Subscription[P any] struct {
	id      uint64
	queue   *ringqueue.Queue[Envelope[P]]
	domain  *Domain[P]
	initial chan Envelope[P] // resolved exactly once by activate()
	lost    atomic.Bool
}

// ID identifies the subscription within its domain.
func (s *Subscription[P]) ID() uint64 { return s.id }

// Queue exposes the bounded queue the domain pushes into.
func (s *Subscription[P]) Queue() *ringqueue.Queue[Envelope[P]] { return s.queue }

// TakeDataLost reports (and clears) whether a distribution overwrote a
// value this subscriber never consumed. The consumer's next read surfaces
// it as data_lost.
func (s *Subscription[P]) TakeDataLost() bool { return s.lost.Swap(false) }

// InitialValue resolves once activation has filled every subscriber's
// first value.
func (s *Subscription[P]) InitialValue() <-chan Envelope[P] { return s.initial }

// Unsubscribe drops the subscriber's queue handle. It takes the domain
// lock, so it waits for an in-flight Distribute, Activate or SendException
// to finish. Those calls run no subscriber code while holding the lock;
// the lock is not reentrant, so a same-goroutine call made from under it
// would block rather than be deferred.
func (s *Subscription[P]) Unsubscribe() { s.domain.unsubscribe(s.id) }

// Domain represents one push-data source: one interrupt line, one LNM
// VARIABLE, or one poll-distributor. Subscribe, Unsubscribe and Distribute
// all serialize on one domain lock.
type Domain[P any] struct {
	mu         sync.Mutex
	active     bool
	nextID     uint64
	subs       map[uint64]*Subscription[P]
	dispatching bool // reentrancy guard: true while inside distribute/activate
	deferred   []uint64
	queueDepth int
}

// New constructs an inactive Domain. queueDepth bounds each subscriber's
// queue; 0 selects a sane default.
func New[P any](queueDepth int) *Domain[P] {
	if queueDepth <= 0 {
		queueDepth = defaultQueueDepth
	}
	return &Domain[P]{
		subs:       map[uint64]*Subscription[P]{},
		queueDepth: queueDepth,
	}
}

// IsActive reports whether the domain has completed at least one
// activate() and not since been faulted by send_exception.
func (d *Domain[P]) IsActive() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Subscribe registers a new subscriber for distributions, returning a handle whose
// InitialValue() resolves once the domain next activates; the caller
// receives a fresh initial value either way.
func (d *Domain[P]) Subscribe() *Subscription[P] {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	sub := &Subscription[P]{
		id:      d.nextID,
		queue:   ringqueue.New[Envelope[P]](d.queueDepth),
		domain:  d,
		initial: make(chan Envelope[P], 1),
	}
	d.subs[sub.id] = sub
	return sub
}

func (d *Domain[P]) unsubscribe(id uint64) {
	d.mu.Lock()
	if d.dispatching {
		d.deferred = append(d.deferred, id)
		d.mu.Unlock()
		return
	}
	delete(d.subs, id)
	d.mu.Unlock()
}

func (d *Domain[P]) applyDeferredLocked() {
	for _, id := range d.deferred {
		delete(d.subs, id)
	}
	d.deferred = d.deferred[:0]
}

// Distribute allocates one fresh VersionNumber and pushes payload (with
// validity) to every subscriber's queue. On a full queue the oldest
// unconsumed value is replaced; the dropped subscriber's next read will
// observe data_lost via the accessor layer built on top of this queue.
func (d *Domain[P]) Distribute(payload P, validity transfer.Validity) version.Number {
	return d.DistributeStamped(payload, validity, version.New())
}

// DistributeStamped is Distribute with a caller-supplied VersionNumber.
// Bridge domains that re-type an upstream domain's payload per subscriber
// use it to forward the upstream stamp unchanged, so accessors fed through
// different bridges by one distribution still compare equal in a
// ConsistencyGroup.
func (d *Domain[P]) DistributeStamped(payload P, validity transfer.Validity, v version.Number) version.Number {
	d.mu.Lock()
	d.dispatching = true
	for _, s := range d.subs {
		if s.queue.Push(Envelope[P]{Payload: payload, Version: v, Validity: validity}) {
			s.lost.Store(true)
		}
	}
	d.dispatching = false
	d.applyDeferredLocked()
	d.mu.Unlock()
	return v
}

// Activate transitions the domain to active, fills every subscriber's
// initial value, and signals each subscription's InitialValue() channel
// exactly once. payload is the value used to seed every subscriber equally
// (a real backend will instead read its own source once and pass that
// result here per subscriber if they can legitimately differ, but for a
// domain with one homogeneous payload this single-value form is typical).
func (d *Domain[P]) Activate(payload P, validity transfer.Validity) version.Number {
	d.mu.Lock()
	d.dispatching = true
	d.active = true
	v := version.New()
	env := Envelope[P]{Payload: payload, Version: v, Validity: validity}
	for _, s := range d.subs {
		select {
		case s.initial <- env:
		default:
		}
	}
	d.dispatching = false
	d.applyDeferredLocked()
	d.mu.Unlock()
	return v
}

// SendException marks the domain inactive and forwards err to every
// subscriber's queue, causing their next read to rethrow it.
func (d *Domain[P]) SendException(err error) {
	d.mu.Lock()
	d.dispatching = true
	d.active = false
	for _, s := range d.subs {
		s.queue.Push(Envelope[P]{Err: err})
	}
	d.dispatching = false
	d.applyDeferredLocked()
	d.mu.Unlock()
}
