// Package interrupt implements InterruptDispatcher: the backend-owned
// poll/distribute loop, one goroutine per interrupt source. Subscribing
// clears latched edges, polls once to swallow stale state, then loops
// waiting for fresh edges and distributing them into the domain.
package interrupt

import (
	"context"
	"sync"
	"time"

	"devaccess/asyncdomain"
	"devaccess/deverr"
	"devaccess/port"
	"devaccess/transfer"
)

// pollInterval bounds how long the loop sleeps between edge checks.
const pollInterval = 100 * time.Millisecond

// Dispatcher runs the poll loop for one interrupt source, distributing
// edges into domain. A backend owns exactly one Dispatcher per interrupt
// ID it exposes.
type Dispatcher struct {
	source      port.InterruptSource
	interruptID int
	domain      *asyncdomain.Domain[struct{}]

	mu      sync.Mutex
	started bool
	stop    chan struct{}
	done    chan struct{}
}

// New builds a Dispatcher over source for interruptID, distributing into
// domain. The caller registers domain with an asyncdomain.Manager so
// backend close()/recovery can fault it alongside every other domain.
func New(source port.InterruptSource, interruptID int, domain *asyncdomain.Domain[struct{}]) *Dispatcher {
	return &Dispatcher{source: source, interruptID: interruptID, domain: domain}
}

// Subscribe arms the dispatcher: clear any latched interrupt, poll once
// non-blocking and re-clear to swallow stale edges, then start the
// dispatcher loop and signal the subscription future once the initial
// poll has completed.
func (d *Dispatcher) Subscribe(ctx context.Context) error {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return nil
	}
	d.started = true
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	d.mu.Unlock()

	// Swallow stale edges accumulated before activation.
	if _, err := d.source.PendingEdges(d.interruptID); err != nil {
		return deverr.NewRuntimef("interrupt", err, "initial poll of interrupt %d failed", d.interruptID)
	}

	ready, err := d.source.ActivateSubscription(ctx, d.interruptID)
	if err != nil {
		return deverr.NewRuntimef("interrupt", err, "activate interrupt %d failed", d.interruptID)
	}
	<-ready

	// Re-clear: drop any edge latched while the source was being armed.
	if _, err := d.source.PendingEdges(d.interruptID); err != nil {
		return deverr.NewRuntimef("interrupt", err, "re-clear of interrupt %d failed", d.interruptID)
	}

	d.domain.Activate(struct{}{}, transfer.Ok)
	go d.loop()
	return nil
}

// loop is the per-dispatcher goroutine: wait up to pollInterval, check for
// edges, distribute on a non-zero count. One goroutine feeds one domain,
// so every subscriber observes this dispatcher's distributions in the
// same total order.
func (d *Dispatcher) loop() {
	defer close(d.done)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			n, err := d.source.PendingEdges(d.interruptID)
			if err != nil {
				d.domain.SendException(deverr.NewRuntimef("interrupt", err, "interrupt %d source failed", d.interruptID))
				return
			}
			if n > 0 {
				d.domain.Distribute(struct{}{}, transfer.Ok)
			}
		}
	}
}

// Close stops the dispatcher loop and joins it. Safe to call on a
// Dispatcher that was never subscribed.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	stop, done := d.stop, d.done
	d.mu.Unlock()

	select {
	case <-stop:
	default:
		close(stop)
	}
	<-done
}
