// Package recovery implements the quiesce-on-runtime-error / replay-on-
// reopen discipline: a Helper per write-capable accessor, replayed in
// ascending write order after a backend reopens, and a retained LinkState
// published over the bus for every observer interested in backend health.
package recovery

import (
	"sort"
	"sync"
	"time"

	"devaccess/bus"
)

// LinkState describes backend health as a link would be described:
// up, degraded (faulted but recoverable), or down.
type LinkState uint8

const (
	LinkUp LinkState = iota
	LinkDegraded
	LinkDown
)

func (s LinkState) String() string {
	switch s {
	case LinkUp:
		return "up"
	case LinkDegraded:
		return "degraded"
	default:
		return "down"
	}
}

// Policy bounds how recovery retries reconnection.
type Policy struct {
	Backoff    time.Duration
	MaxRetries int
}

// DefaultPolicy is a conservative retry/backoff tuning for slow links.
var DefaultPolicy = Policy{Backoff: 200 * time.Millisecond, MaxRetries: 5}

// Helper is one write-capable accessor's replay contract: Replay
// re-issues the last-intended write after the backend reopens.
type Helper struct {
	Replay func() error

	mu         sync.Mutex
	order      int
	wasWritten bool
}

// MarkWritten records that a write succeeded, arming this helper for
// replay on the next recovery cycle.
func (h *Helper) MarkWritten() {
	h.mu.Lock()
	h.wasWritten = true
	h.mu.Unlock()
}

// Registry collects RecoveryHelpers for one backend and replays them in
// ascending write_order on reopen.
type Registry struct {
	mu      sync.Mutex
	next    int
	helpers []*Helper
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry { return &Registry{} }

// Register adds h to the registry, assigning it the next ascending
// write order (registration order).
func (r *Registry) Register(h *Helper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h.order = r.next
	r.next++
	r.helpers = append(r.helpers, h)
}

// ReplayAll replays every helper that has seen a successful write, in
// ascending write_order, stopping at the first error (the caller decides
// whether to retry recovery as a whole).
func (r *Registry) ReplayAll() error {
	r.mu.Lock()
	ordered := append([]*Helper(nil), r.helpers...)
	r.mu.Unlock()

	sort.Slice(ordered, func(i, j int) bool { return ordered[i].order < ordered[j].order })
	for _, h := range ordered {
		h.mu.Lock()
		written := h.wasWritten
		h.mu.Unlock()
		if !written {
			continue
		}
		if err := h.Replay(); err != nil {
			return err
		}
	}
	return nil
}

// Monitor publishes retained LinkState transitions onto a bus so an
// arbitrary number of observers (the device facade, a logging sink, a UI)
// can subscribe without the backend knowing who is listening.
type Monitor struct {
	conn  *bus.Connection
	topic bus.Topic

	mu    sync.Mutex
	state LinkState
}

// NewMonitor builds a Monitor publishing onto topic over conn, starting in
// LinkDown.
func NewMonitor(conn *bus.Connection, topic bus.Topic) *Monitor {
	m := &Monitor{conn: conn, topic: topic, state: LinkDown}
	m.publish()
	return m
}

func (m *Monitor) publish() {
	m.conn.Publish(m.conn.NewMessage(m.topic, m.state, true))
}

// Set transitions to state and republishes the retained message iff state
// changed.
func (m *Monitor) Set(state LinkState) {
	m.mu.Lock()
	changed := m.state != state
	m.state = state
	m.mu.Unlock()
	if changed {
		m.publish()
	}
}

// State returns the last published LinkState.
func (m *Monitor) State() LinkState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe returns a subscription that immediately replays the retained
// current state, then every subsequent transition.
func (m *Monitor) Subscribe() *bus.Subscription {
	return m.conn.Subscribe(m.topic)
}
