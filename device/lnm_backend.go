package device

import (
	"context"
	"sync"

	"devaccess/deverr"
	"devaccess/lnm"
)

// LNM is a concrete LNMBackend: a populated Map plus the fixed set of
// target device aliases its entries may reference, resolved once at
// construction. The empty alias conventionally means "this
// map's own backend", for maps built purely from CONSTANT/VARIABLE
// entries with no forwarding target.
type LNM struct {
	m       *lnm.Map
	targets map[string]lnm.Backend

	mu     sync.Mutex
	isOpen bool
}

// NewLNM builds an LNM backend from an already-populated Map and its
// resolvable target backends, keyed by alias.
func NewLNM(m *lnm.Map, targets map[string]lnm.Backend) *LNM {
	return &LNM{m: m, targets: targets}
}

// Open implements Backend.
func (l *LNM) Open(ctx context.Context) error {
	l.mu.Lock()
	l.isOpen = true
	l.mu.Unlock()
	return nil
}

// Close implements Backend.
func (l *LNM) Close() error {
	l.mu.Lock()
	l.isOpen = false
	l.mu.Unlock()
	return nil
}

// IsOpen implements Backend.
func (l *LNM) IsOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.isOpen
}

// Map implements LNMBackend.
func (l *LNM) Map() *lnm.Map { return l.m }

// Resolve implements LNMBackend.
func (l *LNM) Resolve(alias string) (lnm.Backend, error) {
	b, ok := l.targets[alias]
	if !ok {
		return nil, deverr.NewLogicf("device", "logical name map references unknown device alias: %q", alias)
	}
	return b, nil
}

var _ LNMBackend = (*LNM)(nil)
