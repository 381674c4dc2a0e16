// Package lnm implements the Logical Name Map: a backend whose catalogue
// composes virtual registers from REGISTER, CHANNEL, BIT, CONSTANT and
// VARIABLE targets. Each TargetType gets its own accessor-construction
// function, dispatched per entry and scoped to one map instance.
package lnm

import (
	"sync"

	"devaccess/catalogue"
	"devaccess/datatype"
	"devaccess/deverr"
	"devaccess/port"
	"devaccess/regpath"
)

// TargetType is the closed set of virtual register kinds a logical name
// map entry can declare.
type TargetType uint8

const (
	TargetRegister TargetType = iota
	TargetChannel
	TargetBit
	TargetConstant
	TargetVariable
)

// RegisterInfo is an already-parsed logical-name-map entry. A real
// deployment builds these from an XML LMAP file; this package consumes
// the parsed form only.
type RegisterInfo struct {
	Path               regpath.Path
	TargetType         TargetType
	TargetDeviceAlias  string // empty means "this LNM's own backend"
	TargetRegisterPath regpath.Path
	FirstIndex         int
	Length             int // REGISTER target slice length; 0 means "to end"
	Channel            int // CHANNEL target's selected row
	Bit                int // BIT target's selected bit
	NChannels          int
	ValueType          datatype.Type // CONSTANT / VARIABLE declared type
	Value              any           // CONSTANT's fixed value, parsed at LMAP-load time
	Plugins            []string      // ordered MathPlugin names applied on write
}

// Backend is a Catalogue contract the target device alias resolves to: a
// numeric-addressed catalogue plus the port it is wired to, and whether
// the backend is currently open. The accessors built by this package check
// only the isOpen function passed to their constructor, not the target's
// IsOpen.
type Backend interface {
	Catalogue() *catalogue.Numeric
	Port() port.RawMemoryPort
	IsOpen() bool
}

// Resolver looks up a target device alias. The LNM's own backend is
// reachable under the empty alias by convention.
type Resolver func(alias string) (Backend, error)

// Map is the LNM catalogue: a fixed set of RegisterInfo entries plus the
// shared state (per-register bit locks, VARIABLE value tables, MathPlugin
// dependency set) every accessor built from it needs.
type Map struct {
	mu      sync.RWMutex
	entries map[string]RegisterInfo
	order   []string

	bitLocks map[string]*sync.Mutex // keyed by target register path, shared across BIT accessors

	variables map[string]*variableEntry // keyed by this map's own path

	// dependents maps a VARIABLE path to the MathPlugins that must
	// re-evaluate when it is written.
	dependents map[string][]*MathPlugin
}

// New builds an empty Map; entries are added with Add.
func New() *Map {
	return &Map{
		entries:    map[string]RegisterInfo{},
		bitLocks:   map[string]*sync.Mutex{},
		variables:  map[string]*variableEntry{},
		dependents: map[string][]*MathPlugin{},
	}
}

// Add registers info under its Path.
func (m *Map) Add(info RegisterInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := info.Path.String()
	if _, exists := m.entries[key]; !exists {
		m.order = append(m.order, key)
	}
	m.entries[key] = info
	if info.TargetType == TargetVariable {
		m.variables[key] = newVariableEntry(info.ValueType)
	}
}

// Get looks up the parsed RegisterInfo for path.
func (m *Map) Get(path regpath.Path) (RegisterInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.entries[path.String()]
	if !ok {
		return RegisterInfo{}, deverr.NewLogicf("lnm", "unknown virtual register: %s", path)
	}
	return info, nil
}

// HasRegister reports whether path is a known virtual register.
func (m *Map) HasRegister(path regpath.Path) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[path.String()]
	return ok
}

// Iterate returns every virtual register's backend-agnostic descriptor, in
// insertion order.
func (m *Map) Iterate() []catalogue.RegisterInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]catalogue.RegisterInfo, 0, len(m.order))
	for _, k := range m.order {
		info := m.entries[k]
		out = append(out, catalogue.RegisterInfo{
			Path:      info.Path,
			NElements: maxInt(info.Length, 1),
			NChannels: maxInt(info.NChannels, 1),
			Access:    accessModeFor(info),
		})
	}
	return out
}

func accessModeFor(info RegisterInfo) catalogue.AccessMode {
	if info.TargetType == TargetConstant {
		return catalogue.ReadOnly
	}
	return catalogue.ReadWrite
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (m *Map) bitLock(targetKey string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.bitLocks[targetKey]
	if !ok {
		l = &sync.Mutex{}
		m.bitLocks[targetKey] = l
	}
	return l
}

// RegisterMathPlugin attaches plugin to the map and wires it as a
// dependent of every VARIABLE path it reads, so a write to any of them
// re-triggers plugin's Evaluate.
func (m *Map) RegisterMathPlugin(plugin *MathPlugin) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, dep := range plugin.Reads {
		m.dependents[dep] = append(m.dependents[dep], plugin)
	}
}

func (m *Map) notifyDependents(variablePath string) {
	m.mu.RLock()
	plugins := append([]*MathPlugin(nil), m.dependents[variablePath]...)
	m.mu.RUnlock()
	for _, p := range plugins {
		p.Evaluate()
	}
}
