// Package catalogue implements RegisterCatalogue: the enumeration of
// registers a backend exposes, their descriptors, and the two numeric-
// addressed naming conventions (DUMMY_WRITEABLE, DUMMY_INTERRUPT_n).
package catalogue

import (
	"sort"
	"sync"

	"devaccess/datatype"
	"devaccess/deverr"
	"devaccess/regpath"
)

// AccessMode enumerates how a register may be transferred.
type AccessMode uint8

const (
	ReadOnly AccessMode = iota
	ReadWrite
	WriteOnly
	Interrupt
)

// ChannelType distinguishes the two codec families a channel can carry.
type ChannelType uint8

const (
	FixedPointChannel ChannelType = iota
	IEEE754Channel
	VoidChannel
)

// ChannelInfo describes one column of a (possibly multiplexed) register.
type ChannelInfo struct {
	Width            int // bits, 1..32
	NFractionalBits  int
	Signed           bool
	Type             ChannelType
}

// RegisterInfo is the generic, backend-agnostic register descriptor
// returned by Catalogue.Get. Concrete backends attach a NumericAddressed
// or LNM-specific descriptor; this type carries only what every consumer
// of the catalogue needs.
type RegisterInfo struct {
	Path       regpath.Path
	NElements  int
	NChannels  int // 1 for flat registers, >1 for multiplexed blocks
	Access     AccessMode
	Descriptor datatype.Descriptor
}

// NumericAddressedRegisterInfo is the flat/multiplexed register descriptor
// used by the numeric-addressed backend family (PCIe/UIO/Rebot/Dummy).
type NumericAddressedRegisterInfo struct {
	Path              regpath.Path
	NElements         int
	AddressBytes      int
	NBytes            int
	Bar               int
	Channels          []ChannelInfo
	Access            AccessMode
	ElementPitchBits  int
	InterruptChain    []int // empty unless Access == Interrupt
}

// Validate enforces the descriptor invariants: element_pitch_bits % 8 == 0,
// the register fits within its bar, and channel widths are in [1,32].
func (r NumericAddressedRegisterInfo) Validate(barSize int) error {
	if r.ElementPitchBits%8 != 0 {
		return deverr.NewLogicf("catalogue", "register %s: element_pitch_bits %% 8 != 0", r.Path)
	}
	if r.AddressBytes+r.NElements*(r.ElementPitchBits/8) > barSize {
		return deverr.NewLogicf("catalogue", "register %s: exceeds bar size %d", r.Path, barSize)
	}
	for _, ch := range r.Channels {
		if ch.Width < 1 || ch.Width > 32 {
			return deverr.NewLogicf("catalogue", "register %s: channel width %d out of [1,32]", r.Path, ch.Width)
		}
	}
	return nil
}

// AsRegisterInfo projects the numeric-addressed descriptor into the
// backend-agnostic RegisterInfo the catalogue contract exposes.
func (r NumericAddressedRegisterInfo) AsRegisterInfo() RegisterInfo {
	desc := datatype.Descriptor{Fundamental: datatype.FundamentalNoData}
	if len(r.Channels) > 0 {
		ch := r.Channels[0]
		desc.Fundamental = datatype.FundamentalNumeric
		desc.IsSigned = ch.Signed
		switch {
		case ch.Type == VoidChannel:
			desc.Fundamental = datatype.FundamentalNoData
		case ch.NFractionalBits == 0:
			desc.IsIntegral = true
		}
		desc.FractionDigits = ch.NFractionalBits
	}
	return RegisterInfo{
		Path:       r.Path,
		NElements:  r.NElements,
		NChannels:  len(r.Channels),
		Access:     r.Access,
		Descriptor: desc,
	}
}

const (
	dummyWriteableSuffix = "DUMMY_WRITEABLE"
	dummyInterruptPrefix = "DUMMY_INTERRUPT_"
)

// Catalogue is the contract implemented by every backend's register
// enumeration. It supports clone (for LNM composition) and a separate
// hidden channel for internal-only entries.
type Catalogue interface {
	HasRegister(path regpath.Path) bool
	Get(path regpath.Path) (RegisterInfo, error)
	GetNumericAddressed(path regpath.Path) (NumericAddressedRegisterInfo, error)
	Iterate() []RegisterInfo
	HiddenRegisters() []RegisterInfo
	Clone() Catalogue
}

// Numeric is the concrete, mutable Catalogue backing the numeric-addressed
// backend family. It recognizes DUMMY_WRITEABLE and DUMMY_INTERRUPT_n
// synthetic paths on top of a fixed base register set.
type Numeric struct {
	mu       sync.RWMutex
	byPath   map[string]NumericAddressedRegisterInfo
	order    []string // insertion order, for stable Iterate()
	barSize  map[int]int
	interruptIDs map[int]bool
}

// NewNumeric builds an empty catalogue; registers are added with Add.
func NewNumeric() *Numeric {
	return &Numeric{
		byPath:       map[string]NumericAddressedRegisterInfo{},
		barSize:      map[int]int{},
		interruptIDs: map[int]bool{},
	}
}

// SetBarSize records the byte size of a BAR, used by Add's validation.
func (c *Numeric) SetBarSize(bar, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.barSize[bar] = size
}

// Add registers r, validating it against its BAR size (if known) and
// recording its interrupt IDs so DUMMY_INTERRUPT_n can later be validated
// against a real interrupt chain.
func (c *Numeric) Add(r NumericAddressedRegisterInfo) error {
	if size, ok := c.barSize[r.Bar]; ok {
		if err := r.Validate(size); err != nil {
			return err
		}
	}
	key := r.Path.String()
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byPath[key]; !exists {
		c.order = append(c.order, key)
	}
	c.byPath[key] = r
	if r.Access == Interrupt {
		for _, id := range r.InterruptChain {
			c.interruptIDs[id] = true
		}
	}
	return nil
}

func (c *Numeric) lookupReal(path regpath.Path) (NumericAddressedRegisterInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.byPath[path.String()]
	return r, ok
}

func (c *Numeric) dummyInterruptID(path regpath.Path) (int, bool) {
	segs := path.Segments()
	if len(segs) == 0 {
		return 0, false
	}
	last := segs[len(segs)-1]
	if len(last) <= len(dummyInterruptPrefix) || last[:len(dummyInterruptPrefix)] != dummyInterruptPrefix {
		return 0, false
	}
	n, ok := parseDecimal(last[len(dummyInterruptPrefix):])
	if !ok {
		return 0, false
	}
	c.mu.RLock()
	valid := c.interruptIDs[n]
	c.mu.RUnlock()
	if !valid {
		return 0, false
	}
	return n, true
}

func parseDecimal(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// HasRegister reports whether path resolves to a real, DUMMY_WRITEABLE, or
// DUMMY_INTERRUPT_n register.
func (c *Numeric) HasRegister(path regpath.Path) bool {
	if _, ok := c.lookupReal(path); ok {
		return true
	}
	if path.EndsWith(regpath.New(dummyWriteableSuffix)) {
		if _, ok := c.lookupReal(path.Pop()); ok {
			return true
		}
	}
	if _, ok := c.dummyInterruptID(path); ok {
		return true
	}
	return false
}

// GetNumericAddressed resolves path, synthesizing DUMMY_WRITEABLE /
// DUMMY_INTERRUPT_n descriptors as needed.
func (c *Numeric) GetNumericAddressed(path regpath.Path) (NumericAddressedRegisterInfo, error) {
	if r, ok := c.lookupReal(path); ok {
		return r, nil
	}
	if path.EndsWith(regpath.New(dummyWriteableSuffix)) {
		if r, ok := c.lookupReal(path.Pop()); ok {
			r.Access = ReadWrite
			r.Path = path
			return r, nil
		}
	}
	if id, ok := c.dummyInterruptID(path); ok {
		return NumericAddressedRegisterInfo{
			Path:             path,
			NElements:        0,
			NBytes:           0,
			Access:           WriteOnly,
			Channels:         []ChannelInfo{{Type: VoidChannel}},
			InterruptChain:   []int{id},
			ElementPitchBits: 0,
		}, nil
	}
	return NumericAddressedRegisterInfo{}, deverr.NewLogicf("catalogue", "unknown register: %s", path)
}

// Get implements Catalogue.Get in terms of GetNumericAddressed.
func (c *Numeric) Get(path regpath.Path) (RegisterInfo, error) {
	r, err := c.GetNumericAddressed(path)
	if err != nil {
		return RegisterInfo{}, err
	}
	return r.AsRegisterInfo(), nil
}

// Iterate returns the visible (non-synthetic) registers in insertion order.
func (c *Numeric) Iterate() []RegisterInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]RegisterInfo, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.byPath[k].AsRegisterInfo())
	}
	return out
}

// HiddenRegisters enumerates the synthetic DUMMY_WRITEABLE and
// DUMMY_INTERRUPT_n entries implied by the real register set, on a
// disjoint channel from Iterate.
func (c *Numeric) HiddenRegisters() []RegisterInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []RegisterInfo
	for _, k := range c.order {
		r := c.byPath[k]
		if r.Access == ReadOnly {
			dw := r
			dw.Access = ReadWrite
			dw.Path = r.Path.Push(dummyWriteableSuffix)
			out = append(out, dw.AsRegisterInfo())
		}
	}
	ids := make([]int, 0, len(c.interruptIDs))
	for id := range c.interruptIDs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		path := regpath.New(dummyInterruptName(id))
		out = append(out, RegisterInfo{
			Path:   path,
			Access: WriteOnly,
			Descriptor: datatype.Descriptor{
				Fundamental: datatype.FundamentalNoData,
			},
		})
	}
	return out
}

func dummyInterruptName(id int) string {
	digits := itoa(id)
	return dummyInterruptPrefix + digits
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	neg := n < 0
	if neg {
		n = -n
	}
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// BarWordSizes reports, per BAR, the word count needed to cover every
// register in the catalogue. Explicit SetBarSize values take precedence;
// otherwise the extent of the furthest register rounds up to whole words.
// Dummy-family backends size their in-memory BAR images from this.
func (c *Numeric) BarWordSizes() map[int]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := map[int]int{}
	for bar, size := range c.barSize {
		out[bar] = (size + 3) / 4
	}
	for _, k := range c.order {
		r := c.byPath[k]
		end := (r.AddressBytes + r.NElements*(r.ElementPitchBits/8) + 3) / 4
		if end > out[r.Bar] {
			out[r.Bar] = end
		}
	}
	return out
}

// Clone deep-copies the catalogue's register map so the LNM layer can
// hold an independent snapshot.
func (c *Numeric) Clone() Catalogue {
	c.mu.RLock()
	defer c.mu.RUnlock()
	clone := NewNumeric()
	clone.order = append([]string{}, c.order...)
	for k, v := range c.byPath {
		clone.byPath[k] = v
	}
	for k, v := range c.barSize {
		clone.barSize[k] = v
	}
	for k, v := range c.interruptIDs {
		clone.interruptIDs[k] = v
	}
	return clone
}
