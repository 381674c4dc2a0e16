package lnm

import (
	"sync"

	"devaccess/accessor"
	"devaccess/asyncdomain"
	"devaccess/datatype"
	"devaccess/deverr"
	"devaccess/regpath"
	"devaccess/transfer"
	"devaccess/version"
)

// variableEntry is the per-VARIABLE value table: one mutable slot, its
// validity and version, and the Domain used to push
// updates to wait_for_new_data subscribers. String-declared VARIABLEs get
// their own slot since the numeric codec conversion path does not apply
// to them.
type variableEntry struct {
	mu        sync.Mutex
	declared  datatype.Type
	numeric   float64
	str       string
	validity  transfer.Validity
	version   version.Number
	domain    *asyncdomain.Domain[float64]
	strDomain *asyncdomain.Domain[string]
}

func newVariableEntry(t datatype.Type) *variableEntry {
	e := &variableEntry{declared: t}
	if t == datatype.String {
		e.strDomain = asyncdomain.New[string](4)
		e.strDomain.Activate("", transfer.Ok)
	} else {
		e.domain = asyncdomain.New[float64](4)
		e.domain.Activate(0, transfer.Ok)
	}
	return e
}

// writeNumeric distributes v to the entry's subscribers under a fresh
// version, then stores v, Ok validity and that version in the numeric slot
// under the entry's mutex, and returns the version. Neither the accessor
// write path nor MathPlugin.Evaluate uses the returned version.
func (e *variableEntry) writeNumeric(v float64) version.Number {
	v2 := e.domain.Distribute(v, transfer.Ok)
	e.mu.Lock()
	e.numeric = v
	e.validity = transfer.Ok
	e.version = v2
	e.mu.Unlock()
	return v2
}

func (e *variableEntry) readNumeric() (float64, version.Number, transfer.Validity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.numeric, e.version, e.validity
}

func (e *variableEntry) writeString(v string) version.Number {
	v2 := e.strDomain.Distribute(v, transfer.Ok)
	e.mu.Lock()
	e.str = v
	e.validity = transfer.Ok
	e.version = v2
	e.mu.Unlock()
	return v2
}

func (e *variableEntry) readString() (string, version.Number, transfer.Validity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.str, e.version, e.validity
}

// NewVariableAccessor builds a scalar accessor over path's VARIABLE
// target. Poll-mode reads always see the value table's current contents;
// wait_for_new_data subscribers bridge the entry's canonical Domain (keyed
// on float64 for numeric VARIABLEs) into a per-accessor Domain typed to T,
// converting each distributed value with accessor.SatCast, so accessors of
// any supported type can watch one declared value.
func NewVariableAccessor[T datatype.UserType](m *Map, path regpath.Path, mode transfer.AccessMode, isOpen transfer.IsOpenFunc) (*accessor.ND[T], error) {
	info, err := m.Get(path)
	if err != nil {
		return nil, err
	}
	if info.TargetType != TargetVariable {
		return nil, deverr.NewLogicf("lnm", "%s is not a VARIABLE target", path)
	}
	m.mu.RLock()
	entry := m.variables[path.String()]
	m.mu.RUnlock()
	if entry == nil {
		return nil, deverr.NewLogicf("lnm", "%s has no value table entry", path)
	}

	var zero T
	_, isString := any(zero).(string)

	doRead := func() ([][]T, transfer.Validity, error) {
		if isString {
			s, _, valid := entry.readString()
			return [][]T{{any(s).(T)}}, valid, nil
		}
		f, _, valid := entry.readNumeric()
		return [][]T{{accessor.SatCast[T](f)}}, valid, nil
	}

	var doWrite accessor.DoWriteFunc[T]
	doWrite = func(buffers [][]T) (bool, error) {
		v := buffers[0][0]
		var newVersion version.Number
		if isString {
			newVersion = entry.writeString(any(v).(string))
		} else {
			newVersion = entry.writeNumeric(accessor.ToFloat(v))
		}
		m.notifyDependents(path.String())
		_ = newVersion
		return false, nil
	}

	acc := accessor.NewCustom[T](path, 1, 1, mode, isOpen, doRead, doWrite)

	if mode.WaitForNewData {
		bridge := bridgeSubscription[T](entry, isString)
		acc.SetSubscription(bridge)
	}
	return acc, nil
}

// bridgeSubscription adapts entry's canonical float64/string Domain into a
// Domain[[][]T] an ND[T] accessor can consume directly, converting every
// distributed value with accessor.SatCast as it crosses the bridge. The
// local domain is seeded with the value table's current contents so the
// first Read() on a fresh subscription returns immediately rather than
// blocking for the next write.
func bridgeSubscription[T datatype.UserType](entry *variableEntry, isString bool) *asyncdomain.Subscription[[][]T] {
	local := asyncdomain.New[[][]T](4)
	sub := local.Subscribe()

	if isString {
		s, ver, valid := entry.readString()
		local.DistributeStamped([][]T{{any(s).(T)}}, valid, ver)

		upstream := entry.strDomain.Subscribe()
		go func() {
			for range upstream.Queue().Readable() {
				for {
					v, ok := upstream.Queue().Pop()
					if !ok {
						break
					}
					if v.Err != nil {
						local.SendException(v.Err)
						return
					}
					local.DistributeStamped([][]T{{any(v.Payload).(T)}}, v.Validity, v.Version)
				}
			}
		}()
		return sub
	}

	f, ver, valid := entry.readNumeric()
	local.DistributeStamped([][]T{{accessor.SatCast[T](f)}}, valid, ver)

	upstream := entry.domain.Subscribe()
	go func() {
		for range upstream.Queue().Readable() {
			for {
				v, ok := upstream.Queue().Pop()
				if !ok {
					break
				}
				if v.Err != nil {
					local.SendException(v.Err)
					return
				}
				local.DistributeStamped([][]T{{accessor.SatCast[T](v.Payload)}}, v.Validity, v.Version)
			}
		}
	}()
	return sub
}

// MathPlugin re-evaluates a derived VARIABLE whenever any VARIABLE it
// Reads is written. Formula receives
// the current numeric value of each path in Reads, in order, and returns
// the value to write into Writes.
type MathPlugin struct {
	Reads   []string // VARIABLE paths (RegisterInfo.Path.String()) this plugin depends on
	Writes  string   // VARIABLE path this plugin writes its result into
	Formula func(inputs []float64) float64

	m *Map
}

// Evaluate reads every dependency's current numeric value, applies
// Formula, and writes the result into Writes. Like any VARIABLE write, it
// then re-evaluates the plugins that read Writes, so a plugin chain
// re-evaluates in turn. There is no cycle guard: a cyclic plugin chain
// re-evaluates without end.
func (p *MathPlugin) Evaluate() {
	if p.m == nil || p.Formula == nil || p.Writes == "" {
		return
	}
	inputs := make([]float64, len(p.Reads))
	for i, dep := range p.Reads {
		p.m.mu.RLock()
		entry := p.m.variables[dep]
		p.m.mu.RUnlock()
		if entry == nil {
			continue
		}
		f, _, _ := entry.readNumeric()
		inputs[i] = f
	}
	result := p.Formula(inputs)

	p.m.mu.RLock()
	out := p.m.variables[p.Writes]
	p.m.mu.RUnlock()
	if out != nil {
		out.writeNumeric(result)
		p.m.notifyDependents(p.Writes)
	}
}

// NewMathPlugin binds plugin to m and registers its dependency edges. Call
// after every VARIABLE it reads/writes has been added to m.
func NewMathPlugin(m *Map, reads []string, writes string, formula func([]float64) float64) *MathPlugin {
	p := &MathPlugin{Reads: reads, Writes: writes, Formula: formula, m: m}
	m.RegisterMathPlugin(p)
	return p
}
