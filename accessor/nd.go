package accessor

import (
	"devaccess/asyncdomain"
	"devaccess/codec"
	"devaccess/datatype"
	"devaccess/deverr"
	"devaccess/regpath"
	"devaccess/transfer"
)

// ND is the generic NDRegisterAccessor[T]: a typed, two-dimensional
// (channel x element) buffer driven through the
// TransferElement state machine in transfer.Base. A concrete backend
// (numeric-addressed, LNM, ...) fills in doRead/doWrite; ND
// itself only owns the buffer and the version/validity bookkeeping.
type ND[T datatype.UserType] struct {
	transfer.Base

	path    regpath.Path
	buffers [][]T // buffers[channel][element]
	raw     bool
	doRead  func() ([][]T, transfer.Validity, error)
	doWrite func(buffers [][]T) (dataLost bool, err error)
	sub     *asyncdomain.Subscription[[][]T]

	// rawCodec enables per-element cooked conversion on raw-mode
	// accessors; nil otherwise.
	rawCodec codec.Codec
}

// Path returns the accessor's register path.
func (a *ND[T]) Path() regpath.Path { return a.path }

// NChannels and NElements report the buffer's shape.
func (a *ND[T]) NChannels() int { return len(a.buffers) }
func (a *ND[T]) NElements() int {
	if len(a.buffers) == 0 {
		return 0
	}
	return len(a.buffers[0])
}

// Channel exposes channel c's element slice for direct inspection or
// in-place mutation ahead of a Write.
func (a *ND[T]) Channel(c int) []T { return a.buffers[c] }

// Scalar returns element 0 of channel 0, the common case for
// single-value registers.
func (a *ND[T]) Scalar() T {
	if len(a.buffers) == 0 || len(a.buffers[0]) == 0 {
		var zero T
		return zero
	}
	return a.buffers[0][0]
}

// SetScalar sets element 0 of channel 0.
func (a *ND[T]) SetScalar(v T) { a.buffers[0][0] = v }

// Read performs a blocking transfer, overwriting the buffer on success.
func (a *ND[T]) Read() error {
	if err := a.Base.PreRead(); err != nil {
		return err
	}
	if a.AccessMode().WaitForNewData {
		return a.readPush(true)
	}
	buffers, validity, err := a.doRead()
	res := transfer.DoReadResult{HasNewData: err == nil, Validity: validity, Err: err}
	if perr := a.Base.PostRead(res); perr != nil {
		return perr
	}
	a.buffers = buffers
	return nil
}

// ReadNonBlocking returns immediately: for poll-mode accessors it behaves
// like Read; for push-mode accessors it drains at most one queued value
// without waiting.
func (a *ND[T]) ReadNonBlocking() (hasNewData bool, err error) {
	if err := a.Base.PreRead(); err != nil {
		return false, err
	}
	if a.AccessMode().WaitForNewData {
		env, ok := a.sub.Queue().Pop()
		if !ok {
			_ = a.Base.PostRead(transfer.DoReadResult{HasNewData: false})
			return false, nil
		}
		if env.Err != nil {
			_ = a.Base.PostRead(transfer.DoReadResult{Err: env.Err})
			return false, env.Err
		}
		if perr := a.Base.PostRead(transfer.DoReadResult{HasNewData: true, Validity: env.Validity, Version: env.Version}); perr != nil {
			return false, perr
		}
		a.buffers = env.Payload
		return true, nil
	}
	buffers, validity, err := a.doRead()
	if perr := a.Base.PostRead(transfer.DoReadResult{HasNewData: err == nil, Validity: validity, Err: err}); perr != nil {
		return false, perr
	}
	a.buffers = buffers
	return true, nil
}

// ReadLatest drains every queued push value and keeps only the most
// recent one.
func (a *ND[T]) ReadLatest() (hasNewData bool, err error) {
	if !a.AccessMode().WaitForNewData {
		return a.ReadNonBlocking()
	}
	if err := a.Base.PreRead(); err != nil {
		return false, err
	}
	env, ok := a.sub.Queue().DrainLatest()
	if !ok {
		_ = a.Base.PostRead(transfer.DoReadResult{HasNewData: false})
		return false, nil
	}
	if env.Err != nil {
		_ = a.Base.PostRead(transfer.DoReadResult{Err: env.Err})
		return false, env.Err
	}
	if perr := a.Base.PostRead(transfer.DoReadResult{HasNewData: true, Validity: env.Validity, Version: env.Version}); perr != nil {
		return false, perr
	}
	a.buffers = env.Payload
	return true, nil
}

func (a *ND[T]) readPush(blocking bool) error {
	if a.sub == nil {
		return deverr.NewLogic("accessor", "push-mode accessor has no subscription wired")
	}
	env, ok := a.sub.Queue().Pop()
	for !ok {
		if !blocking {
			return a.Base.PostRead(transfer.DoReadResult{HasNewData: false})
		}
		<-a.sub.Queue().Readable()
		env, ok = a.sub.Queue().Pop()
	}
	if env.Err != nil {
		return a.Base.PostRead(transfer.DoReadResult{Err: env.Err})
	}
	if err := a.Base.PostRead(transfer.DoReadResult{HasNewData: true, Validity: env.Validity, Version: env.Version}); err != nil {
		return err
	}
	a.buffers = env.Payload
	return nil
}

// SetSubscription wires a.sub.Queue()/InitialValue() as the push source
// for a WaitForNewData accessor. Called by whichever domain owns this
// accessor's data source (interrupt dispatcher, LNM VARIABLE table).
func (a *ND[T]) SetSubscription(sub *asyncdomain.Subscription[[][]T]) { a.sub = sub }

// DataLost reports (and clears) whether the push queue overwrote an
// unconsumed value since the last call. Always false for poll accessors.
func (a *ND[T]) DataLost() bool {
	if a.sub == nil {
		return false
	}
	return a.sub.TakeDataLost()
}

// SetRawCodec attaches the register's codec for per-element cooked
// conversion on a raw-mode accessor. Decorators copy it from the accessor
// they wrap.
func (a *ND[T]) SetRawCodec(c codec.Codec) { a.rawCodec = c }

// RawCodec returns the attached per-element codec, or nil.
func (a *ND[T]) RawCodec() codec.Codec { return a.rawCodec }

func (a *ND[T]) cookedElement(ch, el int) (*T, error) {
	if a.rawCodec == nil || !a.AccessMode().Raw {
		return nil, deverr.NewLogic("accessor", "cooked element access requires a raw-mode accessor")
	}
	if ch < 0 || ch >= len(a.buffers) || el < 0 || el >= len(a.buffers[ch]) {
		return nil, deverr.NewLogicf("accessor", "register %s: element [%d][%d] out of range", a.path, ch, el)
	}
	return &a.buffers[ch][el], nil
}

// GetAsCooked converts the raw word at [ch][el] through the register's
// codec. Only raw-mode accessors carry the conversion; others fail with a
// LogicError.
func (a *ND[T]) GetAsCooked(ch, el int) (float64, error) {
	slot, err := a.cookedElement(ch, el)
	if err != nil {
		return 0, err
	}
	word := any(*slot).(int32)
	return a.rawCodec.ToCooked(uint32(word)), nil
}

// SetAsCooked converts v through the register's codec and stores the raw
// word at [ch][el].
func (a *ND[T]) SetAsCooked(ch, el int, v float64) error {
	slot, err := a.cookedElement(ch, el)
	if err != nil {
		return err
	}
	*slot = any(int32(a.rawCodec.ToRaw(v))).(T)
	return nil
}

// Write performs a blocking transfer of the buffer's current contents.
func (a *ND[T]) Write() (dataLost bool, err error) {
	newVersion, err := a.Base.PreWrite()
	if err != nil {
		return false, err
	}
	lost, werr := a.doWrite(a.buffers)
	_, perr := a.Base.PostWrite(newVersion, transfer.DoWriteResult{DataLost: lost, Err: werr})
	if perr != nil {
		return false, perr
	}
	return lost, nil
}

// WriteDestructively behaves like Write but callers grant permission for
// the backend to reuse the accessor's buffer storage after the call. This
// implementation does not need the extra freedom, so it delegates
// directly.
func (a *ND[T]) WriteDestructively() (dataLost bool, err error) {
	return a.Write()
}
