package device

import (
	"sync"

	"devaccess/accessor"
	"devaccess/catalogue"
	"devaccess/datatype"
	"devaccess/deverr"
	"devaccess/recovery"
	"devaccess/regpath"
	"devaccess/transfer"
)

// wrapNumericAccessor is the exception-handling decorator in the chain
// typed accessor -> exception handler -> physical accessor. It
// fails fast while the backend carries an active exception, quiesces the
// backend on any fresh RuntimeError, enforces the register's access mode,
// and registers the recovery helper that replays the last-intended write
// after a reopen. The outer accessor owns its own buffer and copies in and
// out of the physical accessor, so shared use of the physical layer never
// aliases a caller-visible buffer.
func wrapNumericAccessor[T datatype.UserType](
	n *Numeric,
	inner *accessor.ND[T],
	info catalogue.NumericAddressedRegisterInfo,
	path regpath.Path,
	mode transfer.AccessMode,
	isOpen transfer.IsOpenFunc,
) *accessor.ND[T] {
	writable := info.Access != catalogue.ReadOnly

	var helper *recovery.Helper
	var lastMu sync.Mutex
	var lastWritten [][]T
	if writable {
		helper = &recovery.Helper{Replay: func() error {
			lastMu.Lock()
			buffers := lastWritten
			lastMu.Unlock()
			if buffers == nil {
				return nil
			}
			for c := range buffers {
				copy(inner.Channel(c), buffers[c])
			}
			_, err := inner.Write()
			return err
		}}
		n.RecoveryRegistry().Register(helper)
	}

	doRead := func() ([][]T, transfer.Validity, error) {
		if info.Access == catalogue.WriteOnly {
			return nil, transfer.Faulty, deverr.NewLogicf("device", "register %s is write-only", path)
		}
		if err := n.ActiveException(); err != nil {
			return nil, transfer.Faulty, err
		}
		if err := inner.Read(); err != nil {
			if deverr.IsRuntime(err) {
				n.Fault(err)
			}
			return nil, transfer.Faulty, err
		}
		out := make([][]T, inner.NChannels())
		for c := range out {
			out[c] = append([]T(nil), inner.Channel(c)...)
		}
		return out, inner.Validity(), nil
	}

	var doWrite accessor.DoWriteFunc[T]
	if writable {
		doWrite = func(buffers [][]T) (bool, error) {
			if err := n.ActiveException(); err != nil {
				return false, err
			}
			for c := range buffers {
				copy(inner.Channel(c), buffers[c])
			}
			if _, err := inner.Write(); err != nil {
				if deverr.IsRuntime(err) {
					n.Fault(err)
				}
				return false, err
			}
			snapshot := make([][]T, len(buffers))
			for c := range buffers {
				snapshot[c] = append([]T(nil), buffers[c]...)
			}
			lastMu.Lock()
			lastWritten = snapshot
			lastMu.Unlock()
			helper.MarkWritten()
			return false, nil
		}
	} else {
		doWrite = func([][]T) (bool, error) {
			return false, deverr.NewLogicf("device", "register %s is read-only", path)
		}
	}

	outer := accessor.NewCustom[T](path, inner.NChannels(), inner.NElements(), mode, isOpen, doRead, doWrite)
	outer.SetRawCodec(inner.RawCodec())
	return outer
}
