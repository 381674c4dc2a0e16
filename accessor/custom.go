package accessor

import (
	"devaccess/datatype"
	"devaccess/regpath"
	"devaccess/transfer"
)

// DoReadFunc and DoWriteFunc are the transfer-phase callbacks NewCustom
// wires into an ND[T] on behalf of a caller that cannot reach ND's
// unexported fields directly.
type DoReadFunc[T datatype.UserType] func() ([][]T, transfer.Validity, error)
type DoWriteFunc[T datatype.UserType] func(buffers [][]T) (dataLost bool, err error)

// NewCustom builds an ND[T] accessor whose transfer phases are supplied by
// the caller instead of being derived from a catalogue.NumericAddressedRegisterInfo
// and a port.RawMemoryPort. This is the construction path for accessors
// that are not numeric-addressed-backend-shaped: the lnm package's BIT,
// CONSTANT and VARIABLE targets all build their accessors through this
// function rather than NewNumericAddressed.
func NewCustom[T datatype.UserType](
	path regpath.Path,
	nChannels, nElements int,
	mode transfer.AccessMode,
	isOpen transfer.IsOpenFunc,
	doRead DoReadFunc[T],
	doWrite DoWriteFunc[T],
) *ND[T] {
	if nChannels < 1 {
		nChannels = 1
	}
	buffers := make([][]T, nChannels)
	for i := range buffers {
		buffers[i] = make([]T, nElements)
	}
	acc := &ND[T]{
		Base:    transfer.NewBase(mode, isOpen),
		path:    path,
		buffers: buffers,
	}
	acc.doRead = func() ([][]T, transfer.Validity, error) { return doRead() }
	if doWrite != nil {
		acc.doWrite = func(b [][]T) (bool, error) { return doWrite(b) }
	}
	return acc
}
