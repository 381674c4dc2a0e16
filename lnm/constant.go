package lnm

import (
	"devaccess/accessor"
	"devaccess/datatype"
	"devaccess/deverr"
	"devaccess/regpath"
	"devaccess/transfer"
)

// NewConstantAccessor builds a read-only accessor whose buffer is fixed at
// construction to value; writes fail with a LogicError.
func NewConstantAccessor[T datatype.UserType](m *Map, path regpath.Path, value T, isOpen transfer.IsOpenFunc) (*accessor.ND[T], error) {
	info, err := m.Get(path)
	if err != nil {
		return nil, err
	}
	if info.TargetType != TargetConstant {
		return nil, deverr.NewLogicf("lnm", "%s is not a CONSTANT target", path)
	}

	doRead := func() ([][]T, transfer.Validity, error) {
		return [][]T{{value}}, transfer.Ok, nil
	}
	doWrite := func(_ [][]T) (bool, error) {
		return false, deverr.ErrWriteOnlyConst
	}

	mode := transfer.AccessMode{}
	return accessor.NewCustom[T](path, 1, 1, mode, isOpen, doRead, doWrite), nil
}
