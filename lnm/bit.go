package lnm

import (
	"devaccess/accessor"
	"devaccess/catalogue"
	"devaccess/deverr"
	"devaccess/port"
	"devaccess/regpath"
	"devaccess/transfer"
)

// NewBitAccessor builds a bool accessor over path's BIT target: read
// extracts bit Bit of the target register's first word; write does a
// read-modify-write of that single bit under the LNM backend's per-
// register lock.
func NewBitAccessor(m *Map, path regpath.Path, resolve Resolver, mode transfer.AccessMode, isOpen transfer.IsOpenFunc) (*accessor.ND[bool], error) {
	info, err := m.Get(path)
	if err != nil {
		return nil, err
	}
	if info.TargetType != TargetBit {
		return nil, deverr.NewLogicf("lnm", "%s is not a BIT target", path)
	}

	backend, err := resolve(info.TargetDeviceAlias)
	if err != nil {
		return nil, err
	}
	targetInfo, err := backend.Catalogue().GetNumericAddressed(info.TargetRegisterPath)
	if err != nil {
		return nil, err
	}
	if len(targetInfo.Channels) != 1 {
		return nil, deverr.NewLogicf("lnm", "BIT target %s must be a 1-D register", info.TargetRegisterPath)
	}
	if info.Bit < 0 || info.Bit >= targetInfo.Channels[0].Width {
		return nil, deverr.NewLogicf("lnm", "BIT target %s has no bit %d", info.TargetRegisterPath, info.Bit)
	}

	p := backend.Port()
	lock := m.bitLock(info.TargetRegisterPath.String())

	doRead := func() ([][]bool, transfer.Validity, error) {
		word, err := readWord(p, targetInfo)
		if err != nil {
			return nil, transfer.Faulty, err
		}
		bit := (word>>uint(info.Bit))&1 != 0
		return [][]bool{{bit}}, transfer.Ok, nil
	}

	doWrite := func(buffers [][]bool) (bool, error) {
		lock.Lock()
		defer lock.Unlock()
		word, err := readWord(p, targetInfo)
		if err != nil {
			return false, err
		}
		if buffers[0][0] {
			word |= 1 << uint(info.Bit)
		} else {
			word &^= 1 << uint(info.Bit)
		}
		return false, writeWord(p, targetInfo, word)
	}

	return accessor.NewCustom[bool](path, 1, 1, mode, isOpen, doRead, doWrite), nil
}

func readWord(p port.RawMemoryPort, info catalogue.NumericAddressedRegisterInfo) (uint32, error) {
	buf := make([]int32, 1)
	if err := port.CheckAlignment(p, info.Bar, info.AddressBytes, 1); err != nil {
		return 0, err
	}
	if err := p.Read(info.Bar, info.AddressBytes, buf); err != nil {
		return 0, err
	}
	return uint32(buf[0]), nil
}

func writeWord(p port.RawMemoryPort, info catalogue.NumericAddressedRegisterInfo, word uint32) error {
	buf := []int32{int32(word)}
	if err := port.CheckAlignment(p, info.Bar, info.AddressBytes, 1); err != nil {
		return err
	}
	return p.Write(info.Bar, info.AddressBytes, buf)
}
