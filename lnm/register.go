// register.go implements the REGISTER and CHANNEL LNM target kinds: thin
// forwarders to a target backend's own NumericAddressed accessor, sliced
// (REGISTER) or channel-selected (CHANNEL).
package lnm

import (
	"devaccess/accessor"
	"devaccess/datatype"
	"devaccess/deverr"
	"devaccess/regpath"
	"devaccess/transfer"
)

// NewRegisterAccessor builds a forwarding accessor for a REGISTER target:
// the target backend's own accessor for TargetRegisterPath, windowed to
// [FirstIndex, FirstIndex+Length).
func NewRegisterAccessor[T datatype.UserType](m *Map, path regpath.Path, resolve Resolver, mode transfer.AccessMode, isOpen transfer.IsOpenFunc) (*accessor.ND[T], error) {
	info, err := m.Get(path)
	if err != nil {
		return nil, err
	}
	if info.TargetType != TargetRegister {
		return nil, deverr.NewLogicf("lnm", "%s is not a REGISTER target", path)
	}
	return forwardingAccessor[T](m, info, resolve, 0, mode, isOpen)
}

// NewChannelAccessor builds a 1-D accessor exposing one channel (row) of a
// CHANNEL target's multiplexed register.
func NewChannelAccessor[T datatype.UserType](m *Map, path regpath.Path, resolve Resolver, mode transfer.AccessMode, isOpen transfer.IsOpenFunc) (*accessor.ND[T], error) {
	info, err := m.Get(path)
	if err != nil {
		return nil, err
	}
	if info.TargetType != TargetChannel {
		return nil, deverr.NewLogicf("lnm", "%s is not a CHANNEL target", path)
	}
	return forwardingAccessor[T](m, info, resolve, info.Channel, mode, isOpen)
}

func forwardingAccessor[T datatype.UserType](m *Map, info RegisterInfo, resolve Resolver, channel int, mode transfer.AccessMode, isOpen transfer.IsOpenFunc) (*accessor.ND[T], error) {
	backend, err := resolve(info.TargetDeviceAlias)
	if err != nil {
		return nil, err
	}
	targetInfo, err := backend.Catalogue().GetNumericAddressed(info.TargetRegisterPath)
	if err != nil {
		return nil, err
	}

	length := info.Length
	if length <= 0 {
		length = targetInfo.NElements - info.FirstIndex
	}

	return accessor.NewNumericAddressed[T](
		info.Path,
		targetInfo,
		backend.Port(),
		channel,
		info.FirstIndex,
		length,
		mode,
		isOpen,
	)
}
