// Numeric-addressed accessor construction: builds an ND[T] whose
// doRead/doWrite close over a port.RawMemoryPort, turning a
// catalogue.NumericAddressedRegisterInfo into word-level transfers. Flat
// registers (one channel) and multiplexed registers (several bit-packed
// channels per element) share the same read-whole-element-then-slice
// codepath.
package accessor

import (
	"devaccess/catalogue"
	"devaccess/codec"
	"devaccess/datatype"
	"devaccess/deverr"
	"devaccess/port"
	"devaccess/regpath"
	"devaccess/transfer"
)

type channelSpec struct {
	codec     codec.Codec
	bitOffset int
	width     int
}

func buildChannelSpecs(channels []catalogue.ChannelInfo) []channelSpec {
	out := make([]channelSpec, len(channels))
	bitOffset := 0
	for i, ch := range channels {
		var c codec.Codec
		switch ch.Type {
		case catalogue.FixedPointChannel:
			fp, err := codec.NewFixedPoint(ch.Width, ch.NFractionalBits, ch.Signed)
			if err == nil {
				c = fp
			}
		case catalogue.IEEE754Channel:
			c = codec.IEEE754{}
		}
		out[i] = channelSpec{codec: c, bitOffset: bitOffset, width: ch.Width}
		bitOffset += ch.Width
	}
	return out
}

const wordBits = 32

func wordsPerElement(pitchBits int) int {
	if pitchBits <= 0 {
		return 1
	}
	return (pitchBits + wordBits - 1) / wordBits
}

// NewNumericAddressed builds an ND[T] register accessor for path, backed
// by p, using info's channel layout. channel selects which of info's
// channels this accessor exposes (0 for flat registers); firstElement and
// nElements may restrict which of info.NElements this accessor covers; a
// negative nElements covers everything from firstElement to the end.
func NewNumericAddressed[T datatype.UserType](
	path regpath.Path,
	info catalogue.NumericAddressedRegisterInfo,
	p port.RawMemoryPort,
	channel int,
	firstElement, nElements int,
	mode transfer.AccessMode,
	isOpen transfer.IsOpenFunc,
) (*ND[T], error) {
	if mode.Raw {
		var zero T
		if _, ok := any(zero).(int32); !ok {
			return nil, deverr.NewLogicf("accessor", "register %s: raw mode requires T=int32", path)
		}
	}
	if channel < 0 || channel >= len(info.Channels) {
		return nil, deverr.NewLogicf("accessor", "register %s: channel %d out of range", path, channel)
	}
	if nElements < 0 {
		nElements = info.NElements - firstElement
	}
	if firstElement < 0 || firstElement+nElements > info.NElements {
		return nil, deverr.NewLogicf("accessor", "register %s: element range [%d,%d) out of [0,%d)", path, firstElement, firstElement+nElements, info.NElements)
	}

	specs := buildChannelSpecs(info.Channels)
	spec := specs[channel]
	wpe := wordsPerElement(info.ElementPitchBits)
	byteOffset := info.AddressBytes + firstElement*wpe*4

	base := transfer.NewBase(mode, isOpen)
	acc := &ND[T]{
		Base:    base,
		path:    path,
		buffers: [][]T{make([]T, nElements)},
		raw:     mode.Raw,
	}

	readBlock := func() ([]int32, error) {
		buf := make([]int32, nElements*wpe)
		if err := port.CheckAlignment(p, info.Bar, byteOffset, nElements*wpe); err != nil {
			return nil, err
		}
		if err := p.Read(info.Bar, byteOffset, buf); err != nil {
			return nil, err
		}
		return buf, nil
	}

	acc.doRead = func() ([][]T, transfer.Validity, error) {
		words, err := readBlock()
		if err != nil {
			return nil, transfer.Faulty, err
		}
		out := make([]T, nElements)
		for i := 0; i < nElements; i++ {
			elemWords := words[i*wpe : (i+1)*wpe]
			if acc.raw {
				out[i] = any(elemWords[0]).(T)
				continue
			}
			raw := extractBits(elemWords, spec.bitOffset, spec.width)
			if spec.codec == nil {
				var zero T
				out[i] = zero
				continue
			}
			out[i] = SatCast[T](spec.codec.ToCooked(raw))
		}
		return [][]T{out}, transfer.Ok, nil
	}

	if mode.Raw && spec.codec != nil {
		acc.SetRawCodec(spec.codec)
	}

	acc.doWrite = func(buffers [][]T) (bool, error) {
		words, err := readBlock() // read-modify-write: preserve sibling channels
		if err != nil {
			return false, err
		}
		values := buffers[0]
		for i := 0; i < nElements && i < len(values); i++ {
			elemWords := words[i*wpe : (i+1)*wpe]
			if acc.raw {
				elemWords[0] = any(values[i]).(int32)
				continue
			}
			if spec.codec == nil {
				continue
			}
			raw := spec.codec.ToRaw(ToFloat(values[i]))
			insertBits(elemWords, spec.bitOffset, spec.width, raw)
		}
		if err := port.CheckAlignment(p, info.Bar, byteOffset, nElements*wpe); err != nil {
			return false, err
		}
		if err := p.Write(info.Bar, byteOffset, words); err != nil {
			return false, err
		}
		return false, nil
	}

	return acc, nil
}
