// Package rebotwire implements the Rebot register-tunnel wire protocol:
// framed sequences of 32-bit little-endian words over TCP. It carries the
// opcode set, the word-level frame I/O shared by client and test server,
// and the protocol-version negotiation performed by the hello exchange.
package rebotwire

import (
	"encoding/binary"
	"io"

	"devaccess/deverr"
)

// Request opcodes, first word of every client frame.
const (
	OpSingleWordWrite uint32 = 1
	OpMultiWordWrite  uint32 = 2
	OpMultiWordRead   uint32 = 3
	OpHello           uint32 = 4
	OpPing            uint32 = 5
)

// Single-word server replies.
const (
	WriteSuccess         uint32 = 1
	TooMuchDataRequested uint32 = 2
	UnknownInstruction   uint32 = 3
)

// MagicWord is the Rebot hello magic, "rbot" in ASCII.
const MagicWord uint32 = 0x72626f74

// ClientProtocolVersion is the newest protocol this client speaks. The
// hello exchange may negotiate down to 0 against a legacy server.
const ClientProtocolVersion uint32 = 1

// MaxReadWords is the largest word count a server accepts in one
// multi-word read; larger requests are split by the client and rejected
// with TooMuchDataRequested by the server.
const MaxReadWords = 361

// WriteWords sends words as consecutive little-endian 32-bit values.
func WriteWords(w io.Writer, words []uint32) error {
	buf := make([]byte, 4*len(words))
	for i, word := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], word)
	}
	if _, err := w.Write(buf); err != nil {
		return deverr.NewRuntime("rebotwire", "send failed", err)
	}
	return nil
}

// ReadWords fills dst with little-endian 32-bit values read from r.
func ReadWords(r io.Reader, dst []uint32) error {
	buf := make([]byte, 4*len(dst))
	if _, err := io.ReadFull(r, buf); err != nil {
		return deverr.NewRuntime("rebotwire", "receive failed", err)
	}
	for i := range dst {
		dst[i] = binary.LittleEndian.Uint32(buf[4*i:])
	}
	return nil
}

// ReadWord reads a single word.
func ReadWord(r io.Reader) (uint32, error) {
	var one [1]uint32
	if err := ReadWords(r, one[:]); err != nil {
		return 0, err
	}
	return one[0], nil
}

// CheckWordAligned validates that a byte address and size are multiples of
// 4, the client-side precondition every Rebot request must satisfy before
// anything is sent.
func CheckWordAligned(addressBytes, sizeBytes int) error {
	if addressBytes%4 != 0 {
		return deverr.NewLogicf("rebotwire", "address %d is not 4-byte aligned", addressBytes)
	}
	if sizeBytes%4 != 0 {
		return deverr.NewLogicf("rebotwire", "size %d is not 4-byte aligned", sizeBytes)
	}
	return nil
}
