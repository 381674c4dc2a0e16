// Package deverr implements the library's two-kind error taxonomy:
// LogicError (programmer error, never recovered) and RuntimeError
// (transport/device fault, recoverable by close+open).
package deverr

import "fmt"

// Kind distinguishes the two error categories.
type Kind uint8

const (
	// KindLogic marks preconditions violated by the caller: bad path,
	// wrong access mode, misaligned size, invalid codec parameters,
	// closed device. Never recovered.
	KindLogic Kind = iota
	// KindRuntime marks transient/transport failures: I/O failure,
	// timeout, framing error, broken connection. Recoverable by
	// close+open and replay.
	KindRuntime
)

func (k Kind) String() string {
	if k == KindRuntime {
		return "runtime_error"
	}
	return "logic_error"
}

// Error is the concrete error type produced by this module. It carries a
// Kind, an operation name for context, a message, and an optional wrapped
// cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// NewLogic builds a KindLogic error.
func NewLogic(op, msg string) *Error { return &Error{Kind: KindLogic, Op: op, Msg: msg} }

// NewLogicf builds a KindLogic error with a formatted message.
func NewLogicf(op, format string, args ...any) *Error {
	return &Error{Kind: KindLogic, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// NewRuntime builds a KindRuntime error, optionally wrapping cause.
func NewRuntime(op, msg string, cause error) *Error {
	return &Error{Kind: KindRuntime, Op: op, Msg: msg, Err: cause}
}

// NewRuntimef builds a KindRuntime error with a formatted message.
func NewRuntimef(op string, cause error, format string, args ...any) *Error {
	return &Error{Kind: KindRuntime, Op: op, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// IsLogic reports whether err is (or wraps) a KindLogic *Error.
func IsLogic(err error) bool { return kindOf(err) == KindLogic }

// IsRuntime reports whether err is (or wraps) a KindRuntime *Error.
func IsRuntime(err error) bool { return kindOf(err) == KindRuntime }

func kindOf(err error) Kind {
	var e *Error
	for err != nil {
		if x, ok := err.(*Error); ok {
			e = x
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return KindRuntime // unknown errors are treated as transient by default
	}
	return e.Kind
}

// Common, pre-built LogicErrors reused across packages.
var (
	ErrDeviceNotOpened = NewLogic("transfer", "Device is not opened.")
	ErrWriteOnlyConst  = NewLogic("lnm", "constant registers cannot be written")
)
