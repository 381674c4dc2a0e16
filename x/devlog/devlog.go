// Package devlog is the module's minimal leveled logging surface. Backends
// report open/close/recovery transitions through a Logger instead of
// writing to stdout directly; library code defaults to Nop so embedding
// applications stay silent unless they opt in.
package devlog

import (
	"fmt"
	"log"
)

// Logger is the sink backends and dispatchers log through.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nop struct{}

func (nop) Debugf(string, ...any) {}
func (nop) Infof(string, ...any)  {}
func (nop) Warnf(string, ...any)  {}
func (nop) Errorf(string, ...any) {}

// Nop returns a Logger that discards everything. It is the default for
// every component that accepts a Logger.
func Nop() Logger { return nop{} }

type std struct{ l *log.Logger }

func (s std) out(level, format string, args ...any) {
	s.l.Output(3, level+" "+fmt.Sprintf(format, args...))
}

func (s std) Debugf(format string, args ...any) { s.out("DEBUG", format, args...) }
func (s std) Infof(format string, args ...any)  { s.out("INFO", format, args...) }
func (s std) Warnf(format string, args ...any)  { s.out("WARN", format, args...) }
func (s std) Errorf(format string, args ...any) { s.out("ERROR", format, args...) }

// Std returns a Logger backed by the standard library's default logger,
// prefixing each line with its level. Used by the demo binary and handy
// in tests.
func Std() Logger { return std{l: log.Default()} }
