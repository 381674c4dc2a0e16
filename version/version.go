// Package version implements VersionNumber, a strictly monotonic,
// process-wide stamp used to establish causal order across accessors.
package version

import "sync/atomic"

var counter atomic.Uint64

// Number is an opaque, strictly ordered stamp. The zero Number is
// "before everything": it compares less than every Number produced by New.
type Number struct {
	n uint64
}

// Zero is the default-constructed Number, ordered before every generated
// Number.
var Zero = Number{}

// New allocates a fresh, strictly-greater-than-any-prior Number. Safe for
// concurrent use.
func New() Number {
	return Number{n: counter.Add(1)}
}

// After reports whether n happened strictly after o.
func (n Number) After(o Number) bool { return n.n > o.n }

// Before reports whether n happened strictly before o.
func (n Number) Before(o Number) bool { return n.n < o.n }

// Equal reports whether n and o are the same stamp (and therefore were
// produced by the same distribute/write call).
func (n Number) Equal(o Number) bool { return n.n == o.n }

// IsZero reports whether n is the default "before everything" value.
func (n Number) IsZero() bool { return n.n == 0 }

// Raw exposes the underlying ordinal for logging/diagnostics. Callers must
// not assume any meaning beyond total order.
func (n Number) Raw() uint64 { return n.n }
