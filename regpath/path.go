// Package regpath implements RegisterPath, the canonical slash-separated
// register identity used throughout the catalogue and accessor layers.
package regpath

import "strings"

// Path is a case-sensitive sequence of non-empty segments. The zero value
// is the empty path, which prints and compares equal to "/".
type Path struct {
	segments []string
}

// New builds a Path from already-split segments.
func New(segments ...string) Path {
	p := Path{}
	for _, s := range segments {
		if s != "" {
			p.segments = append(p.segments, s)
		}
	}
	return p
}

// Parse splits s on '/' and, if alt is non-zero, also on alt. Leading and
// trailing separators and empty segments are ignored, so "/a/b", "a/b" and
// "a.b" (with alt='.') all parse to the same Path.
func Parse(s string, alt byte) Path {
	repl := s
	if alt != 0 {
		repl = strings.ReplaceAll(s, string(alt), "/")
	}
	parts := strings.Split(repl, "/")
	return New(parts...)
}

// ParseDefault parses with '.' as the alternate separator, the library-wide
// default.
func ParseDefault(s string) Path { return Parse(s, '.') }

// String renders the canonical form: a leading '/' followed by segments
// joined with '/'. The empty path renders as "/".
func (p Path) String() string {
	if len(p.segments) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.segments, "/")
}

// Segments returns a copy of the path's segments.
func (p Path) Segments() []string {
	out := make([]string, len(p.segments))
	copy(out, p.segments)
	return out
}

// Len reports the number of segments.
func (p Path) Len() int { return len(p.segments) }

// Push appends a segment, returning the extended path. The receiver is
// unmodified.
func (p Path) Push(segment string) Path {
	if segment == "" {
		return p
	}
	out := New(p.segments...)
	out.segments = append(out.segments, segment)
	return out
}

// Pop removes the last segment, returning the shortened path. Popping an
// empty path returns the empty path.
func (p Path) Pop() Path {
	if len(p.segments) == 0 {
		return p
	}
	return New(p.segments[:len(p.segments)-1]...)
}

// Join appends another path's segments.
func (p Path) Join(other Path) Path {
	out := New(p.segments...)
	out.segments = append(out.segments, other.segments...)
	return out
}

// WithAltSeparator re-parses the path's canonical string using alt as the
// alternate separator, so a segment containing alt is split at it; a path
// whose segments do not contain alt comes back unchanged.
func (p Path) WithAltSeparator(alt byte) Path { return Parse(p.String(), alt) }

// StartsWith reports whether p begins with the segments of prefix.
func (p Path) StartsWith(prefix Path) bool {
	if len(prefix.segments) > len(p.segments) {
		return false
	}
	for i, s := range prefix.segments {
		if p.segments[i] != s {
			return false
		}
	}
	return true
}

// EndsWith reports whether p ends with the segments of suffix.
func (p Path) EndsWith(suffix Path) bool {
	if len(suffix.segments) > len(p.segments) {
		return false
	}
	off := len(p.segments) - len(suffix.segments)
	for i, s := range suffix.segments {
		if p.segments[off+i] != s {
			return false
		}
	}
	return true
}

// HasSuffix reports whether the path's last segment ends with suffix.
func (p Path) HasSuffix(suffix string) bool {
	if len(p.segments) == 0 {
		return false
	}
	return strings.HasSuffix(p.segments[len(p.segments)-1], suffix)
}

// TrimSuffix removes suffix from the last segment, if present.
func (p Path) TrimSuffix(suffix string) Path {
	if len(p.segments) == 0 {
		return p
	}
	last := strings.TrimSuffix(p.segments[len(p.segments)-1], suffix)
	segs := append(append([]string{}, p.segments[:len(p.segments)-1]...), last)
	return New(segs...)
}

// Equal compares two paths segment-by-segment (alt-separators are already
// normalized away at parse time, so this is a plain slice comparison).
func (p Path) Equal(o Path) bool {
	if len(p.segments) != len(o.segments) {
		return false
	}
	for i, s := range p.segments {
		if s != o.segments[i] {
			return false
		}
	}
	return true
}

// IsEmpty reports whether the path has no segments (equals "/").
func (p Path) IsEmpty() bool { return len(p.segments) == 0 }
