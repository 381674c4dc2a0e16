package device

import (
	"strings"

	"devaccess/deverr"
)

// Descriptor is the parsed form of a device descriptor string: either
// the preferred "kind?key=value&key2=value2" form, or the legacy
// "(kind:address?key=value&...)" form carried over from hardware
// descriptor map files.
type Descriptor struct {
	Kind    string
	Address string
	Params  map[string]string
}

// Param looks up a parameter, returning ("", false) if absent.
func (d Descriptor) Param(key string) (string, bool) {
	v, ok := d.Params[key]
	return v, ok
}

// ParseDescriptor parses s into a Descriptor.
func ParseDescriptor(s string) (Descriptor, error) {
	if strings.HasPrefix(s, "(") {
		if !strings.HasSuffix(s, ")") {
			return Descriptor{}, deverr.NewLogicf("device", "malformed descriptor: %s", s)
		}
		inner := s[1 : len(s)-1]
		kindAddr, opts, _ := strings.Cut(inner, "?")
		kind, addr, hasAddr := strings.Cut(kindAddr, ":")
		if !hasAddr {
			kind, addr = kindAddr, ""
		}
		if kind == "" {
			return Descriptor{}, deverr.NewLogicf("device", "descriptor has no kind: %s", s)
		}
		return Descriptor{Kind: kind, Address: addr, Params: parseParams(opts)}, nil
	}

	kind, opts, _ := strings.Cut(s, "?")
	if kind == "" {
		return Descriptor{}, deverr.NewLogicf("device", "descriptor has no kind: %s", s)
	}
	return Descriptor{Kind: kind, Params: parseParams(opts)}, nil
}

func parseParams(s string) map[string]string {
	out := map[string]string{}
	if s == "" {
		return out
	}
	for _, kv := range strings.Split(s, "&") {
		k, v, _ := strings.Cut(kv, "=")
		out[k] = v
	}
	return out
}
