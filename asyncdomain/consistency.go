package asyncdomain

import "devaccess/version"

// Member is the narrow contract DataConsistencyGroup needs from a push
// accessor: its current VersionNumber after the caller's latest read.
type Member interface {
	Version() version.Number
}

// ConsistencyGroup aligns multiple push-mode accessors by key: it is the
// mechanism by which one interrupt's Distribute() call,
// having posted to N independent accessors, lets a caller confirm all N
// have observed the same distribution before acting on them together.
type ConsistencyGroup struct {
	members []Member
	seen    map[int]version.Number
}

// NewConsistencyGroup builds a group over members, all of which must be
// push-mode (wait_for_new_data) accessors; the caller is responsible for
// that precondition.
func NewConsistencyGroup(members ...Member) *ConsistencyGroup {
	return &ConsistencyGroup{
		members: members,
		seen:    make(map[int]version.Number, len(members)),
	}
}

// Update records that the member at index idx has just been read,
// capturing its current VersionNumber.
func (g *ConsistencyGroup) Update(idx int) {
	if idx < 0 || idx >= len(g.members) {
		return
	}
	g.seen[idx] = g.members[idx].Version()
}

// IsConsistent reports true once every member has been Update()d with a
// non-zero VersionNumber and all recorded versions are equal.
func (g *ConsistencyGroup) IsConsistent() bool {
	if len(g.seen) != len(g.members) {
		return false
	}
	var ref version.Number
	first := true
	for _, v := range g.seen {
		if v.IsZero() {
			return false
		}
		if first {
			ref = v
			first = false
			continue
		}
		if !v.Equal(ref) {
			return false
		}
	}
	return true
}

// Reset clears recorded versions, e.g. after acting on a consistent
// snapshot.
func (g *ConsistencyGroup) Reset() {
	g.seen = make(map[int]version.Number, len(g.members))
}
