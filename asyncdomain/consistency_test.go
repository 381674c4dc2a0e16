package asyncdomain

import (
	"testing"

	"devaccess/version"
)

type fakeMember struct{ v version.Number }

func (f *fakeMember) Version() version.Number { return f.v }

func TestConsistencyGroupAgreesAfterSharedDistribute(t *testing.T) {
	d := New[int32](4)
	a := &fakeMember{}
	b := &fakeMember{}
	g := NewConsistencyGroup(a, b)

	if g.IsConsistent() {
		t.Fatal("expected inconsistent before any update")
	}

	v := d.Distribute(1, 0)
	a.v = v
	b.v = v
	g.Update(0)
	g.Update(1)

	if !g.IsConsistent() {
		t.Fatal("expected consistent group after shared distribution")
	}
}

func TestConsistencyGroupDisagreesOnStaleMember(t *testing.T) {
	d := New[int32](4)
	a := &fakeMember{}
	b := &fakeMember{}
	g := NewConsistencyGroup(a, b)

	a.v = d.Distribute(1, 0)
	g.Update(0)

	b.v = d.Distribute(2, 0)
	g.Update(1)

	if g.IsConsistent() {
		t.Fatal("expected inconsistent when members observed different distributions")
	}
}

func TestConsistencyGroupZeroVersionNeverConsistent(t *testing.T) {
	a := &fakeMember{}
	b := &fakeMember{}
	g := NewConsistencyGroup(a, b)
	g.Update(0)
	g.Update(1)
	if g.IsConsistent() {
		t.Fatal("zero version members must never be reported consistent")
	}
}

func TestConsistencyGroupReset(t *testing.T) {
	d := New[int32](4)
	a := &fakeMember{}
	g := NewConsistencyGroup(a)
	a.v = d.Distribute(1, 0)
	g.Update(0)
	if !g.IsConsistent() {
		t.Fatal("expected consistent single-member group")
	}
	g.Reset()
	if g.IsConsistent() {
		t.Fatal("expected inconsistent after reset")
	}
}
