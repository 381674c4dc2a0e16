package dummy

import (
	"testing"

	"devaccess/deverr"
)

func TestReadWriteRoundTrip(t *testing.T) {
	p := New(map[int]int{0: 16})
	if err := p.Write(0, 4, []int32{42}); err != nil {
		t.Fatal(err)
	}
	got := make([]int32, 1)
	if err := p.Read(0, 4, got); err != nil {
		t.Fatal(err)
	}
	if got[0] != 42 {
		t.Fatalf("got %d, want 42", got[0])
	}
}

func TestClosedPortRejectsTransfers(t *testing.T) {
	p := New(map[int]int{0: 4})
	p.Close()
	err := p.Read(0, 0, make([]int32, 1))
	if !deverr.IsLogic(err) {
		t.Fatalf("expected logic error on closed port, got %v", err)
	}
}

func TestMisalignedAccessRejected(t *testing.T) {
	p := New(map[int]int{0: 4})
	if err := p.Write(0, 3, []int32{1}); err == nil {
		t.Fatal("expected error for misaligned byte offset")
	}
}

func TestOutOfRangeRejected(t *testing.T) {
	p := New(map[int]int{0: 2})
	if err := p.Write(0, 0, make([]int32, 10)); err == nil {
		t.Fatal("expected error for out-of-range transfer")
	}
}

func TestInterruptPendingEdges(t *testing.T) {
	p := New(map[int]int{0: 4})
	p.TriggerInterrupt(7)
	p.TriggerInterrupt(7)
	n, err := p.PendingEdges(7)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 pending edges, got %d", n)
	}
	n, _ = p.PendingEdges(7)
	if n != 0 {
		t.Fatalf("expected edges cleared after read, got %d", n)
	}
}
