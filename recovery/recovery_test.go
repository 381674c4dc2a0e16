package recovery

import (
	"testing"

	"devaccess/bus"
)

func TestRegistryReplaysAscendingOrder(t *testing.T) {
	reg := NewRegistry()
	var order []int

	for i := 0; i < 3; i++ {
		i := i
		h := &Helper{Replay: func() error {
			order = append(order, i)
			return nil
		}}
		reg.Register(h)
		h.MarkWritten()
	}

	if err := reg.ReplayAll(); err != nil {
		t.Fatalf("ReplayAll: %v", err)
	}
	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Fatalf("replay order = %v, want ascending [0 1 2]", order)
	}
}

func TestRegistrySkipsUnwritten(t *testing.T) {
	reg := NewRegistry()
	called := false
	h := &Helper{Replay: func() error { called = true; return nil }}
	reg.Register(h)

	if err := reg.ReplayAll(); err != nil {
		t.Fatalf("ReplayAll: %v", err)
	}
	if called {
		t.Fatal("Replay must not run for a helper that never saw a write")
	}
}

func TestMonitorPublishesRetainedState(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("backend")
	topic := bus.T("recovery", "link")

	m := NewMonitor(conn, topic)
	m.Set(LinkDegraded)
	m.Set(LinkUp)

	obs := b.NewConnection("observer")
	sub := obs.Subscribe(topic)
	msg := <-sub.Channel()

	state, ok := msg.Payload.(LinkState)
	if !ok || state != LinkUp {
		t.Fatalf("retained replay = %v, want LinkUp", msg.Payload)
	}
	if m.State() != LinkUp {
		t.Fatalf("State() = %v, want LinkUp", m.State())
	}
}
