package bus

import "testing"

func recv(t *testing.T, sub *Subscription) *Message {
	t.Helper()
	select {
	case m := <-sub.Channel():
		return m
	default:
		t.Fatal("expected a delivered message")
		return nil
	}
}

func TestPublishSubscribe(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")
	sub := conn.Subscribe(T("a", "b"))

	conn.Publish(conn.NewMessage(T("a", "b"), 42, false))
	if got := recv(t, sub).Payload; got != 42 {
		t.Fatalf("payload = %v, want 42", got)
	}
}

func TestWildcards(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	tests := []struct {
		name    string
		pattern Topic
		topic   Topic
		match   bool
	}{
		{"exact", T("x", "y"), T("x", "y"), true},
		{"single matches one token", T("x", "+"), T("x", "y"), true},
		{"single needs a token", T("x", "+"), T("x"), false},
		{"multi matches remainder", T("x", "#"), T("x", "y", "z"), true},
		{"multi matches zero tokens", T("x", "#"), T("x"), true},
		{"mismatch", T("x", "y"), T("x", "z"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := conn.Subscribe(tt.pattern)
			defer sub.Unsubscribe()
			conn.Publish(conn.NewMessage(tt.topic, "hit", false))
			got := len(sub.Channel()) > 0
			if got != tt.match {
				t.Fatalf("delivered = %v, want %v", got, tt.match)
			}
			for len(sub.Channel()) > 0 {
				<-sub.Channel()
			}
		})
	}
}

func TestRetainedReplayOnSubscribe(t *testing.T) {
	b := NewBus(4)
	pub := b.NewConnection("publisher")
	pub.Publish(pub.NewMessage(T("link", "dummy"), "up", true))

	obs := b.NewConnection("observer")
	sub := obs.Subscribe(T("link", "+"))
	if got := recv(t, sub).Payload; got != "up" {
		t.Fatalf("retained replay = %v, want up", got)
	}

	// A nil retained payload deletes the stored value.
	pub.Publish(pub.NewMessage(T("link", "dummy"), nil, true))
	late := obs.Subscribe(T("link", "dummy"))
	if len(late.Channel()) != 0 {
		t.Fatal("deleted retained message must not replay")
	}
}

func TestLossyDeliveryDropsOldest(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")
	sub := conn.Subscribe(T("q"))

	for i := 0; i < 5; i++ {
		conn.Publish(conn.NewMessage(T("q"), i, false))
	}
	// Queue holds the 2 newest; the oldest were dropped, not the newest.
	if got := recv(t, sub).Payload; got != 3 {
		t.Fatalf("first queued payload = %v, want 3", got)
	}
	if got := recv(t, sub).Payload; got != 4 {
		t.Fatalf("second queued payload = %v, want 4", got)
	}
}

func TestDisconnectClosesSubscriptions(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")
	sub := conn.Subscribe(T("t"))
	conn.Disconnect()
	if _, ok := <-sub.Channel(); ok {
		t.Fatal("channel must be closed after Disconnect")
	}
	// Publishing after disconnect must not panic.
	b.Publish(b.NewMessage(T("t"), 1, false))
}
