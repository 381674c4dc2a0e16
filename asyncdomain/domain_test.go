package asyncdomain

import (
	"errors"
	"testing"

	"devaccess/transfer"
)

func TestDistributeStampsAllSubscribersEqually(t *testing.T) {
	d := New[int32](4)
	a := d.Subscribe()
	b := d.Subscribe()

	v := d.Distribute(7, transfer.Ok)

	envA, okA := a.Queue().Pop()
	envB, okB := b.Queue().Pop()
	if !okA || !okB {
		t.Fatal("both subscribers must receive the distribution")
	}
	if !envA.Version.Equal(v) || !envB.Version.Equal(v) {
		t.Fatalf("versions differ: %d vs %d (want %d)", envA.Version.Raw(), envB.Version.Raw(), v.Raw())
	}
	if envA.Payload != 7 || envB.Payload != 7 {
		t.Fatal("payload mismatch")
	}
}

func TestOverflowDropsOldest(t *testing.T) {
	d := New[int32](2)
	sub := d.Subscribe()

	d.Distribute(1, transfer.Ok)
	d.Distribute(2, transfer.Ok)
	d.Distribute(3, transfer.Ok)

	env, _ := sub.Queue().Pop()
	if env.Payload != 2 {
		t.Fatalf("oldest element must be replaced: got %d, want 2", env.Payload)
	}
	env, _ = sub.Queue().Pop()
	if env.Payload != 3 {
		t.Fatalf("got %d, want 3", env.Payload)
	}
}

func TestSendExceptionDeactivatesAndNotifies(t *testing.T) {
	d := New[int32](4)
	sub := d.Subscribe()
	d.Activate(0, transfer.Ok)
	if !d.IsActive() {
		t.Fatal("expected active after Activate")
	}

	boom := errors.New("device closed")
	d.SendException(boom)
	if d.IsActive() {
		t.Fatal("expected inactive after SendException")
	}
	env, ok := sub.Queue().Pop()
	if !ok || env.Err != boom {
		t.Fatalf("subscriber must receive the exception: ok=%v err=%v", ok, env.Err)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	d := New[int32](4)
	sub := d.Subscribe()
	sub.Unsubscribe()
	d.Distribute(1, transfer.Ok)
	if _, ok := sub.Queue().Pop(); ok {
		t.Fatal("unsubscribed queue must not receive distributions")
	}
}

func TestDistributeStampedForwardsCallerVersion(t *testing.T) {
	upstream := New[int32](4)
	bridge := New[int32](4)
	upSub := upstream.Subscribe()
	bridgeSub := bridge.Subscribe()

	v := upstream.Distribute(5, transfer.Ok)
	env, _ := upSub.Queue().Pop()
	bridge.DistributeStamped(env.Payload, env.Validity, env.Version)

	got, _ := bridgeSub.Queue().Pop()
	if !got.Version.Equal(v) {
		t.Fatalf("bridge must forward the upstream stamp: %d vs %d", got.Version.Raw(), v.Raw())
	}
}
