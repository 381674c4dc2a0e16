package interrupt

import (
	"context"
	"testing"
	"time"

	"devaccess/asyncdomain"
	"devaccess/port/dummy"
)

func TestDispatcherDistributesOnEdge(t *testing.T) {
	p := dummy.New(map[int]int{0: 4})
	domain := asyncdomain.New[struct{}](4)
	sub := domain.Subscribe()

	disp := New(p, 7, domain)
	if err := disp.Subscribe(context.Background()); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer disp.Close()

	select {
	case env := <-sub.InitialValue():
		if env.Err != nil {
			t.Fatalf("initial value carried error: %v", env.Err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for initial value")
	}

	p.TriggerInterrupt(7)

	select {
	case <-sub.Queue().Readable():
		env, ok := sub.Queue().Pop()
		if !ok {
			t.Fatal("expected queued envelope after edge")
		}
		if env.Version.IsZero() {
			t.Fatal("distributed envelope must carry a non-zero version")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for distribution after interrupt edge")
	}
}

func TestDispatcherCloseIsIdempotent(t *testing.T) {
	p := dummy.New(map[int]int{0: 4})
	domain := asyncdomain.New[struct{}](2)
	disp := New(p, 1, domain)
	disp.Close() // never subscribed
	if err := disp.Subscribe(context.Background()); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	disp.Close()
	disp.Close()
}
