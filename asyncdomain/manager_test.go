package asyncdomain

import (
	"errors"
	"testing"

	"devaccess/transfer"
)

func TestManagerFaultAllAcrossTypes(t *testing.T) {
	m := NewManager()

	intDomain := New[int32](4)
	strDomain := New[string](4)
	Register(m, "temperature", intDomain)
	Register(m, "status", strDomain)

	intSub := intDomain.Subscribe()
	strSub := strDomain.Subscribe()
	intDomain.Activate(0, transfer.Ok)
	strDomain.Activate("", transfer.Ok)

	wantErr := errors.New("backend closed")
	m.FaultAll(wantErr)

	env, ok := intSub.Queue().Pop()
	if !ok || env.Err != wantErr {
		t.Fatalf("int domain did not receive fault: ok=%v env=%+v", ok, env)
	}
	env2, ok := strSub.Queue().Pop()
	if !ok || env2.Err != wantErr {
		t.Fatalf("string domain did not receive fault: ok=%v env=%+v", ok, env2)
	}
}

func TestManagerUnregisterStopsDelivery(t *testing.T) {
	m := NewManager()
	d := New[int32](4)
	Register(m, "line0", d)
	sub := d.Subscribe()
	d.Activate(0, transfer.Ok)

	m.Unregister("line0")
	m.FaultAll(errors.New("ignored"))

	if _, ok := sub.Queue().Pop(); ok {
		t.Fatal("expected no fault delivered after unregister")
	}
}
