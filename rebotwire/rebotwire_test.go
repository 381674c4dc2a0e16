package rebotwire_test

import (
	"net"
	"testing"
	"time"

	"devaccess/deverr"
	"devaccess/rebotwire"
	"devaccess/rebotwire/testserver"
)

func startServer(t *testing.T, nWords int, version uint32) *testserver.Server {
	t.Helper()
	srv, err := testserver.New(nWords, version)
	if err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(srv.Close)
	return srv
}

func TestHelloNegotiation(t *testing.T) {
	tests := []struct {
		name    string
		version uint32
	}{
		{"protocol 1", 1},
		{"legacy protocol 0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := startServer(t, 16, tt.version)
			c, err := rebotwire.Dial(srv.Addr(), time.Second)
			if err != nil {
				t.Fatalf("dial: %v", err)
			}
			defer c.Close()
			if got := c.ProtocolVersion(); got != tt.version {
				t.Fatalf("negotiated version = %d, want %d", got, tt.version)
			}
		})
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	for _, version := range []uint32{0, 1} {
		srv := startServer(t, 1024, version)
		c, err := rebotwire.Dial(srv.Addr(), time.Second)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}

		want := []int32{1, -2, 3, -4}
		if err := c.Write(0x100, want); err != nil {
			t.Fatalf("v%d write: %v", version, err)
		}
		got := make([]int32, len(want))
		if err := c.Read(0x100, got); err != nil {
			t.Fatalf("v%d read: %v", version, err)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("v%d word %d = %d, want %d", version, i, got[i], want[i])
			}
		}
		c.Close()
		srv.Close()
	}
}

func TestReadChunksLargeTransfers(t *testing.T) {
	srv := startServer(t, 2048, 1)
	c, err := rebotwire.Dial(srv.Addr(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	for i := 0; i < 1000; i++ {
		srv.Poke(i, int32(i))
	}
	got := make([]int32, 1000)
	if err := c.Read(0, got); err != nil {
		t.Fatalf("read: %v", err)
	}
	for i := range got {
		if got[i] != int32(i) {
			t.Fatalf("word %d = %d, want %d", i, got[i], i)
		}
	}
}

func TestMisalignedRequestFailsBeforeSend(t *testing.T) {
	srv := startServer(t, 16, 1)
	c, err := rebotwire.Dial(srv.Addr(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	if err := c.Read(2, make([]int32, 1)); !deverr.IsLogic(err) {
		t.Fatalf("misaligned read: got %v, want LogicError", err)
	}
	if err := c.Write(6, []int32{1}); !deverr.IsLogic(err) {
		t.Fatalf("misaligned write: got %v, want LogicError", err)
	}
}

// Raw framing per the wire contract: a four-word read yields exactly the
// four data words; an oversized request gets a single TooMuchDataRequested
// word and the connection stays usable.
func TestRawFraming(t *testing.T) {
	srv := startServer(t, 1024, 1)
	for i := 0; i < 4; i++ {
		srv.Poke(0x100/4+i, int32(10+i))
	}

	conn, err := net.Dial("tcp", srv.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := rebotwire.WriteWords(conn, []uint32{rebotwire.OpMultiWordRead, 0x100 / 4, 4}); err != nil {
		t.Fatalf("send read request: %v", err)
	}
	words := make([]uint32, 4)
	if err := rebotwire.ReadWords(conn, words); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	for i, w := range words {
		if int32(w) != int32(10+i) {
			t.Fatalf("word %d = %d, want %d", i, int32(w), 10+i)
		}
	}

	if err := rebotwire.WriteWords(conn, []uint32{rebotwire.OpMultiWordRead, 0x100 / 4, 1000000}); err != nil {
		t.Fatalf("send oversized request: %v", err)
	}
	reply, err := rebotwire.ReadWord(conn)
	if err != nil {
		t.Fatalf("read refusal: %v", err)
	}
	if reply != rebotwire.TooMuchDataRequested {
		t.Fatalf("oversized request reply = %#x, want TOO_MUCH_DATA_REQUESTED", reply)
	}

	// Connection remains usable after the refusal.
	if err := rebotwire.WriteWords(conn, []uint32{rebotwire.OpMultiWordRead, 0x100 / 4, 1}); err != nil {
		t.Fatalf("send followup request: %v", err)
	}
	w, err := rebotwire.ReadWord(conn)
	if err != nil {
		t.Fatalf("read followup reply: %v", err)
	}
	if int32(w) != 10 {
		t.Fatalf("followup word = %d, want 10", int32(w))
	}
}

func TestHeartbeat(t *testing.T) {
	srv := startServer(t, 16, 1)
	c, err := rebotwire.Dial(srv.Addr(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	if err := c.SendHeartbeat(); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	// The session still works after a heartbeat exchange.
	if err := c.Write(0, []int32{7}); err != nil {
		t.Fatalf("write after heartbeat: %v", err)
	}
}
