package rebotwire

import (
	"net"
	"sync"
	"time"

	"devaccess/deverr"
)

// DefaultTimeout bounds every socket operation when the caller does not
// configure one.
const DefaultTimeout = 5 * time.Second

// Client is a blocking Rebot TCP client. There is no event loop: each
// operation writes its request frame, then reads the reply, with a socket
// deadline as the watchdog that cancels a hung exchange by failing the
// read/write with a timeout error.
//
// A Client serializes all operations on one mutex; the numeric-addressed
// backend built on top of it may therefore share one Client between many
// accessors.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	timeout time.Duration
	version uint32
}

// Dial connects to addr, performs the hello exchange, and returns a ready
// Client. timeout <= 0 selects DefaultTimeout.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, deverr.NewRuntimef("rebotwire", err, "cannot connect to %s", addr)
	}
	c := &Client{conn: conn, timeout: timeout}
	if err := c.hello(); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// ProtocolVersion reports the version negotiated by the hello exchange.
func (c *Client) ProtocolVersion() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Close shuts the connection down. It takes the client mutex, so it waits
// for an in-flight operation to finish (bounded by that operation's socket
// deadline); every later operation fails with a RuntimeError.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Client) armed() (net.Conn, error) {
	if c.conn == nil {
		return nil, deverr.NewRuntime("rebotwire", "connection is closed", nil)
	}
	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, deverr.NewRuntime("rebotwire", "cannot arm socket deadline", err)
	}
	return c.conn, nil
}

func wrapTimeout(err error) error {
	if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
		return deverr.NewRuntime("rebotwire", "connection timed out", err)
	}
	return err
}

// hello negotiates the protocol version. A protocol-1 (or newer) server
// replies [HELLO, MAGIC, version]; a legacy protocol-0 server does not
// know the instruction and answers a single UnknownInstruction word.
func (c *Client) hello() error {
	conn, err := c.armed()
	if err != nil {
		return err
	}
	if err := WriteWords(conn, []uint32{OpHello, MagicWord, ClientProtocolVersion}); err != nil {
		return wrapTimeout(err)
	}
	first, err := ReadWord(conn)
	if err != nil {
		return wrapTimeout(err)
	}
	if first == UnknownInstruction {
		c.version = 0
		return nil
	}
	var rest [2]uint32
	if err := ReadWords(conn, rest[:]); err != nil {
		return wrapTimeout(err)
	}
	if first != OpHello || rest[0] != MagicWord {
		return deverr.NewRuntimef("rebotwire", nil, "malformed hello reply [%#x %#x %#x]", first, rest[0], rest[1])
	}
	c.version = rest[1]
	if c.version > ClientProtocolVersion {
		c.version = ClientProtocolVersion
	}
	return nil
}

// Read fetches len(dst) words starting at addressBytes, chunking requests
// the server would reject as too large.
func (c *Client) Read(addressBytes int, dst []int32) error {
	if err := CheckWordAligned(addressBytes, 4*len(dst)); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	wordAddress := uint32(addressBytes / 4)
	for len(dst) > 0 {
		n := len(dst)
		if n > MaxReadWords {
			n = MaxReadWords
		}
		if err := c.readChunk(wordAddress, dst[:n]); err != nil {
			return err
		}
		dst = dst[n:]
		wordAddress += uint32(n)
	}
	return nil
}

func (c *Client) readChunk(wordAddress uint32, dst []int32) error {
	conn, err := c.armed()
	if err != nil {
		return err
	}
	if err := WriteWords(conn, []uint32{OpMultiWordRead, wordAddress, uint32(len(dst))}); err != nil {
		return wrapTimeout(err)
	}
	words := make([]uint32, len(dst))
	if err := ReadWords(conn, words); err != nil {
		return wrapTimeout(err)
	}
	for i, w := range words {
		dst[i] = int32(w)
	}
	return nil
}

// Write transfers src to addressBytes. A protocol-1 server takes one
// multi-word write frame; a protocol-0 server only understands single-word
// writes, so the transfer degrades to one exchange per word.
func (c *Client) Write(addressBytes int, src []int32) error {
	if err := CheckWordAligned(addressBytes, 4*len(src)); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	wordAddress := uint32(addressBytes / 4)
	if c.version >= 1 {
		return c.multiWordWrite(wordAddress, src)
	}
	for i, w := range src {
		if err := c.singleWordWrite(wordAddress+uint32(i), uint32(w)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) multiWordWrite(wordAddress uint32, src []int32) error {
	conn, err := c.armed()
	if err != nil {
		return err
	}
	frame := make([]uint32, 3, 3+len(src))
	frame[0], frame[1], frame[2] = OpMultiWordWrite, wordAddress, uint32(len(src))
	for _, w := range src {
		frame = append(frame, uint32(w))
	}
	if err := WriteWords(conn, frame); err != nil {
		return wrapTimeout(err)
	}
	return c.expectWriteSuccess(conn)
}

func (c *Client) singleWordWrite(wordAddress, value uint32) error {
	conn, err := c.armed()
	if err != nil {
		return err
	}
	if err := WriteWords(conn, []uint32{OpSingleWordWrite, wordAddress, value}); err != nil {
		return wrapTimeout(err)
	}
	return c.expectWriteSuccess(conn)
}

func (c *Client) expectWriteSuccess(conn net.Conn) error {
	reply, err := ReadWord(conn)
	if err != nil {
		return wrapTimeout(err)
	}
	if reply != WriteSuccess {
		return deverr.NewRuntimef("rebotwire", nil, "unexpected write reply %#x", reply)
	}
	return nil
}

// SendHeartbeat keeps a protocol-1 session alive by re-issuing the hello
// exchange; protocol-0 servers have no heartbeat and the call is a no-op.
func (c *Client) SendHeartbeat() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.version < 1 {
		return nil
	}
	return c.hello()
}
