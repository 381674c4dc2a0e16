// Package rebot adapts a rebotwire.Client to the RawMemoryPort contract.
// Rebot devices expose a single address space, so only bar 0 is valid.
package rebot

import (
	"devaccess/deverr"
	"devaccess/port"
	"devaccess/rebotwire"
)

// Port tunnels register reads and writes over one Rebot TCP session. The
// underlying client already serializes its exchanges, so Port adds no lock
// of its own.
type Port struct {
	client *rebotwire.Client
}

// New wraps client as a RawMemoryPort.
func New(client *rebotwire.Client) *Port { return &Port{client: client} }

// Client exposes the underlying session, e.g. for heartbeats.
func (p *Port) Client() *rebotwire.Client { return p.client }

// Close terminates the TCP session.
func (p *Port) Close() error { return p.client.Close() }

func checkBar(bar int) error {
	if bar != 0 {
		return deverr.NewLogicf("rebot", "invalid bar %d: rebot devices expose only bar 0", bar)
	}
	return nil
}

// Read implements port.RawMemoryPort.
func (p *Port) Read(bar, byteOffset int, dst []int32) error {
	if err := checkBar(bar); err != nil {
		return err
	}
	return p.client.Read(byteOffset, dst)
}

// Write implements port.RawMemoryPort.
func (p *Port) Write(bar, byteOffset int, src []int32) error {
	if err := checkBar(bar); err != nil {
		return err
	}
	return p.client.Write(byteOffset, src)
}

// MinimumTransferAlignment implements port.RawMemoryPort.
func (p *Port) MinimumTransferAlignment(int) int { return 4 }

var _ port.RawMemoryPort = (*Port)(nil)
