//go:build linux

// Package uio implements a RawMemoryPort over a Linux Userspace I/O
// device: register BARs are the device's mmap'able regions, and the
// interrupt line is the /dev/uioN file descriptor itself, which yields a
// 32-bit event counter on every read once interrupts are enabled.
package uio

import (
	"context"
	"encoding/binary"
	"sync"

	"golang.org/x/sys/unix"

	"devaccess/deverr"
	"devaccess/port"
)

// Port is a memory-mapped UIO device. Each BAR index maps to one of the
// device's mmap regions, selected by the UIO convention of passing
// region*pagesize as the mmap offset.
type Port struct {
	mu   sync.Mutex
	fd   int
	bars map[int][]byte

	irqMu     sync.Mutex
	lastCount uint32
	armed     bool
}

// Open opens the UIO device node at path and maps the regions whose byte
// sizes are given per BAR index.
func Open(path string, barSizes map[int]int) (*Port, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		return nil, deverr.NewRuntimef("uio", err, "cannot open %s", path)
	}
	p := &Port{fd: fd, bars: map[int][]byte{}}
	pageSize := unix.Getpagesize()
	for bar, size := range barSizes {
		mem, err := unix.Mmap(fd, int64(bar*pageSize), size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			p.Close()
			return nil, deverr.NewRuntimef("uio", err, "cannot map bar %d of %s", bar, path)
		}
		p.bars[bar] = mem
	}
	return p, nil
}

// Close unmaps every BAR and closes the device node.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for bar, mem := range p.bars {
		_ = unix.Munmap(mem)
		delete(p.bars, bar)
	}
	if p.fd >= 0 {
		err := unix.Close(p.fd)
		p.fd = -1
		if err != nil {
			return deverr.NewRuntime("uio", "close failed", err)
		}
	}
	return nil
}

func (p *Port) region(bar, byteOffset, nBytes int) ([]byte, error) {
	mem, ok := p.bars[bar]
	if !ok {
		return nil, deverr.NewLogicf("uio", "invalid bar %d", bar)
	}
	if byteOffset%4 != 0 || nBytes%4 != 0 {
		return nil, deverr.NewLogicf("uio", "misaligned access at %d (+%d)", byteOffset, nBytes)
	}
	if byteOffset < 0 || byteOffset+nBytes > len(mem) {
		return nil, deverr.NewLogicf("uio", "access [%d,%d) outside bar %d of %d bytes", byteOffset, byteOffset+nBytes, bar, len(mem))
	}
	return mem[byteOffset : byteOffset+nBytes], nil
}

// Read implements port.RawMemoryPort.
func (p *Port) Read(bar, byteOffset int, dst []int32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	mem, err := p.region(bar, byteOffset, 4*len(dst))
	if err != nil {
		return err
	}
	for i := range dst {
		dst[i] = int32(binary.LittleEndian.Uint32(mem[4*i:]))
	}
	return nil
}

// Write implements port.RawMemoryPort.
func (p *Port) Write(bar, byteOffset int, src []int32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	mem, err := p.region(bar, byteOffset, 4*len(src))
	if err != nil {
		return err
	}
	for i, w := range src {
		binary.LittleEndian.PutUint32(mem[4*i:], uint32(w))
	}
	return nil
}

// MinimumTransferAlignment implements port.RawMemoryPort.
func (p *Port) MinimumTransferAlignment(int) int { return 4 }

// irqControl writes the UIO interrupt control word (1 = enable,
// 0 = disable) for devices wired through uio_pdrv_genirq.
func (p *Port) irqControl(enable uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], enable)
	if _, err := unix.Write(p.fd, buf[:]); err != nil {
		return deverr.NewRuntime("uio", "interrupt control write failed", err)
	}
	return nil
}

// ActivateSubscription implements port.InterruptSource. UIO devices carry
// a single interrupt line, so interruptID must be 0.
func (p *Port) ActivateSubscription(ctx context.Context, interruptID int) (<-chan struct{}, error) {
	if interruptID != 0 {
		return nil, deverr.NewLogicf("uio", "uio devices expose only interrupt 0, not %d", interruptID)
	}
	p.irqMu.Lock()
	defer p.irqMu.Unlock()
	if !p.armed {
		if err := p.irqControl(1); err != nil {
			return nil, err
		}
		p.armed = true
	}
	ready := make(chan struct{})
	close(ready)
	return ready, nil
}

// PendingEdges implements port.InterruptSource: a zero-timeout poll on the
// device node, followed by a read of the kernel's event counter when it is
// readable. The delta against the last observed counter is the number of
// edges since the previous call.
func (p *Port) PendingEdges(interruptID int) (int, error) {
	if interruptID != 0 {
		return 0, deverr.NewLogicf("uio", "uio devices expose only interrupt 0, not %d", interruptID)
	}
	p.irqMu.Lock()
	defer p.irqMu.Unlock()

	fds := []unix.PollFd{{Fd: int32(p.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, 0)
	if err != nil {
		return 0, deverr.NewRuntime("uio", "interrupt poll failed", err)
	}
	if n == 0 || fds[0].Revents&unix.POLLIN == 0 {
		return 0, nil
	}

	var buf [4]byte
	if _, err := unix.Read(p.fd, buf[:]); err != nil {
		return 0, deverr.NewRuntime("uio", "interrupt counter read failed", err)
	}
	count := binary.LittleEndian.Uint32(buf[:])
	edges := int(count - p.lastCount)
	p.lastCount = count
	if edges < 0 {
		edges = 0
	}

	// Reading the counter disables the line on genirq devices; re-arm.
	if err := p.irqControl(1); err != nil {
		return 0, err
	}
	return edges, nil
}

var _ port.RawMemoryPort = (*Port)(nil)
var _ port.InterruptSource = (*Port)(nil)
