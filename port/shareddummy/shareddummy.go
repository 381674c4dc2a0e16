//go:build linux

// Package shareddummy implements the dummy RawMemoryPort semantics on top
// of a named POSIX shared-memory segment, so several processes opening the
// same instance/map pair see one register space. The segment holds the BAR
// images plus a PID member table; a file lock on the segment is the named
// mutex serializing access, members deregister on close, and the last one
// out removes the segment.
package shareddummy

import (
	"encoding/binary"
	"hash/fnv"
	"os"
	"sort"
	"sync"

	"golang.org/x/sys/unix"

	"devaccess/deverr"
	"devaccess/port"
)

const (
	segmentMagic = 0x64657661 // "deva"
	maxMembers   = 64
	shmDir       = "/dev/shm/"
)

// SegmentName derives the shared segment's name from the instance id, the
// map identity, and the calling user, so unrelated instances never collide.
func SegmentName(instanceID, mapID string) string {
	h := fnv.New32a()
	h.Write([]byte(instanceID))
	instanceHash := h.Sum32()
	h = fnv.New32a()
	h.Write([]byte(mapID))
	mapHash := h.Sum32()
	h = fnv.New32a()
	h.Write([]byte(os.Getenv("USER")))
	userHash := h.Sum32()
	return "devaccess_shareddummy_" + hex32(instanceHash) + "_" + hex32(mapHash) + "_" + hex32(userHash)
}

func hex32(v uint32) string {
	const digits = "0123456789abcdef"
	var b [8]byte
	for i := 7; i >= 0; i-- {
		b[i] = digits[v&0xf]
		v >>= 4
	}
	return string(b[:])
}

// Port is a shared-memory-backed dummy port. All members of a segment must
// open it with identical BAR sizes (they derive them from the same map).
type Port struct {
	mu   sync.Mutex
	fd   int
	mem  []byte
	name string

	barOffsets map[int]int // byte offset of each BAR image within mem
	barWords   map[int]int
	open       bool
}

// layout: magic | nBars | (bar, nWords)... | pid[maxMembers] | bar images
func segmentSize(barWordSizes map[int]int) (headerBytes, total int) {
	headerBytes = 8 + 8*len(barWordSizes) + 4*maxMembers
	total = headerBytes
	for _, words := range barWordSizes {
		total += 4 * words
	}
	return headerBytes, total
}

func sortedBars(barWordSizes map[int]int) []int {
	bars := make([]int, 0, len(barWordSizes))
	for bar := range barWordSizes {
		bars = append(bars, bar)
	}
	sort.Ints(bars)
	return bars
}

// Open joins (creating if necessary) the shared segment called name, with
// the given per-BAR word counts.
func Open(name string, barWordSizes map[int]int) (*Port, error) {
	fd, err := unix.Open(shmDir+name, unix.O_CREAT|unix.O_RDWR, 0o600)
	if err != nil {
		return nil, deverr.NewRuntimef("shareddummy", err, "cannot open segment %s", name)
	}
	p := &Port{fd: fd, name: name, barOffsets: map[int]int{}, barWords: map[int]int{}}

	if err := p.lock(); err != nil {
		unix.Close(fd)
		return nil, err
	}
	defer p.unlock()

	headerBytes, total := segmentSize(barWordSizes)
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		unix.Close(fd)
		return nil, deverr.NewRuntime("shareddummy", "cannot stat segment", err)
	}
	fresh := st.Size == 0
	if fresh {
		if err := unix.Ftruncate(fd, int64(total)); err != nil {
			unix.Close(fd)
			return nil, deverr.NewRuntime("shareddummy", "cannot size segment", err)
		}
	} else if st.Size != int64(total) {
		unix.Close(fd)
		return nil, deverr.NewLogicf("shareddummy", "segment %s has size %d, expected %d: map mismatch between members", name, st.Size, total)
	}

	mem, err := unix.Mmap(fd, 0, total, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, deverr.NewRuntime("shareddummy", "cannot map segment", err)
	}
	p.mem = mem

	offset := headerBytes
	bars := sortedBars(barWordSizes)
	for _, bar := range bars {
		p.barOffsets[bar] = offset
		p.barWords[bar] = barWordSizes[bar]
		offset += 4 * barWordSizes[bar]
	}

	if fresh {
		binary.LittleEndian.PutUint32(mem[0:], segmentMagic)
		binary.LittleEndian.PutUint32(mem[4:], uint32(len(bars)))
		for i, bar := range bars {
			binary.LittleEndian.PutUint32(mem[8+8*i:], uint32(bar))
			binary.LittleEndian.PutUint32(mem[12+8*i:], uint32(barWordSizes[bar]))
		}
	} else if binary.LittleEndian.Uint32(mem[0:]) != segmentMagic {
		p.teardown()
		return nil, deverr.NewRuntimef("shareddummy", nil, "segment %s carries no valid header", name)
	}

	if err := p.addMemberLocked(os.Getpid()); err != nil {
		p.teardown()
		return nil, err
	}
	p.open = true
	return p, nil
}

func (p *Port) lock() error {
	if err := unix.Flock(p.fd, unix.LOCK_EX); err != nil {
		return deverr.NewRuntime("shareddummy", "cannot lock segment", err)
	}
	return nil
}

func (p *Port) unlock() { _ = unix.Flock(p.fd, unix.LOCK_UN) }

func (p *Port) pidTable() []byte {
	nBars := int(binary.LittleEndian.Uint32(p.mem[4:]))
	start := 8 + 8*nBars
	return p.mem[start : start+4*maxMembers]
}

func (p *Port) addMemberLocked(pid int) error {
	table := p.pidTable()
	for i := 0; i < maxMembers; i++ {
		slot := binary.LittleEndian.Uint32(table[4*i:])
		if slot == 0 || !pidAlive(int(slot)) {
			binary.LittleEndian.PutUint32(table[4*i:], uint32(pid))
			return nil
		}
	}
	return deverr.NewRuntimef("shareddummy", nil, "segment %s member table is full", p.name)
}

// pidAlive reports whether pid still exists; stale entries from crashed
// members are reclaimed rather than keeping the segment alive forever.
func pidAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}

func (p *Port) removeMemberLocked(pid int) (remaining int) {
	table := p.pidTable()
	for i := 0; i < maxMembers; i++ {
		slot := int(binary.LittleEndian.Uint32(table[4*i:]))
		if slot == pid {
			binary.LittleEndian.PutUint32(table[4*i:], 0)
			slot = 0
		}
		if slot != 0 && pidAlive(slot) {
			remaining++
		}
	}
	return remaining
}

func (p *Port) teardown() {
	if p.mem != nil {
		_ = unix.Munmap(p.mem)
		p.mem = nil
	}
	if p.fd >= 0 {
		_ = unix.Close(p.fd)
		p.fd = -1
	}
}

// Close deregisters this member and, if it was the last live one, removes
// the segment.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return nil
	}
	p.open = false

	if err := p.lock(); err != nil {
		p.teardown()
		return err
	}
	remaining := p.removeMemberLocked(os.Getpid())
	if remaining == 0 {
		_ = unix.Unlink(shmDir + p.name)
	}
	p.unlock()
	p.teardown()
	return nil
}

func (p *Port) wordRegion(bar, byteOffset, nWords int) ([]byte, error) {
	words, ok := p.barWords[bar]
	if !ok {
		return nil, deverr.NewLogicf("shareddummy", "invalid bar %d", bar)
	}
	if byteOffset%4 != 0 {
		return nil, deverr.NewLogicf("shareddummy", "misaligned byte_offset %d", byteOffset)
	}
	start := byteOffset / 4
	if start < 0 || start+nWords > words {
		return nil, deverr.NewLogicf("shareddummy", "out of range: bar=%d offset=%d n=%d size=%d", bar, byteOffset, nWords, words)
	}
	base := p.barOffsets[bar] + byteOffset
	return p.mem[base : base+4*nWords], nil
}

// Read implements port.RawMemoryPort.
func (p *Port) Read(bar, byteOffset int, dst []int32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return deverr.ErrDeviceNotOpened
	}
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()
	mem, err := p.wordRegion(bar, byteOffset, len(dst))
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
	if !p.open {
		return deverr.ErrDeviceNotOpened
	}
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()
	mem, err := p.wordRegion(bar, byteOffset, len(src))
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

var _ port.RawMemoryPort = (*Port)(nil)
