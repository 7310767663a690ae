// bus.go - the core's single-master memory bus, and the backing SystemBus

package jop

import (
	"encoding/binary"
	"sync"
)

// BusOp is the command opcode carried on the memory bus.
type BusOp int

const (
	BusRead BusOp = iota
	BusWrite
)

// RspOp is the response opcode carried back on the memory bus.
type RspOp int

const (
	RspSuccess RspOp = iota
	RspError
)

// BusCommand is one beat of a bus transaction. Length is bytes-1 (0 for a
// single word); Data/ByteMask only matter for BusWrite. Last is asserted on
// the final beat of a command and always true for single-beat commands.
type BusCommand struct {
	Opcode   BusOp
	Address  uint32
	Length   uint32
	Data     uint32
	ByteMask uint32
	Last     bool
}

// BusResponse is one beat of data (or an error) returned by the bus.
type BusResponse struct {
	Opcode RspOp
	Data   uint32
	Last   bool
}

// Bus is the interface the MemoryController and StackCacheDma drive. cmd.valid
// is sticky (callers must keep calling Submit with the same payload until it
// returns true), cmd.ready is implicit in Submit's bool return, and
// rsp.ready=1 always (a response popped by TakeResponse is always consumed,
// never NAK'd).
type Bus interface {
	// Submit attempts to post cmd. Returns false while the bus is busy
	// servicing a previous command; the caller must resubmit the identical
	// payload next cycle (cmd.valid held, payload stable).
	Submit(cmd BusCommand) bool
	// Busy reports whether the bus is still producing beats for an
	// in-flight command (used by callers that gate on bus.busy).
	Busy() bool
	// HasResponse reports whether a response beat is ready this cycle.
	HasResponse() bool
	// TakeResponse consumes the ready response beat.
	TakeResponse() BusResponse
	// Tick advances internal latency counters; call once per core cycle.
	Tick()
	Reset()
}

// memWord is the granularity at which SystemBus's backing array is indexed.
const memWord = 4

// SystemBus is a synchronous single-master bus over a flat byte-addressed
// memory with page-masked MMIO region registration, adapted from the
// teacher's SystemBus/IORegion pair (memory_bus.go) to the command/response
// handshake this spec's memory controller expects instead of a bare
// Read32/Write32 call. A multicore System shares one SystemBus across
// concurrently-ticked cores; mu serializes every exported method so a
// single in-flight command is still observed consistently no matter which
// core's goroutine calls Submit/Tick/TakeResponse next.
type SystemBus struct {
	// mu serializes every public method: in a multicore System, one
	// SystemBus is shared across cores ticked concurrently from their own
	// goroutines, and this is the single-master bus's only arbiter between
	// them (submits and responses must appear to happen one at a time, in
	// some order, never interleaved mid-field).
	mu sync.Mutex

	mem     []byte
	mapping map[uint32][]ioRegion
	latency uint32 // cycles of latency per beat; 0 = same-cycle response

	// in-flight command state
	active   bool
	cmd      BusCommand
	beatAddr uint32
	beatsLeft uint32
	countdown uint32

	pendingRsp   BusResponse
	pendingReady bool
}

type ioRegion struct {
	start, end uint32
	onRead     func(addr uint32) uint32
	onWrite    func(addr uint32, value uint32)
}

const (
	pageSize = 0x100
	pageMask = 0xFFFFFF00
)

// NewSystemBus allocates size bytes of backing memory with a fixed
// per-beat latency; 1 cycle is the smallest value that lets
// MemoryController's READ_WAIT/WRITE_WAIT states be observed at all,
// matching "not same cycle" RTL realism.
func NewSystemBus(size uint32, latency uint32) *SystemBus {
	return &SystemBus{
		mem:     make([]byte, size),
		mapping: make(map[uint32][]ioRegion),
		latency: latency,
	}
}

// MapIO registers an MMIO region: every pageSize-aligned page the region
// spans gets an entry so a lookup is a single map access keyed by
// address&pageMask.
func (b *SystemBus) MapIO(start, end uint32, onRead func(uint32) uint32, onWrite func(uint32, uint32)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	region := ioRegion{start: start, end: end, onRead: onRead, onWrite: onWrite}
	first := start & pageMask
	last := end & pageMask
	for page := first; page <= last; page += pageSize {
		b.mapping[page] = append(b.mapping[page], region)
	}
}

func (b *SystemBus) lookup(addr uint32) *ioRegion {
	for _, r := range b.mapping[addr&pageMask] {
		if addr >= r.start && addr <= r.end {
			return &r
		}
	}
	return nil
}

func (b *SystemBus) readWord(addr uint32) uint32 {
	if r := b.lookup(addr); r != nil && r.onRead != nil {
		return r.onRead(addr)
	}
	if int(addr)+memWord > len(b.mem) {
		return 0
	}
	return binary.LittleEndian.Uint32(b.mem[addr : addr+memWord])
}

func (b *SystemBus) writeWord(addr uint32, value uint32) {
	if r := b.lookup(addr); r != nil && r.onWrite != nil {
		r.onWrite(addr, value)
	}
	if int(addr)+memWord > len(b.mem) {
		return
	}
	binary.LittleEndian.PutUint32(b.mem[addr:addr+memWord], value)
}

func (b *SystemBus) Busy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.busyLocked()
}

func (b *SystemBus) busyLocked() bool { return b.active || b.pendingReady }

func (b *SystemBus) Submit(cmd BusCommand) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.busyLocked() {
		return false
	}
	b.active = true
	b.cmd = cmd
	b.beatAddr = cmd.Address
	b.beatsLeft = cmd.Length/memWord + 1
	b.countdown = b.latency
	return true
}

func (b *SystemBus) Tick() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.active || b.pendingReady {
		return
	}
	if b.countdown > 0 {
		b.countdown--
		return
	}
	last := b.beatsLeft == 1
	var rsp BusResponse
	switch b.cmd.Opcode {
	case BusRead:
		rsp = BusResponse{Opcode: RspSuccess, Data: b.readWord(b.beatAddr), Last: last}
	case BusWrite:
		b.writeWord(b.beatAddr, b.cmd.Data)
		rsp = BusResponse{Opcode: RspSuccess, Data: 0, Last: last}
	default:
		rsp = BusResponse{Opcode: RspError, Last: last}
	}
	b.pendingRsp = rsp
	b.pendingReady = true
	b.beatAddr += memWord
	b.beatsLeft--
	b.countdown = b.latency
	if b.beatsLeft == 0 {
		b.active = false
	}
}

func (b *SystemBus) HasResponse() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pendingReady
}

func (b *SystemBus) TakeResponse() BusResponse {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := b.pendingRsp
	b.pendingReady = false
	return r
}

func (b *SystemBus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.mem {
		b.mem[i] = 0
	}
	b.active = false
	b.pendingReady = false
}
