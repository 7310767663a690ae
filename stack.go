// stack.go - StackStage: the two-register (A/B) top-of-stack cache, the
// pointer-register file (SP triple, VP window, AR), the ALU/logic/shift
// units, and the stack RAM those registers address into.

package jop

// ShiftType selects the barrel shifter's operation.
type ShiftType int

const (
	ShiftRightUnsigned ShiftType = iota
	ShiftLeft
	ShiftRightArithmetic
)

// barrelShift performs a single-cycle shift of a by the low 5 bits of n.
func barrelShift(op ShiftType, a uint32, n uint32) uint32 {
	amt := n & 0x1F
	switch op {
	case ShiftLeft:
		return a << amt
	case ShiftRightArithmetic:
		return uint32(int32(a) >> amt)
	default:
		return a >> amt
	}
}

// alu33 is the 33-bit sign-extended add/sub: both operands are
// sign-extended into a 64-bit lane, summed or subtracted, then masked to 33
// bits. Bit 32 of that result is the correct-for-either-operation
// overflow/borrow bit, the `lt` flag (b < a, read off the sign of b-a).
func alu33(a, b uint32, sub bool) (sum uint32, lt bool) {
	ae := int64(int32(a))
	be := int64(int32(b))
	var wide int64
	if sub {
		wide = be - ae
	} else {
		wide = ae + be
	}
	masked := uint64(wide) & (1<<33 - 1)
	lt = masked&(1<<32) != 0
	return uint32(masked), lt
}

func logicOp(op LogicOp, a, b uint32) uint32 {
	switch op {
	case LogAnd:
		return a & b
	case LogOr:
		return a | b
	case LogXor:
		return a ^ b
	default:
		return b
	}
}

// StackMemory is the storage StackStage addresses: a flat array in
// single-RAM mode (flatRAM, below) or the rotating 3-bank cache in cache
// mode (stackcache.go). Both honor a 1-cycle write latency. Busy reports
// whether a multi-cycle operation (cache-mode bank rotation; always false
// in single-RAM mode) is still draining.
type StackMemory interface {
	Read(addr uint32) uint32
	Write(addr uint32, data uint32)
	Tick()
	Reset()
	Busy() bool
}

// flatRAM is the single-RAM-mode backing store: a plain array with a
// registered write (Write stages into a pending slot; Tick commits it the
// following cycle), matching the dual-port RAM's documented 1-cycle write
// latency while keeping reads purely combinational.
type flatRAM struct {
	data      []uint32
	pendWrite bool
	pendAddr  uint32
	pendData  uint32
}

func newFlatRAM(size uint32) *flatRAM { return &flatRAM{data: make([]uint32, size)} }

func (m *flatRAM) Read(addr uint32) uint32 { return m.data[addr%uint32(len(m.data))] }

func (m *flatRAM) Write(addr uint32, data uint32) {
	m.pendWrite = true
	m.pendAddr = addr % uint32(len(m.data))
	m.pendData = data
}

func (m *flatRAM) Tick() {
	if m.pendWrite {
		m.data[m.pendAddr] = m.pendData
		m.pendWrite = false
	}
}

func (m *flatRAM) Reset() {
	for i := range m.data {
		m.data[i] = 0
	}
	m.pendWrite = false
}

// Busy is always false: single-RAM mode has no bank rotation to wait on.
func (m *flatRAM) Busy() bool { return false }

// Flags bundles the four condition signals BytecodeFetchStage's branch
// evaluator (branchTaken, bytecodes.go) consumes.
type Flags struct {
	Zf, Nf, Eq, Lt bool
}

// StackStage holds the A/B top-of-stack registers, the SP/SPP/SPM triple,
// the VP pointer window and AR address register, the two auxiliary ALU
// units (Multiplier, Crc8), and the stack memory those pointers address.
type StackStage struct {
	A, B uint32

	SP, SPP, SPM uint32
	VP           [4]uint32 // VP[0] is the active frame's local-variable pointer
	AR           uint32

	overflowAt uint32 // SP reaching this value asserts SPOverflow

	mul *Multiplier
	crc *Crc8
	mem StackMemory

	// rdAddrDly is the address an explicit load (ldi/ldm/ldn/ld/ldmi)
	// resolved to last cycle; its data becomes visible via LmuxRam this
	// cycle, giving explicit loads the same 1-cycle latency as the RAM's
	// own registered write. The implicit top-of-stack pop fill below reads
	// the RAM directly instead, since it only ever touches the entry the
	// stage itself just spilled and needs no such alignment.
	rdAddrDly uint32

	flags Flags
}

// NewStackStage builds a StackStage for the given configuration, selecting
// single-RAM or 3-bank cache backing storage per cfg.CacheMode. bus is only
// used in cache mode, where bank rotation spills/fills across it via
// StackCacheDma.
func NewStackStage(cfg Config, bus Bus) *StackStage {
	s := &StackStage{}
	if cfg.CacheMode {
		s.mem = newStackCache(cfg, bus)
	} else {
		s.mem = newFlatRAM(cfg.ramSize())
	}
	s.mul = NewMultiplier(32)
	s.crc = &Crc8{}
	if cfg.CacheMode {
		s.overflowAt = uint32(cfg.BankSize)*3 - 1 - 16
	} else {
		s.overflowAt = cfg.ramSize() - 1 - 16
	}
	return s
}

// SPOverflow reports the near-full warning (16 entries of headroom below
// the physical limit).
func (s *StackStage) SPOverflow() bool { return s.SP >= s.overflowAt }

// Busy reports whether the backing stack memory is mid-rotation; Core ORs
// this into its stall computation so a bank spill/fill freezes the whole
// pipeline for as long as it takes, per rotationBusy's documented gating.
func (s *StackStage) Busy() bool { return s.mem.Busy() }

func (s *StackStage) Flags() Flags { return s.flags }

func (s *StackStage) resolveAddr(sel AddrSel, dirAddr uint32) uint32 {
	switch sel {
	case AddrSP:
		return s.SP
	case AddrSPP:
		return s.SPP
	case AddrVP0:
		return s.VP[0]
	case AddrVP1:
		return s.VP[1]
	case AddrVP2:
		return s.VP[2]
	case AddrVP3:
		return s.VP[3]
	case AddrVPAdd:
		return s.VP[0] + dirAddr
	case AddrAR:
		return s.AR
	default: // AddrDirect
		return dirAddr
	}
}

// Tick advances the stack stage by one cycle. comb is this cycle's
// combinational decode (unaffected by stall); reg is the registered decode
// output latched from the previous cycle (already held across a stall by
// DecodeStage.Latch, so StackStage never needs to look at stall itself
// except to skip its own register updates).
func (s *StackStage) Tick(comb Combinational, reg Registered, din uint32, immVal uint32, stall bool) {
	s.mem.Tick()
	if stall {
		return
	}

	loadData := s.mem.Read(s.rdAddrDly)

	if comb.WrEna {
		s.mem.Write(s.resolveAddr(comb.SelWra, comb.DirAddr), s.A)
	}
	s.rdAddrDly = s.resolveAddr(comb.SelRda, comb.DirAddr)

	if reg.MulWr {
		s.mul.Wr(s.A, s.B)
	} else {
		s.mul.Tick()
	}
	if reg.CrcClr {
		s.crc.Clear()
	}
	if reg.CrcWr {
		s.crc.Update(byte(s.B))
	}

	sum, lt := alu33(s.A, s.B, reg.SelSub)
	logic := logicOp(reg.SelLog, s.A, s.B)
	shifted := barrelShift(reg.SelShf, s.B, s.A)

	var rmux uint32
	switch reg.SelRmux {
	case RmuxMul:
		rmux = s.mul.Dout()
	case RmuxCrc:
		rmux = uint32(s.crc.Dout())
	default:
		rmux = sum
	}

	var nextA uint32
	switch reg.SelLmux {
	case LmuxLog:
		nextA = logic
	case LmuxShift:
		nextA = shifted
	case LmuxRam:
		nextA = loadData
	case LmuxImm:
		nextA = immVal
	case LmuxDin:
		nextA = din
	case LmuxRmux:
		nextA = rmux
	default:
		nextA = s.A
	}

	s.flags = Flags{
		Zf: s.A == 0,
		Nf: int32(s.A) < 0,
		Eq: s.A == s.B,
		Lt: lt,
	}

	switch comb.SmuxDelta {
	case 1: // push: spill old NOS, shift TOS down, new value becomes TOS
		s.mem.Write(s.SP, s.B)
		s.B = s.A
		s.SP++
	case -1: // pop: result becomes TOS, refill NOS from below
		if s.SP > 0 {
			s.SP--
			s.B = s.mem.Read(s.SP)
		}
	}

	if reg.EnaA {
		s.A = nextA
	}
	if reg.EnaVp {
		s.VP[0] = nextA
	}
	if reg.EnaAr {
		s.AR = nextA
	}

	s.SPP = s.SP + 1
	s.SPM = s.SP - 1
}

func (s *StackStage) Reset() {
	s.A, s.B = 0, 0
	s.SP, s.SPP, s.SPM = 0, 1, ^uint32(0)
	s.VP = [4]uint32{}
	s.AR = 0
	s.rdAddrDly = 0
	s.flags = Flags{}
	s.mul.Reset()
	s.crc.Reset()
	s.mem.Reset()
}
