// decode.go - DecodeStage: instr -> ALU/stack/memory control signals

package jop

// AddrSel selects the source/destination of a stack-RAM address, feeding
// selRda/selWra.
type AddrSel int

const (
	AddrSP AddrSel = iota
	AddrSPP
	AddrVP0
	AddrVP1
	AddrVP2
	AddrVP3
	AddrVPAdd
	AddrAR
	AddrDirect
)

// LogicOp selects the logic-unit output: {b, a&b, a|b, a^b}.
type LogicOp int

const (
	LogB LogicOp = iota
	LogAnd
	LogOr
	LogXor
)

// Lmux selects what feeds the A register on the next cycle.
type Lmux int

const (
	LmuxLog Lmux = iota
	LmuxShift
	LmuxRam
	LmuxImm
	LmuxDin
	LmuxRmux
)

// RmuxSel selects which auxiliary unit's output LmuxRmux reads: the ALU's
// own add/sub result, or one of two auxiliary units exercised through
// DecodeStage's control signals without being structurally named elsewhere
// (Multiplier, Crc8).
type RmuxSel int

const (
	RmuxSum RmuxSel = iota
	RmuxMul
	RmuxCrc
)

// MemOp names the one-hot high-level Java memory operation a microinstruction
// can assert ("one-hot one of 16 memory control signals"), plus the
// no-stack-effect second bank.
type MemOp int

const (
	MemNone MemOp = iota
	MemGetField
	MemPutField
	MemGetStatic
	MemPutStatic
	MemIaload
	MemIastore
	MemBcRd
	MemCopy
	MemAtomicStart
	MemAtomicEnd
	MemNewHandle
	MemMonitorEnter
	MemMonitorExit
	MemCopyStop
	MemIoRd
	MemIoWr
	MemInvalidate
)

// Combinational is the zero-latency half of DecodeStage's output: jbr,
// wrEna, selImux, dirAddr, selRda, selWra, selSmux and mmuInstr, all
// unaffected by stall.
type Combinational struct {
	Jbr       bool // asserted for the JBR sentinel; feeds BytecodeFetchStage's branch evaluator
	WrEna     bool
	SelImux   bool
	DirAddr   uint32 // direct address operand (constant-pool bit folded into bit width above RAM size)
	SelRda    AddrSel
	SelWra    AddrSel
	SmuxDelta int // -1 pop, 0 hold, +1 push: instr[9:6] classification
	MmuInstr  MemOp
}

// Registered is the one-cycle-latency half of DecodeStage's output: all
// ALU control, the memory-control bundle, and the pointer-register enables.
// A `stall` input holds every field here unchanged.
type Registered struct {
	Br, Jmp bool // microcode-level control flow, consumed by FetchStage's priority mux

	SelSub bool // add(false)/sub(true)
	SelLog LogicOp
	SelShf ShiftType
	SelLmux Lmux
	SelRmux RmuxSel
	EnaA    bool
	EnaB    bool

	EnaVp  bool
	EnaJpc bool
	EnaAr  bool

	MulWr   bool
	CrcClr  bool
	CrcWr   bool
	WrDly bool // memory-control bundle is valid this (latched) cycle
	MemOp MemOp
}

// DecodeStage is purely combinational plus one register bank (Registered);
// it owns no other state.
type DecodeStage struct {
	reg Registered
}

// classify returns the instr[9:6] nibble used for both SP-effect accounting
// and, incidentally, to locate the two MMU one-hot sub-banks.
func classify(instr uint16) uint16 {
	return (instr >> 6) & 0xF
}

// Eval computes both halves of DecodeStage's output from the current
// microinstruction. Registered fields are only actually latched by the
// caller (StackStage/FetchStage wiring in core.go) when stall is false;
// Eval itself is a pure function and does not mutate d.reg so callers can
// peek at "would-be" registered values before deciding to hold them.
func (d *DecodeStage) Eval(instr uint16) (Combinational, Registered) {
	var c Combinational
	var r Registered

	nib := classify(instr)
	switch {
	case nib == 0x0 || nib == 0x1 || nib == 0x6 || nib == 0x7:
		c.SmuxDelta = -1
	case nib == 0x2 || nib == 0x3:
		c.SmuxDelta = +1
	default:
		c.SmuxDelta = 0
	}

	switch instr {
	case instrJbr:
		c.Jbr = true

	case opPop, opAnd, opOr, opXor:
		r.SelLog = LogicOp(instr & 0x3)
		r.SelLmux = LmuxLog
		r.EnaA = true

	case opAdd, opSub:
		r.SelSub = instr&0x1 != 0
		r.SelLmux = LmuxRmux
		r.SelRmux = RmuxSum
		r.EnaA = true

	case opMulWr:
		r.MulWr = true
		r.SelLmux = LmuxRmux
		r.SelRmux = RmuxMul
		r.EnaA = true

	case opCrcClr:
		r.CrcClr = true

	case opCrcWr:
		r.CrcWr = true
		r.SelLmux = LmuxRmux
		r.SelRmux = RmuxCrc
		r.EnaA = true

	case opLdi:
		c.SelRda = AddrDirect
		c.DirAddr = uint32(instr) | dirAddrConstPoolBit
		r.SelLmux = LmuxRam
		r.EnaA = true

	case opLdm:
		c.SelRda = AddrVPAdd
		r.SelLmux = LmuxRam
		r.EnaA = true

	case opLdn:
		c.SelRda = AddrAR
		r.SelLmux = LmuxRam
		r.EnaA = true

	case opLd:
		c.SelRda = AddrSP
		r.SelLmux = LmuxRam
		r.EnaA = true

	case opLdmi:
		c.SelRda = AddrDirect
		r.SelLmux = LmuxRam
		r.EnaA = true

	case opStm:
		c.WrEna = true
		c.SelWra = AddrVPAdd

	case opStn:
		c.WrEna = true
		c.SelWra = AddrAR

	case opSt:
		c.WrEna = true
		c.SelWra = AddrSP

	case opStmi:
		c.WrEna = true
		c.SelWra = AddrDirect

	case opStvp:
		r.EnaVp = true

	case opStjpc:
		r.EnaJpc = true

	case opStar:
		r.EnaAr = true

	case opBz, opBnz:
		r.SelLmux = LmuxLog

	case opBr:
		r.Br = true

	case opGetField, opPutField, opGetStatic, opPutStatic, opIaload, opIastore,
		opBcRd, opCopy, opAtomicStart, opAtomicEnd:
		c.MmuInstr = mmuBank1[instr&0xF]
		r.MemOp = c.MmuInstr
		r.WrDly = true

	case opNewHandle, opMonitorEnter, opMonitorExit, opCopyStop, opIoRd, opIoWr, opInvalidate:
		c.MmuInstr = mmuBank2[instr&0xF]
		r.MemOp = c.MmuInstr
		r.WrDly = true

	default:
		if instr&0x200 != 0 {
			r.Jmp = true
		}
		// anything else (including opNop and unassigned slots) decodes as a
		// NOP for A/B purposes.
	}

	return c, r
}

// dirAddrConstPoolBit is folded into DirAddr by opLdi to select the constant
// pool instead of the stack RAM ("ldi further sets dirAddr[high] = 1").
const dirAddrConstPoolBit = 1 << 20

// mmuBank1/mmuBank2 map the low 4 bits of the two MMU instruction banks,
// used as an index, to a MemOp, in opcode definition order (see opcodes.go).
var mmuBank1 = [16]MemOp{
	MemGetField, MemPutField, MemGetStatic, MemPutStatic,
	MemIaload, MemIastore, MemBcRd, MemCopy,
	MemAtomicStart, MemAtomicEnd,
	MemNone, MemNone, MemNone, MemNone, MemNone, MemNone,
}

var mmuBank2 = [16]MemOp{
	MemNewHandle, MemMonitorEnter, MemMonitorExit, MemCopyStop,
	MemIoRd, MemIoWr, MemInvalidate,
	MemNone, MemNone, MemNone, MemNone, MemNone, MemNone, MemNone, MemNone, MemNone,
}

// Latch commits r into the stage's register bank unless stall holds it.
func (d *DecodeStage) Latch(r Registered, stall bool) {
	if stall {
		return
	}
	d.reg = r
}

// Current returns the registered outputs visible to StackStage/FetchStage
// this cycle (computed by the previous cycle's Eval+Latch).
func (d *DecodeStage) Current() Registered { return d.reg }

func (d *DecodeStage) Reset() { d.reg = Registered{} }
