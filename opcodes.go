// opcodes.go - concrete 10-bit microinstruction encoding

// This assigns literal values to every microinstruction, placed so each
// falls in the instr[9:6] nibble its classification requires: 0000/0001 =
// pop-class, 0010/0011 = push-class, 0110/0111 = branch-on-zero/non-zero
// (pop), everything else = no stack change. The bit patterns beyond that
// classification nibble are this model's own choice; see DESIGN.md for the
// reasoning.

package jop

const (
	// nibble 0000 (pop-class): ALU group, selLog/selSub picked from low bits.
	opPop uint16 = 0x000
	opAnd uint16 = 0x001
	opOr  uint16 = 0x002
	opXor uint16 = 0x003
	opAdd uint16 = 0x004
	opSub uint16 = 0x005

	// nibble 0001 (pop-class): MMU bank 1, low nibble indexes mmuBank1.
	opGetField    uint16 = 0x040
	opPutField    uint16 = 0x041
	opGetStatic   uint16 = 0x042
	opPutStatic   uint16 = 0x043
	opIaload      uint16 = 0x044
	opIastore     uint16 = 0x045
	opBcRd        uint16 = 0x046
	opCopy        uint16 = 0x047
	opAtomicStart uint16 = 0x048
	opAtomicEnd   uint16 = 0x049

	// nibble 0010 (push-class): stack-RAM/const-pool loads.
	opLdi  uint16 = 0x080
	opLdm  uint16 = 0x081
	opLdn  uint16 = 0x082
	opLd   uint16 = 0x083
	opLdmi uint16 = 0x084

	// nibble 0110 (branch-on-zero/non-zero, pop): tested value consumed by
	// the ALU's zero flag; these carry no further decode state of their
	// own today (present so selSmux classification has entries here).
	opBz  uint16 = 0x180
	opBnz uint16 = 0x181

	// nibble 0100 (no stack change): pipeline control, stores, pointer
	// writes, and MMU bank 2. instrWait (0x101) and instrJbr (0x102) are
	// the two reserved sentinels from rom.go and sit inside this range.
	opNop   uint16 = 0x100
	opStvp  uint16 = 0x103
	opStjpc uint16 = 0x104
	opStar  uint16 = 0x105
	opStm   uint16 = 0x106
	opStn   uint16 = 0x107
	opSt    uint16 = 0x108
	opStmi  uint16 = 0x109
	opBr    uint16 = 0x110 // microcode-relative short branch, 6-bit displacement ir[5:0]

	// also nibble 0100 (no stack change): auxiliary ALU units (Multiplier,
	// Crc8), never structurally named elsewhere in the decode tables.
	opMulWr   uint16 = 0x10A
	opCrcClr  uint16 = 0x10B
	opCrcWr   uint16 = 0x10C

	// nibble 0101 (no stack change): MMU bank 2, low nibble indexes mmuBank2.
	opNewHandle    uint16 = 0x140
	opMonitorEnter uint16 = 0x141
	opMonitorExit  uint16 = 0x142
	opCopyStop     uint16 = 0x143
	opIoRd         uint16 = 0x144
	opIoWr         uint16 = 0x145
	opInvalidate   uint16 = 0x146
)
