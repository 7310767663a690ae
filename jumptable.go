// jumptable.go - combinational bytecode -> microcode start address mapping

package jop

// JumpTable is the combinational bytecode-dispatch mux: given a fetched
// bytecode and the pending interrupt/exception flags, it yields the
// microcode address execution should dispatch to next. Exception always
// wins over interrupt, which always wins over the bytecode's own ROM entry.
type JumpTable struct {
	rom        [256]uint32
	sysIntAddr uint32
	sysExcAddr uint32
}

// NewJumpTable builds a table from a 256-entry ROM image plus the two
// reserved handler addresses: these are never selected by a bytecode value,
// only by the intPend/excPend priority mux.
func NewJumpTable(rom [256]uint32, sysIntAddr, sysExcAddr uint32) *JumpTable {
	return &JumpTable{rom: rom, sysIntAddr: sysIntAddr, sysExcAddr: sysExcAddr}
}

// Lookup implements the JumpTable contract exactly: excPend beats intPend
// beats the ROM.
func (jt *JumpTable) Lookup(bytecode uint8, intPend, excPend bool) uint32 {
	switch {
	case excPend:
		return jt.sysExcAddr
	case intPend:
		return jt.sysIntAddr
	default:
		return jt.rom[bytecode]
	}
}

// Set overwrites one ROM entry; used by loaders and tests to build a jump
// table without hand-assembling the whole 256-entry array literal.
func (jt *JumpTable) Set(bytecode uint8, addr uint32) {
	jt.rom[bytecode] = addr
}
