// bcf.go - BytecodeFetchStage: the Java PC, the JBC byte memory, and the
// 13-entry branch truth table evaluator

package jop

// BytecodeFetchStage owns the Java program counter and the byte-addressed
// JBC memory bytecodes and their operand bytes are fetched from.
type BytecodeFetchStage struct {
	JPC     uint32
	jbc     []byte
	jbcMask uint32

	jinstr uint8
	jopd   uint32 // up to 2 accumulated operand bytes, big-endian per the JVM's own encoding

	intPend bool
	excPend bool

	// pendWrite/pendAddr/pendData implement same-cycle read-write bypass:
	// a Fetch() for the address WriteByte staged this same cycle observes
	// the new value immediately instead of the stale one.
	pendWrite bool
	pendAddr  uint32
	pendData  byte
}

// NewBytecodeFetchStage allocates a JBC memory of cfg.jbcSize() bytes.
func NewBytecodeFetchStage(cfg Config) *BytecodeFetchStage {
	size := cfg.jbcSize()
	return &BytecodeFetchStage{jbc: make([]byte, size), jbcMask: size - 1}
}

// LoadJBC installs a class's bytecode image starting at address 0.
func (f *BytecodeFetchStage) LoadJBC(data []byte) { copy(f.jbc, data) }

// WriteByte stages a JBC write (from the memory controller's BCWR path),
// committed by the next Advance call.
func (f *BytecodeFetchStage) WriteByte(addr uint32, data byte) {
	f.pendWrite = true
	f.pendAddr = addr & f.jbcMask
	f.pendData = data
}

func (f *BytecodeFetchStage) readByte(addr uint32) byte {
	addr &= f.jbcMask
	if f.pendWrite && f.pendAddr == addr {
		return f.pendData
	}
	return f.jbc[addr]
}

// Fetch reads the bytecode at JPC plus the two bytes following it (the
// widest operand any branch bytecode needs) into jinstr/jopd.
func (f *BytecodeFetchStage) Fetch() {
	f.jinstr = f.readByte(f.JPC)
	hi := f.readByte(f.JPC + 1)
	lo := f.readByte(f.JPC + 2)
	f.jopd = uint32(hi)<<8 | uint32(lo)
}

func (f *BytecodeFetchStage) Jinstr() uint8 { return f.jinstr }
func (f *BytecodeFetchStage) Jopd() uint32  { return f.jopd }

// SetIntPending/SetExcPending latch the interrupt/exception request lines;
// core.go clears them once JumpTable.Lookup has dispatched to the handler.
func (f *BytecodeFetchStage) SetIntPending(v bool) { f.intPend = v }
func (f *BytecodeFetchStage) SetExcPending(v bool) { f.excPend = v }
func (f *BytecodeFetchStage) IntPending() bool      { return f.intPend }
func (f *BytecodeFetchStage) ExcPending() bool      { return f.excPend }

// BranchTarget evaluates the fetched bytecode's branch condition against
// the stack stage's flags, returning the taken target and true, or
// (0, false) if the branch (or goto) is not taken.
func (f *BytecodeFetchStage) BranchTarget(flags Flags) (uint32, bool) {
	tp := branchTp(f.jinstr)
	if !branchTaken(tp, flags.Zf, flags.Nf, flags.Eq, flags.Lt) {
		return 0, false
	}
	offset := int32(int16(f.jopd))
	return uint32(int32(f.JPC) + offset), true
}

// Advance commits any pending JBC write and moves JPC past the current
// bytecode and its operand bytes, once the microcode for jinstr issues
// jopdfetch/jfetch.
func (f *BytecodeFetchStage) Advance(widthBytes uint32) {
	if f.pendWrite {
		f.jbc[f.pendAddr] = f.pendData
		f.pendWrite = false
	}
	f.JPC += widthBytes
}

// SetJPC overrides the Java PC directly, for a taken branch/goto or an
// interrupt/exception dispatch that resets the bytecode stream.
func (f *BytecodeFetchStage) SetJPC(addr uint32) { f.JPC = addr }

func (f *BytecodeFetchStage) Reset() {
	f.JPC = 0
	f.jinstr = 0
	f.jopd = 0
	f.intPend = false
	f.excPend = false
	f.pendWrite = false
}
