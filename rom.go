// rom.go - microcode ROM image format and instruction-encoding sentinels

package jop

// MicroEntry is one microcode ROM word, laid out as
// [jfetch:1][jopdfetch:1][instr:10].
type MicroEntry struct {
	JFetch    bool
	JOpdFetch bool
	Instr     uint16 // 10 significant bits
}

// MicroROM is the constant-after-init microcode store FetchStage reads
// combinationally every cycle.
type MicroROM struct {
	entries []MicroEntry
}

// NewMicroROM allocates a ROM of the given size (normally Config.romSize()),
// all entries defaulting to the zero MicroEntry (no jfetch/jopdfetch, instr
// 0x000, which DecodeStage.Eval decodes as opPop).
func NewMicroROM(size uint32) *MicroROM {
	return &MicroROM{entries: make([]MicroEntry, size)}
}

// Load installs entries starting at address 0, as a loader reading a ROM
// image file would.
func (r *MicroROM) Load(entries []MicroEntry) {
	copy(r.entries, entries)
}

// Set installs a single entry, used by tests that only care about a few
// addresses.
func (r *MicroROM) Set(addr uint32, e MicroEntry) {
	r.entries[addr] = e
}

// Read is the combinational "readAsync(pc)" the fetch stage issues every
// cycle.
func (r *MicroROM) Read(addr uint32) MicroEntry {
	return r.entries[addr%uint32(len(r.entries))]
}

// Instruction-encoding sentinels: WAIT (0x101) is the two-cycle
// self-arming pipeline-stall idiom FetchStage implements; JBR (0x102) asserts
// the bytecode-level branch-evaluation signal consumed by BytecodeFetchStage.
const (
	instrWait uint16 = 0x101
	instrJbr  uint16 = 0x102
)

// instrWidth is the width of the instr field (10 bits); branch/jump
// displacement fields are sign-extended from within this width by the
// fetch stage's priority mux ("br -> pc + signExt(ir[5:0])", "jmp -> pc +
// signExt(ir[iWidth-2:0])").
const instrWidth = 10

// signExtend sign-extends the low `bits` bits of v to a full int32.
func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}
