package jop

import "testing"

func newTestCore(t *testing.T) *Core {
	t.Helper()
	cfg := DefaultConfig()
	rom := NewMicroROM(16)
	var jtRom [256]uint32
	jt := NewJumpTable(jtRom, 250, 251)
	bus := NewSystemBus(4096, 1)
	return NewCore(cfg, rom, jt, bus)
}

// TestCoreJfetchDispatchesToJumpTable verifies a JFetch microinstruction
// drives the microcode PC to the jump table's address for the fetched
// bytecode, ahead of the default PC+1.
func TestCoreJfetchDispatchesToJumpTable(t *testing.T) {
	cfg := DefaultConfig()
	rom := NewMicroROM(16)
	rom.Set(0, MicroEntry{JFetch: true})
	var jtRom [256]uint32
	jtRom[0] = 5 // bytecode 0 (the JBC's all-zero initial image) dispatches to microcode addr 5
	jt := NewJumpTable(jtRom, 250, 251)
	bus := NewSystemBus(4096, 1)
	core := NewCore(cfg, rom, jt, bus)

	core.Tick()
	if core.Fetch().PC() != 5 {
		t.Fatalf("PC = %d after a jfetch dispatch, want 5", core.Fetch().PC())
	}
}

// TestCorePlainTickIncrementsPC verifies that with no jfetch/br/jmp asserted,
// the microcode PC simply increments.
func TestCorePlainTickIncrementsPC(t *testing.T) {
	core := newTestCore(t)
	core.Tick()
	if core.Fetch().PC() != 1 {
		t.Fatalf("PC = %d after a plain tick, want 1", core.Fetch().PC())
	}
}

// TestCoreIaloadReachesArrayBoundsEndToEnd drives an iaload entirely through
// Core.Tick(): the stack's B/AR registers supply the handle and index, and
// the handle/length resolution happens over the real bus rather than a
// hand-built MemRequest, proving MemAbExc is reachable from the wired
// pipeline and not just from MemoryController's own unit tests.
func TestCoreIaloadReachesArrayBoundsEndToEnd(t *testing.T) {
	cfg := DefaultConfig()
	rom := NewMicroROM(16)
	rom.Set(0, MicroEntry{Instr: opIaload})
	var jtRom [256]uint32
	jt := NewJumpTable(jtRom, 250, 251)
	bus := NewSystemBus(4096, 1)
	core := NewCore(cfg, rom, jt, bus)

	const handle, base = 0x40, 0x100
	bus.writeWord(handle, base)
	bus.writeWord(base+indirectLengthOffset, 3)

	core.Stack().B = handle
	core.Stack().AR = 5 // out of bounds for a length-3 array

	for i := 0; i < 24 && core.Memory().State() != MemAbExc; i++ {
		core.Tick()
	}
	if core.Memory().State() != MemAbExc {
		t.Fatalf("state = %v, want MemAbExc once the pipeline resolves the bus-fetched length", core.Memory().State())
	}
}

// TestCoreReset verifies Reset returns every substage to its initial state.
func TestCoreReset(t *testing.T) {
	core := newTestCore(t)
	core.Tick()
	core.Tick()
	core.Reset()
	if core.Fetch().PC() != 0 {
		t.Fatalf("PC after Reset = %d, want 0", core.Fetch().PC())
	}
	if core.Bytecode().JPC != 0 {
		t.Fatalf("JPC after Reset = %d, want 0", core.Bytecode().JPC)
	}
}
