package jop

import "testing"

func TestFetchStagePlainIncrement(t *testing.T) {
	rom := NewMicroROM(16)
	f := NewFetchStage(rom)
	stalled := f.Tick(MicroEntry{}, false, 0, false, 0, false, 0, false, false)
	if stalled {
		t.Fatal("plain increment should not report a stall")
	}
	if f.PC() != 1 {
		t.Fatalf("PC = %d, want 1", f.PC())
	}
}

// TestFetchStagePriorityMux verifies jfetch beats br beats jmp beats stall,
// the fetch stage's strict priority ordering.
func TestFetchStagePriorityMux(t *testing.T) {
	rom := NewMicroROM(16)

	f := NewFetchStage(rom)
	f.Tick(MicroEntry{}, true, 100, true, 200, true, 300, false, false)
	if f.PC() != 100 {
		t.Fatalf("jfetch should win over br/jmp: PC = %d, want 100", f.PC())
	}

	f = NewFetchStage(rom)
	f.Tick(MicroEntry{}, false, 0, true, 200, true, 300, false, false)
	if f.PC() != 200 {
		t.Fatalf("br should win over jmp: PC = %d, want 200", f.PC())
	}

	f = NewFetchStage(rom)
	f.Tick(MicroEntry{Instr: instrWait}, false, 0, false, 0, false, 0, false, false) // arm pcwait
	f.Tick(MicroEntry{}, false, 0, false, 0, true, 300, true, false)
	if f.PC() != 300 {
		t.Fatalf("jmp should win over stall: PC = %d, want 300", f.PC())
	}
}

// TestFetchStageBsyAloneDoesNotStall verifies that an external busy signal
// with no armed pcwait (no WAIT opcode fetched beforehand) never holds the
// PC: the mux's only bsy-driven freeze condition is pcwait ∧ bsy, not bsy
// alone.
func TestFetchStageBsyAloneDoesNotStall(t *testing.T) {
	rom := NewMicroROM(16)
	f := NewFetchStage(rom)
	f.Tick(MicroEntry{}, false, 0, false, 0, false, 0, false, false) // PC=1
	stalled := f.Tick(MicroEntry{}, false, 0, false, 0, false, 0, true, false)
	if stalled {
		t.Fatal("bsy with no armed pcwait should not stall")
	}
	if f.PC() != 2 {
		t.Fatalf("PC should keep advancing, got %d, want 2", f.PC())
	}
}

// TestFetchStageWaitArmsOnBsyDuration reproduces the documented wait-stall
// scenario: a first WAIT arms pcwait without itself stalling, a second WAIT
// observes it, and the freeze lasts exactly as long as bsy stays asserted
// (here 5 cycles: 1 arming cycle plus 4 held cycles), releasing the cycle
// after bsy drops -- not a fixed cycle count.
func TestFetchStageWaitArmsOnBsyDuration(t *testing.T) {
	rom := NewMicroROM(16)
	f := NewFetchStage(rom)
	waitEntry := MicroEntry{Instr: instrWait}

	// first WAIT: arms pcwait, does not itself stall even with bsy already high.
	stalled := f.Tick(waitEntry, false, 0, false, 0, false, 0, true, false)
	if stalled {
		t.Fatal("the first WAIT should only arm pcwait, not stall")
	}
	pcAfterArm := f.PC()

	// second WAIT observes the armed pcwait; bsy stays high for 4 more cycles.
	for i := 0; i < 4; i++ {
		stalled = f.Tick(waitEntry, false, 0, false, 0, false, 0, true, false)
		if !stalled {
			t.Fatalf("cycle %d: expected pcwait ∧ bsy to hold the PC", i)
		}
		if f.PC() != pcAfterArm {
			t.Fatalf("cycle %d: PC = %d, want held at %d", i, f.PC(), pcAfterArm)
		}
	}

	// bsy drops: release on this very cycle, advancing past the second WAIT.
	stalled = f.Tick(waitEntry, false, 0, false, 0, false, 0, false, false)
	if stalled {
		t.Fatal("the cycle bsy drops should release the stall")
	}
	if f.PC() != pcAfterArm+1 {
		t.Fatalf("PC should resume incrementing: got %d, want %d", f.PC(), pcAfterArm+1)
	}
}

// TestFetchStageWaitStallTracksLongerBsy verifies the freeze duration is not
// hardcoded to any particular cycle count by running it again with a longer
// bsy assertion and confirming the PC only advances once bsy clears.
func TestFetchStageWaitStallTracksLongerBsy(t *testing.T) {
	rom := NewMicroROM(16)
	f := NewFetchStage(rom)
	waitEntry := MicroEntry{Instr: instrWait}

	f.Tick(waitEntry, false, 0, false, 0, false, 0, true, false) // arm
	held := f.PC()

	for i := 0; i < 9; i++ {
		if !f.Tick(waitEntry, false, 0, false, 0, false, 0, true, false) {
			t.Fatalf("cycle %d: expected stall while bsy remains high", i)
		}
		if f.PC() != held {
			t.Fatalf("cycle %d: PC = %d, want held at %d", i, f.PC(), held)
		}
	}

	if f.Tick(waitEntry, false, 0, false, 0, false, 0, false, false) {
		t.Fatal("stall should release once bsy finally drops")
	}
	if f.PC() != held+1 {
		t.Fatalf("PC = %d, want %d", f.PC(), held+1)
	}
}

// TestFetchStageRotationBusyForcesUnconditionalStall verifies rotationBusy
// freezes the PC even with no pcwait/bsy involved at all, per "all pipeline
// stages use the same stall signal".
func TestFetchStageRotationBusyForcesUnconditionalStall(t *testing.T) {
	rom := NewMicroROM(16)
	f := NewFetchStage(rom)
	f.Tick(MicroEntry{}, false, 0, false, 0, false, 0, false, false) // PC=1

	stalled := f.Tick(MicroEntry{}, false, 0, false, 0, false, 0, false, true)
	if !stalled {
		t.Fatal("rotationBusy alone should stall, independent of pcwait/bsy")
	}
	if f.PC() != 1 {
		t.Fatalf("PC should hold during rotationBusy: got %d, want 1", f.PC())
	}

	stalled = f.Tick(MicroEntry{}, false, 0, false, 0, false, 0, false, false)
	if stalled {
		t.Fatal("stall should release once rotationBusy clears")
	}
	if f.PC() != 2 {
		t.Fatalf("PC = %d, want 2", f.PC())
	}
}
