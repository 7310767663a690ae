package jop

import "testing"

func TestBytecodeFetchStageFetchAndAdvance(t *testing.T) {
	cfg := DefaultConfig()
	f := NewBytecodeFetchStage(cfg)
	f.LoadJBC([]byte{bcIfICmpEq, 0x00, 0x05})
	f.Fetch()
	if f.Jinstr() != bcIfICmpEq {
		t.Fatalf("Jinstr() = %#x, want %#x", f.Jinstr(), bcIfICmpEq)
	}
	if f.Jopd() != 5 {
		t.Fatalf("Jopd() = %d, want 5", f.Jopd())
	}
	f.Advance(3)
	if f.JPC != 3 {
		t.Fatalf("JPC = %d, want 3", f.JPC)
	}
}

// TestBytecodeFetchStageSameCycleBypass verifies a WriteByte staged this
// cycle is visible to a Fetch in the same cycle at that address, before
// Advance commits it to the backing array.
func TestBytecodeFetchStageSameCycleBypass(t *testing.T) {
	cfg := DefaultConfig()
	f := NewBytecodeFetchStage(cfg)
	f.LoadJBC([]byte{0x00, 0x00, 0x00})

	f.WriteByte(0, bcGoto)
	f.Fetch()
	if f.Jinstr() != bcGoto {
		t.Fatalf("Jinstr() = %#x after same-cycle write bypass, want %#x", f.Jinstr(), bcGoto)
	}

	// the write must not have landed in the backing array yet
	if f.jbc[0] != 0x00 {
		t.Fatalf("jbc[0] = %#x before Advance commits the pending write, want 0x00", f.jbc[0])
	}
	f.Advance(1)
	if f.jbc[0] != bcGoto {
		t.Fatalf("jbc[0] = %#x after Advance, want %#x (write committed)", f.jbc[0], bcGoto)
	}
}

func TestBytecodeFetchStageBranchTargetGoto(t *testing.T) {
	cfg := DefaultConfig()
	f := NewBytecodeFetchStage(cfg)
	img := make([]byte, 103)
	copy(img[100:], []byte{bcGoto, 0x00, 0x0A})
	f.LoadJBC(img)
	f.SetJPC(100)
	f.Fetch()
	target, taken := f.BranchTarget(Flags{})
	if !taken {
		t.Fatal("goto must always be taken")
	}
	if target != 110 {
		t.Fatalf("target = %d, want 110 (JPC 100 + offset 10)", target)
	}
}

func TestBytecodeFetchStageBranchTargetNotTaken(t *testing.T) {
	cfg := DefaultConfig()
	f := NewBytecodeFetchStage(cfg)
	f.LoadJBC([]byte{bcIfEq, 0x00, 0x0A})
	f.Fetch()
	_, taken := f.BranchTarget(Flags{Zf: false})
	if taken {
		t.Fatal("ifeq with zf=false should not be taken")
	}
}

func TestBytecodeFetchStageReset(t *testing.T) {
	cfg := DefaultConfig()
	f := NewBytecodeFetchStage(cfg)
	f.SetJPC(42)
	f.SetIntPending(true)
	f.Reset()
	if f.JPC != 0 || f.IntPending() {
		t.Fatalf("Reset left JPC=%d IntPending=%v, want 0/false", f.JPC, f.IntPending())
	}
}
