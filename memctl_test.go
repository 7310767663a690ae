package jop

import "testing"

func newTestMemCtl() (*MemoryController, *SystemBus) {
	bus := NewSystemBus(0x4000, 1)
	return NewMemoryController(bus), bus
}

func runUntilIdleOrFault(t *testing.T, m *MemoryController, limit int) {
	t.Helper()
	for i := 0; i < limit; i++ {
		if m.ResultReady() || m.State() == MemAbExc || m.State() == MemNpExc {
			return
		}
		m.Tick()
	}
	t.Fatalf("controller did not settle within %d cycles (state=%v)", limit, m.State())
}

// TestMemoryControllerGetFieldIndirection verifies getfield resolves Ref
// through an indirect bus read to a base address and then adds the field
// offset, rather than treating Ref as the final address.
func TestMemoryControllerGetFieldIndirection(t *testing.T) {
	m, bus := newTestMemCtl()
	const handle, base, offset = 0x40, 0x1000, 8
	bus.writeWord(handle, base)
	bus.writeWord(base+offset, 0xDEADBEEF)

	if !m.Start(MemRequest{Op: MemGetField, Ref: handle, Addr: offset}) {
		t.Fatal("Start should accept a request while idle")
	}
	if m.State() != MemHandleCmd {
		t.Fatalf("state = %v, want MemHandleCmd immediately after Start", m.State())
	}
	runUntilIdleOrFault(t, m, 32)
	if !m.ResultReady() {
		t.Fatalf("state = %v, want a ready result", m.State())
	}
	if m.Result() != 0xDEADBEEF {
		t.Fatalf("Result() = %#x, want 0xDEADBEEF", m.Result())
	}
}

// TestMemoryControllerPutFieldIndirection verifies putfield's write lands at
// base+offset, where base comes from indirecting through Ref.
func TestMemoryControllerPutFieldIndirection(t *testing.T) {
	m, bus := newTestMemCtl()
	const handle, base, offset = 0x48, 0x2000, 12
	bus.writeWord(handle, base)

	m.Start(MemRequest{Op: MemPutField, Ref: handle, Addr: offset, Value: 0x1234})
	runUntilIdleOrFault(t, m, 32)
	if !m.ResultReady() {
		t.Fatalf("state = %v, want a ready result", m.State())
	}
	if got := bus.readWord(base + offset); got != 0x1234 {
		t.Fatalf("bus[base+offset] = %#x, want 0x1234", got)
	}
}

// TestMemoryControllerIaloadWithinBounds verifies an in-range iaload reaches
// the element's data word after resolving the handle and checking the
// length the controller itself fetched off the bus.
func TestMemoryControllerIaloadWithinBounds(t *testing.T) {
	m, bus := newTestMemCtl()
	const handle, base = 0x80, 0x3000
	bus.writeWord(handle, base)
	bus.writeWord(base+indirectLengthOffset, 4)
	bus.writeWord(base+indirectDataOffset+2*memWord, 99)

	m.Start(MemRequest{Op: MemIaload, Ref: handle, Index: 2})
	runUntilIdleOrFault(t, m, 32)
	if !m.ResultReady() {
		t.Fatalf("state = %v, want a ready result", m.State())
	}
	if m.Result() != 99 {
		t.Fatalf("Result() = %d, want 99", m.Result())
	}
}

// TestMemoryControllerIaloadOutOfBounds verifies an index at or past the
// array's actual (bus-fetched) length raises MemAbExc through the real
// handle/length resolution path, not a caller-supplied Length field.
func TestMemoryControllerIaloadOutOfBounds(t *testing.T) {
	m, bus := newTestMemCtl()
	const handle, base = 0x88, 0x3100
	bus.writeWord(handle, base)
	bus.writeWord(base+indirectLengthOffset, 3)

	m.Start(MemRequest{Op: MemIaload, Ref: handle, Index: 5})
	runUntilIdleOrFault(t, m, 32)
	if m.State() != MemAbExc {
		t.Fatalf("state = %v, want MemAbExc for index 5 >= length 3", m.State())
	}
}

func TestMemoryControllerNullPointerFault(t *testing.T) {
	m, _ := newTestMemCtl()
	m.Start(MemRequest{Op: MemGetField, Ref: 0, Addr: 0x10})
	if m.State() != MemNpExc {
		t.Fatalf("state = %v, want MemNpExc for a null reference", m.State())
	}
	m.Ack()
	if m.State() != MemIdle {
		t.Fatal("Ack should clear the latched exception state")
	}
}

func TestMemoryControllerBusyRefusesNewRequest(t *testing.T) {
	m, bus := newTestMemCtl()
	bus.writeWord(0x20, 0x9000)
	m.Start(MemRequest{Op: MemGetField, Ref: 0x20, Addr: 0x24})
	if m.Start(MemRequest{Op: MemGetField, Ref: 0x20, Addr: 0x28}) {
		t.Fatal("Start should refuse a second request while one is in flight")
	}
}

func TestMemoryControllerAtomicDepth(t *testing.T) {
	m, _ := newTestMemCtl()
	m.Start(MemRequest{Op: MemAtomicStart})
	if !m.InAtomic() {
		t.Fatal("InAtomic() should be true after MemAtomicStart")
	}
	m.Start(MemRequest{Op: MemAtomicEnd})
	if m.InAtomic() {
		t.Fatal("InAtomic() should be false after the matching MemAtomicEnd")
	}
}
