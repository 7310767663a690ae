// stackcache.go - the 3-bank rotating stack cache

package jop

// RotationState names the spill/fill controller's states.
type RotationState int

const (
	RotIdle RotationState = iota
	RotSpillWait
	RotFillWait
)

// bankDesc tracks one of the three rotating banks plus the scratch region.
type bankDesc struct {
	virtualBase uint32
	resident    bool
	dirty       bool
	data        []uint32
}

// stackCache implements StackMemory as three rotating banks of cfg.BankSize
// words plus a fixed scratch region of cfg.ScratchSize words held permanently
// resident: scratch holds the always-available bottom of the addressable
// window, and the three banks rotate to cover everything above it. Bank
// rotation is not instantaneous: evicting a dirty bank and filling its
// replacement is driven by dma, a StackCacheDma bursting one word per bus
// transaction, so Busy() genuinely tracks multiple cycles of real bus
// traffic rather than completing inside the Read/Write call that triggered
// it.
type stackCache struct {
	banks      [3]bankDesc
	scratch    []uint32
	bankSize   uint32
	activeBank int

	state RotationState
	dma   *StackCacheDma

	rotIdx   int    // bank index the in-flight rotation targets
	rotBase  uint32 // virtual base the in-flight rotation is filling in
	spillMem uint32 // physical base address backing the victim bank's spill
	fillMem  uint32 // physical base address backing the new bank's fill

	pendWrite bool
	pendAddr  uint32
	pendData  uint32
}

func newStackCache(cfg Config, bus Bus) *stackCache {
	c := &stackCache{
		scratch:  make([]uint32, cfg.ScratchSize),
		bankSize: uint32(cfg.BankSize),
		dma:      NewStackCacheDma(bus),
	}
	for i := range c.banks {
		c.banks[i] = bankDesc{virtualBase: uint32(i) * uint32(cfg.BankSize), resident: true, data: make([]uint32, cfg.BankSize)}
	}
	return c
}

// backingAddr is the physical spill/fill address a rotating bank's virtual
// region is backed by in main memory: the region's own virtual base scaled
// to bytes, so distinct virtual regions that round-robin onto the same
// physical bank don't alias in backing memory.
func (c *stackCache) backingAddr(base uint32) uint32 {
	return base * memWord
}

// locate resolves addr to (bank index, virtual base of the region addr falls
// in, offset within that region, false), or (-1, 0, addr, true) if addr
// falls in scratch.
func (c *stackCache) locate(addr uint32) (int, uint32, uint32, bool) {
	if addr < uint32(len(c.scratch)) {
		return -1, 0, addr, true
	}
	rel := addr - uint32(len(c.scratch))
	region := rel / c.bankSize
	idx := int(region % 3)
	base := region * c.bankSize
	offset := rel % c.bankSize
	return idx, base, offset, false
}

// Busy reports whether a bank rotation is still in flight: StackStage and
// Core's stall computation gate on this so the pipeline freezes for the
// DMA's actual spill/fill duration instead of assuming it completes in a
// single cycle.
func (c *stackCache) Busy() bool { return c.state != RotIdle }

// beginRotation starts evicting idx's current occupant (if dirty) and
// filling it with base's data, driven entirely through dma across
// subsequent Tick calls.
func (c *stackCache) beginRotation(idx int, base uint32) {
	c.rotIdx = idx
	c.rotBase = base
	if c.banks[idx].dirty {
		c.spillMem = c.backingAddr(c.banks[idx].virtualBase)
		c.dma.StartSpill(c.banks[idx].data, c.spillMem)
		c.state = RotSpillWait
	} else {
		c.startFill()
	}
}

func (c *stackCache) startFill() {
	c.banks[c.rotIdx].resident = false
	c.banks[c.rotIdx].data = make([]uint32, c.bankSize)
	c.fillMem = c.backingAddr(c.rotBase)
	c.dma.StartFill(c.banks[c.rotIdx].data, c.fillMem)
	c.state = RotFillWait
}

// driveRotation advances the in-flight spill/fill DMA by one cycle and
// commits the bank swap once the fill completes.
func (c *stackCache) driveRotation() {
	c.dma.Tick()
	switch c.state {
	case RotSpillWait:
		if c.dma.Done() {
			c.dma.Ack()
			c.banks[c.rotIdx].dirty = false
			c.startFill()
		}
	case RotFillWait:
		if c.dma.Done() {
			c.dma.Ack()
			c.banks[c.rotIdx].virtualBase = c.rotBase
			c.banks[c.rotIdx].resident = true
			c.activeBank = c.rotIdx
			c.state = RotIdle
		}
	}
}

// ensureResident kicks off a rotation if idx doesn't already hold base, and
// is a no-op (besides Busy() staying true) while one is in flight.
func (c *stackCache) ensureResident(idx int, base uint32) {
	if idx < 0 {
		return
	}
	if c.state != RotIdle {
		return
	}
	if c.banks[idx].resident && c.banks[idx].virtualBase == base {
		return
	}
	c.beginRotation(idx, base)
}

// Read returns addr's current value. If addr requires a bank rotation that
// hasn't drained yet, the stale/zero data the bank presently holds is
// returned; callers must gate on Busy() (via StackStage/Core's stall
// signal) before trusting a Read issued against a region still rotating in.
func (c *stackCache) Read(addr uint32) uint32 {
	idx, base, offset, inScratch := c.locate(addr)
	if inScratch {
		return c.scratch[offset]
	}
	c.ensureResident(idx, base)
	return c.banks[idx].data[offset]
}

// Write stages a 1-cycle-latency write, matching flatRAM's contract, and
// (if the target bank isn't resident) kicks off the same rotation Read
// would.
func (c *stackCache) Write(addr uint32, data uint32) {
	c.pendWrite = true
	c.pendAddr = addr
	c.pendData = data
	idx, base, _, inScratch := c.locate(addr)
	if !inScratch {
		c.ensureResident(idx, base)
	}
}

func (c *stackCache) Tick() {
	c.driveRotation()
	if !c.pendWrite {
		return
	}
	if c.state != RotIdle {
		// the bank this write targets hasn't rotated in yet; hold the
		// write pending and retry next cycle once Busy() clears.
		return
	}
	idx, base, offset, inScratch := c.locate(c.pendAddr)
	if inScratch {
		c.scratch[offset] = c.pendData
	} else {
		c.ensureResident(idx, base)
		if c.state != RotIdle {
			return
		}
		c.banks[idx].data[offset] = c.pendData
		c.banks[idx].dirty = true
	}
	c.pendWrite = false
}

func (c *stackCache) Reset() {
	for i := range c.banks {
		c.banks[i].virtualBase = uint32(i) * c.bankSize
		c.banks[i].resident = true
		c.banks[i].dirty = false
		for j := range c.banks[i].data {
			c.banks[i].data[j] = 0
		}
	}
	for i := range c.scratch {
		c.scratch[i] = 0
	}
	c.activeBank = 0
	c.state = RotIdle
	c.dma.Reset()
	c.pendWrite = false
}

// State reports the rotation controller's most recent resting state, for
// tests asserting on the IDLE/SPILL/FILL state machine.
func (c *stackCache) State() RotationState { return c.state }
