// stackcache_dma.go - the bursted spill/fill engine driving bank transfers
// to main memory across the Bus. stackCache (stackcache.go) drives one
// StackCacheDma for every bank rotation, spilling the victim bank and
// filling its replacement across the shared memory bus, and stays Busy()
// until this engine reports Done().
package jop

// DmaState names StackCacheDma's states.
type DmaState int

const (
	DmaIdle DmaState = iota
	DmaSpillCmd
	DmaSpillWait
	DmaFillCmd
	DmaFillWait
	DmaDone
)

// StackCacheDma bursts a bank (burstLen words) out to or in from memAddr on
// bus, one single-word bus transaction per beat.
type StackCacheDma struct {
	state    DmaState
	bus      Bus
	bank     []uint32
	burstLen uint32
	memAddr  uint32
	beat     uint32
}

func NewStackCacheDma(bus Bus) *StackCacheDma {
	return &StackCacheDma{bus: bus, state: DmaIdle}
}

// StartSpill begins writing bank out to memAddr.
func (d *StackCacheDma) StartSpill(bank []uint32, memAddr uint32) {
	d.bank = bank
	d.burstLen = uint32(len(bank))
	d.memAddr = memAddr
	d.beat = 0
	d.state = DmaSpillCmd
}

// StartFill begins reading burstLen words from memAddr into bank.
func (d *StackCacheDma) StartFill(bank []uint32, memAddr uint32) {
	d.bank = bank
	d.burstLen = uint32(len(bank))
	d.memAddr = memAddr
	d.beat = 0
	d.state = DmaFillCmd
}

func (d *StackCacheDma) Done() bool { return d.state == DmaDone }
func (d *StackCacheDma) State() DmaState { return d.state }

// Tick drives one cycle of the spill/fill FSM. Call once per core cycle
// regardless of state; it is a no-op while idle or done.
func (d *StackCacheDma) Tick() {
	switch d.state {
	case DmaSpillCmd:
		// one word per bus transaction: the burst is this FSM looping over
		// beats, not a single multi-beat command, so Length is always 0.
		cmd := BusCommand{
			Opcode:  BusWrite,
			Address: d.memAddr + d.beat*memWord,
			Data:    d.bank[d.beat],
			Last:    true,
		}
		if d.bus.Submit(cmd) {
			d.state = DmaSpillWait
		}

	case DmaSpillWait:
		d.bus.Tick()
		if d.bus.HasResponse() {
			d.bus.TakeResponse()
			d.beat++
			if d.beat >= d.burstLen {
				d.state = DmaDone
			} else {
				d.state = DmaSpillCmd
			}
		}

	case DmaFillCmd:
		cmd := BusCommand{
			Opcode:  BusRead,
			Address: d.memAddr + d.beat*memWord,
			Last:    true,
		}
		if d.bus.Submit(cmd) {
			d.state = DmaFillWait
		}

	case DmaFillWait:
		d.bus.Tick()
		if d.bus.HasResponse() {
			rsp := d.bus.TakeResponse()
			d.bank[d.beat] = rsp.Data
			d.beat++
			if d.beat >= d.burstLen {
				d.state = DmaDone
			} else {
				d.state = DmaFillCmd
			}
		}
	}
}

// Ack returns the engine to idle after the caller has observed Done().
func (d *StackCacheDma) Ack() { d.state = DmaIdle }

func (d *StackCacheDma) Reset() {
	d.state = DmaIdle
	d.bank = nil
	d.beat = 0
}
