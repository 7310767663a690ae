// core.go - Core: one pipeline instance tying BytecodeFetchStage,
// FetchStage, DecodeStage, StackStage, JumpTable, MemoryController and the
// three object/array/method caches together into a single Tick().

package jop

// Core is one complete JOP pipeline. Multiple Cores share a Bus, a CmpSync
// and an IHLU in multicore configurations (see the multicore package).
type Core struct {
	cfg Config

	bcf   *BytecodeFetchStage
	fetch *FetchStage
	dec   *DecodeStage
	stack *StackStage
	jt    *JumpTable
	mem   *MemoryController

	objCache  *ObjectCache
	arrCache  *ArrayCache
	methCache *MethodCache

	bus Bus
}

// NewCore builds a single-core pipeline over bus, with jt supplying the
// bytecode->microcode dispatch table and rom the microcode image.
func NewCore(cfg Config, rom *MicroROM, jt *JumpTable, bus Bus) *Core {
	return &Core{
		cfg:       cfg,
		bcf:       NewBytecodeFetchStage(cfg),
		fetch:     NewFetchStage(rom),
		dec:       &DecodeStage{},
		stack:     NewStackStage(cfg, bus),
		jt:        jt,
		mem:       NewMemoryController(bus),
		objCache:  NewObjectCache(32, 8),
		arrCache:  NewArrayCache(32, 8),
		methCache: NewMethodCache(16, 32),
		bus:       bus,
	}
}

func (c *Core) Stack() *StackStage          { return c.stack }
func (c *Core) Bytecode() *BytecodeFetchStage { return c.bcf }
func (c *Core) Fetch() *FetchStage          { return c.fetch }
func (c *Core) Memory() *MemoryController   { return c.mem }

// Tick runs exactly one clock cycle: combinational decode and bytecode
// dispatch settle first, then FetchStage/DecodeStage/StackStage commit
// their registers (every stage reads the PREVIOUS cycle's registered state
// and writes its OWN registers at the end of the cycle).
func (c *Core) Tick() {
	instr := c.fetch.Read()
	comb, regNext := c.dec.Eval(instr.Instr)
	cur := c.dec.Current()

	if cur.MemOp != MemNone && c.mem.State() == MemIdle && !c.mem.Busy() {
		c.mem.Start(c.buildMemRequest(cur.MemOp))
	}

	jfetch := false
	var jfetchAddr uint32
	if instr.JFetch {
		if comb.Jbr {
			if target, taken := c.bcf.BranchTarget(c.stack.Flags()); taken {
				c.bcf.SetJPC(target)
			} else {
				c.bcf.Advance(3)
			}
		}
		c.bcf.Fetch()
		jfetch = true
		jfetchAddr = c.jt.Lookup(c.bcf.Jinstr(), c.bcf.IntPending(), c.bcf.ExcPending())
		if c.bcf.ExcPending() || c.bcf.IntPending() {
			c.bcf.SetIntPending(false)
			c.bcf.SetExcPending(false)
		}
	}

	stallExternal := c.mem.Busy() || c.mem.State() == MemReadWait || c.mem.State() == MemWriteWait
	rotationBusy := c.stack.Busy()
	stalled := c.fetch.Tick(instr, jfetch, jfetchAddr, regNext.Br, c.branchAddr(instr), regNext.Jmp, c.jmpAddr(instr), stallExternal, rotationBusy)

	c.dec.Latch(regNext, stalled)

	din := c.memDataIn()
	immVal := uint32(instr.Instr & 0x3F)
	c.stack.Tick(comb, cur, din, immVal, stalled)

	c.mem.Tick()
}

func (c *Core) branchAddr(e MicroEntry) uint32 {
	disp := signExtend(uint32(e.Instr&0x3F), 6)
	return uint32(int32(c.fetch.PC()) + disp)
}

func (c *Core) jmpAddr(e MicroEntry) uint32 {
	disp := signExtend(uint32(e.Instr)&(1<<(instrWidth-1)-1), instrWidth-1)
	return uint32(int32(c.fetch.PC()) + disp)
}

// memDataIn drains a completed memory-controller result onto the stack
// stage's Din input, or latches an exception request if the last Start
// landed in a fault state.
func (c *Core) memDataIn() uint32 {
	if c.mem.ResultReady() {
		v := c.mem.Result()
		c.mem.Ack()
		return v
	}
	if c.mem.State() == MemNpExc || c.mem.State() == MemAbExc {
		c.bcf.SetExcPending(true)
		c.mem.Ack()
	}
	return 0
}

// buildMemRequest derives a MemRequest from the stack stage's current
// registers: B holds the object/array handle (Ref), A holds the store
// operand (Value) for a write, and AR holds the field byte offset
// (getfield/putfield) or array index (iaload/iastore) — a program issuing
// one of these ops is expected to have stored that offset/index into AR via
// opStar ahead of the MMU dispatch, the same way other explicit-address ops
// use AR. MemoryController itself resolves Ref to a base address and, for
// iaload/iastore, fetches the array's length off the bus before bounds
// checking Index against it.
func (c *Core) buildMemRequest(op MemOp) MemRequest {
	req := MemRequest{
		Op:    op,
		Ref:   c.stack.B,
		Addr:  c.stack.AR,
		Value: c.stack.A,
	}
	if op == MemIaload || op == MemIastore {
		req.Index = c.stack.AR
		req.Addr = 0
	}
	return req
}

func (c *Core) Reset() {
	c.bcf.Reset()
	c.fetch.Reset()
	c.dec.Reset()
	c.stack.Reset()
	c.mem.Reset()
	c.objCache.InvalidateAll()
	c.arrCache.InvalidateAll()
	c.methCache.InvalidateAll()
}
