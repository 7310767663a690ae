// memctl.go - MemoryController: translates the Java-level memory
// operations DecodeStage's registered MemOp names into bus transactions,
// with bounds/null checking and the exception states those checks raise.

package jop

// MemState names MemoryController's states.
type MemState int

const (
	MemIdle MemState = iota
	MemHandleCmd  // submitting the indirect read that resolves Ref to a base address
	MemHandleWait // waiting for the resolved base address
	MemLengthCmd  // submitting the array-length read at base+indirectLengthOffset
	MemLengthWait // waiting for the length word, then bounds-checking Index against it
	MemDataCmd    // submitting the field/element/static/io data transfer
	MemReadWait
	MemWriteWait
	MemNpExc  // null-pointer exception latched
	MemAbExc  // array-bounds exception latched
	MemCpStop // atomic section (copy-stop) held
)

// indirectLengthOffset and indirectDataOffset describe the resolved object
// layout getfield/putfield/iaload/iastore address into: a handle read
// (Ref) yields a base address; an array's element count sits one word
// past that base, with element data starting one word further still.
const (
	indirectLengthOffset = memWord
	indirectDataOffset   = 2 * memWord
)

// MemRequest is one request issued to the controller. Ref is the object/array
// handle (0 means null); for getfield/putfield, Addr is the field's byte
// offset added to the handle's resolved base; for iaload/iastore, Index is
// the element index checked against the array's own length word (read
// through the bus, not supplied by the caller) before the element address is
// computed. Value is the store operand.
type MemRequest struct {
	Op    MemOp
	Ref   uint32
	Addr  uint32
	Index uint32
	Value uint32
}

// MemoryController drives one outstanding Java memory operation across the
// shared bus to completion, surfacing null/bounds exceptions as states
// rather than Go errors: memory faults are signalled, not raised. getfield,
// putfield, iaload and iastore first issue an indirect read of Ref to
// resolve the handle's actual base address (base); iaload/iastore also read
// the array's length word at base+indirectLengthOffset before ever touching
// the element itself, so AB_EXC reflects a length this controller fetched
// off the bus rather than one a caller handed it.
type MemoryController struct {
	bus   Bus
	state MemState

	req     MemRequest
	base    uint32
	pending bool

	result    uint32
	resultRdy bool

	atomicDepth int
}

func NewMemoryController(bus Bus) *MemoryController {
	return &MemoryController{bus: bus, state: MemIdle}
}

func (m *MemoryController) State() MemState { return m.state }

// needsIndirection reports whether op's final address depends on first
// resolving Ref through the bus (the object/array handle is never itself
// the final address).
func needsIndirection(op MemOp) bool {
	switch op {
	case MemGetField, MemPutField, MemIaload, MemIastore:
		return true
	default:
		return false
	}
}

func needsRef(op MemOp) bool {
	switch op {
	case MemGetField, MemPutField, MemIaload, MemIastore, MemMonitorEnter, MemMonitorExit, MemInvalidate:
		return true
	default:
		return false
	}
}

func isWriteOp(op MemOp) bool {
	switch op {
	case MemPutField, MemPutStatic, MemIastore, MemIoWr:
		return true
	default:
		return false
	}
}

// Start accepts a new request if the controller is idle. Returns false if
// busy; the caller (DecodeStage's WrDly-gated issue) must keep offering the
// same request until it returns true.
func (m *MemoryController) Start(req MemRequest) bool {
	if m.state != MemIdle {
		return false
	}
	switch req.Op {
	case MemAtomicStart:
		m.atomicDepth++
		return true
	case MemAtomicEnd:
		if m.atomicDepth > 0 {
			m.atomicDepth--
		}
		return true
	case MemCopyStop:
		m.state = MemCpStop
		return true
	}

	if needsRef(req.Op) && req.Ref == 0 {
		m.state = MemNpExc
		logf("memctl", "null reference on op %d", req.Op)
		return true
	}

	m.req = req
	m.pending = true
	m.resultRdy = false

	if needsIndirection(req.Op) {
		m.state = MemHandleCmd
	} else {
		m.state = MemDataCmd
	}
	return true
}

// dataCmd builds the final bus transaction for the controller's current
// request: a direct access for ops that never indirect, or the
// base-plus-offset / base-plus-element address for the ones that do.
func (m *MemoryController) dataCmd() BusCommand {
	addr := m.req.Addr
	switch m.req.Op {
	case MemGetField, MemPutField:
		addr = m.base + m.req.Addr
	case MemIaload, MemIastore:
		addr = m.base + indirectDataOffset + m.req.Index*memWord
	}
	if isWriteOp(m.req.Op) {
		return BusCommand{Opcode: BusWrite, Address: addr, Data: m.req.Value, ByteMask: 0xF, Last: true}
	}
	return BusCommand{Opcode: BusRead, Address: addr, Last: true}
}

// Tick advances the bus handshake by one cycle, driving the
// handle-resolution / length-check / data-transfer sequence a step further
// each call.
func (m *MemoryController) Tick() {
	m.bus.Tick()
	switch m.state {
	case MemHandleCmd:
		if m.bus.Submit(BusCommand{Opcode: BusRead, Address: m.req.Ref, Last: true}) {
			m.state = MemHandleWait
		}

	case MemHandleWait:
		if m.bus.HasResponse() {
			m.base = m.bus.TakeResponse().Data
			if m.req.Op == MemIaload || m.req.Op == MemIastore {
				m.state = MemLengthCmd
			} else {
				m.state = MemDataCmd
			}
		}

	case MemLengthCmd:
		if m.bus.Submit(BusCommand{Opcode: BusRead, Address: m.base + indirectLengthOffset, Last: true}) {
			m.state = MemLengthWait
		}

	case MemLengthWait:
		if m.bus.HasResponse() {
			length := m.bus.TakeResponse().Data
			if m.req.Index >= length {
				m.state = MemAbExc
				m.pending = false
				logf("memctl", "array index %d out of bounds (length %d)", m.req.Index, length)
			} else {
				m.state = MemDataCmd
			}
		}

	case MemDataCmd:
		if m.bus.Submit(m.dataCmd()) {
			if isWriteOp(m.req.Op) {
				m.state = MemWriteWait
			} else {
				m.state = MemReadWait
			}
		}

	case MemReadWait, MemWriteWait:
		if m.bus.HasResponse() {
			rsp := m.bus.TakeResponse()
			m.result = rsp.Data
			m.resultRdy = true
			m.pending = false
			m.state = MemIdle
		}
	}
}

// Ack clears a latched exception state once the caller has dispatched it,
// and clears a completed read's result-ready flag once consumed.
func (m *MemoryController) Ack() {
	if m.state == MemNpExc || m.state == MemAbExc || m.state == MemCpStop {
		m.state = MemIdle
	}
	m.resultRdy = false
}

func (m *MemoryController) ResultReady() bool { return m.resultRdy }
func (m *MemoryController) Result() uint32    { return m.result }
func (m *MemoryController) Busy() bool        { return m.pending }
func (m *MemoryController) InAtomic() bool    { return m.atomicDepth > 0 }

func (m *MemoryController) Reset() {
	m.state = MemIdle
	m.base = 0
	m.pending = false
	m.resultRdy = false
	m.atomicDepth = 0
}
