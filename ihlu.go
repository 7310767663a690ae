// ihlu.go - IHLU: the per-object CAM-based lock unit sitting above CmpSync

package jop

// IhluPhase names the 4-phase request FSM every lock/unlock goes through.
type IhluPhase int

const (
	IhluIdle IhluPhase = iota
	IhluRamRead
	IhluRamDelay
	IhluExecute
)

// LockResult is IHLU's synchronous outcome for a completed request.
type LockResult int

const (
	LockGranted LockResult = iota
	LockQueued
	LockTableFull
	LockReleasedHandoff // ownership handed to the next queued waiter
	LockReleasedFreed   // no waiters; the slot was freed
	LockStillHeld       // a reentrant unlock that only decremented the count
)

type lockSlot struct {
	valid      bool
	objRef     uint32
	owner      int
	reentrant  uint32
	waitHead   uint32 // next waiter to serve, mod len(waitQueue)
	waitTail   uint32 // next free waitQueue slot, mod len(waitQueue)
	waitQueue  []int  // fixed-size ring of waiting core indices
}

type ihluRequest struct {
	core   int
	objRef uint32
	unlock bool
}

// IHLU is a CAM of up to cfg.LockSlots object locks, processed one request
// at a time through the IDLE -> RAM_READ -> RAM_DELAY -> EXECUTE -> IDLE
// pipeline, with a per-core toggle handshake so a requesting core can detect
// completion by an edge rather than by polling a shared ready flag.
type IHLU struct {
	slots         []lockSlot
	reentrantMask uint32
	coreCount     int

	phase           IhluPhase
	current         ihluRequest
	hasCurrent      bool
	result          LockResult
	resultCore      int

	reqToggle []bool // per-core: flipped by the requesting core to submit
	ackToggle []bool // per-core: flipped by IHLU when that core's result is ready

	tableFull bool
}

func NewIHLU(cfg Config) *IHLU {
	h := &IHLU{
		slots:         make([]lockSlot, cfg.LockSlots),
		reentrantMask: uint32(1)<<cfg.ReentrantBits - 1,
		coreCount:     int(cfg.CoreCount),
		reqToggle:     make([]bool, cfg.CoreCount),
		ackToggle:     make([]bool, cfg.CoreCount),
	}
	for i := range h.slots {
		h.slots[i].waitQueue = make([]int, cfg.CoreCount+1)
	}
	return h
}

// Submit posts a lock (unlock=false) or unlock (unlock=true) request for
// core/objRef. The core flips its own reqToggle bit to signal a new
// request; IHLU only accepts one request at a time (phase must be idle).
// Returns false if busy; the core must hold reqToggle flipped and resubmit.
func (h *IHLU) Submit(core int, objRef uint32, unlock bool) bool {
	if h.phase != IhluIdle || h.hasCurrent {
		return false
	}
	h.current = ihluRequest{core: core, objRef: objRef, unlock: unlock}
	h.hasCurrent = true
	h.phase = IhluRamRead
	h.reqToggle[core] = !h.reqToggle[core]
	return true
}

// Tick advances the 4-phase FSM by one cycle.
func (h *IHLU) Tick() {
	switch h.phase {
	case IhluRamRead:
		h.phase = IhluRamDelay
	case IhluRamDelay:
		h.phase = IhluExecute
	case IhluExecute:
		h.execute()
		h.phase = IhluIdle
		h.hasCurrent = false
		h.ackToggle[h.resultCore] = !h.ackToggle[h.resultCore]
	}
}

func (h *IHLU) execute() {
	req := h.current
	h.resultCore = req.core
	if req.unlock {
		h.result = h.doUnlock(req)
	} else {
		h.result = h.doLock(req)
	}
}

func (h *IHLU) findSlot(objRef uint32) int {
	for i := range h.slots {
		if h.slots[i].valid && h.slots[i].objRef == objRef {
			return i
		}
	}
	return -1
}

func (h *IHLU) doLock(req ihluRequest) LockResult {
	if i := h.findSlot(req.objRef); i >= 0 {
		s := &h.slots[i]
		if s.owner == req.core {
			s.reentrant = (s.reentrant + 1) & h.reentrantMask
			return LockGranted
		}
		s.waitQueue[s.waitTail] = req.core
		s.waitTail = (s.waitTail + 1) % uint32(len(s.waitQueue))
		return LockQueued
	}
	for i := range h.slots {
		if !h.slots[i].valid {
			h.slots[i] = lockSlot{valid: true, objRef: req.objRef, owner: req.core, reentrant: 1, waitQueue: h.slots[i].waitQueue}
			h.tableFull = false
			return LockGranted
		}
	}
	h.tableFull = true
	logf("ihlu", "lock table full, core %d denied object 0x%X", req.core, req.objRef)
	return LockTableFull
}

func (h *IHLU) doUnlock(req ihluRequest) LockResult {
	i := h.findSlot(req.objRef)
	if i < 0 {
		return LockReleasedFreed
	}
	s := &h.slots[i]
	if s.reentrant > 1 {
		s.reentrant--
		return LockStillHeld
	}
	if s.waitHead != s.waitTail {
		s.owner = s.waitQueue[s.waitHead]
		s.waitHead = (s.waitHead + 1) % uint32(len(s.waitQueue))
		s.reentrant = 1
		return LockReleasedHandoff
	}
	*s = lockSlot{waitQueue: s.waitQueue}
	return LockReleasedFreed
}

// Result returns the outcome of the most recently completed request and
// which core it belongs to.
func (h *IHLU) Result() (LockResult, int) { return h.result, h.resultCore }

// TableFull reports whether the CAM has been observed full since the last
// successful allocation of a new slot.
func (h *IHLU) TableFull() bool { return h.tableFull }

// HoldsAnyLock reports whether core currently owns at least one slot,
// exempting it from a garbage-collector halt request: a lock owner is never
// halted out from under the lock it holds.
func (h *IHLU) HoldsAnyLock(core int) bool {
	for i := range h.slots {
		if h.slots[i].valid && h.slots[i].owner == core && h.slots[i].reentrant > 0 {
			return true
		}
	}
	return false
}

func (h *IHLU) Reset() {
	for i := range h.slots {
		h.slots[i] = lockSlot{waitQueue: h.slots[i].waitQueue}
	}
	h.phase = IhluIdle
	h.hasCurrent = false
	h.tableFull = false
	for i := range h.reqToggle {
		h.reqToggle[i] = false
		h.ackToggle[i] = false
	}
}
