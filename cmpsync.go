// cmpsync.go - CmpSync: the global lock arbiter shared by every core in a
// multicore instance

package jop

// CmpState names CmpSync's two states.
type CmpState int

const (
	CmpIdle CmpState = iota
	CmpLocked
)

// CmpSync arbitrates a single global lock across CoreCount cores with
// round-robin fairness, and separately broadcasts core 0's s_in signal to
// every core as a shared s_out bit: a minimal inter-core synchronization
// primitive, layered under IHLU's per-object locking.
type CmpSync struct {
	state       CmpState
	owner       int
	lastGranted int
	coreCount   int

	pending []bool // sticky per-core lock requests awaiting grant
	sIn     []bool
}

func NewCmpSync(coreCount int) *CmpSync {
	return &CmpSync{
		coreCount:   coreCount,
		lastGranted: coreCount - 1, // so the first scan starts at core 0
		pending:     make([]bool, coreCount),
		sIn:         make([]bool, coreCount),
	}
}

// Request asserts core's sticky request for the global lock; the caller
// keeps calling Request every cycle until Owner() reports it granted.
func (c *CmpSync) Request(core int) {
	c.pending[core] = true
}

// Release drops core's request. The owning core must call this to hand the
// lock back; the arbiter never preempts an owner itself (the "owner is
// never halted" invariant -- only the owner's own Release moves state out
// of Locked).
func (c *CmpSync) Release(core int) {
	c.pending[core] = false
	if c.owner == core && c.state == CmpLocked {
		c.state = CmpIdle
	}
}

// Owner reports the current lock holder and whether the lock is held.
func (c *CmpSync) Owner() (core int, held bool) { return c.owner, c.state == CmpLocked }

// Tick grants the lock if idle, scanning for the next pending requester in
// round-robin order starting just after the last-granted core (a reverse
// scan relative to request priority: the most recently served core is
// least eligible, so starvation cannot recur two grants in a row).
func (c *CmpSync) Tick() {
	if c.state == CmpLocked {
		return
	}
	for i := 1; i <= c.coreCount; i++ {
		cand := (c.lastGranted + i) % c.coreCount
		if c.pending[cand] {
			c.owner = cand
			c.state = CmpLocked
			c.lastGranted = cand
			return
		}
	}
}

// SetSIn latches core's s_in value; only core 0's value is ever broadcast.
func (c *CmpSync) SetSIn(core int, v bool) { c.sIn[core] = v }

// SOut is the shared signal every core reads: core 0's s_in, unconditionally.
func (c *CmpSync) SOut() bool { return c.sIn[0] }

func (c *CmpSync) Reset() {
	c.state = CmpIdle
	c.owner = 0
	c.lastGranted = c.coreCount - 1
	for i := range c.pending {
		c.pending[i] = false
		c.sIn[i] = false
	}
}
