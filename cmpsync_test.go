package jop

import "testing"

func TestCmpSyncGrantsOnRequest(t *testing.T) {
	c := NewCmpSync(3)
	c.Request(1)
	c.Tick()
	owner, held := c.Owner()
	if !held || owner != 1 {
		t.Fatalf("Owner() = (%d, %v), want (1, true)", owner, held)
	}
}

// TestCmpSyncOwnerNeverPreempted verifies the owner-never-halted invariant:
// another core's pending request cannot move the lock off its current owner
// until the owner itself releases.
func TestCmpSyncOwnerNeverPreempted(t *testing.T) {
	c := NewCmpSync(2)
	c.Request(0)
	c.Tick()
	if owner, held := c.Owner(); !held || owner != 0 {
		t.Fatalf("expected core 0 to hold the lock, got (%d, %v)", owner, held)
	}
	c.Request(1)
	for i := 0; i < 5; i++ {
		c.Tick()
	}
	if owner, held := c.Owner(); !held || owner != 0 {
		t.Fatalf("core 1's request preempted the owner: (%d, %v)", owner, held)
	}
	c.Release(0)
	c.Tick()
	if owner, held := c.Owner(); !held || owner != 1 {
		t.Fatalf("after release, expected core 1 to be granted, got (%d, %v)", owner, held)
	}
}

// TestCmpSyncRoundRobinFairness verifies that two cores perpetually
// requesting the lock alternate ownership rather than one starving the other.
func TestCmpSyncRoundRobinFairness(t *testing.T) {
	c := NewCmpSync(2)
	var owners []int
	for i := 0; i < 4; i++ {
		c.Request(0)
		c.Request(1)
		c.Tick()
		owner, _ := c.Owner()
		owners = append(owners, owner)
		c.Release(owner)
	}
	for i := 1; i < len(owners); i++ {
		if owners[i] == owners[i-1] {
			t.Fatalf("same core granted twice in a row: %v", owners)
		}
	}
}

func TestCmpSyncSOutIsCoreZeroOnly(t *testing.T) {
	c := NewCmpSync(3)
	c.SetSIn(0, true)
	c.SetSIn(1, true)
	c.SetSIn(2, true)
	if !c.SOut() {
		t.Fatal("SOut() should reflect core 0's s_in")
	}
	c.SetSIn(0, false)
	if c.SOut() {
		t.Fatal("SOut() should track only core 0's s_in, not cores 1/2")
	}
}
