// Package multicore wires several jop.Core instances to a shared bus,
// CmpSync arbiter and IHLU, and barrier-synchronizes their cycle-by-cycle
// ticking with errgroup: every core's Tick for cycle N completes before any
// core begins cycle N+1.
package multicore

import (
	"context"

	"golang.org/x/sync/errgroup"

	"jopcore"
)

// System is a complete multicore instance: CoreCount cores sharing one bus,
// one CmpSync arbiter and one IHLU.
type System struct {
	Cores []*jop.Core
	Sync  *jop.CmpSync
	IHLU  *jop.IHLU
	Bus   *jop.SystemBus

	cfg jop.Config
}

// New builds a System of cfg.CoreCount cores, each with its own microcode
// ROM image and jump table but sharing bus/sync/ihlu.
func New(cfg jop.Config, bus *jop.SystemBus, roms []*jop.MicroROM, jts []*jop.JumpTable) *System {
	s := &System{
		Sync: jop.NewCmpSync(int(cfg.CoreCount)),
		IHLU: jop.NewIHLU(cfg),
		Bus:  bus,
		cfg:  cfg,
	}
	for i := uint(0); i < cfg.CoreCount; i++ {
		s.Cores = append(s.Cores, jop.NewCore(cfg, roms[i], jts[i], bus))
	}
	return s
}

// Tick runs exactly one cycle across every core, then advances the shared
// bus and arbiters. Every core's Tick is dispatched concurrently and the
// whole step is a barrier: Tick does not return until every core has
// finished cycle N, so no core can observe another core's cycle-N+1 state.
// errgroup.Group carries the first panic/error out of the fan-out instead of
// silently dropping it. Cores share nothing but the bus (each has its own
// fetch/decode/stack/memory-controller state); SystemBus serializes
// Submit/Tick/TakeResponse internally, so two cores issuing bus traffic in
// the same cycle are arbitrated one at a time rather than racing.
func (s *System) Tick(ctx context.Context) error {
	g, _ := errgroup.WithContext(ctx)
	for _, core := range s.Cores {
		core := core
		g.Go(func() error {
			core.Tick()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.Sync.Tick()
	s.IHLU.Tick()
	s.Bus.Tick()
	return nil
}

// Run advances the system for the given number of cycles, stopping early if
// ctx is cancelled.
func (s *System) Run(ctx context.Context, cycles int) error {
	for i := 0; i < cycles; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := s.Tick(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *System) Reset() {
	for _, c := range s.Cores {
		c.Reset()
	}
	s.Sync.Reset()
	s.IHLU.Reset()
	s.Bus.Reset()
}
