// config.go - tunable widths and parameters for a core instance

package jop

import "fmt"

// Config captures the compile-time parameters that a real RTL instantiation
// would fix via generics/VHDL generics: register widths, whether the stack
// stage runs in single-RAM or 3-bank cache mode, and the core count for the
// lock arbiters.
type Config struct {
	PCWidth  uint // microcode PC width; ROM has 2^PCWidth entries (default 10 -> 1024)
	JPCWidth uint // Java PC width; JBC holds 2^JPCWidth bytes
	RAMWidth uint // stack RAM address width in single-RAM mode

	CacheMode   bool // true selects the 3-bank rotating stack cache
	ScratchSize uint // scratch RAM size in cache mode (default 64)
	BankSize    uint // per-bank virtual range size in cache mode (default 192 usable of 256)

	CoreCount     uint // number of cores sharing the lock arbiter
	ReentrantBits uint // width of the IHLU reentrant counter
	LockSlots     uint // IHLU CAM depth (default 64)

	SysIntAddr uint32 // reserved jump-table entry: interrupt handler microcode address
	SysExcAddr uint32 // reserved jump-table entry: exception handler microcode address
}

// DefaultConfig returns the single-RAM, single-core configuration used
// throughout the package's own tests unless a test overrides a field.
func DefaultConfig() Config {
	return Config{
		PCWidth:       10,
		JPCWidth:      16,
		RAMWidth:      10,
		CacheMode:     false,
		ScratchSize:   64,
		BankSize:      192,
		CoreCount:     1,
		ReentrantBits: 8,
		LockSlots:     64,
		SysIntAddr:    0x3F0,
		SysExcAddr:    0x3F8,
	}
}

// Validate rejects configurations that would make the stages below
// construct out-of-range registers or index arrays with a zero/negative size.
func (c Config) Validate() error {
	if c.PCWidth == 0 || c.PCWidth > 24 {
		return fmt.Errorf("jop: config: PCWidth out of range: %d", c.PCWidth)
	}
	if c.JPCWidth == 0 || c.JPCWidth > 24 {
		return fmt.Errorf("jop: config: JPCWidth out of range: %d", c.JPCWidth)
	}
	if c.CacheMode {
		if c.ScratchSize == 0 || c.BankSize == 0 {
			return fmt.Errorf("jop: config: cache mode requires non-zero ScratchSize and BankSize")
		}
	} else if c.RAMWidth == 0 || c.RAMWidth > 24 {
		return fmt.Errorf("jop: config: RAMWidth out of range: %d", c.RAMWidth)
	}
	if c.CoreCount == 0 {
		return fmt.Errorf("jop: config: CoreCount must be >= 1")
	}
	if c.ReentrantBits == 0 || c.ReentrantBits > 32 {
		return fmt.Errorf("jop: config: ReentrantBits out of range: %d", c.ReentrantBits)
	}
	if c.LockSlots == 0 {
		return fmt.Errorf("jop: config: LockSlots must be >= 1")
	}
	sysRange := uint32(1) << c.PCWidth
	if c.SysIntAddr >= sysRange || c.SysExcAddr >= sysRange {
		return fmt.Errorf("jop: config: SysIntAddr/SysExcAddr must fit in %d-bit PC", c.PCWidth)
	}
	return nil
}

// ramSize returns the number of addressable stack-RAM entries in single-RAM mode.
func (c Config) ramSize() uint32 {
	return uint32(1) << c.RAMWidth
}

// romSize returns the number of microcode ROM entries (2^PCWidth).
func (c Config) romSize() uint32 {
	return uint32(1) << c.PCWidth
}

// jbcSize returns the JBC byte count (2^JPCWidth).
func (c Config) jbcSize() uint32 {
	return uint32(1) << c.JPCWidth
}
