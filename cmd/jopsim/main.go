// jopsim is the batch runner: load a microcode ROM image and a JBC class
// image, run a fixed number of cycles, and report final core state.
package main

import (
	"fmt"
	"os"
	"strconv"

	"jopcore"
)

func usage() {
	fmt.Println("Usage: jopsim romfile jbcfile cycles")
}

func main() {
	if len(os.Args) != 4 {
		usage()
		os.Exit(1)
	}

	romFile := os.Args[1]
	jbcFile := os.Args[2]
	cycles, err := strconv.Atoi(os.Args[3])
	if err != nil {
		fmt.Printf("invalid cycle count: %v\n", err)
		os.Exit(1)
	}

	cfg := jop.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	romBytes, err := os.ReadFile(romFile)
	if err != nil {
		fmt.Printf("error loading ROM: %v\n", err)
		os.Exit(1)
	}
	jbcBytes, err := os.ReadFile(jbcFile)
	if err != nil {
		fmt.Printf("error loading JBC image: %v\n", err)
		os.Exit(1)
	}

	rom := jop.NewMicroROM(uint32(1) << cfg.PCWidth)
	rom.Load(decodeRom(romBytes))

	jt := jop.NewJumpTable([256]uint32{}, cfg.SysIntAddr, cfg.SysExcAddr)

	bus := jop.NewSystemBus(1<<24, 1)
	core := jop.NewCore(cfg, rom, jt, bus)
	core.Bytecode().LoadJBC(jbcBytes)

	for i := 0; i < cycles; i++ {
		core.Tick()
	}

	fmt.Printf("ran %d cycles\n", cycles)
	fmt.Printf("jpc=0x%X sp=%d a=0x%X b=0x%X\n",
		core.Bytecode().JPC, core.Stack().SP, core.Stack().A, core.Stack().B)
}

// decodeRom unpacks a ROM image file into MicroEntry records: 2 bytes of
// flags (bit0 jfetch, bit1 jopdfetch) followed by 2 bytes of instr, per
// entry, little-endian.
func decodeRom(data []byte) []jop.MicroEntry {
	var entries []jop.MicroEntry
	for i := 0; i+4 <= len(data); i += 4 {
		flags := uint16(data[i]) | uint16(data[i+1])<<8
		instr := uint16(data[i+2]) | uint16(data[i+3])<<8
		entries = append(entries, jop.MicroEntry{
			JFetch:    flags&0x1 != 0,
			JOpdFetch: flags&0x2 != 0,
			Instr:     instr & 0x3FF,
		})
	}
	return entries
}
