// jopmon is an interactive single-step monitor: it runs a core one cycle at
// a time and lets the user inspect register state between cycles, reading
// raw keystrokes off stdin via golang.org/x/term the same way a
// TerminalHost puts the terminal into raw mode for a debug monitor.
package main

import (
	"bufio"
	"fmt"
	"os"

	"golang.org/x/term"

	"jopcore"
)

func main() {
	cfg := jop.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	rom := jop.NewMicroROM(uint32(1) << cfg.PCWidth)
	jt := jop.NewJumpTable([256]uint32{}, cfg.SysIntAddr, cfg.SysExcAddr)
	bus := jop.NewSystemBus(1<<24, 1)
	core := jop.NewCore(cfg, rom, jt, bus)

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		fmt.Println("jopmon: stdin is not a terminal, running a plain read-eval loop")
		runLoop(core, bufio.NewScanner(os.Stdin))
		return
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Printf("jopmon: could not set raw mode: %v\n", err)
		os.Exit(1)
	}
	defer term.Restore(fd, oldState)

	fmt.Print("jopmon ready: n=step, r=registers, q=quit\r\n")
	buf := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buf); err != nil {
			return
		}
		switch buf[0] {
		case 'n':
			core.Tick()
			fmt.Print("stepped\r\n")
		case 'r':
			printRegs(core)
		case 'q':
			return
		}
	}
}

func runLoop(core *jop.Core, scanner *bufio.Scanner) {
	for scanner.Scan() {
		switch scanner.Text() {
		case "n":
			core.Tick()
			fmt.Println("stepped")
		case "r":
			printRegs(core)
		case "q":
			return
		}
	}
}

func printRegs(core *jop.Core) {
	fmt.Printf("jpc=0x%X pc=0x%X sp=%d a=0x%X b=0x%X\r\n",
		core.Bytecode().JPC, core.Fetch().PC(), core.Stack().SP, core.Stack().A, core.Stack().B)
}
