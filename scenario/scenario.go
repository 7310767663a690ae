// Package scenario runs Lua-scripted test programs against a single
// jop.Core, giving SPEC_FULL.md's end-to-end scenarios (S1-S6) a data-driven
// home instead of being hand-coded into Go test functions one at a time.
package scenario

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"jopcore"
)

// Result is what a scenario script reports back via core.tick and
// core.assert_eq calls.
type Result struct {
	Cycles    int
	Assertions int
	Failures  []string
}

func (r Result) Passed() bool { return len(r.Failures) == 0 }

// Run loads and executes the Lua script at path against a fresh core built
// from cfg, rom and jt, over a shared bus. The script drives the core via
// the injected `core` table (core.tick(), core.jpc(), core.sp(), core.a(),
// core.b(), core.load_jbc({byte, ...})) and reports expectations via
// core.assert_eq(got, want, msg).
func Run(path string, cfg jop.Config, rom *jop.MicroROM, jt *jop.JumpTable, bus *jop.SystemBus) (Result, error) {
	c := jop.NewCore(cfg, rom, jt, bus)
	res := &Result{}

	L := lua.NewState()
	defer L.Close()

	coreTable := L.NewTable()
	L.SetField(coreTable, "tick", L.NewFunction(func(L *lua.LState) int {
		c.Tick()
		res.Cycles++
		return 0
	}))
	L.SetField(coreTable, "jpc", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(c.Bytecode().JPC))
		return 1
	}))
	L.SetField(coreTable, "sp", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(c.Stack().SP))
		return 1
	}))
	L.SetField(coreTable, "a", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(c.Stack().A))
		return 1
	}))
	L.SetField(coreTable, "b", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(c.Stack().B))
		return 1
	}))
	L.SetField(coreTable, "load_jbc", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		var data []byte
		tbl.ForEach(func(_, v lua.LValue) {
			data = append(data, byte(float64(v.(lua.LNumber))))
		})
		c.Bytecode().LoadJBC(data)
		return 0
	}))
	L.SetField(coreTable, "assert_eq", L.NewFunction(func(L *lua.LState) int {
		got := L.CheckAny(1)
		want := L.CheckAny(2)
		msg := L.OptString(3, "")
		res.Assertions++
		if got.String() != want.String() {
			res.Failures = append(res.Failures, fmt.Sprintf("%s: got %v, want %v", msg, got, want))
		}
		return 0
	}))
	L.SetGlobal("core", coreTable)

	if err := L.DoFile(path); err != nil {
		return *res, fmt.Errorf("scenario: %s: %w", path, err)
	}
	return *res, nil
}
