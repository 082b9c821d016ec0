// Package main provides the entry point for mipssim, a cycle-accurate
// five-stage MIPS32 pipeline simulator with an integrated L1 data
// cache, driven by an interactive command shell.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/mips5sim/emu"
	"github.com/sarchlab/mips5sim/loader"
	"github.com/sarchlab/mips5sim/timing/core"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: mipssim <program.txt>\n")
		os.Exit(1)
	}
	programPath := os.Args[1]

	prog, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	memory := emu.NewMemory()
	for _, seg := range prog.Segments {
		memory.LoadWords(seg.VirtAddr, seg.Words)
	}

	c := core.NewCore(memory)
	c.SetPC(prog.EntryPoint)

	shell := &shell{core: c, out: os.Stdout}
	shell.printBanner(programPath)
	os.Exit(shell.run(os.Stdin))
}

// shell is the interactive command loop. It holds no simulation state of
// its own beyond the core it drives; every command is a thin wrapper
// around the core's exported operations.
type shell struct {
	core *core.Core
	out  *os.File
}

func (s *shell) printBanner(path string) {
	fmt.Fprintf(s.out, "mipssim - five-stage MIPS32 pipeline simulator\n")
	fmt.Fprintf(s.out, "loaded %s, entry 0x%08X\n", path, s.core.Pipeline.PC())
	fmt.Fprintf(s.out, "type ? for a list of commands\n")
}

// run drives the REPL until "quit". Returns the process exit code.
func (s *shell) run(in *os.File) int {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "mipssim> ")
		if !scanner.Scan() {
			return 0
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit":
			return 0
		case "?":
			s.help()
		case "sim", "runAll":
			s.runAll()
		case "run":
			s.runN(fields)
		case "rdump":
			s.rdump()
		case "mdump":
			s.mdump(fields)
		case "input":
			s.input(fields)
		case "high":
			s.setHI(fields)
		case "low":
			s.setLO(fields)
		case "print":
			s.print()
		case "show":
			s.show()
		case "f":
			s.setForwarding(fields)
		case "reset":
			s.core.Reset()
			fmt.Fprintln(s.out, "core reset")
		default:
			fmt.Fprintf(s.out, "unknown command %q, type ? for help\n", fields[0])
		}
	}
}

func (s *shell) help() {
	fmt.Fprintln(s.out, "sim / runAll        run until halt")
	fmt.Fprintln(s.out, "run <n>             run n cycles")
	fmt.Fprintln(s.out, "rdump               dump general-purpose registers, HI/LO, PC")
	fmt.Fprintln(s.out, "mdump <start> <end> dump memory words in [start, end]")
	fmt.Fprintln(s.out, "input <reg> <val>   set a general-purpose register")
	fmt.Fprintln(s.out, "high <v>            set HI")
	fmt.Fprintln(s.out, "low <v>             set LO")
	fmt.Fprintln(s.out, "print               print cycle/instruction/stall/cache stats")
	fmt.Fprintln(s.out, "show                show the four pipeline latches")
	fmt.Fprintln(s.out, "f <0|1>             toggle forwarding (0=stall, 1=forward)")
	fmt.Fprintln(s.out, "reset               reset cycle counters and architectural state")
	fmt.Fprintln(s.out, "?                   this help text")
	fmt.Fprintln(s.out, "quit                exit")
}

func (s *shell) runAll() {
	s.core.Run()
	fmt.Fprintf(s.out, "halted after %d cycles, %d instructions\n",
		s.core.Stats().Cycles, s.core.Stats().Instructions)
}

func (s *shell) runN(fields []string) {
	if len(fields) != 2 {
		fmt.Fprintln(s.out, "usage: run <n>")
		return
	}
	n, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		fmt.Fprintf(s.out, "invalid cycle count %q\n", fields[1])
		return
	}
	running := s.core.RunCycles(n)
	if !running {
		fmt.Fprintf(s.out, "halted after %d cycles\n", s.core.Stats().Cycles)
	}
}

func (s *shell) rdump() {
	p := s.core.Pipeline
	for i := 0; i < 32; i += 4 {
		fmt.Fprintf(s.out, "$%-2d=%08X $%-2d=%08X $%-2d=%08X $%-2d=%08X\n",
			i, p.Reg(uint8(i)), i+1, p.Reg(uint8(i+1)), i+2, p.Reg(uint8(i+2)), i+3, p.Reg(uint8(i+3)))
	}
	fmt.Fprintf(s.out, "HI=%08X LO=%08X PC=%08X\n", p.HI(), p.LO(), p.PC())
}

func (s *shell) mdump(fields []string) {
	if len(fields) != 3 {
		fmt.Fprintln(s.out, "usage: mdump <start> <stop>")
		return
	}
	start, err1 := strconv.ParseUint(strings.TrimPrefix(fields[1], "0x"), 16, 32)
	stop, err2 := strconv.ParseUint(strings.TrimPrefix(fields[2], "0x"), 16, 32)
	if err1 != nil || err2 != nil {
		fmt.Fprintln(s.out, "addresses must be hexadecimal")
		return
	}
	mem := s.core.Memory()
	for addr := uint32(start); addr <= uint32(stop); addr += 4 {
		fmt.Fprintf(s.out, "0x%08X: %08X\n", addr, mem.Read32(addr))
	}
}

func (s *shell) input(fields []string) {
	if len(fields) != 3 {
		fmt.Fprintln(s.out, "usage: input <reg> <val>")
		return
	}
	reg, err1 := strconv.ParseUint(fields[1], 10, 8)
	val, err2 := strconv.ParseUint(fields[2], 0, 32)
	if err1 != nil || err2 != nil || reg > 31 {
		fmt.Fprintln(s.out, "register must be 0-31, value must be numeric")
		return
	}
	s.core.Pipeline.SetReg(uint8(reg), uint32(val))
}

func (s *shell) setHI(fields []string) {
	if len(fields) != 2 {
		fmt.Fprintln(s.out, "usage: high <v>")
		return
	}
	v, err := strconv.ParseUint(fields[1], 0, 32)
	if err != nil {
		fmt.Fprintf(s.out, "invalid value %q\n", fields[1])
		return
	}
	s.core.Pipeline.SetHI(uint32(v))
}

func (s *shell) setLO(fields []string) {
	if len(fields) != 2 {
		fmt.Fprintln(s.out, "usage: low <v>")
		return
	}
	v, err := strconv.ParseUint(fields[1], 0, 32)
	if err != nil {
		fmt.Fprintf(s.out, "invalid value %q\n", fields[1])
		return
	}
	s.core.Pipeline.SetLO(uint32(v))
}

func (s *shell) print() {
	stats := s.core.Stats()
	cacheStats := s.core.CacheStats()
	fmt.Fprintf(s.out, "cycles=%d instructions=%d stalls=%d flushes=%d\n",
		stats.Cycles, stats.Instructions, stats.Stalls, stats.Flushes)
	fmt.Fprintf(s.out, "cache_hits=%d cache_misses=%d\n", cacheStats.Hits, cacheStats.Misses)
	fmt.Fprintf(s.out, "forwarding=%v halted=%v\n",
		s.core.Pipeline.ForwardingEnabled(), s.core.Halted())
}

func (s *shell) show() {
	p := s.core.Pipeline
	ifid := p.GetIFID()
	idex := p.GetIDEX()
	exmem := p.GetEXMEM()
	memwb := p.GetMEMWB()

	fmt.Fprintf(s.out, "IF/ID : valid=%v pc=%08X ir=%08X\n", ifid.Valid, ifid.PC, ifid.IR)
	fmt.Fprintf(s.out, "ID/EX : valid=%v pc=%08X rs=%d rt=%d rd=%d\n", idex.Valid, idex.PC, idex.Rs, idex.Rt, idex.Rd)
	fmt.Fprintf(s.out, "EX/MEM: valid=%v pc=%08X alu=%08X rd=%d\n", exmem.Valid, exmem.PC, exmem.ALUOutput, exmem.Rd)
	fmt.Fprintf(s.out, "MEM/WB: valid=%v pc=%08X alu=%08X lmd=%08X rd=%d\n", memwb.Valid, memwb.PC, memwb.ALUOutput, memwb.LMD, memwb.Rd)
}

func (s *shell) setForwarding(fields []string) {
	if len(fields) != 2 || (fields[1] != "0" && fields[1] != "1") {
		fmt.Fprintln(s.out, "usage: f <0|1>")
		return
	}
	s.core.Pipeline.SetForwarding(fields[1] == "1")
	fmt.Fprintf(s.out, "forwarding %v\n", fields[1] == "1")
}
