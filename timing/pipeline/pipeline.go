// Package pipeline provides the cycle-accurate 5-stage MIPS32 pipeline
// at the center of this simulator: IF/ID/EX/MEM/WB latches, a hazard
// unit that can either stall on every RAW dependency or forward results
// between stages, and a branch/flush protocol for taken branches and
// jumps.
package pipeline

import (
	"io"
	"os"

	"github.com/sarchlab/mips5sim/emu"
	"github.com/sarchlab/mips5sim/timing/cache"
)

// Pipeline is a 5-stage MIPS32 pipeline: IF, ID, EX, MEM, WB, driven one
// cycle at a time by Tick. Every stage observes the latch values as
// they stood at the START of the cycle (the previous cycle's outputs)
// and writes into a fresh value for the next cycle; nothing is read
// back after it has been overwritten within the same Tick.
type Pipeline struct {
	fetch   *FetchStage
	decode  *DecodeStage
	execute *ExecuteStage
	memory  *MemoryStage
	wb      *WritebackStage

	hazard *HazardUnit

	arch *emu.ArchState
	mem  *emu.Memory
	dc   *cache.Cache

	pc uint32

	ifid  IFIDRegister
	idex  IDEXRegister
	exmem EXMEMRegister
	memwb MEMWBRegister

	cycles       uint64
	instructions uint64
	stalls       uint64
	flushes      uint64

	halted bool
}

// New creates a pipeline over the given memory and L1 data cache,
// starting in stall-only (forwarding-disabled) mode. Unimplemented
// opcode and unimplemented-syscall diagnostics go to os.Stderr; use
// NewWithDiagnostics to redirect or silence them.
func New(mem *emu.Memory, dc *cache.Cache) *Pipeline {
	return NewWithDiagnostics(mem, dc, os.Stderr)
}

// NewWithDiagnostics is like New but lets the caller choose (or
// suppress, with nil) the destination for unimplemented-opcode and
// unimplemented-syscall diagnostics.
func NewWithDiagnostics(mem *emu.Memory, dc *cache.Cache, diagnostics io.Writer) *Pipeline {
	arch := emu.NewArchState()
	syscallHandler := emu.NewDefaultSyscallHandler(&arch.Current, diagnostics)

	// Decode reads the Next snapshot: WB runs first within a tick and
	// commits there, so a register written back this cycle is readable
	// by an instruction decoding this cycle (the write-in-first-half,
	// read-in-second-half register file convention).
	return &Pipeline{
		fetch:   NewFetchStage(mem),
		decode:  NewDecodeStage(&arch.Next, diagnostics),
		execute: NewExecuteStage(&arch.Current, syscallHandler),
		memory:  NewMemoryStage(dc),
		wb:      NewWritebackStage(&arch.Next),
		hazard:  NewHazardUnit(),
		arch:    arch,
		mem:     mem,
		dc:      dc,
	}
}

// SetForwarding toggles the hazard unit between stall-only (false) and
// forwarding (true) modes. Matches the CLI's "f 0|1" command.
func (p *Pipeline) SetForwarding(enabled bool) {
	p.hazard.SetForwarding(enabled)
}

// ForwardingEnabled reports the current hazard-handling mode.
func (p *Pipeline) ForwardingEnabled() bool {
	return p.hazard.ForwardingEnabled()
}

// SetPC sets the program counter the next fetch will use.
func (p *Pipeline) SetPC(pc uint32) {
	p.pc = pc
	p.arch.Current.PC = pc
	p.arch.Next.PC = pc
}

// PC returns the current program counter.
func (p *Pipeline) PC() uint32 {
	return p.pc
}

// Halted reports whether the simulation has stopped (SYSCALL with
// $v0==0xA retired).
func (p *Pipeline) Halted() bool {
	return p.halted
}

// Reg reads a general-purpose register (register 0 always reads zero).
func (p *Pipeline) Reg(i uint8) uint32 {
	return p.arch.Current.ReadReg(i)
}

// SetReg writes a general-purpose register directly (used by the CLI's
// "input" command); writes to register 0 have no effect.
func (p *Pipeline) SetReg(i uint8, v uint32) {
	p.arch.Current.WriteReg(i, v)
	p.arch.Next.WriteReg(i, v)
}

// HI returns the current HI register.
func (p *Pipeline) HI() uint32 { return p.arch.Current.HI }

// LO returns the current LO register.
func (p *Pipeline) LO() uint32 { return p.arch.Current.LO }

// SetHI sets HI in both snapshots (used by the CLI's "high" command).
func (p *Pipeline) SetHI(v uint32) { p.arch.Current.HI = v; p.arch.Next.HI = v }

// SetLO sets LO in both snapshots (used by the CLI's "low" command).
func (p *Pipeline) SetLO(v uint32) { p.arch.Current.LO = v; p.arch.Next.LO = v }

// Stats holds the pipeline's cycle-accounting counters.
type Stats struct {
	Cycles       uint64
	Instructions uint64
	Stalls       uint64
	Flushes      uint64
}

// Stats returns the pipeline's performance counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Cycles:       p.cycles,
		Instructions: p.instructions,
		Stalls:       p.stalls,
		Flushes:      p.flushes,
	}
}

// CacheStats returns the L1 data cache's hit/miss counters.
func (p *Pipeline) CacheStats() cache.Statistics {
	return p.dc.Stats()
}

// GetIFID returns the current IF/ID latch for inspection (the CLI's
// "show" command).
func (p *Pipeline) GetIFID() IFIDRegister { return p.ifid }

// GetIDEX returns the current ID/EX latch for inspection.
func (p *Pipeline) GetIDEX() IDEXRegister { return p.idex }

// GetEXMEM returns the current EX/MEM latch for inspection.
func (p *Pipeline) GetEXMEM() EXMEMRegister { return p.exmem }

// GetMEMWB returns the current MEM/WB latch for inspection.
func (p *Pipeline) GetMEMWB() MEMWBRegister { return p.memwb }

// Reset reinitializes cycle/instruction counters, architectural state,
// and the cache. The program image in memory and the forwarding mode
// are left untouched.
func (p *Pipeline) Reset() {
	p.arch.Reset()
	p.dc.Reset()
	p.pc = 0
	p.ifid = IFIDRegister{}
	p.idex = IDEXRegister{}
	p.exmem = EXMEMRegister{}
	p.memwb = MEMWBRegister{}
	p.cycles = 0
	p.instructions = 0
	p.stalls = 0
	p.flushes = 0
	p.halted = false
}

// Tick advances the pipeline by exactly one cycle. Stages run in WB,
// MEM, EX, ID, IF order: the consumer of a latch runs before its
// producer, so each stage sees the previous cycle's output. Hazard and
// flush decisions are made against a snapshot of the latches taken at
// the start of the cycle, before anything is overwritten.
func (p *Pipeline) Tick() {
	if p.halted {
		return
	}
	p.cycles++

	oldIFID, oldIDEX, oldEXMEM, oldMEMWB := p.ifid, p.idex, p.exmem, p.memwb

	halt := p.doWriteback(&oldMEMWB)
	p.doMemory(&oldEXMEM)
	branchTaken, branchTarget := p.doExecute(&oldIDEX, &oldEXMEM, &oldMEMWB)

	var decoded IDEXRegister
	var loadUseStall, stallHazard bool
	if oldIFID.Valid && !branchTaken {
		decoded = p.decode.Decode(oldIFID.IR, oldIFID.PC)
		loadUseStall = p.hazard.DetectLoadUseHazard(&oldIDEX, decoded.UsesRs, decoded.UsesRt, decoded.Rs, decoded.Rt)
		if !loadUseStall && !p.hazard.ForwardingEnabled() {
			stallHazard = p.hazard.DetectStallHazard(&oldIDEX, &oldEXMEM, &oldMEMWB, decoded.UsesRs, decoded.UsesRt, decoded.Rs, decoded.Rt)
		}
	}

	switch {
	case branchTaken:
		p.flushes++
		p.idex = IDEXRegister{}
		p.ifid = IFIDRegister{}
		p.pc = branchTarget
	case loadUseStall || stallHazard:
		p.stalls++
		p.idex = IDEXRegister{}
		p.ifid = oldIFID
	default:
		if oldIFID.Valid {
			p.idex = decoded
		} else {
			p.idex = IDEXRegister{}
		}
		word := p.fetch.Fetch(p.pc)
		p.ifid = IFIDRegister{Valid: true, IR: word, PC: p.pc}
		p.pc += 4
	}

	p.arch.Advance()

	if halt {
		p.halted = true
	}
}

// doExecute runs the EX stage for the instruction in idex, applying the
// forwarding mux (when enabled) before calling the ALU, and installs
// the EX/MEM latch for this cycle. The forwarding sources are the
// start-of-cycle EX/MEM and MEM/WB snapshots: the instructions one and
// two ahead of the one executing now. Returns whether a branch/jump
// was resolved taken and its target.
func (p *Pipeline) doExecute(idex *IDEXRegister, exmem *EXMEMRegister, memwb *MEMWBRegister) (bool, uint32) {
	if !idex.Valid {
		p.exmem = EXMEMRegister{}
		return false, 0
	}

	fwd := p.hazard.DetectForwarding(idex, exmem, memwb)
	a := p.hazard.Resolve(fwd.ForwardA, idex.A, exmem, memwb)
	b := p.hazard.Resolve(fwd.ForwardB, idex.B, exmem, memwb)

	res := p.execute.Execute(idex, a, b)

	p.exmem = EXMEMRegister{
		Valid:      true,
		PC:         idex.PC,
		IR:         idex.IR,
		Inst:       idex.Inst,
		ALUOutput:  res.ALUOutput,
		B:          res.StoreValue,
		AA:         res.AA,
		Remainder:  res.Remainder,
		DivByZero:  res.DivByZero,
		Rd:         idex.Rd,
		RegWrite:   idex.RegWrite,
		MemRead:    idex.MemRead,
		MemWrite:   idex.MemWrite,
		MemWidth:   idex.MemWidth,
		WriteKind:  idex.WriteKind,
		WriteHI:    idex.WriteHI,
		WriteLO:    idex.WriteLO,
		IsMultiply: idex.IsMultiply,
		IsDivide:   idex.IsDivide,
		Halt:       res.Halt,
	}

	return res.BranchTaken, res.BranchTarget
}

// doMemory runs the MEM stage for the instruction in exmem and installs
// the MEM/WB latch for this cycle.
func (p *Pipeline) doMemory(exmem *EXMEMRegister) {
	if !exmem.Valid {
		p.memwb = MEMWBRegister{}
		return
	}

	lmd := p.memory.Access(exmem)

	p.memwb = MEMWBRegister{
		Valid:      true,
		PC:         exmem.PC,
		IR:         exmem.IR,
		Inst:       exmem.Inst,
		ALUOutput:  exmem.ALUOutput,
		LMD:        lmd,
		AA:         exmem.AA,
		Remainder:  exmem.Remainder,
		DivByZero:  exmem.DivByZero,
		Rd:         exmem.Rd,
		RegWrite:   exmem.RegWrite,
		WriteKind:  exmem.WriteKind,
		WriteHI:    exmem.WriteHI,
		WriteLO:    exmem.WriteLO,
		IsMultiply: exmem.IsMultiply,
		IsDivide:   exmem.IsDivide,
		Halt:       exmem.Halt,
	}
}

// doWriteback runs the WB stage for the instruction in memwb. Bubbles
// do not increment the instruction counter. Returns whether this
// retirement halts the simulation.
func (p *Pipeline) doWriteback(memwb *MEMWBRegister) bool {
	if !memwb.Valid {
		return false
	}

	p.wb.Writeback(memwb)
	p.instructions++

	return memwb.Halt
}

// Run executes the pipeline until the program halts.
func (p *Pipeline) Run() {
	for !p.halted {
		p.Tick()
	}
}

// RunCycles executes the pipeline for up to n cycles, stopping early if
// the program halts. Returns true if still running.
func (p *Pipeline) RunCycles(n uint64) bool {
	for i := uint64(0); i < n && !p.halted; i++ {
		p.Tick()
	}
	return !p.halted
}
