package pipeline

import (
	"fmt"
	"io"

	"github.com/sarchlab/mips5sim/emu"
	"github.com/sarchlab/mips5sim/insts"
	"github.com/sarchlab/mips5sim/timing/cache"
)

// FetchStage reads the instruction word at the current PC. Instruction
// fetch never misses (the instruction memory is a flat region), so
// there is no cache or stall path here.
type FetchStage struct {
	memory *emu.Memory
}

// NewFetchStage creates a new fetch stage over the given flat memory.
func NewFetchStage(memory *emu.Memory) *FetchStage {
	return &FetchStage{memory: memory}
}

// Fetch reads the 32-bit instruction word at pc.
func (s *FetchStage) Fetch(pc uint32) uint32 {
	return s.memory.Read32(pc)
}

// usesRegs reports whether an instruction reads Rs and/or Rt, which the
// hazard unit needs before the full decode result is committed to a
// latch (to evaluate a load-use hazard against the instruction about to
// enter ID/EX).
func usesRegs(inst *insts.Instruction) (usesRs, usesRt bool) {
	switch inst.Op {
	case insts.OpSLL, insts.OpSRL, insts.OpSRA:
		return false, true
	case insts.OpJR, insts.OpJALR, insts.OpMTHI, insts.OpMTLO:
		return true, false
	case insts.OpMFHI, insts.OpMFLO, insts.OpLUI, insts.OpJ, insts.OpJAL,
		insts.OpSYSCALL, insts.OpUnknown:
		return false, false
	case insts.OpBLTZ, insts.OpBGEZ, insts.OpBLEZ, insts.OpBGTZ,
		insts.OpADDI, insts.OpADDIU, insts.OpSLTI, insts.OpANDI, insts.OpORI, insts.OpXORI,
		insts.OpLB, insts.OpLH, insts.OpLW:
		return true, false
	default:
		// ADD/ADDU/SUB/SUBU/AND/OR/XOR/NOR/SLT, MULT/MULTU/DIV/DIVU,
		// BEQ/BNE, SB/SH/SW: all read both Rs and Rt.
		return true, true
	}
}

func memWidth(op insts.Op) int {
	switch op {
	case insts.OpLB, insts.OpSB:
		return 1
	case insts.OpLH, insts.OpSH:
		return 2
	case insts.OpLW, insts.OpSW:
		return 4
	default:
		return 0
	}
}

// DecodeStage decodes the IF/ID instruction word and reads the register
// file to populate the ID/EX latch.
type DecodeStage struct {
	regFile *emu.RegFile
	decoder *insts.Decoder
	stderr  io.Writer
}

// NewDecodeStage creates a new decode stage over the given register
// file snapshot. The pipeline hands it the Next snapshot so a register
// committed by this cycle's writeback is readable by this cycle's
// decode. Unimplemented opcodes are reported to stderr and decode to a
// bubble, so they are never retired.
func NewDecodeStage(regFile *emu.RegFile, stderr io.Writer) *DecodeStage {
	return &DecodeStage{regFile: regFile, decoder: insts.NewDecoder(), stderr: stderr}
}

// Decode decodes word (fetched at pc) into a populated ID/EX latch. The
// caller (Pipeline) is responsible for load-use/RAW hazard checks before
// committing this result; Decode itself is purely combinational.
func (s *DecodeStage) Decode(word uint32, pc uint32) IDEXRegister {
	inst := s.decoder.Decode(word)
	if inst.Op == insts.OpUnknown {
		if s.stderr != nil {
			fmt.Fprintf(s.stderr, "unimplemented opcode 0x%08X at PC=0x%08X\n", word, pc)
		}
		return IDEXRegister{PC: pc, IR: word, Inst: inst}
	}
	usesRs, usesRt := usesRegs(inst)

	out := IDEXRegister{
		Valid:  true,
		PC:     pc,
		IR:     word,
		Inst:   inst,
		Rs:     inst.Rs,
		Rt:     inst.Rt,
		Rd:     inst.Rd,
		Shamt:  inst.Shamt,
		A:      s.regFile.ReadReg(inst.Rs),
		B:      s.regFile.ReadReg(inst.Rt),
		UsesRs: usesRs,
		UsesRt: usesRt,
	}

	switch inst.Op {
	case insts.OpSLL, insts.OpSRL, insts.OpSRA:
		out.RegWrite, out.WriteKind = true, WriteALU
		out.Imm = uint32(inst.Shamt)
	case insts.OpADD, insts.OpADDU, insts.OpSUB, insts.OpSUBU,
		insts.OpAND, insts.OpOR, insts.OpXOR, insts.OpNOR, insts.OpSLT:
		out.RegWrite, out.WriteKind = true, WriteALU
	case insts.OpMFHI, insts.OpMFLO:
		out.RegWrite, out.WriteKind = true, WriteALU
	case insts.OpMTHI:
		out.WriteHI = true
	case insts.OpMTLO:
		out.WriteLO = true
	case insts.OpMULT, insts.OpMULTU:
		out.IsMultiply = true
		out.IsUnsigned = inst.Op == insts.OpMULTU
	case insts.OpDIV, insts.OpDIVU:
		out.IsDivide = true
		out.IsUnsigned = inst.Op == insts.OpDIVU
	case insts.OpADDI, insts.OpADDIU, insts.OpSLTI:
		out.RegWrite, out.WriteKind = true, WriteALU
		out.Rd = inst.Rt
		out.Imm = inst.ImmSignExt
	case insts.OpANDI, insts.OpORI, insts.OpXORI:
		out.RegWrite, out.WriteKind = true, WriteALU
		out.Rd = inst.Rt
		out.Imm = inst.ImmZeroExt
	case insts.OpLUI:
		out.RegWrite, out.WriteKind = true, WriteALU
		out.Rd = inst.Rt
		out.Imm = inst.ImmZeroExt << 16
	case insts.OpLB, insts.OpLH, insts.OpLW:
		out.RegWrite, out.WriteKind = true, WriteMem
		out.Rd = inst.Rt
		out.MemRead = true
		out.MemWidth = memWidth(inst.Op)
		out.Imm = inst.ImmSignExt
	case insts.OpSB, insts.OpSH, insts.OpSW:
		out.MemWrite = true
		out.MemWidth = memWidth(inst.Op)
		out.Imm = inst.ImmSignExt
	case insts.OpBEQ, insts.OpBNE, insts.OpBLEZ, insts.OpBGTZ, insts.OpBLTZ, insts.OpBGEZ:
		out.IsBranchFamily = true
		out.Imm = inst.ImmSignExt
	case insts.OpJ:
		out.IsBranchFamily = true
	case insts.OpJAL:
		out.IsBranchFamily = true
		out.RegWrite, out.WriteKind = true, WriteLink
		out.Rd = 31
		out.LinkPC = pc + 8
	case insts.OpJR:
		out.IsBranchFamily = true
	case insts.OpJALR:
		out.IsBranchFamily = true
		out.RegWrite, out.WriteKind = true, WriteLink
		out.LinkPC = pc + 8
	case insts.OpSYSCALL:
		out.IsSyscall = true
		// SYSCALL reads its service number from $v0, so the hazard unit
		// must see it as a reader of register 2.
		out.Rs = 2
		out.A = s.regFile.ReadReg(2)
		out.UsesRs = true
	}

	return out
}

// ExecuteStage computes ALU results, effective addresses, and resolves
// branches/jumps.
type ExecuteStage struct {
	regFile        *emu.RegFile
	syscallHandler emu.SyscallHandler
}

// NewExecuteStage creates a new execute stage over the given (current)
// register file snapshot (needed to read HI/LO) and syscall handler.
func NewExecuteStage(regFile *emu.RegFile, syscallHandler emu.SyscallHandler) *ExecuteStage {
	return &ExecuteStage{regFile: regFile, syscallHandler: syscallHandler}
}

// ExecuteResult holds everything the EX stage produces beyond the
// EX/MEM latch fields the caller copies directly off idex.
type ExecuteResult struct {
	ALUOutput  uint32
	StoreValue uint32
	AA         uint64
	Remainder  uint32
	DivByZero  bool

	BranchTaken  bool
	BranchTarget uint32

	Halt bool
}

// Execute runs the ALU/address/branch datapath for the instruction in
// ID/EX, using already-forwarded operand values a and b in place of
// idex.A/idex.B.
func (s *ExecuteStage) Execute(idex *IDEXRegister, a, b uint32) ExecuteResult {
	var res ExecuteResult
	if !idex.Valid || idex.Inst == nil {
		return res
	}
	inst := idex.Inst

	switch inst.Op {
	case insts.OpSLL:
		res.ALUOutput = emu.Sll(b, idex.Shamt)
	case insts.OpSRL:
		res.ALUOutput = emu.Srl(b, idex.Shamt)
	case insts.OpSRA:
		res.ALUOutput = emu.Sra(b, idex.Shamt)
	case insts.OpADD, insts.OpADDU:
		res.ALUOutput = emu.Add32(a, b)
	case insts.OpSUB, insts.OpSUBU:
		res.ALUOutput = emu.Sub32(a, b)
	case insts.OpAND:
		res.ALUOutput = emu.And32(a, b)
	case insts.OpOR:
		res.ALUOutput = emu.Or32(a, b)
	case insts.OpXOR:
		res.ALUOutput = emu.Xor32(a, b)
	case insts.OpNOR:
		res.ALUOutput = emu.Nor32(a, b)
	case insts.OpSLT:
		res.ALUOutput = emu.Slt(a, b)

	case insts.OpADDI, insts.OpADDIU:
		res.ALUOutput = emu.Add32(a, idex.Imm)
	case insts.OpSLTI:
		res.ALUOutput = emu.Slt(a, idex.Imm)
	case insts.OpANDI:
		res.ALUOutput = emu.And32(a, idex.Imm)
	case insts.OpORI:
		res.ALUOutput = emu.Or32(a, idex.Imm)
	case insts.OpXORI:
		res.ALUOutput = emu.Xor32(a, idex.Imm)
	case insts.OpLUI:
		res.ALUOutput = idex.Imm

	case insts.OpMFHI:
		res.ALUOutput = s.regFile.HI
	case insts.OpMFLO:
		res.ALUOutput = s.regFile.LO
	case insts.OpMTHI, insts.OpMTLO:
		res.ALUOutput = a

	case insts.OpMULT:
		hi, lo := emu.Mult(a, b)
		res.AA = uint64(hi)<<32 | uint64(lo)
	case insts.OpMULTU:
		hi, lo := emu.Multu(a, b)
		res.AA = uint64(hi)<<32 | uint64(lo)
	case insts.OpDIV:
		if b == 0 {
			res.DivByZero = true
		} else {
			q, r := emu.Div(a, b)
			res.ALUOutput, res.Remainder = q, r
		}
	case insts.OpDIVU:
		if b == 0 {
			res.DivByZero = true
		} else {
			q, r := emu.Divu(a, b)
			res.ALUOutput, res.Remainder = q, r
		}

	case insts.OpLB, insts.OpLH, insts.OpLW:
		res.ALUOutput = emu.Add32(a, idex.Imm)
	case insts.OpSB, insts.OpSH, insts.OpSW:
		res.ALUOutput = emu.Add32(a, idex.Imm)
		res.StoreValue = b

	case insts.OpBEQ:
		if a == b {
			res.BranchTaken = true
		}
	case insts.OpBNE:
		if a != b {
			res.BranchTaken = true
		}
	case insts.OpBLEZ:
		if int32(a) <= 0 {
			res.BranchTaken = true
		}
	case insts.OpBGTZ:
		if int32(a) > 0 {
			res.BranchTaken = true
		}
	case insts.OpBLTZ:
		if int32(a) < 0 {
			res.BranchTaken = true
		}
	case insts.OpBGEZ:
		if int32(a) >= 0 {
			res.BranchTaken = true
		}
	case insts.OpJ:
		res.BranchTaken = true
	case insts.OpJAL:
		res.BranchTaken = true
		res.ALUOutput = idex.LinkPC
	case insts.OpJR:
		res.BranchTaken = true
		res.BranchTarget = a
	case insts.OpJALR:
		res.BranchTaken = true
		res.BranchTarget = a
		res.ALUOutput = idex.LinkPC

	case insts.OpSYSCALL:
		if s.syscallHandler.Handle().Halted {
			res.Halt = true
		}
	}

	if res.BranchTaken && res.BranchTarget == 0 {
		switch inst.Op {
		case insts.OpJ, insts.OpJAL:
			npc := idex.PC + 4
			res.BranchTarget = (npc & 0xF0000000) | inst.Target
		case insts.OpJR, insts.OpJALR:
			// already set to a above.
		default:
			npc := idex.PC + 4
			res.BranchTarget = uint32(int32(npc) + int32(idex.Imm)<<2)
		}
	}

	return res
}

// MemoryStage performs the cache-backed load/store access for the
// instruction in EX/MEM.
type MemoryStage struct {
	cache *cache.Cache
}

// NewMemoryStage creates a new memory stage over the given L1 data
// cache.
func NewMemoryStage(c *cache.Cache) *MemoryStage {
	return &MemoryStage{cache: c}
}

// Access performs the load or store for exmem and returns the
// sign-extended LMD for loads (zero for stores/non-memory ops).
func (s *MemoryStage) Access(exmem *EXMEMRegister) uint32 {
	if !exmem.Valid {
		return 0
	}

	if exmem.MemRead {
		wordAddr := exmem.ALUOutput &^ 0x3
		var word uint32
		if s.cache.IsHit(wordAddr) {
			word = s.cache.ReadWord(wordAddr)
		} else {
			word = s.cache.LoadLine(wordAddr)
		}
		return extractLoad(word, exmem.ALUOutput, exmem.MemWidth)
	}

	if exmem.MemWrite {
		s.cache.WriteSized(exmem.ALUOutput, exmem.MemWidth, exmem.B)
	}

	return 0
}

// extractLoad pulls the byte/halfword/word addressed by ea out of the
// full word the cache returned and sign-extends it to 32 bits. The
// cache always deals in whole words (byte offset bits are ignored at
// the cache level); narrowing and sign extension happen here.
func extractLoad(word, ea uint32, width int) uint32 {
	switch width {
	case 1:
		shift := (ea & 0x3) * 8
		b := uint8(word >> shift)
		return uint32(int32(int8(b)))
	case 2:
		shift := (ea & 0x2) * 8
		h := uint16(word >> shift)
		return uint32(int32(int16(h)))
	default:
		return word
	}
}

// WritebackStage commits a retiring instruction's effects to the next
// architectural state snapshot.
type WritebackStage struct {
	regFile *emu.RegFile // next snapshot
}

// NewWritebackStage creates a new writeback stage over the given (next)
// register file snapshot.
func NewWritebackStage(regFile *emu.RegFile) *WritebackStage {
	return &WritebackStage{regFile: regFile}
}

// Writeback commits memwb's effects to the next architectural state
// snapshot. The caller reads memwb.Halt directly to decide whether this
// retirement stops the simulation.
func (s *WritebackStage) Writeback(memwb *MEMWBRegister) {
	if !memwb.Valid {
		return
	}

	if memwb.RegWrite && memwb.Rd != 0 {
		switch memwb.WriteKind {
		case WriteALU, WriteLink:
			s.regFile.WriteReg(memwb.Rd, memwb.ALUOutput)
		case WriteMem:
			s.regFile.WriteReg(memwb.Rd, memwb.LMD)
		}
	}

	if memwb.WriteHI {
		s.regFile.HI = memwb.ALUOutput
	}
	if memwb.WriteLO {
		s.regFile.LO = memwb.ALUOutput
	}
	if memwb.IsMultiply {
		s.regFile.HI = uint32(memwb.AA >> 32)
		s.regFile.LO = uint32(memwb.AA)
	}
	if memwb.IsDivide && !memwb.DivByZero {
		s.regFile.LO = memwb.ALUOutput
		s.regFile.HI = memwb.Remainder
	}
}
