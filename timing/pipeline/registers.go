package pipeline

import "github.com/sarchlab/mips5sim/insts"

// WriteKind selects what a latch's register write commits at WB.
type WriteKind uint8

const (
	// WriteNone means the instruction writes no general-purpose register.
	WriteNone WriteKind = iota
	// WriteALU commits ALUOutput to the destination register.
	WriteALU
	// WriteMem commits the sign-extended LMD to the destination register.
	WriteMem
	// WriteLink commits ALUOutput (the precomputed return address) to the
	// destination register, for JAL/JALR.
	WriteLink
)

// IFIDRegister is the latch between Fetch and Decode: the fetched
// instruction word and its own address.
type IFIDRegister struct {
	Valid bool
	IR    uint32
	PC    uint32 // address of the fetched instruction
}

// Clear turns the latch into a bubble.
func (r *IFIDRegister) Clear() {
	*r = IFIDRegister{}
}

// IDEXRegister is the latch between Decode and Execute: decoded control
// bits, source register values (not yet forwarded) and indices, and the
// sign/zero-extended immediate.
type IDEXRegister struct {
	Valid bool
	PC    uint32
	IR    uint32

	Inst *insts.Instruction

	A, B  uint32 // register-file operand values read in ID
	Imm   uint32
	Shamt uint8

	Rs, Rt, Rd uint8 // source and destination register indices

	RegWrite  bool
	MemRead   bool
	MemWrite  bool
	MemWidth  int // 1, 2, or 4 bytes; 0 if not a memory op
	WriteKind WriteKind

	WriteHI    bool // MTHI
	WriteLO    bool // MTLO
	IsMultiply bool // MULT/MULTU
	IsUnsigned bool // MULTU/DIVU/SLTU-style unsigned semantics
	IsDivide   bool // DIV/DIVU

	IsBranchFamily bool // BEQ/BNE/BLEZ/BGTZ/BLTZ/BGEZ/J/JAL/JR/JALR
	IsSyscall      bool
	UsesRs, UsesRt bool // whether Rs/Rt are read operands (for hazard checks)

	LinkPC uint32 // precomputed PC+8 for JAL/JALR; 0 otherwise
}

// Clear turns the latch into a bubble.
func (r *IDEXRegister) Clear() {
	*r = IDEXRegister{}
}

// EXMEMRegister is the latch between Execute and Memory.
type EXMEMRegister struct {
	Valid bool
	PC    uint32
	IR    uint32
	Inst  *insts.Instruction

	ALUOutput uint32
	B         uint32 // store value
	AA        uint64 // 64-bit MULT/MULTU product
	Remainder uint32 // DIV/DIVU remainder
	DivByZero bool

	Rd uint8

	RegWrite  bool
	MemRead   bool
	MemWrite  bool
	MemWidth  int
	WriteKind WriteKind

	WriteHI    bool
	WriteLO    bool
	IsMultiply bool
	IsDivide   bool
	Halt       bool
}

// Clear turns the latch into a bubble.
func (r *EXMEMRegister) Clear() {
	*r = EXMEMRegister{}
}

// MEMWBRegister is the latch between Memory and Writeback.
type MEMWBRegister struct {
	Valid bool
	PC    uint32
	IR    uint32
	Inst  *insts.Instruction

	ALUOutput uint32
	LMD       uint32
	AA        uint64
	Remainder uint32
	DivByZero bool

	Rd uint8

	RegWrite  bool
	WriteKind WriteKind

	WriteHI    bool
	WriteLO    bool
	IsMultiply bool
	IsDivide   bool
	Halt       bool
}

// Clear turns the latch into a bubble.
func (r *MEMWBRegister) Clear() {
	*r = MEMWBRegister{}
}
