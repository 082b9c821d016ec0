package insts

// Op represents a MIPS32 opcode/function combination recognized by this
// decoder.
type Op uint16

// MIPS32 opcodes supported by this pipeline, grouped by encoding class.
const (
	OpUnknown Op = iota

	// R-type (opcode 0, dispatched on funct)
	OpSLL
	OpSRL
	OpSRA
	OpJR
	OpJALR
	OpSYSCALL
	OpMFHI
	OpMTHI
	OpMFLO
	OpMTLO
	OpMULT
	OpMULTU
	OpDIV
	OpDIVU
	OpADD
	OpADDU
	OpSUB
	OpSUBU
	OpAND
	OpOR
	OpXOR
	OpNOR
	OpSLT

	// I-type
	OpBLTZ
	OpBGEZ
	OpBEQ
	OpBNE
	OpBLEZ
	OpBGTZ
	OpADDI
	OpADDIU
	OpSLTI
	OpANDI
	OpORI
	OpXORI
	OpLUI
	OpLB
	OpLH
	OpLW
	OpSB
	OpSH
	OpSW

	// J-type
	OpJ
	OpJAL
)

// Format represents a MIPS32 instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR
	FormatI
	FormatJ
)

// Instruction represents a decoded MIPS32 instruction. Only the fields
// relevant to the instruction's own format are populated; the rest hold
// their zero value.
type Instruction struct {
	Op     Op
	Format Format

	Rs    uint8 // source register 1 (bits [25:21])
	Rt    uint8 // source/destination register 2 (bits [20:16])
	Rd    uint8 // destination register, R-type (bits [15:11])
	Shamt uint8 // shift amount, R-type (bits [10:6])
	Funct uint8 // function code, R-type (bits [5:0])

	// ImmSignExt is the 16-bit immediate sign-extended to 32 bits, used by
	// ADDI/ADDIU/SLTI/LB/LH/LW/SB/SH/SW and as the branch displacement for
	// BEQ/BNE/BLEZ/BGTZ/BLTZ/BGEZ.
	ImmSignExt uint32

	// ImmZeroExt is the 16-bit immediate zero-extended to 32 bits, used by
	// ANDI/ORI/XORI/LUI.
	ImmZeroExt uint32

	// Target is the 26-bit jump target field (bits [25:0]) of J/JAL,
	// already shifted left by 2; combining it with the top 4 bits of
	// PC+4 to form the jump address is the EX stage's job, not the
	// decoder's.
	Target uint32
}

// Decoder decodes MIPS32 machine words into instructions.
type Decoder struct{}

// NewDecoder creates a new MIPS32 instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit MIPS32 instruction word. Unrecognized opcodes
// and funct codes yield an Instruction with Op == OpUnknown; the caller
// (the ID stage) is responsible for the unimplemented-opcode diagnostic.
func (d *Decoder) Decode(word uint32) *Instruction {
	opcode := (word >> 26) & 0x3F

	switch opcode {
	case 0x00:
		return d.decodeRType(word)
	case 0x01:
		return d.decodeRegimm(word)
	case 0x02, 0x03:
		return d.decodeJType(word)
	default:
		return d.decodeIType(word, opcode)
	}
}

// decodeRType decodes opcode 0 instructions, dispatched on the 6-bit
// funct field (bits [5:0]).
func (d *Decoder) decodeRType(word uint32) *Instruction {
	inst := &Instruction{Format: FormatR}

	rs := uint8((word >> 21) & 0x1F)
	rt := uint8((word >> 16) & 0x1F)
	rd := uint8((word >> 11) & 0x1F)
	shamt := uint8((word >> 6) & 0x1F)
	funct := uint8(word & 0x3F)

	inst.Rs = rs
	inst.Rt = rt
	inst.Rd = rd
	inst.Shamt = shamt
	inst.Funct = funct

	switch funct {
	case 0x00:
		inst.Op = OpSLL
	case 0x02:
		inst.Op = OpSRL
	case 0x03:
		inst.Op = OpSRA
	case 0x08:
		inst.Op = OpJR
	case 0x09:
		inst.Op = OpJALR
	case 0x0C:
		inst.Op = OpSYSCALL
	case 0x10:
		inst.Op = OpMFHI
	case 0x11:
		inst.Op = OpMTHI
	case 0x12:
		inst.Op = OpMFLO
	case 0x13:
		inst.Op = OpMTLO
	case 0x18:
		inst.Op = OpMULT
	case 0x19:
		inst.Op = OpMULTU
	case 0x1A:
		inst.Op = OpDIV
	case 0x1B:
		inst.Op = OpDIVU
	case 0x20:
		inst.Op = OpADD
	case 0x21:
		inst.Op = OpADDU
	case 0x22:
		inst.Op = OpSUB
	case 0x23:
		inst.Op = OpSUBU
	case 0x24:
		inst.Op = OpAND
	case 0x25:
		inst.Op = OpOR
	case 0x26:
		inst.Op = OpXOR
	case 0x27:
		inst.Op = OpNOR
	case 0x2A:
		inst.Op = OpSLT
	default:
		inst.Op = OpUnknown
	}

	return inst
}

// decodeRegimm decodes opcode 0x01 (BLTZ/BGEZ), dispatched on the rt
// field, which in this encoding selects the branch condition rather than
// naming a second source register.
func (d *Decoder) decodeRegimm(word uint32) *Instruction {
	inst := &Instruction{Format: FormatI}

	rs := uint8((word >> 21) & 0x1F)
	rt := (word >> 16) & 0x1F
	imm16 := uint16(word & 0xFFFF)

	inst.Rs = rs
	inst.ImmSignExt = signExtend16(imm16)

	switch rt {
	case 0x00:
		inst.Op = OpBLTZ
	case 0x01:
		inst.Op = OpBGEZ
	default:
		inst.Op = OpUnknown
	}

	return inst
}

// decodeIType decodes every remaining I-type opcode: branches, immediate
// ALU ops, and loads/stores.
func (d *Decoder) decodeIType(word uint32, opcode uint32) *Instruction {
	inst := &Instruction{Format: FormatI}

	rs := uint8((word >> 21) & 0x1F)
	rt := uint8((word >> 16) & 0x1F)
	imm16 := uint16(word & 0xFFFF)

	inst.Rs = rs
	inst.Rt = rt
	inst.ImmSignExt = signExtend16(imm16)
	inst.ImmZeroExt = uint32(imm16)

	switch opcode {
	case 0x04:
		inst.Op = OpBEQ
	case 0x05:
		inst.Op = OpBNE
	case 0x06:
		inst.Op = OpBLEZ
	case 0x07:
		inst.Op = OpBGTZ
	case 0x08:
		inst.Op = OpADDI
	case 0x09:
		inst.Op = OpADDIU
	case 0x0A:
		inst.Op = OpSLTI
	case 0x0C:
		inst.Op = OpANDI
	case 0x0D:
		inst.Op = OpORI
	case 0x0E:
		inst.Op = OpXORI
	case 0x0F:
		inst.Op = OpLUI
	case 0x20:
		inst.Op = OpLB
	case 0x21:
		inst.Op = OpLH
	case 0x23:
		inst.Op = OpLW
	case 0x28:
		inst.Op = OpSB
	case 0x29:
		inst.Op = OpSH
	case 0x2B:
		inst.Op = OpSW
	default:
		inst.Op = OpUnknown
	}

	return inst
}

// decodeJType decodes J and JAL, whose only operand is a 26-bit target
// field.
func (d *Decoder) decodeJType(word uint32) *Instruction {
	inst := &Instruction{Format: FormatJ}

	target26 := word & 0x3FFFFFF
	inst.Target = target26 << 2

	opcode := (word >> 26) & 0x3F
	if opcode == 0x02 {
		inst.Op = OpJ
	} else {
		inst.Op = OpJAL
	}

	return inst
}

// signExtend16 sign-extends a 16-bit immediate to 32 bits.
func signExtend16(imm uint16) uint32 {
	return uint32(int32(int16(imm)))
}
