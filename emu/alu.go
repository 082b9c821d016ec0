package emu

// ALU implements the MIPS32 arithmetic/logic primitives used by the EX
// stage. Unlike the functional-emulator style ALU this is modeled after,
// it is stateless: it neither reads nor writes a register file. The EX
// stage hands it plain operand values (already selected by the forwarding
// mux) and commits the result to the downstream latch itself; register
// writeback happens later, in WB.

// Add32 computes a 32-bit two's-complement sum. ADD/ADDI overflow is
// not trapped; there are no exceptions in this machine model.
func Add32(a, b uint32) uint32 {
	return a + b
}

// Sub32 computes a 32-bit two's-complement difference.
func Sub32(a, b uint32) uint32 {
	return a - b
}

// And32 computes bitwise AND.
func And32(a, b uint32) uint32 {
	return a & b
}

// Or32 computes bitwise OR.
func Or32(a, b uint32) uint32 {
	return a | b
}

// Xor32 computes bitwise XOR.
func Xor32(a, b uint32) uint32 {
	return a ^ b
}

// Nor32 computes bitwise NOR.
func Nor32(a, b uint32) uint32 {
	return ^(a | b)
}

// Slt sets 1 if a < b as signed 32-bit integers, else 0.
func Slt(a, b uint32) uint32 {
	if int32(a) < int32(b) {
		return 1
	}
	return 0
}

// Sltu sets 1 if a < b as unsigned 32-bit integers, else 0.
func Sltu(a, b uint32) uint32 {
	if a < b {
		return 1
	}
	return 0
}

// Sll shifts a left by shamt bits.
func Sll(a uint32, shamt uint8) uint32 {
	return a << (shamt & 0x1F)
}

// Srl shifts a right logically by shamt bits.
func Srl(a uint32, shamt uint8) uint32 {
	return a >> (shamt & 0x1F)
}

// Sra shifts a right arithmetically by shamt bits.
func Sra(a uint32, shamt uint8) uint32 {
	return uint32(int32(a) >> (shamt & 0x1F))
}

// Mult computes the signed 64-bit product of a and b, returning (hi, lo).
func Mult(a, b uint32) (hi, lo uint32) {
	product := int64(int32(a)) * int64(int32(b))
	return uint32(uint64(product) >> 32), uint32(uint64(product))
}

// Multu computes the unsigned 64-bit product of a and b, returning (hi, lo).
func Multu(a, b uint32) (hi, lo uint32) {
	product := uint64(a) * uint64(b)
	return uint32(product >> 32), uint32(product)
}

// Div computes signed division, returning (quotient, remainder) as (lo, hi)
// in MIPS convention: LO holds the quotient, HI holds the remainder.
// Division by zero is a caller error: this function does not guard it,
// the EX stage does.
func Div(a, b uint32) (quotient, remainder uint32) {
	q := int32(a) / int32(b)
	r := int32(a) % int32(b)
	return uint32(q), uint32(r)
}

// Divu computes unsigned division, returning (quotient, remainder).
func Divu(a, b uint32) (quotient, remainder uint32) {
	return a / b, a % b
}

// SignExtend16 sign-extends a 16-bit immediate to 32 bits.
func SignExtend16(imm uint16) uint32 {
	return uint32(int32(int16(imm)))
}

// ZeroExtend16 zero-extends a 16-bit immediate to 32 bits (ANDI/ORI/XORI).
func ZeroExtend16(imm uint16) uint32 {
	return uint32(imm)
}
