// Package insts provides MIPS32 instruction definitions and decoding.
//
// This package implements decoding of MIPS32 machine words into a
// structured Instruction the pipeline's ID stage can dispatch on. It
// supports the R-type, I-type and J-type subset the pipeline implements:
//   - R-type: SLL, SRL, SRA, JR, JALR, SYSCALL, MFHI, MTHI, MFLO, MTLO,
//     MULT, MULTU, DIV, DIVU, ADD, ADDU, SUB, SUBU, AND, OR, XOR, NOR, SLT
//   - I-type: BLTZ, BGEZ, BEQ, BNE, BLEZ, BGTZ, ADDI, ADDIU, SLTI, ANDI,
//     ORI, XORI, LUI, LB, LH, LW, SB, SH, SW
//   - J-type: J, JAL
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x20080005) // ADDI $8, $0, 5
//	fmt.Printf("Op: %v, Rt: %d, Imm: %d\n", inst.Op, inst.Rt, inst.ImmSignExt)
package insts
