// Package emu provides the architectural state and flat memory model shared
// by the MIPS32 pipeline: general-purpose registers, HI/LO, PC, and the
// byte-addressed memory regions the stages read and write.
package emu

// RegFile represents the MIPS32 register file: the 32 general-purpose
// registers R0-R31 (R0 is wired to zero), the HI/LO multiply/divide
// registers, and the program counter.
type RegFile struct {
	// R holds general-purpose registers R0-R31. R[0] is kept at zero by
	// WriteReg/ReadReg; the backing array itself does not enforce this, so
	// callers must always go through the accessors.
	R [32]uint32

	// HI and LO hold the high/low halves of MULT/MULTU results and the
	// remainder/quotient of DIV/DIVU.
	HI uint32
	LO uint32

	// PC is the program counter.
	PC uint32
}

// ReadReg reads a register value. Register 0 always reads as zero.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	if reg == 0 {
		return 0
	}
	return r.R[reg]
}

// WriteReg writes a value to a register. Writes to register 0 are accepted
// but have no observable effect on subsequent reads.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	if reg == 0 {
		return
	}
	r.R[reg] = value
}

// ArchState is the architectural state maintained as two snapshots: Current
// is visible to the stages during a cycle, Next is the buffer into which
// stages commit their writes. Advance copies Next over Current at the end
// of a cycle. A write lands in Next and stays invisible to Current until
// Advance runs; a reader that must see a value committed earlier in the
// same cycle reads Next instead.
type ArchState struct {
	Current RegFile
	Next    RegFile
}

// NewArchState creates a zeroed architectural state.
func NewArchState() *ArchState {
	return &ArchState{}
}

// Advance commits Next into Current, ending the cycle.
func (s *ArchState) Advance() {
	s.Current = s.Next
}

// Reset clears both snapshots to zero.
func (s *ArchState) Reset() {
	s.Current = RegFile{}
	s.Next = RegFile{}
}
