package emu

import (
	"fmt"
	"io"
)

// SyscallResult represents the outcome of a SYSCALL instruction.
type SyscallResult struct {
	// Halted is true if the syscall requested the simulation stop.
	Halted bool
}

// SyscallHandler is the interface for handling MIPS32 SYSCALL instructions.
type SyscallHandler interface {
	// Handle executes the syscall indicated by the register file state.
	// MIPS32 convention: the syscall number is in $v0 (register 2).
	Handle() SyscallResult
}

// DefaultSyscallHandler recognizes a single syscall: $v0==0xA halts the
// run. Any other value is reported to diagnostics as unimplemented and
// otherwise has no effect.
type DefaultSyscallHandler struct {
	regFile *RegFile
	stderr  io.Writer
}

// HaltSyscallNumber is the $v0 value that halts the simulation.
const HaltSyscallNumber uint32 = 0xA

// NewDefaultSyscallHandler creates a default syscall handler.
func NewDefaultSyscallHandler(regFile *RegFile, stderr io.Writer) *DefaultSyscallHandler {
	return &DefaultSyscallHandler{regFile: regFile, stderr: stderr}
}

// Handle executes the syscall indicated by $v0.
func (h *DefaultSyscallHandler) Handle() SyscallResult {
	v0 := h.regFile.ReadReg(2)
	if v0 == HaltSyscallNumber {
		return SyscallResult{Halted: true}
	}
	if h.stderr != nil {
		fmt.Fprintf(h.stderr, "unimplemented syscall: $v0=%d\n", v0)
	}
	return SyscallResult{}
}
