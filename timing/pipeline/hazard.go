package pipeline

// ForwardSource indicates where the forwarding mux should read an operand
// from for the instruction currently in ID/EX.
type ForwardSource uint8

const (
	// ForwardNone reads the register file value latched at decode.
	ForwardNone ForwardSource = iota
	// ForwardFromEXMEM bypasses the EX/MEM latch's ALUOutput.
	ForwardFromEXMEM
	// ForwardFromMEMWB bypasses the MEM/WB latch's ALUOutput or LMD.
	ForwardFromMEMWB
)

// HazardUnit detects RAW and load-use hazards and, when forwarding is
// enabled, decides the ForwardA/ForwardB mux selections. Stalling and
// forwarding are mutually exclusive strategies selected at runtime by
// the pipeline's forwarding flag; this unit implements both so the
// pipeline can switch between them with the "f" command without
// rebuilding the datapath.
type HazardUnit struct {
	forwardingEnabled bool
}

// NewHazardUnit creates a hazard unit in stall-only mode, the power-on
// default.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// SetForwarding toggles forwarding mode on or off.
func (h *HazardUnit) SetForwarding(enabled bool) {
	h.forwardingEnabled = enabled
}

// ForwardingEnabled reports the current mode.
func (h *HazardUnit) ForwardingEnabled() bool {
	return h.forwardingEnabled
}

// Forwarding holds the ForwardA/ForwardB mux decisions for one EX tick.
type Forwarding struct {
	ForwardA ForwardSource
	ForwardB ForwardSource
}

// DetectForwarding implements the standard Hennessy & Patterson
// conditions: EX/MEM has priority over MEM/WB (it is the more recent
// result), and a write to R0 never triggers forwarding.
func (h *HazardUnit) DetectForwarding(idex *IDEXRegister, exmem *EXMEMRegister, memwb *MEMWBRegister) Forwarding {
	var fw Forwarding
	if !h.forwardingEnabled || !idex.Valid {
		return fw
	}

	fw.ForwardA = forwardSourceFor(idex.Rs, exmem, memwb)
	fw.ForwardB = forwardSourceFor(idex.Rt, exmem, memwb)
	return fw
}

func forwardSourceFor(src uint8, exmem *EXMEMRegister, memwb *MEMWBRegister) ForwardSource {
	if exmem.Valid && exmem.RegWrite && exmem.Rd != 0 && exmem.Rd == src {
		return ForwardFromEXMEM
	}
	if memwb.Valid && memwb.RegWrite && memwb.Rd != 0 && memwb.Rd == src {
		return ForwardFromMEMWB
	}
	return ForwardNone
}

// Resolve returns the operand value to use given a mux decision.
func (h *HazardUnit) Resolve(source ForwardSource, original uint32, exmem *EXMEMRegister, memwb *MEMWBRegister) uint32 {
	switch source {
	case ForwardFromEXMEM:
		return exmem.ALUOutput
	case ForwardFromMEMWB:
		if memwb.WriteKind == WriteMem {
			return memwb.LMD
		}
		return memwb.ALUOutput
	default:
		return original
	}
}

// DetectLoadUseHazard reports whether the instruction about to be
// decoded (from IF/ID, not yet latched into ID/EX) reads a register that the
// instruction currently in ID/EX will load. This hazard applies in both
// stall and forwarding modes: forwarding cannot supply a value the load
// hasn't fetched from memory yet.
func (h *HazardUnit) DetectLoadUseHazard(idex *IDEXRegister, usesRs, usesRt bool, rs, rt uint8) bool {
	if !idex.Valid || !idex.MemRead || idex.Rd == 0 {
		return false
	}
	if usesRs && rs == idex.Rd {
		return true
	}
	if usesRt && rt == idex.Rd {
		return true
	}
	return false
}

// DetectStallHazard implements the forwarding-disabled stall-on-RAW
// policy: the decoding instruction stalls if ANY in-flight instruction
// in EX, MEM, or WB will write a register it reads. Re-checking this
// every cycle against the producer's current latch position is what
// gives the 3/2/1-cycle stall lengths: the producer is re-examined in
// EX, then MEM, then WB, and only stops matching once its write has
// been committed to the architectural state by Advance().
func (h *HazardUnit) DetectStallHazard(idex *IDEXRegister, exmem *EXMEMRegister, memwb *MEMWBRegister, usesRs, usesRt bool, rs, rt uint8) bool {
	producers := [...]struct {
		valid    bool
		regWrite bool
		rd       uint8
	}{
		{idex.Valid, idex.RegWrite, idex.Rd},
		{exmem.Valid, exmem.RegWrite, exmem.Rd},
		{memwb.Valid, memwb.RegWrite, memwb.Rd},
	}

	for _, p := range producers {
		if !p.valid || !p.regWrite || p.rd == 0 {
			continue
		}
		if (usesRs && rs == p.rd) || (usesRt && rt == p.rd) {
			return true
		}
	}
	return false
}
