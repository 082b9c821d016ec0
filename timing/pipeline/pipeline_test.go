package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mips5sim/emu"
	"github.com/sarchlab/mips5sim/timing/cache"
	"github.com/sarchlab/mips5sim/timing/pipeline"
)

const textBase = 0x00400000

func newPipeline(mem *emu.Memory) *pipeline.Pipeline {
	dc := cache.New(cache.DefaultL1DConfig(), cache.NewMemoryBacking(mem))
	p := pipeline.New(mem, dc)
	p.SetPC(textBase)
	return p
}

var _ = Describe("Pipeline", func() {
	var (
		memory *emu.Memory
		pipe   *pipeline.Pipeline
	)

	BeforeEach(func() {
		memory = emu.NewMemory()
	})

	Describe("basic sequencing with no hazards", func() {
		BeforeEach(func() {
			// ADDI $8, $0, 5
			memory.Write32(textBase+0, itype(opADDI, 0, 8, 5))
			// ADDI $9, $0, 255
			memory.Write32(textBase+4, itype(opADDI, 0, 9, 255))
			// SYSCALL ($v0 preloaded to the halt code)
			memory.Write32(textBase+8, rtype(0, 0, 0, 0, 0x0C))

			pipe = newPipeline(memory)
			pipe.SetReg(2, emu.HaltSyscallNumber)
		})

		It("retires all three instructions in 7 cycles", func() {
			pipe.Run()

			Expect(pipe.Halted()).To(BeTrue())
			Expect(pipe.Reg(8)).To(Equal(uint32(5)))
			Expect(pipe.Reg(9)).To(Equal(uint32(255)))
			Expect(pipe.Stats().Cycles).To(Equal(uint64(7)))
			Expect(pipe.Stats().Instructions).To(Equal(uint64(3)))
			Expect(pipe.Stats().Stalls).To(Equal(uint64(0)))
		})
	})

	Describe("load-use hazard, forwarding disabled", func() {
		BeforeEach(func() {
			// ADDI $8, $0, 16
			memory.Write32(textBase+0, itype(opADDI, 0, 8, 16))
			// LW $9, 0($8)
			memory.Write32(textBase+4, itype(opLW, 8, 9, 0))
			// ADD $10, $8, $9
			memory.Write32(textBase+8, rtype(8, 9, 10, 0, fADD))
			// SYSCALL
			memory.Write32(textBase+12, rtype(0, 0, 0, 0, 0x0C))

			pipe = newPipeline(memory)
			pipe.SetReg(2, emu.HaltSyscallNumber)
			pipe.SetForwarding(false)
		})

		It("stalls at least 3 cycles before ADD can read $9", func() {
			pipe.Run()

			Expect(pipe.Reg(10)).To(Equal(uint32(16))) // address 16 lies outside every region and reads 0
			Expect(pipe.Stats().Stalls).To(BeNumerically(">=", 3))
		})
	})

	Describe("load-use hazard, forwarding enabled", func() {
		BeforeEach(func() {
			memory.Write32(textBase+0, itype(opADDI, 0, 8, 16))
			memory.Write32(textBase+4, itype(opLW, 8, 9, 0))
			memory.Write32(textBase+8, rtype(8, 9, 10, 0, fADD))
			memory.Write32(textBase+12, rtype(0, 0, 0, 0, 0x0C))

			pipe = newPipeline(memory)
			pipe.SetReg(2, emu.HaltSyscallNumber)
			pipe.SetForwarding(true)
		})

		It("stalls exactly once for the load-use hazard", func() {
			pipe.Run()

			Expect(pipe.Reg(10)).To(Equal(uint32(16)))
			Expect(pipe.Stats().Stalls).To(Equal(uint64(1)))
		})
	})

	Describe("a taken branch flushes the two younger instructions", func() {
		BeforeEach(func() {
			// ADDI $1, $0, 1
			memory.Write32(textBase+0, itype(opADDI, 0, 1, 1))
			// BEQ $1, $1, +2 (skip the next two instructions)
			memory.Write32(textBase+4, itype(opBEQ, 1, 1, 2))
			// ADDI $10, $0, 111  (must be flushed, never retires)
			memory.Write32(textBase+8, itype(opADDI, 0, 10, 111))
			// ADDI $11, $0, 222  (must be flushed, never retires)
			memory.Write32(textBase+12, itype(opADDI, 0, 11, 222))
			// ADDI $12, $0, 7    (branch target)
			memory.Write32(textBase+16, itype(opADDI, 0, 12, 7))
			// SYSCALL
			memory.Write32(textBase+20, rtype(0, 0, 0, 0, 0x0C))

			pipe = newPipeline(memory)
			pipe.SetReg(2, emu.HaltSyscallNumber)
		})

		It("never commits the two squashed instructions", func() {
			pipe.Run()

			Expect(pipe.Reg(10)).To(Equal(uint32(0)))
			Expect(pipe.Reg(11)).To(Equal(uint32(0)))
			Expect(pipe.Reg(12)).To(Equal(uint32(7)))
			Expect(pipe.Stats().Flushes).To(Equal(uint64(1)))
		})
	})

	Describe("a cache miss followed by a hit to the same line", func() {
		BeforeEach(func() {
			memory.Write32(0x10010000, 0xDEADBEEF)

			// LW $9, 0($8) ; LW $10, 0($8), with $8 preset to the DATA base below
			memory.Write32(textBase+0, itype(opLW, 8, 9, 0))
			memory.Write32(textBase+4, itype(opLW, 8, 10, 0))
			memory.Write32(textBase+8, rtype(0, 0, 0, 0, 0x0C))

			pipe = newPipeline(memory)
			pipe.SetReg(2, emu.HaltSyscallNumber)
			pipe.SetReg(8, 0x10010000)
		})

		It("misses once and hits on the repeated access", func() {
			pipe.Run()

			Expect(pipe.Reg(9)).To(Equal(uint32(0xDEADBEEF)))
			Expect(pipe.Reg(10)).To(Equal(uint32(0xDEADBEEF)))
			Expect(pipe.CacheStats().Misses).To(Equal(uint64(1)))
			Expect(pipe.CacheStats().Hits).To(Equal(uint64(1)))
		})
	})

	Describe("MULT followed by MFHI/MFLO", func() {
		BeforeEach(func() {
			// ADDI $1, $0, 6 ; ADDI $5, $0, 7 ($2 holds the halt syscall number)
			memory.Write32(textBase+0, itype(opADDI, 0, 1, 6))
			memory.Write32(textBase+4, itype(opADDI, 0, 5, 7))
			// MULT $1, $5
			memory.Write32(textBase+8, rtype(1, 5, 0, 0, fMULT))
			// MFLO $3 ; MFHI $4
			memory.Write32(textBase+12, rtype(0, 0, 3, 0, fMFLO))
			memory.Write32(textBase+16, rtype(0, 0, 4, 0, fMFHI))
			memory.Write32(textBase+20, rtype(0, 0, 0, 0, 0x0C))

			pipe = newPipeline(memory)
			pipe.SetReg(2, emu.HaltSyscallNumber)
		})

		It("splits the product across HI and LO", func() {
			pipe.SetForwarding(true)
			pipe.Run()

			Expect(pipe.LO()).To(Equal(uint32(42)))
			Expect(pipe.HI()).To(Equal(uint32(0)))
		})
	})

	Describe("Reset", func() {
		It("clears cycle counters and architectural state without reloading memory", func() {
			memory.Write32(textBase+0, itype(opADDI, 0, 8, 9))
			memory.Write32(textBase+4, rtype(0, 0, 0, 0, 0x0C))

			pipe = newPipeline(memory)
			pipe.SetReg(2, emu.HaltSyscallNumber)
			pipe.Run()
			Expect(pipe.Reg(8)).To(Equal(uint32(9)))

			pipe.Reset()

			Expect(pipe.Reg(8)).To(Equal(uint32(0)))
			Expect(pipe.Stats().Cycles).To(Equal(uint64(0)))
			Expect(pipe.Halted()).To(BeFalse())
		})
	})

	Describe("ForwardingEnabled / SetForwarding", func() {
		It("defaults to stall-only mode", func() {
			pipe = newPipeline(memory)
			Expect(pipe.ForwardingEnabled()).To(BeFalse())
		})

		It("toggles to forwarding mode", func() {
			pipe = newPipeline(memory)
			pipe.SetForwarding(true)
			Expect(pipe.ForwardingEnabled()).To(BeTrue())
		})
	})
})
