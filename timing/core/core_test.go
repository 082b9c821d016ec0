package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mips5sim/emu"
	"github.com/sarchlab/mips5sim/timing/core"
)

const textBase = 0x00400000

func itype(opcode, rs, rt, imm uint32) uint32 {
	return opcode<<26 | rs<<21 | rt<<16 | (imm & 0xFFFF)
}

func rtype(rs, rt, rd, shamt, funct uint32) uint32 {
	return rs<<21 | rt<<16 | rd<<11 | shamt<<6 | funct
}

const opADDI = 0x08

var _ = Describe("Core", func() {
	var (
		memory *emu.Memory
		c      *core.Core
	)

	BeforeEach(func() {
		memory = emu.NewMemory()
		c = core.NewCore(memory)
	})

	It("creates a core with a pipeline", func() {
		Expect(c).NotTo(BeNil())
		Expect(c.Pipeline).NotTo(BeNil())
	})

	It("sets and gets the PC through the pipeline", func() {
		c.SetPC(textBase)
		Expect(c.Pipeline.PC()).To(Equal(uint32(textBase)))
	})

	It("is not halted initially", func() {
		Expect(c.Halted()).To(BeFalse())
	})

	It("executes instructions through Tick", func() {
		memory.Write32(textBase+0, itype(opADDI, 0, 1, 42))
		c.SetPC(textBase)

		for i := 0; i < 10; i++ {
			c.Tick()
		}

		Expect(c.Pipeline.Reg(1)).To(Equal(uint32(42)))
	})

	It("returns cycle-accurate stats", func() {
		memory.Write32(textBase+0, itype(opADDI, 0, 1, 42))
		c.SetPC(textBase)
		c.Tick()
		c.Tick()

		Expect(c.Stats().Cycles).To(Equal(uint64(2)))
	})

	It("runs until halt on a SYSCALL with $v0==0xA", func() {
		memory.Write32(textBase+0, itype(opADDI, 0, 2, 0x0A))
		memory.Write32(textBase+4, rtype(0, 0, 0, 0, 0x0C)) // SYSCALL

		c.SetPC(textBase)
		c.Run()

		Expect(c.Halted()).To(BeTrue())
	})

	It("runs for the requested number of cycles and reports still-running", func() {
		memory.Write32(textBase+0, itype(opADDI, 0, 1, 1))

		c.SetPC(textBase)
		running := c.RunCycles(5)

		Expect(running).To(BeTrue())
		Expect(c.Halted()).To(BeFalse())
		Expect(c.Stats().Cycles).To(Equal(uint64(5)))
	})

	It("stops running cycles once halted", func() {
		memory.Write32(textBase+0, itype(opADDI, 0, 2, 0x0A))
		memory.Write32(textBase+4, rtype(0, 0, 0, 0, 0x0C))

		c.SetPC(textBase)
		running := c.RunCycles(100)

		Expect(running).To(BeFalse())
		Expect(c.Halted()).To(BeTrue())
	})

	It("resets cycle/instruction counters and architectural state", func() {
		memory.Write32(textBase+0, itype(opADDI, 0, 1, 1))
		c.SetPC(textBase)

		for i := 0; i < 10; i++ {
			c.Tick()
		}
		Expect(c.Stats().Cycles).To(BeNumerically(">", 0))

		c.Reset()

		Expect(c.Stats().Cycles).To(Equal(uint64(0)))
		Expect(c.Stats().Instructions).To(Equal(uint64(0)))
		Expect(c.Halted()).To(BeFalse())
	})

	It("exposes the underlying memory and cache stats", func() {
		Expect(c.Memory()).To(Equal(memory))
		Expect(c.CacheStats().Hits).To(Equal(uint64(0)))
	})
})
