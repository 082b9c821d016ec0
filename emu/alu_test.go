package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mips5sim/emu"
)

func u32(i int32) uint32 { return uint32(i) }

var _ = Describe("ALU", func() {
	It("adds two 32-bit values", func() {
		Expect(emu.Add32(1, 2)).To(Equal(uint32(3)))
	})

	It("subtracts two 32-bit values", func() {
		Expect(emu.Sub32(5, 2)).To(Equal(uint32(3)))
	})

	It("computes Slt for signed comparison", func() {
		Expect(emu.Slt(u32(-1), 1)).To(Equal(uint32(1)))
		Expect(emu.Slt(1, u32(-1))).To(Equal(uint32(0)))
	})

	It("computes Sltu for unsigned comparison", func() {
		Expect(emu.Sltu(u32(-1), 1)).To(Equal(uint32(0)))
		Expect(emu.Sltu(1, u32(-1))).To(Equal(uint32(1)))
	})

	It("shifts left logically", func() {
		Expect(emu.Sll(1, 4)).To(Equal(uint32(16)))
	})

	It("shifts right arithmetically preserving sign", func() {
		Expect(emu.Sra(u32(-8), 1)).To(Equal(u32(-4)))
	})

	It("computes signed MULT as (hi, lo)", func() {
		hi, lo := emu.Mult(u32(-2), 3)
		want := int64(-6)
		Expect(uint64(hi)<<32 | uint64(lo)).To(Equal(uint64(want)))
	})

	It("computes unsigned DIVU as (quotient, remainder)", func() {
		q, r := emu.Divu(17, 5)
		Expect(q).To(Equal(uint32(3)))
		Expect(r).To(Equal(uint32(2)))
	})

	It("sign-extends a 16-bit immediate", func() {
		Expect(emu.SignExtend16(0xFFFF)).To(Equal(uint32(0xFFFFFFFF)))
		Expect(emu.SignExtend16(0x0010)).To(Equal(uint32(16)))
	})

	It("zero-extends a 16-bit immediate", func() {
		Expect(emu.ZeroExtend16(0xFFFF)).To(Equal(uint32(0x0000FFFF)))
	})
})
