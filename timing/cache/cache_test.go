package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mips5sim/emu"
	"github.com/sarchlab/mips5sim/timing/cache"
)

var _ = Describe("Cache", func() {
	var (
		c       *cache.Cache
		memory  *emu.Memory
		backing *cache.MemoryBacking
	)

	BeforeEach(func() {
		memory = emu.NewMemory()
		backing = cache.NewMemoryBacking(memory)
		c = cache.New(cache.DefaultL1DConfig(), backing)
	})

	Describe("DefaultL1DConfig", func() {
		It("describes 16 direct-mapped blocks of 4 words", func() {
			cfg := cache.DefaultL1DConfig()
			Expect(cfg.NumBlocks).To(Equal(16))
			Expect(cfg.Associativity).To(Equal(1))
			Expect(cfg.BlockSize).To(Equal(16))
		})
	})

	Describe("IsHit / LoadLine", func() {
		It("misses on a cold line and fills it on LoadLine", func() {
			memory.Write32(0x10010000, 0xDEADBEEF)

			Expect(c.IsHit(0x10010000)).To(BeFalse())
			Expect(c.LoadLine(0x10010000)).To(Equal(uint32(0xDEADBEEF)))

			stats := c.Stats()
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(0)))
		})

		It("hits on a line already loaded", func() {
			memory.Write32(0x10010000, 0xCAFEBABE)
			c.IsHit(0x10010000)
			c.LoadLine(0x10010000)

			Expect(c.IsHit(0x10010000)).To(BeTrue())
			Expect(c.ReadWord(0x10010000)).To(Equal(uint32(0xCAFEBABE)))

			stats := c.Stats()
			Expect(stats.Hits).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
		})

		It("fills all four words of a block from a single miss", func() {
			memory.Write32(0x10010000, 1)
			memory.Write32(0x10010004, 2)
			memory.Write32(0x10010008, 3)
			memory.Write32(0x1001000C, 4)

			c.LoadLine(0x10010000)

			Expect(c.IsHit(0x10010004)).To(BeTrue())
			Expect(c.ReadWord(0x10010004)).To(Equal(uint32(2)))
			Expect(c.ReadWord(0x1001000C)).To(Equal(uint32(4)))
		})
	})

	Describe("WriteSized", func() {
		It("writes through to the backing memory on a cold line", func() {
			c.WriteSized(0x10010000, 4, 0x11223344)

			Expect(memory.Read32(0x10010000)).To(Equal(uint32(0x11223344)))
		})

		It("updates an already-cached line in place", func() {
			memory.Write32(0x10010000, 0)
			c.IsHit(0x10010000)
			c.LoadLine(0x10010000)

			c.WriteSized(0x10010000, 4, 0xAABBCCDD)

			Expect(c.ReadWord(0x10010000)).To(Equal(uint32(0xAABBCCDD)))
			Expect(memory.Read32(0x10010000)).To(Equal(uint32(0xAABBCCDD)))
		})

		It("writes a single byte without disturbing its neighbors", func() {
			memory.Write32(0x10010000, 0)
			c.IsHit(0x10010000)
			c.LoadLine(0x10010000)

			c.WriteSized(0x10010000, 1, 0xFF)

			Expect(c.ReadWord(0x10010000)).To(Equal(uint32(0x000000FF)))
		})

		It("does not allocate a line on a miss (no-write-allocate)", func() {
			c.WriteSized(0x10010000, 4, 0x42)

			Expect(c.IsHit(0x10010000)).To(BeFalse())
		})
	})

	Describe("Reset", func() {
		It("invalidates every line and clears statistics", func() {
			memory.Write32(0x10010000, 1)
			c.IsHit(0x10010000)
			c.LoadLine(0x10010000)

			c.Reset()

			Expect(c.IsHit(0x10010000)).To(BeFalse())
			stats := c.Stats()
			Expect(stats.Hits).To(Equal(uint64(0)))
			Expect(stats.Misses).To(Equal(uint64(1))) // the Reset-induced re-check above
		})
	})

	Describe("direct-mapped aliasing", func() {
		It("evicts a line when a conflicting address maps to the same index", func() {
			// 16 blocks of 16 bytes each cover 256 bytes; addresses one
			// full cache size apart alias to the same block.
			const cacheSpan = 16 * 16
			memory.Write32(0x10010000, 0x1)
			memory.Write32(0x10010000+cacheSpan, 0x2)

			c.IsHit(0x10010000)
			c.LoadLine(0x10010000)

			Expect(c.IsHit(0x10010000 + cacheSpan)).To(BeFalse())
			Expect(c.LoadLine(0x10010000 + cacheSpan)).To(Equal(uint32(0x2)))

			// the original line's index now holds the new block.
			Expect(c.IsHit(0x10010000)).To(BeFalse())
		})
	})
})
