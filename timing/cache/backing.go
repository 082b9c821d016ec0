package cache

import (
	"github.com/sarchlab/mips5sim/emu"
)

// MemoryBacking wraps emu.Memory as the cache's BackingStore.
type MemoryBacking struct {
	memory *emu.Memory
}

// NewMemoryBacking creates a new MemoryBacking adapter.
func NewMemoryBacking(memory *emu.Memory) *MemoryBacking {
	return &MemoryBacking{memory: memory}
}

// ReadWord reads a little-endian word from the backing memory.
func (m *MemoryBacking) ReadWord(addr uint32) uint32 {
	return m.memory.Read32(addr)
}

// WriteWord writes a little-endian word to the backing memory.
func (m *MemoryBacking) WriteWord(addr uint32, value uint32) {
	m.memory.Write32(addr, value)
}

// WriteSized writes a byte, halfword, or word to the backing memory
// depending on size, matching SB/SH/SW's differing store widths.
func (m *MemoryBacking) WriteSized(addr uint32, size int, value uint32) {
	switch size {
	case 1:
		m.memory.Write8(addr, uint8(value))
	case 2:
		m.memory.Write16(addr, uint16(value))
	default:
		m.memory.Write32(addr, value)
	}
}
