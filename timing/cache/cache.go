// Package cache implements the pipeline's direct-mapped L1 data cache on
// top of Akita's cache directory.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds cache geometry. The L1 data cache is fixed at 16 blocks
// of 4 words (16 bytes) each, direct-mapped; Associativity is kept as a
// field (rather than hardcoded) because setting it to 1 is what makes
// "direct-mapped" fall out of the underlying directory's own lookup and
// victim-selection logic instead of a hand-rolled single-index compare.
type Config struct {
	NumBlocks     int
	Associativity int
	BlockSize     int // bytes per block
}

// DefaultL1DConfig returns the fixed L1 data cache geometry: 16
// direct-mapped blocks of 4 words (16 bytes) each.
func DefaultL1DConfig() Config {
	return Config{
		NumBlocks:     16,
		Associativity: 1,
		BlockSize:     16,
	}
}

// Statistics holds the cache's hit/miss counters.
type Statistics struct {
	Hits   uint64
	Misses uint64
}

// BackingStore is the next level in the memory hierarchy: the flat
// memory the cache fills lines from and writes through to.
type BackingStore interface {
	ReadWord(addr uint32) uint32
	WriteWord(addr uint32, value uint32)
	WriteSized(addr uint32, size int, value uint32)
}

// Cache is the pipeline's direct-mapped, write-through, no-write-allocate
// L1 data cache. Lookup/fill bookkeeping (tag, valid, LRU-within-a-way)
// is delegated to Akita's DirectoryImpl, configured 1-way so that its
// own FindVictim degenerates to "the one block at this index" -
// satisfying the direct-mapped requirement through configuration rather
// than a rewritten lookup loop.
type Cache struct {
	config    Config
	directory *akitacache.DirectoryImpl
	dataStore [][]byte
	stats     Statistics
	backing   BackingStore
}

// New creates a cache with the given configuration over the given
// backing store.
func New(config Config, backing BackingStore) *Cache {
	dataStore := make([][]byte, config.NumBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			config.NumBlocks/config.Associativity,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}
}

// Stats returns the cache's hit/miss counters.
func (c *Cache) Stats() Statistics {
	return c.stats
}

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *Cache) blockAddr(addr uint32) uint64 {
	mask := uint32(c.config.BlockSize - 1)
	return uint64(addr &^ mask)
}

// IsHit decodes the index/tag for addr, compares against the block at
// that index, and increments the hit or miss counter. It must be called
// before ReadWord/LoadLine so the MEM stage can choose the right path.
func (c *Cache) IsHit(addr uint32) bool {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	hit := block != nil && block.IsValid
	if hit {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	return hit
}

// ReadWord returns the word at addr from the cache. The caller must have
// just observed IsHit(addr) == true; ReadWord does not update the hit/miss
// counters, and returns 0 if the line is not present.
func (c *Cache) ReadWord(addr uint32) uint32 {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block == nil || !block.IsValid {
		return 0
	}
	data := c.dataStore[c.blockIndex(block)]
	offset := uint64(addr) % uint64(c.config.BlockSize)
	return uint32(extractData(data, offset, 4))
}

// LoadLine handles a cache miss: it reads the 4 consecutive words
// covering addr's block from the backing store, installs them, sets the
// tag and marks the block valid, then returns the word at addr's offset.
func (c *Cache) LoadLine(addr uint32) uint32 {
	blockAddr := c.blockAddr(addr)
	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return 0
	}

	data := c.dataStore[c.blockIndex(victim)]
	wordsPerBlock := c.config.BlockSize / 4
	for i := 0; i < wordsPerBlock; i++ {
		word := c.backing.ReadWord(uint32(blockAddr) + uint32(i*4))
		storeData(data, uint64(i*4), 4, uint64(word))
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	c.directory.Visit(victim)

	offset := uint64(addr) % uint64(c.config.BlockSize)
	return uint32(extractData(data, offset, 4))
}

// WriteSized writes a value of the given byte width (1, 2, or 4) through
// to the backing store, and keeps the cache coherent: if the line is
// present, its copy is updated in place; if absent, it is left absent
// (no-write-allocate with write-update).
func (c *Cache) WriteSized(addr uint32, size int, value uint32) {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		data := c.dataStore[c.blockIndex(block)]
		offset := uint64(addr) % uint64(c.config.BlockSize)
		storeData(data, offset, size, uint64(value))
		c.directory.Visit(block)
	}
	c.backing.WriteSized(addr, size, value)
}

// Reset invalidates every cache line, matching a simulator reset (the
// backing memory is reset separately).
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}

// extractData reads a little-endian value of the given byte width out of
// a block's backing byte slice.
func extractData(data []byte, offset uint64, size int) uint64 {
	if data == nil || int(offset)+size > len(data) {
		return 0
	}
	var result uint64
	for i := 0; i < size; i++ {
		result |= uint64(data[int(offset)+i]) << (i * 8)
	}
	return result
}

// storeData writes a little-endian value of the given byte width into a
// block's backing byte slice.
func storeData(data []byte, offset uint64, size int, value uint64) {
	if data == nil || int(offset)+size > len(data) {
		return
	}
	for i := 0; i < size; i++ {
		data[int(offset)+i] = byte(value >> (i * 8))
	}
}
