package emu

import "encoding/binary"

// region names, matching the pipeline's five flat memory regions.
const (
	RegionText  = "TEXT"
	RegionData  = "DATA"
	RegionStack = "STACK"
	RegionKText = "KTEXT"
	RegionKData = "KDATA"
)

// Region is an immutable (begin, end) range backed by a mutable byte
// buffer of size end-begin+1.
type Region struct {
	Name  string
	Begin uint32
	End   uint32
	Buf   []byte
}

func newRegion(name string, begin, end uint32) *Region {
	return &Region{
		Name:  name,
		Begin: begin,
		End:   end,
		Buf:   make([]byte, end-begin+1),
	}
}

func (r *Region) contains(addr uint32) bool {
	return addr >= r.Begin && addr <= r.End
}

// Memory is the flat, byte-addressed memory exposed to the IF and MEM
// stages: five fixed regions (TEXT, DATA, STACK, KTEXT, KDATA), little
// endian word accessors, and silent out-of-region behavior (reads return
// 0, writes are dropped; there is no MMU and nothing traps).
type Memory struct {
	regions []*Region
}

// NewMemory builds the five standard regions at their fixed addresses.
func NewMemory() *Memory {
	return &Memory{
		regions: []*Region{
			newRegion(RegionText, 0x00400000, 0x0FFFFFFF),
			newRegion(RegionData, 0x10010000, 0x1001FFFF),
			newRegion(RegionKText, 0x80000000, 0x8FFFFFFF),
			newRegion(RegionKData, 0x90000000, 0x9001FFFF),
			newRegion(RegionStack, 0x7FFFEFFC, 0x7FFFFFFC),
		},
	}
}

// Reset zeroes every region's backing buffer.
func (m *Memory) Reset() {
	for _, r := range m.regions {
		for i := range r.Buf {
			r.Buf[i] = 0
		}
	}
}

func (m *Memory) find(addr uint32) *Region {
	for _, r := range m.regions {
		if r.contains(addr) {
			return r
		}
	}
	return nil
}

// Read8 reads a single byte. Out-of-region reads return 0.
func (m *Memory) Read8(addr uint32) uint8 {
	r := m.find(addr)
	if r == nil {
		return 0
	}
	return r.Buf[addr-r.Begin]
}

// Write8 writes a single byte. Out-of-region writes are silently dropped.
func (m *Memory) Write8(addr uint32, value uint8) {
	r := m.find(addr)
	if r == nil {
		return
	}
	r.Buf[addr-r.Begin] = value
}

// Read16 reads a little-endian halfword.
func (m *Memory) Read16(addr uint32) uint16 {
	return uint16(m.Read8(addr)) | uint16(m.Read8(addr+1))<<8
}

// Write16 writes a little-endian halfword.
func (m *Memory) Write16(addr uint32, value uint16) {
	m.Write8(addr, uint8(value))
	m.Write8(addr+1, uint8(value>>8))
}

// Read32 reads a little-endian word. An access straddling two regions (or
// a region boundary) reads each byte independently, which is consistent
// with the per-byte out-of-region rule.
func (m *Memory) Read32(addr uint32) uint32 {
	r := m.find(addr)
	if r != nil && addr-r.Begin+4 <= uint32(len(r.Buf)) {
		return binary.LittleEndian.Uint32(r.Buf[addr-r.Begin:])
	}
	return uint32(m.Read8(addr)) | uint32(m.Read8(addr+1))<<8 |
		uint32(m.Read8(addr+2))<<16 | uint32(m.Read8(addr+3))<<24
}

// Write32 writes a little-endian word.
func (m *Memory) Write32(addr uint32, value uint32) {
	r := m.find(addr)
	if r != nil && addr-r.Begin+4 <= uint32(len(r.Buf)) {
		binary.LittleEndian.PutUint32(r.Buf[addr-r.Begin:], value)
		return
	}
	m.Write8(addr, uint8(value))
	m.Write8(addr+1, uint8(value>>8))
	m.Write8(addr+2, uint8(value>>16))
	m.Write8(addr+3, uint8(value>>24))
}

// LoadWords writes a sequence of instruction/data words sequentially
// starting at base, four bytes apart. Used by the loader to place a
// program image into TEXT.
func (m *Memory) LoadWords(base uint32, words []uint32) {
	for i, w := range words {
		m.Write32(base+uint32(i*4), w)
	}
}

// RegionFor returns the region containing addr, or nil if addr falls
// outside every region.
func (m *Memory) RegionFor(addr uint32) *Region {
	return m.find(addr)
}

// Regions returns the memory's regions in a fixed order.
func (m *Memory) Regions() []*Region {
	return m.regions
}
