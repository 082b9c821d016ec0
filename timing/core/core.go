// Package core provides the cycle-accurate CPU core model. It wires a
// flat memory, an L1 data cache, and the 5-stage pipeline together
// behind a single high-level interface for the CLI.
package core

import (
	"github.com/sarchlab/mips5sim/emu"
	"github.com/sarchlab/mips5sim/timing/cache"
	"github.com/sarchlab/mips5sim/timing/pipeline"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// Stalls is the number of stall cycles.
	Stalls uint64
	// Flushes is the number of pipeline flushes.
	Flushes uint64
}

// Core represents a cycle-accurate CPU core: memory, an L1 data cache,
// and the 5-stage pipeline driving them.
type Core struct {
	// Pipeline is the underlying 5-stage pipeline.
	Pipeline *pipeline.Pipeline

	memory *emu.Memory
	cache  *cache.Cache
}

// NewCore creates a new Core over the given memory, with a fresh
// direct-mapped L1 data cache in front of it.
func NewCore(memory *emu.Memory) *Core {
	dc := cache.New(cache.DefaultL1DConfig(), cache.NewMemoryBacking(memory))
	return &Core{
		Pipeline: pipeline.New(memory, dc),
		memory:   memory,
		cache:    dc,
	}
}

// SetPC sets the program counter.
func (c *Core) SetPC(pc uint32) {
	c.Pipeline.SetPC(pc)
}

// Tick executes one pipeline cycle.
func (c *Core) Tick() {
	c.Pipeline.Tick()
}

// Halted returns true if the core has halted (SYSCALL with $v0==0xA
// retired).
func (c *Core) Halted() bool {
	return c.Pipeline.Halted()
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	pipeStats := c.Pipeline.Stats()
	return Stats{
		Cycles:       pipeStats.Cycles,
		Instructions: pipeStats.Instructions,
		Stalls:       pipeStats.Stalls,
		Flushes:      pipeStats.Flushes,
	}
}

// CacheStats returns the L1 data cache's hit/miss counters.
func (c *Core) CacheStats() cache.Statistics {
	return c.cache.Stats()
}

// Memory exposes the core's flat memory, for the CLI's mdump command.
func (c *Core) Memory() *emu.Memory {
	return c.memory
}

// Run executes the core until it halts.
func (c *Core) Run() {
	c.Pipeline.Run()
}

// RunCycles executes the core for the specified number of cycles.
// Returns true if still running, false if halted.
func (c *Core) RunCycles(cycles uint64) bool {
	return c.Pipeline.RunCycles(cycles)
}

// Reset clears all core state: cycle/instruction counters, the
// architectural registers, and the cache. The program image in memory
// and the forwarding mode are left untouched.
func (c *Core) Reset() {
	c.Pipeline.Reset()
}
