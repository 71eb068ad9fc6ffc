package hw

// ClockDivider derives the chip clock enables from the NTSC master clock
// (21.477272 MHz): the CPU and APU run every 12 master ticks, the PPU every
// 4. The CPU performs the same division internally when it advances the PPU
// on each bus access.
type ClockDivider struct {
	master uint64
}

// Tick advances the master clock by one tick and reports which chips are
// clocked on this tick.
func (c *ClockDivider) Tick() (cpu, ppu, apu bool) {
	c.master++
	ppu = c.master%ppuClockDivider == 0
	cpu = c.master%ntscCPUDivider == 0
	return cpu, ppu, cpu
}

// Master returns the number of master clock ticks since the last reset.
func (c *ClockDivider) Master() uint64 { return c.master }

func (c *ClockDivider) Reset() { c.master = 0 }
