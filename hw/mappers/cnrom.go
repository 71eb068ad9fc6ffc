package mappers

// CNROM has fixed PRG (16K or 32K) and 4 switchable 8K CHR banks.
type cnrom struct {
	chrbank uint8
}

func (c *cnrom) write(m *Mapper, addr uint16, val uint8) {
	// The board doesn't prevent the ROM from driving the data bus.
	val &= m.PRG.ReadMirrored(int(addr & 0x7FFF))

	// 7  bit  0
	// ---- ----
	// cccc ccCC
	// |||| ||||
	// ++++-++++- Select 8 KB CHR ROM bank for PPU $0000-$1FFF
	// CNROM only uses lowest 2 bits
	prev := c.chrbank
	c.chrbank = val & 0b11
	if prev != c.chrbank {
		modMapper.DebugZ("CHR bank switch").
			Uint8("prev", prev).
			Uint8("new", c.chrbank).
			End()
	}
}
