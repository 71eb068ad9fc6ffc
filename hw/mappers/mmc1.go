package mappers

// MMC1 (SxROM boards). Its registers are loaded serially, one bit per write.
type mmc1 struct {
	prevCycle int64

	serial  uint8 // shift register
	counter uint8 // count of bits shifted

	ctrl     uint8
	chrbank0 uint8
	chrbank1 uint8
	prgbank  uint8
}

const mmc1PowerOnCtrl = 0x0C

func (c *mmc1) reset(m *Mapper) {
	*c = mmc1{prevCycle: -2}
	// bits 2,3 of $8000 are set on power up: $8000 is swappable and $C000 is
	// fixed to the last bank.
	c.writeCTRL(m, mmc1PowerOnCtrl)
}

func (c *mmc1) write(m *Mapper, addr uint16, val uint8) {
	curCycle := m.cycle()
	defer func() { c.prevCycle = curCycle }()

	if val&0x80 != 0 {
		// Reset: the next write is the "first" one and bits 2,3 of control
		// are set (16k PRG mode, $8000 swappable). Never ignored.
		c.serial, c.counter = 0, 0
		c.writeCTRL(m, c.ctrl|0x0C)
		return
	}

	// On consecutive-cycle writes (RMW instructions) only the first one
	// reaches the shift register.
	if curCycle-c.prevCycle < 2 {
		modMapper.DebugZ("ignored consecutive write").
			Hex16("addr", addr).
			Hex8("val", val).
			Int64("cycle", curCycle).
			End()
		return
	}

	c.serial = c.serial>>1 | (val<<4)&0x10
	c.counter++
	if c.counter == 5 {
		c.writeReg(m, addr, c.serial)
		c.serial, c.counter = 0, 0
	}
}

func (c *mmc1) writeReg(m *Mapper, addr uint16, val uint8) {
	switch (addr & 0x6000) >> 13 {
	case 0:
		c.writeCTRL(m, val)
	case 1:
		c.chrbank0 = val & 0x1F
		modMapper.DebugZ("write CHR0 reg").Uint8("val", val).End()
	case 2:
		c.chrbank1 = val & 0x1F
		modMapper.DebugZ("write CHR1 reg").Uint8("val", val).End()
	case 3:
		// $E000-FFFF:  [...W PPPP]
		// W = WRAM Disable (0=enabled, 1=disabled)
		// P = PRG Reg
		c.prgbank = val & 0x1F
		modMapper.DebugZ("write PRG reg").Uint8("val", val).End()
	}
}

func (c *mmc1) writeCTRL(m *Mapper, val uint8) {
	c.ctrl = val & 0x1F
	switch c.ctrl & 0x03 {
	case 0:
		m.setMirroring(OnlyAScreen)
	case 1:
		m.setMirroring(OnlyBScreen)
	case 2:
		m.setMirroring(VertMirroring)
	case 3:
		m.setMirroring(HorzMirroring)
	}

	modMapper.DebugZ("write CTRL reg").
		Uint8("val", val).
		Uint8("prgmode", c.prgmode()).
		Uint8("chrmode", c.chrmode()).
		End()
}

func (c *mmc1) prgmode() uint8 { return (c.ctrl >> 2) & 0x03 }
func (c *mmc1) chrmode() uint8 { return (c.ctrl >> 4) & 0x01 }

func (c *mmc1) wramEnabled() bool { return c.prgbank&0x10 == 0 }

// 512K boards (SUROM) select the PRG 256K half with CHR0 bit 4.
func (c *mmc1) prgOuterBank(m *Mapper) int {
	if m.PRG.Len() > 0x40000 {
		return int(c.chrbank0 & 0x10) // in 16K banks
	}
	return 0
}

func (c *mmc1) readPRG(m *Mapper, addr uint16) uint8 {
	outer := c.prgOuterBank(m)
	bank := int(c.prgbank & 0x0F)

	switch c.prgmode() {
	case 0, 1:
		// 32K at $8000, low bit of bank number ignored.
		return m.PRG.ReadBanked((outer|bank)>>1, 0x8000, addr)
	case 2:
		// first bank fixed at $8000, switchable at $C000.
		if addr < 0xC000 {
			return m.PRG.ReadBanked(outer, 0x4000, addr)
		}
		return m.PRG.ReadBanked(outer|bank, 0x4000, addr)
	default:
		// switchable at $8000, last bank fixed at $C000.
		if addr < 0xC000 {
			return m.PRG.ReadBanked(outer|bank, 0x4000, addr)
		}
		last := min(m.PRG.NumBanks(0x4000), 16) - 1
		return m.PRG.ReadBanked(outer|last, 0x4000, addr)
	}
}

func (c *mmc1) chrOffset(m *Mapper, addr uint16) int {
	if c.chrmode() == 0 {
		return m.CHR.BankOffset(int(c.chrbank0>>1), 0x2000, addr)
	}
	if addr < 0x1000 {
		return m.CHR.BankOffset(int(c.chrbank0), 0x1000, addr)
	}
	return m.CHR.BankOffset(int(c.chrbank1), 0x1000, addr)
}
