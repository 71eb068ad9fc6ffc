// Package mappers implements the cartridge boards: the address decoders
// mapping CPU and PPU address ranges onto the PRG, CHR, work RAM and
// nametable memories of a cartridge.
package mappers

import (
	"fmt"

	"nescore/emu/log"
	"nescore/hw/hwio"
	"nescore/ines"
)

var modMapper = log.NewModule("mapper")

// Kind identifies a cartridge board.
type Kind uint8

const (
	NROM  Kind = 0
	MMC1  Kind = 1
	CNROM Kind = 3
)

func (k Kind) String() string {
	switch k {
	case NROM:
		return "NROM"
	case MMC1:
		return "MMC1"
	case CNROM:
		return "CNROM"
	}
	return fmt.Sprintf("mapper(%d)", uint8(k))
}

// Clock provides the CPU cycle counter to mappers sensitive to bus timing.
type Clock interface {
	CurrentCycle() int64
}

// Mapper is a cartridge board. It is a tagged union over Kind: each access
// is dispatched to the implementation of the board.
type Mapper struct {
	Kind Kind

	PRG    *hwio.Memory // PRG ROM
	CHR    *hwio.Memory // CHR ROM or RAM
	SRAM   *hwio.Memory // 8K PRG RAM at $6000-$7FFF
	VRAM   *hwio.Memory // nametables, 2K (4K for four-screen boards)
	chrRAM bool

	battery   bool
	mirroring Mirroring
	clock     Clock

	cnrom cnrom
	mmc1  mmc1
}

// New creates the mapper described by the rom header, for the 3 supported
// boards. Other mapper numbers return an error wrapping ines.ErrNotImplemented.
func New(rom *ines.Rom) (*Mapper, error) {
	switch rom.Mapper() {
	case uint16(NROM), uint16(MMC1), uint16(CNROM):
	default:
		return nil, fmt.Errorf("mapper %d: %w", rom.Mapper(), ines.ErrNotImplemented)
	}

	m := &Mapper{
		Kind:    Kind(rom.Mapper()),
		PRG:     hwio.NewROM("PRGROM", rom.PRG),
		SRAM:    hwio.NewMemory("PRGRAM", 0x2000),
		battery: rom.HasPersistent(),
	}

	if len(rom.CHR) == 0 {
		m.CHR = hwio.NewMemory("CHRRAM", 0x2000)
		m.chrRAM = true
	} else {
		m.CHR = hwio.NewROM("CHRROM", rom.CHR)
	}

	switch {
	case rom.FourScreen():
		m.VRAM = hwio.NewMemory("VRAM", 0x1000)
		m.mirroring = FourScreen
	case rom.VerticalMirroring():
		m.VRAM = hwio.NewMemory("VRAM", 0x800)
		m.mirroring = VertMirroring
	default:
		m.VRAM = hwio.NewMemory("VRAM", 0x800)
		m.mirroring = HorzMirroring
	}

	m.Reset(true)

	modMapper.InfoZ("cartridge loaded").
		Stringer("board", m.Kind).
		Int("prg", len(rom.PRG)).
		Int("chr", len(rom.CHR)).
		Stringer("mirroring", m.mirroring).
		Bool("battery", m.battery).
		End()
	return m, nil
}

// SetClock connects the mapper to the CPU cycle counter.
func (m *Mapper) SetClock(c Clock) { m.clock = c }

func (m *Mapper) cycle() int64 {
	if m.clock == nil {
		return 0
	}
	return m.clock.CurrentCycle()
}

// Reset handles a console reset. Cartridge boards don't see the reset line so
// only a power cycle has an effect: registers are set to their power-on state
// and RAMs are cleared (PRG RAM is kept if battery-backed).
func (m *Mapper) Reset(power bool) {
	if !power {
		return
	}

	clear(m.VRAM.Data)
	if m.chrRAM {
		clear(m.CHR.Data)
	}
	if !m.battery {
		clear(m.SRAM.Data)
	}

	switch m.Kind {
	case CNROM:
		m.cnrom = cnrom{}
	case MMC1:
		m.mmc1.reset(m)
	}
}

// HasBattery reports whether the PRG RAM is battery backed.
func (m *Mapper) HasBattery() bool { return m.battery }

// UseSRAM replaces the PRG RAM with buf (8K), for example a memory-mapped save
// file. The current PRG RAM content is discarded.
func (m *Mapper) UseSRAM(buf []byte) error {
	if len(buf) != 0x2000 {
		return fmt.Errorf("PRG RAM must be 8K, got %d bytes", len(buf))
	}
	m.SRAM.Data = buf
	return nil
}

// Mirroring returns the current nametable layout.
func (m *Mapper) Mirroring() Mirroring { return m.mirroring }

// CPURead reads from the cartridge CPU address space ($4020-$FFFF). ok is
// false if the address is not decoded by the cartridge (open bus).
func (m *Mapper) CPURead(addr uint16) (val uint8, ok bool) {
	switch {
	case addr >= 0x8000:
		switch m.Kind {
		case MMC1:
			return m.mmc1.readPRG(m, addr), true
		default:
			return m.PRG.ReadMirrored(int(addr & 0x7FFF)), true
		}
	case addr >= 0x6000:
		if m.Kind == MMC1 && !m.mmc1.wramEnabled() {
			return 0, false
		}
		return m.SRAM.Read8(int(addr & 0x1FFF)), true
	}
	return 0, false
}

// CPUWrite writes to the cartridge CPU address space. It returns false if the
// address is not decoded by the cartridge.
func (m *Mapper) CPUWrite(addr uint16, val uint8) bool {
	switch {
	case addr >= 0x8000:
		switch m.Kind {
		case CNROM:
			m.cnrom.write(m, addr, val)
		case MMC1:
			m.mmc1.write(m, addr, val)
		}
		return true
	case addr >= 0x6000:
		if m.Kind == MMC1 && !m.mmc1.wramEnabled() {
			return false
		}
		m.SRAM.Write8(int(addr&0x1FFF), val)
		return true
	}
	return false
}

// PPURead reads from the PPU address space, pattern tables ($0000-$1FFF) and
// nametables ($2000-$3EFF).
func (m *Mapper) PPURead(addr uint16) (uint8, bool) {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		return m.CHR.Read8(m.chrOffset(addr)), true
	case addr < 0x3F00:
		return m.VRAM.Read8(m.mirroring.offset(addr)), true
	}
	return 0, false
}

func (m *Mapper) PPUWrite(addr uint16, val uint8) bool {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		m.CHR.Write8(m.chrOffset(addr), val)
		return true
	case addr < 0x3F00:
		m.VRAM.Write8(m.mirroring.offset(addr), val)
		return true
	}
	return false
}

func (m *Mapper) chrOffset(addr uint16) int {
	switch m.Kind {
	case CNROM:
		return m.CHR.BankOffset(int(m.cnrom.chrbank), 0x2000, addr)
	case MMC1:
		return m.mmc1.chrOffset(m, addr)
	}
	return int(addr) % m.CHR.Len()
}

func (m *Mapper) setMirroring(mirroring Mirroring) {
	if m.mirroring == FourScreen || mirroring == m.mirroring {
		return
	}
	modMapper.DebugZ("select NT mirroring").
		Stringer("board", m.Kind).
		Stringer("prev", m.mirroring).
		Stringer("new", mirroring).
		End()
	m.mirroring = mirroring
}
