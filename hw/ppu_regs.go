package hw

import "nescore/emu/log"

// CPU-exposed memory-mapped PPU registers, mapped from $2000 to $2007 and
// mirrored up to $3FFF.
const (
	PPUCTRL   = 0x2000
	PPUMASK   = 0x2001
	PPUSTATUS = 0x2002
	OAMADDR   = 0x2003
	OAMDATA   = 0x2004
	PPUSCROLL = 0x2005
	PPUADDR   = 0x2006
	PPUDATA   = 0x2007
)

const (
	// PPUCTRL bits
	ntselect       = 0b11 // base nametable address
	vramIncr       = 2    // VRAM address increment per PPUDATA access (0: +1; 1: +32)
	spriteAddr     = 3    // sprite pattern table for 8x8 sprites
	backgroundAddr = 4    // background pattern table
	spriteSize     = 5    // 0: 8x8; 1: 8x16
	nmi            = 7    // NMI at the start of vblank

	// PPUMASK bits
	greyscale       = 0
	leftmostBg      = 1
	leftmostSprites = 2
	showBg          = 3
	showSprites     = 4

	// PPUSTATUS bits
	spriteOverflow = 5
	sprite0Hit     = 6
	vblank         = 7
)

// ReadPort reads one of the 8 PPU registers (addr is mirrored).
func (p *PPU) ReadPort(addr uint16) uint8 {
	openBusMask := uint8(0xFF)
	val := uint8(0)

	switch addr & 0x07 {
	case 2:
		p.writeLatch = false
		val = p.status()
		openBusMask = 0x1F

		p.vblank = false
		p.bus.SetNMI(false)

		// Reading one dot before vblank is set suppresses it (and the NMI)
		// for this frame.
		if p.Scanline == nmiScanline && p.Cycle == 0 {
			p.preventVBL = true
		}

	case 4:
		if p.Scanline <= 239 && p.renderingEnabled {
			// During rendering, reads return the value of the OAM bus used
			// by sprite evaluation.
			if p.Cycle >= 257 && p.Cycle <= 320 {
				step := min((p.Cycle-257)%8, 3)
				p.secOAMAddr = uint8((p.Cycle-257)/8*4 + step)
				p.oamCopyBuffer = p.secOAM[p.secOAMAddr]
			}
			val = p.oamCopyBuffer
		} else {
			val = p.oam[p.oamAddr]
		}
		openBusMask = 0x00

	case 7:
		if p.ignoreVRAMRead > 0 {
			// Consecutive reads too close together return open bus.
			break
		}

		val = p.ppuDataRbuf
		p.ppuDataRbuf = p.readVRAM(p.busAddr & 0x3FFF)

		if p.busAddr&0x3FFF >= 0x3F00 {
			// Palette reads are immediate, the 2 upper bits are open bus.
			val = p.palettes.read(p.busAddr) | p.openBus&0xC0
			openBusMask = 0xC0
		} else {
			openBusMask = 0x00
		}

		p.incVRAMAddr()
		p.ignoreVRAMRead = 6
		p.needStateUpdate = true
	}

	return p.applyOpenBus(openBusMask, val)
}

// PeekPort returns the value a read of the register at addr would return,
// without side effects.
func (p *PPU) PeekPort(addr uint16) uint8 {
	switch addr & 0x07 {
	case 2:
		return p.status() | p.openBus&0x1F
	case 4:
		if p.Scanline <= 239 && p.renderingEnabled {
			return p.oamCopyBuffer
		}
		return p.oam[p.oamAddr]
	case 7:
		if p.busAddr&0x3FFF >= 0x3F00 {
			return p.palettes.read(p.busAddr) | p.openBus&0xC0
		}
		return p.ppuDataRbuf
	}
	return p.openBus
}

func (p *PPU) status() uint8 {
	var val uint8
	if p.spriteOverflow {
		val |= 1 << spriteOverflow
	}
	if p.sprite0Hit {
		val |= 1 << sprite0Hit
	}
	if p.vblank {
		val |= 1 << vblank
	}
	return val
}

// WritePort writes one of the 8 PPU registers (addr is mirrored).
func (p *PPU) WritePort(addr uint16, val uint8) {
	p.setOpenBus(0xFF, val)

	reg := addr & 0x07
	if p.warmup > 0 {
		switch reg {
		case 0, 1, 5, 6:
			log.ModPPU.DebugZ("write ignored during warm-up").
				Hex16("reg", 0x2000|reg).
				Hex8("val", val).
				End()
			return
		}
	}

	switch reg {
	case 0:
		p.writeCtrl(val)
	case 1:
		p.writeMask(val)
	case 3:
		p.oamAddr = val
	case 4:
		if p.Scanline >= 240 || !p.renderingEnabled {
			if p.oamAddr&0x03 == 0x02 {
				// Unimplemented attribute bits.
				val &= 0xE3
			}
			p.oam[p.oamAddr] = val
			p.oamAddr++
		} else {
			// Writes during rendering don't modify OAM but increment the
			// high 6 bits of the address.
			p.oamAddr += 4
		}
	case 5:
		if !p.writeLatch {
			p.finex = val & 0b111
			p.vramTmp = p.vramTmp&^0x001F | loopy(val>>3)
		} else {
			p.vramTmp = p.vramTmp&^0x73E0 | loopy(val&0xF8)<<2 | loopy(val&0x07)<<12
		}
		p.writeLatch = !p.writeLatch
	case 6:
		if !p.writeLatch {
			// Bit 14 of t is cleared.
			p.vramTmp = p.vramTmp&^0xFF00 | loopy(val&0x3F)<<8
		} else {
			p.vramTmp = p.vramTmp&^0x00FF | loopy(val)
			// v is updated 3 dots after the second write.
			p.needStateUpdate = true
			p.updateVRAMAddrDelay = 3
			p.updateVRAMAddr = p.vramTmp
		}
		p.writeLatch = !p.writeLatch
	case 7:
		switch {
		case p.busAddr&0x3FFF >= 0x3F00:
			p.palettes.write(p.busAddr, val)
		case p.Scanline >= 240 || !p.renderingEnabled:
			p.writeVRAM(p.busAddr&0x3FFF, val)
		default:
			// During rendering, the write goes to the address on the bus
			// with its low byte as value.
			p.writeVRAM(p.busAddr&0x3FFF, uint8(p.busAddr))
		}
		p.incVRAMAddr()
	}
}

// PPUCTRL: $2000
func (p *PPU) writeCtrl(val uint8) {
	p.ctrl = val

	// Transfer the nametable bits.
	p.vramTmp = p.vramTmp&^(ntselect<<10) | loopy(val&ntselect)<<10

	p.flags.vramIncr32 = val&(1<<vramIncr) != 0
	p.flags.spritePatterns = 0x0000
	if val&(1<<spriteAddr) != 0 {
		p.flags.spritePatterns = 0x1000
	}
	p.flags.bgPatterns = 0x0000
	if val&(1<<backgroundAddr) != 0 {
		p.flags.bgPatterns = 0x1000
	}
	p.flags.largeSprites = val&(1<<spriteSize) != 0
	p.flags.nmiOnVblank = val&(1<<nmi) != 0

	// By toggling the nmi bit during vblank without reading PPUSTATUS, a
	// program can cause /nmi to be pulled low multiple times, causing
	// multiple NMIs to be generated.
	if !p.flags.nmiOnVblank {
		p.bus.SetNMI(false)
	} else if p.vblank {
		p.bus.SetNMI(true)
	}
}

// PPUMASK: $2001
func (p *PPU) writeMask(val uint8) {
	p.mask = val
	p.flags.grayscale = val&(1<<greyscale) != 0
	p.flags.leftmostBg = val&(1<<leftmostBg) != 0
	p.flags.leftmostSprites = val&(1<<leftmostSprites) != 0
	p.flags.showBg = val&(1<<showBg) != 0
	p.flags.showSprites = val&(1<<showSprites) != 0

	if p.renderingEnabled != (p.flags.showBg || p.flags.showSprites) {
		p.needStateUpdate = true
	}
	p.updateMinimumDrawCycles()

	p.paletteMask = 0x3F
	if p.flags.grayscale {
		p.paletteMask = 0x30
	}
}
