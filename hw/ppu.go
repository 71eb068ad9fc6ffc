package hw

import "nescore/emu/log"

const (
	NumScanlines = 262 // Number of scanlines per frame.
	NumCycles    = 341 // Number of PPU cycles per scanline.

	ScreenWidth  = 256
	ScreenHeight = 240

	nmiScanline = 241
	vblankEnd   = 260

	// After power-on, writes to $2000/$2001/$2005/$2006 are ignored for
	// about 29658 CPU cycles.
	warmupDots = 29658 * 3

	ppuClockDivider = 4
)

// PPUBus is the PPU view of the system: the cartridge address space
// (pattern tables and nametables) and the CPU NMI line.
type PPUBus interface {
	PPURead(addr uint16) uint8
	PPUWrite(addr uint16, val uint8)
	SetNMI(asserted bool)
}

type tileInfo struct {
	lo, hi        uint8
	paletteOffset uint8
	addr          uint16
}

type sprite struct {
	tileInfo
	x          uint8
	bgPriority bool
	hmirror    bool
}

// ppuFlags are decoded from PPUCTRL and PPUMASK.
type ppuFlags struct {
	vramIncr32     bool
	spritePatterns uint16
	bgPatterns     uint16
	largeSprites   bool
	nmiOnVblank    bool

	grayscale       bool
	leftmostBg      bool
	leftmostSprites bool
	showBg          bool
	showSprites     bool
}

// PPU is the 2C02 picture processing unit.
type PPU struct {
	bus PPUBus

	Cycle    int    // Current cycle/pixel in scanline (0-340)
	Scanline int    // Current scanline being drawn (-1 is pre-render)
	Frames   uint64 // Number of completed frames

	masterClock uint64

	ctrl, mask uint8
	flags      ppuFlags

	// $2002 flags
	spriteOverflow bool
	sprite0Hit     bool
	vblank         bool
	preventVBL     bool

	// VRAM read/write
	vramAddr    loopy // v
	vramTmp     loopy // t
	finex       uint8 // x
	writeLatch  bool  // w
	ppuDataRbuf uint8
	busAddr     uint16

	palettes paletteRAM
	oam      [256]uint8
	oamAddr  uint8

	// Sprite evaluation
	secOAM             [32]uint8
	secOAMAddr         uint8
	oamCopyBuffer      uint8
	spriteInRange      bool
	sprite0Added       bool
	sprite0Visible     bool
	spriteAddrH        uint8
	spriteAddrL        uint8
	oamCopyDone        bool
	overflowBugCounter uint8

	sprites     [8]sprite
	spriteCount int
	spriteIndex int
	hasSprite   [257]bool

	// Background pipeline
	prevTile, curTile, nextTile tileInfo
	bgShiftLo, bgShiftHi        uint16

	// Delayed state updates
	needStateUpdate      bool
	renderingEnabled     bool
	prevRenderingEnabled bool
	updateVRAMAddr       loopy
	updateVRAMAddrDelay  uint8
	ignoreVRAMRead       uint8

	minBgCycle     int
	minSpriteCycle int

	openBus           uint8
	openBusDecayStamp [8]uint64

	warmupEnabled bool
	warmup        int // remaining warm-up dots

	paletteMask uint8
	front, back []byte
}

// NewPPU creates a PPU connected to bus. Reset must be called before
// stepping it.
func NewPPU(bus PPUBus) *PPU {
	p := &PPU{
		bus:   bus,
		front: make([]byte, ScreenWidth*ScreenHeight),
		back:  make([]byte, ScreenWidth*ScreenHeight),
	}
	p.palettes = powerUpPalette
	return p
}

// SetWarmup enables the emulation of the PPU warm-up period, effective at
// the next power cycle.
func (p *PPU) SetWarmup(enabled bool) { p.warmupEnabled = enabled }

func (p *PPU) Reset(kind ResetKind) {
	p.masterClock = 0
	p.ctrl, p.mask = 0, 0
	p.flags = ppuFlags{}
	p.spriteOverflow, p.sprite0Hit, p.vblank = false, false, false
	p.preventVBL = false
	p.vramAddr, p.vramTmp = 0, 0
	p.finex = 0
	p.writeLatch = false
	p.ppuDataRbuf = 0
	p.busAddr = 0

	p.secOAMAddr = 0
	p.oamCopyBuffer = 0
	p.spriteInRange = false
	p.sprite0Added = false
	p.sprite0Visible = false
	p.spriteAddrH, p.spriteAddrL = 0, 0
	p.oamCopyDone = false
	p.overflowBugCounter = 0
	p.spriteCount = 0
	p.spriteIndex = 0

	p.prevTile, p.curTile, p.nextTile = tileInfo{}, tileInfo{}, tileInfo{}
	p.bgShiftLo, p.bgShiftHi = 0, 0

	p.needStateUpdate = false
	p.renderingEnabled = false
	p.prevRenderingEnabled = false
	p.updateVRAMAddr = 0
	p.updateVRAMAddrDelay = 0
	p.ignoreVRAMRead = 0

	p.openBus = 0
	p.openBusDecayStamp = [8]uint64{}
	p.paletteMask = 0x3F

	p.warmup = 0
	if kind == PowerCycle {
		p.palettes = powerUpPalette
		p.oam = [256]uint8{}
		p.secOAM = [32]uint8{}
		p.oamAddr = 0
		if p.warmupEnabled {
			p.warmup = warmupDots
		}
	}

	// First step will be cycle 0, scanline -1.
	p.Scanline = -1
	p.Cycle = 340
	p.Frames = 1

	p.updateMinimumDrawCycles()
}

// Run catches up with the given master clock.
func (p *PPU) Run(runTo uint64) {
	for p.masterClock+ppuClockDivider <= runTo {
		p.Step()
		p.masterClock += ppuClockDivider
	}
}

// Frame returns the last completed frame: 256x240 palette indices.
func (p *PPU) Frame() []byte { return p.front }

// Step executes a single PPU cycle (dot).
func (p *PPU) Step() {
	if p.warmup > 0 {
		p.warmup--
	}

	if p.Cycle > 339 {
		p.Cycle = 0
		p.Scanline++
		if p.Scanline > vblankEnd {
			p.Scanline = -1
			p.updateMinimumDrawCycles()
		}

		switch p.Scanline {
		case -1:
			p.spriteOverflow = false
			p.sprite0Hit = false
		case 240:
			// Rendering is over, the PPU bus shows v.
			p.busAddr = p.vramAddr.val() & 0x3FFF
			p.Frames++
			p.front, p.back = p.back, p.front
		}
	} else {
		p.Cycle++

		if p.Scanline < 240 {
			p.processScanline()
		} else if p.Cycle == 1 && p.Scanline == nmiScanline {
			if !p.preventVBL {
				p.vblank = true
				if p.flags.nmiOnVblank {
					p.bus.SetNMI(true)
				}
				log.ModPPU.DebugZ("vblank start").Uint64("frame", p.Frames).End()
			}
			p.preventVBL = false
		}
	}

	if p.needStateUpdate {
		p.updateState()
	}
}

func (p *PPU) updateState() {
	p.needStateUpdate = false

	// Rendering enable/disable is effective one dot after the $2001 write.
	if p.prevRenderingEnabled != p.renderingEnabled {
		p.prevRenderingEnabled = p.renderingEnabled
		if p.Scanline < 240 && !p.prevRenderingEnabled {
			p.busAddr = p.vramAddr.val() & 0x3FFF
			if p.Cycle >= 65 && p.Cycle <= 256 {
				// Disabling rendering during sprite evaluation increments
				// the OAM address.
				p.oamAddr++
				p.spriteAddrH = p.oamAddr >> 2 & 0x3F
				p.spriteAddrL = p.oamAddr & 0x03
			}
		}
	}

	if enabled := p.flags.showBg || p.flags.showSprites; p.renderingEnabled != enabled {
		p.renderingEnabled = enabled
		p.needStateUpdate = true
	}

	if p.updateVRAMAddrDelay > 0 {
		p.updateVRAMAddrDelay--
		if p.updateVRAMAddrDelay == 0 {
			p.vramAddr = p.updateVRAMAddr
			p.vramTmp = p.vramAddr
			if p.Scanline >= 240 || !p.renderingEnabled {
				p.busAddr = p.vramAddr.val() & 0x3FFF
			}
		} else {
			p.needStateUpdate = true
		}
	}

	if p.ignoreVRAMRead > 0 {
		p.ignoreVRAMRead--
		if p.ignoreVRAMRead > 0 {
			p.needStateUpdate = true
		}
	}
}

func (p *PPU) updateMinimumDrawCycles() {
	p.minBgCycle = 300
	if p.flags.showBg {
		p.minBgCycle = 8
		if p.flags.leftmostBg {
			p.minBgCycle = 0
		}
	}

	p.minSpriteCycle = 300
	if p.flags.showSprites {
		p.minSpriteCycle = 8
		if p.flags.leftmostSprites {
			p.minSpriteCycle = 0
		}
	}
}

// readVRAM reads the PPU address space, setting the PPU address bus.
func (p *PPU) readVRAM(addr uint16) uint8 {
	p.busAddr = addr
	return p.bus.PPURead(addr)
}

func (p *PPU) writeVRAM(addr uint16, val uint8) {
	p.busAddr = addr
	p.bus.PPUWrite(addr, val)
}

// incVRAMAddr is ran after each access to $2007. During rendering, the
// access increments both coarse X and fine Y.
func (p *PPU) incVRAMAddr() {
	if p.Scanline >= 240 || !p.renderingEnabled {
		incr := loopy(1)
		if p.flags.vramIncr32 {
			incr = 32
		}
		p.vramAddr = (p.vramAddr + incr) & 0x7FFF
		p.busAddr = p.vramAddr.val() & 0x3FFF
	} else {
		p.vramAddr.incx()
		p.vramAddr.incy()
	}
}

/* open bus */

const openBusDecayFrames = 30

// applyOpenBus returns val with the bits set in mask taken from the open bus
// latch, and refreshes the other bits.
func (p *PPU) applyOpenBus(mask, val uint8) uint8 {
	p.setOpenBus(^mask, val)
	return val | p.openBus&mask
}

// setOpenBus updates the bits of the latch which are set in mask. Bits not
// refreshed for 30 frames decay to 0.
func (p *PPU) setOpenBus(mask, val uint8) {
	if mask == 0xFF {
		p.openBus = val
		for i := range p.openBusDecayStamp {
			p.openBusDecayStamp[i] = p.Frames
		}
		return
	}

	bus := uint16(p.openBus) << 8
	for i := range 8 {
		bus >>= 1
		if mask&0x01 != 0 {
			if val&0x01 != 0 {
				bus |= 0x80
			} else {
				bus &= 0xFF7F
			}
			p.openBusDecayStamp[i] = p.Frames
		} else if p.Frames-p.openBusDecayStamp[i] > openBusDecayFrames {
			bus &= 0xFF7F
		}
		val >>= 1
		mask >>= 1
	}
	p.openBus = uint8(bus)
}

/* palettes */

type paletteRAM [32]uint8

var powerUpPalette = paletteRAM{
	0x09, 0x01, 0x00, 0x01, 0x00, 0x02, 0x02, 0x0D,
	0x08, 0x10, 0x08, 0x24, 0x00, 0x00, 0x04, 0x2C,
	0x09, 0x01, 0x34, 0x03, 0x00, 0x04, 0x00, 0x14,
	0x08, 0x3A, 0x00, 0x02, 0x00, 0x20, 0x2C, 0x08,
}

// Entries $10/$14/$18/$1C mirror $00/$04/$08/$0C.
func (pal *paletteRAM) read(addr uint16) uint8 {
	addr &= 0x1F
	if addr&0x13 == 0x10 {
		addr &^= 0x10
	}
	return pal[addr]
}

func (pal *paletteRAM) write(addr uint16, val uint8) {
	addr &= 0x1F
	val &= 0x3F
	if addr&0x03 == 0 {
		pal[addr&^0x10] = val
		pal[addr|0x10] = val
		return
	}
	pal[addr] = val
}
