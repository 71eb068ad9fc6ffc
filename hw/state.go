package hw

import (
	"fmt"

	"nescore/hw/snapshot"
)

func (c *CPU) State() *snapshot.CPU {
	return &snapshot.CPU{
		PC:          c.PC,
		SP:          c.SP,
		P:           uint8(c.P),
		A:           c.A,
		X:           c.X,
		Y:           c.Y,
		Cycles:      c.Cycles,
		MasterClock: c.masterClock,

		Tick:    c.tick,
		Opcode:  c.opcode,
		Intr:    c.intr,
		InstrPC: c.instrPC,
		Addr:    c.addr,
		Base:    c.base,
		Ptr:     c.ptr,
		Val:     c.val,
		Crossed: c.crossed,

		NMIFlag:     c.nmiFlag,
		PrevNMIFlag: c.prevNmiFlag,
		NeedNMI:     c.needNmi,
		PrevNeedNMI: c.prevNeedNmi,
		RunIRQ:      c.runIRQ,
		PrevRunIRQ:  c.prevRunIRQ,

		Halted: c.halted,
	}
}

func (c *CPU) SetState(state *snapshot.CPU) {
	c.PC = state.PC
	c.SP = state.SP
	c.P = P(state.P)
	c.A = state.A
	c.X = state.X
	c.Y = state.Y
	c.Cycles = state.Cycles
	c.masterClock = state.MasterClock

	c.tick = state.Tick
	c.opcode = state.Opcode
	c.op = &opdefs[c.opcode]
	c.intr = state.Intr
	c.instrPC = state.InstrPC
	c.addr = state.Addr
	c.base = state.Base
	c.ptr = state.Ptr
	c.val = state.Val
	c.crossed = state.Crossed

	c.nmiFlag = state.NMIFlag
	c.prevNmiFlag = state.PrevNMIFlag
	c.needNmi = state.NeedNMI
	c.prevNeedNmi = state.PrevNeedNMI
	c.runIRQ = state.RunIRQ
	c.prevRunIRQ = state.PrevRunIRQ

	c.halted = state.Halted
}

func (dma *DMA) State() *snapshot.DMA {
	return &snapshot.DMA{
		NeedHalt:   dma.needHalt,
		Dummy:      dma.dummy,
		DMCRunning: dma.dmcRunning,
		AbortDMC:   dma.abortDMC,
		OAMRunning: dma.oamRunning,
		OAMPage:    dma.oamPage,
	}
}

func (dma *DMA) SetState(state *snapshot.DMA) {
	dma.needHalt = state.NeedHalt
	dma.dummy = state.Dummy
	dma.dmcRunning = state.DMCRunning
	dma.abortDMC = state.AbortDMC
	dma.oamRunning = state.OAMRunning
	dma.oamPage = state.OAMPage
}

func tileState(t tileInfo) snapshot.Tile {
	return snapshot.Tile{Lo: t.lo, Hi: t.hi, PaletteOffset: t.paletteOffset, Addr: t.addr}
}

func setTileState(t *tileInfo, state snapshot.Tile) {
	*t = tileInfo{lo: state.Lo, hi: state.Hi, paletteOffset: state.PaletteOffset, addr: state.Addr}
}

func (p *PPU) State() *snapshot.PPU {
	state := &snapshot.PPU{
		Cycle:       p.Cycle,
		Scanline:    p.Scanline,
		Frames:      p.Frames,
		MasterClock: p.masterClock,

		Ctrl: p.ctrl,
		Mask: p.mask,

		SpriteOverflow: p.spriteOverflow,
		Sprite0Hit:     p.sprite0Hit,
		VBlank:         p.vblank,
		PreventVBL:     p.preventVBL,

		VRAMAddr:   uint16(p.vramAddr),
		VRAMTemp:   uint16(p.vramTmp),
		FineX:      p.finex,
		WriteLatch: p.writeLatch,
		DataBuf:    p.ppuDataRbuf,
		BusAddr:    p.busAddr,

		Palette: append([]byte(nil), p.palettes[:]...),
		OAM:     append([]byte(nil), p.oam[:]...),
		OAMAddr: p.oamAddr,

		SecOAM:             append([]byte(nil), p.secOAM[:]...),
		SecOAMAddr:         p.secOAMAddr,
		OAMCopyBuffer:      p.oamCopyBuffer,
		SpriteInRange:      p.spriteInRange,
		Sprite0Added:       p.sprite0Added,
		Sprite0Visible:     p.sprite0Visible,
		SpriteAddrH:        p.spriteAddrH,
		SpriteAddrL:        p.spriteAddrL,
		OAMCopyDone:        p.oamCopyDone,
		OverflowBugCounter: p.overflowBugCounter,

		SpriteCount: p.spriteCount,
		SpriteIndex: p.spriteIndex,
		HasSprite:   append([]bool(nil), p.hasSprite[:]...),

		PrevTile:  tileState(p.prevTile),
		CurTile:   tileState(p.curTile),
		NextTile:  tileState(p.nextTile),
		BgShiftLo: p.bgShiftLo,
		BgShiftHi: p.bgShiftHi,

		NeedStateUpdate:      p.needStateUpdate,
		RenderingEnabled:     p.renderingEnabled,
		PrevRenderingEnabled: p.prevRenderingEnabled,
		UpdateVRAMAddr:       uint16(p.updateVRAMAddr),
		UpdateVRAMAddrDelay:  p.updateVRAMAddrDelay,
		IgnoreVRAMRead:       p.ignoreVRAMRead,

		OpenBus:      p.openBus,
		OpenBusDecay: append([]uint64(nil), p.openBusDecayStamp[:]...),

		Warmup:      p.warmup,
		FrameBuffer: append([]byte(nil), p.back...),
	}

	for _, spr := range p.sprites {
		state.Sprites = append(state.Sprites, snapshot.Sprite{
			Tile:       tileState(spr.tileInfo),
			X:          spr.x,
			BgPriority: spr.bgPriority,
			HMirror:    spr.hmirror,
		})
	}
	return state
}

func (p *PPU) SetState(state *snapshot.PPU) error {
	switch {
	case len(state.Palette) != len(p.palettes),
		len(state.OAM) != len(p.oam),
		len(state.SecOAM) != len(p.secOAM),
		len(state.Sprites) != len(p.sprites),
		len(state.HasSprite) != len(p.hasSprite),
		len(state.OpenBusDecay) != len(p.openBusDecayStamp),
		len(state.FrameBuffer) != len(p.back):
		return fmt.Errorf("PPU snapshot: invalid memory sizes")
	}

	p.Cycle = state.Cycle
	p.Scanline = state.Scanline
	p.Frames = state.Frames
	p.masterClock = state.MasterClock

	// Decoded flags are rebuilt from the registers.
	p.writeCtrl(state.Ctrl)
	p.writeMask(state.Mask)

	p.spriteOverflow = state.SpriteOverflow
	p.sprite0Hit = state.Sprite0Hit
	p.vblank = state.VBlank
	p.preventVBL = state.PreventVBL

	p.vramAddr = loopy(state.VRAMAddr)
	p.vramTmp = loopy(state.VRAMTemp)
	p.finex = state.FineX
	p.writeLatch = state.WriteLatch
	p.ppuDataRbuf = state.DataBuf
	p.busAddr = state.BusAddr

	copy(p.palettes[:], state.Palette)
	copy(p.oam[:], state.OAM)
	p.oamAddr = state.OAMAddr

	copy(p.secOAM[:], state.SecOAM)
	p.secOAMAddr = state.SecOAMAddr
	p.oamCopyBuffer = state.OAMCopyBuffer
	p.spriteInRange = state.SpriteInRange
	p.sprite0Added = state.Sprite0Added
	p.sprite0Visible = state.Sprite0Visible
	p.spriteAddrH = state.SpriteAddrH
	p.spriteAddrL = state.SpriteAddrL
	p.oamCopyDone = state.OAMCopyDone
	p.overflowBugCounter = state.OverflowBugCounter

	for i, spr := range state.Sprites {
		setTileState(&p.sprites[i].tileInfo, spr.Tile)
		p.sprites[i].x = spr.X
		p.sprites[i].bgPriority = spr.BgPriority
		p.sprites[i].hmirror = spr.HMirror
	}
	p.spriteCount = state.SpriteCount
	p.spriteIndex = state.SpriteIndex
	copy(p.hasSprite[:], state.HasSprite)

	setTileState(&p.prevTile, state.PrevTile)
	setTileState(&p.curTile, state.CurTile)
	setTileState(&p.nextTile, state.NextTile)
	p.bgShiftLo = state.BgShiftLo
	p.bgShiftHi = state.BgShiftHi

	p.needStateUpdate = state.NeedStateUpdate
	p.renderingEnabled = state.RenderingEnabled
	p.prevRenderingEnabled = state.PrevRenderingEnabled
	p.updateVRAMAddr = loopy(state.UpdateVRAMAddr)
	p.updateVRAMAddrDelay = state.UpdateVRAMAddrDelay
	p.ignoreVRAMRead = state.IgnoreVRAMRead

	p.openBus = state.OpenBus
	copy(p.openBusDecayStamp[:], state.OpenBusDecay)

	p.warmup = state.Warmup
	copy(p.back, state.FrameBuffer)
	return nil
}
