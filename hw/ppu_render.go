package hw

func (p *PPU) processScanline() {
	switch {
	case p.Cycle <= 256:
		p.loadTileInfo()

		if p.prevRenderingEnabled && p.Cycle&0x07 == 0 {
			p.vramAddr.incx()
			if p.Cycle == 256 {
				p.vramAddr.incy()
			}
		}

		if p.Scanline >= 0 {
			p.drawPixel()
			p.bgShiftLo <<= 1
			p.bgShiftHi <<= 1
			p.evaluateSprites()
		} else if p.Cycle < 9 {
			// Pre-render scanline.
			if p.Cycle == 1 {
				p.vblank = false
				p.bus.SetNMI(false)
			}

			// OAM address bug: when OAMADDR >= 8 at the start of rendering,
			// the 8 bytes at OAMADDR&$F8 are copied to the first 8 bytes.
			if p.oamAddr >= 0x08 && p.renderingEnabled {
				i := uint8(p.Cycle - 1)
				p.oam[i] = p.oam[p.oamAddr&0xF8+i]
			}
		}

	case p.Cycle >= 257 && p.Cycle <= 320:
		if p.Cycle == 257 {
			p.spriteIndex = 0
			clear(p.hasSprite[:])
			if p.prevRenderingEnabled {
				// Copy horizontal position from t to v.
				p.vramAddr = p.vramAddr&^0x041F | p.vramTmp&0x041F
			}
		}

		if p.renderingEnabled {
			p.oamAddr = 0

			switch {
			case (p.Cycle-261)%8 == 0:
				p.loadSpriteTile()
			case (p.Cycle-257)%8 == 0:
				// Garbage nametable fetch.
				p.readVRAM(p.vramAddr.ntAddr())
			case (p.Cycle-259)%8 == 0:
				// Garbage attribute fetch.
				p.readVRAM(p.vramAddr.atAddr())
			}

			if p.Scanline == -1 && p.Cycle >= 280 && p.Cycle <= 304 {
				// Copy vertical position from t to v.
				p.vramAddr = p.vramAddr&^0x7BE0 | p.vramTmp&0x7BE0
			}
		}

	case p.Cycle >= 321 && p.Cycle <= 336:
		switch {
		case p.Cycle == 321:
			if p.renderingEnabled {
				p.oamCopyBuffer = p.secOAM[0]
			}
			p.loadTileInfo()
		case p.prevRenderingEnabled && (p.Cycle == 328 || p.Cycle == 336):
			p.loadTileInfo()
			p.bgShiftLo <<= 8
			p.bgShiftHi <<= 8
			p.vramAddr.incx()
		default:
			p.loadTileInfo()
		}

	case p.Cycle == 337 || p.Cycle == 339:
		if p.renderingEnabled {
			p.readVRAM(p.vramAddr.ntAddr())

			// Odd frames are one dot shorter when rendering is enabled.
			if p.Scanline == -1 && p.Cycle == 339 && p.Frames&0x01 == 0x01 {
				p.Cycle = 340
			}
		}
	}
}

// loadTileInfo runs the 8-dot background fetch cadence.
func (p *PPU) loadTileInfo() {
	if !p.renderingEnabled {
		return
	}

	switch p.Cycle & 0x07 {
	case 1:
		p.prevTile = p.curTile
		p.curTile = p.nextTile

		p.bgShiftLo |= uint16(p.nextTile.lo)
		p.bgShiftHi |= uint16(p.nextTile.hi)

		tileIndex := p.readVRAM(p.vramAddr.ntAddr())
		p.nextTile.addr = uint16(tileIndex)<<4 | p.vramAddr.finey() | p.flags.bgPatterns
	case 3:
		v := p.vramAddr.val()
		shift := (v >> 4 & 0x04) | (v & 0x02)
		p.nextTile.paletteOffset = (p.readVRAM(p.vramAddr.atAddr()) >> shift & 0x03) << 2
	case 5:
		p.nextTile.lo = p.readVRAM(p.nextTile.addr)
	case 7:
		p.nextTile.hi = p.readVRAM(p.nextTile.addr + 8)
	}
}

func (p *PPU) spriteHeight() int {
	if p.flags.largeSprites {
		return 16
	}
	return 8
}

// evaluateSprites runs one dot of the sprite evaluation for the next
// scanline: secondary OAM is cleared during dots 1-64, then filled with the
// (up to 8) sprites in range during dots 65-256.
func (p *PPU) evaluateSprites() {
	if !p.renderingEnabled {
		return
	}

	if p.Cycle < 65 {
		p.oamCopyBuffer = 0xFF
		p.secOAM[(p.Cycle-1)>>1] = 0xFF
		return
	}

	switch p.Cycle {
	case 65:
		p.sprite0Added = false
		p.spriteInRange = false
		p.secOAMAddr = 0
		p.overflowBugCounter = 0
		p.oamCopyDone = false
		p.spriteAddrH = p.oamAddr >> 2 & 0x3F
		p.spriteAddrL = p.oamAddr & 0x03
	case 256:
		p.sprite0Visible = p.sprite0Added
		p.spriteCount = int(p.secOAMAddr >> 2)
	}

	if p.Cycle&0x01 == 0x01 {
		// Odd dots: read from OAM.
		p.oamCopyBuffer = p.oam[p.oamAddr]
		return
	}

	// Even dots: write to secondary OAM.
	switch {
	case p.oamCopyDone:
		p.spriteAddrH = (p.spriteAddrH + 1) & 0x3F
		if p.secOAMAddr >= 0x20 {
			p.oamCopyBuffer = p.secOAM[p.secOAMAddr&0x1F]
		}

	case p.secOAMAddr < 0x20:
		p.checkSpriteInRange()
		p.secOAM[p.secOAMAddr] = p.oamCopyBuffer
		if p.spriteInRange {
			p.spriteAddrL++
			p.secOAMAddr++

			if p.spriteAddrH == 0 {
				p.sprite0Added = true
			}

			if p.secOAMAddr&0x03 == 0 {
				// Sprite copy is complete.
				p.spriteInRange = false
				p.spriteAddrL = 0
				p.spriteAddrH = (p.spriteAddrH + 1) & 0x3F
				if p.spriteAddrH == 0 {
					p.oamCopyDone = true
				}
			}
		} else {
			p.spriteAddrH = (p.spriteAddrH + 1) & 0x3F
			if p.spriteAddrH == 0 {
				p.oamCopyDone = true
			}
		}

	default:
		// Secondary OAM is full: look for overflow. The hardware bug makes
		// the scan increment both the sprite index and the byte index, so
		// bytes other than Y are compared.
		p.checkSpriteInRange()
		p.oamCopyBuffer = p.secOAM[p.secOAMAddr&0x1F]

		if p.spriteInRange {
			p.spriteOverflow = true
			p.spriteAddrL++
			if p.spriteAddrL == 4 {
				p.spriteAddrH = (p.spriteAddrH + 1) & 0x3F
				p.spriteAddrL = 0
			}

			if p.overflowBugCounter == 0 {
				p.overflowBugCounter = 3
			} else {
				p.overflowBugCounter--
				if p.overflowBugCounter == 0 {
					p.oamCopyDone = true
					p.spriteAddrL = 0
				}
			}
		} else {
			p.spriteAddrH = (p.spriteAddrH + 1) & 0x3F
			p.spriteAddrL = (p.spriteAddrL + 1) & 0x03
			if p.spriteAddrH == 0 {
				p.oamCopyDone = true
			}
		}
	}

	p.oamAddr = p.spriteAddrL&0x03 | p.spriteAddrH<<2
}

// checkSpriteInRange compares the last byte read from OAM as a Y coordinate.
func (p *PPU) checkSpriteInRange() {
	y := int(p.oamCopyBuffer)
	if !p.spriteInRange && p.Scanline >= y && p.Scanline < y+p.spriteHeight() {
		p.spriteInRange = true
	}
}

func (p *PPU) loadSpriteTile() {
	i := p.spriteIndex * 4
	p.loadSprite(p.secOAM[i], p.secOAM[i+1], p.secOAM[i+2], p.secOAM[i+3])
}

// loadSprite fetches the pattern of a sprite for the next scanline.
func (p *PPU) loadSprite(y, tileIndex, attr, x uint8) {
	vmirror := attr&0x80 != 0

	lineOffset := uint8(p.Scanline - int(y))
	if vmirror {
		lineOffset = uint8(p.spriteHeight()-1) - lineOffset
	}

	tileAddr := p.spritePatternAddr(tileIndex, lineOffset)

	if p.spriteIndex < p.spriteCount && y < 240 {
		spr := &p.sprites[p.spriteIndex]
		spr.bgPriority = attr&0x20 != 0
		spr.hmirror = attr&0x40 != 0
		spr.paletteOffset = (attr&0x03)<<2 | 0x10
		spr.lo = p.readVRAM(tileAddr)
		spr.hi = p.readVRAM(tileAddr + 8)
		spr.addr = tileAddr
		spr.x = x

		if p.Scanline >= 0 {
			for i := 0; i < 8 && int(x)+i+1 < len(p.hasSprite); i++ {
				p.hasSprite[int(x)+i+1] = true
			}
		}
	} else {
		// Empty slots fetch the pattern of tile $FF.
		tileAddr = p.spritePatternAddr(0xFF, 0)
		p.readVRAM(tileAddr)
		p.readVRAM(tileAddr + 8)
	}

	p.spriteIndex++
}

func (p *PPU) spritePatternAddr(tileIndex, lineOffset uint8) uint16 {
	if !p.flags.largeSprites {
		return (uint16(tileIndex)<<4 | p.flags.spritePatterns) + uint16(lineOffset)
	}

	// 8x16 sprites: bit 0 selects the pattern table.
	table := uint16(tileIndex&0x01) * 0x1000
	addr := table | uint16(tileIndex&^0x01)<<4
	if lineOffset >= 8 {
		return addr + uint16(lineOffset) + 8
	}
	return addr + uint16(lineOffset)
}

// pixelColor returns the palette RAM index of the current pixel.
func (p *PPU) pixelColor() uint8 {
	var bgColor uint8

	if p.Cycle > p.minBgCycle {
		lo := (p.bgShiftLo << p.finex & 0x8000) >> 15
		hi := (p.bgShiftHi << p.finex & 0x8000) >> 14
		bgColor = uint8(lo | hi)
	}

	if p.hasSprite[p.Cycle] && p.Cycle > p.minSpriteCycle {
		for i := range p.spriteCount {
			spr := &p.sprites[i]
			shift := p.Cycle - int(spr.x) - 1
			if shift < 0 || shift >= 8 {
				continue
			}

			var color uint8
			if spr.hmirror {
				color = spr.lo>>shift&0x01 | (spr.hi>>shift&0x01)<<1
			} else {
				color = (spr.lo<<shift&0x80)>>7 | (spr.hi<<shift&0x80)>>6
			}
			if color == 0 {
				continue
			}

			if i == 0 && bgColor != 0 && p.sprite0Visible && p.Cycle != 256 &&
				p.flags.showBg && !p.sprite0Hit {
				p.sprite0Hit = true
			}

			if bgColor == 0 || !spr.bgPriority {
				return spr.paletteOffset + color
			}
			break
		}
	}

	if p.finex+uint8((p.Cycle-1)&0x07) < 8 {
		return p.prevTile.paletteOffset + bgColor
	}
	return p.curTile.paletteOffset + bgColor
}

func (p *PPU) drawPixel() {
	x := p.Cycle - 1
	y := p.Scanline

	var color uint8
	if p.renderingEnabled || p.vramAddr.val()&0x3F00 != 0x3F00 {
		idx := p.pixelColor()
		if idx&0x03 == 0 {
			// Transparent pixels show the backdrop color.
			idx = 0
		}
		color = p.palettes[idx]
	} else {
		// During forced blanking, if v points to palette RAM, that color is
		// shown instead of the backdrop.
		color = p.palettes.read(p.vramAddr.val())
	}
	p.back[y*ScreenWidth+x] = color & p.paletteMask
}
