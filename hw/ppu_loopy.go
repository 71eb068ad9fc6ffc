package hw

// loopy is the layout of the PPU v and t registers:
//
//	yyy NN YYYYY XXXXX
//	||| || ||||| +++++-- coarse X scroll
//	||| || +++++-------- coarse Y scroll
//	||| ++-------------- nametable select
//	+++----------------- fine Y scroll
type loopy uint16

func (l loopy) val() uint16       { return uint16(l) & 0x7FFF }
func (l loopy) coarsex() uint16   { return uint16(l) & 0x1F }
func (l loopy) coarsey() uint16   { return uint16(l) >> 5 & 0x1F }
func (l loopy) nametable() uint16 { return uint16(l) >> 10 & 0x03 }
func (l loopy) finey() uint16     { return uint16(l) >> 12 & 0x07 }

// high and low are the bytes written with $2006.
func (l loopy) high() uint8 { return uint8(l>>8) & 0x3F }
func (l loopy) low() uint8  { return uint8(l) }

// incx increments coarse X, switching horizontal nametable on overflow.
func (l *loopy) incx() {
	if l.coarsex() == 31 {
		*l = *l&^0x001F ^ 0x0400
	} else {
		*l++
	}
}

// incy increments fine Y, overflowing into coarse Y and switching vertical
// nametable after row 29. Coarse Y values 30 and 31 wrap without switching.
func (l *loopy) incy() {
	if *l&0x7000 != 0x7000 {
		*l += 0x1000
		return
	}

	*l &^= 0x7000
	y := l.coarsey()
	switch y {
	case 29:
		y = 0
		*l ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	*l = *l&^0x03E0 | loopy(y<<5)
}

// ntAddr is the address of the nametable byte of the current tile.
func (l loopy) ntAddr() uint16 {
	return 0x2000 | uint16(l)&0x0FFF
}

// atAddr is the address of the attribute byte of the current tile.
func (l loopy) atAddr() uint16 {
	v := uint16(l)
	return 0x23C0 | v&0x0C00 | v>>4&0x38 | v>>2&0x07
}
