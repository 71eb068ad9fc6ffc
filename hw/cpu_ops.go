package hw

/* loads and stores */

func (c *CPU) lda(v uint8) { c.A = v; c.P.setNZ(v) }
func (c *CPU) ldx(v uint8) { c.X = v; c.P.setNZ(v) }
func (c *CPU) ldy(v uint8) { c.Y = v; c.P.setNZ(v) }
func (c *CPU) lax(v uint8) { c.A = v; c.X = v; c.P.setNZ(v) }

func (c *CPU) sta() uint8 { return c.A }
func (c *CPU) stx() uint8 { return c.X }
func (c *CPU) sty() uint8 { return c.Y }
func (c *CPU) sax() uint8 { return c.A & c.X }

func (c *CPU) sha() uint8 { return c.A & c.X }
func (c *CPU) shx() uint8 { return c.X }
func (c *CPU) shy() uint8 { return c.Y }

func (c *CPU) tas() uint8 {
	c.SP = c.A & c.X
	return c.SP
}

/* arithmetic and logic */

func (c *CPU) add(v uint8) {
	sum := uint16(c.A) + uint16(v) + uint16(c.P&Carry)
	res := uint8(sum)
	c.P.writeFlag(Carry, sum > 0xFF)
	c.P.writeFlag(Overflow, (c.A^res)&(v^res)&0x80 != 0)
	c.A = res
	c.P.setNZ(res)
}

func (c *CPU) adc(v uint8) { c.add(v) }
func (c *CPU) sbc(v uint8) { c.add(v ^ 0xFF) }

func (c *CPU) and(v uint8) { c.A &= v; c.P.setNZ(c.A) }
func (c *CPU) ora(v uint8) { c.A |= v; c.P.setNZ(c.A) }
func (c *CPU) eor(v uint8) { c.A ^= v; c.P.setNZ(c.A) }

func (c *CPU) compare(reg, v uint8) {
	c.P.writeFlag(Carry, reg >= v)
	c.P.setNZ(reg - v)
}

func (c *CPU) cmp(v uint8) { c.compare(c.A, v) }
func (c *CPU) cpx(v uint8) { c.compare(c.X, v) }
func (c *CPU) cpy(v uint8) { c.compare(c.Y, v) }

func (c *CPU) bit(v uint8) {
	c.P.writeFlag(Zero, c.A&v == 0)
	c.P.writeFlag(Overflow, v&0x40 != 0)
	c.P.writeFlag(Negative, v&0x80 != 0)
}

func (c *CPU) nopRead(uint8) {}

/* unofficial immediate operations */

func (c *CPU) anc(v uint8) {
	c.and(v)
	c.P.writeFlag(Carry, c.P.N())
}

func (c *CPU) alr(v uint8) {
	c.A &= v
	c.P.writeFlag(Carry, c.A&1 != 0)
	c.A >>= 1
	c.P.setNZ(c.A)
}

func (c *CPU) arr(v uint8) {
	c.A &= v
	c.A >>= 1
	if c.P.C() {
		c.A |= 0x80
	}
	c.P.setNZ(c.A)
	c.P.writeFlag(Carry, c.A&0x40 != 0)
	c.P.writeFlag(Overflow, (c.A>>6^c.A>>5)&1 != 0)
}

// ane uses 0xEE as the 'magic' constant, which varies between chips.
func (c *CPU) ane(v uint8) {
	c.A = (c.A | 0xEE) & c.X & v
	c.P.setNZ(c.A)
}

func (c *CPU) lxa(v uint8) {
	c.A = (c.A | 0xFF) & v
	c.X = c.A
	c.P.setNZ(c.A)
}

func (c *CPU) sbx(v uint8) {
	ax := c.A & c.X
	c.P.writeFlag(Carry, ax >= v)
	c.X = ax - v
	c.P.setNZ(c.X)
}

func (c *CPU) las(v uint8) {
	c.SP &= v
	c.A = c.SP
	c.X = c.SP
	c.P.setNZ(c.SP)
}

/* read-modify-write */

func (c *CPU) asl(v uint8) uint8 {
	c.P.writeFlag(Carry, v&0x80 != 0)
	v <<= 1
	c.P.setNZ(v)
	return v
}

func (c *CPU) lsr(v uint8) uint8 {
	c.P.writeFlag(Carry, v&0x01 != 0)
	v >>= 1
	c.P.setNZ(v)
	return v
}

func (c *CPU) rol(v uint8) uint8 {
	carry := uint8(c.P & Carry)
	c.P.writeFlag(Carry, v&0x80 != 0)
	v = v<<1 | carry
	c.P.setNZ(v)
	return v
}

func (c *CPU) ror(v uint8) uint8 {
	carry := uint8(c.P&Carry) << 7
	c.P.writeFlag(Carry, v&0x01 != 0)
	v = v>>1 | carry
	c.P.setNZ(v)
	return v
}

func (c *CPU) inc(v uint8) uint8 { v++; c.P.setNZ(v); return v }
func (c *CPU) dec(v uint8) uint8 { v--; c.P.setNZ(v); return v }

func (c *CPU) slo(v uint8) uint8 { v = c.asl(v); c.ora(v); return v }
func (c *CPU) rla(v uint8) uint8 { v = c.rol(v); c.and(v); return v }
func (c *CPU) sre(v uint8) uint8 { v = c.lsr(v); c.eor(v); return v }
func (c *CPU) rra(v uint8) uint8 { v = c.ror(v); c.adc(v); return v }
func (c *CPU) dcp(v uint8) uint8 { v = c.dec(v); c.cmp(v); return v }
func (c *CPU) isc(v uint8) uint8 { v = c.inc(v); c.sbc(v); return v }

/* implied */

func (c *CPU) clc() { c.P.clearFlags(Carry) }
func (c *CPU) cld() { c.P.clearFlags(Decimal) }
func (c *CPU) cli() { c.P.clearFlags(Interrupt) }
func (c *CPU) clv() { c.P.clearFlags(Overflow) }
func (c *CPU) sec() { c.P.setFlags(Carry) }
func (c *CPU) sed() { c.P.setFlags(Decimal) }
func (c *CPU) sei() { c.P.setFlags(Interrupt) }

func (c *CPU) tax() { c.X = c.A; c.P.setNZ(c.X) }
func (c *CPU) tay() { c.Y = c.A; c.P.setNZ(c.Y) }
func (c *CPU) tsx() { c.X = c.SP; c.P.setNZ(c.X) }
func (c *CPU) txa() { c.A = c.X; c.P.setNZ(c.A) }
func (c *CPU) tya() { c.A = c.Y; c.P.setNZ(c.A) }
func (c *CPU) txs() { c.SP = c.X }

func (c *CPU) inx() { c.X++; c.P.setNZ(c.X) }
func (c *CPU) iny() { c.Y++; c.P.setNZ(c.Y) }
func (c *CPU) dex() { c.X--; c.P.setNZ(c.X) }
func (c *CPU) dey() { c.Y--; c.P.setNZ(c.Y) }

func (c *CPU) nop() {}

/* branch conditions */

func (c *CPU) bcc() bool { return !c.P.C() }
func (c *CPU) bcs() bool { return c.P.C() }
func (c *CPU) bne() bool { return !c.P.Z() }
func (c *CPU) beq() bool { return c.P.Z() }
func (c *CPU) bpl() bool { return !c.P.N() }
func (c *CPU) bmi() bool { return c.P.N() }
func (c *CPU) bvc() bool { return !c.P.V() }
func (c *CPU) bvs() bool { return c.P.V() }
