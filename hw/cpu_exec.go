package hw

// exec runs the cycle c.tick (2 onward) of the current instruction, the
// opcode fetch being cycle 1. It returns true on the last cycle.
func (c *CPU) exec() bool {
	switch c.op.seq {
	case seqNone:
	case seqBRK:
		return c.brk()
	case seqRTI:
		return c.rti()
	case seqRTS:
		return c.rts()
	case seqPHA, seqPHP:
		return c.push()
	case seqPLA, seqPLP:
		return c.pull()
	case seqJSR:
		return c.jsr()
	case seqJMP:
		return c.jmp()
	case seqJMPInd:
		return c.jmpInd()
	}

	t := c.tick
	switch c.op.mode {
	case modeImp:
		c.Read8(c.PC)
		c.op.impl(c)
		return true

	case modeAcc:
		c.Read8(c.PC)
		c.A = c.op.rmw(c, c.A)
		return true

	case modeImm:
		c.op.read(c, c.fetch8())
		return true

	case modeRel:
		return c.branch()

	case modeZpg:
		if t == 2 {
			c.addr = uint16(c.fetch8())
			return false
		}
		return c.access(t - 3)

	case modeZpx, modeZpy:
		switch t {
		case 2:
			c.ptr = c.fetch8()
			return false
		case 3:
			c.Read8(uint16(c.ptr))
			c.addr = uint16(c.ptr + c.index())
			return false
		}
		return c.access(t - 4)

	case modeAbs:
		switch t {
		case 2:
			c.base = uint16(c.fetch8())
			return false
		case 3:
			c.base |= uint16(c.fetch8()) << 8
			c.addr = c.base
			return false
		}
		return c.access(t - 4)

	case modeAbx, modeAby:
		switch t {
		case 2:
			c.base = uint16(c.fetch8())
			return false
		case 3:
			c.base |= uint16(c.fetch8()) << 8
			c.indexBase(c.index())
			return false
		case 4:
			if c.op.kind == kindRead && !c.crossed {
				return c.access(0)
			}
			c.Read8(c.base&0xFF00 | c.addr&0x00FF)
			return false
		}
		return c.access(t - 5)

	case modeIzx:
		switch t {
		case 2:
			c.ptr = c.fetch8()
			return false
		case 3:
			c.Read8(uint16(c.ptr))
			c.ptr += c.X
			return false
		case 4:
			c.base = uint16(c.Read8(uint16(c.ptr)))
			return false
		case 5:
			c.base |= uint16(c.Read8(uint16(c.ptr+1))) << 8
			c.addr = c.base
			return false
		}
		return c.access(t - 6)

	case modeIzy:
		switch t {
		case 2:
			c.ptr = c.fetch8()
			return false
		case 3:
			c.base = uint16(c.Read8(uint16(c.ptr)))
			return false
		case 4:
			c.base |= uint16(c.Read8(uint16(c.ptr+1))) << 8
			c.indexBase(c.Y)
			return false
		case 5:
			if c.op.kind == kindRead && !c.crossed {
				return c.access(0)
			}
			c.Read8(c.base&0xFF00 | c.addr&0x00FF)
			return false
		}
		return c.access(t - 6)
	}

	panic("unreachable")
}

func (c *CPU) index() uint8 {
	switch c.op.mode {
	case modeZpy, modeAby:
		return c.Y
	}
	return c.X
}

func (c *CPU) indexBase(idx uint8) {
	c.addr = c.base + uint16(idx)
	c.crossed = c.base&0xFF00 != c.addr&0xFF00
}

// access performs the memory access cycles of the instruction, once the
// effective address has been computed.
func (c *CPU) access(step uint8) bool {
	switch c.op.kind {
	case kindRead:
		c.op.read(c, c.Read8(c.addr))
		return true

	case kindWrite:
		if c.op.sh {
			c.shStore(c.op.write(c))
		} else {
			c.Write8(c.addr, c.op.write(c))
		}
		return true

	case kindRMW:
		switch step {
		case 0:
			c.val = c.Read8(c.addr)
			return false
		case 1:
			// Read-modify-write instructions write back the unmodified value
			// before the result.
			c.Write8(c.addr, c.val)
			c.val = c.op.rmw(c, c.val)
			return false
		}
		c.Write8(c.addr, c.val)
		return true
	}

	panic("unreachable")
}

// shStore performs the store of SHA/SHX/SHY/TAS: the value is ANDed with the
// high byte of the base address plus one and, on page crossing, the high
// byte of the target address is replaced by the stored value.
func (c *CPU) shStore(reg uint8) {
	addr := c.addr
	if c.crossed {
		addr = uint16(uint8(addr>>8)&reg)<<8 | addr&0x00FF
	}
	c.Write8(addr, reg&(uint8(c.base>>8)+1))
}

func (c *CPU) branch() bool {
	switch c.tick {
	case 2:
		c.val = c.fetch8()
		return !c.op.cond(c)
	case 3:
		// A taken branch that doesn't cross a page ignores an IRQ raised
		// during its last cycle.
		if c.runIRQ && !c.prevRunIRQ {
			c.runIRQ = false
		}
		c.Read8(c.PC)
		c.addr = c.PC + uint16(int8(c.val))
		if c.addr&0xFF00 == c.PC&0xFF00 {
			c.PC = c.addr
			return true
		}
		return false
	}

	c.Read8(c.PC&0xFF00 | c.addr&0x00FF)
	c.PC = c.addr
	return true
}

func (c *CPU) brk() bool {
	switch c.tick {
	case 2:
		c.fetch8()
	case 3:
		c.push8(uint8(c.PC >> 8))
	case 4:
		c.push8(uint8(c.PC))
	case 5:
		c.addr = IRQVector
		if c.needNmi {
			c.needNmi = false
			c.addr = NMIVector
		}
		c.push8(uint8(c.P | Break | Reserved))
		c.P.setFlags(Interrupt)
	case 6:
		c.base = uint16(c.Read8(c.addr))
	case 7:
		c.PC = c.base | uint16(c.Read8(c.addr+1))<<8
		// An NMI that hijacked BRK must not be run a second time.
		c.prevNeedNmi = false
		return true
	}
	return false
}

func (c *CPU) rti() bool {
	switch c.tick {
	case 2:
		c.Read8(c.PC)
	case 3:
		c.dummyStackRead()
	case 4:
		c.P.pull(c.pull8())
	case 5:
		c.val = c.pull8()
	case 6:
		c.PC = uint16(c.pull8())<<8 | uint16(c.val)
		return true
	}
	return false
}

func (c *CPU) rts() bool {
	switch c.tick {
	case 2:
		c.Read8(c.PC)
	case 3:
		c.dummyStackRead()
	case 4:
		c.val = c.pull8()
	case 5:
		c.PC = uint16(c.pull8())<<8 | uint16(c.val)
	case 6:
		c.fetch8()
		return true
	}
	return false
}

func (c *CPU) jsr() bool {
	switch c.tick {
	case 2:
		c.val = c.fetch8()
	case 3:
		c.dummyStackRead()
	case 4:
		c.push8(uint8(c.PC >> 8))
	case 5:
		c.push8(uint8(c.PC))
	case 6:
		c.PC = uint16(c.Read8(c.PC))<<8 | uint16(c.val)
		return true
	}
	return false
}

func (c *CPU) jmp() bool {
	if c.tick == 2 {
		c.val = c.fetch8()
		return false
	}
	c.PC = uint16(c.Read8(c.PC))<<8 | uint16(c.val)
	return true
}

func (c *CPU) jmpInd() bool {
	switch c.tick {
	case 2:
		c.base = uint16(c.fetch8())
	case 3:
		c.base |= uint16(c.fetch8()) << 8
	case 4:
		c.val = c.Read8(c.base)
	case 5:
		// The pointer high byte is fetched without carry into the page.
		hi := c.Read8(c.base&0xFF00 | (c.base+1)&0x00FF)
		c.PC = uint16(hi)<<8 | uint16(c.val)
		return true
	}
	return false
}

func (c *CPU) push() bool {
	if c.tick == 2 {
		c.Read8(c.PC)
		return false
	}
	if c.op.seq == seqPHA {
		c.push8(c.A)
	} else {
		c.push8(uint8(c.P | Break | Reserved))
	}
	return true
}

func (c *CPU) pull() bool {
	switch c.tick {
	case 2:
		c.Read8(c.PC)
		return false
	case 3:
		c.dummyStackRead()
		return false
	}
	if c.op.seq == seqPLA {
		c.A = c.pull8()
		c.P.setNZ(c.A)
	} else {
		c.P.pull(c.pull8())
	}
	return true
}
