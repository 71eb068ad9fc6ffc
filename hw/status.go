package hw

// P is the 6502 processor status register.
type P uint8

const (
	Carry = 1 << iota
	Zero
	Interrupt
	Decimal
	Break
	Reserved
	Overflow
	Negative
)

func (p P) String() string {
	const bits = "nvubdizcNVUBDIZC"

	s := make([]byte, 8)
	for i := range 8 {
		ibit := (uint8(p) & (1 << (7 - i))) >> (7 - i)
		s[i] = bits[i+int(8*ibit)]
	}
	return string(s)
}

func (p P) C() bool { return p&Carry != 0 }
func (p P) Z() bool { return p&Zero != 0 }
func (p P) I() bool { return p&Interrupt != 0 }
func (p P) D() bool { return p&Decimal != 0 }
func (p P) B() bool { return p&Break != 0 }
func (p P) U() bool { return p&Reserved != 0 }
func (p P) V() bool { return p&Overflow != 0 }
func (p P) N() bool { return p&Negative != 0 }

func (p *P) setFlags(flags uint8) {
	*p |= P(flags)
}

func (p *P) clearFlags(flags uint8) {
	*p &^= P(flags)
}

func (p *P) writeFlag(flag uint8, on bool) {
	if on {
		p.setFlags(flag)
	} else {
		p.clearFlags(flag)
	}
}

// setNZ sets Z and N according to val.
func (p *P) setNZ(val uint8) {
	p.clearFlags(Zero | Negative)
	if val == 0 {
		p.setFlags(Zero)
	} else if val&0x80 != 0 {
		p.setFlags(Negative)
	}
}

// pull replaces the status register with a value pulled from the stack, B and
// U keep their current value.
func (p *P) pull(val uint8) {
	const mask uint8 = 0b11001111
	*p = P(uint8(*p)&^mask | val&mask)
}
