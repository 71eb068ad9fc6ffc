package hw

type addrMode uint8

const (
	modeImp addrMode = iota // implied
	modeAcc                 // accumulator
	modeImm                 // immediate
	modeZpg                 // zero page
	modeZpx                 // zero page,X
	modeZpy                 // zero page,Y
	modeAbs                 // absolute
	modeAbx                 // absolute,X
	modeAby                 // absolute,Y
	modeIzx                 // (indirect,X)
	modeIzy                 // (indirect),Y
	modeRel                 // relative
	modeInd                 // (indirect)
)

// operand size in bytes, per addressing mode.
var operandSize = [...]uint8{
	modeImp: 0, modeAcc: 0, modeImm: 1,
	modeZpg: 1, modeZpx: 1, modeZpy: 1,
	modeAbs: 2, modeAbx: 2, modeAby: 2,
	modeIzx: 1, modeIzy: 1, modeRel: 1, modeInd: 2,
}

type opkind uint8

const (
	kindMisc opkind = iota
	kindRead
	kindWrite
	kindRMW
)

// opseq identifies instructions having their own cycle sequence, not
// derived from their addressing mode.
type opseq uint8

const (
	seqNone opseq = iota
	seqBRK
	seqRTI
	seqRTS
	seqPHA
	seqPHP
	seqPLA
	seqPLP
	seqJSR
	seqJMP
	seqJMPInd
	seqJAM
)

type opdef struct {
	name string
	mode addrMode
	kind opkind
	seq  opseq

	read  func(*CPU, uint8)
	write func(*CPU) uint8
	rmw   func(*CPU, uint8) uint8
	impl  func(*CPU)
	cond  func(*CPU) bool

	sh         bool // SHA/SHX/SHY/TAS store
	unofficial bool
}

func rd(name string, mode addrMode, f func(*CPU, uint8)) opdef {
	return opdef{name: name, mode: mode, kind: kindRead, read: f}
}

func wr(name string, mode addrMode, f func(*CPU) uint8) opdef {
	return opdef{name: name, mode: mode, kind: kindWrite, write: f}
}

func rw(name string, mode addrMode, f func(*CPU, uint8) uint8) opdef {
	return opdef{name: name, mode: mode, kind: kindRMW, rmw: f}
}

func im(name string, f func(*CPU)) opdef {
	return opdef{name: name, mode: modeImp, impl: f}
}

func br(name string, f func(*CPU) bool) opdef {
	return opdef{name: name, mode: modeRel, cond: f}
}

func sq(name string, mode addrMode, seq opseq) opdef {
	return opdef{name: name, mode: mode, seq: seq}
}

func unoff(op opdef) opdef {
	op.unofficial = true
	return op
}

func sh(op opdef) opdef {
	op.sh = true
	op.unofficial = true
	return op
}

var jam = unoff(sq("JAM", modeImp, seqJAM))

var opdefs = [256]opdef{
	0x00: sq("BRK", modeImp, seqBRK),
	0x01: rd("ORA", modeIzx, (*CPU).ora),
	0x02: jam,
	0x03: unoff(rw("SLO", modeIzx, (*CPU).slo)),
	0x04: unoff(rd("NOP", modeZpg, (*CPU).nopRead)),
	0x05: rd("ORA", modeZpg, (*CPU).ora),
	0x06: rw("ASL", modeZpg, (*CPU).asl),
	0x07: unoff(rw("SLO", modeZpg, (*CPU).slo)),
	0x08: sq("PHP", modeImp, seqPHP),
	0x09: rd("ORA", modeImm, (*CPU).ora),
	0x0A: rw("ASL", modeAcc, (*CPU).asl),
	0x0B: unoff(rd("ANC", modeImm, (*CPU).anc)),
	0x0C: unoff(rd("NOP", modeAbs, (*CPU).nopRead)),
	0x0D: rd("ORA", modeAbs, (*CPU).ora),
	0x0E: rw("ASL", modeAbs, (*CPU).asl),
	0x0F: unoff(rw("SLO", modeAbs, (*CPU).slo)),

	0x10: br("BPL", (*CPU).bpl),
	0x11: rd("ORA", modeIzy, (*CPU).ora),
	0x12: jam,
	0x13: unoff(rw("SLO", modeIzy, (*CPU).slo)),
	0x14: unoff(rd("NOP", modeZpx, (*CPU).nopRead)),
	0x15: rd("ORA", modeZpx, (*CPU).ora),
	0x16: rw("ASL", modeZpx, (*CPU).asl),
	0x17: unoff(rw("SLO", modeZpx, (*CPU).slo)),
	0x18: im("CLC", (*CPU).clc),
	0x19: rd("ORA", modeAby, (*CPU).ora),
	0x1A: unoff(im("NOP", (*CPU).nop)),
	0x1B: unoff(rw("SLO", modeAby, (*CPU).slo)),
	0x1C: unoff(rd("NOP", modeAbx, (*CPU).nopRead)),
	0x1D: rd("ORA", modeAbx, (*CPU).ora),
	0x1E: rw("ASL", modeAbx, (*CPU).asl),
	0x1F: unoff(rw("SLO", modeAbx, (*CPU).slo)),

	0x20: sq("JSR", modeAbs, seqJSR),
	0x21: rd("AND", modeIzx, (*CPU).and),
	0x22: jam,
	0x23: unoff(rw("RLA", modeIzx, (*CPU).rla)),
	0x24: rd("BIT", modeZpg, (*CPU).bit),
	0x25: rd("AND", modeZpg, (*CPU).and),
	0x26: rw("ROL", modeZpg, (*CPU).rol),
	0x27: unoff(rw("RLA", modeZpg, (*CPU).rla)),
	0x28: sq("PLP", modeImp, seqPLP),
	0x29: rd("AND", modeImm, (*CPU).and),
	0x2A: rw("ROL", modeAcc, (*CPU).rol),
	0x2B: unoff(rd("ANC", modeImm, (*CPU).anc)),
	0x2C: rd("BIT", modeAbs, (*CPU).bit),
	0x2D: rd("AND", modeAbs, (*CPU).and),
	0x2E: rw("ROL", modeAbs, (*CPU).rol),
	0x2F: unoff(rw("RLA", modeAbs, (*CPU).rla)),

	0x30: br("BMI", (*CPU).bmi),
	0x31: rd("AND", modeIzy, (*CPU).and),
	0x32: jam,
	0x33: unoff(rw("RLA", modeIzy, (*CPU).rla)),
	0x34: unoff(rd("NOP", modeZpx, (*CPU).nopRead)),
	0x35: rd("AND", modeZpx, (*CPU).and),
	0x36: rw("ROL", modeZpx, (*CPU).rol),
	0x37: unoff(rw("RLA", modeZpx, (*CPU).rla)),
	0x38: im("SEC", (*CPU).sec),
	0x39: rd("AND", modeAby, (*CPU).and),
	0x3A: unoff(im("NOP", (*CPU).nop)),
	0x3B: unoff(rw("RLA", modeAby, (*CPU).rla)),
	0x3C: unoff(rd("NOP", modeAbx, (*CPU).nopRead)),
	0x3D: rd("AND", modeAbx, (*CPU).and),
	0x3E: rw("ROL", modeAbx, (*CPU).rol),
	0x3F: unoff(rw("RLA", modeAbx, (*CPU).rla)),

	0x40: sq("RTI", modeImp, seqRTI),
	0x41: rd("EOR", modeIzx, (*CPU).eor),
	0x42: jam,
	0x43: unoff(rw("SRE", modeIzx, (*CPU).sre)),
	0x44: unoff(rd("NOP", modeZpg, (*CPU).nopRead)),
	0x45: rd("EOR", modeZpg, (*CPU).eor),
	0x46: rw("LSR", modeZpg, (*CPU).lsr),
	0x47: unoff(rw("SRE", modeZpg, (*CPU).sre)),
	0x48: sq("PHA", modeImp, seqPHA),
	0x49: rd("EOR", modeImm, (*CPU).eor),
	0x4A: rw("LSR", modeAcc, (*CPU).lsr),
	0x4B: unoff(rd("ALR", modeImm, (*CPU).alr)),
	0x4C: sq("JMP", modeAbs, seqJMP),
	0x4D: rd("EOR", modeAbs, (*CPU).eor),
	0x4E: rw("LSR", modeAbs, (*CPU).lsr),
	0x4F: unoff(rw("SRE", modeAbs, (*CPU).sre)),

	0x50: br("BVC", (*CPU).bvc),
	0x51: rd("EOR", modeIzy, (*CPU).eor),
	0x52: jam,
	0x53: unoff(rw("SRE", modeIzy, (*CPU).sre)),
	0x54: unoff(rd("NOP", modeZpx, (*CPU).nopRead)),
	0x55: rd("EOR", modeZpx, (*CPU).eor),
	0x56: rw("LSR", modeZpx, (*CPU).lsr),
	0x57: unoff(rw("SRE", modeZpx, (*CPU).sre)),
	0x58: im("CLI", (*CPU).cli),
	0x59: rd("EOR", modeAby, (*CPU).eor),
	0x5A: unoff(im("NOP", (*CPU).nop)),
	0x5B: unoff(rw("SRE", modeAby, (*CPU).sre)),
	0x5C: unoff(rd("NOP", modeAbx, (*CPU).nopRead)),
	0x5D: rd("EOR", modeAbx, (*CPU).eor),
	0x5E: rw("LSR", modeAbx, (*CPU).lsr),
	0x5F: unoff(rw("SRE", modeAbx, (*CPU).sre)),

	0x60: sq("RTS", modeImp, seqRTS),
	0x61: rd("ADC", modeIzx, (*CPU).adc),
	0x62: jam,
	0x63: unoff(rw("RRA", modeIzx, (*CPU).rra)),
	0x64: unoff(rd("NOP", modeZpg, (*CPU).nopRead)),
	0x65: rd("ADC", modeZpg, (*CPU).adc),
	0x66: rw("ROR", modeZpg, (*CPU).ror),
	0x67: unoff(rw("RRA", modeZpg, (*CPU).rra)),
	0x68: sq("PLA", modeImp, seqPLA),
	0x69: rd("ADC", modeImm, (*CPU).adc),
	0x6A: rw("ROR", modeAcc, (*CPU).ror),
	0x6B: unoff(rd("ARR", modeImm, (*CPU).arr)),
	0x6C: sq("JMP", modeInd, seqJMPInd),
	0x6D: rd("ADC", modeAbs, (*CPU).adc),
	0x6E: rw("ROR", modeAbs, (*CPU).ror),
	0x6F: unoff(rw("RRA", modeAbs, (*CPU).rra)),

	0x70: br("BVS", (*CPU).bvs),
	0x71: rd("ADC", modeIzy, (*CPU).adc),
	0x72: jam,
	0x73: unoff(rw("RRA", modeIzy, (*CPU).rra)),
	0x74: unoff(rd("NOP", modeZpx, (*CPU).nopRead)),
	0x75: rd("ADC", modeZpx, (*CPU).adc),
	0x76: rw("ROR", modeZpx, (*CPU).ror),
	0x77: unoff(rw("RRA", modeZpx, (*CPU).rra)),
	0x78: im("SEI", (*CPU).sei),
	0x79: rd("ADC", modeAby, (*CPU).adc),
	0x7A: unoff(im("NOP", (*CPU).nop)),
	0x7B: unoff(rw("RRA", modeAby, (*CPU).rra)),
	0x7C: unoff(rd("NOP", modeAbx, (*CPU).nopRead)),
	0x7D: rd("ADC", modeAbx, (*CPU).adc),
	0x7E: rw("ROR", modeAbx, (*CPU).ror),
	0x7F: unoff(rw("RRA", modeAbx, (*CPU).rra)),

	0x80: unoff(rd("NOP", modeImm, (*CPU).nopRead)),
	0x81: wr("STA", modeIzx, (*CPU).sta),
	0x82: unoff(rd("NOP", modeImm, (*CPU).nopRead)),
	0x83: unoff(wr("SAX", modeIzx, (*CPU).sax)),
	0x84: wr("STY", modeZpg, (*CPU).sty),
	0x85: wr("STA", modeZpg, (*CPU).sta),
	0x86: wr("STX", modeZpg, (*CPU).stx),
	0x87: unoff(wr("SAX", modeZpg, (*CPU).sax)),
	0x88: im("DEY", (*CPU).dey),
	0x89: unoff(rd("NOP", modeImm, (*CPU).nopRead)),
	0x8A: im("TXA", (*CPU).txa),
	0x8B: unoff(rd("ANE", modeImm, (*CPU).ane)),
	0x8C: wr("STY", modeAbs, (*CPU).sty),
	0x8D: wr("STA", modeAbs, (*CPU).sta),
	0x8E: wr("STX", modeAbs, (*CPU).stx),
	0x8F: unoff(wr("SAX", modeAbs, (*CPU).sax)),

	0x90: br("BCC", (*CPU).bcc),
	0x91: wr("STA", modeIzy, (*CPU).sta),
	0x92: jam,
	0x93: sh(wr("SHA", modeIzy, (*CPU).sha)),
	0x94: wr("STY", modeZpx, (*CPU).sty),
	0x95: wr("STA", modeZpx, (*CPU).sta),
	0x96: wr("STX", modeZpy, (*CPU).stx),
	0x97: unoff(wr("SAX", modeZpy, (*CPU).sax)),
	0x98: im("TYA", (*CPU).tya),
	0x99: wr("STA", modeAby, (*CPU).sta),
	0x9A: im("TXS", (*CPU).txs),
	0x9B: sh(wr("TAS", modeAby, (*CPU).tas)),
	0x9C: sh(wr("SHY", modeAbx, (*CPU).shy)),
	0x9D: wr("STA", modeAbx, (*CPU).sta),
	0x9E: sh(wr("SHX", modeAby, (*CPU).shx)),
	0x9F: sh(wr("SHA", modeAby, (*CPU).sha)),

	0xA0: rd("LDY", modeImm, (*CPU).ldy),
	0xA1: rd("LDA", modeIzx, (*CPU).lda),
	0xA2: rd("LDX", modeImm, (*CPU).ldx),
	0xA3: unoff(rd("LAX", modeIzx, (*CPU).lax)),
	0xA4: rd("LDY", modeZpg, (*CPU).ldy),
	0xA5: rd("LDA", modeZpg, (*CPU).lda),
	0xA6: rd("LDX", modeZpg, (*CPU).ldx),
	0xA7: unoff(rd("LAX", modeZpg, (*CPU).lax)),
	0xA8: im("TAY", (*CPU).tay),
	0xA9: rd("LDA", modeImm, (*CPU).lda),
	0xAA: im("TAX", (*CPU).tax),
	0xAB: unoff(rd("LXA", modeImm, (*CPU).lxa)),
	0xAC: rd("LDY", modeAbs, (*CPU).ldy),
	0xAD: rd("LDA", modeAbs, (*CPU).lda),
	0xAE: rd("LDX", modeAbs, (*CPU).ldx),
	0xAF: unoff(rd("LAX", modeAbs, (*CPU).lax)),

	0xB0: br("BCS", (*CPU).bcs),
	0xB1: rd("LDA", modeIzy, (*CPU).lda),
	0xB2: jam,
	0xB3: unoff(rd("LAX", modeIzy, (*CPU).lax)),
	0xB4: rd("LDY", modeZpx, (*CPU).ldy),
	0xB5: rd("LDA", modeZpx, (*CPU).lda),
	0xB6: rd("LDX", modeZpy, (*CPU).ldx),
	0xB7: unoff(rd("LAX", modeZpy, (*CPU).lax)),
	0xB8: im("CLV", (*CPU).clv),
	0xB9: rd("LDA", modeAby, (*CPU).lda),
	0xBA: im("TSX", (*CPU).tsx),
	0xBB: unoff(rd("LAS", modeAby, (*CPU).las)),
	0xBC: rd("LDY", modeAbx, (*CPU).ldy),
	0xBD: rd("LDA", modeAbx, (*CPU).lda),
	0xBE: rd("LDX", modeAby, (*CPU).ldx),
	0xBF: unoff(rd("LAX", modeAby, (*CPU).lax)),

	0xC0: rd("CPY", modeImm, (*CPU).cpy),
	0xC1: rd("CMP", modeIzx, (*CPU).cmp),
	0xC2: unoff(rd("NOP", modeImm, (*CPU).nopRead)),
	0xC3: unoff(rw("DCP", modeIzx, (*CPU).dcp)),
	0xC4: rd("CPY", modeZpg, (*CPU).cpy),
	0xC5: rd("CMP", modeZpg, (*CPU).cmp),
	0xC6: rw("DEC", modeZpg, (*CPU).dec),
	0xC7: unoff(rw("DCP", modeZpg, (*CPU).dcp)),
	0xC8: im("INY", (*CPU).iny),
	0xC9: rd("CMP", modeImm, (*CPU).cmp),
	0xCA: im("DEX", (*CPU).dex),
	0xCB: unoff(rd("SBX", modeImm, (*CPU).sbx)),
	0xCC: rd("CPY", modeAbs, (*CPU).cpy),
	0xCD: rd("CMP", modeAbs, (*CPU).cmp),
	0xCE: rw("DEC", modeAbs, (*CPU).dec),
	0xCF: unoff(rw("DCP", modeAbs, (*CPU).dcp)),

	0xD0: br("BNE", (*CPU).bne),
	0xD1: rd("CMP", modeIzy, (*CPU).cmp),
	0xD2: jam,
	0xD3: unoff(rw("DCP", modeIzy, (*CPU).dcp)),
	0xD4: unoff(rd("NOP", modeZpx, (*CPU).nopRead)),
	0xD5: rd("CMP", modeZpx, (*CPU).cmp),
	0xD6: rw("DEC", modeZpx, (*CPU).dec),
	0xD7: unoff(rw("DCP", modeZpx, (*CPU).dcp)),
	0xD8: im("CLD", (*CPU).cld),
	0xD9: rd("CMP", modeAby, (*CPU).cmp),
	0xDA: unoff(im("NOP", (*CPU).nop)),
	0xDB: unoff(rw("DCP", modeAby, (*CPU).dcp)),
	0xDC: unoff(rd("NOP", modeAbx, (*CPU).nopRead)),
	0xDD: rd("CMP", modeAbx, (*CPU).cmp),
	0xDE: rw("DEC", modeAbx, (*CPU).dec),
	0xDF: unoff(rw("DCP", modeAbx, (*CPU).dcp)),

	0xE0: rd("CPX", modeImm, (*CPU).cpx),
	0xE1: rd("SBC", modeIzx, (*CPU).sbc),
	0xE2: unoff(rd("NOP", modeImm, (*CPU).nopRead)),
	0xE3: unoff(rw("ISC", modeIzx, (*CPU).isc)),
	0xE4: rd("CPX", modeZpg, (*CPU).cpx),
	0xE5: rd("SBC", modeZpg, (*CPU).sbc),
	0xE6: rw("INC", modeZpg, (*CPU).inc),
	0xE7: unoff(rw("ISC", modeZpg, (*CPU).isc)),
	0xE8: im("INX", (*CPU).inx),
	0xE9: rd("SBC", modeImm, (*CPU).sbc),
	0xEA: im("NOP", (*CPU).nop),
	0xEB: unoff(rd("SBC", modeImm, (*CPU).sbc)),
	0xEC: rd("CPX", modeAbs, (*CPU).cpx),
	0xED: rd("SBC", modeAbs, (*CPU).sbc),
	0xEE: rw("INC", modeAbs, (*CPU).inc),
	0xEF: unoff(rw("ISC", modeAbs, (*CPU).isc)),

	0xF0: br("BEQ", (*CPU).beq),
	0xF1: rd("SBC", modeIzy, (*CPU).sbc),
	0xF2: jam,
	0xF3: unoff(rw("ISC", modeIzy, (*CPU).isc)),
	0xF4: unoff(rd("NOP", modeZpx, (*CPU).nopRead)),
	0xF5: rd("SBC", modeZpx, (*CPU).sbc),
	0xF6: rw("INC", modeZpx, (*CPU).inc),
	0xF7: unoff(rw("ISC", modeZpx, (*CPU).isc)),
	0xF8: im("SED", (*CPU).sed),
	0xF9: rd("SBC", modeAby, (*CPU).sbc),
	0xFA: unoff(im("NOP", (*CPU).nop)),
	0xFB: unoff(rw("ISC", modeAby, (*CPU).isc)),
	0xFC: unoff(rd("NOP", modeAbx, (*CPU).nopRead)),
	0xFD: rd("SBC", modeAbx, (*CPU).sbc),
	0xFE: rw("INC", modeAbx, (*CPU).inc),
	0xFF: unoff(rw("ISC", modeAbx, (*CPU).isc)),
}
