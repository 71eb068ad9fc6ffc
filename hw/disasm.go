package hw

import "fmt"

// DisasmOp is a disassembled instruction.
type DisasmOp struct {
	Opcode string // mnemonic, prefixed with '*' for unofficial opcodes
	Oper   string // formatted operand
	Buf    []byte // instruction bytes
	PC     uint16
}

const (
	disasmBytesLen = 16
	disasmLen      = 48
)

// Bytes returns the fixed-width representation of d: address, instruction
// bytes and assembly, padded to 48 columns.
func (d DisasmOp) Bytes() []byte {
	return d.appendTo(make([]byte, 0, disasmLen))
}

func (d DisasmOp) String() string {
	return string(d.Bytes())
}

func (d DisasmOp) appendTo(buf []byte) []byte {
	start := len(buf)
	buf = fmt.Appendf(buf, "%04X  ", d.PC)
	for _, b := range d.Buf {
		buf = fmt.Appendf(buf, "%02X ", b)
	}
	buf = pad(buf, start+disasmBytesLen)
	buf = append(buf, d.Opcode...)
	buf = append(buf, ' ')
	buf = append(buf, d.Oper...)
	return pad(buf, start+disasmLen)
}

func pad(buf []byte, n int) []byte {
	for len(buf) < n {
		buf = append(buf, ' ')
	}
	return buf
}

// Disasm decodes the instruction at pc, reading memory with read (which
// must not have side effects).
func Disasm(read func(uint16) uint8, pc uint16) DisasmOp {
	opcode := read(pc)
	op := &opdefs[opcode]

	d := DisasmOp{
		PC:     pc,
		Opcode: op.name,
		Buf:    make([]byte, 1+operandSize[op.mode]),
	}
	if op.unofficial {
		d.Opcode = "*" + op.name
	}
	d.Buf[0] = opcode
	for i := 1; i < len(d.Buf); i++ {
		d.Buf[i] = read(pc + uint16(i))
	}

	var oper16 uint16
	if len(d.Buf) == 3 {
		oper16 = uint16(d.Buf[1]) | uint16(d.Buf[2])<<8
	}

	switch op.mode {
	case modeImp:
	case modeAcc:
		d.Oper = "A"
	case modeImm:
		d.Oper = fmt.Sprintf("#$%02X", d.Buf[1])
	case modeZpg:
		d.Oper = fmt.Sprintf("$%02X", d.Buf[1])
	case modeZpx:
		d.Oper = fmt.Sprintf("$%02X,X", d.Buf[1])
	case modeZpy:
		d.Oper = fmt.Sprintf("$%02X,Y", d.Buf[1])
	case modeAbs:
		if op.seq == seqJMP || op.seq == seqJSR {
			d.Oper = fmt.Sprintf("$%04X", oper16)
		} else {
			d.Oper = formatAddr(oper16)
		}
	case modeAbx:
		d.Oper = formatAddr(oper16) + ",X"
	case modeAby:
		d.Oper = formatAddr(oper16) + ",Y"
	case modeIzx:
		d.Oper = fmt.Sprintf("($%02X,X)", d.Buf[1])
	case modeIzy:
		d.Oper = fmt.Sprintf("($%02X),Y", d.Buf[1])
	case modeInd:
		d.Oper = fmt.Sprintf("($%04X)", oper16)
	case modeRel:
		target := pc + 2 + uint16(int8(d.Buf[1]))
		d.Oper = fmt.Sprintf("$%04X", target)
	}
	return d
}

var addressLabels = map[uint16]string{
	0x2000: "PpuControl_2000",
	0x2001: "PpuMask_2001",
	0x2002: "PpuStatus_2002",
	0x2003: "OamAddr_2003",
	0x2004: "OamData_2004",
	0x2005: "PpuScroll_2005",
	0x2006: "PpuAddr_2006",
	0x2007: "PpuData_2007",
	0x4000: "Sq0Duty_4000",
	0x4001: "Sq0Sweep_4001",
	0x4002: "Sq0Timer_4002",
	0x4003: "Sq0Length_4003",
	0x4004: "Sq1Duty_4004",
	0x4005: "Sq1Sweep_4005",
	0x4006: "Sq1Timer_4006",
	0x4007: "Sq1Length_4007",
	0x4008: "TrgLinear_4008",
	0x400A: "TrgTimer_400A",
	0x400B: "TrgLength_400B",
	0x400C: "NoiseVolume_400C",
	0x400E: "NoisePeriod_400E",
	0x400F: "NoiseLength_400F",
	0x4010: "DmcFreq_4010",
	0x4011: "DmcCounter_4011",
	0x4012: "DmcAddress_4012",
	0x4013: "DmcLength_4013",
	0x4014: "SpriteDma_4014",
	0x4015: "ApuStatus_4015",
	0x4016: "Ctrl1_4016",
	0x4017: "Ctrl2_FrameCtr_4017",
}

var labelAddresses = func() map[string]uint16 {
	m := make(map[string]uint16, len(addressLabels))
	for addr, label := range addressLabels {
		m[label] = addr
	}
	return m
}()

func formatAddr(addr uint16) string {
	if label, ok := addressLabels[addr]; ok {
		return label
	}
	return fmt.Sprintf("$%04X", addr)
}
