package hw

import (
	"bytes"
	"strings"
	"testing"
)

func TestDisasm(t *testing.T) {
	tests := []struct {
		pc   uint16
		code []byte
		want string
	}{
		{0xC000, []byte{0x4C, 0xF5, 0xC5}, "C000  4C F5 C5  JMP $C5F5"},
		{0xC000, []byte{0xA9, 0x10}, "C000  A9 10     LDA #$10"},
		{0xC000, []byte{0x8D, 0x00, 0x20}, "C000  8D 00 20  STA PpuControl_2000"},
		{0xC000, []byte{0xB1, 0x80}, "C000  B1 80     LDA ($80),Y"},
		{0xC010, []byte{0xD0, 0xFE}, "C010  D0 FE     BNE $C010"},
		{0xC000, []byte{0x0A}, "C000  0A        ASL A"},
		{0xC000, []byte{0xA7, 0x12}, "C000  A7 12     *LAX $12"},
		{0xC000, []byte{0x6C, 0xFF, 0x02}, "C000  6C FF 02  JMP ($02FF)"},
	}
	for _, tt := range tests {
		var mem [0x10000]uint8
		copy(mem[tt.pc:], tt.code)
		d := Disasm(func(addr uint16) uint8 { return mem[addr] }, tt.pc)
		got := d.String()
		if len(got) != 48 {
			t.Errorf("Disasm(% X) is %d columns wide, want 48", tt.code, len(got))
		}
		if got = strings.TrimRight(got, " "); got != tt.want {
			t.Errorf("Disasm(% X)\ngot:  %q\nwant: %q", tt.code, got, tt.want)
		}
	}
}

func TestAssemble(t *testing.T) {
	src := `
	SEI          ; comment
	LDX #$FF
	TXS
	STA PpuControl_2000
	LDA $10,X
	LDA $0010,X
	*LAX ($20),Y
	BNE $8000
	ROL
	JMP ($1234)
`
	got, err := Assemble(0x8000, src)
	tcheck(t, err)

	want := []byte{
		0x78,
		0xA2, 0xFF,
		0x9A,
		0x8D, 0x00, 0x20,
		0xB5, 0x10,
		0xBD, 0x10, 0x00,
		0xB3, 0x20,
		0xD0, 0xF0,
		0x2A,
		0x6C, 0x34, 0x12,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Assemble\ngot:  % X\nwant: % X", got, want)
	}
}

func TestAssembleErrors(t *testing.T) {
	tests := []string{
		"LDA #$123",
		"BNE $9000",
		"STA #$10",
		"FOO $10",
		"LDA $",
	}
	for _, src := range tests {
		if _, err := Assemble(0x8000, src); err == nil {
			t.Errorf("Assemble(%q) should fail", src)
		}
	}
}

// Disassembling then reassembling any opcode gives back the same listing.
// Instructions reassemble to the same bytes, except for the unofficial
// opcodes duplicating another one with the same mnemonic and addressing mode
// (NOP variants, JAM, $2B *ANC): those reassemble to the lowest opcode. $EB
// *SBC stays apart from $E9 SBC thanks to the '*' prefix.
func TestDisasmAsmRoundTrip(t *testing.T) {
	const pc = 0x8000

	canonical := func(opcode int) uint8 {
		op := &opdefs[opcode]
		for i := range opcode {
			o := &opdefs[i]
			if o.name == op.name && o.mode == op.mode && o.unofficial == op.unofficial {
				return uint8(i)
			}
		}
		return uint8(opcode)
	}

	for opcode := range 256 {
		var mem [0x10000]uint8
		mem[pc], mem[pc+1], mem[pc+2] = uint8(opcode), 0x12, 0x34
		read := func(addr uint16) uint8 { return mem[addr] }

		d := Disasm(read, pc)
		src := d.Opcode + " " + d.Oper
		code, err := Assemble(pc, src)
		if err != nil {
			t.Errorf("opcode %02X: Assemble(%q): %s", opcode, src, err)
			continue
		}

		want := append([]byte(nil), mem[pc:pc+len(d.Buf)]...)
		if c := canonical(opcode); c != uint8(opcode) {
			if !opdefs[opcode].unofficial {
				t.Errorf("official opcode %02X duplicates %02X", opcode, c)
			}
			want[0] = c
		}
		if !bytes.Equal(code, want) {
			t.Errorf("opcode %02X: %q assembled as % X, want % X", opcode, src, code, want)
		}
	}
}

func TestAssembleISCAlias(t *testing.T) {
	for _, src := range []string{"ISC $10", "*ISC $10", "ISB $10", "*isb $10"} {
		code, err := Assemble(0x8000, src)
		tcheck(t, err)
		if !bytes.Equal(code, []byte{0xE7, 0x10}) {
			t.Errorf("Assemble(%q) = % X, want E7 10", src, code)
		}
	}
}
