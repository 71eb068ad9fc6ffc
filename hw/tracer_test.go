package hw

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

type dummyDisasm map[uint16]DisasmOp

func (dd dummyDisasm) Disasm(pc uint16) DisasmOp {
	return dd[pc]
}

var traceOps = dummyDisasm{
	0xE052: DisasmOp{
		PC:     0xE052,
		Buf:    []byte{0xA9, 0x32},
		Opcode: "LDA",
		Oper:   "#$32",
	},
	0xE054: DisasmOp{
		PC:     0xE054,
		Buf:    []byte{0x20, 0xEE, 0xE0},
		Opcode: "JSR",
		Oper:   "$E0EE",
	},
}

var traceStates = []cpuState{
	{
		PC: 0xE052,
		A:  0x00, X: 0x01, Y: 0x00, P: P(0x07), SP: 0xF4,
		Scanline: 0,
		PPUCycle: 27,
		Clock:    8,
	},
	{
		PC: 0xE054,
		A:  0x32, X: 0x01, Y: 0x00, P: P(0x05), SP: 0xF4,
		Scanline: 0,
		PPUCycle: 33,
		Clock:    10,
	},
}

func TestTraceFormat(t *testing.T) {
	want := []string{
		`E052  A9 32     LDA #$32                         A:00 X:01 Y:00 P:07 S:F4 PPU:0  ,27  8`,
		`E054  20 EE E0  JSR $E0EE                        A:32 X:01 Y:00 P:05 S:F4 PPU:0  ,33  10`,
	}

	var out bytes.Buffer
	tr := tracer{d: traceOps, w: &out}
	for _, s := range traceStates {
		tr.write(s)
	}

	wantstr := strings.Join(want, "\n") + "\n"
	if out.String() != wantstr {
		t.Fatalf("trace differs\ngot:\n%s\nwant:\n%s\n", out.String(), wantstr)
	}
}

func TestCPUTrace(t *testing.T) {
	cpu, _ := loadCPUWith(t, `
0600: a2 01 ca
FFFC: 00 06`)

	var out bytes.Buffer
	cpu.SetTraceOutput(&out)
	tcheck(t, cpu.StepInstruction())
	tcheck(t, cpu.StepInstruction())
	cpu.SetTraceOutput(nil)
	tcheck(t, cpu.StepInstruction())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d trace lines, want 2:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[0], "0600  A2 01     LDX #$01") {
		t.Errorf("line 1 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "0602  CA        DEX") {
		t.Errorf("line 2 = %q", lines[1])
	}
	if !strings.Contains(lines[1], "A:00 X:01 Y:00 P:24 S:FD") {
		t.Errorf("line 2 = %q, want the registers before DEX", lines[1])
	}
}

func BenchmarkTraceFormat(b *testing.B) {
	tr := tracer{d: traceOps, w: io.Discard}
	for range b.N {
		tr.write(traceStates[0])
		tr.write(traceStates[1])
	}
}
