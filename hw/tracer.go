package hw

import (
	"fmt"
	"io"
)

// cpuState stores the CPU state for the execution trace.
type cpuState struct {
	A, X, Y uint8
	P       P
	SP      uint8
	PC      uint16

	Clock    int64
	PPUCycle int
	Scanline int
}

type disasmer interface {
	Disasm(pc uint16) DisasmOp
}

// tracer writes one line per executed instruction, in a format close to
// Mesen's trace logger (and nestest.log).
type tracer struct {
	d   disasmer
	w   io.Writer
	buf []byte
}

func (t *tracer) write(state cpuState) {
	dis := t.d.Disasm(state.PC)
	buf := dis.appendTo(t.buf[:0])
	buf = append(buf, ' ')
	buf = fmt.Appendf(buf, "A:%02X X:%02X Y:%02X P:%02X S:%02X PPU:%-3d,%-3d %d\n",
		state.A, state.X, state.Y, uint8(state.P), state.SP,
		state.Scanline, state.PPUCycle, state.Clock)
	t.w.Write(buf)
	t.buf = buf
}
