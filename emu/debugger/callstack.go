package debugger

import "fmt"

// FrameKind tells how a call stack frame has been entered.
type FrameKind uint8

const (
	BottomFrame FrameKind = iota // the reset handler
	CallFrame                    // JSR
	NMIFrame
	IRQFrame
)

func (k FrameKind) String() string {
	switch k {
	case BottomFrame:
		return "bottom"
	case CallFrame:
		return "call"
	case NMIFrame:
		return "nmi"
	case IRQFrame:
		return "irq"
	}
	return fmt.Sprintf("FrameKind(%d)", uint8(k))
}

// A Frame is one entry of the call stack, as seen from the debugger.
type Frame struct {
	Kind  FrameKind
	Entry uint16 // routine entry point
	PC    uint16 // current location inside the routine
}

func (f Frame) String() string {
	switch f.Kind {
	case BottomFrame:
		return fmt.Sprintf("[bottom of stack] $%04X", f.PC)
	case NMIFrame, IRQFrame:
		return fmt.Sprintf("[%s] $%04X $%04X", f.Kind, f.Entry, f.PC)
	}
	return fmt.Sprintf("$%04X $%04X", f.Entry, f.PC)
}

// maxDepth bounds the call stack of programs that never return from their
// subroutines (e.g. by manipulating the stack pointer).
const maxDepth = 256

type stackFrame struct {
	src    uint16 // call site
	target uint16
	ret    uint16
	kind   FrameKind
}

type callStack []stackFrame

func (cs *callStack) push(f stackFrame) {
	if len(*cs) == maxDepth {
		*cs = append((*cs)[:0], (*cs)[1:]...)
	}
	*cs = append(*cs, f)
}

func (cs *callStack) pop() {
	if len(*cs) == 0 {
		return
	}
	*cs = (*cs)[:len(*cs)-1]
}

func (cs *callStack) reset() {
	*cs = (*cs)[:0]
}

// build returns the frames, innermost first, pc being the current location.
func (cs callStack) build(pc, entry uint16) []Frame {
	frames := make([]Frame, 0, len(cs)+1)
	for i := len(cs) - 1; i >= 0; i-- {
		frames = append(frames, Frame{
			Kind:  cs[i].kind,
			Entry: cs[i].target,
			PC:    pc,
		})
		pc = cs[i].src
	}
	return append(frames, Frame{
		Kind:  BottomFrame,
		Entry: entry,
		PC:    pc,
	})
}
