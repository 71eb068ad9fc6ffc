package debugger

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCallStack(t *testing.T) {
	t.Run("simple", func(t *testing.T) {
		var cstack callStack
		cstack.push(stackFrame{src: 0xC7C2, target: 0xC7E7, ret: 0xC7C5, kind: CallFrame})
		cstack.push(stackFrame{src: 0xC801, target: 0xCBAE, ret: 0xC804, kind: CallFrame})

		got := cstack.build(0xF099, 0xC000)
		want := []Frame{
			{CallFrame, 0xCBAE, 0xF099},
			{CallFrame, 0xC7E7, 0xC801},
			{BottomFrame, 0xC000, 0xC7C2},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("callstack differs (-want +got):\n%s", diff)
		}
	})

	t.Run("empty", func(t *testing.T) {
		var cstack callStack
		got := cstack.build(0xF099, 0xC000)
		want := []Frame{
			{BottomFrame, 0xC000, 0xF099},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("callstack differs (-want +got):\n%s", diff)
		}
	})

	t.Run("pop", func(t *testing.T) {
		var cstack callStack
		cstack.pop()
		cstack.push(stackFrame{src: 0x8000, target: 0x9000, kind: NMIFrame})
		cstack.pop()
		if len(cstack) != 0 {
			t.Fatalf("len = %d, want 0", len(cstack))
		}
	})

	t.Run("depth", func(t *testing.T) {
		var cstack callStack
		for i := range maxDepth + 10 {
			cstack.push(stackFrame{src: uint16(i), target: uint16(i)})
		}
		if len(cstack) != maxDepth {
			t.Fatalf("len = %d, want %d", len(cstack), maxDepth)
		}
		if cstack[0].src != 10 {
			t.Errorf("oldest frame src = %d, want 10", cstack[0].src)
		}
	})
}

func TestFrameString(t *testing.T) {
	tests := []struct {
		f    Frame
		want string
	}{
		{Frame{BottomFrame, 0xC000, 0xC123}, "[bottom of stack] $C123"},
		{Frame{CallFrame, 0xCBAE, 0xCBB0}, "$CBAE $CBB0"},
		{Frame{NMIFrame, 0xE000, 0xE004}, "[nmi] $E000 $E004"},
	}
	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}
