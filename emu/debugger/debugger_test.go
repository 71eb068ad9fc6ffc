package debugger

import (
	"errors"
	"io"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"nescore/emu"
	"nescore/emu/log"
	"nescore/hw"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func tcheck(tb testing.TB, err error) {
	tb.Helper()
	if err != nil {
		tb.Fatalf("fatal error:\n\n%s\n", err)
	}
}

func asm(t *testing.T, src string) []byte {
	t.Helper()
	prg, err := hw.Assemble(0x8000, src)
	tcheck(t, err)
	return prg
}

// newDebugged returns a console running prg from $8000 and a debugger
// attached to it.
func newDebugged(t *testing.T, prg []byte) (*emu.Console, *Debugger) {
	t.Helper()

	hdr := []byte{'N', 'E', 'S', 0x1a, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	prgrom := make([]byte, 0x4000)
	copy(prgrom, prg)
	for _, vec := range []uint16{hw.NMIVector, hw.ResetVector, hw.IRQVector} {
		off := int(vec) & 0x3FFF
		prgrom[off], prgrom[off+1] = 0x00, 0x80
	}
	rom := append(append(hdr, prgrom...), make([]byte, 0x2000)...)

	c, err := emu.NewConsole(emu.DefaultConfig())
	tcheck(t, err)
	dbg := New(c)
	c.SetDebugger(dbg)
	tcheck(t, c.Load(rom, nil))
	t.Cleanup(func() { c.Close() })
	return c, dbg
}

// runFrame runs a frame in the background.
func runFrame(c *emu.Console) *errgroup.Group {
	var g errgroup.Group
	g.Go(c.StepFrame)
	return &g
}

func nextStop(t *testing.T, dbg *Debugger) Stop {
	t.Helper()
	select {
	case stop := <-dbg.Stops():
		return stop
	case <-time.After(5 * time.Second):
		t.Fatalf("timeout waiting for a stop")
	}
	return Stop{}
}

func regX(c *emu.Console) uint16 {
	for _, r := range c.Registers() {
		if r.Name == "X" {
			return r.Value
		}
	}
	return 0xFFFF
}

func TestBreakpoint(t *testing.T) {
	c, dbg := newDebugged(t, asm(t, `
	LDX #$00
	INX
	JMP $8002
`))
	dbg.AddBreakpoint(0x8002)
	dbg.AddBreakpoint(0x9000)
	if diff := cmp.Diff([]uint16{0x8002, 0x9000}, dbg.Breakpoints()); diff != "" {
		t.Errorf("breakpoints (-want +got):\n%s", diff)
	}
	dbg.RemoveBreakpoint(0x9000)

	g := runFrame(c)
	for i := range 3 {
		stop := nextStop(t, dbg)
		if stop.Reason != ReasonBreakpoint || stop.PC != 0x8002 {
			t.Fatalf("got stop %v", stop)
		}
		if x := regX(c); x != uint16(i) {
			t.Errorf("X = %d, want %d", x, i)
		}
		if dbg.Status() != Paused {
			t.Errorf("status = %s, want paused", dbg.Status())
		}
		if i == 2 {
			dbg.ClearBreakpoints()
		}
		tcheck(t, dbg.Continue())
	}
	tcheck(t, g.Wait())

	if err := dbg.Continue(); !errors.Is(err, ErrNotPaused) {
		t.Errorf("Continue: got %v, want %v", err, ErrNotPaused)
	}
}

func TestPause(t *testing.T) {
	c, dbg := newDebugged(t, asm(t, `JMP $8000`))

	var (
		g    errgroup.Group
		done atomic.Bool
	)
	g.Go(func() error {
		for !done.Load() {
			if err := c.StepFrame(); err != nil {
				return err
			}
		}
		return nil
	})

	dbg.Pause()
	stop := nextStop(t, dbg)
	if stop.Reason != ReasonPause {
		t.Fatalf("got stop %v, want pause", stop)
	}
	done.Store(true)
	tcheck(t, dbg.Continue())
	tcheck(t, g.Wait())
}

func TestStep(t *testing.T) {
	c, dbg := newDebugged(t, asm(t, `
	LDX #$00
	INX
	JMP $8002
`))
	dbg.AddBreakpoint(0x8000)
	g := runFrame(c)

	var pcs []uint16
	for stop := nextStop(t, dbg); len(pcs) < 5; stop = nextStop(t, dbg) {
		pcs = append(pcs, stop.PC)
		tcheck(t, dbg.Step())
	}
	dbg.ClearBreakpoints()
	tcheck(t, dbg.Continue())
	tcheck(t, g.Wait())

	want := []uint16{0x8000, 0x8002, 0x8003, 0x8002, 0x8003}
	if diff := cmp.Diff(want, pcs); diff != "" {
		t.Errorf("stepped addresses (-want +got):\n%s", diff)
	}
}

func TestNextFrame(t *testing.T) {
	c, dbg := newDebugged(t, asm(t, `JMP $8000`))
	dbg.AddBreakpoint(0x8000)
	g := runFrame(c)

	nextStop(t, dbg)
	dbg.ClearBreakpoints()
	tcheck(t, dbg.NextFrame())

	stop := nextStop(t, dbg)
	if stop.Reason != ReasonFrame || stop.PC != 0x8000 {
		t.Errorf("got stop %v, want frame at $8000", stop)
	}
	tcheck(t, dbg.Continue())
	tcheck(t, g.Wait())
}

func TestWatchpoints(t *testing.T) {
	c, dbg := newDebugged(t, asm(t, `
	LDA #$07
	STA $10
	LDA $10
	JMP $8006
`))
	dbg.AddWatch(0x10, OnRead|OnWrite)
	g := runFrame(c)

	want := []Stop{
		{Reason: ReasonWatch, PC: 0x8004, Addr: 0x10, Value: 0x07, Write: true},
		{Reason: ReasonWatch, PC: 0x8006, Addr: 0x10},
	}
	for _, w := range want {
		if diff := cmp.Diff(w, nextStop(t, dbg)); diff != "" {
			t.Errorf("stop differs (-want +got):\n%s", diff)
		}
		tcheck(t, dbg.Continue())
	}
	tcheck(t, g.Wait())

	dbg.AddWatch(0x10, 0)
	if dbg.hasWatches.Load() {
		t.Errorf("there should be no watchpoints left")
	}
}

func TestDebuggerCallStack(t *testing.T) {
	c, dbg := newDebugged(t, asm(t, `
	JSR $8006
	JMP $8003
	JSR $800A
	RTS
	NOP
	RTS
`))
	dbg.AddBreakpoint(0x800A)
	g := runFrame(c)

	nextStop(t, dbg)
	want := []Frame{
		{CallFrame, 0x800A, 0x800A},
		{CallFrame, 0x8006, 0x8006},
		{BottomFrame, 0x8000, 0x8000},
	}
	if diff := cmp.Diff(want, dbg.CallStack()); diff != "" {
		t.Errorf("call stack in subroutine (-want +got):\n%s", diff)
	}

	dbg.ClearBreakpoints()
	dbg.AddBreakpoint(0x8003)
	tcheck(t, dbg.Continue())

	nextStop(t, dbg)
	want = []Frame{
		{BottomFrame, 0x8000, 0x8003},
	}
	if diff := cmp.Diff(want, dbg.CallStack()); diff != "" {
		t.Errorf("call stack after return (-want +got):\n%s", diff)
	}
	dbg.ClearBreakpoints()
	tcheck(t, dbg.Continue())
	tcheck(t, g.Wait())
}

func TestInterruptFrame(t *testing.T) {
	dbg := New(fakeTarget{})
	dbg.Trace(0xC000)
	dbg.Interrupt(0xC003, 0xE000, true)
	dbg.Trace(0xE000)

	want := []Frame{
		{NMIFrame, 0xE000, 0xE000},
		{BottomFrame, 0, 0xC003},
	}
	if diff := cmp.Diff(want, dbg.CallStack()); diff != "" {
		t.Errorf("call stack in NMI handler (-want +got):\n%s", diff)
	}

	// RTI
	dbg.prevOpcode = 0x40
	dbg.Trace(0xC003)
	if n := len(dbg.CallStack()); n != 1 {
		t.Errorf("got %d frames after RTI, want 1", n)
	}
}

type fakeTarget struct{}

func (fakeTarget) Peek8(uint16) uint8 { return 0xEA }
func (fakeTarget) PC() uint16         { return 0 }

func TestHalt(t *testing.T) {
	c, dbg := newDebugged(t, []byte{0xEA, 0x02})
	g := runFrame(c)

	stop := nextStop(t, dbg)
	if stop.Reason != ReasonHalt || stop.PC != 0x8001 || stop.Msg != "illegal instruction" {
		t.Errorf("got stop %v", stop)
	}
	tcheck(t, dbg.Continue())
	if err := g.Wait(); !errors.Is(err, hw.ErrIllegalInstruction) {
		t.Errorf("got %v, want %v", err, hw.ErrIllegalInstruction)
	}
}

func TestStopString(t *testing.T) {
	tests := []struct {
		stop Stop
		want string
	}{
		{Stop{Reason: ReasonBreakpoint, PC: 0x8002}, "breakpoint at $8002"},
		{Stop{Reason: ReasonWatch, PC: 0x8004, Addr: 0x10, Value: 7, Write: true}, "watchpoint at $8004: write $07 $0010"},
		{Stop{Reason: ReasonWatch, PC: 0x8006, Addr: 0x10}, "watchpoint at $8006: read $0010"},
		{Stop{Reason: ReasonHalt, PC: 0x8001, Msg: "illegal instruction"}, "halt at $8001: illegal instruction"},
	}
	for _, tt := range tests {
		if got := tt.stop.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestWatchRange(t *testing.T) {
	dbg := New(fakeTarget{})
	dbg.AddWatchRange(0x10, 0x1F, OnWrite)

	dbg.WatchRead(0x15)
	if dbg.pending != nil {
		t.Fatalf("reads should not be watched")
	}
	dbg.WatchWrite(0x20, 1)
	if dbg.pending != nil {
		t.Fatalf("$0020 should not be watched")
	}
	dbg.WatchWrite(0x1F, 0xAB)
	want := &Stop{Reason: ReasonWatch, Addr: 0x1F, Value: 0xAB, Write: true}
	if diff := cmp.Diff(want, dbg.pending); diff != "" {
		t.Errorf("pending stop (-want +got):\n%s", diff)
	}

	dbg.AddWatchRange(0x10, 0x1F, 0)
	if dbg.hasWatches.Load() {
		t.Errorf("there should be no watchpoints left")
	}
}
