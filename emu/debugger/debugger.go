package debugger

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"nescore/emu/log"
	"nescore/hw"
	"nescore/hw/hwio"
)

var modDbg = log.NewModule("debugger")

// Target is the system being debugged.
type Target interface {
	Peek8(addr uint16) uint8
	PC() uint16
}

// Status is the execution status of the debugged CPU.
type Status int32

const (
	Running Status = iota
	Pausing
	Paused
	Stepping
	FrameStepping
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Pausing:
		return "pausing"
	case Paused:
		return "paused"
	case Stepping:
		return "stepping"
	case FrameStepping:
		return "frame-stepping"
	}
	return fmt.Sprintf("Status(%d)", int32(s))
}

// Reason tells why the execution stopped.
type Reason uint8

const (
	ReasonBreakpoint Reason = iota
	ReasonWatch
	ReasonStep
	ReasonPause
	ReasonFrame
	ReasonHalt
)

func (r Reason) String() string {
	switch r {
	case ReasonBreakpoint:
		return "breakpoint"
	case ReasonWatch:
		return "watchpoint"
	case ReasonStep:
		return "step"
	case ReasonPause:
		return "pause"
	case ReasonFrame:
		return "frame"
	case ReasonHalt:
		return "halt"
	}
	return fmt.Sprintf("Reason(%d)", uint8(r))
}

// WatchKind selects the memory accesses a watchpoint reacts to.
type WatchKind uint8

const (
	OnRead WatchKind = 1 << iota
	OnWrite
)

// A Stop describes why and where the execution stopped.
type Stop struct {
	Reason Reason
	PC     uint16

	// Watchpoints.
	Addr  uint16
	Value uint8
	Write bool

	Msg string
}

func (s Stop) String() string {
	switch s.Reason {
	case ReasonWatch:
		access := "read"
		if s.Write {
			access = fmt.Sprintf("write $%02X", s.Value)
		}
		return fmt.Sprintf("%s at $%04X: %s $%04X", s.Reason, s.PC, access, s.Addr)
	case ReasonHalt:
		return fmt.Sprintf("%s at $%04X: %s", s.Reason, s.PC, s.Msg)
	}
	return fmt.Sprintf("%s at $%04X", s.Reason, s.PC)
}

var ErrNotPaused = errors.New("debugger: execution is not paused")

// A Debugger implements hw.Debugger. It owns breakpoints and watchpoints and
// keeps track of the call stack, even when nothing is set, so that the
// execution can be inspected at any moment.
//
// Stops are delivered on the Stops channel. Each stop blocks the emulation
// goroutine until Continue, Step or NextFrame is called from another
// goroutine, so a front end must be draining Stops while the emulation runs.
type Debugger struct {
	target Target
	status atomic.Int32

	stops  chan Stop
	resume chan struct{}

	mu          sync.Mutex
	breakpoints hwio.AddrSet
	rwatches    hwio.AddrSet
	wwatches    hwio.AddrSet
	hasWatches  atomic.Bool
	pending     *Stop

	prevPC     uint16
	prevOpcode uint8
	resetPC    uint16
	cstack     callStack
}

var _ hw.Debugger = (*Debugger)(nil)

func New(target Target) *Debugger {
	return &Debugger{
		target:     target,
		stops:      make(chan Stop),
		resume:     make(chan struct{}, 1),
		prevOpcode: 0xFF,
	}
}

// Stops returns the channel on which stops are delivered.
func (d *Debugger) Stops() <-chan Stop { return d.stops }

func (d *Debugger) Status() Status { return Status(d.status.Load()) }

func (d *Debugger) setStatus(s Status) { d.status.Store(int32(s)) }

/* front end */

func (d *Debugger) AddBreakpoint(addr uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.breakpoints.Add(addr)
}

func (d *Debugger) RemoveBreakpoint(addr uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.breakpoints.Remove(addr)
}

// Breakpoints returns the breakpoint addresses, sorted.
func (d *Debugger) Breakpoints() []uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	addrs := make([]uint16, 0, d.breakpoints.Len())
	d.breakpoints.Each(func(addr uint16) { addrs = append(addrs, addr) })
	return addrs
}

func (d *Debugger) ClearBreakpoints() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.breakpoints.Clear()
}

// AddWatch sets a watchpoint on addr, replacing the previous one. A kind of 0
// removes it. The execution stops before the instruction following the
// access.
func (d *Debugger) AddWatch(addr uint16, kind WatchKind) {
	d.AddWatchRange(addr, addr, kind)
}

// AddWatchRange sets a watchpoint on each address in [lo, hi].
func (d *Debugger) AddWatchRange(lo, hi uint16, kind WatchKind) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rwatches.RemoveRange(lo, hi)
	d.wwatches.RemoveRange(lo, hi)
	if kind&OnRead != 0 {
		d.rwatches.AddRange(lo, hi)
	}
	if kind&OnWrite != 0 {
		d.wwatches.AddRange(lo, hi)
	}
	d.hasWatches.Store(d.rwatches.Len()+d.wwatches.Len() > 0)
}

// Pause requests the running CPU to stop before the next instruction.
func (d *Debugger) Pause() {
	d.status.CompareAndSwap(int32(Running), int32(Pausing))
}

// Continue resumes the execution until the next breakpoint or watchpoint.
func (d *Debugger) Continue() error { return d.resumeAs(Running) }

// Step resumes the execution for one instruction.
func (d *Debugger) Step() error { return d.resumeAs(Stepping) }

// NextFrame resumes the execution until the end of the current frame.
func (d *Debugger) NextFrame() error { return d.resumeAs(FrameStepping) }

func (d *Debugger) resumeAs(s Status) error {
	if !d.status.CompareAndSwap(int32(Paused), int32(s)) {
		return ErrNotPaused
	}
	d.resume <- struct{}{}
	return nil
}

// CallStack returns the frames of the call stack, innermost first. It is
// meant to be called while the execution is stopped.
func (d *Debugger) CallStack() []Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cstack.build(d.prevPC, d.resetPC)
}

// block stops the execution until the front end resumes it.
func (d *Debugger) block(stop Stop) {
	d.setStatus(Paused)
	modDbg.DebugZ("execution stopped").Stringer("stop", stop).End()
	d.stops <- stop
	<-d.resume
}

/* hw.Debugger */

func (d *Debugger) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetPC = d.target.PC()
	d.prevPC = d.resetPC
	d.prevOpcode = 0xFF
	d.pending = nil
	d.cstack.reset()
}

func (d *Debugger) Trace(pc uint16) {
	d.mu.Lock()
	d.updateStack(pc)
	d.prevPC = pc
	d.prevOpcode = d.target.Peek8(pc)

	var stop *Stop
	switch d.Status() {
	case Pausing:
		stop = &Stop{Reason: ReasonPause}
	case Stepping:
		stop = &Stop{Reason: ReasonStep}
	default:
		if d.pending != nil {
			stop = d.pending
		} else if d.breakpoints.Has(pc) {
			stop = &Stop{Reason: ReasonBreakpoint}
		}
	}
	d.pending = nil
	d.mu.Unlock()

	if stop != nil {
		stop.PC = pc
		d.block(*stop)
	}
}

// updateStack updates the call stack with the effect of the previously
// executed instruction, pc being the address of the next one.
func (d *Debugger) updateStack(pc uint16) {
	switch d.prevOpcode {
	case 0x20: // JSR
		d.cstack.push(stackFrame{
			src:    d.prevPC,
			target: pc,
			ret:    d.prevPC + 3,
			kind:   CallFrame,
		})
	case 0x40, 0x60: // RTI RTS
		d.cstack.pop()
	}
}

func (d *Debugger) Interrupt(prevpc, curpc uint16, isNMI bool) {
	kind := IRQFrame
	if isNMI {
		kind = NMIFrame
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.updateStack(prevpc)
	d.cstack.push(stackFrame{
		src:    prevpc,
		target: curpc,
		ret:    prevpc,
		kind:   kind,
	})
	d.prevOpcode = 0xFF
}

func (d *Debugger) WatchRead(addr uint16) {
	if d.hasWatches.Load() {
		d.watch(addr, 0, false)
	}
}

func (d *Debugger) WatchWrite(addr uint16, val uint16) {
	if d.hasWatches.Load() {
		d.watch(addr, uint8(val), true)
	}
}

func (d *Debugger) watch(addr uint16, val uint8, write bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	set := &d.rwatches
	if write {
		set = &d.wwatches
	}
	if !set.Has(addr) || d.pending != nil {
		return
	}
	d.pending = &Stop{
		Reason: ReasonWatch,
		Addr:   addr,
		Value:  val,
		Write:  write,
	}
}

// Break stops the execution at the current instruction. The CPU calls it
// before halting.
func (d *Debugger) Break(msg string) {
	d.mu.Lock()
	pc := d.prevPC
	d.mu.Unlock()
	d.block(Stop{Reason: ReasonHalt, PC: pc, Msg: msg})
}

func (d *Debugger) FrameEnd() {
	if d.Status() == FrameStepping {
		d.block(Stop{Reason: ReasonFrame, PC: d.target.PC()})
	}
}
