package hw

// A Debugger is notified of the CPU activity. All methods are called from the
// goroutine running the CPU, which they may block to stop the execution.
type Debugger interface {
	// Reset is called once the reset vector has been loaded into PC.
	Reset()

	// Trace is called at each instruction boundary, before the opcode at pc
	// is fetched. It is not called for the interrupt sequence.
	Trace(pc uint16)

	// Interrupt is called at the end of the NMI/IRQ sequence. prevpc is the
	// address of the instruction that has been preempted, curpc the address
	// of the handler.
	Interrupt(prevpc, curpc uint16, isNMI bool)

	// WatchRead and WatchWrite are called before each CPU bus access,
	// including dummy accesses. Peeks are not reported.
	WatchRead(addr uint16)
	WatchWrite(addr uint16, val uint16)

	// Break is called when the CPU halts, msg telling why.
	Break(msg string)

	// FrameEnd is called by the console after each completed frame.
	FrameEnd()
}

// nopDebugger is the debugger of a CPU without debugger.
type nopDebugger struct{}

func (nopDebugger) Reset()                         {}
func (nopDebugger) Trace(uint16)                   {}
func (nopDebugger) Interrupt(uint16, uint16, bool) {}
func (nopDebugger) WatchRead(uint16)               {}
func (nopDebugger) WatchWrite(uint16, uint16)      {}
func (nopDebugger) Break(string)                   {}
func (nopDebugger) FrameEnd()                      {}
