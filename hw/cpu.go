package hw

import (
	"io"

	"nescore/emu/log"
	"nescore/hw/apu"
	"nescore/hw/hwdefs"
	"nescore/hw/hwio"
)

// Locations reserved for vector pointers.
const (
	NMIVector   = uint16(0xFFFA) // Non-Maskable Interrupt
	ResetVector = uint16(0xFFFC) // Reset
	IRQVector   = uint16(0xFFFE) // Interrupt Request
)

type ResetKind = hwdefs.ResetKind

const (
	PowerCycle = hwdefs.PowerCycle
	SoftReset  = hwdefs.SoftReset
)

// CPUBus is the CPU view of the system bus.
type CPUBus interface {
	Read8(addr uint16) uint8
	Write8(addr uint16, val uint8)
	// Peek8 reads without side effects.
	Peek8(addr uint16) uint8

	// NMILine reports whether the NMI line is asserted.
	NMILine() bool
	// IRQLines returns the devices currently asserting the IRQ line.
	IRQLines() hwdefs.IRQSource
}

// CPU is a cycle-stepped 2A03 (6502 without decimal mode).
type CPU struct {
	bus CPUBus

	PPU *PPU     // non-nil when there's a PPU.
	APU *apu.APU // non-nil when there's an APU.
	DMA DMA

	// Non-nil when execution tracing is enabled.
	tracer *tracer
	dbg    Debugger

	Cycles      int64 // CPU cycles
	masterClock int64

	// cpu registers
	A, X, Y, SP uint8
	PC          uint16
	P           P

	// current instruction progress. tick is the number of cycles executed
	// in the current instruction, 0 at the instruction boundary.
	tick    uint8
	opcode  uint8
	op      *opdef
	intr    bool   // running the interrupt sequence
	instrPC uint16 // address of the current instruction
	addr    uint16 // effective address
	base    uint16 // un-indexed address
	ptr     uint8  // zero page pointer
	val     uint8  // data latch
	crossed bool   // indexing crossed a page

	// interrupt handling
	nmiFlag, prevNmiFlag bool
	needNmi, prevNeedNmi bool
	runIRQ, prevRunIRQ   bool

	halted bool
}

// NewCPU creates a new CPU at power-up state, connected to bus. PPU and APU
// are attached by the caller.
func NewCPU(bus CPUBus) *CPU {
	cpu := &CPU{
		bus: bus,
		SP:  0xFD,
		P:   Interrupt | Reserved,
		dbg: nopDebugger{},
	}
	cpu.DMA.init(cpu)
	return cpu
}

// Reset emulates the reset sequence of the CPU: the reset vector is fetched
// and 8 cycles are burnt before executing the first instruction.
func (c *CPU) Reset(kind ResetKind) {
	if kind == SoftReset {
		c.SP -= 0x03
		c.P.setFlags(Interrupt)
	} else {
		c.A = 0x00
		c.X = 0x00
		c.Y = 0x00
		c.SP = 0xFD
		c.P = Interrupt | Reserved
	}

	c.DMA.reset()

	c.tick = 0
	c.intr = false
	c.halted = false
	c.nmiFlag, c.prevNmiFlag = false, false
	c.needNmi, c.prevNeedNmi = false, false
	c.runIRQ, c.prevRunIRQ = false, false

	// Directly read from the bus to avoid side effects.
	c.PC = hwio.Read16(c.bus.Peek8, ResetVector)
	c.dbg.Reset()

	c.Cycles = -1
	c.masterClock = ntscCPUDivider

	// After a reset/power up, the CPU burns 8 cycles before going on with ROM
	// execution.
	for range 8 {
		c.cycleBegin(true)
		c.cycleEnd(true)
	}
}

// Load copies a raw program into the CPU address space and points PC at it.
func (c *CPU) Load(program []byte, at uint16) {
	for i, b := range program {
		c.bus.Write8(at+uint16(i), b)
	}
	c.PC = at
	c.tick = 0
	c.intr = false
}

// CurrentCycle returns the number of CPU cycles since the last reset.
func (c *CPU) CurrentCycle() int64 { return c.Cycles }

// IsHalted reports whether the CPU executed an illegal instruction.
func (c *CPU) IsHalted() bool { return c.halted }

// AtBoundary reports whether the CPU is between two instructions.
func (c *CPU) AtBoundary() bool { return c.tick == 0 }

func (c *CPU) interruptPending() bool {
	return c.prevRunIRQ || c.prevNeedNmi
}

// StepCycle executes exactly one CPU cycle. DMA transfers stalling the CPU
// are run as part of the cycle they interrupt.
func (c *CPU) StepCycle() error {
	if c.halted {
		return ErrHalted
	}
	if c.tick == 0 {
		return c.begin()
	}

	c.tick++
	var done bool
	if c.intr {
		done = c.interrupt()
	} else {
		done = c.exec()
	}
	if done {
		c.tick = 0
		c.intr = false
	}
	return nil
}

// StepInstruction runs the CPU up to the next instruction boundary. An
// interrupt detected during the instruction is serviced before returning.
func (c *CPU) StepInstruction() error {
	if err := c.finishInstruction(); err != nil {
		return err
	}
	if c.interruptPending() {
		return c.finishInstruction()
	}
	return nil
}

func (c *CPU) finishInstruction() error {
	for {
		if err := c.StepCycle(); err != nil {
			return err
		}
		if c.tick == 0 {
			return nil
		}
	}
}

// Run executes whole instructions for at least ncycles.
func (c *CPU) Run(ncycles int64) error {
	until := c.Cycles + ncycles
	for c.Cycles < until {
		if err := c.StepInstruction(); err != nil {
			return err
		}
	}
	return nil
}

// begin runs the first cycle of an instruction, or of the interrupt sequence
// if an interrupt is pending.
func (c *CPU) begin() error {
	c.instrPC = c.PC
	if c.interruptPending() {
		c.intr = true
		c.tick = 1
		c.Read8(c.PC)
		return nil
	}

	c.traceOp()
	c.opcode = c.fetch8()
	c.op = &opdefs[c.opcode]
	c.tick = 1

	if c.op.seq == seqJAM {
		c.halted = true
		c.tick = 0
		log.ModCPU.WarnZ("CPU halted").
			Hex16("PC", c.instrPC).
			Hex8("opcode", c.opcode).
			End()
		c.dbg.Break("illegal instruction")
		return &IllegalInstructionError{Opcode: c.opcode, PC: c.instrPC}
	}
	return nil
}

func (c *CPU) traceOp() {
	if c.tracer != nil {
		state := cpuState{
			A:     c.A,
			X:     c.X,
			Y:     c.Y,
			P:     c.P,
			SP:    c.SP,
			Clock: c.Cycles,
			PC:    c.PC,
		}
		if c.PPU != nil {
			state.PPUCycle = c.PPU.Cycle
			state.Scanline = c.PPU.Scanline
		}
		c.tracer.write(state)
	}

	c.dbg.Trace(c.PC)
}

const (
	ntscStartClockCount = 6
	ntscEndClockCount   = 6
	ntscCPUDivider      = 12

	ppuOffset = 1
)

func (c *CPU) cycleBegin(forRead bool) {
	if forRead {
		c.masterClock += ntscStartClockCount - 1
	} else {
		c.masterClock += ntscStartClockCount + 1
	}
	c.Cycles++

	if c.PPU != nil {
		c.PPU.Run(uint64(c.masterClock - ppuOffset))
	}
	if c.APU != nil {
		c.APU.Tick()
	}
}

func (c *CPU) cycleEnd(forRead bool) {
	if forRead {
		c.masterClock += ntscEndClockCount + 1
	} else {
		c.masterClock += ntscEndClockCount - 1
	}

	if c.PPU != nil {
		c.PPU.Run(uint64(c.masterClock - ppuOffset))
	}

	c.handleInterrupts()
}

// Read8 performs a CPU read cycle.
func (c *CPU) Read8(addr uint16) uint8 {
	c.DMA.processPending(addr)
	c.cycleBegin(true)
	c.dbg.WatchRead(addr)
	val := c.bus.Read8(addr)
	c.cycleEnd(true)
	return val
}

// Write8 performs a CPU write cycle.
func (c *CPU) Write8(addr uint16, val uint8) {
	c.cycleBegin(false)
	c.dbg.WatchWrite(addr, uint16(val))
	c.bus.Write8(addr, val)
	c.cycleEnd(false)
}

// Peek8 reads from the CPU address space without side effects.
func (c *CPU) Peek8(addr uint16) uint8 {
	return c.bus.Peek8(addr)
}

func (c *CPU) fetch8() uint8 {
	val := c.Read8(c.PC)
	c.PC++
	return val
}

/* stack operations */

func (c *CPU) push8(val uint8) {
	c.Write8(0x0100|uint16(c.SP), val)
	c.SP--
}

func (c *CPU) pull8() uint8 {
	c.SP++
	return c.Read8(0x0100 | uint16(c.SP))
}

func (c *CPU) dummyStackRead() {
	c.Read8(0x0100 | uint16(c.SP))
}

/* interrupt handling */

func (c *CPU) handleInterrupts() {
	c.nmiFlag = c.bus.NMILine()

	// The internal signal goes high during φ1 of the cycle that follows the one
	// where the edge is detected and stays high until the NMI has been handled.
	c.prevNeedNmi = c.needNmi

	// This edge detector polls the status of the NMI line during φ2 of each CPU
	// cycle (i.e. during the second half of each cycle) and raises an internal
	// signal if the input goes from being high during one cycle to being low
	// during the next.
	if !c.prevNmiFlag && c.nmiFlag {
		c.needNmi = true
	}
	c.prevNmiFlag = c.nmiFlag

	// It's really the status of the interrupt lines at the end of the
	// second-to-last cycle that matters. Keep the IRQ lines values from the
	// previous cycle. The before-to-last cycle's values will be used.
	c.prevRunIRQ = c.runIRQ
	c.runIRQ = c.bus.IRQLines() != 0 && !c.P.I()
}

// interrupt runs cycles 2 to 7 of the NMI/IRQ sequence.
func (c *CPU) interrupt() bool {
	switch c.tick {
	case 2:
		c.Read8(c.PC)
	case 3:
		c.push8(uint8(c.PC >> 8))
	case 4:
		c.push8(uint8(c.PC))
	case 5:
		// An NMI detected up to this point hijacks the IRQ sequence.
		c.addr = IRQVector
		c.val = 0
		if c.needNmi {
			c.needNmi = false
			c.addr = NMIVector
			c.val = 1
		}
		c.push8(uint8(c.P&^Break | Reserved))
		c.P.setFlags(Interrupt)
	case 6:
		c.base = uint16(c.Read8(c.addr))
	case 7:
		c.PC = c.base | uint16(c.Read8(c.addr+1))<<8
		c.dbg.Interrupt(c.instrPC, c.PC, c.val == 1)
		return true
	}
	return false
}

/* tracing / debugging */

// SetTraceOutput enables the execution trace, one line per instruction, or
// disables it if w is nil.
func (c *CPU) SetTraceOutput(w io.Writer) {
	if w == nil {
		c.tracer = nil
		return
	}
	c.tracer = &tracer{w: w, d: c}
}

func (c *CPU) SetDebugger(dbg Debugger) {
	if dbg == nil {
		dbg = nopDebugger{}
	}
	c.dbg = dbg
}

// Disasm disassembles the instruction at pc, without side effects.
func (c *CPU) Disasm(pc uint16) DisasmOp {
	return Disasm(c.bus.Peek8, pc)
}
