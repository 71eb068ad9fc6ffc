package hw

import (
	"nescore/emu/log"
)

var modDMA = log.NewModule("dma")

// DMCReader is the APU side of the DMC DMA.
type DMCReader interface {
	CurrentAddress() uint16
	SetReadBuffer(val uint8)
}

// openBuser is implemented by buses keeping track of the last value driven
// on the data bus.
type openBuser interface {
	OpenBus() uint8
}

// DMA handles DMA transfer of OAM (sprites attributes) to the PPU
// and DMC samples to the APU. Both halt the CPU, the transfer is run inside
// the CPU read cycle it interrupts.
type DMA struct {
	cpu *CPU
	dmc DMCReader

	needHalt bool
	dummy    bool // DMC fetch still needs its alignment cycle


	dmcRunning bool
	abortDMC   bool

	oamPage    uint8
	oamRunning bool // OAM DMA in progress
}

func (dma *DMA) init(cpu *CPU) {
	dma.cpu = cpu
	dma.reset()
}

// SetDMC connects the DMA unit to the DMC channel.
func (dma *DMA) SetDMC(dmc DMCReader) { dma.dmc = dmc }

func (dma *DMA) reset() {
	dma.oamPage = 0x00
	dma.dummy = true
	dma.needHalt = false
	dma.oamRunning = false
	dma.dmcRunning = false
	dma.abortDMC = false
}

// StartOAM starts the transfer of the 256 bytes at page*$100 into OAM, in
// response to a write to $4014.
func (dma *DMA) StartOAM(page uint8) {
	modDMA.DebugZ("start OAM DMA transfer").Hex8("page", page).End()
	dma.oamPage = page
	dma.oamRunning = true
	dma.needHalt = true
}

// StartDMC queues a DMC sample fetch.
func (dma *DMA) StartDMC() {
	modDMA.DebugZ("start DMC DMA transfer").End()
	dma.dmcRunning = true
	dma.dummy = true
	dma.needHalt = true
}

// StopDMC cancels a queued DMC sample fetch.
func (dma *DMA) StopDMC() {
	modDMA.DebugZ("stop DMC DMA transfer").End()
	switch {
	case !dma.dmcRunning:
	case dma.needHalt:
		// Not started yet (the CPU was writing): drop it.
		dma.dmcRunning = false
		dma.dummy = false
		dma.needHalt = false
	default:
		// Only effective during the first cycle of the transfer.
		dma.abortDMC = true
	}
}

// Running reports whether a DMA transfer is pending or in progress.
func (dma *DMA) Running() bool {
	return dma.oamRunning || dma.dmcRunning
}

func (dma *DMA) openBus() uint8 {
	if ob, ok := dma.cpu.bus.(openBuser); ok {
		return ob.OpenBus()
	}
	return 0
}

// dmaRun is the state of the transfers run while the CPU is halted.
type dmaRun struct {
	addr     uint16 // address of the halted CPU read
	prevAddr uint16 // last address read by the DMA unit
	internal bool   // addr is in $4000-$401F
	input    bool   // addr is $4016 or $4017

	oamCount int
	oamAddr  uint8
	val      uint8
}

// processPending runs the pending DMA transfers. The CPU calls it at the
// start of a read cycle on addr, which it then performs.
func (dma *DMA) processPending(addr uint16) {
	if !dma.needHalt {
		return
	}
	dma.needHalt = false

	run := dmaRun{
		addr:     addr,
		prevAddr: addr,
		internal: addr&0xFFE0 == 0x4000,
		input:    addr == 0x4016 || addr == 0x4017,
	}

	if !dma.halt(&run) {
		return
	}
	for dma.dmcRunning || dma.oamRunning {
		if dma.cpu.Cycles&1 == 0 {
			dma.getCycle(&run)
		} else {
			dma.putCycle(&run)
		}
	}
}

// halt runs the halt cycle. It reports false if nothing remains to transfer.
func (dma *DMA) halt(run *dmaRun) bool {
	// While the DMC reads the input register targeted by the CPU, /OE stays
	// active and the controller doesn't see the halted read.
	hidden := run.input && dma.dmcRunning &&
		dma.dmc.CurrentAddress()&0x1F == run.addr&0x1F

	dma.cpu.cycleBegin(true)
	switch {
	case dma.abortDMC && run.input:
		// The CPU reads the register right after: the controller must only
		// see one read.
	case hidden:
	default:
		dma.cpu.bus.Read8(run.addr)
	}
	dma.cpu.cycleEnd(true)

	if dma.abortDMC {
		dma.dmcRunning = false
		dma.abortDMC = false
		if !dma.oamRunning {
			dma.dummy = false
			return false
		}
	}
	return true
}

// beginCycle starts a DMA cycle. OAM cycles count as the halt and dummy
// cycles of a DMC fetch running at the same time.
func (dma *DMA) beginCycle() {
	switch {
	case dma.abortDMC:
		dma.dmcRunning = false
		dma.abortDMC = false
		dma.dummy = false
		dma.needHalt = false
	case dma.needHalt:
		dma.needHalt = false
	case dma.dummy:
		dma.dummy = false
	}
	dma.cpu.cycleBegin(true)
}

// idleCycle repeats the halted read. Only the first read of an input
// register has a side effect on the controllers, so repeats are skipped.
func (dma *DMA) idleCycle(run *dmaRun) {
	dma.beginCycle()
	if !run.input {
		dma.cpu.bus.Read8(run.addr)
	}
	dma.cpu.cycleEnd(true)
}

// getCycle runs an even (read) cycle.
func (dma *DMA) getCycle(run *dmaRun) {
	switch {
	case dma.dmcRunning && !dma.needHalt && !dma.dummy:
		dma.beginCycle()
		run.val, run.prevAddr = dma.processRead(dma.dmc.CurrentAddress(), run.prevAddr, run.internal)
		dma.cpu.cycleEnd(true)
		dma.dmcRunning = false
		dma.abortDMC = false
		dma.dmc.SetReadBuffer(run.val)
	case dma.oamRunning:
		dma.beginCycle()
		addr := uint16(dma.oamPage)<<8 | uint16(run.oamAddr)
		run.val, run.prevAddr = dma.processRead(addr, run.prevAddr, run.internal)
		dma.cpu.cycleEnd(true)
		run.oamAddr++
		run.oamCount++
	default:
		// DMC still waiting for its halt or dummy cycle.
		dma.idleCycle(run)
	}
}

// putCycle runs an odd (write) cycle.
func (dma *DMA) putCycle(run *dmaRun) {
	if !dma.oamRunning || run.oamCount&1 == 0 {
		// Alignment.
		dma.idleCycle(run)
		return
	}

	dma.beginCycle()
	dma.cpu.bus.Write8(0x2004, run.val)
	dma.cpu.cycleEnd(true)
	run.oamCount++
	if run.oamCount == 0x200 {
		dma.oamRunning = false
	}
}

// processRead reproduces the DMA conflict occurring when the CPU is halted
// while reading in the $4000-$401F range: the 2A03 then reads its internal
// registers ($4015-$4017) at the same time the DMA unit reads the bus.
func (dma *DMA) processRead(addr uint16, prevAddr uint16, isInternalReg bool) (val uint8, readAddr uint16) {
	bus := dma.cpu.bus
	if !isInternalReg {
		if addr >= 0x4000 && addr <= 0x401F {
			// Nothing responds on $4000-$401F on the external bus.
			val = dma.openBus()
		} else {
			val = bus.Read8(addr)
		}
		return val, addr
	}

	internalAddr := 0x4000 | (addr & 0x1F)
	isSameAddress := internalAddr == addr

	switch internalAddr {
	case 0x4015:
		val = bus.Read8(internalAddr)
		if !isSameAddress {
			// Also read the address the DMA unit targets (external bus).
			bus.Read8(addr)
		}

	case 0x4016, 0x4017:
		if prevAddr == internalAddr {
			// Reading from the same input register twice in a row, the
			// controller doesn't see the second read and the data bus keeps
			// its value.
			val = dma.openBus()
		} else {
			val = bus.Read8(internalAddr)
		}

		if !isSameAddress {
			const openbusMask = uint8(0xE0)
			extval := bus.Read8(addr)

			// Keep the external value for the open bus pins of the port and
			// AND the other bits together (bus conflict).
			val = (extval & openbusMask) | ((val &^ openbusMask) & (extval &^ openbusMask))
		}

	default:
		val = bus.Read8(addr)
	}

	return val, internalAddr
}
