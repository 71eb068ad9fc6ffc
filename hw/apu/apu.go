// Package apu implements the 2A03 audio processing unit: the frame counter,
// the 5 sound channels and the mixer.
package apu

import (
	"nescore/emu/log"
	"nescore/hw/hwdefs"
	"nescore/hw/snapshot"
)

// Number of CPU cycles after which the APU flushes its output to the mixer.
const cycleLength = 10000

type APU struct {
	cpu   cpu
	mixer *Mixer

	Square1  squareChannel
	Square2  squareChannel
	Triangle triangleChannel
	Noise    noiseChannel
	DMC      DMC

	frameCounter frameCounter

	prevCycle uint32
	curCycle  uint32
	mustRun   bool
}

// New creates an APU connected to cpu, sending its output to mixer.
func New(cpu cpu, mixer *Mixer) *APU {
	a := &APU{
		cpu:   cpu,
		mixer: mixer,
	}
	a.Square1 = newSquareChannel(a, mixer, Square1)
	a.Square2 = newSquareChannel(a, mixer, Square2)
	a.Triangle = newTriangleChannel(a, mixer)
	a.Noise = newNoiseChannel(a, mixer)
	a.DMC = newDMC(a, cpu, mixer)
	a.frameCounter.init(a, cpu)
	return a
}

// Mixer returns the mixer the APU outputs to.
func (a *APU) Mixer() *Mixer { return a.mixer }

// WriteReg handles CPU writes to $4000-$4013, $4015 and $4017.
func (a *APU) WriteReg(addr uint16, val uint8) {
	switch {
	case addr >= 0x4000 && addr <= 0x4003:
		a.Square1.write(addr, val)
	case addr >= 0x4004 && addr <= 0x4007:
		a.Square2.write(addr, val)
	case addr >= 0x4008 && addr <= 0x400B:
		a.Triangle.write(addr, val)
	case addr >= 0x400C && addr <= 0x400F:
		a.Noise.write(addr, val)
	case addr >= 0x4010 && addr <= 0x4013:
		a.DMC.write(addr, val)
	case addr == 0x4015:
		a.writeStatus(val)
	case addr == 0x4017:
		a.frameCounter.write(val)
	default:
		log.ModSound.WarnZ("unhandled APU write").
			Hex16("addr", addr).
			Hex8("val", val).
			End()
	}
}

// PeekStatus returns the value of $4015 without side effects.
func (a *APU) PeekStatus() uint8 {
	var status uint8
	if a.Square1.status() {
		status |= 0x01
	}
	if a.Square2.status() {
		status |= 0x02
	}
	if a.Triangle.status() {
		status |= 0x04
	}
	if a.Noise.status() {
		status |= 0x08
	}
	if a.DMC.status() {
		status |= 0x10
	}
	if a.cpu.HasIRQSource(hwdefs.FrameCounter) {
		status |= 0x40
	}
	if a.cpu.HasIRQSource(hwdefs.DMC) {
		status |= 0x80
	}
	return status
}

// ReadStatus handles a CPU read of $4015, which also clears the frame
// counter interrupt flag.
func (a *APU) ReadStatus() uint8 {
	a.Run()
	status := a.PeekStatus()
	a.cpu.ClearIRQSource(hwdefs.FrameCounter)

	log.ModSound.DebugZ("read status").Hex8("status", status).End()
	return status
}

func (a *APU) writeStatus(val uint8) {
	log.ModSound.DebugZ("write status").Hex8("val", val).End()

	a.Run()

	// Writing $4015 clears the DMC interrupt flag. This must be done before
	// enabling the DMC, which can trigger an IRQ.
	a.cpu.ClearIRQSource(hwdefs.DMC)

	a.Square1.setEnabled(val&0x01 == 0x01)
	a.Square2.setEnabled(val&0x02 == 0x02)
	a.Triangle.setEnabled(val&0x04 == 0x04)
	a.Noise.setEnabled(val&0x08 == 0x08)
	a.DMC.setEnabled(val&0x10 == 0x10)
}

// Output returns the current DAC value of a channel (0-15, or 0-127 for
// the DMC).
func (a *APU) Output(ch Channel) uint8 {
	a.Run()
	switch ch {
	case Square1:
		return a.Square1.output()
	case Square2:
		return a.Square2.output()
	case Triangle:
		return a.Triangle.output()
	case Noise:
		return a.Noise.output()
	case DPCM:
		return a.DMC.output()
	}
	return 0
}

func (a *APU) frameCounterTick(ftyp FrameType) {
	// Quarter and half frames clock envelopes and the linear counter.
	a.Square1.tickEnvelope()
	a.Square2.tickEnvelope()
	a.Triangle.tickLinearCounter()
	a.Noise.tickEnvelope()

	if ftyp == HalfFrame {
		// Half frames also clock length counters and sweeps.
		a.Square1.tickLengthCounter()
		a.Square2.tickLengthCounter()
		a.Triangle.tickLengthCounter()
		a.Noise.tickLengthCounter()

		a.Square1.tickSweep()
		a.Square2.tickSweep()
	}
}

func (a *APU) Reset(kind hwdefs.ResetKind) {
	soft := kind == hwdefs.SoftReset

	a.curCycle = 0
	a.prevCycle = 0
	a.mustRun = false

	a.Square1.reset(soft)
	a.Square2.reset(soft)
	a.Triangle.reset(soft)
	a.Noise.reset(soft)
	a.DMC.reset(soft)
	a.frameCounter.reset(soft)
	a.mixer.Reset()
}

// Tick is called once per CPU cycle.
func (a *APU) Tick() {
	a.curCycle++
	if a.curCycle == cycleLength-1 {
		a.EndFrame()
	} else if a.needToRun(a.curCycle) {
		a.Run()
	}
}

// EndFrame runs the APU up to the current cycle and flushes the channel
// outputs to the mixer.
func (a *APU) EndFrame() {
	a.DMC.processClock()
	a.Run()
	a.Square1.endFrame()
	a.Square2.endFrame()
	a.Triangle.endFrame()
	a.Noise.endFrame()
	a.DMC.endFrame()

	a.mixer.endFrame(a.curCycle)

	a.curCycle = 0
	a.prevCycle = 0
}

// Run catches up with the CPU. It is called at the end of a frame, before
// APU registers are accessed, and when a DMC or frame counter interrupt
// needs to be fired.
func (a *APU) Run() {
	cyclesToRun := int32(a.curCycle - a.prevCycle)

	for cyclesToRun > 0 {
		a.prevCycle += a.frameCounter.run(&cyclesToRun)

		// Length counter reloads happen after the frame counter had a
		// chance to clock them.
		a.Square1.reloadLengthCounter()
		a.Square2.reloadLengthCounter()
		a.Noise.reloadLengthCounter()
		a.Triangle.reloadLengthCounter()

		a.Square1.run(a.prevCycle)
		a.Square2.run(a.prevCycle)
		a.Noise.run(a.prevCycle)
		a.Triangle.run(a.prevCycle)
		a.DMC.run(a.prevCycle)
	}
}

func (a *APU) SetNeedToRun() { a.mustRun = true }

func (a *APU) needToRun(curCycle uint32) bool {
	// Run every cycle while the DMC is active, so that CPU stalls and the
	// interaction with OAM DMA are accurate.
	if a.DMC.shouldRun() || a.mustRun {
		a.mustRun = false
		return true
	}

	cyclesToRun := curCycle - a.prevCycle
	return a.frameCounter.needToRun(cyclesToRun) || a.DMC.irqPending(cyclesToRun)
}

// State ends the current APU frame, flushing pending output to the mixer,
// then returns the APU state.
func (a *APU) State() *snapshot.APU {
	a.EndFrame()

	var state snapshot.APU
	a.Square1.saveState(&state.Square1)
	a.Square2.saveState(&state.Square2)
	a.Triangle.saveState(&state.Triangle)
	a.Noise.saveState(&state.Noise)
	a.DMC.saveState(&state.DMC)
	a.frameCounter.saveState(&state.FrameCounter)
	state.Mixer = a.mixer.State()
	return &state
}

func (a *APU) SetState(state *snapshot.APU) {
	// Timers are restored relative to cycle 0.
	a.curCycle = 0
	a.prevCycle = 0

	a.Square1.setState(&state.Square1)
	a.Square2.setState(&state.Square2)
	a.Triangle.setState(&state.Triangle)
	a.Noise.setState(&state.Noise)
	a.DMC.setState(&state.DMC)
	a.frameCounter.setState(&state.FrameCounter)
	if state.Mixer != nil {
		a.mixer.SetState(state.Mixer)
	}
}
