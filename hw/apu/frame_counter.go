package apu

import (
	"nescore/emu/log"
	"nescore/hw/hwdefs"
	"nescore/hw/snapshot"
)

// NTSC frame counter step timings, in CPU cycles, for 4-step and 5-step
// modes.
var stepCycles = [2][6]int32{
	{7457, 14913, 22371, 29828, 29829, 29830},
	{7457, 14913, 22371, 29829, 37281, 37282},
}

var frameType = [2][6]FrameType{
	{QuarterFrame, HalfFrame, QuarterFrame, NoFrame, HalfFrame, NoFrame},
	{QuarterFrame, HalfFrame, QuarterFrame, NoFrame, HalfFrame, NoFrame},
}

type frameCounter struct {
	apu *APU
	cpu cpu

	prevCycle  int32
	curStep    uint32
	stepMode   uint32 // 0: 4-step mode, 1: 5-step mode
	inhibitIRQ bool
	blockTick  uint8

	// Value written to $4017, applied after writeDelay cycles (-1 if none).
	newval     int16
	writeDelay int8
}

func (fc *frameCounter) init(apu *APU, cpu cpu) {
	fc.apu = apu
	fc.cpu = cpu
}

func (fc *frameCounter) reset(soft bool) {
	fc.prevCycle = 0

	// The step mode survives a soft reset.
	if !soft {
		fc.stepMode = 0
	}

	fc.curStep = 0

	// After reset or power-up, the APU acts as if $4017 were written 9 to 12
	// clocks before the first instruction.
	fc.newval = 0
	if fc.stepMode != 0 {
		fc.newval = 0x80
	}
	fc.writeDelay = 3
	fc.inhibitIRQ = false
	fc.blockTick = 0
}

// write handles $4017: MI-- ----.
func (fc *frameCounter) write(val uint8) {
	log.ModSound.DebugZ("write frame counter").Hex8("val", val).End()

	fc.apu.Run()
	fc.newval = int16(val)

	// The write takes effect 3 CPU cycles after the write cycle if it occurs
	// during an APU cycle, 4 otherwise.
	if fc.cpu.CurrentCycle()&0x01 != 0 {
		fc.writeDelay = 4
	} else {
		fc.writeDelay = 3
	}

	fc.inhibitIRQ = val&0x40 == 0x40
	if fc.inhibitIRQ {
		fc.cpu.ClearIRQSource(hwdefs.FrameCounter)
	}
}

// run consumes up to cyclesToRun cycles, stopping at the next step, and
// returns the number of cycles ran.
func (fc *frameCounter) run(cyclesToRun *int32) uint32 {
	var ran int32

	step := stepCycles[fc.stepMode][fc.curStep]
	if fc.prevCycle+*cyclesToRun >= step {
		if !fc.inhibitIRQ && fc.stepMode == 0 && fc.curStep >= 3 {
			// The IRQ flag is set on the last 3 cycles of the 4-step sequence.
			fc.cpu.SetIRQSource(hwdefs.FrameCounter)
		}

		if ftyp := frameType[fc.stepMode][fc.curStep]; ftyp != NoFrame && fc.blockTick == 0 {
			fc.apu.frameCounterTick(ftyp)

			// $4017 writes can't clock the frame counter on this cycle and
			// the next one.
			fc.blockTick = 2
		}

		if step > fc.prevCycle {
			ran = step - fc.prevCycle
		}
		*cyclesToRun -= ran

		fc.curStep++
		if fc.curStep == 6 {
			fc.curStep = 0
			fc.prevCycle = 0
		} else {
			fc.prevCycle += ran
		}
	} else {
		ran = *cyclesToRun
		*cyclesToRun = 0
		fc.prevCycle += ran
	}

	if fc.newval >= 0 {
		fc.writeDelay--
		if fc.writeDelay == 0 {
			fc.stepMode = 0
			if fc.newval&0x80 == 0x80 {
				fc.stepMode = 1
			}

			fc.writeDelay = -1
			fc.curStep = 0
			fc.prevCycle = 0
			fc.newval = -1

			if fc.stepMode != 0 && fc.blockTick == 0 {
				// Setting 5-step mode immediately clocks both the quarter and
				// the half frame units.
				fc.apu.frameCounterTick(HalfFrame)
				fc.blockTick = 2
			}
		}
	}

	if fc.blockTick > 0 {
		fc.blockTick--
	}

	return uint32(ran)
}

// needToRun reports whether the APU should run now: a $4017 value is
// pending, ticks are blocked, or the next step is about to be reached.
func (fc *frameCounter) needToRun(cyclesToRun uint32) bool {
	return fc.newval >= 0 ||
		fc.blockTick > 0 ||
		fc.prevCycle+int32(cyclesToRun) >= stepCycles[fc.stepMode][fc.curStep]-1
}

func (fc *frameCounter) saveState(state *snapshot.APUFrameCounter) {
	state.PrevCycle = fc.prevCycle
	state.CurStep = fc.curStep
	state.StepMode = fc.stepMode
	state.InhibitIRQ = fc.inhibitIRQ
	state.BlockTick = fc.blockTick
	state.NewValue = fc.newval
	state.WriteDelay = fc.writeDelay
}

func (fc *frameCounter) setState(state *snapshot.APUFrameCounter) {
	fc.prevCycle = state.PrevCycle
	fc.curStep = state.CurStep
	fc.stepMode = state.StepMode
	fc.inhibitIRQ = state.InhibitIRQ
	fc.blockTick = state.BlockTick
	fc.newval = state.NewValue
	fc.writeDelay = state.WriteDelay
}
