package apu

import (
	"nescore/emu/log"
	"nescore/hw/hwdefs"
	"nescore/hw/snapshot"
)

// DMC is the delta modulation channel. It outputs samples composed of 1-bit
// deltas, fetched from CPU memory with DMA, and its DAC can be directly
// loaded with $4011.
//
//	+----------+    +---------+
//	|DMA Reader|    |  Timer  |
//	+----------+    +---------+
//	     |               |
//	     |               v
//	+----------+    +---------+     +---------+     +---------+
//	|  Buffer  |----| Output  |---->| Counter |---->|   DAC   |
//	+----------+    +---------+     +---------+     +---------+
type DMC struct {
	apu   runner
	cpu   cpu
	timer timer

	sampleAddr uint16
	sampleLen  uint16
	outlvl     uint8
	irqEnabled bool
	loop       bool

	curaddr   uint16
	remaining uint16
	readbuf   uint8
	bufEmpty  bool

	shiftReg     uint8
	bitsLeft     uint8
	silence      bool
	needToRun    bool
	disableDelay uint8
	startDelay   uint8
}

func newDMC(apu runner, cpu cpu, mixer mixer) DMC {
	return DMC{
		apu:     apu,
		cpu:     cpu,
		silence: true,
		timer:   timer{channel: DPCM, mixer: mixer},
	}
}

var dmcPeriodLUT = [16]uint16{428, 380, 340, 320, 286, 254, 226, 214, 190, 160, 142, 128, 106, 84, 72, 54}

func (dc *DMC) initSample() {
	dc.curaddr = dc.sampleAddr
	dc.remaining = dc.sampleLen
	dc.needToRun = dc.needToRun || dc.remaining > 0
}

func (dc *DMC) reset(soft bool) {
	dc.timer.reset()

	if !soft {
		dc.sampleAddr = 0xC000
		dc.sampleLen = 1
	}

	dc.outlvl = 0
	dc.irqEnabled = false
	dc.loop = false

	dc.curaddr = 0
	dc.remaining = 0
	dc.readbuf = 0
	dc.bufEmpty = true

	dc.shiftReg = 0
	dc.bitsLeft = 8
	dc.silence = true
	dc.needToRun = false
	dc.startDelay = 0
	dc.disableDelay = 0

	dc.timer.period = dmcPeriodLUT[0] - 1
	// The DMC doesn't tick on the first cycle.
	dc.timer.timer = dc.timer.period
}

// write handles writes to $4010-$4013.
func (dc *DMC) write(reg uint16, val uint8) {
	dc.apu.Run()

	switch reg & 0x03 {
	case 0: // IL-- RRRR
		dc.irqEnabled = val&0x80 == 0x80
		dc.loop = val&0x40 == 0x40
		dc.timer.period = dmcPeriodLUT[val&0x0F] - 1
		if !dc.irqEnabled {
			dc.cpu.ClearIRQSource(hwdefs.DMC)
		}

	case 1: // -DDD DDDD
		// Direct load, heard right away.
		dc.outlvl = val & 0x7F
		dc.timer.addOutput(int8(dc.outlvl))

	case 2: // sample address: $C000 + A*64
		dc.sampleAddr = 0xC000 | uint16(val)<<6

	case 3: // sample length: L*16 + 1 bytes
		dc.sampleLen = uint16(val)<<4 | 0x01
	}

	log.ModSound.DebugZ("write dmc").
		Uint16("reg", reg&0x03).
		Hex8("val", val).
		End()
}

func (dc *DMC) startTransfer() {
	if dc.bufEmpty && dc.remaining > 0 {
		dc.cpu.StartDMCTransfer()
	}
}

// CurrentAddress returns the address of the next sample byte to fetch.
func (dc *DMC) CurrentAddress() uint16 { return dc.curaddr }

// SetReadBuffer receives the sample byte fetched by the DMA unit.
func (dc *DMC) SetReadBuffer(val uint8) {
	if dc.remaining > 0 {
		dc.readbuf = val
		dc.bufEmpty = false

		// Address wraps around to $8000, not $0000.
		dc.curaddr++
		if dc.curaddr == 0 {
			dc.curaddr = 0x8000
		}

		dc.remaining--
		if dc.remaining == 0 {
			if dc.loop {
				// A looped sample never sets the IRQ flag.
				dc.initSample()
			} else if dc.irqEnabled {
				dc.cpu.SetIRQSource(hwdefs.DMC)
			}
		}
	}

	if dc.sampleLen == 1 && !dc.loop && dc.bitsLeft == 1 && dc.timer.timer < 2 {
		// When the DMA ends on the APU cycle before the bit counter resets, a
		// DMA is triggered and aborted 1 cycle later (causing one halted CPU
		// cycle).
		dc.shiftReg = dc.readbuf
		dc.bufEmpty = false
		dc.initSample()
		dc.disableDelay = 3
	}
}

func (dc *DMC) run(targetCycle uint32) {
	for dc.timer.run(targetCycle) {
		if !dc.silence {
			dc.applyDelta()
		}
		dc.bitsLeft--
		if dc.bitsLeft == 0 {
			dc.startOutputCycle()
		}
		dc.timer.addOutput(int8(dc.outlvl))
	}
}

// applyDelta moves the output level by 2 in the direction of the next bit.
// The level saturates in [0, 127].
func (dc *DMC) applyDelta() {
	up := dc.shiftReg&1 != 0
	dc.shiftReg >>= 1
	switch {
	case up && dc.outlvl <= 125:
		dc.outlvl += 2
	case !up && dc.outlvl >= 2:
		dc.outlvl -= 2
	}
}

// startOutputCycle reloads the shift register from the sample buffer, or
// silences the channel if the buffer is empty.
func (dc *DMC) startOutputCycle() {
	dc.bitsLeft = 8
	dc.silence = dc.bufEmpty
	if dc.bufEmpty {
		return
	}
	dc.shiftReg = dc.readbuf
	dc.bufEmpty = true
	dc.needToRun = true
	dc.startTransfer()
}

// irqPending reports whether the DMC IRQ would fire within cyclesToRun.
func (dc *DMC) irqPending(cyclesToRun uint32) bool {
	if !dc.irqEnabled || dc.remaining == 0 {
		return false
	}
	ncycles := (uint32(dc.bitsLeft) + uint32(dc.remaining-1)*8) * uint32(dc.timer.period)
	return cyclesToRun >= ncycles
}

func (dc *DMC) status() bool  { return dc.remaining > 0 }
func (dc *DMC) endFrame()     { dc.timer.endFrame() }
func (dc *DMC) output() uint8 { return uint8(dc.timer.lastOutput) }

// parityDelay is the number of cycles before an enable/disable of the
// channel takes effect: 2 on even CPU cycles, 3 on odd ones.
func (dc *DMC) parityDelay() uint8 {
	return 2 + uint8(dc.cpu.CurrentCycle()&1)
}

func (dc *DMC) setEnabled(enabled bool) {
	switch {
	case !enabled:
		// A DMA starting during the delay is cancelled, but still halts the
		// CPU for a cycle.
		if dc.disableDelay == 0 {
			dc.disableDelay = dc.parityDelay()
		}
		dc.needToRun = true

	case dc.remaining == 0:
		dc.initSample()
		dc.startDelay = dc.parityDelay()
		dc.needToRun = true
	}
}

func (dc *DMC) processClock() {
	if dc.disableDelay != 0 {
		dc.disableDelay--
		if dc.disableDelay == 0 {
			dc.remaining = 0
			// Abort any transfer that hasn't fully started.
			dc.cpu.StopDMCTransfer()
		}
	}

	if dc.startDelay != 0 {
		dc.startDelay--
		if dc.startDelay == 0 {
			dc.startTransfer()
		}
	}

	dc.needToRun = dc.disableDelay != 0 || dc.startDelay != 0 || dc.remaining != 0
}

func (dc *DMC) shouldRun() bool {
	if dc.needToRun {
		dc.processClock()
	}
	return dc.needToRun
}

func (dc *DMC) saveState(state *snapshot.APUDMC) {
	dc.timer.saveState(&state.Timer)
	state.SampleAddr = dc.sampleAddr
	state.SampleLen = dc.sampleLen
	state.CurrentAddr = dc.curaddr
	state.Remaining = dc.remaining
	state.OutputLevel = dc.outlvl
	state.ReadBuf = dc.readbuf
	state.BitsLeft = dc.bitsLeft
	state.StartDelay = dc.startDelay
	state.DisableDelay = dc.disableDelay
	state.IRQEnabled = dc.irqEnabled
	state.Loop = dc.loop
	state.BufEmpty = dc.bufEmpty
	state.ShiftReg = dc.shiftReg
	state.Silence = dc.silence
	state.NeedToRun = dc.needToRun
}

func (dc *DMC) setState(state *snapshot.APUDMC) {
	dc.timer.setState(&state.Timer)
	dc.sampleAddr = state.SampleAddr
	dc.sampleLen = state.SampleLen
	dc.curaddr = state.CurrentAddr
	dc.remaining = state.Remaining
	dc.outlvl = state.OutputLevel
	dc.readbuf = state.ReadBuf
	dc.bitsLeft = state.BitsLeft
	dc.startDelay = state.StartDelay
	dc.disableDelay = state.DisableDelay
	dc.irqEnabled = state.IRQEnabled
	dc.loop = state.Loop
	dc.bufEmpty = state.BufEmpty
	dc.shiftReg = state.ShiftReg
	dc.silence = state.Silence
	dc.needToRun = state.NeedToRun
}
