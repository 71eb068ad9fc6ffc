package apu

import (
	"nescore/emu/log"
	"nescore/hw/snapshot"
)

// noiseChannel generates pseudo-random 1-bit noise at 16 different
// frequencies.
//
//	   Timer --> Shift Register   Length Counter
//	                 |                |
//	                 v                v
//	Envelope -------> Gate ----------> Gate --> (to mixer)
type noiseChannel struct {
	apu      runner
	envelope envelope
	timer    timer

	shiftReg uint16 // 15-bit LFSR
	mode     bool
}

func newNoiseChannel(apu runner, mixer mixer) noiseChannel {
	return noiseChannel{
		apu: apu,
		envelope: envelope{
			lenCounter: lengthCounter{apu: apu, channel: Noise},
		},
		timer: timer{channel: Noise, mixer: mixer},
	}
}

var noisePeriodLUT = [16]uint16{4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068}

// write handles writes to $400C-$400F.
func (nc *noiseChannel) write(reg uint16, val uint8) {
	nc.apu.Run()

	switch reg & 0x03 {
	case 0: // --LC VVVV
		nc.envelope.init(val)
	case 1:
		// unused
	case 2: // M--- PPPP
		nc.timer.period = noisePeriodLUT[val&0x0F] - 1
		nc.mode = val&0x80 != 0
	case 3: // llll l---
		nc.envelope.lenCounter.load(val >> 3)
		nc.envelope.restart()
	}

	log.ModSound.DebugZ("write noise").
		Uint16("reg", reg&0x03).
		Hex8("val", val).
		End()
}

func (nc *noiseChannel) run(targetCycle uint32) {
	for nc.timer.run(targetCycle) {
		// Feedback is bit 0 XOR bit 6 in mode 1, bit 0 XOR bit 1 otherwise.
		bit := uint16(1)
		if nc.mode {
			bit = 6
		}

		feedback := nc.shiftReg&0x01 ^ nc.shiftReg>>bit&0x01
		nc.shiftReg >>= 1
		nc.shiftReg |= feedback << 14

		if nc.isMuted() {
			nc.timer.addOutput(0)
		} else {
			nc.timer.addOutput(int8(nc.envelope.output()))
		}
	}
}

// The channel is muted when bit 0 of the shift register is set.
func (nc *noiseChannel) isMuted() bool {
	return nc.shiftReg&0x01 == 0x01
}

func (nc *noiseChannel) reset(soft bool) {
	nc.envelope.reset(soft)
	nc.timer.reset()

	nc.timer.period = noisePeriodLUT[0] - 1
	nc.shiftReg = 1
	nc.mode = false
}

func (nc *noiseChannel) tickEnvelope()           { nc.envelope.tick() }
func (nc *noiseChannel) tickLengthCounter()      { nc.envelope.lenCounter.tick() }
func (nc *noiseChannel) reloadLengthCounter()    { nc.envelope.lenCounter.reload() }
func (nc *noiseChannel) endFrame()               { nc.timer.endFrame() }
func (nc *noiseChannel) setEnabled(enabled bool) { nc.envelope.lenCounter.setEnabled(enabled) }
func (nc *noiseChannel) status() bool            { return nc.envelope.lenCounter.status() }
func (nc *noiseChannel) output() uint8           { return uint8(nc.timer.lastOutput) }

func (nc *noiseChannel) saveState(state *snapshot.APUNoise) {
	nc.envelope.saveState(&state.Envelope)
	nc.timer.saveState(&state.Timer)
	state.ShiftReg = nc.shiftReg
	state.Mode = nc.mode
}

func (nc *noiseChannel) setState(state *snapshot.APUNoise) {
	nc.envelope.setState(&state.Envelope)
	nc.timer.setState(&state.Timer)
	nc.shiftReg = state.ShiftReg
	nc.mode = state.Mode
}
