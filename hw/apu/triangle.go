package apu

import (
	"nescore/emu/log"
	"nescore/hw/snapshot"
)

// triangleChannel contains a timer, a 32-step sequencer, a length counter,
// a linear counter and a 4-bit DAC.
//
//	+---------+    +---------+
//	|LinearCtr|    | Length  |
//	+---------+    +---------+
//	     |              |
//	     v              v
//	+---------+        |\             |\         +---------+    +---------+
//	|  Timer  |------->| >----------->| >------->|Sequencer|--->|   DAC   |
//	+---------+        |/             |/         +---------+    +---------+
type triangleChannel struct {
	apu        runner
	lenCounter lengthCounter
	timer      timer

	linearCounter       uint8
	linearCounterReload uint8
	linearReload        bool
	linearCtrl          bool

	pos uint8 // position in triangleSequence
}

func newTriangleChannel(apu runner, mixer mixer) triangleChannel {
	return triangleChannel{
		apu:        apu,
		lenCounter: lengthCounter{apu: apu, channel: Triangle},
		timer:      timer{channel: Triangle, mixer: mixer},
	}
}

var triangleSequence = [32]int8{
	15, 14, 13, 12, 11, 10, 9, 8,
	7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7,
	8, 9, 10, 11, 12, 13, 14, 15,
}

// write handles writes to $4008-$400B.
func (tc *triangleChannel) write(reg uint16, val uint8) {
	tc.apu.Run()

	switch reg & 0x03 {
	case 0: // CRRR RRRR
		tc.linearCtrl = val&0x80 == 0x80
		tc.linearCounterReload = val & 0x7F
		tc.lenCounter.init(tc.linearCtrl)
	case 1:
		// unused
	case 2: // LLLL LLLL
		tc.timer.period = tc.timer.period&0xFF00 | uint16(val)
	case 3: // llll lHHH
		tc.lenCounter.load(val >> 3)
		tc.timer.period = tc.timer.period&0x00FF | uint16(val&0x07)<<8
		tc.linearReload = true
	}

	log.ModSound.DebugZ("write triangle").
		Uint16("reg", reg&0x03).
		Hex8("val", val).
		End()
}

func (tc *triangleChannel) run(targetCycle uint32) {
	for tc.timer.run(targetCycle) {
		// The sequencer is clocked by the timer as long as both the linear
		// counter and the length counter are nonzero.
		if tc.lenCounter.status() && tc.linearCounter > 0 {
			tc.pos = (tc.pos + 1) & 0x1F

			// Ultrasonic periods are not output.
			if tc.timer.period >= 2 {
				tc.timer.addOutput(triangleSequence[tc.pos])
			}
		}
	}
}

func (tc *triangleChannel) reset(soft bool) {
	tc.timer.reset()
	tc.lenCounter.reset(soft)

	tc.linearCounter = 0
	tc.linearCounterReload = 0
	tc.linearReload = false
	tc.linearCtrl = false
	tc.pos = 0
}

func (tc *triangleChannel) tickLinearCounter() {
	if tc.linearReload {
		tc.linearCounter = tc.linearCounterReload
	} else if tc.linearCounter > 0 {
		tc.linearCounter--
	}

	if !tc.linearCtrl {
		tc.linearReload = false
	}
}

func (tc *triangleChannel) tickLengthCounter()      { tc.lenCounter.tick() }
func (tc *triangleChannel) reloadLengthCounter()    { tc.lenCounter.reload() }
func (tc *triangleChannel) endFrame()               { tc.timer.endFrame() }
func (tc *triangleChannel) setEnabled(enabled bool) { tc.lenCounter.setEnabled(enabled) }
func (tc *triangleChannel) status() bool            { return tc.lenCounter.status() }
func (tc *triangleChannel) output() uint8           { return uint8(tc.timer.lastOutput) }

func (tc *triangleChannel) saveState(state *snapshot.APUTriangle) {
	tc.lenCounter.saveState(&state.LengthCounter)
	tc.timer.saveState(&state.Timer)
	state.LinearCounter = tc.linearCounter
	state.LinearCounterReload = tc.linearCounterReload
	state.LinearReload = tc.linearReload
	state.LinearCtrl = tc.linearCtrl
	state.Pos = tc.pos
}

func (tc *triangleChannel) setState(state *snapshot.APUTriangle) {
	tc.lenCounter.setState(&state.LengthCounter)
	tc.timer.setState(&state.Timer)
	tc.linearCounter = state.LinearCounter
	tc.linearCounterReload = state.LinearCounterReload
	tc.linearReload = state.LinearReload
	tc.linearCtrl = state.LinearCtrl
	tc.pos = state.Pos
}
