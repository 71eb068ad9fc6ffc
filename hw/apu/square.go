package apu

import (
	"nescore/emu/log"
	"nescore/hw/snapshot"
)

// squareChannel is one of the 2 pulse channels, at $4000 and $4004. Each
// contains an envelope generator, a sweep unit, a timer with divide-by-two on
// the output, an 8-step sequencer and a length counter.
//
//	               +---------+    +---------+
//	               |  Sweep  |--->|Timer / 2|
//	               +---------+    +---------+
//	                    |              |
//	                    |              v
//	                    |         +---------+    +---------+
//	                    |         |Sequencer|    | Length  |
//	                    |         +---------+    +---------+
//	                    |              |              |
//	                    v              v              v
//	+---------+        |\             |\             |\          +---------+
//	|Envelope |------->| >----------->| >----------->| >-------->|   DAC   |
//	+---------+        |/             |/             |/          +---------+
type squareChannel struct {
	apu      runner
	envelope envelope
	timer    timer
	sweep    sweep

	duty    uint8
	dutyPos uint8

	realPeriod uint16
}

// sweep periodically adjusts the period of a square channel.
type sweep struct {
	enabled bool
	negate  bool
	reload  bool
	period  uint8
	shift   uint8
	divider uint8
	target  uint32

	onesComplement bool // square 1 negates with one's complement
}

func (sw *sweep) init(val uint8) {
	sw.enabled = val&0x80 != 0
	sw.negate = val&0x08 != 0
	sw.period = (val>>4)&0x07 + 1
	sw.shift = val & 0x07
	sw.reload = true
}

// update computes the target period from the current one.
func (sw *sweep) update(period uint16) {
	delta := period >> sw.shift
	switch {
	case !sw.negate:
		sw.target = uint32(period) + uint32(delta)
	case sw.onesComplement:
		sw.target = uint32(period-delta) - 1
	default:
		sw.target = uint32(period - delta)
	}
}

// mutes reports whether the target period silences the channel.
func (sw *sweep) mutes() bool { return !sw.negate && sw.target > 0x7FF }

func newSquareChannel(apu runner, mixer mixer, channel Channel) squareChannel {
	return squareChannel{
		apu: apu,
		envelope: envelope{
			lenCounter: lengthCounter{apu: apu, channel: channel},
		},
		timer: timer{channel: channel, mixer: mixer},
		sweep: sweep{onesComplement: channel == Square1},
	}
}

// write handles a write to one of the 4 channel registers.
func (sc *squareChannel) write(reg uint16, val uint8) {
	sc.apu.Run()

	switch reg & 0x03 {
	case 0: // DDLC VVVV
		sc.envelope.init(val)
		sc.duty = val >> 6 & 0x03
	case 1: // EPPP NSSS
		sc.initSweep(val)
	case 2: // LLLL LLLL
		sc.setPeriod(sc.realPeriod&0x0700 | uint16(val))
	case 3: // llll lHHH
		sc.envelope.lenCounter.load(val >> 3)
		sc.setPeriod(sc.realPeriod&0x00FF | uint16(val&0x07)<<8)

		// The sequencer and the envelope are restarted.
		sc.dutyPos = 0
		sc.envelope.restart()
	}

	log.ModSound.DebugZ("write square").
		Stringer("ch", sc.timer.channel).
		Uint16("reg", reg&0x03).
		Hex8("val", val).
		End()
}

// isMuted reports whether the channel is silenced, by a period below 8 or
// by a sweep target period out of range.
func (sc *squareChannel) isMuted() bool {
	return sc.realPeriod < 8 || sc.sweep.mutes()
}

func (sc *squareChannel) initSweep(val uint8) {
	sc.sweep.init(val)
	sc.sweep.update(sc.realPeriod)
}

func (sc *squareChannel) setPeriod(period uint16) {
	sc.realPeriod = period
	sc.timer.period = period*2 + 1
	sc.sweep.update(period)
}

var squareDuty = [4][8]uint8{
	{0, 0, 0, 0, 0, 0, 0, 1},
	{0, 0, 0, 0, 0, 0, 1, 1},
	{0, 0, 0, 0, 1, 1, 1, 1},
	{1, 1, 1, 1, 1, 1, 0, 0},
}

func (sc *squareChannel) updateOutput() {
	if sc.isMuted() {
		sc.timer.addOutput(0)
		return
	}
	sc.timer.addOutput(int8(squareDuty[sc.duty][sc.dutyPos] * sc.envelope.output()))
}

func (sc *squareChannel) run(targetCycle uint32) {
	for sc.timer.run(targetCycle) {
		sc.dutyPos = (sc.dutyPos - 1) & 0x07
		sc.updateOutput()
	}
}

func (sc *squareChannel) reset(soft bool) {
	sc.envelope.reset(soft)
	sc.timer.reset()

	sc.duty = 0
	sc.dutyPos = 0
	sc.realPeriod = 0
	sc.sweep = sweep{onesComplement: sc.sweep.onesComplement}
	sc.sweep.update(0)
}

// tickSweep clocks the sweep divider, on half frames.
func (sc *squareChannel) tickSweep() {
	sw := &sc.sweep
	sw.divider--
	if sw.divider == 0 {
		if sw.shift > 0 && sw.enabled && sc.realPeriod >= 8 && sw.target <= 0x7FF {
			sc.setPeriod(uint16(sw.target))
		}
		sw.divider = sw.period
	}
	if sw.reload {
		sw.divider = sw.period
		sw.reload = false
	}
}

func (sc *squareChannel) tickEnvelope()           { sc.envelope.tick() }
func (sc *squareChannel) tickLengthCounter()      { sc.envelope.lenCounter.tick() }
func (sc *squareChannel) reloadLengthCounter()    { sc.envelope.lenCounter.reload() }
func (sc *squareChannel) endFrame()               { sc.timer.endFrame() }
func (sc *squareChannel) setEnabled(enabled bool) { sc.envelope.lenCounter.setEnabled(enabled) }
func (sc *squareChannel) status() bool            { return sc.envelope.lenCounter.status() }
func (sc *squareChannel) output() uint8           { return uint8(sc.timer.lastOutput) }

func (sc *squareChannel) saveState(state *snapshot.APUSquare) {
	sc.timer.saveState(&state.Timer)
	sc.envelope.saveState(&state.Envelope)
	state.Duty = sc.duty
	state.DutyPos = sc.dutyPos
	state.SweepEnabled = sc.sweep.enabled
	state.SweepPeriod = sc.sweep.period
	state.SweepNegate = sc.sweep.negate
	state.SweepShift = sc.sweep.shift
	state.ReloadSweep = sc.sweep.reload
	state.SweepDivider = sc.sweep.divider
	state.SweepTargetPeriod = sc.sweep.target
	state.RealPeriod = sc.realPeriod
}

func (sc *squareChannel) setState(state *snapshot.APUSquare) {
	sc.timer.setState(&state.Timer)
	sc.envelope.setState(&state.Envelope)
	sc.duty = state.Duty
	sc.dutyPos = state.DutyPos
	sc.sweep.enabled = state.SweepEnabled
	sc.sweep.period = state.SweepPeriod
	sc.sweep.negate = state.SweepNegate
	sc.sweep.shift = state.SweepShift
	sc.sweep.reload = state.ReloadSweep
	sc.sweep.divider = state.SweepDivider
	sc.sweep.target = state.SweepTargetPeriod
	sc.realPeriod = state.RealPeriod
}
