package apu

import "nescore/hw/snapshot"

// timer is the divider clocking the channel sequencers. It also tracks the
// last output level of its channel, sending the changes to the mixer.
type timer struct {
	prevCycle  uint32
	timer      uint16
	period     uint16
	lastOutput int8

	channel Channel
	mixer   mixer
}

func (t *timer) reset() {
	t.timer = 0
	t.period = 0
	t.prevCycle = 0
	t.lastOutput = 0
}

func (t *timer) addOutput(output int8) {
	if output != t.lastOutput {
		t.mixer.AddDelta(t.channel, t.prevCycle, int16(output)-int16(t.lastOutput))
		t.lastOutput = output
	}
}

// run makes the timer catch up with targetCycle. It reports whether the
// timer reached 0 and was reloaded, in which case run must be called again.
func (t *timer) run(targetCycle uint32) bool {
	cyclesToRun := targetCycle - t.prevCycle

	if cyclesToRun > uint32(t.timer) {
		t.prevCycle += uint32(t.timer) + 1
		t.timer = t.period
		return true
	}

	t.timer -= uint16(cyclesToRun)
	t.prevCycle = targetCycle
	return false
}

func (t *timer) endFrame() {
	t.prevCycle = 0
}

func (t *timer) saveState(state *snapshot.APUTimer) {
	state.Timer = t.timer
	state.Period = t.period
	state.LastOutput = t.lastOutput
}

func (t *timer) setState(state *snapshot.APUTimer) {
	t.timer = state.Timer
	t.period = state.Period
	t.lastOutput = state.LastOutput
	t.prevCycle = 0
}
