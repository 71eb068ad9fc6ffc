package apu

import "nescore/hw/snapshot"

var lengthLUT = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6, 160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 18, 48, 20, 96, 22, 192, 24, 72, 26, 16, 28, 32, 30,
}

// lengthCounter silences its channel once it reaches 0. Counter loads and
// halt flag changes are delayed until after the frame counter step of the
// same cycle (see reload).
type lengthCounter struct {
	apu     runner
	channel Channel

	enabled   bool
	halt      bool
	newHalt   bool
	counter   uint8
	reloadVal uint8
	prevVal   uint8
}

func (lc *lengthCounter) init(halt bool) {
	lc.apu.SetNeedToRun()
	lc.newHalt = halt
}

func (lc *lengthCounter) load(idx uint8) {
	if lc.enabled {
		lc.reloadVal = lengthLUT[idx&0x1F]
		lc.prevVal = lc.counter
		lc.apu.SetNeedToRun()
	}
}

func (lc *lengthCounter) reset(soft bool) {
	lc.enabled = false
	if soft && lc.channel == Triangle {
		// A soft reset leaves the triangle length counter untouched.
		return
	}
	lc.halt = false
	lc.newHalt = false
	lc.counter = 0
	lc.reloadVal = 0
	lc.prevVal = 0
}

func (lc *lengthCounter) status() bool { return lc.counter > 0 }

// reload applies a pending counter load, unless the counter has been clocked
// in the same cycle.
func (lc *lengthCounter) reload() {
	if lc.reloadVal != 0 {
		if lc.counter == lc.prevVal {
			lc.counter = lc.reloadVal
		}
		lc.reloadVal = 0
	}
	lc.halt = lc.newHalt
}

func (lc *lengthCounter) tick() {
	if lc.counter > 0 && !lc.halt {
		lc.counter--
	}
}

func (lc *lengthCounter) setEnabled(enabled bool) {
	if !enabled {
		lc.counter = 0
	}
	lc.enabled = enabled
}

func (lc *lengthCounter) saveState(state *snapshot.APULengthCounter) {
	state.Enabled = lc.enabled
	state.Halt = lc.halt
	state.NewHalt = lc.newHalt
	state.Counter = lc.counter
	state.ReloadValue = lc.reloadVal
	state.PreviousValue = lc.prevVal
}

func (lc *lengthCounter) setState(state *snapshot.APULengthCounter) {
	lc.enabled = state.Enabled
	lc.halt = state.Halt
	lc.newHalt = state.NewHalt
	lc.counter = state.Counter
	lc.reloadVal = state.ReloadValue
	lc.prevVal = state.PreviousValue
}
