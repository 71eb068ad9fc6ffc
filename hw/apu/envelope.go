package apu

import "nescore/hw/snapshot"

// envelope generates the volume of the square and noise channels, either
// constant or a decreasing saw.
type envelope struct {
	lenCounter lengthCounter

	constant bool
	volume   uint8

	start   bool
	divider int8
	counter uint8
}

// init handles a write to the channel first register: --LC VVVV.
func (env *envelope) init(val uint8) {
	env.lenCounter.init(val&0x20 == 0x20)
	env.constant = val&0x10 == 0x10
	env.volume = val & 0x0F
}

func (env *envelope) restart() { env.start = true }

func (env *envelope) output() uint8 {
	if !env.lenCounter.status() {
		return 0
	}
	if env.constant {
		return env.volume
	}
	return env.counter
}

func (env *envelope) reset(soft bool) {
	env.lenCounter.reset(soft)
	env.constant = false
	env.volume = 0
	env.start = false
	env.divider = 0
	env.counter = 0
}

func (env *envelope) tick() {
	if env.start {
		env.start = false
		env.counter = 15
		env.divider = int8(env.volume)
		return
	}

	env.divider--
	if env.divider < 0 {
		env.divider = int8(env.volume)
		if env.counter > 0 {
			env.counter--
		} else if env.lenCounter.halt {
			// Loop flag.
			env.counter = 15
		}
	}
}

func (env *envelope) saveState(state *snapshot.APUEnvelope) {
	env.lenCounter.saveState(&state.LengthCounter)
	state.Constant = env.constant
	state.Volume = env.volume
	state.Start = env.start
	state.Divider = env.divider
	state.Counter = env.counter
}

func (env *envelope) setState(state *snapshot.APUEnvelope) {
	env.lenCounter.setState(&state.LengthCounter)
	env.constant = state.Constant
	env.volume = state.Volume
	env.start = state.Start
	env.divider = state.Divider
	env.counter = state.Counter
}
