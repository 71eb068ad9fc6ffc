package hw

import (
	"nescore/emu/log"
	"nescore/hw/snapshot"
)

// StdPadButton is a button of the standard NES controller, also its bit
// index in the controller state byte.
type StdPadButton byte

const (
	PadA StdPadButton = iota
	PadB
	PadSelect
	PadStart
	PadUp
	PadDown
	PadLeft
	PadRight
)

var padButtonNames = [...]string{"A", "B", "Select", "Start", "Up", "Down", "Left", "Right"}

func (b StdPadButton) String() string {
	if int(b) < len(padButtonNames) {
		return padButtonNames[b]
	}
	return "unknown"
}

// Mask returns the bit of b in a controller state byte.
func (b StdPadButton) Mask() uint8 { return 1 << b }

// InputPorts are the 2 standard controller ports: $4016 (strobe and port 1
// data) and $4017 (port 2 data).
type InputPorts struct {
	buttons [2]uint8 // current state of each controller
	shift   [2]uint8 // state shift registers
	strobe  bool
}

// SetButtons sets the buttons currently pressed on the controller connected
// to port (0 or 1).
func (ip *InputPorts) SetButtons(port int, mask uint8) {
	ip.buttons[port&1] = mask
	log.ModInput.DebugZ("controller state").
		Int("port", port&1).
		Hex8("buttons", mask).
		End()
}

// Buttons returns the buttons pressed on a controller.
func (ip *InputPorts) Buttons(port int) uint8 { return ip.buttons[port&1] }

func (ip *InputPorts) Reset() {
	ip.shift = [2]uint8{}
	ip.strobe = false
}

// Write handles a write to $4016. While the strobe bit is set, the shift
// registers are continuously reloaded with the controller state.
func (ip *InputPorts) Write(val uint8) {
	prev := ip.strobe
	ip.strobe = val&0x01 == 0x01
	if prev && !ip.strobe {
		ip.reload()
	}
}

func (ip *InputPorts) reload() {
	ip.shift = ip.buttons
}

// Read handles a read of $4016 (port 0) or $4017 (port 1), returning the
// next serial bit in bit 0. Upper bits are open bus, left to the caller.
func (ip *InputPorts) Read(port int) uint8 {
	port &= 1
	if ip.strobe {
		ip.reload()
	}

	ret := ip.shift[port] & 0x01
	ip.shift[port] >>= 1

	// After 8 bits are read, all subsequent bits report 1 on a standard
	// controller.
	ip.shift[port] |= 0x80
	return ret
}

// Peek returns the value Read would return, without side effects.
func (ip *InputPorts) Peek(port int) uint8 {
	port &= 1
	if ip.strobe {
		return ip.buttons[port] & 0x01
	}
	return ip.shift[port] & 0x01
}

func (ip *InputPorts) State() *snapshot.Input {
	return &snapshot.Input{
		Strobe:  ip.strobe,
		Buttons: ip.buttons,
		Shift:   ip.shift,
	}
}

func (ip *InputPorts) SetState(state *snapshot.Input) {
	ip.strobe = state.Strobe
	ip.buttons = state.Buttons
	ip.shift = state.Shift
}
