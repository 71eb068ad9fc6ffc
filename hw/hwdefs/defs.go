// Package hwdefs holds the definitions shared by the chips of the console.
package hwdefs

import "strings"

// IRQSource identifies the devices driving the CPU IRQ line. The line is
// asserted as long as at least one source is set.
type IRQSource uint8

const (
	External IRQSource = 1 << iota
	FrameCounter
	DMC

	numSources = 3
)

var irqSrcNames = [numSources]string{
	"ext",
	"fcnt",
	"dmc",
}

func (irq IRQSource) String() string {
	var names []string
	for i := range numSources {
		if irq&(1<<i) != 0 {
			names = append(names, irqSrcNames[i])
		}
	}
	return strings.Join(names, "|")
}

// ResetKind tells apart the power button from the reset button.
type ResetKind uint8

const (
	PowerCycle ResetKind = iota
	SoftReset
)

func (k ResetKind) String() string {
	if k == SoftReset {
		return "soft reset"
	}
	return "power cycle"
}

const NumAudioChannels = 5 // Square1, Square2, Triangle, Noise, DMC
