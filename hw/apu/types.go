package apu

import "nescore/hw/hwdefs"

// Channel identifies one of the 5 APU sound channels.
type Channel uint8

const (
	Square1 Channel = iota
	Square2
	Triangle
	Noise
	DPCM
)

var channelNames = [...]string{"square1", "square2", "triangle", "noise", "dpcm"}

func (c Channel) String() string {
	if int(c) < len(channelNames) {
		return channelNames[c]
	}
	return "unknown"
}

// FrameType is the kind of clock generated by the frame counter.
type FrameType uint8

const (
	NoFrame FrameType = iota
	QuarterFrame
	HalfFrame
)

// cpu is the APU view of the CPU and the bus: the cycle counter, the IRQ line
// and the DMC DMA.
type cpu interface {
	CurrentCycle() int64

	SetIRQSource(src hwdefs.IRQSource)
	HasIRQSource(src hwdefs.IRQSource) bool
	ClearIRQSource(src hwdefs.IRQSource)

	StartDMCTransfer()
	StopDMCTransfer()
}

// mixer receives the output level changes of all channels.
type mixer interface {
	AddDelta(ch Channel, time uint32, delta int16)
}

// runner is implemented by the APU: channels ask it to catch up with the
// CPU before their registers are modified.
type runner interface {
	SetNeedToRun()
	Run()
}
