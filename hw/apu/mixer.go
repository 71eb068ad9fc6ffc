package apu

import (
	"slices"

	"github.com/arl/blip"

	"nescore/emu/log"
	"nescore/hw/hwdefs"
	"nescore/hw/snapshot"
)

const (
	MaxSampleRate     = 96000
	DefaultSampleRate = 44100

	maxSamplesPerFrame = MaxSampleRate / 60 * 4

	ntscClockRate uint32 = 1789773

	// Scales the mixed level (0-1) to the int16 stream.
	outputScale = 5000 * 4
)

// Mixer combines the channel outputs with the nonlinear 2A03 DAC formulas.
// It produces 2 streams at the same sample rate: a band-limited int16 stream
// (blip buffer) and a float32 stream obtained by averaging the mixed level
// over each output sample period.
type Mixer struct {
	buf     *blip.Buffer
	scratch [maxSamplesPerFrame]int16
	samples []int16
	floats  []float32
	prevOut int16

	timestamps []uint32
	chanoutput [hwdefs.NumAudioChannels][cycleLength]int16
	curOutput  [hwdefs.NumAudioChannels]int16
	volumes    [hwdefs.NumAudioChannels]float64

	clockRate  uint32
	sampleRate uint32

	// block averaging
	phase uint32
	sum   float64
	nsum  int
}

// NewMixer creates a mixer with the given output sample rate. A rate of 0
// selects DefaultSampleRate.
func NewMixer(sampleRate int) *Mixer {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	m := &Mixer{
		buf:        blip.NewBuffer(maxSamplesPerFrame),
		sampleRate: uint32(min(sampleRate, MaxSampleRate)),
		clockRate:  ntscClockRate,
	}
	for i := range m.volumes {
		m.volumes[i] = 1.0
	}
	m.Reset()
	return m
}

// SampleRate returns the output sample rate, in Hz.
func (m *Mixer) SampleRate() int { return int(m.sampleRate) }

func (m *Mixer) Reset() {
	m.buf.Clear()
	m.buf.SetRates(float64(m.clockRate), float64(m.sampleRate))
	m.prevOut = 0
	m.samples = m.samples[:0]
	m.floats = m.floats[:0]
	m.timestamps = m.timestamps[:0]
	m.phase = 0
	m.sum, m.nsum = 0, 0

	for i := range m.chanoutput {
		clear(m.chanoutput[i][:])
	}
	clear(m.curOutput[:])
}

// SetVolume sets the volume of a channel, from 0 (muted) to 1.
func (m *Mixer) SetVolume(ch Channel, vol float64) {
	m.volumes[ch] = max(0, min(vol, 1))
}

// AddDelta records a change of a channel output at the given cycle of the
// current APU frame.
func (m *Mixer) AddDelta(ch Channel, time uint32, delta int16) {
	if delta == 0 {
		return
	}
	if time >= cycleLength {
		log.ModSound.WarnZ("audio delta out of frame").
			Stringer("ch", ch).
			Uint32("time", time).
			End()
		time = cycleLength - 1
	}
	m.timestamps = append(m.timestamps, time)
	m.chanoutput[ch][time] += delta
}

func (m *Mixer) channel(ch Channel) float64 {
	return float64(m.curOutput[ch]) * m.volumes[ch]
}

// level returns the mixed output, in the [0, 1] range.
func (m *Mixer) level() float64 {
	var sq, tnd float64
	if s := m.channel(Square1) + m.channel(Square2); s > 0 {
		sq = 95.88 / (8128.0/s + 100.0)
	}
	if t := 2.7516713261*m.channel(Triangle) + 1.8493587125*m.channel(Noise) + m.channel(DPCM); t > 0 {
		tnd = 159.79 / (22638.0/t + 100.0)
	}
	return sq + tnd
}

func (m *Mixer) applyDeltas(stamp uint32) float64 {
	for ch := range m.curOutput {
		m.curOutput[ch] += m.chanoutput[ch][stamp]
		m.chanoutput[ch][stamp] = 0
	}
	lvl := m.level()

	out := int16(lvl * outputScale)
	m.buf.AddDelta(uint64(stamp), int32(out)-int32(m.prevOut))
	m.prevOut = out
	return lvl
}

// endFrame mixes the time cycles of the APU frame which just ended.
func (m *Mixer) endFrame(time uint32) {
	slices.Sort(m.timestamps)
	stamps := slices.Compact(m.timestamps)

	lvl := m.level()
	for cyc := range time {
		if len(stamps) > 0 && stamps[0] == cyc {
			lvl = m.applyDeltas(cyc)
			stamps = stamps[1:]
		}

		m.sum += lvl
		m.nsum++
		m.phase += m.sampleRate
		if m.phase >= m.clockRate {
			m.phase -= m.clockRate
			m.floats = append(m.floats, float32(m.sum/float64(m.nsum)))
			m.sum, m.nsum = 0, 0
		}
	}
	for _, stamp := range stamps {
		m.applyDeltas(stamp)
	}
	m.timestamps = m.timestamps[:0]

	m.buf.EndFrame(int(time))
	n := m.buf.ReadSamples(m.scratch[:], maxSamplesPerFrame, blip.Mono)
	m.samples = append(m.samples, m.scratch[:n]...)
}

// Samples returns, and consumes, the band-limited int16 samples produced so
// far.
func (m *Mixer) Samples() []int16 {
	if len(m.samples) == 0 {
		return nil
	}
	out := slices.Clone(m.samples)
	m.samples = m.samples[:0]
	return out
}

// AudioBuffer returns, and consumes, the float samples produced so far, or
// nil if there are none. Samples are the DAC output normalized to [0, 1]
// (silence is 0), a subrange of [-1, 1] carrying the DC offset of the
// hardware: centering is left to the audio backend, which usually applies
// a high-pass filter anyway.
func (m *Mixer) AudioBuffer() []float32 {
	if len(m.floats) == 0 {
		return nil
	}
	out := slices.Clone(m.floats)
	m.floats = m.floats[:0]
	return out
}

func (m *Mixer) State() *snapshot.APUMixer {
	state := &snapshot.APUMixer{
		ClockRate:      m.clockRate,
		SampleRate:     m.sampleRate,
		PreviousOutput: m.prevOut,
	}
	copy(state.CurrentOutput[:], m.curOutput[:])
	return state
}

func (m *Mixer) SetState(state *snapshot.APUMixer) {
	if state.ClockRate != 0 {
		m.clockRate = state.ClockRate
	}
	if state.SampleRate != 0 {
		m.sampleRate = state.SampleRate
	}

	m.Reset()
	m.prevOut = state.PreviousOutput
	copy(m.curOutput[:], state.CurrentOutput[:])
}
