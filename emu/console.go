// Package emu assembles the hardware components into a console and exposes
// the lifecycle, debugger and presentation APIs used by front ends.
package emu

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"nescore/emu/log"
	"nescore/hw"
	"nescore/hw/apu"
	"nescore/hw/mappers"
	"nescore/hw/snapshot"
	"nescore/ines"
)

// ErrNoCartridge is returned by operations requiring a loaded ROM.
var ErrNoCartridge = errors.New("no cartridge loaded")

// Console is a NES with a cartridge inserted. It is not safe for concurrent
// use: front ends drive it from a single goroutine and read frames and audio
// between steps.
type Console struct {
	cfg Config

	bus   *hw.Bus
	mixer *apu.Mixer
	rom   *ines.Rom
	clock hw.ClockDivider
	dbg   hw.Debugger

	battery *Battery
}

// NewConsole returns a console without cartridge.
func NewConsole(cfg Config) (*Console, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return &Console{cfg: cfg}, nil
}

// Load inserts the cartridge held in rom, an iNES image, and powers the
// console up. saveData, if not nil, is copied into the battery-backed PRG
// RAM.
func (c *Console) Load(rom []byte, saveData []byte) error {
	cart, err := ines.Decode(rom)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	m, err := mappers.New(cart)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	if err := c.Close(); err != nil {
		log.ModEmu.WarnZ("failed to close previous cartridge").Error("err", err).End()
	}

	c.rom = cart
	c.mixer = apu.NewMixer(c.cfg.Audio.SampleRate)
	c.bus = hw.NewBus(m, c.mixer)
	c.bus.PPU.SetWarmup(c.cfg.Emulation.Warmup)
	c.bus.CPU.SetTraceOutput(c.cfg.TraceOut)
	c.bus.CPU.SetDebugger(c.dbg)
	c.clock.Reset()
	c.bus.Reset(hw.PowerCycle)

	if saveData != nil {
		if !m.HasBattery() {
			log.ModEmu.WarnZ("ignoring save data, cartridge has no battery").End()
		} else {
			copy(m.SRAM.Data, saveData)
		}
	}

	log.ModEmu.InfoZ("cartridge loaded").
		Stringer("mapper", m.Kind).
		Int("prg", len(cart.PRG)).
		Int("chr", len(cart.CHR)).
		Bool("battery", m.HasBattery()).
		End()
	return nil
}

// Close flushes and releases the battery save file, if any.
func (c *Console) Close() error {
	return c.releaseBattery()
}

func (c *Console) loaded() error {
	if c.bus == nil {
		return ErrNoCartridge
	}
	return nil
}

// Rom returns the loaded cartridge image, or nil.
func (c *Console) Rom() *ines.Rom { return c.rom }

// Bus gives access to the hardware, for tests and tools.
func (c *Console) Bus() *hw.Bus { return c.bus }

// Reset presses the reset button (SoftReset), or power cycles the console.
func (c *Console) Reset(kind hw.ResetKind) error {
	if err := c.loaded(); err != nil {
		return err
	}
	log.ModEmu.InfoZ("reset").Stringer("kind", kind).End()
	c.clock.Reset()
	c.bus.Reset(kind)
	return nil
}

// SetDebugger installs dbg, which is notified of the CPU activity. A nil dbg
// removes the current debugger.
func (c *Console) SetDebugger(dbg hw.Debugger) {
	c.dbg = dbg
	if c.bus != nil {
		c.bus.CPU.SetDebugger(dbg)
	}
}

// SetTraceOutput enables (or disables if w is nil) the execution trace.
func (c *Console) SetTraceOutput(w io.Writer) {
	c.cfg.TraceOut = w
	if c.bus != nil {
		c.bus.CPU.SetTraceOutput(w)
	}
}

// StepCycle runs a single CPU cycle.
func (c *Console) StepCycle() error {
	if err := c.loaded(); err != nil {
		return err
	}
	return c.bus.CPU.StepCycle()
}

// StepInstruction runs the CPU up to the next instruction boundary.
func (c *Console) StepInstruction() error {
	if err := c.loaded(); err != nil {
		return err
	}
	return c.bus.CPU.StepInstruction()
}

// StepFrame runs whole instructions until the PPU completes a frame. The
// audio of the frame is then available with AudioBuffer and Samples.
func (c *Console) StepFrame() error {
	if err := c.loaded(); err != nil {
		return err
	}

	frame := c.bus.PPU.Frames
	for c.bus.PPU.Frames == frame {
		if err := c.bus.CPU.StepInstruction(); err != nil {
			return err
		}
	}
	c.bus.APU.EndFrame()
	if c.cfg.Audio.Disabled {
		c.mixer.AudioBuffer()
		c.mixer.Samples()
	}
	if c.dbg != nil {
		c.dbg.FrameEnd()
	}
	return nil
}

// RunMaster advances the master clock by n ticks, running a CPU cycle each
// time the clock divider enables it. It returns the number of CPU cycles
// ran.
func (c *Console) RunMaster(n uint64) (int64, error) {
	if err := c.loaded(); err != nil {
		return 0, err
	}

	var ncycles int64
	for range n {
		cpu, _, _ := c.clock.Tick()
		if !cpu {
			continue
		}
		if err := c.bus.CPU.StepCycle(); err != nil {
			return ncycles, err
		}
		ncycles++
	}
	return ncycles, nil
}

// Cycles returns the number of CPU cycles since the last reset.
func (c *Console) Cycles() int64 {
	if c.bus == nil {
		return 0
	}
	return c.bus.CPU.Cycles
}

// Halted reports whether the CPU is jammed.
func (c *Console) Halted() bool {
	return c.bus != nil && c.bus.CPU.IsHalted()
}

/* presentation */

// Frame returns a copy of the last completed frame: 256x240 palette indices.
func (c *Console) Frame() []byte {
	if c.bus == nil {
		return nil
	}
	return append([]byte(nil), c.bus.PPU.Frame()...)
}

// AudioBuffer returns and consumes the float samples produced since the last
// call, or nil if there are none.
func (c *Console) AudioBuffer() []float32 {
	if c.mixer == nil {
		return nil
	}
	return c.mixer.AudioBuffer()
}

// Samples returns and consumes the band-limited 16-bit samples produced since
// the last call.
func (c *Console) Samples() []int16 {
	if c.mixer == nil {
		return nil
	}
	return c.mixer.Samples()
}

// SampleRate returns the audio output rate, in Hz.
func (c *Console) SampleRate() int { return c.cfg.Audio.SampleRate }

// SetControllerInput sets the buttons held on the standard controller
// plugged in port (0 or 1). mask bits follow the hw.StdPadButton order.
func (c *Console) SetControllerInput(port int, mask uint8) {
	if c.bus == nil {
		return
	}
	c.bus.Input.SetButtons(port, mask)
}

/* snapshots */

// SaveState writes a snapshot of the whole console to w.
func (c *Console) SaveState(w io.Writer) error {
	if err := c.loaded(); err != nil {
		return err
	}

	b := c.bus
	state := &snapshot.NES{
		Version: snapshot.Version,
		Bus:     b.State(),
		CPU:     b.CPU.State(),
		DMA:     b.CPU.DMA.State(),
		RAM:     append([]byte(nil), b.RAM.Data...),
		PPU:     b.PPU.State(),
		APU:     b.APU.State(),
		Mapper:  b.Mapper.State(),
		Input:   b.Input.State(),
	}
	if err := snapshot.Encode(w, state); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// LoadState restores a snapshot written by SaveState, for the same
// cartridge.
func (c *Console) LoadState(r io.Reader) error {
	if err := c.loaded(); err != nil {
		return err
	}

	buf, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	state, err := snapshot.Decode(buf)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if state.CPU == nil || state.DMA == nil || state.PPU == nil || state.APU == nil ||
		state.Mapper == nil || state.Input == nil || state.Bus == nil {
		return fmt.Errorf("load state: %w: missing component", snapshot.ErrFormat)
	}
	if len(state.RAM) != len(c.bus.RAM.Data) {
		return fmt.Errorf("load state: %w: RAM is %d bytes", snapshot.ErrFormat, len(state.RAM))
	}

	// Components are restored one by one, keep the current state to roll
	// back to if one of them rejects its snapshot.
	var prev bytes.Buffer
	if err := c.SaveState(&prev); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if err := c.restore(state); err != nil {
		if prevState, derr := snapshot.Decode(prev.Bytes()); derr == nil {
			_ = c.restore(prevState)
		}
		return fmt.Errorf("load state: %w", err)
	}

	b := c.bus
	log.ModEmu.InfoZ("state loaded").Int64("cycles", b.CPU.Cycles).End()
	return nil
}

// restore applies a decoded snapshot to every component.
func (c *Console) restore(state *snapshot.NES) error {
	b := c.bus
	if err := b.Mapper.SetState(state.Mapper); err != nil {
		return err
	}
	if err := b.PPU.SetState(state.PPU); err != nil {
		return err
	}
	b.CPU.SetState(state.CPU)
	b.CPU.DMA.SetState(state.DMA)
	b.APU.SetState(state.APU)
	b.Input.SetState(state.Input)
	copy(b.RAM.Data, state.RAM)
	// The bus goes last, the PPU drives the NMI line while restoring its
	// registers.
	b.SetState(state.Bus)
	return nil
}

// AddLogContext decorates log entries with the current frame and CPU cycle.
// It implements log.Context; register the console with log.AddContext when it
// is the only one running.
func (c *Console) AddLogContext(e *log.EntryZ) {
	if c.bus == nil {
		return
	}
	e.Uint64("frame", c.bus.PPU.Frames).Int64("cycle", c.bus.CPU.Cycles)
}
