package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"strings"

	"nescore/emu"
	"nescore/emu/debugger"
	"nescore/emu/log"
)

// runMain runs the emulator headless, for the given number of frames.
func runMain(args Run, cfg emu.Config) (err error) {
	if args.Frames <= 0 {
		fatalf("invalid number of frames: %d", args.Frames)
	}
	if args.Scale < 1 {
		fatalf("invalid screenshot scale: %d", args.Scale)
	}

	rom, err := os.ReadFile(args.RomPath)
	if err != nil {
		return fmt.Errorf("error reading ROM: %w", err)
	}

	if args.Trace != nil {
		cfg.TraceOut = args.Trace
		defer args.Trace.Close()
	}

	c, err := emu.NewConsole(cfg)
	if err != nil {
		return err
	}
	if err := c.Load(rom, nil); err != nil {
		return err
	}
	defer func() { err = errors.Join(err, c.Close()) }()

	log.AddContext(c)
	defer log.RemoveContext(c)

	if c.Bus().Mapper.HasBattery() {
		path := args.Save
		if path == "" {
			path = emu.BatteryPath(args.RomPath, cfg.General.SaveDir)
		}
		if err := c.UseBattery(path); err != nil {
			return err
		}
	}

	if args.LoadState != "" {
		if err := loadState(c, args.LoadState); err != nil {
			return err
		}
	}

	if len(args.Break) > 0 {
		dbg := debugger.New(c)
		for _, addr := range args.Break {
			dbg.AddBreakpoint(uint16(addr))
		}
		c.SetDebugger(dbg)
		go reportStops(os.Stdout, c, dbg)
	}

	var wavw *emu.WAVWriter
	if args.WAV != "" {
		wf, werr := os.Create(args.WAV)
		if werr != nil {
			return werr
		}
		defer wf.Close()
		wavw = emu.NewWAVWriter(wf, c.SampleRate())
		defer func() { err = errors.Join(err, wavw.Close()) }()
	}

	if args.CPUProfile != "" {
		f, err := os.Create(args.CPUProfile)
		checkf(err, "failed to create cpu profile file")
		checkf(pprof.StartCPUProfile(f), "failed to start cpu profile")
		defer func() {
			pprof.StopCPUProfile()
			f.Close()
			fmt.Println("CPU profile written to", args.CPUProfile)
		}()
	}

	for frame := range args.Frames {
		if err := c.StepFrame(); err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		c.AudioBuffer()
		samples := c.Samples()
		if wavw != nil {
			if err := wavw.Write(samples); err != nil {
				return err
			}
		}
	}
	log.ModEmu.InfoZ("run finished").
		Int("frames", args.Frames).
		Int64("cycles", c.Cycles()).
		End()

	if args.Screenshot != "" {
		if err := emu.SaveAsPNG(c.Screenshot(args.Scale), args.Screenshot); err != nil {
			return err
		}
	}

	if args.SaveState != "" {
		if err := saveState(c, args.SaveState); err != nil {
			return err
		}
	}
	return nil
}

func loadState(c *emu.Console, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return c.LoadState(f)
}

func saveState(c *emu.Console, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.SaveState(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// reportStops prints, for each breakpoint hit, the registers and the call
// stack, then resumes the execution.
func reportStops(w io.Writer, c *emu.Console, dbg *debugger.Debugger) {
	for stop := range dbg.Stops() {
		var regs []string
		for _, r := range c.Registers() {
			regs = append(regs, fmt.Sprintf("%s:%0*X", r.Name, r.Width*2, r.Value))
		}
		fmt.Fprintf(w, "%s [%s]\n", stop, strings.Join(regs, " "))
		for _, f := range dbg.CallStack() {
			fmt.Fprintf(w, "\t%s\n", f)
		}
		if err := dbg.Continue(); err != nil {
			log.ModEmu.WarnZ("failed to resume execution").Error("err", err).End()
		}
	}
}
