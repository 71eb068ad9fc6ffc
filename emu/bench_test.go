package emu

import (
	"flag"
	"io"
	"os"
	"testing"
	"time"
)

var romPath = flag.String("rom", "", "ROM file to load for BenchmarkStepFrame")

func benchConsole(b *testing.B) *Console {
	b.ReportAllocs()

	rom := buildROM(0, 0, assemble(b, `
	LDA #$1E
	STA $2001
	INX
	STX $00
	JMP $8005
`))
	if *romPath != "" {
		var err error
		rom, err = os.ReadFile(*romPath)
		tcheck(b, err)
	}
	return newTestConsoleWith(b, DefaultConfig(), rom)
}

func BenchmarkStepFrame(b *testing.B) {
	c := benchConsole(b)

	const nframes = 60

	nloops := 0
	start := time.Now()
	for b.Loop() {
		for range nframes {
			tcheck(b, c.StepFrame())
			c.AudioBuffer()
			c.Samples()
		}
		nloops++
	}
	fps := float64(nframes*nloops) / time.Since(start).Seconds()
	b.ReportMetric(fps, "frames/s")
}

func BenchmarkSaveState(b *testing.B) {
	c := benchConsole(b)
	tcheck(b, c.StepFrame())

	for b.Loop() {
		tcheck(b, c.SaveState(io.Discard))
	}
}
