package emu

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

func TestWAVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	tcheck(t, err)

	ww := NewWAVWriter(f, 44100)
	tcheck(t, ww.Write([]int16{0, 100, -100, 32767}))
	tcheck(t, ww.Write(nil))
	tcheck(t, ww.Write([]int16{-32768, 1}))
	tcheck(t, ww.Close())
	tcheck(t, f.Close())

	f, err = os.Open(path)
	tcheck(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatalf("invalid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	tcheck(t, err)

	if buf.Format.SampleRate != 44100 || buf.Format.NumChannels != 1 {
		t.Errorf("format = %+v, want 44100Hz mono", *buf.Format)
	}
	want := []int{0, 100, -100, 32767, -32768, 1}
	if len(buf.Data) != len(want) {
		t.Fatalf("got %d samples, want %d", len(buf.Data), len(want))
	}
	for i := range want {
		if buf.Data[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, buf.Data[i], want[i])
		}
	}
}

func TestRecordConsoleAudio(t *testing.T) {
	// Square 1 at constant volume.
	c := newTestConsole(t, assemble(t, `
	LDA #$01
	STA $4015
	LDA #$BF
	STA $4000
	LDA #$FD
	STA $4002
	LDA #$00
	STA $4003
	JMP $8014
`))

	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	tcheck(t, err)
	defer f.Close()

	ww := NewWAVWriter(f, c.SampleRate())
	var nsamples int
	for range 10 {
		tcheck(t, c.StepFrame())
		samples := c.Samples()
		nsamples += len(samples)
		tcheck(t, ww.Write(samples))
	}
	tcheck(t, ww.Close())

	// About 735 samples per frame at 44.1kHz.
	if nsamples < 7000 || nsamples > 7700 {
		t.Errorf("recorded %d samples for 10 frames", nsamples)
	}
	fi, err := f.Stat()
	tcheck(t, err)
	if fi.Size() < int64(2*nsamples) {
		t.Errorf("WAV file is %d bytes, want at least %d", fi.Size(), 2*nsamples)
	}
}
