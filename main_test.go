package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nescore/emu"
	"nescore/emu/log"
	"nescore/hw"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func tcheck(tb testing.TB, err error) {
	tb.Helper()
	if err != nil {
		tb.Fatalf("fatal error:\n\n%s\n", err)
	}
}

// writeROM writes an NROM image running src from $8000 and returns its path.
func writeROM(t *testing.T, flags6 byte, src string) string {
	t.Helper()

	prg, err := hw.Assemble(0x8000, src)
	tcheck(t, err)

	hdr := []byte{'N', 'E', 'S', 0x1a, 1, 1, flags6, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	prgrom := make([]byte, 0x4000)
	copy(prgrom, prg)
	for _, vec := range []uint16{hw.NMIVector, hw.ResetVector, hw.IRQVector} {
		off := int(vec) & 0x3FFF
		prgrom[off], prgrom[off+1] = 0x00, 0x80
	}
	rom := append(append(hdr, prgrom...), make([]byte, 0x2000)...)

	path := filepath.Join(t.TempDir(), "test.nes")
	tcheck(t, os.WriteFile(path, rom, 0644))
	return path
}

func TestRomInfos(t *testing.T) {
	path := writeROM(t, 0x03, `JMP $8000`)

	var buf bytes.Buffer
	tcheck(t, romInfosMain(&buf, RomInfos{RomPath: path}))

	want := []string{
		"mapper:      0 (NROM)",
		"PRG ROM:     16K",
		"CHR:         8K ROM",
		"mirroring:   vertical",
		"battery:     true",
		"trainer:     false",
	}
	for _, line := range want {
		if !strings.Contains(buf.String(), line) {
			t.Errorf("missing %q in:\n%s", line, buf.String())
		}
	}
}

func TestDisasm(t *testing.T) {
	path := writeROM(t, 0, `
	LDA #$01
	JMP $8000
`)

	var buf bytes.Buffer
	tcheck(t, disasmMain(&buf, Disasm{RomPath: path, Count: 2}))

	want := "" +
		"$8000  A9 01     LDA  #$01\n" +
		"$8002  4C 00 80  JMP  $8000\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}

	addr := hexAddr(0x8002)
	buf.Reset()
	tcheck(t, disasmMain(&buf, Disasm{RomPath: path, Addr: &addr, Count: 1}))
	if !strings.HasPrefix(buf.String(), "$8002") {
		t.Errorf("disassembly should start at $8002:\n%s", buf.String())
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	path := writeROM(t, 0x02, `
	LDA #$5A
	STA $6000
	JMP $8005
`)
	args := Run{
		RomPath:    path,
		Frames:     5,
		Scale:      1,
		Screenshot: filepath.Join(dir, "shot.png"),
		WAV:        filepath.Join(dir, "audio.wav"),
		Save:       filepath.Join(dir, "game.sav"),
		SaveState:  filepath.Join(dir, "state.json"),
	}
	tcheck(t, runMain(args, emu.DefaultConfig()))

	for _, name := range []string{"shot.png", "audio.wav", "state.json"} {
		fi, err := os.Stat(filepath.Join(dir, name))
		tcheck(t, err)
		if fi.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}

	sav, err := os.ReadFile(args.Save)
	tcheck(t, err)
	if len(sav) != 0x2000 || sav[0] != 0x5A {
		t.Errorf("unexpected save file content (%d bytes)", len(sav))
	}

	// Resume from the saved state.
	args = Run{
		RomPath:   path,
		Frames:    1,
		Scale:     1,
		Save:      args.Save,
		LoadState: args.SaveState,
	}
	tcheck(t, runMain(args, emu.DefaultConfig()))
}
