package ines

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"nescore/tests"
)

func mkrom(flags6, flags7 byte, prg, chr int, trainer bool) []byte {
	buf := []byte{'N', 'E', 'S', 0x1a, byte(prg), byte(chr), flags6, flags7, 0, 0, 0, 0, 0, 0, 0, 0}
	if trainer {
		buf = append(buf, bytes.Repeat([]byte{0x77}, 512)...)
	}
	buf = append(buf, bytes.Repeat([]byte{0xAA}, prg*16384)...)
	buf = append(buf, bytes.Repeat([]byte{0xBB}, chr*8192)...)
	return buf
}

func TestDecode(t *testing.T) {
	rom, err := Decode(mkrom(0x13, 0x00, 2, 1, false))
	if err != nil {
		t.Fatal(err)
	}

	if rom.Mapper() != 1 {
		t.Errorf("Mapper() = %d, want 1", rom.Mapper())
	}
	if !rom.VerticalMirroring() {
		t.Errorf("VerticalMirroring() = false, want true")
	}
	if !rom.HasPersistent() {
		t.Errorf("HasPersistent() = false, want true")
	}
	if rom.HasTrainer() || rom.FourScreen() {
		t.Errorf("unexpected trainer/four-screen flags")
	}
	if len(rom.PRG) != 32768 || len(rom.CHR) != 8192 {
		t.Errorf("got PRG=%d CHR=%d bytes", len(rom.PRG), len(rom.CHR))
	}
	if rom.PRG[0] != 0xAA || rom.CHR[0] != 0xBB {
		t.Errorf("PRG/CHR data misplaced")
	}
}

func TestDecodeTrainerAndMapperHigh(t *testing.T) {
	rom, err := Decode(mkrom(0x34, 0x40, 1, 0, true))
	if err != nil {
		t.Fatal(err)
	}
	if rom.Mapper() != 0x43 {
		t.Errorf("Mapper() = %d, want %d", rom.Mapper(), 0x43)
	}
	if len(rom.Trainer) != 512 || rom.Trainer[0] != 0x77 {
		t.Errorf("bad trainer section")
	}
	if rom.PRG[0] != 0xAA {
		t.Errorf("PRG must follow the trainer")
	}
	if rom.CHRSize() != 0 || len(rom.CHR) != 0 {
		t.Errorf("expected CHR RAM cartridge")
	}
}

func TestDecodeDiskDude(t *testing.T) {
	buf := mkrom(0x10, 0x44, 1, 1, false)
	copy(buf[7:16], "DiskDude!")
	rom, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if rom.Mapper() != 1 {
		t.Errorf("Mapper() = %d, want 1", rom.Mapper())
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want error
	}{
		{"short", []byte("NES"), ErrFileFormat},
		{"magic", append([]byte("NEZ\x1a"), make([]byte, 12)...), ErrFileFormat},
		{"truncated", mkrom(0, 0, 2, 1, false)[:20000], ErrFileFormat},
		{"no-prg", mkrom(0, 0, 0, 1, false), ErrFileFormat},
		{"nes2.0", mkrom(0, 0x08, 1, 1, false), ErrNotImplemented},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.buf)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBitReader(t *testing.T) {
	r := bitReader{buf: []byte{0b1011_0110, 0xFF}}

	v, err := r.bits(3)
	if err != nil || v != 0b110 {
		t.Fatalf("bits(3) = %03b, %v", v, err)
	}
	if _, err := r.byte(); !errors.Is(err, ErrDataOutOfAlignment) {
		t.Fatalf("unaligned byte() error = %v", err)
	}
	if _, err := r.bits(6); !errors.Is(err, ErrDataOutOfAlignment) {
		t.Fatalf("bits(6) crossing byte error = %v", err)
	}
	if v, _ := r.bits(5); v != 0b10110 {
		t.Fatalf("bits(5) = %05b", v)
	}
	if v, _ := r.byte(); v != 0xFF {
		t.Fatalf("byte() = %02x", v)
	}
	if _, err := r.flag(); !errors.Is(err, ErrIndexOutOfBounds) {
		t.Fatalf("flag() past end error = %v", err)
	}
}

func TestRomOpen(t *testing.T) {
	dir := filepath.Join(tests.RomsPath(t), "instr_test-v5", "rom_singles")
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	for _, e := range entries {
		t.Run(e.Name(), func(t *testing.T) {
			rom, err := Open(filepath.Join(dir, e.Name()))
			if err != nil {
				t.Fatal(err)
			}
			if len(rom.PRG) == 0 {
				t.Errorf("empty PRG")
			}
		})
	}
}
