package emu

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestBatteryPath(t *testing.T) {
	tests := []struct {
		rom, dir, want string
	}{
		{"/roms/zelda.nes", "", "/roms/zelda.sav"},
		{"/roms/zelda.nes", "/saves", "/saves/zelda.sav"},
		{"metroid", "", "metroid.sav"},
	}
	for _, tt := range tests {
		if got := BatteryPath(tt.rom, tt.dir); got != filepath.FromSlash(tt.want) {
			t.Errorf("BatteryPath(%q, %q) = %q, want %q", tt.rom, tt.dir, got, tt.want)
		}
	}
}

func TestUseBattery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.sav")
	prg := assemble(t, `
	LDA #$5A
	STA $6000
	STA $7FFF
	JMP $8008
`)
	rom := buildROM(0, flag6Battery, prg)

	c := newTestConsoleWith(t, DefaultConfig(), rom)
	tcheck(t, c.UseBattery(path))
	for range 4 {
		tcheck(t, c.StepInstruction())
	}
	tcheck(t, c.Close())

	// PRG RAM is still usable after the save file has been released.
	if got := c.Memory(0x6000, 0x6000); got[0] != 0x5A {
		t.Errorf("PRG RAM[0] = %02X after Close, want 5A", got[0])
	}

	buf, err := os.ReadFile(path)
	tcheck(t, err)
	if len(buf) != 0x2000 {
		t.Fatalf("save file is %d bytes, want 8192", len(buf))
	}
	if buf[0] != 0x5A || buf[0x1FFF] != 0x5A {
		t.Errorf("save file content = %02X..%02X, want 5A..5A", buf[0], buf[0x1FFF])
	}

	// Reload the save in a new console.
	c2 := newTestConsoleWith(t, DefaultConfig(), buildROM(0, flag6Battery, nil))
	tcheck(t, c2.UseBattery(path))
	if got := c2.Memory(0x6000, 0x6000); got[0] != 0x5A {
		t.Errorf("PRG RAM[0] = %02X after reload, want 5A", got[0])
	}
}

func TestUseBatteryWithoutBattery(t *testing.T) {
	c := newTestConsole(t, nil)
	path := filepath.Join(t.TempDir(), "game.sav")
	if err := c.UseBattery(path); !errors.Is(err, ErrNoBattery) {
		t.Errorf("got %v, want %v", err, ErrNoBattery)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("no save file should be created")
	}
}

func TestOpenBatteryResizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.sav")
	tcheck(t, os.WriteFile(path, []byte{1, 2, 3}, 0644))

	bat, err := OpenBattery(path, 16)
	tcheck(t, err)
	if len(bat.Bytes()) != 16 {
		t.Errorf("mapped %d bytes, want 16", len(bat.Bytes()))
	}
	if bat.Bytes()[2] != 3 {
		t.Errorf("existing content should be kept")
	}
	bat.Bytes()[15] = 0xFF
	tcheck(t, bat.Close())

	buf, err := os.ReadFile(path)
	tcheck(t, err)
	if len(buf) != 16 || buf[15] != 0xFF {
		t.Errorf("save file = % X", buf)
	}
}
