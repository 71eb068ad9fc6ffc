package emu

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	tcheck(t, os.WriteFile(path, []byte(`
[audio]
sample_rate = 48000

[emulation]
warmup = false

[general]
save_dir = "/tmp/saves"
`), 0644))

	cfg, err := LoadConfig(path)
	tcheck(t, err)

	want := Config{
		Audio:     AudioConfig{SampleRate: 48000},
		Emulation: EmulationConfig{Warmup: false, Region: "ntsc"},
		General:   GeneralConfig{SaveDir: "/tmp/saves"},
	}
	if diff := cmp.Diff(want, cfg, cmpopts.IgnoreFields(Config{}, "TraceOut")); diff != "" {
		t.Errorf("config differs (-want +got):\n%s", diff)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadConfig(filepath.Join(dir, "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v, want %v", err, os.ErrNotExist)
	}

	path := filepath.Join(dir, "pal.toml")
	tcheck(t, os.WriteFile(path, []byte("[emulation]\nregion = \"pal\"\n"), 0644))
	if _, err := LoadConfig(path); !errors.Is(err, ErrUnsupportedRegion) {
		t.Errorf("got %v, want %v", err, ErrUnsupportedRegion)
	}

	path = filepath.Join(dir, "rate.toml")
	tcheck(t, os.WriteFile(path, []byte("[audio]\nsample_rate = 1000000\n"), 0644))
	cfg, err := LoadConfig(path)
	tcheck(t, err)
	if cfg.Audio.SampleRate != DefaultConfig().Audio.SampleRate {
		t.Errorf("invalid sample rate should fall back to default, got %d", cfg.Audio.SampleRate)
	}
}

func TestWriteConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.Audio.Disabled = true
	cfg.General.SaveDir = "saves"
	tcheck(t, WriteConfig(path, cfg))

	got, err := LoadConfig(path)
	tcheck(t, err)
	if diff := cmp.Diff(cfg, got, cmpopts.IgnoreFields(Config{}, "TraceOut")); diff != "" {
		t.Errorf("config differs (-want +got):\n%s", diff)
	}
}

func TestDefaultConfigWarmup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	tcheck(t, os.WriteFile(path, []byte("[audio]\nsample_rate = 48000\n"), 0644))

	cfg, err := LoadConfig(path)
	tcheck(t, err)
	if !cfg.Emulation.Warmup {
		t.Errorf("warm-up should be enabled when not configured")
	}
}
