package emu

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/kirsle/configdir"

	"nescore/emu/log"
	"nescore/hw/apu"
)

type Config struct {
	Audio     AudioConfig     `toml:"audio"`
	Emulation EmulationConfig `toml:"emulation"`
	General   GeneralConfig   `toml:"general"`

	TraceOut io.Writer `toml:"-"`
}

type AudioConfig struct {
	SampleRate int  `toml:"sample_rate"`
	Disabled   bool `toml:"disabled"`
}

type EmulationConfig struct {
	// Warmup enables the PPU warm-up period: register writes are ignored
	// during the first ~29658 CPU cycles after power-up.
	Warmup bool   `toml:"warmup"`
	Region string `toml:"region"`
}

type GeneralConfig struct {
	// SaveDir is where battery-backed saves are stored. Empty means next to
	// the ROM file.
	SaveDir string `toml:"save_dir"`
}

var ErrUnsupportedRegion = errors.New("unsupported region")

// DefaultConfig returns the configuration used when none has been saved.
func DefaultConfig() Config {
	return Config{
		Audio:     AudioConfig{SampleRate: apu.DefaultSampleRate},
		Emulation: EmulationConfig{Warmup: true, Region: "ntsc"},
	}
}

// Check validates cfg, fixing the values that can be.
func (cfg *Config) Check() error {
	if cfg.Audio.SampleRate <= 0 || cfg.Audio.SampleRate > apu.MaxSampleRate {
		log.ModEmu.WarnZ("invalid sample rate, using default").
			Int("rate", cfg.Audio.SampleRate).
			End()
		cfg.Audio.SampleRate = apu.DefaultSampleRate
	}
	switch cfg.Emulation.Region {
	case "":
		cfg.Emulation.Region = "ntsc"
	case "ntsc":
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedRegion, cfg.Emulation.Region)
	}
	return nil
}

// ConfigDir returns the nescore configuration directory, creating it if
// needed.
var ConfigDir = sync.OnceValue(func() string {
	dir := configdir.LocalConfig("nescore")
	if err := configdir.MakePath(dir); err != nil {
		log.ModEmu.WarnZ("failed to create config directory").
			String("dir", dir).
			Error("err", err).
			End()
	}
	return dir
})

const cfgFilename = "config.toml"

// LoadConfig reads the configuration at path. Missing keys keep their
// default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Check(); err != nil {
		return DefaultConfig(), fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadConfigOrDefault loads the configuration from the nescore config
// directory, or provides a default one.
func LoadConfigOrDefault() Config {
	path := filepath.Join(ConfigDir(), cfgFilename)
	cfg, err := LoadConfig(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.ModEmu.WarnZ("using default config").Error("err", err).End()
		}
		return DefaultConfig()
	}
	return cfg
}

// SaveConfig into nescore config directory.
func SaveConfig(cfg Config) error {
	return WriteConfig(filepath.Join(ConfigDir(), cfgFilename), cfg)
}

// WriteConfig writes cfg as TOML at path.
func WriteConfig(path string, cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}
