package emu

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/edsrzf/mmap-go"

	"nescore/emu/log"
)

var ErrNoBattery = errors.New("cartridge has no battery")

// Battery is a save file mapped in memory, backing the PRG RAM of a
// cartridge: writes from the game land directly in the file.
type Battery struct {
	path string
	file *os.File
	mmap mmap.MMap
}

// OpenBattery maps the save file at path, creating it if needed. The file is
// resized to size bytes.
func OpenBattery(path string, size int) (*Battery, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.Size() != int64(size) {
		if fi.Size() != 0 {
			log.ModEmu.WarnZ("resizing save file").
				String("path", path).
				Int64("size", fi.Size()).
				Int("want", size).
				End()
		}
		if err := f.Truncate(int64(size)); err != nil {
			f.Close()
			return nil, err
		}
	}

	m, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}

	log.ModEmu.InfoZ("save file mapped").String("path", path).Int("size", size).End()
	return &Battery{path: path, file: f, mmap: m}, nil
}

// Bytes returns the mapped file content. It must not be used after Close.
func (b *Battery) Bytes() []byte { return b.mmap }

func (b *Battery) Path() string { return b.path }

// Flush writes the pending changes to disk.
func (b *Battery) Flush() error { return b.mmap.Flush() }

// Close flushes, unmaps and closes the save file.
func (b *Battery) Close() error {
	return errors.Join(
		b.mmap.Flush(),
		b.mmap.Unmap(),
		b.file.Close(),
	)
}

// BatteryPath returns the save file path for the ROM at romPath: the ROM
// name with a .sav extension, in dir or next to the ROM if dir is empty.
func BatteryPath(romPath, dir string) string {
	name := filepath.Base(romPath)
	name = strings.TrimSuffix(name, filepath.Ext(name)) + ".sav"
	if dir == "" {
		dir = filepath.Dir(filepath.Clean(romPath))
	}
	return filepath.Join(dir, name)
}

// UseBattery backs the cartridge PRG RAM with the save file at path. The
// file content replaces the current PRG RAM.
func (c *Console) UseBattery(path string) error {
	if err := c.loaded(); err != nil {
		return err
	}
	m := c.bus.Mapper
	if !m.HasBattery() {
		return ErrNoBattery
	}

	bat, err := OpenBattery(path, len(m.SRAM.Data))
	if err != nil {
		return err
	}
	if err := c.releaseBattery(); err != nil {
		log.ModEmu.WarnZ("failed to close save file").Error("err", err).End()
	}
	if err := m.UseSRAM(bat.Bytes()); err != nil {
		bat.Close()
		return err
	}
	c.battery = bat
	return nil
}

// releaseBattery moves the PRG RAM back to the heap and closes the save
// file.
func (c *Console) releaseBattery() error {
	if c.battery == nil {
		return nil
	}
	if c.bus != nil {
		buf := append([]byte(nil), c.bus.Mapper.SRAM.Data...)
		c.bus.Mapper.SRAM.Data = buf
	}
	err := c.battery.Close()
	c.battery = nil
	return err
}
