// package ines implements a Reader for roms in the iNES file format, used for
// the distribution of NES binary programs.
package ines

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

type Rom struct {
	header
	Trainer []byte // Trainer, 512 bytes if present, or empty.
	PRG     []byte // PRG is PRG ROM data (length is multiples of 16k)
	CHR     []byte // CHR is CHR ROM data (length is multiples of 8k, empty for CHR RAM)
}

// Open loads a rom from file.
func Open(path string) (*Rom, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rom := new(Rom)
	if _, err := rom.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rom, nil
}

// Decode decodes an iNES image held in memory.
func Decode(buf []byte) (*Rom, error) {
	rom := new(Rom)
	if _, err := rom.ReadFrom(bytes.NewReader(buf)); err != nil {
		return nil, err
	}
	return rom, nil
}

// ReadFrom implements io.ReaderFrom interface
func (rom *Rom) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	if err := rom.decode(buf); err != nil {
		return 0, fmt.Errorf("failed to decode header: %w", err)
	}
	off := 16

	section := func(name string, size int) ([]byte, error) {
		if len(buf) < off+size {
			return nil, fmt.Errorf("%w: incomplete %s section", ErrFileFormat, name)
		}
		s := buf[off : off+size : off+size]
		off += size
		return s, nil
	}

	rom.Trainer = nil
	if rom.HasTrainer() {
		if rom.Trainer, err = section("TRAINER", 512); err != nil {
			return 0, err
		}
	}
	if rom.PRG, err = section("PRG", rom.prgsz); err != nil {
		return 0, err
	}
	if rom.CHR, err = section("CHR", rom.chrsz); err != nil {
		return 0, err
	}

	return int64(len(buf)), nil
}

const Magic = "NES\x1a"

type ConsoleType uint8

const (
	NES ConsoleType = iota
	VsSystem
	Playchoice10
	Extended
)

func (ct ConsoleType) String() string {
	switch ct {
	case NES:
		return "NES/Famicom"
	case VsSystem:
		return "Vs. System"
	case Playchoice10:
		return "PlayChoice-10"
	}
	return "extended"
}

type header struct {
	raw   [16]byte
	prgsz int
	chrsz int

	vertical   bool
	battery    bool
	trainer    bool
	fourscreen bool
	console    ConsoleType
	mapper     uint16
}

func (hdr *header) decode(p []byte) error {
	if len(p) < 16 {
		return fmt.Errorf("%w: file too small, needs 16 bytes", ErrFileFormat)
	}
	if string(p[:4]) != Magic {
		return fmt.Errorf("%w: invalid magic number", ErrFileFormat)
	}
	copy(hdr.raw[:], p[:16])

	r := bitReader{buf: hdr.raw[:]}
	r.skip(4 * 8)

	prg, err := r.byte()
	if err != nil {
		return err
	}
	chr, err := r.byte()
	if err != nil {
		return err
	}
	hdr.prgsz = int(prg) * 16384
	hdr.chrsz = int(chr) * 8192
	if hdr.prgsz == 0 {
		return fmt.Errorf("%w: no PRG ROM", ErrFileFormat)
	}

	// Flags 6.
	if hdr.vertical, err = r.flag(); err != nil {
		return err
	}
	if hdr.battery, err = r.flag(); err != nil {
		return err
	}
	if hdr.trainer, err = r.flag(); err != nil {
		return err
	}
	if hdr.fourscreen, err = r.flag(); err != nil {
		return err
	}
	lo, err := r.bits(4)
	if err != nil {
		return err
	}

	// Flags 7.
	ct, err := r.bits(2)
	if err != nil {
		return err
	}
	format, err := r.bits(2)
	if err != nil {
		return err
	}
	if format == 2 {
		return fmt.Errorf("NES 2.0 format: %w", ErrNotImplemented)
	}
	hi, err := r.bits(4)
	if err != nil {
		return err
	}

	// Old dumps sometimes have garbage (e.g. "DiskDude!") in bytes 7-15,
	// making byte 7 meaningless.
	if !bytes.Equal(hdr.raw[12:16], []byte{0, 0, 0, 0}) {
		ct, hi = 0, 0
	}
	hdr.console = ConsoleType(ct)
	hdr.mapper = uint16(hi)<<4 | uint16(lo)
	return nil
}

// HasTrainer indicates the presence of a trainer section in the rom.
func (hdr *header) HasTrainer() bool { return hdr.trainer }

// HasPersistent indicates the presence of persistent (battery-backed) memory
// in the rom.
func (hdr *header) HasPersistent() bool { return hdr.battery }

// Mapper returns the iNES mapper number.
func (hdr *header) Mapper() uint16 { return hdr.mapper }

// VerticalMirroring reports the nametable layout hardwired on the cartridge,
// horizontal mirroring if false.
func (hdr *header) VerticalMirroring() bool { return hdr.vertical }

// FourScreen indicates the cartridge provides its own 2K of nametable VRAM.
func (hdr *header) FourScreen() bool { return hdr.fourscreen }

func (hdr *header) ConsoleType() ConsoleType { return hdr.console }

// PRGSize returns the size in bytes of PRG ROM.
func (hdr *header) PRGSize() int { return hdr.prgsz }

// CHRSize returns the size in bytes of CHR ROM, 0 meaning the cartridge uses
// CHR RAM.
func (hdr *header) CHRSize() int { return hdr.chrsz }

// Header returns the raw 16-byte header.
func (hdr *header) Header() [16]byte { return hdr.raw }
