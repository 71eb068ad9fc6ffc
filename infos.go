package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"nescore/emu"
	"nescore/hw"
	"nescore/hw/mappers"
	"nescore/ines"
)

func romInfosMain(w io.Writer, args RomInfos) error {
	rom, err := ines.Open(args.RomPath)
	if err != nil {
		return err
	}

	board := "unsupported"
	if m, err := mappers.New(rom); err == nil {
		board = m.Kind.String()
	} else if !errors.Is(err, ines.ErrNotImplemented) {
		return err
	}

	mirroring := "horizontal"
	switch {
	case rom.FourScreen():
		mirroring = "four-screen"
	case rom.VerticalMirroring():
		mirroring = "vertical"
	}

	fmt.Fprintf(w, "%-12s %d (%s)\n", "mapper:", rom.Mapper(), board)
	fmt.Fprintf(w, "%-12s %dK\n", "PRG ROM:", len(rom.PRG)/1024)
	if len(rom.CHR) == 0 {
		fmt.Fprintf(w, "%-12s 8K RAM\n", "CHR:")
	} else {
		fmt.Fprintf(w, "%-12s %dK ROM\n", "CHR:", len(rom.CHR)/1024)
	}
	fmt.Fprintf(w, "%-12s %s\n", "mirroring:", mirroring)
	fmt.Fprintf(w, "%-12s %t\n", "battery:", rom.HasPersistent())
	fmt.Fprintf(w, "%-12s %t\n", "trainer:", rom.HasTrainer())
	fmt.Fprintf(w, "%-12s %s\n", "console:", rom.ConsoleType())
	return nil
}

func disasmMain(w io.Writer, args Disasm) error {
	rom, err := os.ReadFile(args.RomPath)
	if err != nil {
		return err
	}
	c, err := emu.NewConsole(emu.DefaultConfig())
	if err != nil {
		return err
	}
	if err := c.Load(rom, nil); err != nil {
		return err
	}
	defer c.Close()

	var addr uint16
	if args.Addr != nil {
		addr = uint16(*args.Addr)
	} else {
		vec := c.Memory(hw.ResetVector, hw.ResetVector+1)
		addr = uint16(vec[0]) | uint16(vec[1])<<8
	}

	for _, ins := range c.Disassemble(addr, args.Count) {
		var bytes strings.Builder
		for _, b := range ins.Bytes {
			fmt.Fprintf(&bytes, "%02X ", b)
		}
		fmt.Fprintf(w, "$%04X  %-9s %-4s %s\n", ins.Address, bytes.String(), ins.Mnemonic, ins.Operand)
	}
	return nil
}
