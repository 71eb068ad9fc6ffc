package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"nescore/emu/log"
)

// logFlag is a comma-separated list of log modules to enable at debug level,
// or one of 'all' and 'no'.
type logFlag struct {
	set  bool
	off  bool
	mask log.ModuleMask
}

// Implements kong.MapperValue interface.
func (lf *logFlag) Decode(ctx *kong.DecodeContext) error {
	var s string
	if err := ctx.Scan.PopValueInto("modules", &s); err != nil {
		return err
	}

	*lf = logFlag{set: true}
	names := strings.Split(s, ",")
	for _, name := range names {
		switch name = strings.TrimSpace(name); name {
		case "all":
			lf.mask = log.ModuleMaskAll
		case "no":
			lf.off = true
		default:
			mod, ok := log.ModuleByName(name)
			if !ok {
				return fmt.Errorf("unknown log module %q", name)
			}
			lf.mask |= mod.Mask()
		}
	}
	if lf.off && len(names) > 1 {
		return errors.New("'no' cannot be combined with other log modules")
	}
	return nil
}

func (lf logFlag) apply() {
	switch {
	case !lf.set:
	case lf.off:
		log.Disable()
	default:
		log.EnableDebugModules(lf.mask)
	}
}

// hexAddr is a CPU address written in hex, with an optional $ or 0x prefix.
type hexAddr uint16

// Implements kong.MapperValue interface.
func (a *hexAddr) Decode(ctx *kong.DecodeContext) error {
	var s string
	if err := ctx.Scan.PopValueInto("address", &s); err != nil {
		return err
	}
	v, err := parseAddr(s)
	if err != nil {
		return err
	}
	*a = hexAddr(v)
	return nil
}

func parseAddr(s string) (uint16, error) {
	hex := strings.ToLower(s)
	hex = strings.TrimPrefix(hex, "$")
	hex = strings.TrimPrefix(hex, "0x")
	v, err := strconv.ParseUint(hex, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return uint16(v), nil
}

// outFlag is an output file, '-' or 'stdout' for the standard output and
// 'stderr' for the standard error.
type outFlag struct {
	io.Writer
	file *os.File
}

// Implements kong.MapperValue interface.
func (of *outFlag) Decode(ctx *kong.DecodeContext) error {
	var name string
	if err := ctx.Scan.PopValueInto("file", &name); err != nil {
		return err
	}
	switch name {
	case "-", "stdout":
		of.Writer = os.Stdout
	case "stderr":
		of.Writer = os.Stderr
	default:
		f, err := os.Create(name)
		if err != nil {
			return err
		}
		of.Writer, of.file = f, f
	}
	return nil
}

// Close closes the file, the standard streams are left open.
func (of *outFlag) Close() error {
	if of.file == nil {
		return nil
	}
	return of.file.Close()
}
