package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"nescore/emu"
)

func main() {
	args := parseArgs(os.Args[1:])

	switch args.mode {
	case versionMode:
		fmt.Println("nescore", version())
	case romInfosMode:
		check(romInfosMain(os.Stdout, args.RomInfos))
	case disasmMode:
		check(disasmMain(os.Stdout, args.Disasm))
	case runMode:
		check(runMain(args.Run, loadConfig(args.Config)))
	}
}

func loadConfig(path string) emu.Config {
	if path == "" {
		return emu.LoadConfigOrDefault()
	}
	cfg, err := emu.LoadConfig(path)
	checkf(err, "failed to load configuration")
	return cfg
}

func version() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi.Main.Version == "" {
		return "(devel)"
	}
	return bi.Main.Version
}

// check, checkf and fatalf report a fatal error and exit with status 1.

func check(err error) {
	if err != nil {
		exitf("%s", err)
	}
}

func checkf(err error, format string, args ...any) {
	if err != nil {
		exitf("%s: %s", fmt.Sprintf(format, args...), err)
	}
}

func fatalf(format string, args ...any) {
	exitf(format, args...)
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
