package main

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"

	"nescore/emu/log"
)

type mode byte

const (
	runMode      mode = iota // Run a ROM headless
	romInfosMode             // Show ROM infos
	disasmMode               // Disassemble PRG ROM
	versionMode              // Show version
)

type (
	CLI struct {
		Run      Run      `cmd:"" help:"Run ROM in emulator."`
		RomInfos RomInfos `cmd:"" help:"Show ROM infos." name:"rom-infos"`
		Disasm   Disasm   `cmd:"" help:"Disassemble ROM code."`
		Version  Version  `cmd:"" help:"Show version."`

		Log    logFlag `help:"${log_help}" placeholder:"mod0,mod1,..."`
		Config string  `help:"${config_help}" type:"path" placeholder:"FILE"`

		mode mode
	}

	Run struct {
		RomPath string `arg:"" name:"/path/to/rom" help:"ROM to run." required:"true" type:"existingfile"`

		Frames     int        `name:"frames" help:"Number of frames to run." default:"600"`
		Trace      *outFlag   `name:"trace" help:"Write CPU trace log." placeholder:"FILE|stdout|stderr"`
		Screenshot string     `name:"screenshot" help:"Save the last frame as PNG." type:"path" placeholder:"FILE"`
		Scale      int        `name:"scale" help:"Screenshot scale factor." default:"2"`
		WAV        string     `name:"wav" help:"Record audio to a WAV file." type:"path" placeholder:"FILE"`
		Save       string     `name:"save" help:"${save_help}" type:"path" placeholder:"FILE"`
		LoadState  string     `name:"load-state" help:"Restore a save state before running." type:"existingfile" placeholder:"FILE"`
		SaveState  string     `name:"save-state" help:"Write a save state after running." type:"path" placeholder:"FILE"`
		Break      []hexAddr  `name:"break" help:"Report execution reaching these addresses." placeholder:"ADDR"`
		CPUProfile string     `name:"cpuprofile" help:"Write CPU profile to file." type:"path"`
	}

	RomInfos struct {
		RomPath string `arg:"" name:"/path/to/rom" type:"existingfile"`
	}

	Disasm struct {
		RomPath string   `arg:"" name:"/path/to/rom" type:"existingfile"`
		Addr    *hexAddr `name:"addr" help:"Start address (default: reset vector)." placeholder:"ADDR"`
		Count   int      `name:"count" help:"Number of instructions." default:"32"`
	}

	Version struct{}
)

var vars = kong.Vars{
	"log_help":    "Enable logging for specified modules.",
	"config_help": "Configuration file (default: nescore.toml in the user config directory).",
	"save_help":   "Battery save file (default: next to the ROM, or in the configured save directory).",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("nescore"),
		kong.Description("Cycle-accurate headless NES emulator."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	cfg.Log.apply()

	switch ctx.Command() {
	case "rom-infos </path/to/rom>":
		cfg.mode = romInfosMode
	case "disasm </path/to/rom>":
		cfg.mode = disasmMode
	case "version":
		cfg.mode = versionMode
	default:
		cfg.mode = runMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	if ctx.Selected() == nil {
		return nil
	}
	fmt.Fprintf(ctx.Stdout, "\nLog modules (--log): %s.\n", strings.Join(log.ModuleNames(), ", "))
	fmt.Fprintf(ctx.Stdout, "Use --log=all to enable all modules, --log=no to silence the emulator.\n")
	return nil
}
