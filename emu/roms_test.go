package emu

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"

	"nescore/hw"
	"nescore/tests"
)

func loadTestRom(t *testing.T, path string) *Console {
	t.Helper()

	rom, err := os.ReadFile(path)
	tcheck(t, err)
	return newTestConsoleWith(t, DefaultConfig(), rom)
}

var (
	nestestRegs = regexp.MustCompile(`A:([0-9A-F]{2}) X:([0-9A-F]{2}) Y:([0-9A-F]{2}) P:([0-9A-F]{2}) SP?:([0-9A-F]{2})`)
	nestestCyc  = regexp.MustCompile(`(?:CYC:|\s)(\d+)\s*$`)
)

// normalizeTrace keeps, for each instruction of a trace, the address, the
// registers and the cycle counter, so that traces in the nestest.log format
// and in ours can be compared.
func normalizeTrace(t *testing.T, buf []byte, maxLines int) string {
	t.Helper()

	var sb strings.Builder
	sc := bufio.NewScanner(bytes.NewReader(buf))
	for n := 0; sc.Scan() && n < maxLines; n++ {
		line := sc.Text()
		regs := nestestRegs.FindStringSubmatch(line)
		cyc := nestestCyc.FindStringSubmatch(line)
		if len(line) < 4 || regs == nil || cyc == nil {
			t.Fatalf("unexpected trace line %d: %q", n+1, line)
		}
		fmt.Fprintf(&sb, "%s A:%s X:%s Y:%s P:%s SP:%s CYC:%s\n",
			line[:4], regs[1], regs[2], regs[3], regs[4], regs[5], cyc[1])
	}
	return sb.String()
}

func TestNestest(t *testing.T) {
	dir := filepath.Join(tests.RomsPath(t), "other")
	c := loadTestRom(t, filepath.Join(dir, "nestest.nes"))

	var trace bytes.Buffer
	c.SetTraceOutput(&trace)

	// nestest.nes has an 'automation' mode, enabled with PC set to $C000,
	// instead of $C004 for the graphic mode.
	tcheck(t, c.SetRegister("PC", 0xC000))
	for c.Cycles() < 26560 {
		tcheck(t, c.StepInstruction())
	}

	if res := c.Memory(0x02, 0x03); res[0] != 0 || res[1] != 0 {
		t.Errorf("nestest failed with result $%02X%02X (check nestest.txt)", res[0], res[1])
	}

	want, err := os.ReadFile(filepath.Join(dir, "nestest.log"))
	tcheck(t, err)
	nlines := bytes.Count(want, []byte("\n"))

	wantTrace := normalizeTrace(t, want, nlines)
	gotTrace := normalizeTrace(t, trace.Bytes(), nlines)
	if wantTrace == gotTrace {
		return
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(wantTrace, gotTrace)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	out := filepath.Join(t.TempDir(), "nestest.log")
	tcheck(t, os.WriteFile(out, trace.Bytes(), 0644))
	t.Fatalf("trace differs from nestest.log (%d lines differ, full trace in %s):\n%s",
		dmp.DiffLevenshtein(diffs), out, dmp.DiffPrettyText(diffs))
}

// runBlarggRom runs a test rom following blargg's conventions.
//
// The test status is written to $6000. $80 means the test is running, $81
// means the test needs the reset button pressed, but delayed by at least 100
// msec from now. $00-$7F means the test has completed and given that result
// code. $DE $B0 $61 is written to $6001-$6003 to signal the data at $6000+ is
// valid. Text output is written at $6004, zero-terminated.
func runBlarggRom(path string) func(t *testing.T) {
	return func(t *testing.T) {
		t.Parallel()

		c := loadTestRom(t, path)
		magic := []byte{0xde, 0xb0, 0x61}

		const maxFrames = 60 * 60
		var (
			started    bool
			resetDelay = -1
			result     uint8
		)
		for frame := 0; ; frame++ {
			if frame == maxFrames {
				t.Fatalf("test still running after %d frames: %s", maxFrames, romText(c))
			}
			tcheck(t, c.StepFrame())

			if resetDelay > 0 {
				resetDelay--
				if resetDelay == 0 {
					tcheck(t, c.Reset(hw.SoftReset))
					resetDelay = -1
				}
				continue
			}

			hasMagic := bytes.Equal(c.Memory(0x6001, 0x6003), magic)
			if !started {
				started = hasMagic
				continue
			}
			if !hasMagic {
				t.Fatalf("corrupted status memory")
			}

			result = c.Memory(0x6000, 0x6000)[0]
			if result <= 0x7F {
				break
			}
			if result == 0x81 && resetDelay == -1 {
				// 100ms.
				resetDelay = 6
			}
		}
		if result != 0x00 {
			t.Fatalf("test failed with code $%02X:\n%s", result, romText(c))
		}
	}
}

func romText(c *Console) string {
	buf := c.Memory(0x6004, 0x7FFF)
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf)
}

func runBlarggRoms(t *testing.T, dir string, roms []string) {
	if testing.Short() {
		t.Skip("skipping test roms in short mode")
	}
	dir = filepath.Join(tests.RomsPath(t), dir)
	for _, rom := range roms {
		t.Run(rom, runBlarggRom(filepath.Join(dir, rom)))
	}
}

func TestInstructionsV5(t *testing.T) {
	runBlarggRoms(t, filepath.Join("instr_test-v5", "rom_singles"), []string{
		"01-basics.nes",
		"02-implied.nes",
		// "03-immediate.nes", uses unofficial 0xAB (LXA)
		"04-zero_page.nes",
		"05-zp_xy.nes",
		"06-absolute.nes",
		// "07-abs_xy.nes", uses unofficial 0x9C (SHY)
		"08-ind_x.nes",
		"09-ind_y.nes",
		"10-branches.nes",
		"11-stack.nes",
		"12-jmp_jsr.nes",
		"13-rts.nes",
		"14-rti.nes",
		"15-brk.nes",
		"16-special.nes",
	})
}

func TestCPUDummyWrites(t *testing.T) {
	runBlarggRoms(t, "cpu_dummy_writes", []string{
		"cpu_dummy_writes_oam.nes",
	})
}

func TestOAMRead(t *testing.T) {
	runBlarggRoms(t, "oam_read", []string{
		"oam_read.nes",
	})
}

func TestAPULengthCounter(t *testing.T) {
	runBlarggRoms(t, filepath.Join("apu_test", "rom_singles"), []string{
		"1-len_ctr.nes",
		"2-len_table.nes",
		"3-irq_flag.nes",
	})
}

func TestVBlankBasics(t *testing.T) {
	runBlarggRoms(t, filepath.Join("ppu_vbl_nmi", "rom_singles"), []string{
		"01-vbl_basics.nes",
	})
}
