package emu

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nescore/hw"
	"nescore/hw/snapshot"
	"nescore/ines"
)

func TestConsoleNoCartridge(t *testing.T) {
	c, err := NewConsole(DefaultConfig())
	tcheck(t, err)

	if err := c.StepFrame(); !errors.Is(err, ErrNoCartridge) {
		t.Errorf("StepFrame: got %v, want %v", err, ErrNoCartridge)
	}
	if err := c.StepInstruction(); !errors.Is(err, ErrNoCartridge) {
		t.Errorf("StepInstruction: got %v, want %v", err, ErrNoCartridge)
	}
	if err := c.SaveState(new(bytes.Buffer)); !errors.Is(err, ErrNoCartridge) {
		t.Errorf("SaveState: got %v, want %v", err, ErrNoCartridge)
	}
	if c.Frame() != nil || c.AudioBuffer() != nil || c.Registers() != nil {
		t.Errorf("presentation APIs should return nil without cartridge")
	}
}

func TestNewConsoleBadRegion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Emulation.Region = "pal"
	if _, err := NewConsole(cfg); !errors.Is(err, ErrUnsupportedRegion) {
		t.Errorf("got %v, want %v", err, ErrUnsupportedRegion)
	}
}

func TestConsoleLoadErrors(t *testing.T) {
	c, err := NewConsole(DefaultConfig())
	tcheck(t, err)

	bad := buildROM(0, 0, nil)
	bad[0] = 'X'
	if err := c.Load(bad, nil); !errors.Is(err, ines.ErrFileFormat) {
		t.Errorf("bad magic: got %v, want %v", err, ines.ErrFileFormat)
	}

	if err := c.Load(buildROM(4, 0, nil), nil); !errors.Is(err, ines.ErrNotImplemented) {
		t.Errorf("MMC3: got %v, want %v", err, ines.ErrNotImplemented)
	}
	if c.Rom() != nil {
		t.Errorf("a failed load should not insert the cartridge")
	}

	tcheck(t, c.Load(buildROM(1, 0, nil), nil))
	tcheck(t, c.Load(buildROM(3, flag6Vertical, nil), nil))
}

func TestConsoleStepFrame(t *testing.T) {
	c := newTestConsole(t, assemble(t, `JMP $8000`))

	tcheck(t, c.StepFrame())
	c.AudioBuffer()

	start := c.Cycles()
	tcheck(t, c.StepFrame())

	// 262*341 dots / 3, rounded to a whole 3-cycle JMP.
	if n := c.Cycles() - start; n < 29775 || n > 29786 {
		t.Errorf("frame took %d CPU cycles, want about 29781", n)
	}
	if len(c.Frame()) != hw.ScreenWidth*hw.ScreenHeight {
		t.Errorf("frame has %d pixels", len(c.Frame()))
	}
	if len(c.AudioBuffer()) == 0 {
		t.Errorf("no audio produced")
	}
	if c.AudioBuffer() != nil {
		t.Errorf("audio buffer should be consumed")
	}
}

func TestConsoleAudioDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audio.Disabled = true
	c := newTestConsoleWith(t, cfg, buildROM(0, 0, assemble(t, `JMP $8000`)))

	tcheck(t, c.StepFrame())
	if c.AudioBuffer() != nil || c.Samples() != nil {
		t.Errorf("no audio should be produced when disabled")
	}
}

func TestConsoleHalt(t *testing.T) {
	c := newTestConsole(t, []byte{0xEA, 0x02})

	tcheck(t, c.StepInstruction())
	if err := c.StepInstruction(); !errors.Is(err, hw.ErrIllegalInstruction) {
		t.Fatalf("got %v, want %v", err, hw.ErrIllegalInstruction)
	}
	if !c.Halted() {
		t.Errorf("console should be halted")
	}
	if err := c.StepFrame(); !errors.Is(err, hw.ErrHalted) {
		t.Errorf("StepFrame: got %v, want %v", err, hw.ErrHalted)
	}

	tcheck(t, c.Reset(hw.SoftReset))
	if c.Halted() {
		t.Errorf("reset should resume the CPU")
	}
}

func TestConsoleRunMaster(t *testing.T) {
	c := newTestConsole(t, assemble(t, `JMP $8000`))

	start := c.Cycles()
	n, err := c.RunMaster(12 * 100)
	tcheck(t, err)
	if n != 100 || c.Cycles()-start != 100 {
		t.Errorf("ran %d cycles (counter +%d), want 100", n, c.Cycles()-start)
	}
}

func TestConsoleRegisters(t *testing.T) {
	c := newTestConsole(t, nil)

	tcheck(t, c.SetRegister("A", 0x42))
	tcheck(t, c.SetRegister("X", 0x01))
	tcheck(t, c.SetRegister("Y", 0x02))
	tcheck(t, c.SetRegister("SP", 0xF0))
	tcheck(t, c.SetRegister("PC", 0x8123))
	tcheck(t, c.SetRegister("P", 0xE5))

	want := []RegisterInfo{
		{RegRegular, "A", 1, 0x42},
		{RegRegular, "X", 1, 0x01},
		{RegRegular, "Y", 1, 0x02},
		{RegStack, "SP", 1, 0xF0},
		{RegPC, "PC", 2, 0x8123},
		{RegFlags, "P", 1, 0xE5},
	}
	if diff := cmp.Diff(want, c.Registers()); diff != "" {
		t.Errorf("registers differ (-want +got):\n%s", diff)
	}

	if err := c.SetRegister("A", 0x100); err == nil {
		t.Errorf("SetRegister should reject values wider than the register")
	}
	if err := c.SetRegister("Q", 0); !errors.Is(err, ErrUnknownRegister) {
		t.Errorf("got %v, want %v", err, ErrUnknownRegister)
	}
}

func TestConsoleDisassemble(t *testing.T) {
	c := newTestConsole(t, assemble(t, `
	LDA #$01
	STA $2000
	LAX $10
	JMP $8000
`))

	want := []InstructionInfo{
		{0x8000, []byte{0xA9, 0x01}, "LDA", "#$01"},
		{0x8002, []byte{0x8D, 0x00, 0x20}, "STA", "PpuControl_2000"},
		{0x8005, []byte{0xA7, 0x10}, "*LAX", "$10"},
		{0x8007, []byte{0x4C, 0x00, 0x80}, "JMP", "$8000"},
	}
	if diff := cmp.Diff(want, c.Disassemble(0x8000, 4)); diff != "" {
		t.Errorf("disassembly differs (-want +got):\n%s", diff)
	}
	for _, count := range []int{0, -1} {
		if got := c.Disassemble(0x8000, count); got != nil {
			t.Errorf("Disassemble(count=%d) = %v, want nil", count, got)
		}
	}
}

func TestConsoleMemory(t *testing.T) {
	prg := []byte{0xA9, 0x42, 0x85, 0x10}
	c := newTestConsole(t, prg)

	if diff := cmp.Diff(prg, c.Memory(0x8000, 0x8003)); diff != "" {
		t.Errorf("PRG ROM differs (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]byte{0x00, 0x80}, c.Memory(0xFFFE, 0xFFFF)); diff != "" {
		t.Errorf("IRQ vector differs (-want +got):\n%s", diff)
	}
	if c.Memory(0x10, 0x0F) != nil {
		t.Errorf("Memory with hi < lo should return nil")
	}

	tcheck(t, c.StepInstruction())
	tcheck(t, c.StepInstruction())
	if got := c.Memory(0x0810, 0x0810); got[0] != 0x42 {
		t.Errorf("RAM mirror = %02X, want 42", got[0])
	}
}

func TestConsoleControllerInput(t *testing.T) {
	// Strobe, then read 8 bits from port 1 and store them in $00-$07.
	c := newTestConsole(t, assemble(t, `
	LDA #$01
	STA $4016
	LDA #$00
	STA $4016
	LDX #$00
	LDA $4016
	AND #$01
	STA $00,X
	INX
	CPX #$08
	BNE $800C
	JMP $8018
`))
	c.SetControllerInput(0, hw.PadA.Mask()|hw.PadSelect.Mask()|hw.PadRight.Mask())

	for range 200 {
		tcheck(t, c.StepInstruction())
	}
	want := []byte{1, 0, 1, 0, 0, 0, 0, 1}
	if diff := cmp.Diff(want, c.Memory(0, 7)); diff != "" {
		t.Errorf("controller bits differ (-want +got):\n%s", diff)
	}
}

func TestConsoleSaveLoadState(t *testing.T) {
	c := newTestConsole(t, assemble(t, `
	LDA #$1E
	STA $2001
	LDA #$0F
	STA $4015
	LDX #$00
	INX
	STX $4000
	STX $4003
	STX $2006
	STX $2006
	STX $2007
	STX $00
	LDA $2002
	JMP $800C
`))

	for range 2 {
		tcheck(t, c.StepFrame())
	}
	var saved bytes.Buffer
	tcheck(t, c.SaveState(&saved))

	type result struct {
		Regs   []RegisterInfo
		Cycles int64
		RAM    []byte
		Frame  []byte
	}
	run := func() result {
		for range 3 {
			tcheck(t, c.StepFrame())
		}
		return result{c.Registers(), c.Cycles(), c.Memory(0, 0x7FF), c.Frame()}
	}

	want := run()
	tcheck(t, c.LoadState(bytes.NewReader(saved.Bytes())))
	got := run()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("emulation after LoadState differs (-want +got):\n%s", diff)
	}
}

func TestConsoleLoadStateErrors(t *testing.T) {
	c := newTestConsole(t, nil)

	if err := c.LoadState(bytes.NewReader([]byte(`{"Version":`))); !errors.Is(err, snapshot.ErrFormat) {
		t.Errorf("truncated snapshot: got %v, want %v", err, snapshot.ErrFormat)
	}
	if err := c.LoadState(bytes.NewReader([]byte(`{"Version":1}`))); !errors.Is(err, snapshot.ErrFormat) {
		t.Errorf("empty snapshot: got %v, want %v", err, snapshot.ErrFormat)
	}

	// A state from another board.
	var buf bytes.Buffer
	mmc1 := newTestConsoleWith(t, DefaultConfig(), buildROM(1, 0, nil))
	tcheck(t, mmc1.SaveState(&buf))
	if err := c.LoadState(&buf); err == nil {
		t.Errorf("loading an MMC1 state into an NROM console should fail")
	}
}

func TestConsoleSaveData(t *testing.T) {
	save := []byte{1, 2, 3}

	c := newTestConsoleWith(t, DefaultConfig(), buildROM(0, 0, nil))
	tcheck(t, c.Load(buildROM(0, flag6Battery, nil), save))
	if diff := cmp.Diff(save, c.Memory(0x6000, 0x6002)); diff != "" {
		t.Errorf("PRG RAM differs (-want +got):\n%s", diff)
	}

	tcheck(t, c.Reset(hw.PowerCycle))
	if diff := cmp.Diff(save, c.Memory(0x6000, 0x6002)); diff != "" {
		t.Errorf("battery-backed RAM should survive a power cycle (-want +got):\n%s", diff)
	}

	tcheck(t, c.Load(buildROM(0, 0, nil), save))
	if diff := cmp.Diff([]byte{0, 0, 0}, c.Memory(0x6000, 0x6002)); diff != "" {
		t.Errorf("save data should be ignored without battery (-want +got):\n%s", diff)
	}
}

func TestConsolePPUWarmup(t *testing.T) {
	// Keep writing $80 to PPUCTRL.
	prg := assemble(t, `
	LDA #$80
	STA $2000
	JMP $8002
`)
	ctrl := func(c *Console) uint8 { return c.Bus().PPU.State().Ctrl }

	c := newTestConsole(t, prg)
	for range 10 {
		tcheck(t, c.StepInstruction())
	}
	if got := ctrl(c); got != 0 {
		t.Errorf("PPUCTRL = %02X during warm-up, want 00", got)
	}

	// The warm-up is over before the end of the second frame.
	for range 2 {
		tcheck(t, c.StepFrame())
	}
	if got := ctrl(c); got != 0x80 {
		t.Errorf("PPUCTRL = %02X after warm-up, want 80", got)
	}

	cfg := DefaultConfig()
	cfg.Emulation.Warmup = false
	c = newTestConsoleWith(t, cfg, buildROM(0, 0, prg))
	for range 10 {
		tcheck(t, c.StepInstruction())
	}
	if got := ctrl(c); got != 0x80 {
		t.Errorf("PPUCTRL = %02X without warm-up, want 80", got)
	}
}

func TestConsoleLoadStateRollback(t *testing.T) {
	c := newTestConsole(t, assemble(t, `
	LDX #$00
	INX
	STX $00
	JMP $8002
`))
	tcheck(t, c.StepFrame())

	var buf bytes.Buffer
	tcheck(t, c.SaveState(&buf))
	state, err := snapshot.Decode(buf.Bytes())
	tcheck(t, err)

	// The mapper block is valid and differs from the console, the PPU one
	// is rejected.
	for i := range state.Mapper.VRAM {
		state.Mapper.VRAM[i] = 0x77
	}
	state.RAM[0] ^= 0xFF
	state.PPU.OAM = state.PPU.OAM[:16]
	var corrupt bytes.Buffer
	tcheck(t, snapshot.Encode(&corrupt, state))

	tcheck(t, c.StepFrame())
	var before bytes.Buffer
	tcheck(t, c.SaveState(&before))

	if err := c.LoadState(&corrupt); err == nil {
		t.Fatalf("LoadState should reject an invalid PPU snapshot")
	}

	var after bytes.Buffer
	tcheck(t, c.SaveState(&after))
	if diff := cmp.Diff(before.String(), after.String()); diff != "" {
		t.Errorf("console changed by a failed LoadState (-want +got):\n%s", diff)
	}
}
