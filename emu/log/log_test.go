package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestModuleByName(t *testing.T) {
	for _, name := range []string{"emu", "cpu", "ppu", "sound"} {
		mod, ok := ModuleByName(name)
		if !ok {
			t.Fatalf("module %q not found", name)
		}
		if mod.String() != name {
			t.Errorf("got module name %q, want %q", mod.String(), name)
		}
	}

	if _, ok := ModuleByName("<error>"); ok {
		t.Errorf("<error> should not be a valid module name")
	}
}

func TestNilEntryZ(t *testing.T) {
	var e *EntryZ
	// Must not panic.
	e.Hex8("a", 1).Hex16("b", 2).String("c", "d").Bool("e", true).End()
}

func TestDebugMask(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		DisableDebugModules(ModuleMaskAll)
	})

	ModPPU.DebugZ("hidden").End()
	if buf.Len() != 0 {
		t.Fatalf("debug message emitted while module disabled: %q", buf.String())
	}

	EnableDebugModules(ModPPU.Mask())
	ModPPU.DebugZ("visible").Hex16("addr", 0x2002).End()

	out := buf.String()
	if !strings.Contains(out, "visible") || !strings.Contains(out, "2002") {
		t.Fatalf("unexpected log output: %q", out)
	}
	if !strings.Contains(out, "ppu") {
		t.Fatalf("missing module field: %q", out)
	}
}

func TestFieldValue(t *testing.T) {
	tests := []struct {
		f    ZField
		want string
	}{
		{hexField("pc", 0xC000, 4), "$C000"},
		{hexField("a", 0x5, 2), "$05"},
		{uintField("n", 42), "42"},
		{intField("n", -3), "-3"},
		{ZField{kind: kindBool, num: 1}, "true"},
		{ZField{kind: kindString, str: "nrom"}, "nrom"},
		{ZField{kind: kindError}, "<nil>"},
		{ZField{kind: kindDuration, num: 1500}, "1.5µs"},
	}
	for _, tt := range tests {
		if got := tt.f.Value(); got != tt.want {
			t.Errorf("Value() = %q, want %q", got, tt.want)
		}
	}
}
