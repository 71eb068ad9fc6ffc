package emu

import (
	"bytes"
	"image"
	"image/png"
	"path/filepath"
	"testing"

	"nescore/hw"
)

func TestFrameImage(t *testing.T) {
	frame := make([]byte, hw.ScreenWidth*hw.ScreenHeight)
	frame[0] = 0x30
	frame[1] = 0x0F
	frame[len(frame)-1] = 0x41 // emphasis bits are ignored

	img := FrameImage(frame)
	if got := img.Bounds().Size(); got != image.Pt(hw.ScreenWidth, hw.ScreenHeight) {
		t.Fatalf("image size = %v", got)
	}
	if got := img.RGBAAt(0, 0); got != hw.Palette[0x30] {
		t.Errorf("pixel (0,0) = %v, want %v", got, hw.Palette[0x30])
	}
	if got := img.RGBAAt(1, 0); got != hw.Palette[0x0F] {
		t.Errorf("pixel (1,0) = %v, want %v", got, hw.Palette[0x0F])
	}
	if got := img.RGBAAt(255, 239); got != hw.Palette[0x01] {
		t.Errorf("pixel (255,239) = %v, want %v", got, hw.Palette[0x01])
	}
}

func TestScreenshot(t *testing.T) {
	c := newTestConsole(t, assemble(t, `JMP $8000`))
	tcheck(t, c.StepFrame())
	tcheck(t, c.StepFrame())

	img := c.Screenshot(3)
	if got := img.Bounds().Size(); got != image.Pt(3*hw.ScreenWidth, 3*hw.ScreenHeight) {
		t.Fatalf("image size = %v", got)
	}
	// Rendering is off: the whole frame shows the backdrop color.
	want := hw.Palette[c.Frame()[0]]
	for _, p := range []image.Point{{0, 0}, {767, 719}, {400, 300}} {
		if got := img.RGBAAt(p.X, p.Y); got != want {
			t.Errorf("pixel %v = %v, want %v", p, got, want)
		}
	}

	var buf bytes.Buffer
	tcheck(t, WritePNG(&buf, img))
	dec, err := png.Decode(&buf)
	tcheck(t, err)
	if dec.Bounds() != img.Bounds() {
		t.Errorf("decoded bounds = %v, want %v", dec.Bounds(), img.Bounds())
	}

	tcheck(t, SaveAsPNG(c.Screenshot(1), filepath.Join(t.TempDir(), "shot.png")))
}
