package emu

import (
	"image"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"

	"nescore/hw"
)

// FrameImage converts a frame of palette indices, as returned by Frame, to
// an RGBA image.
func FrameImage(frame []byte) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, hw.ScreenWidth, hw.ScreenHeight))
	for i, idx := range frame[:min(len(frame), hw.ScreenWidth*hw.ScreenHeight)] {
		c := hw.Palette[idx&0x3F]
		px := img.Pix[i*4 : i*4+4 : i*4+4]
		px[0], px[1], px[2], px[3] = c.R, c.G, c.B, c.A
	}
	return img
}

// Screenshot returns the last completed frame, scaled by an integer factor.
func (c *Console) Screenshot(scale int) *image.RGBA {
	img := FrameImage(c.Frame())
	if scale <= 1 {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, hw.ScreenWidth*scale, hw.ScreenHeight*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// WritePNG encodes img as PNG into w.
func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// SaveAsPNG saves img as a PNG file at path.
func SaveAsPNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePNG(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
