package assets

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/colornames"
)

// Sheet describes a generated stand-in atlas: a grid of FrameW x FrameH
// cells, each outlined and shaded a little differently so frame changes stay
// visible.
type Sheet struct {
	Width  int
	Height int
	FrameW int
	FrameH int
	Color  color.RGBA
}

// Image renders the sheet.
func (s Sheet) Image() image.Image {
	w, h := max(s.Width, 1), max(s.Height, 1)
	fw, fh := s.FrameW, s.FrameH
	if fw <= 0 || fw > w {
		fw = w
	}
	if fh <= 0 || fh > h {
		fh = h
	}
	base := s.Color
	if base.A == 0 {
		base = colornames.Magenta
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	cols := w / fw
	for y := 0; y+fh <= h; y += fh {
		for x := 0; x+fw <= w; x += fw {
			idx := (y/fh)*cols + x/fw
			cell := image.Rect(x, y, x+fw, y+fh)
			draw.Draw(img, cell, image.NewUniform(shade(base, idx)), image.Point{}, draw.Src)
			outline(img, cell, colornames.White)
		}
	}
	return img
}

func shade(c color.RGBA, idx int) color.RGBA {
	f := 1 - float64(idx%4)*0.15
	return color.RGBA{
		R: uint8(float64(c.R) * f),
		G: uint8(float64(c.G) * f),
		B: uint8(float64(c.B) * f),
		A: c.A,
	}
}

func outline(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetRGBA(x, r.Min.Y, c)
		img.SetRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetRGBA(r.Min.X, y, c)
		img.SetRGBA(r.Max.X-1, y, c)
	}
}
