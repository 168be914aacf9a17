package component

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/shmup/common"
)

// ImageSource resolves atlas images by path. Image returns nil while an
// image is still loading or when it does not exist.
type ImageSource interface {
	Image(path string) *ebiten.Image
}

// Flip mirrors a sprite when drawn.
type Flip int

const (
	FlipNone Flip = iota
	FlipVertical
	FlipHorizontal
	FlipBoth
)

// Blit describes one atlas region draw.
type Blit struct {
	Src    image.Rectangle
	X, Y   float64
	W, H   float64
	Degree float64
	Flip   Flip
	Alpha  float64
}

// DrawRegion draws the b.Src region of atlas onto dst with the region scaled to
// W x H, mirrored by Flip and rotated by Degree about its center. It reports
// whether anything was drawn.
func DrawRegion(dst, atlas *ebiten.Image, b Blit) bool {
	if dst == nil || atlas == nil || b.Alpha <= 0 {
		return false
	}
	sw, sh := b.Src.Dx(), b.Src.Dy()
	if sw <= 0 || sh <= 0 {
		return false
	}
	if !b.Src.In(atlas.Bounds()) {
		return false
	}
	if b.W <= 0 {
		b.W = float64(sw)
	}
	if b.H <= 0 {
		b.H = float64(sh)
	}

	sub, ok := atlas.SubImage(b.Src).(*ebiten.Image)
	if !ok || sub == nil {
		return false
	}

	sx, sy := b.W/float64(sw), b.H/float64(sh)
	switch b.Flip {
	case FlipVertical:
		sy = -sy
	case FlipHorizontal:
		sx = -sx
	case FlipBoth:
		sx, sy = -sx, -sy
	}

	op := &ebiten.DrawImageOptions{}
	op.Filter = ebiten.FilterNearest
	op.GeoM.Translate(-float64(sw)/2, -float64(sh)/2)
	op.GeoM.Scale(sx, sy)
	if b.Degree != 0 {
		op.GeoM.Rotate(common.DegToRad(b.Degree))
	}
	op.GeoM.Translate(b.X+b.W/2, b.Y+b.H/2)
	if b.Alpha < 1 {
		op.ColorScale.ScaleAlpha(float32(b.Alpha))
	}
	dst.DrawImage(sub, op)
	return true
}
