package component

import (
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

// RepeatForever makes an animation loop until it is replaced.
const RepeatForever = -1

// Animation plays a sprite-sheet slice. Frames are laid out left-to-right in
// uniform rows starting at (SrcX, SrcY); every row begins at SrcX and is as
// wide as the atlas allows.
type Animation struct {
	Image  string
	SrcX   int
	SrcY   int
	FrameW int
	FrameH int

	FrameCount int
	// FrameRepeat is the number of full cycles to play, or RepeatForever.
	FrameRepeat int
	// FrameDelay gates frame advancement; nil advances every tick.
	FrameDelay *Delay

	ElapsedFrame     int
	FrameRepeatCount int
	Finished         bool

	// Output size of a drawn frame; 0 keeps the frame size.
	OutputW float64
	OutputH float64

	// Copied from the owning entity before each tick and draw.
	Degree float64
	Flip   Flip
	Alpha  float64

	atlasW int
	warned bool
}

// NewAnimation creates an animation over frameCount frames of frameW x frameH
// starting at (srcX, srcY) in the atlas image. frameDelay is the number of
// ticks each frame stays on screen (<= 1 advances every tick).
func NewAnimation(img string, srcX, srcY, frameW, frameH, frameCount, frameRepeat, frameDelay int) *Animation {
	a := &Animation{
		Image:       img,
		SrcX:        srcX,
		SrcY:        srcY,
		FrameW:      frameW,
		FrameH:      frameH,
		FrameCount:  frameCount,
		FrameRepeat: frameRepeat,
		Alpha:       1,
	}
	if frameDelay > 1 {
		a.FrameDelay = NewDelay(frameDelay)
	}
	return a
}

// TotalFrames is the number of frames played before the animation finishes,
// or -1 when it loops forever.
func (a *Animation) TotalFrames() int {
	if a == nil {
		return 0
	}
	if a.FrameRepeat < 0 {
		return -1
	}
	return a.FrameCount * a.FrameRepeat
}

// Process advances the animation by one tick.
func (a *Animation) Process() {
	if a == nil || a.Finished {
		return
	}
	total := a.TotalFrames()
	if total >= 0 && a.ElapsedFrame >= total {
		a.Finished = true
		return
	}
	if a.FrameDelay != nil && !a.FrameDelay.Check() {
		return
	}

	a.ElapsedFrame++
	if a.FrameCount > 0 && a.ElapsedFrame%a.FrameCount == 0 {
		a.FrameRepeatCount++
	}
	if total >= 0 && a.ElapsedFrame >= total {
		a.Finished = true
	}
}

// Reset rewinds the animation to its first frame.
func (a *Animation) Reset() {
	if a == nil {
		return
	}
	a.ElapsedFrame = 0
	a.FrameRepeatCount = 0
	a.Finished = false
	if a.FrameDelay != nil {
		a.FrameDelay.Reset()
	}
}

// SetOutputSize scales drawn frames to w x h.
func (a *Animation) SetOutputSize(w, h float64) {
	if a == nil {
		return
	}
	a.OutputW = w
	a.OutputH = h
}

// FrameRect returns the atlas rectangle of the current frame for an atlas of
// the given width. ok is false when the layout cannot hold a single frame.
func (a *Animation) FrameRect(atlasW int) (image.Rectangle, bool) {
	if a == nil || a.FrameW <= 0 || a.FrameH <= 0 || a.FrameCount <= 0 {
		return image.Rectangle{}, false
	}
	perRow := (atlasW - a.SrcX) / a.FrameW
	if perRow <= 0 {
		return image.Rectangle{}, false
	}
	idx := a.ElapsedFrame % a.FrameCount
	x := a.SrcX + (idx%perRow)*a.FrameW
	y := a.SrcY + (idx/perRow)*a.FrameH
	return image.Rect(x, y, x+a.FrameW, y+a.FrameH), true
}

// Display draws the current frame at (x, y). Nothing is drawn while the atlas
// is still loading, after a finite animation finished, or when the frame
// layout is degenerate.
func (a *Animation) Display(dst *ebiten.Image, images ImageSource, x, y float64) bool {
	if a == nil || dst == nil || images == nil {
		return false
	}
	if a.Finished && a.FrameRepeat != RepeatForever {
		return false
	}
	if math.IsNaN(x) || math.IsNaN(y) {
		a.warn("animation: missing draw coordinates", zap.Float64("x", x), zap.Float64("y", y))
		return false
	}

	img := images.Image(a.Image)
	if img == nil {
		return false
	}
	if a.atlasW == 0 {
		a.atlasW = img.Bounds().Dx()
	}

	src, ok := a.FrameRect(a.atlasW)
	if !ok {
		a.warn("animation: atlas cannot hold a frame",
			zap.Int("atlas_w", a.atlasW), zap.Int("src_x", a.SrcX), zap.Int("frame_w", a.FrameW))
		return false
	}

	return DrawRegion(dst, img, Blit{
		Src:    src,
		X:      x,
		Y:      y,
		W:      a.OutputW,
		H:      a.OutputH,
		Degree: a.Degree,
		Flip:   a.Flip,
		Alpha:  a.Alpha,
	})
}

func (a *Animation) warn(msg string, fields ...zap.Field) {
	if a.warned {
		return
	}
	a.warned = true
	zap.L().Warn(msg, append(fields, zap.String("image", a.Image))...)
}
