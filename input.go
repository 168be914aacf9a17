package main

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// stickDeadZone ignores small gamepad stick drift.
const stickDeadZone = 0.3

// Input polls the keyboard and the first gamepad once per tick.
type Input struct {
	// MoveX and MoveY are the movement direction, normalized so diagonals
	// are not faster.
	MoveX float64
	MoveY float64
	// FireHeld is true while a fire key or button is held.
	FireHeld bool
	// Slow halves movement speed while held.
	Slow bool

	PausePressed   bool
	SavePressed    bool
	LoadPressed    bool
	RestartPressed bool
	QuitPressed    bool
}

func NewInput() *Input {
	return &Input{}
}

// Update polls the devices.
func (i *Input) Update() {
	var mx, my float64
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyLeft) {
		mx -= 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyRight) {
		mx += 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyUp) {
		my -= 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyDown) {
		my += 1
	}
	fire := ebiten.IsKeyPressed(ebiten.KeySpace) || ebiten.IsKeyPressed(ebiten.KeyZ)
	slow := ebiten.IsKeyPressed(ebiten.KeyShiftLeft)
	pause := inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyP)

	if ids := ebiten.GamepadIDs(); len(ids) > 0 {
		gid := ids[0]
		sx := ebiten.StandardGamepadAxisValue(gid, ebiten.StandardGamepadAxisLeftStickHorizontal)
		sy := ebiten.StandardGamepadAxisValue(gid, ebiten.StandardGamepadAxisLeftStickVertical)
		if math.Abs(sx) > stickDeadZone {
			mx = sx
		}
		if math.Abs(sy) > stickDeadZone {
			my = sy
		}
		fire = fire || ebiten.IsStandardGamepadButtonPressed(gid, ebiten.StandardGamepadButtonRightBottom) ||
			ebiten.IsStandardGamepadButtonPressed(gid, ebiten.StandardGamepadButtonFrontBottomRight)
		slow = slow || ebiten.IsStandardGamepadButtonPressed(gid, ebiten.StandardGamepadButtonFrontBottomLeft)
		pause = pause || inpututil.IsStandardGamepadButtonJustPressed(gid, ebiten.StandardGamepadButtonCenterRight)
	}

	if l := math.Hypot(mx, my); l > 1 {
		mx /= l
		my /= l
	}
	if slow {
		mx *= 0.5
		my *= 0.5
	}
	i.MoveX, i.MoveY = mx, my
	i.FireHeld = fire
	i.Slow = slow

	i.PausePressed = pause
	i.SavePressed = inpututil.IsKeyJustPressed(ebiten.KeyF5)
	i.LoadPressed = inpututil.IsKeyJustPressed(ebiten.KeyF9)
	i.RestartPressed = inpututil.IsKeyJustPressed(ebiten.KeyR)
	i.QuitPressed = inpututil.IsKeyJustPressed(ebiten.KeyF12)
}

// Axis implements entity.Input.
func (i *Input) Axis() (float64, float64) { return i.MoveX, i.MoveY }

// Firing implements entity.Input.
func (i *Input) Firing() bool { return i.FireHeld }
