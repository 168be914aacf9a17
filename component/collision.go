package component

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/shmup/common"
)

// Box is a rectangle in screen space. Degree rotates it clockwise about its
// own center; 0 means axis-aligned.
type Box struct {
	X, Y          float64
	Width, Height float64
	Degree        float64
}

// BB returns the axis-aligned extent of the unrotated box.
func (b Box) BB() cp.BB {
	return cp.BB{L: b.X, B: b.Y, R: b.X + b.Width, T: b.Y + b.Height}
}

// Center returns the box center.
func (b Box) Center() cp.Vector {
	return cp.Vector{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// IntersectsAABB reports whether two axis-aligned boxes overlap. Touching
// edges count as overlap.
func IntersectsAABB(a, b Box) bool {
	return a.BB().Intersects(b.BB())
}

// IntersectsOBB reports whether two independently rotated boxes overlap using
// the separating-axis test. Intervals that only touch on an axis do not
// separate the boxes.
func IntersectsOBB(a, b Box) bool {
	// zero-area boxes have no face normals to test against
	if a.Width <= 0 || a.Height <= 0 || b.Width <= 0 || b.Height <= 0 {
		return false
	}

	ca := Corners(a)
	cb := Corners(b)

	axes := [4]cp.Vector{
		ca[1].Sub(ca[0]).Perp(),
		ca[2].Sub(ca[1]).Perp(),
		cb[1].Sub(cb[0]).Perp(),
		cb[2].Sub(cb[1]).Perp(),
	}

	for _, axis := range axes {
		minA, maxA := project(ca, axis)
		minB, maxB := project(cb, axis)
		if maxA < minB || maxB < minA {
			return false
		}
	}
	return true
}

// Corners returns the four corners of the box in winding order starting at
// the top-left corner of the unrotated box.
func Corners(b Box) [4]cp.Vector {
	if b.Degree == 0 {
		return [4]cp.Vector{
			{X: b.X, Y: b.Y},
			{X: b.X + b.Width, Y: b.Y},
			{X: b.X + b.Width, Y: b.Y + b.Height},
			{X: b.X, Y: b.Y + b.Height},
		}
	}

	center := b.Center()
	hw := b.Width / 2
	hh := b.Height / 2
	rot := cp.ForAngle(common.DegToRad(b.Degree))
	offsets := [4]cp.Vector{
		{X: -hw, Y: -hh},
		{X: hw, Y: -hh},
		{X: hw, Y: hh},
		{X: -hw, Y: hh},
	}

	var out [4]cp.Vector
	for i, off := range offsets {
		out[i] = center.Add(off.Rotate(rot))
	}
	return out
}

func project(pts [4]cp.Vector, axis cp.Vector) (float64, float64) {
	lo := math.Inf(1)
	hi := math.Inf(-1)
	for _, p := range pts {
		d := p.Dot(axis)
		if d < lo {
			lo = d
		}
		if d > hi {
			hi = d
		}
	}
	return lo, hi
}
