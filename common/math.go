package common

import "math"

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// AngleTo returns the heading in degrees from (x0,y0) towards (x1,y1),
// measured clockwise from the +X axis in screen space.
func AngleTo(x0, y0, x1, y1 float64) float64 {
	return math.Atan2(y1-y0, x1-x0) * 180 / math.Pi
}
