package common

// DefaultCullMargin is how far outside the playfield an entity may travel
// before it is removed.
const DefaultCullMargin = 800

// TicksPerSecond is the fixed simulation rate.
const TicksPerSecond = 60

// Bounds describes the playfield in pixels. The origin is the top-left corner.
type Bounds struct {
	Width  float64
	Height float64
}

// Outside reports whether the rectangle (x, y, w, h) lies farther than margin
// pixels outside the playfield on any side. A margin of 0 means "fully past
// the edge".
func (b Bounds) Outside(x, y, w, h, margin float64) bool {
	return x+w < -margin ||
		x > b.Width+margin ||
		y+h < -margin ||
		y > b.Height+margin
}

// Contains reports whether the point lies inside the playfield.
func (b Bounds) Contains(x, y float64) bool {
	return x >= 0 && x <= b.Width && y >= 0 && y <= b.Height
}
