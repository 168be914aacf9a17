package component

import "testing"

func TestIntersectsAABB(t *testing.T) {
	cases := []struct {
		name string
		a, b Box
		want bool
	}{
		{"overlap", Box{0, 0, 10, 10, 0}, Box{5, 5, 10, 10, 0}, true},
		{"corner_touch", Box{0, 0, 10, 10, 0}, Box{10, 10, 10, 10, 0}, true},
		{"edge_touch", Box{0, 0, 10, 10, 0}, Box{10, 0, 10, 10, 0}, true},
		{"gap_x", Box{0, 0, 10, 10, 0}, Box{11, 0, 10, 10, 0}, false},
		{"gap_y", Box{0, 0, 10, 10, 0}, Box{0, -11, 10, 10, 0}, false},
		{"contained", Box{0, 0, 100, 100, 0}, Box{40, 40, 2, 2, 0}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := IntersectsAABB(c.a, c.b); got != c.want {
				t.Fatalf("expected %v, got %v", c.want, got)
			}
			if got := IntersectsAABB(c.b, c.a); got != c.want {
				t.Fatalf("not symmetric: expected %v, got %v", c.want, got)
			}
		})
	}
}

func TestIntersectsOBB(t *testing.T) {
	cases := []struct {
		name string
		a, b Box
		want bool
	}{
		{"coincident_rotated", Box{0, 0, 10, 10, 0}, Box{0, 0, 10, 10, 45}, true},
		{"coincident_both_rotated", Box{0, 0, 10, 10, 30}, Box{0, 0, 10, 10, 75}, true},
		{"axis_aligned_touching", Box{0, 0, 10, 10, 0}, Box{10, 0, 10, 10, 0}, true},
		{"axis_aligned_gap", Box{0, 0, 10, 10, 0}, Box{10.5, 0, 10, 10, 0}, false},
		// a 10px square turned 45 degrees reaches ~7.07px from its center
		{"diamond_reaches", Box{0, 0, 10, 10, 0}, Box{8, 0, 10, 10, 45}, true},
		{"diamond_short", Box{0, 0, 10, 10, 0}, Box{12.5, 0, 10, 10, 45}, false},
		{"long_bar_rotated_into", Box{0, 45, 100, 10, 90}, Box{45, 0, 10, 10, 0}, true},
		{"zero_area", Box{0, 0, 0, 0, 0}, Box{0, 0, 10, 10, 0}, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := IntersectsOBB(c.a, c.b); got != c.want {
				t.Fatalf("expected %v, got %v", c.want, got)
			}
			if got := IntersectsOBB(c.b, c.a); got != c.want {
				t.Fatalf("not symmetric: expected %v, got %v", c.want, got)
			}
		})
	}
}

func TestIntersectsOBBFarApart(t *testing.T) {
	offsets := [][2]float64{{100, 0}, {-100, 0}, {0, 100}, {0, -100}, {70.72, 70.72}}
	for _, off := range offsets {
		for deg := 0.0; deg < 360; deg += 15 {
			a := Box{X: 0, Y: 0, Width: 10, Height: 10, Degree: deg}
			b := Box{X: off[0], Y: off[1], Width: 10, Height: 10, Degree: 360 - deg}
			if IntersectsOBB(a, b) {
				t.Fatalf("boxes 100px apart collided: offset=%v deg=%v", off, deg)
			}
		}
	}
}

func TestCornersAxisAligned(t *testing.T) {
	c := Corners(Box{X: 2, Y: 3, Width: 4, Height: 6})
	if c[0].X != 2 || c[0].Y != 3 || c[2].X != 6 || c[2].Y != 9 {
		t.Fatalf("unexpected corners %v", c)
	}
}
