// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package lightatlas

// Rect is an axis-aligned rectangle, the unit of atlas placement.
//
// Units depend on context: environment atlas regions and resample
// destinations are in pixels, shadow slots and light viewports/scissors
// are in normalized [0,1] atlas space. Rect.Normalized converts between
// the two.
type Rect struct {
	X, Y, W, H float64
}

// Scaled returns the rectangle with all components multiplied by s.
func (r Rect) Scaled(s float64) Rect {
	return Rect{X: r.X * s, Y: r.Y * s, W: r.W * s, H: r.H * s}
}

// Normalized returns the rectangle divided by the atlas size, mapping a
// pixel-space rectangle into [0,1] texture coordinates.
func (r Rect) Normalized(size float64) Rect {
	if size == 0 {
		return Rect{}
	}
	return r.Scaled(1 / size)
}

// Inset returns the rectangle shrunk inward by m on each edge.
func (r Rect) Inset(m float64) Rect {
	return Rect{X: r.X + m, Y: r.Y + m, W: r.W - 2*m, H: r.H - 2*m}
}

// Contains reports whether o lies entirely within r.
func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y &&
		o.X+o.W <= r.X+r.W && o.Y+o.H <= r.Y+r.H
}

// ContainsStrict reports whether o lies entirely within r with no shared
// edges.
func (r Rect) ContainsStrict(o Rect) bool {
	return o.X > r.X && o.Y > r.Y &&
		o.X+o.W < r.X+r.W && o.Y+o.H < r.Y+r.H
}

// Overlaps reports whether r and o share any interior area. Touching
// edges do not count as overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W &&
		r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Area returns the rectangle's area.
func (r Rect) Area() float64 {
	if r.Empty() {
		return 0
	}
	return r.W * r.H
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}
