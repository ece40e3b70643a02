package geometry

// Viewport is the current pixel dimensions of a diagram canvas. Positions are
// stored as percentages of these dimensions so diagrams survive resizes; this
// is the single place where the percent/pixel arithmetic lives.
type Viewport struct {
	Width  float64
	Height float64
}

// Valid reports whether the viewport has positive dimensions.
func (v Viewport) Valid() bool {
	return v.Width > 0 && v.Height > 0
}

// ToPercent converts an absolute pixel point into percentage coordinates,
// clamped to [0,100] on each axis.
func (v Viewport) ToPercent(px Point) Point {
	return Point{
		X: clampPercent(px.X / v.Width * 100),
		Y: clampPercent(px.Y / v.Height * 100),
	}
}

// ToPixels converts a percentage point back into absolute pixels.
func (v Viewport) ToPixels(pct Point) Point {
	return Point{
		X: pct.X / 100 * v.Width,
		Y: pct.Y / 100 * v.Height,
	}
}

func clampPercent(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 100 {
		return 100
	}
	return f
}
