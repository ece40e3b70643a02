// Package geometry contains the pure math used by the schematic editor:
// snap-point computation, nearest-point search, axis alignment, and angle
// snapping. Everything here is stateless and unit-testable without a canvas.
package geometry

import "math"

const (
	// DefaultSnapThreshold is the maximum pointer distance, in pixels at 1x
	// zoom, at which a snap point is considered hit.
	DefaultSnapThreshold = 15.0

	// DefaultAxisThreshold is the maximum per-axis distance at which a
	// pointer is pulled onto another node's center line.
	DefaultAxisThreshold = 80.0
)

// Point is a 2D coordinate. Whether it is in pixel or percent space depends
// on the caller; the kernel does not care.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is an axis-aligned bounding box in canvas pixel coordinates.
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the center point of the box.
func (b Box) Center() Point {
	return Point{X: b.Left + b.Width/2, Y: b.Top + b.Height/2}
}

// Side identifies which edge of a bounding box a snap point sits on.
type Side string

const (
	SideTop    Side = "top"
	SideRight  Side = "right"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
)

// SnapPoint is one of the four anchor positions on a node's bounding box.
type SnapPoint struct {
	NodeID string
	Side   Side
	Point  Point
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// SnapPoints returns the four anchor points of a bounding box in absolute
// canvas pixel coordinates: the midpoints of the top, right, bottom and left
// edges, in that order.
func SnapPoints(nodeID string, b Box) [4]SnapPoint {
	midX := b.Left + b.Width/2
	midY := b.Top + b.Height/2
	return [4]SnapPoint{
		{NodeID: nodeID, Side: SideTop, Point: Point{X: midX, Y: b.Top}},
		{NodeID: nodeID, Side: SideRight, Point: Point{X: b.Left + b.Width, Y: midY}},
		{NodeID: nodeID, Side: SideBottom, Point: Point{X: midX, Y: b.Top + b.Height}},
		{NodeID: nodeID, Side: SideLeft, Point: Point{X: b.Left, Y: midY}},
	}
}

// NearestSnapPoint returns the candidate whose Euclidean distance to pointer
// is smallest and strictly within threshold. Ties resolve to the earliest
// candidate, so callers must iterate candidates in a stable order.
func NearestSnapPoint(pointer Point, candidates []SnapPoint, threshold float64) (SnapPoint, bool) {
	var best SnapPoint
	bestDist := math.Inf(1)
	found := false
	for _, c := range candidates {
		d := Distance(pointer, c.Point)
		if d >= threshold {
			continue
		}
		if d < bestDist {
			best = c
			bestDist = d
			found = true
		}
	}
	return best, found
}

// NodeCenter pairs a node ID with its on-canvas center point, for axis
// alignment searches.
type NodeCenter struct {
	NodeID string
	Point  Point
}

// NearestAxisAlignment pulls the pointer onto the center lines of nearby
// nodes. The two axes are resolved independently: x snaps to the center with
// the smallest horizontal distance within threshold, y to the one with the
// smallest vertical distance. A snapped point may therefore align to two
// different nodes at once. Centers whose NodeID equals excludeID are skipped.
func NearestAxisAlignment(pointer Point, centers []NodeCenter, excludeID string, threshold float64) Point {
	bestDX := math.Inf(1)
	bestDY := math.Inf(1)
	snapX := pointer.X
	snapY := pointer.Y
	for _, c := range centers {
		if c.NodeID == excludeID {
			continue
		}
		if dx := math.Abs(c.Point.X - pointer.X); dx < bestDX {
			bestDX = dx
			snapX = c.Point.X
		}
		if dy := math.Abs(c.Point.Y - pointer.Y); dy < bestDY {
			bestDY = dy
			snapY = c.Point.Y
		}
	}
	out := pointer
	if bestDX <= threshold {
		out.X = snapX
	}
	if bestDY <= threshold {
		out.Y = snapY
	}
	return out
}

// Snap45 rounds the angle of the segment from -> to to the nearest 45 degree
// increment while preserving its length. A drafting aid, not an invariant.
func Snap45(from, to Point) Point {
	dx := to.X - from.X
	dy := to.Y - from.Y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return to
	}
	angle := math.Atan2(dy, dx)
	step := math.Pi / 4
	snapped := math.Round(angle/step) * step
	return Point{
		X: from.X + dist*math.Cos(snapped),
		Y: from.Y + dist*math.Sin(snapped),
	}
}
