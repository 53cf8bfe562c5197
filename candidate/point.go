// Package candidate discretizes a continuous target-location prediction
// problem into classification plus offset regression. It samples a finite
// set of candidate points, either on a uniform grid or along lane
// centerlines at a fixed arclength step, and labels the candidate nearest
// to a known ground-truth target together with the residual offset the
// downstream model still has to regress.
//
// All functions in this package are pure: they read their inputs, allocate
// their outputs, and keep no state between calls. They are safe to invoke
// concurrently from independent call sites without coordination.
package candidate

import "math"

// Point is a 2D point. It has no identity beyond its coordinates.
type Point struct {
	X float64
	Y float64
}

// Pt returns the point (x, y).
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// IsFinite reports whether both coordinates are finite real numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Sub returns p − o.
func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// SquaredDistance returns the squared Euclidean distance between a and b.
func SquaredDistance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// Polyline is an ordered sequence of points describing a connected path,
// typically a lane centerline. Order is semantically meaningful: it defines
// direction and adjacency. A polyline may contain degenerate (duplicate or
// non-finite) consecutive points; consumers in this package tolerate them.
type Polyline []Point
