// Package dragdrop implements the task-movement engine: drag session state, edge auto-scroll,
// pointer and touch input adapters, and the drop resolver that persists a column change.
//
// The engine never touches a concrete UI toolkit. Front ends describe their layout through
// Container, HitTester, Highlighter, and Element, and forward input as Events.
package dragdrop

import "math"

// Point is a position in logical pixels.
type Point struct {
	X float64
	Y float64
}

// Distance returns the euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect is an axis-aligned rectangle in logical pixels.
type Rect struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// Contains reports whether p lies inside r. Right and bottom edges are exclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Right && p.Y >= r.Top && p.Y < r.Bottom
}
