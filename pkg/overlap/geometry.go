package overlap

// =============================================================================
// Segment / Rectangle Intersection
// =============================================================================

// Point is a position on the editor canvas.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned bounding box given by its top-left corner and size.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether the point lies inside the rectangle, edges
// included.
func (r Rect) Contains(p Point) bool {
	return r.X <= p.X && p.X <= r.X+r.W &&
		r.Y <= p.Y && p.Y <= r.Y+r.H
}

// ccw reports whether the triangle a, b, c winds counter-clockwise. Collinear
// points are not counter-clockwise, so segments that merely touch an edge do
// not count as crossing it.
func ccw(a, b, c Point) bool {
	return (c.Y-a.Y)*(b.X-a.X) > (b.Y-a.Y)*(c.X-a.X)
}

// segmentsIntersect reports whether segments a1-a2 and b1-b2 properly cross,
// using the orientation test: the endpoints of each segment must lie on
// opposite sides of the other.
func segmentsIntersect(a1, a2, b1, b2 Point) bool {
	return ccw(a1, b1, b2) != ccw(a2, b1, b2) &&
		ccw(a1, a2, b1) != ccw(a1, a2, b2)
}

// SegmentIntersectsRect reports whether the segment a-b passes through the
// rectangle: either endpoint inside it, or a crossing of one of its four
// edges.
func SegmentIntersectsRect(a, b Point, r Rect) bool {
	if r.Contains(a) || r.Contains(b) {
		return true
	}

	corners := [4]Point{
		{r.X, r.Y},
		{r.X + r.W, r.Y},
		{r.X + r.W, r.Y + r.H},
		{r.X, r.Y + r.H},
	}
	for i := range corners {
		if segmentsIntersect(a, b, corners[i], corners[(i+1)%4]) {
			return true
		}
	}
	return false
}
