package Analysis

import "math"

// angleAt returns the angle p1-vertex-p2 in degrees, in [0, 180].
func angleAt(vertex, p1, p2 Point) float64 {
	ax, ay := p1.X-vertex.X, p1.Y-vertex.Y
	bx, by := p2.X-vertex.X, p2.Y-vertex.Y
	cross := ax*by - ay*bx
	dot := ax*bx + ay*by
	return math.Abs(math.Atan2(cross, dot)) * 180 / math.Pi
}

// lineAngle returns the acute angle between lines a1a2 and b1b2 in degrees.
func lineAngle(a1, a2, b1, b2 Point) float64 {
	ax, ay := a2.X-a1.X, a2.Y-a1.Y
	bx, by := b2.X-b1.X, b2.Y-b1.Y
	cross := ax*by - ay*bx
	dot := ax*bx + ay*by
	deg := math.Abs(math.Atan2(cross, dot)) * 180 / math.Pi
	if deg > 90 {
		deg = 180 - deg
	}
	return deg
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
