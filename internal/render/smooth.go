package render

import "StudyBoard/internal/state"

// Segment is one quadratic piece of a smoothed stroke.
type Segment struct {
	From state.Point
	Ctrl state.Point
	To   state.Point
}

func mid(a, b state.Point) state.Point {
	return state.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

func line(a, b state.Point) Segment {
	return Segment{From: a, Ctrl: mid(a, b), To: b}
}

// Segments smooths a polyline by running quadratic curves through the
// midpoints of consecutive points, with the raw points as controls.
func Segments(pts []state.Point) []Segment {
	if len(pts) < 2 {
		return nil
	}
	segs := make([]Segment, 0, len(pts)-1)
	start := pts[0]
	for i := 1; i < len(pts)-1; i++ {
		m := mid(pts[i], pts[i+1])
		segs = append(segs, Segment{From: start, Ctrl: pts[i], To: m})
		start = m
	}
	return append(segs, line(start, pts[len(pts)-1]))
}

// LiveSegment returns the piece that became final when the last point of
// pts was appended. It matches the corresponding element of Segments, so
// a live preview and the committed replay line up.
func LiveSegment(pts []state.Point) (Segment, bool) {
	n := len(pts)
	switch {
	case n < 2:
		return Segment{}, false
	case n == 2:
		return line(pts[0], mid(pts[0], pts[1])), true
	}
	i := n - 2
	from := pts[0]
	if i > 1 {
		from = mid(pts[i-1], pts[i])
	}
	return Segment{From: from, Ctrl: pts[i], To: mid(pts[i], pts[i+1])}, true
}
