package state

// Rect is an axis-aligned rectangle in canvas space.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Union returns the smallest rectangle covering both r and b.
func (r Rect) Union(b Rect) Rect {
	minX, minY := min(r.X, b.X), min(r.Y, b.Y)
	maxX := max(r.X+r.Width, b.X+b.Width)
	maxY := max(r.Y+r.Height, b.Y+b.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Inset grows r by pad on every side.
func (r Rect) Inset(pad float64) Rect {
	return Rect{X: r.X - pad, Y: r.Y - pad, Width: r.Width + 2*pad, Height: r.Height + 2*pad}
}

// PathBounds returns the bounding box of a path's points, padded by half
// the stroke width. ok is false for a path without points.
func PathBounds(p DrawingPath) (r Rect, ok bool) {
	if len(p.Points) == 0 {
		return Rect{}, false
	}
	minX, minY := p.Points[0].X, p.Points[0].Y
	maxX, maxY := minX, minY
	for _, pt := range p.Points[1:] {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
	}
	r = Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
	return r.Inset(p.StrokeWidth / 2), true
}

// Bounds returns the area covered by every path and entity in s.
func (s Snapshot) Bounds() (r Rect, ok bool) {
	add := func(b Rect) {
		if !ok {
			r, ok = b, true
			return
		}
		r = r.Union(b)
	}
	for _, p := range s.Paths {
		if b, has := PathBounds(p); has {
			add(b)
		}
	}
	for _, c := range s.Cards {
		add(c.Bounds())
	}
	for _, n := range s.StickyNotes {
		add(n.Bounds())
	}
	return r, ok
}
