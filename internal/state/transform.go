package state

// Transform maps between screen space (pointer coordinates) and canvas
// space. Origin is the screen position of the canvas element.
type Transform struct {
	Origin Point
	View   ViewState
}

func (t Transform) zoom() float64 {
	return ClampZoom(t.View.Zoom)
}

// ScreenToCanvas converts a pointer position to a canvas point.
func (t Transform) ScreenToCanvas(clientX, clientY float64) Point {
	z := t.zoom()
	return Point{
		X: (clientX - t.Origin.X - t.View.OffsetX) / z,
		Y: (clientY - t.Origin.Y - t.View.OffsetY) / z,
	}
}

// CanvasToScreen is the inverse of ScreenToCanvas and matches the render
// transform.
func (t Transform) CanvasToScreen(p Point) (x, y float64) {
	z := t.zoom()
	return p.X*z + t.View.OffsetX + t.Origin.X, p.Y*z + t.View.OffsetY + t.Origin.Y
}

// ZoomAt scales the view by factor around the screen anchor (clientX,
// clientY): the canvas point under the anchor stays under it.
func (t Transform) ZoomAt(clientX, clientY, factor float64) ViewState {
	anchor := t.ScreenToCanvas(clientX, clientY)
	z := ClampZoom(t.zoom() * factor)
	return ViewState{
		OffsetX: clientX - t.Origin.X - anchor.X*z,
		OffsetY: clientY - t.Origin.Y - anchor.Y*z,
		Zoom:    z,
	}
}

// ViewportCenter returns the canvas point at the middle of a viewport of
// the given screen size.
func (t Transform) ViewportCenter(width, height float64) Point {
	return t.ScreenToCanvas(t.Origin.X+width/2, t.Origin.Y+height/2)
}
