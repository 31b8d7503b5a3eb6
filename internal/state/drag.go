package state

import "math"

// DragThreshold is the screen-space distance a pointer must travel before
// a press on an entity turns into a move.
const DragThreshold = 5.0

// DragTracker separates click-to-select from drag-to-move for one pointer
// sequence on an entity.
type DragTracker struct {
	id     string
	start  Point
	origin Point
	active bool
	moving bool
}

// Begin arms the tracker for entity id pressed at screen position screen
// while the entity sits at origin (canvas space).
func (d *DragTracker) Begin(id string, screen, origin Point) {
	*d = DragTracker{id: id, start: screen, origin: origin, active: true}
}

// Update feeds the current screen position. Once the displacement exceeds
// DragThreshold it returns the entity's new canvas position and moving=true.
func (d *DragTracker) Update(screen Point, zoom float64) (pos Point, moving bool) {
	if !d.active {
		return Point{}, false
	}
	dx, dy := screen.X-d.start.X, screen.Y-d.start.Y
	if !d.moving && math.Hypot(dx, dy) <= DragThreshold {
		return d.origin, false
	}
	d.moving = true
	z := ClampZoom(zoom)
	return Point{X: d.origin.X + dx/z, Y: d.origin.Y + dy/z}, true
}

// End finishes the sequence and reports whether it was a drag.
func (d *DragTracker) End() (id string, dragged bool) {
	id, dragged = d.id, d.moving
	*d = DragTracker{}
	return id, dragged
}

// Active reports whether a press is being tracked.
func (d *DragTracker) Active() bool { return d.active }

// Moving reports whether the press has passed the threshold.
func (d *DragTracker) Moving() bool { return d.moving }

// ID returns the tracked entity id.
func (d *DragTracker) ID() string { return d.id }
