package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDragThreshold(t *testing.T) {
	var d DragTracker
	d.Begin("A", Point{X: 100, Y: 100}, Point{X: 10, Y: 10})

	pos, moving := d.Update(Point{X: 103, Y: 104}, 1)
	assert.False(t, moving)
	assert.Equal(t, Point{X: 10, Y: 10}, pos)

	pos, moving = d.Update(Point{X: 110, Y: 100}, 2)
	assert.True(t, moving)
	assert.Equal(t, Point{X: 15, Y: 10}, pos)

	// Once moving, small displacements keep tracking.
	pos, moving = d.Update(Point{X: 101, Y: 100}, 1)
	assert.True(t, moving)
	assert.Equal(t, Point{X: 11, Y: 10}, pos)

	id, dragged := d.End()
	assert.Equal(t, "A", id)
	assert.True(t, dragged)
	assert.False(t, d.Active())
}

func TestDragClickIsNotMove(t *testing.T) {
	var d DragTracker
	d.Begin("A", Point{}, Point{})
	d.Update(Point{X: 2, Y: 2}, 1)
	_, dragged := d.End()
	assert.False(t, dragged)

	_, moving := d.Update(Point{X: 50}, 1)
	assert.False(t, moving)
}

func TestDragMoving(t *testing.T) {
	var d DragTracker
	d.Begin("A", Point{}, Point{})
	assert.False(t, d.Moving())
	d.Update(Point{X: 20}, 1)
	assert.True(t, d.Moving())
	d.End()
	assert.False(t, d.Moving())
}
