package state

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransformRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		tr := Transform{
			Origin: Point{X: rng.Float64() * 200, Y: rng.Float64() * 200},
			View: ViewState{
				OffsetX: rng.Float64()*4000 - 2000,
				OffsetY: rng.Float64()*4000 - 2000,
				Zoom:    MinZoom + rng.Float64()*(MaxZoom-MinZoom),
			},
		}
		sx, sy := rng.Float64()*3000-1000, rng.Float64()*3000-1000
		x, y := tr.CanvasToScreen(tr.ScreenToCanvas(sx, sy))
		assert.InDelta(t, sx, x, 1e-9)
		assert.InDelta(t, sy, y, 1e-9)
	}
}

func TestScreenToCanvas(t *testing.T) {
	tr := Transform{Origin: Point{X: 10, Y: 20}, View: ViewState{OffsetX: 30, OffsetY: 40, Zoom: 2}}
	assert.Equal(t, Point{X: 30, Y: 20}, tr.ScreenToCanvas(100, 100))
}

func TestZoomAtKeepsAnchor(t *testing.T) {
	tr := Transform{View: ViewState{OffsetX: 15, OffsetY: -30, Zoom: 1}}
	before := tr.ScreenToCanvas(400, 300)

	v := tr.ZoomAt(400, 300, 1.5)
	assert.Equal(t, 1.5, v.Zoom)
	after := Transform{View: v}.ScreenToCanvas(400, 300)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
}

func TestZoomIsClamped(t *testing.T) {
	tr := Transform{View: ViewState{Zoom: 2.8}}
	assert.Equal(t, MaxZoom, tr.ZoomAt(0, 0, 2).Zoom)
	tr.View.Zoom = 0.3
	assert.Equal(t, MinZoom, tr.ZoomAt(0, 0, 0.5).Zoom)
	assert.Equal(t, 1.0, ClampZoom(0))
}

func TestViewportCenter(t *testing.T) {
	tr := Transform{View: ViewState{OffsetX: -100, OffsetY: 50, Zoom: 0.5}}
	assert.Equal(t, Point{X: 1000, Y: 500}, tr.ViewportCenter(800, 600))
}
