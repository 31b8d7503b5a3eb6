package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/stretchr/testify/assert"

	"StudyBoard/internal/draw"
)

func TestPointerTranslation(t *testing.T) {
	ev := pointer(fyne.NewPos(12.5, 40), desktop.MouseButtonTertiary, fyne.KeyModifierShift|fyne.KeyModifierSuper)
	assert.Equal(t, draw.PointerEvent{X: 12.5, Y: 40, Button: draw.ButtonMiddle, Mods: draw.ModShift | draw.ModSuper}, ev)

	assert.Equal(t, draw.ButtonPrimary, button(desktop.MouseButtonPrimary))
	assert.Equal(t, draw.ButtonSecondary, button(desktop.MouseButtonSecondary))
	assert.Equal(t, draw.Modifier(0), modifiers(0))
}

func TestWheelTranslation(t *testing.T) {
	ev := &fyne.ScrollEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(100, 50)},
		Scrolled:   fyne.NewDelta(0, -2),
	}
	got := wheel(ev, fyne.KeyModifierControl)
	assert.Equal(t, draw.WheelEvent{X: 100, Y: 50, DY: -2, Mods: draw.ModControl}, got)
}
