package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"StudyBoard/internal/draw"
	"StudyBoard/internal/state"
)

func modifiers(m fyne.KeyModifier) draw.Modifier {
	var out draw.Modifier
	if m&fyne.KeyModifierShift != 0 {
		out |= draw.ModShift
	}
	if m&fyne.KeyModifierControl != 0 {
		out |= draw.ModControl
	}
	if m&fyne.KeyModifierAlt != 0 {
		out |= draw.ModAlt
	}
	if m&fyne.KeyModifierSuper != 0 {
		out |= draw.ModSuper
	}
	return out
}

func button(b desktop.MouseButton) draw.Button {
	switch {
	case b&desktop.MouseButtonTertiary != 0:
		return draw.ButtonMiddle
	case b&desktop.MouseButtonSecondary != 0:
		return draw.ButtonSecondary
	}
	return draw.ButtonPrimary
}

func pointer(pos fyne.Position, b desktop.MouseButton, m fyne.KeyModifier) draw.PointerEvent {
	return draw.PointerEvent{X: float64(pos.X), Y: float64(pos.Y), Button: button(b), Mods: modifiers(m)}
}

func wheel(ev *fyne.ScrollEvent, m fyne.KeyModifier) draw.WheelEvent {
	return draw.WheelEvent{
		X:    float64(ev.Position.X),
		Y:    float64(ev.Position.Y),
		DX:   float64(ev.Scrolled.DX),
		DY:   float64(ev.Scrolled.DY),
		Mods: modifiers(m),
	}
}

func point(pos fyne.Position) state.Point {
	return state.Point{X: float64(pos.X), Y: float64(pos.Y)}
}
