package state

import (
	"github.com/charmbracelet/bubbles/viewport"
)

// UIState holds viewport, size and cursor state, kept apart from the
// notification data it scrolls over.
type UIState struct {
	viewport viewport.Model
	width    int
	height   int
	cursor   int
}

// NewUIState creates a new UIState instance with default values.
func NewUIState() *UIState {
	u := &UIState{
		width:  defaultViewportWidth,
		height: defaultViewportHeight,
	}
	u.UpdateViewportSize()
	return u
}

// GetViewport returns the current viewport model.
func (u *UIState) GetViewport() *viewport.Model {
	return &u.viewport
}

// GetWidth returns the current width of the UI.
func (u *UIState) GetWidth() int {
	return u.width
}

// GetHeight returns the current height of the UI.
func (u *UIState) GetHeight() int {
	return u.height
}

// SetSize updates the terminal size and resizes the viewport.
// Non-positive values fall back to the defaults.
func (u *UIState) SetSize(width, height int) {
	if width <= 0 {
		width = defaultViewportWidth
	}
	if height <= 0 {
		height = defaultViewportHeight
	}
	u.width = width
	u.height = height
	u.UpdateViewportSize()
}

// UpdateViewportSize updates the viewport dimensions based on the current width and height.
func (u *UIState) UpdateViewportSize() {
	viewportHeight := u.height - headerFooterLines
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	u.viewport = viewport.New(u.width, viewportHeight)
}

// GetCursor returns the cursor position.
func (u *UIState) GetCursor() int {
	return u.cursor
}

// MoveCursor moves the cursor by delta, clamped to [0, listLen).
func (u *UIState) MoveCursor(delta, listLen int) {
	u.cursor += delta
	u.ClampCursor(listLen)
}

// ClampCursor keeps the cursor inside a list of listLen items.
func (u *UIState) ClampCursor(listLen int) {
	if u.cursor >= listLen {
		u.cursor = listLen - 1
	}
	if u.cursor < 0 {
		u.cursor = 0
	}
}

// EnsureCursorVisible scrolls the viewport so line is on screen.
func (u *UIState) EnsureCursorVisible(line int) {
	vp := &u.viewport
	if vp.Height <= 0 {
		return
	}
	if line < vp.YOffset {
		vp.SetYOffset(line)
	} else if line >= vp.YOffset+vp.Height {
		vp.SetYOffset(line - vp.Height + 1)
	}
}
