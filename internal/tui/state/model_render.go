package state

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/petnames/reminders/internal/domain"
	"github.com/petnames/reminders/internal/tui/render"
)

// View renders the TUI.
func (m *Model) View() string {
	var s strings.Builder
	s.WriteString(render.Header(render.HeaderState{
		UserID:  m.userID,
		Unread:  m.snap.UnreadCount,
		Loading: m.snap.Loading,
		Spinner: m.spinner.View(),
		Width:   m.uiState.GetWidth(),
	}))
	s.WriteString("\n")

	m.updateViewportContent()
	s.WriteString(m.uiState.GetViewport().View())
	s.WriteString("\n")

	if line := render.Status(m.status, m.statusErr); line != "" {
		s.WriteString(line)
		s.WriteString("\n")
	}
	s.WriteString(m.help.View(m.keys))
	return s.String()
}

// updateViewportContent renders the three buckets into the viewport and
// scrolls it to keep the cursor row visible.
func (m *Model) updateViewportContent() {
	vp := m.uiState.GetViewport()
	if !m.loaded && m.snap.Loading {
		vp.SetContent(render.Empty("Loading reminders..."))
		return
	}

	g := m.snap.Groups
	now := m.clock()
	cursor := m.uiState.GetCursor()
	width := m.uiState.GetWidth()

	var content strings.Builder
	offset, line, cursorLine := 0, 0, 0
	for _, section := range []struct {
		bucket domain.Bucket
		appts  []domain.Appointment
	}{
		{domain.BucketToday, g.Today},
		{domain.BucketUpcoming, g.Upcoming},
		{domain.BucketPast, g.Past},
	} {
		if cursor >= offset && cursor < offset+len(section.appts) {
			cursorLine = line + 1 + cursor - offset
		}
		content.WriteString(render.Section(render.SectionState{
			Bucket:       section.bucket,
			Appointments: section.appts,
			Offset:       offset,
			Cursor:       cursor,
			Now:          now,
			Width:        width,
		}))
		offset += len(section.appts)
		line += 1 + max(len(section.appts), 1)
	}
	vp.SetContent(strings.TrimRight(content.String(), "\n"))
	m.uiState.EnsureCursorVisible(cursorLine)
}

func keyMatches(msg tea.KeyMsg, b key.Binding) bool {
	return key.Matches(msg, b)
}
