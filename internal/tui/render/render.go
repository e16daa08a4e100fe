// Package render draws the reminders TUI: a header with the unread badge,
// one section per bucket and a status line.
package render

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/petnames/reminders/internal/colors"
	"github.com/petnames/reminders/internal/domain"
)

const (
	dueWidth      = 12
	petWidth      = 14
	relWidth      = 16
	markerWidth   = 2
	columnPadding = 8
	minTitleWidth = 10
	defaultWidth  = 80
	ellipsis      = "..."
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ansiColorNumber(colors.Blue)))
	badgeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ansiColorNumber(colors.Yellow)))
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	pastStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ansiColorNumber(colors.Red)))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(ansiColorNumber(colors.Green)))
	selected    = lipgloss.NewStyle().
			Background(lipgloss.Color(ansiColorNumber(colors.Blue))).
			Foreground(lipgloss.Color("0"))
)

// HeaderState defines the inputs needed to render the header.
type HeaderState struct {
	UserID  string
	Unread  int
	Loading bool
	Spinner string
	Width   int
}

// SectionState defines the inputs needed to render one bucket.
type SectionState struct {
	Bucket       domain.Bucket
	Appointments []domain.Appointment
	// Offset is the flat index of the first appointment; Cursor is compared against it.
	Offset int
	Cursor int
	Now    time.Time
	Width  int
}

// Header renders the title line with the unread badge.
func Header(state HeaderState) string {
	title := headerStyle.Render("Reminders")
	if state.UserID != "" {
		title += emptyStyle.Render(" · " + state.UserID)
	}
	badge := badgeStyle.Render(fmt.Sprintf("%d unread", state.Unread))
	line := title + "  " + badge
	if state.Loading {
		line += "  " + state.Spinner + emptyStyle.Render(" loading")
	}
	return line
}

// Section renders a bucket title followed by its rows.
func Section(state SectionState) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", SectionTitle(state.Bucket), len(state.Appointments))))
	b.WriteString("\n")
	if len(state.Appointments) == 0 {
		b.WriteString(emptyStyle.Render("  nothing here"))
		b.WriteString("\n")
		return b.String()
	}
	for i, appt := range state.Appointments {
		b.WriteString(Row(RowState{
			Appointment: appt,
			Bucket:      state.Bucket,
			Selected:    state.Offset+i == state.Cursor,
			Now:         state.Now,
			Width:       state.Width,
		}))
		b.WriteString("\n")
	}
	return b.String()
}

// SectionTitle names a bucket for display.
func SectionTitle(bucket domain.Bucket) string {
	switch bucket {
	case domain.BucketToday:
		return "Today"
	case domain.BucketUpcoming:
		return "Upcoming"
	case domain.BucketPast:
		return "Past"
	default:
		return string(bucket)
	}
}

// RowState defines the inputs needed to render an appointment row.
type RowState struct {
	Appointment domain.Appointment
	Bucket      domain.Bucket
	Selected    bool
	Now         time.Time
	Width       int
}

// Row renders a single appointment.
func Row(state RowState) string {
	now := state.Now
	if now.IsZero() {
		now = time.Now()
	}
	a := state.Appointment
	marker := " "
	if a.Status == domain.StatusCompleted {
		marker = "✓"
	}

	titleWidth := calculateTitleWidth(state.Width)
	row := fmt.Sprintf("%-*s%-*s  %-*s  %-*s  %s",
		markerWidth, marker,
		dueWidth, DueLabel(a.Due, now),
		petWidth, truncate(a.PetName, petWidth),
		titleWidth, truncate(a.Title, titleWidth),
		truncate(humanize.RelTime(a.Due, now, "ago", "from now"), relWidth),
	)

	switch {
	case state.Selected:
		return selected.Render(row)
	case state.Bucket == domain.BucketPast:
		return pastStyle.Render(row)
	default:
		return row
	}
}

// DueLabel shows the clock time for today and the date otherwise,
// both in now's location.
func DueLabel(due, now time.Time) string {
	due = due.In(now.Location())
	if domain.Classify(now, due) == domain.BucketToday {
		return due.Format("15:04")
	}
	if due.Year() != now.Year() {
		return due.Format("2006-01-02")
	}
	return due.Format("Jan 02 15:04")
}

// Status renders the transient status line.
func Status(text string, isErr bool) string {
	if text == "" {
		return ""
	}
	if isErr {
		return errorStyle.Render("Error: " + text)
	}
	return okStyle.Render(text)
}

// Empty renders the placeholder shown before anything is loaded.
func Empty(text string) string {
	return emptyStyle.Render(text)
}

func calculateTitleWidth(width int) int {
	if width <= 0 {
		width = defaultWidth
	}
	w := width - markerWidth - dueWidth - petWidth - relWidth - columnPadding
	if w < minTitleWidth {
		return minTitleWidth
	}
	return w
}

func truncate(value string, width int) string {
	if width <= 0 || utf8.RuneCountInString(value) <= width {
		return value
	}
	if width <= len(ellipsis) {
		return string([]rune(value)[:width])
	}
	return string([]rune(value)[:width-len(ellipsis)]) + ellipsis
}

// ansiColorNumber extracts the color number from an ANSI escape sequence.
// Example: "\033[0;34m" -> "34"
func ansiColorNumber(ansi string) string {
	if len(ansi) < 2 {
		return ""
	}
	lastSemicolon := strings.LastIndex(ansi, ";")
	if lastSemicolon == -1 {
		return ""
	}
	return ansi[lastSemicolon+1 : len(ansi)-1]
}
