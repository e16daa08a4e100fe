package state

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/petnames/reminders/internal/cache"
)

// snapshotMsg carries the result of a load or refresh.
type snapshotMsg struct {
	snap cache.Snapshot
	err  error
}

// changedMsg signals that the cache changed outside the update loop,
// for example when a background mark-all-read reconciles.
type changedMsg struct{}

// actionMsg reports the outcome of a dismiss or mark-all-read.
type actionMsg struct {
	text string
	err  error
}

// refreshTickMsg triggers a periodic refresh.
type refreshTickMsg struct{}

// clearStatusMsg clears the status line if it is still the one set at seq.
type clearStatusMsg struct {
	seq int
}

func clearStatusAfter(seq int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}
