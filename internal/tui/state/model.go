// Package state holds the bubbletea model for the reminders TUI.
package state

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/petnames/reminders/internal/cache"
	"github.com/petnames/reminders/internal/domain"
)

const (
	headerFooterLines     = 4
	defaultViewportWidth  = 80
	defaultViewportHeight = 22
	statusClearDuration   = 5 * time.Second
	defaultActionTimeout  = 15 * time.Second
)

// Notifications is the slice of the client cache the TUI drives.
// *cache.Cache satisfies it.
type Notifications interface {
	Load(ctx context.Context, userID string) (cache.Snapshot, error)
	Refresh(ctx context.Context) (cache.Snapshot, error)
	Dismiss(ctx context.Context, appointmentID string) error
	MarkAllRead(ctx context.Context) error
	Snapshot() cache.Snapshot
}

// Options configures a Model.
type Options struct {
	// Changes receives a signal whenever the cache changes outside the
	// update loop. Nil disables live updates.
	Changes <-chan struct{}
	// Timeout bounds each source call. Zero means 15s.
	Timeout time.Duration
	// Clock is used to bucket rows for display. Nil means time.Now.
	Clock func() time.Time
	// RefreshInterval re-fetches periodically. Zero disables polling.
	RefreshInterval time.Duration
}

// Model represents the TUI model for bubbletea.
type Model struct {
	src     Notifications
	userID  string
	changes <-chan struct{}
	timeout time.Duration
	clock   func() time.Time
	every   time.Duration

	uiState *UIState
	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	snap      cache.Snapshot
	loaded    bool
	status    string
	statusErr bool
	statusSeq int
}

// NewModel creates a model that shows userID's notifications from src.
func NewModel(src Notifications, userID string, opts Options) *Model {
	if src == nil {
		panic("state.NewModel: notifications dependency cannot be nil")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultActionTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Model{
		src:     src,
		userID:  userID,
		changes: opts.Changes,
		timeout: opts.Timeout,
		clock:   opts.Clock,
		every:   opts.RefreshInterval,
		uiState: NewUIState(),
		keys:    DefaultKeyMap(),
		help:    help.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		snap:    cache.Snapshot{UserID: userID, Loading: true},
	}
}

// Init loads the notifications and starts listening for cache changes.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.spinner.Tick, m.waitForChange(), m.scheduleRefresh())
}

// Update handles messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.WindowSizeMsg:
		m.uiState.SetSize(msg.Width, msg.Height)
		m.help.Width = msg.Width
		return m, nil
	case snapshotMsg:
		m.snap.Loading = false
		m.applySnapshot(msg.snap)
		if msg.err != nil {
			return m, m.setStatus(msg.err.Error(), true)
		}
		return m, nil
	case changedMsg:
		m.applySnapshot(m.src.Snapshot())
		return m, m.waitForChange()
	case actionMsg:
		m.applySnapshot(m.src.Snapshot())
		if msg.err != nil {
			return m, m.setStatus(msg.err.Error(), true)
		}
		return m, m.setStatus(msg.text, false)
	case refreshTickMsg:
		return m, tea.Batch(m.refreshCmd(), m.scheduleRefresh())
	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
			m.statusErr = false
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keyMatches(msg, m.keys.Quit):
		return m, tea.Quit
	case keyMatches(msg, m.keys.Down):
		m.uiState.MoveCursor(1, len(m.items()))
	case keyMatches(msg, m.keys.Up):
		m.uiState.MoveCursor(-1, len(m.items()))
	case keyMatches(msg, m.keys.Refresh):
		m.snap.Loading = true
		return m, m.refreshCmd()
	case keyMatches(msg, m.keys.Dismiss):
		appt, ok := m.Selected()
		if !ok {
			return m, nil
		}
		return m, m.dismissCmd(appt)
	case keyMatches(msg, m.keys.MarkRead):
		return m, m.markAllReadCmd()
	case keyMatches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// Selected returns the appointment under the cursor.
func (m *Model) Selected() (domain.Appointment, bool) {
	items := m.items()
	cursor := m.uiState.GetCursor()
	if cursor < 0 || cursor >= len(items) {
		return domain.Appointment{}, false
	}
	return items[cursor], true
}

// Snapshot returns the state currently shown.
func (m *Model) Snapshot() cache.Snapshot {
	return m.snap
}

// items flattens the buckets in display order: today, upcoming, past.
func (m *Model) items() []domain.Appointment {
	g := m.snap.Groups
	out := make([]domain.Appointment, 0, g.Len())
	out = append(out, g.Today...)
	out = append(out, g.Upcoming...)
	return append(out, g.Past...)
}

func (m *Model) applySnapshot(snap cache.Snapshot) {
	// Load returns the current state without fetching while another fetch
	// runs, which may belong to nobody or to another user.
	if snap.UserID != m.userID {
		return
	}
	m.snap = snap
	if !snap.FetchedAt.IsZero() {
		m.loaded = true
	}
	m.uiState.ClampCursor(len(m.items()))
}

func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.statusSeq++
	m.status = text
	m.statusErr = isErr
	return clearStatusAfter(m.statusSeq, statusClearDuration)
}

func (m *Model) loadCmd() tea.Cmd {
	src, userID, timeout := m.src, m.userID, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		snap, err := src.Load(ctx, userID)
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m *Model) refreshCmd() tea.Cmd {
	if !m.loaded {
		return m.loadCmd()
	}
	src, timeout := m.src, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		snap, err := src.Refresh(ctx)
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m *Model) dismissCmd(appt domain.Appointment) tea.Cmd {
	src, timeout := m.src, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := src.Dismiss(ctx, appt.ID); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: "Dismissed " + appt.Title}
	}
}

func (m *Model) markAllReadCmd() tea.Cmd {
	src, timeout := m.src, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := src.MarkAllRead(ctx); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: "Marked all as read"}
	}
}

func (m *Model) scheduleRefresh() tea.Cmd {
	if m.every <= 0 {
		return nil
	}
	return tea.Tick(m.every, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

func (m *Model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	changes := m.changes
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return changedMsg{}
	}
}
