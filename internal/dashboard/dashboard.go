package dashboard

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sable-ops/bouncer/internal/eventbus"
)

// Dashboard is the terminal UI entry point: a thin wrapper that either
// runs the full bubbletea view or falls back to line-by-line printing
// when stdout isn't a TTY, mirroring the auto-detect decision every
// interactive tool in this corpus makes before committing to alt-screen
// mode.
type Dashboard struct {
	eventChan <-chan eventbus.Event
	reg       RegistryView
	votes     VoteView
	onQuit    func()
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// New creates a Dashboard subscribed to eventChan, polling reg and votes
// for the online/ban/queue panes.
func New(eventChan <-chan eventbus.Event, reg RegistryView, votesView VoteView, opts ...Option) *Dashboard {
	d := &Dashboard{eventChan: eventChan, reg: reg, votes: votesView}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WithOnQuit sets the callback invoked when the operator quits the
// dashboard with 'q'.
func WithOnQuit(fn func()) Option {
	return func(d *Dashboard) { d.onQuit = fn }
}

// Run starts the dashboard and blocks until it exits. Non-interactive
// environments (no TTY, or a terminal smaller than the minimum usable
// size) fall back to simple streamed output.
func (d *Dashboard) Run() error {
	if !isTerminal() || terminalTooSmall() {
		return d.runSimple()
	}

	m := newModel(d.eventChan, d.reg, d.votes, d.onQuit)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// AutoEnable reports whether the dashboard should be started at all:
// stdout must be a TTY and the caller must not have requested background
// (--daemon) mode.
func AutoEnable(daemonMode bool) bool {
	return !daemonMode && isTerminal()
}
