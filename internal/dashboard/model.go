package dashboard

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sable-ops/bouncer/internal/bans"
	"github.com/sable-ops/bouncer/internal/eventbus"
	"github.com/sable-ops/bouncer/internal/votes"
)

const (
	maxFeedLines  = 500
	trimFeedLines = 50
	pollInterval  = 2 * time.Second
)

type feedLine struct {
	at    time.Time
	style lipgloss.Style
	text  string
}

type eventMsg eventbus.Event
type channelClosedMsg struct{}
type tickMsg time.Time

type model struct {
	eventChan <-chan eventbus.Event
	reg       RegistryView
	votes     VoteView
	onQuit    func()

	width, height int

	feed      []feedLine
	feedVP    viewport.Model
	online    []bans.OnlinePlayer
	banned    []bans.BanRecord
	pending   []votes.CommandRequest
	threshold int

	quitting bool
}

func newModel(eventChan <-chan eventbus.Event, reg RegistryView, votesView VoteView, onQuit func()) model {
	return model{eventChan: eventChan, reg: reg, votes: votesView, onQuit: onQuit, feedVP: viewport.New(40, 10)}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.eventChan), doTick(), m.refreshCmd())
}

func waitForEvent(ch <-chan eventbus.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return channelClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func doTick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type refreshMsg struct {
	online    []bans.OnlinePlayer
	banned    []bans.BanRecord
	pending   []votes.CommandRequest
	threshold int
}

func (m model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		msg := refreshMsg{}
		if m.reg != nil {
			msg.online = m.reg.Online()
			msg.banned = m.reg.Banned()
		}
		if m.votes != nil {
			msg.pending = m.votes.List()
			msg.threshold = m.votes.Threshold()
		}
		return msg
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		leftWidth := m.width * 2 / 3
		paneHeight := m.height - 6
		if paneHeight < 5 {
			paneHeight = 5
		}
		m.feedVP.Width = leftWidth - 2
		m.feedVP.Height = paneHeight - 2
		m.feedVP.SetContent(m.renderFeed())
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			if m.onQuit != nil {
				m.onQuit()
			}
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.feedVP, cmd = m.feedVP.Update(msg)
		return m, cmd

	case eventMsg:
		m.appendFeed(eventbus.Event(msg))
		return m, waitForEvent(m.eventChan)

	case channelClosedMsg:
		return m, nil

	case tickMsg:
		return m, tea.Batch(doTick(), m.refreshCmd())

	case refreshMsg:
		m.online = msg.online
		m.banned = msg.banned
		m.pending = msg.pending
		m.threshold = msg.threshold
		return m, nil
	}
	return m, nil
}

func (m *model) appendFeed(ev eventbus.Event) {
	line := formatEvent(ev)
	if line.text == "" {
		return
	}
	m.feed = append(m.feed, line)
	if len(m.feed) > maxFeedLines {
		m.feed = m.feed[trimFeedLines:]
	}
	m.feedVP.SetContent(m.renderFeed())
	m.feedVP.GotoBottom()
}

func formatEvent(ev eventbus.Event) feedLine {
	at := ev.Timestamp()
	switch e := ev.(type) {
	case eventbus.AuditEvent:
		style := feedChat
		switch e.Kind {
		case "join":
			style = feedJoin
		case "leave":
			style = feedLeave
		case "command":
			style = feedCommand
		}
		text := e.Content
		if e.Player != "" {
			text = fmt.Sprintf("%s: %s", e.Player, e.Content)
		}
		return feedLine{at: at, style: style, text: text}
	case eventbus.SystemEvent:
		return feedLine{at: at, style: feedSystem, text: e.Message}
	case eventbus.BanEvent:
		verb := "banned"
		if e.Type() == eventbus.TypePardon {
			verb = "pardoned"
		}
		text := fmt.Sprintf("%s %s", e.Player, verb)
		if e.Reason != "" {
			text += ": " + e.Reason
		}
		return feedLine{at: at, style: banRow, text: text}
	case eventbus.VoteEvent:
		return feedLine{at: at, style: feedCommand, text: fmt.Sprintf("request %s by %s (%s): %s", e.RequestID, e.Applicant, e.Stage, e.Command)}
	default:
		return feedLine{}
	}
}
