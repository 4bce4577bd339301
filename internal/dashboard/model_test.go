package dashboard

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sable-ops/bouncer/internal/bans"
	"github.com/sable-ops/bouncer/internal/eventbus"
	"github.com/sable-ops/bouncer/internal/votes"
)

type fakeRegistryView struct {
	online []bans.OnlinePlayer
	banned []bans.BanRecord
}

func (f fakeRegistryView) Online() []bans.OnlinePlayer { return f.online }
func (f fakeRegistryView) Banned() []bans.BanRecord    { return f.banned }

type fakeVoteView struct {
	pending   []votes.CommandRequest
	threshold int
}

func (f fakeVoteView) List() []votes.CommandRequest { return f.pending }
func (f fakeVoteView) Threshold() int                { return f.threshold }

func TestUpdate_KeyQuit(t *testing.T) {
	quitCalled := false
	m := newModel(make(chan eventbus.Event), nil, nil, func() { quitCalled = true })

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !quitCalled {
		t.Error("expected onQuit to be called")
	}
	if cmd == nil {
		t.Error("expected a tea.Quit command")
	}
}

func TestUpdate_EventAppendsToFeed(t *testing.T) {
	ch := make(chan eventbus.Event, 1)
	m := newModel(ch, nil, nil, nil)

	ev := eventbus.NewAuditEvent(time.Now(), "join", "Alice", "")
	updated, cmd := m.Update(eventMsg(ev))
	mm := updated.(model)

	if len(mm.feed) != 1 {
		t.Fatalf("want 1 feed line, got %d", len(mm.feed))
	}
	if mm.feed[0].text != "Alice: " {
		t.Errorf("unexpected feed text: %q", mm.feed[0].text)
	}
	if cmd == nil {
		t.Error("expected a command to wait for the next event")
	}
}

func TestUpdate_FeedTrimsWhenOverCapacity(t *testing.T) {
	m := newModel(make(chan eventbus.Event), nil, nil, nil)
	for i := 0; i < maxFeedLines+10; i++ {
		m.appendFeed(eventbus.NewSystemEvent(time.Now(), "line"))
	}
	if len(m.feed) > maxFeedLines {
		t.Errorf("expected feed capped at %d, got %d", maxFeedLines, len(m.feed))
	}
}

func TestUpdate_RefreshPopulatesPanes(t *testing.T) {
	m := newModel(make(chan eventbus.Event), nil, nil, nil)
	msg := refreshMsg{
		online:    []bans.OnlinePlayer{{Name: "Alice"}},
		banned:    []bans.BanRecord{{Name: "Bob", Reason: "griefing"}},
		pending:   []votes.CommandRequest{{Applicant: "Carl", Command: "pardon Carl"}},
		threshold: 3,
	}
	updated, _ := m.Update(msg)
	mm := updated.(model)

	if len(mm.online) != 1 || mm.online[0].Name != "Alice" {
		t.Errorf("unexpected online: %+v", mm.online)
	}
	if len(mm.banned) != 1 || mm.banned[0].Name != "Bob" {
		t.Errorf("unexpected banned: %+v", mm.banned)
	}
	if len(mm.pending) != 1 || mm.threshold != 3 {
		t.Errorf("unexpected vote state: %+v threshold=%d", mm.pending, mm.threshold)
	}
}

func TestUpdate_WindowSizeStored(t *testing.T) {
	m := newModel(make(chan eventbus.Event), nil, nil, nil)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	mm := updated.(model)
	if mm.width != 100 || mm.height != 40 {
		t.Errorf("unexpected dimensions: %dx%d", mm.width, mm.height)
	}
}

func TestFormatEvent_BanAndPardon(t *testing.T) {
	ban := formatEvent(eventbus.NewBanEvent(time.Now(), "Griefer", "forbidden command"))
	if ban.text != "Griefer banned: forbidden command" {
		t.Errorf("unexpected ban text: %q", ban.text)
	}

	pardon := formatEvent(eventbus.NewPardonEvent(time.Now(), "Griefer"))
	if pardon.text != "Griefer pardoned" {
		t.Errorf("unexpected pardon text: %q", pardon.text)
	}
}

func TestAppendFeed_SkipsEmptyText(t *testing.T) {
	m := newModel(make(chan eventbus.Event), nil, nil, nil)
	m.appendFeed(eventbus.NewSystemEvent(time.Now(), ""))
	if len(m.feed) != 0 {
		t.Errorf("expected empty system message to be skipped, got %d lines", len(m.feed))
	}
}
