package bans

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sable-ops/bouncer/internal/classifier"
	"github.com/sable-ops/bouncer/internal/eventbus"
)

type fakeSender struct {
	sent []string
}

func (f *fakeSender) Send(b []byte) error {
	f.sent = append(f.sent, string(b))
	return nil
}

func newTestRegistry(t *testing.T, rules []ForbiddenRule) (*Registry, *fakeSender) {
	t.Helper()
	dir := t.TempDir()
	sender := &fakeSender{}
	r, err := New(nil, sender, filepath.Join(dir, "players.list"), filepath.Join(dir, "banned.list"), rules)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r, sender
}

func TestOnEvent_JoinThenLeave(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	r.OnEvent(classifier.Event{Kind: classifier.KindJoin, Player: "Alice", ClientInfo: "vanilla"})

	if !r.IsOnline("Alice") {
		t.Fatalf("expected Alice online")
	}
	players := r.Players()
	if len(players) != 1 || players[0] != "Alice" {
		t.Fatalf("unexpected known players: %v", players)
	}

	r.OnEvent(classifier.Event{Kind: classifier.KindLeave, Player: "Alice"})
	if r.IsOnline("Alice") {
		t.Fatalf("expected Alice offline after leave")
	}
	if len(r.Players()) != 1 {
		t.Fatalf("expected Alice to remain known after leave")
	}
}

func TestOnEvent_CommandMatchesForbiddenRule(t *testing.T) {
	rules := []ForbiddenRule{{SubstringKey: "/op", BanHours: 1}}
	r, sender := newTestRegistry(t, rules)
	r.OnEvent(classifier.Event{Kind: classifier.KindJoin, Player: "Bob"})

	r.OnEvent(classifier.Event{Kind: classifier.KindCommand, Player: "Bob", Content: "/op Bob"})

	if !r.IsBanned("Bob") {
		t.Fatalf("expected Bob banned")
	}
	banned := r.Banned()
	if len(banned) != 1 {
		t.Fatalf("expected 1 ban record, got %d", len(banned))
	}
	rec := banned[0]
	if !strings.Contains(rec.Reason, "/op Bob") {
		t.Fatalf("expected ban reason to contain offending command, got %q", rec.Reason)
	}
	if !strings.Contains(rec.Reason, rec.UnbansAt.Format(timeLayout)) {
		t.Fatalf("expected ban reason to contain unban timestamp %q, got %q", rec.UnbansAt.Format(timeLayout), rec.Reason)
	}

	found := false
	for _, s := range sender.sent {
		if strings.HasPrefix(s, "ban Bob ") && strings.Contains(s, "/op Bob") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ban command sent, got %v", sender.sent)
	}
}

func TestOnEvent_CommandNoMatchDoesNotBan(t *testing.T) {
	rules := []ForbiddenRule{{SubstringKey: "/op", BanHours: 1}}
	r, _ := newTestRegistry(t, rules)
	r.OnEvent(classifier.Event{Kind: classifier.KindJoin, Player: "Carol"})
	r.OnEvent(classifier.Event{Kind: classifier.KindCommand, Player: "Carol", Content: "/help"})
	if r.IsBanned("Carol") {
		t.Fatalf("expected Carol not banned")
	}
}

func TestBan_PermanentUsesSentinel(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	r.Ban("Dave", "test", 0)

	banned := r.Banned()
	if len(banned) != 1 {
		t.Fatalf("expected 1 ban record, got %d", len(banned))
	}
	if !banned[0].Permanent || !banned[0].UnbansAt.Equal(NeverUnban) {
		t.Fatalf("expected permanent ban with sentinel, got %+v", banned[0])
	}
}

func TestBan_TemporaryComputesUnbansAt(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	before := time.Now()
	r.Ban("Eve", "test", 2)
	after := time.Now()

	banned := r.Banned()
	rec := banned[0]
	if rec.Permanent {
		t.Fatalf("expected non-permanent ban")
	}
	if rec.UnbansAt.Before(before.Add(2*time.Hour)) || rec.UnbansAt.After(after.Add(2*time.Hour)) {
		t.Fatalf("unexpected unbansAt: %v", rec.UnbansAt)
	}
}

func TestPardon_RemovesRecordAndSendsCommand(t *testing.T) {
	r, sender := newTestRegistry(t, nil)
	r.Ban("Frank", "test", 1)

	if ok := r.Pardon("Frank"); !ok {
		t.Fatalf("expected pardon to succeed")
	}
	if r.IsBanned("Frank") {
		t.Fatalf("expected Frank unbanned")
	}
	if ok := r.Pardon("Frank"); ok {
		t.Fatalf("expected second pardon to report false")
	}

	found := false
	for _, s := range sender.sent {
		if s == "pardon Frank\n" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected pardon command sent, got %v", sender.sent)
	}
}

func TestPersistence_BannedFileRoundTrips(t *testing.T) {
	dir := t.TempDir()
	sender := &fakeSender{}
	bannedPath := filepath.Join(dir, "banned.list")
	playersPath := filepath.Join(dir, "players.list")

	r1, err := New(nil, sender, playersPath, bannedPath, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r1.Ban("Grace", "cheating", 5)

	r2, err := New(nil, sender, playersPath, bannedPath, nil)
	if err != nil {
		t.Fatalf("New (reload): %v", err)
	}
	if !r2.IsBanned("Grace") {
		t.Fatalf("expected Grace still banned after reload")
	}
}

func TestLoadForbiddenRules_ParsesKeywordAndHours(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forbidden_commands.list")
	content := "# comment\n\nop 0\nban-player 24\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rules, err := LoadForbiddenRules(path)
	if err != nil {
		t.Fatalf("LoadForbiddenRules: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d: %+v", len(rules), rules)
	}
	if rules[0].SubstringKey != "op" || rules[0].BanHours != 0 {
		t.Fatalf("unexpected rule 0: %+v", rules[0])
	}
	if rules[1].SubstringKey != "ban-player" || rules[1].BanHours != 24 {
		t.Fatalf("unexpected rule 1: %+v", rules[1])
	}
}

func TestLoadForbiddenRules_MissingFileIsEmpty(t *testing.T) {
	rules, err := LoadForbiddenRules(filepath.Join(t.TempDir(), "nope.list"))
	if err != nil {
		t.Fatalf("LoadForbiddenRules: %v", err)
	}
	if len(rules) != 0 {
		t.Fatalf("expected empty rule set, got %v", rules)
	}
}

func TestSweep_PardonsExpiredBans(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	r.mu.Lock()
	r.banned["Hank"] = BanRecord{
		Name:     "Hank",
		Reason:   "test",
		BannedAt: time.Now().Add(-2 * time.Hour),
		UnbansAt: time.Now().Add(-1 * time.Hour),
	}
	r.mu.Unlock()

	r.sweepOnce()

	if r.IsBanned("Hank") {
		t.Fatalf("expected expired ban to be pardoned by sweep")
	}
}

func TestSweep_DoesNotTouchPermanentBans(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	r.Ban("Ivy", "test", 0)
	r.sweepOnce()
	if !r.IsBanned("Ivy") {
		t.Fatalf("expected permanent ban to survive sweep")
	}
}

func TestFindKnown_ReturnsSubstringMatch(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	r.OnEvent(classifier.Event{Kind: classifier.KindJoin, Player: "Jack"})
	if got := r.FindKnown("[Jack: did something]"); got != "Jack" {
		t.Fatalf("expected Jack, got %q", got)
	}
	if got := r.FindKnown("[nobody here]"); got != "" {
		t.Fatalf("expected no match, got %q", got)
	}
}

func TestRegistry_EmitsBanAndPardonEventsWhenRouterSet(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	router := eventbus.NewRouter(nil, 10)
	defer router.Close()
	r.SetRouter(router)
	ch := router.Subscribe()

	r.Ban("Kate", "griefing", 1)
	select {
	case ev := <-ch:
		banEv, ok := ev.(eventbus.BanEvent)
		if !ok || banEv.Type() != eventbus.TypeBan || banEv.Player != "Kate" {
			t.Fatalf("unexpected ban event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ban event")
	}

	r.Pardon("Kate")
	select {
	case ev := <-ch:
		pardonEv, ok := ev.(eventbus.BanEvent)
		if !ok || pardonEv.Type() != eventbus.TypePardon || pardonEv.Player != "Kate" {
			t.Fatalf("unexpected pardon event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for pardon event")
	}
}
