package main

import (
	"path/filepath"
	"testing"

	"github.com/sable-ops/bouncer/internal/bans"
	"github.com/sable-ops/bouncer/internal/childproc"
	"github.com/sable-ops/bouncer/internal/votes"
)

type nopSender struct{}

func (nopSender) Send(b []byte) error { return nil }

func newTestTarget(t *testing.T) *controlTarget {
	t.Helper()
	dir := t.TempDir()
	registry, err := bans.New(nil, nopSender{}, filepath.Join(dir, "players.list"), filepath.Join(dir, "banned.list"), nil)
	if err != nil {
		t.Fatalf("bans.New: %v", err)
	}
	engine, err := votes.New(nil, &fakeExecutor{}, 3, filepath.Join(dir, "requests.dat"), filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatalf("votes.New: %v", err)
	}
	gate := newVoteGate(engine)
	child := childproc.New(nil, "true")

	return &controlTarget{child: child, registry: registry, gate: gate}
}

func TestControlTarget_ReflectsChildRunning(t *testing.T) {
	target := newTestTarget(t)
	if target.ChildRunning() {
		t.Fatal("expected child not running before Run()")
	}
}

func TestControlTarget_OnlineAndBannedCounts(t *testing.T) {
	target := newTestTarget(t)
	target.registry.Ban("griefer", "spam", 1)

	if got := target.BannedCount(); got != 1 {
		t.Fatalf("BannedCount() = %d, want 1", got)
	}
	if got := target.OnlineCount(); got != 0 {
		t.Fatalf("OnlineCount() = %d, want 0", got)
	}
}

func TestControlTarget_PendingVoteCount(t *testing.T) {
	target := newTestTarget(t)
	if _, err := target.gate.Create("alice", "kick bob", "griefing", nil, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := target.PendingVoteCount(); got != 1 {
		t.Fatalf("PendingVoteCount() = %d, want 1", got)
	}
}

func TestControlTarget_VotesAcceptedToggle(t *testing.T) {
	target := newTestTarget(t)
	if !target.VotesAccepted() {
		t.Fatal("expected VotesAccepted true by default")
	}
	target.SetVotesAccepted(false)
	if target.VotesAccepted() {
		t.Fatal("expected VotesAccepted false after SetVotesAccepted(false)")
	}
}

func TestControlTarget_RequestStopInvokesCallback(t *testing.T) {
	target := newTestTarget(t)
	var gotForce bool
	var called bool
	target.onStop = func(force bool) {
		called = true
		gotForce = force
	}

	target.RequestStop(true)

	if !called {
		t.Fatal("expected onStop to be called")
	}
	if !gotForce {
		t.Fatal("expected force=true to be forwarded")
	}
}
