package main

import (
	"path/filepath"
	"testing"

	"github.com/sable-ops/bouncer/internal/votes"
)

type fakeExecutor struct {
	executed []string
}

func (f *fakeExecutor) Execute(command, applicant string) {
	f.executed = append(f.executed, command)
}

func newTestGate(t *testing.T) *voteGate {
	t.Helper()
	dir := t.TempDir()
	engine, err := votes.New(nil, &fakeExecutor{}, 3, filepath.Join(dir, "requests.dat"), filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatalf("votes.New: %v", err)
	}
	return newVoteGate(engine)
}

func TestVoteGate_AcceptingByDefault(t *testing.T) {
	gate := newTestGate(t)
	if !gate.Accepting() {
		t.Fatal("expected new gate to accept by default")
	}
	if _, err := gate.Create("alice", "kick bob", "griefing", nil, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestVoteGate_RejectsCreateWhenPaused(t *testing.T) {
	gate := newTestGate(t)
	gate.SetAccepting(false)

	if _, err := gate.Create("alice", "kick bob", "griefing", nil, ""); err != errPaused {
		t.Fatalf("Create while paused = %v, want errPaused", err)
	}
}

func TestVoteGate_VoteAndListPassThroughWhilePaused(t *testing.T) {
	gate := newTestGate(t)
	id, err := gate.Create("alice", "kick bob", "griefing", nil, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	gate.SetAccepting(false)

	if status := gate.Vote(id, "1.2.3.4"); status != votes.VoteOK {
		t.Fatalf("Vote while paused = %v, want VoteOK", status)
	}
	if len(gate.List()) != 1 {
		t.Fatalf("List while paused returned %d requests, want 1", len(gate.List()))
	}
	if gate.Threshold() != 3 {
		t.Fatalf("Threshold() = %d, want 3", gate.Threshold())
	}
}

func TestVoteGate_ResumeAllowsCreateAgain(t *testing.T) {
	gate := newTestGate(t)
	gate.SetAccepting(false)
	gate.SetAccepting(true)

	if _, err := gate.Create("alice", "kick bob", "griefing", nil, ""); err != nil {
		t.Fatalf("Create after resume: %v", err)
	}
}
