package main

import (
	"sync/atomic"

	"github.com/sable-ops/bouncer/internal/votes"
)

// voteGate wraps a *votes.Engine with an operator-controlled accept flag:
// bouncer pause/resume toggles whether new command requests are admitted,
// without touching the engine's voting or execution machinery.
type voteGate struct {
	engine    *votes.Engine
	accepting atomic.Bool
}

func newVoteGate(engine *votes.Engine) *voteGate {
	g := &voteGate{engine: engine}
	g.accepting.Store(true)
	return g
}

// Accepting reports whether new requests are currently admitted.
func (g *voteGate) Accepting() bool {
	return g.accepting.Load()
}

// SetAccepting toggles whether new requests are admitted.
func (g *voteGate) SetAccepting(accepting bool) {
	g.accepting.Store(accepting)
}

// Create implements adminapi.VoteEngine, refusing new requests while
// paused.
func (g *voteGate) Create(applicant, command, reason string, imageBytes []byte, imageExt string) (string, error) {
	if !g.accepting.Load() {
		return "", errPaused
	}
	return g.engine.Create(applicant, command, reason, imageBytes, imageExt)
}

func (g *voteGate) Vote(id, ip string) votes.VoteStatus {
	return g.engine.Vote(id, ip)
}

func (g *voteGate) List() []votes.CommandRequest {
	return g.engine.List()
}

func (g *voteGate) Threshold() int {
	return g.engine.Threshold()
}
