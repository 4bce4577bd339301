package main

import (
	"github.com/sable-ops/bouncer/internal/bans"
	"github.com/sable-ops/bouncer/internal/childproc"
)

// controlTarget implements opcontrol.Target by composing the pieces
// OperatorControl needs to read from or act against: the supervised
// child, the ban registry, and the vote gate.
type controlTarget struct {
	child    *childproc.ChildProcess
	registry *bans.Registry
	gate     *voteGate
	onStop   func(force bool)
}

func (t *controlTarget) ChildRunning() bool {
	return t.child.Running()
}

func (t *controlTarget) OnlineCount() int {
	return len(t.registry.Online())
}

func (t *controlTarget) BannedCount() int {
	return len(t.registry.Banned())
}

func (t *controlTarget) PendingVoteCount() int {
	count := 0
	for _, req := range t.gate.List() {
		if !req.Executed {
			count++
		}
	}
	return count
}

func (t *controlTarget) VotesAccepted() bool {
	return t.gate.Accepting()
}

func (t *controlTarget) SetVotesAccepted(accepted bool) {
	t.gate.SetAccepting(accepted)
}

func (t *controlTarget) RequestStop(force bool) {
	t.onStop(force)
}
