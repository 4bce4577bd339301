// Package dashboard is the read-only terminal UI: a bubbletea/lipgloss
// view over the supervisor's live audit feed, online players, ban list,
// and pending vote queue. It never mutates state — every write still
// flows through internal/bans and internal/votes — it only subscribes
// to internal/eventbus and polls snapshot accessors.
package dashboard

import (
	"github.com/sable-ops/bouncer/internal/bans"
	"github.com/sable-ops/bouncer/internal/votes"
)

// RegistryView is the subset of *bans.Registry the dashboard polls.
type RegistryView interface {
	Online() []bans.OnlinePlayer
	Banned() []bans.BanRecord
}

// VoteView is the subset of *votes.Engine the dashboard polls.
type VoteView interface {
	List() []votes.CommandRequest
	Threshold() int
}
