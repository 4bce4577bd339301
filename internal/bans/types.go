// Package bans tracks known players, online players, and time-bounded
// bans, and enforces a forbidden-command table against classified server
// commands.
package bans

import "time"

// NeverUnban is the sentinel "unbansAt" value for a permanent ban: a time
// strictly after any real clock reading.
var NeverUnban = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// BanRecord is a single player's ban state. Identity is Name.
type BanRecord struct {
	Name      string
	Reason    string
	BannedAt  time.Time
	UnbansAt  time.Time
	Permanent bool
}

// ForbiddenRule maps a substring of a whitespace-stripped, case-folded
// command to a ban duration. BanHours == 0 means permanent.
type ForbiddenRule struct {
	SubstringKey string
	BanHours     int
}

// OnlinePlayer is a currently-connected player.
type OnlinePlayer struct {
	Name       string
	JoinedAt   time.Time
	ClientInfo string
}

// Sender pushes a raw command line to the supervised child's stdin. The
// registry uses it to issue "ban <name> <reason>" and "pardon <name>"
// without owning the child itself.
type Sender interface {
	Send(b []byte) error
}
