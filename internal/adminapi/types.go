// Package adminapi exposes the supervisor's state and controls over HTTP,
// using gorilla/mux for routing — the JSON admin surface operators and the
// browser dashboard talk to.
package adminapi

import (
	"time"

	"github.com/sable-ops/bouncer/internal/bans"
	"github.com/sable-ops/bouncer/internal/supervisor"
	"github.com/sable-ops/bouncer/internal/votes"
)

// UploadLimit caps request body size for POST /api/requests.
const UploadLimit = 10 << 20 // 10 MiB

// AuditFeed is the subset of *supervisor.Supervisor the API reads.
type AuditFeed interface {
	AuditEntries() []supervisor.AuditEntry
	SystemEntries() []supervisor.SystemEntry
}

// Registry is the subset of *bans.Registry the API reads.
type Registry interface {
	Players() []string
	Online() []bans.OnlinePlayer
	Banned() []bans.BanRecord
}

// VoteEngine is the subset of *votes.Engine the API drives.
type VoteEngine interface {
	Create(applicant, command, reason string, imageBytes []byte, imageExt string) (string, error)
	Vote(id, ip string) votes.VoteStatus
	List() []votes.CommandRequest
	Threshold() int
}

// OpsList is the subset of the operator roster the API reads.
type OpsList interface {
	Names() []string
}

// mergedLogEntry is the JSON shape returned by GET /api/logs: an
// AuditEntry or SystemEntry rendered into one common envelope, sorted
// oldest-first (newest last).
type mergedLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Player    string    `json:"player,omitempty"`
	Content   string    `json:"content,omitempty"`
}
