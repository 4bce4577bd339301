// Package eventbus defines the event taxonomy and channel-based pub/sub
// router that feeds the Dashboard a live view of the supervisor's audit
// feed, the ban registry, and the vote queue without coupling it
// directly to their internal state.
package eventbus

import "time"

// Type identifies the category of an event on the bus.
type Type string

const (
	TypeAudit  Type = "audit"
	TypeSystem Type = "system"
	TypeBan    Type = "ban"
	TypePardon Type = "pardon"
	TypeVote   Type = "vote"
)

// Source constants identify which subsystem emitted an event.
const (
	SourceSupervisor = "supervisor"
	SourceBans       = "bans"
	SourceVotes      = "votes"
)

// Event is the base interface every event on the bus satisfies.
type Event interface {
	Type() Type
	Timestamp() time.Time
	Source() string
}

// Base provides the common fields embedded in every concrete event.
type Base struct {
	EventType Type      `json:"type"`
	Time      time.Time `json:"timestamp"`
	Src       string    `json:"source"`
}

func (b Base) Type() Type           { return b.EventType }
func (b Base) Timestamp() time.Time { return b.Time }
func (b Base) Source() string       { return b.Src }

// AuditEvent mirrors a classified line from the child's stdout — a
// join, leave, command, or chat message — for live display.
type AuditEvent struct {
	Base
	Kind    string `json:"kind"`
	Player  string `json:"player,omitempty"`
	Content string `json:"content,omitempty"`
}

// SystemEvent mirrors an unclassified line from the child's output.
type SystemEvent struct {
	Base
	Message string `json:"message"`
}

// BanEvent is emitted whenever BanRegistry bans or pardons a player.
type BanEvent struct {
	Base
	Player string `json:"player"`
	Reason string `json:"reason,omitempty"`
}

// VoteEvent is emitted whenever a command request is created, voted on,
// or executed by RequestVoteEngine.
type VoteEvent struct {
	Base
	RequestID string `json:"request_id"`
	Applicant string `json:"applicant"`
	Command   string `json:"command"`
	Stage     string `json:"stage"` // "created", "voted" or "executed"
}

func newBase(t Type, source string, now time.Time) Base {
	return Base{EventType: t, Time: now, Src: source}
}

// NewAuditEvent builds an AuditEvent sourced from the supervisor.
func NewAuditEvent(now time.Time, kind, player, content string) AuditEvent {
	return AuditEvent{Base: newBase(TypeAudit, SourceSupervisor, now), Kind: kind, Player: player, Content: content}
}

// NewSystemEvent builds a SystemEvent sourced from the supervisor.
func NewSystemEvent(now time.Time, message string) SystemEvent {
	return SystemEvent{Base: newBase(TypeSystem, SourceSupervisor, now), Message: message}
}

// NewBanEvent builds a BanEvent sourced from the ban registry.
func NewBanEvent(now time.Time, player, reason string) BanEvent {
	return BanEvent{Base: newBase(TypeBan, SourceBans, now), Player: player, Reason: reason}
}

// NewPardonEvent builds a pardon BanEvent sourced from the ban registry.
func NewPardonEvent(now time.Time, player string) BanEvent {
	return BanEvent{Base: newBase(TypePardon, SourceBans, now), Player: player}
}

// NewVoteEvent builds a VoteEvent sourced from the vote engine.
func NewVoteEvent(now time.Time, requestID, applicant, command, stage string) VoteEvent {
	return VoteEvent{Base: newBase(TypeVote, SourceVotes, now), RequestID: requestID, Applicant: applicant, Command: command, Stage: stage}
}
