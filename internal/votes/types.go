// Package votes implements a community-voted queue of privileged server
// commands: any player may propose a command, other players vote by IP,
// and once a vote threshold is reached the command is forwarded to the
// supervised child.
package votes

import "time"

// CommandRequest is a single proposed command and its voting state.
type CommandRequest struct {
	ID         string
	Applicant  string
	Command    string
	Reason     string
	ImageRef   string
	VotedIPs   map[string]struct{}
	CreatedAt  time.Time
	ExecutedAt time.Time
	Executed   bool
}

// VoteStatus is the outcome of casting a vote.
type VoteStatus int

const (
	VoteOK VoteStatus = iota
	VoteDuplicateIP
	VoteNoSuchRequest
	VoteAlreadyExecuted
)

// Executor forwards an approved command to the supervised child on behalf
// of applicant.
type Executor interface {
	Execute(command, applicant string)
}
