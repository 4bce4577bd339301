// Package classifier extracts typed player events from one cleaned line
// of a game server's stdout. Classify is a pure function: it holds no
// state of its own and mutates nothing. Callers supply a KnownPlayerResolver
// to let the Command pattern attribute a bracketed server message to a
// player without the classifier tracking players itself.
package classifier

import "time"

// Kind tags the variant held by an Event.
type Kind int

// Event kinds. Classify tries Join, Leave, Command and Chat in that order
// and falls back to KindOther, the zero value.
const (
	KindOther Kind = iota
	KindJoin
	KindLeave
	KindCommand
	KindChat
)

// String renders the kind for logging and audit display.
func (k Kind) String() string {
	switch k {
	case KindJoin:
		return "join"
	case KindLeave:
		return "leave"
	case KindCommand:
		return "command"
	case KindChat:
		return "chat"
	default:
		return "other"
	}
}

// Event is the classifier's output: exactly one of the fields relevant to
// Kind is populated. ServerTime is the timestamp parsed out of the line's
// "[HH:MM:SS" prefix (today's date, that time of day); it is advisory and
// distinct from the wall-clock time a caller attaches when auditing.
type Event struct {
	Kind       Kind
	Player     string
	ClientInfo string
	Content    string
	Text       string
	ServerTime time.Time
}

// KnownPlayerResolver looks for a known player name inside content. It is
// used only by the bracketed-command pattern, which must attribute a
// server message to a player without the classifier owning player state.
type KnownPlayerResolver interface {
	// FindKnown returns the first known player name that appears as a
	// substring of content, or "" if none match.
	FindKnown(content string) string
}
