package classifier

import (
	"regexp"
	"strings"
	"time"
)

// ansiRegex matches ANSI escape sequences: ESC '[' then digit/semicolon
// parameter bytes terminated by any ASCII letter.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// bareSGRRegex matches a bracketed SGR parameter run whose leading escape
// byte has already been stripped upstream — observed in real traces piped
// through an intermediate terminal emulator.
var bareSGRRegex = regexp.MustCompile(`\[[0-9]+(;[0-9]+)*m\]?`)

var timestampRegex = regexp.MustCompile(`^\[(\d{2}):(\d{2}):(\d{2})`)

var (
	joinWithClientRegex = regexp.MustCompile(`^Player (\S+) joined with (.+)$`)
	joinVanillaRegex    = regexp.MustCompile(`^(\S+) joined the game$`)
	leaveRegex          = regexp.MustCompile(`^(\S+) left the game$`)
	issuedCommandRegex  = regexp.MustCompile(`^(\S+) issued server command: /(.+)$`)
	chatRegex           = regexp.MustCompile(`^<(\S+)> (.*)$`)
)

// stripControlSequences removes ANSI escape runs and bare SGR parameter
// runs from a line.
func stripControlSequences(s string) string {
	s = ansiRegex.ReplaceAllString(s, "")
	s = bareSGRRegex.ReplaceAllString(s, "")
	return s
}

// parseServerTimestamp extracts "[HH:MM:SS" from the start of line,
// overriding today's hour/minute/second. now is returned unchanged if the
// prefix is absent or malformed.
func parseServerTimestamp(line string, now time.Time) time.Time {
	m := timestampRegex.FindStringSubmatch(line)
	if m == nil {
		return now
	}
	hh, mm, ss := atoiSafe(m[1]), atoiSafe(m[2]), atoiSafe(m[3])
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 || ss < 0 || ss > 59 {
		return now
	}
	y, mo, d := now.Date()
	return time.Date(y, mo, d, hh, mm, ss, 0, now.Location())
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return -1
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// Classify turns one raw line of child stdout into an Event. now is the
// fallback timestamp used when the line carries no parseable server clock.
// resolver is consulted only for the bracketed-command pattern, which must
// attribute a message to a known player without the classifier tracking
// player state itself; it may be nil.
func Classify(line string, now time.Time, resolver KnownPlayerResolver) Event {
	clean := stripControlSequences(line)
	serverTime := parseServerTimestamp(clean, now)

	idx := strings.Index(clean, "]: ")
	if idx < 0 {
		return Event{Kind: KindOther, ServerTime: serverTime}
	}
	content := strings.TrimRight(clean[idx+len("]: "):], "\r\n")

	if m := joinWithClientRegex.FindStringSubmatch(content); m != nil {
		return Event{
			Kind:       KindJoin,
			Player:     m[1],
			ClientInfo: strings.TrimRight(m[2], "\r\n"),
			ServerTime: serverTime,
		}
	}
	if m := joinVanillaRegex.FindStringSubmatch(content); m != nil {
		return Event{
			Kind:       KindJoin,
			Player:     m[1],
			ClientInfo: "vanilla",
			ServerTime: serverTime,
		}
	}
	if m := leaveRegex.FindStringSubmatch(content); m != nil {
		return Event{
			Kind:       KindLeave,
			Player:     m[1],
			ServerTime: serverTime,
		}
	}
	if m := issuedCommandRegex.FindStringSubmatch(content); m != nil {
		return Event{
			Kind:       KindCommand,
			Player:     m[1],
			Content:    "/" + strings.TrimRight(m[2], "\r\n"),
			ServerTime: serverTime,
		}
	}
	if bracket, ok := bracketedCommand(content); ok {
		var player string
		if resolver != nil {
			player = resolver.FindKnown(content)
		}
		return Event{
			Kind:       KindCommand,
			Player:     player,
			Content:    bracket,
			ServerTime: serverTime,
		}
	}
	if m := chatRegex.FindStringSubmatch(content); m != nil {
		return Event{
			Kind:       KindChat,
			Player:     m[1],
			Text:       strings.TrimSpace(m[2]),
			ServerTime: serverTime,
		}
	}

	return Event{Kind: KindOther, ServerTime: serverTime}
}

// bracketedCommand recognizes content of the form "[...: ...]" — a
// bracketed server message whose first colon appears before the closing
// bracket. Returns the bracket substring "[...]" and true on match.
func bracketedCommand(content string) (string, bool) {
	if !strings.HasPrefix(content, "[") {
		return "", false
	}
	close := strings.IndexByte(content, ']')
	if close < 0 {
		return "", false
	}
	inner := content[1:close]
	if !strings.Contains(inner, ":") {
		return "", false
	}
	return content[:close+1], true
}
