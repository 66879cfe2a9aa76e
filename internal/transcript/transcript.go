package transcript

import "strings"

// Turn authorship. Only two roles exist: the suspected fraudster and the
// automated honeypot persona replying to them.
const (
	RoleScammer  = "scammer"
	RoleHoneypot = "honeypot"
)

// Message is one turn of a honeypot conversation. Insertion order is
// chronology; the slice a conversation carries is append-only.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ScammerText joins all scammer-authored turns into a single analysis string.
func ScammerText(history []Message) string {
	var b strings.Builder
	for _, msg := range history {
		if msg.Role != RoleScammer {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(msg.Content)
	}
	return b.String()
}

// ScammerTurns counts scammer-authored turns.
func ScammerTurns(history []Message) int {
	n := 0
	for _, msg := range history {
		if msg.Role == RoleScammer {
			n++
		}
	}
	return n
}

// LastScammerMessage returns the most recent scammer turn, or "".
func LastScammerMessage(history []Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleScammer {
			return history[i].Content
		}
	}
	return ""
}
