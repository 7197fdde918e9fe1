package persona

import (
	"fmt"
	"strings"

	"github.com/roguegoose-dev/goose-guidance/internal/failure"
)

// Role tells who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// EmptyTranscript stands in for a conversation without previous turns.
const EmptyTranscript = "(no previous messages)"

// Turn is one caller-supplied conversation entry. Turns are never stored
// server side; the caller sends the whole history with every request.
type Turn struct {
	Role      Role
	PersonaID ID
	Text      string
	AudioRef  string
}

// Resolve validates a history against the registry and returns a copy in
// which every turn names a persona. Turns without a persona inherit current.
func (r *Registry) Resolve(turns []Turn, current ID) ([]Turn, error) {
	if _, ok := r.byID[current]; !ok {
		return nil, failure.Invalid("persona", "unknown persona %q", current)
	}

	resolved := make([]Turn, 0, len(turns))
	for i, turn := range turns {
		switch turn.Role {
		case "", RoleUser, RoleAssistant:
		default:
			return nil, failure.Invalid(fmt.Sprintf("history[%d].role", i), "unknown role %q", turn.Role)
		}

		if turn.PersonaID == "" {
			turn.PersonaID = current
		}
		if _, ok := r.byID[turn.PersonaID]; !ok {
			return nil, failure.Invalid(fmt.Sprintf("history[%d].persona", i), "unknown persona %q", turn.PersonaID)
		}

		resolved = append(resolved, turn)
	}

	return resolved, nil
}

// Transcript flattens resolved turns into "<DisplayName>: <text>" lines in
// the order given.
func (r *Registry) Transcript(turns []Turn) string {
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		text := strings.TrimSpace(turn.Text)
		if text == "" {
			continue
		}
		label := string(turn.PersonaID)
		if p, ok := r.byID[turn.PersonaID]; ok {
			label = p.DisplayName
		}
		lines = append(lines, label+": "+text)
	}

	if len(lines) == 0 {
		return EmptyTranscript
	}

	return strings.Join(lines, "\n")
}
