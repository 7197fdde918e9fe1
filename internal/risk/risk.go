// Package risk estimates how much change a user is ready for from the words
// they use.
package risk

import "strings"

// Level is a coarse risk tolerance estimate.
type Level string

const (
	Low    Level = "low"
	Medium Level = "medium"
	High   Level = "high"
)

// DefaultRisky lists phrases that suggest the user is ready for big moves.
var DefaultRisky = []string{
	"quit",
	"burn out",
	"burnout",
	"hate my job",
	"start over",
	"change everything",
	"blow it up",
	"walk away",
}

// DefaultCautious lists phrases that suggest the user wants to play it safe.
var DefaultCautious = []string{
	"stable",
	"secure",
	"steady",
	"safe",
	"risk averse",
	"risk-averse",
}

// Classifier maps a message to a Level by case-insensitive substring match.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	risky    []string
	cautious []string
}

// NewClassifier builds a classifier. An empty list keeps the matching default.
func NewClassifier(risky, cautious []string) *Classifier {
	c := &Classifier{
		risky:    normalize(risky),
		cautious: normalize(cautious),
	}
	if len(c.risky) == 0 {
		c.risky = normalize(DefaultRisky)
	}
	if len(c.cautious) == 0 {
		c.cautious = normalize(DefaultCautious)
	}
	return c
}

// Classify returns High when any risky phrase occurs, otherwise Low when any
// cautious phrase occurs, otherwise Medium.
func (c *Classifier) Classify(message string) Level {
	text := strings.ToLower(message)

	if containsAny(text, c.risky) {
		return High
	}
	if containsAny(text, c.cautious) {
		return Low
	}
	return Medium
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

func normalize(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	for _, phrase := range phrases {
		phrase = strings.ToLower(strings.TrimSpace(phrase))
		if phrase != "" {
			out = append(out, phrase)
		}
	}
	return out
}
